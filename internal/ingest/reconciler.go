package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/BandoEasy2025/Automation-DB-updater/internal/models"
)

// ErrGrantNotFound is returned by GrantStore lookups when no row matches.
var ErrGrantNotFound = errors.New("grant not found")

// GrantStore is the persistence surface the reconciler needs. Implemented
// by the pgx store in internal/db.
type GrantStore interface {
	FindByRecordID(ctx context.Context, recordID string) (*models.Grant, error)
	FindByNameAndPromoter(ctx context.Context, name, promoter string) (*models.Grant, error)
	InsertGrant(ctx context.Context, g *models.Grant) error
	UpdateGrantFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	AppendStatusChange(ctx context.Context, grantID uuid.UUID, oldStatus *string, newStatus string) error
	ListGrants(ctx context.Context) ([]models.Grant, error)
}

// Notifier is told about every status transition; implementations decide
// which ones are worth an email.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, grantID uuid.UUID, grantName string, oldStatus *string, newStatus, grantURL string)
}

// ReconcileResult reports what a single reconciliation pass did.
type ReconcileResult struct {
	GrantID       uuid.UUID
	Created       bool
	UpdatedFields []string
	StatusChanged bool
}

// Reconciler matches normalized grants against the store and applies the
// minimal set of changes.
type Reconciler struct {
	store    GrantStore
	notifier Notifier
	policy   StatusPolicy
	now      func() time.Time
}

func NewReconciler(store GrantStore, notifier Notifier, policy StatusPolicy, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{store: store, notifier: notifier, policy: policy, now: now}
}

// Reconcile resolves the grant's identity and either inserts it or updates
// the stored row. Only scadenza, data_apertura, descrizione_bando and
// dotazione are eligible for updates, and only when the incoming value is
// present and differs; an unparsed field can never clear a stored one.
// Status is rederived on every pass and every transition lands in the
// status ledger.
func (r *Reconciler) Reconcile(ctx context.Context, g models.Grant) (ReconcileResult, error) {
	existing, err := r.lookup(ctx, g)
	if err != nil {
		return ReconcileResult{}, err
	}

	if existing == nil {
		return r.insert(ctx, g)
	}

	updates := map[string]any{}
	var changed []string

	if g.Scadenza != nil && !timePtrEqual(g.Scadenza, existing.Scadenza) {
		updates["scadenza"] = *g.Scadenza
		changed = append(changed, "scadenza")
	}
	if g.DataApertura != nil && !timePtrEqual(g.DataApertura, existing.DataApertura) {
		updates["data_apertura"] = *g.DataApertura
		changed = append(changed, "data_apertura")
	}
	if g.DescrizioneBando != nil && !strPtrEqual(g.DescrizioneBando, existing.DescrizioneBando) {
		updates["descrizione_bando"] = *g.DescrizioneBando
		changed = append(changed, "descrizione_bando")
	}
	if g.Dotazione != nil && !floatPtrEqual(g.Dotazione, existing.Dotazione) {
		updates["dotazione"] = *g.Dotazione
		changed = append(changed, "dotazione")
	}

	newStatus := g.Stato
	if newStatus == "" {
		newStatus = string(ComputeStatus(g.DataApertura, g.Scadenza, r.now(), r.policy))
	}
	statusChanged := newStatus != existing.Stato
	if statusChanged {
		updates["stato"] = newStatus
		changed = append(changed, "stato")
	}

	if len(updates) == 0 {
		return ReconcileResult{GrantID: existing.ID}, nil
	}

	log.Printf("[reconcile] updating %q: %v", existing.NomeBando, changed)
	if err := r.store.UpdateGrantFields(ctx, existing.ID, updates); err != nil {
		return ReconcileResult{}, fmt.Errorf("update grant %s: %w", existing.ID, err)
	}

	if statusChanged {
		old := existing.Stato
		if err := r.store.AppendStatusChange(ctx, existing.ID, &old, newStatus); err != nil {
			return ReconcileResult{}, fmt.Errorf("log status change for %s: %w", existing.ID, err)
		}
		if r.notifier != nil {
			r.notifier.NotifyStatusChange(ctx, existing.ID, existing.NomeBando, &old, newStatus, existing.LinkBando)
		}
	}

	return ReconcileResult{GrantID: existing.ID, UpdatedFields: changed, StatusChanged: statusChanged}, nil
}

func (r *Reconciler) lookup(ctx context.Context, g models.Grant) (*models.Grant, error) {
	existing, err := r.store.FindByRecordID(ctx, g.RecordID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrGrantNotFound) {
		return nil, fmt.Errorf("lookup by record id: %w", err)
	}

	existing, err = r.store.FindByNameAndPromoter(ctx, g.NomeBando, g.Promotore)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrGrantNotFound) {
		return nil, fmt.Errorf("lookup by name and promoter: %w", err)
	}
	return nil, nil
}

func (r *Reconciler) insert(ctx context.Context, g models.Grant) (ReconcileResult, error) {
	if g.Stato == "" {
		g.Stato = string(ComputeStatus(g.DataApertura, g.Scadenza, r.now(), r.policy))
	}

	log.Printf("[reconcile] inserting new grant %q", g.NomeBando)
	if err := r.store.InsertGrant(ctx, &g); err != nil {
		return ReconcileResult{}, fmt.Errorf("insert grant %q: %w", g.NomeBando, err)
	}

	if err := r.store.AppendStatusChange(ctx, g.ID, nil, g.Stato); err != nil {
		return ReconcileResult{}, fmt.Errorf("log creation status for %s: %w", g.ID, err)
	}
	if r.notifier != nil {
		r.notifier.NotifyStatusChange(ctx, g.ID, g.NomeBando, nil, g.Stato, g.LinkBando)
	}

	return ReconcileResult{GrantID: g.ID, Created: true, StatusChanged: true}, nil
}

// SweepStatuses rederives the status of every stored grant from its stored
// dates, catching grants that crossed a boundary since the last run without
// being rescraped. Returns the number of grants whose status moved.
// Per-grant failures are logged and skipped.
func (r *Reconciler) SweepStatuses(ctx context.Context) (int, error) {
	grants, err := r.store.ListGrants(ctx)
	if err != nil {
		return 0, fmt.Errorf("list grants: %w", err)
	}

	today := r.now()
	updated := 0
	for _, g := range grants {
		newStatus := string(ComputeStatus(g.DataApertura, g.Scadenza, today, r.policy))
		if newStatus == g.Stato {
			continue
		}

		log.Printf("[sweep] %q: %s -> %s", g.NomeBando, g.Stato, newStatus)
		if err := r.store.UpdateGrantFields(ctx, g.ID, map[string]any{"stato": newStatus}); err != nil {
			log.Printf("[sweep] update %s failed: %v", g.ID, err)
			continue
		}
		old := g.Stato
		if err := r.store.AppendStatusChange(ctx, g.ID, &old, newStatus); err != nil {
			log.Printf("[sweep] status log for %s failed: %v", g.ID, err)
		}
		if r.notifier != nil {
			r.notifier.NotifyStatusChange(ctx, g.ID, g.NomeBando, &old, newStatus, g.LinkBando)
		}
		updated++
	}

	return updated, nil
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
