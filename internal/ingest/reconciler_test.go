package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/BandoEasy2025/Automation-DB-updater/internal/models"
)

type fakeStore struct {
	grants []models.Grant

	inserted      []models.Grant
	updates       map[uuid.UUID]map[string]any
	statusChanges []fakeStatusChange
}

type fakeStatusChange struct {
	grantID   uuid.UUID
	oldStatus *string
	newStatus string
}

func newFakeStore(grants ...models.Grant) *fakeStore {
	return &fakeStore{grants: grants, updates: map[uuid.UUID]map[string]any{}}
}

func (s *fakeStore) FindByRecordID(_ context.Context, recordID string) (*models.Grant, error) {
	for i := range s.grants {
		if s.grants[i].RecordID == recordID {
			g := s.grants[i]
			return &g, nil
		}
	}
	return nil, ErrGrantNotFound
}

func (s *fakeStore) FindByNameAndPromoter(_ context.Context, name, promoter string) (*models.Grant, error) {
	for i := range s.grants {
		if s.grants[i].NomeBando == name && s.grants[i].Promotore == promoter {
			g := s.grants[i]
			return &g, nil
		}
	}
	return nil, ErrGrantNotFound
}

func (s *fakeStore) InsertGrant(_ context.Context, g *models.Grant) error {
	g.ID = uuid.New()
	s.inserted = append(s.inserted, *g)
	s.grants = append(s.grants, *g)
	return nil
}

func (s *fakeStore) UpdateGrantFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	s.updates[id] = fields
	return nil
}

func (s *fakeStore) AppendStatusChange(_ context.Context, grantID uuid.UUID, oldStatus *string, newStatus string) error {
	s.statusChanges = append(s.statusChanges, fakeStatusChange{grantID, oldStatus, newStatus})
	return nil
}

func (s *fakeStore) ListGrants(_ context.Context) ([]models.Grant, error) {
	return s.grants, nil
}

type fakeNotifier struct {
	notified []string
}

func (n *fakeNotifier) NotifyStatusChange(_ context.Context, _ uuid.UUID, grantName string, _ *string, newStatus, _ string) {
	n.notified = append(n.notified, grantName+":"+newStatus)
}

func fixedNow() time.Time { return time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC) }

func storedGrant(stato string) models.Grant {
	desc := "Vecchia descrizione"
	dot := 1000000.0
	closing := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return models.Grant{
		ID:               uuid.New(),
		RecordID:         RecordID("Bando Alfa", "https://example.it/alfa"),
		NomeBando:        "Bando Alfa",
		Promotore:        "Regione Lazio",
		DescrizioneBando: &desc,
		Dotazione:        &dot,
		Scadenza:         &closing,
		LinkBando:        "https://example.it/alfa",
		Stato:            stato,
	}
}

func TestReconcileInsertsNewGrant(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	r := NewReconciler(store, notifier, DefaultStatusPolicy(), fixedNow)

	g := models.Grant{
		RecordID:  RecordID("Bando Nuovo", "https://example.it/nuovo"),
		NomeBando: "Bando Nuovo",
		Promotore: "CCIAA Milano",
		LinkBando: "https://example.it/nuovo",
		Stato:     string(StatusActive),
	}

	res, err := r.Reconcile(context.Background(), g)
	require.NoError(t, err)
	require.True(t, res.Created)
	require.NotEqual(t, uuid.Nil, res.GrantID)

	require.Len(t, store.inserted, 1)
	require.Len(t, store.statusChanges, 1)
	require.Nil(t, store.statusChanges[0].oldStatus)
	require.Equal(t, string(StatusActive), store.statusChanges[0].newStatus)
	require.Equal(t, []string{"Bando Nuovo:Attivo"}, notifier.notified)
}

func TestReconcileMatchesByRecordID(t *testing.T) {
	existing := storedGrant(string(StatusActive))
	store := newFakeStore(existing)
	r := NewReconciler(store, nil, DefaultStatusPolicy(), fixedNow)

	newClosing := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	incoming := existing
	incoming.ID = uuid.Nil
	incoming.Scadenza = &newClosing

	res, err := r.Reconcile(context.Background(), incoming)
	require.NoError(t, err)
	require.False(t, res.Created)
	require.Equal(t, existing.ID, res.GrantID)
	require.Equal(t, []string{"scadenza"}, res.UpdatedFields)

	fields := store.updates[existing.ID]
	require.Equal(t, newClosing, fields["scadenza"])
	require.NotContains(t, fields, "stato")
	require.Empty(t, store.statusChanges)
}

func TestReconcileFallsBackToNameAndPromoter(t *testing.T) {
	existing := storedGrant(string(StatusActive))
	store := newFakeStore(existing)
	r := NewReconciler(store, nil, DefaultStatusPolicy(), fixedNow)

	// Same grant scraped from a slightly different URL: the record id no
	// longer matches but name plus promoter still does.
	incoming := existing
	incoming.ID = uuid.Nil
	incoming.RecordID = RecordID("Bando Alfa", "https://example.it/alfa?utm=1")

	res, err := r.Reconcile(context.Background(), incoming)
	require.NoError(t, err)
	require.False(t, res.Created)
	require.Equal(t, existing.ID, res.GrantID)
	require.Empty(t, store.inserted)
}

func TestReconcileNilFieldsNeverClear(t *testing.T) {
	existing := storedGrant(string(StatusActive))
	store := newFakeStore(existing)
	r := NewReconciler(store, nil, DefaultStatusPolicy(), fixedNow)

	incoming := existing
	incoming.ID = uuid.Nil
	incoming.DescrizioneBando = nil
	incoming.Dotazione = nil
	incoming.Scadenza = nil
	// Status was derived without a closing date upstream.
	incoming.Stato = string(StatusActive)

	res, err := r.Reconcile(context.Background(), incoming)
	require.NoError(t, err)
	require.Empty(t, res.UpdatedFields)
	require.NotContains(t, store.updates, existing.ID)
}

func TestReconcileStatusTransitionLoggedAndNotified(t *testing.T) {
	existing := storedGrant(string(StatusActive))
	store := newFakeStore(existing)
	notifier := &fakeNotifier{}
	r := NewReconciler(store, notifier, DefaultStatusPolicy(), fixedNow)

	// Closing moved inside the sixty-day window.
	newClosing := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	incoming := existing
	incoming.ID = uuid.Nil
	incoming.Scadenza = &newClosing
	incoming.Stato = string(StatusClosingSoon)

	res, err := r.Reconcile(context.Background(), incoming)
	require.NoError(t, err)
	require.True(t, res.StatusChanged)
	require.ElementsMatch(t, []string{"scadenza", "stato"}, res.UpdatedFields)

	require.Len(t, store.statusChanges, 1)
	require.Equal(t, string(StatusActive), *store.statusChanges[0].oldStatus)
	require.Equal(t, string(StatusClosingSoon), store.statusChanges[0].newStatus)
	require.Equal(t, []string{"Bando Alfa:In scadenza"}, notifier.notified)
}

func TestSweepStatuses(t *testing.T) {
	// Closing date already behind today: the stored status is stale.
	expired := storedGrant(string(StatusClosingSoon))
	past := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	expired.Scadenza = &past

	current := storedGrant(string(StatusActive))
	current.RecordID = "other"
	current.NomeBando = "Bando Beta"

	store := newFakeStore(expired, current)
	notifier := &fakeNotifier{}
	r := NewReconciler(store, notifier, DefaultStatusPolicy(), fixedNow)

	updated, err := r.SweepStatuses(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	require.Equal(t, map[string]any{"stato": string(StatusExpired)}, store.updates[expired.ID])
	require.Len(t, store.statusChanges, 1)
	require.Equal(t, []string{"Bando Alfa:Scaduto"}, notifier.notified)
}
