package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BandoEasy2025/Automation-DB-updater/internal/ingest"
	"github.com/BandoEasy2025/Automation-DB-updater/internal/models"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// bandoCols is the column list every bandi query selects.
const bandoCols = `id, record_id, nome_bando, promotore, descrizione_breve, descrizione_bando,
	a_chi_si_rivolge, settore, codice_ateco, spese_ammissibili,
	richiesta_massima, richiesta_minima, dotazione, percentuale_fondo_perduto,
	data_apertura, scadenza, scadenza_interna,
	link_bando, link_sito_bando, tipo, emanazione, stato, created_at, updated_at`

func scanGrant(scan func(dest ...interface{}) error) (models.Grant, error) {
	var g models.Grant
	err := scan(
		&g.ID, &g.RecordID, &g.NomeBando, &g.Promotore, &g.DescrizioneBreve, &g.DescrizioneBando,
		&g.AChiSiRivolge, &g.Settore, &g.CodiceAteco, &g.SpeseAmmissibili,
		&g.RichiestaMassima, &g.RichiestaMinima, &g.Dotazione, &g.PercentualeFondoPerduto,
		&g.DataApertura, &g.Scadenza, &g.ScadenzaInterna,
		&g.LinkBando, &g.LinkSitoBando, &g.Tipo, &g.Emanazione, &g.Stato, &g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}

func (s *Store) FindByRecordID(ctx context.Context, recordID string) (*models.Grant, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM bandi WHERE record_id = $1", bandoCols), recordID)

	g, err := scanGrant(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingest.ErrGrantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) FindByNameAndPromoter(ctx context.Context, name, promoter string) (*models.Grant, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM bandi WHERE nome_bando = $1 AND promotore = $2", bandoCols),
		name, promoter)

	g, err := scanGrant(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingest.ErrGrantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) InsertGrant(ctx context.Context, g *models.Grant) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO bandi (
			record_id, nome_bando, promotore, descrizione_breve, descrizione_bando,
			a_chi_si_rivolge, settore, codice_ateco, spese_ammissibili,
			richiesta_massima, richiesta_minima, dotazione, percentuale_fondo_perduto,
			data_apertura, scadenza, scadenza_interna,
			link_bando, link_sito_bando, tipo, emanazione, stato
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21
		)
		RETURNING id, created_at, updated_at`,
		g.RecordID, g.NomeBando, g.Promotore, g.DescrizioneBreve, g.DescrizioneBando,
		g.AChiSiRivolge, g.Settore, g.CodiceAteco, g.SpeseAmmissibili,
		g.RichiestaMassima, g.RichiestaMinima, g.Dotazione, g.PercentualeFondoPerduto,
		g.DataApertura, g.Scadenza, g.ScadenzaInterna,
		g.LinkBando, g.LinkSitoBando, g.Tipo, g.Emanazione, g.Stato,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
}

// updatableColumns is the set of bandi columns UpdateGrantFields accepts.
// Keys of the fields map are matched against it so callers can never smuggle
// arbitrary SQL into the SET clause.
var updatableColumns = map[string]bool{
	"scadenza":          true,
	"data_apertura":     true,
	"descrizione_bando": true,
	"dotazione":         true,
	"scadenza_interna":  true,
	"stato":             true,
}

// buildUpdateSQL renders the SET clause in sorted column order; the id is
// always the last argument.
func buildUpdateSQL(fields map[string]any) (string, []any, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableColumns[col] {
			return "", nil, fmt.Errorf("column %q is not updatable", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, fields[col])
	}
	sets = append(sets, "updated_at = NOW()")

	sql := fmt.Sprintf("UPDATE bandi SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)+1)
	return sql, args, nil
}

func (s *Store) UpdateGrantFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	sql, args, err := buildUpdateSQL(fields)
	if err != nil {
		return err
	}
	args = append(args, id)

	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ingest.ErrGrantNotFound
	}
	return nil
}

func (s *Store) AppendStatusChange(ctx context.Context, grantID uuid.UUID, oldStatus *string, newStatus string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bandi_status_log (bando_id, old_status, new_status)
		VALUES ($1, $2, $3)`,
		grantID, oldStatus, newStatus)
	return err
}

func (s *Store) ListGrants(ctx context.Context) ([]models.Grant, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM bandi ORDER BY created_at", bandoCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []models.Grant
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func attachmentTable(isInformative bool) string {
	if isInformative {
		return "allegati_informativi"
	}
	return "allegati_compilativi"
}

func (s *Store) InsertAttachment(ctx context.Context, att *models.Attachment) error {
	sql := fmt.Sprintf(`
		INSERT INTO %s (bando_id, numero, nome, link_originale, file_path, file_name, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`, attachmentTable(att.IsInformative))

	return s.pool.QueryRow(ctx, sql,
		att.BandoID, att.Numero, att.Nome, att.LinkOriginale,
		att.FilePath, att.FileName, att.MimeType,
	).Scan(&att.ID, &att.CreatedAt)
}

// GetAttachments returns both informative and compilative documents of a
// grant, informative first, each category in numero order.
func (s *Store) GetAttachments(ctx context.Context, bandoID uuid.UUID) ([]models.Attachment, error) {
	var out []models.Attachment
	for _, informative := range []bool{true, false} {
		sql := fmt.Sprintf(`
			SELECT id, bando_id, numero, nome, link_originale, file_path, file_name, mime_type, created_at
			FROM %s WHERE bando_id = $1 ORDER BY numero`, attachmentTable(informative))

		rows, err := s.pool.Query(ctx, sql, bandoID)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var a models.Attachment
			if err := rows.Scan(&a.ID, &a.BandoID, &a.Numero, &a.Nome, &a.LinkOriginale,
				&a.FilePath, &a.FileName, &a.MimeType, &a.CreatedAt); err != nil {
				rows.Close()
				return nil, err
			}
			a.IsInformative = informative
			out = append(out, a)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) GetStatusLog(ctx context.Context, bandoID uuid.UUID) ([]models.StatusLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, bando_id, old_status, new_status, changed_at
		FROM bandi_status_log WHERE bando_id = $1 ORDER BY changed_at`, bandoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var log []models.StatusLog
	for rows.Next() {
		var entry models.StatusLog
		if err := rows.Scan(&entry.ID, &entry.BandoID, &entry.OldStatus, &entry.NewStatus, &entry.ChangedAt); err != nil {
			return nil, err
		}
		log = append(log, entry)
	}
	return log, rows.Err()
}

func (s *Store) StartRun(ctx context.Context, sourceID string) (int64, error) {
	var runID int64
	err := s.pool.QueryRow(ctx,
		"INSERT INTO ingest_runs (source_id, status) VALUES ($1, 'running') RETURNING run_id",
		sourceID).Scan(&runID)
	return runID, err
}

func (s *Store) FinishRun(ctx context.Context, runID int64, status string, stats ingest.IngestionStats, elapsed time.Duration) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE ingest_runs SET
			status = $1,
			items_found = $2,
			items_created = $3,
			items_updated = $4,
			attachments_saved = $5,
			errors = $6,
			completed_at = NOW(),
			duration_ms = $7
		WHERE run_id = $8`,
		status, stats.Found, stats.Created, stats.Updated,
		stats.Attachments, stats.Errors, elapsed.Milliseconds(), runID)
	return err
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.IngestRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, source_id, status, items_found, items_created, items_updated,
			attachments_saved, errors, started_at, completed_at, duration_ms
		FROM ingest_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.IngestRun
	for rows.Next() {
		var r models.IngestRun
		if err := rows.Scan(&r.RunID, &r.SourceID, &r.Status, &r.Found, &r.Created, &r.Updated,
			&r.Attachments, &r.Errors, &r.StartedAt, &r.CompletedAt, &r.DurationMs); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type ListParams struct {
	Query          string
	Stato          string
	Promotore      string
	Tipo           string
	ScadenzaGiorni int // only grants closing within this many days
	Limit          int
	Offset         int
}

type ListResult struct {
	Bandi  []models.Grant `json:"bandi"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (s *Store) ListBandi(ctx context.Context, params ListParams) (*ListResult, error) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if params.Query != "" {
		where += fmt.Sprintf(" AND (nome_bando ILIKE '%%' || $%d || '%%' OR descrizione_breve ILIKE '%%' || $%d || '%%')", argIdx, argIdx)
		args = append(args, params.Query)
		argIdx++
	}
	if params.Stato != "" {
		where += fmt.Sprintf(" AND stato = $%d", argIdx)
		args = append(args, params.Stato)
		argIdx++
	}
	if params.Promotore != "" {
		where += fmt.Sprintf(" AND promotore = $%d", argIdx)
		args = append(args, params.Promotore)
		argIdx++
	}
	if params.Tipo != "" {
		where += fmt.Sprintf(" AND tipo = $%d", argIdx)
		args = append(args, params.Tipo)
		argIdx++
	}
	if params.ScadenzaGiorni > 0 {
		where += fmt.Sprintf(" AND scadenza IS NOT NULL AND scadenza >= NOW() AND scadenza <= NOW() + ($%d * INTERVAL '1 day')", argIdx)
		args = append(args, params.ScadenzaGiorni)
		argIdx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM bandi "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}

	if params.Limit <= 0 {
		params.Limit = 20
	}
	sql := fmt.Sprintf("SELECT %s FROM bandi %s ORDER BY scadenza ASC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d",
		bandoCols, where, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	bandi := []models.Grant{}
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		bandi = append(bandi, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return &ListResult{Bandi: bandi, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

func (s *Store) GetBando(ctx context.Context, id uuid.UUID) (*models.Grant, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM bandi WHERE id = $1", bandoCols), id)
	g, err := scanGrant(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingest.ErrGrantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) GetPromotori(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT DISTINCT promotore FROM bandi ORDER BY promotore")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var promotori []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err == nil {
			promotori = append(promotori, p)
		}
	}
	return promotori, rows.Err()
}

func (s *Store) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM bandi").Scan(&total)
	stats["total"] = total

	var promotori int
	s.pool.QueryRow(ctx, "SELECT COUNT(DISTINCT promotore) FROM bandi").Scan(&promotori)
	stats["promotori"] = promotori

	var inScadenza int
	s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM bandi WHERE scadenza IS NOT NULL AND scadenza >= NOW() AND scadenza <= NOW() + INTERVAL '30 days'").Scan(&inScadenza)
	stats["scadenza_30gg"] = inScadenza

	statusCounts := map[string]int{}
	rows, err := s.pool.Query(ctx, "SELECT stato, COUNT(*) FROM bandi GROUP BY stato")
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var stato string
			var count int
			if scanErr := rows.Scan(&stato, &count); scanErr == nil {
				statusCounts[stato] = count
			}
		}
	}
	stats["stato_counts"] = statusCounts

	return stats, nil
}
