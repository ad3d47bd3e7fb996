package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/BandoEasy2025/Automation-DB-updater/internal/models"
)

// IngestionStats aggregates the outcome of one source run.
type IngestionStats struct {
	SourceID    string
	Found       int
	Created     int
	Updated     int
	Attachments int
	Errors      int
}

// RunStore records ingest runs so operators can audit what each nightly
// pass did. Implemented by the pgx store in internal/db.
type RunStore interface {
	StartRun(ctx context.Context, sourceID string) (int64, error)
	FinishRun(ctx context.Context, runID int64, status string, stats IngestionStats, elapsed time.Duration) error
}

// AttachmentStore persists attachment rows in the category tables.
type AttachmentStore interface {
	InsertAttachment(ctx context.Context, att *models.Attachment) error
}

// FileStore saves a downloaded attachment body and returns its storage path.
type FileStore interface {
	SaveAttachment(fileName string, category AttachmentCategory, data []byte) (string, error)
}

const maxAttachmentBytes = 25 << 20

// Pipeline walks every active source: collects detail links, fetches and
// extracts each page, normalizes the raw record and reconciles it against
// the store, then downloads attachments for newly created grants. A full
// status sweep closes each batch.
type Pipeline struct {
	Registry    *Registry
	Store       GrantStore
	Attachments AttachmentStore
	Files       FileStore
	Runs        RunStore
	Fetcher     Fetcher
	Normalizer  *Normalizer
	Reconciler  *Reconciler

	classifiers map[string]*AttachmentClassifier
	now         func() time.Time
}

func NewPipeline(reg *Registry, store GrantStore, attachments AttachmentStore, files FileStore, runs RunStore, fetcher Fetcher, notifier Notifier, now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	if fetcher == nil {
		fetcher = NewRateLimitedFetcher(FetchConfig{
			TimeoutSeconds: 30,
			MaxRetries:     3,
			RateLimitRPS:   1.0,
		})
	}

	classifiers := map[string]*AttachmentClassifier{}
	for family := range reg.Families {
		classifiers[family] = NewAttachmentClassifier(reg.KeywordsFor(family))
	}

	cfg := DefaultNormalizerConfig()
	return &Pipeline{
		Registry:    reg,
		Store:       store,
		Attachments: attachments,
		Files:       files,
		Runs:        runs,
		Fetcher:     fetcher,
		Normalizer:  NewNormalizer(cfg, now),
		Reconciler:  NewReconciler(store, notifier, cfg.Status, now),
		classifiers: classifiers,
		now:         now,
	}
}

// IngestAll runs every active source in registry order, then sweeps stored
// statuses so grants that crossed a date boundary since the last pass move
// even if their portal was unreachable. A failing source never stops the
// batch.
func (p *Pipeline) IngestAll(ctx context.Context) map[string]*IngestionStats {
	results := map[string]*IngestionStats{}

	for _, source := range p.Registry.ActiveSources() {
		stats, err := p.IngestSource(ctx, source)
		results[source.ID] = stats
		if err != nil {
			log.Printf("[%s] source run failed: %v", source.ID, err)
		}
	}

	moved, err := p.Reconciler.SweepStatuses(ctx)
	if err != nil {
		log.Printf("[sweep] failed: %v", err)
	} else if moved > 0 {
		log.Printf("[sweep] %d grants changed status", moved)
	}

	return results
}

// IngestSource runs one source end to end and records the run.
func (p *Pipeline) IngestSource(ctx context.Context, source SourceConfig) (*IngestionStats, error) {
	stats := &IngestionStats{SourceID: source.ID}

	var runID int64
	if p.Runs != nil {
		id, err := p.Runs.StartRun(ctx, source.ID)
		if err != nil {
			log.Printf("[%s] could not record run start: %v", source.ID, err)
		} else {
			runID = id
		}
	}

	start := p.now()
	var runErr error
	defer func() {
		if p.Runs == nil || runID == 0 {
			return
		}
		status := "completed"
		if runErr != nil || (stats.Found > 0 && stats.Created+stats.Updated == 0 && stats.Errors == stats.Found) {
			status = "failed"
		}
		if err := p.Runs.FinishRun(ctx, runID, status, *stats, time.Since(start)); err != nil {
			log.Printf("[%s] could not record run end: %v", source.ID, err)
		}
	}()

	selectors := p.Registry.SelectorsFor(source)
	collector := NewLinkCollector(source.Fetch)

	log.Printf("[%s] collecting listing pages from %s", source.ID, source.BaseURL)
	links, err := collector.Collect(source, selectors, source.MaxPages)
	if err != nil {
		runErr = fmt.Errorf("collect links: %w", err)
		return stats, runErr
	}

	stats.Found = len(links)
	log.Printf("[%s] found %d detail links", source.ID, len(links))

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			runErr = err
			return stats, runErr
		}
		if err := p.processDetail(ctx, source, selectors.Detail, link, stats); err != nil {
			stats.Errors++
			log.Printf("[%s] skipping %s: %v", source.ID, link, err)
		}
	}

	log.Printf("[%s] done: %d found, %d created, %d updated, %d attachments, %d errors",
		source.ID, stats.Found, stats.Created, stats.Updated, stats.Attachments, stats.Errors)
	return stats, nil
}

func (p *Pipeline) processDetail(ctx context.Context, source SourceConfig, sel DetailSelectorConfig, link string, stats *IngestionStats) error {
	doc, err := p.Fetcher.Fetch(ctx, link)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	page, err := goquery.NewDocumentFromReader(doc.Body)
	doc.Body.Close()
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	raw := ExtractGrant(page, link, source, sel)

	grant, attachments, err := p.Normalizer.Normalize(raw, p.classifiers[source.Family])
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	result, err := p.Reconciler.Reconcile(ctx, grant)
	if err != nil {
		return err
	}

	switch {
	case result.Created:
		stats.Created++
	case len(result.UpdatedFields) > 0:
		stats.Updated++
	}

	if result.Created {
		stats.Attachments += p.processAttachments(ctx, result.GrantID, attachments)

		if grant.Scadenza == nil {
			if err := p.recoverDeadline(ctx, result.GrantID, attachments); err != nil {
				log.Printf("[%s] pdf deadline for %q: %v", source.ID, grant.NomeBando, err)
			}
		}
	}

	return nil
}

// processAttachments downloads and stores every classified attachment of a
// newly created grant. Each category keeps its own 1-based sequence. A
// failing attachment is logged and skipped, the grant row stays.
func (p *Pipeline) processAttachments(ctx context.Context, grantID uuid.UUID, attachments []ClassifiedAttachment) int {
	if p.Attachments == nil || p.Files == nil {
		return 0
	}

	saved := 0
	counters := map[AttachmentCategory]int{}
	for _, att := range attachments {
		counters[att.Category]++
		if err := p.saveAttachment(ctx, grantID, att, counters[att.Category]); err != nil {
			log.Printf("[attachments] %s: %v", att.URL, err)
			continue
		}
		saved++
	}
	return saved
}

func (p *Pipeline) saveAttachment(ctx context.Context, grantID uuid.UUID, att ClassifiedAttachment, numero int) error {
	doc, err := p.Fetcher.Fetch(ctx, att.URL)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(doc.Body, maxAttachmentBytes))
	doc.Body.Close()
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	name := att.Name
	if name == "" {
		name = fileNameFromURL(att.URL)
	}
	fileName := sanitizeFileName(name)

	mimeType := mime.TypeByExtension(path.Ext(fileName))
	if mimeType == "" {
		mimeType = doc.ContentType
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	filePath, err := p.Files.SaveAttachment(fileName, att.Category, data)
	if err != nil {
		return fmt.Errorf("store file: %w", err)
	}

	row := &models.Attachment{
		BandoID:       grantID,
		Numero:        numero,
		Nome:          att.Name,
		LinkOriginale: att.URL,
		FilePath:      filePath,
		FileName:      fileName,
		MimeType:      mimeType,
		IsInformative: att.Category == CategoryInformative,
	}
	if err := p.Attachments.InsertAttachment(ctx, row); err != nil {
		return fmt.Errorf("insert row: %w", err)
	}

	log.Printf("[attachments] saved %s (%s) as %s", fileName, att.Category, filePath)
	return nil
}

// recoverDeadline scans informative PDF attachments for a closing date when
// the detail page carried none, and backfills scadenza and the internal
// deadline on a hit.
func (p *Pipeline) recoverDeadline(ctx context.Context, grantID uuid.UUID, attachments []ClassifiedAttachment) error {
	today := p.now()
	for _, att := range attachments {
		if att.Category != CategoryInformative || !looksLikePDF(att.URL) {
			continue
		}

		deadline, err := ExtractDeadlineFromPDF(ctx, p.Fetcher, att.URL, today)
		if err != nil {
			log.Printf("[attachments] scan %s: %v", att.URL, err)
			continue
		}
		if deadline == nil {
			continue
		}

		interna := internalDeadline(*deadline, p.Normalizer.cfg.InternalDeadlineOffsetDays)
		log.Printf("[attachments] recovered deadline %s from %s", deadline.Format("2006-01-02"), att.URL)
		return p.Store.UpdateGrantFields(ctx, grantID, map[string]any{
			"scadenza":         *deadline,
			"scadenza_interna": interna,
		})
	}
	return nil
}

func looksLikePDF(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".pdf")
}

func fileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "allegato"
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "allegato"
	}
	return name
}

// sanitizeFileName strips characters that are unsafe in storage paths and
// caps the name at 100 characters, keeping a short extension.
func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", `"`, "_",
		"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
	)
	name = replacer.Replace(strings.TrimSpace(name))

	if len(name) <= 100 {
		return name
	}
	ext := path.Ext(name)
	if len(ext) > 4 {
		ext = ext[:4]
	}
	base := name[:96]
	return base + ext
}
