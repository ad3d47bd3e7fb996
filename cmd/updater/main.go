package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BandoEasy2025/Automation-DB-updater/internal/db"
	"github.com/BandoEasy2025/Automation-DB-updater/internal/ingest"
	"github.com/BandoEasy2025/Automation-DB-updater/internal/notify"
	"github.com/BandoEasy2025/Automation-DB-updater/internal/storage"
)

// The updater runs a full pass at startup, then once a day at 02:00 when
// the portals are quiet.
const dailyRunHour = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	registry, err := ingest.LoadRegistry(os.Getenv("SOURCES_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}

	attachmentsDir := os.Getenv("ATTACHMENTS_DIR")
	if attachmentsDir == "" {
		attachmentsDir = "./data/allegati"
	}
	files, err := storage.NewFSStore(attachmentsDir)
	if err != nil {
		log.Fatalf("Failed to prepare attachment storage: %v", err)
	}

	store := db.NewStore(pool)
	notifier := notify.New(notify.ConfigFromEnv())
	pipeline := ingest.NewPipeline(registry, store, store, files, store, nil, notifier, nil)

	runOnce(ctx, pipeline)

	for {
		next := nextRunAt(time.Now(), dailyRunHour)
		log.Printf("Next run scheduled for %s", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Print("Shutting down")
			return
		case <-timer.C:
			runOnce(ctx, pipeline)
		}
	}
}

func runOnce(ctx context.Context, pipeline *ingest.Pipeline) {
	start := time.Now()
	log.Print("Starting ingestion pass")

	results := pipeline.IngestAll(ctx)

	var found, created, updated, errs int
	for _, stats := range results {
		if stats == nil {
			continue
		}
		found += stats.Found
		created += stats.Created
		updated += stats.Updated
		errs += stats.Errors
	}
	log.Printf("Pass finished in %s: %d sources, %d found, %d created, %d updated, %d errors",
		time.Since(start).Round(time.Second), len(results), found, created, updated, errs)
}

// nextRunAt returns the next occurrence of the given hour, local time.
func nextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
