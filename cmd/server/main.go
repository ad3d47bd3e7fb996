package main

import (
	"context"
	"log"
	"os"

	"github.com/BandoEasy2025/Automation-DB-updater/internal/api"
	"github.com/BandoEasy2025/Automation-DB-updater/internal/db"
	"github.com/BandoEasy2025/Automation-DB-updater/internal/ingest"
	"github.com/BandoEasy2025/Automation-DB-updater/internal/notify"
	"github.com/BandoEasy2025/Automation-DB-updater/internal/storage"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	ctx := context.Background()
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

	srv := api.NewServer(pool, pipeline)
	log.Printf("Server starting on port %s...", port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
