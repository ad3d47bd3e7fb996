package storage

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BandoEasy2025/Automation-DB-updater/internal/ingest"
)

func TestSaveAttachment(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	relPath, err := store.SaveAttachment("bando.pdf", ingest.CategoryInformative, []byte("contenuto"))
	if err != nil {
		t.Fatalf("SaveAttachment: %v", err)
	}

	if !strings.HasPrefix(relPath, "allegati_informativi"+string(filepath.Separator)) {
		t.Errorf("path %q not under informative bucket", relPath)
	}
	if filepath.Base(relPath) != "bando.pdf" {
		t.Errorf("file name lost: %q", relPath)
	}

	f, err := store.Open(relPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "contenuto" {
		t.Errorf("content round trip: %q", data)
	}
}

func TestSaveAttachmentBucketPerCategory(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	p1, err := store.SaveAttachment("modulo.docx", ingest.CategoryCompilative, []byte("a"))
	if err != nil {
		t.Fatalf("SaveAttachment: %v", err)
	}
	if !strings.HasPrefix(p1, "allegati_compilativi"+string(filepath.Separator)) {
		t.Errorf("path %q not under compilative bucket", p1)
	}

	// Same name twice never collides thanks to the UUID prefix.
	p2, err := store.SaveAttachment("modulo.docx", ingest.CategoryCompilative, []byte("b"))
	if err != nil {
		t.Fatalf("SaveAttachment: %v", err)
	}
	if p1 == p2 {
		t.Errorf("expected distinct paths, got %q twice", p1)
	}
}
