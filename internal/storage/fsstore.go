package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/BandoEasy2025/Automation-DB-updater/internal/ingest"
)

const (
	informativeBucket = "allegati_informativi"
	compilativeBucket = "allegati_compilativi"
)

// FSStore keeps attachment files on the local filesystem, one directory per
// bucket. Every file lands under a fresh UUID prefix so two attachments with
// the same name never collide.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	for _, bucket := range []string{informativeBucket, compilativeBucket} {
		if err := os.MkdirAll(filepath.Join(root, bucket), 0o755); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return &FSStore{root: root}, nil
}

func bucketFor(category ingest.AttachmentCategory) string {
	if category == ingest.CategoryCompilative {
		return compilativeBucket
	}
	return informativeBucket
}

// SaveAttachment writes the file and returns its bucket-relative path.
func (s *FSStore) SaveAttachment(fileName string, category ingest.AttachmentCategory, data []byte) (string, error) {
	bucket := bucketFor(category)
	relPath := filepath.Join(bucket, uuid.NewString(), fileName)

	fullPath := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}

	return relPath, nil
}

// Open returns the stored file for a bucket-relative path.
func (s *FSStore) Open(relPath string) (*os.File, error) {
	return os.Open(filepath.Join(s.root, relPath))
}
