// Package file keeps the snapshot as a pretty-printed JSON array in a single file.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Houeta/heidi/internal/models"
	"github.com/Houeta/heidi/internal/repository"
)

// Repository stores the snapshot in a JSON file.
type Repository struct {
	path string
	log  *slog.Logger
}

// NewRepository creates a file-backed repository. The file itself is created on first save.
func NewRepository(log *slog.Logger, path string) *Repository {
	return &Repository{path: path, log: log}
}

// Path returns the snapshot file location.
func (r *Repository) Path() string {
	return r.path
}

// GetSnapshot reads and decodes the snapshot file.
func (r *Repository) GetSnapshot(ctx context.Context) (*models.Snapshot, error) {
	const opn = "repository.file.GetSnapshot"

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, repository.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("%s: failed to read %s: %w", opn, r.path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, repository.ErrSnapshotNotFound
	}

	var entries []models.CatalogEntry
	if err = json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opn, repository.ErrMalformedSnapshot, err)
	}
	if entries == nil {
		return nil, repository.ErrSnapshotNotFound
	}

	snapshot := &models.Snapshot{Entries: entries}
	if info, statErr := os.Stat(r.path); statErr == nil {
		snapshot.TakenAt = info.ModTime()
	}

	r.log.DebugContext(ctx, "Loaded snapshot from file", "op", opn, "path", r.path, "entries", len(entries))

	return snapshot, nil
}

// SaveSnapshot writes the snapshot to a temporary file and renames it over the old one,
// so readers never observe a partial write.
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	const opn = "repository.file.SaveSnapshot"

	entries := snapshot.Entries
	if entries == nil {
		entries = []models.CatalogEntry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: failed to encode snapshot: %w", opn, err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: failed to create temp file in %s: %w", opn, dir, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // the file is already renamed on success

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: failed to write temp file: %w", opn, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: failed to sync temp file: %w", opn, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%s: failed to close temp file: %w", opn, err)
	}

	if err = os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("%s: failed to replace %s: %w", opn, r.path, err)
	}

	r.log.DebugContext(ctx, "Saved snapshot to file", "op", opn, "path", r.path, "entries", len(entries))

	return nil
}
