// Package snapshot loads and saves the last processed catalog state. A missing or
// unreadable snapshot is never fatal: the caller simply starts from an empty baseline.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/heidi/internal/models"
	"github.com/Houeta/heidi/internal/repository"
)

// Store wraps a snapshot repository with the load/save contract used by the detector.
type Store struct {
	log  *slog.Logger
	repo repository.SnapshotRepository
	now  func() time.Time
}

// NewStore creates a new Store instance.
func NewStore(log *slog.Logger, repo repository.SnapshotRepository) *Store {
	return &Store{log: log, repo: repo, now: time.Now}
}

// Load returns the stored snapshot, or nil when there is none or it cannot be read.
func (s *Store) Load(ctx context.Context) *models.Snapshot {
	const opn = "snapshot.Load"
	log := s.log.With("op", opn)

	snap, err := s.repo.GetSnapshot(ctx)
	switch {
	case err == nil:
		log.DebugContext(ctx, "Loaded previous snapshot", "entries", len(snap.Entries), "taken_at", snap.TakenAt)
		return snap
	case errors.Is(err, repository.ErrSnapshotNotFound):
		log.InfoContext(ctx, "No previous snapshot found, starting from an empty baseline")
	case errors.Is(err, repository.ErrMalformedSnapshot):
		log.WarnContext(ctx, "Stored snapshot is malformed, treating it as absent", "error", err)
	default:
		log.ErrorContext(ctx, "Failed to load snapshot, treating it as absent", "error", err)
	}

	return nil
}

// Save replaces the stored snapshot with entries.
func (s *Store) Save(ctx context.Context, entries []models.CatalogEntry) error {
	const opn = "snapshot.Save"

	snap := &models.Snapshot{Entries: entries, TakenAt: s.now()}
	if err := s.repo.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	s.log.InfoContext(ctx, "Snapshot saved", "op", opn, "entries", len(entries))

	return nil
}
