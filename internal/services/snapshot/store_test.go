package snapshot_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/Houeta/heidi/internal/models"
	"github.com/Houeta/heidi/internal/repository"
	"github.com/Houeta/heidi/internal/services/snapshot"
	"github.com/Houeta/heidi/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStore_Load(t *testing.T) {
	ctx := t.Context()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stored := &models.Snapshot{Entries: []models.CatalogEntry{{ID: "1", Name: "Pi"}}}

	testCases := []struct {
		name     string
		snapshot *models.Snapshot
		err      error
		expected *models.Snapshot
	}{
		{name: "Success: snapshot returned", snapshot: stored, expected: stored},
		{name: "Not found: treated as absent", err: repository.ErrSnapshotNotFound},
		{
			name: "Malformed: treated as absent",
			err:  fmt.Errorf("repository.file.GetSnapshot: %w", repository.ErrMalformedSnapshot),
		},
		{name: "Unexpected error: treated as absent", err: assert.AnError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := mocks.NewSnapshotRepository(t)
			repo.On("GetSnapshot", ctx).Return(tc.snapshot, tc.err).Once()

			store := snapshot.NewStore(logger, repo)

			assert.Equal(t, tc.expected, store.Load(ctx))
		})
	}
}

func TestStore_Save(t *testing.T) {
	ctx := t.Context()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	entries := []models.CatalogEntry{{ID: "1", Name: "Pi"}}

	t.Run("success", func(t *testing.T) {
		repo := mocks.NewSnapshotRepository(t)
		repo.On("SaveSnapshot", ctx, mock.MatchedBy(func(s *models.Snapshot) bool {
			return len(s.Entries) == 1 && s.Entries[0].ID == "1" && !s.TakenAt.IsZero()
		})).Return(nil).Once()

		require.NoError(t, snapshot.NewStore(logger, repo).Save(ctx, entries))
	})

	t.Run("error is wrapped", func(t *testing.T) {
		repo := mocks.NewSnapshotRepository(t)
		repo.On("SaveSnapshot", ctx, mock.AnythingOfType("*models.Snapshot")).Return(assert.AnError).Once()

		err := snapshot.NewStore(logger, repo).Save(ctx, entries)

		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "snapshot.Save")
	})
}
