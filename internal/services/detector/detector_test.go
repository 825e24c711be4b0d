package detector_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Houeta/heidi/internal/models"
	"github.com/Houeta/heidi/internal/services/detector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSaver keeps every saved entry set.
type recordingSaver struct {
	saves [][]models.CatalogEntry
	err   error
}

func (s *recordingSaver) Save(_ context.Context, entries []models.CatalogEntry) error {
	s.saves = append(s.saves, entries)
	return s.err
}

func intPtr(v int) *int { return &v }

func newDetector(saver *recordingSaver, tracked models.FieldSet) *detector.Detector {
	return detector.New(slog.New(slog.NewTextHandler(io.Discard, nil)), saver, tracked)
}

func entry(id, name string) models.CatalogEntry {
	return models.CatalogEntry{
		ID:          models.EntryID(id),
		Name:        name,
		Description: "about " + name,
		Prices:      models.PriceTable{{Region: "base_cost", Cost: 5}, {Region: "us", Cost: 5}},
		Stock:       intPtr(10),
		ImageURL:    "https://img/" + id + ".png",
	}
}

func TestDetect_FirstRunEstablishesBaseline(t *testing.T) {
	saver := &recordingSaver{}
	current := []models.CatalogEntry{entry("1", "Pi"), entry("2", "Hat")}

	records, err := newDetector(saver, models.AllFields).Detect(t.Context(), nil, current)

	require.NoError(t, err)
	assert.Empty(t, records)
	require.Len(t, saver.saves, 1)
	assert.Equal(t, current, saver.saves[0])
}

func TestDetect_NewEntry(t *testing.T) {
	saver := &recordingSaver{}
	previous := &models.Snapshot{Entries: []models.CatalogEntry{entry("1", "Pi")}}
	current := []models.CatalogEntry{entry("1", "Pi"), entry("X", "Sticker")}

	records, err := newDetector(saver, models.AllFields).Detect(t.Context(), previous, current)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.NewEntry{Entry: current[1]}, records[0])
	assert.Len(t, saver.saves, 1)
}

func TestDetect_NoSpuriousChanges(t *testing.T) {
	saver := &recordingSaver{}
	previous := &models.Snapshot{Entries: []models.CatalogEntry{entry("1", "Pi"), entry("2", "Hat")}}
	current := []models.CatalogEntry{entry("1", "Pi"), entry("2", "Hat")}

	records, err := newDetector(saver, models.AllFields).Detect(t.Context(), previous, current)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, saver.saves, "identical entry sets must not rewrite the snapshot")
}

func TestDetect_FieldChangeIsolation(t *testing.T) {
	prev := entry("1", "Pi")
	mutate := []struct {
		name     string
		apply    func(e *models.CatalogEntry)
		expected models.Field
	}{
		{name: "stock", apply: func(e *models.CatalogEntry) { e.Stock = intPtr(9) }, expected: models.FieldStock},
		{name: "stock to unlimited", apply: func(e *models.CatalogEntry) { e.Stock = nil }, expected: models.FieldStock},
		{
			name:     "price",
			apply:    func(e *models.CatalogEntry) { e.Prices = models.PriceTable{{Region: "us", Cost: 6}} },
			expected: models.FieldPrice,
		},
		{name: "description", apply: func(e *models.CatalogEntry) { e.Description = "new" }, expected: models.FieldDescription},
		{
			name:     "long description",
			apply:    func(e *models.CatalogEntry) { e.LongDescription = "longer" },
			expected: models.FieldLongDescription,
		},
		{name: "name", apply: func(e *models.CatalogEntry) { e.Name = "Pi 5" }, expected: models.FieldName},
		{name: "image", apply: func(e *models.CatalogEntry) { e.ImageURL = "" }, expected: models.FieldImage},
	}

	for _, tc := range mutate {
		t.Run(tc.name, func(t *testing.T) {
			cur := entry("1", "Pi")
			tc.apply(&cur)

			records, err := newDetector(&recordingSaver{}, models.AllFields).
				Detect(t.Context(), &models.Snapshot{Entries: []models.CatalogEntry{prev}}, []models.CatalogEntry{cur})

			require.NoError(t, err)
			require.Len(t, records, 1)
			updated, ok := records[0].(models.UpdatedEntry)
			require.True(t, ok, "expected UpdatedEntry, got %T", records[0])
			assert.Equal(t, models.NewFieldSet(tc.expected), updated.Changed)
			assert.Equal(t, prev, updated.Previous)
			assert.Equal(t, cur, updated.Current)
		})
	}
}

func TestDetect_ReorderedPricesAreNotAChange(t *testing.T) {
	saver := &recordingSaver{}
	prev := entry("1", "Pi")
	prev.Prices = models.PriceTable{{Region: "us", Cost: 5}, {Region: "eu", Cost: 7}}
	cur := prev
	cur.Prices = models.PriceTable{{Region: "eu", Cost: 7}, {Region: "us", Cost: 5}}

	records, err := newDetector(saver, models.AllFields).
		Detect(t.Context(), &models.Snapshot{Entries: []models.CatalogEntry{prev}}, []models.CatalogEntry{cur})

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Len(t, saver.saves, 1, "the stored order still differs, so the snapshot is refreshed")
}

func TestDetect_Ordering(t *testing.T) {
	saver := &recordingSaver{}
	b := entry("B", "Hat")
	cOld := entry("C", "Mug")
	cNew := cOld
	cNew.Stock = intPtr(0)
	a := entry("A", "Pi")

	previous := &models.Snapshot{Entries: []models.CatalogEntry{cOld, b}}
	current := []models.CatalogEntry{a, b, cNew}

	records, err := newDetector(saver, models.AllFields).Detect(t.Context(), previous, current)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.NewEntry{Entry: a}, records[0])
	assert.Equal(t, models.UpdatedEntry{Previous: cOld, Current: cNew, Changed: models.NewFieldSet(models.FieldStock)}, records[1])
}

func TestDetect_TrackedFieldsPolicy(t *testing.T) {
	saver := &recordingSaver{}
	prev := entry("1", "Pi")
	cur := prev
	cur.Description = "rewritten"
	cur.Stock = intPtr(1)

	records, err := newDetector(saver, models.NewFieldSet(models.FieldPrice, models.FieldStock)).
		Detect(t.Context(), &models.Snapshot{Entries: []models.CatalogEntry{prev}}, []models.CatalogEntry{cur})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.NewFieldSet(models.FieldStock), records[0].(models.UpdatedEntry).Changed)
}

func TestDetect_UntrackedChangeRewritesSnapshotSilently(t *testing.T) {
	saver := &recordingSaver{}
	prev := entry("1", "Pi")
	cur := prev
	cur.Description = "rewritten"

	records, err := newDetector(saver, models.NewFieldSet(models.FieldPrice)).
		Detect(t.Context(), &models.Snapshot{Entries: []models.CatalogEntry{prev}}, []models.CatalogEntry{cur})

	require.NoError(t, err)
	assert.Empty(t, records)
	require.Len(t, saver.saves, 1)
	assert.Equal(t, "rewritten", saver.saves[0][0].Description)
}

func TestDetect_RemovedEntriesAreNotReported(t *testing.T) {
	saver := &recordingSaver{}
	previous := &models.Snapshot{Entries: []models.CatalogEntry{entry("1", "Pi"), entry("2", "Hat")}}
	current := []models.CatalogEntry{entry("1", "Pi")}

	records, err := newDetector(saver, models.AllFields).Detect(t.Context(), previous, current)

	require.NoError(t, err)
	assert.Empty(t, records)
	require.Len(t, saver.saves, 1)
	assert.Equal(t, current, saver.saves[0])
}

func TestDetect_SaveFailureIsNotFatal(t *testing.T) {
	saver := &recordingSaver{err: assert.AnError}
	previous := &models.Snapshot{Entries: []models.CatalogEntry{}}
	current := []models.CatalogEntry{entry("1", "Pi")}

	records, err := newDetector(saver, models.AllFields).Detect(t.Context(), previous, current)

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, saver.saves, 1)
}

func TestDetect_InvalidEntryAbortsBeforePersisting(t *testing.T) {
	saver := &recordingSaver{}
	current := []models.CatalogEntry{entry("1", "Pi"), {Name: "no id"}}

	for _, previous := range []*models.Snapshot{nil, {Entries: []models.CatalogEntry{entry("1", "Pi")}}} {
		records, err := newDetector(saver, models.AllFields).Detect(t.Context(), previous, current)

		require.ErrorIs(t, err, detector.ErrInvalidEntry)
		assert.Contains(t, err.Error(), "index 1")
		assert.Nil(t, records)
	}
	assert.Empty(t, saver.saves)
}

func TestDetect_MissingOptionalFields(t *testing.T) {
	saver := &recordingSaver{}
	prev := models.CatalogEntry{ID: "1", Name: "Bare"}
	cur := models.CatalogEntry{ID: "1", Name: "Bare"}

	records, err := newDetector(saver, models.AllFields).
		Detect(t.Context(), &models.Snapshot{Entries: []models.CatalogEntry{prev}}, []models.CatalogEntry{cur})

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, saver.saves)
}
