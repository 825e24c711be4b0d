package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Houeta/heidi/internal/models"
)

// ErrInvalidEntry is returned when the fetched entries violate detection preconditions.
var ErrInvalidEntry = errors.New("invalid catalog entry")

// Saver persists the current entry set as the new snapshot.
type Saver interface {
	Save(ctx context.Context, entries []models.CatalogEntry) error
}

// Detector classifies fetched entries against the previous snapshot.
type Detector struct {
	log     *slog.Logger
	store   Saver
	tracked models.FieldSet
}

// New creates a Detector comparing the given tracked fields. An empty set tracks all fields.
func New(log *slog.Logger, store Saver, tracked models.FieldSet) *Detector {
	if tracked.Empty() {
		tracked = models.AllFields
	}
	return &Detector{log: log, store: store, tracked: tracked}
}

// Detect compares current against previous and returns change records in catalog order.
// A nil previous snapshot means a first run: current becomes the baseline and no records
// are produced. The snapshot is rewritten only when the entry set actually differs; a
// failed write is logged and does not affect the returned records.
func (d *Detector) Detect(
	ctx context.Context,
	previous *models.Snapshot,
	current []models.CatalogEntry,
) ([]models.ChangeRecord, error) {
	const opn = "detector.Detect"
	log := d.log.With("op", opn)

	if err := validate(current); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	if previous == nil {
		log.InfoContext(ctx, "No previous snapshot, establishing baseline", "entries", len(current))
		d.save(ctx, log, current)
		return nil, nil
	}

	previousByID := make(map[models.EntryID]models.CatalogEntry, len(previous.Entries))
	for _, e := range previous.Entries {
		previousByID[e.ID] = e
	}

	var records []models.ChangeRecord
	seen := make(map[models.EntryID]struct{}, len(current))
	for _, entry := range current {
		seen[entry.ID] = struct{}{}

		old, found := previousByID[entry.ID]
		if !found {
			log.InfoContext(ctx, "New entry detected", "id", entry.ID, "name", entry.Name)
			records = append(records, models.NewEntry{Entry: entry})
			continue
		}

		changed := d.diff(old, entry)
		if changed.Empty() {
			continue
		}
		log.InfoContext(ctx, "Entry updated", "id", entry.ID, "name", entry.Name, "fields", changed.String())
		records = append(records, models.UpdatedEntry{Previous: old, Current: entry, Changed: changed})
	}

	if removed := countRemoved(previous.Entries, seen); removed > 0 {
		log.InfoContext(ctx, "Entries no longer listed", "count", removed)
	}

	if entriesEqual(previous.Entries, current) {
		log.InfoContext(ctx, "No changes detected since last fetch")
		return records, nil
	}

	log.InfoContext(ctx, "Catalog changed, updating snapshot", "records", len(records))
	d.save(ctx, log, current)

	return records, nil
}

// diff returns the tracked fields that differ between two observations of an entry.
func (d *Detector) diff(old, cur models.CatalogEntry) models.FieldSet {
	var changed models.FieldSet

	check := func(field models.Field, differs bool) {
		if differs && d.tracked.Has(field) {
			changed = changed.With(field)
		}
	}

	check(models.FieldPrice, !old.Prices.Equal(cur.Prices))
	check(models.FieldStock, !models.StockEqual(old.Stock, cur.Stock))
	check(models.FieldDescription, old.Description != cur.Description)
	check(models.FieldLongDescription, old.LongDescription != cur.LongDescription)
	check(models.FieldName, old.Name != cur.Name)
	check(models.FieldImage, old.ImageURL != cur.ImageURL)

	return changed
}

func (d *Detector) save(ctx context.Context, log *slog.Logger, entries []models.CatalogEntry) {
	if err := d.store.Save(ctx, entries); err != nil {
		log.ErrorContext(ctx, "Failed to save snapshot, changes may be reported again", "error", err)
	}
}

func validate(entries []models.CatalogEntry) error {
	for i, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry at index %d has no id", ErrInvalidEntry, i)
		}
	}
	return nil
}

func entriesEqual(a, b []models.CatalogEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func countRemoved(previous []models.CatalogEntry, seen map[models.EntryID]struct{}) int {
	removed := 0
	for _, e := range previous {
		if _, ok := seen[e.ID]; !ok {
			removed++
		}
	}
	return removed
}
