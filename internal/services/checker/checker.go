package checker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/heidi/internal/models"
	"github.com/google/uuid"
)

// CatalogFetcher downloads the current catalog entries.
type CatalogFetcher interface {
	FetchEntries(ctx context.Context) ([]models.CatalogEntry, error)
}

// SnapshotLoader returns the last processed snapshot, or nil when there is none.
type SnapshotLoader interface {
	Load(ctx context.Context) *models.Snapshot
}

// ChangeDetector classifies entries against the previous snapshot.
type ChangeDetector interface {
	Detect(ctx context.Context, previous *models.Snapshot, current []models.CatalogEntry) ([]models.ChangeRecord, error)
}

// Renderer maps a change record to a notification payload.
type Renderer interface {
	Render(record models.ChangeRecord) (models.NotificationPayload, error)
}

// Notifier delivers a notification payload.
type Notifier interface {
	Notify(ctx context.Context, payload models.NotificationPayload) error
}

// Report summarises one poll cycle.
type Report struct {
	CycleID   string        `json:"cycle_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Fetched   int           `json:"fetched"`
	Baseline  bool          `json:"baseline"`
	Records   int           `json:"records"`
	Delivered int           `json:"delivered"`
	Failed    int           `json:"failed"`
}

// Checker is an orchestrator that performs a full verification cycle.
type Checker struct {
	log      *slog.Logger
	fetcher  CatalogFetcher
	store    SnapshotLoader
	detector ChangeDetector
	renderer Renderer
	notifier Notifier
	now      func() time.Time
}

type Interface interface {
	// CheckForUpdates performs the full change checking algorithm.
	CheckForUpdates(ctx context.Context) (*Report, error)
}

// NewChecker creates a new Checker instance.
func NewChecker(
	log *slog.Logger,
	fetcher CatalogFetcher,
	store SnapshotLoader,
	detector ChangeDetector,
	renderer Renderer,
	notifier Notifier,
) *Checker {
	return &Checker{
		log:      log,
		fetcher:  fetcher,
		store:    store,
		detector: detector,
		renderer: renderer,
		notifier: notifier,
		now:      time.Now,
	}
}

// CheckForUpdates performs the full change checking algorithm.
func (c *Checker) CheckForUpdates(ctx context.Context) (*Report, error) {
	const opn = "checker.CheckForUpdates"

	report := &Report{CycleID: uuid.NewString(), StartedAt: c.now()}
	log := c.log.With("op", opn, "cycle_id", report.CycleID)

	// 1. Fetching the current catalog
	log.InfoContext(ctx, "Fetching catalog to check for updates")
	entries, err := c.fetcher.FetchEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch catalog: %w", opn, err)
	}
	report.Fetched = len(entries)
	log.InfoContext(ctx, "Successfully fetched catalog", "count", len(entries))

	// 2. Loading the previous snapshot
	previous := c.store.Load(ctx)
	report.Baseline = previous == nil

	// 3. Detecting changes; the detector also persists the new snapshot
	records, err := c.detector.Detect(ctx, previous, entries)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to detect changes: %w", opn, err)
	}
	report.Records = len(records)

	// 4. Rendering and dispatching each record in catalog order
	for _, record := range records {
		if err = c.dispatch(ctx, record); err != nil {
			report.Failed++
			log.ErrorContext(ctx, "Failed to deliver notification", "id", record.Item().ID, "error", err)
			continue
		}
		report.Delivered++
	}

	report.Duration = c.now().Sub(report.StartedAt)
	log.InfoContext(
		ctx,
		"Check cycle complete",
		"baseline", report.Baseline,
		"records", report.Records,
		"delivered", report.Delivered,
		"failed", report.Failed,
		"duration", report.Duration,
	)

	return report, nil
}

func (c *Checker) dispatch(ctx context.Context, record models.ChangeRecord) error {
	payload, err := c.renderer.Render(record)
	if err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}

	if err = c.notifier.Notify(ctx, payload); err != nil {
		return fmt.Errorf("failed to notify: %w", err)
	}

	return nil
}
