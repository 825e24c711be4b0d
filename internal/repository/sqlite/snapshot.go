package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/heidi/internal/models"
	"github.com/Houeta/heidi/internal/repository"
)

// GetSnapshot implements an interface method for retrieving the snapshot from the database.
func (r *Repository) GetSnapshot(ctx context.Context) (*models.Snapshot, error) {
	const opn = "repository.sqlite.GetSnapshot"

	// 1. Get the time of the last write
	var takenAt string
	err := r.db.QueryRowContext(ctx, "SELECT taken_at FROM snapshot_state WHERE id = 1").Scan(&takenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("%s: failed to get snapshot state: %w", opn, err)
	}

	snapshot := &models.Snapshot{}
	if snapshot.TakenAt, err = time.Parse(time.RFC3339Nano, takenAt); err != nil {
		return nil, fmt.Errorf("%s: %w: bad taken_at %q: %w", opn, repository.ErrMalformedSnapshot, takenAt, err)
	}

	// 2. Get all entries in their original order
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT entry_id, name, description, long_description, ticket_cost, stock, image_url
		FROM catalog_entries ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get catalog entries: %w", opn, err)
	}
	defer rows.Close()

	// 3. Scan every row to CatalogEntry structure
	for rows.Next() {
		var (
			entry      models.CatalogEntry
			ticketCost sql.NullString
			stock      sql.NullInt64
		)
		if err = rows.Scan(
			&entry.ID, &entry.Name, &entry.Description, &entry.LongDescription, &ticketCost, &stock, &entry.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("%s: failed to scan catalog entry: %w", opn, err)
		}

		if ticketCost.Valid {
			if err = json.Unmarshal([]byte(ticketCost.String), &entry.Prices); err != nil {
				return nil, fmt.Errorf("%s: %w: entry %s: %w", opn, repository.ErrMalformedSnapshot, entry.ID, err)
			}
		}
		if stock.Valid {
			value := int(stock.Int64)
			entry.Stock = &value
		}

		snapshot.Entries = append(snapshot.Entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return snapshot, nil
}

// SaveSnapshot atomically replaces the snapshot using a transaction.
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	const opn = "repository.sqlite.SaveSnapshot"

	takenAt := snapshot.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}

	// 1. begin transaction
	tx, err := r.db.BeginTx(ctx, nil) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", opn, err)
	}
	defer tx.Rollback() //nolint:errcheck // returns sql.ErrTxDone after a successful commit

	// 2. Update (or insert) the snapshot timestamp.
	_, err = tx.ExecContext(
		ctx,
		"INSERT OR REPLACE INTO snapshot_state (id, taken_at) VALUES (1, ?)",
		takenAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to update snapshot state: %w", opn, err)
	}

	// 3. Completely clear the entries table to record the new current state.
	_, err = tx.ExecContext(ctx, "DELETE FROM catalog_entries")
	if err != nil {
		return fmt.Errorf("%s: failed to delete old entries: %w", opn, err)
	}

	// 4. Preparing a request for the effective insertion of new entries.
	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO catalog_entries
		(position, entry_id, name, description, long_description, ticket_cost, stock, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare insert statement: %w", opn, err)
	}
	defer stmt.Close()

	// 5. Insert each entry, keeping its position in the feed.
	for pos, e := range snapshot.Entries {
		var ticketCost sql.NullString
		if e.Prices != nil {
			raw, marshalErr := json.Marshal(e.Prices)
			if marshalErr != nil {
				return fmt.Errorf("%s: failed to encode prices of entry %s: %w", opn, e.ID, marshalErr)
			}
			ticketCost = sql.NullString{String: string(raw), Valid: true}
		}

		var stock sql.NullInt64
		if e.Stock != nil {
			stock = sql.NullInt64{Int64: int64(*e.Stock), Valid: true}
		}

		if _, err = stmt.ExecContext(
			ctx, pos, string(e.ID), e.Name, e.Description, e.LongDescription, ticketCost, stock, e.ImageURL,
		); err != nil {
			return fmt.Errorf("%s: failed to insert entry with id %s: %w", opn, e.ID, err)
		}
	}

	// 6. If all operations went through without errors - confirm the transaction.
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", opn, err)
	}

	return nil
}
