package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jack-barr3tt/commute-board/src/common/delay"
	"github.com/jack-barr3tt/commute-board/src/common/types"
)

// History stores every fetched journey in postgres.
type History struct {
	pg        *pgxpool.Pool
	formatter *delay.Formatter
}

func NewHistory(pg *pgxpool.Pool, formatter *delay.Formatter) *History {
	return &History{pg: pg, formatter: formatter}
}

func (h *History) EnsureSchema(ctx context.Context) error {
	_, err := h.pg.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS journey_snapshot (
			id                SERIAL PRIMARY KEY,
			source            TEXT NOT NULL,
			fetched_at        TIMESTAMPTZ NOT NULL,
			planned_departure TEXT NOT NULL,
			departure         TEXT NOT NULL,
			planned_arrival   TEXT NOT NULL,
			arrival           TEXT NOT NULL,
			origin            TEXT NOT NULL,
			destination       TEXT NOT NULL,
			line              TEXT NOT NULL,
			departure_delay   INTEGER,
			arrival_delay     INTEGER
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create journey_snapshot: %w", err)
	}

	_, err = h.pg.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS journey_snapshot_source_fetched
		ON journey_snapshot (source, fetched_at DESC)
	`)
	return err
}

func nullableMinutes(m delay.Minutes) sql.NullInt32 {
	return sql.NullInt32{Int32: int32(m.Value), Valid: m.Valid}
}

func (h *History) Record(ctx context.Context, source string, journey types.Journey, fetchedAt time.Time) error {
	_, err := h.pg.Exec(ctx, `
		INSERT INTO journey_snapshot (
			source, fetched_at, planned_departure, departure, planned_arrival, arrival,
			origin, destination, line, departure_delay, arrival_delay
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		source, fetchedAt,
		journey.PlannedDeparture, journey.Departure, journey.PlannedArrival, journey.Arrival,
		journey.From, journey.To, journey.Line,
		nullableMinutes(h.formatter.DepartureDelay(journey)),
		nullableMinutes(h.formatter.ArrivalDelay(journey)),
	)
	if err != nil {
		return fmt.Errorf("failed to insert journey snapshot: %w", err)
	}
	return nil
}

func (h *History) Recent(ctx context.Context, source string, limit int) ([]types.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.pg.Query(ctx, `
		SELECT fetched_at, planned_departure, departure, planned_arrival, arrival,
		       origin, destination, line, departure_delay, arrival_delay
		FROM journey_snapshot
		WHERE source = $1
		ORDER BY fetched_at DESC
		LIMIT $2
	`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journey snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []types.Snapshot{}
	for rows.Next() {
		var snap types.Snapshot
		var fetchedAt time.Time
		var depDelay, arrDelay sql.NullInt32

		if err := rows.Scan(
			&fetchedAt,
			&snap.Journey.PlannedDeparture,
			&snap.Journey.Departure,
			&snap.Journey.PlannedArrival,
			&snap.Journey.Arrival,
			&snap.Journey.From,
			&snap.Journey.To,
			&snap.Journey.Line,
			&depDelay,
			&arrDelay,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journey snapshot: %w", err)
		}

		snap.Source = source
		snap.FetchedAt = fetchedAt.UTC().Format(time.RFC3339)
		if depDelay.Valid {
			v := int(depDelay.Int32)
			snap.DepartureDelay = &v
		}
		if arrDelay.Valid {
			v := int(arrDelay.Int32)
			snap.ArrivalDelay = &v
		}
		snapshots = append(snapshots, snap)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journey snapshots: %w", err)
	}

	return snapshots, nil
}
