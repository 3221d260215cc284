package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresShipmentRepository implements ports.ShipmentRepository over a
// pgx connection pool.
type PostgresShipmentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresShipmentRepository creates a repository over the given pool.
func NewPostgresShipmentRepository(pool *pgxpool.Pool) *PostgresShipmentRepository {
	return &PostgresShipmentRepository{pool: pool}
}

// OpenPool opens a pgx connection pool for the given database URL and
// verifies connectivity.
func OpenPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// CreateSchema creates the shipment tables if they do not exist. Events are
// owned by their shipment and cascade on delete.
func (r *PostgresShipmentRepository) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS shipments (
		id                 BIGSERIAL PRIMARY KEY,
		tracking_number    TEXT NOT NULL UNIQUE,
		carrier            TEXT NOT NULL,
		origin             TEXT NOT NULL DEFAULT '',
		destination        TEXT NOT NULL DEFAULT '',
		current_location   TEXT NOT NULL DEFAULT '',
		status             TEXT NOT NULL,
		progress           INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
		estimated_delivery TIMESTAMPTZ,
		actual_delivery    TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS tracking_events (
		id           TEXT PRIMARY KEY,
		shipment_id  BIGINT NOT NULL REFERENCES shipments(id) ON DELETE CASCADE,
		seq          BIGSERIAL,
		status_label TEXT NOT NULL,
		location     TEXT NOT NULL DEFAULT '',
		occurred_at  TIMESTAMPTZ NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		completed    BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_tracking_events_shipment ON tracking_events(shipment_id, seq);
	`

	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Create inserts a shipment and its seeded events in one transaction.
func (r *PostgresShipmentRepository) Create(ctx context.Context, state *domain.ShipmentState) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create shipment: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO shipments(tracking_number, carrier, origin, destination, current_location,
		                       status, progress, estimated_delivery)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		state.TrackingNumber, state.Carrier, state.Origin, state.Destination, state.CurrentLocation,
		string(state.Status), state.Progress, state.EstimatedDelivery,
	).Scan(&state.ID, &state.CreatedAt, &state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}

	if err := insertEvents(ctx, tx, state.ID, state.Events); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create shipment: %w", err)
	}
	return nil
}

// GetByTrackingNumber loads a shipment with its events in insertion order.
func (r *PostgresShipmentRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.ShipmentState, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, tracking_number, carrier, origin, destination, current_location,
		        status, progress, estimated_delivery, actual_delivery, created_at, updated_at
		 FROM shipments WHERE tracking_number=$1`, trackingNumber)

	state, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select shipment: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, status_label, location, occurred_at, description, completed
		 FROM tracking_events WHERE shipment_id=$1 ORDER BY seq`, state.ID)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var event domain.TrackingEvent
		if err := rows.Scan(&event.ID, &event.Status, &event.Location,
			&event.Timestamp, &event.Description, &event.Completed); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		state.Events = append(state.Events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return state, nil
}

// List returns all shipments newest first. Event history is not loaded.
func (r *PostgresShipmentRepository) List(ctx context.Context) ([]*domain.ShipmentState, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tracking_number, carrier, origin, destination, current_location,
		        status, progress, estimated_delivery, actual_delivery, created_at, updated_at
		 FROM shipments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()

	var shipments []*domain.ShipmentState
	for rows.Next() {
		state, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		shipments = append(shipments, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipments: %w", err)
	}

	return shipments, nil
}

// ApplyReconciliation writes a reconciliation result transactionally. The
// shipment row is locked for the duration so that concurrent refreshes of the
// same shipment serialize instead of losing updates. Progress is additionally
// floored at its stored value inside the UPDATE, so a result computed from a
// stale snapshot can never regress it.
func (r *PostgresShipmentRepository) ApplyReconciliation(ctx context.Context, trackingNumber string, result *domain.ReconciliationResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reconciliation: %w", err)
	}
	defer tx.Rollback(ctx)

	var shipmentID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM shipments WHERE tracking_number=$1 FOR UPDATE`, trackingNumber,
	).Scan(&shipmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("lock shipment: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE shipments
		 SET status=$1,
		     progress=GREATEST(progress, $2),
		     current_location=CASE WHEN $3 <> '' THEN $3 ELSE current_location END,
		     estimated_delivery=COALESCE($4, estimated_delivery),
		     actual_delivery=CASE WHEN $1 = $5 THEN COALESCE(actual_delivery, NOW()) ELSE actual_delivery END,
		     updated_at=NOW()
		 WHERE id=$6`,
		string(result.NextStatus), result.NextProgress, result.NextCurrentLocation,
		result.NextEstimatedDelivery, string(domain.StatusDelivered), shipmentID)
	if err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}

	if err := insertEvents(ctx, tx, shipmentID, result.EventsToAppend); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reconciliation: %w", err)
	}
	return nil
}

// OverrideProgress writes progress directly, ignoring the monotonic floor.
func (r *PostgresShipmentRepository) OverrideProgress(ctx context.Context, trackingNumber string, progress int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE shipments SET progress=$1, updated_at=NOW() WHERE tracking_number=$2`,
		progress, trackingNumber)
	if err != nil {
		return fmt.Errorf("override progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Delete removes a shipment; its events cascade away with it.
func (r *PostgresShipmentRepository) Delete(ctx context.Context, trackingNumber string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM shipments WHERE tracking_number=$1`, trackingNumber)
	if err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// insertEvents appends events for a shipment preserving the given order.
func insertEvents(ctx context.Context, tx pgx.Tx, shipmentID int64, events []domain.TrackingEvent) error {
	for _, event := range events {
		_, err := tx.Exec(ctx,
			`INSERT INTO tracking_events(id, shipment_id, status_label, location, occurred_at, description, completed)
			 VALUES($1, $2, $3, $4, $5, $6, $7)`,
			event.ID, shipmentID, event.Status, event.Location, event.Timestamp, event.Description, event.Completed)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return nil
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*domain.ShipmentState, error) {
	var state domain.ShipmentState
	var status string
	err := row.Scan(&state.ID, &state.TrackingNumber, &state.Carrier, &state.Origin,
		&state.Destination, &state.CurrentLocation, &status, &state.Progress,
		&state.EstimatedDelivery, &state.ActualDelivery, &state.CreatedAt, &state.UpdatedAt)
	if err != nil {
		return nil, err
	}
	state.Status = domain.ShipmentStatus(status)
	return &state, nil
}
