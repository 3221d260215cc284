package ports

import (
	"context"
	"errors"

	carriers "shipment-tracker/internal/features/carriers/domain"
	"shipment-tracker/internal/features/shipments/domain"
)

// ErrNotFound is returned by repositories when no shipment matches.
var ErrNotFound = errors.New("shipment not found")

// ShipmentRepository defines the secondary port for shipment persistence.
type ShipmentRepository interface {
	// Create stores a new shipment with its seeded events. The stored row
	// is written back onto state (id, timestamps).
	Create(ctx context.Context, state *domain.ShipmentState) error

	// GetByTrackingNumber loads a shipment and its full event history.
	// Returns nil, nil when no shipment matches.
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.ShipmentState, error)

	// List returns all shipments, newest first, without event history.
	List(ctx context.Context) ([]*domain.ShipmentState, error)

	// ApplyReconciliation writes a reconciliation result for the shipment in
	// one transaction: the shipment row is locked, its derived fields are
	// updated, and only the new events are inserted. The row lock serializes
	// concurrent reconciliations of the same shipment.
	ApplyReconciliation(ctx context.Context, trackingNumber string, result *domain.ReconciliationResult) error

	// OverrideProgress sets the progress directly, bypassing the monotonic
	// rule. Admin-only escape hatch.
	OverrideProgress(ctx context.Context, trackingNumber string, progress int) error

	// Delete removes a shipment and, through ownership, all of its events.
	Delete(ctx context.Context, trackingNumber string) error
}

// TrackingFetcher defines the secondary port for obtaining carrier payloads.
// The carrier service implements it; network and timeout policy live there.
type TrackingFetcher interface {
	// FetchTracking retrieves the parsed tracking payload for a container
	// from the named carrier.
	FetchTracking(ctx context.Context, carrier, containerNumber string) (*carriers.Payload, error)
}
