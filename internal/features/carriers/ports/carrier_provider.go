package ports

import (
	"context"

	"shipment-tracker/internal/features/carriers/domain"
)

// CarrierProvider defines the interface for carrier tracking integrations.
// This is a Secondary Port (Driven Port); implementations own all network,
// scraping, and timeout policy.
type CarrierProvider interface {
	// FetchTracking retrieves and validates the tracking payload for a
	// container number.
	FetchTracking(ctx context.Context, containerNumber string) (*domain.Payload, error)
	// SupportsCarrier returns true if this provider supports the given carrier name.
	SupportsCarrier(carrierName string) bool
}
