package domain

import "time"

// ShipmentState represents the persisted view of one shipment.
type ShipmentState struct {
	// ID is the internal database identifier of the shipment.
	ID int64 `json:"id"`
	// TrackingNumber is the unique carrier- or system-assigned identifier.
	TrackingNumber string `json:"tracking_number"`
	// Carrier is the name of the carrier handling the shipment.
	Carrier string `json:"carrier"`
	// Origin is the free-text origin location of the route.
	Origin string `json:"origin"`
	// Destination is the free-text destination location of the route.
	Destination string `json:"destination"`
	// CurrentLocation is the last known location of the shipment.
	CurrentLocation string `json:"current_location"`
	// Status is the current lifecycle status of the shipment.
	Status ShipmentStatus `json:"status"`
	// Progress is the completion percentage in [0, 100]. It is derived from
	// reconciliation and monotonically non-decreasing except under an
	// explicit admin override.
	Progress int `json:"progress"`
	// EstimatedDelivery is the projected delivery time, if known.
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	// ActualDelivery is the confirmed delivery time, if delivered.
	ActualDelivery *time.Time `json:"actual_delivery,omitempty"`
	// Events is the append-only, time-ordered milestone log for the shipment.
	Events []TrackingEvent `json:"events"`
	// CreatedAt is when the shipment was registered.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the shipment was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// TrackingEvent represents one milestone in a shipment's history.
// Events are exclusively owned by their parent shipment and are deleted
// with it; confirmed events are never removed by reconciliation.
type TrackingEvent struct {
	// ID is the unique identifier of the event.
	ID string `json:"id"`
	// Status is the free-text milestone label, carrier-supplied or
	// system-generated. It is not a ShipmentStatus.
	Status string `json:"status"`
	// Location is where the milestone occurred, if reported.
	Location string `json:"location,omitempty"`
	// Timestamp is when the milestone occurred. Defaults to ingestion time
	// when the carrier omits one.
	Timestamp time.Time `json:"timestamp"`
	// Description is carrier-provided or synthesized explanatory text.
	Description string `json:"description,omitempty"`
	// Completed is true only for carrier-confirmed milestones; projected or
	// estimated milestones carry false.
	Completed bool `json:"completed"`
}
