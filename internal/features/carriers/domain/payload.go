package domain

// Payload represents a parsed carrier tracking response for one container.
// Adapters validate raw carrier JSON into this shape at the boundary; nothing
// downstream ever sees a carrier's native schema.
type Payload struct {
	// ContainerNumber identifies the container or shipment at the carrier.
	// It is the only mandatory field.
	ContainerNumber string `json:"container_number"`
	// ShipmentStatus is the carrier's reported overall status, if any.
	// Free text; it is validated against the fixed status set downstream.
	ShipmentStatus string `json:"shipment_status,omitempty"`
	// Origin is the carrier-reported origin location, if any.
	Origin string `json:"origin,omitempty"`
	// Destination is the carrier-reported destination location, if any.
	Destination string `json:"destination,omitempty"`
	// CurrentLocation is the carrier-reported current location, if any.
	CurrentLocation string `json:"current_location,omitempty"`
	// EstimatedArrival is the carrier-reported ETA as given on the wire.
	// Left unparsed here; carriers disagree on formats.
	EstimatedArrival string `json:"estimated_arrival,omitempty"`
	// Progress is the carrier-reported completion percentage, if reported.
	Progress *int `json:"progress,omitempty"`
	// Events are the milestone candidates reported by the carrier, in the
	// carrier's order.
	Events []EventCandidate `json:"events"`
}

// EventCandidate is one milestone entry from a carrier payload, prior to
// deduplication against stored shipment history.
type EventCandidate struct {
	// Status is the milestone label. A candidate without one is discarded.
	Status string `json:"status"`
	// Location is where the milestone occurred, if reported.
	Location string `json:"location,omitempty"`
	// Timestamp is the milestone time as given on the wire, if any.
	Timestamp string `json:"timestamp,omitempty"`
	// Description is optional carrier-provided text for the milestone.
	Description string `json:"description,omitempty"`
	// Actual is true for carrier-confirmed milestones, false for projected
	// or estimated ones.
	Actual bool `json:"actual"`
}
