package domain

import "strings"

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	// StatusPending indicates the shipment has been registered but not yet quoted.
	StatusPending ShipmentStatus = "PENDING"
	// StatusQuoteRequested indicates a shipping quote has been requested.
	StatusQuoteRequested ShipmentStatus = "QUOTE_REQUESTED"
	// StatusQuoteApproved indicates the customer approved the quote.
	StatusQuoteApproved ShipmentStatus = "QUOTE_APPROVED"
	// StatusPickupScheduled indicates vehicle pickup has been scheduled.
	StatusPickupScheduled ShipmentStatus = "PICKUP_SCHEDULED"
	// StatusPickupCompleted indicates the vehicle has been picked up.
	StatusPickupCompleted ShipmentStatus = "PICKUP_COMPLETED"
	// StatusInTransit indicates the shipment is moving overland.
	StatusInTransit ShipmentStatus = "IN_TRANSIT"
	// StatusAtPort indicates the shipment has arrived at the departure port.
	StatusAtPort ShipmentStatus = "AT_PORT"
	// StatusLoadedOnVessel indicates the container has been loaded on a vessel.
	StatusLoadedOnVessel ShipmentStatus = "LOADED_ON_VESSEL"
	// StatusInTransitOcean indicates the vessel is at sea.
	StatusInTransitOcean ShipmentStatus = "IN_TRANSIT_OCEAN"
	// StatusArrivedAtDestination indicates arrival at the destination port.
	StatusArrivedAtDestination ShipmentStatus = "ARRIVED_AT_DESTINATION"
	// StatusCustomsClearance indicates the shipment is clearing customs.
	StatusCustomsClearance ShipmentStatus = "CUSTOMS_CLEARANCE"
	// StatusOutForDelivery indicates final-mile delivery is underway.
	StatusOutForDelivery ShipmentStatus = "OUT_FOR_DELIVERY"
	// StatusDelivered indicates the shipment has been delivered.
	StatusDelivered ShipmentStatus = "DELIVERED"
	// StatusCancelled indicates the shipment was cancelled.
	StatusCancelled ShipmentStatus = "CANCELLED"
	// StatusOnHold indicates the shipment is paused pending resolution.
	StatusOnHold ShipmentStatus = "ON_HOLD"
)

// StatusMetadata carries presentation and derivation hints for a status.
// It is the single source of truth consumed by UI layers; status semantics
// must never be re-derived from string matching elsewhere.
type StatusMetadata struct {
	// Label is the human-readable name of the status.
	Label string `json:"label"`
	// Color is the badge color associated with the status.
	Color string `json:"color"`
	// ProgressBand is the [min, max] progress percentage typical for the status.
	ProgressBand [2]int `json:"progress_band"`
}

// AllStatuses lists every valid shipment status in lifecycle order.
var AllStatuses = []ShipmentStatus{
	StatusPending,
	StatusQuoteRequested,
	StatusQuoteApproved,
	StatusPickupScheduled,
	StatusPickupCompleted,
	StatusInTransit,
	StatusAtPort,
	StatusLoadedOnVessel,
	StatusInTransitOcean,
	StatusArrivedAtDestination,
	StatusCustomsClearance,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
	StatusOnHold,
}

var statusMetadata = map[ShipmentStatus]StatusMetadata{
	StatusPending:              {Label: "Pending", Color: "gray", ProgressBand: [2]int{0, 5}},
	StatusQuoteRequested:       {Label: "Quote Requested", Color: "gray", ProgressBand: [2]int{0, 5}},
	StatusQuoteApproved:        {Label: "Quote Approved", Color: "blue", ProgressBand: [2]int{5, 10}},
	StatusPickupScheduled:      {Label: "Pickup Scheduled", Color: "blue", ProgressBand: [2]int{10, 15}},
	StatusPickupCompleted:      {Label: "Pickup Completed", Color: "blue", ProgressBand: [2]int{15, 25}},
	StatusInTransit:            {Label: "In Transit", Color: "indigo", ProgressBand: [2]int{25, 40}},
	StatusAtPort:               {Label: "At Port", Color: "indigo", ProgressBand: [2]int{40, 50}},
	StatusLoadedOnVessel:       {Label: "Loaded on Vessel", Color: "purple", ProgressBand: [2]int{50, 60}},
	StatusInTransitOcean:       {Label: "In Transit (Ocean)", Color: "purple", ProgressBand: [2]int{60, 80}},
	StatusArrivedAtDestination: {Label: "Arrived at Destination", Color: "teal", ProgressBand: [2]int{80, 85}},
	StatusCustomsClearance:     {Label: "Customs Clearance", Color: "amber", ProgressBand: [2]int{85, 90}},
	StatusOutForDelivery:       {Label: "Out for Delivery", Color: "teal", ProgressBand: [2]int{90, 99}},
	StatusDelivered:            {Label: "Delivered", Color: "green", ProgressBand: [2]int{100, 100}},
	StatusCancelled:            {Label: "Cancelled", Color: "red", ProgressBand: [2]int{0, 0}},
	StatusOnHold:               {Label: "On Hold", Color: "amber", ProgressBand: [2]int{0, 100}},
}

// Metadata returns the presentation metadata for the status.
// Unknown statuses get a zero-value metadata rather than a panic.
func (s ShipmentStatus) Metadata() StatusMetadata {
	return statusMetadata[s]
}

// Valid reports whether the status belongs to the fixed status set.
func (s ShipmentStatus) Valid() bool {
	_, ok := statusMetadata[s]
	return ok
}

// ParseStatus maps a carrier-supplied status string onto the fixed status set.
// Matching is case-insensitive and tolerant of whitespace separators ("in
// transit" matches IN_TRANSIT), but otherwise exact; no fuzzy or synonym
// matching is attempted so that an unrecognized carrier vocabulary can never
// be promoted to a shipment status without validation.
func ParseStatus(raw string) (ShipmentStatus, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.Join(strings.Fields(normalized), "_")
	candidate := ShipmentStatus(normalized)
	if candidate.Valid() {
		return candidate, true
	}
	return "", false
}
