package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shipment-tracker/internal/core/logger"
	carriers "shipment-tracker/internal/features/carriers/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidPayload is returned when a carrier payload is missing its
// container number. No merge work is attempted in that case.
var ErrInvalidPayload = errors.New("carrier payload missing container number")

// ReconcileMode selects how a carrier payload is applied to shipment state.
type ReconcileMode string

const (
	// ModeCreate applies a payload to a brand-new shipment being created
	// from a carrier lookup.
	ModeCreate ReconcileMode = "CREATE"
	// ModeUpdate refreshes an existing shipment from a carrier payload.
	ModeUpdate ReconcileMode = "UPDATE"
)

// ReconciliationResult is the computed outcome of merging a carrier payload
// into shipment state. The caller persists it; the reconciler performs no I/O.
type ReconciliationResult struct {
	// NextStatus is the validated status after reconciliation.
	NextStatus ShipmentStatus `json:"next_status"`
	// NextProgress is the completion percentage after reconciliation.
	NextProgress int `json:"next_progress"`
	// NextCurrentLocation is the location after reconciliation. An absent
	// carrier field never clears the existing value.
	NextCurrentLocation string `json:"next_current_location"`
	// NextEstimatedDelivery is the ETA after reconciliation, if known.
	NextEstimatedDelivery *time.Time `json:"next_estimated_delivery,omitempty"`
	// EventsToAppend are the new events to persist, in carrier order.
	// Existing events are never removed or reordered.
	EventsToAppend []TrackingEvent `json:"events_to_append"`
}

// Timestamp layouts accepted from carrier payloads, tried in order.
var carrierTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Reconciler merges carrier tracking payloads into shipment state without
// losing history or regressing monotonic invariants. It is a pure computation
// over its inputs plus an injectable clock, safe for concurrent use across
// shipments. Concurrent runs for the same shipment must be serialized by the
// persistence layer; the reconciler only sees a snapshot.
type Reconciler struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewReconciler creates a Reconciler using the given clock.
// A nil clock falls back to time.Now.
func NewReconciler(now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		now:    now,
		logger: logger.Get(),
	}
}

// Reconcile merges a carrier payload into the shipment's current state and
// returns the updated fields plus the new events to persist. existing may be
// nil when a shipment is being created from a carrier lookup.
//
// Only a payload without a container number fails the call; malformed
// individual events are skipped and logged, and an unrecognized carrier
// status leaves the previous status in place.
func (r *Reconciler) Reconcile(payload *carriers.Payload, existing *ShipmentState, mode ReconcileMode) (*ReconciliationResult, error) {
	if payload == nil || strings.TrimSpace(payload.ContainerNumber) == "" {
		return nil, ErrInvalidPayload
	}

	result := &ReconciliationResult{
		NextStatus: StatusPending,
	}
	if existing != nil {
		result.NextStatus = existing.Status
		result.NextCurrentLocation = existing.CurrentLocation
		result.NextEstimatedDelivery = existing.EstimatedDelivery
	}

	unmappedStatus := r.resolveStatus(payload, result)
	r.resolveProgress(payload, existing, mode, result)

	if payload.CurrentLocation != "" {
		result.NextCurrentLocation = payload.CurrentLocation
	}
	if eta, ok := parseCarrierTime(payload.EstimatedArrival); ok {
		result.NextEstimatedDelivery = &eta
	}

	r.mergeEvents(payload, existing, result)

	existingCount := 0
	if existing != nil {
		existingCount = len(existing.Events)
	}
	if existingCount == 0 && len(result.EventsToAppend) == 0 {
		result.EventsToAppend = append(result.EventsToAppend, r.fallbackEvent(payload, existing, result))
	}

	// An unmappable carrier status survives only in event description text.
	if unmappedStatus != "" && len(result.EventsToAppend) > 0 {
		first := &result.EventsToAppend[0]
		first.Description = fmt.Sprintf("%s (carrier reported %q)", first.Description, unmappedStatus)
	}

	return result, nil
}

// resolveStatus validates the carrier status against the fixed status set.
// It returns the raw carrier string when it could not be mapped, so callers
// can preserve it in event description text.
func (r *Reconciler) resolveStatus(payload *carriers.Payload, result *ReconciliationResult) string {
	if payload.ShipmentStatus == "" {
		return ""
	}

	mapped, ok := ParseStatus(payload.ShipmentStatus)
	if !ok {
		r.logger.Warn("Unrecognized carrier status retained as free text",
			zap.String("container_number", payload.ContainerNumber),
			zap.String("carrier_status", payload.ShipmentStatus),
		)
		return payload.ShipmentStatus
	}

	result.NextStatus = mapped
	return ""
}

// resolveProgress derives the next progress percentage. In UPDATE mode an
// existing shipment never regresses: the result is the max of stored and
// reported progress, clamped to [0, 100].
func (r *Reconciler) resolveProgress(payload *carriers.Payload, existing *ShipmentState, mode ReconcileMode, result *ReconciliationResult) {
	if mode == ModeUpdate && existing != nil {
		result.NextProgress = existing.Progress
		if payload.Progress != nil {
			reported := clampProgress(*payload.Progress)
			if reported > result.NextProgress {
				result.NextProgress = reported
			}
		}
		return
	}

	result.NextProgress = 0
	if payload.Progress != nil {
		result.NextProgress = clampProgress(*payload.Progress)
	}
}

// eventSignature identifies an event for deduplication: label and location
// normalized, timestamp truncated to the minute.
type eventSignature struct {
	status   string
	location string
	minute   int64
}

func signatureOf(status, location string, ts time.Time) eventSignature {
	return eventSignature{
		status:   strings.ToLower(strings.TrimSpace(status)),
		location: strings.ToLower(strings.TrimSpace(location)),
		minute:   ts.Truncate(time.Minute).Unix(),
	}
}

// mergeEvents deduplicates carrier event candidates against stored history and
// appends the survivors in carrier order. Re-fetching the same carrier payload
// therefore never floods the timeline.
func (r *Reconciler) mergeEvents(payload *carriers.Payload, existing *ShipmentState, result *ReconciliationResult) {
	seen := make(map[eventSignature]struct{})
	if existing != nil {
		for _, event := range existing.Events {
			seen[signatureOf(event.Status, event.Location, event.Timestamp)] = struct{}{}
		}
	}

	for i, candidate := range payload.Events {
		if strings.TrimSpace(candidate.Status) == "" {
			r.logger.Warn("Skipping carrier event without status",
				zap.String("container_number", payload.ContainerNumber),
				zap.Int("event_index", i),
			)
			continue
		}

		ts, ok := parseCarrierTime(candidate.Timestamp)
		if !ok {
			ts = r.now()
		}

		sig := signatureOf(candidate.Status, candidate.Location, ts)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}

		description := candidate.Description
		if description == "" {
			if candidate.Actual {
				description = "Carrier confirmed milestone"
			} else {
				description = "Projected milestone from carrier"
			}
		}

		result.EventsToAppend = append(result.EventsToAppend, TrackingEvent{
			ID:          uuid.NewString(),
			Status:      candidate.Status,
			Location:    candidate.Location,
			Timestamp:   ts,
			Description: description,
			Completed:   candidate.Actual,
		})
	}
}

// fallbackEvent synthesizes the single event recorded when neither stored
// history nor the carrier payload contain any milestones.
func (r *Reconciler) fallbackEvent(payload *carriers.Payload, existing *ShipmentState, result *ReconciliationResult) TrackingEvent {
	location := result.NextCurrentLocation
	if location == "" {
		location = payload.Origin
	}
	if location == "" && existing != nil {
		location = existing.Origin
	}

	return TrackingEvent{
		ID:          uuid.NewString(),
		Status:      result.NextStatus.Metadata().Label,
		Location:    location,
		Timestamp:   r.now(),
		Description: "Shipment registered for tracking",
		Completed:   result.NextStatus != StatusPending,
	}
}

// parseCarrierTime parses a carrier-supplied timestamp, trying the accepted
// layouts in order. Carrier times without a zone are taken as UTC.
func parseCarrierTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range carrierTimeLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
