package service

import (
	"context"
	"errors"
	"fmt"

	"shipment-tracker/internal/core/logger"
	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"

	"go.uber.org/zap"
)

var (
	// ErrShipmentNotFound is returned when no shipment matches the tracking number.
	ErrShipmentNotFound = errors.New("shipment not found")
	// ErrShipmentExists is returned when creating a shipment that is already tracked.
	ErrShipmentExists = errors.New("shipment already tracked")
	// ErrNoTrackingData is returned when the carrier produced no usable payload
	// for the tracking number.
	ErrNoTrackingData = errors.New("no data returned for that tracking number")
	// ErrInvalidProgress is returned for override values outside [0, 100].
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
)

// ShipmentService orchestrates shipment lifecycle operations: creation from a
// carrier lookup, tracking refreshes, and admin edits. All state mutation goes
// through the repository; reconciliation itself is computed in the domain.
type ShipmentService struct {
	repo       ports.ShipmentRepository
	fetcher    ports.TrackingFetcher
	reconciler *domain.Reconciler
	logger     *zap.Logger
}

// NewShipmentService creates a ShipmentService with the given collaborators.
func NewShipmentService(repo ports.ShipmentRepository, fetcher ports.TrackingFetcher, reconciler *domain.Reconciler) *ShipmentService {
	return &ShipmentService{
		repo:       repo,
		fetcher:    fetcher,
		reconciler: reconciler,
		logger:     logger.Get(),
	}
}

// CreateShipment registers a new shipment from a carrier lookup: it fetches
// the tracking payload, reconciles it in CREATE mode, and persists the result
// with its seeded events.
func (s *ShipmentService) CreateShipment(ctx context.Context, carrier, trackingNumber, origin, destination string) (*domain.ShipmentState, error) {
	existing, err := s.repo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("check existing shipment: %w", err)
	}
	if existing != nil {
		return nil, ErrShipmentExists
	}

	payload, err := s.fetcher.FetchTracking(ctx, carrier, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch tracking from carrier: %w", err)
	}

	result, err := s.reconciler.Reconcile(payload, nil, domain.ModeCreate)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPayload) {
			return nil, ErrNoTrackingData
		}
		return nil, fmt.Errorf("reconcile carrier payload: %w", err)
	}

	state := &domain.ShipmentState{
		TrackingNumber:    trackingNumber,
		Carrier:           carrier,
		Origin:            firstNonEmpty(origin, payload.Origin),
		Destination:       firstNonEmpty(destination, payload.Destination),
		CurrentLocation:   result.NextCurrentLocation,
		Status:            result.NextStatus,
		Progress:          result.NextProgress,
		EstimatedDelivery: result.NextEstimatedDelivery,
		Events:            result.EventsToAppend,
	}

	if err := s.repo.Create(ctx, state); err != nil {
		return nil, fmt.Errorf("persist shipment: %w", err)
	}

	s.logger.Info("Shipment registered",
		zap.String("tracking_number", trackingNumber),
		zap.String("carrier", carrier),
		zap.String("status", string(state.Status)),
		zap.Int("seeded_events", len(state.Events)),
	)

	return state, nil
}

// RefreshTracking re-fetches carrier data for an existing shipment and merges
// it into stored state. The repository applies the result under a row lock, so
// concurrent refreshes of one shipment serialize rather than racing.
func (s *ShipmentService) RefreshTracking(ctx context.Context, trackingNumber string) (*domain.ShipmentState, error) {
	state, err := s.repo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("load shipment: %w", err)
	}
	if state == nil {
		return nil, ErrShipmentNotFound
	}

	payload, err := s.fetcher.FetchTracking(ctx, state.Carrier, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch tracking from carrier: %w", err)
	}

	result, err := s.reconciler.Reconcile(payload, state, domain.ModeUpdate)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPayload) {
			return nil, ErrNoTrackingData
		}
		return nil, fmt.Errorf("reconcile carrier payload: %w", err)
	}

	if err := s.repo.ApplyReconciliation(ctx, trackingNumber, result); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrShipmentNotFound
		}
		return nil, fmt.Errorf("apply reconciliation: %w", err)
	}

	s.logger.Info("Shipment tracking refreshed",
		zap.String("tracking_number", trackingNumber),
		zap.String("status", string(result.NextStatus)),
		zap.Int("progress", result.NextProgress),
		zap.Int("new_events", len(result.EventsToAppend)),
	)

	return s.getExisting(ctx, trackingNumber)
}

// GetShipment returns one shipment with its full event history.
func (s *ShipmentService) GetShipment(ctx context.Context, trackingNumber string) (*domain.ShipmentState, error) {
	return s.getExisting(ctx, trackingNumber)
}

// ListShipments returns all shipments, newest first.
func (s *ShipmentService) ListShipments(ctx context.Context) ([]*domain.ShipmentState, error) {
	shipments, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	return shipments, nil
}

// OverrideProgress sets progress explicitly. This is the only path allowed to
// regress progress, and it is reserved for admin correction of erroneous
// carrier reports.
func (s *ShipmentService) OverrideProgress(ctx context.Context, trackingNumber string, progress int) (*domain.ShipmentState, error) {
	if progress < 0 || progress > 100 {
		return nil, ErrInvalidProgress
	}

	if err := s.repo.OverrideProgress(ctx, trackingNumber, progress); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrShipmentNotFound
		}
		return nil, fmt.Errorf("override progress: %w", err)
	}

	s.logger.Info("Shipment progress overridden",
		zap.String("tracking_number", trackingNumber),
		zap.Int("progress", progress),
	)

	return s.getExisting(ctx, trackingNumber)
}

// DeleteShipment removes a shipment and its event history.
func (s *ShipmentService) DeleteShipment(ctx context.Context, trackingNumber string) error {
	if err := s.repo.Delete(ctx, trackingNumber); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrShipmentNotFound
		}
		return fmt.Errorf("delete shipment: %w", err)
	}
	return nil
}

func (s *ShipmentService) getExisting(ctx context.Context, trackingNumber string) (*domain.ShipmentState, error) {
	state, err := s.repo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("load shipment: %w", err)
	}
	if state == nil {
		return nil, ErrShipmentNotFound
	}
	return state, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
