package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shipment-tracker/internal/core/cache"
	"shipment-tracker/internal/core/logger"
	"shipment-tracker/internal/features/carriers/domain"
	"shipment-tracker/internal/features/carriers/ports"

	"go.uber.org/zap"
)

// ErrCarrierNotSupported is returned when no provider supports the requested carrier.
var ErrCarrierNotSupported = errors.New("carrier not supported")

// CarrierService orchestrates tracking fetches across multiple carrier
// providers, with a short-lived cache so that repeated refreshes of the same
// container do not hammer carrier portals.
type CarrierService struct {
	providers []ports.CarrierProvider
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewCarrierService creates a new CarrierService with the given providers.
// cache may be nil to disable payload caching.
func NewCarrierService(providers []ports.CarrierProvider, payloadCache cache.Cache, cacheTTL time.Duration) *CarrierService {
	return &CarrierService{
		providers: providers,
		cache:     payloadCache,
		cacheTTL:  cacheTTL,
		logger:    logger.Get(),
	}
}

// FetchTracking retrieves the tracking payload for a container from the named
// carrier, serving from cache when a recent fetch exists.
func (s *CarrierService) FetchTracking(ctx context.Context, carrier, containerNumber string) (*domain.Payload, error) {
	provider := s.providerFor(carrier)
	if provider == nil {
		return nil, ErrCarrierNotSupported
	}

	cacheKey := fmt.Sprintf("carrier_payload:%s:%s", carrier, containerNumber)

	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	payload, err := provider.FetchTracking(ctx, containerNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracking from provider: %w", err)
	}

	s.toCache(ctx, cacheKey, payload)

	return payload, nil
}

func (s *CarrierService) providerFor(carrier string) ports.CarrierProvider {
	for _, provider := range s.providers {
		if provider.SupportsCarrier(carrier) {
			return provider
		}
	}
	return nil
}

// fromCache returns a cached payload, or nil on miss or any cache failure.
// Cache trouble never blocks a live fetch.
func (s *CarrierService) fromCache(ctx context.Context, key string) *domain.Payload {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}

	var payload domain.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.logger.Warn("Discarding unreadable cached carrier payload",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil
	}

	return &payload
}

func (s *CarrierService) toCache(ctx context.Context, key string, payload *domain.Payload) {
	if s.cache == nil || payload == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache carrier payload",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
