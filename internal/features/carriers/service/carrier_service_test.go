package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shipment-tracker/internal/core/cache"
	"shipment-tracker/internal/features/carriers/domain"
	"shipment-tracker/internal/features/carriers/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCarrierProvider is a mock implementation of CarrierProvider for testing.
type mockCarrierProvider struct {
	supportedCarrier string
	returnPayload    *domain.Payload
	returnError      error
	calls            int
}

// FetchTracking implements CarrierProvider.
func (m *mockCarrierProvider) FetchTracking(_ context.Context, containerNumber string) (*domain.Payload, error) {
	m.calls++
	if m.returnError != nil {
		return nil, m.returnError
	}
	return m.returnPayload, nil
}

// SupportsCarrier implements CarrierProvider.
func (m *mockCarrierProvider) SupportsCarrier(carrierName string) bool {
	return carrierName == m.supportedCarrier
}

// TestCarrierService_FetchTracking_Success verifies successful payload retrieval.
func TestCarrierService_FetchTracking_Success(t *testing.T) {
	expected := &domain.Payload{
		ContainerNumber: "MSCU1234567",
		ShipmentStatus:  "IN_TRANSIT",
	}
	provider := &mockCarrierProvider{supportedCarrier: "oceanic", returnPayload: expected}

	svc := NewCarrierService([]ports.CarrierProvider{provider}, nil, 0)

	payload, err := svc.FetchTracking(context.Background(), "oceanic", "MSCU1234567")

	require.NoError(t, err)
	assert.Equal(t, expected, payload)
}

// TestCarrierService_FetchTracking_CarrierNotSupported verifies unsupported
// carrier handling.
func TestCarrierService_FetchTracking_CarrierNotSupported(t *testing.T) {
	provider := &mockCarrierProvider{supportedCarrier: "oceanic"}

	svc := NewCarrierService([]ports.CarrierProvider{provider}, nil, 0)

	payload, err := svc.FetchTracking(context.Background(), "unknown_carrier", "MSCU1234567")

	assert.Nil(t, payload)
	assert.ErrorIs(t, err, ErrCarrierNotSupported)
}

// TestCarrierService_FetchTracking_ProviderError verifies provider error propagation.
func TestCarrierService_FetchTracking_ProviderError(t *testing.T) {
	provider := &mockCarrierProvider{
		supportedCarrier: "oceanic",
		returnError:      errors.New("portal unreachable"),
	}

	svc := NewCarrierService([]ports.CarrierProvider{provider}, nil, 0)

	payload, err := svc.FetchTracking(context.Background(), "oceanic", "MSCU1234567")

	assert.Nil(t, payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch tracking from provider")
}

// TestCarrierService_FetchTracking_MultipleProviders verifies routing to the
// correct provider.
func TestCarrierService_FetchTracking_MultipleProviders(t *testing.T) {
	oceanic := &mockCarrierProvider{
		supportedCarrier: "oceanic",
		returnPayload:    &domain.Payload{ContainerNumber: "A", ShipmentStatus: "AT_PORT"},
	}
	harborline := &mockCarrierProvider{
		supportedCarrier: "harborline",
		returnPayload:    &domain.Payload{ContainerNumber: "B", ShipmentStatus: "DELIVERED"},
	}

	svc := NewCarrierService([]ports.CarrierProvider{oceanic, harborline}, nil, 0)

	payload, err := svc.FetchTracking(context.Background(), "harborline", "B")

	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", payload.ShipmentStatus)
	assert.Zero(t, oceanic.calls)
}

// TestCarrierService_FetchTracking_CachesPayload verifies that a second fetch
// within the TTL is served from cache without hitting the provider.
func TestCarrierService_FetchTracking_CachesPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	payloadCache, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	defer payloadCache.Close()

	provider := &mockCarrierProvider{
		supportedCarrier: "oceanic",
		returnPayload:    &domain.Payload{ContainerNumber: "MSCU1234567", ShipmentStatus: "AT_PORT"},
	}

	svc := NewCarrierService([]ports.CarrierProvider{provider}, payloadCache, time.Minute)

	first, err := svc.FetchTracking(context.Background(), "oceanic", "MSCU1234567")
	require.NoError(t, err)

	second, err := svc.FetchTracking(context.Background(), "oceanic", "MSCU1234567")
	require.NoError(t, err)

	assert.Equal(t, first.ShipmentStatus, second.ShipmentStatus)
	assert.Equal(t, 1, provider.calls)
}

// TestCarrierService_FetchTracking_CacheExpiry verifies the provider is hit
// again after the cached payload expires.
func TestCarrierService_FetchTracking_CacheExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	payloadCache, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	defer payloadCache.Close()

	provider := &mockCarrierProvider{
		supportedCarrier: "oceanic",
		returnPayload:    &domain.Payload{ContainerNumber: "MSCU1234567"},
	}

	svc := NewCarrierService([]ports.CarrierProvider{provider}, payloadCache, time.Second)

	_, err = svc.FetchTracking(context.Background(), "oceanic", "MSCU1234567")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = svc.FetchTracking(context.Background(), "oceanic", "MSCU1234567")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}
