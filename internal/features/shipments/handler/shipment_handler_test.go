package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	carriers "shipment-tracker/internal/features/carriers/domain"
	carrierservice "shipment-tracker/internal/features/carriers/service"
	"shipment-tracker/internal/features/shipments/domain"
	"shipment-tracker/internal/features/shipments/ports"
	"shipment-tracker/internal/features/shipments/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockShipmentRepository is an in-memory ShipmentRepository for handler tests.
type mockShipmentRepository struct {
	shipments map[string]*domain.ShipmentState
}

func newMockRepository() *mockShipmentRepository {
	return &mockShipmentRepository{shipments: make(map[string]*domain.ShipmentState)}
}

func (m *mockShipmentRepository) Create(_ context.Context, state *domain.ShipmentState) error {
	state.ID = int64(len(m.shipments) + 1)
	copied := *state
	m.shipments[state.TrackingNumber] = &copied
	return nil
}

func (m *mockShipmentRepository) GetByTrackingNumber(_ context.Context, trackingNumber string) (*domain.ShipmentState, error) {
	state, ok := m.shipments[trackingNumber]
	if !ok {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

func (m *mockShipmentRepository) List(_ context.Context) ([]*domain.ShipmentState, error) {
	var out []*domain.ShipmentState
	for _, s := range m.shipments {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockShipmentRepository) ApplyReconciliation(_ context.Context, trackingNumber string, result *domain.ReconciliationResult) error {
	state, ok := m.shipments[trackingNumber]
	if !ok {
		return ports.ErrNotFound
	}
	state.Status = result.NextStatus
	if result.NextProgress > state.Progress {
		state.Progress = result.NextProgress
	}
	state.Events = append(state.Events, result.EventsToAppend...)
	return nil
}

func (m *mockShipmentRepository) OverrideProgress(_ context.Context, trackingNumber string, progress int) error {
	state, ok := m.shipments[trackingNumber]
	if !ok {
		return ports.ErrNotFound
	}
	state.Progress = progress
	return nil
}

func (m *mockShipmentRepository) Delete(_ context.Context, trackingNumber string) error {
	if _, ok := m.shipments[trackingNumber]; !ok {
		return ports.ErrNotFound
	}
	delete(m.shipments, trackingNumber)
	return nil
}

// mockTrackingFetcher returns a canned carrier payload.
type mockTrackingFetcher struct {
	payload *carriers.Payload
	err     error
}

func (m *mockTrackingFetcher) FetchTracking(_ context.Context, carrier, containerNumber string) (*carriers.Payload, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.payload, nil
}

func intPtr(v int) *int { return &v }

func newTestApp(repo ports.ShipmentRepository, fetcher ports.TrackingFetcher) *fiber.App {
	clock := func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	svc := service.NewShipmentService(repo, fetcher, domain.NewReconciler(clock))
	h := NewShipmentHandler(svc)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	app.Post("/shipments", h.CreateShipment)
	app.Get("/shipments", h.ListShipments)
	app.Get("/shipments/:number", h.GetShipment)
	app.Post("/shipments/:number/refresh", h.RefreshTracking)
	app.Patch("/shipments/:number/progress", h.OverrideProgress)
	app.Delete("/shipments/:number", h.DeleteShipment)
	return app
}

// TestShipmentHandler_CreateShipment verifies the happy path returns 201 with
// the persisted state.
func TestShipmentHandler_CreateShipment(t *testing.T) {
	fetcher := &mockTrackingFetcher{
		payload: &carriers.Payload{
			ContainerNumber: "MSCU1234567",
			ShipmentStatus:  "IN_TRANSIT",
			Progress:        intPtr(35),
			Events: []carriers.EventCandidate{
				{Status: "Picked up", Location: "LA", Actual: true, Timestamp: "2024-01-01T10:00:00Z"},
			},
		},
	}
	app := newTestApp(newMockRepository(), fetcher)

	body, _ := json.Marshal(CreateShipmentRequest{TrackingNumber: "MSCU1234567", Carrier: "oceanic"})
	req := httptest.NewRequest("POST", "/shipments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var state domain.ShipmentState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, domain.StatusInTransit, state.Status)
	assert.Equal(t, 35, state.Progress)
	assert.Len(t, state.Events, 1)
}

// TestShipmentHandler_CreateShipment_Validation verifies missing fields are
// rejected with 400.
func TestShipmentHandler_CreateShipment_Validation(t *testing.T) {
	app := newTestApp(newMockRepository(), &mockTrackingFetcher{})

	body, _ := json.Marshal(CreateShipmentRequest{Carrier: "oceanic"})
	req := httptest.NewRequest("POST", "/shipments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Contains(t, errResp.Message, "tracking_number")
	assert.Equal(t, "test-ray-id", errResp.RayID)
}

// TestShipmentHandler_CreateShipment_NoTrackingData verifies the actionable
// 404 when the carrier returned nothing usable.
func TestShipmentHandler_CreateShipment_NoTrackingData(t *testing.T) {
	app := newTestApp(newMockRepository(), &mockTrackingFetcher{payload: &carriers.Payload{}})

	body, _ := json.Marshal(CreateShipmentRequest{TrackingNumber: "MSCU1234567", Carrier: "oceanic"})
	req := httptest.NewRequest("POST", "/shipments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Contains(t, errResp.Message, "no data returned")
}

// TestShipmentHandler_CreateShipment_CarrierNotSupported verifies that naming
// an unknown carrier is a client error, not a 500.
func TestShipmentHandler_CreateShipment_CarrierNotSupported(t *testing.T) {
	app := newTestApp(newMockRepository(), &mockTrackingFetcher{err: carrierservice.ErrCarrierNotSupported})

	body, _ := json.Marshal(CreateShipmentRequest{TrackingNumber: "MSCU1234567", Carrier: "pigeon-post"})
	req := httptest.NewRequest("POST", "/shipments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "carrier not supported", errResp.Message)
}

// TestShipmentHandler_RefreshTracking_CarrierNotSupported verifies the same
// mapping on the refresh path, where the carrier comes from stored state.
func TestShipmentHandler_RefreshTracking_CarrierNotSupported(t *testing.T) {
	repo := newMockRepository()
	repo.shipments["MSCU1234567"] = &domain.ShipmentState{
		TrackingNumber: "MSCU1234567",
		Carrier:        "pigeon-post",
		Status:         domain.StatusInTransit,
	}
	app := newTestApp(repo, &mockTrackingFetcher{err: carrierservice.ErrCarrierNotSupported})

	resp, err := app.Test(httptest.NewRequest("POST", "/shipments/MSCU1234567/refresh", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// TestShipmentHandler_GetShipment_NotFound verifies the 404 path.
func TestShipmentHandler_GetShipment_NotFound(t *testing.T) {
	app := newTestApp(newMockRepository(), &mockTrackingFetcher{})

	resp, err := app.Test(httptest.NewRequest("GET", "/shipments/UNKNOWN", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// TestShipmentHandler_RefreshTracking verifies a refresh merges carrier data
// and returns the updated state.
func TestShipmentHandler_RefreshTracking(t *testing.T) {
	repo := newMockRepository()
	repo.shipments["MSCU1234567"] = &domain.ShipmentState{
		TrackingNumber: "MSCU1234567",
		Carrier:        "oceanic",
		Status:         domain.StatusInTransit,
		Progress:       40,
	}
	fetcher := &mockTrackingFetcher{
		payload: &carriers.Payload{
			ContainerNumber: "MSCU1234567",
			ShipmentStatus:  "AT_PORT",
			Progress:        intPtr(55),
			Events: []carriers.EventCandidate{
				{Status: "Arrived at port", Location: "Long Beach", Actual: true, Timestamp: "2024-01-03T08:00:00Z"},
			},
		},
	}
	app := newTestApp(repo, fetcher)

	resp, err := app.Test(httptest.NewRequest("POST", "/shipments/MSCU1234567/refresh", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var state domain.ShipmentState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, domain.StatusAtPort, state.Status)
	assert.Equal(t, 55, state.Progress)
	assert.Len(t, state.Events, 1)
}

// TestShipmentHandler_OverrideProgress verifies the admin override endpoint.
func TestShipmentHandler_OverrideProgress(t *testing.T) {
	repo := newMockRepository()
	repo.shipments["MSCU1234567"] = &domain.ShipmentState{
		TrackingNumber: "MSCU1234567",
		Status:         domain.StatusInTransit,
		Progress:       70,
	}
	app := newTestApp(repo, &mockTrackingFetcher{})

	body, _ := json.Marshal(OverrideProgressRequest{Progress: 50})
	req := httptest.NewRequest("PATCH", "/shipments/MSCU1234567/progress", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var state domain.ShipmentState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, 50, state.Progress)

	body, _ = json.Marshal(OverrideProgressRequest{Progress: 130})
	req = httptest.NewRequest("PATCH", "/shipments/MSCU1234567/progress", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// TestShipmentHandler_DeleteShipment verifies deletion returns 204 and a
// second delete 404s.
func TestShipmentHandler_DeleteShipment(t *testing.T) {
	repo := newMockRepository()
	repo.shipments["MSCU1234567"] = &domain.ShipmentState{TrackingNumber: "MSCU1234567"}
	app := newTestApp(repo, &mockTrackingFetcher{})

	resp, err := app.Test(httptest.NewRequest("DELETE", "/shipments/MSCU1234567", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/shipments/MSCU1234567", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
