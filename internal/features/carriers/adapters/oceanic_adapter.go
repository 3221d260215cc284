package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shipment-tracker/internal/core/config"
	"shipment-tracker/internal/core/httpclient"
	"shipment-tracker/internal/core/logger"
	"shipment-tracker/internal/features/carriers/domain"

	"go.uber.org/zap"
)

// OceanicAdapter implements the CarrierProvider interface against the Oceanic
// Line REST tracking API.
type OceanicAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// config holds the Oceanic connection details.
	config config.OceanicConfig
	logger *zap.Logger
}

// NewOceanicAdapter creates a new instance of OceanicAdapter.
func NewOceanicAdapter(cfg config.OceanicConfig) *OceanicAdapter {
	return &OceanicAdapter{
		client: httpclient.NewClient(10 * time.Second),
		config: cfg,
		logger: logger.Get(),
	}
}

// oceanicResponse represents the JSON structure from the Oceanic API. The
// schema is externally versioned; fields are coerced into the domain payload
// at this boundary and never propagated further.
type oceanicResponse struct {
	ContainerNumber string `json:"container_number"`
	Status          string `json:"status"`
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	CurrentLocation string `json:"current_location"`
	ETA             string `json:"eta"`
	Progress        *int   `json:"progress"`
	Milestones      []struct {
		Status      string `json:"status"`
		Location    string `json:"location"`
		Timestamp   string `json:"timestamp"`
		Description string `json:"description"`
		Actual      bool   `json:"is_actual"`
	} `json:"milestones"`
}

// FetchTracking fetches tracking data from Oceanic and maps it to the domain payload.
func (a *OceanicAdapter) FetchTracking(ctx context.Context, containerNumber string) (*domain.Payload, error) {
	endpoint := fmt.Sprintf("%s/api/v2/tracking/%s", a.config.URL, url.PathEscape(containerNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	credentials := fmt.Sprintf("%s:%s", a.config.AccessKey, a.config.AccessSecret)
	req.Header.Add("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(credentials)))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("container not found: %s", containerNumber)
		}
		return nil, fmt.Errorf("oceanic API returned status: %d", resp.StatusCode)
	}

	var raw oceanicResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return a.mapToDomain(raw), nil
}

// mapToDomain converts a raw Oceanic response into a domain payload.
// Milestones without a status are dropped here with a warning; the carrier
// occasionally pads its history with placeholder rows.
func (a *OceanicAdapter) mapToDomain(raw oceanicResponse) *domain.Payload {
	payload := &domain.Payload{
		ContainerNumber:  strings.TrimSpace(raw.ContainerNumber),
		ShipmentStatus:   raw.Status,
		Origin:           raw.Origin,
		Destination:      raw.Destination,
		CurrentLocation:  raw.CurrentLocation,
		EstimatedArrival: raw.ETA,
		Progress:         raw.Progress,
		Events:           make([]domain.EventCandidate, 0, len(raw.Milestones)),
	}

	for _, m := range raw.Milestones {
		if strings.TrimSpace(m.Status) == "" {
			a.logger.Warn("Dropping Oceanic milestone without status",
				zap.String("container_number", payload.ContainerNumber),
				zap.String("location", m.Location),
			)
			continue
		}
		payload.Events = append(payload.Events, domain.EventCandidate{
			Status:      m.Status,
			Location:    m.Location,
			Timestamp:   m.Timestamp,
			Description: m.Description,
			Actual:      m.Actual,
		})
	}

	return payload
}

// HealthCheck verifies that the Oceanic API is reachable and credentials are valid.
func (a *OceanicAdapter) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/api/v2/ping", a.config.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("health check failed to create request: %w", err)
	}

	credentials := fmt.Sprintf("%s:%s", a.config.AccessKey, a.config.AccessSecret)
	req.Header.Add("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(credentials)))

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}

	return nil
}

// SupportsCarrier returns true if this adapter supports oceanic.
func (a *OceanicAdapter) SupportsCarrier(carrierName string) bool {
	return carrierName == "oceanic"
}
