package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shipment-tracker/internal/core/logger"
	"shipment-tracker/internal/core/proxy"
	"shipment-tracker/internal/features/carriers/domain"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

// HarborlineAdapter handles tracking for the Harborline portal via scraping.
// Harborline exposes no public API; the portal's own XHR endpoint is
// intercepted through browser automation instead.
type HarborlineAdapter struct {
	baseURL string
	proxy   proxy.Settings
	logger  *zap.Logger
}

// Milestone codes Harborline is known to emit. Unknown codes still flow
// through as free-text candidates, they are just logged for triage.
var harborlineKnownCodes = map[string]bool{
	"GATE_IN":    true,
	"GATE_OUT":   true,
	"LOADED":     true,
	"DISCHARGED": true,
	"VSL_DEP":    true,
	"VSL_ARR":    true,
	"CUSTOMS":    true,
	"DELIVERED":  true,
}

// NewHarborlineAdapter creates a new HarborlineAdapter with the given base URL
// and proxy settings.
func NewHarborlineAdapter(baseURL string, proxySettings proxy.Settings) *HarborlineAdapter {
	return &HarborlineAdapter{
		baseURL: baseURL,
		proxy:   proxySettings,
		logger:  logger.Get(),
	}
}

// harborlineResponse represents the JSON structure returned by the portal's
// internal tracking endpoint.
type harborlineResponse struct {
	Container string `json:"container"`
	Status    string `json:"status"`
	Pol       string `json:"pol"`
	Pod       string `json:"pod"`
	Position  string `json:"position"`
	ETA       string `json:"eta"`
	Events    []struct {
		Code      string `json:"code"`
		Label     string `json:"label"`
		Place     string `json:"place"`
		Date      string `json:"date"`
		Estimated bool   `json:"estimated"`
	} `json:"events"`
}

// FetchTracking retrieves tracking data from Harborline using browser automation.
func (a *HarborlineAdapter) FetchTracking(ctx context.Context, containerNumber string) (*domain.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	pageURL := fmt.Sprintf("%s?container=%s", a.baseURL, containerNumber)
	if strings.Contains(a.baseURL, "%s") {
		pageURL = fmt.Sprintf(a.baseURL, containerNumber)
	}

	a.logger.Debug("Launching browser...",
		zap.Bool("proxy_enabled", a.proxy.HasProxy()),
		zap.String("proxy_host", a.proxy.HostPort()),
	)

	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)

	if a.proxy.HasProxy() {
		l = l.Proxy(a.proxy.HostPort())
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().Context(ctx).ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	if a.proxy.HasProxy() && a.proxy.Username != "" && a.proxy.Password != "" {
		go browser.MustHandleAuth(a.proxy.Username, a.proxy.Password)()
	}

	page := browser.MustPage(pageURL)

	router := page.HijackRequests()
	defer router.MustStop()

	done := make(chan []byte)

	router.MustAdd("*/api/portal/v1/container-status*", func(hctx *rod.Hijack) {
		if err := hctx.LoadResponse(http.DefaultClient, true); err != nil {
			return
		}
		done <- []byte(hctx.Response.Body())
	})

	go router.Run()

	select {
	case body := <-done:
		var raw harborlineResponse
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse carrier response: %w", err)
		}
		return a.mapToDomain(raw), nil

	case <-ctx.Done():
		return nil, fmt.Errorf("timeout waiting for carrier response: %w", ctx.Err())
	}
}

// mapToDomain converts a Harborline response to the domain payload.
func (a *HarborlineAdapter) mapToDomain(raw harborlineResponse) *domain.Payload {
	payload := &domain.Payload{
		ContainerNumber:  strings.TrimSpace(raw.Container),
		ShipmentStatus:   raw.Status,
		Origin:           raw.Pol,
		Destination:      raw.Pod,
		CurrentLocation:  raw.Position,
		EstimatedArrival: raw.ETA,
		Events:           make([]domain.EventCandidate, 0, len(raw.Events)),
	}

	for _, event := range raw.Events {
		if !harborlineKnownCodes[event.Code] {
			a.logger.Warn("Unknown Harborline milestone code encountered",
				zap.String("code", event.Code),
				zap.String("label", event.Label),
			)
		}

		status := event.Label
		if status == "" {
			status = event.Code
		}

		payload.Events = append(payload.Events, domain.EventCandidate{
			Status:    status,
			Location:  event.Place,
			Timestamp: event.Date,
			Actual:    !event.Estimated,
		})
	}

	return payload
}

// SupportsCarrier returns true if this adapter supports harborline.
func (a *HarborlineAdapter) SupportsCarrier(carrierName string) bool {
	return carrierName == "harborline"
}
