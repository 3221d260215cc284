package httpclient

import (
	"net/http"
	"time"

	"shipment-tracker/internal/core/logger"

	"go.uber.org/zap"
)

// LoggingRoundTripper logs the lifecycle of every outbound carrier request.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs method, URL and timing.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	logger.Get().Debug("Outbound request started",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	)

	resp, err := lrt.Proxied.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		logger.Get().Error("Outbound request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		logger.Get().Warn("Outbound request returned server error",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("duration", duration),
		)
		return resp, nil
	}

	logger.Get().Debug("Outbound request completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// NewClient returns an http.Client with logging middleware.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: http.DefaultTransport,
		},
		Timeout: timeout,
	}
}
