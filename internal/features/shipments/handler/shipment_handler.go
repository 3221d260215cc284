package handler

import (
	"errors"

	carrierservice "shipment-tracker/internal/features/carriers/service"
	"shipment-tracker/internal/features/shipments/service"

	"github.com/gofiber/fiber/v2"
)

// ShipmentHandler handles HTTP requests for shipment operations.
type ShipmentHandler struct {
	shipmentService *service.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler.
func NewShipmentHandler(shipmentService *service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{
		shipmentService: shipmentService,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// CreateShipmentRequest is the body for registering a shipment.
type CreateShipmentRequest struct {
	// TrackingNumber is the carrier tracking/container number.
	TrackingNumber string `json:"tracking_number"`
	// Carrier is the carrier name (e.g., oceanic, harborline).
	Carrier string `json:"carrier"`
	// Origin optionally overrides the carrier-reported origin.
	Origin string `json:"origin,omitempty"`
	// Destination optionally overrides the carrier-reported destination.
	Destination string `json:"destination,omitempty"`
}

// OverrideProgressRequest is the body for an explicit progress override.
type OverrideProgressRequest struct {
	// Progress is the progress percentage to set, in [0, 100].
	Progress int `json:"progress"`
}

// CreateShipment godoc
// @Summary Register a shipment from a carrier lookup
// @Description Fetches tracking data for the given number and creates the shipment with its initial event history
// @Tags shipments
// @Accept json
// @Produce json
// @Param request body CreateShipmentRequest true "Shipment registration"
// @Success 201 {object} domain.ShipmentState
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /shipments [post]
func (h *ShipmentHandler) CreateShipment(c *fiber.Ctx) error {
	var req CreateShipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.TrackingNumber == "" {
		return h.respondError(c, fiber.StatusBadRequest, "tracking_number is required")
	}
	if req.Carrier == "" {
		return h.respondError(c, fiber.StatusBadRequest, "carrier is required")
	}

	state, err := h.shipmentService.CreateShipment(c.Context(), req.Carrier, req.TrackingNumber, req.Origin, req.Destination)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShipmentExists):
			return h.respondError(c, fiber.StatusConflict, "shipment already tracked")
		case errors.Is(err, carrierservice.ErrCarrierNotSupported):
			return h.respondError(c, fiber.StatusBadRequest, "carrier not supported")
		case errors.Is(err, service.ErrNoTrackingData):
			return h.respondError(c, fiber.StatusNotFound, service.ErrNoTrackingData.Error())
		default:
			return h.respondError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(fiber.StatusCreated).JSON(state)
}

// GetShipment godoc
// @Summary Get one shipment
// @Description Returns a shipment with its full event history, newest state first
// @Tags shipments
// @Produce json
// @Param number path string true "Tracking Number"
// @Success 200 {object} domain.ShipmentState
// @Failure 404 {object} ErrorResponse
// @Router /shipments/{number} [get]
func (h *ShipmentHandler) GetShipment(c *fiber.Ctx) error {
	state, err := h.shipmentService.GetShipment(c.Context(), c.Params("number"))
	if err != nil {
		if errors.Is(err, service.ErrShipmentNotFound) {
			return h.respondError(c, fiber.StatusNotFound, "shipment not found")
		}
		return h.respondError(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(state)
}

// ListShipments godoc
// @Summary List shipments
// @Description Returns all tracked shipments, newest first, without event history
// @Tags shipments
// @Produce json
// @Success 200 {array} domain.ShipmentState
// @Router /shipments [get]
func (h *ShipmentHandler) ListShipments(c *fiber.Ctx) error {
	shipments, err := h.shipmentService.ListShipments(c.Context())
	if err != nil {
		return h.respondError(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(shipments)
}

// RefreshTracking godoc
// @Summary Refresh tracking for a shipment
// @Description Fetches the latest carrier data and merges it into stored state without losing history
// @Tags shipments
// @Produce json
// @Param number path string true "Tracking Number"
// @Success 200 {object} domain.ShipmentState
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /shipments/{number}/refresh [post]
func (h *ShipmentHandler) RefreshTracking(c *fiber.Ctx) error {
	state, err := h.shipmentService.RefreshTracking(c.Context(), c.Params("number"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShipmentNotFound):
			return h.respondError(c, fiber.StatusNotFound, "shipment not found")
		case errors.Is(err, carrierservice.ErrCarrierNotSupported):
			return h.respondError(c, fiber.StatusBadRequest, "carrier not supported")
		case errors.Is(err, service.ErrNoTrackingData):
			return h.respondError(c, fiber.StatusNotFound, service.ErrNoTrackingData.Error())
		default:
			return h.respondError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(state)
}

// OverrideProgress godoc
// @Summary Override shipment progress
// @Description Sets progress explicitly, the only path allowed to regress it
// @Tags shipments
// @Accept json
// @Produce json
// @Param number path string true "Tracking Number"
// @Param request body OverrideProgressRequest true "Progress override"
// @Success 200 {object} domain.ShipmentState
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /shipments/{number}/progress [patch]
func (h *ShipmentHandler) OverrideProgress(c *fiber.Ctx) error {
	var req OverrideProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	state, err := h.shipmentService.OverrideProgress(c.Context(), c.Params("number"), req.Progress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProgress):
			return h.respondError(c, fiber.StatusBadRequest, service.ErrInvalidProgress.Error())
		case errors.Is(err, service.ErrShipmentNotFound):
			return h.respondError(c, fiber.StatusNotFound, "shipment not found")
		default:
			return h.respondError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(state)
}

// DeleteShipment godoc
// @Summary Delete a shipment
// @Description Removes a shipment and all of its tracking events
// @Tags shipments
// @Param number path string true "Tracking Number"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /shipments/{number} [delete]
func (h *ShipmentHandler) DeleteShipment(c *fiber.Ctx) error {
	if err := h.shipmentService.DeleteShipment(c.Context(), c.Params("number")); err != nil {
		if errors.Is(err, service.ErrShipmentNotFound) {
			return h.respondError(c, fiber.StatusNotFound, "shipment not found")
		}
		return h.respondError(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ShipmentHandler) respondError(c *fiber.Ctx, status int, message string) error {
	rayID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(ErrorResponse{
		Message: message,
		RayID:   rayID,
	})
}
