package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/logistics/internal/core/ports"
)

const maxBatchSize = 500

// EventDispatcher is the interface the handler uses to enqueue scans.
type EventDispatcher interface {
	Enqueue(ctx context.Context, event ports.ScanEventInput) error
	EnqueueBatch(ctx context.Context, events []ports.ScanEventInput) (int, error)
}

// EventHandler accepts carrier scan pushes and applies them asynchronously.
type EventHandler struct {
	dispatcher EventDispatcher
}

// NewEventHandler creates an EventHandler backed by the given dispatcher.
func NewEventHandler(dispatcher EventDispatcher) *EventHandler {
	return &EventHandler{dispatcher: dispatcher}
}

type scanEventRequest struct {
	Waybill   string    `json:"waybill"   validate:"required"`
	Status    string    `json:"status"    validate:"required"`
	Location  string    `json:"location"`
	Remarks   string    `json:"remarks"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

type acceptedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// Receive handles POST /v1/events.
//
// @Summary      Ingest a single carrier scan
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      scanEventRequest  true  "Scan"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/events [post]
func (h *EventHandler) Receive(c echo.Context) error {
	var req scanEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.dispatcher.Enqueue(c.Request().Context(), toScanInput(req)); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "event queue unavailable")
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Success: true, Message: "event accepted"})
}

// ReceiveBatch handles POST /v1/events/batch.
//
// @Summary      Ingest a batch of carrier scans
// @Description  Scans are applied in array order per waybill.
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      []scanEventRequest  true  "Scans"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/events/batch [post]
func (h *EventHandler) ReceiveBatch(c echo.Context) error {
	var reqs []scanEventRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}
	if len(reqs) > maxBatchSize {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("batch cannot exceed %d events", maxBatchSize))
	}

	inputs := make([]ports.ScanEventInput, 0, len(reqs))
	for i, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("event[%d]: %s", i, err.Error()))
		}
		inputs = append(inputs, toScanInput(req))
	}

	n, err := h.dispatcher.EnqueueBatch(c.Request().Context(), inputs)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, fmt.Sprintf("event queue unavailable after %d events", n))
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{
		Success: true,
		Message: "events accepted",
		Count:   n,
	})
}

// toScanInput maps the HTTP request to the service DTO.
func toScanInput(r scanEventRequest) ports.ScanEventInput {
	source := strings.TrimSpace(r.Source)
	if source == "" {
		source = "webhook"
	}
	return ports.ScanEventInput{
		Waybill:   strings.TrimSpace(r.Waybill),
		Status:    strings.TrimSpace(r.Status),
		Location:  r.Location,
		Remarks:   r.Remarks,
		Timestamp: r.Timestamp,
		Source:    source,
	}
}
