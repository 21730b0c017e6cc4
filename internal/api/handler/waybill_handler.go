package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

const maxGenerateCount = 50000

// WaybillHandler exposes the local waybill pool to administrators.
type WaybillHandler struct {
	service  ports.WaybillService
	minStock int
}

// NewWaybillHandler uses minStock when an ensure-stock request names no floor.
func NewWaybillHandler(service ports.WaybillService, minStock int) *WaybillHandler {
	return &WaybillHandler{service: service, minStock: minStock}
}

type generateWaybillsRequest struct {
	Count  int    `json:"count"  validate:"required,gt=0"`
	Source string `json:"source" validate:"omitempty,oneof=bulk single manual"`
}

type reserveWaybillsRequest struct {
	Waybills   []string `json:"waybills"    validate:"required,min=1,dive,required"`
	ReservedBy string   `json:"reserved_by" validate:"required"`
}

type ensureStockRequest struct {
	MinStock int `json:"min_stock" validate:"gte=0"`
}

// Generate handles POST /v1/waybills/generate.
//
// @Summary      Fetch waybills from the carrier into the pool
// @Tags         waybills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      generateWaybillsRequest  true  "Batch size"
// @Success      201   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/waybills/generate [post]
func (h *WaybillHandler) Generate(c echo.Context) error {
	var req generateWaybillsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Count > maxGenerateCount {
		return domain.Errorf(domain.KindValidation, "count must be at most %d", maxGenerateCount).WithField("count")
	}
	source := req.Source
	if source == "" {
		source = domain.WaybillSourceBulk
	}

	result, err := h.service.GenerateAndStore(c.Request().Context(), req.Count, source)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, result)
}

// Stats handles GET /v1/waybills/stats.
//
// @Summary      Pool counts by status and source
// @Tags         waybills
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope
// @Router       /v1/waybills/stats [get]
func (h *WaybillHandler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}

// Available handles GET /v1/waybills/available.
//
// @Summary      Peek at unreserved waybills
// @Tags         waybills
// @Produce      json
// @Security     BearerAuth
// @Param        count   query     int     false  "How many (default 10, max 1000)"
// @Param        source  query     string  false  "Generation source"
// @Success      200     {object}  envelope
// @Router       /v1/waybills/available [get]
func (h *WaybillHandler) Available(c echo.Context) error {
	count := queryInt(c, "count", 10)
	if count < 1 || count > 1000 {
		return domain.NewError(domain.KindValidation, "count must be between 1 and 1000").WithField("count")
	}
	items, err := h.service.GetAvailable(c.Request().Context(), count, c.QueryParam("source"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, items)
}

// Reserve handles POST /v1/waybills/reserve.
//
// @Summary      Reserve specific waybills
// @Tags         waybills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reserveWaybillsRequest  true  "Waybills"
// @Success      200   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Router       /v1/waybills/reserve [post]
func (h *WaybillHandler) Reserve(c echo.Context) error {
	var req reserveWaybillsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.service.Reserve(c.Request().Context(), req.Waybills, req.ReservedBy)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result)
}

// Cancel handles POST /v1/waybills/:waybill/cancel.
//
// @Summary      Retire a waybill
// @Tags         waybills
// @Produce      json
// @Security     BearerAuth
// @Param        waybill  path      string  true  "Waybill"
// @Success      200      {object}  envelope
// @Failure      404      {object}  errorResponse
// @Router       /v1/waybills/{waybill}/cancel [post]
func (h *WaybillHandler) Cancel(c echo.Context) error {
	if err := h.service.Cancel(c.Request().Context(), c.Param("waybill")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Message: "waybill cancelled"})
}

// EnsureStock handles POST /v1/waybills/ensure-stock.
//
// @Summary      Top the pool up to a floor
// @Tags         waybills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      ensureStockRequest  false  "Floor (defaults to configuration)"
// @Success      200   {object}  envelope
// @Router       /v1/waybills/ensure-stock [post]
func (h *WaybillHandler) EnsureStock(c echo.Context) error {
	var req ensureStockRequest
	if c.Request().ContentLength > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}
	floor := req.MinStock
	if floor == 0 {
		floor = h.minStock
	}
	result, err := h.service.EnsureMinimumStock(c.Request().Context(), floor)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result)
}
