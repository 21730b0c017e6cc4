package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

// WarehouseHandler serves pickup locations.
type WarehouseHandler struct {
	service ports.WarehouseService
}

func NewWarehouseHandler(service ports.WarehouseService) *WarehouseHandler {
	return &WarehouseHandler{service: service}
}

type registerWarehouseRequest struct {
	Name          string `json:"name"           validate:"required"`
	Email         string `json:"email"          validate:"omitempty,email"`
	Phone         string `json:"phone"          validate:"required"`
	Address       string `json:"address"        validate:"required"`
	City          string `json:"city"           validate:"required"`
	State         string `json:"state"`
	Pin           string `json:"pin"            validate:"required,len=6,numeric"`
	Country       string `json:"country"`
	ReturnAddress string `json:"return_address"`
	ReturnPin     string `json:"return_pin"     validate:"omitempty,len=6,numeric"`
	ReturnCity    string `json:"return_city"`
	ReturnState   string `json:"return_state"`
	ReturnCountry string `json:"return_country"`
	IsDefault     bool   `json:"is_default"`
}

type updateWarehouseRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Pin     string `json:"pin"   validate:"omitempty,len=6,numeric"`
	Phone   string `json:"phone"`
}

type warehouseListResponse struct {
	Warehouses []domain.Warehouse      `json:"warehouses"`
	Source     domain.WarehouseSource `json:"source"`
}

// List handles GET /v1/warehouses.
//
// @Summary      Active pickup locations
// @Description  Local records first, then the carrier's list, then the configured default.
// @Tags         warehouses
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope
// @Router       /v1/warehouses [get]
func (h *WarehouseHandler) List(c echo.Context) error {
	listing, err := h.service.ActiveWarehouses(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, warehouseListResponse{Warehouses: listing.Warehouses, Source: listing.Source})
}

// Get handles GET /v1/warehouses/:name.
//
// @Summary      Resolve a pickup location by name
// @Tags         warehouses
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string  true  "Warehouse name (case-sensitive)"
// @Success      200   {object}  envelope
// @Failure      404   {object}  errorResponse
// @Router       /v1/warehouses/{name} [get]
func (h *WarehouseHandler) Get(c echo.Context) error {
	w, err := h.service.GetWarehouseByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, w)
}

// Register handles POST /v1/warehouses.
//
// @Summary      Register a pickup location with the carrier
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerWarehouseRequest  true  "Warehouse"
// @Success      201   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/warehouses [post]
func (h *WarehouseHandler) Register(c echo.Context) error {
	var req registerWarehouseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	w, err := h.service.Register(c.Request().Context(), ports.RegisterWarehouseInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Pin:           req.Pin,
		Country:       req.Country,
		ReturnAddress: req.ReturnAddress,
		ReturnPin:     req.ReturnPin,
		ReturnCity:    req.ReturnCity,
		ReturnState:   req.ReturnState,
		ReturnCountry: req.ReturnCountry,
		IsDefault:     req.IsDefault,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, w)
}

// Update handles PATCH /v1/warehouses/:name.
//
// @Summary      Change address, pin or phone
// @Description  The name is the carrier's key and cannot be changed.
// @Tags         warehouses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string                  true  "Warehouse name"
// @Param        body  body      updateWarehouseRequest  true  "Contact fields"
// @Success      200   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/warehouses/{name} [patch]
func (h *WarehouseHandler) Update(c echo.Context) error {
	var req updateWarehouseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	name := c.Param("name")
	if req.Name != "" && req.Name != name {
		return domain.NewError(domain.KindValidation, "warehouse name cannot be changed").
			WithField("name").
			WithSuggestion("register a new warehouse instead")
	}

	w, err := h.service.Update(c.Request().Context(), name, domain.WarehouseContactUpdate{
		Address: req.Address,
		Pin:     req.Pin,
		Phone:   req.Phone,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, w)
}
