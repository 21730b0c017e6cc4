package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

// ShipmentHandler handles HTTP requests for shipment operations.
type ShipmentHandler struct {
	service ports.ShipmentService
}

func NewShipmentHandler(service ports.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{service: service}
}

// Create handles POST /v1/shipments.
//
// @Summary      Create a shipment for an order
// @Description  Acquires waybills, registers the shipment with the carrier and requests a pickup.
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createShipmentRequest  true  "Shipment details"
// @Success      201   {object}  envelope
// @Success      200   {object}  envelope  "recovered from a carrier duplicate"
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/shipments [post]
func (h *ShipmentHandler) Create(c echo.Context) error {
	var req createShipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.CreateShipment(c.Request().Context(), toCreateInput(req))
	if err != nil {
		return err
	}

	code := http.StatusCreated
	if result.Recovered {
		code = http.StatusOK
	}
	return respond(c, code, result)
}

// List handles GET /v1/shipments.
//
// @Summary      List shipments
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        order_id      query     string  false  "Order id"
// @Param        status        query     string  false  "Shipment status"
// @Param        kind          query     string  false  "FORWARD, MPS, REVERSE or REPLACEMENT"
// @Param        payment_mode  query     string  false  "COD or Prepaid"
// @Param        search        query     string  false  "Waybill, order id or customer name"
// @Param        date_from     query     string  false  "YYYY-MM-DD"
// @Param        date_to       query     string  false  "YYYY-MM-DD"
// @Param        active        query     bool    false  "Only active shipments"
// @Param        page          query     int     false  "Page (1-based)"
// @Param        limit         query     int     false  "Page size (max 100)"
// @Success      200           {object}  envelope
// @Failure      400           {object}  errorResponse
// @Router       /v1/shipments [get]
func (h *ShipmentHandler) List(c echo.Context) error {
	from, err := queryDate(c, "date_from")
	if err != nil {
		return err
	}
	to, err := queryDate(c, "date_to")
	if err != nil {
		return err
	}
	if !to.IsZero() && c.QueryParam("date_to") == to.Format(time.DateOnly) {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	active, _ := strconv.ParseBool(c.QueryParam("active"))

	result, err := h.service.ListShipments(c.Request().Context(), ports.ListShipmentsFilter{
		OrderID:     c.QueryParam("order_id"),
		Status:      c.QueryParam("status"),
		Kind:        strings.ToUpper(c.QueryParam("kind")),
		PaymentMode: c.QueryParam("payment_mode"),
		Search:      c.QueryParam("search"),
		DateFrom:    from,
		DateTo:      to,
		ActiveOnly:  active,
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", 20),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result)
}

// Get handles GET /v1/shipments/:id.
//
// @Summary      Get a shipment by id
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment id"
// @Success      200  {object}  envelope
// @Failure      404  {object}  errorResponse
// @Router       /v1/shipments/{id} [get]
func (h *ShipmentHandler) Get(c echo.Context) error {
	s, err := h.service.GetShipmentByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, s)
}

// GetByWaybill handles GET /v1/shipments/waybill/:waybill.
//
// @Summary      Get a shipment by any of its waybills
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        waybill  path      string  true  "Waybill"
// @Success      200      {object}  envelope
// @Failure      404      {object}  errorResponse
// @Router       /v1/shipments/waybill/{waybill} [get]
func (h *ShipmentHandler) GetByWaybill(c echo.Context) error {
	s, err := h.service.GetShipmentByWaybill(c.Request().Context(), c.Param("waybill"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, s)
}

// Track handles GET /v1/shipments/waybill/:waybill/track.
//
// @Summary      Track a shipment at the carrier
// @Description  Refreshes the local status when the carrier reports a newer one.
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        waybill  path      string  true  "Waybill"
// @Success      200      {object}  envelope
// @Failure      502      {object}  errorResponse
// @Router       /v1/shipments/waybill/{waybill}/track [get]
func (h *ShipmentHandler) Track(c echo.Context) error {
	result, err := h.service.TrackShipment(c.Request().Context(), c.Param("waybill"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result)
}

// Update handles PATCH /v1/shipments/waybill/:waybill.
//
// @Summary      Edit a shipment
// @Description  Fields the carrier accepts are sent to it; the rest are stored locally.
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        waybill  path      string                 true  "Waybill"
// @Param        body     body      updateShipmentRequest  true  "Fields to change"
// @Success      200      {object}  envelope
// @Failure      400      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Router       /v1/shipments/waybill/{waybill} [patch]
func (h *ShipmentHandler) Update(c echo.Context) error {
	var req updateShipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.UpdateShipment(c.Request().Context(), ports.UpdateShipmentInput{
		Waybill: c.Param("waybill"),
		Fields:  toEditFields(req),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result)
}

// Cancel handles POST /v1/shipments/waybill/:waybill/cancel.
//
// @Summary      Cancel a shipment
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        waybill  path      string  true  "Waybill"
// @Success      200      {object}  envelope
// @Failure      404      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Router       /v1/shipments/waybill/{waybill}/cancel [post]
func (h *ShipmentHandler) Cancel(c echo.Context) error {
	result, err := h.service.CancelShipmentByWaybill(c.Request().Context(), c.Param("waybill"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result)
}

// UpdateStatus handles PUT /v1/shipments/waybill/:waybill/status.
//
// @Summary      Set a shipment status manually
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        waybill  path      string               true  "Waybill"
// @Param        body     body      statusUpdateRequest  true  "New status"
// @Success      200      {object}  envelope
// @Failure      409      {object}  errorResponse
// @Router       /v1/shipments/waybill/{waybill}/status [put]
func (h *ShipmentHandler) UpdateStatus(c echo.Context) error {
	var req statusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	at := req.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}

	s, err := h.service.UpdateShipmentStatus(c.Request().Context(), c.Param("waybill"), req.Status, req.Notes, at)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, s)
}

// Label handles GET /v1/shipments/waybill/:waybill/label.
//
// @Summary      Shipping label
// @Description  With pdf=true the document is streamed; otherwise the carrier's links are returned.
// @Tags         shipments
// @Produce      json
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        waybill   path      string  true   "Waybill"
// @Param        pdf       query     bool    false  "Return the PDF"
// @Param        pdf_size  query     string  false  "A4 or 4R"
// @Success      200       {object}  envelope
// @Router       /v1/shipments/waybill/{waybill}/label [get]
func (h *ShipmentHandler) Label(c echo.Context) error {
	pdf, _ := strconv.ParseBool(c.QueryParam("pdf"))
	waybill := c.Param("waybill")

	result, err := h.service.GenerateShippingLabel(c.Request().Context(), waybill, delhivery.LabelOptions{
		PDF:     pdf,
		PDFSize: c.QueryParam("pdf_size"),
	})
	if err != nil {
		return err
	}
	if len(result.Document) > 0 {
		ct := result.ContentType
		if ct == "" {
			ct = "application/pdf"
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="label-`+waybill+`.pdf"`)
		return c.Blob(http.StatusOK, ct, result.Document)
	}
	return respond(c, http.StatusOK, labelResponse{Waybill: waybill, Links: result.Links, Packages: result.Packages})
}

// Ewaybill handles PUT /v1/shipments/waybill/:waybill/ewaybill.
//
// @Summary      Attach an e-waybill number
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        waybill  path      string           true  "Waybill"
// @Param        body     body      ewaybillRequest  true  "E-waybill"
// @Success      200      {object}  envelope
// @Failure      400      {object}  errorResponse
// @Router       /v1/shipments/waybill/{waybill}/ewaybill [put]
func (h *ShipmentHandler) Ewaybill(c echo.Context) error {
	var req ewaybillRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.UpdateEwaybill(c.Request().Context(), c.Param("waybill"), delhivery.EwaybillUpdate{
		InvoiceNumber:  req.InvoiceNumber,
		EwaybillNumber: req.EwaybillNumber,
	})
	if err != nil {
		return err
	}
	if !result.Success {
		return domain.Errorf(domain.KindCarrierRejected, "carrier rejected e-waybill: %s", result.Message)
	}
	return respond(c, http.StatusOK, result)
}

// OrderDetails handles GET /v1/orders/:id/shipment-details.
//
// @Summary      Shipment form data for an order
// @Description  Order, its shipments, pickup locations and the actions still available.
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  envelope
// @Failure      404  {object}  errorResponse
// @Router       /v1/orders/{id}/shipment-details [get]
func (h *ShipmentHandler) OrderDetails(c echo.Context) error {
	view, err := h.service.GetShipmentDetails(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, view)
}

// SchedulePickup handles POST /v1/pickups.
//
// @Summary      Request a carrier pickup
// @Description  Pickup failures are reported in the body, never as an HTTP error.
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      pickupRequest  true  "Pickup"
// @Success      200   {object}  envelope
// @Failure      400   {object}  errorResponse
// @Router       /v1/pickups [post]
func (h *ShipmentHandler) SchedulePickup(c echo.Context) error {
	var req pickupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	outcome := h.service.SchedulePickup(c.Request().Context(), ports.SchedulePickupInput{
		PickupLocation: req.PickupLocation,
		PickupDate:     req.PickupDate,
		PickupTime:     req.PickupTime,
		PackageCount:   req.PackageCount,
	})
	return respond(c, http.StatusOK, outcome)
}

// Serviceability handles GET /v1/serviceability/:pincode.
//
// @Summary      Check pincode serviceability
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        pincode  path      string  true   "Six-digit pincode"
// @Param        heavy    query     bool    false  "Check the heavy product line"
// @Success      200      {object}  envelope
// @Failure      400      {object}  errorResponse
// @Router       /v1/serviceability/{pincode} [get]
func (h *ShipmentHandler) Serviceability(c echo.Context) error {
	pin := strings.TrimSpace(c.Param("pincode"))
	if heavy, _ := strconv.ParseBool(c.QueryParam("heavy")); heavy {
		res, err := h.service.CheckHeavyServiceability(c.Request().Context(), pin)
		if err != nil {
			return err
		}
		return respond(c, http.StatusOK, res)
	}

	res, err := h.service.CheckServiceability(c.Request().Context(), pin)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, res)
}
