package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

// CarrierOrderHandler reads the carrier's view of our shipments.
type CarrierOrderHandler struct {
	service ports.CarrierOrderService
}

func NewCarrierOrderHandler(service ports.CarrierOrderService) *CarrierOrderHandler {
	return &CarrierOrderHandler{service: service}
}

func orderFilter(c echo.Context) (delhivery.OrderFilter, error) {
	from, err := queryDate(c, "date_from")
	if err != nil {
		return delhivery.OrderFilter{}, err
	}
	to, err := queryDate(c, "date_to")
	if err != nil {
		return delhivery.OrderFilter{}, err
	}
	return delhivery.OrderFilter{
		Status:      c.QueryParam("status"),
		PaymentMode: c.QueryParam("payment_mode"),
		State:       c.QueryParam("state"),
		City:        c.QueryParam("city"),
		Pincode:     c.QueryParam("pincode"),
		From:        from,
		To:          to,
		Limit:       queryInt(c, "limit", 50),
		Offset:      queryInt(c, "offset", 0),
	}, nil
}

// List handles GET /v1/carrier/orders.
//
// @Summary      Carrier orders
// @Tags         carrier
// @Produce      json
// @Security     BearerAuth
// @Param        status        query     string  false  "Carrier status"
// @Param        payment_mode  query     string  false  "COD or Prepaid"
// @Param        state         query     string  false  "Destination state"
// @Param        city          query     string  false  "Destination city"
// @Param        pincode       query     string  false  "Destination pincode"
// @Param        date_from     query     string  false  "YYYY-MM-DD"
// @Param        date_to       query     string  false  "YYYY-MM-DD"
// @Param        limit         query     int     false  "Page size"
// @Param        offset        query     int     false  "Offset"
// @Success      200           {object}  envelope
// @Router       /v1/carrier/orders [get]
func (h *CarrierOrderHandler) List(c echo.Context) error {
	f, err := orderFilter(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListCarrierOrders(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

// Search handles GET /v1/carrier/orders/search.
//
// @Summary      Search carrier orders
// @Tags         carrier
// @Produce      json
// @Security     BearerAuth
// @Param        q      query     string  true   "Waybill, order id or consignee"
// @Param        limit  query     int     false  "Max results"
// @Success      200    {object}  envelope
// @Failure      400    {object}  errorResponse
// @Router       /v1/carrier/orders/search [get]
func (h *CarrierOrderHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return domain.NewError(domain.KindValidation, "q is required").WithField("q")
	}
	page, err := h.service.SearchCarrierOrders(c.Request().Context(), q, queryInt(c, "limit", 20))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, page)
}

// Analytics handles GET /v1/carrier/orders/analytics.
//
// @Summary      Aggregated carrier order metrics
// @Tags         carrier
// @Produce      json
// @Security     BearerAuth
// @Param        date_from  query     string  false  "YYYY-MM-DD"
// @Param        date_to    query     string  false  "YYYY-MM-DD"
// @Success      200        {object}  envelope
// @Router       /v1/carrier/orders/analytics [get]
func (h *CarrierOrderHandler) Analytics(c echo.Context) error {
	f, err := orderFilter(c)
	if err != nil {
		return err
	}
	a, err := h.service.CarrierOrderAnalytics(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, a)
}
