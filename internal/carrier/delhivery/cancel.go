package delhivery

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/storefront/logistics/internal/core/domain"
)

// CancelResult is the normalised cancellation reply.
type CancelResult struct {
	Success  bool           `json:"success"`
	NotFound bool           `json:"not_found"`
	Message  string         `json:"message,omitempty"`
	Raw      map[string]any `json:"-"`
}

// CancelShipment asks the carrier to cancel waybill. A 404 reply is reported
// as a result with NotFound set; HTML pages and other non-2xx replies are errors.
func (c *Client) CancelShipment(ctx context.Context, waybill string) (*CancelResult, error) {
	if strings.TrimSpace(waybill) == "" {
		return nil, domain.NewError(domain.KindValidation, "waybill is required").WithField("waybill")
	}
	v, err := c.doJSON(ctx, request{
		op:     "cancel_shipment",
		method: http.MethodPost,
		path:   "/api/p/edit",
		body:   map[string]string{"waybill": waybill, "cancellation": "true"},
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return &CancelResult{NotFound: true, Message: truncate(apiErr.Body, 200)}, nil
		}
		return nil, err
	}
	res := normalizeCancelResponse(v)
	c.log.Info().Str("waybill", waybill).Bool("success", res.Success).Bool("not_found", res.NotFound).Str("message", res.Message).Msg("carrier cancel shipment")
	return res, nil
}
