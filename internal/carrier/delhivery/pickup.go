package delhivery

import (
	"context"
	"net/http"
	"strings"

	"github.com/storefront/logistics/internal/core/domain"
)

// PickupRequest schedules a carrier pickup at a warehouse.
type PickupRequest struct {
	PickupLocation       string `json:"pickup_location"`
	PickupDate           string `json:"pickup_date"`
	PickupTime           string `json:"pickup_time"`
	ExpectedPackageCount int    `json:"expected_package_count"`
}

// PickupResult is the normalised pickup reply.
type PickupResult struct {
	Success       bool           `json:"success"`
	PickupID      string         `json:"pickup_id,omitempty"`
	PickupDate    string         `json:"pickup_date,omitempty"`
	PickupTime    string         `json:"pickup_time,omitempty"`
	AlreadyExists bool           `json:"already_exists,omitempty"`
	Message       string         `json:"message,omitempty"`
	Raw           map[string]any `json:"-"`
}

// CreatePickupRequest asks the carrier to collect packages from a warehouse.
func (c *Client) CreatePickupRequest(ctx context.Context, req PickupRequest) (*PickupResult, error) {
	if strings.TrimSpace(req.PickupLocation) == "" {
		return nil, domain.NewError(domain.KindValidation, "pickup location is required").WithField("pickup_location")
	}
	if req.PickupDate == "" || req.PickupTime == "" {
		return nil, domain.NewError(domain.KindValidation, "pickup date and time are required").WithField("pickup_date")
	}
	if req.ExpectedPackageCount <= 0 {
		req.ExpectedPackageCount = 1
	}
	v, err := c.doJSON(ctx, request{
		op:     "pickup_request",
		method: http.MethodPost,
		path:   "/fm/request/new/",
		body:   req,
	})
	if err != nil {
		return nil, err
	}
	res := normalizePickupResponse(v)
	if res.PickupDate == "" {
		res.PickupDate = req.PickupDate
	}
	if res.PickupTime == "" {
		res.PickupTime = req.PickupTime
	}
	return res, nil
}
