package delhivery

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// TrackingOutcome separates the three answers a tracking call can give.
type TrackingOutcome string

const (
	TrackingFound        TrackingOutcome = "found"
	TrackingNoScans      TrackingOutcome = "no_scans"
	TrackingCarrierError TrackingOutcome = "carrier_error"
)

// Scan is one entry of a package's scan history.
type Scan struct {
	Scan         string `json:"scan"`
	ScanType     string `json:"scan_type,omitempty"`
	DateTime     string `json:"date_time"`
	Location     string `json:"location"`
	Instructions string `json:"instructions,omitempty"`
}

// TrackedShipment is the canonical view of one package in a tracking reply.
type TrackedShipment struct {
	Waybill              string  `json:"waybill"`
	ReferenceNo          string  `json:"reference_no"`
	Status               string  `json:"status"`
	StatusType           string  `json:"status_type,omitempty"`
	StatusLocation       string  `json:"status_location,omitempty"`
	StatusDateTime       string  `json:"status_date_time,omitempty"`
	Instructions         string  `json:"instructions,omitempty"`
	Origin               string  `json:"origin,omitempty"`
	Destination          string  `json:"destination,omitempty"`
	PickupDate           string  `json:"pickup_date,omitempty"`
	ExpectedDeliveryDate string  `json:"expected_delivery_date,omitempty"`
	DeliveredDate        string  `json:"delivered_date,omitempty"`
	ConsigneeName        string  `json:"consignee_name,omitempty"`
	ConsigneeCity        string  `json:"consignee_city,omitempty"`
	ConsigneeState       string  `json:"consignee_state,omitempty"`
	ConsigneePin         string  `json:"consignee_pin,omitempty"`
	PaymentMode          string  `json:"payment_mode,omitempty"`
	CODAmount            float64 `json:"cod_amount"`
	InvoiceAmount        float64 `json:"invoice_amount"`
	Scans                []Scan  `json:"scans"`
}

// TrackingResult is the normalised tracking reply.
type TrackingResult struct {
	Outcome   TrackingOutcome   `json:"outcome"`
	Error     string            `json:"error,omitempty"`
	Shipments []TrackedShipment `json:"shipments"`
	Raw       map[string]any    `json:"raw,omitempty"`
}

// CurrentStatus returns the status of the first tracked package, or "".
func (r *TrackingResult) CurrentStatus() string {
	if r == nil || len(r.Shipments) == 0 {
		return ""
	}
	return r.Shipments[0].Status
}

// Find returns the tracked package with waybill w.
func (r *TrackingResult) Find(w string) (TrackedShipment, bool) {
	for _, s := range r.Shipments {
		if s.Waybill == w {
			return s, true
		}
	}
	return TrackedShipment{}, false
}

// TrackShipment fetches tracking for a single waybill.
func (c *Client) TrackShipment(ctx context.Context, waybill string) (*TrackingResult, error) {
	return c.TrackShipmentEnhanced(ctx, []string{waybill}, nil)
}

// TrackShipmentEnhanced fetches tracking for several waybills and order references at once.
func (c *Client) TrackShipmentEnhanced(ctx context.Context, waybills, refIDs []string) (*TrackingResult, error) {
	q := url.Values{}
	if len(waybills) > 0 {
		q.Set("waybill", strings.Join(waybills, ","))
	}
	if len(refIDs) > 0 {
		q.Set("ref_ids", strings.Join(refIDs, ","))
	}
	v, err := c.doJSON(ctx, request{
		op:     "track",
		method: http.MethodGet,
		path:   "/api/v1/packages/json/",
		query:  q,
	})
	if err != nil {
		return nil, err
	}
	return normalizeTracking(v), nil
}
