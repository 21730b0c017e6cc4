package delhivery

import (
	"context"
	"sort"
	"strings"
	"time"
)

// trackChunkSize is the number of waybills sent per tracking call.
const trackChunkSize = 50

// OrderFilter narrows carrier orders client-side; the carrier does not filter.
type OrderFilter struct {
	Status      string
	PaymentMode string
	State       string
	City        string
	Pincode     string
	From        time.Time
	To          time.Time
	Limit       int
	Offset      int
}

// OrderPage is one page of carrier orders.
type OrderPage struct {
	Orders []TrackedShipment `json:"orders"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// OrderAnalytics aggregates carrier orders into the metrics the carrier does not compute.
type OrderAnalytics struct {
	Total        int            `json:"total"`
	Delivered    int            `json:"delivered"`
	InTransit    int            `json:"in_transit"`
	Pending      int            `json:"pending"`
	RTO          int            `json:"rto"`
	Cancelled    int            `json:"cancelled"`
	DeliveryRate float64        `json:"delivery_rate"`
	OnTimeRate   float64        `json:"on_time_rate"`
	CODCount     int            `json:"cod_count"`
	CODAmount    float64        `json:"cod_amount"`
	PrepaidCount int            `json:"prepaid_count"`
	ByStatus     map[string]int `json:"by_status"`
	ByState      map[string]int `json:"by_state"`
	ByCity       map[string]int `json:"by_city"`
}

// FetchOrders tracks waybills in chunks and returns the filtered page.
func (c *Client) FetchOrders(ctx context.Context, waybills []string, f OrderFilter) (*OrderPage, error) {
	all, err := c.trackAll(ctx, waybills)
	if err != nil {
		return nil, err
	}
	matched := FilterOrders(all, f)
	return paginate(matched, f.Limit, f.Offset), nil
}

// SearchOrders returns tracked orders whose waybill, reference, consignee or
// location contains query (case-insensitive).
func (c *Client) SearchOrders(ctx context.Context, waybills []string, query string, limit int) (*OrderPage, error) {
	all, err := c.trackAll(ctx, waybills)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var matched []TrackedShipment
	for _, s := range all {
		if q == "" || matchesQuery(s, q) {
			matched = append(matched, s)
		}
	}
	return paginate(matched, limit, 0), nil
}

// GetOrderAnalytics tracks waybills and aggregates them.
func (c *Client) GetOrderAnalytics(ctx context.Context, waybills []string, f OrderFilter) (*OrderAnalytics, error) {
	all, err := c.trackAll(ctx, waybills)
	if err != nil {
		return nil, err
	}
	a := ComputeAnalytics(FilterOrders(all, f))
	return &a, nil
}

func (c *Client) trackAll(ctx context.Context, waybills []string) ([]TrackedShipment, error) {
	var out []TrackedShipment
	for start := 0; start < len(waybills); start += trackChunkSize {
		end := min(start+trackChunkSize, len(waybills))
		res, err := c.TrackShipmentEnhanced(ctx, waybills[start:end], nil)
		if err != nil {
			return nil, err
		}
		if res.Outcome == TrackingCarrierError {
			c.log.Warn().Str("error", res.Error).Int("chunk_start", start).Msg("carrier tracking error for chunk")
			continue
		}
		out = append(out, res.Shipments...)
	}
	return out, nil
}

// FilterOrders applies f to shipments. Empty criteria match everything.
func FilterOrders(shipments []TrackedShipment, f OrderFilter) []TrackedShipment {
	var out []TrackedShipment
	for _, s := range shipments {
		if f.Status != "" && !strings.EqualFold(s.Status, f.Status) {
			continue
		}
		if f.PaymentMode != "" && normalizeMode(s.PaymentMode) != normalizeMode(f.PaymentMode) {
			continue
		}
		if f.State != "" && !strings.EqualFold(s.ConsigneeState, f.State) {
			continue
		}
		if f.City != "" && !strings.EqualFold(s.ConsigneeCity, f.City) {
			continue
		}
		if f.Pincode != "" && s.ConsigneePin != f.Pincode {
			continue
		}
		if !f.From.IsZero() || !f.To.IsZero() {
			t, ok := parseCarrierDate(s.PickupDate)
			if !ok {
				continue
			}
			if !f.From.IsZero() && t.Before(f.From) {
				continue
			}
			if !f.To.IsZero() && t.After(f.To) {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// ComputeAnalytics derives delivery and on-time rates and breakdowns.
// OnTimeRate only considers delivered orders carrying both dates.
func ComputeAnalytics(shipments []TrackedShipment) OrderAnalytics {
	a := OrderAnalytics{
		Total:    len(shipments),
		ByStatus: map[string]int{},
		ByState:  map[string]int{},
		ByCity:   map[string]int{},
	}
	onTime, timed := 0, 0
	for _, s := range shipments {
		a.ByStatus[s.Status]++
		if s.ConsigneeState != "" {
			a.ByState[s.ConsigneeState]++
		}
		if s.ConsigneeCity != "" {
			a.ByCity[s.ConsigneeCity]++
		}

		switch statusBucket(s.Status) {
		case "delivered":
			a.Delivered++
			delivered, okD := parseCarrierDate(s.DeliveredDate)
			expected, okE := parseCarrierDate(s.ExpectedDeliveryDate)
			if okD && okE {
				timed++
				if !delivered.After(endOfDay(expected)) {
					onTime++
				}
			}
		case "rto":
			a.RTO++
		case "cancelled":
			a.Cancelled++
		case "in_transit":
			a.InTransit++
		default:
			a.Pending++
		}

		if normalizeMode(s.PaymentMode) == "cod" {
			a.CODCount++
			a.CODAmount += s.CODAmount
		} else {
			a.PrepaidCount++
		}
	}
	if a.Total > 0 {
		a.DeliveryRate = percent(a.Delivered, a.Total)
	}
	if timed > 0 {
		a.OnTimeRate = percent(onTime, timed)
	}
	return a
}

func statusBucket(status string) string {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "rto"), strings.Contains(s, "return"):
		return "rto"
	case strings.Contains(s, "deliver") && !strings.Contains(s, "out for") && !strings.Contains(s, "un"):
		return "delivered"
	case strings.Contains(s, "cancel"):
		return "cancelled"
	case strings.Contains(s, "transit"), strings.Contains(s, "dispatch"), strings.Contains(s, "out for"), strings.Contains(s, "pending") && strings.Contains(s, "deliver"):
		return "in_transit"
	}
	return "pending"
}

func normalizeMode(mode string) string {
	m := strings.ToLower(strings.ReplaceAll(mode, "-", ""))
	if m == "cod" || m == "cash" {
		return "cod"
	}
	return m
}

func matchesQuery(s TrackedShipment, q string) bool {
	for _, field := range []string{s.Waybill, s.ReferenceNo, s.ConsigneeName, s.ConsigneeCity, s.ConsigneeState, s.ConsigneePin, s.Status, s.Destination} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func paginate(items []TrackedShipment, limit, offset int) *OrderPage {
	sort.SliceStable(items, func(i, j int) bool { return items[i].PickupDate > items[j].PickupDate })
	total := len(items)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return &OrderPage{Orders: items[offset:end], Total: total, Limit: limit, Offset: offset}
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func percent(n, d int) float64 {
	return float64(int(float64(n)/float64(d)*10000+0.5)) / 100
}
