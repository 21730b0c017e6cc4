package delhivery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/storefront/logistics/internal/core/domain"
)

// DateLayout is the timestamp format the manifest API expects.
const DateLayout = "2006-01-02 15:04:05"

// EndDateOffset is how far end_date is placed after send_date when it is synthesised.
const EndDateOffset = 7 * 24 * time.Hour

// PickupLocation names the registered warehouse a manifest ships from.
type PickupLocation struct {
	Name string `json:"name"`
}

// ShipmentPayload is the body of a manifest call: one pickup location and one
// record per physical package.
type ShipmentPayload struct {
	PickupLocation PickupLocation  `json:"pickup_location"`
	Shipments      []PackageRecord `json:"shipments"`
}

// PackageRecord is one package in the manifest. The carrier expects every
// numeric value as a string.
type PackageRecord struct {
	Name            string `json:"name"`
	Address         string `json:"add"`
	Pin             string `json:"pin"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Country         string `json:"country,omitempty"`
	Phone           string `json:"phone"`
	Email           string `json:"email,omitempty"`
	Order           string `json:"order"`
	PaymentMode     string `json:"payment_mode"`
	ReturnName      string `json:"return_name,omitempty"`
	ReturnAddress   string `json:"return_add,omitempty"`
	ReturnPin       string `json:"return_pin,omitempty"`
	ReturnCity      string `json:"return_city,omitempty"`
	ReturnState     string `json:"return_state,omitempty"`
	ReturnCountry   string `json:"return_country,omitempty"`
	ReturnPhone     string `json:"return_phone,omitempty"`
	ProductsDesc    string `json:"products_desc"`
	HSNCode         string `json:"hsn_code,omitempty"`
	CODAmount       string `json:"cod_amount"`
	TotalAmount     string `json:"total_amount"`
	OrderDate       string `json:"order_date,omitempty"`
	SellerName      string `json:"seller_name,omitempty"`
	SellerAddress   string `json:"seller_add,omitempty"`
	SellerInvoice   string `json:"seller_inv,omitempty"`
	SellerGSTTIN    string `json:"seller_gst_tin,omitempty"`
	Quantity        string `json:"quantity"`
	Waybill         string `json:"waybill,omitempty"`
	ShipmentLength  string `json:"shipment_length,omitempty"`
	ShipmentWidth   string `json:"shipment_width,omitempty"`
	ShipmentHeight  string `json:"shipment_height,omitempty"`
	Weight          string `json:"weight"`
	ShippingMode    string `json:"shipping_mode,omitempty"`
	AddressType     string `json:"address_type,omitempty"`
	FragileShipment string `json:"fragile_shipment,omitempty"`
	MasterID        string `json:"master_id,omitempty"`
	MPSAmount       string `json:"mps_amount,omitempty"`
	MPSChildren     string `json:"mps_children,omitempty"`
	SendDate        string `json:"send_date"`
	EndDate         string `json:"end_date"`
}

// PackageResult is the carrier's verdict on one package.
type PackageResult struct {
	Waybill     string   `json:"waybill"`
	RefNum      string   `json:"refnum"`
	Status      string   `json:"status"`
	Remarks     []string `json:"remarks"`
	SortCode    string   `json:"sort_code,omitempty"`
	Serviceable bool     `json:"serviceable"`
}

// Failed reports whether the carrier did not accept the package.
func (p PackageResult) Failed() bool {
	ok, found := boolish(p.Status)
	return found && !ok
}

// CreateResult is the normalised manifest reply. Business failures are data,
// not errors: callers inspect Success, Remark and per-package Remarks.
type CreateResult struct {
	Success   bool            `json:"success"`
	Remark    string          `json:"rmk"`
	UploadWBN string          `json:"upload_wbn,omitempty"`
	Packages  []PackageResult `json:"packages"`
	Raw       map[string]any  `json:"-"`
}

// Waybills returns the waybills of accepted packages in order.
func (r *CreateResult) Waybills() []string {
	out := make([]string, 0, len(r.Packages))
	for _, p := range r.Packages {
		if p.Waybill != "" && !p.Failed() {
			out = append(out, p.Waybill)
		}
	}
	return out
}

// PackageRemarks returns every remark of every package.
func (r *CreateResult) PackageRemarks() []string {
	var out []string
	for _, p := range r.Packages {
		out = append(out, p.Remarks...)
	}
	return out
}

// CreateShipment manifests payload. It validates required fields, fills in
// missing send_date and end_date, and only returns an error for validation or
// transport failures.
func (c *Client) CreateShipment(ctx context.Context, payload ShipmentPayload) (*CreateResult, error) {
	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}
	healed := HealDates(payload, c.now())

	data, err := json.Marshal(healed)
	if err != nil {
		return nil, fmt.Errorf("delhivery create: encode payload: %w", err)
	}
	form := url.Values{}
	form.Set("format", "json")
	form.Set("data", string(data))

	v, err := c.doJSON(ctx, request{
		op:     "create_shipment",
		method: http.MethodPost,
		path:   "/api/cmu/create.json",
		form:   form,
	})
	if err != nil {
		return nil, err
	}
	res := normalizeCreateResponse(v)
	c.log.Info().
		Bool("success", res.Success).
		Str("pickup_location", payload.PickupLocation.Name).
		Int("packages", len(res.Packages)).
		Str("rmk", res.Remark).
		Msg("carrier create shipment")
	return res, nil
}

// ValidatePayload checks the fields the carrier requires on every package.
func ValidatePayload(p ShipmentPayload) error {
	if strings.TrimSpace(p.PickupLocation.Name) == "" {
		return domain.NewError(domain.KindValidation, "pickup location name is required").WithField("pickup_location.name")
	}
	if len(p.Shipments) == 0 {
		return domain.NewError(domain.KindValidation, "at least one package is required").WithField("shipments")
	}
	for i, s := range p.Shipments {
		required := []struct{ field, value string }{
			{"name", s.Name},
			{"add", s.Address},
			{"pin", s.Pin},
			{"phone", s.Phone},
			{"order", s.Order},
			{"payment_mode", s.PaymentMode},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				return domain.Errorf(domain.KindValidation, "package %d: %s is required", i, r.field).
					WithField(fmt.Sprintf("shipments[%d].%s", i, r.field))
			}
		}
	}
	return nil
}

// HealDates returns a copy of p where every package has send_date and end_date.
// A missing send_date becomes now; a missing end_date becomes send_date plus seven days.
func HealDates(p ShipmentPayload, now time.Time) ShipmentPayload {
	out := p
	out.Shipments = make([]PackageRecord, len(p.Shipments))
	for i, s := range p.Shipments {
		if strings.TrimSpace(s.SendDate) == "" {
			s.SendDate = now.Format(DateLayout)
		}
		if strings.TrimSpace(s.EndDate) == "" {
			send, ok := parseCarrierDate(s.SendDate)
			if !ok {
				send = now
			}
			s.EndDate = send.Add(EndDateOffset).Format(DateLayout)
		}
		out.Shipments[i] = s
	}
	return out
}

func parseCarrierDate(s string) (time.Time, bool) {
	for _, layout := range []string{DateLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
