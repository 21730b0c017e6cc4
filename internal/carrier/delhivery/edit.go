package delhivery

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/storefront/logistics/internal/core/domain"
)

// Carrier field names accepted by the edit endpoint.
const (
	FieldName           = "name"
	FieldAddress        = "add"
	FieldPhone          = "phone"
	FieldPaymentType    = "pt"
	FieldCODAmount      = "cod"
	FieldProductsDesc   = "products_desc"
	FieldWeight         = "weight"
	FieldShipmentLength = "shipment_length"
	FieldShipmentWidth  = "shipment_width"
	FieldShipmentHeight = "shipment_height"
)

var editAllowList = map[string]struct{}{
	FieldName:           {},
	FieldAddress:        {},
	FieldPhone:          {},
	FieldPaymentType:    {},
	FieldCODAmount:      {},
	FieldProductsDesc:   {},
	FieldWeight:         {},
	FieldShipmentLength: {},
	FieldShipmentWidth:  {},
	FieldShipmentHeight: {},
}

// EditRequest asks the carrier to change fields on an existing waybill. Fields
// uses carrier field names; anything outside the allow-list is dropped.
type EditRequest struct {
	Waybill            string
	CurrentPaymentMode domain.PaymentMode
	CurrentCODAmount   float64
	// KnownStatus is used when live tracking is unavailable.
	KnownStatus string
	Fields      map[string]any
}

// EditResult is the normalised edit reply.
type EditResult struct {
	Success       bool                `json:"success"`
	Message       string              `json:"message,omitempty"`
	Issue         domain.CarrierIssue `json:"-"`
	TrackedStatus string              `json:"tracked_status,omitempty"`
	Applied       map[string]string   `json:"applied,omitempty"`
	Ignored       []string            `json:"ignored,omitempty"`
	Raw           map[string]any      `json:"-"`
}

// EditShipment applies the carrier's edit rules before calling the network:
// the tracked status must allow edits, weight must not be locked, the payment
// mode change must be permitted and the COD amount must match the target mode.
func (c *Client) EditShipment(ctx context.Context, req EditRequest) (*EditResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(req.Waybill) == "" {
		return nil, domain.NewError(domain.KindValidation, "waybill is required").WithField("waybill")
	}

	fields, ignored := FilterEditFields(req.Fields)
	if len(fields) == 0 {
		return nil, domain.NewError(domain.KindValidation, "no editable fields supplied").
			WithField("fields").
			WithSuggestion("editable fields: " + strings.Join(EditableFieldNames(), ", "))
	}

	status, err := c.trackedStatus(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := CheckEditRules(status, req.CurrentPaymentMode, req.CurrentCODAmount, fields); err != nil {
		return nil, err
	}

	body := map[string]string{"waybill": req.Waybill}
	for k, v := range fields {
		body[k] = v
	}

	v, err := c.doJSON(ctx, request{
		op:     "edit_shipment",
		method: http.MethodPost,
		path:   "/api/p/edit",
		body:   body,
	})
	if err != nil {
		return nil, err
	}
	res := normalizeEditResponse(v)
	res.TrackedStatus = status
	res.Ignored = ignored
	if res.Success {
		res.Applied = fields
	}
	c.log.Info().Str("waybill", req.Waybill).Bool("success", res.Success).Str("message", res.Message).Msg("carrier edit shipment")
	return res, nil
}

func (c *Client) trackedStatus(ctx context.Context, req EditRequest) (string, error) {
	tr, err := c.TrackShipment(ctx, req.Waybill)
	if err == nil && tr.Outcome != TrackingCarrierError {
		if s, ok := tr.Find(req.Waybill); ok && s.Status != "" {
			return s.Status, nil
		}
		if s := tr.CurrentStatus(); s != "" {
			return s, nil
		}
	}
	if req.KnownStatus != "" {
		if err != nil {
			c.log.Warn().Err(err).Str("waybill", req.Waybill).Msg("tracking unavailable, using known status for edit checks")
		}
		return req.KnownStatus, nil
	}
	if err != nil {
		return "", fmt.Errorf("delhivery edit: resolve current status: %w", err)
	}
	return "", domain.Errorf(domain.KindEditNotAllowed, "current status of waybill %s is unknown", req.Waybill).WithField("status")
}

// FilterEditFields keeps allow-listed fields and renders every value as a
// string. Dropped field names are returned sorted.
func FilterEditFields(in map[string]any) (map[string]string, []string) {
	out := make(map[string]string, len(in))
	var ignored []string
	for k, v := range in {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, ok := editAllowList[key]; !ok {
			ignored = append(ignored, k)
			continue
		}
		s := str(v)
		if s == "" {
			continue
		}
		out[key] = s
	}
	sort.Strings(ignored)
	return out, ignored
}

// EditableFieldNames lists the allow-list in a stable order.
func EditableFieldNames() []string {
	names := make([]string, 0, len(editAllowList))
	for k := range editAllowList {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CheckEditRules validates an edit against the shipment's status and payment
// mode. fields must already be filtered; a Prepaid target without a cod value
// gets cod forced to "0".
func CheckEditRules(status string, currentMode domain.PaymentMode, currentCOD float64, fields map[string]string) error {
	if !domain.IsEditableStatus(status) {
		return domain.Errorf(domain.KindEditNotAllowed, "shipment in status %q cannot be edited", status).
			WithField("status").
			WithSuggestion("edits are allowed only while status is one of " + strings.Join(domain.EditableStatusNames(), ", "))
	}
	if _, ok := fields[FieldWeight]; ok && domain.IsWeightLocked(status) {
		return domain.Errorf(domain.KindWeightLocked, "weight cannot be changed once status is %q", status).
			WithField("weight").
			WithSuggestion("weight is locked after manifest generation or pickup scheduling")
	}

	target := currentMode
	if pt, ok := fields[FieldPaymentType]; ok {
		mode, valid := domain.ParsePaymentMode(pt)
		if !valid {
			return domain.Errorf(domain.KindValidation, "unknown payment mode %q", pt).WithField("payment_mode")
		}
		if currentMode != "" {
			if err := domain.CheckPaymentModeConversion(currentMode, mode); err != nil {
				return err
			}
		}
		target = mode
		fields[FieldPaymentType] = string(mode)
	}

	cod := currentCOD
	if raw, ok := fields[FieldCODAmount]; ok {
		cod = num(raw)
	} else if target == domain.PaymentPrepaid {
		cod = 0
		if _, changing := fields[FieldPaymentType]; changing {
			fields[FieldCODAmount] = "0"
		}
	}
	if _, touched := fields[FieldPaymentType]; touched || fieldPresent(fields, FieldCODAmount) {
		return domain.ValidateCODAmount(target, cod)
	}
	return nil
}

func fieldPresent(fields map[string]string, key string) bool {
	_, ok := fields[key]
	return ok
}
