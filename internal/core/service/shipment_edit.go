package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

// editField maps one carrier edit field to its caller-facing name and the
// shipment document path it updates.
type editField struct {
	caller string
	path   string
	parse  func(string) any
}

var editFields = map[string]editField{
	delhivery.FieldName:           {caller: "customer_name", path: "customer.name", parse: asString},
	delhivery.FieldPhone:          {caller: "phone", path: "customer.phone", parse: asString},
	delhivery.FieldAddress:        {caller: "address", path: "customer.address", parse: asString},
	delhivery.FieldPaymentType:    {caller: "payment_mode", path: "package.payment_mode", parse: asPaymentMode},
	delhivery.FieldCODAmount:      {caller: "cod_amount", path: "package.cod_amount", parse: asFloat},
	delhivery.FieldProductsDesc:   {caller: "product_description", path: "package.description", parse: asString},
	delhivery.FieldWeight:         {caller: "weight", path: "package.weight_grams", parse: asFloat},
	delhivery.FieldShipmentLength: {caller: "length", path: "package.dimensions.length_cm", parse: asFloat},
	delhivery.FieldShipmentWidth:  {caller: "width", path: "package.dimensions.width_cm", parse: asFloat},
	delhivery.FieldShipmentHeight: {caller: "height", path: "package.dimensions.height_cm", parse: asFloat},
}

// localOnlyFields can be stored without carrier confirmation.
var localOnlyFields = []string{delhivery.FieldProductsDesc}

// UpdateShipment edits a shipment at the carrier and mirrors accepted fields
// locally. Status, payment-mode and COD rules are checked against the stored
// status first so the answer is the same during carrier outages.
func (s *ShipmentService) UpdateShipment(ctx context.Context, in ports.UpdateShipmentInput) (*ports.UpdateShipmentResult, error) {
	sh, err := s.shipments.FindByWaybill(ctx, in.Waybill)
	if err != nil {
		return nil, err
	}
	if !domain.IsEditableStatus(sh.Status) {
		return nil, domain.Errorf(domain.KindEditNotAllowed, "shipment %s in status %q cannot be edited", sh.PrimaryWaybill, sh.Status).
			WithField("status").
			WithSuggestion("edits are allowed only while status is one of " + strings.Join(domain.EditableStatusNames(), ", "))
	}

	requested := translateEditFields(in.Fields)
	if len(requested) == 0 {
		return nil, domain.NewError(domain.KindValidation, "no editable fields supplied").WithField("fields")
	}
	checked, _ := delhivery.FilterEditFields(requested)
	if err := delhivery.CheckEditRules(sh.Status, sh.Package.PaymentMode, sh.Package.CODAmount, checked); err != nil {
		return nil, err
	}

	if !s.carrier.Configured() {
		if s.cfg.Demo {
			return s.applyEdit(ctx, sh, checked, nil, ports.EditSuccess, "applied locally (demo)", "")
		}
		return s.partialEdit(ctx, sh, checked, "carrier credentials are not configured", domain.ErrCarrierNotConfigured)
	}

	res, err := s.carrier.EditShipment(ctx, delhivery.EditRequest{
		Waybill:            sh.PrimaryWaybill,
		CurrentPaymentMode: sh.Package.PaymentMode,
		CurrentCODAmount:   sh.Package.CODAmount,
		KnownStatus:        sh.Status,
		Fields:             requested,
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return s.partialEdit(ctx, sh, checked, err.Error(), err)
	}

	if !res.Success {
		switch res.Issue {
		case domain.IssueEditStatusRestricted:
			return nil, domain.Errorf(domain.KindEditNotAllowed, "carrier refused the edit: %s", res.Message).
				WithField("status").
				WithSuggestion("the carrier has progressed this shipment; cancel and recreate it to change these fields")
		case domain.IssuePaymentModeConversion:
			return nil, domain.Errorf(domain.KindPaymentModeConversion, "carrier refused the payment mode change: %s", res.Message).
				WithField("payment_mode").
				WithSuggestion("only COD to Prepaid and Pickup to COD or Prepaid are allowed after creation")
		}
		return s.partialEdit(ctx, sh, checked, res.Message, domain.Errorf(domain.KindCarrierRejected, "carrier rejected the edit: %s", res.Message))
	}

	return s.applyEdit(ctx, sh, res.Applied, res.Ignored, ports.EditSuccess, res.Message, res.TrackedStatus)
}

// partialEdit stores the locally safe fields after a carrier failure. With
// nothing safe to store, cause is returned.
func (s *ShipmentService) partialEdit(ctx context.Context, sh *domain.Shipment, fields map[string]string, reason string, cause error) (*ports.UpdateShipmentResult, error) {
	local := map[string]string{}
	for _, k := range localOnlyFields {
		if v, ok := fields[k]; ok {
			local[k] = v
		}
	}
	if len(local) == 0 {
		return nil, cause
	}
	var skipped []string
	for k := range fields {
		if _, ok := local[k]; !ok {
			skipped = append(skipped, editFields[k].caller)
		}
	}
	sort.Strings(skipped)
	s.logger.Warn().Str("waybill", sh.PrimaryWaybill).Str("reason", reason).Strs("skipped", skipped).Msg("carrier edit failed, applied local fields only")

	if err := s.storeEdit(ctx, sh, local); err != nil {
		return nil, err
	}
	return &ports.UpdateShipmentResult{
		Status:       ports.EditPartialSuccess,
		AppliedLocal: callerNames(local),
		Skipped:      skipped,
		Message:      "carrier edit failed: " + reason,
		Shipment:     sh,
	}, nil
}

// applyEdit stores carrier-accepted fields on the shipment and its order slot.
func (s *ShipmentService) applyEdit(ctx context.Context, sh *domain.Shipment, applied map[string]string, ignored []string, status, message, carrierStatus string) (*ports.UpdateShipmentResult, error) {
	if len(applied) > 0 {
		if err := s.storeEdit(ctx, sh, applied); err != nil {
			return nil, err
		}
	}
	s.logger.Info().Str("waybill", sh.PrimaryWaybill).Str("status", status).Int("fields", len(applied)).Msg("shipment edited")
	return &ports.UpdateShipmentResult{
		Status:        status,
		Applied:       callerNames(applied),
		Skipped:       ignored,
		Message:       message,
		CarrierStatus: carrierStatus,
		Shipment:      sh,
	}, nil
}

func (s *ShipmentService) storeEdit(ctx context.Context, sh *domain.Shipment, fields map[string]string) error {
	set := make(map[string]any, len(fields))
	for k, v := range fields {
		f, ok := editFields[k]
		if !ok {
			continue
		}
		set[f.path] = f.parse(v)
	}
	if len(set) == 0 {
		return nil
	}
	if err := s.shipments.UpdateFields(ctx, sh.ID, set); err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}
	applyToShipment(sh, fields)

	_, ptChanged := fields[delhivery.FieldPaymentType]
	_, codChanged := fields[delhivery.FieldCODAmount]
	if ptChanged || codChanged {
		if err := s.orders.SaveShipmentDetails(ctx, sh.OrderID, detailsFromShipment(sh), nil); err != nil {
			s.logger.Warn().Err(err).Str("order_id", sh.OrderID).Msg("failed to mirror payment change on order")
		}
	}
	return nil
}

// applyToShipment updates the in-memory copy to match what was stored.
func applyToShipment(sh *domain.Shipment, fields map[string]string) {
	for k, v := range fields {
		switch k {
		case delhivery.FieldName:
			sh.Customer.Name = v
		case delhivery.FieldPhone:
			sh.Customer.Phone = v
		case delhivery.FieldAddress:
			sh.Customer.Address = v
		case delhivery.FieldPaymentType:
			sh.Package.PaymentMode = asPaymentMode(v).(domain.PaymentMode)
		case delhivery.FieldCODAmount:
			sh.Package.CODAmount = asFloat(v).(float64)
		case delhivery.FieldProductsDesc:
			sh.Package.Description = v
		case delhivery.FieldWeight:
			sh.Package.WeightGrams = asFloat(v).(float64)
		case delhivery.FieldShipmentLength:
			sh.Package.Dimensions.LengthCm = asFloat(v).(float64)
		case delhivery.FieldShipmentWidth:
			sh.Package.Dimensions.WidthCm = asFloat(v).(float64)
		case delhivery.FieldShipmentHeight:
			sh.Package.Dimensions.HeightCm = asFloat(v).(float64)
		}
	}
}

// translateEditFields renames caller fields to carrier field names.
func translateEditFields(f ports.ShipmentEditFields) map[string]any {
	out := map[string]any{}
	setStr := func(key string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			out[key] = strings.TrimSpace(*v)
		}
	}
	setNum := func(key string, v *float64) {
		if v != nil {
			out[key] = formatAmount(*v)
		}
	}
	setStr(delhivery.FieldName, f.CustomerName)
	setStr(delhivery.FieldPhone, f.Phone)
	setStr(delhivery.FieldAddress, f.Address)
	setStr(delhivery.FieldPaymentType, f.PaymentMode)
	setNum(delhivery.FieldCODAmount, f.CODAmount)
	setStr(delhivery.FieldProductsDesc, f.ProductDescription)
	setNum(delhivery.FieldWeight, f.WeightGrams)
	setNum(delhivery.FieldShipmentLength, f.LengthCm)
	setNum(delhivery.FieldShipmentWidth, f.WidthCm)
	setNum(delhivery.FieldShipmentHeight, f.HeightCm)
	return out
}

func callerNames(fields map[string]string) []string {
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(fields))
	for k := range fields {
		if f, ok := editFields[k]; ok {
			out = append(out, f.caller)
		}
	}
	sort.Strings(out)
	return out
}

func asString(v string) any { return v }

func asFloat(v string) any {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}

func asPaymentMode(v string) any {
	if m, ok := domain.ParsePaymentMode(v); ok {
		return m
	}
	return domain.PaymentMode(v)
}

// ---------------------------------------------------------------------------
// Cancellation
// ---------------------------------------------------------------------------

// CancelShipmentByWaybill cancels the shipment owning waybill. A shipment that
// is already cancelled succeeds without a carrier call; a waybill the carrier
// does not know is cancelled locally with a warning. Any other carrier error
// leaves local state untouched.
func (s *ShipmentService) CancelShipmentByWaybill(ctx context.Context, waybill string) (*ports.CancelShipmentResult, error) {
	sh, err := s.shipments.FindByWaybill(ctx, waybill)
	if err != nil {
		return nil, err
	}
	res := &ports.CancelShipmentResult{Waybill: waybill, Shipment: sh}

	if domain.CanonicalStatus(sh.Status) == "CANCELLED" {
		res.AlreadyCancelled = true
		return res, nil
	}
	if domain.IsTerminalStatus(sh.Status) {
		return nil, domain.Errorf(domain.KindCancelNotAllowed, "shipment %s is %s and cannot be cancelled", sh.PrimaryWaybill, sh.Status).
			WithField("status")
	}

	var warnings []string
	switch {
	case s.carrier.Configured():
		for _, w := range sh.Waybills {
			warn, err := s.cancelAtCarrier(ctx, w)
			if err != nil {
				return nil, err
			}
			if warn != "" {
				warnings = append(warnings, warn)
			}
		}
	case s.cfg.Demo:
		warnings = append(warnings, "carrier not configured; cancelled locally")
	default:
		return nil, notConfigured()
	}

	if len(warnings) > 0 {
		res.CancelledLocally = true
		res.Warning = strings.Join(warnings, "; ")
	}
	if err := s.cancelLocally(ctx, sh, res.Warning); err != nil {
		return nil, err
	}
	return res, nil
}

// cancelAtCarrier returns a warning when the carrier does not know the waybill.
func (s *ShipmentService) cancelAtCarrier(ctx context.Context, waybill string) (string, error) {
	res, err := s.carrier.CancelShipment(ctx, waybill)
	if err != nil {
		var apiErr *delhivery.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return fmt.Sprintf("carrier does not know waybill %s", waybill), nil
		}
		var de *domain.Error
		if errors.As(err, &de) {
			return "", err
		}
		return "", domain.Errorf(domain.KindCarrierTechnical, "carrier cancellation of %s failed", waybill).WithCause(err)
	}
	if res.NotFound {
		return fmt.Sprintf("carrier does not know waybill %s", waybill), nil
	}
	if !res.Success {
		if domain.ClassifyCarrierMessage(res.Message) == domain.IssueNotFound {
			return fmt.Sprintf("carrier does not know waybill %s: %s", waybill, res.Message), nil
		}
		return "", domain.Errorf(domain.KindCarrierRejected, "carrier refused to cancel %s: %s", waybill, res.Message).
			WithField("waybill")
	}
	return "", nil
}

func (s *ShipmentService) cancelLocally(ctx context.Context, sh *domain.Shipment, warning string) error {
	now := s.now()
	notes := "cancelled"
	if warning != "" {
		notes = "cancelled locally: " + warning
		s.logger.Warn().Str("waybill", sh.PrimaryWaybill).Str("warning", warning).Msg("shipment cancelled locally")
	}
	if err := s.shipments.UpdateStatus(ctx, sh.ID, domain.StatusCancelled, now, notes); err != nil {
		return fmt.Errorf("cancel shipment: %w", err)
	}
	if err := s.shipments.UpdateFields(ctx, sh.ID, map[string]any{"active": false}); err != nil {
		return fmt.Errorf("cancel shipment: %w", err)
	}
	sh.Status = domain.StatusCancelled
	sh.Active = false
	sh.StatusHistory = append(sh.StatusHistory, domain.StatusHistoryEntry{Status: sh.Status, Timestamp: now, Notes: notes})

	var created *bool
	if sh.Kind == domain.KindForward || sh.Kind == domain.KindMPS {
		f := false
		created = &f
	}
	if err := s.orders.SaveShipmentDetails(ctx, sh.OrderID, detailsFromShipment(sh), created); err != nil {
		s.logger.Warn().Err(err).Str("order_id", sh.OrderID).Msg("failed to mirror cancellation on order")
	}

	if s.waybills != nil {
		for _, w := range sh.Waybills {
			if err := s.waybills.Cancel(ctx, w); err != nil && !errors.Is(err, domain.ErrWaybillNotFound) {
				s.logger.Warn().Err(err).Str("waybill", w).Msg("failed to cancel pool waybill")
			}
		}
	}
	s.logger.Info().Str("waybill", sh.PrimaryWaybill).Str("order_id", sh.OrderID).Msg("shipment cancelled")
	return nil
}
