package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

func strPtr(s string) *string { return &s }

func numPtr(f float64) *float64 { return &f }

// ---------------------------------------------------------------------------
// UpdateShipment
// ---------------------------------------------------------------------------

func TestUpdateShipment_Success(t *testing.T) {
	f := newFixture(t, ShipmentConfig{}, shippedOrder())
	seedShipment(t, f, domain.StatusCreated, domain.PaymentCOD, 1499)

	res, err := f.svc.UpdateShipment(context.Background(), ports.UpdateShipmentInput{
		Waybill: "WB1",
		Fields:  ports.ShipmentEditFields{CustomerName: strPtr("Asha K"), Phone: strPtr("9123456780")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != ports.EditSuccess || strings.Join(res.Applied, ",") != "customer_name,phone" {
		t.Errorf("unexpected result: %+v", res)
	}
	stored := f.shipments.get("S1")
	if stored.Customer.Name != "Asha K" || stored.Customer.Phone != "9123456780" {
		t.Errorf("edit not stored: %+v", stored.Customer)
	}
	if f.carrier.edits[0].Waybill != "WB1" || f.carrier.edits[0].CurrentPaymentMode != domain.PaymentCOD {
		t.Errorf("unexpected edit request: %+v", f.carrier.edits[0])
	}
}

func TestUpdateShipment_PaymentChangeMirrorsOrder(t *testing.T) {
	f := newFixture(t, ShipmentConfig{}, shippedOrder())
	seedShipment(t, f, domain.StatusCreated, domain.PaymentCOD, 1499)

	_, err := f.svc.UpdateShipment(context.Background(), ports.UpdateShipmentInput{
		Waybill: "WB1",
		Fields:  ports.ShipmentEditFields{PaymentMode: strPtr("prepaid")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := f.shipments.get("S1")
	if stored.Package.PaymentMode != domain.PaymentPrepaid || stored.Package.CODAmount != 0 {
		t.Errorf("expected Prepaid with cod 0, got %s %.2f", stored.Package.PaymentMode, stored.Package.CODAmount)
	}
	if d := f.orders.get("ORD-1").ShipmentDetails; d == nil || d.PaymentMode != domain.PaymentPrepaid {
		t.Errorf("order slot not updated: %+v", d)
	}
}

func TestUpdateShipment_LocalRules(t *testing.T) {
	tests := []struct {
		name   string
		status string
		mode   domain.PaymentMode
		cod    float64
		fields ports.ShipmentEditFields
		want   domain.ErrorKind
	}{
		{"not editable", "In Transit", domain.PaymentCOD, 100, ports.ShipmentEditFields{Phone: strPtr("9000000001")}, domain.KindEditNotAllowed},
		{"weight locked", "Manifested", domain.PaymentCOD, 100, ports.ShipmentEditFields{WeightGrams: numPtr(900)}, domain.KindWeightLocked},
		{"prepaid to cod", domain.StatusCreated, domain.PaymentPrepaid, 0, ports.ShipmentEditFields{PaymentMode: strPtr("COD"), CODAmount: numPtr(100)}, domain.KindPaymentModeConversion},
		{"cod without amount", domain.StatusCreated, domain.PaymentCOD, 100, ports.ShipmentEditFields{CODAmount: numPtr(0)}, domain.KindCODMismatch},
		{"nothing to edit", domain.StatusCreated, domain.PaymentCOD, 100, ports.ShipmentEditFields{}, domain.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, ShipmentConfig{}, shippedOrder())
			seedShipment(t, f, tt.status, tt.mode, tt.cod)

			_, err := f.svc.UpdateShipment(context.Background(), ports.UpdateShipmentInput{Waybill: "WB1", Fields: tt.fields})
			kindOf(t, err, tt.want)
			if len(f.carrier.edits) != 0 {
				t.Errorf("carrier must not be called")
			}
		})
	}
}

func TestUpdateShipment_PartialSuccess(t *testing.T) {
	f := newFixture(t, ShipmentConfig{}, shippedOrder())
	seedShipment(t, f, domain.StatusCreated, domain.PaymentCOD, 1499)
	f.carrier.editFn = func(delhivery.EditRequest) (*delhivery.EditResult, error) {
		return nil, errors.New("upstream timeout")
	}

	res, err := f.svc.UpdateShipment(context.Background(), ports.UpdateShipmentInput{
		Waybill: "WB1",
		Fields:  ports.ShipmentEditFields{ProductDescription: strPtr("Steel kettle"), Phone: strPtr("9000000001")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != ports.EditPartialSuccess {
		t.Fatalf("expected partial success, got %s", res.Status)
	}
	if strings.Join(res.AppliedLocal, ",") != "product_description" || strings.Join(res.Skipped, ",") != "phone" {
		t.Errorf("unexpected split: local=%v skipped=%v", res.AppliedLocal, res.Skipped)
	}
	stored := f.shipments.get("S1")
	if stored.Package.Description != "Steel kettle" || stored.Customer.Phone != "9876543210" {
		t.Errorf("only the description may change: %+v", stored)
	}
}

func TestUpdateShipment_CarrierFailureWithoutLocalFields(t *testing.T) {
	f := newFixture(t, ShipmentConfig{}, shippedOrder())
	seedShipment(t, f, domain.StatusCreated, domain.PaymentCOD, 1499)
	f.carrier.editFn = func(delhivery.EditRequest) (*delhivery.EditResult, error) {
		return &delhivery.EditResult{Success: false, Message: "Shipment cannot be edited", Issue: domain.IssueEditStatusRestricted}, nil
	}

	_, err := f.svc.UpdateShipment(context.Background(), ports.UpdateShipmentInput{
		Waybill: "WB1",
		Fields:  ports.ShipmentEditFields{Phone: strPtr("9000000001")},
	})
	kindOf(t, err, domain.KindEditNotAllowed)
	if f.shipments.get("S1").Customer.Phone != "9876543210" {
		t.Errorf("rejected edit must not be stored")
	}
}

// ---------------------------------------------------------------------------
// CancelShipmentByWaybill
// ---------------------------------------------------------------------------

func TestCancelShipment(t *testing.T) {
	f := newFixture(t, ShipmentConfig{}, shippedOrder())
	seedShipment(t, f, domain.StatusCreated, domain.PaymentCOD, 1499)

	res, err := f.svc.CancelShipmentByWaybill(context.Background(), "WB1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AlreadyCancelled || res.CancelledLocally {
		t.Errorf("unexpected flags: %+v", res)
	}
	stored := f.shipments.get("S1")
	if stored.Status != domain.StatusCancelled || stored.Active {
		t.Errorf("shipment not cancelled: status=%s active=%v", stored.Status, stored.Active)
	}
	if f.orders.get("ORD-1").ShipmentCreated {
		t.Errorf("order must accept a new shipment after cancellation")
	}
	if f.pool.status("WB1") != domain.WaybillCancelled {
		t.Errorf("pool waybill must be cancelled, got %s", f.pool.status("WB1"))
	}

	again, err := f.svc.CancelShipmentByWaybill(context.Background(), "WB1")
	if err != nil || !again.AlreadyCancelled {
		t.Fatalf("second cancel must be a no-op: %+v, %v", again, err)
	}
	if len(f.carrier.cancelled) != 1 {
		t.Errorf("expected a single carrier call, got %d", len(f.carrier.cancelled))
	}
}

func TestCancelShipment_Terminal(t *testing.T) {
	f := newFixture(t, ShipmentConfig{}, shippedOrder())
	seedShipment(t, f, "Delivered", domain.PaymentCOD, 1499)

	_, err := f.svc.CancelShipmentByWaybill(context.Background(), "WB1")
	kindOf(t, err, domain.KindCancelNotAllowed)
}

func TestCancelShipment_UnknownAtCarrier(t *testing.T) {
	f := newFixture(t, ShipmentConfig{}, shippedOrder())
	seedShipment(t, f, domain.StatusCreated, domain.PaymentCOD, 1499)
	f.carrier.cancelFn = func(string) (*delhivery.CancelResult, error) {
		return nil, &delhivery.APIError{StatusCode: 404, Endpoint: "cancel_shipment"}
	}

	res, err := f.svc.CancelShipmentByWaybill(context.Background(), "WB1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.CancelledLocally || !strings.Contains(res.Warning, "WB1") {
		t.Errorf("expected local cancellation warning, got %+v", res)
	}
	if f.shipments.get("S1").Status != domain.StatusCancelled {
		t.Errorf("shipment must be cancelled locally")
	}
}

func TestCancelShipment_GatewayPageKeepsState(t *testing.T) {
	f := newFixture(t, ShipmentConfig{}, shippedOrder())
	seedShipment(t, f, domain.StatusCreated, domain.PaymentCOD, 1499)
	f.carrier.cancelFn = func(string) (*delhivery.CancelResult, error) {
		return nil, &delhivery.APIError{StatusCode: 404, HTML: true, Endpoint: "cancel_shipment"}
	}

	res, err := f.svc.CancelShipmentByWaybill(context.Background(), "WB1")
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	kindOf(t, err, domain.KindCarrierTechnical)
	stored := f.shipments.get("S1")
	if stored.Status != domain.StatusCreated || !stored.Active {
		t.Errorf("local state must be untouched: %+v", stored)
	}
	if !f.orders.get("ORD-1").ShipmentCreated {
		t.Errorf("order must stay marked")
	}
}

func TestCancelShipment_CarrierRefusalKeepsState(t *testing.T) {
	f := newFixture(t, ShipmentConfig{}, shippedOrder())
	seedShipment(t, f, domain.StatusCreated, domain.PaymentCOD, 1499)
	f.carrier.cancelFn = func(string) (*delhivery.CancelResult, error) {
		return &delhivery.CancelResult{Success: false, Message: "Shipment is already dispatched, cannot cancel"}, nil
	}

	_, err := f.svc.CancelShipmentByWaybill(context.Background(), "WB1")
	kindOf(t, err, domain.KindCarrierRejected)
	stored := f.shipments.get("S1")
	if stored.Status != domain.StatusCreated || !stored.Active {
		t.Errorf("local state must be untouched: %+v", stored)
	}
	if !f.orders.get("ORD-1").ShipmentCreated {
		t.Errorf("order must stay marked")
	}
}

func TestUpdateShipmentStatus_CancelledReleasesOrder(t *testing.T) {
	f := newFixture(t, ShipmentConfig{}, shippedOrder())
	seedShipment(t, f, domain.StatusCreated, domain.PaymentCOD, 1499)

	if _, err := f.svc.UpdateShipmentStatus(context.Background(), "WB1", "Canceled", "scan", fixedNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.orders.get("ORD-1").ShipmentCreated || f.shipments.get("S1").Active {
		t.Errorf("cancel scan must deactivate the shipment and release the order")
	}
}
