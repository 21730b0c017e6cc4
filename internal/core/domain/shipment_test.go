package domain

import (
	"errors"
	"testing"
)

func TestIsEditableStatus(t *testing.T) {
	editable := []string{"PENDING", "pickup pending", "Pickup-Scheduled", "MANIFEST_GENERATED", "Manifested", "Created"}
	for _, s := range editable {
		if !IsEditableStatus(s) {
			t.Errorf("expected %q to be editable", s)
		}
	}
	locked := []string{"Delivered", "In Transit", "Dispatched", "Cancelled", "RTO", ""}
	for _, s := range locked {
		if IsEditableStatus(s) {
			t.Errorf("expected %q to be locked", s)
		}
	}
}

func TestIsWeightLocked(t *testing.T) {
	if !IsWeightLocked("Manifested") || !IsWeightLocked("PICKUP_SCHEDULED") {
		t.Error("expected manifested and pickup scheduled to lock weight")
	}
	if IsWeightLocked("PENDING") {
		t.Error("pending must not lock weight")
	}
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusCreated, StatusDispatched, true},
		{StatusCreated, "Manifested", true},
		{StatusDispatched, StatusDelivered, true},
		{StatusCancelled, StatusDispatched, false},
		{StatusDelivered, StatusInTransit, false},
		{StatusRTO, StatusCreated, false},
		{StatusCancelled, "CANCELLED", true},
		{StatusCreated, " ", false},
	}
	for _, tc := range cases {
		if got := CanTransitionTo(tc.from, tc.to); got != tc.want {
			t.Errorf("%q -> %q: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestShipmentValidate(t *testing.T) {
	base := func() *Shipment {
		return &Shipment{
			Waybills:       []string{"W1"},
			PrimaryWaybill: "W1",
			Kind:           KindForward,
			Package:        PackageSnapshot{PaymentMode: PaymentCOD, CODAmount: 100},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := base()
	s.PrimaryWaybill = "W2"
	if err := s.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected primary waybill mismatch, got %v", err)
	}

	s = base()
	s.Kind = KindMPS
	if err := s.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected MPS with one waybill to fail, got %v", err)
	}

	s = base()
	s.Package.CODAmount = 0
	if err := s.Validate(); !errors.Is(err, ErrCODMismatch) {
		t.Errorf("expected COD mismatch, got %v", err)
	}
}

func TestOrderStatusAllows(t *testing.T) {
	cases := []struct {
		kind   ShipmentKind
		status string
		want   bool
	}{
		{KindForward, "Confirmed", true},
		{KindForward, "PROCESSING", true},
		{KindMPS, " paid ", true},
		{KindForward, "Pending Payment", false},
		{KindForward, "Delivered", false},
		{KindReverse, "Delivered", true},
		{KindReplacement, "completed", true},
		{KindReverse, "Confirmed", false},
	}
	for _, tc := range cases {
		if got := OrderStatusAllows(tc.kind, tc.status); got != tc.want {
			t.Errorf("%s/%q: got %v, want %v", tc.kind, tc.status, got, tc.want)
		}
	}
}

func TestOrderStatusAfterShipment(t *testing.T) {
	if OrderStatusAfterShipment(KindForward) != "Dispatched" ||
		OrderStatusAfterShipment(KindMPS) != "Dispatched" ||
		OrderStatusAfterShipment(KindReverse) != "Return Initiated" ||
		OrderStatusAfterShipment(KindReplacement) != "Replacement Initiated" {
		t.Error("unexpected order status mapping")
	}
}

func TestWaybillStatusTransitions(t *testing.T) {
	if !WaybillGenerated.CanTransitionTo(WaybillReserved) {
		t.Error("GENERATED -> RESERVED must be allowed")
	}
	if !WaybillReserved.CanTransitionTo(WaybillUsed) {
		t.Error("RESERVED -> USED must be allowed")
	}
	if WaybillUsed.CanTransitionTo(WaybillReserved) {
		t.Error("USED -> RESERVED must be refused")
	}
	if WaybillCancelled.CanTransitionTo(WaybillGenerated) {
		t.Error("CANCELLED is terminal")
	}
}
