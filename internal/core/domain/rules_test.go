package domain

import (
	"errors"
	"testing"
)

func TestCanConvertPaymentMode(t *testing.T) {
	cases := []struct {
		from, to PaymentMode
		want     bool
	}{
		{PaymentCOD, PaymentPrepaid, true},
		{PaymentPrepaid, PaymentCOD, false},
		{PaymentPickup, PaymentCOD, true},
		{PaymentPickup, PaymentPrepaid, true},
		{PaymentREPL, PaymentCOD, false},
		{PaymentREPL, PaymentPrepaid, false},
		{PaymentCOD, PaymentCOD, true},
		{PaymentPrepaid, PaymentPickup, false},
	}
	for _, tc := range cases {
		if got := CanConvertPaymentMode(tc.from, tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCheckPaymentModeConversion_PrepaidToCODHasSuggestion(t *testing.T) {
	err := CheckPaymentModeConversion(PaymentPrepaid, PaymentCOD)
	if !errors.Is(err, ErrPaymentModeConversion) {
		t.Fatalf("expected ErrPaymentModeConversion, got %v", err)
	}
	var de *Error
	if !errors.As(err, &de) {
		t.Fatal("expected *Error")
	}
	if de.Suggestion == "" || de.Field != "payment_mode" {
		t.Errorf("expected field and suggestion, got %+v", de)
	}
}

func TestValidateCODAmount(t *testing.T) {
	cases := []struct {
		name    string
		mode    PaymentMode
		amount  float64
		wantErr bool
	}{
		{"cod positive", PaymentCOD, 499, false},
		{"cod zero", PaymentCOD, 0, true},
		{"cod negative", PaymentCOD, -1, true},
		{"prepaid zero", PaymentPrepaid, 0, false},
		{"prepaid positive", PaymentPrepaid, 10, true},
		{"pickup ignored", PaymentPickup, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCODAmount(tc.mode, tc.amount)
			if tc.wantErr && !errors.Is(err, ErrCODMismatch) {
				t.Errorf("expected ErrCODMismatch, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParsePaymentMode(t *testing.T) {
	for in, want := range map[string]PaymentMode{
		"cod":     PaymentCOD,
		"Prepaid": PaymentPrepaid,
		"PICKUP":  PaymentPickup,
		"repl":    PaymentREPL,
	} {
		got, ok := ParsePaymentMode(in)
		if !ok || got != want {
			t.Errorf("ParsePaymentMode(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParsePaymentMode("barter"); ok {
		t.Error("expected unknown mode to be rejected")
	}
}

func TestError_IsMatchesByKind(t *testing.T) {
	err := Errorf(KindOrderNotFound, "order %s not found", "o-1")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Error("expected kind match")
	}
	if errors.Is(err, ErrShipmentNotFound) {
		t.Error("unexpected match across kinds")
	}
	wrapped := NewError(KindCarrierTechnical, "create failed").WithCause(errors.New("timeout"))
	if wrapped.Error() != "create failed: timeout" {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
	if KindOf(wrapped) != KindCarrierTechnical {
		t.Errorf("KindOf = %q", KindOf(wrapped))
	}
}
