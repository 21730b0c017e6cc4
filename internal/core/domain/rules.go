package domain

import (
	"fmt"
	"strings"
)

// PaymentMode is how the consignee settles the shipment.
type PaymentMode string

const (
	PaymentCOD     PaymentMode = "COD"
	PaymentPrepaid PaymentMode = "Prepaid"
	PaymentPickup  PaymentMode = "Pickup"
	PaymentREPL    PaymentMode = "REPL"
)

// ParsePaymentMode accepts the carrier's spellings in any casing.
func ParsePaymentMode(s string) (PaymentMode, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COD", "CASH", "CASH_ON_DELIVERY":
		return PaymentCOD, true
	case "PREPAID", "PRE-PAID", "PAID":
		return PaymentPrepaid, true
	case "PICKUP":
		return PaymentPickup, true
	case "REPL", "REPLACEMENT":
		return PaymentREPL, true
	}
	return "", false
}

// conversionMatrix lists the payment-mode changes the carrier honours after creation.
var conversionMatrix = map[PaymentMode][]PaymentMode{
	PaymentCOD:    {PaymentPrepaid},
	PaymentPickup: {PaymentCOD, PaymentPrepaid},
}

// CanConvertPaymentMode reports whether a shipment created with from may be edited to to.
// Keeping the same mode is always allowed.
func CanConvertPaymentMode(from, to PaymentMode) bool {
	if from == to {
		return true
	}
	for _, allowed := range conversionMatrix[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CheckPaymentModeConversion returns a user-actionable error when from -> to is refused.
func CheckPaymentModeConversion(from, to PaymentMode) error {
	if CanConvertPaymentMode(from, to) {
		return nil
	}
	e := Errorf(KindPaymentModeConversion, "payment mode cannot be changed from %s to %s", from, to).WithField("payment_mode")
	switch from {
	case PaymentPrepaid:
		e.Suggestion = "Prepaid shipments cannot become COD; cancel and create a new COD shipment instead"
	case PaymentREPL:
		e.Suggestion = "replacement shipments keep their payment mode"
	default:
		e.Suggestion = fmt.Sprintf("allowed targets from %s: %s", from, allowedTargets(from))
	}
	return e
}

func allowedTargets(from PaymentMode) string {
	targets := conversionMatrix[from]
	if len(targets) == 0 {
		return "none"
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// ValidateCODAmount enforces that COD carries a positive amount and Prepaid carries none.
func ValidateCODAmount(mode PaymentMode, codAmount float64) error {
	switch mode {
	case PaymentCOD:
		if codAmount <= 0 {
			return NewError(KindCODMismatch, "cod_amount must be greater than 0 for COD shipments").
				WithField("cod_amount").
				WithSuggestion("set cod_amount to the amount collected on delivery")
		}
	case PaymentPrepaid:
		if codAmount != 0 {
			return Errorf(KindCODMismatch, "cod_amount must be 0 for Prepaid shipments, got %.2f", codAmount).
				WithField("cod_amount").
				WithSuggestion("remove cod_amount or switch payment_mode to COD")
		}
	}
	return nil
}
