package domain

import (
	"errors"
	"fmt"
)

// ErrorKind names a class of failure the workflow layer can act on.
type ErrorKind string

const (
	KindValidation             ErrorKind = "VALIDATION"
	KindOrderNotFound          ErrorKind = "ORDER_NOT_FOUND"
	KindInvalidOrderStatus     ErrorKind = "INVALID_ORDER_STATUS"
	KindDuplicateShipment      ErrorKind = "DUPLICATE_SHIPMENT"
	KindShipmentNotFound       ErrorKind = "SHIPMENT_NOT_FOUND"
	KindWarehouseNotFound      ErrorKind = "WAREHOUSE_NOT_FOUND"
	KindWarehouseNotRegistered ErrorKind = "WAREHOUSE_NOT_REGISTERED"
	KindWarehouseExists        ErrorKind = "WAREHOUSE_EXISTS"
	KindInsufficientBalance    ErrorKind = "INSUFFICIENT_CARRIER_BALANCE"
	KindCarrierTechnical       ErrorKind = "CARRIER_TECHNICAL_ERROR"
	KindCarrierRejected        ErrorKind = "CARRIER_REJECTED"
	KindCarrierNotConfigured   ErrorKind = "CARRIER_NOT_CONFIGURED"
	KindUnreconciledDuplicate  ErrorKind = "UNRECONCILED_DUPLICATE"
	KindEditNotAllowed         ErrorKind = "EDIT_NOT_ALLOWED"
	KindWeightLocked           ErrorKind = "WEIGHT_LOCKED"
	KindPaymentModeConversion  ErrorKind = "PAYMENT_MODE_CONVERSION"
	KindCODMismatch            ErrorKind = "COD_AMOUNT_MISMATCH"
	KindCancelNotAllowed       ErrorKind = "CANCEL_NOT_ALLOWED"
	KindInsufficientWaybills   ErrorKind = "INSUFFICIENT_WAYBILLS"
	KindWaybillNotFound        ErrorKind = "WAYBILL_NOT_FOUND"
	KindInvalidTransition      ErrorKind = "INVALID_TRANSITION"
)

// Error is a classified failure carrying enough context for a user to act on it.
type Error struct {
	Kind       ErrorKind
	Message    string
	Field      string
	Suggestion string
	Cause      error
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on kind so callers can compare against the sentinel values below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// KindOf returns the classified kind of err, or "" when err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

var (
	ErrValidation             = NewError(KindValidation, "validation failed")
	ErrOrderNotFound          = NewError(KindOrderNotFound, "order not found")
	ErrInvalidOrderStatus     = NewError(KindInvalidOrderStatus, "order status does not allow this shipment")
	ErrDuplicateShipment      = NewError(KindDuplicateShipment, "shipment already exists for order")
	ErrShipmentNotFound       = NewError(KindShipmentNotFound, "shipment not found")
	ErrWarehouseNotFound      = NewError(KindWarehouseNotFound, "warehouse not found")
	ErrWarehouseNotRegistered = NewError(KindWarehouseNotRegistered, "warehouse is not registered with the carrier")
	ErrWarehouseExists        = NewError(KindWarehouseExists, "warehouse already exists")
	ErrInsufficientBalance    = NewError(KindInsufficientBalance, "insufficient carrier wallet balance")
	ErrCarrierTechnical       = NewError(KindCarrierTechnical, "carrier technical error")
	ErrCarrierRejected        = NewError(KindCarrierRejected, "carrier rejected the request")
	ErrCarrierNotConfigured   = NewError(KindCarrierNotConfigured, "carrier API is not configured")
	ErrUnreconciledDuplicate  = NewError(KindUnreconciledDuplicate, "carrier reports a duplicate order with no local record")
	ErrEditNotAllowed         = NewError(KindEditNotAllowed, "shipment status does not allow edits")
	ErrWeightLocked           = NewError(KindWeightLocked, "weight can no longer be changed")
	ErrPaymentModeConversion  = NewError(KindPaymentModeConversion, "payment mode conversion not allowed")
	ErrCODMismatch            = NewError(KindCODMismatch, "cod amount does not match payment mode")
	ErrCancelNotAllowed       = NewError(KindCancelNotAllowed, "shipment can no longer be cancelled")
	ErrInsufficientWaybills   = NewError(KindInsufficientWaybills, "not enough waybills available")
	ErrWaybillNotFound        = NewError(KindWaybillNotFound, "waybill not found")
	ErrInvalidTransition      = NewError(KindInvalidTransition, "invalid status transition")
)
