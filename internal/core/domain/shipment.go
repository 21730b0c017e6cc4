package domain

import (
	"strings"
	"time"
)

// ShipmentKind classifies the logistics flow a shipment belongs to.
type ShipmentKind string

const (
	KindForward     ShipmentKind = "FORWARD"
	KindMPS         ShipmentKind = "MPS"
	KindReverse     ShipmentKind = "REVERSE"
	KindReplacement ShipmentKind = "REPLACEMENT"
)

// ParseShipmentKind accepts any casing and defaults to KindForward for an empty value.
func ParseShipmentKind(s string) (ShipmentKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "FORWARD":
		return KindForward, true
	case "MPS":
		return KindMPS, true
	case "REVERSE":
		return KindReverse, true
	case "REPLACEMENT":
		return KindReplacement, true
	}
	return "", false
}

// IsReturnFlow reports whether the kind starts from a delivered order.
func (k ShipmentKind) IsReturnFlow() bool {
	return k == KindReverse || k == KindReplacement
}

// Local shipment statuses. Carrier statuses are stored verbatim alongside these.
const (
	StatusCreated         = "Created"
	StatusPickupScheduled = "PickupScheduled"
	StatusDispatched      = "Dispatched"
	StatusInTransit       = "In Transit"
	StatusDelivered       = "Delivered"
	StatusCancelled       = "Cancelled"
	StatusRTO             = "RTO"
)

// terminalStatuses have no outgoing transitions.
var terminalStatuses = map[string]struct{}{
	"DELIVERED": {},
	"CANCELLED": {},
	"RTO":       {},
}

// editableStatuses is the set of canonical statuses that still accept edits.
var editableStatuses = map[string]struct{}{
	"PENDING":            {},
	"PICKUP_PENDING":     {},
	"PICKUP_SCHEDULED":   {},
	"MANIFEST_GENERATED": {},
}

// weightLockedStatuses reject weight changes even though other edits are allowed.
var weightLockedStatuses = map[string]struct{}{
	"MANIFEST_GENERATED": {},
	"PICKUP_SCHEDULED":   {},
}

// statusAliases maps local and carrier wording onto the canonical edit-gate names.
var statusAliases = map[string]string{
	"CREATED":           "PENDING",
	"NEW":               "PENDING",
	"NOT_PICKED":        "PICKUP_PENDING",
	"PICKUPPENDING":     "PICKUP_PENDING",
	"PICKUPSCHEDULED":   "PICKUP_SCHEDULED",
	"MANIFESTED":        "MANIFEST_GENERATED",
	"MANIFESTGENERATED": "MANIFEST_GENERATED",
	"CANCELED":          "CANCELLED",
}

// CanonicalStatus upper-cases a free-text status and joins words with underscores,
// then applies known aliases ("Manifested" -> "MANIFEST_GENERATED").
func CanonicalStatus(status string) string {
	s := strings.ToUpper(strings.TrimSpace(status))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	if alias, ok := statusAliases[s]; ok {
		return alias
	}
	return s
}

// IsEditableStatus reports whether a shipment in this status may be edited.
func IsEditableStatus(status string) bool {
	_, ok := editableStatuses[CanonicalStatus(status)]
	return ok
}

// IsWeightLocked reports whether weight changes are refused in this status.
func IsWeightLocked(status string) bool {
	_, ok := weightLockedStatuses[CanonicalStatus(status)]
	return ok
}

// IsTerminalStatus reports whether status is Delivered, Cancelled or RTO.
func IsTerminalStatus(status string) bool {
	_, ok := terminalStatuses[CanonicalStatus(status)]
	return ok
}

// EditableStatusNames lists the edit-gate statuses for error messages.
func EditableStatusNames() []string {
	return []string{"PENDING", "PICKUP_PENDING", "PICKUP_SCHEDULED", "MANIFEST_GENERATED"}
}

// CanTransitionTo reports whether a shipment may move from current to next.
// Only terminal states are frozen; carrier statuses in between are free-form.
func CanTransitionTo(current, next string) bool {
	if strings.TrimSpace(next) == "" {
		return false
	}
	if IsTerminalStatus(current) {
		return CanonicalStatus(current) == CanonicalStatus(next)
	}
	return true
}

// WarehouseSnapshot is the pickup location as it was when the shipment was created.
type WarehouseSnapshot struct {
	Name    string `json:"name" bson:"name"`
	Address string `json:"address" bson:"address"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	Pincode string `json:"pincode" bson:"pincode"`
	Phone   string `json:"phone" bson:"phone"`
}

// CustomerSnapshot is the consignee as it was when the shipment was created.
type CustomerSnapshot struct {
	Name    string `json:"name" bson:"name"`
	Phone   string `json:"phone" bson:"phone"`
	Email   string `json:"email,omitempty" bson:"email,omitempty"`
	Address string `json:"address" bson:"address"`
	Pincode string `json:"pincode" bson:"pincode"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
}

// Dimensions represents the physical size of a package in centimetres.
type Dimensions struct {
	LengthCm float64 `json:"length_cm" bson:"length_cm"`
	WidthCm  float64 `json:"width_cm" bson:"width_cm"`
	HeightCm float64 `json:"height_cm" bson:"height_cm"`
}

// PackageSnapshot describes what was handed to the carrier.
type PackageSnapshot struct {
	WeightGrams  float64     `json:"weight_grams" bson:"weight_grams"`
	Dimensions   Dimensions  `json:"dimensions" bson:"dimensions"`
	PaymentMode  PaymentMode `json:"payment_mode" bson:"payment_mode"`
	CODAmount    float64     `json:"cod_amount" bson:"cod_amount"`
	TotalAmount  float64     `json:"total_amount" bson:"total_amount"`
	Description  string      `json:"description" bson:"description"`
	PackageCount int         `json:"package_count" bson:"package_count"`
	ShippingMode string      `json:"shipping_mode,omitempty" bson:"shipping_mode,omitempty"`
}

// StatusHistoryEntry records a single status change on a shipment.
type StatusHistoryEntry struct {
	Status    string    `json:"status" bson:"status"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Shipment is one logistics transaction for exactly one order.
type Shipment struct {
	ID              string               `json:"id" bson:"_id"`
	OrderID         string               `json:"order_id" bson:"order_id"`
	Waybills        []string             `json:"waybills" bson:"waybills"`
	PrimaryWaybill  string               `json:"primary_waybill" bson:"primary_waybill"`
	Kind            ShipmentKind         `json:"kind" bson:"kind"`
	Status          string               `json:"status" bson:"status"`
	PickupLocation  string               `json:"pickup_location" bson:"pickup_location"`
	Warehouse       WarehouseSnapshot    `json:"warehouse" bson:"warehouse"`
	Customer        CustomerSnapshot     `json:"customer" bson:"customer"`
	Package         PackageSnapshot      `json:"package" bson:"package"`
	CarrierResponse map[string]any       `json:"carrier_response,omitempty" bson:"carrier_response,omitempty"`
	PickupRequest   *PickupOutcome       `json:"pickup_request,omitempty" bson:"pickup_request,omitempty"`
	Active          bool                 `json:"active" bson:"active"`
	StatusHistory   []StatusHistoryEntry `json:"status_history" bson:"status_history"`
	CreatedAt       time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at" bson:"updated_at"`
}

// Validate checks the structural invariants of a shipment before it is stored.
func (s *Shipment) Validate() error {
	if len(s.Waybills) == 0 {
		return NewError(KindValidation, "shipment has no waybills").WithField("waybills")
	}
	if s.PrimaryWaybill != s.Waybills[0] {
		return NewError(KindValidation, "primary waybill must equal the first waybill").WithField("primary_waybill")
	}
	if s.Kind == KindMPS && len(s.Waybills) < 2 {
		return NewError(KindValidation, "multi-package shipment needs more than one waybill").WithField("waybills")
	}
	return ValidateCODAmount(s.Package.PaymentMode, s.Package.CODAmount)
}

// HasWaybill reports whether w is one of the shipment's identifiers.
func (s *Shipment) HasWaybill(w string) bool {
	for _, own := range s.Waybills {
		if own == w {
			return true
		}
	}
	return false
}

// PickupOutcome is the result of the best-effort pickup request made after creation.
type PickupOutcome struct {
	Requested  bool      `json:"requested" bson:"requested"`
	PickupID   string    `json:"pickup_id,omitempty" bson:"pickup_id,omitempty"`
	PickupDate string    `json:"pickup_date,omitempty" bson:"pickup_date,omitempty"`
	PickupTime string    `json:"pickup_time,omitempty" bson:"pickup_time,omitempty"`
	Error      string    `json:"error,omitempty" bson:"error,omitempty"`
	AttemptAt  time.Time `json:"attempted_at" bson:"attempted_at"`
}
