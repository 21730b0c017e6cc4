package domain

import (
	"strings"
	"time"
)

// Order statuses written by the shipment workflow.
const (
	OrderStatusDispatched           = "Dispatched"
	OrderStatusReturnInitiated      = "Return Initiated"
	OrderStatusReplacementInitiated = "Replacement Initiated"
	OrderStatusCancelled            = "Cancelled"
)

var (
	preDispatchStatuses  = []string{"confirmed", "processing", "pending", "paid"}
	postDeliveryStatuses = []string{"delivered", "completed"}
)

// AllowedOrderStatuses returns the lower-case order statuses from which a shipment
// of the given kind may be created.
func AllowedOrderStatuses(kind ShipmentKind) []string {
	if kind.IsReturnFlow() {
		return postDeliveryStatuses
	}
	return preDispatchStatuses
}

// OrderStatusAllows reports whether an order in status may ship with kind.
// Comparison is case-insensitive and whitespace-trimmed.
func OrderStatusAllows(kind ShipmentKind, status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, allowed := range AllowedOrderStatuses(kind) {
		if s == allowed {
			return true
		}
	}
	return false
}

// OrderStatusAfterShipment is the order status written once a shipment of kind exists.
func OrderStatusAfterShipment(kind ShipmentKind) string {
	switch kind {
	case KindReverse:
		return OrderStatusReturnInitiated
	case KindReplacement:
		return OrderStatusReplacementInitiated
	default:
		return OrderStatusDispatched
	}
}

// ShipmentDetails is the subset of a shipment mirrored onto its order.
type ShipmentDetails struct {
	ShipmentID     string         `json:"shipment_id,omitempty" bson:"shipment_id,omitempty"`
	Waybills       []string       `json:"waybills" bson:"waybills"`
	PrimaryWaybill string         `json:"primary_waybill" bson:"primary_waybill"`
	Kind           ShipmentKind   `json:"kind" bson:"kind"`
	Status         string         `json:"status" bson:"status"`
	PickupLocation string         `json:"pickup_location" bson:"pickup_location"`
	PaymentMode    PaymentMode    `json:"payment_mode" bson:"payment_mode"`
	CODAmount      float64        `json:"cod_amount" bson:"cod_amount"`
	PickupRequest  *PickupOutcome `json:"pickup_request,omitempty" bson:"pickup_request,omitempty"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
}

// OrderItem is a line of the order used to describe the package contents.
type OrderItem struct {
	Name     string  `json:"name" bson:"name"`
	SKU      string  `json:"sku,omitempty" bson:"sku,omitempty"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Price    float64 `json:"price" bson:"price"`
}

// Order is owned by the order-management system; only shipment fields are written here.
type Order struct {
	ID                  string           `json:"id" bson:"_id"`
	Status              string           `json:"status" bson:"status"`
	Customer            CustomerSnapshot `json:"customer" bson:"customer"`
	Items               []OrderItem      `json:"items" bson:"items"`
	TotalAmount         float64          `json:"total_amount" bson:"total_amount"`
	PaymentMethod       string           `json:"payment_method" bson:"payment_method"`
	ShipmentCreated     bool             `json:"shipment_created" bson:"shipment_created"`
	ShipmentDetails     *ShipmentDetails `json:"shipment_details,omitempty" bson:"shipment_details,omitempty"`
	ReverseShipment     *ShipmentDetails `json:"reverse_shipment,omitempty" bson:"reverse_shipment,omitempty"`
	ReplacementShipment *ShipmentDetails `json:"replacement_shipment,omitempty" bson:"replacement_shipment,omitempty"`
	CreatedAt           time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" bson:"updated_at"`
}

// DetailsFor returns the embedded shipment details slot for kind.
func (o *Order) DetailsFor(kind ShipmentKind) *ShipmentDetails {
	switch kind {
	case KindReverse:
		return o.ReverseShipment
	case KindReplacement:
		return o.ReplacementShipment
	default:
		return o.ShipmentDetails
	}
}

// ProductDescription summarises the order items for the carrier manifest.
func (o *Order) ProductDescription() string {
	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if it.Name != "" {
			names = append(names, it.Name)
		}
	}
	if len(names) == 0 {
		return "Order " + o.ID
	}
	return strings.Join(names, ", ")
}
