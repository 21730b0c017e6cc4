package ports

import (
	"context"
	"time"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
)

// PackageInput describes one physical package of a shipment.
type PackageInput struct {
	WeightGrams float64
	Dimensions  domain.Dimensions
	Description string
}

// CreateShipmentInput carries all data needed to create a new shipment.
type CreateShipmentInput struct {
	OrderID        string
	Kind           domain.ShipmentKind
	PickupLocation string
	// PaymentMode defaults to the order's payment method.
	PaymentMode string
	// CODAmount defaults to the order total for COD shipments.
	CODAmount     *float64
	Packages      []PackageInput
	ShippingMode  string
	Fragile       bool
	SellerInvoice string
	HSNCode       string
	// Customer overrides the order's consignee, e.g. a different return address.
	Customer   *domain.CustomerSnapshot
	SkipPickup bool
}

// CreateShipmentResult is returned by the orchestrator after a create or a
// duplicate-order recovery.
type CreateShipmentResult struct {
	Success         bool
	Recovered       bool
	Shipment        *domain.Shipment
	ShipmentDetails domain.ShipmentDetails
	CarrierResponse map[string]any
}

// ShipmentEditFields uses caller-facing names; nil means unchanged.
type ShipmentEditFields struct {
	CustomerName       *string
	Phone              *string
	Address            *string
	PaymentMode        *string
	CODAmount          *float64
	ProductDescription *string
	WeightGrams        *float64
	LengthCm           *float64
	WidthCm            *float64
	HeightCm           *float64
}

// UpdateShipmentInput names the shipment by any of its waybills.
type UpdateShipmentInput struct {
	Waybill string
	Fields  ShipmentEditFields
}

// Edit outcomes.
const (
	EditSuccess        = "success"
	EditPartialSuccess = "partial_success"
)

// UpdateShipmentResult reports which fields reached the carrier and which were
// only stored locally.
type UpdateShipmentResult struct {
	Status        string
	Applied       []string
	AppliedLocal  []string
	Skipped       []string
	Message       string
	CarrierStatus string
	Shipment      *domain.Shipment
}

// CancelShipmentResult is returned by CancelShipmentByWaybill.
type CancelShipmentResult struct {
	Waybill          string
	AlreadyCancelled bool
	// CancelledLocally is set when the carrier did not know the waybill.
	CancelledLocally bool
	Warning          string
	Shipment         *domain.Shipment
}

// TrackShipmentResult is the tracked view of one waybill. Tracking is nil when
// the carrier has no scans for it yet.
type TrackShipmentResult struct {
	Waybill       string
	Outcome       delhivery.TrackingOutcome
	Tracking      *delhivery.TrackedShipment
	CarrierError  string
	Shipment      *domain.Shipment
	StatusUpdated bool
}

// ShipmentDetailsView bundles what a UI needs to populate a shipment form.
type ShipmentDetailsView struct {
	Order            *domain.Order
	Shipments        []*domain.Shipment
	PickupLocations  []domain.Warehouse
	PickupSource     domain.WarehouseSource
	AvailableActions []string
}

// ListShipmentsResult is returned by ListShipments.
type ListShipmentsResult struct {
	Items      []*domain.Shipment
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// SchedulePickupInput requests a manual pickup. Empty date and time default to
// the next business day at the configured hour.
type SchedulePickupInput struct {
	PickupLocation string
	PickupDate     string
	PickupTime     string
	PackageCount   int
}

// ShipmentService defines use-case operations for shipments.
type ShipmentService interface {
	CreateShipment(ctx context.Context, input CreateShipmentInput) (*CreateShipmentResult, error)
	TrackShipment(ctx context.Context, waybill string) (*TrackShipmentResult, error)
	GetShipmentDetails(ctx context.Context, orderID string) (*ShipmentDetailsView, error)
	UpdateShipment(ctx context.Context, input UpdateShipmentInput) (*UpdateShipmentResult, error)
	CancelShipmentByWaybill(ctx context.Context, waybill string) (*CancelShipmentResult, error)
	GenerateShippingLabel(ctx context.Context, waybill string, opts delhivery.LabelOptions) (*delhivery.LabelResult, error)
	UpdateEwaybill(ctx context.Context, waybill string, upd delhivery.EwaybillUpdate) (*delhivery.EwaybillResult, error)
	ListShipments(ctx context.Context, filter ListShipmentsFilter) (*ListShipmentsResult, error)
	GetShipmentByID(ctx context.Context, id string) (*domain.Shipment, error)
	GetShipmentByWaybill(ctx context.Context, waybill string) (*domain.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, waybill, status, notes string, at time.Time) (*domain.Shipment, error)
	SchedulePickup(ctx context.Context, input SchedulePickupInput) domain.PickupOutcome
	CheckServiceability(ctx context.Context, pincode string) (delhivery.Serviceability, error)
	CheckHeavyServiceability(ctx context.Context, pincode string) (delhivery.HeavyServiceability, error)
}

// CarrierOrderService reads the carrier's view of the shipments created here.
type CarrierOrderService interface {
	ListCarrierOrders(ctx context.Context, f delhivery.OrderFilter) (*delhivery.OrderPage, error)
	SearchCarrierOrders(ctx context.Context, query string, limit int) (*delhivery.OrderPage, error)
	CarrierOrderAnalytics(ctx context.Context, f delhivery.OrderFilter) (*delhivery.OrderAnalytics, error)
}
