package ports

import (
	"context"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
)

// Carrier is the outbound carrier API used by the core services.
// *delhivery.Client satisfies it.
type Carrier interface {
	Configured() bool

	CreateShipment(ctx context.Context, payload delhivery.ShipmentPayload) (*delhivery.CreateResult, error)
	GenerateWaybills(ctx context.Context, count int) ([]string, error)
	TrackShipment(ctx context.Context, waybill string) (*delhivery.TrackingResult, error)
	TrackShipmentEnhanced(ctx context.Context, waybills, refIDs []string) (*delhivery.TrackingResult, error)
	EditShipment(ctx context.Context, req delhivery.EditRequest) (*delhivery.EditResult, error)
	CancelShipment(ctx context.Context, waybill string) (*delhivery.CancelResult, error)

	CheckPincodeServiceability(ctx context.Context, pincode string) (delhivery.Serviceability, error)
	CheckHeavyServiceability(ctx context.Context, pincode string) (delhivery.HeavyServiceability, error)

	FetchWarehouses(ctx context.Context) (*delhivery.WarehouseList, error)
	RegisterWarehouse(ctx context.Context, reg delhivery.WarehouseRegistration) (*delhivery.WarehouseResult, error)
	UpdateWarehouse(ctx context.Context, name string, upd domain.WarehouseContactUpdate) (*delhivery.WarehouseResult, error)

	CreatePickupRequest(ctx context.Context, req delhivery.PickupRequest) (*delhivery.PickupResult, error)
	UpdateEwaybill(ctx context.Context, waybill string, upd delhivery.EwaybillUpdate) (*delhivery.EwaybillResult, error)
	GenerateShippingLabel(ctx context.Context, waybill string, opts delhivery.LabelOptions) (*delhivery.LabelResult, error)

	FetchOrders(ctx context.Context, waybills []string, f delhivery.OrderFilter) (*delhivery.OrderPage, error)
	SearchOrders(ctx context.Context, waybills []string, query string, limit int) (*delhivery.OrderPage, error)
	GetOrderAnalytics(ctx context.Context, waybills []string, f delhivery.OrderFilter) (*delhivery.OrderAnalytics, error)
}

// CarrierCache keeps short-lived copies of carrier lookups.
// A miss is reported with ok=false and a nil error.
type CarrierCache interface {
	GetServiceability(ctx context.Context, pincode string) (s delhivery.Serviceability, ok bool, err error)
	SetServiceability(ctx context.Context, s delhivery.Serviceability) error
	GetWarehouses(ctx context.Context) (ws []domain.Warehouse, ok bool, err error)
	SetWarehouses(ctx context.Context, ws []domain.Warehouse) error
}

// Locker hands out short exclusive leases across replicas.
type Locker interface {
	// TryLock returns ok=false when another holder owns key. The returned
	// release func is a no-op when ok is false.
	TryLock(ctx context.Context, key string) (release func(context.Context) error, ok bool, err error)
}
