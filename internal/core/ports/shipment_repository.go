package ports

import (
	"context"
	"time"

	"github.com/storefront/logistics/internal/core/domain"
)

// ListShipmentsFilter carries all query parameters for listing shipments.
type ListShipmentsFilter struct {
	OrderID     string    // optional: exact order id
	Status      string    // optional: exact status
	Kind        string    // optional: FORWARD, MPS, REVERSE, REPLACEMENT
	PaymentMode string    // optional: COD, Prepaid, ...
	Search      string    // optional: partial match on waybill or customer name
	DateFrom    time.Time // optional: created_at >= DateFrom
	DateTo      time.Time // optional: created_at <= DateTo
	ActiveOnly  bool
	Page        int // 1-based
	Limit       int // max rows per page (capped at 100 by service)
}

// ShipmentRepository defines persistence operations for shipments.
type ShipmentRepository interface {
	Create(ctx context.Context, s *domain.Shipment) error
	FindByID(ctx context.Context, id string) (*domain.Shipment, error)
	// FindByWaybill matches any of the shipment's waybills.
	FindByWaybill(ctx context.Context, waybill string) (*domain.Shipment, error)
	// FindActiveByOrder returns the newest active shipment of kind for the order.
	// An empty kind matches any kind.
	FindActiveByOrder(ctx context.Context, orderID string, kind domain.ShipmentKind) (*domain.Shipment, error)
	List(ctx context.Context, filter ListShipmentsFilter) ([]*domain.Shipment, int64, error)
	// UpdateStatus sets status and appends a history entry in one update.
	UpdateStatus(ctx context.Context, id, status string, ts time.Time, notes string) error
	// UpdateFields sets the given dotted bson paths.
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	// PrimaryWaybills returns the primary waybill of the newest active shipments.
	PrimaryWaybills(ctx context.Context, limit int) ([]string, error)
}
