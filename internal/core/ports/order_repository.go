package ports

import (
	"context"

	"github.com/storefront/logistics/internal/core/domain"
)

// OrderRepository reads orders and writes only their shipment fields.
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// ApplyShipment stores details in the slot for details.Kind, sets the order
	// status and, for forward and MPS shipments, marks shipment_created.
	ApplyShipment(ctx context.Context, orderID string, details domain.ShipmentDetails, orderStatus string) error
	// SaveShipmentDetails overwrites the slot for details.Kind. A non-nil
	// shipmentCreated also updates that flag.
	SaveShipmentDetails(ctx context.Context, orderID string, details domain.ShipmentDetails, shipmentCreated *bool) error
}
