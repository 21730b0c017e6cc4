package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/logistics/internal/core/domain"
)

const collectionOrders = "orders"

// OrderRepository reads storefront orders and writes only their shipment fields.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders)}
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var o domain.Order
	if err := r.col.FindOne(ctx, idFilter(id)).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &o, nil
}

// ApplyShipment stores details in the slot for its kind and moves the order status.
func (r *OrderRepository) ApplyShipment(ctx context.Context, orderID string, details domain.ShipmentDetails, orderStatus string) error {
	set := bson.M{
		slotField(details.Kind): details,
		"status":                orderStatus,
		"updated_at":            time.Now().UTC(),
	}
	if details.Kind == domain.KindForward || details.Kind == domain.KindMPS {
		set["shipment_created"] = true
	}
	return r.update(ctx, orderID, set)
}

func (r *OrderRepository) SaveShipmentDetails(ctx context.Context, orderID string, details domain.ShipmentDetails, shipmentCreated *bool) error {
	set := bson.M{
		slotField(details.Kind): details,
		"updated_at":            time.Now().UTC(),
	}
	if shipmentCreated != nil {
		set["shipment_created"] = *shipmentCreated
	}
	return r.update(ctx, orderID, set)
}

func (r *OrderRepository) update(ctx context.Context, orderID string, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, idFilter(orderID), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// slotField is the order field holding the shipment of kind.
func slotField(kind domain.ShipmentKind) string {
	switch kind {
	case domain.KindReverse:
		return "reverse_shipment"
	case domain.KindReplacement:
		return "replacement_shipment"
	default:
		return "shipment_details"
	}
}

// EnsureIndexes is a no-op: the orders collection belongs to the storefront.
func (r *OrderRepository) EnsureIndexes(context.Context) error {
	return nil
}
