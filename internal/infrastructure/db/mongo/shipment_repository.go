package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

const collectionShipments = "shipments"

var _ ports.ShipmentRepository = (*ShipmentRepository)(nil)

type ShipmentRepository struct {
	col *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{col: db.Collection(collectionShipments)}
}

// Create inserts a new shipment document.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Errorf(domain.KindDuplicateShipment, "shipment %s already stored", s.ID).WithCause(err)
		}
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"_id": id}, options.FindOne())
}

// FindByWaybill matches the primary waybill and every MPS child.
func (r *ShipmentRepository) FindByWaybill(ctx context.Context, waybill string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"waybills": waybill}, options.FindOne())
}

func (r *ShipmentRepository) FindActiveByOrder(ctx context.Context, orderID string, kind domain.ShipmentKind) (*domain.Shipment, error) {
	filter := bson.M{"order_id": orderID, "active": true}
	if kind != "" {
		filter["kind"] = kind
	}
	return r.findOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *ShipmentRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Shipment
	if err := r.col.FindOne(ctx, filter, opts).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("find shipment: %w", err)
	}
	return &s, nil
}

// List returns one page of shipments, newest first, and the total match count.
func (r *ShipmentRepository) List(ctx context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list shipments: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]*domain.Shipment, 0, limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode shipments: %w", err)
	}
	return items, total, nil
}

func listFilter(f ports.ListShipmentsFilter) bson.M {
	filter := bson.M{}
	if f.OrderID != "" {
		filter["order_id"] = f.OrderID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Kind != "" {
		filter["kind"] = f.Kind
	}
	if f.PaymentMode != "" {
		filter["package.payment_mode"] = f.PaymentMode
	}
	if f.ActiveOnly {
		filter["active"] = true
	}
	if f.Search != "" {
		re := ciRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"waybills": re},
			bson.M{"customer.name": re},
			bson.M{"order_id": re},
		}
	}
	created := bson.M{}
	if !f.DateFrom.IsZero() {
		created["$gte"] = f.DateFrom.UTC()
	}
	if !f.DateTo.IsZero() {
		created["$lte"] = f.DateTo.UTC()
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

// ciRegex builds a case-insensitive literal match.
func ciRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

// UpdateStatus atomically sets the shipment status and appends a history entry.
func (r *ShipmentRepository) UpdateStatus(ctx context.Context, id, status string, ts time.Time, notes string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	entry := domain.StatusHistoryEntry{Status: status, Timestamp: ts.UTC(), Notes: notes}
	update := bson.M{
		"$set":  bson.M{"status": status, "updated_at": time.Now().UTC()},
		"$push": bson.M{"status_history": entry},
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update shipment status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

func (r *ShipmentRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

func (r *ShipmentRepository) PrimaryWaybills(ctx context.Context, limit int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"primary_waybill": 1}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("find waybills: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		PrimaryWaybill string `bson:"primary_waybill"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode waybills: %w", err)
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.PrimaryWaybill != "" {
			out = append(out, row.PrimaryWaybill)
		}
	}
	return out, nil
}

// EnsureIndexes creates necessary indexes on the shipments collection.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "waybills", Value: 1}}},
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "active", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
