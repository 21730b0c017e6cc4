package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

const collectionWaybills = "waybills"

var _ ports.WaybillRepository = (*WaybillRepository)(nil)

// WaybillRepository stores the local waybill pool. A unique index on the
// number makes the pool a set.
type WaybillRepository struct {
	col *mongo.Collection
}

func NewWaybillRepository(db *mongo.Database) *WaybillRepository {
	return &WaybillRepository{col: db.Collection(collectionWaybills)}
}

// InsertMany writes unordered so one duplicate does not stop the batch.
func (r *WaybillRepository) InsertMany(ctx context.Context, waybills []*domain.Waybill) (int, int, error) {
	if len(waybills) == 0 {
		return 0, 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	docs := make([]any, len(waybills))
	for i, w := range waybills {
		docs[i] = w
	}

	_, err := r.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(docs), 0, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return 0, 0, fmt.Errorf("insert waybills: %w", err)
	}
	duplicates := 0
	for _, we := range bwe.WriteErrors {
		if !isDuplicateKeyCode(we.Code) {
			return len(docs) - len(bwe.WriteErrors), duplicates, fmt.Errorf("insert waybills: %w", err)
		}
		duplicates++
	}
	return len(docs) - duplicates, duplicates, nil
}

// isDuplicateKeyCode covers the codes servers use for unique index violations.
func isDuplicateKeyCode(code int) bool {
	return code == 11000 || code == 11001 || code == 12582
}

func (r *WaybillRepository) FindAvailable(ctx context.Context, count int, source string) ([]*domain.Waybill, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"status": domain.WaybillGenerated}
	if source != "" {
		filter["source"] = source
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "generated_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(count))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find available waybills: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]*domain.Waybill, 0, count)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode waybills: %w", err)
	}
	return out, nil
}

func (r *WaybillRepository) ReserveMany(ctx context.Context, numbers []string, reservedBy string, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"waybill": bson.M{"$in": numbers}, "status": domain.WaybillGenerated}
	update := bson.M{"$set": bson.M{
		"status":      domain.WaybillReserved,
		"reserved_by": reservedBy,
		"reserved_at": at.UTC(),
		"updated_at":  at.UTC(),
	}}
	res, err := r.col.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("reserve waybills: %w", err)
	}
	return res.ModifiedCount, nil
}

// ClaimNext reserves the oldest GENERATED waybill in a single findAndModify.
func (r *WaybillRepository) ClaimNext(ctx context.Context, reservedBy string, at time.Time) (*domain.Waybill, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":      domain.WaybillReserved,
		"reserved_by": reservedBy,
		"reserved_at": at.UTC(),
		"updated_at":  at.UTC(),
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "generated_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetReturnDocument(options.After)

	var w domain.Waybill
	err := r.col.FindOneAndUpdate(ctx, bson.M{"status": domain.WaybillGenerated}, update, opts).Decode(&w)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInsufficientWaybills
		}
		return nil, fmt.Errorf("claim waybill: %w", err)
	}
	return &w, nil
}

// Transition is a compare-and-set on the waybill status.
func (r *WaybillRepository) Transition(ctx context.Context, number string, t ports.WaybillTransition) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	at := t.At.UTC()
	if t.At.IsZero() {
		at = time.Now().UTC()
	}
	set := bson.M{"status": t.To, "updated_at": at}
	switch t.To {
	case domain.WaybillReserved:
		set["reserved_by"] = t.ReservedBy
		set["reserved_at"] = at
	case domain.WaybillUsed:
		set["used_at"] = at
		if t.OrderID != "" {
			set["order_id"] = t.OrderID
		}
		if t.ShipmentID != "" {
			set["shipment_id"] = t.ShipmentID
		}
	case domain.WaybillCancelled:
		set["cancelled_at"] = at
	}

	filter := bson.M{"waybill": number, "status": bson.M{"$in": t.From}}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("transition waybill %s: %w", number, err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *WaybillRepository) FindByNumber(ctx context.Context, number string) (*domain.Waybill, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var w domain.Waybill
	if err := r.col.FindOne(ctx, bson.M{"waybill": number}).Decode(&w); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWaybillNotFound
		}
		return nil, fmt.Errorf("find waybill: %w", err)
	}
	return &w, nil
}

func (r *WaybillRepository) CountByStatus(ctx context.Context, status domain.WaybillStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("count waybills: %w", err)
	}
	return n, nil
}

// Stats groups the pool by status and by source in one aggregation.
func (r *WaybillRepository) Stats(ctx context.Context) (domain.WaybillStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"by_status": bson.A{bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
			"by_source": bson.A{bson.M{"$group": bson.M{"_id": "$source", "count": bson.M{"$sum": 1}}}},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.WaybillStats{}, fmt.Errorf("aggregate waybills: %w", err)
	}
	defer cur.Close(ctx)

	type bucket struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	var rows []struct {
		ByStatus []bucket `bson:"by_status"`
		BySource []bucket `bson:"by_source"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domain.WaybillStats{}, fmt.Errorf("decode waybill stats: %w", err)
	}

	stats := domain.WaybillStats{
		ByStatus: make(map[domain.WaybillStatus]int64),
		BySource: make(map[string]int64),
	}
	if len(rows) == 0 {
		return stats, nil
	}
	for _, b := range rows[0].ByStatus {
		stats.ByStatus[domain.WaybillStatus(b.Key)] = b.Count
		stats.Total += b.Count
	}
	for _, b := range rows[0].BySource {
		stats.BySource[b.Key] = b.Count
	}
	return stats, nil
}

func (r *WaybillRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "waybill", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "generated_at", Value: 1}}},
		{Keys: bson.D{{Key: "order_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
