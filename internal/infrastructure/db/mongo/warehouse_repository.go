package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

const collectionWarehouses = "warehouses"

var _ ports.WarehouseRepository = (*WarehouseRepository)(nil)

type WarehouseRepository struct {
	col *mongo.Collection
}

func NewWarehouseRepository(db *mongo.Database) *WarehouseRepository {
	return &WarehouseRepository{col: db.Collection(collectionWarehouses)}
}

func (r *WarehouseRepository) FindActiveByName(ctx context.Context, name string) (*domain.Warehouse, error) {
	return r.findOne(ctx, bson.M{"name": name, "status": domain.WarehouseActive}, options.FindOne())
}

func (r *WarehouseRepository) FindByName(ctx context.Context, name string) (*domain.Warehouse, error) {
	return r.findOne(ctx, bson.M{"name": name}, options.FindOne())
}

func (r *WarehouseRepository) FindFirstActive(ctx context.Context) (*domain.Warehouse, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "is_default", Value: -1}, {Key: "created_at", Value: 1}})
	return r.findOne(ctx, bson.M{"status": domain.WarehouseActive}, opts)
}

func (r *WarehouseRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.Warehouse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var w domain.Warehouse
	if err := r.col.FindOne(ctx, filter, opts).Decode(&w); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWarehouseNotFound
		}
		return nil, fmt.Errorf("find warehouse: %w", err)
	}
	return &w, nil
}

func (r *WarehouseRepository) ListActive(ctx context.Context) ([]domain.Warehouse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "is_default", Value: -1}, {Key: "name", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"status": domain.WarehouseActive}, opts)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Warehouse
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode warehouses: %w", err)
	}
	return out, nil
}

func (r *WarehouseRepository) Create(ctx context.Context, w *domain.Warehouse) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if w.ID == "" {
		w.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, w); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Errorf(domain.KindWarehouseExists, "warehouse %q already exists", w.Name).WithField("name")
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// UpdateContact sets only the non-empty fields of upd.
func (r *WarehouseRepository) UpdateContact(ctx context.Context, name string, upd domain.WarehouseContactUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Address != "" {
		set["address"] = upd.Address
	}
	if upd.Pin != "" {
		set["pin"] = upd.Pin
	}
	if upd.Phone != "" {
		set["phone"] = upd.Phone
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"name": name}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrWarehouseNotFound
	}
	return nil
}

func (r *WarehouseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "is_default", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
