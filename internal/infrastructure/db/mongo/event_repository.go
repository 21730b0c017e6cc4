package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

const collectionScanEvents = "status_events"

var _ ports.ScanEventRepository = (*EventRepository)(nil)

// EventRepository writes carrier scans to the status_events audit collection.
type EventRepository struct {
	col *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{col: db.Collection(collectionScanEvents)}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.ScanEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"waybill":      event.Waybill,
		"status":       event.Status,
		"timestamp":    event.Timestamp.UTC(),
		"source":       event.Source,
		"processed_at": time.Now().UTC(),
	}
	if event.Location != "" {
		doc["location"] = event.Location
	}
	if event.Remarks != "" {
		doc["remarks"] = event.Remarks
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert scan event: %w", err)
	}
	return nil
}

func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "waybill", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}
