//go:build integration

package mongo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

type RepositoryIntegrationTestSuite struct {
	suite.Suite
	container *mongodb.MongoDBContainer
	client    *mongo.Client
	db        *mongo.Database
	ctx       context.Context

	orders     *OrderRepository
	shipments  *ShipmentRepository
	waybills   *WaybillRepository
	warehouses *WarehouseRepository
	users      *MongoAuthRepository
	events     *EventRepository
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := mongodb.Run(s.ctx, "mongo:6")
	s.Require().NoError(err)
	s.container = container

	uri, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)

	client, db, err := Connect(s.ctx, Config{URI: uri, Database: "logistics_test"})
	s.Require().NoError(err)
	s.client, s.db = client, db

	s.orders = NewOrderRepository(db)
	s.shipments = NewShipmentRepository(db)
	s.waybills = NewWaybillRepository(db)
	s.warehouses = NewWarehouseRepository(db)
	s.users = NewAuthRepository(db)
	s.events = NewEventRepository(db)
}

func (s *RepositoryIntegrationTestSuite) SetupTest() {
	s.Require().NoError(EnsureIndexes(s.ctx, s.orders, s.shipments, s.waybills, s.warehouses, s.users, s.events))
}

func (s *RepositoryIntegrationTestSuite) TearDownTest() {
	for _, c := range []string{collectionOrders, collectionShipments, collectionWaybills, collectionWarehouses, authCollection, collectionScanEvents} {
		_ = s.db.Collection(c).Drop(s.ctx)
	}
}

func (s *RepositoryIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.ctx))
	}
}

func TestRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}

func (s *RepositoryIntegrationTestSuite) seedWaybills(numbers ...string) {
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	docs := make([]*domain.Waybill, len(numbers))
	for i, n := range numbers {
		at := base.Add(time.Duration(i) * time.Second)
		docs[i] = &domain.Waybill{Number: n, Status: domain.WaybillGenerated, Source: domain.WaybillSourceBulk, GeneratedAt: at, CreatedAt: at, UpdatedAt: at}
	}
	_, _, err := s.waybills.InsertMany(s.ctx, docs)
	s.Require().NoError(err)
}

// ----------------------------------------------------------------------------
// Waybills
// ----------------------------------------------------------------------------

func (s *RepositoryIntegrationTestSuite) TestWaybills_InsertManyCountsDuplicates() {
	s.seedWaybills("W1", "W2")

	now := time.Now().UTC()
	inserted, dups, err := s.waybills.InsertMany(s.ctx, []*domain.Waybill{
		{Number: "W2", Status: domain.WaybillGenerated, GeneratedAt: now},
		{Number: "W3", Status: domain.WaybillGenerated, GeneratedAt: now},
	})
	s.Require().NoError(err)
	s.Equal(1, inserted)
	s.Equal(1, dups)

	n, err := s.waybills.CountByStatus(s.ctx, domain.WaybillGenerated)
	s.Require().NoError(err)
	s.EqualValues(3, n)
}

func (s *RepositoryIntegrationTestSuite) TestWaybills_ClaimNextIsExclusive() {
	numbers := make([]string, 10)
	for i := range numbers {
		numbers[i] = fmt.Sprintf("C%03d", i)
	}
	s.seedWaybills(numbers...)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		claimed = map[string]int{}
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := s.waybills.ClaimNext(s.ctx, fmt.Sprintf("order-%d", i), time.Now())
			if err != nil {
				return
			}
			mu.Lock()
			claimed[w.Number]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	s.Len(claimed, 10)
	for n, c := range claimed {
		s.Equalf(1, c, "waybill %s claimed %d times", n, c)
	}

	_, err := s.waybills.ClaimNext(s.ctx, "late", time.Now())
	s.ErrorIs(err, domain.ErrInsufficientWaybills)
}

func (s *RepositoryIntegrationTestSuite) TestWaybills_TransitionIsConditional() {
	s.seedWaybills("T1")

	ok, err := s.waybills.Transition(s.ctx, "T1", ports.WaybillTransition{
		From: []domain.WaybillStatus{domain.WaybillGenerated, domain.WaybillReserved},
		To:   domain.WaybillUsed, OrderID: "o-1", ShipmentID: "s-1",
	})
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.waybills.Transition(s.ctx, "T1", ports.WaybillTransition{
		From: []domain.WaybillStatus{domain.WaybillGenerated, domain.WaybillReserved},
		To:   domain.WaybillUsed, OrderID: "o-2",
	})
	s.Require().NoError(err)
	s.False(ok)

	w, err := s.waybills.FindByNumber(s.ctx, "T1")
	s.Require().NoError(err)
	s.Equal(domain.WaybillUsed, w.Status)
	s.Equal("o-1", w.OrderID)
	s.NotNil(w.UsedAt)
}

func (s *RepositoryIntegrationTestSuite) TestWaybills_ReserveAndStats() {
	s.seedWaybills("R1", "R2", "R3")

	avail, err := s.waybills.FindAvailable(s.ctx, 2, "")
	s.Require().NoError(err)
	s.Require().Len(avail, 2)
	s.Equal("R1", avail[0].Number)

	n, err := s.waybills.ReserveMany(s.ctx, []string{"R1", "R2"}, "batch", time.Now())
	s.Require().NoError(err)
	s.EqualValues(2, n)

	stats, err := s.waybills.Stats(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(3, stats.Total)
	s.EqualValues(1, stats.Available())
	s.EqualValues(2, stats.ByStatus[domain.WaybillReserved])
	s.EqualValues(3, stats.BySource[domain.WaybillSourceBulk])
}

// ----------------------------------------------------------------------------
// Shipments and orders
// ----------------------------------------------------------------------------

func (s *RepositoryIntegrationTestSuite) TestShipments_StatusHistoryAndLookup() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	sh := &domain.Shipment{
		ID: "S1", OrderID: "o-1", Waybills: []string{"M1", "C1"}, PrimaryWaybill: "M1",
		Kind: domain.KindMPS, Status: domain.StatusCreated, Active: true,
		Customer:      domain.CustomerSnapshot{Name: "Asha Rao"},
		StatusHistory: []domain.StatusHistoryEntry{{Status: domain.StatusCreated, Timestamp: now}},
		CreatedAt:     now, UpdatedAt: now,
	}
	s.Require().NoError(s.shipments.Create(s.ctx, sh))

	got, err := s.shipments.FindByWaybill(s.ctx, "C1")
	s.Require().NoError(err)
	s.Equal("S1", got.ID)

	s.Require().NoError(s.shipments.UpdateStatus(s.ctx, "S1", "In Transit", now, "scan"))
	got, err = s.shipments.FindByID(s.ctx, "S1")
	s.Require().NoError(err)
	s.Equal("In Transit", got.Status)
	s.Len(got.StatusHistory, 2)

	active, err := s.shipments.FindActiveByOrder(s.ctx, "o-1", domain.KindMPS)
	s.Require().NoError(err)
	s.Equal("S1", active.ID)

	items, total, err := s.shipments.List(s.ctx, ports.ListShipmentsFilter{Search: "asha", Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Len(items, 1)

	primaries, err := s.shipments.PrimaryWaybills(s.ctx, 5)
	s.Require().NoError(err)
	s.Equal([]string{"M1"}, primaries)

	_, err = s.shipments.FindByWaybill(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrShipmentNotFound)
}

func (s *RepositoryIntegrationTestSuite) TestOrders_ApplyShipmentOnObjectID() {
	oid := primitive.NewObjectID()
	_, err := s.db.Collection(collectionOrders).InsertOne(s.ctx, bson.M{"_id": oid, "status": "confirmed"})
	s.Require().NoError(err)

	details := domain.ShipmentDetails{Waybills: []string{"W1"}, PrimaryWaybill: "W1", Kind: domain.KindForward}
	s.Require().NoError(s.orders.ApplyShipment(s.ctx, oid.Hex(), details, domain.OrderStatusDispatched))

	o, err := s.orders.FindByID(s.ctx, oid.Hex())
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusDispatched, o.Status)
	s.True(o.ShipmentCreated)
	s.Require().NotNil(o.ShipmentDetails)
	s.Equal("W1", o.ShipmentDetails.PrimaryWaybill)

	err = s.orders.ApplyShipment(s.ctx, primitive.NewObjectID().Hex(), details, domain.OrderStatusDispatched)
	s.ErrorIs(err, domain.ErrOrderNotFound)
}

// ----------------------------------------------------------------------------
// Warehouses, operators, events
// ----------------------------------------------------------------------------

func (s *RepositoryIntegrationTestSuite) TestWarehouses_UniqueNameAndDefaultFirst() {
	now := time.Now().UTC()
	s.Require().NoError(s.warehouses.Create(s.ctx, &domain.Warehouse{Name: "A", Status: domain.WarehouseActive, CreatedAt: now}))
	s.Require().NoError(s.warehouses.Create(s.ctx, &domain.Warehouse{Name: "B", Status: domain.WarehouseActive, IsDefault: true, CreatedAt: now.Add(time.Second)}))

	err := s.warehouses.Create(s.ctx, &domain.Warehouse{Name: "A"})
	s.ErrorIs(err, domain.ErrWarehouseExists)

	first, err := s.warehouses.FindFirstActive(s.ctx)
	s.Require().NoError(err)
	s.Equal("B", first.Name)

	s.Require().NoError(s.warehouses.UpdateContact(s.ctx, "A", domain.WarehouseContactUpdate{Phone: "9999999999"}))
	a, err := s.warehouses.FindByName(s.ctx, "A")
	s.Require().NoError(err)
	s.Equal("9999999999", a.Phone)
}

func (s *RepositoryIntegrationTestSuite) TestUsers_CreateAndFind() {
	now := time.Now().UTC()
	u, err := s.users.Create(s.ctx, &domain.User{Username: "ops", PasswordHash: "h", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now})
	s.Require().NoError(err)
	s.NotEmpty(u.ID)

	_, err = s.users.Create(s.ctx, &domain.User{Username: "ops", Role: domain.RoleAdmin})
	s.ErrorIs(err, domain.ErrUserExists)

	_, err = s.users.FindByUsername(s.ctx, "nobody")
	s.ErrorIs(err, domain.ErrUserNotFound)
}

func (s *RepositoryIntegrationTestSuite) TestEvents_Insert() {
	err := s.events.InsertEvent(s.ctx, &domain.ScanEvent{Waybill: "W1", Status: "Manifested", Timestamp: time.Now(), Source: "webhook"})
	s.Require().NoError(err)

	n, err := s.db.Collection(collectionScanEvents).CountDocuments(s.ctx, bson.M{"waybill": "W1"})
	s.Require().NoError(err)
	s.EqualValues(1, n)
}
