package main

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
	"github.com/storefront/logistics/internal/core/service"
	"github.com/storefront/logistics/internal/infrastructure/db/mongo"
	"github.com/storefront/logistics/internal/infrastructure/db/redis"
	"github.com/storefront/logistics/internal/pkg/config"
	"github.com/storefront/logistics/pkg/logger"
)

var _ ports.Carrier = (*delhivery.Client)(nil)

const shutdownTimeout = 10 * time.Second

// app holds the connected clients and the services built on them.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	mongoClient *mongodriver.Client
	db          *mongodriver.Database
	rdb         *goredis.Client
	carrier     *delhivery.Client

	repos repositories

	auth       *service.AuthService
	waybills   *service.WaybillService
	warehouses *service.WarehouseService
	shipments  *service.ShipmentService
	dedup      *redis.DedupChecker
}

type repositories struct {
	shipments  *mongo.ShipmentRepository
	orders     *mongo.OrderRepository
	waybills   *mongo.WaybillRepository
	warehouses *mongo.WarehouseRepository
	users      *mongo.MongoAuthRepository
	events     *mongo.EventRepository
}

// newApp loads configuration, connects the stores and wires every service.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "shippingd"})

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}

	a := &app{cfg: cfg, log: log, mongoClient: mongoClient, db: db, rdb: rdb}
	a.wire()

	if !a.carrier.Configured() {
		if cfg.DemoCarrier() {
			log.Warn().Msg("carrier token missing; demo responses enabled")
		} else {
			log.Warn().Msg("carrier token missing; carrier operations will fail")
		}
	}
	return a, nil
}

func (a *app) wire() {
	cfg := a.cfg
	demo := cfg.DemoCarrier()

	a.carrier = delhivery.New(delhivery.Config{
		BaseURL:           cfg.Delhivery.BaseURL,
		Token:             cfg.Delhivery.Token,
		Timeout:           cfg.Delhivery.Timeout,
		WaybillBatchSize:  cfg.Delhivery.WaybillBatchSize,
		WaybillBatchDelay: cfg.Delhivery.WaybillBatchDelay,
	}, logger.Component("delhivery"))

	a.repos = repositories{
		shipments:  mongo.NewShipmentRepository(a.db),
		orders:     mongo.NewOrderRepository(a.db),
		waybills:   mongo.NewWaybillRepository(a.db),
		warehouses: mongo.NewWarehouseRepository(a.db),
		users:      mongo.NewAuthRepository(a.db),
		events:     mongo.NewEventRepository(a.db),
	}

	cache := redis.NewCarrierCache(a.rdb, cfg.Cache.WarehouseTTL, cfg.Cache.ServiceabilityTTL)
	locker := redis.NewLocker(a.rdb, cfg.Waybill.LockTTL)
	a.dedup = redis.NewDedupChecker(a.rdb, cfg.Events.DedupTTL)

	a.auth = service.NewAuthService(a.repos.users, cfg.JWTSecret, 0)
	a.waybills = service.NewWaybillService(a.repos.waybills, a.carrier, locker, demo, logger.Component("waybills"))

	resolver := service.NewWarehouseResolver(a.repos.warehouses, a.carrier, cache, fallbackWarehouse(cfg.Warehouse), logger.Component("warehouses"))
	a.warehouses = service.NewWarehouseService(resolver, a.repos.warehouses, a.carrier, demo, logger.Component("warehouses"))

	a.shipments = service.NewShipmentService(service.ShipmentDeps{
		Shipments:  a.repos.shipments,
		Orders:     a.repos.orders,
		Waybills:   a.waybills,
		Warehouses: a.warehouses,
		Carrier:    a.carrier,
		Cache:      cache,
	}, service.ShipmentConfig{
		Demo:       demo,
		PickupTime: cfg.Pickup.Time,
	}, logger.Component("shipments"))
}

func (a *app) ensureIndexes(ctx context.Context) error {
	r := a.repos
	return mongo.EnsureIndexes(ctx, r.shipments, r.orders, r.waybills, r.warehouses, r.users, r.events)
}

func fallbackWarehouse(c config.DefaultWarehouseConfig) domain.Warehouse {
	return domain.Warehouse{
		Name:          c.Name,
		Phone:         c.Phone,
		Address:       c.Address,
		City:          c.City,
		State:         c.State,
		Pin:           c.Pin,
		Country:       "India",
		Status:        domain.WarehouseActive,
		ReturnAddress: c.Address,
		ReturnPin:     c.Pin,
		ReturnCity:    c.City,
		ReturnState:   c.State,
	}
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.rdb.Close(); err != nil {
		a.log.Warn().Err(err).Msg("redis close failed")
	}
	if err := a.mongoClient.Disconnect(ctx); err != nil {
		a.log.Warn().Err(err).Msg("mongo disconnect failed")
	}
}
