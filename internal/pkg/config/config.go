package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=production"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Delhivery DelhiveryConfig
	Waybill   WaybillConfig
	Pickup    PickupConfig
	Warehouse DefaultWarehouseConfig
	Cache     CacheConfig
	Events    EventsConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type DelhiveryConfig struct {
	Token             string        `env:"DELHIVERY_API_TOKEN"`
	BaseURL           string        `env:"DELHIVERY_BASE_URL,            default=https://track.delhivery.com"`
	Timeout           time.Duration `env:"DELHIVERY_TIMEOUT,             default=30s"`
	WaybillBatchSize  int           `env:"DELHIVERY_WAYBILL_BATCH_SIZE,  default=10000"`
	WaybillBatchDelay time.Duration `env:"DELHIVERY_WAYBILL_BATCH_DELAY, default=2s"`
	// Demo lets a development deployment without a token synthesise carrier replies.
	Demo              bool          `env:"CARRIER_DEMO,                  default=false"`
}

type WaybillConfig struct {
	MinStock          int           `env:"WAYBILL_MIN_STOCK,          default=100"`
	ReplenishInterval time.Duration `env:"WAYBILL_REPLENISH_INTERVAL, default=15m"`
	LockTTL           time.Duration `env:"WAYBILL_LOCK_TTL,           default=5m"`
}

type PickupConfig struct {
	Time string `env:"PICKUP_TIME, default=11:00:00"`
}

// DefaultWarehouseConfig is the last-resort pickup location used when neither the
// database nor the carrier knows any warehouse.
type DefaultWarehouseConfig struct {
	Name    string `env:"DEFAULT_WAREHOUSE_NAME,    default=Main Warehouse"`
	Address string `env:"DEFAULT_WAREHOUSE_ADDRESS, default=Main Road"`
	City    string `env:"DEFAULT_WAREHOUSE_CITY,    default=Kolkata"`
	State   string `env:"DEFAULT_WAREHOUSE_STATE,   default=West Bengal"`
	Pin     string `env:"DEFAULT_WAREHOUSE_PIN,     default=700001"`
	Phone   string `env:"DEFAULT_WAREHOUSE_PHONE,   default=9999999999"`
}

type CacheConfig struct {
	WarehouseTTL      time.Duration `env:"CACHE_WAREHOUSE_TTL,      default=10m"`
	ServiceabilityTTL time.Duration `env:"CACHE_SERVICEABILITY_TTL, default=6h"`
}

type EventsConfig struct {
	Workers  int           `env:"EVENT_WORKERS,   default=8"`
	DedupTTL time.Duration `env:"EVENT_DEDUP_TTL, default=1h"`
}

// IsDevelopment reports whether ENV names a development deployment.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// DemoCarrier reports whether demo carrier responses may be synthesised. It needs
// both CARRIER_DEMO and a development ENV.
func (c *Config) DemoCarrier() bool {
	return c.Delhivery.Demo && c.IsDevelopment()
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadContext(context.Background())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadContext is Load without the panic, for callers that report errors themselves.
func LoadContext(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
