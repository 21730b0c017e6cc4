package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
	"github.com/storefront/logistics/internal/pkg/metrics"
)

const (
	keyWarehouses         = "carrier:warehouses"
	keyServiceabilityFmt  = "carrier:serviceability:%s"
	defaultWarehouseTTL   = 10 * time.Minute
	defaultServiceableTTL = 6 * time.Hour
)

var _ ports.CarrierCache = (*CarrierCache)(nil)

// CarrierCache stores carrier lookups as JSON with a per-kind TTL. Hits and
// misses are counted by the callers; only backend errors are counted here.
type CarrierCache struct {
	client            *redis.Client
	warehouseTTL      time.Duration
	serviceabilityTTL time.Duration
}

func NewCarrierCache(client *redis.Client, warehouseTTL, serviceabilityTTL time.Duration) *CarrierCache {
	if warehouseTTL <= 0 {
		warehouseTTL = defaultWarehouseTTL
	}
	if serviceabilityTTL <= 0 {
		serviceabilityTTL = defaultServiceableTTL
	}
	return &CarrierCache{client: client, warehouseTTL: warehouseTTL, serviceabilityTTL: serviceabilityTTL}
}

func (c *CarrierCache) GetServiceability(ctx context.Context, pincode string) (delhivery.Serviceability, bool, error) {
	var s delhivery.Serviceability
	ok, err := c.get(ctx, "serviceability", fmt.Sprintf(keyServiceabilityFmt, pincode), &s)
	return s, ok, err
}

func (c *CarrierCache) SetServiceability(ctx context.Context, s delhivery.Serviceability) error {
	return c.set(ctx, fmt.Sprintf(keyServiceabilityFmt, s.Pincode), s, c.serviceabilityTTL)
}

func (c *CarrierCache) GetWarehouses(ctx context.Context) ([]domain.Warehouse, bool, error) {
	var ws []domain.Warehouse
	ok, err := c.get(ctx, "warehouses", keyWarehouses, &ws)
	return ws, ok, err
}

func (c *CarrierCache) SetWarehouses(ctx context.Context, ws []domain.Warehouse) error {
	return c.set(ctx, keyWarehouses, ws, c.warehouseTTL)
}

func (c *CarrierCache) get(ctx context.Context, name, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues(name, "error").Inc()
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A stale shape is treated as a miss and overwritten on the next set.
		return false, nil
	}
	return true, nil
}

func (c *CarrierCache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}
