package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
	"github.com/storefront/logistics/internal/pkg/metrics"
)

// warehouseStrategy is one tier of name resolution. found=false passes the
// lookup to the next tier.
type warehouseStrategy struct {
	name   string
	lookup func(ctx context.Context, name string) (w *domain.Warehouse, found bool)
}

// WarehouseResolver finds pickup locations by trying, in order, the local
// collection, the carrier's live list, any local active warehouse and finally
// the configured default.
type WarehouseResolver struct {
	repo       ports.WarehouseRepository
	carrier    ports.Carrier
	cache      ports.CarrierCache
	fallback   domain.Warehouse
	group      singleflight.Group
	strategies []warehouseStrategy
	log        zerolog.Logger
}

// NewWarehouseResolver builds a resolver. cache may be nil.
func NewWarehouseResolver(
	repo ports.WarehouseRepository,
	carrier ports.Carrier,
	cache ports.CarrierCache,
	fallback domain.Warehouse,
	log zerolog.Logger,
) *WarehouseResolver {
	r := &WarehouseResolver{
		repo:     repo,
		carrier:  carrier,
		cache:    cache,
		fallback: fallback,
		log:      log,
	}
	r.strategies = []warehouseStrategy{
		{name: "local_exact", lookup: r.localExact},
		{name: "carrier_live", lookup: r.carrierLive},
		{name: "local_first_active", lookup: r.localFirstActive},
		{name: "configured_default", lookup: r.configuredDefault},
	}
	return r
}

// GetWarehouseByName resolves name through every tier in order.
func (r *WarehouseResolver) GetWarehouseByName(ctx context.Context, name string) (*domain.Warehouse, error) {
	name = strings.TrimSpace(name)
	for _, st := range r.strategies {
		w, found := st.lookup(ctx, name)
		if !found {
			continue
		}
		if w.Name != name {
			r.log.Info().Str("requested", name).Str("resolved", w.Name).Str("tier", st.name).Msg("pickup location resolved by fallback")
		}
		return w, nil
	}
	return nil, domain.Errorf(domain.KindWarehouseNotFound, "warehouse %q not found", name).WithField("pickup_location")
}

// ActiveWarehouses returns the local active set when it is non-empty. The
// carrier is only consulted when nothing is stored locally.
func (r *WarehouseResolver) ActiveWarehouses(ctx context.Context) (*ports.WarehouseListing, error) {
	local, err := r.repo.ListActive(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("local warehouse list failed")
	}
	if len(local) > 0 {
		for i := range local {
			local[i].Source = domain.SourceDatabase
		}
		return &ports.WarehouseListing{Warehouses: local, Source: domain.SourceDatabase}, nil
	}

	ws, source, err := r.carrierWarehouses(ctx)
	if err == nil && len(ws) > 0 {
		return &ports.WarehouseListing{Warehouses: ws, Source: source}, nil
	}
	if err != nil && !errors.Is(err, delhivery.ErrNotConfigured) {
		r.log.Warn().Err(err).Msg("carrier warehouse list failed")
	}

	def := r.defaultWarehouse()
	return &ports.WarehouseListing{Warehouses: []domain.Warehouse{*def}, Source: domain.SourceDefault}, nil
}

func (r *WarehouseResolver) localExact(ctx context.Context, name string) (*domain.Warehouse, bool) {
	if name == "" {
		return nil, false
	}
	w, err := r.repo.FindActiveByName(ctx, name)
	if err != nil {
		if !errors.Is(err, domain.ErrWarehouseNotFound) {
			r.log.Warn().Err(err).Str("name", name).Msg("local warehouse lookup failed")
		}
		return nil, false
	}
	w.Source = domain.SourceDatabase
	return w, true
}

// carrierLive matches case-insensitively, and only against real carrier data.
func (r *WarehouseResolver) carrierLive(ctx context.Context, name string) (*domain.Warehouse, bool) {
	if name == "" {
		return nil, false
	}
	ws, source, err := r.carrierWarehouses(ctx)
	if err != nil {
		if !errors.Is(err, delhivery.ErrNotConfigured) {
			r.log.Warn().Err(err).Str("name", name).Msg("carrier warehouse lookup failed")
		}
		return nil, false
	}
	if !source.IsLive() {
		return nil, false
	}
	for i := range ws {
		if strings.EqualFold(strings.TrimSpace(ws[i].Name), name) {
			w := ws[i]
			return &w, true
		}
	}
	return nil, false
}

func (r *WarehouseResolver) localFirstActive(ctx context.Context, _ string) (*domain.Warehouse, bool) {
	w, err := r.repo.FindFirstActive(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrWarehouseNotFound) {
			r.log.Warn().Err(err).Msg("local active warehouse lookup failed")
		}
		return nil, false
	}
	w.Source = domain.SourceDatabase
	return w, true
}

func (r *WarehouseResolver) configuredDefault(_ context.Context, _ string) (*domain.Warehouse, bool) {
	if strings.TrimSpace(r.fallback.Name) == "" {
		return nil, false
	}
	return r.defaultWarehouse(), true
}

func (r *WarehouseResolver) defaultWarehouse() *domain.Warehouse {
	w := r.fallback
	w.Source = domain.SourceDefault
	if w.Status == "" {
		w.Status = domain.WarehouseActive
	}
	if w.Country == "" {
		w.Country = "India"
	}
	return &w
}

// carrierWarehouses returns the carrier's list, served from cache when fresh.
// Concurrent misses share one carrier call. Only live lists are cached.
func (r *WarehouseResolver) carrierWarehouses(ctx context.Context) ([]domain.Warehouse, domain.WarehouseSource, error) {
	if r.cache != nil {
		ws, ok, err := r.cache.GetWarehouses(ctx)
		if err != nil {
			r.log.Warn().Err(err).Msg("warehouse cache read failed")
		}
		if ok {
			metrics.CacheLookupsTotal.WithLabelValues("warehouses", "hit").Inc()
			return ws, domain.SourceCarrier, nil
		}
		metrics.CacheLookupsTotal.WithLabelValues("warehouses", "miss").Inc()
	}

	v, err, _ := r.group.Do("carrier-warehouses", func() (any, error) {
		return r.carrier.FetchWarehouses(ctx)
	})
	if err != nil {
		return nil, "", err
	}
	list := v.(*delhivery.WarehouseList)

	out := make([]domain.Warehouse, len(list.Warehouses))
	copy(out, list.Warehouses)
	for i := range out {
		out[i].Source = list.Source
	}
	if r.cache != nil && list.Source.IsLive() && len(out) > 0 {
		if err := r.cache.SetWarehouses(ctx, out); err != nil {
			r.log.Warn().Err(err).Msg("warehouse cache write failed")
		}
	}
	return out, list.Source, nil
}
