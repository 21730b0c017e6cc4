package ports

import (
	"context"

	"github.com/storefront/logistics/internal/core/domain"
)

// WarehouseRepository persists registered pickup locations.
type WarehouseRepository interface {
	FindActiveByName(ctx context.Context, name string) (*domain.Warehouse, error)
	FindByName(ctx context.Context, name string) (*domain.Warehouse, error)
	// FindFirstActive prefers the default warehouse, then the oldest active one.
	FindFirstActive(ctx context.Context) (*domain.Warehouse, error)
	ListActive(ctx context.Context) ([]domain.Warehouse, error)
	Create(ctx context.Context, w *domain.Warehouse) error
	UpdateContact(ctx context.Context, name string, upd domain.WarehouseContactUpdate) error
}
