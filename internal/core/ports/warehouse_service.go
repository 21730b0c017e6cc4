package ports

import (
	"context"

	"github.com/storefront/logistics/internal/core/domain"
)

// RegisterWarehouseInput carries a new pickup location.
type RegisterWarehouseInput struct {
	Name          string
	Email         string
	Phone         string
	Address       string
	City          string
	State         string
	Pin           string
	Country       string
	ReturnAddress string
	ReturnPin     string
	ReturnCity    string
	ReturnState   string
	ReturnCountry string
	IsDefault     bool
}

// WarehouseListing is the active set and where it came from.
type WarehouseListing struct {
	Warehouses []domain.Warehouse
	Source     domain.WarehouseSource
}

// WarehouseService resolves and manages pickup locations.
type WarehouseService interface {
	ActiveWarehouses(ctx context.Context) (*WarehouseListing, error)
	GetWarehouseByName(ctx context.Context, name string) (*domain.Warehouse, error)
	Register(ctx context.Context, input RegisterWarehouseInput) (*domain.Warehouse, error)
	Update(ctx context.Context, name string, upd domain.WarehouseContactUpdate) (*domain.Warehouse, error)
}
