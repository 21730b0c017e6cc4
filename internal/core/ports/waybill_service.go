package ports

import (
	"context"

	"github.com/storefront/logistics/internal/core/domain"
)

// GenerateWaybillsResult summarises one generation batch.
type GenerateWaybillsResult struct {
	BatchID    string `json:"batch_id"`
	Source     string `json:"source"`
	Requested  int    `json:"requested"`
	Received   int    `json:"received"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Demo       bool   `json:"demo,omitempty"`
}

// ReserveResult reports how many of the requested waybills were reserved.
// Complete is true only when every requested waybill moved.
type ReserveResult struct {
	Requested int   `json:"requested"`
	Reserved  int64 `json:"reserved"`
	Complete  bool  `json:"complete"`
}

// StockResult is returned by EnsureMinimumStock.
type StockResult struct {
	Available int64                   `json:"available"`
	MinStock  int                     `json:"min_stock"`
	Generated *GenerateWaybillsResult `json:"generated,omitempty"`
	// Skipped is set when another replica holds the replenishment lock.
	Skipped bool `json:"skipped,omitempty"`
}

// WaybillService manages the local waybill pool.
type WaybillService interface {
	GenerateAndStore(ctx context.Context, count int, source string) (*GenerateWaybillsResult, error)
	GetAvailable(ctx context.Context, count int, source string) ([]*domain.Waybill, error)
	Reserve(ctx context.Context, numbers []string, reservedBy string) (*ReserveResult, error)
	Acquire(ctx context.Context, count int, reservedBy string) ([]string, error)
	Use(ctx context.Context, number, orderID, shipmentID string) error
	Cancel(ctx context.Context, number string) error
	EnsureMinimumStock(ctx context.Context, minStock int) (*StockResult, error)
	Stats(ctx context.Context) (domain.WaybillStats, error)
}
