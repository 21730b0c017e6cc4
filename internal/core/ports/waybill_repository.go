package ports

import (
	"context"
	"time"

	"github.com/storefront/logistics/internal/core/domain"
)

// WaybillTransition is a conditional status change: it only applies while the
// stored status is one of From.
type WaybillTransition struct {
	From       []domain.WaybillStatus
	To         domain.WaybillStatus
	ReservedBy string
	OrderID    string
	ShipmentID string
	At         time.Time
}

// WaybillRepository persists the local waybill pool. Every status change is a
// single filtered update so two callers can never move the same waybill.
type WaybillRepository interface {
	// InsertMany stores waybills unordered; duplicate keys are counted, not fatal.
	InsertMany(ctx context.Context, waybills []*domain.Waybill) (inserted, duplicates int, err error)
	// FindAvailable returns GENERATED waybills oldest first. An empty source matches all.
	FindAvailable(ctx context.Context, count int, source string) ([]*domain.Waybill, error)
	// ReserveMany moves the listed GENERATED waybills to RESERVED and returns the modified count.
	ReserveMany(ctx context.Context, numbers []string, reservedBy string, at time.Time) (int64, error)
	// ClaimNext atomically reserves the oldest GENERATED waybill.
	// It returns domain.ErrInsufficientWaybills when the pool is empty.
	ClaimNext(ctx context.Context, reservedBy string, at time.Time) (*domain.Waybill, error)
	// Transition applies t to number and reports whether a document changed.
	Transition(ctx context.Context, number string, t WaybillTransition) (bool, error)
	FindByNumber(ctx context.Context, number string) (*domain.Waybill, error)
	CountByStatus(ctx context.Context, status domain.WaybillStatus) (int64, error)
	Stats(ctx context.Context) (domain.WaybillStats, error)
}
