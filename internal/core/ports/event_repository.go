package ports

import (
	"context"

	"github.com/storefront/logistics/internal/core/domain"
)

// ScanEventRepository persists carrier scan events to the audit collection.
type ScanEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.ScanEvent) error
}
