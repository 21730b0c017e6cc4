package ports

import (
	"context"
	"time"
)

// ScanEventInput is the DTO passed from the transport layer to ScanEventService.
type ScanEventInput struct {
	Waybill   string
	Status    string
	Location  string
	Remarks   string
	Timestamp time.Time
	Source    string
}

// ScanEventService applies carrier scan pushes to shipments.
type ScanEventService interface {
	Process(ctx context.Context, event ScanEventInput) error
}
