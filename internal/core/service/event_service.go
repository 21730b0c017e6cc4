package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
	"github.com/storefront/logistics/internal/pkg/metrics"
)

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, waybill, status string, ts time.Time) (bool, error)
	Mark(ctx context.Context, waybill, status string, ts time.Time) error
}

// statusUpdater applies a status to the shipment owning a waybill.
type statusUpdater interface {
	UpdateShipmentStatus(ctx context.Context, waybill, status, notes string, at time.Time) (*domain.Shipment, error)
}

type scanEventService struct {
	shipments statusUpdater
	eventRepo ports.ScanEventRepository
	dedup     DedupChecker
	log       zerolog.Logger
}

// NewScanEventService returns a ScanEventService implementation.
func NewScanEventService(
	shipments statusUpdater,
	eventRepo ports.ScanEventRepository,
	dedup DedupChecker,
	log zerolog.Logger,
) ports.ScanEventService {
	return &scanEventService{
		shipments: shipments,
		eventRepo: eventRepo,
		dedup:     dedup,
		log:       log,
	}
}

// Process deduplicates a scan push, applies it to the shipment and records it
// in the audit trail.
func (s *scanEventService) Process(ctx context.Context, in ports.ScanEventInput) error {
	in.Waybill = strings.TrimSpace(in.Waybill)
	in.Status = strings.TrimSpace(in.Status)
	if in.Waybill == "" || in.Status == "" {
		metrics.EventsErrorsTotal.WithLabelValues("validation").Inc()
		return domain.NewError(domain.KindValidation, "waybill and status are required").WithField("waybill")
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}

	// 1. Idempotency check; duplicates are skipped silently.
	isDup, err := s.dedup.IsDuplicate(ctx, in.Waybill, in.Status, in.Timestamp)
	if err != nil {
		s.log.Warn().Err(err).Str("waybill", in.Waybill).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.EventsDedupTotal.WithLabelValues("duplicate").Inc()
		s.log.Debug().Str("waybill", in.Waybill).Str("status", in.Status).Msg("duplicate scan skipped")
		return nil
	}
	metrics.EventsDedupTotal.WithLabelValues("new").Inc()

	// 2. Apply to the shipment; terminal shipments refuse new statuses.
	if _, err := s.shipments.UpdateShipmentStatus(ctx, in.Waybill, in.Status, scanNotes(in), in.Timestamp); err != nil {
		metrics.EventsErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		return fmt.Errorf("process scan: %w", err)
	}

	// 3. Mark after the write; replaying the same status is a no-op anyway.
	if markErr := s.dedup.Mark(ctx, in.Waybill, in.Status, in.Timestamp); markErr != nil {
		s.log.Warn().Err(markErr).Str("waybill", in.Waybill).Msg("failed to set dedup key")
	}

	// 4. Audit trail (non-fatal on failure).
	audit := &domain.ScanEvent{
		Waybill:   in.Waybill,
		Status:    in.Status,
		Location:  in.Location,
		Remarks:   in.Remarks,
		Timestamp: in.Timestamp,
		Source:    in.Source,
	}
	if err := s.eventRepo.InsertEvent(ctx, audit); err != nil {
		s.log.Warn().Err(err).Str("waybill", in.Waybill).Msg("failed to insert audit event")
	}

	source := in.Source
	if source == "" {
		source = "unknown"
	}
	metrics.EventsProcessedTotal.WithLabelValues(source).Inc()
	s.log.Info().
		Str("waybill", in.Waybill).
		Str("status", in.Status).
		Str("source", in.Source).
		Msg("scan processed")
	return nil
}

func scanNotes(in ports.ScanEventInput) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{in.Source, in.Location, in.Remarks} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " | ")
}

func errorReason(err error) string {
	if kind := domain.KindOf(err); kind != "" {
		return strings.ToLower(string(kind))
	}
	return "internal"
}
