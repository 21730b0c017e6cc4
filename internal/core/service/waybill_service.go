package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
	"github.com/storefront/logistics/internal/pkg/metrics"
)

// replenishLockKey guards EnsureMinimumStock across replicas.
const replenishLockKey = "waybills:replenish"

var _ ports.WaybillService = (*WaybillService)(nil)

// WaybillService keeps a local buffer of carrier waybills so shipment creation
// does not depend on the carrier's generation endpoint being up.
type WaybillService struct {
	repo    ports.WaybillRepository
	carrier ports.Carrier
	locker  ports.Locker
	demo    bool
	log     zerolog.Logger
	now     func() time.Time
}

// NewWaybillService builds the pool manager. locker may be nil on a single
// replica. demo enables the deterministic generator when the carrier is not
// configured.
func NewWaybillService(repo ports.WaybillRepository, carrier ports.Carrier, locker ports.Locker, demo bool, log zerolog.Logger) *WaybillService {
	return &WaybillService{
		repo:    repo,
		carrier: carrier,
		locker:  locker,
		demo:    demo,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GenerateAndStore obtains count waybills and stores them as GENERATED.
// Duplicate keys are counted and logged; they do not fail the batch.
func (s *WaybillService) GenerateAndStore(ctx context.Context, count int, source string) (*ports.GenerateWaybillsResult, error) {
	if count <= 0 {
		return nil, domain.NewError(domain.KindValidation, "count must be positive").WithField("count")
	}
	if source == "" {
		source = domain.WaybillSourceBulk
		if count == 1 {
			source = domain.WaybillSourceSingle
		}
	}

	numbers, demo, err := s.obtain(ctx, count)
	if err != nil {
		return nil, err
	}
	if demo {
		source = domain.WaybillSourceDemo
	}

	res := &ports.GenerateWaybillsResult{
		BatchID:   uuid.NewString(),
		Source:    source,
		Requested: count,
		Received:  len(numbers),
		Demo:      demo,
	}
	if len(numbers) == 0 {
		return res, nil
	}

	now := s.now()
	docs := make([]*domain.Waybill, 0, len(numbers))
	for _, n := range numbers {
		docs = append(docs, &domain.Waybill{
			Number:      n,
			Status:      domain.WaybillGenerated,
			Source:      source,
			BatchID:     res.BatchID,
			GeneratedAt: now,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	inserted, dups, err := s.repo.InsertMany(ctx, docs)
	res.Inserted, res.Duplicates = inserted, dups
	if inserted > 0 {
		metrics.WaybillsGeneratedTotal.WithLabelValues(source).Add(float64(inserted))
	}
	if err != nil {
		s.log.Error().Err(err).Str("batch_id", res.BatchID).Int("inserted", inserted).Msg("waybill batch partially stored")
		return res, fmt.Errorf("store waybills: %w", err)
	}
	if dups > 0 {
		s.log.Warn().Str("batch_id", res.BatchID).Int("duplicates", dups).Msg("duplicate waybills skipped")
	}

	s.log.Info().
		Str("batch_id", res.BatchID).
		Str("source", source).
		Int("requested", count).
		Int("inserted", inserted).
		Msg("waybills generated")
	return res, nil
}

// obtain asks the carrier for count waybills, or the demo generator when the
// carrier is unconfigured in a development deployment. A short carrier batch
// still yields what was collected.
func (s *WaybillService) obtain(ctx context.Context, count int) ([]string, bool, error) {
	if !s.carrier.Configured() {
		if s.demo {
			return demoWaybills(fmt.Sprintf("pool-%d", s.now().UnixNano()), count), true, nil
		}
		return nil, false, domain.NewError(domain.KindCarrierNotConfigured, "carrier credentials are not configured").
			WithCause(delhivery.ErrNotConfigured)
	}
	numbers, err := s.carrier.GenerateWaybills(ctx, count)
	if err != nil {
		var short *delhivery.InsufficientWaybillsError
		if errors.As(err, &short) && len(short.Collected) > 0 {
			s.log.Warn().Int("requested", count).Int("collected", len(short.Collected)).Msg("carrier returned a short waybill batch")
			return short.Collected, false, nil
		}
		if len(numbers) > 0 {
			s.log.Warn().Err(err).Int("collected", len(numbers)).Msg("waybill generation interrupted, keeping collected")
			return numbers, false, nil
		}
		return nil, false, fmt.Errorf("generate waybills: %w", err)
	}
	return numbers, false, nil
}

// GetAvailable returns up to count GENERATED waybills, oldest first.
func (s *WaybillService) GetAvailable(ctx context.Context, count int, source string) ([]*domain.Waybill, error) {
	if count <= 0 {
		return nil, domain.NewError(domain.KindValidation, "count must be positive").WithField("count")
	}
	return s.repo.FindAvailable(ctx, count, source)
}

// Reserve moves the listed waybills from GENERATED to RESERVED in one
// conditional update. Callers must check Complete.
func (s *WaybillService) Reserve(ctx context.Context, numbers []string, reservedBy string) (*ports.ReserveResult, error) {
	numbers = uniqueNonEmpty(numbers)
	if len(numbers) == 0 {
		return nil, domain.NewError(domain.KindValidation, "no waybills to reserve").WithField("waybills")
	}
	modified, err := s.repo.ReserveMany(ctx, numbers, reservedBy, s.now())
	if err != nil {
		return nil, fmt.Errorf("reserve waybills: %w", err)
	}
	metrics.WaybillTransitionsTotal.WithLabelValues(string(domain.WaybillReserved)).Add(float64(modified))
	res := &ports.ReserveResult{Requested: len(numbers), Reserved: modified, Complete: modified == int64(len(numbers))}
	if !res.Complete {
		s.log.Warn().Int("requested", res.Requested).Int64("reserved", modified).Str("reserved_by", reservedBy).Msg("partial waybill reservation")
	}
	return res, nil
}

// Acquire returns count reserved waybills for one shipment. It claims from the
// pool one at a time, tops the pool up from the carrier when short and finally
// generates the remainder on demand. Whatever was obtained is returned along
// with the error when count cannot be met.
func (s *WaybillService) Acquire(ctx context.Context, count int, reservedBy string) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	out := make([]string, 0, count)

	claim := func() error {
		for len(out) < count {
			w, err := s.repo.ClaimNext(ctx, reservedBy, s.now())
			if errors.Is(err, domain.ErrInsufficientWaybills) {
				return nil
			}
			if err != nil {
				return err
			}
			metrics.WaybillTransitionsTotal.WithLabelValues(string(domain.WaybillReserved)).Inc()
			out = append(out, w.Number)
		}
		return nil
	}

	if err := claim(); err != nil {
		s.log.Warn().Err(err).Msg("waybill pool claim failed")
	}
	if len(out) == count {
		return out, nil
	}

	short := count - len(out)
	if _, err := s.GenerateAndStore(ctx, short, domain.WaybillSourceBulk); err != nil {
		s.log.Warn().Err(err).Int("short", short).Msg("waybill pool top-up failed")
	} else if err := claim(); err != nil {
		s.log.Warn().Err(err).Msg("waybill pool claim after top-up failed")
	}

	for len(out) < count {
		n, err := s.onDemand(ctx, reservedBy)
		if err != nil {
			return out, fmt.Errorf("acquire waybills: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

// onDemand fetches a single waybill and stores it directly as RESERVED.
func (s *WaybillService) onDemand(ctx context.Context, reservedBy string) (string, error) {
	numbers, demo, err := s.obtain(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", domain.NewError(domain.KindInsufficientWaybills, "carrier returned no waybill")
	}
	source := domain.WaybillSourceOnDemand
	if demo {
		source = domain.WaybillSourceDemo
	}
	now := s.now()
	w := &domain.Waybill{
		Number:      numbers[0],
		Status:      domain.WaybillReserved,
		Source:      source,
		BatchID:     uuid.NewString(),
		GeneratedAt: now,
		ReservedBy:  reservedBy,
		ReservedAt:  &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, _, err := s.repo.InsertMany(ctx, []*domain.Waybill{w}); err != nil {
		s.log.Warn().Err(err).Str("waybill", w.Number).Msg("on-demand waybill not recorded in pool")
	}
	metrics.WaybillsGeneratedTotal.WithLabelValues(source).Inc()
	return w.Number, nil
}

// Use marks number as consumed by a shipment. Repeating the call for the same
// order is a no-op.
func (s *WaybillService) Use(ctx context.Context, number, orderID, shipmentID string) error {
	moved, err := s.repo.Transition(ctx, number, ports.WaybillTransition{
		From:       []domain.WaybillStatus{domain.WaybillGenerated, domain.WaybillReserved},
		To:         domain.WaybillUsed,
		OrderID:    orderID,
		ShipmentID: shipmentID,
		At:         s.now(),
	})
	if err != nil {
		return fmt.Errorf("use waybill %s: %w", number, err)
	}
	if moved {
		metrics.WaybillTransitionsTotal.WithLabelValues(string(domain.WaybillUsed)).Inc()
		return nil
	}

	w, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return fmt.Errorf("use waybill %s: %w", number, err)
	}
	if w.Status == domain.WaybillUsed && w.OrderID == orderID {
		return nil
	}
	return domain.Errorf(domain.KindInvalidTransition, "waybill %s is %s and cannot be used for order %s", number, w.Status, orderID).
		WithField("waybill")
}

// Cancel moves number to CANCELLED from any other status. Cancelling twice succeeds.
func (s *WaybillService) Cancel(ctx context.Context, number string) error {
	moved, err := s.repo.Transition(ctx, number, ports.WaybillTransition{
		From: []domain.WaybillStatus{domain.WaybillGenerated, domain.WaybillReserved, domain.WaybillUsed},
		To:   domain.WaybillCancelled,
		At:   s.now(),
	})
	if err != nil {
		return fmt.Errorf("cancel waybill %s: %w", number, err)
	}
	if moved {
		metrics.WaybillTransitionsTotal.WithLabelValues(string(domain.WaybillCancelled)).Inc()
		return nil
	}
	w, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return fmt.Errorf("cancel waybill %s: %w", number, err)
	}
	if w.Status != domain.WaybillCancelled {
		return domain.Errorf(domain.KindInvalidTransition, "waybill %s is %s", number, w.Status).WithField("waybill")
	}
	return nil
}

// EnsureMinimumStock tops the pool up to minStock GENERATED waybills. Only one
// replica replenishes at a time; the others report Skipped.
func (s *WaybillService) EnsureMinimumStock(ctx context.Context, minStock int) (*ports.StockResult, error) {
	res := &ports.StockResult{MinStock: minStock}

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, replenishLockKey)
		if err != nil {
			return nil, fmt.Errorf("ensure minimum stock: lock: %w", err)
		}
		if !ok {
			res.Skipped = true
			s.log.Debug().Msg("replenishment running elsewhere, skipping")
			return res, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn().Err(err).Msg("failed to release replenishment lock")
			}
		}()
	}

	available, err := s.repo.CountByStatus(ctx, domain.WaybillGenerated)
	if err != nil {
		return nil, fmt.Errorf("ensure minimum stock: count: %w", err)
	}
	res.Available = available
	metrics.WaybillPoolAvailable.Set(float64(available))
	if available >= int64(minStock) {
		return res, nil
	}

	shortfall := minStock - int(available)
	s.log.Info().Int64("available", available).Int("min_stock", minStock).Int("shortfall", shortfall).Msg("replenishing waybill pool")
	gen, err := s.GenerateAndStore(ctx, shortfall, domain.WaybillSourceBulk)
	res.Generated = gen
	if err != nil {
		return res, err
	}
	res.Available += int64(gen.Inserted)
	metrics.WaybillPoolAvailable.Set(float64(res.Available))
	return res, nil
}

// Stats summarises the pool by status and by source.
func (s *WaybillService) Stats(ctx context.Context) (domain.WaybillStats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return domain.WaybillStats{}, fmt.Errorf("waybill stats: %w", err)
	}
	metrics.WaybillPoolAvailable.Set(float64(st.Available()))
	return st, nil
}

// demoWaybills derives count stable fake waybills from seed.
func demoWaybills(seed string, count int) []string {
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		h := fnv.New64a()
		fmt.Fprintf(h, "%s/%d", seed, i)
		out = append(out, fmt.Sprintf("DEMO%012d", h.Sum64()%1_000_000_000_000))
	}
	return out
}

func uniqueNonEmpty(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
