package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
	"github.com/storefront/logistics/internal/pkg/metrics"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	// carrierOrderWindow bounds how many local waybills are tracked for carrier order views.
	carrierOrderWindow = 500
)

// Actions offered by GetShipmentDetails.
const (
	ActionCreateForward     = "create_shipment"
	ActionCreateMPS         = "create_mps_shipment"
	ActionCreateReverse     = "create_reverse_shipment"
	ActionCreateReplacement = "create_replacement_shipment"
	ActionTrack             = "track"
	ActionEdit              = "edit"
	ActionCancel            = "cancel"
	ActionLabel             = "print_label"
	ActionSchedulePickup    = "schedule_pickup"
)

// TrackShipment fetches live tracking for waybill and moves the local status
// forward when the carrier reports a newer one. Tracking is nil when the
// carrier has no scans yet.
func (s *ShipmentService) TrackShipment(ctx context.Context, waybill string) (*ports.TrackShipmentResult, error) {
	waybill = strings.TrimSpace(waybill)
	if waybill == "" {
		return nil, domain.NewError(domain.KindValidation, "waybill is required").WithField("waybill")
	}
	sh, err := s.shipments.FindByWaybill(ctx, waybill)
	if err != nil && !errors.Is(err, domain.ErrShipmentNotFound) {
		return nil, err
	}
	res := &ports.TrackShipmentResult{Waybill: waybill, Shipment: sh}

	if !s.carrier.Configured() {
		if s.cfg.Demo {
			res.Outcome = delhivery.TrackingNoScans
			return res, nil
		}
		return nil, notConfigured()
	}

	tr, err := s.carrier.TrackShipment(ctx, waybill)
	if err != nil {
		return nil, domain.Errorf(domain.KindCarrierTechnical, "tracking %s failed", waybill).WithCause(err)
	}
	res.Outcome = tr.Outcome
	res.CarrierError = tr.Error
	if tr.Outcome != delhivery.TrackingFound {
		return res, nil
	}
	ts, ok := tr.Find(waybill)
	if !ok && len(tr.Shipments) > 0 {
		ts = tr.Shipments[0]
	}
	res.Tracking = &ts

	if sh != nil && ts.Status != "" && domain.CanonicalStatus(ts.Status) != domain.CanonicalStatus(sh.Status) {
		if !domain.CanTransitionTo(sh.Status, ts.Status) {
			s.logger.Warn().Str("waybill", waybill).Str("local", sh.Status).Str("carrier", ts.Status).Msg("carrier status ignored for terminal shipment")
			return res, nil
		}
		if err := s.setStatus(ctx, sh, ts.Status, s.now(), "carrier tracking"); err != nil {
			s.logger.Warn().Err(err).Str("waybill", waybill).Msg("failed to sync tracked status")
		} else {
			res.StatusUpdated = true
		}
	}
	return res, nil
}

// UpdateShipmentStatus records status on the shipment owning waybill. Terminal
// shipments only accept their own status again.
func (s *ShipmentService) UpdateShipmentStatus(ctx context.Context, waybill, status, notes string, at time.Time) (*domain.Shipment, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, domain.NewError(domain.KindValidation, "status is required").WithField("status")
	}
	sh, err := s.shipments.FindByWaybill(ctx, waybill)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionTo(sh.Status, status) {
		return nil, domain.Errorf(domain.KindInvalidTransition, "shipment %s cannot move from %s to %s", sh.PrimaryWaybill, sh.Status, status).
			WithField("status")
	}
	if domain.CanonicalStatus(status) == domain.CanonicalStatus(sh.Status) {
		return sh, nil
	}
	if at.IsZero() {
		at = s.now()
	}
	if domain.CanonicalStatus(status) == "CANCELLED" {
		if err := s.cancelLocally(ctx, sh, ""); err != nil {
			return nil, err
		}
		return sh, nil
	}
	if err := s.setStatus(ctx, sh, status, at, notes); err != nil {
		return nil, err
	}
	return sh, nil
}

// setStatus writes status to the shipment and mirrors it on the order.
func (s *ShipmentService) setStatus(ctx context.Context, sh *domain.Shipment, status string, at time.Time, notes string) error {
	if err := s.shipments.UpdateStatus(ctx, sh.ID, status, at, notes); err != nil {
		return fmt.Errorf("update shipment status: %w", err)
	}
	sh.Status = status
	sh.StatusHistory = append(sh.StatusHistory, domain.StatusHistoryEntry{Status: status, Timestamp: at, Notes: notes})
	if err := s.orders.SaveShipmentDetails(ctx, sh.OrderID, detailsFromShipment(sh), nil); err != nil {
		s.logger.Warn().Err(err).Str("order_id", sh.OrderID).Msg("failed to mirror status on order")
	}
	s.logger.Info().Str("waybill", sh.PrimaryWaybill).Str("status", status).Str("notes", notes).Msg("shipment status updated")
	return nil
}

// GetShipmentDetails bundles an order, its shipments, the pickup locations and
// the actions the order currently allows.
func (s *ShipmentService) GetShipmentDetails(ctx context.Context, orderID string) (*ports.ShipmentDetailsView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	shipments, _, err := s.shipments.List(ctx, ports.ListShipmentsFilter{OrderID: orderID, Page: 1, Limit: maxPageLimit})
	if err != nil {
		return nil, fmt.Errorf("shipment details: %w", err)
	}
	view := &ports.ShipmentDetailsView{Order: order, Shipments: shipments}

	listing, err := s.warehouses.ActiveWarehouses(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("pickup locations unavailable")
	} else {
		view.PickupLocations = listing.Warehouses
		view.PickupSource = listing.Source
	}
	view.AvailableActions = AvailableActions(order, shipments)
	return view, nil
}

// AvailableActions lists what a caller may do next with order.
func AvailableActions(order *domain.Order, shipments []*domain.Shipment) []string {
	active := map[domain.ShipmentKind]*domain.Shipment{}
	for _, sh := range shipments {
		if sh.Active && !domain.IsTerminalStatus(sh.Status) {
			if sh.Kind == domain.KindMPS {
				active[domain.KindForward] = sh
				continue
			}
			active[sh.Kind] = sh
		}
	}

	var actions []string
	if active[domain.KindForward] == nil && !order.ShipmentCreated && domain.OrderStatusAllows(domain.KindForward, order.Status) {
		actions = append(actions, ActionCreateForward, ActionCreateMPS)
	}
	if active[domain.KindReverse] == nil && domain.OrderStatusAllows(domain.KindReverse, order.Status) {
		actions = append(actions, ActionCreateReverse)
	}
	if active[domain.KindReplacement] == nil && domain.OrderStatusAllows(domain.KindReplacement, order.Status) {
		actions = append(actions, ActionCreateReplacement)
	}
	if len(active) > 0 {
		actions = append(actions, ActionTrack, ActionLabel, ActionCancel)
		for _, sh := range active {
			if domain.IsEditableStatus(sh.Status) {
				actions = append(actions, ActionEdit)
				break
			}
		}
		for _, sh := range active {
			if sh.PickupRequest == nil || !sh.PickupRequest.Requested {
				actions = append(actions, ActionSchedulePickup)
				break
			}
		}
	}
	return actions
}

// ListShipments returns a page of shipments. Limit defaults to 20 and is capped at 100.
func (s *ShipmentService) ListShipments(ctx context.Context, f ports.ListShipmentsFilter) (*ports.ListShipmentsResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	items, total, err := s.shipments.List(ctx, f)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list shipments")
		return nil, err
	}
	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	return &ports.ListShipmentsResult{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *ShipmentService) GetShipmentByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return s.shipments.FindByID(ctx, id)
}

func (s *ShipmentService) GetShipmentByWaybill(ctx context.Context, waybill string) (*domain.Shipment, error) {
	return s.shipments.FindByWaybill(ctx, waybill)
}

// GenerateShippingLabel returns the carrier packing slip for a local shipment.
func (s *ShipmentService) GenerateShippingLabel(ctx context.Context, waybill string, opts delhivery.LabelOptions) (*delhivery.LabelResult, error) {
	if _, err := s.shipments.FindByWaybill(ctx, waybill); err != nil {
		return nil, err
	}
	if !s.carrier.Configured() {
		return nil, notConfigured()
	}
	label, err := s.carrier.GenerateShippingLabel(ctx, waybill, opts)
	if err != nil {
		return nil, carrierCallError("label", err)
	}
	return label, nil
}

// UpdateEwaybill attaches a GST e-waybill to a local shipment at the carrier.
func (s *ShipmentService) UpdateEwaybill(ctx context.Context, waybill string, upd delhivery.EwaybillUpdate) (*delhivery.EwaybillResult, error) {
	if _, err := s.shipments.FindByWaybill(ctx, waybill); err != nil {
		return nil, err
	}
	if !s.carrier.Configured() {
		return nil, notConfigured()
	}
	res, err := s.carrier.UpdateEwaybill(ctx, waybill, upd)
	if err != nil {
		return nil, carrierCallError("e-waybill update", err)
	}
	if !res.Success {
		return nil, domain.Errorf(domain.KindCarrierRejected, "carrier rejected the e-waybill: %s", res.Message).WithField("ewbn")
	}
	s.logger.Info().Str("waybill", waybill).Str("ewbn", upd.EwaybillNumber).Msg("e-waybill attached")
	return res, nil
}

// CheckServiceability answers from cache when possible. Fail-open answers are
// never cached.
func (s *ShipmentService) CheckServiceability(ctx context.Context, pincode string) (delhivery.Serviceability, error) {
	pincode = strings.TrimSpace(pincode)
	if !validPincode(pincode) {
		return delhivery.Serviceability{}, domain.Errorf(domain.KindValidation, "invalid pincode %q", pincode).WithField("pincode")
	}
	if s.cache != nil {
		cached, ok, err := s.cache.GetServiceability(ctx, pincode)
		if err != nil {
			s.logger.Warn().Err(err).Msg("serviceability cache read failed")
		}
		if ok {
			metrics.CacheLookupsTotal.WithLabelValues("serviceability", "hit").Inc()
			return cached, nil
		}
		metrics.CacheLookupsTotal.WithLabelValues("serviceability", "miss").Inc()
	}

	res, err := s.carrier.CheckPincodeServiceability(ctx, pincode)
	if err != nil {
		if errors.Is(err, delhivery.ErrNotConfigured) {
			return delhivery.Serviceability{}, notConfigured()
		}
		return delhivery.Serviceability{}, err
	}
	if s.cache != nil && !res.FailOpen {
		if err := s.cache.SetServiceability(ctx, res); err != nil {
			s.logger.Warn().Err(err).Msg("serviceability cache write failed")
		}
	}
	return res, nil
}

// CheckHeavyServiceability checks heavy-goods delivery to pincode.
func (s *ShipmentService) CheckHeavyServiceability(ctx context.Context, pincode string) (delhivery.HeavyServiceability, error) {
	pincode = strings.TrimSpace(pincode)
	if !validPincode(pincode) {
		return delhivery.HeavyServiceability{}, domain.Errorf(domain.KindValidation, "invalid pincode %q", pincode).WithField("pincode")
	}
	res, err := s.carrier.CheckHeavyServiceability(ctx, pincode)
	if errors.Is(err, delhivery.ErrNotConfigured) {
		return res, notConfigured()
	}
	return res, err
}

// ---------------------------------------------------------------------------
// Carrier order views
// ---------------------------------------------------------------------------

// ListCarrierOrders tracks the newest local waybills and filters them client-side.
func (s *ShipmentService) ListCarrierOrders(ctx context.Context, f delhivery.OrderFilter) (*delhivery.OrderPage, error) {
	waybills, err := s.carrierOrderWaybills(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.carrier.FetchOrders(ctx, waybills, f)
	if err != nil {
		return nil, carrierCallError("order listing", err)
	}
	return page, nil
}

func (s *ShipmentService) SearchCarrierOrders(ctx context.Context, query string, limit int) (*delhivery.OrderPage, error) {
	waybills, err := s.carrierOrderWaybills(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.carrier.SearchOrders(ctx, waybills, query, limit)
	if err != nil {
		return nil, carrierCallError("order search", err)
	}
	return page, nil
}

func (s *ShipmentService) CarrierOrderAnalytics(ctx context.Context, f delhivery.OrderFilter) (*delhivery.OrderAnalytics, error) {
	waybills, err := s.carrierOrderWaybills(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.carrier.GetOrderAnalytics(ctx, waybills, f)
	if err != nil {
		return nil, carrierCallError("order analytics", err)
	}
	return a, nil
}

func (s *ShipmentService) carrierOrderWaybills(ctx context.Context) ([]string, error) {
	if !s.carrier.Configured() {
		return nil, notConfigured()
	}
	waybills, err := s.shipments.PrimaryWaybills(ctx, carrierOrderWindow)
	if err != nil {
		return nil, fmt.Errorf("carrier orders: %w", err)
	}
	return waybills, nil
}

func notConfigured() error {
	return domain.NewError(domain.KindCarrierNotConfigured, "carrier credentials are not configured").
		WithCause(delhivery.ErrNotConfigured).
		WithSuggestion("set DELHIVERY_API_TOKEN")
}

// carrierCallError keeps domain errors and wraps transport failures.
func carrierCallError(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Errorf(domain.KindCarrierTechnical, "carrier %s failed", op).WithCause(err)
}
