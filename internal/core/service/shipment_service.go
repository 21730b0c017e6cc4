package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
	"github.com/storefront/logistics/internal/pkg/metrics"
)

const (
	defaultShippingMode  = "Surface"
	defaultPackageWeight = 500.0
	defaultPickupTime    = "11:00:00"
)

// warehouseFinder is the part of the resolver the orchestrator needs.
type warehouseFinder interface {
	GetWarehouseByName(ctx context.Context, name string) (*domain.Warehouse, error)
	ActiveWarehouses(ctx context.Context) (*ports.WarehouseListing, error)
}

// ShipmentConfig holds the orchestrator's deployment settings.
type ShipmentConfig struct {
	// Demo synthesises carrier replies when the carrier is not configured.
	Demo       bool
	PickupTime string
	// Location is the timezone pickup dates are computed in.
	Location *time.Location
}

// ShipmentDeps groups the orchestrator's collaborators.
type ShipmentDeps struct {
	Shipments  ports.ShipmentRepository
	Orders     ports.OrderRepository
	Waybills   ports.WaybillService
	Warehouses warehouseFinder
	Carrier    ports.Carrier
	Cache      ports.CarrierCache
}

var (
	_ ports.ShipmentService     = (*ShipmentService)(nil)
	_ ports.CarrierOrderService = (*ShipmentService)(nil)
)

// ShipmentService turns "ship order X" into a consistent carrier and local outcome.
type ShipmentService struct {
	shipments  ports.ShipmentRepository
	orders     ports.OrderRepository
	waybills   ports.WaybillService
	warehouses warehouseFinder
	carrier    ports.Carrier
	cache      ports.CarrierCache
	cfg        ShipmentConfig
	logger     zerolog.Logger
	now        func() time.Time
	newID      func() string
}

func NewShipmentService(deps ShipmentDeps, cfg ShipmentConfig, logger zerolog.Logger) *ShipmentService {
	if cfg.PickupTime == "" {
		cfg.PickupTime = defaultPickupTime
	}
	if cfg.Location == nil {
		cfg.Location = indiaLocation()
	}
	return &ShipmentService{
		shipments:  deps.Shipments,
		orders:     deps.Orders,
		waybills:   deps.Waybills,
		warehouses: deps.Warehouses,
		carrier:    deps.Carrier,
		cache:      deps.Cache,
		cfg:        cfg,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// CreateShipment runs the creation workflow: load and check the order, resolve
// the pickup location, pre-acquire waybills, manifest at the carrier, interpret
// the reply (recovering duplicate orders), persist, mark waybills used and
// finally request a pickup without letting a pickup failure fail the call.
func (s *ShipmentService) CreateShipment(ctx context.Context, in ports.CreateShipmentInput) (res *ports.CreateShipmentResult, err error) {
	kind := in.Kind
	if kind == "" {
		kind = domain.KindForward
	}
	defer func() {
		if err != nil {
			metrics.ShipmentFailuresTotal.WithLabelValues(string(domain.KindOf(err))).Inc()
			s.logger.Warn().Err(err).Str("order_id", in.OrderID).Str("kind", string(kind)).Msg("shipment creation failed")
		}
	}()

	if strings.TrimSpace(in.OrderID) == "" {
		return nil, domain.NewError(domain.KindValidation, "order_id is required").WithField("order_id")
	}

	// 1. Order
	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, domain.Errorf(domain.KindOrderNotFound, "order %s not found", in.OrderID).WithField("order_id")
		}
		return nil, fmt.Errorf("create shipment: load order: %w", err)
	}

	// 2. Status gate
	if !domain.OrderStatusAllows(kind, order.Status) {
		return nil, domain.Errorf(domain.KindInvalidOrderStatus, "order %s is %q; %s shipments need status %s",
			order.ID, order.Status, kind, strings.Join(domain.AllowedOrderStatuses(kind), ", ")).
			WithField("status")
	}

	// 3. One forward shipment per order
	if (kind == domain.KindForward || kind == domain.KindMPS) && order.ShipmentCreated {
		return nil, domain.Errorf(domain.KindDuplicateShipment, "order %s already has a shipment", order.ID).
			WithField("order_id").
			WithSuggestion("cancel the existing shipment before creating a new one")
	}

	mode, cod, err := resolvePayment(order, in, kind)
	if err != nil {
		return nil, err
	}
	packages, err := resolvePackages(in.Packages, kind)
	if err != nil {
		return nil, err
	}
	customer := order.Customer
	if in.Customer != nil {
		customer = *in.Customer
	}
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}

	// 4. Pickup location
	wh, err := s.warehouses.GetWarehouseByName(ctx, in.PickupLocation)
	if err != nil {
		return nil, err
	}

	// 5. Pre-acquire waybills
	var reserved []string
	if s.carrier.Configured() && s.waybills != nil {
		reserved, err = s.waybills.Acquire(ctx, len(packages), "order:"+order.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("order_id", order.ID).Int("acquired", len(reserved)).Msg("waybill pre-acquisition short, carrier will assign")
		}
	}

	// 6. Payload
	payload := buildPayload(order, kind, wh, customer, packages, mode, cod, in, reserved)

	// 7. Carrier
	result, err := s.submit(ctx, order.ID, payload)
	if err != nil {
		s.releaseWaybills(ctx, reserved, nil)
		return nil, err
	}

	// 8. Interpret
	waybills := result.Waybills()
	recovered := false
	switch issue := classifyCreateResult(result); issue {
	case domain.IssueNone:
	case domain.IssueDuplicateOrder:
		existing, legacy, rerr := s.recoverDuplicate(ctx, order, kind)
		if rerr != nil {
			s.releaseWaybills(ctx, reserved, nil)
			return nil, rerr
		}
		if existing != nil {
			s.releaseWaybills(ctx, reserved, existing.Waybills)
			return s.finishRecovered(ctx, order, existing, result)
		}
		waybills = legacy.Waybills
		recovered = true
	default:
		s.releaseWaybills(ctx, reserved, nil)
		return nil, createIssueError(issue, result, wh.Name)
	}
	if len(waybills) == 0 {
		s.releaseWaybills(ctx, reserved, nil)
		return nil, domain.NewError(domain.KindCarrierRejected, "carrier accepted the manifest but returned no waybill")
	}

	// 9. Persist shipment and order
	now := s.now()
	shipment := &domain.Shipment{
		ID:              s.newID(),
		OrderID:         order.ID,
		Waybills:        waybills,
		PrimaryWaybill:  waybills[0],
		Kind:            kind,
		Status:          domain.StatusCreated,
		PickupLocation:  wh.Name,
		Warehouse:       wh.Snapshot(),
		Customer:        customer,
		Package:         packageSnapshot(packages, mode, cod, order, in.ShippingMode),
		CarrierResponse: result.Raw,
		Active:          true,
		StatusHistory:   []domain.StatusHistoryEntry{{Status: domain.StatusCreated, Timestamp: now, Notes: createNote(recovered)}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := shipment.Validate(); err != nil {
		s.releaseWaybills(ctx, reserved, nil)
		return nil, domain.Errorf(domain.KindCarrierTechnical, "carrier returned %d waybill(s) for %d package(s)", len(waybills), len(packages)).WithCause(err)
	}
	if err := s.shipments.Create(ctx, shipment); err != nil {
		s.strandWaybills(ctx, reserved, waybills, order.ID, shipment.ID, err)
		return nil, fmt.Errorf("create shipment: persist: %w", err)
	}

	details := detailsFromShipment(shipment)
	if err := s.orders.ApplyShipment(ctx, order.ID, details, domain.OrderStatusAfterShipment(kind)); err != nil {
		s.strandWaybills(ctx, reserved, waybills, order.ID, shipment.ID, err)
		return nil, fmt.Errorf("create shipment: update order: %w", err)
	}

	// 10. Pool bookkeeping
	s.releaseWaybills(ctx, reserved, waybills)
	s.markUsed(ctx, reserved, waybills, order.ID, shipment.ID)

	// 11. Pickup
	if !in.SkipPickup {
		outcome := s.requestPickup(ctx, wh.Name, len(packages), "", "")
		s.attachPickup(ctx, shipment, &details, outcome)
	}

	metrics.ShipmentsCreatedTotal.WithLabelValues(string(kind), strconv.FormatBool(recovered)).Inc()
	s.logger.Info().
		Str("order_id", order.ID).
		Str("shipment_id", shipment.ID).
		Str("waybill", shipment.PrimaryWaybill).
		Str("kind", string(kind)).
		Bool("recovered", recovered).
		Msg("shipment created")

	// 12. Result
	return &ports.CreateShipmentResult{
		Success:         true,
		Recovered:       recovered,
		Shipment:        shipment,
		ShipmentDetails: details,
		CarrierResponse: result.Raw,
	}, nil
}

// submit sends the manifest, or synthesises a reply in demo deployments.
func (s *ShipmentService) submit(ctx context.Context, orderID string, payload delhivery.ShipmentPayload) (*delhivery.CreateResult, error) {
	if !s.carrier.Configured() {
		if !s.cfg.Demo {
			return nil, notConfigured()
		}
		s.logger.Warn().Str("order_id", orderID).Msg("carrier not configured, using demo manifest reply")
		return demoCreateResult(payload), nil
	}
	result, err := s.carrier.CreateShipment(ctx, payload)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.NewError(domain.KindCarrierTechnical, "carrier manifest call failed").
			WithCause(err).
			WithSuggestion("retry shortly; the carrier did not confirm the shipment")
	}
	return result, nil
}

// recoverDuplicate finds what the carrier's duplicate-order signal refers to:
// an existing shipment record, or the waybills stored on the order by older
// versions. Neither existing is a data-integrity failure.
func (s *ShipmentService) recoverDuplicate(ctx context.Context, order *domain.Order, kind domain.ShipmentKind) (*domain.Shipment, *domain.ShipmentDetails, error) {
	existing, err := s.shipments.FindActiveByOrder(ctx, order.ID, kind)
	if err == nil {
		s.logger.Info().Str("order_id", order.ID).Str("waybill", existing.PrimaryWaybill).Msg("duplicate order recovered from shipment record")
		return existing, nil, nil
	}
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		return nil, nil, fmt.Errorf("create shipment: duplicate lookup: %w", err)
	}
	if d := order.DetailsFor(kind); d != nil && len(d.Waybills) > 0 {
		if domain.CanonicalStatus(d.Status) == domain.CanonicalStatus(domain.StatusCancelled) {
			s.logger.Error().Str("order_id", order.ID).Strs("waybills", d.Waybills).Msg("carrier reports duplicate of a cancelled shipment")
			return nil, nil, domain.Errorf(domain.KindUnreconciledDuplicate,
				"carrier still knows order %s but its last shipment %s was cancelled", order.ID, d.Waybills[0]).
				WithField("order_id").
				WithSuggestion("ship the order under a fresh order reference")
		}
		s.logger.Info().Str("order_id", order.ID).Str("waybill", d.Waybills[0]).Msg("duplicate order recovered from order details")
		return nil, d, nil
	}
	return nil, nil, domain.Errorf(domain.KindUnreconciledDuplicate,
		"carrier reports order %s as a duplicate but no local shipment exists", order.ID).
		WithField("order_id").
		WithSuggestion("look the order up in the carrier panel and link its waybill manually")
}

// finishRecovered re-applies the order update for an already stored shipment.
func (s *ShipmentService) finishRecovered(ctx context.Context, order *domain.Order, existing *domain.Shipment, result *delhivery.CreateResult) (*ports.CreateShipmentResult, error) {
	details := detailsFromShipment(existing)
	if err := s.orders.ApplyShipment(ctx, order.ID, details, domain.OrderStatusAfterShipment(existing.Kind)); err != nil {
		return nil, fmt.Errorf("create shipment: update order: %w", err)
	}
	metrics.ShipmentsCreatedTotal.WithLabelValues(string(existing.Kind), "true").Inc()
	return &ports.CreateShipmentResult{
		Success:         true,
		Recovered:       true,
		Shipment:        existing,
		ShipmentDetails: details,
		CarrierResponse: result.Raw,
	}, nil
}

// releaseWaybills cancels reserved waybills that did not end up in keep.
func (s *ShipmentService) releaseWaybills(ctx context.Context, reserved, keep []string) {
	if s.waybills == nil {
		return
	}
	for _, w := range reserved {
		if contains(keep, w) {
			continue
		}
		if err := s.waybills.Cancel(ctx, w); err != nil {
			s.logger.Warn().Err(err).Str("waybill", w).Msg("failed to release reserved waybill")
		}
	}
}

// strandWaybills handles a manifest the carrier accepted but that could not be
// stored locally. Its waybills are taken out of the pool for good.
func (s *ShipmentService) strandWaybills(ctx context.Context, reserved, waybills []string, orderID, shipmentID string, cause error) {
	s.logger.Error().Err(cause).
		Str("order_id", orderID).
		Strs("waybills", waybills).
		Msg("carrier accepted manifest but local state was not saved")
	s.releaseWaybills(ctx, reserved, waybills)
	s.markUsed(ctx, reserved, waybills, orderID, shipmentID)
}

func (s *ShipmentService) markUsed(ctx context.Context, reserved, used []string, orderID, shipmentID string) {
	if s.waybills == nil {
		return
	}
	for _, w := range used {
		if !contains(reserved, w) {
			continue
		}
		if err := s.waybills.Use(ctx, w, orderID, shipmentID); err != nil {
			s.logger.Warn().Err(err).Str("waybill", w).Msg("failed to mark waybill used")
		}
	}
}

// ---------------------------------------------------------------------------
// Pickup scheduling
// ---------------------------------------------------------------------------

// SchedulePickup requests a carrier pickup. Failures are reported in the outcome.
func (s *ShipmentService) SchedulePickup(ctx context.Context, in ports.SchedulePickupInput) domain.PickupOutcome {
	return s.requestPickup(ctx, in.PickupLocation, in.PackageCount, in.PickupDate, in.PickupTime)
}

// requestPickup never returns an error: whatever happens is captured in the outcome.
func (s *ShipmentService) requestPickup(ctx context.Context, location string, count int, date, at string) domain.PickupOutcome {
	if date == "" {
		date = NextBusinessDay(s.now(), s.cfg.Location).Format("2006-01-02")
	}
	if at == "" {
		at = s.cfg.PickupTime
	}
	outcome := domain.PickupOutcome{PickupDate: date, PickupTime: at, AttemptAt: s.now()}

	if !s.carrier.Configured() {
		outcome.Error = "carrier not configured"
		metrics.PickupRequestsTotal.WithLabelValues("skipped").Inc()
		return outcome
	}
	res, err := s.carrier.CreatePickupRequest(ctx, delhivery.PickupRequest{
		PickupLocation:       location,
		PickupDate:           date,
		PickupTime:           at,
		ExpectedPackageCount: count,
	})
	switch {
	case err != nil:
		outcome.Error = err.Error()
	case !res.Success:
		outcome.Error = res.Message
		if outcome.Error == "" {
			outcome.Error = "carrier declined the pickup request"
		}
	default:
		outcome.Requested = true
		outcome.PickupID = res.PickupID
		outcome.PickupDate = res.PickupDate
		outcome.PickupTime = res.PickupTime
	}

	if outcome.Requested {
		metrics.PickupRequestsTotal.WithLabelValues("success").Inc()
		s.logger.Info().Str("pickup_location", location).Str("pickup_id", outcome.PickupID).Str("date", outcome.PickupDate).Msg("pickup requested")
	} else {
		metrics.PickupRequestsTotal.WithLabelValues("failed").Inc()
		s.logger.Warn().Str("pickup_location", location).Str("error", outcome.Error).Msg("pickup request failed")
	}
	return outcome
}

// attachPickup stores the outcome on the shipment and order. Storage errors are logged.
func (s *ShipmentService) attachPickup(ctx context.Context, sh *domain.Shipment, details *domain.ShipmentDetails, outcome domain.PickupOutcome) {
	sh.PickupRequest = &outcome
	details.PickupRequest = &outcome
	if err := s.shipments.UpdateFields(ctx, sh.ID, map[string]any{"pickup_request": outcome}); err != nil {
		s.logger.Warn().Err(err).Str("shipment_id", sh.ID).Msg("failed to store pickup outcome")
	}
	if outcome.Requested {
		note := "pickup " + outcome.PickupID
		if err := s.shipments.UpdateStatus(ctx, sh.ID, domain.StatusPickupScheduled, s.now(), note); err != nil {
			s.logger.Warn().Err(err).Str("shipment_id", sh.ID).Msg("failed to record pickup status")
		} else {
			sh.Status = domain.StatusPickupScheduled
			sh.StatusHistory = append(sh.StatusHistory, domain.StatusHistoryEntry{Status: sh.Status, Timestamp: s.now(), Notes: note})
			details.Status = sh.Status
		}
	}
	if err := s.orders.SaveShipmentDetails(ctx, sh.OrderID, *details, nil); err != nil {
		s.logger.Warn().Err(err).Str("order_id", sh.OrderID).Msg("failed to store pickup outcome on order")
	}
}

// NextBusinessDay is the calendar day after now in loc, moved past Saturday and Sunday.
func NextBusinessDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := now.In(loc).AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func indiaLocation() *time.Location {
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*3600+1800)
}

// ---------------------------------------------------------------------------
// Carrier reply interpretation
// ---------------------------------------------------------------------------

// classifyCreateResult reduces a manifest reply to the issue that decides the
// next step. IssueNone means every package was accepted.
func classifyCreateResult(r *delhivery.CreateResult) domain.CarrierIssue {
	anyFailed := false
	for _, p := range r.Packages {
		if p.Failed() {
			anyFailed = true
			break
		}
	}
	if r.Success && !anyFailed && len(r.Waybills()) > 0 {
		return domain.IssueNone
	}

	remark := domain.ClassifyCarrierMessage(r.Remark)
	if remark == domain.IssueInsufficientBalance || remark == domain.IssueWarehouseNotRegistered {
		return remark
	}
	pkg := domain.ClassifyCarrierMessages(r.PackageRemarks(),
		domain.IssueInsufficientBalance,
		domain.IssueWarehouseNotRegistered,
		domain.IssueDuplicateOrder,
	)
	if pkg != domain.IssueNone {
		return pkg
	}
	switch remark {
	case domain.IssueInternalError, domain.IssueDuplicateOrder:
		return remark
	}
	return domain.IssueFailure
}

func createIssueError(issue domain.CarrierIssue, r *delhivery.CreateResult, warehouse string) error {
	switch issue {
	case domain.IssueInsufficientBalance:
		return domain.NewError(domain.KindInsufficientBalance, "carrier wallet balance is insufficient to manifest this shipment").
			WithSuggestion("recharge the carrier wallet and retry")
	case domain.IssueWarehouseNotRegistered:
		return domain.Errorf(domain.KindWarehouseNotRegistered, "pickup location %q is not registered with the carrier", warehouse).
			WithField("pickup_location").
			WithSuggestion("register the warehouse with the carrier or pick another pickup location")
	case domain.IssueInternalError:
		return domain.Errorf(domain.KindCarrierTechnical, "carrier internal error: %s", r.Remark).
			WithSuggestion("retry shortly")
	}
	msg := r.Remark
	if remarks := r.PackageRemarks(); len(remarks) > 0 {
		msg = strings.Join(remarks, "; ")
	}
	if msg == "" {
		msg = "no reason given"
	}
	return domain.Errorf(domain.KindCarrierRejected, "carrier rejected the shipment: %s", msg)
}

// demoCreateResult accepts every package, keeping pre-assigned waybills and
// deriving stable fake ones for the rest.
func demoCreateResult(p delhivery.ShipmentPayload) *delhivery.CreateResult {
	ref := ""
	if len(p.Shipments) > 0 {
		ref = p.Shipments[0].Order
	}
	fake := demoWaybills(ref, len(p.Shipments))
	res := &delhivery.CreateResult{Success: true, Raw: map[string]any{"demo": true, "success": true}}
	packages := make([]any, 0, len(p.Shipments))
	for i, rec := range p.Shipments {
		wb := rec.Waybill
		if wb == "" {
			wb = fake[i]
		}
		res.Packages = append(res.Packages, delhivery.PackageResult{Waybill: wb, RefNum: rec.Order, Status: "Success", Serviceable: true})
		packages = append(packages, map[string]any{"waybill": wb, "refnum": rec.Order, "status": "Success"})
	}
	res.Raw["packages"] = packages
	return res
}

// ---------------------------------------------------------------------------
// Payload construction
// ---------------------------------------------------------------------------

func resolvePayment(order *domain.Order, in ports.CreateShipmentInput, kind domain.ShipmentKind) (domain.PaymentMode, float64, error) {
	switch kind {
	case domain.KindReverse:
		return domain.PaymentPickup, 0, nil
	case domain.KindReplacement:
		return domain.PaymentREPL, 0, nil
	}

	raw := in.PaymentMode
	if raw == "" {
		raw = order.PaymentMethod
	}
	mode, ok := domain.ParsePaymentMode(raw)
	if !ok {
		if in.PaymentMode != "" {
			return "", 0, domain.Errorf(domain.KindValidation, "unknown payment mode %q", in.PaymentMode).WithField("payment_mode")
		}
		mode = domain.PaymentPrepaid
	}

	var cod float64
	switch {
	case in.CODAmount != nil:
		cod = *in.CODAmount
	case mode == domain.PaymentCOD:
		cod = order.TotalAmount
	}
	if err := domain.ValidateCODAmount(mode, cod); err != nil {
		return "", 0, err
	}
	return mode, cod, nil
}

func resolvePackages(in []ports.PackageInput, kind domain.ShipmentKind) ([]ports.PackageInput, error) {
	pkgs := in
	if len(pkgs) == 0 {
		pkgs = []ports.PackageInput{{WeightGrams: defaultPackageWeight}}
	}
	if kind == domain.KindMPS && len(pkgs) < 2 {
		return nil, domain.NewError(domain.KindValidation, "multi-package shipments need at least two packages").WithField("packages")
	}
	if kind != domain.KindMPS && len(pkgs) > 1 {
		return nil, domain.Errorf(domain.KindValidation, "%s shipments carry one package", kind).
			WithField("packages").
			WithSuggestion("use kind MPS for more than one package")
	}
	out := make([]ports.PackageInput, len(pkgs))
	for i, p := range pkgs {
		if p.WeightGrams < 0 {
			return nil, domain.Errorf(domain.KindValidation, "package %d weight must not be negative", i).WithField("packages")
		}
		if p.WeightGrams == 0 {
			p.WeightGrams = defaultPackageWeight
		}
		out[i] = p
	}
	return out, nil
}

func validateCustomer(c domain.CustomerSnapshot) error {
	required := []struct{ field, value string }{
		{"customer.name", c.Name},
		{"customer.phone", c.Phone},
		{"customer.address", c.Address},
		{"customer.pincode", c.Pincode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.Errorf(domain.KindValidation, "%s is required", r.field).WithField(r.field)
		}
	}
	return nil
}

// orderReference is the carrier order number: return flows get a suffix so
// they never collide with the forward manifest of the same order.
func orderReference(orderID string, kind domain.ShipmentKind) string {
	switch kind {
	case domain.KindReverse:
		return orderID + "-R"
	case domain.KindReplacement:
		return orderID + "-REPL"
	}
	return orderID
}

func buildPayload(
	order *domain.Order,
	kind domain.ShipmentKind,
	wh *domain.Warehouse,
	customer domain.CustomerSnapshot,
	packages []ports.PackageInput,
	mode domain.PaymentMode,
	cod float64,
	in ports.CreateShipmentInput,
	reserved []string,
) delhivery.ShipmentPayload {
	ref := orderReference(order.ID, kind)
	shippingMode := in.ShippingMode
	if shippingMode == "" {
		shippingMode = defaultShippingMode
	}
	quantity := 0
	for _, it := range order.Items {
		quantity += it.Quantity
	}
	if quantity <= 0 {
		quantity = 1
	}

	records := make([]delhivery.PackageRecord, 0, len(packages))
	for i, p := range packages {
		desc := p.Description
		if desc == "" {
			desc = order.ProductDescription()
		}
		pkgCOD := cod
		if kind == domain.KindMPS && i > 0 {
			pkgCOD = 0
		}
		rec := delhivery.PackageRecord{
			Name:            customer.Name,
			Address:         customer.Address,
			Pin:             customer.Pincode,
			City:            customer.City,
			State:           customer.State,
			Country:         "India",
			Phone:           customer.Phone,
			Email:           customer.Email,
			Order:           ref,
			PaymentMode:     string(mode),
			ReturnName:      wh.Name,
			ReturnAddress:   firstNonEmpty(wh.ReturnAddress, wh.Address),
			ReturnPin:       firstNonEmpty(wh.ReturnPin, wh.Pin),
			ReturnCity:      firstNonEmpty(wh.ReturnCity, wh.City),
			ReturnState:     firstNonEmpty(wh.ReturnState, wh.State),
			ReturnCountry:   firstNonEmpty(wh.Country, "India"),
			ReturnPhone:     wh.Phone,
			ProductsDesc:    desc,
			HSNCode:         in.HSNCode,
			CODAmount:       formatAmount(pkgCOD),
			TotalAmount:     formatAmount(order.TotalAmount),
			SellerName:      wh.Name,
			SellerAddress:   wh.Address,
			SellerInvoice:   in.SellerInvoice,
			Quantity:        strconv.Itoa(quantity),
			ShipmentLength:  formatDimension(p.Dimensions.LengthCm),
			ShipmentWidth:   formatDimension(p.Dimensions.WidthCm),
			ShipmentHeight:  formatDimension(p.Dimensions.HeightCm),
			Weight:          formatAmount(p.WeightGrams),
			ShippingMode:    shippingMode,
			AddressType:     "home",
			FragileShipment: strconv.FormatBool(in.Fragile),
		}
		if !order.CreatedAt.IsZero() {
			rec.OrderDate = order.CreatedAt.Format(delhivery.DateLayout)
		}
		if i < len(reserved) {
			rec.Waybill = reserved[i]
		}
		if kind == domain.KindMPS {
			if len(reserved) > 0 {
				rec.MasterID = reserved[0]
			}
			rec.MPSAmount = formatAmount(cod)
			rec.MPSChildren = strconv.Itoa(len(packages))
		}
		records = append(records, rec)
	}
	return delhivery.ShipmentPayload{
		PickupLocation: delhivery.PickupLocation{Name: wh.Name},
		Shipments:      records,
	}
}

func packageSnapshot(packages []ports.PackageInput, mode domain.PaymentMode, cod float64, order *domain.Order, shippingMode string) domain.PackageSnapshot {
	var weight float64
	for _, p := range packages {
		weight += p.WeightGrams
	}
	desc := packages[0].Description
	if desc == "" {
		desc = order.ProductDescription()
	}
	if shippingMode == "" {
		shippingMode = defaultShippingMode
	}
	return domain.PackageSnapshot{
		WeightGrams:  weight,
		Dimensions:   packages[0].Dimensions,
		PaymentMode:  mode,
		CODAmount:    cod,
		TotalAmount:  order.TotalAmount,
		Description:  desc,
		PackageCount: len(packages),
		ShippingMode: shippingMode,
	}
}

func detailsFromShipment(sh *domain.Shipment) domain.ShipmentDetails {
	return domain.ShipmentDetails{
		ShipmentID:     sh.ID,
		Waybills:       sh.Waybills,
		PrimaryWaybill: sh.PrimaryWaybill,
		Kind:           sh.Kind,
		Status:         sh.Status,
		PickupLocation: sh.PickupLocation,
		PaymentMode:    sh.Package.PaymentMode,
		CODAmount:      sh.Package.CODAmount,
		PickupRequest:  sh.PickupRequest,
		CreatedAt:      sh.CreatedAt,
	}
}

func createNote(recovered bool) string {
	if recovered {
		return "recovered from carrier duplicate order"
	}
	return "shipment created"
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDimension(v float64) string {
	if v <= 0 {
		return ""
	}
	return formatAmount(v)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
