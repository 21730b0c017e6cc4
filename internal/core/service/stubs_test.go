package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/storefront/logistics/internal/carrier/delhivery"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Carrier stub
// ---------------------------------------------------------------------------

type stubCarrier struct {
	mu         sync.Mutex
	configured bool

	createFn   func(delhivery.ShipmentPayload) (*delhivery.CreateResult, error)
	generateFn func(count int) ([]string, error)
	pickupFn   func(delhivery.PickupRequest) (*delhivery.PickupResult, error)
	cancelFn   func(waybill string) (*delhivery.CancelResult, error)
	editFn     func(delhivery.EditRequest) (*delhivery.EditResult, error)
	trackFn    func(waybill string) (*delhivery.TrackingResult, error)
	serviceFn  func(pincode string) (delhivery.Serviceability, error)
	listFn     func() (*delhivery.WarehouseList, error)
	registerFn func(delhivery.WarehouseRegistration) (*delhivery.WarehouseResult, error)

	payloads     []delhivery.ShipmentPayload
	pickups      []delhivery.PickupRequest
	cancelled    []string
	edits        []delhivery.EditRequest
	generated    int
	serviceCalls int
	listCalls    int
}

func newStubCarrier() *stubCarrier {
	return &stubCarrier{configured: true}
}

// acceptAll answers every manifest with the pre-assigned waybills, or
// sequential ones when none were assigned.
func acceptAll(p delhivery.ShipmentPayload) (*delhivery.CreateResult, error) {
	res := &delhivery.CreateResult{Success: true, Raw: map[string]any{"success": true}}
	for i, rec := range p.Shipments {
		wb := rec.Waybill
		if wb == "" {
			wb = "CARRIER" + string(rune('A'+i))
		}
		res.Packages = append(res.Packages, delhivery.PackageResult{Waybill: wb, RefNum: rec.Order, Status: "Success"})
	}
	return res, nil
}

func (c *stubCarrier) Configured() bool { return c.configured }

func (c *stubCarrier) CreateShipment(_ context.Context, p delhivery.ShipmentPayload) (*delhivery.CreateResult, error) {
	c.mu.Lock()
	c.payloads = append(c.payloads, p)
	c.mu.Unlock()
	if c.createFn != nil {
		return c.createFn(p)
	}
	return acceptAll(p)
}

func (c *stubCarrier) GenerateWaybills(_ context.Context, count int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generateFn != nil {
		return c.generateFn(count)
	}
	out := make([]string, count)
	for i := range out {
		c.generated++
		out[i] = fmt.Sprintf("GEN%09d", c.generated)
	}
	return out, nil
}

func (c *stubCarrier) TrackShipment(_ context.Context, waybill string) (*delhivery.TrackingResult, error) {
	if c.trackFn != nil {
		return c.trackFn(waybill)
	}
	return &delhivery.TrackingResult{Outcome: delhivery.TrackingNoScans}, nil
}

func (c *stubCarrier) TrackShipmentEnhanced(_ context.Context, waybills, _ []string) (*delhivery.TrackingResult, error) {
	res := &delhivery.TrackingResult{Outcome: delhivery.TrackingFound}
	for _, w := range waybills {
		res.Shipments = append(res.Shipments, delhivery.TrackedShipment{Waybill: w, Status: "In Transit"})
	}
	return res, nil
}

func (c *stubCarrier) EditShipment(_ context.Context, req delhivery.EditRequest) (*delhivery.EditResult, error) {
	c.mu.Lock()
	c.edits = append(c.edits, req)
	c.mu.Unlock()
	if c.editFn != nil {
		return c.editFn(req)
	}
	applied, ignored := delhivery.FilterEditFields(req.Fields)
	if err := delhivery.CheckEditRules(req.KnownStatus, req.CurrentPaymentMode, req.CurrentCODAmount, applied); err != nil {
		return nil, err
	}
	return &delhivery.EditResult{Success: true, Message: "updated", Applied: applied, Ignored: ignored}, nil
}

func (c *stubCarrier) CancelShipment(_ context.Context, waybill string) (*delhivery.CancelResult, error) {
	c.mu.Lock()
	c.cancelled = append(c.cancelled, waybill)
	c.mu.Unlock()
	if c.cancelFn != nil {
		return c.cancelFn(waybill)
	}
	return &delhivery.CancelResult{Success: true, Message: "cancelled"}, nil
}

func (c *stubCarrier) CheckPincodeServiceability(_ context.Context, pincode string) (delhivery.Serviceability, error) {
	c.mu.Lock()
	c.serviceCalls++
	c.mu.Unlock()
	if c.serviceFn != nil {
		return c.serviceFn(pincode)
	}
	return delhivery.Serviceability{Pincode: pincode, Serviceable: true, COD: true, Prepaid: true}, nil
}

func (c *stubCarrier) CheckHeavyServiceability(_ context.Context, pincode string) (delhivery.HeavyServiceability, error) {
	return delhivery.HeavyServiceability{Pincode: pincode, Serviceable: true}, nil
}

func (c *stubCarrier) FetchWarehouses(_ context.Context) (*delhivery.WarehouseList, error) {
	c.mu.Lock()
	c.listCalls++
	c.mu.Unlock()
	if !c.configured {
		return nil, delhivery.ErrNotConfigured
	}
	if c.listFn != nil {
		return c.listFn()
	}
	return &delhivery.WarehouseList{Source: domain.SourceCarrier}, nil
}

func (c *stubCarrier) RegisterWarehouse(_ context.Context, reg delhivery.WarehouseRegistration) (*delhivery.WarehouseResult, error) {
	if c.registerFn != nil {
		return c.registerFn(reg)
	}
	return &delhivery.WarehouseResult{Success: true}, nil
}

func (c *stubCarrier) UpdateWarehouse(_ context.Context, _ string, _ domain.WarehouseContactUpdate) (*delhivery.WarehouseResult, error) {
	return &delhivery.WarehouseResult{Success: true}, nil
}

func (c *stubCarrier) CreatePickupRequest(_ context.Context, req delhivery.PickupRequest) (*delhivery.PickupResult, error) {
	c.mu.Lock()
	c.pickups = append(c.pickups, req)
	c.mu.Unlock()
	if c.pickupFn != nil {
		return c.pickupFn(req)
	}
	return &delhivery.PickupResult{Success: true, PickupID: "PU-1", PickupDate: req.PickupDate, PickupTime: req.PickupTime}, nil
}

func (c *stubCarrier) UpdateEwaybill(_ context.Context, _ string, _ delhivery.EwaybillUpdate) (*delhivery.EwaybillResult, error) {
	return &delhivery.EwaybillResult{}, nil
}

func (c *stubCarrier) GenerateShippingLabel(_ context.Context, _ string, _ delhivery.LabelOptions) (*delhivery.LabelResult, error) {
	return &delhivery.LabelResult{}, nil
}

func (c *stubCarrier) FetchOrders(_ context.Context, waybills []string, _ delhivery.OrderFilter) (*delhivery.OrderPage, error) {
	return &delhivery.OrderPage{Total: len(waybills)}, nil
}

func (c *stubCarrier) SearchOrders(_ context.Context, waybills []string, _ string, _ int) (*delhivery.OrderPage, error) {
	return &delhivery.OrderPage{Total: len(waybills)}, nil
}

func (c *stubCarrier) GetOrderAnalytics(_ context.Context, waybills []string, _ delhivery.OrderFilter) (*delhivery.OrderAnalytics, error) {
	return &delhivery.OrderAnalytics{Total: len(waybills)}, nil
}

// ---------------------------------------------------------------------------
// Order repository stub
// ---------------------------------------------------------------------------

type stubOrderRepo struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	applyErr error
}

func newStubOrderRepo(orders ...*domain.Order) *stubOrderRepo {
	r := &stubOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *stubOrderRepo) ApplyShipment(_ context.Context, orderID string, d domain.ShipmentDetails, status string) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	r.setSlot(o, d)
	if d.Kind == domain.KindForward || d.Kind == domain.KindMPS {
		o.ShipmentCreated = true
	}
	return nil
}

func (r *stubOrderRepo) SaveShipmentDetails(_ context.Context, orderID string, d domain.ShipmentDetails, created *bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	r.setSlot(o, d)
	if created != nil {
		o.ShipmentCreated = *created
	}
	return nil
}

func (r *stubOrderRepo) setSlot(o *domain.Order, d domain.ShipmentDetails) {
	dc := d
	switch d.Kind {
	case domain.KindReverse:
		o.ReverseShipment = &dc
	case domain.KindReplacement:
		o.ReplacementShipment = &dc
	default:
		o.ShipmentDetails = &dc
	}
}

func (r *stubOrderRepo) get(id string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id]
}

// ---------------------------------------------------------------------------
// Shipment repository stub
// ---------------------------------------------------------------------------

type stubShipmentRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Shipment
	createErr error
	updates   []map[string]any
}

func newStubShipmentRepo() *stubShipmentRepo {
	return &stubShipmentRepo{byID: make(map[string]*domain.Shipment)}
}

func cloneShipment(s *domain.Shipment) *domain.Shipment {
	c := *s
	c.Waybills = append([]string(nil), s.Waybills...)
	c.StatusHistory = append([]domain.StatusHistoryEntry(nil), s.StatusHistory...)
	return &c
}

func (r *stubShipmentRepo) Create(_ context.Context, s *domain.Shipment) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = cloneShipment(s)
	return nil
}

func (r *stubShipmentRepo) FindByID(_ context.Context, id string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return cloneShipment(s), nil
}

func (r *stubShipmentRepo) FindByWaybill(_ context.Context, waybill string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.HasWaybill(waybill) {
			return cloneShipment(s), nil
		}
	}
	return nil, domain.ErrShipmentNotFound
}

func (r *stubShipmentRepo) FindActiveByOrder(_ context.Context, orderID string, kind domain.ShipmentKind) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.OrderID == orderID && s.Active && (kind == "" || s.Kind == kind) {
			return cloneShipment(s), nil
		}
	}
	return nil, domain.ErrShipmentNotFound
}

func (r *stubShipmentRepo) List(_ context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Shipment
	for _, s := range r.byID {
		if f.OrderID != "" && s.OrderID != f.OrderID {
			continue
		}
		if f.Kind != "" && string(s.Kind) != f.Kind {
			continue
		}
		out = append(out, cloneShipment(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubShipmentRepo) UpdateStatus(_ context.Context, id, status string, ts time.Time, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	s.Status = status
	s.StatusHistory = append(s.StatusHistory, domain.StatusHistoryEntry{Status: status, Timestamp: ts, Notes: notes})
	return nil
}

func (r *stubShipmentRepo) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	r.updates = append(r.updates, fields)
	for k, v := range fields {
		switch k {
		case "active":
			s.Active = v.(bool)
		case "pickup_request":
			o := v.(domain.PickupOutcome)
			s.PickupRequest = &o
		case "customer.name":
			s.Customer.Name = v.(string)
		case "customer.phone":
			s.Customer.Phone = v.(string)
		case "customer.address":
			s.Customer.Address = v.(string)
		case "package.description":
			s.Package.Description = v.(string)
		case "package.payment_mode":
			s.Package.PaymentMode = v.(domain.PaymentMode)
		case "package.cod_amount":
			s.Package.CODAmount = v.(float64)
		case "package.weight_grams":
			s.Package.WeightGrams = v.(float64)
		}
	}
	return nil
}

func (r *stubShipmentRepo) PrimaryWaybills(_ context.Context, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.byID {
		if s.Active && len(out) < limit {
			out = append(out, s.PrimaryWaybill)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *stubShipmentRepo) get(id string) *domain.Shipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

func (r *stubShipmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// ---------------------------------------------------------------------------
// Waybill repository stub
// ---------------------------------------------------------------------------

type stubWaybillRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Waybill
	order []string
}

func newStubWaybillRepo() *stubWaybillRepo {
	return &stubWaybillRepo{items: make(map[string]*domain.Waybill)}
}

func (r *stubWaybillRepo) seed(status domain.WaybillStatus, numbers ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range numbers {
		r.items[n] = &domain.Waybill{Number: n, Status: status, Source: domain.WaybillSourceBulk}
		r.order = append(r.order, n)
	}
}

func (r *stubWaybillRepo) InsertMany(_ context.Context, ws []*domain.Waybill) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted, dups := 0, 0
	for _, w := range ws {
		if _, exists := r.items[w.Number]; exists {
			dups++
			continue
		}
		c := *w
		r.items[w.Number] = &c
		r.order = append(r.order, w.Number)
		inserted++
	}
	return inserted, dups, nil
}

func (r *stubWaybillRepo) FindAvailable(_ context.Context, count int, source string) ([]*domain.Waybill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Waybill
	for _, n := range r.order {
		w := r.items[n]
		if w.Status != domain.WaybillGenerated || (source != "" && w.Source != source) {
			continue
		}
		c := *w
		out = append(out, &c)
		if len(out) == count {
			break
		}
	}
	return out, nil
}

func (r *stubWaybillRepo) ReserveMany(_ context.Context, numbers []string, by string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, num := range numbers {
		if w, ok := r.items[num]; ok && w.Status == domain.WaybillGenerated {
			w.Status = domain.WaybillReserved
			w.ReservedBy = by
			w.ReservedAt = &at
			n++
		}
	}
	return n, nil
}

func (r *stubWaybillRepo) ClaimNext(_ context.Context, by string, at time.Time) (*domain.Waybill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.order {
		w := r.items[n]
		if w.Status == domain.WaybillGenerated {
			w.Status = domain.WaybillReserved
			w.ReservedBy = by
			w.ReservedAt = &at
			c := *w
			return &c, nil
		}
	}
	return nil, domain.ErrInsufficientWaybills
}

func (r *stubWaybillRepo) Transition(_ context.Context, number string, t ports.WaybillTransition) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[number]
	if !ok {
		return false, nil
	}
	for _, from := range t.From {
		if w.Status == from {
			w.Status = t.To
			if t.OrderID != "" {
				w.OrderID = t.OrderID
			}
			if t.ShipmentID != "" {
				w.ShipmentID = t.ShipmentID
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *stubWaybillRepo) FindByNumber(_ context.Context, number string) (*domain.Waybill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[number]
	if !ok {
		return nil, domain.ErrWaybillNotFound
	}
	c := *w
	return &c, nil
}

func (r *stubWaybillRepo) CountByStatus(_ context.Context, status domain.WaybillStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, w := range r.items {
		if w.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *stubWaybillRepo) Stats(_ context.Context) (domain.WaybillStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := domain.WaybillStats{ByStatus: map[domain.WaybillStatus]int64{}, BySource: map[string]int64{}}
	for _, w := range r.items {
		st.Total++
		st.ByStatus[w.Status]++
		st.BySource[w.Source]++
	}
	return st, nil
}

func (r *stubWaybillRepo) status(number string) domain.WaybillStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.items[number]; ok {
		return w.Status
	}
	return ""
}

// ---------------------------------------------------------------------------
// Warehouse repository, cache and locker stubs
// ---------------------------------------------------------------------------

type stubWarehouseRepo struct {
	mu    sync.Mutex
	items []*domain.Warehouse
}

func newStubWarehouseRepo(ws ...domain.Warehouse) *stubWarehouseRepo {
	r := &stubWarehouseRepo{}
	for i := range ws {
		w := ws[i]
		r.items = append(r.items, &w)
	}
	return r
}

func (r *stubWarehouseRepo) FindActiveByName(_ context.Context, name string) (*domain.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.items {
		if w.Name == name && w.Status == domain.WarehouseActive {
			c := *w
			return &c, nil
		}
	}
	return nil, domain.ErrWarehouseNotFound
}

func (r *stubWarehouseRepo) FindByName(_ context.Context, name string) (*domain.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.items {
		if w.Name == name {
			c := *w
			return &c, nil
		}
	}
	return nil, domain.ErrWarehouseNotFound
}

func (r *stubWarehouseRepo) FindFirstActive(_ context.Context) (*domain.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first *domain.Warehouse
	for _, w := range r.items {
		if w.Status != domain.WarehouseActive {
			continue
		}
		if w.IsDefault {
			c := *w
			return &c, nil
		}
		if first == nil {
			first = w
		}
	}
	if first == nil {
		return nil, domain.ErrWarehouseNotFound
	}
	c := *first
	return &c, nil
}

func (r *stubWarehouseRepo) ListActive(_ context.Context) ([]domain.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Warehouse
	for _, w := range r.items {
		if w.Status == domain.WarehouseActive {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *stubWarehouseRepo) Create(_ context.Context, w *domain.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *w
	r.items = append(r.items, &c)
	return nil
}

func (r *stubWarehouseRepo) UpdateContact(_ context.Context, name string, upd domain.WarehouseContactUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.items {
		if w.Name != name {
			continue
		}
		if upd.Address != "" {
			w.Address = upd.Address
		}
		if upd.Pin != "" {
			w.Pin = upd.Pin
		}
		if upd.Phone != "" {
			w.Phone = upd.Phone
		}
		return nil
	}
	return domain.ErrWarehouseNotFound
}

type stubCache struct {
	mu            sync.Mutex
	serviceable   map[string]delhivery.Serviceability
	warehouses    []domain.Warehouse
	hasWarehouses bool
}

func newStubCache() *stubCache {
	return &stubCache{serviceable: make(map[string]delhivery.Serviceability)}
}

func (c *stubCache) GetServiceability(_ context.Context, pin string) (delhivery.Serviceability, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.serviceable[pin]
	return s, ok, nil
}

func (c *stubCache) SetServiceability(_ context.Context, s delhivery.Serviceability) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serviceable[s.Pincode] = s
	return nil
}

func (c *stubCache) GetWarehouses(_ context.Context) ([]domain.Warehouse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warehouses, c.hasWarehouses, nil
}

func (c *stubCache) SetWarehouses(_ context.Context, ws []domain.Warehouse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warehouses, c.hasWarehouses = ws, true
	return nil
}

type stubLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	released int
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[string]bool)}
}

func (l *stubLocker) TryLock(_ context.Context, key string) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return func(context.Context) error { return nil }, false, nil
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		l.released++
		return nil
	}, true, nil
}
