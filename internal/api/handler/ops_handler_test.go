package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

// ----------------------------------------------------------------------------
// Warehouses
// ----------------------------------------------------------------------------

type stubWarehouseService struct {
	ports.WarehouseService
	registered ports.RegisterWarehouseInput
	updateName string
	update     domain.WarehouseContactUpdate
}

func (s *stubWarehouseService) Register(_ context.Context, in ports.RegisterWarehouseInput) (*domain.Warehouse, error) {
	s.registered = in
	return &domain.Warehouse{Name: in.Name, Pin: in.Pin}, nil
}

func (s *stubWarehouseService) Update(_ context.Context, name string, upd domain.WarehouseContactUpdate) (*domain.Warehouse, error) {
	s.updateName, s.update = name, upd
	return &domain.Warehouse{Name: name, Pin: upd.Pin}, nil
}

func TestWarehouseHandler_Register(t *testing.T) {
	stub := &stubWarehouseService{}
	c, rec := newTestContext(http.MethodPost, "/v1/warehouses",
		`{"name":"BLR-1","phone":"9876543210","address":"Plot 4","city":"Bengaluru","pin":"560001","is_default":true}`)

	if err := NewWarehouseHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.registered.Name != "BLR-1" || !stub.registered.IsDefault {
		t.Fatalf("unexpected input: %+v", stub.registered)
	}
}

func TestWarehouseHandler_Register_InvalidPin(t *testing.T) {
	c, _ := newTestContext(http.MethodPost, "/v1/warehouses",
		`{"name":"BLR-1","phone":"1","address":"x","city":"y","pin":"56A001"}`)
	err := NewWarehouseHandler(&stubWarehouseService{}).Register(c)
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWarehouseHandler_Update_RejectsRename(t *testing.T) {
	stub := &stubWarehouseService{}
	c, _ := newTestContext(http.MethodPatch, "/", `{"name":"BLR-2","phone":"1"}`)
	c.SetParamNames("name")
	c.SetParamValues("BLR-1")

	err := NewWarehouseHandler(stub).Update(c)
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindValidation || de.Field != "name" {
		t.Fatalf("expected name validation error, got %v", err)
	}
	if stub.updateName != "" {
		t.Fatal("service must not be called")
	}
}

func TestWarehouseHandler_Update_SameNameAllowed(t *testing.T) {
	stub := &stubWarehouseService{}
	c, rec := newTestContext(http.MethodPatch, "/", `{"name":"BLR-1","pin":"560002"}`)
	c.SetParamNames("name")
	c.SetParamValues("BLR-1")

	if err := NewWarehouseHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || stub.updateName != "BLR-1" || stub.update.Pin != "560002" {
		t.Fatalf("unexpected update: code=%d name=%s upd=%+v", rec.Code, stub.updateName, stub.update)
	}
}

// ----------------------------------------------------------------------------
// Waybills
// ----------------------------------------------------------------------------

type stubWaybillService struct {
	ports.WaybillService
	genCount  int
	genSource string
	floor     int
	cancelled string
}

func (s *stubWaybillService) GenerateAndStore(_ context.Context, count int, source string) (*ports.GenerateWaybillsResult, error) {
	s.genCount, s.genSource = count, source
	return &ports.GenerateWaybillsResult{Requested: count, Received: count, Inserted: count, Source: source}, nil
}

func (s *stubWaybillService) EnsureMinimumStock(_ context.Context, minStock int) (*ports.StockResult, error) {
	s.floor = minStock
	return &ports.StockResult{MinStock: minStock}, nil
}

func (s *stubWaybillService) Cancel(_ context.Context, number string) error {
	s.cancelled = number
	return nil
}

func TestWaybillHandler_Generate_DefaultsSource(t *testing.T) {
	stub := &stubWaybillService{}
	c, rec := newTestContext(http.MethodPost, "/v1/waybills/generate", `{"count":25}`)

	if err := NewWaybillHandler(stub, 100).Generate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.genCount != 25 || stub.genSource != domain.WaybillSourceBulk {
		t.Fatalf("unexpected call: count=%d source=%s", stub.genCount, stub.genSource)
	}
}

func TestWaybillHandler_Generate_Limits(t *testing.T) {
	for _, body := range []string{`{"count":0}`, `{"count":50001}`, `{"count":5,"source":"magic"}`} {
		stub := &stubWaybillService{}
		c, _ := newTestContext(http.MethodPost, "/v1/waybills/generate", body)
		err := NewWaybillHandler(stub, 100).Generate(c)
		if domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("%s: expected validation error, got %v", body, err)
		}
		if stub.genCount != 0 {
			t.Fatalf("%s: service must not be called", body)
		}
	}
}

func TestWaybillHandler_Available_RangeChecked(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/v1/waybills/available?count=5000", "")
	err := NewWaybillHandler(&stubWaybillService{}, 100).Available(c)
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWaybillHandler_EnsureStock_UsesConfiguredFloor(t *testing.T) {
	stub := &stubWaybillService{}
	c, _ := newTestContext(http.MethodPost, "/v1/waybills/ensure-stock", "")
	if err := NewWaybillHandler(stub, 250).EnsureStock(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.floor != 250 {
		t.Fatalf("expected configured floor 250, got %d", stub.floor)
	}

	c, _ = newTestContext(http.MethodPost, "/v1/waybills/ensure-stock", `{"min_stock":40}`)
	if err := NewWaybillHandler(stub, 250).EnsureStock(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.floor != 40 {
		t.Fatalf("expected explicit floor 40, got %d", stub.floor)
	}
}

func TestWaybillHandler_Cancel(t *testing.T) {
	stub := &stubWaybillService{}
	c, rec := newTestContext(http.MethodPost, "/", "")
	c.SetParamNames("waybill")
	c.SetParamValues("WB9")

	if err := NewWaybillHandler(stub, 0).Cancel(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.cancelled != "WB9" || !strings.Contains(rec.Body.String(), "waybill cancelled") {
		t.Fatalf("unexpected result: cancelled=%s body=%s", stub.cancelled, rec.Body.String())
	}
}

// ----------------------------------------------------------------------------
// Events
// ----------------------------------------------------------------------------

type stubDispatcher struct {
	events []ports.ScanEventInput
	err    error
}

func (d *stubDispatcher) Enqueue(_ context.Context, e ports.ScanEventInput) error {
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, e)
	return nil
}

func (d *stubDispatcher) EnqueueBatch(ctx context.Context, es []ports.ScanEventInput) (int, error) {
	for i, e := range es {
		if err := d.Enqueue(ctx, e); err != nil {
			return i, err
		}
	}
	return len(es), nil
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestEventHandler_Receive_DefaultsSource(t *testing.T) {
	d := &stubDispatcher{}
	c, rec := newTestContext(http.MethodPost, "/v1/events", `{"waybill":" WB1 ","status":"Delivered"}`)

	if err := NewEventHandler(d).Receive(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(d.events) != 1 || d.events[0].Waybill != "WB1" || d.events[0].Source != "webhook" {
		t.Fatalf("unexpected events: %+v", d.events)
	}
}

func TestEventHandler_Receive_MissingStatus(t *testing.T) {
	c, _ := newTestContext(http.MethodPost, "/v1/events", `{"waybill":"WB1"}`)
	err := NewEventHandler(&stubDispatcher{}).Receive(c)
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestEventHandler_Receive_QueueUnavailable(t *testing.T) {
	c, _ := newTestContext(http.MethodPost, "/v1/events", `{"waybill":"WB1","status":"Delivered"}`)
	err := NewEventHandler(&stubDispatcher{err: context.Canceled}).Receive(c)
	if code := httpCode(t, err); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
}

func TestEventHandler_ReceiveBatch(t *testing.T) {
	d := &stubDispatcher{}
	c, rec := newTestContext(http.MethodPost, "/v1/events/batch",
		`[{"waybill":"WB1","status":"In Transit"},{"waybill":"WB1","status":"Delivered","source":"poller"}]`)

	if err := NewEventHandler(d).ReceiveBatch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), `"count":2`) {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
	if d.events[0].Status != "In Transit" || d.events[1].Source != "poller" {
		t.Fatalf("order or mapping lost: %+v", d.events)
	}
}

func TestEventHandler_ReceiveBatch_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":         `[]`,
		"invalid event": `[{"waybill":"WB1","status":"Delivered"},{"waybill":"WB2"}]`,
		"not an array":  `{"waybill":"WB1"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			d := &stubDispatcher{}
			c, _ := newTestContext(http.MethodPost, "/v1/events/batch", body)
			err := NewEventHandler(d).ReceiveBatch(c)
			if code := httpCode(t, err); code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", code)
			}
			if len(d.events) != 0 {
				t.Fatal("nothing should be enqueued")
			}
		})
	}
}
