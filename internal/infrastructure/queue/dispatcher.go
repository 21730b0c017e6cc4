package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/storefront/logistics/internal/core/ports"
	"github.com/storefront/logistics/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes carrier scans to a fixed set of workers by hashing the
// waybill, so scans of one shipment are applied in arrival order.
type Dispatcher struct {
	workers []chan ports.ScanEventInput
	service ports.ScanEventService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ScanEventService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ScanEventInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ScanEventInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a scan to the worker owning its waybill. It blocks while that
// worker's buffer is full and gives up when ctx is done.
func (d *Dispatcher) Enqueue(ctx context.Context, event ports.ScanEventInput) error {
	idx := d.shardIndex(event.Waybill)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnqueueBatch enqueues events in order and stops at the first failure.
// It returns the number of events accepted.
func (d *Dispatcher) EnqueueBatch(ctx context.Context, events []ports.ScanEventInput) (int, error) {
	for i, e := range events {
		if err := d.Enqueue(ctx, e); err != nil {
			return i, err
		}
	}
	return len(events), nil
}

// shardIndex maps a waybill deterministically to a worker index.
func (d *Dispatcher) shardIndex(waybill string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(waybill))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ScanEventInput) {
	defer d.wg.Done()
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if err := d.service.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("waybill", event.Waybill).
					Str("status", event.Status).
					Int("worker_id", id).
					Msg("scan processing failed")
			}
		}
	}
}
