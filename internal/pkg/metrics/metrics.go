// Package metrics defines and registers all custom Prometheus metrics for the
// logistics service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "logistics"

// ── Carrier metrics ───────────────────────────────────────────────────────────

// CarrierRequestsTotal counts outbound carrier calls.
// Labels:
//   - operation: client method (e.g. "create_shipment", "track")
//   - result: "ok", "http_error", "transport_error" or "circuit_open"
var CarrierRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "carrier_requests_total",
		Help:      "Total number of outbound carrier API calls.",
	},
	[]string{"operation", "result"},
)

// CarrierRequestDuration measures carrier round-trip latency.
var CarrierRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "carrier_request_duration_seconds",
		Help:      "Duration of outbound carrier API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Waybill pool metrics ──────────────────────────────────────────────────────

// WaybillPoolAvailable is the number of GENERATED waybills last observed.
var WaybillPoolAvailable = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "waybill_pool_available",
		Help:      "Waybills currently available for reservation.",
	},
)

// WaybillsGeneratedTotal counts waybills stored in the pool, by source.
var WaybillsGeneratedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "waybills_generated_total",
		Help:      "Total number of waybills generated and stored.",
	},
	[]string{"source"},
)

// WaybillTransitionsTotal counts pool state changes.
// Label:
//   - to: target status (RESERVED, USED, CANCELLED)
var WaybillTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "waybill_transitions_total",
		Help:      "Total number of waybill status transitions.",
	},
	[]string{"to"},
)

// ── Shipment metrics ──────────────────────────────────────────────────────────

// ShipmentsCreatedTotal counts shipments persisted after carrier creation.
// Labels:
//   - kind: FORWARD, MPS, REVERSE or REPLACEMENT
//   - recovered: "true" when the result came from duplicate-order recovery
var ShipmentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipments_created_total",
		Help:      "Total number of shipments created, by kind.",
	},
	[]string{"kind", "recovered"},
)

// ShipmentFailuresTotal counts create attempts that ended in a classified error.
var ShipmentFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipment_failures_total",
		Help:      "Total number of failed shipment creations, by error kind.",
	},
	[]string{"kind"},
)

// PickupRequestsTotal counts best-effort pickup scheduling attempts.
// Label:
//   - result: "ok" or "error"
var PickupRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pickup_requests_total",
		Help:      "Total number of pickup requests sent to the carrier.",
	},
	[]string{"result"},
)

// ── Scan event metrics ────────────────────────────────────────────────────────

// EventsProcessedTotal counts scan events applied to shipments.
var EventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scan_events_processed_total",
		Help:      "Total number of carrier scan events successfully processed.",
	},
	[]string{"source"},
)

// EventsErrorsTotal counts scan events that failed processing.
// Label:
//   - reason: "shipment_not_found", "invalid_transition" or "update_failed"
var EventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scan_events_errors_total",
		Help:      "Total number of carrier scan events that failed processing.",
	},
	[]string{"reason"},
)

// EventsDedupTotal counts deduplication decisions ("hit" or "miss").
var EventsDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scan_events_dedup_total",
		Help:      "Total number of scan event deduplication checks, by result.",
	},
	[]string{"result"},
)

// EventsQueueDepth tracks events waiting in each dispatcher worker channel.
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scan_events_queue_depth",
		Help:      "Current number of scan events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheLookupsTotal counts Redis cache lookups.
// Labels:
//   - cache: "serviceability" or "carrier_warehouses"
//   - result: "hit", "miss" or "error"
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of cache lookups, by cache and result.",
	},
	[]string{"cache", "result"},
)
