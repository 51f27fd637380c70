// Package metrics provides Prometheus observability metrics for the
// booking calendar: allocation outcomes for business visibility,
// parser and store health for operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// AllocationBatchesTotal counts allocation calls by outcome:
// committed, rejected (structured failures) or conflict (store race).
var AllocationBatchesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "allocator",
	Name:      "batches_total",
	Help:      "Allocation batches processed, by outcome",
}, []string{"outcome"})

// AllocationFailuresTotal counts individual request failures by reason.
// Sustained capacity_exceeded growth means the slot layout is too small
// for demand.
var AllocationFailuresTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "allocator",
	Name:      "failures_total",
	Help:      "Individual allocation failures, by reason code",
}, []string{"reason"})

// BookingsCommittedTotal counts bookings successfully persisted.
var BookingsCommittedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "allocator",
	Name:      "bookings_committed_total",
	Help:      "Bookings written to the store",
})

// RequestsPerBatch observes batch sizes per allocation run.
var RequestsPerBatch = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "allocator",
	Name:      "requests_per_batch",
	Help:      "Booking requests handled per allocation call",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
})

// AllocatorDurationSeconds tracks time spent in one allocation call.
var AllocatorDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "allocator",
	Name:      "duration_seconds",
	Help:      "Time taken to allocate one batch",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// ParserRowsTotal counts media-mix rows successfully parsed.
var ParserRowsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "rows_total",
	Help:      "Media-mix rows successfully parsed",
})

// ParserRowsDroppedTotal counts data rows dropped for unparseable
// fields. Row-local: a dropped row never fails the batch.
var ParserRowsDroppedTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "rows_dropped_total",
	Help:      "Media-mix data rows dropped during parsing",
})

// ParserDurationSeconds tracks time to parse one input table.
var ParserDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "parser",
	Name:      "duration_seconds",
	Help:      "Time taken to parse one media-mix table",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
})

// StoreConflictsTotal counts commits rejected by the (date, slot)
// uniqueness constraint: allocations that raced a concurrent writer.
var StoreConflictsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "store",
	Name:      "conflicts_total",
	Help:      "Booking commits rejected by the uniqueness constraint",
})
