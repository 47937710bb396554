// Package metrics exposes Prometheus instrumentation for availability
// writes and the transports in front of them.
package metrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultLocked  = "locked"
	ResultFailure = "failure"
)

// Prometheus implements availability.Recorder. Collectors register lazily on
// first use so constructing one is free.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	operations      *prometheus.CounterVec
	operationTime   *prometheus.HistogramVec
	intervalsMerged prometheus.Counter
	intervalsSplit  prometheus.Counter
	lockWait        prometheus.Histogram
	toolCalls       *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

var _ availability.Recorder = (*Prometheus)(nil)

// NewPrometheus creates a collector. A nil registerer uses the default one;
// an empty namespace uses "overlap".
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "overlap"
	}
	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.operations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "availability",
			Name:      "operations_total",
			Help:      "Availability write operations by op and result.",
		}, []string{"op", "result"})

		p.operationTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "availability",
			Name:      "operation_duration_seconds",
			Help:      "Duration of availability write operations, lock wait included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		}, []string{"op"})

		p.intervalsMerged = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "intervals_merged_total",
			Help:      "Stored intervals absorbed into a merged interval.",
		})

		p.intervalsSplit = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "intervals_split_total",
			Help:      "Stored intervals split in two by a removal.",
		})

		p.lockWait = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the per-member availability lock.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		})

		p.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "MCP tool calls by tool and result.",
		}, []string{"tool", "result"})

		p.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "REST requests by route, method and status code.",
		}, []string{"route", "method", "code"})

		p.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "REST request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"})

		p.reg.MustRegister(
			p.operations,
			p.operationTime,
			p.intervalsMerged,
			p.intervalsSplit,
			p.lockWait,
			p.toolCalls,
			p.httpRequests,
			p.httpDuration,
		)
	})
}

// ObserveOperation records one availability write.
func (p *Prometheus) ObserveOperation(op string, err error, elapsed time.Duration) {
	p.ensureRegistered()
	p.operations.WithLabelValues(op, Result(err)).Inc()
	p.operationTime.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveLockWait records time spent acquiring the member lock.
func (p *Prometheus) ObserveLockWait(elapsed time.Duration) {
	p.ensureRegistered()
	p.lockWait.Observe(elapsed.Seconds())
}

// IntervalsMerged counts intervals absorbed by an add.
func (p *Prometheus) IntervalsMerged(n int) {
	if n <= 0 {
		return
	}
	p.ensureRegistered()
	p.intervalsMerged.Add(float64(n))
}

// IntervalsSplit counts intervals split by a removal.
func (p *Prometheus) IntervalsSplit(n int) {
	if n <= 0 {
		return
	}
	p.ensureRegistered()
	p.intervalsSplit.Add(float64(n))
}

// ObserveToolCall records one MCP tool invocation.
func (p *Prometheus) ObserveToolCall(tool string, err error) {
	p.ensureRegistered()
	p.toolCalls.WithLabelValues(tool, Result(err)).Inc()
}

// ObserveHTTPRequest records one REST request. route is the router pattern,
// not the raw path.
func (p *Prometheus) ObserveHTTPRequest(route, method string, code int, elapsed time.Duration) {
	p.ensureRegistered()
	p.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	p.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Result maps an operation error to a result label.
func Result(err error) string {
	var coded interface{ CodeValue() string }
	switch {
	case err == nil:
		return ResultSuccess
	case errors.As(err, &coded):
		switch coded.CodeValue() {
		case "LOCKED":
			return ResultLocked
		case "INTERNAL":
			return ResultFailure
		default:
			return ResultInvalid
		}
	case errors.Is(err, availability.ErrInvalidRange), errors.Is(err, availability.ErrInvalidInput),
		errors.Is(err, availability.ErrIntervalNotFound),
		errors.Is(err, group.ErrNotMember), errors.Is(err, group.ErrGroupNotFound):
		return ResultInvalid
	case errors.Is(err, availability.ErrLocked):
		return ResultLocked
	default:
		return ResultFailure
	}
}
