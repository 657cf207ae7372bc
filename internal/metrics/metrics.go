// Package metrics exposes schedule-processing counters to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeNoTable = "no_table"
	OutcomeError   = "error"
)

// PromRecorder records request outcomes, produced events, skipped time
// periods and recognition latency.
type PromRecorder struct {
	requests *prometheus.CounterVec
	events   prometheus.Counter
	skipped  *prometheus.CounterVec
	extract  prometheus.Histogram
}

// NewPromRecorder registers the collectors on reg. If reg is nil, the
// default registerer is used. Collectors that are already registered are
// reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tablecal_requests_total",
		Help: "Schedule conversion requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	events := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tablecal_events_total",
		Help: "Calendar events produced from schedule tables",
	})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tablecal_skipped_periods_total",
		Help: "Time-period cells dropped during conversion, by reason",
	}, []string{"reason"})
	extract := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tablecal_extract_duration_seconds",
		Help:    "Time spent in the table recognition engine",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if events, err = register(reg, events); err != nil {
		return nil, err
	}
	if skipped, err = register(reg, skipped); err != nil {
		return nil, err
	}
	if extract, err = register(reg, extract); err != nil {
		return nil, err
	}
	return &PromRecorder{requests: requests, events: events, skipped: skipped, extract: extract}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveRequest counts one request.
func (r *PromRecorder) ObserveRequest(endpoint, outcome string) {
	r.requests.WithLabelValues(endpoint, outcome).Inc()
}

func (r *PromRecorder) ObserveExtract(d time.Duration) {
	r.extract.Observe(d.Seconds())
}

func (r *PromRecorder) AddEvents(n int) {
	r.events.Add(float64(n))
}

func (r *PromRecorder) AddSkipped(reason string, n int) {
	r.skipped.WithLabelValues(reason).Add(float64(n))
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) ObserveRequest(string, string) {}
func (NopRecorder) ObserveExtract(time.Duration) {}
func (NopRecorder) AddEvents(int) {}
func (NopRecorder) AddSkipped(string, int) {}
