// Package metrics exposes recompute and record-change metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "fuel_"

	resultSuccess = "success"
	resultError   = "error"
)

// Recorder implements fuel.Observer.
type Recorder struct {
	monthReplays      *prometheus.CounterVec
	monthReplayTime   *prometheus.HistogramVec
	recordsReplayed   prometheus.Counter
	runs              *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	lastRunSuccessful prometheus.Gauge
	recordChanges     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the recorder's collectors on reg. A nil reg uses a private
// registry, which keeps tests independent.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		monthReplays: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "month_replays_total",
				Help: "Total month replays by result",
			},
			[]string{"result"},
		),
		monthReplayTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "month_replay_duration_seconds",
				Help:    "Month replay latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		recordsReplayed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_replayed_total",
				Help: "Total records priced by successful month replays",
			},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "recompute_runs_total",
				Help: "Total full recompute runs by trigger and result",
			},
			[]string{"trigger", "result"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "recompute_run_duration_seconds",
				Help:    "Full recompute run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		lastRunSuccessful: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "recompute_last_run_success",
				Help: "1 if the last full recompute succeeded, 0 otherwise",
			},
		),
		recordChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "record_changes_total",
				Help: "Total record submits and deletes by result",
			},
			[]string{"op", "result"},
		),
		gatherer: reg,
	}
	reg.MustRegister(
		r.monthReplays,
		r.monthReplayTime,
		r.recordsReplayed,
		r.runs,
		r.runDuration,
		r.lastRunSuccessful,
		r.recordChanges,
	)
	return r
}

// MonthReplayed records one month replay.
func (r *Recorder) MonthReplayed(_ generic.MonthKey, records int, elapsed time.Duration, err error) {
	result := resultLabel(err)
	r.monthReplays.WithLabelValues(result).Inc()
	r.monthReplayTime.WithLabelValues(result).Observe(elapsed.Seconds())
	if err == nil {
		r.recordsReplayed.Add(float64(records))
	}
}

// RunFinished records one full recompute.
func (r *Recorder) RunFinished(trigger string, _ int, elapsed time.Duration, err error) {
	r.runs.WithLabelValues(trigger, resultLabel(err)).Inc()
	r.runDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
	if err != nil {
		r.lastRunSuccessful.Set(0)
		return
	}
	r.lastRunSuccessful.Set(1)
}

// RecordChanged records a submit or delete.
func (r *Recorder) RecordChanged(op string, err error) {
	r.recordChanges.WithLabelValues(op, resultLabel(err)).Inc()
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

func resultLabel(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
