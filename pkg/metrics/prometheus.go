package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker/circuit"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/queue"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/scan"
)

// PrometheusRecorder implements Recorder using Prometheus client_golang,
// grounded on the teacher's pkg/agent/middleware/metrics/prometheus.go
// (promauto-registered CounterVec/GaugeVec/HistogramVec), generalized
// from per-LLM-request metrics to the queue/breaker/governor/scan
// components this spec instruments.
type PrometheusRecorder struct {
	queueDepth       prometheus.Gauge
	queueThroughput  prometheus.Gauge
	queueTasksTotal  *prometheus.GaugeVec
	breakerState     *prometheus.GaugeVec
	governorCapacity prometheus.Gauge
	governorInUse    prometheus.Gauge
	scanFindings     *prometheus.CounterVec
	scanProgress     prometheus.Gauge
	scanCompleted    *prometheus.CounterVec
}

// NewPrometheusRecorder registers and returns a new Prometheus-based
// recorder against the default global registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	return newPrometheusRecorder(promauto.With(prometheus.DefaultRegisterer))
}

// NewPrometheusRecorderFor registers and returns a new Prometheus-based
// recorder against reg instead of the default global registry — used by
// tests, and by any process that wants to expose these metrics on a
// non-default registry.
func NewPrometheusRecorderFor(reg *prometheus.Registry) *PrometheusRecorder {
	return newPrometheusRecorder(promauto.With(reg))
}

func newPrometheusRecorder(f promauto.Factory) *PrometheusRecorder {
	return &PrometheusRecorder{
		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "a3sist_queue_depth",
			Help: "Current number of tasks waiting in the priority queue.",
		}),
		queueThroughput: f.NewGauge(prometheus.GaugeOpts{
			Name: "a3sist_queue_throughput_per_minute",
			Help: "Measured dequeue throughput over the trailing window.",
		}),
		queueTasksTotal: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "a3sist_queue_tasks_total",
			Help: "Cumulative tasks enqueued into the queue, by priority (queue.Stats is itself cumulative).",
		}, []string{"priority"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "a3sist_breaker_state",
			Help: "Circuit breaker state by name: 0=closed, 1=open, 2=half_open.",
		}, []string{"name"}),
		governorCapacity: f.NewGauge(prometheus.GaugeOpts{
			Name: "a3sist_governor_capacity",
			Help: "Current concurrency governor capacity bound.",
		}),
		governorInUse: f.NewGauge(prometheus.GaugeOpts{
			Name: "a3sist_governor_permits_in_use",
			Help: "Permits currently acquired from the concurrency governor.",
		}),
		scanFindings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "a3sist_scan_findings_total",
			Help: "Total findings discovered by the scan engine, by severity and type.",
		}, []string{"severity", "type"}),
		scanProgress: f.NewGauge(prometheus.GaugeOpts{
			Name: "a3sist_scan_progress_percent",
			Help: "Percent complete of the active workspace scan.",
		}),
		scanCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "a3sist_scan_completed_total",
			Help: "Total completed scans, by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveQueue records a queue depth/throughput snapshot.
func (p *PrometheusRecorder) ObserveQueue(stats queue.Stats, depth int) {
	p.queueDepth.Set(float64(depth))
	p.queueThroughput.Set(stats.ThroughputPerMin)
	for priority, count := range stats.PerPriorityCounts {
		p.queueTasksTotal.WithLabelValues(priority.String()).Set(float64(count))
	}
}

// ObserveBreaker records a named breaker's current state.
func (p *PrometheusRecorder) ObserveBreaker(name string, state circuit.State) {
	var v float64
	switch state {
	case circuit.Open:
		v = 1
	case circuit.HalfOpen:
		v = 2
	case circuit.Closed:
		v = 0
	}
	p.breakerState.WithLabelValues(name).Set(v)
}

// ObserveGovernor records the governor's current capacity and permits in use.
func (p *PrometheusRecorder) ObserveGovernor(capacity, inUse int) {
	p.governorCapacity.Set(float64(capacity))
	p.governorInUse.Set(float64(inUse))
}

// ObserveScanFinding increments the findings counter for one discovered finding.
func (p *PrometheusRecorder) ObserveScanFinding(severity, findingType string) {
	p.scanFindings.WithLabelValues(severity, findingType).Inc()
}

// ObserveScanProgress records the percent-complete of the active scan.
func (p *PrometheusRecorder) ObserveScanProgress(percent float64) {
	p.scanProgress.Set(percent)
}

// ObserveScanCompleted records a terminal scan outcome.
func (p *PrometheusRecorder) ObserveScanCompleted(success bool, durationSeconds float64) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	p.scanCompleted.WithLabelValues(outcome).Inc()
	_ = durationSeconds // duration is available via the eventbus payload; no histogram named in SPEC_FULL.md yet
}

// Mirror subscribes to the scan engine's topics and feeds matching events
// into p, one goroutine per topic, until ctx is cancelled. Grounded on
// pkg/eventlog.Writer.Mirror's identical subscribe-per-topic shape.
func (p *PrometheusRecorder) Mirror(ctx context.Context, bus *eventbus.Bus) {
	topics := []eventbus.Topic{
		eventbus.TopicScanIssueFound,
		eventbus.TopicScanProgress,
		eventbus.TopicScanCompleted,
	}
	for _, topic := range topics {
		sub := bus.Subscribe(topic, 0)
		go func(topic eventbus.Topic, sub *eventbus.Subscription) {
			defer sub.Unsubscribe()
			for {
				select {
				case evt, ok := <-sub.Events():
					if !ok {
						return
					}
					p.observe(topic, evt.Data)
				case <-ctx.Done():
					return
				}
			}
		}(topic, sub)
	}
}

func (p *PrometheusRecorder) observe(topic eventbus.Topic, data any) {
	switch topic {
	case eventbus.TopicScanIssueFound:
		if evt, ok := data.(scan.IssueFoundEvent); ok {
			p.ObserveScanFinding(string(evt.Finding.Severity), string(evt.Finding.Type))
		}
	case eventbus.TopicScanProgress:
		if evt, ok := data.(scan.ProgressEvent); ok {
			p.ObserveScanProgress(evt.Percent)
		}
	case eventbus.TopicScanCompleted:
		if evt, ok := data.(scan.CompletedEvent); ok {
			p.ObserveScanCompleted(evt.Success, evt.Duration.Seconds())
		}
	}
}
