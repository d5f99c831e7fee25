package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// Snapshot is a point-in-time read of the gauges PrometheusRecorder
// exports, for an admin CLI status command. Grounded on the teacher's
// StoryMetrics/QueryService, re-keyed from per-story token/cost queries
// to this runtime's queue/governor/scan gauges.
type Snapshot struct {
	QueueDepth        float64
	QueueThroughput   float64
	GovernorCapacity  float64
	GovernorInUse     float64
	ScanProgress      float64
	ScanFindingsTotal float64
}

// QueryService queries a running Prometheus server for the metrics this
// process has exported, for use by an admin CLI that doesn't hold a
// direct reference to the live PrometheusRecorder (a separate process,
// or a long-running daemon queried after the fact).
type QueryService struct {
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service against the given
// Prometheus server address.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{Address: prometheusURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return &QueryService{queryAPI: v1.NewAPI(client)}, nil
}

// GetSnapshot queries the latest value of every gauge PrometheusRecorder
// exports.
func (q *QueryService) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	queries := map[string]*float64{
		"a3sist_queue_depth":                 &snap.QueueDepth,
		"a3sist_queue_throughput_per_minute": &snap.QueueThroughput,
		"a3sist_governor_capacity":           &snap.GovernorCapacity,
		"a3sist_governor_permits_in_use":     &snap.GovernorInUse,
		"a3sist_scan_progress_percent":       &snap.ScanProgress,
		"sum(a3sist_scan_findings_total)":    &snap.ScanFindingsTotal,
	}

	for query, dest := range queries {
		result, _, err := q.queryAPI.Query(ctx, query, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", query, err)
		}
		if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
			*dest = float64(vector[0].Value)
		}
	}

	return snap, nil
}
