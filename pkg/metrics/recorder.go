// Package metrics provides Prometheus instrumentation for the queue,
// breaker, governor, and scan components (spec §4, ambient).
package metrics

import (
	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker/circuit"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/queue"
)

// Recorder is the metrics sink the composition root wires components
// against. Grounded on the teacher's LLM Recorder interface, generalized
// from a single ObserveRequest method to one method per observed
// component so each can be called independently from wherever that
// component's state is visible.
type Recorder interface {
	// ObserveQueue records a queue depth/throughput snapshot.
	ObserveQueue(stats queue.Stats, depth int)
	// ObserveBreaker records a named breaker's current state.
	ObserveBreaker(name string, state circuit.State)
	// ObserveGovernor records the governor's current capacity and permits in use.
	ObserveGovernor(capacity, inUse int)
	// ObserveScanFinding increments the findings counter for one discovered finding.
	ObserveScanFinding(severity, findingType string)
	// ObserveScanProgress records the percent-complete of the active scan.
	ObserveScanProgress(percent float64)
	// ObserveScanCompleted records a terminal scan outcome.
	ObserveScanCompleted(success bool, durationSeconds float64)
}

// NoopRecorder implements Recorder with no-op behavior, for running with
// metrics disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all observations.
func Nop() Recorder { return NoopRecorder{} }

func (NoopRecorder) ObserveQueue(queue.Stats, int)        {}
func (NoopRecorder) ObserveBreaker(string, circuit.State) {}
func (NoopRecorder) ObserveGovernor(int, int)             {}
func (NoopRecorder) ObserveScanFinding(string, string)    {}
func (NoopRecorder) ObserveScanProgress(float64)          {}
func (NoopRecorder) ObserveScanCompleted(bool, float64)   {}
