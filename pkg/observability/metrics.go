// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package observability implements spec.md §4.10's metrics collector: plain
// counters, a sliding window of the last 1000 request durations for
// JSON-snapshot percentiles, per-endpoint/per-agent/per-workflow
// breakdowns, and a Prometheus text exposition built on
// prometheus/client_golang — the same library the teacher repo's
// pkg/observability/metrics.go uses for its own counters and histograms.
package observability

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HistogramBucketsMS are the millisecond bucket boundaries spec.md §4.10
// names explicitly for the Prometheus histogram exposition.
var HistogramBucketsMS = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

const slidingWindowSize = 1000

// Metrics is the runtime's thread-safe counters/histograms collector.
type Metrics struct {
	registry *prometheus.Registry

	mu            sync.Mutex
	totalRequests int64
	successCount  int64
	errorCount    int64
	window        []int64 // last N request durations in ms, ring buffer
	windowNext    int
	windowFilled  bool

	byEndpoint map[string]*counterSet
	byAgent    map[string]*counterSet
	byWorkflow map[string]*counterSet

	requestsTotal  *prometheus.CounterVec
	requestErrors  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// counterSet is a small request/success/error trio kept per dimension
// (endpoint, agent, or workflow).
type counterSet struct {
	total   int64
	success int64
	errors  int64
}

// New builds a Metrics collector with its own Prometheus registry (never
// the global default registry, so multiple runtimes in one process — e.g.
// under test — never collide on metric registration).
func New() *Metrics {
	m := &Metrics{
		registry:   prometheus.NewRegistry(),
		byEndpoint: make(map[string]*counterSet),
		byAgent:    make(map[string]*counterSet),
		byWorkflow: make(map[string]*counterSet),
		window:     make([]int64, slidingWindowSize),
	}

	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kolosal_agent",
		Name:      "requests_total",
		Help:      "Total number of dispatched operations, by dimension.",
	}, []string{"dimension", "name"})

	m.requestErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kolosal_agent",
		Name:      "request_errors_total",
		Help:      "Total number of failed operations, by dimension.",
	}, []string{"dimension", "name"})

	m.requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kolosal_agent",
		Name:      "request_duration_milliseconds",
		Help:      "Operation duration in milliseconds.",
		Buckets:   HistogramBucketsMS,
	}, []string{"dimension", "name"})

	m.registry.MustRegister(m.requestsTotal, m.requestErrors, m.requestLatency)
	return m
}

// Dimension identifies which breakdown map an observation belongs to.
type Dimension string

const (
	DimensionEndpoint Dimension = "endpoint"
	DimensionAgent    Dimension = "agent"
	DimensionWorkflow Dimension = "workflow"
)

// Observe records one completed operation: success/failure, its duration,
// and which named endpoint/agent/workflow it belongs to.
func (m *Metrics) Observe(dim Dimension, name string, success bool, duration time.Duration) {
	ms := float64(duration.Microseconds()) / 1000.0

	m.mu.Lock()
	m.totalRequests++
	if success {
		m.successCount++
	} else {
		m.errorCount++
	}
	m.window[m.windowNext] = duration.Milliseconds()
	m.windowNext = (m.windowNext + 1) % slidingWindowSize
	if m.windowNext == 0 {
		m.windowFilled = true
	}

	set := m.setFor(dim, name)
	set.total++
	if !success {
		set.errors++
	} else {
		set.success++
	}
	m.mu.Unlock()

	m.requestsTotal.WithLabelValues(string(dim), name).Inc()
	if !success {
		m.requestErrors.WithLabelValues(string(dim), name).Inc()
	}
	m.requestLatency.WithLabelValues(string(dim), name).Observe(ms)
}

// setFor returns (creating if needed) the counterSet for dim/name. Callers
// must hold m.mu.
func (m *Metrics) setFor(dim Dimension, name string) *counterSet {
	var bucket map[string]*counterSet
	switch dim {
	case DimensionAgent:
		bucket = m.byAgent
	case DimensionWorkflow:
		bucket = m.byWorkflow
	default:
		bucket = m.byEndpoint
	}
	set, ok := bucket[name]
	if !ok {
		set = &counterSet{}
		bucket[name] = set
	}
	return set
}

// Registry exposes the underlying Prometheus registry for /metrics/prometheus.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Snapshot is the JSON shape returned by GET /metrics.
type Snapshot struct {
	TotalRequests int64                  `json:"total_requests"`
	SuccessCount  int64                  `json:"success_count"`
	ErrorCount    int64                  `json:"error_count"`
	LatencyMS     Percentiles            `json:"latency_ms"`
	ByEndpoint    map[string]DimensionStat `json:"by_endpoint"`
	ByAgent       map[string]DimensionStat `json:"by_agent"`
	ByWorkflow    map[string]DimensionStat `json:"by_workflow"`
}

// Percentiles over the sliding window of the last 1000 request durations.
type Percentiles struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// DimensionStat is the per-endpoint/agent/workflow breakdown entry.
type DimensionStat struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Errors  int64 `json:"errors"`
}

// Snapshot renders the current JSON view of the collector. The invariant
// `TotalRequests == SuccessCount + ErrorCount` holds at every snapshot taken
// outside an in-flight Observe call (spec.md §8 property 10).
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		TotalRequests: m.totalRequests,
		SuccessCount:  m.successCount,
		ErrorCount:    m.errorCount,
		LatencyMS:     percentilesOf(m.windowValues()),
		ByEndpoint:    flatten(m.byEndpoint),
		ByAgent:       flatten(m.byAgent),
		ByWorkflow:    flatten(m.byWorkflow),
	}
	return snap
}

func (m *Metrics) windowValues() []int64 {
	n := slidingWindowSize
	if !m.windowFilled {
		n = m.windowNext
	}
	out := make([]int64, n)
	copy(out, m.window[:n])
	return out
}

func percentilesOf(values []int64) Percentiles {
	if len(values) == 0 {
		return Percentiles{}
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return Percentiles{
		P50: percentile(sorted, 0.50),
		P95: percentile(sorted, 0.95),
		P99: percentile(sorted, 0.99),
	}
}

// percentile uses nearest-rank on a pre-sorted ascending slice.
func percentile(sorted []int64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p*float64(len(sorted)-1) + 0.5)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return float64(sorted[idx])
}

func flatten(m map[string]*counterSet) map[string]DimensionStat {
	out := make(map[string]DimensionStat, len(m))
	for k, v := range m {
		out[k] = DimensionStat{Total: v.total, Success: v.success, Errors: v.errors}
	}
	return out
}
