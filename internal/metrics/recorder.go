// Package metrics records hook execution latency per controller action.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"yqhp/aspect/pkg/aspect"
)

const (
	minLatencyMicros = 1
	maxLatencyMicros = int64(time.Minute / time.Microsecond)
	sigFigs          = 3
)

// Key identifies one latency series.
type Key struct {
	Controller string
	Action     string
	Phase      aspect.Phase
}

type series struct {
	hist   *hdrhistogram.Histogram
	errors int64
}

// Recorder aggregates hook durations. It implements aspect.Observer.
type Recorder struct {
	mu     sync.Mutex
	series map[Key]*series
}

var _ aspect.Observer = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{series: make(map[Key]*series)}
}

// ObserveHook implements aspect.Observer.
func (r *Recorder) ObserveHook(e aspect.HookEvent) {
	key := Key{Controller: e.Controller, Action: e.Action, Phase: e.Phase}
	v := e.Duration.Microseconds()
	if v < minLatencyMicros {
		v = minLatencyMicros
	}
	if v > maxLatencyMicros {
		v = maxLatencyMicros
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.series[key]
	if !ok {
		s = &series{hist: hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs)}
		r.series[key] = s
	}
	_ = s.hist.RecordValue(v)
	if e.Err != nil {
		s.errors++
	}
}

// Stat summarizes one series. Latencies are in milliseconds.
type Stat struct {
	Controller string  `json:"controller"`
	Action     string  `json:"action"`
	Phase      string  `json:"phase"`
	Count      int64   `json:"count"`
	Errors     int64   `json:"errors"`
	Mean       float64 `json:"mean_ms"`
	P50        float64 `json:"p50_ms"`
	P95        float64 `json:"p95_ms"`
	P99        float64 `json:"p99_ms"`
	Max        float64 `json:"max_ms"`
}

// Snapshot returns the current stats ordered by controller, action, phase.
func (r *Recorder) Snapshot() []Stat {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make([]Stat, 0, len(r.series))
	for key, s := range r.series {
		h := s.hist
		stats = append(stats, Stat{
			Controller: key.Controller,
			Action:     key.Action,
			Phase:      string(key.Phase),
			Count:      h.TotalCount(),
			Errors:     s.errors,
			Mean:       h.Mean() / 1000,
			P50:        microsToMillis(h.ValueAtQuantile(50)),
			P95:        microsToMillis(h.ValueAtQuantile(95)),
			P99:        microsToMillis(h.ValueAtQuantile(99)),
			Max:        microsToMillis(h.Max()),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.Controller != b.Controller {
			return a.Controller < b.Controller
		}
		if a.Action != b.Action {
			return a.Action < b.Action
		}
		return a.Phase < b.Phase
	})
	return stats
}

// Reset drops every series.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series = make(map[Key]*series)
}

func microsToMillis(v int64) float64 {
	return float64(v) / 1000
}
