package accounting

import (
	"sort"
	"time"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/models"
)

// NodeTimer measures one node execution: total wall time plus marked
// LLM and I/O sub-intervals. Not safe for concurrent use; each node
// execution gets its own timer.
type NodeTimer struct {
	node     string
	pipeline string
	started  time.Time
	llm      time.Duration
	io       time.Duration
}

// StartNodeTimer begins timing a node body.
func StartNodeTimer(node, pipeline string) *NodeTimer {
	return &NodeTimer{node: node, pipeline: pipeline, started: time.Now()}
}

// LLM runs fn and attributes its duration to LLM time.
func (t *NodeTimer) LLM(fn func() error) error {
	start := time.Now()
	err := fn()
	t.llm += time.Since(start)
	return err
}

// IO runs fn and attributes its duration to I/O time.
func (t *NodeTimer) IO(fn func() error) error {
	start := time.Now()
	err := fn()
	t.io += time.Since(start)
	return err
}

// Finish closes the timer and produces the record. Overhead is wall
// time not attributed to LLM or I/O, clamped at zero.
func (t *NodeTimer) Finish() models.TimingRecord {
	wall := time.Since(t.started)
	overhead := wall - t.llm - t.io
	if overhead < 0 {
		overhead = 0
	}
	return models.TimingRecord{
		Node:         t.node,
		ToolPipeline: t.pipeline,
		WallTimeMS:   wall.Milliseconds(),
		LLMTimeMS:    t.llm.Milliseconds(),
		IOTimeMS:     t.io.Milliseconds(),
		OverheadMS:   overhead.Milliseconds(),
	}
}

// TimingTotals aggregates timing across records.
type TimingTotals struct {
	WallTimeMS int64
	LLMTimeMS  int64
	IOTimeMS   int64
	OverheadMS int64
}

// TimingSummary is the aggregate view over one or more turns.
type TimingSummary struct {
	ByNode        map[string]TimingTotals
	ByPipeline    map[string]TimingTotals
	Grand         TimingTotals
	SlowestNode   string
	SlowestWallMS int64
}

// SummarizeTiming aggregates per-node and per-pipeline totals and
// identifies the slowest node by wall time.
func SummarizeTiming(records []models.TimingRecord) TimingSummary {
	s := TimingSummary{
		ByNode:     make(map[string]TimingTotals),
		ByPipeline: make(map[string]TimingTotals),
	}
	add := func(t *TimingTotals, r models.TimingRecord) {
		t.WallTimeMS += r.WallTimeMS
		t.LLMTimeMS += r.LLMTimeMS
		t.IOTimeMS += r.IOTimeMS
		t.OverheadMS += r.OverheadMS
	}
	for _, r := range records {
		nt := s.ByNode[r.Node]
		add(&nt, r)
		s.ByNode[r.Node] = nt

		key := r.ToolPipeline
		if key == "" {
			key = "agent"
		}
		pt := s.ByPipeline[key]
		add(&pt, r)
		s.ByPipeline[key] = pt

		add(&s.Grand, r)

		if r.WallTimeMS > s.SlowestWallMS {
			s.SlowestWallMS = r.WallTimeMS
			s.SlowestNode = r.Node
		}
	}
	return s
}

// Percentiles computes p50/p90/p95 over per-turn wall time totals
// using nearest-rank selection. Empty input yields zeros.
func Percentiles(turnTotalsMS []int64) (p50, p90, p95 int64) {
	if len(turnTotalsMS) == 0 {
		return 0, 0, 0
	}
	sorted := make([]int64, len(turnTotalsMS))
	copy(sorted, turnTotalsMS)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rank := func(p float64) int64 {
		idx := int(p*float64(len(sorted))+0.5) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	}
	return rank(0.50), rank(0.90), rank(0.95)
}
