// Package replay runs a recorded trace of launch events and context edges
// through the full ranking pipeline, for offline tuning and regression
// checks against real usage captures.
package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/launchpilot/contextrank/internal/rank"
	"github.com/launchpilot/contextrank/internal/snapshot"
	"github.com/launchpilot/contextrank/internal/usage"
)

// #region trace

// Event is one recorded moment: the device context at that time plus what
// happened — an app launch, a platform change edge, or an expectation check
// against the latest published ranking.
type Event struct {
	Kind     string            `json:"kind"` // "launch" | "edge" | "expect"
	AppID    string            `json:"appId,omitempty"`
	Edge     snapshot.EdgeKind `json:"edge,omitempty"`
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

// Trace is a recorded event sequence.
type Trace struct {
	Events []Event `json:"events"`
}

// LoadTrace reads a JSON trace file.
func LoadTrace(path string) (Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Trace{}, fmt.Errorf("read trace: %w", err)
	}
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return Trace{}, fmt.Errorf("parse trace %s: %w", path, err)
	}
	return t, nil
}

// #endregion trace

// #region summary

// Summary aggregates one replay run.
type Summary struct {
	Launches   int      `json:"launches"`
	Triggers   int      `json:"triggers"`
	Published  int      `json:"published"`
	Suppressed int      `json:"suppressed"` // triggers judged immaterial
	Expected   int      `json:"expected"`   // expect events checked
	Mismatches []string `json:"mismatches,omitempty"`
	FinalTop   []string `json:"finalTop"`
}

// #endregion summary

// #region harness

// Harness replays a trace against a store and a synchronous pipeline.
type Harness struct {
	store      *usage.Store
	pipeline   *rank.Pipeline
	scripted   *snapshot.Scripted
	emaFactor  float64
	historyCap int
}

// NewHarness wires a replay harness. The pipeline is driven synchronously
// through EvaluateOnce; its background loop is never started.
func NewHarness(store *usage.Store, cfg rank.Config, emaFactor float64, historyCap int, logger *zap.Logger) *Harness {
	scripted := snapshot.NewScripted(snapshot.Snapshot{})
	producer := snapshot.NewProducer(scripted, scripted, scripted, scripted,
		snapshot.DefaultProducerConfig(), logger)
	pipeline := rank.NewPipeline(producer, store, snapshot.NewBus(16), cfg, logger)
	return &Harness{
		store:      store,
		pipeline:   pipeline,
		scripted:   scripted,
		emaFactor:  emaFactor,
		historyCap: historyCap,
	}
}

// Run replays every event in order and returns the aggregate summary.
func (h *Harness) Run(trace Trace) (Summary, error) {
	var summary Summary

	for i, ev := range trace.Events {
		snap := ev.Snapshot
		if snap.CapturedAt.IsZero() {
			snap.CapturedAt = time.Now().UTC()
		}
		h.scripted.Set(snap)

		switch ev.Kind {
		case "launch":
			if ev.AppID == "" {
				return summary, fmt.Errorf("event %d: launch without appId", i)
			}
			if _, err := h.store.Touch(ev.AppID, snap, h.emaFactor, h.historyCap); err != nil {
				return summary, fmt.Errorf("event %d: touch %s: %w", i, ev.AppID, err)
			}
			summary.Launches++
		case "edge":
			edge := ev.Edge
			if edge == "" {
				edge = snapshot.EdgeRefresh
			}
			summary.Triggers++
			if ranking := h.pipeline.EvaluateOnce(edge); ranking != nil {
				summary.Published++
			} else {
				summary.Suppressed++
			}
		case "expect":
			if ev.AppID == "" {
				return summary, fmt.Errorf("event %d: expect without appId", i)
			}
			summary.Expected++
			got := ""
			if latest := h.pipeline.Latest(); latest != nil && len(latest.Candidates) > 0 {
				got = latest.Candidates[0].AppID
			}
			if got != ev.AppID {
				summary.Mismatches = append(summary.Mismatches,
					fmt.Sprintf("event %d: top app %q, expected %q", i, got, ev.AppID))
			}
		default:
			return summary, fmt.Errorf("event %d: unknown kind %q", i, ev.Kind)
		}
	}

	if latest := h.pipeline.Latest(); latest != nil {
		summary.FinalTop = latest.AppIDs()
	}
	return summary, nil
}

// #endregion harness
