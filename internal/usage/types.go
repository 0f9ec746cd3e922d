package usage

import (
	"fmt"
	"time"

	"github.com/launchpilot/contextrank/internal/snapshot"
)

// #region history-entry

// HistoryEntry is one recorded launch context for an application.
type HistoryEntry struct {
	Snapshot   snapshot.Snapshot
	LaunchedAt time.Time
}

// #endregion history-entry

// #region record

// Record is the per-application usage state: a long-run EMA weight, a launch
// counter, and a bounded FIFO of past launch contexts.
type Record struct {
	AppID       string
	Weight      float64
	LaunchCount int64
	History     []HistoryEntry
	UpdatedAt   time.Time
}

// #endregion record

// #region preset

// Preset selects how fast the EMA weight responds to launches.
type Preset string

const (
	PresetLow    Preset = "low"
	PresetMedium Preset = "medium"
	PresetHigh   Preset = "high"
)

// Factor returns the EMA update factor for the preset.
func (p Preset) Factor() float64 {
	switch p {
	case PresetLow:
		return 0.01
	case PresetHigh:
		return 0.1
	default:
		return 0.03
	}
}

// ParsePreset validates a preset name.
func ParsePreset(s string) (Preset, error) {
	switch Preset(s) {
	case PresetLow, PresetMedium, PresetHigh:
		return Preset(s), nil
	}
	return "", fmt.Errorf("unknown responsiveness preset %q (want low, medium, or high)", s)
}

// #endregion preset

// #region default-history-cap

// DefaultHistoryCap bounds the per-application context history; oldest
// entries are evicted FIFO once exceeded.
const DefaultHistoryCap = 50

// #endregion default-history-cap
