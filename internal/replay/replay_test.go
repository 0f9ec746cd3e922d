package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/launchpilot/contextrank/internal/rank"
	"github.com/launchpilot/contextrank/internal/snapshot"
	"github.com/launchpilot/contextrank/internal/usage"
)

// #region helpers

func testHarness(t *testing.T) (*Harness, *usage.Store) {
	t.Helper()
	store, err := usage.NewStore(filepath.Join(t.TempDir(), "replay.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := rank.Config{
		SmartRanking: true,
		Limit:        5,
		HistoryCap:   usage.DefaultHistoryCap,
		Params:       rank.DefaultParams(),
	}
	return NewHarness(store, cfg, usage.PresetMedium.Factor(), usage.DefaultHistoryCap, nil), store
}

func contextAt(hour int, kind snapshot.ConnectionKind, networkID string) snapshot.Snapshot {
	return snapshot.Snapshot{
		Temporal:     &snapshot.TemporalFacet{Hour: hour, DayOfWeek: 2, Slot: snapshot.SlotForHour(hour)},
		Connectivity: &snapshot.ConnectivityFacet{Kind: kind, NetworkID: networkID},
		DeviceState:  &snapshot.DeviceStateFacet{Orientation: snapshot.OrientationPortrait},
	}
}

// #endregion helpers

// #region run

func TestRunCountsAndRanks(t *testing.T) {
	h, store := testHarness(t)

	office := contextAt(9, snapshot.ConnectionWifi, "Office")
	commute := contextAt(8, snapshot.ConnectionMobile, "")

	trace := Trace{Events: []Event{
		{Kind: "launch", AppID: "app.mail", Snapshot: office},
		{Kind: "launch", AppID: "app.mail", Snapshot: office},
		{Kind: "launch", AppID: "app.music", Snapshot: commute},
		{Kind: "edge", Edge: snapshot.EdgeConnectivity, Snapshot: office},
		// Same context again: judged immaterial.
		{Kind: "edge", Edge: snapshot.EdgePower, Snapshot: office},
		{Kind: "expect", AppID: "app.mail", Snapshot: office},
	}}

	summary, err := h.Run(trace)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Launches != 3 {
		t.Fatalf("launches = %d, want 3", summary.Launches)
	}
	if summary.Triggers != 2 || summary.Published != 1 || summary.Suppressed != 1 {
		t.Fatalf("triggers/published/suppressed = %d/%d/%d, want 2/1/1",
			summary.Triggers, summary.Published, summary.Suppressed)
	}
	if len(summary.FinalTop) == 0 || summary.FinalTop[0] != "app.mail" {
		t.Fatalf("final top = %v, want app.mail first in office context", summary.FinalTop)
	}
	if summary.Expected != 1 || len(summary.Mismatches) != 0 {
		t.Fatalf("expect check = %d/%v, want 1 pass", summary.Expected, summary.Mismatches)
	}

	rec, err := store.Touch("app.mail", office, 0, usage.DefaultHistoryCap)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if rec.LaunchCount != 3 {
		t.Fatalf("launch count = %d, want 2 replayed + 1 readback", rec.LaunchCount)
	}
}

func TestRunRejectsMalformedEvents(t *testing.T) {
	h, _ := testHarness(t)

	if _, err := h.Run(Trace{Events: []Event{{Kind: "launch"}}}); err == nil {
		t.Fatal("launch without appId accepted")
	}
	if _, err := h.Run(Trace{Events: []Event{{Kind: "expect"}}}); err == nil {
		t.Fatal("expect without appId accepted")
	}
	if _, err := h.Run(Trace{Events: []Event{{Kind: "teleport"}}}); err == nil {
		t.Fatal("unknown event kind accepted")
	}
}

func TestRunDefaultsEdgeKind(t *testing.T) {
	h, _ := testHarness(t)

	summary, err := h.Run(Trace{Events: []Event{
		{Kind: "edge", Snapshot: contextAt(10, snapshot.ConnectionWifi, "Home")},
	}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Published != 1 {
		t.Fatalf("published = %d, want 1", summary.Published)
	}
}

// #endregion run

// #region trace-file

func TestLoadTrace(t *testing.T) {
	trace := Trace{Events: []Event{
		{Kind: "launch", AppID: "app.notes", Snapshot: contextAt(14, snapshot.ConnectionWifi, "Home")},
		{Kind: "edge", Edge: snapshot.EdgeRefresh, Snapshot: contextAt(14, snapshot.ConnectionWifi, "Home")},
	}}
	data, err := json.Marshal(trace)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "trace.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := LoadTrace(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(loaded.Events))
	}
	if loaded.Events[0].AppID != "app.notes" || loaded.Events[1].Edge != snapshot.EdgeRefresh {
		t.Fatalf("round trip mismatch: %+v", loaded.Events)
	}

	if _, err := LoadTrace(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file accepted")
	}
}

// #endregion trace-file
