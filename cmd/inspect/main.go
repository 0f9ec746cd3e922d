package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/launchpilot/contextrank/internal/usage"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to contextrank.db")
	app := flag.String("app", "", "show one application's history detail")
	last := flag.Int("last", 20, "show N most recent ranking passes")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/contextrank.db [--app id] [--last N] [--json]")
		os.Exit(2)
	}

	store, err := usage.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *app != "" {
		if err := runAppMode(store, *app, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := runOverviewMode(store, *last, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region overview-mode

type recordRow struct {
	AppID       string  `json:"app_id"`
	Weight      float64 `json:"weight"`
	LaunchCount int64   `json:"launch_count"`
	History     int     `json:"history"`
}

func runOverviewMode(store *usage.Store, last int, jsonOut bool) error {
	records, err := store.Records()
	if err != nil {
		return err
	}

	rows := make([]recordRow, 0, len(records))
	for _, rec := range records {
		history, skipped, err := store.ReadHistory(rec.AppID)
		if err != nil {
			return err
		}
		rows = append(rows, recordRow{
			AppID:       rec.AppID,
			Weight:      rec.Weight,
			LaunchCount: rec.LaunchCount,
			History:     len(history) + skipped,
		})
	}

	passes, err := store.ListRankingLog(last)
	if err != nil {
		return err
	}

	if jsonOut {
		out, _ := json.MarshalIndent(map[string]interface{}{
			"records": rows,
			"passes":  passes,
		}, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("%-40s %10s %8s %8s\n", "APP", "WEIGHT", "LAUNCHES", "HISTORY")
	for _, r := range rows {
		fmt.Printf("%-40s %10.4f %8d %8d\n", r.AppID, r.Weight, r.LaunchCount, r.History)
	}

	fmt.Printf("\nlast %d ranking passes:\n", len(passes))
	fmt.Printf("%-38s %-14s %8s  %s\n", "PASS", "TRIGGER", "ELAPSED", "CHANGED")
	for _, p := range passes {
		fmt.Printf("%-38s %-14s %6dms  %s\n", p.PassID, p.TriggerKind, p.ElapsedMs, p.ChangedFacets)
	}
	return nil
}

// #endregion overview-mode

// #region app-mode

func runAppMode(store *usage.Store, appID string, jsonOut bool) error {
	w, err := store.BaseWeight(appID)
	if err != nil {
		return err
	}
	history, skipped, err := store.ReadHistory(appID)
	if err != nil {
		return err
	}

	if jsonOut {
		out, _ := json.MarshalIndent(map[string]interface{}{
			"app_id":  appID,
			"weight":  w,
			"skipped": skipped,
			"history": history,
		}, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("app:     %s\n", appID)
	fmt.Printf("weight:  %.4f\n", w)
	fmt.Printf("history: %d entries (%d undecodable skipped)\n", len(history), skipped)
	for _, h := range history {
		desc := "?"
		if h.Snapshot.Temporal != nil {
			desc = fmt.Sprintf("hour=%d dow=%d %s",
				h.Snapshot.Temporal.Hour, h.Snapshot.Temporal.DayOfWeek, h.Snapshot.Temporal.Slot)
		}
		conn := "no connection"
		if h.Snapshot.Connectivity != nil {
			conn = string(h.Snapshot.Connectivity.Kind)
			if h.Snapshot.Connectivity.NetworkID != "" {
				conn += " " + h.Snapshot.Connectivity.NetworkID
			}
		}
		fmt.Printf("  %s  %-28s %s\n", h.LaunchedAt.Format("2006-01-02 15:04"), desc, conn)
	}
	return nil
}

// #endregion app-mode
