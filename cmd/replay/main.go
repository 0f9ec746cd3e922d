package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/launchpilot/contextrank/internal/rank"
	"github.com/launchpilot/contextrank/internal/replay"
	"github.com/launchpilot/contextrank/internal/usage"
)

// #region main

func main() {
	tracePath := flag.String("trace", "", "path to trace JSON")
	dbPath := flag.String("db", "", "usage DB path (empty = throwaway temp DB)")
	limit := flag.Int("limit", 10, "published ranking length")
	preset := flag.String("preset", "medium", "EMA responsiveness preset (low|medium|high)")
	jsonOut := flag.Bool("json", false, "output summary as JSON")
	flag.Parse()

	if *tracePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --trace path/to/trace.json [--db path] [--limit N] [--preset low|medium|high] [--json]")
		os.Exit(2)
	}

	trace, err := replay.LoadTrace(*tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	p, err := usage.ParsePreset(*preset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	storePath := *dbPath
	if storePath == "" {
		// A throwaway file, not :memory:: the sql pool would hand each
		// connection its own empty in-memory database.
		tmp, err := os.CreateTemp("", "contextrank-replay-*.db")
		if err != nil {
			fmt.Fprintf(os.Stderr, "temp db: %v\n", err)
			os.Exit(1)
		}
		tmp.Close()
		defer os.Remove(tmp.Name())
		storePath = tmp.Name()
	}
	store, err := usage.NewStore(storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	cfg := rank.Config{
		SmartRanking: true,
		Limit:        *limit,
		HistoryCap:   usage.DefaultHistoryCap,
		Params:       rank.DefaultParams(),
	}

	harness := replay.NewHarness(store, cfg, p.Factor(), usage.DefaultHistoryCap, nil)
	summary, err := harness.Run(trace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		out, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Printf("events:     %d launches, %d triggers\n", summary.Launches, summary.Triggers)
	fmt.Printf("published:  %d rankings (%d triggers suppressed as immaterial)\n",
		summary.Published, summary.Suppressed)
	if summary.Expected > 0 {
		fmt.Printf("expects:    %d checked, %d mismatched\n", summary.Expected, len(summary.Mismatches))
		for _, m := range summary.Mismatches {
			fmt.Printf("  %s\n", m)
		}
	}
	fmt.Printf("final top:  %v\n", summary.FinalTop)

	if len(summary.Mismatches) > 0 {
		os.Exit(1)
	}
}

// #endregion main
