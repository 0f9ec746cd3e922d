package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/launchpilot/contextrank/internal/config"
	"github.com/launchpilot/contextrank/internal/knn"
	"github.com/launchpilot/contextrank/internal/logging"
	"github.com/launchpilot/contextrank/internal/rank"
	"github.com/launchpilot/contextrank/internal/snapshot"
	"github.com/launchpilot/contextrank/internal/usage"
	"github.com/launchpilot/contextrank/internal/vector"
)

// #region repl

func runREPL(cfg *config.Config) error {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := usage.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	preset, err := usage.ParsePreset(cfg.EMAPreset)
	if err != nil {
		return err
	}

	// Simulated facet providers: the REPL mutates this context by hand the
	// way platform events would on a device.
	initial := snapshot.Snapshot{
		Connectivity: &snapshot.ConnectivityFacet{Kind: snapshot.ConnectionNone},
		Peripherals:  &snapshot.PeripheralFacet{},
		DeviceState:  &snapshot.DeviceStateFacet{Orientation: snapshot.OrientationPortrait},
	}
	if t, err := (snapshot.ClockTemporal{}).Temporal(); err == nil {
		initial.Temporal = &t
	}
	scripted := snapshot.NewScripted(initial)

	producerCfg := snapshot.ProducerConfig{
		FacetTimeout: time.Duration(cfg.FacetTimeoutMs) * time.Millisecond,
	}
	producer := snapshot.NewProducer(scripted, scripted, scripted, scripted, producerCfg, logger)

	params := rank.Params{
		Alpha:  cfg.Alpha,
		K:      cfg.K,
		Vector: vector.DefaultParams(),
	}
	params.Vector.DecayRate = cfg.SimilarityDecay

	bus := snapshot.NewBus(16)
	pipeline := rank.NewPipeline(producer, store, bus, rank.Config{
		SmartRanking: cfg.SmartRanking,
		Limit:        cfg.Limit,
		HistoryCap:   cfg.HistoryCap,
		Params:       params,
	}, logger)

	if err := pipeline.Start(); err != nil {
		return err
	}
	defer pipeline.Stop()

	go func() {
		for ranking := range pipeline.Subscribe() {
			fmt.Printf("\n-- ranking %s (trigger %s) --\n", ranking.PassID[:8], ranking.Trigger)
			for i, c := range ranking.Candidates {
				fmt.Printf("%2d. %-36s combined=%.4f ctx=%.4f base=%.4f\n",
					i+1, c.AppID, c.Combined, c.ContextScore, c.BaseWeight)
			}
			fmt.Print("> ")
		}
	}()

	fmt.Println("contextrank demo ready.")
	fmt.Printf("  db: %s | k=%d alpha=%.2f preset=%s smart=%v\n",
		cfg.DBPath, cfg.K, cfg.Alpha, cfg.EMAPreset, cfg.SmartRanking)
	fmt.Println("commands: touch <app> | wifi <ssid> | mobile | offline | bt add|rm <category>")
	fmt.Println("          charging on|off | rotate | time <hour> [dow] | rank | explain <app> | nearest | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "quit", "exit":
			return nil

		case "touch":
			if len(args) != 1 {
				fmt.Println("usage: touch <app>")
				continue
			}
			snap := scripted.Current()
			snap.CapturedAt = time.Now().UTC()
			rec, err := store.Touch(args[0], snap, preset.Factor(), cfg.HistoryCap)
			if err != nil {
				fmt.Printf("touch: %v\n", err)
				continue
			}
			fmt.Printf("touched %s: weight=%.4f launches=%d\n", rec.AppID, rec.Weight, rec.LaunchCount)

		case "wifi":
			if len(args) != 1 {
				fmt.Println("usage: wifi <ssid>")
				continue
			}
			scripted.Mutate(func(s *snapshot.Snapshot) {
				s.Connectivity = &snapshot.ConnectivityFacet{Kind: snapshot.ConnectionWifi, NetworkID: args[0]}
			})
			bus.Publish(snapshot.EdgeConnectivity)

		case "mobile":
			scripted.Mutate(func(s *snapshot.Snapshot) {
				s.Connectivity = &snapshot.ConnectivityFacet{Kind: snapshot.ConnectionMobile}
			})
			bus.Publish(snapshot.EdgeConnectivity)

		case "offline":
			scripted.Mutate(func(s *snapshot.Snapshot) {
				s.Connectivity = &snapshot.ConnectivityFacet{Kind: snapshot.ConnectionNone}
			})
			bus.Publish(snapshot.EdgeConnectivity)

		case "bt":
			if len(args) != 2 || (args[0] != "add" && args[0] != "rm") {
				fmt.Println("usage: bt add|rm <headphones|speakers|car|keyboard|mouse|watch|fitness_tracker|other>")
				continue
			}
			category := snapshot.PeripheralCategory(args[1])
			scripted.Mutate(func(s *snapshot.Snapshot) {
				if s.Peripherals == nil {
					s.Peripherals = &snapshot.PeripheralFacet{}
				}
				if args[0] == "add" {
					s.Peripherals.Categories = append(s.Peripherals.Categories, category)
					s.Peripherals.DeviceIDs = append(s.Peripherals.DeviceIDs,
						fmt.Sprintf("dev-%s-%d", category, len(s.Peripherals.DeviceIDs)))
				} else {
					s.Peripherals = removeCategory(s.Peripherals, category)
				}
			})
			bus.Publish(snapshot.EdgePeripheral)

		case "charging":
			if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
				fmt.Println("usage: charging on|off")
				continue
			}
			scripted.Mutate(func(s *snapshot.Snapshot) {
				if s.DeviceState == nil {
					s.DeviceState = &snapshot.DeviceStateFacet{Orientation: snapshot.OrientationPortrait}
				}
				s.DeviceState.Charging = args[0] == "on"
			})
			bus.Publish(snapshot.EdgePower)

		case "rotate":
			scripted.Mutate(func(s *snapshot.Snapshot) {
				if s.DeviceState == nil {
					s.DeviceState = &snapshot.DeviceStateFacet{}
				}
				if s.DeviceState.Orientation == snapshot.OrientationLandscape {
					s.DeviceState.Orientation = snapshot.OrientationPortrait
				} else {
					s.DeviceState.Orientation = snapshot.OrientationLandscape
				}
			})
			bus.Publish(snapshot.EdgeOrientation)

		case "time":
			if len(args) < 1 {
				fmt.Println("usage: time <hour 0-23> [dow 1-7]")
				continue
			}
			hour, err := strconv.Atoi(args[0])
			if err != nil || hour < 0 || hour > 23 {
				fmt.Println("hour must be 0-23")
				continue
			}
			dow := 1
			if len(args) > 1 {
				dow, err = strconv.Atoi(args[1])
				if err != nil || dow < 1 || dow > 7 {
					fmt.Println("dow must be 1-7")
					continue
				}
			}
			scripted.Mutate(func(s *snapshot.Snapshot) {
				s.Temporal = &snapshot.TemporalFacet{
					Hour:      hour,
					DayOfWeek: dow,
					Slot:      snapshot.SlotForHour(hour),
				}
			})
			bus.Publish(snapshot.EdgeRefresh)

		case "rank":
			pipeline.RefreshNow()

		case "explain":
			if len(args) != 1 {
				fmt.Println("usage: explain <app>")
				continue
			}
			e := pipeline.Explain(args[0])
			fmt.Printf("app:         %s\n", e.AppID)
			fmt.Printf("base weight: %.4f\n", e.BaseWeight)
			fmt.Printf("context sim: %.4f (history: %v)\n", e.ContextSimilarity, e.HasHistory)
			fmt.Printf("combined:    %.4f\n", e.CombinedScore)
			fmt.Printf("matched:     %v\n", e.MatchedFacets)

		case "nearest":
			entries, err := store.AllVectors()
			if err != nil {
				fmt.Printf("nearest: %v\n", err)
				continue
			}
			pool := make([]knn.Entry, len(entries))
			for i, e := range entries {
				pool[i] = knn.Entry{AppID: e.AppID, Vec: e.Vec}
			}
			cur := scripted.Current()
			matches := knn.RankApps(vector.Encode(cur), pool, params.Vector, cfg.K)
			if len(matches) == 0 {
				fmt.Println("no history recorded yet")
				continue
			}
			fmt.Println("apps used in moments like this:")
			for _, m := range matches {
				fmt.Printf("  %-36s score=%.4f freq=%d avgSim=%.4f\n",
					m.AppID, m.Score, m.Frequency, m.AvgSimilarity)
			}

		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
	return scanner.Err()
}

// #endregion repl

// #region helpers

// removeCategory drops one instance of category and one simulated device ID.
func removeCategory(p *snapshot.PeripheralFacet, category snapshot.PeripheralCategory) *snapshot.PeripheralFacet {
	out := &snapshot.PeripheralFacet{}
	removed := false
	for _, c := range p.Categories {
		if !removed && c == category {
			removed = true
			continue
		}
		out.Categories = append(out.Categories, c)
	}
	if !removed {
		return p
	}
	if n := len(p.DeviceIDs); n > 0 {
		out.DeviceIDs = append([]string(nil), p.DeviceIDs[:n-1]...)
	}
	return out
}

// #endregion helpers
