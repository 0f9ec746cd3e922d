package rank

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchpilot/contextrank/internal/snapshot"
	"github.com/launchpilot/contextrank/internal/usage"
	"github.com/launchpilot/contextrank/internal/vector"
)

// #region pipeline-struct

// Pipeline is the change-aware ranking loop. It consumes typed change edges
// from the bus, re-samples the context, recomputes the ranking when any facet
// actually changed, and publishes the new ordering to subscribers. Only one
// pass is ever in flight; triggers arriving mid-pass are coalesced into one
// follow-up evaluation rather than dropped.
//
// Construction produces an inert value; Start owns the background loop and
// Stop tears it down.
type Pipeline struct {
	producer *snapshot.Producer
	store    Store
	bus      *snapshot.Bus
	config   Config
	logger   *zap.Logger

	// passMu serializes evaluation passes (run loop and replay harness).
	passMu sync.Mutex

	// mu guards the published/lastSeen pair and the subscriber list. The
	// pair is always updated together under the same lock so change
	// detection never observes a half-updated state.
	mu        sync.Mutex
	lastSeen  *snapshot.Snapshot
	published *Ranking
	subs      []chan Ranking

	stop    chan struct{}
	done    chan struct{}
	started bool
}

// NewPipeline wires a pipeline. logger may be nil.
func NewPipeline(producer *snapshot.Producer, store Store, bus *snapshot.Bus, config Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		producer: producer,
		store:    store,
		bus:      bus,
		config:   config,
		logger:   logger,
	}
}

// #endregion pipeline-struct

// #region lifecycle

// Start launches the background trigger loop. Calling Start twice is an error.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("pipeline already started")
	}
	p.started = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run()
	return nil
}

// Stop terminates the trigger loop and waits for it to exit. Safe to call
// once after Start; subscribers are closed.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	stop := p.stop
	done := p.done
	p.mu.Unlock()

	close(stop)
	<-done

	p.mu.Lock()
	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
	p.mu.Unlock()
}

func (p *Pipeline) run() {
	defer close(p.done)
	edges := p.bus.Edges()
	for {
		select {
		case <-p.stop:
			return
		case e := <-edges:
			// Coalesce a trigger burst into one evaluation. Anything that
			// arrives during the pass is picked up on the next loop turn
			// and no-ops there unless a facet really changed.
			kind := e.Kind
		drain:
			for {
				select {
				case e2 := <-edges:
					kind = e2.Kind
				default:
					break drain
				}
			}
			p.EvaluateOnce(kind)
		}
	}
}

// #endregion lifecycle

// #region subscribe

// Subscribe returns a channel that receives each published ranking. The
// channel has capacity 1 and stale rankings are replaced rather than queued:
// a slow consumer always sees the latest publication.
func (p *Pipeline) Subscribe() <-chan Ranking {
	ch := make(chan Ranking, 1)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

// Latest returns the most recently published ranking, or nil before the
// first publication.
func (p *Pipeline) Latest() *Ranking {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}

// CurrentSnapshot returns the snapshot behind the published ranking, or nil
// before the first smart pass.
func (p *Pipeline) CurrentSnapshot() *snapshot.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

// RefreshNow forces a re-sample through the trigger path.
func (p *Pipeline) RefreshNow() {
	p.bus.Publish(snapshot.EdgeRefresh)
}

// #endregion subscribe

// #region evaluate

// EvaluateOnce runs one synchronous evaluation pass for the given trigger.
// It returns the published ranking, or nil when the trigger was judged
// immaterial (no facet changed) or the pass could not produce candidates.
// The run loop calls this; the replay harness and tests call it directly.
func (p *Pipeline) EvaluateOnce(trigger snapshot.EdgeKind) *Ranking {
	p.passMu.Lock()
	defer p.passMu.Unlock()

	if !p.config.SmartRanking {
		return p.baseWeightPass(trigger)
	}

	snap := p.producer.Sample()

	p.mu.Lock()
	last := p.lastSeen
	p.mu.Unlock()

	var changed []snapshot.FacetField
	if last != nil {
		changed = snapshot.ChangedFacets(*last, snap)
		if len(changed) == 0 {
			p.logger.Debug("trigger immaterial, no facet changed",
				zap.String("trigger", string(trigger)))
			return nil
		}
	}

	start := time.Now()
	candidates, ok := p.scorePool(vector.Encode(snap))
	if !ok {
		return nil
	}
	ranking := p.buildRanking(trigger, changed, candidates)
	p.publish(ranking, &snap, time.Since(start))
	return ranking
}

// baseWeightPass is the smart-ranking-disabled short circuit: candidates
// ordered purely by base weight, no context sampled, nothing from the
// scoring stack invoked. Publishes only when the order actually changed.
func (p *Pipeline) baseWeightPass(trigger snapshot.EdgeKind) *Ranking {
	start := time.Now()
	ids, err := p.store.ListCandidates(PoolSize(p.config.Limit))
	if err != nil {
		p.logger.Error("list candidates failed", zap.Error(err))
		return nil
	}

	candidates := make([]ScoredCandidate, 0, len(ids))
	for _, id := range ids {
		base, err := p.store.BaseWeight(id)
		if err != nil {
			p.logger.Warn("base weight read failed", zap.String("app", id), zap.Error(err))
			base = 0
		}
		candidates = append(candidates, ScoredCandidate{
			AppID:      id,
			BaseWeight: base,
			Combined:   base,
		})
	}
	sortCandidates(candidates)
	if len(candidates) > p.config.Limit {
		candidates = candidates[:p.config.Limit]
	}

	p.mu.Lock()
	prev := p.published
	p.mu.Unlock()
	if prev != nil && sameOrder(prev.Candidates, candidates) {
		return nil
	}

	ranking := p.buildRanking(trigger, nil, candidates)
	p.publish(ranking, nil, time.Since(start))
	return ranking
}

// scorePool fetches the oversampled candidate pool and scores every
// candidate. Per-candidate scoring is independent, so it fans out across
// goroutines; the caller remains the single serialization point. A failure
// reading one app's history degrades that app to its base weight; no step
// aborts the pass.
func (p *Pipeline) scorePool(current vector.Vector) ([]ScoredCandidate, bool) {
	ids, err := p.store.ListCandidates(PoolSize(p.config.Limit))
	if err != nil {
		p.logger.Error("list candidates failed", zap.Error(err))
		return nil, false
	}
	if len(ids) == 0 {
		return nil, true
	}

	candidates := make([]ScoredCandidate, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			candidates[i] = p.scoreOne(id, current)
		}(i, id)
	}
	wg.Wait()

	sortCandidates(candidates)
	if len(candidates) > p.config.Limit {
		candidates = candidates[:p.config.Limit]
	}
	return candidates, true
}

func (p *Pipeline) scoreOne(appID string, current vector.Vector) ScoredCandidate {
	history, skipped, err := p.store.ReadHistory(appID)
	if err != nil {
		p.logger.Warn("history read failed, falling back to base weight",
			zap.String("app", appID), zap.Error(err))
		history = nil
	}
	if skipped > 0 {
		p.logger.Warn("undecodable history entries skipped",
			zap.String("app", appID), zap.Int("skipped", skipped))
	}
	base, err := p.store.BaseWeight(appID)
	if err != nil {
		p.logger.Warn("base weight read failed", zap.String("app", appID), zap.Error(err))
		base = 0
	}
	return scoreCandidate(appID, current, history, base, p.config.Params)
}

// #endregion evaluate

// #region publish

func (p *Pipeline) buildRanking(trigger snapshot.EdgeKind, changed []snapshot.FacetField, candidates []ScoredCandidate) *Ranking {
	return &Ranking{
		PassID:      uuid.New().String(),
		Trigger:     trigger,
		Changed:     changed,
		Candidates:  candidates,
		GeneratedAt: time.Now().UTC(),
	}
}

// publish stores the ranking/snapshot pair atomically, fans it out to
// subscribers, and appends the provenance row. snap is nil for base-weight
// passes, which track no context.
func (p *Pipeline) publish(ranking *Ranking, snap *snapshot.Snapshot, elapsed time.Duration) {
	p.mu.Lock()
	p.published = ranking
	if snap != nil {
		p.lastSeen = snap
	}
	subs := append([]chan Ranking(nil), p.subs...)
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- *ranking:
		default:
			// Replace the stale ranking rather than block.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- *ranking:
			default:
			}
		}
	}

	p.logger.Info("ranking published",
		zap.String("pass", ranking.PassID),
		zap.String("trigger", string(ranking.Trigger)),
		zap.Int("candidates", len(ranking.Candidates)),
		zap.Duration("elapsed", elapsed))

	if err := p.store.LogRanking(provenanceEntry(ranking, elapsed)); err != nil {
		p.logger.Warn("ranking provenance append failed", zap.Error(err))
	}
}

func provenanceEntry(ranking *Ranking, elapsed time.Duration) usage.RankingLogEntry {
	changed := make([]string, len(ranking.Changed))
	for i, f := range ranking.Changed {
		changed[i] = string(f)
	}
	changedJSON, _ := json.Marshal(changed)

	type topApp struct {
		AppID    string  `json:"appId"`
		Combined float64 `json:"combined"`
	}
	top := make([]topApp, len(ranking.Candidates))
	for i, c := range ranking.Candidates {
		top[i] = topApp{AppID: c.AppID, Combined: c.Combined}
	}
	topJSON, _ := json.Marshal(top)

	return usage.RankingLogEntry{
		PassID:        ranking.PassID,
		TriggerKind:   string(ranking.Trigger),
		ChangedFacets: string(changedJSON),
		TopAppsJSON:   string(topJSON),
		ElapsedMs:     elapsed.Milliseconds(),
		CreatedAt:     ranking.GeneratedAt,
	}
}

// #endregion publish

// #region explain

// Explain scores one application through the exact production path and
// reports the facets its best historical context shares with the current
// one. Uses the snapshot behind the published ranking, sampling fresh only
// before the first pass.
func (p *Pipeline) Explain(appID string) Explanation {
	p.mu.Lock()
	last := p.lastSeen
	p.mu.Unlock()

	var snap snapshot.Snapshot
	if last != nil {
		snap = *last
	} else {
		snap = p.producer.Sample()
	}

	sc := p.scoreOne(appID, vector.Encode(snap))

	history, _, err := p.store.ReadHistory(appID)
	if err != nil {
		history = nil
	}

	return Explanation{
		AppID:             sc.AppID,
		BaseWeight:        sc.BaseWeight,
		ContextSimilarity: sc.ContextScore,
		CombinedScore:     sc.Combined,
		HasHistory:        sc.HasHistory,
		MatchedFacets:     matchedFacets(snap, history, p.config.Params),
	}
}

// #endregion explain

// #region sort-helpers

// sortCandidates orders by combined score descending with deterministic
// tie-breaks on base weight, then app ID.
func sortCandidates(candidates []ScoredCandidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Combined != candidates[j].Combined {
			return candidates[i].Combined > candidates[j].Combined
		}
		if candidates[i].BaseWeight != candidates[j].BaseWeight {
			return candidates[i].BaseWeight > candidates[j].BaseWeight
		}
		return candidates[i].AppID < candidates[j].AppID
	})
}

func sameOrder(a, b []ScoredCandidate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].AppID != b[i].AppID {
			return false
		}
	}
	return true
}

// #endregion sort-helpers
