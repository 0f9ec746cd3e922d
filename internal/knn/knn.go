// Package knn estimates how well the current context matches historical usage
// contexts. It answers two distinct questions: ScoreApp asks "how well does
// this one app's own history match now", RankApps asks "which apps were used
// in moments like this, across the whole device". Only ScoreApp feeds the
// production ranking; RankApps is diagnostic.
package knn

import (
	"sort"

	"github.com/launchpilot/contextrank/internal/vector"
)

// #region config

// DefaultK is the default neighbor count.
const DefaultK = 10

// #endregion config

// #region score-app

// ScoreApp returns a [0, 1] context score for one application: the K
// historical vectors most similar to the current vector, weighted by harmonic
// decay 1/(i+1) over the similarity-descending rank, averaged. Empty history
// scores 0; a history shorter than K is used in full.
func ScoreApp(current vector.Vector, history []vector.Vector, params vector.Params, k int) float64 {
	if len(history) == 0 {
		return 0
	}
	if k <= 0 {
		k = DefaultK
	}

	sims := make([]float64, len(history))
	for i, h := range history {
		sims[i] = params.Similarity(current, h)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sims)))

	if k > len(sims) {
		k = len(sims)
	}

	var weightedSum, weightTotal float64
	for i := 0; i < k; i++ {
		w := 1.0 / float64(i+1)
		weightedSum += sims[i] * w
		weightTotal += w
	}
	return weightedSum / weightTotal
}

// #endregion score-app

// #region rank-apps

// Entry is one (application, historical vector) pair in the global pool.
type Entry struct {
	AppID string
	Vec   vector.Vector
}

// AppMatch is one application's aggregate within the K globally nearest
// historical contexts.
type AppMatch struct {
	AppID         string
	Frequency     int     // entries among the K nearest
	AvgSimilarity float64 // mean similarity of those entries
	Score         float64 // Frequency/K * (1 + 0.5*AvgSimilarity)
}

// RankApps pools every historical vector across all applications, takes the
// global K nearest to the current vector by distance, and ranks applications
// by how often they appear in that neighborhood, boosted by the average
// similarity of their entries. Diagnostic only; never feeds the combiner.
func RankApps(current vector.Vector, entries []Entry, params vector.Params, k int) []AppMatch {
	if len(entries) == 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultK
	}

	type scored struct {
		appID string
		dist  float64
		sim   float64
	}
	pool := make([]scored, len(entries))
	for i, e := range entries {
		pool[i] = scored{
			appID: e.AppID,
			dist:  params.Distance(current, e.Vec),
			sim:   params.Similarity(current, e.Vec),
		}
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].dist < pool[j].dist })

	if k > len(pool) {
		k = len(pool)
	}
	nearest := pool[:k]

	type accum struct {
		count  int
		simSum float64
	}
	byApp := make(map[string]*accum)
	for _, s := range nearest {
		a := byApp[s.appID]
		if a == nil {
			a = &accum{}
			byApp[s.appID] = a
		}
		a.count++
		a.simSum += s.sim
	}

	matches := make([]AppMatch, 0, len(byApp))
	for appID, a := range byApp {
		avgSim := a.simSum / float64(a.count)
		matches = append(matches, AppMatch{
			AppID:         appID,
			Frequency:     a.count,
			AvgSimilarity: avgSim,
			Score:         float64(a.count) / float64(k) * (1 + 0.5*avgSim),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].AppID < matches[j].AppID
	})
	return matches
}

// #endregion rank-apps
