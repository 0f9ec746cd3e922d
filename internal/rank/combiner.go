package rank

import (
	"github.com/launchpilot/contextrank/internal/knn"
	"github.com/launchpilot/contextrank/internal/snapshot"
	"github.com/launchpilot/contextrank/internal/usage"
	"github.com/launchpilot/contextrank/internal/vector"
)

// #region combine

// Combine blends the per-app context score with the long-run base weight:
// alpha*context + (1-alpha)*clamp01(base). An app with no context history
// scores its raw base weight, unclamped — absent context contributes
// nothing, it is not a penalty. The clamp applies to the blend input only;
// the stored weight is untouched.
func Combine(base, contextScore float64, hasHistory bool, alpha float64) float64 {
	if !hasHistory {
		return base
	}
	return alpha*contextScore + (1-alpha)*usage.Clamp01(base)
}

// #endregion combine

// #region score-candidate

// scoreCandidate runs the single scoring path shared by the production
// ranking and Explain. History is already resolved by the caller so its
// failure semantics (read error or undecodable rows degrade to empty) live
// in one place, the pipeline.
func scoreCandidate(appID string, current vector.Vector, history []usage.HistoryEntry, base float64, p Params) ScoredCandidate {
	hasHistory := len(history) > 0
	var contextScore float64
	if hasHistory {
		vecs := make([]vector.Vector, len(history))
		for i, h := range history {
			vecs[i] = vector.Encode(h.Snapshot)
		}
		contextScore = knn.ScoreApp(current, vecs, p.Vector, p.K)
	}
	return ScoredCandidate{
		AppID:        appID,
		BaseWeight:   base,
		ContextScore: contextScore,
		Combined:     Combine(base, contextScore, hasHistory, p.Alpha),
		HasHistory:   hasHistory,
	}
}

// #endregion score-candidate

// #region matched-facets

// matchedFacets returns the facet fields the current snapshot shares with the
// most similar historical snapshot. Empty history yields nil.
func matchedFacets(current snapshot.Snapshot, history []usage.HistoryEntry, p Params) []snapshot.FacetField {
	if len(history) == 0 {
		return nil
	}
	cur := vector.Encode(current)
	best := 0
	bestSim := -1.0
	for i, h := range history {
		sim := p.Vector.Similarity(cur, vector.Encode(h.Snapshot))
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}
	return snapshot.SharedFacets(current, history[best].Snapshot)
}

// #endregion matched-facets
