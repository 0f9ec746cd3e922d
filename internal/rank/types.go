package rank

import (
	"time"

	"github.com/launchpilot/contextrank/internal/knn"
	"github.com/launchpilot/contextrank/internal/snapshot"
	"github.com/launchpilot/contextrank/internal/usage"
	"github.com/launchpilot/contextrank/internal/vector"
)

// #region params

// Params holds the scoring knobs shared by the production ranking and the
// explain path.
type Params struct {
	Alpha  float64 // blend factor; context share of the combined score
	K      int     // neighbor count for the per-app context score
	Vector vector.Params
}

// DefaultParams returns the contract defaults: context-dominant blend with
// K=10 neighbors.
func DefaultParams() Params {
	return Params{
		Alpha:  0.7,
		K:      knn.DefaultK,
		Vector: vector.DefaultParams(),
	}
}

// #endregion params

// #region config

// Config controls the ranking pipeline.
type Config struct {
	SmartRanking bool // false short-circuits to pure base-weight ordering
	Limit        int  // published ranking length
	HistoryCap   int  // forwarded to touch-side callers, not used by ranking
	Params       Params
}

// PoolSize returns the oversampled candidate pool ceiling for a given output
// limit. Context scoring can promote candidates a frequency-only pool of
// exactly limit would have excluded.
func PoolSize(limit int) int {
	if 2*limit > 50 {
		return 2 * limit
	}
	return 50
}

// #endregion config

// #region scored-candidate

// ScoredCandidate is one ranking-pass result row. Ephemeral; regenerated on
// every pass.
type ScoredCandidate struct {
	AppID        string
	BaseWeight   float64
	ContextScore float64
	Combined     float64
	HasHistory   bool
}

// #endregion scored-candidate

// #region ranking

// Ranking is one published ordering of the candidate pool.
type Ranking struct {
	PassID      string
	Trigger     snapshot.EdgeKind
	Changed     []snapshot.FacetField
	Candidates  []ScoredCandidate
	GeneratedAt time.Time
}

// AppIDs returns the ordered application IDs of the ranking.
func (r Ranking) AppIDs() []string {
	ids := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		ids[i] = c.AppID
	}
	return ids
}

// #endregion ranking

// #region explanation

// Explanation is the diagnostic view of one application's score under the
// current context. Produced by the exact scoring path of the production
// ranking.
type Explanation struct {
	AppID             string
	BaseWeight        float64
	ContextSimilarity float64
	CombinedScore     float64
	HasHistory        bool
	MatchedFacets     []snapshot.FacetField
}

// #endregion explanation

// #region store-interface

// Store is the persistence surface the pipeline reads from. The concrete
// implementation is usage.Store; tests substitute fakes.
type Store interface {
	ReadHistory(appID string) ([]usage.HistoryEntry, int, error)
	BaseWeight(appID string) (float64, error)
	ListCandidates(poolSize int) ([]string, error)
	LogRanking(entry usage.RankingLogEntry) error
}

// #endregion store-interface
