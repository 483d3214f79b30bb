package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"kinact/domain/core"
	"kinact/domain/site"
)

// DefaultPromiscuityThreshold is the percentile above which a kinase counts
// toward the promiscuity index.
const DefaultPromiscuityThreshold = 90.0

// LogScore compresses a raw affinity score while preserving its sign:
// sign(raw) * ln(1 + |raw|). The same transform is applied when background
// distributions are built, so percentile lookups stay comparable.
func LogScore(raw float64) float64 {
	if raw < 0 {
		return -math.Log1p(-raw)
	}
	return math.Log1p(raw)
}

// KinaseScore is one kinase's affinity against a single site: the raw
// positional-matrix score, its log transform, and the percentile rank of
// the raw score within the kinase's background distribution.
type KinaseScore struct {
	Kinase     core.KinaseName `json:"kinase"`
	Raw        float64         `json:"score"`
	Log        float64         `json:"log_score"`
	Percentile float64         `json:"percentile_score"`
}

// Result is the full scoring outcome for one normalized site: one
// KinaseScore per kinase in the variant's panel. Immutable after
// construction; every derived operation is a pure function of it.
type Result struct {
	site   *site.NormalizedSite
	scores []KinaseScore
}

// NewResult validates and builds a scoring result. Percentiles must lie in
// [0, 100] and kinase names must be unique.
func NewResult(s *site.NormalizedSite, scores []KinaseScore) (*Result, error) {
	if s == nil {
		return nil, fmt.Errorf("site must not be nil")
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("scores must not be empty")
	}
	seen := make(map[core.KinaseName]struct{}, len(scores))
	for _, ks := range scores {
		if ks.Kinase.IsEmpty() {
			return nil, fmt.Errorf("empty kinase name in scores")
		}
		if _, dup := seen[ks.Kinase]; dup {
			return nil, fmt.Errorf("duplicate kinase %s in scores", ks.Kinase)
		}
		seen[ks.Kinase] = struct{}{}
		if ks.Percentile < 0 || ks.Percentile > 100 {
			return nil, fmt.Errorf("percentile %v for %s outside [0, 100]", ks.Percentile, ks.Kinase)
		}
	}
	own := make([]KinaseScore, len(scores))
	copy(own, scores)
	return &Result{site: s, scores: own}, nil
}

// Site returns the normalized site this result was computed for.
func (r *Result) Site() *site.NormalizedSite { return r.site }

// Len returns the panel size.
func (r *Result) Len() int { return len(r.scores) }

// Ranking returns the panel sorted by descending percentile, ties broken by
// descending raw score, then by kinase name for determinism. The returned
// slice is owned by the caller.
func (r *Result) Ranking() []KinaseScore {
	out := make([]KinaseScore, len(r.scores))
	copy(out, r.scores)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentile != out[j].Percentile {
			return out[i].Percentile > out[j].Percentile
		}
		if out[i].Raw != out[j].Raw {
			return out[i].Raw > out[j].Raw
		}
		return out[i].Kinase < out[j].Kinase
	})
	return out
}

// Top returns the first n rows of Ranking. n <= 0 is a configuration error;
// n larger than the panel clamps to the full panel.
func (r *Result) Top(n int) ([]KinaseScore, error) {
	if n <= 0 {
		return nil, core.NewConfigurationError("top", fmt.Sprintf("must be positive, got %d", n))
	}
	ranked := r.Ranking()
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n], nil
}

// MedianPercentile returns the median of the panel's percentile scores,
// averaging the two middle values for even panel sizes.
func (r *Result) MedianPercentile() float64 {
	percentiles := make([]float64, len(r.scores))
	for i, ks := range r.scores {
		percentiles[i] = ks.Percentile
	}
	m, err := stats.Median(percentiles)
	if err != nil {
		// Only possible for an empty input, which NewResult rejects.
		return 0
	}
	return m
}

// PromiscuityIndex counts the kinases whose percentile is at or above the
// threshold. Non-increasing in the threshold.
func (r *Result) PromiscuityIndex(threshold float64) int {
	count := 0
	for _, ks := range r.scores {
		if ks.Percentile >= threshold {
			count++
		}
	}
	return count
}

// Scores returns the per-kinase scores in panel order. The returned slice
// is owned by the caller.
func (r *Result) Scores() []KinaseScore {
	out := make([]KinaseScore, len(r.scores))
	copy(out, r.scores)
	return out
}
