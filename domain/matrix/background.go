package matrix

import (
	"fmt"
	"sort"

	"kinact/domain/core"
	"kinact/domain/site"
)

// Background holds, per kinase, the sorted raw scores of a large reference
// phosphosite set. It converts a raw affinity score into a percentile rank
// by locating it among the empirical order statistics. One Background exists
// per scoring-matrix variant; immutable after construction.
type Background struct {
	variant site.Variant
	samples map[core.KinaseName][]float64
}

// NewBackground validates and builds a background distribution from raw
// score samples. Every kinase needs at least two samples so the percentile
// interpolation has a bracket to work with.
func NewBackground(variant site.Variant, samples map[core.KinaseName][]float64) (*Background, error) {
	if len(samples) == 0 {
		return nil, core.ErrEmptyBackground
	}
	stored := make(map[core.KinaseName][]float64, len(samples))
	for k, raw := range samples {
		if len(raw) < 2 {
			return nil, fmt.Errorf("%w for kinase %s", core.ErrEmptyBackground, k)
		}
		s := make([]float64, len(raw))
		copy(s, raw)
		sort.Float64s(s)
		stored[k] = s
	}
	return &Background{variant: variant, samples: stored}, nil
}

// Variant returns the panel variant this background belongs to.
func (b *Background) Variant() site.Variant { return b.variant }

// Size returns the number of kinases covered.
func (b *Background) Size() int { return len(b.samples) }

// Has reports whether a kinase has a background distribution.
func (b *Background) Has(k core.KinaseName) bool {
	_, ok := b.samples[k]
	return ok
}

// Percentile maps a raw score to its percentile rank (0-100) within the
// kinase's background, interpolating linearly between the two bracketing
// order statistics. A score at or below the distribution minimum yields
// exactly 0; at or above the maximum, exactly 100. Monotonically
// non-decreasing in the raw score.
func (b *Background) Percentile(k core.KinaseName, raw float64) (float64, error) {
	s, ok := b.samples[k]
	if !ok {
		return 0, fmt.Errorf("%w: %s", core.ErrKinaseNotFound, k)
	}

	n := len(s)
	if raw <= s[0] {
		return 0, nil
	}
	if raw >= s[n-1] {
		return 100, nil
	}

	// First index with s[i] >= raw; raw is strictly inside (s[0], s[n-1]).
	i := sort.SearchFloat64s(s, raw)
	var rank float64
	if s[i] == raw {
		rank = float64(i)
	} else {
		rank = float64(i-1) + (raw-s[i-1])/(s[i]-s[i-1])
	}
	return 100 * rank / float64(n-1), nil
}

// ValidatePanel checks that a background covers exactly the kinases of a
// scoring matrix and shares its variant. Surfaced immediately at engine
// construction so no partial scoring can happen.
func ValidatePanel(m *ScoringMatrix, b *Background) error {
	if m.Variant() != b.Variant() {
		return fmt.Errorf("%w: matrix %s vs background %s", core.ErrVariantMismatch, m.Variant(), b.Variant())
	}
	if b.Size() != m.PanelSize() {
		return fmt.Errorf("%w: matrix panel has %d kinases, background covers %d", core.ErrSchemaMismatch, m.PanelSize(), b.Size())
	}
	for _, k := range m.Panel() {
		if !b.Has(k) {
			return fmt.Errorf("%w: %s has no background distribution", core.ErrKinaseNotFound, k)
		}
	}
	return nil
}
