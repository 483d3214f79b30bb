package matrix

import (
	"fmt"
	"sort"

	"kinact/domain/core"
	"kinact/domain/site"
)

// PositionResidue addresses one row of a scoring matrix: a residue observed
// at a relative position. Position 0 exists only for the acceptor
// favorability rows (0S, 0T).
type PositionResidue struct {
	Pos     int
	Residue byte
}

func (pr PositionResidue) String() string {
	return fmt.Sprintf("%d%c", pr.Pos, pr.Residue)
}

// ScoringMatrix holds the positional affinity weights of one kinase panel.
// Weights are indexed by (position, residue) and carry one value per kinase,
// in panel order. Immutable once built; shared read-only by every scoring
// and enrichment call.
type ScoringMatrix struct {
	variant site.Variant
	panel   []core.KinaseName
	index   map[core.KinaseName]int
	weights map[PositionResidue][]float64
}

// NewScoringMatrix validates and builds a scoring matrix. The kinase panel
// must be non-empty and free of duplicates; every weight row must cover the
// full panel and sit inside the variant's position range (or at position 0
// for the favorability rows).
func NewScoringMatrix(variant site.Variant, panel []core.KinaseName, weights map[PositionResidue][]float64) (*ScoringMatrix, error) {
	if variant != site.VariantSerThr && variant != site.VariantTyr {
		return nil, fmt.Errorf("%w: unknown variant %q", core.ErrSchemaMismatch, variant)
	}
	if len(panel) == 0 {
		return nil, fmt.Errorf("%w: empty kinase panel", core.ErrSchemaMismatch)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weight rows", core.ErrSchemaMismatch)
	}

	sorted := make([]core.KinaseName, len(panel))
	copy(sorted, panel)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := make(map[core.KinaseName]int, len(sorted))
	for i, k := range sorted {
		if k.IsEmpty() {
			return nil, fmt.Errorf("%w: empty kinase name", core.ErrSchemaMismatch)
		}
		if _, dup := index[k]; dup {
			return nil, fmt.Errorf("%w: duplicate kinase %s", core.ErrSchemaMismatch, k)
		}
		index[k] = i
	}

	// Weight cells arrive in the caller's panel order; store them in the
	// sorted order the index points into.
	perm := make([]int, len(panel))
	for callerIdx, k := range panel {
		perm[callerIdx] = index[k]
	}

	lo, hi := variant.PositionRange()
	stored := make(map[PositionResidue][]float64, len(weights))
	for pr, row := range weights {
		if pr.Pos == 0 {
			if pr.Residue != 'S' && pr.Residue != 'T' {
				return nil, fmt.Errorf("%w: position 0 row %s is not a favorability row", core.ErrSchemaMismatch, pr)
			}
		} else if pr.Pos < lo || pr.Pos > hi {
			return nil, fmt.Errorf("%w: row %s outside position range [%d, %d]", core.ErrSchemaMismatch, pr, lo, hi)
		}
		if len(row) != len(sorted) {
			return nil, fmt.Errorf("%w: row %s has %d cells, panel has %d kinases", core.ErrSchemaMismatch, pr, len(row), len(sorted))
		}
		cells := make([]float64, len(row))
		for callerIdx, v := range row {
			cells[perm[callerIdx]] = v
		}
		stored[pr] = cells
	}

	return &ScoringMatrix{
		variant: variant,
		panel:   sorted,
		index:   index,
		weights: stored,
	}, nil
}

// Variant returns the panel variant this matrix scores.
func (m *ScoringMatrix) Variant() site.Variant { return m.variant }

// PanelSize returns the number of kinases in the panel.
func (m *ScoringMatrix) PanelSize() int { return len(m.panel) }

// Panel returns the kinase panel in deterministic (sorted) order.
func (m *ScoringMatrix) Panel() []core.KinaseName {
	out := make([]core.KinaseName, len(m.panel))
	copy(out, m.panel)
	return out
}

// Index returns a kinase's position within the panel ordering.
func (m *ScoringMatrix) Index(k core.KinaseName) (int, bool) {
	i, ok := m.index[k]
	return i, ok
}

// Row returns the per-kinase weights for a (position, residue) pair. The
// returned slice is shared and must not be mutated.
func (m *ScoringMatrix) Row(pr PositionResidue) ([]float64, bool) {
	row, ok := m.weights[pr]
	return row, ok
}
