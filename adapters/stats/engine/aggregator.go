package engine

import (
	"fmt"
	"sync"

	"kinact/domain/core"
	"kinact/domain/enrichment"
	"kinact/domain/matrix"
	"kinact/domain/scoring"
	"kinact/domain/site"
)

// Accumulator streams classified sites into per-kinase counts for one
// variant panel. Memory stays proportional to the panel size no matter how
// many sites are observed. Observe is safe for concurrent use; the counts
// are commutative, so the final table does not depend on arrival order.
type Accumulator struct {
	mu      sync.Mutex
	variant site.Variant
	panel   []core.KinaseName

	inSet    []int
	upHits   []int
	downHits []int

	totalSites       int
	totalUp          int
	totalDown        int
	totalUnregulated int
}

// NewAccumulator builds an empty accumulator over the matrix's panel.
func NewAccumulator(m *matrix.ScoringMatrix) *Accumulator {
	n := m.PanelSize()
	return &Accumulator{
		variant:  m.Variant(),
		panel:    m.Panel(),
		inSet:    make([]int, n),
		upHits:   make([]int, n),
		downHits: make([]int, n),
	}
}

// Membership marks the kinases whose percentile strictly exceeds the
// cutoff in one scored result. The returned slice is indexed like the
// panel the result was scored against.
func Membership(result *scoring.Result, cutoff float64) []bool {
	scores := result.Scores()
	members := make([]bool, len(scores))
	for i, ks := range scores {
		members[i] = ks.Percentile > cutoff
	}
	return members
}

// Observe adds one classified site to the counts.
func (a *Accumulator) Observe(members []bool, reg enrichment.Regulation) error {
	if len(members) != len(a.panel) {
		return fmt.Errorf("membership length %d, panel %d: %w", len(members), len(a.panel), core.ErrSchemaMismatch)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSites++
	switch reg {
	case enrichment.RegulationUp:
		a.totalUp++
	case enrichment.RegulationDown:
		a.totalDown++
	default:
		a.totalUnregulated++
	}
	for i, in := range members {
		if !in {
			continue
		}
		a.inSet[i]++
		switch reg {
		case enrichment.RegulationUp:
			a.upHits[i]++
		case enrichment.RegulationDown:
			a.downHits[i]++
		}
	}
	return nil
}

// Variant returns the accumulator's panel variant.
func (a *Accumulator) Variant() site.Variant { return a.variant }

// Sites returns how many classified sites have been observed.
func (a *Accumulator) Sites() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalSites
}

// Finalize computes the full enrichment table: contingency cells, odds
// ratios, one-sided exact tests, BH adjustment per direction across the
// panel, and the dominant-direction summary. Every panel kinase gets a
// row; kinases never in any site's set get a zero row with p = 1.
func (a *Accumulator) Finalize() *enrichment.Table {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.panel)
	table := &enrichment.Table{
		Variant:          a.variant,
		Rows:             make([]enrichment.KinaseEnrichment, n),
		TotalSites:       a.totalSites,
		TotalUp:          a.totalUp,
		TotalDown:        a.totalDown,
		TotalUnregulated: a.totalUnregulated,
	}

	upP := make([]float64, n)
	downP := make([]float64, n)
	for i, kinase := range a.panel {
		row := enrichment.KinaseEnrichment{Kinase: kinase, InSet: a.inSet[i]}
		row.Up = a.directionStats(i, a.upHits[i], a.totalUp)
		row.Down = a.directionStats(i, a.downHits[i], a.totalDown)
		upP[i] = row.Up.PValue
		downP[i] = row.Down.PValue
		table.Rows[i] = row
	}

	upAdj := BenjaminiHochberg(upP)
	downAdj := BenjaminiHochberg(downP)
	for i := range table.Rows {
		table.Rows[i].Up.AdjustedP = upAdj[i]
		table.Rows[i].Down.AdjustedP = downAdj[i]
		setDominant(&table.Rows[i])
	}

	table.SortRows()
	return table
}

// directionStats fills one direction's cells and statistics for the kinase
// at panel index i. Kinases with no in-set members anywhere keep an
// all-zero row: no evidence is not an error.
func (a *Accumulator) directionStats(i, hits, totalDir int) enrichment.DirectionStats {
	if a.inSet[i] == 0 {
		return enrichment.DirectionStats{
			Table:  a.cells(0, 0, totalDir),
			PValue: 1,
		}
	}
	t := a.cells(a.inSet[i], hits, totalDir)
	p := FisherExactGreater(t)
	return enrichment.DirectionStats{
		Hits:          hits,
		Table:         t,
		OddsRatio:     t.OddsRatio(),
		Log2OddsRatio: t.Log2OddsRatio(),
		PValue:        p,
		MinusLog10P:   MinusLog10(p),
	}
}

// cells lays out one 2x2 table: set membership against direction
// membership over all classified sites.
func (a *Accumulator) cells(inSet, hits, totalDir int) enrichment.Table2x2 {
	return enrichment.Table2x2{
		A: hits,
		B: inSet - hits,
		C: totalDir - hits,
		D: a.totalSites - inSet - (totalDir - hits),
	}
}

// setDominant picks the direction with the larger |log2 odds ratio|, ties
// broken by the smaller raw p-value, then up. The signed columns carry the
// direction: up positive, down negative.
func setDominant(row *enrichment.KinaseEnrichment) {
	up, down := row.Up, row.Down
	dominant := enrichment.RegulationUp
	upMag, downMag := abs(up.Log2OddsRatio), abs(down.Log2OddsRatio)
	switch {
	case downMag > upMag:
		dominant = enrichment.RegulationDown
	case downMag == upMag && down.PValue < up.PValue:
		dominant = enrichment.RegulationDown
	}

	row.DominantDirection = dominant
	if dominant == enrichment.RegulationDown {
		row.DominantLog2OR = -downMag
		row.DominantMinusLog10P = down.MinusLog10P
		row.DominantAdjustedP = down.AdjustedP
	} else {
		row.DominantLog2OR = upMag
		row.DominantMinusLog10P = up.MinusLog10P
		row.DominantAdjustedP = up.AdjustedP
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
