package enrichment

import (
	"fmt"
	"math"
	"sort"

	"kinact/domain/core"
	"kinact/domain/site"
)

// DirectionStats is one kinase's enrichment evidence for one regulation
// direction.
type DirectionStats struct {
	Hits          int      `json:"hits"`
	Table         Table2x2 `json:"contingency"`
	OddsRatio     float64  `json:"odds_ratio"`
	Log2OddsRatio float64  `json:"log2_odds_ratio"`
	PValue        float64  `json:"p_value"`
	MinusLog10P   float64  `json:"minus_log10_p"`
	AdjustedP     float64  `json:"adjusted_p_value"`
}

// KinaseEnrichment is one row of an enrichment table: both directions plus
// the dominant-direction summary used for ranking and comparison.
type KinaseEnrichment struct {
	Kinase core.KinaseName `json:"kinase"`

	// InSet is how many classified sites had this kinase above the
	// percentile cutoff, regardless of direction.
	InSet int `json:"in_set"`

	Up   DirectionStats `json:"up"`
	Down DirectionStats `json:"down"`

	// Dominant direction: the larger |log2 odds ratio| wins, ties broken
	// by the smaller raw p-value. DominantLog2OR carries the sign of the
	// direction (up positive, down negative); DominantMinusLog10P is the
	// unsigned magnitude of the winning p-value.
	DominantDirection   Regulation `json:"dominant_direction"`
	DominantLog2OR      float64    `json:"dominant_log2_odds_ratio"`
	DominantMinusLog10P float64    `json:"dominant_minus_log10_p"`
	DominantAdjustedP   float64    `json:"dominant_adjusted_p_value"`
}

// Table is the per-variant outcome of an enrichment run: one row per panel
// kinase, sorted by kinase name, plus the batch-level totals the rows were
// computed from.
type Table struct {
	Variant site.Variant       `json:"variant"`
	Rows    []KinaseEnrichment `json:"rows"`

	TotalSites       int `json:"total_sites"`
	TotalUp          int `json:"total_up"`
	TotalDown        int `json:"total_down"`
	TotalUnregulated int `json:"total_unregulated"`
}

// Row returns the entry for a kinase, or a schema mismatch if the kinase is
// not in the table's panel.
func (t *Table) Row(kinase core.KinaseName) (KinaseEnrichment, error) {
	i := sort.Search(len(t.Rows), func(i int) bool { return t.Rows[i].Kinase >= kinase })
	if i < len(t.Rows) && t.Rows[i].Kinase == kinase {
		return t.Rows[i], nil
	}
	return KinaseEnrichment{}, fmt.Errorf("kinase %s: %w", kinase, core.ErrKinaseNotFound)
}

// SortRows orders rows by kinase name. Table constructors call it so Row's
// binary search holds.
func (t *Table) SortRows() {
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i].Kinase < t.Rows[j].Kinase })
}

// Distance is the Euclidean distance between two tables over the dominant
// coordinates (signed log2 OR, signed -log10 p) of every shared kinase.
// The panels must match exactly.
func Distance(a, b *Table) (float64, error) {
	if a == nil || b == nil {
		return 0, fmt.Errorf("tables must not be nil")
	}
	if a.Variant != b.Variant {
		return 0, fmt.Errorf("variant %s vs %s: %w", a.Variant, b.Variant, core.ErrVariantMismatch)
	}
	if len(a.Rows) != len(b.Rows) {
		return 0, fmt.Errorf("panel sizes %d vs %d: %w", len(a.Rows), len(b.Rows), core.ErrSchemaMismatch)
	}
	var sum float64
	for i, ra := range a.Rows {
		rb := b.Rows[i]
		if ra.Kinase != rb.Kinase {
			return 0, fmt.Errorf("panel mismatch at %s vs %s: %w", ra.Kinase, rb.Kinase, core.ErrSchemaMismatch)
		}
		dor := ra.DominantLog2OR - rb.DominantLog2OR
		dp := signedMagnitude(ra) - signedMagnitude(rb)
		sum += dor*dor + dp*dp
	}
	return math.Sqrt(sum), nil
}

// signedMagnitude projects the dominant p magnitude onto the direction
// axis so up- and down-dominated kinases separate in the distance kernel.
func signedMagnitude(r KinaseEnrichment) float64 {
	if r.DominantDirection == RegulationDown {
		return -r.DominantMinusLog10P
	}
	return r.DominantMinusLog10P
}
