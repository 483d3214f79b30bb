package enrichment

import (
	"fmt"
	"math"
)

// Table2x2 is a contingency table for one kinase and one direction:
//
//	            in direction   not in direction
//	in set           A               B
//	out of set       C               D
//
// Cells are raw integer counts; the continuity correction for degenerate
// tables is applied only when computing the odds ratio.
type Table2x2 struct {
	A int `json:"a"`
	B int `json:"b"`
	C int `json:"c"`
	D int `json:"d"`
}

// Validate rejects negative cells.
func (t Table2x2) Validate() error {
	if t.A < 0 || t.B < 0 || t.C < 0 || t.D < 0 {
		return fmt.Errorf("contingency cells must be non-negative: %+v", t)
	}
	return nil
}

// Total returns the grand total of the table.
func (t Table2x2) Total() int { return t.A + t.B + t.C + t.D }

// HasZeroCell reports whether any cell is zero, which would make the plain
// odds ratio zero or undefined.
func (t Table2x2) HasZeroCell() bool {
	return t.A == 0 || t.B == 0 || t.C == 0 || t.D == 0
}

// shifted returns the cells as floats, adding 0.5 to every cell when the
// table has a zero cell (Haldane-Anscombe correction). Exact counts are
// returned unchanged so non-degenerate ratios stay exact.
func (t Table2x2) shifted() (a, b, c, d float64) {
	a, b, c, d = float64(t.A), float64(t.B), float64(t.C), float64(t.D)
	if t.HasZeroCell() {
		a += 0.5
		b += 0.5
		c += 0.5
		d += 0.5
	}
	return a, b, c, d
}

// OddsRatio returns (A*D)/(B*C), with the continuity correction applied to
// degenerate tables. Always finite and positive.
func (t Table2x2) OddsRatio() float64 {
	a, b, c, d := t.shifted()
	return (a * d) / (b * c)
}

// Log2OddsRatio is the signed effect size used for ranking directions.
func (t Table2x2) Log2OddsRatio() float64 {
	return math.Log2(t.OddsRatio())
}
