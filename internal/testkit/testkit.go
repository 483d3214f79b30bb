// Package testkit builds deterministic scoring fixtures: synthetic kinase
// panels, weight matrices, background distributions, and batches. All
// values derive from normal quantiles at fixed probabilities, so repeated
// calls produce identical data without a random source.
package testkit

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"kinact/domain/core"
	"kinact/domain/enrichment"
	"kinact/domain/matrix"
	"kinact/domain/site"
)

// Panel returns n synthetic kinase names, already in sorted order.
func Panel(n int) []core.KinaseName {
	panel := make([]core.KinaseName, n)
	for i := range panel {
		panel[i] = core.KinaseName(fmt.Sprintf("KIN%03d", i))
	}
	return panel
}

// residues covered by generated matrices. Enough for the Batch sequences
// plus the phospho and favorability rows.
var residues = []byte{'A', 'G', 'K', 'P', 'Q', 'R', 'S', 'T', 'Y', 's', 't', 'y'}

// Matrix generates a full weight matrix for the variant: every position in
// range, every residue in the testkit alphabet, plus the favorability rows.
// Weights are spread over roughly [-2, 2] and differ per kinase, position,
// and residue.
func Matrix(variant site.Variant, panel []core.KinaseName) (*matrix.ScoringMatrix, error) {
	lo, hi := variant.PositionRange()
	weights := make(map[matrix.PositionResidue][]float64)

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	rowIdx := 0
	addRow := func(pr matrix.PositionResidue) {
		row := make([]float64, len(panel))
		for k := range panel {
			// Quantiles at probabilities spread over (0, 1), shifted per
			// row so no two rows repeat.
			p := (float64((rowIdx*31+k*7)%97) + 1.0) / 98.0
			row[k] = normal.Quantile(p)
		}
		weights[pr] = row
		rowIdx++
	}

	for pos := lo; pos <= hi; pos++ {
		if pos == 0 {
			continue
		}
		for _, res := range residues {
			addRow(matrix.PositionResidue{Pos: pos, Residue: res})
		}
	}
	addRow(matrix.PositionResidue{Pos: 0, Residue: 'S'})
	addRow(matrix.PositionResidue{Pos: 0, Residue: 'T'})

	return matrix.NewScoringMatrix(variant, panel, weights)
}

// Background generates sampleCount background scores per kinase, spanning
// a raw-score range wide enough for the sums Matrix produces.
func Background(variant site.Variant, panel []core.KinaseName, sampleCount int) (*matrix.Background, error) {
	if sampleCount < 2 {
		sampleCount = 2
	}
	normal := distuv.Normal{Mu: 0, Sigma: 12}
	samples := make(map[core.KinaseName][]float64, len(panel))
	for k, kinase := range panel {
		values := make([]float64, sampleCount)
		for i := range values {
			p := (float64(i) + 0.5) / float64(sampleCount)
			values[i] = normal.Quantile(p) + float64(k%5)
		}
		samples[kinase] = values
	}
	return matrix.NewBackground(variant, samples)
}

// sequencePool cycles through parseable Ser/Thr and Tyr windows.
var sequencePool = []string{
	"QKAQPSAGRKQ",
	"GARKQTQPKAG",
	"AAAAAGYGAAAAA",
	"PKGQAS*AQRKG",
	"RQGAKSYKQGA",
}

// Batch generates n input rows with fold changes alternating around the
// regulation boundaries: strong up, strong down, and unregulated.
func Batch(n int) []enrichment.InputRow {
	rows := make([]enrichment.InputRow, n)
	for i := range rows {
		fc := 0.0
		switch i % 3 {
		case 0:
			fc = 2.0 + float64(i%4)*0.25
		case 1:
			fc = -2.0 - float64(i%4)*0.25
		}
		rows[i] = enrichment.InputRow{
			Index:    i,
			Sequence: sequencePool[i%len(sequencePool)],
			Log2FC:   fc,
		}
	}
	return rows
}
