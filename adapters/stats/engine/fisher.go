package engine

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"

	"kinact/domain/enrichment"
)

// FisherExactGreater is the one-sided Fisher exact test for enrichment:
// the probability, under the hypergeometric null, of observing at least
// t.A in-set hits in the direction. Computed on the raw integer cells;
// the continuity correction never applies here. The result is clamped to
// [machine epsilon, 1] so downstream log10 stays finite.
func FisherExactGreater(t enrichment.Table2x2) float64 {
	if t.Validate() != nil {
		return 1
	}
	n := t.Total()
	if n == 0 {
		return 1
	}
	rowTotal := t.A + t.B // in-set sites
	colTotal := t.A + t.C // sites in the direction

	kMax := rowTotal
	if colTotal < kMax {
		kMax = colTotal
	}
	if t.A > kMax {
		return clampP(0)
	}

	// P(X = k) = C(rowTotal, k) * C(n-rowTotal, colTotal-k) / C(n, colTotal)
	logDenom := combin.LogGeneralizedBinomial(float64(n), float64(colTotal))
	var p float64
	for k := t.A; k <= kMax; k++ {
		if colTotal-k > n-rowTotal {
			continue
		}
		logNum := combin.LogGeneralizedBinomial(float64(rowTotal), float64(k)) +
			combin.LogGeneralizedBinomial(float64(n-rowTotal), float64(colTotal-k))
		p += math.Exp(logNum - logDenom)
	}
	return clampP(p)
}

// MinusLog10 is the -log10 transform used for reporting p-values.
func MinusLog10(p float64) float64 {
	return -math.Log10(clampP(p))
}

func clampP(p float64) float64 {
	const eps = 2.220446049250313e-16
	if p < eps {
		return eps
	}
	if p > 1 {
		return 1
	}
	return p
}
