package engine

import "sort"

// BenjaminiHochberg adjusts a family of p-values with the BH step-up
// procedure and returns them in the input order. Each adjusted value is
// p_i * m / rank_i, made monotone by a cumulative minimum from the largest
// p down, clamped to 1.
func BenjaminiHochberg(pvalues []float64) []float64 {
	m := len(pvalues)
	if m == 0 {
		return nil
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return pvalues[order[a]] < pvalues[order[b]] })

	adjusted := make([]float64, m)
	minSoFar := 1.0
	for i := m - 1; i >= 0; i-- {
		idx := order[i]
		rank := i + 1
		q := pvalues[idx] * float64(m) / float64(rank)
		if q < minSoFar {
			minSoFar = q
		}
		adjusted[idx] = minSoFar
	}
	return adjusted
}
