package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinact/domain/core"
	"kinact/domain/enrichment"
	"kinact/domain/scoring"
	"kinact/domain/site"
)

type observation struct {
	members []bool
	reg     enrichment.Regulation
}

func TestMembershipCutoffIsStrict(t *testing.T) {
	ns, err := site.Parse("FVKQKASQSPQKQ", site.Options{})
	require.NoError(t, err)
	r, err := scoring.NewResult(ns, []scoring.KinaseScore{
		{Kinase: "AAK1", Percentile: 90.0},
		{Kinase: "CDK1", Percentile: 90.0001},
		{Kinase: "PLK1", Percentile: 89.9},
	})
	require.NoError(t, err)

	members := Membership(r, 90)
	assert.Equal(t, []bool{false, true, false}, members)
}

func TestAccumulatorCounts(t *testing.T) {
	m, _ := twoKinasePanel(t)
	acc := NewAccumulator(m)
	assert.Equal(t, site.VariantSerThr, acc.Variant())

	obs := []observation{
		{[]bool{true, false}, enrichment.RegulationUp},
		{[]bool{true, false}, enrichment.RegulationDown},
		{[]bool{false, false}, enrichment.RegulationUnregulated},
		{[]bool{false, false}, enrichment.RegulationUnregulated},
	}
	for _, o := range obs {
		require.NoError(t, acc.Observe(o.members, o.reg))
	}
	assert.Equal(t, 4, acc.Sites())

	table := acc.Finalize()
	assert.Equal(t, 4, table.TotalSites)
	assert.Equal(t, 1, table.TotalUp)
	assert.Equal(t, 1, table.TotalDown)
	assert.Equal(t, 2, table.TotalUnregulated)
	require.Len(t, table.Rows, 2)

	aak1, err := table.Row("AAK1")
	require.NoError(t, err)
	assert.Equal(t, 2, aak1.InSet)
	assert.Equal(t, 1, aak1.Up.Hits)
	assert.Equal(t, enrichment.Table2x2{A: 1, B: 1, C: 0, D: 2}, aak1.Up.Table)
	assert.InDelta(t, 0.5, aak1.Up.PValue, 1e-10)
	// Zero cell: corrected odds ratio (1.5*2.5)/(1.5*0.5).
	assert.InDelta(t, 5.0, aak1.Up.OddsRatio, 1e-12)
	assert.Equal(t, 1, aak1.Down.Hits)
	assert.InDelta(t, 0.5, aak1.Down.PValue, 1e-10)

	// Equal magnitudes and equal p-values resolve to up.
	assert.Equal(t, enrichment.RegulationUp, aak1.DominantDirection)
	assert.InDelta(t, math.Log2(5.0), aak1.DominantLog2OR, 1e-12)

	// No in-set member anywhere: zero row, p = 1, adjusted 1, no error.
	cdk1, err := table.Row("CDK1")
	require.NoError(t, err)
	assert.Equal(t, 0, cdk1.InSet)
	assert.Zero(t, cdk1.Up.OddsRatio)
	assert.Zero(t, cdk1.Up.Log2OddsRatio)
	assert.Equal(t, 1.0, cdk1.Up.PValue)
	assert.Equal(t, 1.0, cdk1.Up.AdjustedP)
	assert.Zero(t, cdk1.DominantLog2OR)
	assert.Zero(t, cdk1.DominantMinusLog10P)
}

func TestAccumulatorDominantPrefersLargerEffect(t *testing.T) {
	m, _ := twoKinasePanel(t)
	acc := NewAccumulator(m)

	// AAK1 heavily down: 4 of 5 down sites in-set, no up hits.
	for i := 0; i < 4; i++ {
		require.NoError(t, acc.Observe([]bool{true, false}, enrichment.RegulationDown))
	}
	require.NoError(t, acc.Observe([]bool{false, false}, enrichment.RegulationDown))
	for i := 0; i < 5; i++ {
		require.NoError(t, acc.Observe([]bool{false, false}, enrichment.RegulationUp))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, acc.Observe([]bool{false, false}, enrichment.RegulationUnregulated))
	}

	table := acc.Finalize()
	aak1, err := table.Row("AAK1")
	require.NoError(t, err)
	assert.Equal(t, enrichment.RegulationDown, aak1.DominantDirection)
	assert.Negative(t, aak1.DominantLog2OR)
	assert.InDelta(t, math.Abs(aak1.Down.Log2OddsRatio), -aak1.DominantLog2OR, 1e-12)
	assert.Equal(t, aak1.Down.AdjustedP, aak1.DominantAdjustedP)
}

func TestAccumulatorOrderIndependence(t *testing.T) {
	m, _ := twoKinasePanel(t)

	obs := []observation{
		{[]bool{true, true}, enrichment.RegulationUp},
		{[]bool{true, false}, enrichment.RegulationUp},
		{[]bool{false, true}, enrichment.RegulationDown},
		{[]bool{true, true}, enrichment.RegulationDown},
		{[]bool{false, false}, enrichment.RegulationUnregulated},
		{[]bool{true, false}, enrichment.RegulationUnregulated},
	}

	base := NewAccumulator(m)
	for _, o := range obs {
		require.NoError(t, base.Observe(o.members, o.reg))
	}
	want := base.Finalize()

	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]observation, len(obs))
		copy(shuffled, obs)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		acc := NewAccumulator(m)
		for _, o := range shuffled {
			require.NoError(t, acc.Observe(o.members, o.reg))
		}
		assert.Equal(t, want, acc.Finalize(), "trial %d", trial)
	}
}

func TestAccumulatorRejectsWrongPanelSize(t *testing.T) {
	m, _ := twoKinasePanel(t)
	acc := NewAccumulator(m)
	err := acc.Observe([]bool{true}, enrichment.RegulationUp)
	assert.True(t, core.IsSchemaMismatch(err))
}

func TestAccumulatorEmptyBatch(t *testing.T) {
	m, _ := twoKinasePanel(t)
	table := NewAccumulator(m).Finalize()
	require.Len(t, table.Rows, 2)
	for _, row := range table.Rows {
		assert.Zero(t, row.InSet)
		assert.Equal(t, 1.0, row.Up.PValue)
		assert.Equal(t, 1.0, row.Down.PValue)
	}
}
