package scoring

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinact/domain/core"
	"kinact/domain/site"
)

func testSite(t *testing.T) *site.NormalizedSite {
	t.Helper()
	s, err := site.Parse("FVKQKASQSPQKQ", site.Options{})
	require.NoError(t, err)
	return s
}

func TestLogScore(t *testing.T) {
	assert.Equal(t, 0.0, LogScore(0))
	assert.InDelta(t, math.Log1p(3), LogScore(3), 1e-12)
	assert.InDelta(t, -math.Log1p(3), LogScore(-3), 1e-12)
	// Odd symmetry.
	for _, v := range []float64{0.1, 1, 2.5, 17} {
		assert.InDelta(t, -LogScore(v), LogScore(-v), 1e-12)
	}
}

func TestNewResultValidation(t *testing.T) {
	s := testSite(t)

	_, err := NewResult(nil, []KinaseScore{{Kinase: "AAK1"}})
	assert.Error(t, err)

	_, err = NewResult(s, nil)
	assert.Error(t, err)

	_, err = NewResult(s, []KinaseScore{
		{Kinase: "AAK1", Percentile: 50},
		{Kinase: "AAK1", Percentile: 60},
	})
	assert.Error(t, err)

	_, err = NewResult(s, []KinaseScore{{Kinase: "AAK1", Percentile: 101}})
	assert.Error(t, err)

	_, err = NewResult(s, []KinaseScore{{Kinase: "", Percentile: 50}})
	assert.Error(t, err)
}

func TestRankingOrder(t *testing.T) {
	s := testSite(t)
	r, err := NewResult(s, []KinaseScore{
		{Kinase: "CDK1", Raw: 1.0, Percentile: 80},
		{Kinase: "AAK1", Raw: 2.0, Percentile: 95},
		{Kinase: "PLK1", Raw: 3.0, Percentile: 80},
		{Kinase: "AKT1", Raw: 3.0, Percentile: 80},
	})
	require.NoError(t, err)

	ranked := r.Ranking()
	names := make([]core.KinaseName, len(ranked))
	for i, ks := range ranked {
		names[i] = ks.Kinase
	}
	// Percentile first, then raw, then name.
	assert.Equal(t, []core.KinaseName{"AAK1", "AKT1", "PLK1", "CDK1"}, names)
}

func TestRankingIndependentOfInputOrder(t *testing.T) {
	s := testSite(t)
	scores := []KinaseScore{
		{Kinase: "AAK1", Raw: 0.5, Percentile: 10},
		{Kinase: "CDK1", Raw: 1.5, Percentile: 90},
		{Kinase: "PLK1", Raw: -0.5, Percentile: 55},
		{Kinase: "AKT1", Raw: 2.5, Percentile: 55},
		{Kinase: "CHK1", Raw: 0.0, Percentile: 100},
	}
	base, err := NewResult(s, scores)
	require.NoError(t, err)
	want := base.Ranking()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]KinaseScore, len(scores))
		copy(shuffled, scores)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		r, err := NewResult(s, shuffled)
		require.NoError(t, err)
		assert.Equal(t, want, r.Ranking(), "trial %d", trial)
	}
}

func TestTop(t *testing.T) {
	s := testSite(t)
	r, err := NewResult(s, []KinaseScore{
		{Kinase: "AAK1", Percentile: 95},
		{Kinase: "CDK1", Percentile: 80},
		{Kinase: "PLK1", Percentile: 60},
	})
	require.NoError(t, err)

	top, err := r.Top(2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, core.KinaseName("AAK1"), top[0].Kinase)
	assert.Equal(t, core.KinaseName("CDK1"), top[1].Kinase)

	// Top is always a prefix of Ranking.
	full := r.Ranking()
	assert.Equal(t, full[:2], top)

	// Oversized n clamps to the panel.
	all, err := r.Top(10)
	require.NoError(t, err)
	assert.Equal(t, full, all)

	_, err = r.Top(0)
	assert.True(t, core.IsConfiguration(err))
	_, err = r.Top(-3)
	assert.True(t, core.IsConfiguration(err))
}

func TestMedianPercentile(t *testing.T) {
	s := testSite(t)

	odd, err := NewResult(s, []KinaseScore{
		{Kinase: "AAK1", Percentile: 10},
		{Kinase: "CDK1", Percentile: 40},
		{Kinase: "PLK1", Percentile: 90},
	})
	require.NoError(t, err)
	assert.InDelta(t, 40.0, odd.MedianPercentile(), 1e-12)

	even, err := NewResult(s, []KinaseScore{
		{Kinase: "AAK1", Percentile: 10},
		{Kinase: "CDK1", Percentile: 40},
		{Kinase: "PLK1", Percentile: 60},
		{Kinase: "AKT1", Percentile: 90},
	})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, even.MedianPercentile(), 1e-12)
}

func TestPromiscuityIndex(t *testing.T) {
	s := testSite(t)
	r, err := NewResult(s, []KinaseScore{
		{Kinase: "AAK1", Percentile: 95},
		{Kinase: "CDK1", Percentile: 90},
		{Kinase: "PLK1", Percentile: 89.9},
		{Kinase: "AKT1", Percentile: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, r.PromiscuityIndex(90))
	assert.Equal(t, 3, r.PromiscuityIndex(50))
	assert.Equal(t, 4, r.PromiscuityIndex(0))

	// Non-increasing as the threshold rises.
	prev := r.PromiscuityIndex(0)
	for cut := 10.0; cut <= 100; cut += 10 {
		cur := r.PromiscuityIndex(cut)
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
}
