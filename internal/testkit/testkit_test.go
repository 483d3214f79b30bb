package testkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinact/adapters/stats/engine"
	"kinact/app"
	"kinact/domain/enrichment"
	"kinact/domain/site"
)

func TestGeneratorsAreDeterministic(t *testing.T) {
	panel := Panel(8)
	assert.Len(t, panel, 8)

	m1, err := Matrix(site.VariantSerThr, panel)
	require.NoError(t, err)
	m2, err := Matrix(site.VariantSerThr, panel)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)

	b1, err := Background(site.VariantSerThr, panel, 25)
	require.NoError(t, err)
	b2, err := Background(site.VariantSerThr, panel, 25)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)

	assert.Equal(t, Batch(9), Batch(9))
}

// The generated fixtures must drive the whole pipeline end to end.
func TestGeneratedPipelineRuns(t *testing.T) {
	panel := Panel(6)
	scorer := engine.NewScorer()
	for _, v := range []site.Variant{site.VariantSerThr, site.VariantTyr} {
		m, err := Matrix(v, panel)
		require.NoError(t, err)
		b, err := Background(v, panel, 101)
		require.NoError(t, err)
		require.NoError(t, scorer.Register(m, b))
	}

	svc := app.NewEnrichmentService(scorer, nil)
	opts := enrichment.DefaultOptions()
	opts.PercentileCutoff = 50

	run, err := svc.Enrich(context.Background(), Batch(30), opts)
	require.NoError(t, err)
	assert.Empty(t, run.FailedSites)
	require.NotNil(t, run.SerThr)
	require.NotNil(t, run.Tyr)
	assert.Len(t, run.SerThr.Rows, 6)
	assert.Len(t, run.Tyr.Rows, 6)
	assert.Equal(t, 30, run.SerThr.TotalSites+run.Tyr.TotalSites)

	// Same batch, same numbers.
	again, err := svc.Enrich(context.Background(), Batch(30), opts)
	require.NoError(t, err)
	assert.Equal(t, run.SerThr, again.SerThr)
	assert.Equal(t, run.Tyr, again.Tyr)
}
