package app

import (
	"context"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"kinact/adapters/stats/engine"
	"kinact/domain/enrichment"
	"kinact/domain/scoring"
	"kinact/domain/site"
	"kinact/ports"
)

// EnrichmentService runs the batch path: classify every row by fold
// change, build kinase sets from percentile scores, and finalize the
// per-variant contingency statistics.
type EnrichmentService struct {
	scorer  *engine.Scorer
	runRepo ports.RunRepository // optional
	workers int
}

// NewEnrichmentService wires the batch pipeline. runRepo may be nil; runs
// are then computed but not persisted.
func NewEnrichmentService(scorer *engine.Scorer, runRepo ports.RunRepository) *EnrichmentService {
	return &EnrichmentService{
		scorer:  scorer,
		runRepo: runRepo,
		workers: runtime.NumCPU(),
	}
}

// SetWorkers overrides the scoring parallelism. Values below 1 reset to 1.
func (s *EnrichmentService) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	s.workers = n
}

// siteOutcome is one row's contribution, kept until the merge so the run
// output does not depend on scoring order. Each classified row carries
// exactly one membership vector and counts once in the totals.
type siteOutcome struct {
	variant    site.Variant
	regulation enrichment.Regulation
	members    []bool
	annotation *enrichment.SiteAnnotation
	failure    *enrichment.FailedSite
}

// Enrich processes the whole batch. One bad row never aborts the run; it
// lands in FailedSites instead. An invalid option set fails fast before
// any scoring happens.
func (s *EnrichmentService) Enrich(ctx context.Context, rows []enrichment.InputRow, opts enrichment.Options) (*enrichment.Run, error) {
	if err := opts.Validate(); err != nil {
		return nil, toAppError(err, "")
	}
	log.Printf("[EnrichmentService] Starting run: %d rows, fc>=%.3g, cutoff=%.3g, method=%s",
		len(rows), opts.FCThreshold, opts.PercentileCutoff, opts.Method)

	outcomes := make([]siteOutcome, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range rows {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			outcomes[i] = s.processRow(rows[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, toAppError(err, "")
	}

	run := enrichment.NewRun(opts)
	run.Fingerprint = enrichment.ComputeFingerprint(rows, opts)

	accumulators := make(map[site.Variant]*engine.Accumulator)
	for _, v := range s.scorer.Variants() {
		m, err := s.scorer.Matrix(v)
		if err != nil {
			return nil, toAppError(err, "")
		}
		accumulators[v] = engine.NewAccumulator(m)
	}

	// Merge in input order: the accumulator counts are commutative, but
	// annotations and failures keep the batch's own ordering.
	for _, out := range outcomes {
		if out.failure != nil {
			run.FailedSites = append(run.FailedSites, *out.failure)
			continue
		}
		acc := accumulators[out.variant]
		if err := acc.Observe(out.members, out.regulation); err != nil {
			return nil, toAppError(err, "")
		}
		if out.annotation != nil {
			run.Annotations = append(run.Annotations, *out.annotation)
		}
	}

	for v, acc := range accumulators {
		if acc.Sites() == 0 {
			continue
		}
		table := acc.Finalize()
		switch v {
		case site.VariantSerThr:
			run.SerThr = table
		case site.VariantTyr:
			run.Tyr = table
		}
	}

	log.Printf("[EnrichmentService] Run %s finished: %d scored, %d failed",
		run.ID, len(rows)-len(run.FailedSites), len(run.FailedSites))

	if s.runRepo != nil {
		if err := s.runRepo.SaveRun(ctx, run); err != nil {
			// Persistence is best-effort; the computed run is still valid.
			log.Printf("[EnrichmentService] Failed to persist run %s: %v", run.ID, err)
		}
	}
	return run, nil
}

// processRow normalizes, classifies, and scores one batch row.
func (s *EnrichmentService) processRow(row enrichment.InputRow, opts enrichment.Options) siteOutcome {
	fail := func(err error) siteOutcome {
		return siteOutcome{failure: &enrichment.FailedSite{
			Index:    row.Index,
			Sequence: row.Sequence,
			Reason:   err.Error(),
		}}
	}

	ns, err := site.Parse(site.StripComodifications(row.Sequence), site.Options{PhosphoPriming: opts.PhosphoPriming})
	if err != nil {
		return fail(err)
	}
	regulation, err := enrichment.Classify(row.Log2FC, opts.FCThreshold)
	if err != nil {
		return fail(err)
	}

	out := siteOutcome{variant: ns.Variant, regulation: regulation}
	var results []*scoring.Result
	if opts.Method == scoring.MethodAll {
		results, err = s.scorer.ScoreEach(ns, opts.Favorability)
	} else {
		var r *scoring.Result
		r, err = s.scorer.Score(ns, opts.Method, opts.Favorability)
		results = []*scoring.Result{r}
	}
	if err != nil {
		return fail(err)
	}

	// One membership vector per site. Under MethodAll a kinase is in-set
	// only when it clears the cutoff in every acceptor window.
	out.members = engine.Membership(results[0], opts.PercentileCutoff)
	for _, r := range results[1:] {
		for i, in := range engine.Membership(r, opts.PercentileCutoff) {
			out.members[i] = out.members[i] && in
		}
	}

	if opts.TopK > 0 {
		top, err := results[0].Top(opts.TopK)
		if err != nil {
			return fail(err)
		}
		out.annotation = &enrichment.SiteAnnotation{
			Index:      row.Index,
			Sequence:   row.Sequence,
			Log2FC:     row.Log2FC,
			Regulation: regulation,
			TopKinases: top,
		}
	}
	return out
}

// Compare computes the distance between two runs' tables, per variant.
// Variants present in only one run are left out of the result.
func (s *EnrichmentService) Compare(a, b *enrichment.Run) (map[site.Variant]float64, error) {
	distances := make(map[site.Variant]float64)
	if a.SerThr != nil && b.SerThr != nil {
		d, err := enrichment.Distance(a.SerThr, b.SerThr)
		if err != nil {
			return nil, toAppError(err, "")
		}
		distances[site.VariantSerThr] = d
	}
	if a.Tyr != nil && b.Tyr != nil {
		d, err := enrichment.Distance(a.Tyr, b.Tyr)
		if err != nil {
			return nil, toAppError(err, "")
		}
		distances[site.VariantTyr] = d
	}
	return distances, nil
}
