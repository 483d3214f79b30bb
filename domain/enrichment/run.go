package enrichment

import (
	"fmt"
	"strings"

	"kinact/domain/core"
	"kinact/domain/scoring"
)

// Options drive one enrichment run. Zero values are invalid; use
// DefaultOptions and override.
type Options struct {
	// FCThreshold is the inclusive |log2 fold change| boundary between
	// regulated and unregulated sites. Must be > 0.
	FCThreshold float64 `json:"fc_threshold"`

	// PercentileCutoff is the strict lower bound for kinase-set
	// membership: a kinase is in a site's set when percentile > cutoff.
	PercentileCutoff float64 `json:"percentile_cutoff"`

	// Method collapses multi-acceptor peptides before membership;
	// MethodAll instead requires every window to clear the cutoff.
	Method scoring.Method `json:"method"`

	// PhosphoPriming keeps non-central phospho-marks as lowercase
	// residues instead of reverting them to wildtype.
	PhosphoPriming bool `json:"phospho_priming"`

	// Favorability adds the acceptor-position weight for Ser/Thr sites.
	Favorability bool `json:"favorability"`

	// TopK annotates each classified site with its K best kinases.
	// Zero disables the annotation.
	TopK int `json:"top_k"`
}

// DefaultOptions mirror the documented defaults of the batch pipeline.
func DefaultOptions() Options {
	return Options{
		FCThreshold:      1.5,
		PercentileCutoff: 90,
		Method:           scoring.MethodAvg,
		TopK:             15,
	}
}

// Validate fails fast on unusable options.
func (o Options) Validate() error {
	if err := ValidateFCThreshold(o.FCThreshold); err != nil {
		return err
	}
	if o.PercentileCutoff < 0 || o.PercentileCutoff >= 100 {
		return core.NewConfigurationError("percentile_cutoff", fmt.Sprintf("must be in [0, 100), got %v", o.PercentileCutoff))
	}
	if _, err := scoring.ParseMethod(string(o.Method)); err != nil {
		return err
	}
	if o.TopK < 0 {
		return core.NewConfigurationError("top_k", fmt.Sprintf("must be >= 0, got %d", o.TopK))
	}
	return nil
}

// InputRow is one raw batch row before normalization.
type InputRow struct {
	Index    int     `json:"index"`
	Sequence string  `json:"sequence"`
	Log2FC   float64 `json:"log2fc"`
}

// FailedSite records a batch row that could not be normalized or scored.
// Batch processing never aborts on one bad row.
type FailedSite struct {
	Index    int    `json:"index"`
	Sequence string `json:"sequence"`
	Reason   string `json:"reason"`
}

// SiteAnnotation is the optional per-site output of a run: the direction
// the site was classified into and its top-ranked kinases.
type SiteAnnotation struct {
	Index      int                   `json:"index"`
	Sequence   string                `json:"sequence"`
	Log2FC     float64               `json:"log2fc"`
	Regulation Regulation            `json:"regulation"`
	TopKinases []scoring.KinaseScore `json:"top_kinases,omitempty"`
}

// Run is a completed enrichment: one table per variant that had sites,
// the rows that failed, and a fingerprint binding results to inputs and
// options.
type Run struct {
	ID        core.RunID     `json:"id"`
	CreatedAt core.Timestamp `json:"created_at"`
	Options   Options        `json:"options"`

	SerThr *Table `json:"ser_thr,omitempty"`
	Tyr    *Table `json:"tyr,omitempty"`

	Annotations []SiteAnnotation `json:"annotations,omitempty"`
	FailedSites []FailedSite     `json:"failed_sites,omitempty"`

	Fingerprint core.Hash `json:"fingerprint"`
}

// NewRun stamps identity onto a finished computation.
func NewRun(opts Options) *Run {
	return &Run{
		ID:        core.NewRunID(),
		CreatedAt: core.Now(),
		Options:   opts,
	}
}

// ComputeFingerprint hashes the inputs and options so identical batches
// yield an identical digest regardless of scoring order.
func ComputeFingerprint(rows []InputRow, opts Options) core.Hash {
	var b strings.Builder
	fmt.Fprintf(&b, "fc=%v;cut=%v;method=%s;priming=%t;fav=%t;topk=%d\n",
		opts.FCThreshold, opts.PercentileCutoff, opts.Method,
		opts.PhosphoPriming, opts.Favorability, opts.TopK)
	for _, r := range rows {
		fmt.Fprintf(&b, "%d\t%s\t%v\n", r.Index, r.Sequence, r.Log2FC)
	}
	return core.NewHash([]byte(b.String()))
}
