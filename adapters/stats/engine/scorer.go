package engine

import (
	"fmt"

	"kinact/domain/core"
	"kinact/domain/matrix"
	"kinact/domain/scoring"
	"kinact/domain/site"
)

// panelRef pairs a scoring matrix with its background distributions.
type panelRef struct {
	matrix     *matrix.ScoringMatrix
	background *matrix.Background
}

// Scorer scores normalized sites against the registered variant panels.
// Safe for concurrent use after registration: scoring never mutates state.
type Scorer struct {
	panels map[site.Variant]*panelRef
}

// NewScorer returns a scorer with no panels registered.
func NewScorer() *Scorer {
	return &Scorer{panels: make(map[site.Variant]*panelRef)}
}

// Register installs the matrix and background for one variant. The pair
// must agree on variant and panel.
func (s *Scorer) Register(m *matrix.ScoringMatrix, b *matrix.Background) error {
	if m == nil || b == nil {
		return fmt.Errorf("matrix and background must not be nil")
	}
	if err := matrix.ValidatePanel(m, b); err != nil {
		return err
	}
	s.panels[m.Variant()] = &panelRef{matrix: m, background: b}
	return nil
}

// Variants lists the registered panels in deterministic order.
func (s *Scorer) Variants() []site.Variant {
	var out []site.Variant
	for _, v := range []site.Variant{site.VariantSerThr, site.VariantTyr} {
		if _, ok := s.panels[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Panel returns the kinase panel for a variant.
func (s *Scorer) Panel(variant site.Variant) ([]core.KinaseName, error) {
	ref, ok := s.panels[variant]
	if !ok {
		return nil, fmt.Errorf("no panel registered for variant %s: %w", variant, core.ErrSchemaMismatch)
	}
	return ref.matrix.Panel(), nil
}

// Matrix returns the registered scoring matrix for a variant.
func (s *Scorer) Matrix(variant site.Variant) (*matrix.ScoringMatrix, error) {
	ref, ok := s.panels[variant]
	if !ok {
		return nil, fmt.Errorf("no panel registered for variant %s: %w", variant, core.ErrSchemaMismatch)
	}
	return ref.matrix, nil
}

// rawWindow sums the matrix weights selected by one window's residues.
// Unknown (position, residue) rows are schema mismatches: the alphabet is
// validated at parse time, so a miss means the matrix is incomplete.
func rawWindow(ref *panelRef, w site.Window, favorability bool) ([]float64, error) {
	m := ref.matrix
	raw := make([]float64, m.PanelSize())
	for _, e := range w.Entries {
		row, ok := m.Row(matrix.PositionResidue{Pos: e.Pos, Residue: e.Residue})
		if !ok {
			return nil, fmt.Errorf("matrix has no row %d%c: %w", e.Pos, e.Residue, core.ErrSchemaMismatch)
		}
		for i, v := range row {
			raw[i] += v
		}
	}
	if favorability && m.Variant() == site.VariantSerThr {
		acceptor := w.Acceptor
		if acceptor >= 'a' && acceptor <= 'z' {
			acceptor -= 'a' - 'A'
		}
		row, ok := m.Row(matrix.PositionResidue{Pos: 0, Residue: acceptor})
		if !ok {
			return nil, fmt.Errorf("matrix has no favorability row 0%c: %w", acceptor, core.ErrSchemaMismatch)
		}
		for i, v := range row {
			raw[i] += v
		}
	}
	return raw, nil
}

// rawWindows scores every acceptor window of the site.
func (s *Scorer) rawWindows(ns *site.NormalizedSite, favorability bool) (*panelRef, [][]float64, error) {
	ref, ok := s.panels[ns.Variant]
	if !ok {
		return nil, nil, fmt.Errorf("no panel registered for variant %s: %w", ns.Variant, core.ErrSchemaMismatch)
	}
	windows := make([][]float64, len(ns.Windows))
	for i, w := range ns.Windows {
		raw, err := rawWindow(ref, w, favorability)
		if err != nil {
			return nil, nil, err
		}
		windows[i] = raw
	}
	return ref, windows, nil
}

// finalize turns one raw vector into a full result with log scores and
// background percentiles.
func finalize(ref *panelRef, ns *site.NormalizedSite, raw []float64) (*scoring.Result, error) {
	panel := ref.matrix.Panel()
	rows := make([]scoring.KinaseScore, len(panel))
	for i, k := range panel {
		pct, err := ref.background.Percentile(k, raw[i])
		if err != nil {
			return nil, err
		}
		rows[i] = scoring.KinaseScore{
			Kinase:     k,
			Raw:        raw[i],
			Log:        scoring.LogScore(raw[i]),
			Percentile: pct,
		}
	}
	return scoring.NewResult(ns, rows)
}

// Score scores a site, collapsing multi-acceptor peptides with the given
// method before the percentile lookup. MethodAll has no single collapsed
// value and is rejected here; use ScoreEach for per-window results.
func (s *Scorer) Score(ns *site.NormalizedSite, method scoring.Method, favorability bool) (*scoring.Result, error) {
	if ns == nil {
		return nil, fmt.Errorf("site must not be nil")
	}
	if method == scoring.MethodAll {
		return nil, core.NewConfigurationError("method", "all is only valid in batch aggregation")
	}
	if _, err := scoring.ParseMethod(string(method)); err != nil {
		return nil, err
	}
	ref, windows, err := s.rawWindows(ns, favorability)
	if err != nil {
		return nil, err
	}
	return finalize(ref, ns, collapse(windows, method))
}

// ScoreEach scores every acceptor window of the site independently.
func (s *Scorer) ScoreEach(ns *site.NormalizedSite, favorability bool) ([]*scoring.Result, error) {
	if ns == nil {
		return nil, fmt.Errorf("site must not be nil")
	}
	ref, windows, err := s.rawWindows(ns, favorability)
	if err != nil {
		return nil, err
	}
	results := make([]*scoring.Result, len(windows))
	for i, raw := range windows {
		r, err := finalize(ref, ns, raw)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return results, nil
}

// collapse folds per-window raw vectors into one vector per kinase.
// Collapsing happens on raw scores so the percentile lookup sees a value
// on the background's own scale. avg therefore reports the percentile of
// the mean raw score, not the mean of per-window percentiles; the lookup
// is monotone, so min and max commute with it but avg does not.
func collapse(windows [][]float64, method scoring.Method) []float64 {
	if len(windows) == 1 {
		return windows[0]
	}
	n := len(windows[0])
	out := make([]float64, n)
	copy(out, windows[0])
	for _, w := range windows[1:] {
		for i, v := range w {
			switch method {
			case scoring.MethodMin:
				if v < out[i] {
					out[i] = v
				}
			case scoring.MethodMax:
				if v > out[i] {
					out[i] = v
				}
			default: // avg accumulates, divided below
				out[i] += v
			}
		}
	}
	if method == scoring.MethodAvg {
		for i := range out {
			out[i] /= float64(len(windows))
		}
	}
	return out
}
