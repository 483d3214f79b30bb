package site

import "strings"

// Variant distinguishes the two kinase panels a phosphosite can be scored
// against, determined by the identity of the phospho-acceptor residue.
type Variant string

const (
	// VariantSerThr covers serine/threonine acceptors.
	VariantSerThr Variant = "ser_thr"
	// VariantTyr covers tyrosine acceptors.
	VariantTyr Variant = "tyr"
)

// PositionRange returns the inclusive range of scored positions relative to
// the acceptor. The acceptor itself (position 0) is never part of the range.
func (v Variant) PositionRange() (lo, hi int) {
	if v == VariantTyr {
		return -5, 5
	}
	return -5, 4
}

// rightFlank is the number of residues required downstream of a marked
// acceptor for the window to be complete.
func (v Variant) rightFlank() int {
	_, hi := v.PositionRange()
	return hi
}

// Entry is one scored (relative position, residue) pair within a window.
// The residue keeps its case: lowercase s/t/y address the phospho-residue
// rows of a scoring matrix.
type Entry struct {
	Pos     int
	Residue byte
}

// Window is the residue neighborhood of one phospho-acceptor. Entries cover
// the variant's position range, minus the acceptor, skipped placeholders
// ('_' truncation, 'X' mask) and positions past the sequence boundary.
type Window struct {
	Acceptor byte // uppercase S, T or Y
	Entries  []Entry
}

// NormalizedSite is the validated form of one phosphosite sequence. A site
// with several phosphorylation marks carries one window per marked acceptor;
// these are the sub-windows the min/max/avg/all aggregation policies range
// over. Immutable after Parse.
type NormalizedSite struct {
	Input   string
	Variant Variant
	Windows []Window
}

// Acceptor returns the acceptor residue of the primary (first) window.
func (s *NormalizedSite) Acceptor() byte {
	if len(s.Windows) == 0 {
		return 0
	}
	return s.Windows[0].Acceptor
}

// comodMarkers are non-phospho modification suffixes that batch inputs may
// carry; they are irrelevant to kinase scoring and removed up front.
var comodMarkers = []string{"(ub)", "(ox)", "(ac)", "(de)"}

// StripComodifications removes ubiquitination, oxidation, acetylation and
// deamidation markers from a raw batch sequence.
func StripComodifications(s string) string {
	for _, m := range comodMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	return s
}
