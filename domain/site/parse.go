package site

import (
	"strings"

	"kinact/domain/core"
)

// Options controls how a raw sequence is normalized.
type Options struct {
	// PhosphoPriming keeps lowercase s/t/y (and other marked acceptors) as
	// phospho-residues so they address the phospho rows of the scoring
	// matrix. When false they are treated as wildtype.
	PhosphoPriming bool
}

const minCentralLength = 3

// residue alphabet: the 20 standard amino acids, phospho s/t/y, X (masked)
// and _ (truncation placeholder).
func isAllowedResidue(c byte) bool {
	switch c {
	case 'A', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'K', 'L', 'M', 'N',
		'P', 'Q', 'R', 'S', 'T', 'V', 'W', 'Y', 's', 't', 'y', 'X', '_':
		return true
	}
	return false
}

func isSkipped(c byte) bool {
	return c == '_' || c == 'X'
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func acceptorVariant(c byte) (Variant, bool) {
	switch upper(c) {
	case 'S', 'T':
		return VariantSerThr, true
	case 'Y':
		return VariantTyr, true
	}
	return "", false
}

// Parse normalizes a phosphosite sequence given in one of the three accepted
// notations: an asterisk after the acceptor ("GRNSLs*PVQA"), a "(ph)" marker
// ("GRNSLs(ph)PVQA"), or a marker-free odd-length window with the acceptor
// in the middle ("FVKQKASQSPQKQ"). Marked sequences must carry the full
// flank on both sides of every marked acceptor; central sequences must have
// odd length. All residues must belong to the standard alphabet and every
// marked acceptor must be S, T or Y of the same panel variant.
func Parse(input string, opts Options) (*NormalizedSite, error) {
	seq := strings.ReplaceAll(input, "(ph)", "*")

	if strings.Contains(seq, "*") {
		return parseMarked(input, seq, opts)
	}
	return parseCentral(input, seq, opts)
}

func parseMarked(input, seq string, opts Options) (*NormalizedSite, error) {
	if strings.Contains(seq, "**") || seq[0] == '*' {
		return nil, core.NewSequenceError(input, core.ErrUnsupportedFormat)
	}

	plain := make([]byte, 0, len(seq))
	var acceptors []int
	for i := 0; i < len(seq); i++ {
		if seq[i] == '*' {
			acceptors = append(acceptors, len(plain)-1)
			continue
		}
		plain = append(plain, seq[i])
	}

	if err := validateResidues(input, plain); err != nil {
		return nil, err
	}

	variant, err := commonVariant(input, plain, acceptors)
	if err != nil {
		return nil, err
	}

	// No boundary padding: every marked acceptor needs its full flank.
	for _, a := range acceptors {
		left := a
		right := len(plain) - a - 1
		if left < leftFlank() || right < variant.rightFlank() {
			return nil, core.NewSequenceError(input, core.ErrWindowTooShort)
		}
	}

	return buildSite(input, plain, acceptors, variant, opts), nil
}

func parseCentral(input, seq string, opts Options) (*NormalizedSite, error) {
	if len(seq)%2 == 0 {
		return nil, core.NewSequenceError(input, core.ErrUnsupportedFormat)
	}
	if len(seq) < minCentralLength {
		return nil, core.NewSequenceError(input, core.ErrWindowTooShort)
	}

	plain := []byte(seq)
	if err := validateResidues(input, plain); err != nil {
		return nil, err
	}

	acceptors := []int{len(plain) / 2}
	variant, err := commonVariant(input, plain, acceptors)
	if err != nil {
		return nil, err
	}

	return buildSite(input, plain, acceptors, variant, opts), nil
}

func leftFlank() int { return 5 }

func validateResidues(input string, plain []byte) error {
	for _, c := range plain {
		if !isAllowedResidue(c) {
			return core.NewSequenceError(input, core.ErrInvalidResidue)
		}
	}
	return nil
}

// commonVariant classifies every acceptor and requires them to agree on one
// panel; a site mixing Ser/Thr and Tyr acceptors is ambiguous.
func commonVariant(input string, plain []byte, acceptors []int) (Variant, error) {
	var variant Variant
	for _, a := range acceptors {
		v, ok := acceptorVariant(plain[a])
		if !ok {
			return "", core.NewSequenceError(input, core.ErrInvalidAcceptor)
		}
		if variant == "" {
			variant = v
		} else if variant != v {
			return "", core.NewSequenceError(input, core.ErrInvalidAcceptor)
		}
	}
	return variant, nil
}

func buildSite(input string, plain []byte, acceptors []int, variant Variant, opts Options) *NormalizedSite {
	view := make([]byte, len(plain))
	if opts.PhosphoPriming {
		copy(view, plain)
		// Marked acceptors are known phospho-residues; lowercase them so
		// neighboring windows score them against the phospho rows.
		for _, a := range acceptors {
			if c := view[a]; c >= 'A' && c <= 'Z' {
				view[a] = c + ('a' - 'A')
			}
		}
	} else {
		for i, c := range plain {
			view[i] = upper(c)
		}
	}

	lo, hi := variant.PositionRange()
	windows := make([]Window, 0, len(acceptors))
	for _, a := range acceptors {
		w := Window{Acceptor: upper(plain[a])}
		for pos := lo; pos <= hi; pos++ {
			if pos == 0 {
				continue
			}
			i := a + pos
			if i < 0 || i >= len(view) {
				continue
			}
			c := view[i]
			if isSkipped(c) {
				continue
			}
			w.Entries = append(w.Entries, Entry{Pos: pos, Residue: c})
		}
		windows = append(windows, w)
	}

	return &NormalizedSite{Input: input, Variant: variant, Windows: windows}
}
