package site

import (
	"testing"

	"kinact/domain/core"
)

func TestParseCentralSerThr(t *testing.T) {
	s, err := Parse("FVKQKASQSPQKQ", Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Variant != VariantSerThr {
		t.Errorf("Expected ser_thr variant, got %s", s.Variant)
	}
	if len(s.Windows) != 1 {
		t.Fatalf("Expected 1 window, got %d", len(s.Windows))
	}
	if s.Windows[0].Acceptor != 'S' {
		t.Errorf("Expected acceptor S, got %c", s.Windows[0].Acceptor)
	}
	// 13 residues centered on index 6: positions -5..4 all present except 0.
	if got := len(s.Windows[0].Entries); got != 9 {
		t.Errorf("Expected 9 scored entries, got %d", got)
	}
	for _, e := range s.Windows[0].Entries {
		if e.Pos == 0 {
			t.Error("Acceptor position must not be scored")
		}
		if e.Pos < -5 || e.Pos > 4 {
			t.Errorf("Entry position %d outside ser/thr range", e.Pos)
		}
	}
}

func TestParseCentralTyr(t *testing.T) {
	s, err := Parse("AAAAAGYGAAAAA", Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Variant != VariantTyr {
		t.Errorf("Expected tyr variant, got %s", s.Variant)
	}
}

func TestParseAsteriskNotation(t *testing.T) {
	s, err := Parse("FVKQKAS*QSPQK", Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Variant != VariantSerThr {
		t.Errorf("Expected ser_thr variant, got %s", s.Variant)
	}
	if len(s.Windows) != 1 {
		t.Fatalf("Expected 1 window, got %d", len(s.Windows))
	}
	if s.Windows[0].Acceptor != 'S' {
		t.Errorf("Expected acceptor S, got %c", s.Windows[0].Acceptor)
	}
}

func TestParsePhNotation(t *testing.T) {
	s, err := Parse("FVKQKAS(ph)QSPQK", Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Variant != VariantSerThr {
		t.Errorf("Expected ser_thr variant, got %s", s.Variant)
	}
}

func TestParseMultipleMarks(t *testing.T) {
	s, err := Parse("FVKQKAS*QS*PQKQA", Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(s.Windows) != 2 {
		t.Fatalf("Expected 2 windows, got %d", len(s.Windows))
	}
	for _, w := range s.Windows {
		if w.Acceptor != 'S' {
			t.Errorf("Expected acceptor S, got %c", w.Acceptor)
		}
	}
}

func TestParsePhosphoPriming(t *testing.T) {
	// The second marked acceptor shows up lowercase in the first window
	// when priming is enabled, uppercase otherwise.
	const seq = "FVKQKAS*QS*PQKQA"

	primed, err := Parse(seq, Options{PhosphoPriming: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if r := residueAt(t, primed.Windows[0], 2); r != 's' {
		t.Errorf("Expected phospho residue 's' at +2, got %c", r)
	}

	plainSite, err := Parse(seq, Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if r := residueAt(t, plainSite.Windows[0], 2); r != 'S' {
		t.Errorf("Expected wildtype residue 'S' at +2, got %c", r)
	}
}

func residueAt(t *testing.T, w Window, pos int) byte {
	t.Helper()
	for _, e := range w.Entries {
		if e.Pos == pos {
			return e.Residue
		}
	}
	t.Fatalf("No entry at position %d", pos)
	return 0
}

func TestParseSkipsPlaceholders(t *testing.T) {
	s, err := Parse("FV_QKASXSPQKQ", Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for _, e := range s.Windows[0].Entries {
		if e.Residue == '_' || e.Residue == 'X' {
			t.Errorf("Placeholder %c must be skipped", e.Residue)
		}
	}
	if got := len(s.Windows[0].Entries); got != 7 {
		t.Errorf("Expected 7 scored entries after skipping, got %d", got)
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"even length central", "FVKQKASQSPQK", core.ErrUnsupportedFormat},
		{"double asterisk", "FVKQKAS**QSPQK", core.ErrUnsupportedFormat},
		{"leading asterisk", "*FVKQKASQSPQK", core.ErrUnsupportedFormat},
		{"bad central residue", "FVKQKAGQAPQKQ", core.ErrInvalidAcceptor},
		{"marked non-acceptor", "FVKQKAG*QSPQKQ", core.ErrInvalidAcceptor},
		{"mixed variants", "FVKQKAS*QQY*QKQQA", core.ErrInvalidAcceptor},
		{"illegal residue", "FVKQKASQBPQKQ", core.ErrInvalidResidue},
		{"short left flank", "KAS*QSPQKQ", core.ErrWindowTooShort},
		{"short right flank", "FVKQKAS*QSP", core.ErrWindowTooShort},
		{"tiny central", "S", core.ErrWindowTooShort},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input, Options{})
			if err == nil {
				t.Fatalf("Expected failure for %q", tc.input)
			}
			if !core.IsUnparsableSequence(err) {
				t.Errorf("Expected unparsable-sequence error, got %v", err)
			}
		})
	}
}

func TestStripComodifications(t *testing.T) {
	got := StripComodifications("LQVK(ub)IPS(ox)KEEE(ac)AD(de)")
	if got != "LQVKIPSKEEEAD" {
		t.Errorf("Expected LQVKIPSKEEEAD, got %s", got)
	}
}
