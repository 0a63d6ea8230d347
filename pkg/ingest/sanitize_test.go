package ingest

import "testing"

func TestSanitizeNameStripsIllegalChars(t *testing.T) {
	got := SanitizeName(`a\b/c*d?e:f"g<h>i|j`)
	if got != "abcdefghij" {
		t.Fatalf("expected abcdefghij got %q", got)
	}
}

func TestSanitizeNameTrimsWhitespace(t *testing.T) {
	got := SanitizeName("  my track \t")
	if got != "my track" {
		t.Fatalf("expected %q got %q", "my track", got)
	}
}

func TestSanitizeNameIdempotent(t *testing.T) {
	inputs := []string{`  a/b:c  `, "clean", "", `***`, " spaced name "}
	for _, in := range inputs {
		once := SanitizeName(in)
		twice := SanitizeName(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSanitizeNameMayReturnEmpty(t *testing.T) {
	if got := SanitizeName(`  */?  `); got != "" {
		t.Fatalf("expected empty got %q", got)
	}
}
