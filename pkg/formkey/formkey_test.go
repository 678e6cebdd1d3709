package formkey_test

import (
	"testing"

	"github.com/goliatone/formflow/pkg/formkey"
)

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"reflexive", "Eligibility", "Eligibility", true},
		{"case insensitive", "Section 2", "SECTION 2", true},
		{"whitespace tolerant", "  Section 2 ", "Section 2", true},
		{"loose punctuation", "Section 2", "section2", true},
		{"loose hyphen", "Pre-Screening", "Pre Screening", true},
		{"both empty", "", "", true},
		{"empty versus blank", "", "   ", true},
		{"distinct", "A", "B", false},
		{"distinct words", "Eligibility", "Declarations", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formkey.Equal(tc.a, tc.b); got != tc.want {
				t.Fatalf("Equal(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if got := formkey.Equal(tc.b, tc.a); got != tc.want {
				t.Fatalf("Equal(%q, %q) = %v, want %v (symmetry)", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func TestLoose(t *testing.T) {
	cases := map[string]string{
		"Section 2":  "section2",
		" A-B_c 9 ":  "abc9",
		"":           "",
		"!!!":        "",
		"Already ok": "alreadyok",
	}
	for input, want := range cases {
		if got := formkey.Loose(input); got != want {
			t.Fatalf("Loose(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFindMatch(t *testing.T) {
	keys := []string{"Eligibility", "Section 2", "Declarations"}

	if got, ok := formkey.FindMatch(keys, "eligibility "); !ok || got != "Eligibility" {
		t.Fatalf("strict match failed: got %q, ok=%v", got, ok)
	}
	if got, ok := formkey.FindMatch(keys, "section2"); !ok || got != "Section 2" {
		t.Fatalf("loose match failed: got %q, ok=%v", got, ok)
	}
	if _, ok := formkey.FindMatch(keys, "Payments"); ok {
		t.Fatalf("expected no match for unrelated target")
	}
}

func TestFindMatch_PrefersStrictOverLoose(t *testing.T) {
	keys := []string{"section2", "Section 2"}
	got, ok := formkey.FindMatch(keys, "Section 2")
	if !ok || got != "Section 2" {
		t.Fatalf("expected strict winner, got %q ok=%v", got, ok)
	}
}

func TestKeyFallbackChains(t *testing.T) {
	if got := formkey.FromServerSection("", "Section B", "B"); got.Canonical() != "Section B" {
		t.Fatalf("server fallback: got %q", got)
	}
	if got := formkey.FromServerSection("Custom", "Section B", "B"); got.Canonical() != "Custom" {
		t.Fatalf("server custom label preferred: got %q", got)
	}
	if got := formkey.FromUISection("", "", " visible "); got.Canonical() != "visible" {
		t.Fatalf("ui fallback trims: got %q", got)
	}
	if got := formkey.FromUISection("", "", ""); !got.IsZero() {
		t.Fatalf("expected zero key, got %q", got)
	}
}

func TestKeyMatches(t *testing.T) {
	key := formkey.New("Section 2")
	if !key.Matches("section2") {
		t.Fatalf("expected loose match on raw string")
	}
	if !key.Equal(formkey.New(" SECTION 2")) {
		t.Fatalf("expected key equality")
	}
	if key.Matches("Section 3") {
		t.Fatalf("unexpected match against different section")
	}
}
