// Package formkey defines the canonical section identity used for all
// validation and navigation bookkeeping. Section labels are user-edited free
// text, so exact-match lookups are brittle against incidental whitespace,
// casing, or punctuation drift; the package provides a strict-then-loose
// matching scheme and a Key value type constructed once at form-load time so
// downstream structures never re-derive identity from display labels.
package formkey

import "strings"

// Normalize trims surrounding whitespace and lower-cases the input.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Loose normalizes the input and strips every non-alphanumeric character,
// making "Section 2" and "section2" compare equal.
func Loose(s string) string {
	normalized := Normalize(s)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Equal reports whether two keys identify the same section. Keys are equal
// when their normalized forms match exactly, or when their loose forms match.
// Two empty keys are considered equal.
func Equal(a, b string) bool {
	if Normalize(a) == Normalize(b) {
		return true
	}
	return Loose(a) == Loose(b)
}

// FindMatch returns the first key whose normalized form matches target
// exactly, falling back to the first loose match. The second return value is
// false when no candidate matches.
func FindMatch(keys []string, target string) (string, bool) {
	tn := Normalize(target)
	for _, k := range keys {
		if Normalize(k) == tn {
			return k, true
		}
	}
	tl := Loose(target)
	for _, k := range keys {
		if Loose(k) == tl {
			return k, true
		}
	}
	return "", false
}

// Key is the stable identifier for a section. The canonical spelling is fixed
// when the form definition is built; comparisons use the strict-then-loose
// rules so label drift between client and server payloads does not break
// matching.
type Key string

// New returns a Key with the canonical spelling trimmed.
func New(canonical string) Key {
	return Key(strings.TrimSpace(canonical))
}

// FromServerSection derives a Key from a server section payload using the
// customLabel → sectionName → label fallback chain.
func FromServerSection(customLabel, sectionName, label string) Key {
	return firstNonEmpty(customLabel, sectionName, label)
}

// FromUISection derives a Key from a UI section using the customLabel →
// label → sectionName fallback chain.
func FromUISection(customLabel, label, sectionName string) Key {
	return firstNonEmpty(customLabel, label, sectionName)
}

// Canonical returns the canonical spelling.
func (k Key) Canonical() string {
	return string(k)
}

// IsZero reports whether the key carries no identity.
func (k Key) IsZero() bool {
	return strings.TrimSpace(string(k)) == ""
}

// Equal reports whether two keys identify the same section.
func (k Key) Equal(other Key) bool {
	return Equal(string(k), string(other))
}

// Matches reports whether the raw string identifies this key's section.
func (k Key) Matches(s string) bool {
	return Equal(string(k), s)
}

func (k Key) String() string {
	return string(k)
}

func firstNonEmpty(candidates ...string) Key {
	for _, c := range candidates {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			return Key(trimmed)
		}
	}
	return ""
}
