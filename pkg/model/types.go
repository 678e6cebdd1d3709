package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/formflow/pkg/formkey"
)

// NoPagesConfigured is the sentinel page name a server uses to signal that a
// section carries no validation rules. Pages with this name are never shown.
const NoPagesConfigured = "NOPAGESCONFIGURED"

// PageError is a single field-level validation failure.
type PageError struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Page is one screen within a section, carrying zero or more errors.
type Page struct {
	Label  string      `json:"pageLabel"`
	Errors []PageError `json:"errors,omitempty"`
}

// Clean reports whether the page has no errors.
func (p Page) Clean() bool {
	return len(p.Errors) == 0
}

// Renderable reports whether the page may be displayed at all. The sentinel
// "no pages configured" entry is metadata, not content.
func (p Page) Renderable() bool {
	return !strings.EqualFold(strings.TrimSpace(p.Label), NoPagesConfigured)
}

// Section is one logical page-group of a multi-section form. Key is the
// canonical identity used for every validation lookup; DisplayLabel is free
// text and may repeat or be reformatted between releases.
type Section struct {
	ID                       string
	Key                      formkey.Key
	DisplayLabel             string
	FlowReference            string
	HasConfiguredValidations bool
}

// ErrDuplicateSectionKey is returned when two sections of a form definition
// normalize to the same canonical key. The source system tolerated the
// collision silently and let validation lookups conflate the sections; here
// the ambiguity is rejected at load time.
var ErrDuplicateSectionKey = errors.New("model: duplicate section key")

// ErrEmptySectionKey is returned when a section has no usable identity.
var ErrEmptySectionKey = errors.New("model: empty section key")

// FormDefinition is the ordered section list for one form, immutable for the
// lifetime of a render session.
type FormDefinition struct {
	Name         string
	MasterObject string
	Sections     []Section
}

// NewFormDefinition validates and assembles a definition. Every section must
// carry a non-empty canonical key, and no two keys may collide under either
// strict or loose matching.
func NewFormDefinition(name, masterObject string, sections []Section) (FormDefinition, error) {
	for i, section := range sections {
		if section.Key.IsZero() {
			return FormDefinition{}, fmt.Errorf("%w: section index %d (%q)", ErrEmptySectionKey, i, section.DisplayLabel)
		}
		for _, prior := range sections[:i] {
			if prior.Key.Equal(section.Key) {
				return FormDefinition{}, fmt.Errorf("%w: %q collides with %q", ErrDuplicateSectionKey, section.Key, prior.Key)
			}
		}
	}

	cloned := append([]Section(nil), sections...)
	return FormDefinition{Name: name, MasterObject: masterObject, Sections: cloned}, nil
}

// FindSection resolves a navigation target. IDs are matched exactly first;
// unresolved references fall back to canonical-key and display-label matching.
func (d FormDefinition) FindSection(ref string) (Section, bool) {
	for _, s := range d.Sections {
		if s.ID != "" && s.ID == ref {
			return s, true
		}
	}
	for _, s := range d.Sections {
		if s.Key.Matches(ref) || formkey.Equal(s.DisplayLabel, ref) {
			return s, true
		}
	}
	return Section{}, false
}

// Index returns the position of the section identified by key, or -1.
func (d FormDefinition) Index(key formkey.Key) int {
	for i, s := range d.Sections {
		if s.Key.Equal(key) {
			return i
		}
	}
	return -1
}

// Next returns the section following the one identified by key. The second
// return value is false when key is unknown or already last.
func (d FormDefinition) Next(key formkey.Key) (Section, bool) {
	idx := d.Index(key)
	if idx < 0 || idx >= len(d.Sections)-1 {
		return Section{}, false
	}
	return d.Sections[idx+1], true
}

// Keys returns the canonical keys in section order.
func (d FormDefinition) Keys() []formkey.Key {
	out := make([]formkey.Key, len(d.Sections))
	for i, s := range d.Sections {
		out[i] = s.Key
	}
	return out
}
