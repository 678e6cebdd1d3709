// Package visibility decides whether section and page validation indicators
// should be shown for a record's current store state. The predicates are pure
// functions over the shared record entry so sibling display components can
// evaluate them independently without talking to each other.
//
// Master results always win: once a full-form validation has completed for
// the session, live snapshots are ignored for display until a new form load
// resets the record's state. Page gating is additionally scoped to the
// owning section, so a page named "Page 1" under two sections only ever
// reflects errors sourced from its own section's result entry.
package visibility

import (
	"sort"
	"strings"

	"github.com/goliatone/formflow/pkg/formkey"
	"github.com/goliatone/formflow/pkg/model"
)

// MasterSectionHasErrors reports whether the master snapshot carries any
// error entry for the section.
func MasterSectionHasErrors(state *model.RecordState, sectionKey string) bool {
	if state == nil {
		return false
	}
	for _, s := range state.Sections {
		if !formkey.Equal(s.Key, sectionKey) {
			continue
		}
		if s.HasErrors || !s.IsValid || anyPageErrors(s.Pages) {
			return true
		}
	}
	return false
}

// LiveSectionHasErrors reports whether the live snapshot for a loosely
// matching key carries errors.
func LiveSectionHasErrors(state *model.RecordState, sectionKey string) bool {
	entry, ok := liveEntry(state, sectionKey)
	if !ok {
		return false
	}
	return entry.HasErrors || anyPageErrors(entry.Pages)
}

// MasterPageHasErrors reports whether the master snapshot carries errors for
// the named page under this specific section.
func MasterPageHasErrors(state *model.RecordState, sectionKey, pageName string) bool {
	if state == nil {
		return false
	}
	target := formkey.Normalize(pageName)
	for _, s := range state.Sections {
		if !formkey.Equal(s.Key, sectionKey) {
			continue
		}
		for _, p := range s.Pages {
			if formkey.Normalize(p.Label) == target && !p.Clean() {
				return true
			}
		}
	}
	return false
}

// LivePageHasErrors reports whether the live snapshot carries errors for the
// named page under this specific section.
func LivePageHasErrors(state *model.RecordState, sectionKey, pageName string) bool {
	entry, ok := liveEntry(state, sectionKey)
	if !ok {
		return false
	}
	target := formkey.Normalize(pageName)
	for _, p := range entry.Pages {
		if formkey.Normalize(p.Label) == target && !p.Clean() {
			return true
		}
	}
	return false
}

// Section reports whether the section-level indicator should render. The
// indicator is suppressed entirely when an inline validation panel is in use;
// the two display modes are mutually exclusive.
func Section(state *model.RecordState, sectionKey string) bool {
	if state == nil || state.ShowSectionValidationPanel {
		return false
	}
	if MasterSectionHasErrors(state, sectionKey) {
		return true
	}
	if liveEnabled(state) {
		return LiveSectionHasErrors(state, sectionKey)
	}
	return false
}

// Page reports whether the page-level indicator should render. An empty
// sectionKey falls back to the record's current section pointer; a missing
// section or page name yields false.
func Page(state *model.RecordState, sectionKey, pageName string) bool {
	if state == nil || state.ShowSectionValidationPanel {
		return false
	}
	section := strings.TrimSpace(sectionKey)
	if section == "" {
		section = strings.TrimSpace(state.CurrentSectionKey)
	}
	if section == "" || strings.TrimSpace(pageName) == "" {
		return false
	}
	if MasterPageHasErrors(state, section, pageName) {
		return true
	}
	if liveEnabled(state) {
		return LivePageHasErrors(state, section, pageName)
	}
	return false
}

// liveEnabled gates live results on the feature flag and on master
// precedence: a completed master validation suppresses live display for the
// rest of the session.
func liveEnabled(state *model.RecordState) bool {
	return state.LiveValidation && !state.SuppressLiveValidation
}

func liveEntry(state *model.RecordState, sectionKey string) (model.LiveSnapshot, bool) {
	if state == nil || len(state.PartialValidations) == 0 {
		return model.LiveSnapshot{}, false
	}
	keys := make([]string, 0, len(state.PartialValidations))
	for k := range state.PartialValidations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	match, ok := formkey.FindMatch(keys, sectionKey)
	if !ok {
		return model.LiveSnapshot{}, false
	}
	return state.PartialValidations[match], true
}

func anyPageErrors(pages []model.Page) bool {
	for _, p := range pages {
		if !p.Clean() {
			return true
		}
	}
	return false
}
