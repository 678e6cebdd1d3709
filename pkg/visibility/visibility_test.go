package visibility_test

import (
	"testing"

	"github.com/goliatone/formflow/pkg/model"
	"github.com/goliatone/formflow/pkg/visibility"
)

func errorPage(label string) model.Page {
	return model.Page{Label: label, Errors: []model.PageError{{Message: "required field missing"}}}
}

func TestSection_MasterWinsOverLive(t *testing.T) {
	state := &model.RecordState{
		RecordID:               "001",
		LiveValidation:         true,
		SuppressLiveValidation: true,
		Sections: []model.SectionResult{
			{Key: "Eligibility", HasErrors: false, IsValid: true},
		},
		PartialValidations: map[string]model.LiveSnapshot{
			"Eligibility": {HasErrors: true, Pages: []model.Page{errorPage("Page 1")}},
		},
	}

	if visibility.Section(state, "Eligibility") {
		t.Fatalf("master says clean; stale live errors must not render")
	}
}

func TestSection_LiveOnlyBeforeMaster(t *testing.T) {
	state := &model.RecordState{
		RecordID:       "001",
		LiveValidation: true,
		PartialValidations: map[string]model.LiveSnapshot{
			"Section 2": {HasErrors: true},
		},
	}

	if !visibility.Section(state, "section2") {
		t.Fatalf("live errors should render via loose key match")
	}

	state.LiveValidation = false
	if visibility.Section(state, "section2") {
		t.Fatalf("live results must be gated by the feature flag")
	}
}

func TestSection_PanelSuppressesIndicator(t *testing.T) {
	state := &model.RecordState{
		RecordID:                   "001",
		ShowSectionValidationPanel: true,
		Sections: []model.SectionResult{
			{Key: "Eligibility", HasErrors: true},
		},
	}
	if visibility.Section(state, "Eligibility") {
		t.Fatalf("inline panel and sibling indicators are mutually exclusive")
	}
	if visibility.Section(nil, "Eligibility") {
		t.Fatalf("nil state must never render")
	}
}

func TestSection_MasterErrorsRender(t *testing.T) {
	state := &model.RecordState{
		RecordID: "001",
		Sections: []model.SectionResult{
			{Key: "Eligibility", HasErrors: true, Pages: []model.Page{errorPage("Page 1")}},
			{Key: "Declarations", HasErrors: false, IsValid: true},
		},
	}
	if !visibility.Section(state, "eligibility") {
		t.Fatalf("master error entry should render")
	}
	if visibility.Section(state, "Declarations") {
		t.Fatalf("clean master entry should not render")
	}
}

func TestPage_NoCrossSectionBleed(t *testing.T) {
	// Two sections both contain a page literally named "Page 1"; only one has
	// errors on it.
	state := &model.RecordState{
		RecordID: "001",
		Sections: []model.SectionResult{
			{Key: "Section A", HasErrors: true, Pages: []model.Page{errorPage("Page 1")}},
			{Key: "Section B", HasErrors: false, IsValid: true, Pages: []model.Page{{Label: "Page 1"}}},
		},
	}

	if !visibility.Page(state, "Section A", "Page 1") {
		t.Fatalf("errored section's page should render")
	}
	if visibility.Page(state, "Section B", "Page 1") {
		t.Fatalf("same-named page under a clean section must not render")
	}
}

func TestPage_FallsBackToCurrentSectionKey(t *testing.T) {
	state := &model.RecordState{
		RecordID:          "001",
		CurrentSectionKey: "Section A",
		Sections: []model.SectionResult{
			{Key: "Section A", HasErrors: true, Pages: []model.Page{errorPage("Page 1")}},
		},
	}

	if !visibility.Page(state, "", "Page 1") {
		t.Fatalf("empty section key should fall back to current section")
	}

	state.CurrentSectionKey = ""
	if visibility.Page(state, "", "Page 1") {
		t.Fatalf("no section context should yield false")
	}
	if visibility.Page(state, "Section A", "") {
		t.Fatalf("missing page name should yield false")
	}
}

func TestPage_LivePageScoping(t *testing.T) {
	state := &model.RecordState{
		RecordID:       "001",
		LiveValidation: true,
		PartialValidations: map[string]model.LiveSnapshot{
			"Section A": {HasErrors: true, Pages: []model.Page{errorPage("Page 1")}},
		},
	}

	if !visibility.Page(state, "Section A", "page 1") {
		t.Fatalf("live page errors should render with normalized name match")
	}
	if visibility.Page(state, "Section A", "Page 2") {
		t.Fatalf("other pages must stay clean")
	}
}
