package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/goliatone/formflow/pkg/formkey"
	"github.com/goliatone/formflow/pkg/model"
)

func TestNewFormDefinition_RejectsDuplicateKeys(t *testing.T) {
	sections := []model.Section{
		{ID: "a", Key: formkey.New("Section 2"), DisplayLabel: "Section 2"},
		{ID: "b", Key: formkey.New("section2"), DisplayLabel: "Different Label"},
	}

	_, err := model.NewFormDefinition("Application", "Case", sections)
	if !errors.Is(err, model.ErrDuplicateSectionKey) {
		t.Fatalf("expected ErrDuplicateSectionKey, got %v", err)
	}
}

func TestNewFormDefinition_RejectsEmptyKey(t *testing.T) {
	sections := []model.Section{
		{ID: "a", Key: formkey.New("   "), DisplayLabel: "Blank"},
	}
	_, err := model.NewFormDefinition("Application", "Case", sections)
	if !errors.Is(err, model.ErrEmptySectionKey) {
		t.Fatalf("expected ErrEmptySectionKey, got %v", err)
	}
}

func TestFormDefinition_FindSection(t *testing.T) {
	def := mustDefinition(t)

	if got, ok := def.FindSection("id-b"); !ok || got.Key.Canonical() != "Section B" {
		t.Fatalf("id lookup failed: %#v ok=%v", got, ok)
	}
	if got, ok := def.FindSection("section b"); !ok || got.ID != "id-b" {
		t.Fatalf("key fallback lookup failed: %#v ok=%v", got, ok)
	}
	if got, ok := def.FindSection("Part Two"); !ok || got.ID != "id-b" {
		t.Fatalf("display label lookup failed: %#v ok=%v", got, ok)
	}
	if _, ok := def.FindSection("missing"); ok {
		t.Fatalf("expected unresolved reference")
	}
}

func TestFormDefinition_Next(t *testing.T) {
	def := mustDefinition(t)

	next, ok := def.Next(formkey.New("Section A"))
	if !ok || next.Key.Canonical() != "Section B" {
		t.Fatalf("next after A: %#v ok=%v", next, ok)
	}
	if _, ok := def.Next(formkey.New("Section C")); ok {
		t.Fatalf("expected no section after the last one")
	}
	if _, ok := def.Next(formkey.New("Unknown")); ok {
		t.Fatalf("expected no section after an unknown key")
	}
}

func TestPage_Renderable(t *testing.T) {
	if (model.Page{Label: "NOPAGESCONFIGURED"}).Renderable() {
		t.Fatalf("sentinel page must never render")
	}
	if (model.Page{Label: " nopagesconfigured "}).Renderable() {
		t.Fatalf("sentinel check must tolerate casing and whitespace")
	}
	if !(model.Page{Label: "Page 1"}).Renderable() {
		t.Fatalf("ordinary page should render")
	}
}

func TestFlexBool(t *testing.T) {
	var payload struct {
		A model.FlexBool `json:"a"`
		B model.FlexBool `json:"b"`
		C model.FlexBool `json:"c"`
		D model.FlexBool `json:"d"`
		E model.FlexBool `json:"e"`
	}
	raw := []byte(`{"a": true, "b": "TRUE", "c": 1, "d": "no", "e": null}`)
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !payload.A.Bool() || !payload.B.Bool() || !payload.C.Bool() {
		t.Fatalf("truthy forms not accepted: %+v", payload)
	}
	if payload.D.Bool() || payload.E.Bool() {
		t.Fatalf("falsy forms not rejected: %+v", payload)
	}
}

func TestRecordState_Clone(t *testing.T) {
	state := &model.RecordState{
		RecordID: "001",
		Sections: []model.SectionResult{
			{Key: "A", Pages: []model.Page{{Label: "Page 1", Errors: []model.PageError{{Message: "bad"}}}}},
		},
		PartialValidations: map[string]model.LiveSnapshot{
			"A": {HasErrors: true, Pages: []model.Page{{Label: "Page 1"}}},
		},
	}

	clone := state.Clone()
	clone.Sections[0].Pages[0].Errors[0].Message = "changed"
	clone.PartialValidations["A"] = model.LiveSnapshot{}

	if state.Sections[0].Pages[0].Errors[0].Message != "bad" {
		t.Fatalf("clone aliased section pages")
	}
	if !state.PartialValidations["A"].HasErrors {
		t.Fatalf("clone aliased partial validations")
	}
}

func mustDefinition(t *testing.T) model.FormDefinition {
	t.Helper()
	def, err := model.NewFormDefinition("Application", "Case", []model.Section{
		{ID: "id-a", Key: formkey.New("Section A"), DisplayLabel: "Part One", FlowReference: "Flow_A"},
		{ID: "id-b", Key: formkey.New("Section B"), DisplayLabel: "Part Two", FlowReference: "Flow_B"},
		{ID: "id-c", Key: formkey.New("Section C"), DisplayLabel: "Part Three", FlowReference: "Flow_C"},
	})
	if err != nil {
		t.Fatalf("build definition: %v", err)
	}
	return def
}
