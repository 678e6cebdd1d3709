package validation

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/formflow/pkg/formkey"
	"github.com/goliatone/formflow/pkg/model"
)

// Remote payloads are user-configured free text with loosely typed flags.
// The wire structs below absorb the label fallback chains and boolean
// spellings once, at ingestion, so nothing downstream re-derives identity.

type wireError struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

type wirePage struct {
	PageLabel string      `json:"pageLabel"`
	PageName  string      `json:"pageName"`
	Errors    []wireError `json:"errors"`
}

type wireSectionResult struct {
	Success   model.FlexBool `json:"success"`
	Message   string         `json:"message"`
	HasErrors model.FlexBool `json:"hasErrors"`
	Pages     []wirePage     `json:"pages"`
}

type wireServerSection struct {
	CustomLabel string          `json:"customLabel"`
	SectionName string          `json:"sectionName"`
	Label       string          `json:"label"`
	HasErrors   *model.FlexBool `json:"hasErrors"`
	IsValid     *model.FlexBool `json:"isValid"`
	Pages       []wirePage      `json:"pages"`
}

type wireFormResult struct {
	Success   model.FlexBool      `json:"success"`
	IsValid   model.FlexBool      `json:"isValid"`
	HasErrors model.FlexBool      `json:"hasErrors"`
	Message   string              `json:"message"`
	Sections  []wireServerSection `json:"sections"`
}

type wirePageResult struct {
	Success             model.FlexBool `json:"success"`
	HasValidationErrors model.FlexBool `json:"hasValidationErrors"`
	Errors              []wireError    `json:"errors"`
}

type wireDefinitionSection struct {
	ID                       string         `json:"id"`
	Label                    string         `json:"label"`
	CustomLabel              string         `json:"customLabel"`
	Flow                     string         `json:"flow"`
	HasConfiguredValidations model.FlexBool `json:"hasConfiguredValidations"`
}

type wireDefinition struct {
	Success           model.FlexBool          `json:"success"`
	Message           string                  `json:"message"`
	FormDeveloperName string                  `json:"formDeveloperName"`
	MasterObject      string                  `json:"masterObject"`
	Sections          []wireDefinitionSection `json:"sections"`
}

// sanitizer strips markup from remote-supplied display text. The messages are
// user-edited free text headed straight for display surfaces.
type sanitizer struct {
	policy *bluemonday.Policy
}

func newSanitizer() sanitizer {
	return sanitizer{policy: bluemonday.StrictPolicy()}
}

func (s sanitizer) text(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

func (s sanitizer) pages(pages []wirePage) []model.Page {
	if len(pages) == 0 {
		return nil
	}
	out := make([]model.Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, model.Page{
			Label:  pageDisplayLabel(p),
			Errors: s.errors(p.Errors),
		})
	}
	return out
}

func (s sanitizer) errors(errs []wireError) []model.PageError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]model.PageError, 0, len(errs))
	for _, e := range errs {
		out = append(out, model.PageError{
			Message: s.text(e.Message),
			Field:   s.text(e.Field),
		})
	}
	return out
}

// pageDisplayLabel applies the display fallback chain: explicit label → raw
// name → empty string.
func pageDisplayLabel(p wirePage) string {
	if label := strings.TrimSpace(p.PageLabel); label != "" {
		return label
	}
	return strings.TrimSpace(p.PageName)
}

// decodeSectionResult normalizes a per-section check payload. The top-level
// error flag is OR-ed with page-level errors because some payloads omit the
// flag while still carrying errors.
func decodeSectionResult(raw []byte, s sanitizer) (model.ValidationResult, error) {
	var wire wireSectionResult
	if err := json.Unmarshal(raw, &wire); err != nil {
		return model.ValidationResult{}, fmt.Errorf("validation: decode section result: %w", err)
	}

	result := model.ValidationResult{
		Success: wire.Success.Bool(),
		Message: s.text(wire.Message),
	}
	if !result.Success {
		return result, nil
	}

	result.Pages = s.pages(wire.Pages)
	result.HasErrors = wire.HasErrors.Bool() || anyWirePageErrors(result.Pages)
	return result, nil
}

// formOutcomeSections normalizes the master payload's section entries,
// deduplicating by canonical key.
func formOutcomeSections(wire wireFormResult, s sanitizer) []model.SectionResult {
	var out []model.SectionResult
	for _, sec := range wire.Sections {
		key := formkey.FromServerSection(sec.CustomLabel, sec.SectionName, sec.Label)
		if key.IsZero() {
			continue
		}
		pages := s.pages(sec.Pages)
		hasErrors := anyWirePageErrors(pages)
		if sec.HasErrors != nil && sec.HasErrors.Bool() {
			hasErrors = true
		}
		if sec.IsValid != nil && !sec.IsValid.Bool() {
			hasErrors = true
		}
		entry := model.SectionResult{
			Key:       key.Canonical(),
			HasErrors: hasErrors,
			IsValid:   !hasErrors,
		}
		if hasErrors {
			entry.Pages = pages
		}
		out = upsertOutcomeSection(out, entry)
	}
	return out
}

func upsertOutcomeSection(list []model.SectionResult, entry model.SectionResult) []model.SectionResult {
	for i, existing := range list {
		if formkey.Equal(existing.Key, entry.Key) {
			list[i] = entry
			return list
		}
	}
	return append(list, entry)
}

func decodeFormResult(raw []byte) (wireFormResult, error) {
	var wire wireFormResult
	if err := json.Unmarshal(raw, &wire); err != nil {
		return wireFormResult{}, fmt.Errorf("validation: decode form result: %w", err)
	}
	return wire, nil
}

func decodePageResult(raw []byte, pageName string, s sanitizer) (model.ValidationResult, error) {
	var wire wirePageResult
	if err := json.Unmarshal(raw, &wire); err != nil {
		return model.ValidationResult{}, fmt.Errorf("validation: decode page result: %w", err)
	}

	result := model.ValidationResult{Success: wire.Success.Bool()}
	if !result.Success {
		return result, nil
	}

	errs := s.errors(wire.Errors)
	result.HasErrors = wire.HasValidationErrors.Bool() || len(errs) > 0
	if result.HasErrors {
		result.Pages = []model.Page{{Label: strings.TrimSpace(pageName), Errors: errs}}
	}
	return result, nil
}

// decodeDefinition builds a validated FormDefinition from the fetch payload.
// Section identity is fixed here, once: customLabel preferred, label
// otherwise.
func decodeDefinition(raw []byte, s sanitizer) (model.FormDefinition, error) {
	var wire wireDefinition
	if err := json.Unmarshal(raw, &wire); err != nil {
		return model.FormDefinition{}, fmt.Errorf("validation: decode form definition: %w", err)
	}
	if !wire.Success.Bool() {
		msg := s.text(wire.Message)
		if msg == "" {
			msg = "form definition fetch was rejected"
		}
		return model.FormDefinition{}, fmt.Errorf("validation: fetch form definition: %s", msg)
	}

	sections := make([]model.Section, 0, len(wire.Sections))
	for _, sec := range wire.Sections {
		sections = append(sections, model.Section{
			ID:                       sec.ID,
			Key:                      formkey.FromUISection(sec.CustomLabel, sec.Label, ""),
			DisplayLabel:             s.text(sec.Label),
			FlowReference:            sec.Flow,
			HasConfiguredValidations: sec.HasConfiguredValidations.Bool(),
		})
	}

	def, err := model.NewFormDefinition(wire.FormDeveloperName, wire.MasterObject, sections)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("validation: form definition: %w", err)
	}
	return def, nil
}

func anyWirePageErrors(pages []model.Page) bool {
	for _, p := range pages {
		if !p.Clean() {
			return true
		}
	}
	return false
}
