package model

import "time"

// ValidationResult is the normalized outcome of a remote check. Success
// reports whether the check itself ran; HasErrors reports what it found.
type ValidationResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	HasErrors bool   `json:"hasErrors"`
	Pages     []Page `json:"pages,omitempty"`
}

// SectionResult is one master-snapshot entry, keyed by canonical section key.
type SectionResult struct {
	Key       string `json:"customLabel"`
	Pages     []Page `json:"pages,omitempty"`
	HasErrors bool   `json:"hasErrors"`
	IsValid   bool   `json:"isValid"`
}

// LiveSnapshot is the most recent per-section live check result. Snapshots
// are overwritten wholesale on every check, never merged field by field.
type LiveSnapshot struct {
	HasErrors bool      `json:"hasErrors"`
	Pages     []Page    `json:"pages,omitempty"`
	At        time.Time `json:"ts"`
}

// RecordState is the unit of the shared store: everything the coordination
// protocol tracks for one record's open form session.
type RecordState struct {
	RecordID            string `json:"recordId"`
	FormName            string `json:"formName"`
	ParentObjectAPIName string `json:"parentObjectAPIName,omitempty"`

	CurrentSectionKey string `json:"currentSectionKey,omitempty"`

	LiveValidation             bool `json:"liveValidation"`
	ShowSectionValidationPanel bool `json:"showSectionValidationPanel"`

	// SuppressLiveValidation flips to true once a master validation has
	// completed; live snapshots are ignored for display from then on.
	SuppressLiveValidation bool       `json:"suppressLiveValidation"`
	MasterValidatedAt      *time.Time `json:"masterValidatedAt,omitempty"`

	// IsMasterValidation is the one-shot trigger the navigation controller
	// consumes and acknowledges.
	IsMasterValidation bool `json:"isMasterValidation"`

	// MasterInFlight marks a full-form validation currently running, so
	// navigation skips dispatching overlapping single-section checks.
	MasterInFlight bool `json:"masterInFlight,omitempty"`

	// MasterGeneration increments on every committed master snapshot.
	// Single-section upserts carry the generation they observed and are
	// rejected when the snapshot has moved on underneath them.
	MasterGeneration int `json:"masterGeneration"`

	Sections           []SectionResult         `json:"sections,omitempty"`
	PartialValidations map[string]LiveSnapshot `json:"partialValidations,omitempty"`
}

// Clone returns a deep copy so store readers can never alias shared state.
func (s *RecordState) Clone() *RecordState {
	if s == nil {
		return nil
	}
	out := *s
	if s.MasterValidatedAt != nil {
		at := *s.MasterValidatedAt
		out.MasterValidatedAt = &at
	}
	if s.Sections != nil {
		out.Sections = make([]SectionResult, len(s.Sections))
		for i, sec := range s.Sections {
			out.Sections[i] = sec
			out.Sections[i].Pages = clonePages(sec.Pages)
		}
	}
	if s.PartialValidations != nil {
		out.PartialValidations = make(map[string]LiveSnapshot, len(s.PartialValidations))
		for k, v := range s.PartialValidations {
			cloned := v
			cloned.Pages = clonePages(v.Pages)
			out.PartialValidations[k] = cloned
		}
	}
	return &out
}

func clonePages(pages []Page) []Page {
	if pages == nil {
		return nil
	}
	out := make([]Page, len(pages))
	for i, p := range pages {
		out[i] = p
		if p.Errors != nil {
			out[i].Errors = append([]PageError(nil), p.Errors...)
		}
	}
	return out
}
