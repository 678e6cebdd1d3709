package validation

import "context"

// SectionRequest identifies one section of one record's form for a live
// check.
type SectionRequest struct {
	RecordID            string `json:"recordId"`
	FormName            string `json:"formName"`
	ParentObjectAPIName string `json:"parentObjectAPIName"`
	SectionName         string `json:"sectionName"`
}

// FormRequest asks for the authoritative whole-form check.
type FormRequest struct {
	RecordID             string   `json:"recordId"`
	PrimaryObjectAPIName string   `json:"primaryObjectAPIName"`
	FormAPIName          string   `json:"formAPIName"`
	SectionsToNotDisplay []string `json:"sectionsToNotDisplay,omitempty"`
}

// PageRequest identifies one page of one record's form.
type PageRequest struct {
	RecordID            string `json:"recordId"`
	FormName            string `json:"formName"`
	ParentObjectAPIName string `json:"parentObjectAPIName"`
	PageName            string `json:"pageName"`
}

// FetchRequest asks for a form definition.
type FetchRequest struct {
	FormAPIName       string   `json:"formAPIName"`
	SectionsToExclude []string `json:"sectionsToExclude,omitempty"`
}

// Service is the remote validation backend. Implementations return the raw
// JSON payload; normalization and failure policy live in the clients so every
// transport shares them.
type Service interface {
	ValidateSection(ctx context.Context, req SectionRequest) ([]byte, error)
	ValidateForm(ctx context.Context, req FormRequest) ([]byte, error)
	ValidatePage(ctx context.Context, req PageRequest) ([]byte, error)
	FetchForm(ctx context.Context, req FetchRequest) ([]byte, error)
}
