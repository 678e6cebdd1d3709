package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

// FixtureService is a Service backed by canned payload files, for tests and
// offline demos. Each operation resolves to a file named after it
// (validateSection, validateForm, validatePage, getForm) with a .json, .yaml,
// or .yml extension. YAML fixtures are converted to JSON before they are
// returned, so clients see exactly what a live transport would produce.
type FixtureService struct {
	fsys fs.FS
}

// NewFixtureService wraps the provided filesystem.
func NewFixtureService(fsys fs.FS) *FixtureService {
	return &FixtureService{fsys: fsys}
}

var _ Service = (*FixtureService)(nil)

// ValidateSection returns the validateSection fixture.
func (s *FixtureService) ValidateSection(_ context.Context, _ SectionRequest) ([]byte, error) {
	return s.respond("validateSection")
}

// ValidateForm returns the validateForm fixture.
func (s *FixtureService) ValidateForm(_ context.Context, _ FormRequest) ([]byte, error) {
	return s.respond("validateForm")
}

// ValidatePage returns the validatePage fixture.
func (s *FixtureService) ValidatePage(_ context.Context, _ PageRequest) ([]byte, error) {
	return s.respond("validatePage")
}

// FetchForm returns the getForm fixture.
func (s *FixtureService) FetchForm(_ context.Context, _ FetchRequest) ([]byte, error) {
	return s.respond("getForm")
}

func (s *FixtureService) respond(operation string) ([]byte, error) {
	if s.fsys == nil {
		return nil, fmt.Errorf("validation: fixture service has no filesystem")
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		raw, err := fs.ReadFile(s.fsys, operation+ext)
		if err != nil {
			continue
		}
		if ext == ".json" {
			return raw, nil
		}
		converted, err := yamlFixtureToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("validation: fixture %s%s: %w", operation, ext, err)
		}
		return converted, nil
	}
	return nil, fmt.Errorf("validation: no fixture for operation %q", operation)
}

func yamlFixtureToJSON(raw []byte) ([]byte, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, fmt.Errorf("fixture file is empty")
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return out, nil
}
