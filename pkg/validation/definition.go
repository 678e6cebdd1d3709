package validation

import (
	"context"
	"fmt"

	"github.com/goliatone/formflow/pkg/model"
)

// LoadDefinition fetches and decodes a form definition. Unlike the check
// clients this does not fail open: a form that cannot be loaded has nothing
// to render, so the error propagates to the caller.
func LoadDefinition(ctx context.Context, service Service, req FetchRequest, options ...ClientOption) (model.FormDefinition, error) {
	cfg := newClientConfig(options)

	raw, err := service.FetchForm(ctx, req)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("validation: fetch form %q: %w", req.FormAPIName, err)
	}

	return decodeDefinition(raw, cfg.sanitize)
}
