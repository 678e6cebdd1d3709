package validation

import (
	"context"

	"go.uber.org/zap"

	"github.com/goliatone/formflow/pkg/model"
	"github.com/goliatone/formflow/pkg/session"
)

// PageClient runs the page-scoped remote check used by standalone page
// indicators. It carries no store side effects; the caller owns display
// state.
type PageClient struct {
	service Service
	cfg     clientConfig
}

// NewPageClient constructs a client around the remote service.
func NewPageClient(service Service, options ...ClientOption) *PageClient {
	return &PageClient{
		service: service,
		cfg:     newClientConfig(options),
	}
}

// Validate checks one page. Failures fail open to "no errors" plus a single
// notification, like the section client.
func (c *PageClient) Validate(ctx context.Context, sess *session.Session, pageName string) model.ValidationResult {
	if sess == nil || pageName == "" {
		return model.ValidationResult{}
	}

	raw, err := c.service.ValidatePage(ctx, PageRequest{
		RecordID:            sess.RecordID,
		FormName:            sess.FormName,
		ParentObjectAPIName: sess.ParentObjectAPIName,
		PageName:            pageName,
	})
	if err != nil {
		return c.failOpen(sess, pageName, err)
	}

	result, err := decodePageResult(raw, pageName, c.cfg.sanitize)
	if err != nil {
		return c.failOpen(sess, pageName, err)
	}
	return result
}

func (c *PageClient) failOpen(sess *session.Session, pageName string, err error) model.ValidationResult {
	c.cfg.logger.Warn("page validation failed",
		zap.String("recordId", sess.RecordID),
		zap.String("page", pageName),
		zap.Error(err))
	c.cfg.notifier.Notify(Notification{
		Title:   "Page validation failed",
		Message: "The page could not be checked.",
		Variant: VariantError,
	})
	return model.ValidationResult{Success: false}
}
