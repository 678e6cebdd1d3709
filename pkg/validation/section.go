package validation

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goliatone/formflow/pkg/formkey"
	"github.com/goliatone/formflow/pkg/model"
	"github.com/goliatone/formflow/pkg/session"
	"github.com/goliatone/formflow/pkg/store"
)

// SectionClient runs the fast per-section check and records its outcome in
// the shared store. Display state fails open: a check that could not run
// yields "no errors" rather than a stale or speculative error indicator.
type SectionClient struct {
	service Service
	cfg     clientConfig
}

// NewSectionClient constructs a client around the remote service.
func NewSectionClient(service Service, options ...ClientOption) *SectionClient {
	return &SectionClient{
		service: service,
		cfg:     newClientConfig(options),
	}
}

// Validate runs the live check for one section and overwrites the record's
// live snapshot with the outcome.
func (c *SectionClient) Validate(ctx context.Context, sess *session.Session, key formkey.Key) model.ValidationResult {
	return c.validate(ctx, sess, key, false)
}

// ValidatePostMaster runs the same check after a master validation has
// completed, additionally upserting the section's master snapshot entry so
// re-checking one section keeps the master view consistent without a full
// re-run. The upsert carries the master generation observed before the remote
// call; if a newer full snapshot lands while the check is in flight, the
// stale single-section write is discarded.
func (c *SectionClient) ValidatePostMaster(ctx context.Context, sess *session.Session, key formkey.Key) model.ValidationResult {
	return c.validate(ctx, sess, key, true)
}

func (c *SectionClient) validate(ctx context.Context, sess *session.Session, key formkey.Key, postMaster bool) model.ValidationResult {
	if sess == nil || key.IsZero() {
		return model.ValidationResult{}
	}

	generation := 0
	if state := sess.State(); state != nil {
		generation = state.MasterGeneration
	}

	raw, err := c.service.ValidateSection(ctx, SectionRequest{
		RecordID:            sess.RecordID,
		FormName:            sess.FormName,
		ParentObjectAPIName: sess.ParentObjectAPIName,
		SectionName:         key.Canonical(),
	})
	if err != nil {
		return c.failOpen(sess, key, err)
	}

	result, err := decodeSectionResult(raw, c.cfg.sanitize)
	if err != nil {
		return c.failOpen(sess, key, err)
	}
	if !result.Success {
		// The remote check itself failed server-side; suppress the indicator
		// rather than displaying a wrong error state.
		c.cfg.logger.Debug("section check unsuccessful, failing open",
			zap.String("recordId", sess.RecordID),
			zap.String("section", key.Canonical()),
			zap.String("message", result.Message))
		sess.Store.SetLiveSnapshot(sess.RecordID, key.Canonical(), nil, false)
		return model.ValidationResult{Success: false, Message: result.Message}
	}

	sess.Store.SetLiveSnapshot(sess.RecordID, key.Canonical(), result.Pages, result.HasErrors)

	if postMaster {
		err := sess.Store.UpsertMasterSection(sess.RecordID, key.Canonical(), result.Pages, result.HasErrors, generation)
		if errors.Is(err, store.ErrStaleSnapshot) {
			c.cfg.logger.Debug("discarding stale post-master section result",
				zap.String("recordId", sess.RecordID),
				zap.String("section", key.Canonical()),
				zap.Int("observedGeneration", generation))
		}
	}

	return result
}

// failOpen records a clean snapshot and notifies the user exactly once.
func (c *SectionClient) failOpen(sess *session.Session, key formkey.Key, err error) model.ValidationResult {
	c.cfg.logger.Warn("section validation failed",
		zap.String("recordId", sess.RecordID),
		zap.String("section", key.Canonical()),
		zap.Error(err))
	c.cfg.notifier.Notify(Notification{
		Title:   "Section validation failed",
		Message: "The section could not be checked. Previous results may be out of date.",
		Variant: VariantError,
	})
	sess.Store.SetLiveSnapshot(sess.RecordID, key.Canonical(), nil, false)
	return model.ValidationResult{Success: false}
}
