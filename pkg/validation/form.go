package validation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/formflow/pkg/formkey"
	"github.com/goliatone/formflow/pkg/model"
	"github.com/goliatone/formflow/pkg/session"
	"github.com/goliatone/formflow/pkg/store"
)

// FormOutcome is the authoritative result of a whole-form check.
type FormOutcome struct {
	IsValid   bool
	HasErrors bool
	Message   string
	Sections  []model.SectionResult
}

// FormClient runs the master validation for a record's entire form and
// commits the resulting snapshot to the shared store. The commit is all or
// nothing: a failed run writes no partial snapshot.
type FormClient struct {
	service Service
	cfg     clientConfig
}

// NewFormClient constructs a client around the remote service.
func NewFormClient(service Service, options ...ClientOption) *FormClient {
	return &FormClient{
		service: service,
		cfg:     newClientConfig(options),
	}
}

// Validate runs the master check. On success it replaces the record's master
// snapshot, stamps the completion marker, raises the one-shot trigger the
// navigation controller reacts to, and scrubs any legacy-store entry for the
// record. Sections the server silently omitted are committed as clean
// placeholder entries, so local bookkeeping treats them as validated rather
// than unknown. Excluded sections are left out entirely.
func (c *FormClient) Validate(ctx context.Context, sess *session.Session, def model.FormDefinition, excludedKeys []string) (FormOutcome, error) {
	if sess == nil {
		return FormOutcome{}, fmt.Errorf("validation: session is required")
	}

	sess.Store.Upsert(sess.RecordID, store.Patch{MasterInFlight: store.BoolPtr(true)})
	defer sess.Store.Upsert(sess.RecordID, store.Patch{MasterInFlight: store.BoolPtr(false)})

	raw, err := c.service.ValidateForm(ctx, FormRequest{
		RecordID:             sess.RecordID,
		PrimaryObjectAPIName: sess.ParentObjectAPIName,
		FormAPIName:          sess.FormName,
		SectionsToNotDisplay: excludedKeys,
	})
	if err != nil {
		return FormOutcome{}, c.fail(sess, fmt.Errorf("validation: validate form: %w", err))
	}

	wire, err := decodeFormResult(raw)
	if err != nil {
		return FormOutcome{}, c.fail(sess, err)
	}
	if !wire.Success.Bool() {
		msg := c.cfg.sanitize.text(wire.Message)
		if msg == "" {
			msg = "the form validation service reported a failure"
		}
		return FormOutcome{}, c.fail(sess, fmt.Errorf("validation: validate form: %s", msg))
	}

	sections := formOutcomeSections(wire, c.cfg.sanitize)
	sections = appendCleanPlaceholders(sections, def, excludedKeys)

	hasErrors := wire.HasErrors.Bool()
	for _, s := range sections {
		if s.HasErrors {
			hasErrors = true
			break
		}
	}

	sess.Store.CommitMaster(sess.RecordID, sections)
	sess.Store.MarkMasterValidated(sess.RecordID)
	sess.Store.PurgeLegacy(sess.RecordID)

	return FormOutcome{
		IsValid:   wire.IsValid.Bool() && !hasErrors,
		HasErrors: hasErrors,
		Message:   c.cfg.sanitize.text(wire.Message),
		Sections:  sections,
	}, nil
}

// appendCleanPlaceholders adds a zero-error entry for every locally known
// section absent from the server payload, excluding sections the caller asked
// the server to skip.
func appendCleanPlaceholders(sections []model.SectionResult, def model.FormDefinition, excludedKeys []string) []model.SectionResult {
	for _, known := range def.Sections {
		if containsKey(excludedKeys, known.Key) {
			continue
		}
		present := false
		for _, s := range sections {
			if known.Key.Matches(s.Key) {
				present = true
				break
			}
		}
		if !present {
			sections = append(sections, model.SectionResult{
				Key:     known.Key.Canonical(),
				IsValid: true,
			})
		}
	}
	return sections
}

func containsKey(keys []string, key formkey.Key) bool {
	for _, k := range keys {
		if key.Matches(k) {
			return true
		}
	}
	return false
}

func (c *FormClient) fail(sess *session.Session, err error) error {
	c.cfg.logger.Warn("form validation failed",
		zap.String("recordId", sess.RecordID),
		zap.String("form", sess.FormName),
		zap.Error(err))
	c.cfg.notifier.Notify(Notification{
		Title:   "Form validation failed",
		Message: "The form could not be validated. Please try again.",
		Variant: VariantError,
	})
	return err
}
