package validation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/formflow/pkg/formkey"
	"github.com/goliatone/formflow/pkg/model"
	"github.com/goliatone/formflow/pkg/session"
	"github.com/goliatone/formflow/pkg/store"
	"github.com/goliatone/formflow/pkg/validation"
)

type stubService struct {
	section func(validation.SectionRequest) ([]byte, error)
	form    func(validation.FormRequest) ([]byte, error)
	page    func(validation.PageRequest) ([]byte, error)
	fetch   func(validation.FetchRequest) ([]byte, error)
}

func (s *stubService) ValidateSection(_ context.Context, req validation.SectionRequest) ([]byte, error) {
	return s.section(req)
}

func (s *stubService) ValidateForm(_ context.Context, req validation.FormRequest) ([]byte, error) {
	return s.form(req)
}

func (s *stubService) ValidatePage(_ context.Context, req validation.PageRequest) ([]byte, error) {
	return s.page(req)
}

func (s *stubService) FetchForm(_ context.Context, req validation.FetchRequest) ([]byte, error) {
	return s.fetch(req)
}

type recordingNotifier struct {
	notes []validation.Notification
}

func (n *recordingNotifier) Notify(note validation.Notification) {
	n.notes = append(n.notes, note)
}

func newSession(t *testing.T, st store.Store, options ...session.Option) *session.Session {
	t.Helper()
	sess, err := session.New("001", "Application", "Case", st, options...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return sess
}

func TestSectionClient_NormalizesPagesAndFlags(t *testing.T) {
	st := store.NewMemory()
	defer st.Close()
	sess := newSession(t, st, session.WithLiveValidation(true))

	// hasErrors omitted at top level, but a page carries errors: the OR must
	// still flag the section.
	svc := &stubService{section: func(req validation.SectionRequest) ([]byte, error) {
		if req.SectionName != "Eligibility" {
			t.Fatalf("unexpected section name %q", req.SectionName)
		}
		return []byte(`{
			"success": "true",
			"pages": [
				{"pageName": "Page 1", "errors": [{"message": "<b>Income</b> is required", "field": "Income"}]},
				{"pageLabel": "Page 2", "errors": []}
			]
		}`), nil
	}}

	client := validation.NewSectionClient(svc)
	result := client.Validate(context.Background(), sess, formkey.New("Eligibility"))

	if !result.Success || !result.HasErrors {
		t.Fatalf("unexpected result flags: %+v", result)
	}
	wantPages := []model.Page{
		{Label: "Page 1", Errors: []model.PageError{{Message: "Income is required", Field: "Income"}}},
		{Label: "Page 2"},
	}
	if diff := cmp.Diff(wantPages, result.Pages); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}

	snapshot := st.Record("001").PartialValidations["Eligibility"]
	if !snapshot.HasErrors || len(snapshot.Pages) != 2 {
		t.Fatalf("live snapshot not written: %+v", snapshot)
	}
}

func TestSectionClient_FailOpenOnTransportError(t *testing.T) {
	st := store.NewMemory()
	defer st.Close()
	sess := newSession(t, st, session.WithLiveValidation(true))
	st.SetLiveSnapshot("001", "Eligibility", []model.Page{{Label: "Page 1", Errors: []model.PageError{{Message: "old"}}}}, true)

	notifier := &recordingNotifier{}
	svc := &stubService{section: func(validation.SectionRequest) ([]byte, error) {
		return nil, errors.New("connection reset")
	}}

	client := validation.NewSectionClient(svc, validation.WithNotifier(notifier))
	result := client.Validate(context.Background(), sess, formkey.New("Eligibility"))

	if result.Success || result.HasErrors || len(result.Pages) != 0 {
		t.Fatalf("expected fail-open result, got %+v", result)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.notes))
	}
	if notifier.notes[0].Variant != validation.VariantError {
		t.Fatalf("expected error variant, got %q", notifier.notes[0].Variant)
	}

	snapshot := st.Record("001").PartialValidations["Eligibility"]
	if snapshot.HasErrors || len(snapshot.Pages) != 0 {
		t.Fatalf("stale errors must be replaced by a clean snapshot: %+v", snapshot)
	}
}

func TestSectionClient_FailOpenOnMalformedPayload(t *testing.T) {
	st := store.NewMemory()
	defer st.Close()
	sess := newSession(t, st)

	notifier := &recordingNotifier{}
	svc := &stubService{section: func(validation.SectionRequest) ([]byte, error) {
		return []byte("{nope"), nil
	}}

	client := validation.NewSectionClient(svc, validation.WithNotifier(notifier))
	result := client.Validate(context.Background(), sess, formkey.New("Eligibility"))

	if result.Success || result.HasErrors {
		t.Fatalf("expected fail-open result, got %+v", result)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.notes))
	}
}

func TestSectionClient_RemoteUnsuccessfulSuppressesWithoutToast(t *testing.T) {
	st := store.NewMemory()
	defer st.Close()
	sess := newSession(t, st)

	notifier := &recordingNotifier{}
	svc := &stubService{section: func(validation.SectionRequest) ([]byte, error) {
		return []byte(`{"success": false, "message": "rule engine unavailable"}`), nil
	}}

	client := validation.NewSectionClient(svc, validation.WithNotifier(notifier))
	result := client.Validate(context.Background(), sess, formkey.New("Eligibility"))

	if result.Success || result.HasErrors {
		t.Fatalf("expected suppressed result, got %+v", result)
	}
	if len(notifier.notes) != 0 {
		t.Fatalf("server-side unsuccessful checks do not toast: %+v", notifier.notes)
	}
	snapshot := st.Record("001").PartialValidations["Eligibility"]
	if snapshot.HasErrors {
		t.Fatalf("snapshot should be clean: %+v", snapshot)
	}
}

func TestSectionClient_PostMasterUpsertsMasterEntry(t *testing.T) {
	st := store.NewMemory()
	defer st.Close()
	sess := newSession(t, st)
	st.CommitMaster("001", []model.SectionResult{
		{Key: "Eligibility", HasErrors: true, Pages: []model.Page{{Label: "Page 1", Errors: []model.PageError{{Message: "old"}}}}},
	})

	svc := &stubService{section: func(validation.SectionRequest) ([]byte, error) {
		return []byte(`{"success": true, "hasErrors": false, "pages": []}`), nil
	}}

	client := validation.NewSectionClient(svc)
	client.ValidatePostMaster(context.Background(), sess, formkey.New("Eligibility"))

	sections := st.Record("001").Sections
	if len(sections) != 1 {
		t.Fatalf("expected single master entry, got %+v", sections)
	}
	if sections[0].HasErrors || !sections[0].IsValid {
		t.Fatalf("master entry not refreshed after fix: %+v", sections[0])
	}
}

func TestSectionClient_PostMasterStaleWriteDiscarded(t *testing.T) {
	st := store.NewMemory()
	defer st.Close()
	sess := newSession(t, st)

	// The remote call races a new full master commit: by the time the
	// single-section result lands, the generation has moved on.
	svc := &stubService{section: func(validation.SectionRequest) ([]byte, error) {
		st.CommitMaster("001", []model.SectionResult{{Key: "Eligibility", IsValid: true}})
		return []byte(`{"success": true, "hasErrors": true, "pages": [{"pageName": "Page 1", "errors": [{"message": "stale"}]}]}`), nil
	}}

	client := validation.NewSectionClient(svc)
	client.ValidatePostMaster(context.Background(), sess, formkey.New("Eligibility"))

	sections := st.Record("001").Sections
	if len(sections) != 1 || sections[0].HasErrors {
		t.Fatalf("stale single-section write must not clobber the fresh master snapshot: %+v", sections)
	}
}
