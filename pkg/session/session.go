// Package session carries the per-record form session context: record and
// form identity, feature flags, and the shared store handle, threaded
// explicitly through the components that need it. The source system resolved
// all of this through ambient record-keyed storage lookups; making the
// session an explicit value removes that hidden coupling.
package session

import (
	"errors"

	"github.com/google/uuid"

	"github.com/goliatone/formflow/pkg/model"
	"github.com/goliatone/formflow/pkg/store"
)

// Option customises a session.
type Option func(*Session)

// WithLanguage sets the language variable passed to hosted flows.
func WithLanguage(language string) Option {
	return func(s *Session) {
		s.Language = language
	}
}

// WithLiveValidation enables the fast per-section checks run during
// navigation, before the authoritative master check.
func WithLiveValidation(enabled bool) Option {
	return func(s *Session) {
		s.LiveValidation = enabled
	}
}

// WithSectionPanel marks the session as using the inline validation panel,
// which suppresses the sibling per-section indicators.
func WithSectionPanel(enabled bool) Option {
	return func(s *Session) {
		s.ShowSectionValidationPanel = enabled
	}
}

// WithID overrides the generated session identifier.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.ID = id
		}
	}
}

// Session is one record's open form session.
type Session struct {
	ID                  string
	RecordID            string
	FormName            string
	ParentObjectAPIName string
	Language            string

	LiveValidation             bool
	ShowSectionValidationPanel bool

	Store store.Store
}

// New validates the identifiers, applies options, and seeds the record's
// store entry with the session flags. Master and live state already present
// for the record is preserved, so re-opening a form mid-session does not lose
// previously computed results.
func New(recordID, formName, parentObjectAPIName string, st store.Store, options ...Option) (*Session, error) {
	if recordID == "" {
		return nil, errors.New("session: record id is required")
	}
	if formName == "" {
		return nil, errors.New("session: form name is required")
	}
	if st == nil {
		return nil, errors.New("session: store is required")
	}

	s := &Session{
		ID:                  uuid.NewString(),
		RecordID:            recordID,
		FormName:            formName,
		ParentObjectAPIName: parentObjectAPIName,
		Store:               st,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	st.Upsert(recordID, store.Patch{
		FormName:                   store.StringPtr(formName),
		ParentObjectAPIName:        store.StringPtr(parentObjectAPIName),
		LiveValidation:             store.BoolPtr(s.LiveValidation),
		ShowSectionValidationPanel: store.BoolPtr(s.ShowSectionValidationPanel),
		EnsurePartials:             true,
	})

	return s, nil
}

// State returns a copy of the record's current store entry, or nil.
func (s *Session) State() *model.RecordState {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.Record(s.RecordID)
}
