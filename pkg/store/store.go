// Package store provides the record-scoped shared state the formflow
// components coordinate through. The original system abused serialized
// session storage as a back-channel between sibling widgets; here the store
// is an explicit observable abstraction: mutations are scoped to one record
// entry, and interested components subscribe to change events instead of
// deserializing blobs on a timer. A file-backed implementation keeps the
// persisted layout (record-keyed map plus a legacy array shape that is
// migrated opportunistically on read) for sessions that survive restarts.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/formflow/pkg/formkey"
	"github.com/goliatone/formflow/pkg/model"
)

// ErrStaleSnapshot is returned when a single-section master upsert observed a
// generation that has since been replaced by a newer full-form snapshot. The
// stale write is discarded rather than clobbering fresh master results.
var ErrStaleSnapshot = errors.New("store: stale master snapshot write")

// EventKind labels a store notification.
type EventKind string

const (
	// EventUpdated signals any mutation of a record entry.
	EventUpdated EventKind = "updated"
	// EventMasterValidated signals a committed full-form master snapshot.
	EventMasterValidated EventKind = "master-validated"
)

// Event notifies subscribers of a store change. RecordID may be empty when an
// external writer changed the backing storage and the affected records are
// unknown; subscribers should re-read their own entry.
type Event struct {
	Kind     EventKind
	RecordID string
}

// Patch is a shallow merge applied to one record entry. Nil fields leave the
// stored value untouched. The record identifier is always re-stamped on the
// merged result.
type Patch struct {
	FormName                   *string
	ParentObjectAPIName        *string
	CurrentSectionKey          *string
	LiveValidation             *bool
	ShowSectionValidationPanel *bool
	SuppressLiveValidation     *bool
	MasterInFlight             *bool
	EnsurePartials             bool
}

// Store is the shared mutable resource written by the navigation controller,
// the master-validation client, and the per-section clients. Reads fail soft:
// absent or corrupt state yields nil, never an error.
type Store interface {
	// All returns a deep copy of every record entry, or nil when the
	// underlying storage is absent or unreadable.
	All() map[string]*model.RecordState

	// SetAll replaces the entire store contents.
	SetAll(records map[string]*model.RecordState)

	// Record returns a deep copy of one record's state, or nil.
	Record(recordID string) *model.RecordState

	// Upsert shallow-merges patch into the record entry, creating it when
	// absent.
	Upsert(recordID string, patch Patch)

	// AckMasterTrigger clears the one-shot master-validation flag when the
	// record entry exists; it is a no-op otherwise.
	AckMasterTrigger(recordID string)

	// MarkMasterValidated stamps masterValidatedAt and suppresses live
	// validation display for the record.
	MarkMasterValidated(recordID string)

	// SetLiveSnapshot overwrites the live snapshot for one section key.
	SetLiveSnapshot(recordID, sectionKey string, pages []model.Page, hasErrors bool)

	// UpsertMasterSection replaces or appends one master snapshot entry,
	// matched by canonical key. The write is rejected with ErrStaleSnapshot
	// when the record's master generation no longer equals expectedGeneration.
	UpsertMasterSection(recordID, sectionKey string, pages []model.Page, hasErrors bool, expectedGeneration int) error

	// CommitMaster replaces the full master snapshot in one step: sections
	// list, generation bump, and the one-shot trigger flag.
	CommitMaster(recordID string, sections []model.SectionResult)

	// PurgeLegacy removes any legacy-representation entry for the record.
	// Implementations without a legacy representation treat this as a no-op.
	PurgeLegacy(recordID string)

	// Watch returns a channel of change events for the record (or all
	// records when recordID is empty). The channel closes when ctx is done.
	Watch(ctx context.Context, recordID string) <-chan Event

	// Close releases watcher resources and closes subscriber channels.
	Close() error
}

func boolPtr(v bool) *bool       { return &v }
func stringPtr(v string) *string { return &v }

// BoolPtr is a convenience for building patches.
func BoolPtr(v bool) *bool { return boolPtr(v) }

// StringPtr is a convenience for building patches.
func StringPtr(v string) *string { return stringPtr(v) }

// applyPatch merges patch into prev (which may be nil) and re-stamps the
// record id.
func applyPatch(prev *model.RecordState, recordID string, patch Patch) *model.RecordState {
	next := prev.Clone()
	if next == nil {
		next = &model.RecordState{}
	}
	next.RecordID = recordID
	if patch.FormName != nil {
		next.FormName = *patch.FormName
	}
	if patch.ParentObjectAPIName != nil {
		next.ParentObjectAPIName = *patch.ParentObjectAPIName
	}
	if patch.CurrentSectionKey != nil {
		next.CurrentSectionKey = *patch.CurrentSectionKey
	}
	if patch.LiveValidation != nil {
		next.LiveValidation = *patch.LiveValidation
	}
	if patch.ShowSectionValidationPanel != nil {
		next.ShowSectionValidationPanel = *patch.ShowSectionValidationPanel
	}
	if patch.SuppressLiveValidation != nil {
		next.SuppressLiveValidation = *patch.SuppressLiveValidation
	}
	if patch.MasterInFlight != nil {
		next.MasterInFlight = *patch.MasterInFlight
	}
	if patch.EnsurePartials && next.PartialValidations == nil {
		next.PartialValidations = make(map[string]model.LiveSnapshot)
	}
	return next
}

// upsertSectionResult replaces or appends entry into list, matching by
// canonical key so label drift cannot introduce duplicates.
func upsertSectionResult(list []model.SectionResult, entry model.SectionResult) []model.SectionResult {
	for i, existing := range list {
		if existing.Key != "" && formkey.Equal(existing.Key, entry.Key) {
			list[i] = entry
			return list
		}
	}
	return append(list, entry)
}

func setLive(state *model.RecordState, sectionKey string, pages []model.Page, hasErrors bool, now time.Time) {
	if state.PartialValidations == nil {
		state.PartialValidations = make(map[string]model.LiveSnapshot)
	}
	state.PartialValidations[sectionKey] = model.LiveSnapshot{
		HasErrors: hasErrors,
		Pages:     append([]model.Page(nil), pages...),
		At:        now,
	}
}

func masterEntry(sectionKey string, pages []model.Page, hasErrors bool) model.SectionResult {
	entry := model.SectionResult{
		Key:       sectionKey,
		HasErrors: hasErrors,
		IsValid:   !hasErrors,
	}
	if hasErrors {
		entry.Pages = append([]model.Page(nil), pages...)
	}
	return entry
}
