package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/goliatone/formflow/pkg/model"
)

// FileOption customises a file-backed store.
type FileOption func(*File)

// WithLegacyPath points the store at a legacy array-shaped file. Entries
// matching a requested record are migrated into the map shape and removed
// from the legacy file. Migration runs opportunistically on every read, not
// just once, because an older client may still be writing the legacy shape.
func WithLegacyPath(path string) FileOption {
	return func(f *File) {
		f.legacyPath = path
	}
}

// WithFileClock injects the time source used for snapshot timestamps.
func WithFileClock(clock func() time.Time) FileOption {
	return func(f *File) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// WithFileLogger attaches a logger for soft-failure diagnostics.
func WithFileLogger(logger *zap.Logger) FileOption {
	return func(f *File) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithChangeWatcher enables an fsnotify watcher on the backing file so writes
// by other processes surface as events without polling.
func WithChangeWatcher() FileOption {
	return func(f *File) {
		f.watchRequested = true
	}
}

// File is a Store backed by a JSON file holding the record-keyed map. Reads
// fail soft: a missing or corrupt file behaves as an empty store. Writers in
// other processes are observed either through the optional fsnotify watcher
// or by consumers that keep a reconciliation poll.
type File struct {
	mu             sync.Mutex
	path           string
	legacyPath     string
	clock          func() time.Time
	logger         *zap.Logger
	watchRequested bool
	watcher        *fsnotify.Watcher
	watcherDone    chan struct{}

	subMu   sync.RWMutex
	subs    map[int]*subscriber
	nextSub int
	closed  bool
}

// NewFile constructs a file-backed store rooted at path.
func NewFile(path string, options ...FileOption) (*File, error) {
	if path == "" {
		return nil, errors.New("store: file path is required")
	}
	f := &File{
		path:   path,
		clock:  time.Now,
		logger: zap.NewNop(),
		subs:   make(map[int]*subscriber),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create state dir: %w", err)
	}

	if f.watchRequested {
		if err := f.startWatcher(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

var _ Store = (*File)(nil)

// All returns every record entry, or nil when the file is absent or corrupt.
func (f *File) All() map[string]*model.RecordState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

// SetAll replaces the entire store contents.
func (f *File) SetAll(records map[string]*model.RecordState) {
	f.mu.Lock()
	f.save(records)
	f.mu.Unlock()
	f.publish(Event{Kind: EventUpdated})
}

// Record returns one record's state. Any legacy entry for the record is
// migrated into the map shape first.
func (f *File) Record(recordID string) *model.RecordState {
	if recordID == "" {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	records := f.load()
	if migrated := f.migrateLegacy(recordID, records); migrated != nil {
		records = migrated
	}
	if records == nil {
		return nil
	}
	return records[recordID].Clone()
}

// Upsert shallow-merges patch into the record entry.
func (f *File) Upsert(recordID string, patch Patch) {
	if recordID == "" {
		return
	}
	f.mutate(recordID, EventUpdated, func(state *model.RecordState) *model.RecordState {
		return applyPatch(state, recordID, patch)
	})
}

// AckMasterTrigger clears the one-shot trigger flag if the entry exists.
func (f *File) AckMasterTrigger(recordID string) {
	f.mu.Lock()
	records := f.load()
	state, ok := records[recordID]
	if ok {
		state.IsMasterValidation = false
		f.save(records)
	}
	f.mu.Unlock()
	if ok {
		f.publish(Event{Kind: EventUpdated, RecordID: recordID})
	}
}

// MarkMasterValidated stamps the master completion marker for the record.
func (f *File) MarkMasterValidated(recordID string) {
	if recordID == "" {
		return
	}
	now := f.clock()
	f.mutate(recordID, EventUpdated, func(state *model.RecordState) *model.RecordState {
		next := applyPatch(state, recordID, Patch{SuppressLiveValidation: boolPtr(true)})
		next.MasterValidatedAt = &now
		return next
	})
}

// SetLiveSnapshot overwrites the live snapshot for one section key.
func (f *File) SetLiveSnapshot(recordID, sectionKey string, pages []model.Page, hasErrors bool) {
	if recordID == "" || sectionKey == "" {
		return
	}
	f.mutate(recordID, EventUpdated, func(state *model.RecordState) *model.RecordState {
		next := applyPatch(state, recordID, Patch{})
		setLive(next, sectionKey, pages, hasErrors, f.clock())
		return next
	})
}

// UpsertMasterSection replaces or appends one master snapshot entry.
func (f *File) UpsertMasterSection(recordID, sectionKey string, pages []model.Page, hasErrors bool, expectedGeneration int) error {
	if recordID == "" || sectionKey == "" {
		return nil
	}
	var stale bool
	f.mutate(recordID, EventUpdated, func(state *model.RecordState) *model.RecordState {
		next := applyPatch(state, recordID, Patch{})
		if next.MasterGeneration != expectedGeneration {
			stale = true
			return nil
		}
		next.Sections = upsertSectionResult(next.Sections, masterEntry(sectionKey, pages, hasErrors))
		return next
	})
	if stale {
		return ErrStaleSnapshot
	}
	return nil
}

// CommitMaster replaces the full master snapshot and raises the trigger.
func (f *File) CommitMaster(recordID string, sections []model.SectionResult) {
	if recordID == "" {
		return
	}
	f.mutate(recordID, EventMasterValidated, func(state *model.RecordState) *model.RecordState {
		next := applyPatch(state, recordID, Patch{})
		next.Sections = append([]model.SectionResult(nil), sections...)
		next.IsMasterValidation = true
		next.MasterGeneration++
		return next
	})
}

// PurgeLegacy removes any legacy entry for the record.
func (f *File) PurgeLegacy(recordID string) {
	if recordID == "" || f.legacyPath == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLegacyEntry(recordID)
}

// Watch subscribes to change events for the record.
func (f *File) Watch(ctx context.Context, recordID string) <-chan Event {
	sub := &subscriber{recordID: recordID, ch: make(chan Event, 16)}

	f.subMu.Lock()
	if f.closed {
		f.subMu.Unlock()
		done := make(chan Event)
		close(done)
		return done
	}
	id := f.nextSub
	f.nextSub++
	f.subs[id] = sub
	f.subMu.Unlock()

	go func() {
		<-ctx.Done()
		f.subMu.Lock()
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub.ch)
		}
		f.subMu.Unlock()
	}()

	return sub.ch
}

// Close stops the fsnotify watcher and closes subscriber channels.
func (f *File) Close() error {
	f.subMu.Lock()
	if !f.closed {
		f.closed = true
		for id, sub := range f.subs {
			delete(f.subs, id)
			close(sub.ch)
		}
	}
	f.subMu.Unlock()

	if f.watcher != nil {
		err := f.watcher.Close()
		<-f.watcherDone
		return err
	}
	return nil
}

// mutate runs fn against the current entry under the lock, persists the
// result, and publishes kind. Returning nil from fn abandons the mutation.
func (f *File) mutate(recordID string, kind EventKind, fn func(*model.RecordState) *model.RecordState) {
	f.mu.Lock()
	records := f.load()
	if records == nil {
		records = make(map[string]*model.RecordState)
	}
	next := fn(records[recordID])
	if next == nil {
		f.mu.Unlock()
		return
	}
	records[recordID] = next
	f.save(records)
	f.mu.Unlock()
	f.publish(Event{Kind: kind, RecordID: recordID})
}

// load reads the map-shaped file. Corrupt or unreadable payloads fail soft to
// nil so a broken persisted blob can never take the form down.
func (f *File) load() map[string]*model.RecordState {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil
	}
	var records map[string]*model.RecordState
	if err := json.Unmarshal(raw, &records); err != nil {
		f.logger.Warn("store: unreadable state file, treating as empty",
			zap.String("path", f.path), zap.Error(err))
		return nil
	}
	return records
}

func (f *File) save(records map[string]*model.RecordState) {
	if records == nil {
		records = make(map[string]*model.RecordState)
	}
	raw, err := json.Marshal(records)
	if err != nil {
		f.logger.Warn("store: encode state failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(f.path, raw, 0o644); err != nil {
		f.logger.Warn("store: write state failed", zap.String("path", f.path), zap.Error(err))
	}
}

// migrateLegacy moves a legacy array entry for recordID into the map shape
// and rewrites both files. It returns the updated map when a migration
// happened, nil otherwise.
func (f *File) migrateLegacy(recordID string, records map[string]*model.RecordState) map[string]*model.RecordState {
	if f.legacyPath == "" {
		return nil
	}
	if records != nil {
		if _, exists := records[recordID]; exists {
			// The map entry wins; still scrub the legacy file.
			f.removeLegacyEntry(recordID)
			return nil
		}
	}

	legacy := f.loadLegacy()
	if len(legacy) == 0 {
		return nil
	}

	var found *model.RecordState
	remaining := legacy[:0]
	for _, entry := range legacy {
		if entry != nil && entry.RecordID == recordID && found == nil {
			found = entry
			continue
		}
		remaining = append(remaining, entry)
	}
	if found == nil {
		return nil
	}

	if records == nil {
		records = make(map[string]*model.RecordState)
	}
	records[recordID] = found
	f.save(records)
	f.saveLegacy(remaining)
	return records
}

func (f *File) loadLegacy() []*model.RecordState {
	raw, err := os.ReadFile(f.legacyPath)
	if err != nil {
		return nil
	}
	var entries []*model.RecordState
	if err := json.Unmarshal(raw, &entries); err != nil {
		f.logger.Warn("store: unreadable legacy file, ignoring",
			zap.String("path", f.legacyPath), zap.Error(err))
		return nil
	}
	return entries
}

func (f *File) saveLegacy(entries []*model.RecordState) {
	if len(entries) == 0 {
		if err := os.Remove(f.legacyPath); err != nil && !os.IsNotExist(err) {
			f.logger.Warn("store: remove legacy file failed", zap.Error(err))
		}
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		f.logger.Warn("store: encode legacy file failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(f.legacyPath, raw, 0o644); err != nil {
		f.logger.Warn("store: write legacy file failed", zap.Error(err))
	}
}

func (f *File) removeLegacyEntry(recordID string) {
	legacy := f.loadLegacy()
	if len(legacy) == 0 {
		return
	}
	remaining := legacy[:0]
	removed := false
	for _, entry := range legacy {
		if entry != nil && entry.RecordID == recordID {
			removed = true
			continue
		}
		remaining = append(remaining, entry)
	}
	if removed {
		f.saveLegacy(remaining)
	}
}

func (f *File) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("store: start watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("store: watch %s: %w", filepath.Dir(f.path), err)
	}
	f.watcher = watcher
	f.watcherDone = make(chan struct{})

	go func() {
		defer close(f.watcherDone)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != f.path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				// An external writer changed the file; which records moved
				// is unknown, so subscribers re-read their own entry.
				f.publish(Event{Kind: EventUpdated})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("store: watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (f *File) publish(ev Event) {
	f.subMu.RLock()
	defer f.subMu.RUnlock()
	for _, sub := range f.subs {
		if sub.recordID != "" && ev.RecordID != "" && sub.recordID != ev.RecordID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
