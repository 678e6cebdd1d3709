package store

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/formflow/pkg/model"
)

// MemoryOption customises an in-memory store.
type MemoryOption func(*Memory)

// WithMemoryClock injects the time source used for snapshot timestamps.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// Memory is the in-process store implementation. All updates are last-write-
// wins at the granularity of one record entry; the helper mutators limit the
// blast radius to the nested key being changed. Subscribers receive events on
// a buffered channel; a slow subscriber drops events and reconciles from a
// full read, so writers never block.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*model.RecordState
	subs    map[int]*subscriber
	nextSub int
	closed  bool
	clock   func() time.Time
}

type subscriber struct {
	recordID string
	ch       chan Event
}

// NewMemory constructs an empty in-memory store.
func NewMemory(options ...MemoryOption) *Memory {
	m := &Memory{
		records: make(map[string]*model.RecordState),
		subs:    make(map[int]*subscriber),
		clock:   time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

var _ Store = (*Memory)(nil)

// All returns a deep copy of every record entry.
func (m *Memory) All() map[string]*model.RecordState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRecords(m.records)
}

// SetAll replaces the entire store contents.
func (m *Memory) SetAll(records map[string]*model.RecordState) {
	m.mu.Lock()
	m.records = cloneRecords(records)
	if m.records == nil {
		m.records = make(map[string]*model.RecordState)
	}
	m.mu.Unlock()
	m.publish(Event{Kind: EventUpdated})
}

// Record returns a deep copy of one record's state, or nil when absent.
func (m *Memory) Record(recordID string) *model.RecordState {
	if recordID == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[recordID].Clone()
}

// Upsert shallow-merges patch into the record entry.
func (m *Memory) Upsert(recordID string, patch Patch) {
	if recordID == "" {
		return
	}
	m.mu.Lock()
	m.records[recordID] = applyPatch(m.records[recordID], recordID, patch)
	m.mu.Unlock()
	m.publish(Event{Kind: EventUpdated, RecordID: recordID})
}

// AckMasterTrigger clears the one-shot trigger flag if the entry exists.
func (m *Memory) AckMasterTrigger(recordID string) {
	m.mu.Lock()
	state, ok := m.records[recordID]
	if ok {
		state.IsMasterValidation = false
	}
	m.mu.Unlock()
	if ok {
		m.publish(Event{Kind: EventUpdated, RecordID: recordID})
	}
}

// MarkMasterValidated stamps the master completion marker for the record.
func (m *Memory) MarkMasterValidated(recordID string) {
	if recordID == "" {
		return
	}
	now := m.clock()
	m.mu.Lock()
	state := applyPatch(m.records[recordID], recordID, Patch{SuppressLiveValidation: boolPtr(true)})
	state.MasterValidatedAt = &now
	m.records[recordID] = state
	m.mu.Unlock()
	m.publish(Event{Kind: EventUpdated, RecordID: recordID})
}

// SetLiveSnapshot overwrites the live snapshot for one section key.
func (m *Memory) SetLiveSnapshot(recordID, sectionKey string, pages []model.Page, hasErrors bool) {
	if recordID == "" || sectionKey == "" {
		return
	}
	m.mu.Lock()
	state := applyPatch(m.records[recordID], recordID, Patch{})
	setLive(state, sectionKey, pages, hasErrors, m.clock())
	m.records[recordID] = state
	m.mu.Unlock()
	m.publish(Event{Kind: EventUpdated, RecordID: recordID})
}

// UpsertMasterSection replaces or appends one master snapshot entry.
func (m *Memory) UpsertMasterSection(recordID, sectionKey string, pages []model.Page, hasErrors bool, expectedGeneration int) error {
	if recordID == "" || sectionKey == "" {
		return nil
	}
	m.mu.Lock()
	state := applyPatch(m.records[recordID], recordID, Patch{})
	if state.MasterGeneration != expectedGeneration {
		m.mu.Unlock()
		return ErrStaleSnapshot
	}
	state.Sections = upsertSectionResult(state.Sections, masterEntry(sectionKey, pages, hasErrors))
	m.records[recordID] = state
	m.mu.Unlock()
	m.publish(Event{Kind: EventUpdated, RecordID: recordID})
	return nil
}

// CommitMaster replaces the full master snapshot and raises the trigger.
func (m *Memory) CommitMaster(recordID string, sections []model.SectionResult) {
	if recordID == "" {
		return
	}
	m.mu.Lock()
	state := applyPatch(m.records[recordID], recordID, Patch{})
	state.Sections = append([]model.SectionResult(nil), sections...)
	state.IsMasterValidation = true
	state.MasterGeneration++
	m.records[recordID] = state
	m.mu.Unlock()
	m.publish(Event{Kind: EventMasterValidated, RecordID: recordID})
}

// PurgeLegacy is a no-op: the in-memory store has no legacy representation.
func (m *Memory) PurgeLegacy(string) {}

// Watch subscribes to change events for the record. The returned channel
// closes when ctx is cancelled or the store is closed.
func (m *Memory) Watch(ctx context.Context, recordID string) <-chan Event {
	sub := &subscriber{recordID: recordID, ch: make(chan Event, 16)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		closed := make(chan Event)
		close(closed)
		return closed
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = sub
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub.ch)
		}
		m.mu.Unlock()
	}()

	return sub.ch
}

// Close closes every subscriber channel.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for id, sub := range m.subs {
		delete(m.subs, id)
		close(sub.ch)
	}
	return nil
}

func (m *Memory) publish(ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.subs {
		if sub.recordID != "" && ev.RecordID != "" && sub.recordID != ev.RecordID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Subscriber is behind; it reconciles from a full read.
		}
	}
}

func cloneRecords(records map[string]*model.RecordState) map[string]*model.RecordState {
	if records == nil {
		return nil
	}
	out := make(map[string]*model.RecordState, len(records))
	for k, v := range records {
		out[k] = v.Clone()
	}
	return out
}
