package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/formflow/pkg/formkey"
	"github.com/goliatone/formflow/pkg/model"
	"github.com/goliatone/formflow/pkg/session"
	"github.com/goliatone/formflow/pkg/store"
	"github.com/goliatone/formflow/pkg/validation"
	"github.com/goliatone/formflow/pkg/visibility"
)

// ErrUnresolvedTarget is returned when a navigation reference matches no
// section by id, key, or display label. The active section is left unchanged.
var ErrUnresolvedTarget = errors.New("navigator: navigation target does not resolve to a section")

// ErrNotLoaded is returned when the controller is used before Load.
var ErrNotLoaded = errors.New("navigator: controller is not loaded")

// Mode is the checking regime applied when a section is left.
type Mode int

const (
	// PreMaster runs only the lightweight live check, and only when the
	// session has live validation enabled.
	PreMaster Mode = iota
	// PostMaster runs the full single-section check and folds the result
	// into the master snapshot. Once entered the mode is never left.
	PostMaster
)

func (m Mode) String() string {
	if m == PostMaster {
		return "post-master"
	}
	return "pre-master"
}

// FlowVariable is an input handed to the hosted flow of the active section.
type FlowVariable struct {
	Name  string
	Type  string
	Value string
}

// SectionView is one entry of the navigation rail.
type SectionView struct {
	ID            string
	Key           string
	Label         string
	FlowReference string
	Active        bool
	HasErrors     bool
	Validated     bool
}

// Option customises a controller.
type Option func(*config)

type config struct {
	logger           *zap.Logger
	notifier         validation.Notifier
	defaultPage      int
	pollInterval     time.Duration
	clock            func() time.Time
	availableActions []string
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNotifier sets the user-facing notification sink.
func WithNotifier(n validation.Notifier) Option {
	return func(c *config) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithDefaultPage sets the 1-based section opened on load. Values outside
// the form's section range clamp to the nearest valid position.
func WithDefaultPage(n int) Option {
	return func(c *config) {
		c.defaultPage = n
	}
}

// WithPollInterval sets the reconciliation tick used alongside the store
// subscription. The default is 500ms.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithAvailableActions sets the host-provided action list consulted by
// RequestAdvance. Advancing is only offered when a "NEXT" action is present.
func WithAvailableActions(actions []string) Option {
	return func(c *config) {
		c.availableActions = actions
	}
}

func newConfig(options []Option) config {
	cfg := config{
		logger:       zap.NewNop(),
		notifier:     validation.NopNotifier(),
		defaultPage:  1,
		pollInterval: 500 * time.Millisecond,
		clock:        time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Controller drives section navigation for one session.
type Controller struct {
	sess     *session.Session
	service  validation.Service
	sections *validation.SectionClient
	cfg      config

	mu         sync.Mutex
	def        model.FormDefinition
	active     formkey.Key
	mode       Mode
	loading    bool
	loaded     bool
	indicators map[string]bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a controller for the session. Load must be called before any
// navigation.
func New(sess *session.Session, service validation.Service, options ...Option) (*Controller, error) {
	if sess == nil {
		return nil, errors.New("navigator: session is required")
	}
	if service == nil {
		return nil, errors.New("navigator: validation service is required")
	}
	cfg := newConfig(options)
	return &Controller{
		sess:       sess,
		service:    service,
		sections:   validation.NewSectionClient(service, validation.WithLogger(cfg.logger), validation.WithNotifier(cfg.notifier)),
		cfg:        cfg,
		indicators: map[string]bool{},
	}, nil
}

// Load fetches the form definition, restores any prior position and master
// state for the record, selects the initial section, and starts the watcher.
func (c *Controller) Load(ctx context.Context) error {
	def, err := validation.LoadDefinition(ctx, c.service, validation.FetchRequest{
		FormAPIName: c.sess.FormName,
	}, validation.WithLogger(c.cfg.logger))
	if err != nil {
		return fmt.Errorf("navigator: load form: %w", err)
	}
	if len(def.Sections) == 0 {
		return fmt.Errorf("navigator: form %q has no sections", def.Name)
	}

	c.mu.Lock()
	c.def = def
	c.active = c.initialSection(def)
	c.loaded = true
	c.mu.Unlock()

	c.sess.Store.Upsert(c.sess.RecordID, store.Patch{
		CurrentSectionKey: store.StringPtr(c.activeKey()),
	})

	// A completed master run from an earlier session is still authoritative.
	c.checkMasterTrigger()

	watchCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.watch(watchCtx)

	c.cfg.logger.Info("form loaded",
		zap.String("recordId", c.sess.RecordID),
		zap.String("form", def.Name),
		zap.Int("sections", len(def.Sections)),
		zap.String("activeSection", c.activeKey()))
	return nil
}

// initialSection restores the persisted position when one exists, otherwise
// applies the configured default page. Callers hold no lock; the definition
// passed in is the one about to be installed.
func (c *Controller) initialSection(def model.FormDefinition) formkey.Key {
	if state := c.sess.State(); state != nil && state.CurrentSectionKey != "" {
		if restored, ok := def.FindSection(state.CurrentSectionKey); ok {
			return restored.Key
		}
	}
	idx := c.cfg.defaultPage - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(def.Sections) {
		idx = len(def.Sections) - 1
	}
	return def.Sections[idx].Key
}

// ChangeSection moves the active pointer to the section identified by ref.
// The pointer and the persisted position update synchronously; revalidation
// of the section being left runs in the background.
func (c *Controller) ChangeSection(ctx context.Context, ref string) error {
	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	c.loading = true
	def := c.def
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	target, ok := def.FindSection(ref)
	if !ok {
		c.cfg.logger.Warn("navigation target unresolved",
			zap.String("recordId", c.sess.RecordID),
			zap.String("target", ref))
		c.cfg.notifier.Notify(validation.Notification{
			Title:   "Navigation failed",
			Message: "The requested section could not be found.",
			Variant: validation.VariantError,
		})
		return fmt.Errorf("%w: %q", ErrUnresolvedTarget, ref)
	}

	c.mu.Lock()
	outgoing := c.active
	mode := c.mode
	c.active = target.Key
	c.mu.Unlock()

	c.sess.Store.Upsert(c.sess.RecordID, store.Patch{
		CurrentSectionKey: store.StringPtr(target.Key.Canonical()),
	})

	if outgoing.IsZero() || outgoing.Equal(target.Key) {
		return nil
	}
	c.revalidate(ctx, outgoing, mode)
	return nil
}

// revalidate schedules the background check for a section being left.
// Nothing runs while a master validation is in flight; its snapshot will
// supersede anything a per-section check could produce.
func (c *Controller) revalidate(ctx context.Context, key formkey.Key, mode Mode) {
	state := c.sess.State()
	if state != nil && state.MasterInFlight {
		c.cfg.logger.Debug("skipping section check, master run in flight",
			zap.String("recordId", c.sess.RecordID),
			zap.String("section", key.Canonical()))
		return
	}

	if mode == PreMaster {
		if !c.sess.LiveValidation {
			return
		}
		if state != nil && state.SuppressLiveValidation {
			return
		}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		started := c.cfg.clock()
		if mode == PostMaster {
			c.sections.ValidatePostMaster(ctx, c.sess, key)
		} else {
			c.sections.Validate(ctx, c.sess, key)
		}
		c.cfg.logger.Debug("section check finished",
			zap.String("section", key.Canonical()),
			zap.String("mode", mode.String()),
			zap.Duration("took", c.cfg.clock().Sub(started)))
	}()
}

// FlowFinished advances to the next section when the active section's hosted
// flow completes. On the last section it is a no-op.
func (c *Controller) FlowFinished(ctx context.Context) error {
	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	next, ok := c.def.Next(c.active)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.ChangeSection(ctx, next.ID)
}

// RequestAdvance reports whether the host offers a forward action for the
// current flow context.
func (c *Controller) RequestAdvance() bool {
	for _, action := range c.cfg.availableActions {
		if strings.EqualFold(strings.TrimSpace(action), "NEXT") {
			return true
		}
	}
	return false
}

// ActiveSection returns the active section.
func (c *Controller) ActiveSection() (model.Section, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return model.Section{}, false
	}
	return c.def.FindSection(c.active.Canonical())
}

// Sections returns the navigation rail with indicator flags. Error flags are
// only reported once a master validation has completed.
func (c *Controller) Sections() []SectionView {
	c.mu.Lock()
	defer c.mu.Unlock()

	views := make([]SectionView, 0, len(c.def.Sections))
	for _, s := range c.def.Sections {
		views = append(views, SectionView{
			ID:            s.ID,
			Key:           s.Key.Canonical(),
			Label:         s.DisplayLabel,
			FlowReference: s.FlowReference,
			Active:        s.Key.Equal(c.active),
			HasErrors:     c.indicators[s.Key.Canonical()],
			Validated:     c.mode == PostMaster,
		})
	}
	return views
}

// FlowInput returns the variables handed to the active section's hosted
// flow.
func (c *Controller) FlowInput() []FlowVariable {
	vars := []FlowVariable{{Name: "recordId", Type: "String", Value: c.sess.RecordID}}
	if c.sess.Language != "" {
		vars = append(vars, FlowVariable{Name: "varLanguage", Type: "String", Value: c.sess.Language})
	}
	return vars
}

// Definition returns the loaded form definition.
func (c *Controller) Definition() model.FormDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.def
}

// MasterMode reports whether the controller has entered post-master
// checking.
func (c *Controller) MasterMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode == PostMaster
}

// Loading reports whether a navigation is being applied.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Close stops the watcher and waits for background checks to finish.
func (c *Controller) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}

func (c *Controller) activeKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active.Canonical()
}

// watch reacts to store change events and runs the reconciliation tick for
// writers outside the subscription.
func (c *Controller) watch(ctx context.Context) {
	defer c.wg.Done()

	events := c.sess.Store.Watch(ctx, c.sess.RecordID)
	ticker := time.NewTicker(c.cfg.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind == store.EventMasterValidated || ev.RecordID == "" {
				c.checkMasterTrigger()
			}
		case <-ticker.C:
			c.checkMasterTrigger()
		}
	}
}

// checkMasterTrigger consumes a pending master-completed marker: indicator
// flags are recomputed from the master snapshot, the controller flips to
// post-master mode, and the one-shot marker is acknowledged. A completion
// stamp left by an earlier session counts too, so a reloaded controller
// restores its indicators even though the trigger was already consumed. In
// post-master mode indicators are also refreshed so single-section fixes
// clear flags.
func (c *Controller) checkMasterTrigger() {
	state := c.sess.State()
	if state == nil {
		return
	}

	c.mu.Lock()
	triggered := state.IsMasterValidation
	completed := triggered || state.MasterValidatedAt != nil
	if !completed && c.mode != PostMaster {
		c.mu.Unlock()
		return
	}
	for _, s := range c.def.Sections {
		c.indicators[s.Key.Canonical()] = visibility.MasterSectionHasErrors(state, s.Key.Canonical())
	}
	c.mode = PostMaster
	c.mu.Unlock()

	if triggered {
		c.sess.Store.AckMasterTrigger(c.sess.RecordID)
		c.cfg.logger.Info("master validation observed",
			zap.String("recordId", c.sess.RecordID),
			zap.Int("generation", state.MasterGeneration))
	}
}
