// Package panel renders the inline validation summary shown beside a
// section. The presenter is stateful across renders so the open/closed
// disclosure behaves like a user-controlled toggle: fixing the last error
// may collapse the panel, but new errors never force it open.
package panel

import (
	"github.com/goliatone/formflow/pkg/model"
)

// Option customises a presenter.
type Option func(*Presenter)

// WithDefaultOpen sets the initial disclosure state.
func WithDefaultOpen(open bool) Option {
	return func(p *Presenter) {
		p.open = open
	}
}

// WithAutoCollapseOnFix collapses the panel when the error state transitions
// from errors to none. Transitions in any other direction leave the
// disclosure untouched.
func WithAutoCollapseOnFix(enabled bool) Option {
	return func(p *Presenter) {
		p.autoCollapse = enabled
	}
}

// Input is the validation state the panel renders from. MasterHasErrors is a
// pointer: a non-nil value means an authoritative master result exists for
// the section, and the live fields are ignored entirely.
type Input struct {
	LiveHasErrors   bool
	LivePages       []model.Page
	MasterHasErrors *bool
	MasterPages     []model.Page
}

// View is one rendered panel state.
type View struct {
	HasErrors   bool
	Pages       []model.Page
	Open        bool
	UsingMaster bool
}

// Presenter tracks disclosure state across renders for one section's panel.
type Presenter struct {
	open         bool
	autoCollapse bool
	lastErrors   bool
	rendered     bool
}

// New builds a presenter.
func New(options ...Option) *Presenter {
	p := &Presenter{}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Render computes the panel view for the given state. Pages that carry the
// placeholder label for unconfigured forms are dropped before display.
func (p *Presenter) Render(in Input) View {
	hasErrors := in.LiveHasErrors
	pages := in.LivePages
	usingMaster := false
	if in.MasterHasErrors != nil {
		hasErrors = *in.MasterHasErrors
		pages = in.MasterPages
		usingMaster = true
	}

	if p.rendered && p.autoCollapse && p.lastErrors && !hasErrors {
		p.open = false
	}
	p.lastErrors = hasErrors
	p.rendered = true

	return View{
		HasErrors:   hasErrors,
		Pages:       renderablePages(pages),
		Open:        p.open,
		UsingMaster: usingMaster,
	}
}

// SetOpen applies a user toggle of the disclosure.
func (p *Presenter) SetOpen(open bool) {
	p.open = open
}

func renderablePages(pages []model.Page) []model.Page {
	out := make([]model.Page, 0, len(pages))
	for _, page := range pages {
		if page.Renderable() {
			out = append(out, page)
		}
	}
	return out
}
