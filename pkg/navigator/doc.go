// Package navigator coordinates section navigation for an open form session.
// The controller owns the active-section pointer, runs background
// revalidation of the section being left, and reacts to completed master
// validations by refreshing per-section error indicators and switching to
// the stricter post-master checking mode. Master completion is observed
// through the store's event subscription; a coarse reconciliation tick
// covers writers that bypass the subscription, such as another process
// updating a shared file store.
package navigator
