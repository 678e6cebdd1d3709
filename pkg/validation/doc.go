// Package validation talks to the remote form-validation service and
// normalizes its loosely shaped payloads into the formflow domain model. It
// provides the two-tier checking clients (fast per-section "live" checks run
// during navigation and the authoritative whole-form "master" check) plus
// the page-scoped check used by standalone page indicators. Remote failures
// never propagate as errors into display state: every failure degrades to a
// "no errors" result and a user-visible notification.
package validation
