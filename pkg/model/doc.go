// Package model holds the domain types shared by the formflow validation and
// navigation components: form definitions with canonically keyed sections,
// page-level validation results, and the record-scoped state entry the shared
// store tracks for each open form.
package model
