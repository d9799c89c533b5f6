// Package models defines the court reference entity. Court codes should be
// unique but historically are not, so keyed lookups resolve through the
// most-likely policy.
package models

import "casework/internal/reference"

// Court is a court record. Selectable marks the row current; duplicate rows
// for one code are narrowed to the single selectable one.
type Court struct {
	ID         int64
	Code       string
	Name       string
	Selectable bool
	Type       reference.CourtType
}
