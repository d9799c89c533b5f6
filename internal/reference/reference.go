// Package reference holds the reference data the lifecycle engine resolves
// against: institutions, custodial statuses, custody event types, court
// types, and the fixed key date catalogue.
package reference

import "context"

// Institution is a prison establishment, keyed externally by its NOMIS CDE
// code.
type Institution struct {
	ID          int64
	Code        string
	NomisCode   string
	Description string
}

// CustodyStatus is an enumerated custodial status.
type CustodyStatus struct {
	Code        string
	Description string
}

// Custodial statuses relevant to the lifecycle engine. "A" is a sentenced
// offender about to enter custody; "D" is serving in custody; the rest are
// terminal for transfer purposes.
var (
	StatusSentenced  = CustodyStatus{Code: "A", Description: "Sentenced - in custody"}
	StatusInCustody  = CustodyStatus{Code: "D", Description: "In custody"}
	StatusReleased   = CustodyStatus{Code: "B", Description: "Released - on licence"}
	StatusTerminated = CustodyStatus{Code: "T", Description: "Custody terminated"}
)

// IsAboutToEnterCustody reports whether the status is sentenced but not yet
// admitted.
func (s CustodyStatus) IsAboutToEnterCustody() bool { return s.Code == StatusSentenced.Code }

// IsInCustody reports whether the offender is currently serving in custody.
func (s CustodyStatus) IsInCustody() bool { return s.Code == StatusInCustody.Code }

// CustodyEventType classifies custody history entries.
type CustodyEventType struct {
	Code        string
	Description string
}

var (
	EventTypeLocationChange = CustodyEventType{Code: "CPL", Description: "Change of prison location"}
	EventTypeStatusChange   = CustodyEventType{Code: "TSC", Description: "Custody status change"}
	EventTypeKeyDates       = CustodyEventType{Code: "EDSS", Description: "Sentence key dates amended"}
)

// CourtType classifies courts.
type CourtType struct {
	Code        string
	Description string
}

// Store resolves reference entities persisted in the backing data store.
// Implementations return sentinel.ErrNotFound for unknown codes.
type Store interface {
	InstitutionByNomisCode(ctx context.Context, nomisCode string) (*Institution, error)
	CustodyStatusByCode(ctx context.Context, code string) (*CustodyStatus, error)
	CourtTypeByCode(ctx context.Context, code string) (*CourtType, error)
}
