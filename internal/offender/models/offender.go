package models

// Offender is the identity record for a person under probation supervision.
// Offenders are created by upstream case-entry processes and never hard
// deleted; the soft-delete flag hides them from every lookup here.
type Offender struct {
	ID int64

	// CRN is the stable case reference number, assumed unique.
	CRN string

	// NomsNumber is the prison system correlation number. A small number of
	// offenders share one, so lookups by it resolve through the most-likely
	// policy.
	NomsNumber string

	// PNCNumber is the police national computer reference, carried for the
	// identifiers view only.
	PNCNumber string

	SoftDeleted bool

	// ActiveSentence is true while the offender carries at least one
	// non-terminated sentence.
	ActiveSentence bool

	CurrentExclusion bool
	ExclusionMessage string

	CurrentRestriction bool
	RestrictionMessage string
}

// Identifiers is the read model exposing every external key for an offender.
type Identifiers struct {
	OffenderID int64    `json:"offenderId"`
	CRN        string   `json:"crn"`
	NomsNumber string   `json:"nomsNumber,omitempty"`
	PNCNumber  string   `json:"pncNumber,omitempty"`
	Bookings   []string `json:"bookingNumbers,omitempty"`
}
