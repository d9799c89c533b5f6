// Package models defines the custody aggregate: the sentence event, its
// custody record, key dates, and the append-only history trail.
package models

import (
	"time"

	"casework/internal/reference"
)

// Custody is the custodial state attached to exactly one sentence event.
type Custody struct {
	Status             reference.CustodyStatus
	Institution        *reference.Institution
	StatusChangeDate   *time.Time
	LocationChangeDate *time.Time

	// KeyDates maps key date type codes to calendar dates. Absent code means
	// the date is not set.
	KeyDates map[string]time.Time
}

// Clone returns a deep copy so store reads never alias live state.
func (c *Custody) Clone() *Custody {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Institution != nil {
		inst := *c.Institution
		cp.Institution = &inst
	}
	if c.StatusChangeDate != nil {
		d := *c.StatusChangeDate
		cp.StatusChangeDate = &d
	}
	if c.LocationChangeDate != nil {
		d := *c.LocationChangeDate
		cp.LocationChangeDate = &d
	}
	cp.KeyDates = make(map[string]time.Time, len(c.KeyDates))
	for k, v := range c.KeyDates {
		cp.KeyDates[k] = v
	}
	return &cp
}

// SentenceEvent is one sentencing occasion for an offender. Custodial events
// carry a custody record and correlate to a prison admission through the
// booking number.
type SentenceEvent struct {
	ID            int64
	OffenderID    int64
	BookingNumber string
	Active        bool
	Custody       *Custody
}

// Clone deep-copies the event.
func (e *SentenceEvent) Clone() *SentenceEvent {
	cp := *e
	cp.Custody = e.Custody.Clone()
	return &cp
}

// HistoryEntry is one append-only audit record of a custody change. Entries
// are created only as a side effect of a lifecycle transition and are never
// mutated.
type HistoryEntry struct {
	ID         int64
	EventID    int64
	OffenderID int64
	Type       reference.CustodyEventType
	Detail     string
	Date       time.Time
}

// KeyDate is the read model for one named date on a custody record.
type KeyDate struct {
	TypeCode    string    `json:"type"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// SentenceDates carries the bulk-replace input: every sentence-level date,
// each optional. A nil field clears the date; handover dates are not part of
// this set and are never touched by a bulk replace.
type SentenceDates struct {
	ConditionalReleaseDate         *time.Time `json:"conditionalReleaseDate,omitempty"`
	LicenceExpiryDate              *time.Time `json:"licenceExpiryDate,omitempty"`
	HDCEligibilityDate             *time.Time `json:"hdcEligibilityDate,omitempty"`
	ParoleEligibilityDate          *time.Time `json:"paroleEligibilityDate,omitempty"`
	SentenceExpiryDate             *time.Time `json:"sentenceExpiryDate,omitempty"`
	ExpectedReleaseDate            *time.Time `json:"expectedReleaseDate,omitempty"`
	PostSentenceSupervisionEndDate *time.Time `json:"postSentenceSupervisionEndDate,omitempty"`
}

// ByCode returns the supplied value for a sentence key date type code, nil
// when omitted.
func (d SentenceDates) ByCode(code string) *time.Time {
	switch code {
	case "CRD":
		return d.ConditionalReleaseDate
	case "LED":
		return d.LicenceExpiryDate
	case "HDE":
		return d.HDCEligibilityDate
	case "PED":
		return d.ParoleEligibilityDate
	case "SED":
		return d.SentenceExpiryDate
	case "EXP":
		return d.ExpectedReleaseDate
	case "PSSED":
		return d.PostSentenceSupervisionEndDate
	}
	return nil
}

// Lookup identifies an offender by exactly one of its external or internal
// keys. Handlers populate the field matching the route they serve.
type Lookup struct {
	CRN           string
	NomsNumber    string
	OffenderID    int64
	BookingNumber string
}
