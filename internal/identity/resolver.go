// Package identity implements the most-likely record resolution policy for
// external keys that lack a uniqueness guarantee in the backing data.
//
// A small number of offenders share a NOMS number and some court codes have
// duplicate rows. Callers that can tolerate duplicates resolve through this
// package; once the data is cleaned up the policy can be deleted without
// touching call sites.
package identity

import "fmt"

// AmbiguousError reports that a key matched multiple records and the
// eligibility filter could not narrow them to exactly one. It carries the key
// and total candidate count so the conflict is actionable by an operator.
type AmbiguousError struct {
	Key        string
	Candidates int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("expected a single eligible record but found %d candidates for key %s", e.Candidates, e.Key)
}

// MostLikely selects the single authoritative record from candidates.
//
//   - no candidates: (nil, nil); the caller decides whether that is not-found
//   - one candidate: that record, regardless of eligibility
//   - several candidates: the one eligible record, or AmbiguousError when the
//     filter leaves zero or more than one
//
// The decision depends only on the candidate set and the filter, never on
// candidate order, so repeated calls over the same data agree. No side
// effects.
func MostLikely[T any](key string, candidates []T, eligible func(T) bool) (*T, error) {
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return &candidates[0], nil
	}

	var match *T
	for i := range candidates {
		if !eligible(candidates[i]) {
			continue
		}
		if match != nil {
			return nil, &AmbiguousError{Key: key, Candidates: len(candidates)}
		}
		match = &candidates[i]
	}
	if match == nil {
		return nil, &AmbiguousError{Key: key, Candidates: len(candidates)}
	}
	return match, nil
}
