// Package access implements the per-offender visibility gate. Two
// independent checks run on every request: exclusion (this user must not see
// this offender) and restriction (only listed users may see this offender).
// Nothing is cached; the lists and flags can change between requests.
package access

import (
	"context"
	"log/slog"
	"strings"

	accessmetrics "casework/internal/access/metrics"
	"casework/internal/offender/models"
	dErrors "casework/pkg/domain-errors"
	"casework/pkg/requestcontext"
)

// Limitation is the access evaluation for one user and one offender.
// Ephemeral: recomputed on every gate evaluation, never persisted.
type Limitation struct {
	UserExcluded     bool
	ExclusionMessage string

	UserRestricted     bool
	RestrictionMessage string
}

// Gate evaluates exclusions and restrictions. Each check carries its own
// configured bypass authority list; holding any listed authority skips that
// check entirely.
type Gate struct {
	directory         Directory
	bypassExclusion   map[string]struct{}
	bypassRestriction map[string]struct{}
	metrics           *accessmetrics.Metrics
	log               *slog.Logger
}

func NewGate(directory Directory, ignoreExclusionsFor, ignoreRestrictionsFor []string, metrics *accessmetrics.Metrics, log *slog.Logger) *Gate {
	return &Gate{
		directory:         directory,
		bypassExclusion:   upperSet(ignoreExclusionsFor),
		bypassRestriction: upperSet(ignoreRestrictionsFor),
		metrics:           metrics,
		log:               log,
	}
}

// Check evaluates whether the principal in ctx may view or act on the
// offender. Exclusion runs before restriction; either denies independently
// with the offender's configured message. A nil error means access is
// allowed.
func (g *Gate) Check(ctx context.Context, offender *models.Offender) error {
	username, hasUsername := requestcontext.Username(ctx)
	authorities := requestcontext.Authorities(ctx)

	// Exclusion is a per-user list, so anonymous and service principals
	// cannot be excluded.
	if hasUsername && !g.bypassed(authorities, g.bypassExclusion) {
		limitation, err := g.LimitationOf(ctx, username, offender)
		if err != nil {
			return err
		}
		if limitation.UserExcluded {
			g.deny(ctx, "exclusion", username, offender.ID)
			return dErrors.New(dErrors.CodeForbidden, "%s", limitation.ExclusionMessage)
		}
	}

	if !g.bypassed(authorities, g.bypassRestriction) {
		var limitation Limitation
		if hasUsername {
			var err error
			limitation, err = g.LimitationOf(ctx, username, offender)
			if err != nil {
				return err
			}
		} else {
			// No username to look up: a restricted offender is restricted
			// for everyone anonymous.
			limitation = Limitation{
				UserRestricted:     offender.CurrentRestriction,
				RestrictionMessage: offender.RestrictionMessage,
			}
		}
		if limitation.UserRestricted {
			g.deny(ctx, "restriction", username, offender.ID)
			return dErrors.New(dErrors.CodeForbidden, "%s", limitation.RestrictionMessage)
		}
	}

	return nil
}

// LimitationOf computes the access limitation for a named user against an
// offender. The directory is consulted only when one of the offender flags is
// set.
func (g *Gate) LimitationOf(ctx context.Context, username string, offender *models.Offender) (Limitation, error) {
	var limitation Limitation

	if !offender.CurrentExclusion && !offender.CurrentRestriction {
		return limitation, nil
	}

	if offender.CurrentExclusion {
		excluded, err := g.directory.IsExcludedFrom(ctx, username, offender.ID)
		if err != nil {
			return limitation, dErrors.Wrap(err, dErrors.CodeInternal, "directory exclusion lookup")
		}
		limitation.UserExcluded = excluded
		if excluded {
			limitation.ExclusionMessage = offender.ExclusionMessage
		}
	}

	if offender.CurrentRestriction {
		authorised, err := g.directory.IsAuthorisedFor(ctx, username, offender.ID)
		if err != nil {
			return limitation, dErrors.Wrap(err, dErrors.CodeInternal, "directory restriction lookup")
		}
		// Restricted means not on the authorised list.
		limitation.UserRestricted = !authorised
		if limitation.UserRestricted {
			limitation.RestrictionMessage = offender.RestrictionMessage
		}
	}

	return limitation, nil
}

func (g *Gate) bypassed(authorities []string, bypassList map[string]struct{}) bool {
	for _, a := range authorities {
		if _, ok := bypassList[strings.ToUpper(a)]; ok {
			return true
		}
	}
	return false
}

func (g *Gate) deny(ctx context.Context, check, username string, offenderID int64) {
	if g.metrics != nil {
		g.metrics.IncrementDenied(check)
	}
	g.log.InfoContext(ctx, "access denied",
		"check", check,
		"username", username,
		"offender_id", offenderID,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func upperSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToUpper(v)] = struct{}{}
	}
	return set
}
