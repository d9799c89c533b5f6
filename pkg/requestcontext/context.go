// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Context keys and getter/setter functions live here so values set by
// middleware can be consumed by services without the services importing
// net/http. The request time accessor is what keeps history stamping
// deterministic: middleware pins the clock once per request and tests inject
// a fixed time with WithTime.
//
// Usage in services (read values):
//
//	username, ok := requestcontext.Username(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithUsername(ctx, username)
//	ctx = requestcontext.WithAuthorities(ctx, authorities)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	usernameKey    struct{}
	authoritiesKey struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Username retrieves the acting principal's username. The second return is
// false for anonymous or pure service principals, which matters to the access
// gate: exclusion checks need a username, restriction checks do not.
func Username(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey{}).(string)
	return username, ok && username != ""
}

// WithUsername injects the acting principal's username into the context.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

// Authorities retrieves the principal's granted authorities. Returns nil when
// unauthenticated.
func Authorities(ctx context.Context) []string {
	authorities, ok := ctx.Value(authoritiesKey{}).([]string)
	if !ok {
		return nil
	}
	return authorities
}

// WithAuthorities injects the principal's granted authorities into the context.
func WithAuthorities(ctx context.Context, authorities []string) context.Context {
	return context.WithValue(ctx, authoritiesKey{}, authorities)
}

// RequestID retrieves the correlation ID from the context.
func RequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey{}).(string)
	if !ok {
		return ""
	}
	return requestID
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// Today returns the request-scoped time truncated to a calendar date in UTC.
// Custody mutations stamp dates, not instants.
func Today(ctx context.Context) time.Time {
	now := Now(ctx).UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// WithTime injects a specific time into a context. Used by the request-time
// middleware and by service unit tests that need a deterministic clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
