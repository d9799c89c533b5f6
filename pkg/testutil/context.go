package testutil

import (
	"context"
	"net/http"
	"time"

	"casework/pkg/requestcontext"
)

// FixedClock is the deterministic request time used across service tests.
var FixedClock = time.Date(2024, 3, 18, 11, 30, 0, 0, time.UTC)

// Context returns a background context pinned to FixedClock.
func Context() context.Context {
	return requestcontext.WithTime(context.Background(), FixedClock)
}

// ContextAs returns a context pinned to FixedClock acting as the given
// principal. Empty username means an anonymous or service principal.
func ContextAs(username string, authorities ...string) context.Context {
	ctx := Context()
	if username != "" {
		ctx = requestcontext.WithUsername(ctx, username)
	}
	return requestcontext.WithAuthorities(ctx, authorities)
}

// WithPrincipal decorates a request with the context the auth middleware
// would have produced for the given principal.
func WithPrincipal(req *http.Request, username string, authorities ...string) *http.Request {
	ctx := req.Context()
	if username != "" {
		ctx = requestcontext.WithUsername(ctx, username)
	}
	ctx = requestcontext.WithAuthorities(ctx, authorities)
	ctx = requestcontext.WithTime(ctx, FixedClock)
	return req.WithContext(ctx)
}
