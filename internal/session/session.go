// Package session carries the authenticated caller through a request as an
// explicit value instead of package-level state.
package session

import (
	"context"
	"time"
)

// Session describes the authenticated user of a request.
type Session struct {
	UserID    int64
	Email     string
	Username  string
	ExpiresAt time.Time
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
