// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, and tests
// inject them without standing up the HTTP stack.
package requestcontext

import (
	"context"
	"time"

	id "studbook/pkg/domain"
)

type (
	memberIDKey    struct{}
	roleKey        struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyMemberID    = memberIDKey{}
	ContextKeyRole        = roleKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// MemberID retrieves the authenticated member id, zero when unauthenticated.
func MemberID(ctx context.Context) id.MemberID {
	if m, ok := ctx.Value(ContextKeyMemberID).(id.MemberID); ok {
		return m
	}
	return 0
}

// WithMemberID injects an authenticated member id into the context.
func WithMemberID(ctx context.Context, memberID id.MemberID) context.Context {
	return context.WithValue(ctx, ContextKeyMemberID, memberID)
}

// Role retrieves the authenticated actor's role ("member" or "admin").
func Role(ctx context.Context) string {
	if r, ok := ctx.Value(ContextKeyRole).(string); ok {
		return r
	}
	return ""
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextKeyRole, role)
}

// RequestID retrieves the correlation id for the current request.
func RequestID(ctx context.Context) string {
	if r, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return r
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time, falling back to time.Now for
// non-HTTP callers (workers, CLI, tests that don't care).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time so every write within one request (or one
// test) shares a single timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
