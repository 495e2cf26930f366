package principal

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Principal is the authenticated caller as supplied by the auth boundary.
// Lifecycle operations receive it explicitly; nothing reads it ambiently.
type Principal struct {
	UserID  uuid.UUID
	Name    string
	Email   string
	IsAdmin bool
}

var (
	ErrUnauthorized = errors.New("not authorized")
	ErrForbidden    = errors.New("forbidden")
)

type contextKey struct{}

// WithContext attaches the principal to the context. Used only to carry it
// from the auth middleware to the handler.
func WithContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext extracts the principal set by the auth middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
