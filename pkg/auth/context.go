package auth

import (
	"context"
	"errors"
)

// contextKey is an unexported type to prevent key collisions in context.
type contextKey string

const operatorKey contextKey = "operator_email"

// ErrOperatorNotFound is returned when no operator exists in the request
// context. Handlers should return 401 when this error occurs.
var ErrOperatorNotFound = errors.New("operator not found in context")

// OperatorFromCtx extracts the authenticated operator's email from the
// request context. Returns ErrOperatorNotFound for unauthenticated requests.
func OperatorFromCtx(ctx context.Context) (string, error) {
	email, ok := ctx.Value(operatorKey).(string)
	if !ok || email == "" {
		return "", ErrOperatorNotFound
	}
	return email, nil
}

// WithOperator returns a new context with the operator's email attached.
// Used by authentication middleware after validating the session.
func WithOperator(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, operatorKey, email)
}
