// Package session carries the acting user through a request context.
package session

import "context"

type contextKey string

const userIDKey contextKey = "userID"

// WithUser returns a copy of ctx carrying userID.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the acting user, or false when the request is anonymous.
func UserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok && userID > 0
}
