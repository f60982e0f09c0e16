package http

import "context"

type contextKey string

const userIDContextKey contextKey = "user_id"

// ContextWithUserID returns a derived context carrying the resolved caller.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts the caller previously stored by the identity middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok && id != ""
}
