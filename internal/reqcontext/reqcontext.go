// Package reqcontext carries per-request identity through context.Context.
package reqcontext

import "context"

type contextKey struct{ name string }

var userIDKey = contextKey{"userID"}

// WithUserID attaches the authenticated caller's ID to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext extracts the authenticated caller's ID from ctx.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}
