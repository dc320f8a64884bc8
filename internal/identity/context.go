package identity

import "context"

type ctxKey int

const userIDKey ctxKey = iota

// WithUserID returns a context carrying the authenticated user's id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user's id. ok is false when
// the context carries no identity, which callers must treat as
// "authentication required" before doing any work.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
