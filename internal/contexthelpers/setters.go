package contexthelpers

import (
	"context"
	"net/http"
)

// WithUserID returns a copy of ctx acting as userID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, AuthenticatedUserIDContextKey, userID)
}

func AuthenticateContext(r *http.Request, userID int) *http.Request {
	return r.WithContext(WithUserID(r.Context(), userID))
}

func SetCurrentPath(r *http.Request, currentPath string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, CurrentPathContextKey, currentPath)
	return r.WithContext(ctx)
}
