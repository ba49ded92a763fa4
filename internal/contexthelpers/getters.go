package contexthelpers

import (
	"context"
)

// AuthenticatedUserID returns the acting user, or 0 when none is set.
func AuthenticatedUserID(ctx context.Context) int {
	userID, ok := ctx.Value(AuthenticatedUserIDContextKey).(int)
	if !ok {
		return 0
	}

	return userID
}

func CurrentPath(ctx context.Context) string {
	currentPath, ok := ctx.Value(CurrentPathContextKey).(string)
	if !ok {
		return ""
	}

	return currentPath
}
