package contexthelpers

type contextKey string

const AuthenticatedUserIDContextKey = contextKey("authenticatedUserID")
const CurrentPathContextKey = contextKey("currentPath")
