package middleware

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// --- Logger Keys ---
	RequestFileLoggerKey   ContextKey = "requestFileLogger"
	RequestSQLiteLoggerKey ContextKey = "requestSQLiteLogger"
	RequestIDHeader                   = "X-Request-ID"

	// --- JWT Middleware Keys ---
	AuthorizationHeader            = "Authorization"
	BearerPrefix                   = "Bearer "
	UserIDKey           ContextKey = "userID"
	SessionIDKey        ContextKey = "sessionID"

	// --- Request ID Key ---
	RequestIDKey ContextKey = "requestID"
)
