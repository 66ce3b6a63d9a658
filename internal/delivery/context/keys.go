// Package context holds the request-scoped values shared between the
// transport layer, the guard chain and the services.
package context

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// KeyRequestID is the key for storing request ID in context.
	KeyRequestID ContextKey = "request_id"

	// KeyLogger is the key for storing request-scoped logger in context.
	KeyLogger ContextKey = "logger"

	// KeyIdentity is the key for the per-request Identity cell.
	KeyIdentity ContextKey = "identity"

	// KeyBearerToken is the key for the raw bearer credential.
	KeyBearerToken ContextKey = "bearer_token"

	// HeaderXRequestID is the HTTP header name for request ID.
	HeaderXRequestID = "X-Request-Id"
)
