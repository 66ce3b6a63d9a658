// Package credential pulls bearer credentials out of inbound requests.
// Absence is never an error: a request without a credential simply yields
// ("", false) and the guard chain decides what that means.
package credential

import (
	"net/http"
	"strings"
)

const (
	headerAuthorization    = "Authorization"
	initKeyAuthorization   = "Authorization"
	initKeyAuthorizationLC = "authorization"
	initKeyToken           = "token"
)

// FromHeader extracts the credential from the Authorization header.
// The header is split on whitespace and the second token is returned, so
// "Bearer abc" yields "abc". A header with fewer than two tokens is absent.
// The scheme itself is not checked.
func FromHeader(header http.Header) (string, bool) {
	if header == nil {
		return "", false
	}

	return fromAuthorizationValue(header.Get(headerAuthorization))
}

// FromConnectionInit extracts the credential from a WebSocket connection-init
// payload. Authorization keys follow the header rule; the token key accepts
// either a raw token or "Bearer <token>".
func FromConnectionInit(payload map[string]any) (string, bool) {
	if payload == nil {
		return "", false
	}

	for _, key := range []string{initKeyAuthorization, initKeyAuthorizationLC} {
		if value, ok := payload[key].(string); ok {
			return fromAuthorizationValue(value)
		}
	}

	value, ok := payload[initKeyToken].(string)
	if !ok {
		return "", false
	}

	fields := strings.Fields(value)
	switch len(fields) {
	case 1:
		return fields[0], true
	case 0:
		return "", false
	default:
		return fields[1], true
	}
}

func fromAuthorizationValue(value string) (string, bool) {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return "", false
	}

	return fields[1], true
}
