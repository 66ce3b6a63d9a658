package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/domain/service"
	"intuitive/internal/errors"
)

// idTokenVerifier is the part of auth.Client used for verification.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// TokenVerifier validates ID tokens with the Admin SDK, which fetches and
// caches the provider signing keys itself.
type TokenVerifier struct {
	client idTokenVerifier
}

// NewTokenVerifier wraps the Firebase Auth client.
func NewTokenVerifier(client *auth.Client) service.TokenVerifier {
	return &TokenVerifier{client: client}
}

// VerifyToken returns the UID of a valid ID token.
func (v *TokenVerifier) VerifyToken(ctx context.Context, idToken string) (string, error) {
	if idToken == "" {
		return "", domainerrors.ErrUnauthorized
	}

	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", errors.Join(domainerrors.ErrUnauthorized, errors.Wrap(err, "verify id token"))
	}
	if token.UID == "" {
		return "", domainerrors.ErrUnauthorized
	}

	return token.UID, nil
}
