package service

import (
	"context"
)

// CustomClaims are the developer claims embedded into a minted assertion.
type CustomClaims struct {
	PremiumAccount bool `json:"premium_account"`
}

// AssertionMinter signs short-lived custom assertions for the identity provider handshake.
type AssertionMinter interface {
	// MintAssertion returns a compact RS256 JWT for subjectID.
	// A malformed key or an empty subject yields ErrSigningFailed.
	MintAssertion(subjectID string, claims CustomClaims) (string, error)
}

// AssertionExchanger trades a signed assertion for a provider-issued ID token.
type AssertionExchanger interface {
	// ExchangeAssertion returns the provider ID token. Transport failures map to
	// ErrProviderUnavailable and rejections to ErrInvalidAssertion.
	ExchangeAssertion(ctx context.Context, assertion string) (string, error)
}

// TokenVerifier validates provider ID tokens.
type TokenVerifier interface {
	// VerifyToken returns the subject of a valid token. Every failure is
	// reported as ErrUnauthorized.
	VerifyToken(ctx context.Context, idToken string) (string, error)
}

// IdentityAdmin manages accounts on the identity provider side.
type IdentityAdmin interface {
	UpdateDisplayName(ctx context.Context, subjectID, name string) error
	ChangePassword(ctx context.Context, subjectID, password string) error
	DeleteUser(ctx context.Context, subjectID string) error
}
