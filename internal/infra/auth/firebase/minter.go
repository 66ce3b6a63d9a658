// Package firebase talks to Firebase Authentication: it mints custom
// assertions, exchanges them for ID tokens, verifies ID tokens through the
// Admin SDK and manages provider-side accounts.
package firebase

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2/google"

	"intuitive/config"
	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/domain/service"
	"intuitive/internal/errors"
)

// CustomTokenAudience is the audience Firebase requires on custom tokens.
const CustomTokenAudience = "https://identitytoolkit.googleapis.com/google.identity.identitytoolkit.v1.IdentityToolkit"

// MaxAssertionTTL is the longest lifetime Firebase accepts for a custom token.
const MaxAssertionTTL = time.Hour

// AssertionMinter signs custom tokens with a service-account key.
type AssertionMinter struct {
	email string
	keyID string
	key   *rsa.PrivateKey
	ttl   time.Duration
	now   func() time.Time
}

// NewAssertionMinter reads the service-account file named in the config.
func NewAssertionMinter(cfg *config.Config) (service.AssertionMinter, error) {
	jsonKey, err := os.ReadFile(cfg.Firebase.CredentialsPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read service account credentials")
	}

	return NewAssertionMinterFromJSON(jsonKey, cfg.Firebase.AssertionTTL, time.Now)
}

// NewAssertionMinterFromJSON builds a minter from service-account JSON.
// A zero ttl means one hour; anything above one hour is rejected.
func NewAssertionMinterFromJSON(jsonKey []byte, ttl time.Duration, now func() time.Time) (*AssertionMinter, error) {
	if ttl <= 0 {
		ttl = MaxAssertionTTL
	}
	if ttl > MaxAssertionTTL {
		return nil, domainerrors.ErrSigningFailed.WithDetails(fmt.Sprintf("assertion ttl %s exceeds %s", ttl, MaxAssertionTTL))
	}
	if now == nil {
		now = time.Now
	}

	jwtCfg, err := google.JWTConfigFromJSON(jsonKey)
	if err != nil {
		return nil, domainerrors.ErrSigningFailed.WithDetails("invalid service account credentials")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(jwtCfg.PrivateKey)
	if err != nil {
		return nil, domainerrors.ErrSigningFailed.WithDetails("malformed service account private key")
	}

	return &AssertionMinter{
		email: jwtCfg.Email,
		keyID: jwtCfg.PrivateKeyID,
		key:   key,
		ttl:   ttl,
		now:   now,
	}, nil
}

// MintAssertion returns a compact RS256 custom token for subjectID.
func (m *AssertionMinter) MintAssertion(subjectID string, claims service.CustomClaims) (string, error) {
	if subjectID == "" {
		return "", domainerrors.ErrSigningFailed.WithDetails("empty subject")
	}

	issuedAt := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":    m.email,
		"sub":    m.email,
		"aud":    CustomTokenAudience,
		"iat":    issuedAt.Unix(),
		"exp":    issuedAt.Add(m.ttl).Unix(),
		"uid":    subjectID,
		"claims": claims,
	})
	if m.keyID != "" {
		token.Header["kid"] = m.keyID
	}

	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", domainerrors.ErrSigningFailed.WithDetails(err.Error())
	}

	return signed, nil
}
