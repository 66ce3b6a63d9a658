// Package jwks verifies Firebase ID tokens against a published JSON Web Key
// Set. It is used where the Admin SDK cannot be, such as the Auth emulator
// and tests, and needs no service-account credentials.
package jwks

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"intuitive/config"
	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/domain/service"
	"intuitive/internal/errors"
)

const (
	issuerPrefix     = "https://securetoken.google.com/"
	keyCacheSize     = 32
	maxJWKSBodyBytes = 1 << 20

	defaultMinRefreshInterval = time.Minute
)

var errUnknownKeyID = errors.New("unknown key id")

// Options configures a Verifier.
type Options struct {
	JWKSURL   string
	ProjectID string
	CacheTTL  time.Duration
	// MinRefreshInterval is the shortest gap between two key set fetches
	// triggered by unknown key ids. Zero means one minute.
	MinRefreshInterval time.Duration
	Client             *http.Client
	Now       func() time.Time
}

// Verifier validates RS256 ID tokens issued for one Firebase project.
type Verifier struct {
	jwksURL  string
	issuer   string
	audience string
	client   *http.Client
	now      func() time.Time

	keys               *expirable.LRU[string, *rsa.PublicKey]
	minRefreshInterval time.Duration

	refreshMu   sync.Mutex
	lastRefresh time.Time
}

// NewVerifier creates a Verifier from the firebase config section.
func NewVerifier(cfg *config.Config) service.TokenVerifier {
	return New(Options{
		JWKSURL:   cfg.Firebase.JWKSURL,
		ProjectID: cfg.Firebase.ProjectID,
		CacheTTL:  cfg.Firebase.KeyCacheTTL,
		Client:    &http.Client{Timeout: cfg.Firebase.RequestTimeout},

		MinRefreshInterval: cfg.Firebase.KeyRefreshInterval,
	})
}

// New creates a Verifier.
func New(opts Options) *Verifier {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.MinRefreshInterval <= 0 {
		opts.MinRefreshInterval = defaultMinRefreshInterval
	}

	return &Verifier{
		jwksURL:  opts.JWKSURL,
		issuer:   issuerPrefix + opts.ProjectID,
		audience: opts.ProjectID,
		client:   opts.Client,
		now:      opts.Now,
		keys:     expirable.NewLRU[string, *rsa.PublicKey](keyCacheSize, nil, opts.CacheTTL),

		minRefreshInterval: opts.MinRefreshInterval,
	}
}

// VerifyToken checks algorithm, key id, signature, issuer, audience, expiry
// and subject, and returns the subject.
func (v *Verifier) VerifyToken(ctx context.Context, idToken string) (string, error) {
	if idToken == "" {
		return "", domainerrors.ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, v.keyFunc(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", errors.Join(domainerrors.ErrUnauthorized, errors.Wrap(err, "verify id token"))
	}
	if claims.Subject == "" {
		return "", domainerrors.ErrUnauthorized
	}

	return claims.Subject, nil
}

func (v *Verifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}

		if key, ok := v.keys.Get(kid); ok {
			return key, nil
		}

		return v.refreshAndLookup(ctx, kid)
	}
}

// refreshAndLookup refetches the key set once for an unseen kid. Concurrent
// misses for the same kid share one fetch, and fetches are at least
// minRefreshInterval apart.
func (v *Verifier) refreshAndLookup(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	if key, ok := v.keys.Get(kid); ok {
		return key, nil
	}

	now := v.now()
	if !v.lastRefresh.IsZero() && now.Sub(v.lastRefresh) < v.minRefreshInterval {
		return nil, errors.Wrap(errUnknownKeyID, kid)
	}
	v.lastRefresh = now

	if err := v.fetchKeys(ctx); err != nil {
		return nil, err
	}

	if key, ok := v.keys.Get(kid); ok {
		return key, nil
	}

	return nil, errors.Wrap(errUnknownKeyID, kid)
}

func (v *Verifier) fetchKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create jwks request")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to fetch jwks")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("jwks fetch failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBodyBytes))
	if err != nil {
		return errors.Wrap(err, "failed to read jwks")
	}

	var set jose.JSONWebKeySet
	if err := json.Unmarshal(body, &set); err != nil {
		return errors.Wrap(err, "failed to decode jwks")
	}

	for _, key := range set.Keys {
		if key.Use != "" && key.Use != "sig" {
			continue
		}
		pub, ok := key.Key.(*rsa.PublicKey)
		if !ok || key.KeyID == "" {
			continue
		}
		v.keys.Add(key.KeyID, pub)
	}

	return nil
}
