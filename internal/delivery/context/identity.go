package context

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"intuitive/internal/domain/entity"
)

// Identity is the per-request identity cell. The authentication guard writes
// the subject, the existence guard writes the resolved user, and resolvers
// running in parallel read both. One cell must never be shared across requests.
type Identity struct {
	mu      sync.Mutex
	subject string
	user    *entity.User
}

// NewIdentity returns an empty cell.
func NewIdentity() *Identity {
	return &Identity{}
}

// SetSubject records the verified subject. Writing the same subject again is harmless.
func (i *Identity) SetSubject(subject string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.subject = subject
}

// Subject returns the verified subject, or "" if none was recorded.
func (i *Identity) Subject() string {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.subject
}

// SubjectUUID returns the subject converted to a UUID.
func (i *Identity) SubjectUUID() (uuid.UUID, error) {
	return entity.ParseSubjectUUID(i.Subject())
}

// SetUser caches the resolved user record.
func (i *Identity) SetUser(user *entity.User) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.user = user.Clone()
}

// User returns a copy of the cached user record.
func (i *Identity) User() (*entity.User, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.user == nil {
		return nil, false
	}

	return i.user.Clone(), true
}

// WithIdentity returns a new context carrying the identity cell.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, KeyIdentity, identity)
}

// IdentityFromContext returns the identity cell placed by the transport layer.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(KeyIdentity).(*Identity)

	return identity, ok && identity != nil
}

// WithBearerToken returns a new context carrying the raw bearer credential.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, KeyBearerToken, token)
}

// BearerTokenFromContext returns the bearer credential, if the request carried one.
func BearerTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(KeyBearerToken).(string)

	return token, ok && token != ""
}
