package firebase

import (
	"context"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/errors"
)

type fakeIDTokenVerifier struct {
	token *auth.Token
	err   error
	calls int
}

func (f *fakeIDTokenVerifier) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	f.calls++

	return f.token, f.err
}

func TestTokenVerifier(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		verifier := &TokenVerifier{client: &fakeIDTokenVerifier{token: &auth.Token{UID: "uid-7"}}}

		subject, err := verifier.VerifyToken(context.Background(), "id-token")
		require.NoError(t, err)
		assert.Equal(t, "uid-7", subject)
	})

	t.Run("sdk rejects token", func(t *testing.T) {
		verifier := &TokenVerifier{client: &fakeIDTokenVerifier{err: errors.New("ID token has expired")}}

		_, err := verifier.VerifyToken(context.Background(), "id-token")
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})

	t.Run("empty uid", func(t *testing.T) {
		verifier := &TokenVerifier{client: &fakeIDTokenVerifier{token: &auth.Token{}}}

		_, err := verifier.VerifyToken(context.Background(), "id-token")
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})

	t.Run("empty token skips the sdk", func(t *testing.T) {
		fake := &fakeIDTokenVerifier{}
		verifier := &TokenVerifier{client: fake}

		_, err := verifier.VerifyToken(context.Background(), "")
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
		assert.Zero(t, fake.calls)
	})
}

type fakeUserManager struct {
	updates []*auth.UserToUpdate
	deleted []string
	err     error
}

func (f *fakeUserManager) UpdateUser(_ context.Context, _ string, user *auth.UserToUpdate) (*auth.UserRecord, error) {
	f.updates = append(f.updates, user)

	return &auth.UserRecord{}, f.err
}

func (f *fakeUserManager) DeleteUser(_ context.Context, uid string) error {
	f.deleted = append(f.deleted, uid)

	return f.err
}

func TestIdentityAdmin(t *testing.T) {
	fake := &fakeUserManager{}
	admin := &IdentityAdmin{client: fake}
	ctx := context.Background()

	require.NoError(t, admin.UpdateDisplayName(ctx, "uid-1", "Ada"))
	require.NoError(t, admin.ChangePassword(ctx, "uid-1", "s3cret!"))
	require.NoError(t, admin.DeleteUser(ctx, "uid-1"))

	assert.Len(t, fake.updates, 2)
	assert.Equal(t, []string{"uid-1"}, fake.deleted)
}

func TestIdentityAdmin_ProviderFailure(t *testing.T) {
	admin := &IdentityAdmin{client: &fakeUserManager{err: errors.New("deadline exceeded")}}

	err := admin.DeleteUser(context.Background(), "uid-1")
	assert.ErrorIs(t, err, domainerrors.ErrProviderUnavailable)
}
