package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/domain/service"
	"intuitive/internal/errors"
)

// userManager is the part of auth.Client used for account management.
type userManager interface {
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
}

// IdentityAdmin mirrors local account changes onto Firebase.
type IdentityAdmin struct {
	client userManager
}

// NewIdentityAdmin wraps the Firebase Auth client.
func NewIdentityAdmin(client *auth.Client) service.IdentityAdmin {
	return &IdentityAdmin{client: client}
}

// UpdateDisplayName sets the provider-side display name.
func (a *IdentityAdmin) UpdateDisplayName(ctx context.Context, subjectID, name string) error {
	_, err := a.client.UpdateUser(ctx, subjectID, (&auth.UserToUpdate{}).DisplayName(name))

	return mapAdminError(err, "update display name")
}

// ChangePassword sets the provider-side password.
func (a *IdentityAdmin) ChangePassword(ctx context.Context, subjectID, password string) error {
	_, err := a.client.UpdateUser(ctx, subjectID, (&auth.UserToUpdate{}).Password(password))

	return mapAdminError(err, "change password")
}

// DeleteUser removes the provider-side account.
func (a *IdentityAdmin) DeleteUser(ctx context.Context, subjectID string) error {
	err := a.client.DeleteUser(ctx, subjectID)

	return mapAdminError(err, "delete user")
}

func mapAdminError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case auth.IsUserNotFound(err):
		return errors.Join(domainerrors.ErrUserNotFound, errors.Wrap(err, op))
	default:
		return errors.Join(domainerrors.ErrProviderUnavailable, errors.Wrap(err, op))
	}
}
