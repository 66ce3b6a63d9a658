// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"

	deliverycontext "intuitive/internal/delivery/context"
	"intuitive/internal/domain/entity"
	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/domain/repository"
	"intuitive/internal/domain/service"
	"intuitive/internal/errors"
	"intuitive/internal/usecase"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	hasher    service.PasswordHasher
	admin     service.IdentityAdmin
	logger    *slog.Logger
	now       func() time.Time
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	RoleRepo  repository.RoleRepository
	Hasher    service.PasswordHasher
	// Admin mirrors account changes to the identity provider. It is absent
	// when the service runs against the jwks verifier without credentials.
	Admin  service.IdentityAdmin `optional:"true"`
	Logger *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		roleRepo:  params.RoleRepo,
		hasher:    params.Hasher,
		admin:     params.Admin,
		logger:    params.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.LoggerFromContext(ctx, srv.logger)
}

// CreateUser stores the user record for an authenticated subject together
// with its default role. Both rows are written in one transaction.
func (srv *userService) CreateUser(ctx context.Context, input *usecase.CreateUserInput) (*entity.User, error) {
	if input.SubjectID == "" {
		return nil, domainerrors.ErrUnauthorized
	}

	srv.log(ctx).Info("Creating user", slog.String("userID", input.SubjectID), slog.String("email", input.Email))

	// bcrypt is CPU-bound; hash before taking a transaction.
	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password")
	}

	now := srv.now()
	user := &entity.User{
		ID:           input.SubjectID,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.UserRepo().Create(ctx, user); err != nil {
			return errors.Wrap(err, "failed to insert user")
		}

		if err := repoFactory.RoleRepo().Create(ctx, user.ID, entity.RoleUser); err != nil {
			return errors.Wrap(err, "failed to insert default role")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to create user", slog.String("userID", input.SubjectID), slog.Any("error", err))

		return nil, translateRepoError(err)
	}

	srv.log(ctx).Debug("User created", slog.String("userID", user.ID))

	return user, nil
}

// GetUser returns the stored user for a subject.
func (srv *userService) GetUser(ctx context.Context, subjectID string) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, subjectID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	return user, nil
}

// GetRoles returns every role the subject holds.
func (srv *userService) GetRoles(ctx context.Context, subjectID string) (entity.Roles, error) {
	roles, err := srv.roleRepo.FindByUserID(ctx, subjectID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	return roles, nil
}

// UpdateUserName renames the user locally, then mirrors the display name to
// the identity provider. A provider failure is logged and does not undo the
// local change.
func (srv *userService) UpdateUserName(ctx context.Context, subjectID, name string) (*entity.User, error) {
	user, err := srv.userRepo.UpdateName(ctx, subjectID, name)
	if err != nil {
		return nil, translateRepoError(err)
	}

	if srv.admin != nil {
		if err := srv.admin.UpdateDisplayName(ctx, subjectID, name); err != nil {
			srv.log(ctx).Warn("Failed to sync display name to identity provider",
				slog.String("userID", subjectID), slog.Any("error", err))
		}
	}

	return user, nil
}

// ChangePassword updates the provider credential first, since that is what
// sign-in uses, and then the stored hash.
func (srv *userService) ChangePassword(ctx context.Context, subjectID, password string) error {
	passwordHash, err := srv.hasher.Hash(password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	if srv.admin != nil {
		if err := srv.admin.ChangePassword(ctx, subjectID, password); err != nil {
			srv.log(ctx).Warn("Identity provider rejected password change",
				slog.String("userID", subjectID), slog.Any("error", err))

			return err
		}
	}

	if err := srv.userRepo.UpdatePassword(ctx, subjectID, passwordHash); err != nil {
		return translateRepoError(err)
	}

	return nil
}

// GrantRole adds a role to an existing user and returns the user.
func (srv *userService) GrantRole(ctx context.Context, subjectID string, role entity.Role) (*entity.User, error) {
	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.UserRepo().FindByID(ctx, subjectID)
		if err != nil {
			return err
		}

		if err := repoFactory.RoleRepo().Create(ctx, subjectID, role); err != nil {
			return errors.Wrap(err, "failed to grant role")
		}
		user = found

		return nil
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	srv.log(ctx).Info("Role granted", slog.String("userID", subjectID), slog.String("role", role.String()))

	return user, nil
}

// DeleteUser removes the local user and its roles, then the provider account.
// A provider account that no longer exists is not an error.
func (srv *userService) DeleteUser(ctx context.Context, subjectID string) error {
	if err := srv.userRepo.Delete(ctx, subjectID); err != nil {
		return translateRepoError(err)
	}

	if srv.admin != nil {
		err := srv.admin.DeleteUser(ctx, subjectID)
		if err != nil && !errors.Is(err, domainerrors.ErrUserNotFound) {
			srv.log(ctx).Error("Failed to delete identity provider account",
				slog.String("userID", subjectID), slog.Any("error", err))

			return err
		}
	}

	srv.log(ctx).Info("User deleted", slog.String("userID", subjectID))

	return nil
}

// translateRepoError maps persistence outcomes onto application errors.
// Errors that already carry an application code pass through unchanged.
func translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUserNotFound):
		return errors.Wrap(domainerrors.ErrUserNotFound, err.Error())
	case errors.Is(err, repository.ErrUserConflict):
		return errors.Wrap(domainerrors.ErrUserAlreadyExists, err.Error())
	default:
		return err
	}
}
