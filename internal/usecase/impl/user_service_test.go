package impl

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"intuitive/internal/domain/entity"
	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/errors"
	"intuitive/internal/infra/persistence/memory"
	"intuitive/internal/usecase"
)

func createInput(subject string) *usecase.CreateUserInput {
	return &usecase.CreateUserInput{
		SubjectID: subject,
		Name:      "Ada",
		Email:     subject + "@example.com",
		Password:  "s3cret!",
	}
}

func TestUserService_CreateUser(t *testing.T) {
	env := newTestEnv(false)
	ctx := context.Background()

	user, err := env.service.CreateUser(ctx, createInput("uid-1"))
	require.NoError(t, err)
	assert.Equal(t, "uid-1", user.ID)
	assert.Equal(t, "hashed:s3cret!", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)

	roles, err := env.service.GetRoles(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, entity.Roles{entity.RoleUser}, roles)

	stored, err := env.service.GetUser(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.Name)
}

func TestUserService_CreateUser_Duplicate(t *testing.T) {
	env := newTestEnv(false)
	ctx := context.Background()

	_, err := env.service.CreateUser(ctx, createInput("uid-1"))
	require.NoError(t, err)

	_, err = env.service.CreateUser(ctx, createInput("uid-1"))
	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)

	roles, err := env.service.GetRoles(ctx, "uid-1")
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestUserService_CreateUser_RoleFailureLeavesNoUser(t *testing.T) {
	store := memory.NewStore()
	injected := domainerrors.NewDatabaseExecuteError(errors.New("disk full"), "insert role")
	service := NewUserService(UserServiceParams{
		TxManager: &failingRoleTx{inner: memory.NewTransactionManager(store), err: injected},
		UserRepo:  memory.NewUserRepository(store),
		RoleRepo:  memory.NewRoleRepository(store),
		Hasher:    plainHasher{},
		Logger:    newDiscardLogger(),
	})
	ctx := context.Background()

	_, err := service.CreateUser(ctx, createInput("uid-1"))
	assert.ErrorIs(t, err, domainerrors.ErrStorageUnavailable)

	_, err = service.GetUser(ctx, "uid-1")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	roles, err := service.GetRoles(ctx, "uid-1")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestUserService_CreateUser_Rejects(t *testing.T) {
	env := newTestEnv(false)
	ctx := context.Background()

	_, err := env.service.CreateUser(ctx, createInput(""))
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	input := createInput("uid-1")
	input.Password = strings.Repeat("p", 80)
	_, err = env.service.CreateUser(ctx, input)
	require.Error(t, err)

	_, err = env.service.GetUser(ctx, "uid-1")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestUserService_UpdateUserName(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	_, err := env.service.CreateUser(ctx, createInput("uid-1"))
	require.NoError(t, err)

	env.admin.On("UpdateDisplayName", mock.Anything, "uid-1", "Countess").Return(nil).Once()

	user, err := env.service.UpdateUserName(ctx, "uid-1", "Countess")
	require.NoError(t, err)
	assert.Equal(t, "Countess", user.Name)
	env.admin.AssertExpectations(t)

	_, err = env.service.UpdateUserName(ctx, "ghost", "x")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	env.admin.AssertNumberOfCalls(t, "UpdateDisplayName", 1)
}

func TestUserService_UpdateUserName_ProviderFailureKeepsLocalChange(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	_, err := env.service.CreateUser(ctx, createInput("uid-1"))
	require.NoError(t, err)

	env.admin.On("UpdateDisplayName", mock.Anything, "uid-1", "Countess").Return(domainerrors.ErrProviderUnavailable)

	user, err := env.service.UpdateUserName(ctx, "uid-1", "Countess")
	require.NoError(t, err)
	assert.Equal(t, "Countess", user.Name)
}

func TestUserService_ChangePassword(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	_, err := env.service.CreateUser(ctx, createInput("uid-1"))
	require.NoError(t, err)

	env.admin.On("ChangePassword", mock.Anything, "uid-1", "n3w-pass").Return(nil).Once()
	require.NoError(t, env.service.ChangePassword(ctx, "uid-1", "n3w-pass"))

	user, err := env.service.GetUser(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "hashed:n3w-pass", user.PasswordHash)

	env.admin.On("ChangePassword", mock.Anything, "uid-1", "rejected").Return(domainerrors.ErrProviderUnavailable).Once()
	err = env.service.ChangePassword(ctx, "uid-1", "rejected")
	assert.ErrorIs(t, err, domainerrors.ErrProviderUnavailable)

	user, err = env.service.GetUser(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "hashed:n3w-pass", user.PasswordHash)
}

func TestUserService_GrantRole(t *testing.T) {
	env := newTestEnv(false)
	ctx := context.Background()
	_, err := env.service.CreateUser(ctx, createInput("uid-1"))
	require.NoError(t, err)

	user, err := env.service.GrantRole(ctx, "uid-1", entity.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", user.ID)

	_, err = env.service.GrantRole(ctx, "uid-1", entity.RoleManager)
	require.NoError(t, err)

	roles, err := env.service.GetRoles(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, entity.Roles{entity.RoleUser, entity.RoleManager}, roles)

	_, err = env.service.GrantRole(ctx, "ghost", entity.RoleAdmin)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestUserService_DeleteUser(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	_, err := env.service.CreateUser(ctx, createInput("uid-1"))
	require.NoError(t, err)
	_, err = env.service.CreateUser(ctx, createInput("uid-2"))
	require.NoError(t, err)

	env.admin.On("DeleteUser", mock.Anything, "uid-1").Return(nil).Once()
	env.admin.On("DeleteUser", mock.Anything, "uid-2").Return(domainerrors.ErrUserNotFound).Once()

	require.NoError(t, env.service.DeleteUser(ctx, "uid-1"))
	require.NoError(t, env.service.DeleteUser(ctx, "uid-2"))

	_, err = env.service.GetUser(ctx, "uid-1")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	roles, err := env.service.GetRoles(ctx, "uid-1")
	require.NoError(t, err)
	assert.Empty(t, roles)

	err = env.service.DeleteUser(ctx, "uid-1")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	env.admin.AssertExpectations(t)
}
