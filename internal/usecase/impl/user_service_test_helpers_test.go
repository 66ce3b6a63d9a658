package impl

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"intuitive/internal/domain/entity"
	"intuitive/internal/domain/repository"
	"intuitive/internal/infra/persistence/memory"
	"intuitive/internal/usecase"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// plainHasher keeps tests fast; bcrypt itself is covered in infra/auth.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	if len(password) > 72 {
		return "", bcrypt.ErrPasswordTooLong
	}

	return "hashed:" + password, nil
}

func (plainHasher) Check(password, hash string) bool { return hash == "hashed:"+password }

type mockIdentityAdmin struct {
	mock.Mock
}

func (m *mockIdentityAdmin) UpdateDisplayName(ctx context.Context, subjectID, name string) error {
	return m.Called(ctx, subjectID, name).Error(0)
}

func (m *mockIdentityAdmin) ChangePassword(ctx context.Context, subjectID, password string) error {
	return m.Called(ctx, subjectID, password).Error(0)
}

func (m *mockIdentityAdmin) DeleteUser(ctx context.Context, subjectID string) error {
	return m.Called(ctx, subjectID).Error(0)
}

type testEnv struct {
	store   *memory.Store
	service usecase.UserUsecase
	admin   *mockIdentityAdmin
}

func newTestEnv(withAdmin bool) *testEnv {
	store := memory.NewStore()
	env := &testEnv{store: store}

	params := UserServiceParams{
		TxManager: memory.NewTransactionManager(store),
		UserRepo:  memory.NewUserRepository(store),
		RoleRepo:  memory.NewRoleRepository(store),
		Hasher:    plainHasher{},
		Logger:    newDiscardLogger(),
	}
	if withAdmin {
		env.admin = &mockIdentityAdmin{}
		params.Admin = env.admin
	}
	env.service = NewUserService(params)

	return env
}

// failingRoleTx wraps a transaction manager so role inserts fail inside the transaction.
type failingRoleTx struct {
	inner repository.TransactionManager
	err   error
}

func (f *failingRoleTx) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	return f.inner.Execute(ctx, func(factory repository.RepositoryFactory) error {
		return fn(&failingRoleFactory{RepositoryFactory: factory, err: f.err})
	})
}

type failingRoleFactory struct {
	repository.RepositoryFactory
	err error
}

func (f *failingRoleFactory) RoleRepo() repository.RoleRepository {
	return failingRoleRepo{err: f.err}
}

type failingRoleRepo struct {
	err error
}

func (r failingRoleRepo) FindByUserID(context.Context, string) (entity.Roles, error) {
	return nil, r.err
}

func (r failingRoleRepo) Create(context.Context, string, entity.Role) error {
	return r.err
}
