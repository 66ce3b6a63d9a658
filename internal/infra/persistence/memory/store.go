// Package memory is an in-process implementation of the persistence layer.
// It backs the service in local development and in tests; transactions work
// on a private copy of the data that replaces the shared state on commit.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"intuitive/internal/domain/entity"
	"intuitive/internal/domain/repository"
	"intuitive/internal/errors"
)

type roleGrant struct {
	role      entity.Role
	grantedAt time.Time
}

type snapshot struct {
	users map[string]*entity.User
	roles map[string][]roleGrant
}

func newSnapshot() *snapshot {
	return &snapshot{
		users: make(map[string]*entity.User),
		roles: make(map[string][]roleGrant),
	}
}

func (s *snapshot) clone() *snapshot {
	c := newSnapshot()
	for id, u := range s.users {
		c.users[id] = u.Clone()
	}
	for id, grants := range s.roles {
		c.roles[id] = slices.Clone(grants)
	}

	return c
}

// Store holds users and roles in memory.
type Store struct {
	mu   sync.RWMutex
	data *snapshot
	now  func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data: newSnapshot(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// NewUserRepository returns a user repository over the shared state.
func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{store: s, view: s.sharedView()}
}

// NewRoleRepository returns a role repository over the shared state.
func NewRoleRepository(s *Store) repository.RoleRepository {
	return &roleRepository{store: s, view: s.sharedView()}
}

// NewTransactionManager returns a transaction manager for the store.
func NewTransactionManager(s *Store) repository.TransactionManager {
	return &transactionManager{store: s}
}

// view abstracts locking so the same repositories serve both the shared
// state and a transaction's private copy.
type view interface {
	read(fn func(*snapshot) error) error
	write(fn func(*snapshot) error) error
}

type sharedView struct {
	s *Store
}

func (s *Store) sharedView() view { return sharedView{s: s} }

func (v sharedView) read(fn func(*snapshot) error) error {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	return fn(v.s.data)
}

func (v sharedView) write(fn func(*snapshot) error) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	// Mutate a copy so a failing write leaves the shared state untouched.
	working := v.s.data.clone()
	if err := fn(working); err != nil {
		return err
	}
	v.s.data = working

	return nil
}

// txView is used while the transaction manager holds the store lock.
type txView struct {
	data *snapshot
}

func (v txView) read(fn func(*snapshot) error) error  { return fn(v.data) }
func (v txView) write(fn func(*snapshot) error) error { return fn(v.data) }

type transactionManager struct {
	store *Store
}

type repositoryFactory struct {
	store *Store
	view  view
}

func (f *repositoryFactory) UserRepo() repository.UserRepository {
	return &userRepository{store: f.store, view: f.view}
}

func (f *repositoryFactory) RoleRepo() repository.RoleRepository {
	return &roleRepository{store: f.store, view: f.view}
}

// Execute serializes transactions behind the store lock. Writes go to a copy
// that replaces the shared state only when fn returns nil.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.store.mu.Lock()
	defer tm.store.mu.Unlock()

	working := tm.store.data.clone()
	if err := fn(&repositoryFactory{store: tm.store, view: txView{data: working}}); err != nil {
		return err
	}
	tm.store.data = working

	return nil
}

type userRepository struct {
	store *Store
	view  view
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out *entity.User
	err := r.view.read(func(s *snapshot) error {
		u, ok := s.users[id]
		if !ok {
			return repository.ErrUserNotFound
		}
		out = u.Clone()

		return nil
	})

	return out, err
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.view.write(func(s *snapshot) error {
		if _, ok := s.users[user.ID]; ok {
			return errors.Wrap(repository.ErrUserConflict, "create user")
		}
		for _, existing := range s.users {
			if existing.Email == user.Email {
				return errors.Wrap(repository.ErrUserConflict, "email already exists")
			}
		}

		now := r.store.now()
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		if user.UpdatedAt.IsZero() {
			user.UpdatedAt = now
		}
		s.users[user.ID] = user.Clone()

		return nil
	})
}

func (r *userRepository) UpdateName(ctx context.Context, id, name string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out *entity.User
	err := r.view.write(func(s *snapshot) error {
		u, ok := s.users[id]
		if !ok {
			return repository.ErrUserNotFound
		}
		u.Name = name
		u.UpdatedAt = r.store.now()
		out = u.Clone()

		return nil
	})

	return out, err
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.view.write(func(s *snapshot) error {
		u, ok := s.users[id]
		if !ok {
			return repository.ErrUserNotFound
		}
		u.PasswordHash = passwordHash
		u.UpdatedAt = r.store.now()

		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.view.write(func(s *snapshot) error {
		if _, ok := s.users[id]; !ok {
			return repository.ErrUserNotFound
		}
		delete(s.users, id)
		delete(s.roles, id)

		return nil
	})
}

type roleRepository struct {
	store *Store
	view  view
}

func (r *roleRepository) FindByUserID(ctx context.Context, userID string) (entity.Roles, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roles := entity.Roles{}
	err := r.view.read(func(s *snapshot) error {
		for _, g := range s.roles[userID] {
			roles = append(roles, g.role)
		}

		return nil
	})

	return roles, err
}

func (r *roleRepository) Create(ctx context.Context, userID string, role entity.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.view.write(func(s *snapshot) error {
		if _, ok := s.users[userID]; !ok {
			return errors.Wrap(repository.ErrUserNotFound, "grant role")
		}
		for _, g := range s.roles[userID] {
			if g.role == role {
				return nil
			}
		}
		s.roles[userID] = append(s.roles[userID], roleGrant{role: role, grantedAt: r.store.now()})

		return nil
	})
}
