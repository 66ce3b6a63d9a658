package graphql

import (
	"context"
	"log/slog"

	"github.com/graph-gophers/graphql-go"

	"intuitive/internal/delivery/api/validator"
	deliverycontext "intuitive/internal/delivery/context"
	"intuitive/internal/delivery/graphql/guard"
	"intuitive/internal/domain/entity"
	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/usecase"
)

// Resolver is the root of the schema. Query and mutation fields live on it.
type Resolver struct {
	usecase   usecase.UserUsecase
	guards    *guard.Guards
	validator *validator.Validator
	logger    *slog.Logger
}

func (r *Resolver) log(ctx context.Context) *slog.Logger {
	return deliverycontext.LoggerFromContext(ctx, r.logger)
}

// --- Query ---

func (r *Resolver) User(ctx context.Context) (*userResolver, error) {
	if err := guard.Run(ctx, r.guards.Authenticated(), r.guards.UserExists()); err != nil {
		return nil, r.toResolverError(ctx, err)
	}

	identity, _ := deliverycontext.IdentityFromContext(ctx)
	user, ok := identity.User()
	if !ok {
		return nil, r.toResolverError(ctx, domainerrors.ErrUserNotFound)
	}

	return r.newUserResolver(user), nil
}

func (r *Resolver) UserByID(ctx context.Context, args struct{ ID graphql.ID }) (*userResolver, error) {
	if err := guard.Run(ctx, r.guards.Authenticated(), r.guards.HasRole(entity.RoleManager)); err != nil {
		return nil, r.toResolverError(ctx, err)
	}

	user, err := r.usecase.GetUser(ctx, string(args.ID))
	if err != nil {
		return nil, r.toResolverError(ctx, err)
	}

	return r.newUserResolver(user), nil
}

// --- Mutation ---

type userInput struct {
	Name     string
	Email    string
	Password string
}

func (r *Resolver) CreateUser(ctx context.Context, args struct{ Input userInput }) (*userResolver, error) {
	if err := guard.Run(ctx, r.guards.Authenticated()); err != nil {
		return nil, r.toResolverError(ctx, err)
	}

	identity, _ := deliverycontext.IdentityFromContext(ctx)
	input := &usecase.CreateUserInput{
		SubjectID: identity.Subject(),
		Name:      args.Input.Name,
		Email:     args.Input.Email,
		Password:  args.Input.Password,
	}
	if err := r.validator.Validate(input); err != nil {
		return nil, r.toResolverError(ctx, err)
	}

	user, err := r.usecase.CreateUser(ctx, input)
	if err != nil {
		return nil, r.toResolverError(ctx, err)
	}

	return r.newUserResolver(user), nil
}

type updateUserNameInput struct {
	Name string `validate:"required,max=128"`
}

func (r *Resolver) UpdateUserName(ctx context.Context, args struct{ UserName string }) (*userResolver, error) {
	if err := guard.Run(ctx, r.guards.Authenticated(), r.guards.UserExists()); err != nil {
		return nil, r.toResolverError(ctx, err)
	}
	if err := r.validator.Validate(&updateUserNameInput{Name: args.UserName}); err != nil {
		return nil, r.toResolverError(ctx, err)
	}

	identity, _ := deliverycontext.IdentityFromContext(ctx)
	user, err := r.usecase.UpdateUserName(ctx, identity.Subject(), args.UserName)
	if err != nil {
		return nil, r.toResolverError(ctx, err)
	}
	identity.SetUser(user)

	return r.newUserResolver(user), nil
}

type changePasswordInput struct {
	Password string `validate:"required,min=6,max=72"`
}

func (r *Resolver) ChangePassword(ctx context.Context, args struct{ Password string }) (bool, error) {
	if err := guard.Run(ctx, r.guards.Authenticated(), r.guards.UserExists()); err != nil {
		return false, r.toResolverError(ctx, err)
	}
	if err := r.validator.Validate(&changePasswordInput{Password: args.Password}); err != nil {
		return false, r.toResolverError(ctx, err)
	}

	identity, _ := deliverycontext.IdentityFromContext(ctx)
	if err := r.usecase.ChangePassword(ctx, identity.Subject(), args.Password); err != nil {
		return false, r.toResolverError(ctx, err)
	}

	return true, nil
}

func (r *Resolver) GrantRole(ctx context.Context, args struct {
	UserID graphql.ID
	Role   string
}) (*userResolver, error) {
	if err := guard.Run(ctx, r.guards.Authenticated(), r.guards.HasRole(entity.RoleAdmin)); err != nil {
		return nil, r.toResolverError(ctx, err)
	}

	role, ok := entity.LookupRole(args.Role)
	if !ok {
		return nil, r.toResolverError(ctx, domainerrors.ErrValidationFailed.WithDetails("unknown role "+args.Role))
	}

	user, err := r.usecase.GrantRole(ctx, string(args.UserID), role)
	if err != nil {
		return nil, r.toResolverError(ctx, err)
	}

	return r.newUserResolver(user), nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args struct{ UserID graphql.ID }) (bool, error) {
	if err := guard.Run(ctx, r.guards.Authenticated(), r.guards.HasRole(entity.RoleAdmin)); err != nil {
		return false, r.toResolverError(ctx, err)
	}

	if err := r.usecase.DeleteUser(ctx, string(args.UserID)); err != nil {
		return false, r.toResolverError(ctx, err)
	}

	return true, nil
}
