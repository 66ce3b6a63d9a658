package graphql

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"intuitive/internal/domain/entity"
)

// userResolver exposes a user record. The password hash has no field.
type userResolver struct {
	root *Resolver
	user *entity.User
}

func (r *Resolver) newUserResolver(user *entity.User) *userResolver {
	return &userResolver{root: r, user: user}
}

func (u *userResolver) ID() graphql.ID {
	return graphql.ID(u.user.ID)
}

func (u *userResolver) Name() string {
	return u.user.Name
}

func (u *userResolver) Email() string {
	return u.user.Email
}

func (u *userResolver) Roles(ctx context.Context) ([]string, error) {
	roles, err := u.root.usecase.GetRoles(ctx, u.user.ID)
	if err != nil {
		return nil, u.root.toResolverError(ctx, err)
	}

	return roles.ToStrings(), nil
}

func (u *userResolver) CreatedAt() graphql.Time {
	return graphql.Time{Time: u.user.CreatedAt}
}

func (u *userResolver) UpdatedAt() graphql.Time {
	return graphql.Time{Time: u.user.UpdatedAt}
}
