// Package guard implements the authorization checks that run before a
// resolver touches any business logic. Guards are composed into chains that
// are evaluated left to right and stop at the first failure.
package guard

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/fx"

	deliverycontext "intuitive/internal/delivery/context"
	"intuitive/internal/domain/entity"
	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/domain/service"
	"intuitive/internal/errors"
)

// Guard is a single authorization predicate over the request context.
type Guard interface {
	Name() string
	Check(ctx context.Context) error
}

// Store is the read side of the role/identity store consulted by guards.
type Store interface {
	GetUser(ctx context.Context, subjectID string) (*entity.User, error)
	GetRoles(ctx context.Context, subjectID string) (entity.Roles, error)
}

type guardFunc struct {
	name  string
	check func(ctx context.Context) error
}

func (g guardFunc) Name() string                    { return g.name }
func (g guardFunc) Check(ctx context.Context) error { return g.check(ctx) }

// New wraps a check function as a named Guard.
func New(name string, check func(ctx context.Context) error) Guard {
	return guardFunc{name: name, check: check}
}

// Chain composes guards into one Guard that evaluates them in order and
// returns the first failure. An empty chain always passes.
func Chain(guards ...Guard) Guard {
	names := make([]string, 0, len(guards))
	for _, g := range guards {
		names = append(names, g.Name())
	}

	return guardFunc{
		name: strings.Join(names, "+"),
		check: func(ctx context.Context) error {
			return Run(ctx, guards...)
		},
	}
}

// Run evaluates guards left to right. Later guards are never invoked once one fails.
func Run(ctx context.Context, guards ...Guard) error {
	for _, g := range guards {
		if err := g.Check(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Guards builds the concrete guards over the injected verifier and store.
type Guards struct {
	verifier service.TokenVerifier
	store    Store
	logger   *slog.Logger
}

// Params holds dependencies for Guards, injected by Fx.
type Params struct {
	fx.In

	Verifier service.TokenVerifier
	Store    Store
	Logger   *slog.Logger
}

// NewGuards creates the guard factory.
func NewGuards(params Params) *Guards {
	return &Guards{
		verifier: params.Verifier,
		store:    params.Store,
		logger:   params.Logger,
	}
}

func (g *Guards) log(ctx context.Context) *slog.Logger {
	return deliverycontext.LoggerFromContext(ctx, g.logger)
}

// Authenticated verifies the bearer credential and records the subject.
func (g *Guards) Authenticated() Guard {
	return New("authenticated", func(ctx context.Context) error {
		identity, ok := deliverycontext.IdentityFromContext(ctx)
		if !ok {
			return domainerrors.ErrUnauthorized
		}

		token, ok := deliverycontext.BearerTokenFromContext(ctx)
		if !ok {
			return domainerrors.ErrUnauthorized
		}

		subject, err := g.verifier.VerifyToken(ctx, token)
		if err != nil {
			g.log(ctx).Debug("token verification failed", slog.Any("error", err))

			return domainerrors.ErrUnauthorized
		}
		if subject == "" {
			return domainerrors.ErrUnauthorized
		}

		identity.SetSubject(subject)

		return nil
	})
}

// UserExists requires a stored user for the verified subject and caches it in the identity cell.
func (g *Guards) UserExists() Guard {
	return New("user_exists", func(ctx context.Context) error {
		identity, subject, err := subjectFromContext(ctx)
		if err != nil {
			return err
		}

		user, err := g.store.GetUser(ctx, subject)
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		identity.SetUser(user)

		return nil
	})
}

// HasRole requires the verified subject to hold exactly the given role.
// Roles are not hierarchical.
func (g *Guards) HasRole(role entity.Role) Guard {
	return New("role:"+role.String(), func(ctx context.Context) error {
		_, subject, err := subjectFromContext(ctx)
		if err != nil {
			return err
		}

		roles, err := g.store.GetRoles(ctx, subject)
		if err != nil {
			return err
		}
		if !roles.Contains(role) {
			g.log(ctx).Debug("role check failed",
				slog.String("required", role.String()),
				slog.Any("held", roles.ToStrings()))

			return domainerrors.ErrForbidden
		}

		return nil
	})
}

func subjectFromContext(ctx context.Context) (*deliverycontext.Identity, string, error) {
	identity, ok := deliverycontext.IdentityFromContext(ctx)
	if !ok {
		return nil, "", domainerrors.ErrUnauthorized
	}

	subject := identity.Subject()
	if subject == "" {
		return nil, "", domainerrors.ErrUnauthorized
	}

	return identity, subject, nil
}
