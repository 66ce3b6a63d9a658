package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"intuitive/config"
	"intuitive/internal/delivery"
	"intuitive/internal/delivery/api"
	apimiddleware "intuitive/internal/delivery/api/middleware"
	"intuitive/internal/delivery/api/validator"
	"intuitive/internal/delivery/graphql"
	"intuitive/internal/delivery/graphql/guard"
	"intuitive/internal/infra/auth"
	"intuitive/internal/infra/auth/firebase"
	"intuitive/internal/infra/auth/jwks"
	logs "intuitive/internal/infra/log"
	"intuitive/internal/infra/persistence/memory"
	"intuitive/internal/infra/persistence/postgres"
	"intuitive/internal/usecase"
	"intuitive/internal/usecase/impl"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GraphQL HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp(cfg)
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()

		return nil
	},
}

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func newApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		injectInfra(cfg),
		injectRepo(cfg),
		injectIdentity(cfg),
		injectUsecase(),
		injectMiddleware(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	)
}

func injectInfra(cfg *config.Config) fx.Option {
	return fx.Provide(
		func() *config.Config { return cfg },
		logs.New,
		context.Background,
	)
}

func injectRepo(cfg *config.Config) fx.Option {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return fx.Provide(
			memory.NewStore,
			memory.NewUserRepository,
			memory.NewRoleRepository,
			memory.NewTransactionManager,
		)
	}

	return fx.Provide(
		postgres.New,
		postgres.NewUserRepository,
		postgres.NewRoleRepository,
		postgres.NewTransactionManager,
	)
}

// injectIdentity selects the token verifier. The jwks verifier needs no
// credentials; provider-side account sync is wired only when they exist.
func injectIdentity(cfg *config.Config) fx.Option {
	options := []fx.Option{
		fx.Provide(auth.NewBcryptHasher),
	}

	switch cfg.Firebase.Verifier {
	case config.VerifierJWKS:
		options = append(options, fx.Provide(jwks.NewVerifier))
		if cfg.Firebase.CredentialsPath != "" {
			options = append(options, fx.Provide(firebase.NewAuthClient, firebase.NewIdentityAdmin))
		}
	default:
		options = append(options, fx.Provide(
			firebase.NewAuthClient,
			firebase.NewTokenVerifier,
			firebase.NewIdentityAdmin,
		))
	}

	return fx.Options(options...)
}

func injectUsecase() fx.Option {
	return fx.Provide(
		impl.NewUserService,
		newGuardStore,
	)
}

// newGuardStore exposes the user use case as the store read by guards.
func newGuardStore(users usecase.UserUsecase) guard.Store {
	return users
}

func injectMiddleware() fx.Option {
	return fx.Provide(
		apimiddleware.NewIdentityMiddleware,
		guard.NewGuards,
		validator.New,
	)
}

func injectDelivery() fx.Option {
	return fx.Provide(
		graphql.NewSchema,
		fx.Annotate(
			func(params graphql.HandlerParams) http.Handler { return graphql.NewHandler(params) },
			fx.ResultTags(`name:"graphql"`),
		),
		fx.Annotate(
			api.NewServer,
			fx.ResultTags(`group:"deliveries"`),
		),
	)
}

func startServer(ctx context.Context, logger *slog.Logger, params startServerParams) {
	for _, d := range params.Deliveries {
		go func() {
			if err := d.Serve(ctx); err != nil {
				logger.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
