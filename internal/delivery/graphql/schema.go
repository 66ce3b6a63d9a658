// Package graphql exposes the user API over GraphQL. Every root field runs
// its guard chain before touching the use case layer.
package graphql

import (
	"context"
	_ "embed"
	"log/slog"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/fx"

	"intuitive/config"
	"intuitive/internal/delivery/api/validator"
	deliverycontext "intuitive/internal/delivery/context"
	"intuitive/internal/delivery/graphql/guard"
	"intuitive/internal/errors"
	"intuitive/internal/usecase"
)

//go:embed schema.graphql
var schemaSDL string

// Params holds dependencies for the GraphQL schema, injected by Fx.
type Params struct {
	fx.In

	Config    *config.Config
	Usecase   usecase.UserUsecase
	Guards    *guard.Guards
	Validator *validator.Validator
	Logger    *slog.Logger
}

// NewSchema parses the embedded SDL against the root resolver.
func NewSchema(params Params) (*graphql.Schema, error) {
	root := &Resolver{
		usecase:   params.Usecase,
		guards:    params.Guards,
		validator: params.Validator,
		logger:    params.Logger,
	}

	parallelism := params.Config.GraphQL.MaxParallelism
	if parallelism <= 0 {
		parallelism = 10
	}

	schema, err := graphql.ParseSchema(schemaSDL, root,
		graphql.UseFieldResolvers(),
		graphql.MaxParallelism(parallelism),
		graphql.Logger(panicLogger{logger: params.Logger}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "parse graphql schema")
	}

	return schema, nil
}

// panicLogger reports resolver panics through slog.
type panicLogger struct {
	logger *slog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	deliverycontext.LoggerFromContext(ctx, l.logger).Error("graphql resolver panic", slog.Any("panic", value))
}
