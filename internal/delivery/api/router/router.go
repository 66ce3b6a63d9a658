// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"intuitive/config"
	"intuitive/internal/delivery/api/middleware"
	"intuitive/internal/delivery/api/router/handler"
	"intuitive/internal/errors"
)

type RouterParams struct {
	fx.In

	Config             *config.Config
	GraphQL            http.Handler `name:"graphql"`
	IdentityMiddleware *middleware.IdentityMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	config   *config.Config
	graphql  http.Handler
	identity *middleware.IdentityMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		config:   params.Config,
		graphql:  params.GraphQL,
		identity: params.IdentityMiddleware,
	}
}

// RegisterRoutes sets up all the routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) error {
	e.GET("/health", handler.HealthCheck)

	// GET carries WebSocket upgrades; POST carries plain GraphQL requests.
	path := r.config.GraphQL.Path
	graphqlHandler := echo.WrapHandler(r.graphql)
	e.POST(path, graphqlHandler, r.identity.Process)
	e.GET(path, graphqlHandler, r.identity.Process)

	if r.config.GraphQL.Playground {
		playground, err := handler.NewPlaygroundHandler(path)
		if err != nil {
			return errors.WithStack(err)
		}
		e.GET("/", playground.Serve)
	}

	return nil
}
