package graphql

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"go.uber.org/fx"

	"intuitive/config"
)

// HandlerParams holds dependencies for the GraphQL HTTP handler, injected by Fx.
type HandlerParams struct {
	fx.In

	Config *config.Config
	Schema *graphql.Schema
	Logger *slog.Logger
}

// Handler serves GraphQL over HTTP POST and over the graphql-ws WebSocket protocol.
type Handler struct {
	relay *relay.Handler
	ws    *wsHandler
}

// NewHandler creates the GraphQL handler. The request context must already
// carry the Identity cell and bearer token placed by the identity middleware.
func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		relay: &relay.Handler{Schema: params.Schema},
		ws: &wsHandler{
			schema: params.Schema,
			logger: params.Logger,
			upgrader: websocket.Upgrader{
				Subprotocols: []string{protocolGraphQLWS},
				CheckOrigin:  checkOrigin(params.Config.CORS.AllowOrigins),
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		h.ws.ServeHTTP(w, r)

		return
	}

	h.relay.ServeHTTP(w, r)
}

// checkOrigin accepts the configured CORS origins. With none configured the
// upgrader falls back to its same-origin check.
func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}
