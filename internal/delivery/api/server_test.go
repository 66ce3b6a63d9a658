package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intuitive/config"
	apimiddleware "intuitive/internal/delivery/api/middleware"
	"intuitive/internal/delivery/api/router"
	"intuitive/internal/delivery/api/validator"
	deliverycontext "intuitive/internal/delivery/context"
)

type seenRequest struct {
	HasIdentity bool   `json:"hasIdentity"`
	HasToken    bool   `json:"hasToken"`
	Token       string `json:"token"`
	RequestID   string `json:"requestId"`
}

// echoIdentity reports what the middlewares placed in the request context.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, hasIdentity := deliverycontext.IdentityFromContext(r.Context())
	token, hasToken := deliverycontext.BearerTokenFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(seenRequest{
		HasIdentity: hasIdentity,
		HasToken:    hasToken,
		Token:       token,
		RequestID:   deliverycontext.RequestIDFromContext(r.Context()),
	})
})

func newTestEcho(t *testing.T, playground bool) *echo.Echo {
	t.Helper()

	cfg := &config.Config{
		GraphQL: &config.GraphQLConfig{Path: "/graphql", Playground: playground, MaxParallelism: 4},
		CORS:    &config.CORSConfig{AllowOrigins: []string{"http://localhost:5173"}},
	}
	cfg.HTTP.MaxRequestBodySize = "100KB"

	e, err := NewEcho(ServerParams{
		Cfg:       cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Validator: validator.New(),
		RouterParams: router.RouterParams{
			Config:             cfg,
			GraphQL:            echoIdentity,
			IdentityMiddleware: apimiddleware.NewIdentityMiddleware(),
		},
	})
	require.NoError(t, err)

	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestHealth(t *testing.T) {
	e := newTestEcho(t, false)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(deliverycontext.HeaderXRequestID))

	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Data["status"])
}

func TestGraphQLRoute_IdentityContext(t *testing.T) {
	e := newTestEcho(t, false)

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ user { id } }"}`))
	req.Header.Set("Authorization", "Bearer tok-123")
	req.Header.Set(deliverycontext.HeaderXRequestID, "req-1")
	rec := serve(e, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var seen seenRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seen))
	assert.Equal(t, seenRequest{HasIdentity: true, HasToken: true, Token: "tok-123", RequestID: "req-1"}, seen)
	assert.Equal(t, "req-1", rec.Header().Get(deliverycontext.HeaderXRequestID))

	req = httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer")
	rec = serve(e, req)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seen))
	assert.True(t, seen.HasIdentity)
	assert.False(t, seen.HasToken)
}

func TestPlayground(t *testing.T) {
	rec := serve(newTestEcho(t, false), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(newTestEcho(t, true), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/graphql")
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	rec := serve(newTestEcho(t, false), httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "HTTP_ERROR", body.Error.Code)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	e := newTestEcho(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(e, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
