package graphql

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deliverycontext "intuitive/internal/delivery/context"
	"intuitive/internal/delivery/credential"
)

// withIdentity mimics the identity middleware for handler tests.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := deliverycontext.WithIdentity(r.Context(), deliverycontext.NewIdentity())
		if token, ok := credential.FromHeader(r.Header); ok {
			ctx = deliverycontext.WithBearerToken(ctx, token)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *testServer) handler() *Handler {
	return NewHandler(HandlerParams{Config: s.cfg, Schema: s.schema, Logger: s.logger})
}

func TestHandler_HTTP(t *testing.T) {
	srv := newTestServer(t)
	token := srv.seedUser(t, "abc")
	h := withIdentity(srv.handler())

	body := strings.NewReader(`{"query":"{ user { id name } }"}`)
	req := httptest.NewRequest(http.MethodPost, "/graphql", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"user":{"id":"abc","name":"name-abc"}}}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ user { id } }"}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp struct {
		Errors []struct {
			Message    string         `json:"message"`
			Extensions map[string]any `json:"extensions"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "Unauthorized", resp.Errors[0].Message)
	assert.Equal(t, "UNAUTHORIZED", resp.Errors[0].Extensions["code"])
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{Subprotocols: []string{protocolGraphQLWS}}
	conn, resp, err := dialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	require.Equal(t, protocolGraphQLWS, conn.Subprotocol())

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func TestHandler_WebSocket(t *testing.T) {
	srv := newTestServer(t)
	token := srv.seedUser(t, "abc")
	httpSrv := httptest.NewServer(withIdentity(srv.handler()))
	defer httpSrv.Close()

	conn := dialWS(t, httpSrv.URL)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    msgConnectionInit,
		"payload": map[string]any{"Authorization": "Bearer " + token},
	}))
	assert.Equal(t, msgConnectionAck, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"id":      "1",
		"type":    msgStart,
		"payload": map[string]any{"query": "{ user { id } }"},
	}))

	data := readMessage(t, conn)
	assert.Equal(t, msgData, data.Type)
	assert.Equal(t, "1", data.ID)
	assert.JSONEq(t, `{"data":{"user":{"id":"abc"}}}`, string(data.Payload))

	complete := readMessage(t, conn)
	assert.Equal(t, msgComplete, complete.Type)
	assert.Equal(t, "1", complete.ID)
}

func TestHandler_WebSocket_Anonymous(t *testing.T) {
	srv := newTestServer(t)
	srv.seedUser(t, "abc")
	httpSrv := httptest.NewServer(withIdentity(srv.handler()))
	defer httpSrv.Close()

	conn := dialWS(t, httpSrv.URL)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"id":      "early",
		"type":    msgStart,
		"payload": map[string]any{"query": "{ user { id } }"},
	}))
	early := readMessage(t, conn)
	assert.Equal(t, msgError, early.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": msgConnectionInit}))
	assert.Equal(t, msgConnectionAck, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"id":      "2",
		"type":    msgStart,
		"payload": map[string]any{"query": "{ user { id } }"},
	}))

	data := readMessage(t, conn)
	require.Equal(t, msgData, data.Type)
	assert.Contains(t, string(data.Payload), `"UNAUTHORIZED"`)
	assert.Equal(t, msgComplete, readMessage(t, conn).Type)
}
