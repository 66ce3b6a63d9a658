package graphql

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/graph-gophers/graphql-go"

	deliverycontext "intuitive/internal/delivery/context"
	"intuitive/internal/delivery/credential"
)

const (
	protocolGraphQLWS = "graphql-ws"

	wsReadLimit    = 1 << 20
	wsWriteTimeout = 10 * time.Second
)

// graphql-ws message types.
const (
	msgConnectionInit      = "connection_init"
	msgConnectionAck       = "connection_ack"
	msgConnectionError     = "connection_error"
	msgConnectionTerminate = "connection_terminate"
	msgStart               = "start"
	msgStop                = "stop"
	msgData                = "data"
	msgError               = "error"
	msgComplete            = "complete"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsOperation struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type wsHandler struct {
	schema   *graphql.Schema
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := deliverycontext.LoggerFromContext(r.Context(), h.logger)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("websocket upgrade failed", slog.Any("error", err))

		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)

	session := &wsSession{
		conn:   conn,
		schema: h.schema,
		logger: logger,
		ops:    make(map[string]*wsRunning),
	}
	session.run(r.Context())
}

// wsSession is one graphql-ws connection. Operations run concurrently; each
// gets a fresh Identity cell and the token from connection_init.
type wsSession struct {
	conn   *websocket.Conn
	schema *graphql.Schema
	logger *slog.Logger

	writeMu sync.Mutex

	opsMu sync.Mutex
	ops   map[string]*wsRunning
}

type wsRunning struct {
	cancel context.CancelFunc
}

func (s *wsSession) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	initialized := false
	token, hasToken := deliverycontext.BearerTokenFromContext(ctx)

	for {
		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", slog.Any("error", err))
			}

			return
		}

		switch msg.Type {
		case msgConnectionInit:
			var payload map[string]any
			if len(msg.Payload) > 0 {
				if err := json.Unmarshal(msg.Payload, &payload); err != nil {
					s.send(wsMessage{Type: msgConnectionError, Payload: errorPayload("invalid connection_init payload")})

					return
				}
			}
			if t, ok := credential.FromConnectionInit(payload); ok {
				token, hasToken = t, true
			}
			initialized = true
			s.send(wsMessage{Type: msgConnectionAck})

		case msgStart:
			if !initialized {
				s.send(wsMessage{ID: msg.ID, Type: msgError, Payload: errorPayload("connection not initialized")})

				continue
			}

			var op wsOperation
			if err := json.Unmarshal(msg.Payload, &op); err != nil || op.Query == "" {
				s.send(wsMessage{ID: msg.ID, Type: msgError, Payload: errorPayload("invalid operation payload")})

				continue
			}

			opCtx := deliverycontext.WithIdentity(ctx, deliverycontext.NewIdentity())
			if hasToken {
				opCtx = deliverycontext.WithBearerToken(opCtx, token)
			} else {
				opCtx = deliverycontext.WithBearerToken(opCtx, "")
			}
			opCtx, opCancel := context.WithCancel(opCtx)
			running := s.track(msg.ID, opCancel)

			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				defer s.finish(id, running)
				s.execute(opCtx, id, op)
			}(msg.ID)

		case msgStop:
			s.stop(msg.ID)

		case msgConnectionTerminate:
			return

		default:
			s.send(wsMessage{ID: msg.ID, Type: msgError, Payload: errorPayload("unknown message type " + msg.Type)})
		}
	}
}

func (s *wsSession) execute(ctx context.Context, id string, op wsOperation) {
	resp := s.schema.Exec(ctx, op.Query, op.OperationName, op.Variables)
	if ctx.Err() != nil {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode graphql response", slog.Any("error", err))
		s.send(wsMessage{ID: id, Type: msgError, Payload: errorPayload("internal error")})

		return
	}

	s.send(wsMessage{ID: id, Type: msgData, Payload: payload})
	s.send(wsMessage{ID: id, Type: msgComplete})
}

// track registers an operation, cancelling any earlier one reusing its id.
func (s *wsSession) track(id string, cancel context.CancelFunc) *wsRunning {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if prev, ok := s.ops[id]; ok {
		prev.cancel()
	}
	running := &wsRunning{cancel: cancel}
	s.ops[id] = running

	return running
}

func (s *wsSession) stop(id string) {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if running, ok := s.ops[id]; ok {
		running.cancel()
		delete(s.ops, id)
	}
}

func (s *wsSession) finish(id string, running *wsRunning) {
	running.cancel()

	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if s.ops[id] == running {
		delete(s.ops, id)
	}
}

func (s *wsSession) send(msg wsMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug("websocket write failed", slog.Any("error", err))
	}
}

func errorPayload(message string) json.RawMessage {
	payload, _ := json.Marshal(map[string]string{"message": message})

	return payload
}
