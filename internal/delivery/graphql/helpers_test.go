package graphql

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/require"

	"intuitive/config"
	"intuitive/internal/delivery/api/validator"
	deliverycontext "intuitive/internal/delivery/context"
	"intuitive/internal/delivery/graphql/guard"
	"intuitive/internal/domain/entity"
	domainerrors "intuitive/internal/domain/errors"
	"intuitive/internal/infra/persistence/memory"
	"intuitive/internal/usecase"
	"intuitive/internal/usecase/impl"
)

// fakeVerifier accepts tokens of the form "token-<subject>" registered with allow.
type fakeVerifier struct {
	mu       sync.Mutex
	subjects map[string]string
	calls    int
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{subjects: make(map[string]string)}
}

func (f *fakeVerifier) allow(subject string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	token := "token-" + subject
	f.subjects[token] = subject

	return token
}

func (f *fakeVerifier) VerifyToken(_ context.Context, idToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	subject, ok := f.subjects[idToken]
	if !ok {
		return "", domainerrors.ErrUnauthorized
	}

	return subject, nil
}

func (f *fakeVerifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Check(password, hash string) bool    { return hash == "hashed:"+password }

type testServer struct {
	schema   *graphql.Schema
	verifier *fakeVerifier
	users    usecase.UserUsecase
	cfg      *config.Config
	logger   *slog.Logger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	users := impl.NewUserService(impl.UserServiceParams{
		TxManager: memory.NewTransactionManager(store),
		UserRepo:  memory.NewUserRepository(store),
		RoleRepo:  memory.NewRoleRepository(store),
		Hasher:    plainHasher{},
		Logger:    logger,
	})
	verifier := newFakeVerifier()

	cfg := &config.Config{
		GraphQL: &config.GraphQLConfig{Path: "/graphql", MaxParallelism: 4},
		CORS:    &config.CORSConfig{},
	}

	schema, err := NewSchema(Params{
		Config:    cfg,
		Usecase:   users,
		Guards:    guard.NewGuards(guard.Params{Verifier: verifier, Store: users, Logger: logger}),
		Validator: validator.New(),
		Logger:    logger,
	})
	require.NoError(t, err)

	return &testServer{schema: schema, verifier: verifier, users: users, cfg: cfg, logger: logger}
}

// seedUser stores a user directly and grants the extra roles.
func (s *testServer) seedUser(t *testing.T, subject string, roles ...entity.Role) string {
	t.Helper()

	ctx := context.Background()
	_, err := s.users.CreateUser(ctx, &usecase.CreateUserInput{
		SubjectID: subject,
		Name:      "name-" + subject,
		Email:     subject + "@example.com",
		Password:  "s3cret!",
	})
	require.NoError(t, err)

	for _, role := range roles {
		_, err := s.users.GrantRole(ctx, subject, role)
		require.NoError(t, err)
	}

	return s.verifier.allow(subject)
}

func (s *testServer) exec(token, query string, variables map[string]interface{}) *graphql.Response {
	ctx := deliverycontext.WithIdentity(context.Background(), deliverycontext.NewIdentity())
	if token != "" {
		ctx = deliverycontext.WithBearerToken(ctx, token)
	}

	return s.schema.Exec(ctx, query, "", variables)
}

func errorCodes(resp *graphql.Response) []string {
	codes := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		code, _ := e.Extensions["code"].(string)
		codes = append(codes, code)
	}

	return codes
}

func decodeData(t *testing.T, resp *graphql.Response, out any) {
	t.Helper()

	require.Empty(t, resp.Errors)
	require.NoError(t, json.Unmarshal(resp.Data, out))
}
