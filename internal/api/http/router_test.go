package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/cache"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/service"
	"github.com/spec-kit/account-service/internal/worker"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

type testServer struct {
	app      *fiber.App
	users    repository.UserRepository
	accounts repository.AccountRepository
	tokens   *auth.TokenManager
}

// storeSpy counts every user store call.
type storeSpy struct {
	repository.UserRepository
	calls int
}

func (s *storeSpy) Update(ctx context.Context, id string, patch domain.UserPatch) error {
	s.calls++
	return s.UserRepository.Update(ctx, id, patch)
}

func newTestServer(t *testing.T, users repository.UserRepository) *testServer {
	t.Helper()
	cfg := config.Config{
		App:  config.AppConfig{Name: "account-service", Version: "test"},
		Auth: config.AuthConfig{JWTSecret: "test-secret", BcryptCost: bcrypt.MinCost},
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	accounts := repository.NewMemoryAccountRepository()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	searchCache := cache.NewSearchCache(rdb, time.Minute)
	worker.StartSearchCacheWorker(dispatcher, searchCache, logger)

	authService, err := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:    users,
		AccountRepo: accounts,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	require.NoError(t, err)
	userService := service.NewUserService(cfg, service.UserDependencies{
		UserRepo:    users,
		AccountRepo: accounts,
		SearchCache: searchCache,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics),
		Users:          handlers.NewUsersHandler(authService, userService),
		Accounts:       handlers.NewAccountHandler(userService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
	})
	return &testServer{app: app, users: users, accounts: accounts, tokens: authService.TokenManager()}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func signupBody() map[string]string {
	return map[string]string{"username": "a@example.com", "firstName": "A", "lastName": "B", "password": "pw1"}
}

func TestEndToEnd_SignupSearchUpdate(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryUserRepository())

	status, body := s.do(t, http.MethodPost, "/api/v1/user/signup", "", signupBody())
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, handlers.MsgUserCreated, body["message"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	status, body = s.do(t, http.MethodGet, "/api/v1/user/bulk?filter=A", "", nil)
	require.Equal(t, http.StatusOK, status)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	first := users[0].(map[string]any)
	assert.Equal(t, "A", first["firstName"])
	assert.Equal(t, "a@example.com", first["username"])
	assert.NotEmpty(t, first["id"])
	assert.NotContains(t, first, "password")
	assert.NotContains(t, first, "passwordHash")

	status, body = s.do(t, http.MethodPut, "/api/v1/user", token, map[string]string{"firstName": "Z"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, service.MsgUserUpdated, body["message"])

	// the earlier cached result for "" or "A" must not be served
	status, body = s.do(t, http.MethodGet, "/api/v1/user/bulk", "", nil)
	require.Equal(t, http.StatusOK, status)
	users = body["users"].([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "Z", users[0].(map[string]any)["firstName"])
}

func TestSignup_IdentityAccountPairing(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryUserRepository())

	status, body := s.do(t, http.MethodPost, "/api/v1/user/signup", "", signupBody())
	require.Equal(t, http.StatusCreated, status)
	token := body["token"].(string)

	subject, err := s.tokens.SubjectFromToken(token)
	require.NoError(t, err)
	account, err := s.accounts.GetByUserID(context.Background(), subject)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, account.Balance, domain.InitialBalanceMin)
	assert.Less(t, account.Balance, domain.InitialBalanceMax)

	status, body = s.do(t, http.MethodGet, "/api/v1/account/balance", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, account.Balance, body["balance"])
}

func TestSignup_Errors(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryUserRepository())

	status, _ := s.do(t, http.MethodPost, "/api/v1/user/signup", "", signupBody())
	require.Equal(t, http.StatusCreated, status)

	dup := signupBody()
	dup["firstName"] = "Different"
	status, body := s.do(t, http.MethodPost, "/api/v1/user/signup", "", dup)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, service.MsgUserExists, body["message"])
	assert.Equal(t, apperrors.CodeConflict, body["code"])

	bad := signupBody()
	bad["username"] = "nope"
	status, body = s.do(t, http.MethodPost, "/api/v1/user/signup", "", bad)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, service.MsgInvalidSignup, body["message"])
	assert.Contains(t, body["details"], "username")

	status, body = s.do(t, http.MethodPost, "/api/v1/user/signup", "", `{"username": 5}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, service.MsgInvalidSignup, body["message"])

	missing := signupBody()
	delete(missing, "lastName")
	missing["username"] = "m@example.com"
	status, body = s.do(t, http.MethodPost, "/api/v1/user/signup", "", missing)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["details"], "lastName")
}

func TestSignup_EmptyStringsAreValid(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryUserRepository())

	body := map[string]string{"username": "e@example.com", "firstName": "", "lastName": "", "password": ""}
	status, _ := s.do(t, http.MethodPost, "/api/v1/user/signup", "", body)
	assert.Equal(t, http.StatusCreated, status)
}

func TestSignin(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryUserRepository())
	status, _ := s.do(t, http.MethodPost, "/api/v1/user/signup", "", signupBody())
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(t, http.MethodPost, "/api/v1/user/signin", "", map[string]string{"username": "a@example.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, wrongPass := s.do(t, http.MethodPost, "/api/v1/user/signin", "", map[string]string{"username": "a@example.com", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status2, unknown := s.do(t, http.MethodPost, "/api/v1/user/signin", "", map[string]string{"username": "x@example.com", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, status2)
	assert.Equal(t, wrongPass, unknown)
	assert.Equal(t, service.MsgInvalidCredentials, wrongPass["message"])

	status, body = s.do(t, http.MethodPost, "/api/v1/user/signin", "", map[string]string{"username": "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, service.MsgInvalidSignin, body["message"])
}

func TestUpdate_AuthorizationGating(t *testing.T) {
	spy := &storeSpy{UserRepository: repository.NewMemoryUserRepository()}
	s := newTestServer(t, spy)

	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"no header", "", auth.MsgMissingToken},
		{"malformed header", "Basic abc", auth.MsgMissingToken},
		{"invalid token", "Bearer not.a.token", auth.MsgBadToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/v1/user", strings.NewReader(`{"firstName":"Z"}`))
			req.Header.Set("Content-Type", "application/json")
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := s.app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, tc.message, body["message"])
			assert.Equal(t, apperrors.CodeForbidden, body["code"])
		})
	}
	assert.Zero(t, spy.calls)
}

func TestUpdate_TargetsTokenSubject(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryUserRepository())

	_, first := s.do(t, http.MethodPost, "/api/v1/user/signup", "", signupBody())
	other := signupBody()
	other["username"] = "other@example.com"
	_, second := s.do(t, http.MethodPost, "/api/v1/user/signup", "", other)

	// a username in the body is ignored
	status, _ := s.do(t, http.MethodPut, "/api/v1/user", second["token"].(string),
		map[string]string{"firstName": "Q", "username": "a@example.com"})
	require.Equal(t, http.StatusOK, status)

	firstID, err := s.tokens.SubjectFromToken(first["token"].(string))
	require.NoError(t, err)
	secondID, err := s.tokens.SubjectFromToken(second["token"].(string))
	require.NoError(t, err)

	a, err := s.users.GetByID(context.Background(), firstID)
	require.NoError(t, err)
	b, err := s.users.GetByID(context.Background(), secondID)
	require.NoError(t, err)
	assert.Equal(t, "A", a.FirstName)
	assert.Equal(t, "Q", b.FirstName)
	assert.Equal(t, "other@example.com", b.Username)
}

func TestUpdate_InvalidBodyAndEmptyBody(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryUserRepository())
	_, body := s.do(t, http.MethodPost, "/api/v1/user/signup", "", signupBody())
	token := body["token"].(string)

	status, body := s.do(t, http.MethodPut, "/api/v1/user", token, map[string]string{"lastName": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, service.MsgInvalidUpdate, body["message"])

	status, _ = s.do(t, http.MethodPut, "/api/v1/user", token, `{"firstName": 7}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPut, "/api/v1/user", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestBalance_RequiresToken(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryUserRepository())
	status, body := s.do(t, http.MethodGet, "/api/v1/account/balance", "", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, auth.MsgMissingToken, body["message"])

	orphan, err := s.tokens.GenerateToken("ghost")
	require.NoError(t, err)
	status, body = s.do(t, http.MethodGet, "/api/v1/account/balance", orphan, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, body["code"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryUserRepository())

	status, body := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "requests")
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, repository.NewMemoryUserRepository())
	status, body := s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, body["code"])
}

func TestErrorMiddleware_HidesInternalDetail(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	app.Get("/boom", func(*fiber.Ctx) error {
		return apperrors.NewDependencyError(assert.AnError)
	})
	app.Get("/panic", func(*fiber.Ctx) error {
		panic("kaboom")
	})

	for _, path := range []string{"/boom", "/panic"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
		assert.JSONEq(t, `{"code":"INTERNAL_ERROR","message":"internal server error"}`, string(raw), path)
	}
}
