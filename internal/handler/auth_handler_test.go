package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/config"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
	"go-auth-service/internal/router"
	"go-auth-service/internal/service"
)

type memoryStore struct {
	mu      sync.Mutex
	byEmail map[string]model.User
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (s *memoryStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.byEmail[strings.ToLower(email)]
	return ok, nil
}

func (s *memoryStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := s.byEmail[key]; ok {
		return model.ErrUserAlreadyExists
	}
	s.byEmail[key] = u
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	store := &memoryStore{byEmail: map[string]model.User{}}
	svc, err := service.NewAuthService("handler-test-secret", "HS256", 15*time.Minute, 7*24*time.Hour, store)
	require.NoError(t, err)

	cfg := &config.Config{
		RequestTimeout: 30 * time.Second,
		CORSOrigins:    []string{"*"},
	}

	return router.New(cfg, middleware.NewAuthMiddleware(svc), handler.NewAuthHandler(svc))
}

func doJSON(t *testing.T, srv http.Handler, method string, path string, payload any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var parsed envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	return rec, parsed
}

func register(t *testing.T, srv http.Handler, username string, email string, password string) {
	t.Helper()

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", model.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, resp.Success)
}

func login(t *testing.T, srv http.Handler, email string, password string) model.TokenPair {
	t.Helper()

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login-json", model.LoginRequest{
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var pair model.TokenPair
	require.NoError(t, json.Unmarshal(resp.Data, &pair))
	return pair
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t)

	t.Run("creates the user", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", model.RegisterRequest{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "password1",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, "user.created", resp.Code)

		var user model.PublicUser
		require.NoError(t, json.Unmarshal(resp.Data, &user))
		assert.Equal(t, model.PublicUser{Username: "alice", Email: "alice@example.com"}, user)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", model.RegisterRequest{
			Username: "alice2",
			Email:    "alice@example.com",
			Password: "password2",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ALREADY_REGISTERED", resp.Error.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "alice@example.com", "password1")

	t.Run("JSON login returns a bearer pair", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login-json", model.LoginRequest{
			Email:    "alice@example.com",
			Password: "password1",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user.logged_in", resp.Code)

		var pair model.TokenPair
		require.NoError(t, json.Unmarshal(resp.Data, &pair))
		assert.Equal(t, "bearer", pair.TokenType)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("form login accepts the email in the username field", func(t *testing.T) {
		form := url.Values{}
		form.Set("username", "alice@example.com")
		form.Set("password", "password1")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password and unknown email answer identically", func(t *testing.T) {
		wrongRec, wrongResp := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login-json", model.LoginRequest{
			Email:    "alice@example.com",
			Password: "nope",
		})
		unknownRec, unknownResp := doJSON(t, srv, http.MethodPost, "/api/v1/auth/login-json", model.LoginRequest{
			Email:    "nobody@example.com",
			Password: "password1",
		})

		assert.Equal(t, http.StatusUnauthorized, wrongRec.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownRec.Code)
		assert.Equal(t, "Bearer", wrongRec.Header().Get("WWW-Authenticate"))
		require.NotNil(t, wrongResp.Error)
		require.NotNil(t, unknownResp.Error)
		assert.Equal(t, wrongResp.Error.Code, unknownResp.Error.Code)
		assert.Equal(t, wrongResp.Error.Message, unknownResp.Error.Message)
	})
}

func TestRefreshToken(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "alice@example.com", "password1")
	pair := login(t, srv, "alice@example.com", "password1")

	t.Run("rotates the pair", func(t *testing.T) {
		rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/auth/refresh-token", model.RefreshTokenRequest{
			RefreshToken: pair.RefreshToken,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user.token_refreshed", resp.Code)

		var renewed model.TokenPair
		require.NoError(t, json.Unmarshal(resp.Data, &renewed))
		assert.NotEmpty(t, renewed.AccessToken)
		assert.NotEmpty(t, renewed.RefreshToken)
	})

	t.Run("rejects an access token", func(t *testing.T) {
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/auth/refresh-token", model.RefreshTokenRequest{
			RefreshToken: pair.AccessToken,
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a tampered refresh token", func(t *testing.T) {
		tampered := pair.RefreshToken + "x"
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/auth/refresh-token", model.RefreshTokenRequest{
			RefreshToken: tampered,
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("requires the token field", func(t *testing.T) {
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/auth/refresh-token", model.RefreshTokenRequest{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMe(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "alice@example.com", "password1")
	pair := login(t, srv, "alice@example.com", "password1")

	t.Run("returns the authenticated user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		var user model.PublicUser
		require.NoError(t, json.Unmarshal(resp.Data, &user))
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("rejects a refresh token as bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
