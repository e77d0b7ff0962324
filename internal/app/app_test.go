package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-portal/internal/app"
	"go-portal/internal/auth"
	"go-portal/internal/store"
	storemock "go-portal/internal/store/mock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, s store.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	app.RegisterModules(r, app.Dependencies{
		Store:     s,
		Publisher: auth.NoopPublisher{},
		Hasher:    auth.PlaintextHasher{},
		Logger:    zap.NewNop(),
	})
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupThenLogin(t *testing.T) {
	r := newRouter(t, store.NewMemoryStore())

	w := doJSON(r, http.MethodPost, "/auth/signup", map[string]string{
		"name":     "Ana",
		"email":    "ana@acme.io",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var signup struct {
		Success bool `json:"success"`
		User    struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Email     string `json:"email"`
			CreatedAt string `json:"createdAt"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))
	assert.True(t, signup.Success)
	assert.NotEmpty(t, signup.User.ID)
	assert.Equal(t, "Ana", signup.User.Name)
	assert.Equal(t, "ana@acme.io", signup.User.Email)
	assert.NotEmpty(t, signup.User.CreatedAt)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = doJSON(r, http.MethodPost, "/auth", map[string]string{
		"email":    "ana@acme.io",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"user":{"email":"ana@acme.io"}}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/auth/signup", map[string]string{
		"name":     "Ana again",
		"email":    "ana@acme.io",
		"password": "secret2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "User with this email already exists")

	w = doJSON(r, http.MethodPost, "/auth", map[string]string{
		"email":    "ana@acme.io",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestHealthz(t *testing.T) {
	t.Run("store reachable", func(t *testing.T) {
		r := newRouter(t, store.NewMemoryStore())
		w := doJSON(r, http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("store down", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := storemock.NewMockStore(ctrl)
		s.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))

		r := newRouter(t, s)
		w := doJSON(r, http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "SERVICE_UNAVAILABLE")
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestNewSeedRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to the directory provider", func(t *testing.T) {
		t.Setenv("IDENTITY_PROVIDER", "")
		t.Setenv("SEED_CONCURRENCY", "")
		runner, err := app.NewSeedRunner(ctx, store.NewMemoryStore())
		require.NoError(t, err)
		assert.NotNil(t, runner)
	})

	t.Run("none", func(t *testing.T) {
		t.Setenv("IDENTITY_PROVIDER", "none")
		runner, err := app.NewSeedRunner(ctx, store.NewMemoryStore())
		require.NoError(t, err)
		assert.NotNil(t, runner)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("IDENTITY_PROVIDER", "ldap")
		_, err := app.NewSeedRunner(ctx, store.NewMemoryStore())
		assert.ErrorContains(t, err, "unknown IDENTITY_PROVIDER")
	})

	t.Run("firebase needs a project", func(t *testing.T) {
		t.Setenv("IDENTITY_PROVIDER", "firebase")
		t.Setenv("FIRESTORE_PROJECT_ID", "")
		_, err := app.NewSeedRunner(ctx, store.NewMemoryStore())
		assert.ErrorContains(t, err, "FIRESTORE_PROJECT_ID")
	})

	t.Run("bad concurrency", func(t *testing.T) {
		t.Setenv("IDENTITY_PROVIDER", "none")
		t.Setenv("SEED_CONCURRENCY", "zero")
		_, err := app.NewSeedRunner(ctx, store.NewMemoryStore())
		assert.ErrorContains(t, err, "SEED_CONCURRENCY")
	})
}
