package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshpatelx/Opinex/internal/account"
	"github.com/vanshpatelx/Opinex/internal/auth"
	"github.com/vanshpatelx/Opinex/internal/pubsub"
	"github.com/vanshpatelx/Opinex/internal/token"
)

// memCache and memRepo back the real cache-aside store with maps so the
// handlers run against the genuine read-through/write-through logic.
type memCache struct {
	mu      sync.Mutex
	entries map[string]*account.Account
}

func (m *memCache) Exists(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[email]
	return ok, nil
}

func (m *memCache) Get(ctx context.Context, email string) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[email], nil
}

func (m *memCache) Set(ctx context.Context, a *account.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[a.Email] = a
	return nil
}

type memRepo struct {
	mu   sync.Mutex
	rows map[string]*account.Account
}

func (m *memRepo) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[email], nil
}

func (m *memRepo) Insert(ctx context.Context, a *account.Account) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[a.Email]; ok {
		return false, nil
	}
	m.rows[a.Email] = a
	return true, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, ev pubsub.RegistrationEvent) error {
	return nil
}

type testEnv struct {
	router *gin.Engine
	repo   *memRepo
	issuer *token.Issuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cache := &memCache{entries: map[string]*account.Account{}}
	repo := &memRepo{rows: map[string]*account.Account{}}
	store := account.NewStore(cache, repo)

	issuer, err := token.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	svc := auth.NewService(store, nopPublisher{}, issuer)

	router := gin.New()
	NewHandler(svc).RegisterRoutes(router)

	return &testEnv{router: router, repo: repo, issuer: issuer}
}

func (e *testEnv) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	// register
	w := env.post(t, "/auth/register", `{"email":"alice@example.com","password":"Secret#1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "User registered successfully", resp["message"])
	require.NotEmpty(t, resp["token"])

	// login immediately, before any durable row exists
	assert.Empty(t, env.repo.rows, "durable insert is asynchronous")

	w = env.post(t, "/auth/login", `{"email":"alice@example.com","password":"Secret#1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	require.NotEmpty(t, resp["token"])

	claims, err := env.issuer.Parse(resp["token"])
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)

	// wrong password
	w = env.post(t, "/auth/login", `{"email":"alice@example.com","password":"Secret#2"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["message"])

	// duplicate registration
	w = env.post(t, "/auth/register", `{"email":"alice@example.com","password":"Secret#1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", decode(t, w)["message"])
}

func TestLogin_UnknownEmailMatchesWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/auth/register", `{"email":"alice@example.com","password":"Secret#1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	wrong := env.post(t, "/auth/login", `{"email":"alice@example.com","password":"nope"}`)
	unknown := env.post(t, "/auth/login", `{"email":"nobody@example.com","password":"nope"}`)

	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	for name, body := range map[string]string{
		"malformed json": `{`,
		"missing email":  `{"password":"Secret#1"}`,
		"bad email":      `{"email":"not-an-email","password":"Secret#1"}`,
		"empty password": `{"email":"alice@example.com","password":""}`,
	} {
		w := env.post(t, "/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestLogin_MalformedBodyIsBadRequest(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/auth/login", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
