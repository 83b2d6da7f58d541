package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gin-user-service/internal/core/auth"
	"gin-user-service/internal/core/config"
	"gin-user-service/internal/repo"
	"gin-user-service/internal/service"
)

type envelope struct {
	Code   int             `json:"code"`
	Kind   string          `json:"kind"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
	Meta   json.RawMessage `json:"meta"`
	Errors []string        `json:"errors"`
}

type userBody struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      *int   `json:"age"`
	IsActive bool   `json:"is_active"`
}

type api struct {
	t *testing.T
	r *gin.Engine
}

func newAPI(t *testing.T, mutate ...func(*config.Config)) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		App:  config.App{Name: "gin-user-service", HTTP: config.HTTP{MaxBodyBytes: 1 << 20}},
		Auth: config.Auth{PublicRead: true},
	}
	for _, m := range mutate {
		m(cfg)
	}
	store := repo.NewMemoryUserRepo()
	hasher := auth.NewHasher(bcrypt.MinCost)
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	l := zap.NewNop()
	authSvc := service.NewAuthService(store, jwter, hasher, l, service.AuthOptions{})
	users := service.NewUserService(store, hasher, l)
	r := NewAPIEngine(Deps{Log: l, Cfg: cfg, Auth: authSvc, Users: users})
	return &api{t: t, r: r}
}

func (a *api) do(method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func bearer(tok string) []string { return []string{"Authorization", "Bearer " + tok} }

func (a *api) register(name, email, pw string) userBody {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/auth/register", map[string]any{"name": name, "email": email, "password": pw})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var u userBody
	require.NoError(a.t, json.Unmarshal(env.Data, &u))
	return u
}

func (a *api) login(email, pw string) string {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/auth/login", map[string]any{"email": email, "password": pw})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	require.Equal(a.t, "Bearer", out.TokenType)
	require.EqualValues(a.t, 3600, out.ExpiresIn)
	return out.AccessToken
}

func TestScenario_RegisterLoginDelete(t *testing.T) {
	a := newAPI(t)

	w, env := a.do(http.MethodPost, "/auth/register", map[string]any{"name": "Ann", "email": "ann@x.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User registered successfully", env.Msg)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "api_key")

	tok := a.login("ann@x.com", "secret1")

	w, env = a.do(http.MethodGet, "/users/1", nil, bearer(tok)...)
	require.Equal(t, http.StatusOK, w.Code)
	var u userBody
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, userBody{ID: 1, Name: "Ann", Email: "ann@x.com", IsActive: true}, u)

	w, env = a.do(http.MethodDelete, "/users/1", nil, bearer(tok)...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User deleted successfully", env.Msg)
	assert.JSONEq(t, `{"id":1}`, string(env.Data))

	w, env = a.do(http.MethodGet, "/users/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Kind)
	assert.Equal(t, http.StatusNotFound, env.Code)

	// 邮箱仍被占用
	w, env = a.do(http.MethodPost, "/auth/register", map[string]any{"name": "Ann", "email": "ANN@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_email", env.Kind)
	assert.Equal(t, []string{"Email must be unique"}, env.Errors)

	// 停用后 token 不再可用
	w, env = a.do(http.MethodGet, "/protected", nil, bearer(tok)...)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "unauthenticated", env.Kind)

	w, _ = a.do(http.MethodPost, "/auth/login", map[string]any{"email": "ann@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_ValidationErrors(t *testing.T) {
	a := newAPI(t)
	w, env := a.do(http.MethodPost, "/auth/register", map[string]any{"name": "A", "email": "nope", "password": "123"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_error", env.Kind)
	assert.Equal(t, "Validation failed", env.Msg)
	assert.Equal(t, []string{
		"Invalid email format",
		"Name must be at least 2 characters long",
		"Password must be at least 6 characters long",
	}, env.Errors)

	long := strings.Repeat("a", 180) + "@example.com"
	w, env = a.do(http.MethodPost, "/auth/register", map[string]any{"name": "Ann", "email": long, "password": "secret1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"Email must be at most 191 characters long"}, env.Errors)

	w, env = a.do(http.MethodPost, "/auth/register", `{"name": "Ann",`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", env.Kind)

	w, _ = a.do(http.MethodPost, "/auth/register", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Failures(t *testing.T) {
	a := newAPI(t)
	a.register("Ann", "ann@x.com", "secret1")

	w1, e1 := a.do(http.MethodPost, "/auth/login", map[string]any{"email": "ann@x.com", "password": "wrong-pw"})
	w2, e2 := a.do(http.MethodPost, "/auth/login", map[string]any{"email": "ghost@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w1.Code)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
	assert.Equal(t, e1, e2)
	assert.Equal(t, "invalid_credentials", e1.Kind)

	w, env := a.do(http.MethodPost, "/auth/login", map[string]any{"email": "ann@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email and password are required", env.Msg)
}

func TestUsers_Pagination(t *testing.T) {
	a := newAPI(t)
	for i := 0; i < 25; i++ {
		w, _ := a.do(http.MethodPost, "/users", map[string]any{"name": fmt.Sprintf("User %d", i), "email": fmt.Sprintf("u%d@x.com", i)})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, env := a.do(http.MethodGet, "/users?page=1&per_page=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []userBody
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 10)
	var meta service.PageMeta
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	assert.Equal(t, 3, meta.Pages)
	assert.EqualValues(t, 25, meta.Total)
	assert.False(t, meta.Authenticated)
	assert.Nil(t, meta.PrevPage)

	// 默认 page=1, per_page=10
	_, env = a.do(http.MethodGet, "/users", nil)
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	assert.Equal(t, 1, meta.Page)
	assert.Equal(t, 10, meta.PerPage)

	w, env = a.do(http.MethodGet, "/users?page=9223372036854775807&per_page=100", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	for _, q := range []string{"page=0", "per_page=0", "per_page=101", "page=abc"} {
		w, env := a.do(http.MethodGet, "/users?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, "invalid_request", env.Kind, q)
	}
}

func TestUsers_ListAuthenticatedMeta(t *testing.T) {
	a := newAPI(t)
	a.register("Ann", "ann@x.com", "secret1")
	tok := a.login("ann@x.com", "secret1")

	_, env := a.do(http.MethodGet, "/users", nil, bearer(tok)...)
	var meta service.PageMeta
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	assert.True(t, meta.Authenticated)

	// 无效凭证按匿名处理
	_, env = a.do(http.MethodGet, "/users", nil, bearer("junk")...)
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	assert.False(t, meta.Authenticated)
}

func TestUsers_PrivateRead(t *testing.T) {
	a := newAPI(t, func(c *config.Config) { c.Auth.PublicRead = false })
	a.register("Ann", "ann@x.com", "secret1")

	w, _ := a.do(http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = a.do(http.MethodGet, "/users/1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok := a.login("ann@x.com", "secret1")
	w, _ = a.do(http.MethodGet, "/users/1", nil, bearer(tok)...)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUsers_Ownership(t *testing.T) {
	a := newAPI(t)
	ann := a.register("Ann", "ann@x.com", "secret1")
	bob := a.register("Bob", "bob@x.com", "secret2")
	annTok := a.login("ann@x.com", "secret1")

	path := fmt.Sprintf("/users/%d", bob.ID)
	w, env := a.do(http.MethodPut, path, map[string]any{"name": "Hacked"}, bearer(annTok)...)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", env.Kind)

	w, _ = a.do(http.MethodDelete, path, nil, bearer(annTok)...)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = a.do(http.MethodPut, path, map[string]any{"name": "Hacked"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = a.do(http.MethodPut, fmt.Sprintf("/users/%d", ann.ID), map[string]any{"name": "Annie", "age": 31}, bearer(annTok)...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User updated successfully", env.Msg)
	var u userBody
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "Annie", u.Name)
	require.NotNil(t, u.Age)
	assert.Equal(t, 31, *u.Age)

	w, env = a.do(http.MethodPut, fmt.Sprintf("/users/%d", ann.ID), map[string]any{"email": "bob@x.com"}, bearer(annTok)...)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_email", env.Kind)

	w, _ = a.do(http.MethodGet, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile(t *testing.T) {
	a := newAPI(t)
	a.register("Ann", "ann@x.com", "secret1")
	tok := a.login("ann@x.com", "secret1")

	w, env := a.do(http.MethodGet, "/auth/profile", nil, bearer(tok)...)
	require.Equal(t, http.StatusOK, w.Code)
	var u userBody
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "ann@x.com", u.Email)

	w, env = a.do(http.MethodPut, "/auth/profile", `{"name": null}`, bearer(tok)...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"name cannot be null"}, env.Errors)

	w, env = a.do(http.MethodPut, "/auth/profile", map[string]any{"email": "  ANNIE@x.com "}, bearer(tok)...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Profile updated successfully", env.Msg)
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "annie@x.com", u.Email)

	w, _ = a.do(http.MethodGet, "/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIKeyFlow(t *testing.T) {
	a := newAPI(t)
	a.register("Ann", "ann@x.com", "secret1")
	tok := a.login("ann@x.com", "secret1")

	w, env := a.do(http.MethodPost, "/auth/api-key", nil, bearer(tok)...)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		APIKey string `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out.APIKey, 43)

	w, env = a.do(http.MethodGet, "/protected", nil, "X-API-Key", out.APIKey)
	require.Equal(t, http.StatusOK, w.Code)
	var prot struct {
		Message    string `json:"message"`
		AuthMethod string `json:"auth_method"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &prot))
	assert.Equal(t, "Hello Ann! This is a protected route.", prot.Message)
	assert.Equal(t, "api_key", prot.AuthMethod)

	// API key 不能用来换新 key
	w, _ = a.do(http.MethodPost, "/auth/api-key", nil, "X-API-Key", out.APIKey)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.do(http.MethodGet, "/protected", nil, "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGeneralEndpoints(t *testing.T) {
	a := newAPI(t)

	for _, p := range []string{"/", "/health", "/welcome"} {
		w, env := a.do(http.MethodGet, p, nil)
		assert.Equal(t, http.StatusOK, w.Code, p)
		assert.Equal(t, 0, env.Code, p)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), p)
	}

	w, _ := a.do(http.MethodGet, "/protected", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := a.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Kind)

	w, _ = a.do(http.MethodPatch, "/users", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w, _ = a.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRequestIDPassthrough(t *testing.T) {
	a := newAPI(t)
	w, _ := a.do(http.MethodGet, "/health", nil, "X-Request-ID", "rid-123")
	assert.Equal(t, "rid-123", w.Header().Get("X-Request-ID"))
}

func TestBodyTooLarge(t *testing.T) {
	a := newAPI(t, func(c *config.Config) { c.App.HTTP.MaxBodyBytes = 64 })
	big := map[string]any{"name": strings.Repeat("a", 200), "email": "a@x.com", "password": "secret1"}
	w, _ := a.do(http.MethodPost, "/auth/register", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestPanicRecovery(t *testing.T) {
	a := newAPI(t)
	a.r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w, env := a.do(http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", env.Kind)
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestRateLimit(t *testing.T) {
	a := newAPI(t, func(c *config.Config) {
		c.App.HTTP.RateLimitRPS = 1
		c.App.HTTP.RateLimitBurst = 2
	})
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w, _ := a.do(http.MethodGet, "/welcome", nil)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
