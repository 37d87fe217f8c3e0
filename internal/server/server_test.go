package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pubmarket/internal/auth"
	"pubmarket/internal/config"
	"pubmarket/internal/email"
	"pubmarket/internal/memstore"
	"pubmarket/internal/models"
	"pubmarket/internal/testutil"
)

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func testConfig() *config.Config {
	return &config.Config{
		Env:          "development",
		SiteTitle:    "PubMarket",
		ClientURL:    "http://localhost:3000",
		CORSOrigins:  "https://app.example.com",
		RateLimitMax: 3,
		JWTSecret:    "server-test-secret-that-is-32-chars",
		JWTExpiry:    time.Hour,
	}
}

func newTestServer(t *testing.T, pinger Pinger) (*Server, *memstore.Store, *auth.Issuer) {
	t.Helper()
	cfg := testConfig()
	m, store := testutil.MemoryManager(t)
	if pinger == nil {
		pinger = store
	}
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	s := New(cfg)
	s.RegisterRoutes(Deps{
		Manager:  m,
		Tokens:   tokens,
		Notifier: email.NewNotifier(cfg, store),
		Store:    pinger,
	})
	return s, store, tokens
}

func doJSON(t *testing.T, s *Server, method, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		wantStatus int
	}{
		{"store reachable", nil, http.StatusOK},
		{"store down", downStore{}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestServer(t, tt.pinger)
			resp, _ := doJSON(t, s, http.MethodGet, "/healthz", "", "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "route not found", body["error"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s, store, tokens := newTestServer(t, nil)
	user := testutil.CreateUser(t, store, "user@example.com", models.RoleUser)
	userToken, _, err := tokens.Issue(user.ID)
	require.NoError(t, err)

	tests := []struct {
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{http.MethodGet, "/api/auth/profile", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/publisher/requests", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/publisher/stats", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/dashboard-stats", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/dashboard-stats", userToken, http.StatusForbidden},
		{http.MethodGet, "/api/admin/users", userToken, http.StatusForbidden},
		{http.MethodGet, "/api/auth/profile", userToken, http.StatusOK},
		{http.MethodGet, "/api/listings", "", http.StatusOK},
		{http.MethodGet, "/api/listings/high-performing", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, _ := doJSON(t, s, tt.method, tt.path, "", tt.token)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRateLimitOnLogin(t *testing.T) {
	s, _, _ := newTestServer(t, nil)
	body := `{"email":"nobody@example.com","password":"secret1"}`

	for i := 0; i < s.Cfg.RateLimitMax; i++ {
		resp, _ := doJSON(t, s, http.MethodPost, "/api/auth/login", body, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, out := doJSON(t, s, http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "error", out["status"])

	// The catalogue is not rate limited.
	resp, _ = doJSON(t, s, http.MethodGet, "/api/listings", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/listings", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSubmitAndApproveFlow(t *testing.T) {
	s, store, tokens := newTestServer(t, nil)
	admin := testutil.CreateUser(t, store, "admin@example.com", models.RoleAdmin)
	adminToken, _, err := tokens.Issue(admin.ID)
	require.NoError(t, err)

	resp, out := doJSON(t, s, http.MethodPost, "/api/publisher/create", `{
		"full_name": "Pat Publisher",
		"email": "pat@example.com",
		"password": "secret1",
		"company_name": "Pat Media",
		"website": "https://pat.example",
		"category": "Travel",
		"standard_post_price": 40
	}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, out)

	data := out["data"].(map[string]any)
	ownerToken := data["token"].(string)
	requestID := data["request"].(map[string]any)["id"].(string)

	resp, _ = doJSON(t, s, http.MethodPut, "/api/admin/publisher-requests/"+requestID+"/approve", "", adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out = doJSON(t, s, http.MethodGet, "/api/auth/profile", "", ownerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(models.RolePublisher), out["data"].(map[string]any)["role"])

	resp, out = doJSON(t, s, http.MethodGet, "/api/listings?category=Travel", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := out["data"].(map[string]any)
	assert.EqualValues(t, 1, page["total"])
}
