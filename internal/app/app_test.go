package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genesis-api/internal/config"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Pagination *struct {
		Total       int  `json:"total"`
		TotalPages  int  `json:"totalPages"`
		HasNextPage bool `json:"hasNextPage"`
	} `json:"pagination"`
	Cursors *struct {
		Next *string `json:"next"`
		Prev *string `json:"prev"`
	} `json:"cursors"`
	HasMore bool `json:"hasMore"`
	Meta    struct {
		Timestamp string `json:"timestamp"`
		RequestID string `json:"requestId"`
		Version   string `json:"version"`
	} `json:"meta"`
}

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:             "0",
		RequestTimeout:         5 * time.Second,
		APIVersion:             "1.2.3",
		LogLevel:               "error",
		LogFormat:              "json",
		AuthMode:               config.AuthModeEmbedded,
		JWTSecret:              "test-secret",
		JWTIssuer:              "genesis-api",
		JWTAccessTTL:           15 * time.Minute,
		AdminEmail:             "admin@example.com",
		AdminPassword:          "admin-password",
		CORSOrigins:            []string{"*"},
		RateLimitRPM:           1000,
		AuthRateLimitRPM:       1000,
		PaginationDefaultLimit: 20,
		PaginationMaxLimit:     100,
		JWKSCacheTTL:           time.Hour,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	a := &App{}
	h, err := a.build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.cleanup)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func tokenFrom(t *testing.T, resp apiResponse) string {
	t.Helper()

	var tokens struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	return tokens.AccessToken
}

func TestEmbeddedModeEndToEnd(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, resp := call(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	assert.Equal(t, "1.2.3", resp.Meta.Version)
	assert.NotEmpty(t, resp.Meta.RequestID)
	assert.NotEmpty(t, resp.Meta.Timestamp)

	status, _ = call(t, srv, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, resp = call(t, srv, http.MethodGet, "/api/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	status, resp = call(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "jane@example.com", "password": "correct-horse", "name": "Jane",
	})
	require.Equal(t, http.StatusCreated, status)
	userToken := tokenFrom(t, resp)

	status, resp = call(t, srv, http.MethodGet, "/api/me", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	var me map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.Equal(t, "jane@example.com", me["email"])
	assert.Equal(t, []any{"user"}, me["roles"])

	status, resp = call(t, srv, http.MethodGet, "/api/admin", userToken, nil)
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Requires one of: admin", resp.Error.Message)

	status, resp = call(t, srv, http.MethodPost, "/auth/signin", "", map[string]string{
		"email": "admin@example.com", "password": "admin-password",
	})
	require.Equal(t, http.StatusOK, status)
	adminToken := tokenFrom(t, resp)

	status, _ = call(t, srv, http.MethodGet, "/api/admin", adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, resp = call(t, srv, http.MethodPost, "/api/data", userToken, map[string]any{"answer": 42})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"answer":42`)

	t.Run("items", func(t *testing.T) {
		status, resp := call(t, srv, http.MethodPost, "/api/items", userToken, map[string]string{})
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		assert.Equal(t, map[string]any{"field": "name", "reason": "required"}, resp.Error.Details)

		ids := make([]string, 0, 3)
		for _, name := range []string{"alpha", "bravo", "charlie"} {
			status, resp := call(t, srv, http.MethodPost, "/api/items", userToken, map[string]string{"name": name})
			require.Equal(t, http.StatusCreated, status)
			var item struct {
				ID string `json:"id"`
			}
			require.NoError(t, json.Unmarshal(resp.Data, &item))
			ids = append(ids, item.ID)
		}

		status, resp = call(t, srv, http.MethodGet, "/api/items?limit=2", userToken, nil)
		require.Equal(t, http.StatusOK, status)
		require.NotNil(t, resp.Pagination)
		assert.Equal(t, 3, resp.Pagination.Total)
		assert.Equal(t, 2, resp.Pagination.TotalPages)
		assert.True(t, resp.Pagination.HasNextPage)

		status, resp = call(t, srv, http.MethodGet, "/api/items?sortBy=password", userToken, nil)
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

		status, resp = call(t, srv, http.MethodGet, "/api/items/feed?limit=2", userToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.True(t, resp.HasMore)
		require.NotNil(t, resp.Cursors.Next)

		status, resp = call(t, srv, http.MethodGet, "/api/items/feed?limit=2&cursor="+*resp.Cursors.Next, userToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.False(t, resp.HasMore)
		assert.Nil(t, resp.Cursors.Next)
		assert.NotNil(t, resp.Cursors.Prev)

		status, _ = call(t, srv, http.MethodGet, "/api/items/"+ids[0], userToken, nil)
		require.Equal(t, http.StatusOK, status)

		status, resp = call(t, srv, http.MethodGet, "/api/items/does-not-exist", userToken, nil)
		require.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	})

	status, resp = call(t, srv, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.False(t, resp.Success)

	metricsResp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "genesis_items_created_total 3")
	assert.Contains(t, buf.String(), `route="/api/items/{id}"`)
}

func TestKeycloakModeReadiness(t *testing.T) {
	gone := httptest.NewServer(http.NotFoundHandler())
	gone.Close()

	cfg := testConfig()
	cfg.AuthMode = config.AuthModeKeycloak
	cfg.KeycloakURL = gone.URL
	cfg.KeycloakPublicURL = gone.URL
	cfg.KeycloakRealm = "genesis"
	srv := newTestServer(t, cfg)

	status, resp := call(t, srv, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)

	status, _ = call(t, srv, http.MethodPost, "/auth/signin", "", map[string]string{"email": "a@b.io"})
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = call(t, srv, http.MethodGet, "/api/protected", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestSharedRateLimitsThroughRedis(t *testing.T) {
	redisServer := miniredis.RunT(t)

	cfg := testConfig()
	cfg.RedisURL = "redis://" + redisServer.Addr()
	cfg.AuthRateLimitRPM = 1
	srv := newTestServer(t, cfg)

	status, _ := call(t, srv, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodPost, "/auth/signin", "", map[string]string{"email": "a@b.io", "password": "whatever"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, resp := call(t, srv, http.MethodPost, "/auth/signin", "", map[string]string{"email": "a@b.io", "password": "whatever"})
	require.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", resp.Error.Code)

	redisServer.Close()
	status, _ = call(t, srv, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
