package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/tfkr-ae/fritter/auth"
	"github.com/tfkr-ae/fritter/db"
	"github.com/tfkr-ae/fritter/observability"
)

const testPassword = "correct-horse"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	t        *testing.T
	repo     *db.Repository
	handler  http.Handler
	registry *prometheus.Registry
}

// setupTestServer starts an API backed by a fresh SQLite file.
func setupTestServer(t *testing.T, configure ...func(*Options)) *testEnv {
	t.Helper()

	conn, err := db.New(filepath.Join(t.TempDir(), "fritter_test.db"))
	require.NoError(t, err)
	repo := db.NewRepository(conn)
	t.Cleanup(func() { repo.Close() })

	tokens, err := auth.NewTokenManager([]byte("test-secret"))
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	opts := Options{
		SessionTTL:     time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		Metrics:        observability.NewHTTPMetrics(registry),
		Gatherer:       registry,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	server, err := NewServer(repo, tokens, nil, opts)
	require.NoError(t, err)

	return &testEnv{t: t, repo: repo, handler: server.Handler(), registry: registry}
}

// client is a browser stand-in that keeps the session cookie between requests.
type client struct {
	env    *testEnv
	cookie *http.Cookie
}

func (env *testEnv) anonymousClient() *client {
	return &client{env: env}
}

// signUp registers username and returns a client signed in as them.
func (env *testEnv) signUp(username string) *client {
	env.t.Helper()
	c := env.anonymousClient()
	res := c.do(http.MethodPost, "/api/users", map[string]any{"username": username, "password": testPassword})
	require.Equal(env.t, http.StatusCreated, res.Code, res.Body.String())
	require.NotNil(env.t, c.cookie)
	return c
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.env.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(c.env.t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	c.env.handler.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name != sessionCookie {
			continue
		}
		if cookie.MaxAge < 0 || cookie.Value == "" {
			c.cookie = nil
		} else {
			c.cookie = cookie
		}
	}
	return rec
}

// decode unmarshals a response body into T.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value), rec.Body.String())
	return value
}

type freetEnvelope struct {
	Message string        `json:"message"`
	Freet   freetResponse `json:"freet"`
}

type commentEnvelope struct {
	Message string          `json:"message"`
	Comment commentResponse `json:"comment"`
}

type userEnvelope struct {
	Message string        `json:"message"`
	User    *userResponse `json:"user"`
}

type errorBody struct {
	Error string `json:"error"`
}

// postFreet creates a freet as c and returns it.
func (c *client) postFreet(content string, extra map[string]any) freetResponse {
	c.env.t.Helper()
	body := map[string]any{"content": content}
	for key, value := range extra {
		body[key] = value
	}
	res := c.do(http.MethodPost, "/api/freets", body)
	require.Equal(c.env.t, http.StatusCreated, res.Code, res.Body.String())
	return decode[freetEnvelope](c.env.t, res).Freet
}
