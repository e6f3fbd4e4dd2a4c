package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/accounts"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/client"
	"github.com/geocoder89/taskhub/internal/config"
	apphttp "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = time.Hour

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	srv   *httptest.Server
	api   *client.Client
	store *memory.Store
	clock *fakeClock
	prom  *observability.Prom
}

func testConfig() config.Config {
	return config.Config{
		Env:             "test",
		Storage:         config.StorageMemory,
		JWTSecret:       "test-secret-key",
		JWTTTL:          tokenTTL,
		BcryptCost:      bcrypt.MinCost,
		RateLimitAuth:   1000,
		RateLimitAPI:    1000,
		RateLimitWindow: time.Minute,
		MaxBodyBytes:    1 << 20,
		ServiceName:     "taskhub-test",
	}
}

func setup(t *testing.T, tweak ...func(*config.Config)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	for _, fn := range tweak {
		fn(&cfg)
	}

	store := memory.NewStore()
	clock := &fakeClock{now: time.Now().UTC()}
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL).WithClock(clock.Now)
	accountsSvc := accounts.NewService(store.Users(), security.NewHasher(cfg.BcryptCost))

	router := apphttp.NewRouter(observability.NewLoggerTo(io.Discard, cfg.Env), apphttp.Dependencies{
		Accounts: accountsSvc,
		Users:    accountsSvc,
		Tokens:   tokens,
		Projects: store.Projects(),
		Tasks:    store.Tasks(),
		Prom:     prom,
		Gatherer: reg,
		ReadyChecks: map[string]handlers.CheckFunc{
			"storage": store.Ping,
		},
	}, cfg)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &harness{
		srv:   srv,
		api:   client.New(srv.URL, client.WithHTTPClient(srv.Client())),
		store: store,
		clock: clock,
		prom:  prom,
	}
}

// register creates a user and returns its token.
func (h *harness) register(t *testing.T, name, email string) client.AuthResult {
	t.Helper()

	res, err := h.api.Register(context.Background(), name, email, "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	return res
}

// raw issues a request outside the typed client, for assertions on headers
// and exact bodies.
func (h *harness) raw(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, h.srv.URL+path, r)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, out
}

func mustReadJSON[T any](t *testing.T, b []byte) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(b, &out), "body: %s", string(b))
	return out
}

func ptr[T any](v T) *T { return &v }
