package middlewares_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/envelope"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	tokens map[string]string
}

func (f fakeVerifier) Verify(token string) (string, error) {
	id, ok := f.tokens[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return id, nil
}

type fakeUsers struct {
	users map[string]user.User
	err   error
}

func (f fakeUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.err != nil {
		return user.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func TestRequireAuth(t *testing.T) {
	ana := user.User{ID: "u-1", Name: "Ana", Email: "a@x.com"}

	verifier := fakeVerifier{tokens: map[string]string{
		"good":   "u-1",
		"orphan": "u-gone",
	}}

	tests := []struct {
		name       string
		header     string
		users      fakeUsers
		wantStatus int
	}{
		{name: "valid", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "lowercase_scheme", header: "bearer good", wantStatus: http.StatusUnauthorized},
		{name: "uppercase_scheme", header: "BEARER good", wantStatus: http.StatusUnauthorized},
		{name: "missing_header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong_scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "empty_token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "bad_token", header: "Bearer forged", wantStatus: http.StatusUnauthorized},
		{name: "user_gone", header: "Bearer orphan", wantStatus: http.StatusUnauthorized},
		{name: "store_down", header: "Bearer good", users: fakeUsers{err: errors.New("db down")}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := tt.users
			if users.users == nil && users.err == nil {
				users.users = map[string]user.User{"u-1": ana}
			}

			m := middlewares.NewAuthMiddleware(verifier, users, nil)

			r := gin.New()
			r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
				id, ok := middlewares.UserIDFromContext(c)
				if !ok {
					t.Fatalf("user id missing from gin context")
				}
				ctxID, ok := actorctx.UserIDFrom(c.Request.Context())
				if !ok || ctxID != id {
					t.Fatalf("request context user id = %q, want %q", ctxID, id)
				}
				u, _ := middlewares.UserFromContext(c)
				c.JSON(http.StatusOK, gin.H{"name": u.Name})
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRequireAuth_SingleMessageForAllFailures(t *testing.T) {
	m := middlewares.NewAuthMiddleware(
		fakeVerifier{tokens: map[string]string{"orphan": "u-gone"}},
		fakeUsers{users: map[string]user.User{}},
		nil,
	)

	r := gin.New()
	r.GET("/me", m.RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	messages := map[string]struct{}{}

	for _, header := range []string{"", "Bearer forged", "Bearer orphan"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var body envelope.ErrorBody
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if body.Status != "error" || body.StatusCode != http.StatusUnauthorized {
			t.Fatalf("unexpected envelope %+v", body)
		}
		messages[body.Message] = struct{}{}
	}

	if len(messages) != 1 {
		t.Fatalf("expected one shared 401 message, got %v", messages)
	}
}

type stubLimiter struct {
	decision ratelimit.Decision
	err      error
	keys     []string
}

func (s *stubLimiter) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	s.keys = append(s.keys, key)
	return s.decision, s.err
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name           string
		limiter        *stubLimiter
		wantStatus     int
		wantRetryAfter string
	}{
		{
			name:       "allowed",
			limiter:    &stubLimiter{decision: ratelimit.Decision{Allowed: true, Remaining: 4}},
			wantStatus: http.StatusOK,
		},
		{
			name:           "denied",
			limiter:        &stubLimiter{decision: ratelimit.Decision{Allowed: false, RetryAfter: 1500 * time.Millisecond}},
			wantStatus:     http.StatusTooManyRequests,
			wantRetryAfter: "2",
		},
		{
			name:       "limiter_error_fails_open",
			limiter:    &stubLimiter{err: errors.New("redis down")},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/login", middlewares.RateLimit(tt.limiter, "auth", middlewares.KeyByIP, nil), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			req.RemoteAddr = "10.0.0.7:5555"
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Retry-After"); got != tt.wantRetryAfter {
				t.Fatalf("Retry-After = %q, want %q", got, tt.wantRetryAfter)
			}
			if len(tt.limiter.keys) != 1 || tt.limiter.keys[0] != "ip:10.0.0.7" {
				t.Fatalf("unexpected limiter keys %v", tt.limiter.keys)
			}
		})
	}
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequireJSON())
	r.POST("/tasks", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.DELETE("/tasks/1", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		method, ct string
		want       int
	}{
		{http.MethodPost, "application/json; charset=utf-8", http.StatusCreated},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodPost, "", http.StatusUnsupportedMediaType},
		{http.MethodDelete, "", http.StatusNoContent},
	}

	for _, tt := range tests {
		path := "/tasks"
		if tt.method == http.MethodDelete {
			path = "/tasks/1"
		}
		req := httptest.NewRequest(tt.method, path, strings.NewReader(`{}`))
		if tt.ct != "" {
			req.Header.Set("Content-Type", tt.ct)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tt.want {
			t.Fatalf("%s %q: got %d, want %d", tt.method, tt.ct, w.Code, tt.want)
		}
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, envelope.RequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "not a uuid\nforged=1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	got := w.Header().Get("X-Request-Id")
	if got == "" || strings.Contains(got, "forged") {
		t.Fatalf("request id should be regenerated, got %q", got)
	}
	if w.Body.String() != got {
		t.Fatalf("context id %q does not match header %q", w.Body.String(), got)
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(16))
	r.POST("/x", func(ctx *gin.Context) {
		var body map[string]any
		if err := json.NewDecoder(ctx.Request.Body).Decode(&body); err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		ctx.Status(http.StatusOK)
	})

	small := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":1}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, small)
	if w.Code != http.StatusOK {
		t.Fatalf("small body: got %d", w.Code)
	}

	big := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("big body: got %d, want 413", w.Code)
	}

	var e envelope.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Code != "payload_too_large" {
		t.Fatalf("unexpected code %q", e.Code)
	}
}
