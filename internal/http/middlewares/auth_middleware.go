package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/envelope"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// The client never learns which check failed.
const unauthorizedMessage = "Invalid or expired token. Please log in again."

// Keep these small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserResolver interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
	users  UserResolver
	prom   *observability.Prom
}

func NewAuthMiddleware(tokens TokenVerifier, users UserResolver, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, prom: prom}
}

// RequireAuth extracts the bearer token, verifies it and resolves it to a
// live user before letting the request through.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.reject(c, "missing_token")
			return
		}

		userID, err := m.tokens.Verify(raw)
		if err != nil {
			m.reject(c, "invalid_token")
			return
		}

		lookupCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByID(lookupCtx, userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				m.reject(c, "user_gone")
				return
			}

			slog.Default().ErrorContext(c.Request.Context(), "auth user lookup failed", "err", err)
			envelope.Error(c, http.StatusInternalServerError, "internal_error", "Could not verify credentials", nil)
			return
		}

		c.Set(CtxUserID, u.ID)
		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), u.ID))

		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, reason string) {
	m.prom.IncAuthFailure(reason)
	slog.Default().InfoContext(c.Request.Context(), "auth rejected", "reason", reason, "request_id", envelope.RequestID(c))

	envelope.Error(c, http.StatusUnauthorized, "unauthorized", unauthorizedMessage, nil)
}

// bearerToken accepts only the literal "Bearer <token>" form.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || scheme != "Bearer" {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
