package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/envelope"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, name, email, password string) (user.User, error)
	Authenticate(ctx context.Context, email, password string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
}

type AuthHandler struct {
	accounts AccountService
	tokens   TokenIssuer
	prom     *observability.Prom
}

func NewAuthHandler(accounts AccountService, tokens TokenIssuer, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		tokens:   tokens,
		prom:     prom,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates; leave room for it
	cctx, cancel := requestContext(ctx, 5*time.Second)
	defer cancel()

	u, err := h.accounts.Register(cctx, req.Name, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already in use.", nil)
		case errors.Is(err, user.ErrInvalidName),
			errors.Is(err, user.ErrInvalidEmail),
			errors.Is(err, user.ErrPasswordTooShort),
			errors.Is(err, user.ErrPasswordTooLong):
			RespondValidation(ctx, err.Error())
		default:
			RespondInternal(ctx, "Could not create user", err)
		}
		return
	}

	h.respondWithToken(ctx, http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, 5*time.Second)
	defer cancel()

	u, err := h.accounts.Authenticate(cctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			h.prom.IncAuthFailure("invalid_credentials")
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		RespondInternal(ctx, "Could not log in", err)
		return
	}

	h.respondWithToken(ctx, http.StatusOK, u)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, envelope.Success(gin.H{"user": u}))
}

func (h *AuthHandler) UpdateMe(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req user.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	u, err := h.accounts.UpdateProfile(cctx, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrForbiddenField):
			RespondError(ctx, http.StatusBadRequest, "forbidden_field", "This route is not for password or email updates.", nil)
		case errors.Is(err, user.ErrInvalidName):
			RespondValidation(ctx, err.Error())
		case errors.Is(err, user.ErrNotFound):
			// deleted between the auth check and the write
			RespondUnAuthorized(ctx, "unauthorized", "Invalid or expired token. Please log in again.")
		default:
			RespondInternal(ctx, "Could not update profile", err)
		}
		return
	}

	ctx.JSON(http.StatusOK, envelope.Success(gin.H{"user": u}))
}

func (h *AuthHandler) respondWithToken(ctx *gin.Context, status int, u user.User) {
	token, _, err := h.tokens.Issue(u.ID)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	body := envelope.Success(gin.H{"user": u})
	body.Token = token

	ctx.JSON(status, body)
}
