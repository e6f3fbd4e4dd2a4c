package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/envelope"
	"github.com/gin-gonic/gin"
)

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	envelope.Error(ctx, status, code, message, details)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondValidation(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, "validation_error", message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

// RespondInternal logs err and answers with the fixed message; storage
// errors never reach the client.
func RespondInternal(ctx *gin.Context, message string, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), message, "err", err, "request_id", envelope.RequestID(ctx))
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// respondStoreError maps repository errors onto the HTTP taxonomy: foreign
// and missing ids are both 404, bad field values are 400, anything else 500.
func respondStoreError(ctx *gin.Context, err error, notFound, internal string) {
	switch {
	case errors.Is(err, task.ErrNotFound), errors.Is(err, project.ErrNotFound):
		RespondNotFound(ctx, notFound)

	case errors.Is(err, task.ErrInvalidTitle),
		errors.Is(err, task.ErrInvalidStatus),
		errors.Is(err, task.ErrInvalidPriority),
		errors.Is(err, task.ErrProjectNotFound),
		errors.Is(err, project.ErrInvalidName),
		errors.Is(err, project.ErrInvalidColor),
		errors.Is(err, user.ErrInvalidName):
		RespondValidation(ctx, err.Error())

	default:
		RespondInternal(ctx, internal, err)
	}
}

// requestContext bounds a store call by d while keeping the request's trace
// and user id.
func requestContext(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}
