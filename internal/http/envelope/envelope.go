// Package envelope writes the JSON bodies shared by handlers and middlewares.
package envelope

import "github.com/gin-gonic/gin"

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// RequestIDKey is where the RequestID middleware stores the id on the gin context.
	RequestIDKey = "request_id"
)

type ErrorBody struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"requestId,omitempty"`
	Details    any    `json:"details,omitempty"`
}

type SuccessBody struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func RequestID(ctx *gin.Context) string {
	v, ok := ctx.Get(RequestIDKey)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// Error aborts the chain and writes the error body.
func Error(ctx *gin.Context, status int, code, message string, details any) {
	ctx.AbortWithStatusJSON(status, ErrorBody{
		Status:     StatusError,
		StatusCode: status,
		Code:       code,
		Message:    message,
		RequestID:  RequestID(ctx),
		Details:    details,
	})
}

func Success(data any) SuccessBody {
	return SuccessBody{Status: StatusSuccess, Data: data}
}

func List(count int, data any) SuccessBody {
	return SuccessBody{Status: StatusSuccess, Results: &count, Data: data}
}
