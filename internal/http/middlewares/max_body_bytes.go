package middlewares

import (
	"net/http"

	"github.com/geocoder89/taskhub/internal/http/envelope"
	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies at max bytes. A declared Content-Length over
// the cap is refused up front; chunked bodies are cut off by the reader and
// surface as a bind error in the handler.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > max {
			envelope.Error(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large", nil)
			return
		}

		if ctx.Request.Body != nil {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)
		}

		ctx.Next()
	}
}
