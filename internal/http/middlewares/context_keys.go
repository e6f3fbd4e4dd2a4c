package middlewares

import "github.com/geocoder89/taskhub/internal/http/envelope"

// gin context keys
const (
	CtxUserID    = "auth.userID"
	CtxUser      = "auth.user"
	CtxRequestID = envelope.RequestIDKey
)
