package middleware

import (
	"context"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// callerKey is the key used to store the authenticated caller in the request context.
const callerKey = contextKey("caller")

// WithCaller returns a copy of ctx carrying the caller.
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromCtx retrieves the authenticated caller from a standard context.
func CallerFromCtx(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(domain.Caller)
	return caller, ok
}

// GetCallerFromContext retrieves the authenticated caller from the Gin context.
// It returns the caller and a boolean indicating if it was found.
func GetCallerFromContext(c *gin.Context) (domain.Caller, bool) {
	return CallerFromCtx(c.Request.Context())
}
