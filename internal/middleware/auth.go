package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware creates a Gin middleware handler that validates JWT tokens
// and stores the caller identity and role in the request context.
// An empty issuer disables the issuer check.
func AuthMiddleware(jwtSecret string, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Authorization header missing")
			abortUnauthorized(c, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logger.Warn("Authorization header format invalid")
			abortUnauthorized(c, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := utils.ParseAndValidateCallerJWT(parts[1], jwtSecret, issuer)
		if err != nil {
			logger.Warn("Invalid token", "error", err)
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
				msg = "Token not valid yet"
			}
			abortUnauthorized(c, msg)
			return
		}
		if claims.Subject == "" {
			logger.Error("Subject missing from valid token")
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		role := domain.Role(strings.ToUpper(claims.Role))
		if !role.IsValid() {
			logger.Warn("Unknown role in token", slog.String("role", claims.Role))
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		caller := domain.Caller{ID: claims.Subject, Role: role}
		enrichedLogger := logger.With(slog.String("user_id", caller.ID), slog.String("role", string(caller.Role)))

		ctx := WithCaller(c.Request.Context(), caller)
		ctx = WithLogger(ctx, enrichedLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRoles aborts with 403 unless the authenticated caller has one of the roles.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCallerFromContext(c)
		if !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}
		if !slices.Contains(roles, caller.Role) {
			GetLoggerFromCtx(c.Request.Context()).Warn("Role not allowed for route", slog.String("role", string(caller.Role)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{"kind": "NotAuthorized", "message": "Role not allowed"}})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"kind": "Unauthenticated", "message": msg}})
}
