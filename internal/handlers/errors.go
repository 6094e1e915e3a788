package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/dto"
	"github.com/SscSPs/booking_settlement/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError writes the error as {"error": {"kind", "message"}} with the
// status mapped from its kind. Internal failures hide the message.
func respondError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	kind, status := apperrors.KindOf(err)

	message := err.Error()
	if status >= http.StatusInternalServerError && kind == apperrors.KindInternal {
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		message = "Failed to " + action
	} else {
		logger.Warn("Request rejected", slog.String("action", action), slog.String("kind", string(kind)), slog.String("error", err.Error()))
	}

	c.JSON(status, dto.ErrorResponse{Error: dto.ErrorBody{Kind: string(kind), Message: message}})
}

// respondBindError answers a request that failed binding or validation.
func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorBody{
		Kind:    string(apperrors.KindValidation),
		Message: "Invalid request format: " + err.Error(),
	}})
}

// callerOrAbort returns the authenticated caller, answering 401 when missing.
func callerOrAbort(c *gin.Context) (domain.Caller, bool) {
	caller, ok := middleware.GetCallerFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Caller not found in context")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: dto.ErrorBody{Kind: "Unauthenticated", Message: "Unauthorized"}})
		return domain.Caller{}, false
	}
	return caller, true
}
