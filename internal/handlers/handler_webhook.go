package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/SscSPs/booking_settlement/internal/adapters/processor"
	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/dto"
	"github.com/SscSPs/booking_settlement/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const maxWebhookBody = 1 << 20

// webhookHandler receives the processor's event feed.
type webhookHandler struct {
	reconciliation portssvc.ReconciliationSvc
	secret         string
}

func newWebhookHandler(reconciliation portssvc.ReconciliationSvc, secret string) *webhookHandler {
	return &webhookHandler{reconciliation: reconciliation, secret: secret}
}

// registerWebhookRoutes registers the public, signature-checked webhook endpoint.
func registerWebhookRoutes(r *gin.Engine, reconciliation portssvc.ReconciliationSvc, secret string) {
	h := newWebhookHandler(reconciliation, secret)
	r.POST("/webhooks/processor", h.receive)
}

// receive godoc
// @Summary Receive a processor event
// @Description Verifies the HMAC signature, decodes the event and reconciles it at most once. Any 2xx answer acknowledges the delivery; 5xx asks the processor to redeliver.
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   X-Processor-Signature header string true "Hex HMAC-SHA256 of the body"
// @Param   event body dto.ProcessorWebhookEvent true "Processor event"
// @Success 200 {object} dto.WebhookAckResponse
// @Failure 400 {object} dto.ErrorResponse "Malformed event"
// @Failure 401 {object} dto.ErrorResponse "Invalid signature"
// @Failure 413 {object} dto.ErrorResponse "Body over 1 MiB"
// @Failure 500 {object} dto.ErrorResponse "Processing failed, redeliver"
// @Router /webhooks/processor [post]
func (h *webhookHandler) receive(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("Webhook body too large", slog.Int64("limit_bytes", tooLarge.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: dto.ErrorBody{Kind: string(apperrors.KindValidation), Message: "event body exceeds 1 MiB"}})
			return
		}
		respondBindError(c, err)
		return
	}
	if !processor.VerifySignature(h.secret, body, c.GetHeader(processor.SignatureHeader)) {
		logger.Warn("Webhook signature rejected")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: dto.ErrorBody{Kind: "Unauthenticated", Message: "invalid signature"}})
		return
	}

	var envelope dto.ProcessorWebhookEvent
	if err := json.Unmarshal(body, &envelope); err != nil {
		respondBindError(c, err)
		return
	}
	if err := binding.Validator.ValidateStruct(&envelope); err != nil {
		respondBindError(c, err)
		return
	}

	logger = logger.With(slog.String("event_id", envelope.ID), slog.String("event_type", envelope.Type))
	event, err := processor.MapEvent(envelope)
	if err != nil {
		logger.Warn("Webhook event could not be decoded", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorBody{Kind: string(apperrors.KindValidation), Message: err.Error()}})
		return
	}

	ctx := middleware.WithCaller(c.Request.Context(), domain.SystemCaller)
	ctx = middleware.WithLogger(ctx, logger)
	record, err := h.reconciliation.Process(ctx, event)
	if err != nil {
		logger.Error("Failed to reconcile webhook event", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrorBody{Kind: string(apperrors.KindInternal), Message: "Failed to process event"}})
		return
	}

	logger.Info("Webhook event reconciled", slog.String("outcome", string(record.Outcome)))
	c.JSON(http.StatusOK, dto.ToWebhookAckResponse(record))
}
