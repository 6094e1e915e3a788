package dto

import (
	"encoding/json"
	"time"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// ProcessorWebhookEvent is the envelope delivered by the payment processor.
type ProcessorWebhookEvent struct {
	ID        string          `json:"id" binding:"required"`
	Type      string          `json:"type" binding:"required"`
	CreatedAt time.Time       `json:"createdAt"`
	Data      json.RawMessage `json:"data"`
}

// WebhookAckResponse reports how an event was handled.
type WebhookAckResponse struct {
	EventID string `json:"eventID"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// ToWebhookAckResponse converts a reconciliation record to its DTO.
func ToWebhookAckResponse(e domain.ReconciledEvent) WebhookAckResponse {
	return WebhookAckResponse{
		EventID: e.EventID,
		Outcome: string(e.Outcome),
		Detail:  e.Detail,
	}
}

// ErrorBody is the machine-readable error kind plus a human message.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse is returned for every failed API call.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
