package processor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/dto"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Processor-Signature"

// Sign returns the signature the processor sends for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the signature header against the raw body.
// An empty secret rejects everything.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	expected := Sign(secret, body)
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}

// eventData is the union of fields carried in the event's data object.
type eventData struct {
	BookingID         string `json:"booking_id"`
	PaymentReference  string `json:"payment_reference"`
	DepositID         string `json:"deposit_id"`
	HoldReference     string `json:"hold_reference"`
	AmountCents       int64  `json:"amount_cents"`
	TransferReference string `json:"transfer_reference"`
	Reason            string `json:"reason"`
}

// MapEvent decodes the webhook envelope into a typed processor event.
// Unknown types and missing identifiers are validation errors.
func MapEvent(in dto.ProcessorWebhookEvent) (domain.ProcessorEvent, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("%w: event id is required", apperrors.ErrValidation)
	}

	var data eventData
	if len(in.Data) > 0 {
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: event %s has malformed data: %v", apperrors.ErrValidation, in.ID, err)
		}
	}
	meta := domain.EventMeta{ID: in.ID, OccurredAt: in.CreatedAt}

	require := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("%w: event %s (%s) is missing %s", apperrors.ErrValidation, in.ID, in.Type, field)
		}
		return nil
	}

	switch domain.EventType(in.Type) {
	case domain.EventPaymentSucceeded:
		if err := require("booking_id", data.BookingID); err != nil {
			return nil, err
		}
		return domain.PaymentSucceeded{EventMeta: meta, BookingID: data.BookingID, PaymentReference: data.PaymentReference}, nil
	case domain.EventPaymentFailed:
		if err := require("booking_id", data.BookingID); err != nil {
			return nil, err
		}
		return domain.PaymentFailed{EventMeta: meta, BookingID: data.BookingID, Reason: data.Reason}, nil
	case domain.EventDepositHoldConfirmed:
		if err := require("deposit_id", data.DepositID); err != nil {
			return nil, err
		}
		if err := require("hold_reference", data.HoldReference); err != nil {
			return nil, err
		}
		return domain.DepositHoldConfirmed{EventMeta: meta, DepositID: data.DepositID, HoldReference: data.HoldReference}, nil
	case domain.EventDepositHoldFailed:
		if err := require("deposit_id", data.DepositID); err != nil {
			return nil, err
		}
		return domain.DepositHoldFailed{EventMeta: meta, DepositID: data.DepositID, Reason: data.Reason}, nil
	case domain.EventDepositCaptured:
		if err := require("deposit_id", data.DepositID); err != nil {
			return nil, err
		}
		if data.AmountCents < 0 {
			return nil, fmt.Errorf("%w: event %s has negative amount", apperrors.ErrValidation, in.ID)
		}
		return domain.DepositCapturedEvent{EventMeta: meta, DepositID: data.DepositID, HoldReference: data.HoldReference, AmountCents: data.AmountCents}, nil
	case domain.EventDepositReleased:
		if err := require("deposit_id", data.DepositID); err != nil {
			return nil, err
		}
		return domain.DepositReleasedEvent{EventMeta: meta, DepositID: data.DepositID, HoldReference: data.HoldReference}, nil
	case domain.EventTransferCompleted:
		if err := require("transfer_reference", data.TransferReference); err != nil {
			return nil, err
		}
		return domain.TransferCompleted{EventMeta: meta, TransferReference: data.TransferReference}, nil
	case domain.EventTransferFailed:
		if err := require("transfer_reference", data.TransferReference); err != nil {
			return nil, err
		}
		return domain.TransferFailed{EventMeta: meta, TransferReference: data.TransferReference, Reason: data.Reason}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", apperrors.ErrValidation, in.Type)
	}
}
