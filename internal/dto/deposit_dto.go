package dto

import (
	"time"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// ConfirmDepositRequest confirms a hold out of band (admin/system).
type ConfirmDepositRequest struct {
	HoldReference string `json:"holdReference" binding:"required"`
}

// CaptureDepositRequest defines the amount of the hold to capture.
type CaptureDepositRequest struct {
	AmountCents int64 `json:"amountCents" binding:"required,gt=0"`
}

// UpsertDepositPolicyRequest sets the deposit policy of a listing.
type UpsertDepositPolicyRequest struct {
	Enabled     bool   `json:"enabled"`
	AmountCents int64  `json:"amountCents" binding:"gte=0"`
	Currency    string `json:"currency" binding:"required,len=3,iso_currency"`
}

// DepositResponse defines the data returned for a security deposit.
type DepositResponse struct {
	DepositID          string     `json:"depositID"`
	BookingID          string     `json:"bookingID"`
	AmountCents        int64      `json:"amountCents"`
	Currency           string     `json:"currency"`
	Status             string     `json:"status"`
	CapturedCents      *int64     `json:"capturedCents,omitempty"`
	HoldReference      string     `json:"holdReference,omitempty"`
	PendingAction      string     `json:"pendingAction,omitempty"`
	PendingAmountCents int64      `json:"pendingAmountCents,omitempty"`
	FailureReason      string     `json:"failureReason,omitempty"`
	DiscardedAt        *time.Time `json:"discardedAt,omitempty"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastUpdatedAt      time.Time  `json:"lastUpdatedAt"`
}

// ToDepositResponse converts a domain.SecurityDeposit to DepositResponse DTO.
func ToDepositResponse(d *domain.SecurityDeposit) DepositResponse {
	return DepositResponse{
		DepositID:          d.DepositID,
		BookingID:          d.BookingID,
		AmountCents:        d.AmountCents,
		Currency:           string(d.Currency),
		Status:             string(d.Status),
		CapturedCents:      d.CapturedCents,
		HoldReference:      d.HoldReference,
		PendingAction:      string(d.PendingAction),
		PendingAmountCents: d.PendingAmountCents,
		FailureReason:      d.FailureReason,
		DiscardedAt:        d.DiscardedAt,
		Version:            d.Version,
		CreatedAt:          d.CreatedAt,
		LastUpdatedAt:      d.LastUpdatedAt,
	}
}

// DepositPolicyResponse defines the data returned for a listing deposit policy.
type DepositPolicyResponse struct {
	ListingID   string `json:"listingID"`
	Enabled     bool   `json:"enabled"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

// ToDepositPolicyResponse converts a domain.DepositPolicy to its DTO.
func ToDepositPolicyResponse(p *domain.DepositPolicy) DepositPolicyResponse {
	return DepositPolicyResponse{
		ListingID:   p.ListingID,
		Enabled:     p.Enabled,
		AmountCents: p.AmountCents,
		Currency:    string(p.Currency),
	}
}
