package dto

import (
	"time"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
)

// ListWalletEntriesParams defines parameters for listing wallet ledger entries.
type ListWalletEntriesParams struct {
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// WalletEntryResponse defines the data returned for a wallet ledger entry.
type WalletEntryResponse struct {
	EntryID       string    `json:"entryID"`
	HostID        string    `json:"hostID"`
	Currency      string    `json:"currency"`
	DeltaCents    int64     `json:"deltaCents"`
	Reason        string    `json:"reason"`
	CorrelationID string    `json:"correlationID"`
	BookingID     string    `json:"bookingID,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ListWalletEntriesResponse wraps a page of wallet entries.
type ListWalletEntriesResponse struct {
	Entries   []WalletEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// WalletBalanceResponse defines the verified balance of a host wallet.
type WalletBalanceResponse struct {
	HostID       string `json:"hostID"`
	Currency     string `json:"currency"`
	BalanceCents int64  `json:"balanceCents"`
	Balance      string `json:"balance"`
}

// ToWalletEntryResponses converts ledger entries to their DTOs.
func ToWalletEntryResponses(entries []domain.WalletLedgerEntry) []WalletEntryResponse {
	responses := make([]WalletEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = WalletEntryResponse{
			EntryID:       e.EntryID,
			HostID:        e.HostID,
			Currency:      string(e.Currency),
			DeltaCents:    e.DeltaCents,
			Reason:        string(e.Reason),
			CorrelationID: e.CorrelationID,
			BookingID:     e.BookingID,
			Description:   e.Description,
			CreatedAt:     e.CreatedAt,
		}
	}
	return responses
}

// ToWalletBalanceResponse converts a verified balance to its DTO.
// The formatted balance is signed since adjustments may take a wallet below zero.
func ToWalletBalanceResponse(b domain.WalletBalance) WalletBalanceResponse {
	formatted := ""
	if m, err := domain.NewMoney(abs(b.BalanceCents), string(b.Currency)); err == nil {
		formatted = m.String()
		if b.BalanceCents < 0 {
			formatted = "-" + formatted
		}
	}
	return WalletBalanceResponse{
		HostID:       b.HostID,
		Currency:     string(b.Currency),
		BalanceCents: b.BalanceCents,
		Balance:      formatted,
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
