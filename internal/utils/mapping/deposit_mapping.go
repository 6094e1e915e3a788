package mapping

import (
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/models"
)

// ToModelDeposit converts a domain.SecurityDeposit to its row model
func ToModelDeposit(d domain.SecurityDeposit) models.SecurityDeposit {
	return models.SecurityDeposit{
		DepositID:          d.DepositID,
		BookingID:          d.BookingID,
		AmountCents:        d.AmountCents,
		CurrencyCode:       string(d.Currency),
		Status:             string(d.Status),
		CapturedCents:      d.CapturedCents,
		HoldReference:      d.HoldReference,
		PendingAction:      string(d.PendingAction),
		PendingAmountCents: d.PendingAmountCents,
		FailureReason:      d.FailureReason,
		DiscardedAt:        d.DiscardedAt,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainDeposit converts a deposit row to a domain.SecurityDeposit
func ToDomainDeposit(m models.SecurityDeposit) domain.SecurityDeposit {
	return domain.SecurityDeposit{
		DepositID:          m.DepositID,
		BookingID:          m.BookingID,
		AmountCents:        m.AmountCents,
		Currency:           domain.Currency(m.CurrencyCode),
		Status:             domain.DepositStatus(m.Status),
		CapturedCents:      m.CapturedCents,
		HoldReference:      m.HoldReference,
		PendingAction:      domain.PendingAction(m.PendingAction),
		PendingAmountCents: m.PendingAmountCents,
		FailureReason:      m.FailureReason,
		DiscardedAt:        m.DiscardedAt,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainDeposits converts a slice of deposit rows
func ToDomainDeposits(ms []models.SecurityDeposit) []domain.SecurityDeposit {
	ds := make([]domain.SecurityDeposit, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainDeposit(m)
	}
	return ds
}

// ToDomainDepositPolicy converts a policy row to a domain.DepositPolicy
func ToDomainDepositPolicy(m models.DepositPolicy) domain.DepositPolicy {
	return domain.DepositPolicy{
		ListingID:   m.ListingID,
		Enabled:     m.Enabled,
		AmountCents: m.AmountCents,
		Currency:    domain.Currency(m.CurrencyCode),
	}
}
