package mapping

import (
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/models"
)

// ToModelBooking converts a domain.Booking to its row model
func ToModelBooking(d domain.Booking) models.Booking {
	return models.Booking{
		BookingID:        d.BookingID,
		GuestID:          d.GuestID,
		HostID:           d.HostID,
		ListingID:        d.ListingID,
		CheckIn:          d.CheckIn,
		CheckOut:         d.CheckOut,
		CurrencyCode:     string(d.Currency),
		GrossCents:       d.GrossCents,
		HostFeeCents:     d.HostFeeCents,
		PlatformNetCents: d.PlatformNetCents,
		Status:           string(d.Status),
		PaymentReference: d.PaymentReference,
		PayoutTransferID: d.PayoutTransferID,
		PaidOutCents:     d.PaidOutCents,
		PayoutAttempts:   d.PayoutAttempts,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBooking converts a booking row to a domain.Booking
func ToDomainBooking(m models.Booking) domain.Booking {
	return domain.Booking{
		BookingID:        m.BookingID,
		GuestID:          m.GuestID,
		HostID:           m.HostID,
		ListingID:        m.ListingID,
		CheckIn:          m.CheckIn,
		CheckOut:         m.CheckOut,
		Currency:         domain.Currency(m.CurrencyCode),
		GrossCents:       m.GrossCents,
		HostFeeCents:     m.HostFeeCents,
		PlatformNetCents: m.PlatformNetCents,
		Status:           domain.BookingStatus(m.Status),
		PaymentReference: m.PaymentReference,
		PayoutTransferID: m.PayoutTransferID,
		PaidOutCents:     m.PaidOutCents,
		PayoutAttempts:   m.PayoutAttempts,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
