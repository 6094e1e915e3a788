package services

import (
	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/booking_settlement/internal/core/ports/services"
	"github.com/SscSPs/booking_settlement/internal/platform/clock"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(settings Settings, repos portsrepo.RepositoryProvider, processor gateways.PaymentProcessor, alerts gateways.AlertPublisher, clk clock.Clock) *portssvc.ServiceContainer {
	base := BaseService{Clock: clk}
	container := &portssvc.ServiceContainer{}

	// Wallet first since bookings and deposits post ledger entries through it
	container.Wallet = NewWalletService(repos.WalletRepo, alerts, base)
	container.Booking = NewBookingService(repos.TxManager, repos.BookingRepo, container.Wallet, settings, base)
	container.Deposit = NewDepositService(repos, processor, container.Wallet, settings, base)
	container.Reconciliation = NewReconciliationService(repos, container.Booking, container.Deposit, container.Wallet, alerts, base)
	container.Settlement = NewSettlementService(repos, container.Booking, container.Deposit, container.Wallet, processor, settings, base)

	return container
}
