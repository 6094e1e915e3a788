package services_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/SscSPs/booking_settlement/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/booking_settlement/internal/core/ports/repositories"
)

// memStore implements every repository port in memory. Transactions are
// serialized and roll back by restoring a snapshot taken at begin.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bookings map[string]domain.Booking
	deposits map[string]domain.SecurityDeposit
	entries  []domain.WalletLedgerEntry
	wallets  map[string]domain.Wallet
	events   map[string]domain.ReconciledEvent
	policies map[string]domain.DepositPolicy
	disputes map[string]bool
	accounts map[string]string

	depositUpdateErr error // Returned by UpdateDeposit when set
}

type memSnapshot struct {
	bookings map[string]domain.Booking
	deposits map[string]domain.SecurityDeposit
	entries  []domain.WalletLedgerEntry
	wallets  map[string]domain.Wallet
	events   map[string]domain.ReconciledEvent
}

type memTxKey struct{}

func newMemStore() *memStore {
	return &memStore{
		bookings: make(map[string]domain.Booking),
		deposits: make(map[string]domain.SecurityDeposit),
		wallets:  make(map[string]domain.Wallet),
		events:   make(map[string]domain.ReconciledEvent),
		policies: make(map[string]domain.DepositPolicy),
		disputes: make(map[string]bool),
		accounts: make(map[string]string),
	}
}

func (m *memStore) provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:      m,
		BookingRepo:    m,
		DepositRepo:    m,
		WalletRepo:     m,
		ReconciledRepo: m,
		PolicyRepo:     m,
		DisputeRepo:    m,
		PayoutAccounts: m,
	}
}

func walletKey(hostID string, currency domain.Currency) string {
	return hostID + "/" + string(currency)
}

// --- TransactionManager ---

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := memSnapshot{
		bookings: maps.Clone(m.bookings),
		deposits: maps.Clone(m.deposits),
		entries:  slices.Clone(m.entries),
		wallets:  maps.Clone(m.wallets),
		events:   maps.Clone(m.events),
	}
	m.mu.Unlock()

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.mu.Lock()
		m.bookings, m.deposits, m.entries, m.wallets, m.events = snap.bookings, snap.deposits, snap.entries, snap.wallets, snap.events
		m.mu.Unlock()
		return err
	}
	return nil
}

// --- Bookings ---

func (m *memStore) SaveBooking(_ context.Context, booking domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[booking.BookingID]; ok {
		return apperrors.ErrDuplicate
	}
	m.bookings[booking.BookingID] = booking
	return nil
}

func (m *memStore) FindBookingByID(_ context.Context, bookingID string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, apperrors.NewNotFoundError("booking " + bookingID)
	}
	return &b, nil
}

func (m *memStore) UpdateBooking(_ context.Context, booking domain.Booking, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.bookings[booking.BookingID]
	if !ok {
		return apperrors.NewNotFoundError("booking " + booking.BookingID)
	}
	if current.Version != expectedVersion {
		return apperrors.ErrConcurrentModification
	}
	booking.Version = expectedVersion + 1
	m.bookings[booking.BookingID] = booking
	return nil
}

// --- Deposits ---

func (m *memStore) SaveDeposit(_ context.Context, deposit domain.SecurityDeposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deposits {
		if d.BookingID == deposit.BookingID && d.DiscardedAt == nil {
			return apperrors.ErrDuplicateDeposit
		}
	}
	m.deposits[deposit.DepositID] = deposit
	return nil
}

func (m *memStore) FindDepositByID(_ context.Context, depositID string) (*domain.SecurityDeposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deposits[depositID]
	if !ok {
		return nil, apperrors.NewNotFoundError("deposit " + depositID)
	}
	return &d, nil
}

func (m *memStore) FindActiveDepositByBookingID(_ context.Context, bookingID string) (*domain.SecurityDeposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deposits {
		if d.BookingID == bookingID && d.DiscardedAt == nil {
			return &d, nil
		}
	}
	return nil, apperrors.NewNotFoundError("deposit for booking " + bookingID)
}

func (m *memStore) filterDeposits(limit int, keep func(domain.SecurityDeposit) bool) []domain.SecurityDeposit {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SecurityDeposit
	for _, d := range m.deposits {
		if d.DiscardedAt == nil && keep(d) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b domain.SecurityDeposit) int { return a.LastUpdatedAt.Compare(b.LastUpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memStore) ListStaleHolds(_ context.Context, updatedBefore time.Time, limit int) ([]domain.SecurityDeposit, error) {
	return m.filterDeposits(limit, func(d domain.SecurityDeposit) bool {
		return d.Status == domain.DepositHoldCreated && !d.HasPendingAction() && d.LastUpdatedAt.Before(updatedBefore)
	}), nil
}

func (m *memStore) ListStalePendingActions(_ context.Context, updatedBefore time.Time, limit int) ([]domain.SecurityDeposit, error) {
	return m.filterDeposits(limit, func(d domain.SecurityDeposit) bool {
		return d.HasPendingAction() && d.LastUpdatedAt.Before(updatedBefore)
	}), nil
}

func (m *memStore) ListReleasableDeposits(_ context.Context, checkOutBefore time.Time, limit int) ([]domain.SecurityDeposit, error) {
	m.mu.Lock()
	checkOuts := make(map[string]time.Time, len(m.bookings))
	for id, b := range m.bookings {
		checkOuts[id] = b.CheckOut
	}
	m.mu.Unlock()

	return m.filterDeposits(limit, func(d domain.SecurityDeposit) bool {
		return d.Status == domain.DepositAuthorized && !d.HasPendingAction() && checkOuts[d.BookingID].Before(checkOutBefore)
	}), nil
}

func (m *memStore) UpdateDeposit(_ context.Context, deposit domain.SecurityDeposit, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depositUpdateErr != nil {
		return m.depositUpdateErr
	}
	current, ok := m.deposits[deposit.DepositID]
	if !ok {
		return apperrors.NewNotFoundError("deposit " + deposit.DepositID)
	}
	if current.Version != expectedVersion {
		return apperrors.ErrConcurrentModification
	}
	deposit.Version = expectedVersion + 1
	m.deposits[deposit.DepositID] = deposit
	return nil
}

// --- Wallet ---

func (m *memStore) FindEntryByCorrelation(_ context.Context, correlationID string, reason domain.LedgerReason) (*domain.WalletLedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.CorrelationID == correlationID && e.Reason == reason {
			return &e, nil
		}
	}
	return nil, apperrors.NewNotFoundError("wallet entry " + correlationID)
}

func (m *memStore) AppendEntry(_ context.Context, entry domain.WalletLedgerEntry) (domain.WalletLedgerEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.CorrelationID == entry.CorrelationID && e.Reason == entry.Reason {
			return e, false, nil
		}
	}

	key := walletKey(entry.HostID, entry.Currency)
	wallet, ok := m.wallets[key]
	if !ok {
		wallet = domain.Wallet{HostID: entry.HostID, Currency: entry.Currency}
	}
	if wallet.Frozen {
		return domain.WalletLedgerEntry{}, false, fmt.Errorf("%w: wallet frozen", apperrors.ErrDataIntegrity)
	}

	m.entries = append(m.entries, entry)
	wallet.BalanceCents += entry.DeltaCents
	wallet.UpdatedAt = entry.CreatedAt
	m.wallets[key] = wallet
	return entry, true, nil
}

func (m *memStore) FindWalletSnapshot(_ context.Context, hostID string, currency domain.Currency) (*domain.Wallet, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, e := range m.entries {
		if e.HostID == hostID && e.Currency == currency {
			sum += e.DeltaCents
		}
	}
	wallet, ok := m.wallets[walletKey(hostID, currency)]
	if !ok {
		return nil, sum, nil
	}
	return &wallet, sum, nil
}

// ListEntries pages newest first; the token is the offset of the next page.
func (m *memStore) ListEntries(_ context.Context, hostID string, limit int, nextToken *string) ([]domain.WalletLedgerEntry, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := 0
	if nextToken != nil {
		var err error
		if offset, err = strconv.Atoi(*nextToken); err != nil {
			return nil, nil, fmt.Errorf("%w: bad token", apperrors.ErrValidation)
		}
	}

	var hostEntries []domain.WalletLedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].HostID == hostID {
			hostEntries = append(hostEntries, m.entries[i])
		}
	}
	if offset >= len(hostEntries) {
		return []domain.WalletLedgerEntry{}, nil, nil
	}

	end := min(offset+limit, len(hostEntries))
	page := hostEntries[offset:end]
	if end == len(hostEntries) {
		return page, nil, nil
	}
	next := strconv.Itoa(end)
	return page, &next, nil
}

func (m *memStore) FreezeWallet(_ context.Context, hostID string, currency domain.Currency, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := walletKey(hostID, currency)
	wallet, ok := m.wallets[key]
	if !ok {
		wallet = domain.Wallet{HostID: hostID, Currency: currency}
	}
	wallet.Frozen = true
	wallet.FrozenReason = reason
	m.wallets[key] = wallet
	return nil
}

// --- Reconciled events ---

func (m *memStore) FindReconciledEvent(_ context.Context, eventID string) (*domain.ReconciledEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return nil, apperrors.NewNotFoundError("event " + eventID)
	}
	return &ev, nil
}

func (m *memStore) InsertReconciledEvent(_ context.Context, event domain.ReconciledEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[event.EventID]; ok {
		return false, nil
	}
	m.events[event.EventID] = event
	return true, nil
}

func (m *memStore) UpdateReconciledEventOutcome(_ context.Context, eventID string, outcome domain.ReconciliationOutcome, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return apperrors.NewNotFoundError("event " + eventID)
	}
	ev.Outcome = outcome
	ev.Detail = detail
	m.events[eventID] = ev
	return nil
}

// --- Directory projections ---

func (m *memStore) FindDepositPolicy(_ context.Context, listingID string) (*domain.DepositPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.policies[listingID]
	if !ok {
		return nil, apperrors.NewNotFoundError("deposit policy " + listingID)
	}
	return &p, nil
}

func (m *memStore) SaveDepositPolicy(_ context.Context, policy domain.DepositPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[policy.ListingID] = policy
	return nil
}

func (m *memStore) HasOpenDispute(_ context.Context, bookingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disputes[bookingID], nil
}

func (m *memStore) FindPayoutAccount(_ context.Context, hostID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[hostID]
	if !ok {
		return "", apperrors.NewNotFoundError("payout account " + hostID)
	}
	return account, nil
}

// --- Test helpers ---

func (m *memStore) setDispute(bookingID string, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disputes[bookingID] = open
}

func (m *memStore) failDepositUpdates(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depositUpdateErr = err
}

func (m *memStore) setPayoutAccount(hostID, account string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[hostID] = account
}

func (m *memStore) shiftBalance(hostID string, currency domain.Currency, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := walletKey(hostID, currency)
	wallet := m.wallets[key]
	wallet.BalanceCents += delta
	m.wallets[key] = wallet
}

func (m *memStore) wallet(hostID string, currency domain.Currency) domain.Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[walletKey(hostID, currency)]
}

func (m *memStore) entriesFor(hostID string) []domain.WalletLedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WalletLedgerEntry
	for _, e := range m.entries {
		if e.HostID == hostID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) entriesWithReason(hostID string, reason domain.LedgerReason) []domain.WalletLedgerEntry {
	var out []domain.WalletLedgerEntry
	for _, e := range m.entriesFor(hostID) {
		if e.Reason == reason {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) bookingsWithStatus(status domain.BookingStatus) []domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t.UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingAlerts keeps every published alert.
type recordingAlerts struct {
	mu     sync.Mutex
	alerts []gateways.Alert
}

func (r *recordingAlerts) Publish(_ context.Context, alert gateways.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingAlerts) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.alerts))
	for i, a := range r.alerts {
		kinds[i] = a.Kind
	}
	return kinds
}

var (
	_ portsrepo.TransactionManager        = (*memStore)(nil)
	_ portsrepo.BookingRepositoryFacade   = (*memStore)(nil)
	_ portsrepo.DepositRepositoryFacade   = (*memStore)(nil)
	_ portsrepo.WalletRepositoryFacade    = (*memStore)(nil)
	_ portsrepo.ReconciledEventRepository = (*memStore)(nil)
	_ gateways.AlertPublisher             = (*recordingAlerts)(nil)
)
