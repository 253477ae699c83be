package paymentservice

import (
	"context"
	"errors"
	"sync"

	"github.com/moonrisegoods/nps/internal/domain"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.PaymentSession

	paidTransitions    int
	expiredTransitions int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]domain.PaymentSession)}
}

func (f *fakeSessionRepo) put(session domain.PaymentSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.OrderID] = session
}

func (f *fakeSessionRepo) Create(_ context.Context, session *domain.PaymentSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.sessions[session.OrderID]; exists {
		return errors.New("duplicate order id")
	}
	f.sessions[session.OrderID] = *session
	return nil
}

func (f *fakeSessionRepo) GetByOrderID(_ context.Context, orderID string) (*domain.PaymentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[orderID]
	if !ok {
		return nil, nil
	}
	copied := session
	return &copied, nil
}

func (f *fakeSessionRepo) UpdateCustomer(_ context.Context, orderID string, customer domain.CustomerInfo) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[orderID]
	if !ok || session.Status != domain.SessionStatusPending {
		return false, nil
	}
	session.Customer = &customer
	f.sessions[orderID] = session
	return true, nil
}

func (f *fakeSessionRepo) MarkExpired(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[orderID]
	if !ok || session.Status != domain.SessionStatusPending {
		return false, nil
	}
	session.Status = domain.SessionStatusExpired
	f.sessions[orderID] = session
	f.expiredTransitions++
	return true, nil
}

func (f *fakeSessionRepo) MarkPaid(_ context.Context, orderID, txHash, payerAddress string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[orderID]
	if !ok || session.Status != domain.SessionStatusPending {
		return false, nil
	}
	session.Status = domain.SessionStatusPaid
	session.TxHash = txHash
	session.PayerAddress = payerAddress
	f.sessions[orderID] = session
	f.paidTransitions++
	return true, nil
}

type fakeTxnRepo struct {
	mu      sync.Mutex
	records map[string]domain.LedgerTransaction
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{records: make(map[string]domain.LedgerTransaction)}
}

func (f *fakeTxnRepo) Record(_ context.Context, txn domain.LedgerTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.records[txn.TxHash]; exists {
		return errors.New("duplicate tx hash")
	}
	f.records[txn.TxHash] = txn
	return nil
}

func (f *fakeTxnRepo) GetByHash(_ context.Context, txHash string) (*domain.LedgerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn, ok := f.records[txHash]
	if !ok {
		return nil, nil
	}
	copied := txn
	return &copied, nil
}

type fakeCatalogRepo struct {
	prices    map[string]int64
	discounts map[string]int
}

func (f *fakeCatalogRepo) VariantPriceCents(_ context.Context, variantID string) (int64, bool, error) {
	price, ok := f.prices[variantID]
	return price, ok, nil
}

func (f *fakeCatalogRepo) DiscountPercent(_ context.Context, code string) (int, bool, error) {
	percent, ok := f.discounts[code]
	return percent, ok, nil
}

type fakeLedger struct {
	mu sync.Mutex

	receivable    []domain.ReceivableEntry
	history       []domain.HistoryEntry
	receivableErr error
	historyErr    error

	receivableCalls int
	historyCalls    int
}

func (f *fakeLedger) Receivable(_ context.Context, _ string, _ int, _ string) ([]domain.ReceivableEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receivableCalls++
	if f.receivableErr != nil {
		return nil, f.receivableErr
	}
	return f.receivable, nil
}

func (f *fakeLedger) AccountHistory(_ context.Context, _ string, _ int) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeLedger) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receivableCalls, f.historyCalls
}

type fakePriceClient struct {
	rate float64
	err  error
}

func (f *fakePriceClient) USDRate(_ context.Context) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.rate, nil
}
