package credits

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domflow/tigerad/domain"
)

// fakeLedger mimics the conditional-update ledger in memory, including the
// insufficient-funds and duplicate-reference behavior.
type fakeLedger struct {
	mu         sync.Mutex
	balances   map[uint64]*domain.CreditBalance
	txns       []domain.CreditTransaction
	packages   map[uint64]domain.CreditPackage
	references map[string]bool
	nextID     uint64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:   map[uint64]*domain.CreditBalance{},
		packages:   map[uint64]domain.CreditPackage{},
		references: map[string]bool{},
	}
}

func (f *fakeLedger) seedBalance(storeID uint64, available int64) {
	f.balances[storeID] = &domain.CreditBalance{StoreID: storeID, TotalCredits: available, AvailableCredits: available}
}

func (f *fakeLedger) Debit(_ context.Context, storeID uint64, credits int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.balances[storeID]
	if !ok || b.AvailableCredits < credits {
		return false, nil
	}

	b.AvailableCredits -= credits
	b.UsedCredits += credits
	f.nextID++
	f.txns = append(f.txns, domain.CreditTransaction{ID: f.nextID, StoreID: storeID, TransactionType: domain.TransactionUsage, Credits: credits})
	return true, nil
}

func (f *fakeLedger) Reinstate(_ context.Context, storeID uint64, credits int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.balances[storeID]
	if !ok {
		return domain.ErrNotFound
	}

	b.AvailableCredits += credits
	b.UsedCredits -= credits
	f.nextID++
	f.txns = append(f.txns, domain.CreditTransaction{ID: f.nextID, StoreID: storeID, TransactionType: domain.TransactionUsage, Credits: -credits})
	return nil
}

func (f *fakeLedger) Credit(_ context.Context, storeID uint64, credits int64, amount float64, paymentMethod, reference string) (domain.CreditTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.references[reference] {
		return domain.CreditTransaction{}, domain.ErrDuplicateReference
	}
	f.references[reference] = true

	b, ok := f.balances[storeID]
	if !ok {
		b = &domain.CreditBalance{StoreID: storeID}
		f.balances[storeID] = b
	}
	b.TotalCredits += credits
	b.AvailableCredits += credits

	f.nextID++
	txn := domain.CreditTransaction{
		ID:              f.nextID,
		StoreID:         storeID,
		TransactionType: domain.TransactionPurchase,
		Credits:         credits,
		Amount:          amount,
		PaymentMethod:   paymentMethod,
		Status:          domain.TransactionStatusCompleted,
		CreatedAt:       time.Now(),
	}
	txn.PaymentReference = &reference
	f.txns = append(f.txns, txn)
	return txn, nil
}

func (f *fakeLedger) Refund(_ context.Context, storeID uint64, credits int64, amount float64, reason string) (domain.CreditTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.balances[storeID]
	if !ok || b.AvailableCredits < credits {
		return domain.CreditTransaction{}, domain.ErrInsufficientCredits
	}

	b.AvailableCredits -= credits
	b.PendingRefundCredits += credits

	f.nextID++
	txn := domain.CreditTransaction{
		ID:              f.nextID,
		StoreID:         storeID,
		TransactionType: domain.TransactionRefund,
		Credits:         -credits,
		Amount:          -amount,
		RefundReason:    reason,
		Status:          domain.TransactionStatusCompleted,
	}
	f.txns = append(f.txns, txn)
	return txn, nil
}

func (f *fakeLedger) GetBalance(_ context.Context, storeID uint64) (domain.CreditBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.balances[storeID]
	if !ok {
		return domain.CreditBalance{}, domain.ErrNotFound
	}
	return *b, nil
}

func (f *fakeLedger) GetHistory(_ context.Context, storeID uint64, limit, offset int) ([]domain.CreditTransaction, error) {
	var out []domain.CreditTransaction
	for _, txn := range f.txns {
		if txn.StoreID == storeID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeLedger) LatestPurchaseUnitPrice(_ context.Context, storeID uint64) (float64, string, bool, error) {
	for i := len(f.txns) - 1; i >= 0; i-- {
		txn := f.txns[i]
		if txn.StoreID == storeID && txn.TransactionType == domain.TransactionPurchase && txn.Credits > 0 {
			ref := ""
			if txn.PaymentReference != nil {
				ref = *txn.PaymentReference
			}
			return txn.Amount / float64(txn.Credits), ref, true, nil
		}
	}
	return 0, "", false, nil
}

func (f *fakeLedger) FindPackage(_ context.Context, id uint64) (domain.CreditPackage, error) {
	pkg, ok := f.packages[id]
	if !ok {
		return domain.CreditPackage{}, domain.ErrNotFound
	}
	return pkg, nil
}

func (f *fakeLedger) FindActivePackages(_ context.Context) ([]domain.CreditPackage, error) {
	var out []domain.CreditPackage
	for _, pkg := range f.packages {
		out = append(out, pkg)
	}
	return out, nil
}

func (f *fakeLedger) ExpireCredits(_ context.Context, cutoff time.Time) (int64, error) {
	var expired int64
	for _, b := range f.balances {
		if b.AvailableCredits > 0 {
			b.AvailableCredits = 0
			expired++
		}
	}
	return expired, nil
}

type fakeOwnership struct {
	owner map[uint64]uint64
}

func (f *fakeOwnership) VerifyOwnership(_ context.Context, storeID, ownerID uint64) (bool, error) {
	return f.owner[storeID] == ownerID, nil
}

type fakeGateway struct {
	charges     int
	refunds     int
	failCharges bool
	lastRefund  string
}

func (f *fakeGateway) Charge(_ context.Context, amountUSD float64, paymentMethod, paymentToken string) (string, error) {
	if f.failCharges {
		return "", fmt.Errorf("%w: card declined", domain.ErrPaymentFailed)
	}
	f.charges++
	return fmt.Sprintf("ch_%d", f.charges), nil
}

func (f *fakeGateway) Refund(_ context.Context, chargeReference string, amountUSD float64) (string, error) {
	f.refunds++
	f.lastRefund = chargeReference
	return fmt.Sprintf("re_%d", f.refunds), nil
}

func newTestService(ledger *fakeLedger, gateway *fakeGateway) *CreditService {
	return NewCreditService(ledger, &fakeOwnership{owner: map[uint64]uint64{1: 10}}, gateway, 12)
}

func TestDebitSucceedsWithFunds(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(1, 10)
	svc := newTestService(ledger, &fakeGateway{})

	ok, err := svc.Debit(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(6), ledger.balances[1].AvailableCredits)
	assert.Equal(t, int64(4), ledger.balances[1].UsedCredits)
}

func TestDebitFailsWithoutMutation(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(1, 3)
	svc := newTestService(ledger, &fakeGateway{})

	ok, err := svc.Debit(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(3), ledger.balances[1].AvailableCredits)
	assert.Empty(t, ledger.txns, "a refused debit leaves no ledger row")
}

func TestDebitRejectsNonPositive(t *testing.T) {
	svc := newTestService(newFakeLedger(), &fakeGateway{})

	_, err := svc.Debit(context.Background(), 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReinstateReturnsDebitedCredits(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(1, 10)
	svc := newTestService(ledger, &fakeGateway{})

	ok, err := svc.Debit(context.Background(), 1, 4)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.Reinstate(context.Background(), 1, 4))
	assert.Equal(t, int64(10), ledger.balances[1].AvailableCredits)
	assert.Equal(t, int64(0), ledger.balances[1].UsedCredits)

	require.Len(t, ledger.txns, 2)
	assert.Equal(t, int64(-4), ledger.txns[1].Credits, "reversal row next to the debit")
}

func TestReinstateRejectsNonPositive(t *testing.T) {
	svc := newTestService(newFakeLedger(), &fakeGateway{})

	err := svc.Reinstate(context.Background(), 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConcurrentDebitsNeverOverspend(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(1, 10)
	svc := newTestService(ledger, &fakeGateway{})

	var wg sync.WaitGroup
	results := make(chan bool, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.Debit(context.Background(), 1, 6)
			require.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}

	assert.Equal(t, 1, succeeded, "only one 6-credit debit fits in a 10-credit balance")
	assert.Equal(t, int64(4), ledger.balances[1].AvailableCredits)
}

func TestPurchaseCreditsBalanceAndLedger(t *testing.T) {
	ledger := newFakeLedger()
	ledger.packages[5] = domain.CreditPackage{ID: 5, Credits: 100, Price: 50.00, IsActive: true}
	gateway := &fakeGateway{}
	svc := newTestService(ledger, gateway)

	result, err := svc.Purchase(context.Background(), 10, 1, 5, "card", "tok_abc")
	require.NoError(t, err)

	assert.Equal(t, int64(100), result.CreditsPurchased)
	assert.Equal(t, 50.00, result.AmountPaid)
	assert.Equal(t, "ch_1", result.PaymentReference)
	assert.Equal(t, int64(100), ledger.balances[1].AvailableCredits)
	assert.Equal(t, 1, gateway.charges)
}

func TestPurchaseRequiresOwnership(t *testing.T) {
	ledger := newFakeLedger()
	ledger.packages[5] = domain.CreditPackage{ID: 5, Credits: 100, Price: 50.00}
	gateway := &fakeGateway{}
	svc := newTestService(ledger, gateway)

	_, err := svc.Purchase(context.Background(), 99, 1, 5, "card", "tok_abc")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, gateway.charges, "no charge before the ownership gate")
}

func TestPurchaseGatewayFailureLeavesLedgerUntouched(t *testing.T) {
	ledger := newFakeLedger()
	ledger.packages[5] = domain.CreditPackage{ID: 5, Credits: 100, Price: 50.00}
	svc := newTestService(ledger, &fakeGateway{failCharges: true})

	_, err := svc.Purchase(context.Background(), 10, 1, 5, "card", "tok_abc")
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)
	assert.Nil(t, ledger.balances[1])
}

func TestDuplicateReferenceCannotDoubleCredit(t *testing.T) {
	ledger := newFakeLedger()
	ledger.references["ch_1"] = true
	ledger.packages[5] = domain.CreditPackage{ID: 5, Credits: 100, Price: 50.00}
	svc := newTestService(ledger, &fakeGateway{})

	_, err := svc.Purchase(context.Background(), 10, 1, 5, "card", "tok_abc")
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	assert.Nil(t, ledger.balances[1])
}

func TestRefundUsesLatestPurchaseUnitPrice(t *testing.T) {
	ledger := newFakeLedger()
	gateway := &fakeGateway{}
	svc := newTestService(ledger, gateway)

	// 100 credits for $50 puts the unit price at $0.50
	_, err := ledger.Credit(context.Background(), 1, 100, 50.00, "card", "ch_hist")
	require.NoError(t, err)

	result, err := svc.Refund(context.Background(), 10, 1, 20, "unused")
	require.NoError(t, err)

	assert.Equal(t, int64(20), result.CreditsRefunded)
	assert.Equal(t, 10.00, result.RefundAmount)
	assert.Equal(t, "ch_hist", gateway.lastRefund)
	assert.Equal(t, int64(80), ledger.balances[1].AvailableCredits)
	assert.Equal(t, int64(20), ledger.balances[1].PendingRefundCredits)
}

func TestRefundDefaultsToDollarPerCredit(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(1, 30)
	svc := newTestService(ledger, &fakeGateway{})

	result, err := svc.Refund(context.Background(), 10, 1, 30, "closing store")
	require.NoError(t, err)
	assert.Equal(t, 30.00, result.RefundAmount)
}

func TestRefundInsufficientCredits(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(1, 5)
	gateway := &fakeGateway{}
	svc := newTestService(ledger, gateway)

	_, err := svc.Refund(context.Background(), 10, 1, 10, "too many")
	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)
	assert.Zero(t, gateway.refunds, "no payout without the ledger hold")
	assert.Equal(t, int64(5), ledger.balances[1].AvailableCredits)
}

func TestRefundRequiresOwnership(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(1, 5)
	svc := newTestService(ledger, &fakeGateway{})

	_, err := svc.Refund(context.Background(), 99, 1, 5, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestBalanceRequiresOwnership(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedBalance(1, 5)
	svc := newTestService(ledger, &fakeGateway{})

	_, err := svc.Balance(context.Background(), 99, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	balance, err := svc.Balance(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance.AvailableCredits)
}
