// Package credits owns the prepaid credit ledger: purchases, refunds, usage
// debits and the non-negative available-balance invariant. The ledger rows
// are append-only; the balance row is a cache mutated only through the
// repository's conditional updates.
package credits

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/pkg/logger"
	"github.com/domflow/tigerad/pkg/metrics"
)

// DefaultPricePerCredit prices a refund for a store with no purchase
// history.
const DefaultPricePerCredit = 1.00

type CreditRepository interface {
	Debit(ctx context.Context, storeID uint64, credits int64) (bool, error)
	Reinstate(ctx context.Context, storeID uint64, credits int64) error
	Credit(ctx context.Context, storeID uint64, credits int64, amount float64, paymentMethod, reference string) (domain.CreditTransaction, error)
	Refund(ctx context.Context, storeID uint64, credits int64, amount float64, reason string) (domain.CreditTransaction, error)
	GetBalance(ctx context.Context, storeID uint64) (domain.CreditBalance, error)
	GetHistory(ctx context.Context, storeID uint64, limit, offset int) ([]domain.CreditTransaction, error)
	LatestPurchaseUnitPrice(ctx context.Context, storeID uint64) (float64, string, bool, error)
	FindPackage(ctx context.Context, id uint64) (domain.CreditPackage, error)
	FindActivePackages(ctx context.Context) ([]domain.CreditPackage, error)
	ExpireCredits(ctx context.Context, cutoff time.Time) (int64, error)
}

type StoreRepository interface {
	VerifyOwnership(ctx context.Context, storeID, ownerID uint64) (bool, error)
}

// PaymentGateway is the opaque external charge/refund capability.
type PaymentGateway interface {
	Charge(ctx context.Context, amountUSD float64, paymentMethod, paymentToken string) (string, error)
	Refund(ctx context.Context, chargeReference string, amountUSD float64) (string, error)
}

type PurchaseResult struct {
	TransactionID    uint64  `json:"transaction_id"`
	CreditsPurchased int64   `json:"credits_purchased"`
	AmountPaid       float64 `json:"amount_paid"`
	PaymentReference string  `json:"payment_reference"`
}

type RefundResult struct {
	TransactionID   uint64  `json:"transaction_id"`
	CreditsRefunded int64   `json:"credits_refunded"`
	RefundAmount    float64 `json:"refund_amount"`
	RefundReference string  `json:"refund_reference"`
}

type CreditService struct {
	creditRepo CreditRepository
	storeRepo  StoreRepository
	gateway    PaymentGateway
	expiry     time.Duration
}

func NewCreditService(creditRepo CreditRepository, storeRepo StoreRepository, gateway PaymentGateway, creditExpiryMonths int) *CreditService {
	return &CreditService{
		creditRepo: creditRepo,
		storeRepo:  storeRepo,
		gateway:    gateway,
		expiry:     time.Duration(creditExpiryMonths) * 30 * 24 * time.Hour,
	}
}

// Debit spends credits from a store's available balance. A false return
// means insufficient funds and no mutation anywhere.
func (s *CreditService) Debit(ctx context.Context, storeID uint64, credits int64) (bool, error) {
	if credits <= 0 {
		return false, fmt.Errorf("%w: credits must be positive", domain.ErrInvalidInput)
	}

	ok, err := s.creditRepo.Debit(ctx, storeID, credits)
	if err != nil {
		return false, err
	}

	if ok {
		metrics.CreditsDebited.Add(float64(credits))
	}

	return ok, nil
}

// Reinstate returns debited credits to the available balance. It compensates
// a debit whose follow-on write failed and must leave the ledger explaining
// both movements.
func (s *CreditService) Reinstate(ctx context.Context, storeID uint64, credits int64) error {
	if credits <= 0 {
		return fmt.Errorf("%w: credits must be positive", domain.ErrInvalidInput)
	}

	return s.creditRepo.Reinstate(ctx, storeID, credits)
}

// Purchase charges the gateway for a credit package and credits the store.
// The gateway reference dedupes the ledger write, so a retried request with
// an already-recorded reference cannot double-credit.
func (s *CreditService) Purchase(ctx context.Context, ownerID, storeID, packageID uint64, paymentMethod, paymentToken string) (PurchaseResult, error) {
	owns, err := s.storeRepo.VerifyOwnership(ctx, storeID, ownerID)
	if err != nil {
		return PurchaseResult{}, err
	}
	if !owns {
		return PurchaseResult{}, domain.ErrForbidden
	}

	pkg, err := s.creditRepo.FindPackage(ctx, packageID)
	if err != nil {
		return PurchaseResult{}, err
	}

	reference, err := s.gateway.Charge(ctx, pkg.Price, paymentMethod, paymentToken)
	if err != nil {
		return PurchaseResult{}, err
	}

	txn, err := s.creditRepo.Credit(ctx, storeID, pkg.Credits, pkg.Price, paymentMethod, reference)
	if err != nil {
		return PurchaseResult{}, err
	}

	logger.Info("credits purchased",
		"store_id", storeID,
		"credits", pkg.Credits,
		"amount", pkg.Price,
		"reference", reference,
	)

	return PurchaseResult{
		TransactionID:    txn.ID,
		CreditsPurchased: pkg.Credits,
		AmountPaid:       pkg.Price,
		PaymentReference: reference,
	}, nil
}

// Refund returns unused credits at the unit price of the store's most recent
// completed purchase ($1.00/credit with no history). The ledger moves the
// credits to pending_refund before the gateway is asked to pay out.
func (s *CreditService) Refund(ctx context.Context, ownerID, storeID uint64, credits int64, reason string) (RefundResult, error) {
	if credits <= 0 {
		return RefundResult{}, fmt.Errorf("%w: credits must be positive", domain.ErrInvalidInput)
	}

	owns, err := s.storeRepo.VerifyOwnership(ctx, storeID, ownerID)
	if err != nil {
		return RefundResult{}, err
	}
	if !owns {
		return RefundResult{}, domain.ErrForbidden
	}

	unitPrice, chargeReference, found, err := s.creditRepo.LatestPurchaseUnitPrice(ctx, storeID)
	if err != nil {
		return RefundResult{}, err
	}
	if !found {
		unitPrice = DefaultPricePerCredit
	}

	refundAmount := math.Round(float64(credits)*unitPrice*100) / 100
	if refundAmount <= 0 {
		return RefundResult{}, fmt.Errorf("%w: refund amount too small", domain.ErrInvalidInput)
	}

	txn, err := s.creditRepo.Refund(ctx, storeID, credits, refundAmount, reason)
	if err != nil {
		return RefundResult{}, err
	}

	refundRef, err := s.gateway.Refund(ctx, chargeReference, refundAmount)
	if err != nil {
		// Ledger already holds the credits in pending_refund; the payout is
		// retried by operations against that pending state.
		logger.Error("gateway refund failed after ledger update", "store_id", storeID, "transaction_id", txn.ID, err)
		return RefundResult{}, err
	}

	logger.Info("credits refunded",
		"store_id", storeID,
		"credits", credits,
		"amount", refundAmount,
	)

	return RefundResult{
		TransactionID:   txn.ID,
		CreditsRefunded: credits,
		RefundAmount:    refundAmount,
		RefundReference: refundRef,
	}, nil
}

func (s *CreditService) Balance(ctx context.Context, ownerID, storeID uint64) (domain.CreditBalance, error) {
	owns, err := s.storeRepo.VerifyOwnership(ctx, storeID, ownerID)
	if err != nil {
		return domain.CreditBalance{}, err
	}
	if !owns {
		return domain.CreditBalance{}, domain.ErrForbidden
	}

	return s.creditRepo.GetBalance(ctx, storeID)
}

func (s *CreditService) History(ctx context.Context, ownerID, storeID uint64, limit, offset int) ([]domain.CreditTransaction, error) {
	owns, err := s.storeRepo.VerifyOwnership(ctx, storeID, ownerID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, domain.ErrForbidden
	}

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	return s.creditRepo.GetHistory(ctx, storeID, limit, offset)
}

func (s *CreditService) Packages(ctx context.Context) ([]domain.CreditPackage, error) {
	return s.creditRepo.FindActivePackages(ctx)
}

// ExpireStale sweeps balances whose newest purchase is older than the
// configured expiry, writing one expiry ledger row per store.
func (s *CreditService) ExpireStale(ctx context.Context) (int64, error) {
	return s.creditRepo.ExpireCredits(ctx, time.Now().Add(-s.expiry))
}
