package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/domflow/tigerad/domain"
	"gorm.io/gorm"
)

type CreditRepository struct {
	DB *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{
		DB: db,
	}
}

// Debit atomically moves credits from available to used and appends the
// usage ledger row. The balance update is a single conditional statement
// gated on available_credits >= credits; two concurrent debits can never
// both succeed past zero. Returns false, untouched, on insufficient funds.
func (r *CreditRepository) Debit(ctx context.Context, storeID uint64, credits int64) (bool, error) {
	debited := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE credit_balances
			SET available_credits = available_credits - ?,
			    used_credits = used_credits + ?,
			    updated_at = NOW()
			WHERE store_id = ? AND available_credits >= ?`,
			credits, credits, storeID, credits,
		)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return nil
		}

		debited = true
		return tx.Create(&domain.CreditTransaction{
			StoreID:         storeID,
			TransactionType: domain.TransactionUsage,
			Credits:         credits,
			Amount:          0,
			Status:          domain.TransactionStatusCompleted,
		}).Error
	})
	if err != nil {
		return false, err
	}

	return debited, nil
}

// Reinstate reverses a debit whose follow-on write failed: credits move back
// from used to available, and a negative-credit usage row records the
// reversal next to the original debit.
func (r *CreditRepository) Reinstate(ctx context.Context, storeID uint64, credits int64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE credit_balances
			SET available_credits = available_credits + ?,
			    used_credits = used_credits - ?,
			    updated_at = NOW()
			WHERE store_id = ?`,
			credits, credits, storeID,
		)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		return tx.Create(&domain.CreditTransaction{
			StoreID:         storeID,
			TransactionType: domain.TransactionUsage,
			Credits:         -credits,
			Amount:          0,
			Status:          domain.TransactionStatusCompleted,
		}).Error
	})
}

// Credit applies a completed purchase: the ledger row first (its unique
// payment reference is the idempotency key — a replayed reference aborts the
// transaction before the balance moves), then the balance upsert.
func (r *CreditRepository) Credit(ctx context.Context, storeID uint64, credits int64, amount float64, paymentMethod, reference string) (domain.CreditTransaction, error) {
	txn := domain.CreditTransaction{
		StoreID:          storeID,
		TransactionType:  domain.TransactionPurchase,
		Credits:          credits,
		Amount:           amount,
		PaymentMethod:    paymentMethod,
		PaymentReference: &reference,
		Status:           domain.TransactionStatusCompleted,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateReference
			}
			return err
		}

		return tx.Exec(`
			INSERT INTO credit_balances (store_id, total_credits, available_credits, used_credits, pending_refund_credits, updated_at)
			VALUES (?, ?, ?, 0, 0, NOW())
			ON CONFLICT (store_id) DO UPDATE SET
				total_credits = credit_balances.total_credits + EXCLUDED.total_credits,
				available_credits = credit_balances.available_credits + EXCLUDED.available_credits,
				updated_at = NOW()`,
			storeID, credits, credits,
		).Error
	})
	if err != nil {
		return domain.CreditTransaction{}, err
	}

	return txn, nil
}

// Refund moves credits from available to pending_refund and appends a
// negative-delta refund row. Fails with ErrInsufficientCredits, untouched,
// when the available balance does not cover the request.
func (r *CreditRepository) Refund(ctx context.Context, storeID uint64, credits int64, amount float64, reason string) (domain.CreditTransaction, error) {
	txn := domain.CreditTransaction{
		StoreID:         storeID,
		TransactionType: domain.TransactionRefund,
		Credits:         -credits,
		Amount:          -amount,
		RefundReason:    reason,
		Status:          domain.TransactionStatusCompleted,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE credit_balances
			SET available_credits = available_credits - ?,
			    pending_refund_credits = pending_refund_credits + ?,
			    updated_at = NOW()
			WHERE store_id = ? AND available_credits >= ?`,
			credits, credits, storeID, credits,
		)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return domain.ErrInsufficientCredits
		}

		return tx.Create(&txn).Error
	})
	if err != nil {
		return domain.CreditTransaction{}, err
	}

	return txn, nil
}

func (r *CreditRepository) GetBalance(ctx context.Context, storeID uint64) (domain.CreditBalance, error) {
	var balance domain.CreditBalance
	err := r.DB.WithContext(ctx).First(&balance, "store_id = ?", storeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CreditBalance{}, domain.ErrNotFound
		}
		return domain.CreditBalance{}, err
	}

	return balance, nil
}

func (r *CreditRepository) GetHistory(ctx context.Context, storeID uint64, limit, offset int) ([]domain.CreditTransaction, error) {
	var txns []domain.CreditTransaction
	err := r.DB.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}

	return txns, nil
}

// LatestPurchaseUnitPrice returns amount/credits of the store's most recent
// completed purchase along with its payment reference. found is false when
// the store has no purchase history.
func (r *CreditRepository) LatestPurchaseUnitPrice(ctx context.Context, storeID uint64) (float64, string, bool, error) {
	var row struct {
		Amount           float64
		Credits          int64
		PaymentReference *string
	}

	res := r.DB.WithContext(ctx).Raw(`
		SELECT amount, credits, payment_reference
		FROM credit_transactions
		WHERE store_id = ? AND transaction_type = 'purchase' AND status = 'completed'
		ORDER BY created_at DESC
		LIMIT 1`,
		storeID,
	).Scan(&row)
	if res.Error != nil {
		return 0, "", false, res.Error
	}

	if res.RowsAffected == 0 || row.Credits == 0 {
		return 0, "", false, nil
	}

	reference := ""
	if row.PaymentReference != nil {
		reference = *row.PaymentReference
	}

	return row.Amount / float64(row.Credits), reference, true, nil
}

func (r *CreditRepository) FindPackage(ctx context.Context, id uint64) (domain.CreditPackage, error) {
	var pkg domain.CreditPackage
	err := r.DB.WithContext(ctx).First(&pkg, "id = ? AND is_active = TRUE", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CreditPackage{}, domain.ErrNotFound
		}
		return domain.CreditPackage{}, err
	}

	return pkg, nil
}

func (r *CreditRepository) FindActivePackages(ctx context.Context) ([]domain.CreditPackage, error) {
	var pkgs []domain.CreditPackage
	err := r.DB.WithContext(ctx).
		Where("is_active = TRUE").
		Order("sort_order ASC, price ASC").
		Find(&pkgs).Error
	if err != nil {
		return nil, err
	}

	return pkgs, nil
}

// ExpireCredits zeroes the available balance of every store whose newest
// completed purchase predates the cutoff, recording an expiry ledger row per
// store. One statement, so a concurrent debit either lands before the sweep
// or conflicts with the row lock.
func (r *CreditRepository) ExpireCredits(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Exec(`
		WITH stale AS (
			SELECT cb.store_id, cb.available_credits
			FROM credit_balances cb
			WHERE cb.available_credits > 0
			  AND EXISTS (
				SELECT 1 FROM credit_transactions p
				WHERE p.store_id = cb.store_id AND p.transaction_type = 'purchase' AND p.status = 'completed')
			  AND NOT EXISTS (
				SELECT 1 FROM credit_transactions ct
				WHERE ct.store_id = cb.store_id AND ct.transaction_type = 'purchase'
				  AND ct.status = 'completed' AND ct.created_at >= ?)
			FOR UPDATE
		), zeroed AS (
			UPDATE credit_balances cb
			SET available_credits = 0, updated_at = NOW()
			FROM stale
			WHERE cb.store_id = stale.store_id
		)
		INSERT INTO credit_transactions (store_id, transaction_type, credits, amount, status, created_at)
		SELECT store_id, 'expiry', -available_credits, 0, 'completed', NOW()
		FROM stale`,
		cutoff,
	)
	if res.Error != nil {
		return 0, res.Error
	}

	return res.RowsAffected, nil
}
