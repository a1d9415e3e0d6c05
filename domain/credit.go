package domain

import "time"

const (
	TransactionPurchase = "purchase"
	TransactionRefund   = "refund"
	TransactionUsage    = "usage"
	TransactionExpiry   = "expiry"

	TransactionStatusCompleted = "completed"
	TransactionStatusPending   = "pending"
	TransactionStatusFailed    = "failed"
)

// CreditBalance is a per-store cache of the transaction ledger. The ledger is
// the source of truth; the balance row is only ever mutated through
// conditional updates that keep available_credits >= 0.
type CreditBalance struct {
	StoreID              uint64    `gorm:"column:store_id;primaryKey" json:"store_id"`
	TotalCredits         int64     `gorm:"column:total_credits;default:0" json:"total_credits"`
	AvailableCredits     int64     `gorm:"column:available_credits;default:0" json:"available_credits"`
	UsedCredits          int64     `gorm:"column:used_credits;default:0" json:"used_credits"`
	PendingRefundCredits int64     `gorm:"column:pending_refund_credits;default:0" json:"pending_refund_credits"`
	UpdatedAt            time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (CreditBalance) TableName() string {
	return "credit_balances"
}

// CreditTransaction rows are append-only. PaymentReference carries a unique
// index so a replayed gateway callback cannot double-credit a store.
type CreditTransaction struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID          uint64    `gorm:"column:store_id;not null;index" json:"store_id"`
	TransactionType  string    `gorm:"column:transaction_type;not null" json:"transaction_type"`
	Credits          int64     `gorm:"column:credits;not null" json:"credits"`
	Amount           float64   `gorm:"column:amount;type:numeric;not null" json:"amount"`
	PaymentMethod    string    `gorm:"column:payment_method" json:"payment_method,omitempty"`
	PaymentReference *string   `gorm:"column:payment_reference;uniqueIndex" json:"payment_reference,omitempty"`
	RefundReason     string    `gorm:"column:refund_reason" json:"refund_reason,omitempty"`
	Status           string    `gorm:"column:status;default:completed" json:"status"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// CREATE TABLE public.credit_packages (
//     id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name             TEXT NOT NULL,
//     price            NUMERIC NOT NULL,
//     credits          BIGINT NOT NULL,
//     views_per_credit BIGINT NOT NULL DEFAULT 180,
//     total_views      BIGINT NOT NULL,
//     is_active        BOOLEAN DEFAULT TRUE,
//     sort_order       INT DEFAULT 0
// );

type CreditPackage struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string  `gorm:"column:name;type:text;not null" json:"name"`
	Price          float64 `gorm:"column:price;type:numeric;not null" json:"price"`
	Credits        int64   `gorm:"column:credits;not null" json:"credits"`
	ViewsPerCredit int64   `gorm:"column:views_per_credit;default:180" json:"views_per_credit"`
	TotalViews     int64   `gorm:"column:total_views;not null" json:"total_views"`
	IsActive       bool    `gorm:"column:is_active;default:true" json:"is_active"`
	SortOrder      int     `gorm:"column:sort_order;default:0" json:"sort_order"`
}

func (CreditPackage) TableName() string {
	return "credit_packages"
}
