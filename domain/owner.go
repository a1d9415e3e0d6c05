package domain

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStoreOwner = "store_owner"

	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

type StoreOwner struct {
	ID                 uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	BusinessName       string         `gorm:"column:business_name;not null" json:"business_name"`
	OwnerName          string         `gorm:"column:owner_name;not null" json:"owner_name"`
	Email              string         `gorm:"column:email;unique;not null" json:"email"`
	Phone              string         `gorm:"column:phone;not null" json:"phone"`
	PasswordHash       string         `gorm:"column:password_hash;not null" json:"-"`
	VerificationStatus string         `gorm:"column:verification_status;default:pending" json:"verification_status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (StoreOwner) TableName() string {
	return "store_owners"
}

type APIKey struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreOwnerID uint64    `gorm:"column:store_owner_id;not null;index" json:"store_owner_id"`
	APIKey       string    `gorm:"column:api_key;unique;not null" json:"api_key"`
	KeyName      string    `gorm:"column:key_name;default:Default" json:"key_name"`
	IsActive     bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (APIKey) TableName() string {
	return "api_keys"
}
