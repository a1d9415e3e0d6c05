package postgres

import (
	"context"
	"errors"

	"github.com/domflow/tigerad/domain"
	"gorm.io/gorm"
)

type OwnerRepository struct {
	DB *gorm.DB
}

func NewOwnerRepository(db *gorm.DB) *OwnerRepository {
	return &OwnerRepository{
		DB: db,
	}
}

func (r *OwnerRepository) Create(ctx context.Context, owner *domain.StoreOwner) error {
	err := r.DB.WithContext(ctx).Create(owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailExists
		}
		return err
	}

	return nil
}

func (r *OwnerRepository) FindByEmail(ctx context.Context, email string) (domain.StoreOwner, error) {
	var owner domain.StoreOwner
	err := r.DB.WithContext(ctx).First(&owner, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StoreOwner{}, domain.ErrNotFound
		}
		return domain.StoreOwner{}, err
	}

	return owner, nil
}

func (r *OwnerRepository) FindByID(ctx context.Context, id uint64) (domain.StoreOwner, error) {
	var owner domain.StoreOwner
	err := r.DB.WithContext(ctx).First(&owner, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StoreOwner{}, domain.ErrNotFound
		}
		return domain.StoreOwner{}, err
	}

	return owner, nil
}

func (r *OwnerRepository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	return r.DB.WithContext(ctx).Create(key).Error
}
