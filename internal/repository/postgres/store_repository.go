package postgres

import (
	"context"
	"errors"

	"github.com/domflow/tigerad/domain"
	"gorm.io/gorm"
)

type StoreRepository struct {
	DB *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{
		DB: db,
	}
}

// Create inserts the store together with its zeroed credit balance so a
// store row never exists without a balance row.
func (r *StoreRepository) Create(ctx context.Context, store *domain.Store) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(store).Error; err != nil {
			return err
		}

		return tx.Create(&domain.CreditBalance{StoreID: store.ID}).Error
	})
}

func (r *StoreRepository) FindByID(ctx context.Context, id uint64) (domain.Store, error) {
	var store domain.Store
	err := r.DB.WithContext(ctx).First(&store, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Store{}, domain.ErrNotFound
		}
		return domain.Store{}, err
	}

	return store, nil
}

func (r *StoreRepository) FindActive(ctx context.Context, id uint64) (domain.Store, error) {
	var store domain.Store
	err := r.DB.WithContext(ctx).First(&store, "id = ? AND is_active = TRUE", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Store{}, domain.ErrNotFound
		}
		return domain.Store{}, err
	}

	return store, nil
}

func (r *StoreRepository) FindByOwner(ctx context.Context, ownerID uint64) ([]domain.StoreWithBalance, error) {
	var stores []domain.StoreWithBalance
	err := r.DB.WithContext(ctx).Raw(`
		SELECT s.*, COALESCE(cb.total_credits, 0) AS total_credits, COALESCE(cb.available_credits, 0) AS available_credits
		FROM stores s
		LEFT JOIN credit_balances cb ON cb.store_id = s.id
		WHERE s.owner_id = ?
		ORDER BY s.created_at DESC`,
		ownerID,
	).Scan(&stores).Error
	if err != nil {
		return nil, err
	}

	return stores, nil
}

func (r *StoreRepository) FindByIDForOwner(ctx context.Context, id, ownerID uint64) (domain.StoreWithBalance, error) {
	var store domain.StoreWithBalance
	res := r.DB.WithContext(ctx).Raw(`
		SELECT s.*, COALESCE(cb.total_credits, 0) AS total_credits, COALESCE(cb.available_credits, 0) AS available_credits
		FROM stores s
		LEFT JOIN credit_balances cb ON cb.store_id = s.id
		WHERE s.id = ? AND s.owner_id = ?`,
		id, ownerID,
	).Scan(&store)
	if res.Error != nil {
		return domain.StoreWithBalance{}, res.Error
	}

	if res.RowsAffected == 0 {
		return domain.StoreWithBalance{}, domain.ErrNotFound
	}

	return store, nil
}

// Update applies a partial field map, scoped to the owner.
func (r *StoreRepository) Update(ctx context.Context, id, ownerID uint64, fields map[string]interface{}) error {
	res := r.DB.WithContext(ctx).Model(&domain.Store{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// VerifyOwnership reports whether the store belongs to the owner.
func (r *StoreRepository) VerifyOwnership(ctx context.Context, storeID, ownerID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&domain.Store{}).
		Where("id = ? AND owner_id = ?", storeID, ownerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// FindNearby returns active stores whose distance to the query point is at
// most radiusMeters, nearest first.
func (r *StoreRepository) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyStore, error) {
	var stores []domain.NearbyStore
	err := r.DB.WithContext(ctx).Raw(`
		SELECT s.id, s.store_name, s.address, s.latitude, s.longitude,
		       s.geofence_radius_meters, s.category,
		       `+haversineSQL+` AS distance_meters
		FROM stores s
		WHERE s.is_active = TRUE
		  AND `+haversineSQL+` <= ?
		ORDER BY distance_meters ASC
		LIMIT ?`,
		lat, lat, lon,
		lat, lat, lon, radiusMeters,
		limit,
	).Scan(&stores).Error
	if err != nil {
		return nil, err
	}

	return stores, nil
}
