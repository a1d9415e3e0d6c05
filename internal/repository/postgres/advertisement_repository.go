package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/domflow/tigerad/domain"
	"gorm.io/gorm"
)

type AdvertisementRepository struct {
	DB *gorm.DB
}

func NewAdvertisementRepository(db *gorm.DB) *AdvertisementRepository {
	return &AdvertisementRepository{
		DB: db,
	}
}

func (r *AdvertisementRepository) Create(ctx context.Context, ad *domain.Advertisement) error {
	return r.DB.WithContext(ctx).Create(ad).Error
}

func (r *AdvertisementRepository) FindByID(ctx context.Context, id uint64) (domain.Advertisement, error) {
	var ad domain.Advertisement
	err := r.DB.WithContext(ctx).First(&ad, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Advertisement{}, domain.ErrNotFound
		}
		return domain.Advertisement{}, err
	}

	return ad, nil
}

// FindNearby returns eligible advertisements whose owning store's geofence
// query distance is at most radiusMeters, nearest first, most recent ad
// first among ties. Eligibility is evaluated in the same statement as the
// distance so the index can never return a stale candidate.
func (r *AdvertisementRepository) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyAd, error) {
	var ads []domain.NearbyAd
	err := r.DB.WithContext(ctx).Raw(`
		SELECT a.id, a.title, a.description, a.images, a.call_to_action, a.link_url,
		       s.store_name, s.latitude, s.longitude, s.category, a.views_remaining,
		       `+haversineSQL+` AS distance_meters
		FROM advertisements a
		JOIN stores s ON s.id = a.store_id
		WHERE a.status = 'active'
		  AND a.views_remaining > 0
		  AND s.is_active = TRUE
		  AND (a.end_date IS NULL OR a.end_date > NOW())
		  AND `+haversineSQL+` <= ?
		ORDER BY distance_meters ASC, a.created_at DESC
		LIMIT ?`,
		lat, lat, lon,
		lat, lat, lon, radiusMeters,
		limit,
	).Scan(&ads).Error
	if err != nil {
		return nil, err
	}

	return ads, nil
}

// FindEligible loads the ad joined with its owning store and applies the
// same eligibility predicate FindNearby evaluates in SQL. An ad that exists
// but is no longer servable is indistinguishable from a missing one.
func (r *AdvertisementRepository) FindEligible(ctx context.Context, id uint64) (domain.EligibleAd, error) {
	var ad domain.EligibleAd
	res := r.DB.WithContext(ctx).Raw(`
		SELECT a.id, a.store_id, a.views_remaining, a.status, a.end_date,
		       s.is_active AS store_active, s.store_name,
		       s.latitude AS store_latitude, s.longitude AS store_longitude,
		       s.geofence_radius_meters
		FROM advertisements a
		JOIN stores s ON s.id = a.store_id
		WHERE a.id = ?`,
		id,
	).Scan(&ad)
	if res.Error != nil {
		return domain.EligibleAd{}, res.Error
	}

	if res.RowsAffected == 0 || !servable(ad, time.Now()) {
		return domain.EligibleAd{}, domain.ErrNotFound
	}

	return ad, nil
}

// servable is the eligibility predicate: the ad is active with views left,
// the owning store is active, and the end date is unset or still ahead.
func servable(ad domain.EligibleAd, now time.Time) bool {
	if ad.Status != domain.AdStatusActive || ad.ViewsRemaining <= 0 || !ad.StoreActive {
		return false
	}

	return ad.EndDate == nil || ad.EndDate.After(now)
}

// ConsumeView debits one view from the budget. The decrement is gated on
// views_remaining > 0 in the same statement, so concurrent views on an
// exhausted ad cannot push the counter negative. Returns false when the
// budget was already spent.
func (r *AdvertisementRepository) ConsumeView(ctx context.Context, id uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Exec(`
		UPDATE advertisements
		SET views_used = views_used + 1,
		    views_remaining = views_remaining - 1,
		    last_sent_at = NOW(),
		    updated_at = NOW()
		WHERE id = ? AND views_remaining > 0`,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

// FindByOwner pages through an owner's advertisements, optionally filtered
// by status, newest first.
func (r *AdvertisementRepository) FindByOwner(ctx context.Context, ownerID uint64, status string, page, limit int) ([]domain.Advertisement, int64, error) {
	query := r.DB.WithContext(ctx).Model(&domain.Advertisement{}).
		Joins("JOIN stores s ON s.id = advertisements.store_id").
		Where("s.owner_id = ?", ownerID)

	if status != "" {
		query = query.Where("advertisements.status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ads []domain.Advertisement
	err := query.
		Order("advertisements.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&ads).Error
	if err != nil {
		return nil, 0, err
	}

	return ads, total, nil
}
