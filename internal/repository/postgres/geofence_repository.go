package postgres

import (
	"context"
	"time"

	"github.com/domflow/tigerad/domain"
	"gorm.io/gorm"
)

type GeofenceRepository struct {
	DB *gorm.DB
}

func NewGeofenceRepository(db *gorm.DB) *GeofenceRepository {
	return &GeofenceRepository{
		DB: db,
	}
}

func (r *GeofenceRepository) SaveEvent(ctx context.Context, event *domain.GeofenceEvent) error {
	return r.DB.WithContext(ctx).Create(event).Error
}

func (r *GeofenceRepository) SaveInteraction(ctx context.Context, interaction *domain.UserInteraction) error {
	return r.DB.WithContext(ctx).Create(interaction).Error
}

// StoreStats rolls up geofence traffic per day for the owner dashboard.
func (r *GeofenceRepository) StoreStats(ctx context.Context, storeID uint64, days int) ([]domain.GeofenceStat, error) {
	var stats []domain.GeofenceStat
	err := r.DB.WithContext(ctx).Raw(`
		SELECT DATE(created_at) AS event_date,
		       COUNT(DISTINCT user_fingerprint) AS unique_users,
		       COUNT(*) AS total_events,
		       AVG(distance_to_store_meters) AS avg_distance_meters,
		       SUM(CASE WHEN event_type = 'enter' THEN 1 ELSE 0 END) AS entries,
		       SUM(CASE WHEN event_type = 'exit' THEN 1 ELSE 0 END) AS exits
		FROM geofence_events
		WHERE store_id = ? AND created_at >= NOW() - make_interval(days => ?)
		GROUP BY DATE(created_at)
		ORDER BY event_date DESC`,
		storeID, days,
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// AdMetrics rolls up interactions per type per day for one advertisement.
func (r *GeofenceRepository) AdMetrics(ctx context.Context, advertisementID uint64, days int) ([]domain.AdMetric, error) {
	var metrics []domain.AdMetric
	err := r.DB.WithContext(ctx).Raw(`
		SELECT interaction_type,
		       COUNT(*) AS count,
		       AVG(store_distance_meters) AS avg_distance_meters,
		       DATE(created_at) AS interaction_date
		FROM user_interactions
		WHERE advertisement_id = ? AND created_at >= NOW() - make_interval(days => ?)
		GROUP BY interaction_type, DATE(created_at)
		ORDER BY interaction_date DESC, count DESC`,
		advertisementID, days,
	).Scan(&metrics).Error
	if err != nil {
		return nil, err
	}

	return metrics, nil
}

func (r *GeofenceRepository) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.GeofenceEvent{})
	if res.Error != nil {
		return 0, res.Error
	}

	return res.RowsAffected, nil
}
