package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type RateLimitRepository struct {
	DB *gorm.DB
}

func NewRateLimitRepository(db *gorm.DB) *RateLimitRepository {
	return &RateLimitRepository{
		DB: db,
	}
}

// CheckAndIncrement admits and counts a request in one statement. The upsert
// either starts a fresh window, resets an expired one, or increments a live
// one; the trailing WHERE refuses the update when the live window is already
// full, so a denied request touches nothing. RowsAffected carries the
// verdict.
func (r *RateLimitRepository) CheckAndIncrement(ctx context.Context, identifier, limitType string, storeID uint64, windowMinutes, maxRequests int) (bool, error) {
	res := r.DB.WithContext(ctx).Exec(`
		INSERT INTO rate_limits (identifier, limit_type, store_id, window_start, window_duration_minutes, request_count, updated_at)
		VALUES (?, ?, ?, NOW(), ?, 1, NOW())
		ON CONFLICT (identifier, limit_type, store_id) DO UPDATE SET
			request_count = CASE
				WHEN rate_limits.window_start <= NOW() - make_interval(mins => EXCLUDED.window_duration_minutes) THEN 1
				ELSE rate_limits.request_count + 1
			END,
			window_start = CASE
				WHEN rate_limits.window_start <= NOW() - make_interval(mins => EXCLUDED.window_duration_minutes) THEN NOW()
				ELSE rate_limits.window_start
			END,
			window_duration_minutes = EXCLUDED.window_duration_minutes,
			updated_at = NOW()
		WHERE rate_limits.window_start <= NOW() - make_interval(mins => EXCLUDED.window_duration_minutes)
		   OR rate_limits.request_count < ?`,
		identifier, limitType, storeID, windowMinutes, maxRequests,
	)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

func (r *RateLimitRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Exec(
		`DELETE FROM rate_limits WHERE window_start + make_interval(mins => window_duration_minutes) < ?`,
		before,
	)
	if res.Error != nil {
		return 0, res.Error
	}

	return res.RowsAffected, nil
}
