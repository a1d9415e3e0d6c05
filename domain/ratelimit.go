package domain

import "time"

// RateLimitWindow holds one fixed window per (identifier, limit_type, store)
// key. An expired window is reset in place by the next allowed request, never
// accumulated. StoreID is 0 when the limit has no store scope; keeping it
// NOT NULL lets the key participate in the unique index used by the atomic
// check-and-increment upsert.
type RateLimitWindow struct {
	ID                    uint64    `gorm:"primaryKey;autoIncrement"`
	Identifier            string    `gorm:"column:identifier;not null;uniqueIndex:idx_rate_limit_key"`
	LimitType             string    `gorm:"column:limit_type;not null;uniqueIndex:idx_rate_limit_key"`
	StoreID               uint64    `gorm:"column:store_id;not null;default:0;uniqueIndex:idx_rate_limit_key"`
	WindowStart           time.Time `gorm:"column:window_start;not null"`
	WindowDurationMinutes int       `gorm:"column:window_duration_minutes;not null"`
	RequestCount          int       `gorm:"column:request_count;not null;default:1"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (RateLimitWindow) TableName() string {
	return "rate_limits"
}
