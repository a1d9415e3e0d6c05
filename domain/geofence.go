package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	GeofenceEventEnter = "enter"
	GeofenceEventExit  = "exit"
	GeofenceEventDwell = "dwell"
)

// GeofenceEvent is immutable enter/exit/dwell telemetry. The fingerprint is
// an opaque device identifier, not an authenticated identity.
type GeofenceEvent struct {
	ID                    uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID               uint64    `gorm:"column:store_id;not null;index" json:"store_id"`
	UserFingerprint       string    `gorm:"column:user_fingerprint;not null;index" json:"user_fingerprint"`
	EventType             string    `gorm:"column:event_type;not null" json:"event_type"`
	Latitude              float64   `gorm:"column:latitude;not null" json:"latitude"`
	Longitude             float64   `gorm:"column:longitude;not null" json:"longitude"`
	DistanceToStoreMeters float64   `gorm:"column:distance_to_store_meters" json:"distance_to_store_meters"`
	CreatedAt             time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}

func (GeofenceEvent) TableName() string {
	return "geofence_events"
}

// UserInteraction records every view attempt against an advertisement,
// including attempts outside the geofence that never consume the view budget.
type UserInteraction struct {
	ID                  uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	AdvertisementID     uint64            `gorm:"column:advertisement_id;not null;index" json:"advertisement_id"`
	UserFingerprint     string            `gorm:"column:user_fingerprint;not null" json:"user_fingerprint"`
	InteractionType     string            `gorm:"column:interaction_type;not null" json:"interaction_type"`
	Latitude            float64           `gorm:"column:latitude;not null" json:"latitude"`
	Longitude           float64           `gorm:"column:longitude;not null" json:"longitude"`
	StoreDistanceMeters float64           `gorm:"column:store_distance_meters" json:"store_distance_meters"`
	DeviceInfo          datatypes.JSONMap `gorm:"column:device_info;type:jsonb" json:"device_info"`
	SessionID           string            `gorm:"column:session_id" json:"session_id"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (UserInteraction) TableName() string {
	return "user_interactions"
}

// GeofenceStat is a per-day rollup of geofence traffic for one store.
type GeofenceStat struct {
	EventDate         time.Time `json:"event_date"`
	UniqueUsers       int64     `json:"unique_users"`
	TotalEvents       int64     `json:"total_events"`
	AvgDistanceMeters float64   `json:"avg_distance_meters"`
	Entries           int64     `json:"entries"`
	Exits             int64     `json:"exits"`
}
