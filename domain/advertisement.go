package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AdStatusActive    = "active"
	AdStatusPaused    = "paused"
	AdStatusCompleted = "completed"
	AdStatusExpired   = "expired"
)

type Advertisement struct {
	ID               uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	StoreID          uint64         `gorm:"column:store_id;not null;index" json:"store_id"`
	Title            string         `gorm:"column:title;type:text;not null" json:"title"`
	Description      string         `gorm:"column:description;type:text" json:"description"`
	Images           datatypes.JSON `gorm:"column:images;type:jsonb" json:"images"`
	CallToAction     string         `gorm:"column:call_to_action;type:text" json:"call_to_action"`
	LinkURL          string         `gorm:"column:link_url;type:text" json:"link_url"`
	CreditsPurchased int64          `gorm:"column:credits_purchased;not null" json:"credits_purchased"`
	ViewsAllocated   int64          `gorm:"column:views_allocated;not null" json:"views_allocated"`
	ViewsUsed        int64          `gorm:"column:views_used;default:0" json:"views_used"`
	ViewsRemaining   int64          `gorm:"column:views_remaining;not null" json:"views_remaining"`
	Status           string         `gorm:"column:status;default:active" json:"status"`
	StartDate        *time.Time     `gorm:"column:start_date" json:"start_date"`
	EndDate          *time.Time     `gorm:"column:end_date" json:"end_date"`
	LastSentAt       *time.Time     `gorm:"column:last_sent_at" json:"last_sent_at"`
	CreatedAt        time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Advertisement) TableName() string {
	return "advertisements"
}

// NearbyAd is the public projection served to devices inside a geofence.
type NearbyAd struct {
	ID             uint64         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Images         datatypes.JSON `json:"images"`
	CallToAction   string         `json:"call_to_action"`
	LinkURL        string         `json:"link_url"`
	StoreName      string         `json:"store_name"`
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	Category       string         `json:"category"`
	DistanceMeters float64        `json:"distance_meters"`
	ViewsRemaining int64          `json:"views_remaining"`
}

// EligibleAd is RecordView's lookup of an ad joined with its owning store.
type EligibleAd struct {
	ID                   uint64
	StoreID              uint64
	ViewsRemaining       int64
	Status               string
	EndDate              *time.Time
	StoreActive          bool
	StoreName            string
	StoreLatitude        float64
	StoreLongitude       float64
	GeofenceRadiusMeters float64
}

// AdMetric is a daily interaction rollup for one advertisement.
type AdMetric struct {
	InteractionType   string    `json:"interaction_type"`
	Count             int64     `json:"count"`
	AvgDistanceMeters float64   `json:"avg_distance_meters"`
	InteractionDate   time.Time `json:"interaction_date"`
}
