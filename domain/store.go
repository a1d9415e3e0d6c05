package domain

import (
	"time"
)

// CREATE TABLE public.stores (
//     id                      BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     owner_id                BIGINT NOT NULL REFERENCES store_owners(id),
//     store_name              TEXT NOT NULL,
//     address                 TEXT,
//     latitude                DOUBLE PRECISION NOT NULL,
//     longitude               DOUBLE PRECISION NOT NULL,
//     geofence_circle         TEXT,
//     geofence_radius_meters  DOUBLE PRECISION NOT NULL DEFAULT 1609,
//     trigger_radius_meters   DOUBLE PRECISION NOT NULL DEFAULT 3,
//     phone                   TEXT,
//     website                 TEXT,
//     category                TEXT,
//     is_active               BOOLEAN DEFAULT TRUE,
//     created_at              TIMESTAMPTZ DEFAULT NOW(),
//     updated_at              TIMESTAMPTZ DEFAULT NOW()
// );

type Store struct {
	ID                   uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID              uint64    `gorm:"column:owner_id;not null;index" json:"owner_id"`
	StoreName            string    `gorm:"column:store_name;type:text;not null" json:"store_name"`
	Address              string    `gorm:"column:address;type:text" json:"address"`
	Latitude             float64   `gorm:"column:latitude;not null" json:"latitude"`
	Longitude            float64   `gorm:"column:longitude;not null" json:"longitude"`
	GeofenceCircle       string    `gorm:"column:geofence_circle;type:text" json:"-"`
	GeofenceRadiusMeters float64   `gorm:"column:geofence_radius_meters;default:1609" json:"geofence_radius_meters"`
	TriggerRadiusMeters  float64   `gorm:"column:trigger_radius_meters;default:3" json:"trigger_radius_meters"`
	Phone                string    `gorm:"column:phone;type:text" json:"phone"`
	Website              string    `gorm:"column:website;type:text" json:"website"`
	Category             string    `gorm:"column:category;type:text" json:"category"`
	IsActive             bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt            time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Store) TableName() string {
	return "stores"
}

// StoreWithBalance is the owner dashboard projection of a store joined with
// its credit balance.
type StoreWithBalance struct {
	Store
	TotalCredits     int64 `json:"total_credits"`
	AvailableCredits int64 `json:"available_credits"`
}

// NearbyStore is a store row annotated with the haversine distance from the
// query point.
type NearbyStore struct {
	ID                   uint64  `json:"id"`
	StoreName            string  `json:"store_name"`
	Address              string  `json:"address"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	GeofenceRadiusMeters float64 `json:"geofence_radius_meters"`
	Category             string  `json:"category"`
	DistanceMeters       float64 `json:"distance_meters"`
}
