// Package stores manages store registration and the geofence geometry
// derived from each store's coordinate and radius.
package stores

import (
	"context"
	"fmt"

	"github.com/domflow/tigerad/business/geo"
	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/pkg/logger"
)

// MaxNearbyStores caps one public lookup's result set.
const MaxNearbyStores = 50

type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	FindByOwner(ctx context.Context, ownerID uint64) ([]domain.StoreWithBalance, error)
	FindByIDForOwner(ctx context.Context, id, ownerID uint64) (domain.StoreWithBalance, error)
	Update(ctx context.Context, id, ownerID uint64, fields map[string]interface{}) error
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyStore, error)
}

type StoreService struct {
	storeRepo           StoreRepository
	defaultRadiusMeters float64
	triggerRadiusMeters float64
}

func NewStoreService(storeRepo StoreRepository, defaultRadiusMeters, triggerRadiusMeters float64) *StoreService {
	return &StoreService{
		storeRepo:           storeRepo,
		defaultRadiusMeters: defaultRadiusMeters,
		triggerRadiusMeters: triggerRadiusMeters,
	}
}

type CreateStoreRequest struct {
	OwnerID              uint64
	StoreName            string
	Address              string
	Latitude             float64
	Longitude            float64
	GeofenceRadiusMeters float64
	Phone                string
	Website              string
	Category             string
}

// Create registers a store with a zero credit balance and precomputes its
// geofence circle as a WKT polygon around the coordinate.
func (s *StoreService) Create(ctx context.Context, req CreateStoreRequest) (domain.Store, error) {
	if err := geo.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return domain.Store{}, err
	}
	if req.StoreName == "" {
		return domain.Store{}, fmt.Errorf("%w: store name is required", domain.ErrInvalidInput)
	}

	radius := req.GeofenceRadiusMeters
	if radius <= 0 {
		radius = s.defaultRadiusMeters
	}

	store := domain.Store{
		OwnerID:              req.OwnerID,
		StoreName:            req.StoreName,
		Address:              req.Address,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		GeofenceCircle:       geo.CirclePolygonWKT(req.Latitude, req.Longitude, radius, 0),
		GeofenceRadiusMeters: radius,
		TriggerRadiusMeters:  s.triggerRadiusMeters,
		Phone:                req.Phone,
		Website:              req.Website,
		Category:             req.Category,
		IsActive:             true,
	}
	if err := s.storeRepo.Create(ctx, &store); err != nil {
		return domain.Store{}, err
	}

	logger.Info("store created", "store_id", store.ID, "owner_id", req.OwnerID, "radius_meters", radius)

	return store, nil
}

type UpdateStoreRequest struct {
	StoreName            *string
	Address              *string
	Latitude             *float64
	Longitude            *float64
	GeofenceRadiusMeters *float64
	Phone                *string
	Website              *string
	Category             *string
	IsActive             *bool
}

// Update applies a partial update to an owner's store. Moving the coordinate
// or resizing the radius recomputes the stored geofence circle.
func (s *StoreService) Update(ctx context.Context, ownerID, storeID uint64, req UpdateStoreRequest) (domain.StoreWithBalance, error) {
	current, err := s.storeRepo.FindByIDForOwner(ctx, storeID, ownerID)
	if err != nil {
		return domain.StoreWithBalance{}, err
	}

	fields := map[string]interface{}{}
	if req.StoreName != nil {
		fields["store_name"] = *req.StoreName
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Website != nil {
		fields["website"] = *req.Website
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	lat, lon, radius := current.Latitude, current.Longitude, current.GeofenceRadiusMeters
	geomChanged := false
	if req.Latitude != nil || req.Longitude != nil {
		if req.Latitude != nil {
			lat = *req.Latitude
		}
		if req.Longitude != nil {
			lon = *req.Longitude
		}
		if err := geo.ValidateCoordinates(lat, lon); err != nil {
			return domain.StoreWithBalance{}, err
		}
		fields["latitude"] = lat
		fields["longitude"] = lon
		geomChanged = true
	}
	if req.GeofenceRadiusMeters != nil {
		if *req.GeofenceRadiusMeters <= 0 {
			return domain.StoreWithBalance{}, fmt.Errorf("%w: geofence radius must be positive", domain.ErrInvalidInput)
		}
		radius = *req.GeofenceRadiusMeters
		fields["geofence_radius_meters"] = radius
		geomChanged = true
	}
	if geomChanged {
		fields["geofence_circle"] = geo.CirclePolygonWKT(lat, lon, radius, 0)
	}

	if len(fields) == 0 {
		return current, nil
	}

	if err := s.storeRepo.Update(ctx, storeID, ownerID, fields); err != nil {
		return domain.StoreWithBalance{}, err
	}

	return s.storeRepo.FindByIDForOwner(ctx, storeID, ownerID)
}

func (s *StoreService) ListByOwner(ctx context.Context, ownerID uint64) ([]domain.StoreWithBalance, error) {
	return s.storeRepo.FindByOwner(ctx, ownerID)
}

func (s *StoreService) Get(ctx context.Context, ownerID, storeID uint64) (domain.StoreWithBalance, error) {
	return s.storeRepo.FindByIDForOwner(ctx, storeID, ownerID)
}

// Nearby is the public store directory lookup around a coordinate.
func (s *StoreService) Nearby(ctx context.Context, lat, lon, radiusMeters float64) ([]domain.NearbyStore, error) {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	if radiusMeters <= 0 {
		radiusMeters = s.defaultRadiusMeters
	}

	return s.storeRepo.FindNearby(ctx, lat, lon, radiusMeters, MaxNearbyStores)
}
