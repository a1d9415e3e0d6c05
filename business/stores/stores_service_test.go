package stores

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domflow/tigerad/domain"
)

type fakeStoreRepo struct {
	stores  map[uint64]*domain.Store
	updates map[string]interface{}
	nearby  []domain.NearbyStore
	nextID  uint64
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{stores: map[uint64]*domain.Store{}}
}

func (f *fakeStoreRepo) Create(_ context.Context, store *domain.Store) error {
	f.nextID++
	store.ID = f.nextID
	f.stores[store.ID] = store
	return nil
}

func (f *fakeStoreRepo) FindByOwner(_ context.Context, ownerID uint64) ([]domain.StoreWithBalance, error) {
	var out []domain.StoreWithBalance
	for _, s := range f.stores {
		if s.OwnerID == ownerID {
			out = append(out, domain.StoreWithBalance{Store: *s})
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) FindByIDForOwner(_ context.Context, id, ownerID uint64) (domain.StoreWithBalance, error) {
	s, ok := f.stores[id]
	if !ok || s.OwnerID != ownerID {
		return domain.StoreWithBalance{}, domain.ErrNotFound
	}
	return domain.StoreWithBalance{Store: *s}, nil
}

func (f *fakeStoreRepo) Update(_ context.Context, id, ownerID uint64, fields map[string]interface{}) error {
	s, ok := f.stores[id]
	if !ok || s.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	f.updates = fields
	if v, ok := fields["latitude"].(float64); ok {
		s.Latitude = v
	}
	if v, ok := fields["longitude"].(float64); ok {
		s.Longitude = v
	}
	if v, ok := fields["geofence_radius_meters"].(float64); ok {
		s.GeofenceRadiusMeters = v
	}
	if v, ok := fields["geofence_circle"].(string); ok {
		s.GeofenceCircle = v
	}
	if v, ok := fields["store_name"].(string); ok {
		s.StoreName = v
	}
	return nil
}

func (f *fakeStoreRepo) FindNearby(_ context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyStore, error) {
	return f.nearby, nil
}

func newTestService(repo *fakeStoreRepo) *StoreService {
	return NewStoreService(repo, 1609, 3)
}

func TestCreateStoreComputesGeofenceCircle(t *testing.T) {
	repo := newFakeStoreRepo()
	svc := newTestService(repo)

	store, err := svc.Create(context.Background(), CreateStoreRequest{
		OwnerID:   10,
		StoreName: "Corner Cafe",
		Latitude:  40.0,
		Longitude: -74.0,
	})
	require.NoError(t, err)

	assert.Equal(t, 1609.0, store.GeofenceRadiusMeters, "radius defaults to one mile")
	assert.Equal(t, 3.0, store.TriggerRadiusMeters)
	assert.True(t, store.IsActive)
	assert.True(t, strings.HasPrefix(store.GeofenceCircle, "POLYGON(("))
	// 64 segments means 65 vertices in the closed ring
	assert.Equal(t, 65, strings.Count(store.GeofenceCircle, ",")+1)
}

func TestCreateStoreCustomRadius(t *testing.T) {
	svc := newTestService(newFakeStoreRepo())

	store, err := svc.Create(context.Background(), CreateStoreRequest{
		OwnerID: 10, StoreName: "Corner Cafe", Latitude: 40.0, Longitude: -74.0,
		GeofenceRadiusMeters: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, 500.0, store.GeofenceRadiusMeters)
}

func TestCreateStoreRejectsBadInput(t *testing.T) {
	svc := newTestService(newFakeStoreRepo())

	_, err := svc.Create(context.Background(), CreateStoreRequest{OwnerID: 10, StoreName: "x", Latitude: 91, Longitude: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)

	_, err = svc.Create(context.Background(), CreateStoreRequest{OwnerID: 10, Latitude: 40, Longitude: -74})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateStoreRecomputesGeometry(t *testing.T) {
	repo := newFakeStoreRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), CreateStoreRequest{
		OwnerID: 10, StoreName: "Corner Cafe", Latitude: 40.0, Longitude: -74.0,
	})
	require.NoError(t, err)
	originalCircle := created.GeofenceCircle

	radius := 800.0
	updated, err := svc.Update(context.Background(), 10, created.ID, UpdateStoreRequest{GeofenceRadiusMeters: &radius})
	require.NoError(t, err)

	assert.Equal(t, 800.0, updated.GeofenceRadiusMeters)
	assert.NotEqual(t, originalCircle, updated.GeofenceCircle, "resizing the fence rewrites the polygon")
	assert.Contains(t, repo.updates, "geofence_circle")
}

func TestUpdateStoreNameOnlyKeepsGeometry(t *testing.T) {
	repo := newFakeStoreRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), CreateStoreRequest{
		OwnerID: 10, StoreName: "Corner Cafe", Latitude: 40.0, Longitude: -74.0,
	})
	require.NoError(t, err)

	name := "Corner Cafe & Bakery"
	updated, err := svc.Update(context.Background(), 10, created.ID, UpdateStoreRequest{StoreName: &name})
	require.NoError(t, err)

	assert.Equal(t, name, updated.StoreName)
	assert.NotContains(t, repo.updates, "geofence_circle")
}

func TestUpdateStoreWrongOwner(t *testing.T) {
	repo := newFakeStoreRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), CreateStoreRequest{
		OwnerID: 10, StoreName: "Corner Cafe", Latitude: 40.0, Longitude: -74.0,
	})
	require.NoError(t, err)

	name := "hijack"
	_, err = svc.Update(context.Background(), 99, created.ID, UpdateStoreRequest{StoreName: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNearbyValidatesCoordinates(t *testing.T) {
	repo := newFakeStoreRepo()
	repo.nearby = []domain.NearbyStore{{ID: 1, StoreName: "Corner Cafe", DistanceMeters: 40}}
	svc := newTestService(repo)

	_, err := svc.Nearby(context.Background(), 120, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)

	result, err := svc.Nearby(context.Background(), 40.0, -74.0, 0)
	require.NoError(t, err)
	require.Len(t, result, 1)
}
