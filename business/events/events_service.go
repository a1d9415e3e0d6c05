// Package events records raw geofence telemetry (enter, exit, dwell) from
// anonymous devices and serves per-store rollups to owners.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/domflow/tigerad/business/geo"
	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/pkg/logger"
)

type EventRepository interface {
	SaveEvent(ctx context.Context, event *domain.GeofenceEvent) error
	StoreStats(ctx context.Context, storeID uint64, days int) ([]domain.GeofenceStat, error)
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type StoreRepository interface {
	FindActive(ctx context.Context, id uint64) (domain.Store, error)
	VerifyOwnership(ctx context.Context, storeID, ownerID uint64) (bool, error)
}

type EventService struct {
	eventRepo EventRepository
	storeRepo StoreRepository
	retention time.Duration
}

func NewEventService(eventRepo EventRepository, storeRepo StoreRepository, retentionDays int) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		storeRepo: storeRepo,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// RecordEvent persists one enter/exit/dwell observation against an active
// store, stamping the device's distance to the store at event time. Events
// are immutable telemetry and never gate ad delivery.
func (s *EventService) RecordEvent(ctx context.Context, storeID uint64, fingerprint, eventType string, lat, lon float64) (domain.GeofenceEvent, error) {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return domain.GeofenceEvent{}, err
	}
	if fingerprint == "" {
		return domain.GeofenceEvent{}, fmt.Errorf("%w: user fingerprint is required", domain.ErrInvalidInput)
	}

	switch eventType {
	case domain.GeofenceEventEnter, domain.GeofenceEventExit, domain.GeofenceEventDwell:
	default:
		return domain.GeofenceEvent{}, fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidInput, eventType)
	}

	store, err := s.storeRepo.FindActive(ctx, storeID)
	if err != nil {
		return domain.GeofenceEvent{}, err
	}

	event := domain.GeofenceEvent{
		StoreID:               store.ID,
		UserFingerprint:       fingerprint,
		EventType:             eventType,
		Latitude:              lat,
		Longitude:             lon,
		DistanceToStoreMeters: geo.Distance(lat, lon, store.Latitude, store.Longitude),
	}
	if err := s.eventRepo.SaveEvent(ctx, &event); err != nil {
		return domain.GeofenceEvent{}, err
	}

	return event, nil
}

// StoreStats is the owner-facing daily rollup of geofence traffic.
func (s *EventService) StoreStats(ctx context.Context, ownerID, storeID uint64, days int) ([]domain.GeofenceStat, error) {
	owns, err := s.storeRepo.VerifyOwnership(ctx, storeID, ownerID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, domain.ErrForbidden
	}

	if days <= 0 || days > 90 {
		days = 30
	}

	return s.eventRepo.StoreStats(ctx, storeID, days)
}

// Cleanup deletes events older than the retention window.
func (s *EventService) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := s.eventRepo.DeleteEventsBefore(ctx, time.Now().Add(-s.retention))
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		logger.Info("geofence events pruned", "deleted", deleted)
	}

	return deleted, nil
}
