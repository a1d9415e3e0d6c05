// Package ratelimit implements windowed admission control keyed by
// (identifier, limit type, optional store scope). The check and the
// increment are a single atomic repository operation; a denied call never
// mutates the window row.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	LimitGeofenceEntry = "geofence_entry"
	LimitAdCreation    = "ad_creation"
)

// Policy names one admission rule: at most MaxRequests per Window.
type Policy struct {
	Type        string
	Window      time.Duration
	MaxRequests int
}

func (p Policy) WindowMinutes() int {
	return int(p.Window / time.Minute)
}

// GeofenceEntryPolicy limits anonymous devices to one geofence lookup per
// window (an hour by default).
func GeofenceEntryPolicy(windowMinutes, maxRequests int) Policy {
	return Policy{
		Type:        LimitGeofenceEntry,
		Window:      time.Duration(windowMinutes) * time.Minute,
		MaxRequests: maxRequests,
	}
}

// AdCreationPolicy limits store owners to one advertisement per window
// (15 minutes by default).
func AdCreationPolicy(windowMinutes, maxRequests int) Policy {
	return Policy{
		Type:        LimitAdCreation,
		Window:      time.Duration(windowMinutes) * time.Minute,
		MaxRequests: maxRequests,
	}
}

// WindowRepository is the storage contract. CheckAndIncrement must be atomic
// per key: it admits and increments in one conditional write, returning
// false without mutation when the current window is full.
type WindowRepository interface {
	CheckAndIncrement(ctx context.Context, identifier, limitType string, storeID uint64, windowMinutes, maxRequests int) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type Service struct {
	windows WindowRepository
}

func NewService(windows WindowRepository) *Service {
	return &Service{windows: windows}
}

// Allow reports whether the identifier may proceed under the policy, and
// consumes one slot of the window when it may. storeID is 0 for limits with
// no store scope.
func (s *Service) Allow(ctx context.Context, identifier string, policy Policy, storeID uint64) (bool, error) {
	if identifier == "" {
		return false, fmt.Errorf("rate limit identifier is required")
	}

	allowed, err := s.windows.CheckAndIncrement(ctx, identifier, policy.Type, storeID, policy.WindowMinutes(), policy.MaxRequests)
	if err != nil {
		return false, fmt.Errorf("check rate limit %s: %w", policy.Type, err)
	}

	return allowed, nil
}

// Cleanup garbage-collects window rows whose window ended before the cutoff.
// Superseded windows are reset in place, so this only removes keys that went
// quiet entirely.
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.windows.DeleteExpired(ctx, time.Now().Add(-olderThan))
}
