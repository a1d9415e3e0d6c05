package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindowRepo reproduces the reset-or-increment behavior of the real
// upsert in memory.
type fakeWindowRepo struct {
	windows map[string]*fakeWindow
	calls   int
}

type fakeWindow struct {
	count       int
	windowStart time.Time
	windowMins  int
}

func newFakeWindowRepo() *fakeWindowRepo {
	return &fakeWindowRepo{windows: map[string]*fakeWindow{}}
}

func (f *fakeWindowRepo) CheckAndIncrement(_ context.Context, identifier, limitType string, storeID uint64, windowMinutes, maxRequests int) (bool, error) {
	f.calls++
	key := fmt.Sprintf("%s|%s|%d", identifier, limitType, storeID)

	w, ok := f.windows[key]
	now := time.Now()
	if !ok {
		f.windows[key] = &fakeWindow{count: 1, windowStart: now, windowMins: windowMinutes}
		return true, nil
	}

	if now.Sub(w.windowStart) >= time.Duration(w.windowMins)*time.Minute {
		w.count = 1
		w.windowStart = now
		w.windowMins = windowMinutes
		return true, nil
	}

	if w.count < maxRequests {
		w.count++
		return true, nil
	}

	return false, nil
}

func (f *fakeWindowRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var deleted int64
	for key, w := range f.windows {
		if w.windowStart.Add(time.Duration(w.windowMins) * time.Minute).Before(before) {
			delete(f.windows, key)
			deleted++
		}
	}
	return deleted, nil
}

func TestAllowFirstRequest(t *testing.T) {
	svc := NewService(newFakeWindowRepo())

	allowed, err := svc.Allow(context.Background(), "device-1", GeofenceEntryPolicy(60, 1), 0)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDenySecondRequestInWindow(t *testing.T) {
	svc := NewService(newFakeWindowRepo())
	policy := GeofenceEntryPolicy(60, 1)

	allowed, err := svc.Allow(context.Background(), "device-1", policy, 0)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = svc.Allow(context.Background(), "device-1", policy, 0)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestIndependentIdentifiers(t *testing.T) {
	svc := NewService(newFakeWindowRepo())
	policy := GeofenceEntryPolicy(60, 1)

	allowed, err := svc.Allow(context.Background(), "device-1", policy, 0)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = svc.Allow(context.Background(), "device-2", policy, 0)
	require.NoError(t, err)
	assert.True(t, allowed, "a different device must get its own window")
}

func TestIndependentLimitTypes(t *testing.T) {
	svc := NewService(newFakeWindowRepo())

	allowed, err := svc.Allow(context.Background(), "owner-7", GeofenceEntryPolicy(60, 1), 0)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = svc.Allow(context.Background(), "owner-7", AdCreationPolicy(15, 1), 3)
	require.NoError(t, err)
	assert.True(t, allowed, "ad creation and geofence entry keep separate windows")
}

func TestExpiredWindowResets(t *testing.T) {
	repo := newFakeWindowRepo()
	svc := NewService(repo)
	policy := GeofenceEntryPolicy(60, 1)

	allowed, err := svc.Allow(context.Background(), "device-1", policy, 0)
	require.NoError(t, err)
	require.True(t, allowed)

	// age the window past its duration
	for _, w := range repo.windows {
		w.windowStart = time.Now().Add(-61 * time.Minute)
	}

	allowed, err = svc.Allow(context.Background(), "device-1", policy, 0)
	require.NoError(t, err)
	assert.True(t, allowed, "a lapsed window admits again")
}

func TestAllowRequiresIdentifier(t *testing.T) {
	svc := NewService(newFakeWindowRepo())

	_, err := svc.Allow(context.Background(), "", GeofenceEntryPolicy(60, 1), 0)
	assert.Error(t, err)
}

func TestPolicyWindowMinutes(t *testing.T) {
	assert.Equal(t, 60, GeofenceEntryPolicy(60, 1).WindowMinutes())
	assert.Equal(t, 15, AdCreationPolicy(15, 1).WindowMinutes())
}

func TestCleanup(t *testing.T) {
	repo := newFakeWindowRepo()
	svc := NewService(repo)

	_, err := svc.Allow(context.Background(), "device-1", GeofenceEntryPolicy(60, 1), 0)
	require.NoError(t, err)

	for _, w := range repo.windows {
		w.windowStart = time.Now().Add(-48 * time.Hour)
	}

	deleted, err := svc.Cleanup(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
