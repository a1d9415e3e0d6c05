package postgres

import (
	"testing"
	"time"

	"github.com/domflow/tigerad/domain"
	"github.com/stretchr/testify/assert"
)

func eligibleFixture(mutate func(*domain.EligibleAd)) domain.EligibleAd {
	ad := domain.EligibleAd{
		ID:                   1,
		StoreID:              10,
		ViewsRemaining:       180,
		Status:               domain.AdStatusActive,
		StoreActive:          true,
		StoreName:            "Corner Deli",
		StoreLatitude:        40.0,
		StoreLongitude:       -74.0,
		GeofenceRadiusMeters: 1609,
	}
	if mutate != nil {
		mutate(&ad)
	}

	return ad
}

func TestServable(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name   string
		mutate func(*domain.EligibleAd)
		want   bool
	}{
		{"active with open end date", nil, true},
		{"end date ahead", func(ad *domain.EligibleAd) { ad.EndDate = &future }, true},
		{"end date in the past", func(ad *domain.EligibleAd) { ad.EndDate = &past }, false},
		{"end date exactly now", func(ad *domain.EligibleAd) { ad.EndDate = &now }, false},
		{"inactive store", func(ad *domain.EligibleAd) { ad.StoreActive = false }, false},
		{"views exhausted", func(ad *domain.EligibleAd) { ad.ViewsRemaining = 0 }, false},
		{"paused", func(ad *domain.EligibleAd) { ad.Status = domain.AdStatusPaused }, false},
		{"completed", func(ad *domain.EligibleAd) { ad.Status = domain.AdStatusCompleted }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, servable(eligibleFixture(tt.mutate), now))
		})
	}
}
