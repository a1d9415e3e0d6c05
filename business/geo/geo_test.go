package geo

import (
	"math"
	"testing"

	"github.com/domflow/tigerad/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"origin", 0, 0, false},
		{"poles", 90, 180, false},
		{"south pole", -90, -180, false},
		{"lat too high", 90.001, 0, true},
		{"lat too low", -91, 0, true},
		{"lon too high", 0, 180.5, true},
		{"lon too low", 0, -181, true},
		{"nan lat", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lat, tt.lon)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDistance_Identity(t *testing.T) {
	points := [][2]float64{{0, 0}, {40, -74}, {-33.87, 151.21}, {89.9, 179.9}}
	for _, p := range points {
		assert.Zero(t, Distance(p[0], p[1], p[0], p[1]))
	}
}

func TestDistance_Symmetric(t *testing.T) {
	d1 := Distance(40.7128, -74.0060, 51.5074, -0.1278)
	d2 := Distance(51.5074, -0.1278, 40.7128, -74.0060)
	assert.InDelta(t, d1, d2, 1e-6)
}

func TestDistance_KnownFixtures(t *testing.T) {
	// New York -> London, ~5570 km on the 6371 km sphere.
	nyLondon := Distance(40.7128, -74.0060, 51.5074, -0.1278)
	assert.InDelta(t, 5570000, nyLondon, 10000)

	// 0.01 degrees of longitude at latitude 40 is roughly 852 m;
	// 0.01 degrees of latitude is roughly 1113 m.
	lonStep := Distance(40.0, -74.0, 40.0, -74.01)
	assert.InDelta(t, 852, lonStep, 5)

	latStep := Distance(40.0, -74.0, 40.01, -74.0)
	assert.InDelta(t, 1113, latStep, 5)
}

func TestWithinRadius(t *testing.T) {
	// ~852 m apart, default geofence is 1609 m.
	assert.True(t, WithinRadius(40.0, -74.01, 40.0, -74.0, 1609))
	assert.False(t, WithinRadius(40.05, -74.0, 40.0, -74.0, 1609))
}

func TestBearing(t *testing.T) {
	assert.InDelta(t, 0, Bearing(40, -74, 41, -74), 0.5)    // due north
	assert.InDelta(t, 180, Bearing(41, -74, 40, -74), 0.5)  // due south
	assert.InDelta(t, 90, Bearing(0, 0, 0, 1), 0.5)         // due east on the equator
	assert.InDelta(t, 270, Bearing(0, 1, 0, 0), 0.5)        // due west on the equator
	assert.GreaterOrEqual(t, Bearing(40, -74, 39, -75), 0.0)
	assert.Less(t, Bearing(40, -74, 39, -75), 360.0)
}

func TestDestinationPoint_RoundTrip(t *testing.T) {
	start := Point{Latitude: 40.0, Longitude: -74.0}
	dest := DestinationPoint(start.Latitude, start.Longitude, 45, 1000)

	d := Distance(start.Latitude, start.Longitude, dest.Latitude, dest.Longitude)
	assert.InDelta(t, 1000, d, 0.5)
}

func TestDestinationPoint_WrapsLongitude(t *testing.T) {
	// Heading east across the antimeridian must wrap into [-180,180].
	dest := DestinationPoint(0, 179.999, 90, 10000)
	assert.LessOrEqual(t, dest.Longitude, 180.0)
	assert.GreaterOrEqual(t, dest.Longitude, -180.0)
	assert.Negative(t, dest.Longitude)
}

func TestCirclePolygon_ClosedRing(t *testing.T) {
	const radius = 1609.0
	ring := CirclePolygon(40.0, -74.0, radius, 64)

	require.Len(t, ring, 65)
	assert.Equal(t, ring[0], ring[len(ring)-1])

	for i, p := range ring {
		d := Distance(40.0, -74.0, p.Latitude, p.Longitude)
		assert.InDeltaf(t, radius, d, 0.01, "vertex %d off the circle", i)
	}
}

func TestCirclePolygon_DefaultSegments(t *testing.T) {
	ring := CirclePolygon(0, 0, 500, 0)
	assert.Len(t, ring, 65)
}

func TestCirclePolygonWKT(t *testing.T) {
	wkt := CirclePolygonWKT(40.0, -74.0, 100, 4)

	assert.True(t, len(wkt) > 0)
	assert.Contains(t, wkt, "POLYGON((")
	assert.Contains(t, wkt, "))")
}
