// Package geo provides the spherical-earth math used by geofence containment
// checks and circle materialization. All public functions are deterministic
// and side-effect free; distances are authoritative for geofence membership,
// any spatial index is only a pre-filter.
package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/domflow/tigerad/domain"
)

// EarthRadiusMeters is the mean earth radius on the WGS 84 sphere model.
const EarthRadiusMeters = 6371.0 * 1000

// Point is a WGS 84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ValidateCoordinates rejects points outside lat [-90,90], lon [-180,180].
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.ErrInvalidCoordinate
	}

	return nil
}

// Distance returns the haversine great-circle distance in meters between two
// coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	latDelta := toRadians(lat2 - lat1)
	lonDelta := toRadians(lon2 - lon1)

	a := math.Sin(latDelta/2)*math.Sin(latDelta/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(lonDelta/2)*math.Sin(lonDelta/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// WithinRadius reports whether the point lies inside (or on) the circle.
func WithinRadius(lat, lon, centerLat, centerLon, radiusMeters float64) bool {
	return Distance(lat, lon, centerLat, centerLon) <= radiusMeters
}

// Bearing returns the initial bearing from the first point to the second,
// normalized to [0,360) degrees.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	lonDelta := toRadians(lon2 - lon1)

	y := math.Sin(lonDelta) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(lonDelta)

	deg := toDegrees(math.Atan2(y, x))

	return math.Mod(deg+360, 360)
}

// DestinationPoint travels distanceMeters from the start point along the
// given bearing and returns where it lands, with longitude wrapped to
// [-180,180].
func DestinationPoint(lat, lon, bearingDeg, distanceMeters float64) Point {
	phi := toRadians(lat)
	lambda := toRadians(lon)
	theta := toRadians(bearingDeg)
	delta := distanceMeters / EarthRadiusMeters

	phi2 := math.Asin(math.Sin(phi)*math.Cos(delta) + math.Cos(phi)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi),
		math.Cos(delta)-math.Sin(phi)*math.Sin(phi2),
	)

	return Point{
		Latitude:  toDegrees(phi2),
		Longitude: toDegrees(wrapLongitude(lambda2)),
	}
}

// CirclePolygon approximates the geofence boundary as a closed ring of
// segments vertices plus the repeated first vertex. Points are (lon, lat)
// ordered, matching the WKT axis convention the ring is stored in.
func CirclePolygon(lat, lon, radiusMeters float64, segments int) []Point {
	if segments <= 0 {
		segments = 64
	}

	ring := make([]Point, 0, segments+1)
	for i := 0; i < segments; i++ {
		bearing := 360 * float64(i) / float64(segments)
		ring = append(ring, DestinationPoint(lat, lon, bearing, radiusMeters))
	}

	ring = append(ring, ring[0])

	return ring
}

// CirclePolygonWKT renders the ring as a POLYGON((...)) well-known-text
// string for storage alongside the store row.
func CirclePolygonWKT(lat, lon, radiusMeters float64, segments int) string {
	ring := CirclePolygon(lat, lon, radiusMeters, segments)

	parts := make([]string, 0, len(ring))
	for _, p := range ring {
		parts = append(parts, fmt.Sprintf("%.8f %.8f", p.Longitude, p.Latitude))
	}

	return "POLYGON((" + strings.Join(parts, ",") + "))"
}

func wrapLongitude(lonRad float64) float64 {
	return math.Mod(lonRad+3*math.Pi, 2*math.Pi) - math.Pi
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
