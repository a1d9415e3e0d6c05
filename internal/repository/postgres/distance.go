package postgres

// haversineSQL computes the great-circle distance in meters from a store row
// to a bound (lat, lat, lon) query point. Same formula and 6371 km radius as
// business/geo, which stays the authority for containment checks done in Go.
const haversineSQL = `6371000 * 2 * ASIN(SQRT(
	POWER(SIN(RADIANS(s.latitude - ?) / 2), 2) +
	COS(RADIANS(?)) * COS(RADIANS(s.latitude)) *
	POWER(SIN(RADIANS(s.longitude - ?) / 2), 2)))`
