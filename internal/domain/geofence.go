package domain

import (
	"errors"
	"math"
)

const earthRadiusMeters = 6371000

// ErrNoSites is returned by Evaluate when the site list is empty.
var ErrNoSites = errors.New("geofence has no sites")

// Site is a named check-in location at the center of a geofence.
type Site struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Coordinate is a caller-reported position in decimal degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// GeofenceResult is the nearest site to a coordinate and whether the
// coordinate is inside that site's fence.
type GeofenceResult struct {
	Site           string
	DistanceMeters float64
	Within         bool
}

// RoundedMeters returns the distance rounded to the nearest whole meter.
func (r GeofenceResult) RoundedMeters() int {
	return int(math.Round(r.DistanceMeters))
}

// DefaultSites are the reference deployment's check-in locations.
func DefaultSites() []Site {
	return []Site{
		{Name: "SEDE GAIRA KM7", Lat: 11.18957, Lng: -74.21414},
		{Name: "RELLENO SANITARIO", Lat: 11.256635, Lng: -74.157481},
		{Name: "REBOMBEO", Lat: 11.18702, Lng: -74.2173},
		{Name: "CAN CLL 22", Lat: 11.23625, Lng: -74.18786},
		{Name: "PTAP MAMATOCO", Lat: 11.224788, Lng: -74.160243},
	}
}

// Evaluate finds the site nearest to p and reports whether p lies within
// radiusMeters of it. Ties go to the site listed first.
func Evaluate(p Coordinate, sites []Site, radiusMeters float64) (GeofenceResult, error) {
	if len(sites) == 0 {
		return GeofenceResult{}, ErrNoSites
	}

	best := GeofenceResult{Site: sites[0].Name, DistanceMeters: Haversine(p.Lat, p.Lng, sites[0].Lat, sites[0].Lng)}
	for _, s := range sites[1:] {
		d := Haversine(p.Lat, p.Lng, s.Lat, s.Lng)
		if d < best.DistanceMeters {
			best = GeofenceResult{Site: s.Name, DistanceMeters: d}
		}
	}

	best.Within = best.DistanceMeters <= radiusMeters
	return best, nil
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLat := toRadians(lat2 - lat1)
	deltaLng := toRadians(lng2 - lng1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
