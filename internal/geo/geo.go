package geo

import "math"

const (
	earthRadiusMeters = 6371000.0

	// Meters per degree of latitude on the WGS-84 ellipsoid, treated as
	// constant at course scale (holes span well under a kilometer).
	metersPerDegLat = 111320.0

	// YardsPerMeter converts surface distances for the strokes model,
	// which is calibrated in yards.
	YardsPerMeter = 1.0936133
)

// Point is a geodetic coordinate. Passed by value everywhere; no identity.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// DistanceMeters returns the haversine great-circle distance between two points.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// BearingRad returns the initial bearing from a to b in radians,
// measured clockwise from true north.
func BearingRad(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(y, x)
}

// Offset displaces p by east/north meters on the local tangent plane.
func Offset(p Point, eastMeters, northMeters float64) Point {
	metersPerDegLon := metersPerDegLat * math.Cos(p.Lat*math.Pi/180)
	return Point{
		Lon: p.Lon + eastMeters/metersPerDegLon,
		Lat: p.Lat + northMeters/metersPerDegLat,
	}
}

// LocalOffset returns the east/north meter displacement from origin to p on
// the tangent plane anchored at origin. Inverse of Offset at course scale.
func LocalOffset(origin, p Point) (eastMeters, northMeters float64) {
	metersPerDegLon := metersPerDegLat * math.Cos(origin.Lat*math.Pi/180)
	return (p.Lon - origin.Lon) * metersPerDegLon, (p.Lat - origin.Lat) * metersPerDegLat
}

// Destination returns the point at the given distance and bearing from p,
// computed on the tangent plane.
func Destination(p Point, bearingRad, distanceMeters float64) Point {
	return Offset(p, distanceMeters*math.Sin(bearingRad), distanceMeters*math.Cos(bearingRad))
}
