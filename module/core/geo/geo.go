// Package geo holds the pure geometric primitives the geofence engine
// evaluates containment with: great-circle distance, point-in-circle and
// point-in-polygon tests.
//
// Polygon containment is a planar even-odd crossing test over raw
// (lon, lat) pairs. That is adequate for fences spanning up to a few
// kilometres; it is not geodesically exact for very large polygons or
// polygons crossing the antimeridian. Points exactly on a polygon edge
// or vertex may classify either way; callers must not rely on polygon
// boundary behavior. Circle boundaries are inclusive.
package geo

import (
	"math"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
)

const earthRadiusMeters = 6371000

// DistanceMeters returns the great-circle distance between two
// coordinates using the haversine formula.
func DistanceMeters(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// InsideCircle reports whether pt lies within radiusMeters of center,
// boundary inclusive.
func InsideCircle(pt, center domain.Coordinate, radiusMeters float64) bool {
	return DistanceMeters(pt, center) <= radiusMeters
}

// InsidePolygon reports whether pt lies within the ring described by
// vertices, by casting a ray east from pt and counting edge crossings.
// Fewer than three vertices contain nothing.
func InsidePolygon(pt domain.Coordinate, vertices []domain.Coordinate) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}
	x, y := pt.Lon, pt.Lat
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := vertices[i].Lon, vertices[i].Lat
		xj, yj := vertices[j].Lon, vertices[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// Contains dispatches the containment test on the shape variant. An
// unknown shape contains nothing.
func Contains(pt domain.Coordinate, shape domain.Shape) bool {
	switch s := shape.(type) {
	case domain.Circle:
		return InsideCircle(pt, s.Center, s.RadiusMeters)
	case domain.Polygon:
		return InsidePolygon(pt, s.Vertices)
	default:
		return false
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
