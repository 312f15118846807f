package spatial

import (
	"math"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lng float64
}

// Ring is a closed loop of points. The closing point may be repeated or
// omitted; both forms are handled.
type Ring []Point

// Polygon is an outer ring with optional interior holes, matching one
// GeoJSON Polygon element.
type Polygon struct {
	Outer Ring
	Holes []Ring
}

// Centroid calculates the geographic centroid of a set of points
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}

	return Point{
		Lat: sumLat / float64(len(points)),
		Lng: sumLng / float64(len(points)),
	}
}

// BoundingBox calculates the bounding box of a set of points
// Returns (minLat, minLng, maxLat, maxLng)
func BoundingBox(points []Point) (float64, float64, float64, float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLng, maxLng := points[0].Lng, points[0].Lng

	for _, p := range points[1:] {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lng < minLng {
			minLng = p.Lng
		}
		if p.Lng > maxLng {
			maxLng = p.Lng
		}
	}

	return minLat, minLng, maxLat, maxLng
}

// RingArea calculates the area of a ring using the shoelace formula
// Points should be in order (clockwise or counter-clockwise)
// Returns area in square meters (flat-earth approximation, fine at parcel scale)
func RingArea(points Ring) float64 {
	if len(points) < 3 {
		return 0
	}

	var sum float64
	for i := 0; i < len(points); i++ {
		j := (i + 1) % len(points)
		sum += (points[j].Lng - points[i].Lng) * (points[j].Lat + points[i].Lat)
	}

	latRad := points[0].Lat * math.Pi / 180
	metersPerDegreeLat := 111320.0
	metersPerDegreeLng := 111320.0 * math.Cos(latRad)

	return math.Abs(sum) * metersPerDegreeLat * metersPerDegreeLng / 2.0
}

// PointInRing checks if a point is inside a ring using ray casting
func PointInRing(point Point, ring Ring) bool {
	if len(ring) < 3 {
		return false
	}

	inside := false
	j := len(ring) - 1

	for i := 0; i < len(ring); i++ {
		if ((ring[i].Lat > point.Lat) != (ring[j].Lat > point.Lat)) &&
			(point.Lng < (ring[j].Lng-ring[i].Lng)*(point.Lat-ring[i].Lat)/(ring[j].Lat-ring[i].Lat)+ring[i].Lng) {
			inside = !inside
		}
		j = i
	}

	return inside
}

// Contains reports whether the point lies inside the polygon: within the
// outer ring and outside every hole.
func (pg Polygon) Contains(p Point) bool {
	if !PointInRing(p, pg.Outer) {
		return false
	}
	for _, hole := range pg.Holes {
		if PointInRing(p, hole) {
			return false
		}
	}
	return true
}

// Area returns the polygon area in square meters, holes subtracted.
func (pg Polygon) Area() float64 {
	area := RingArea(pg.Outer)
	for _, hole := range pg.Holes {
		area -= RingArea(hole)
	}
	if area < 0 {
		return 0
	}
	return area
}

// Centroid returns the centroid of the outer ring.
func (pg Polygon) Centroid() Point {
	return Centroid(pg.Outer)
}

// BBox returns the outer ring's bounding box.
func (pg Polygon) BBox() (float64, float64, float64, float64) {
	return BoundingBox(pg.Outer)
}
