package match

import (
	"github.com/openvalley/strmatch-backend-go/internal/models"
	"github.com/openvalley/strmatch-backend-go/internal/spatial"
)

// DefaultRadiusMeters is the nearest-parcel fallback radius when none is
// configured.
const DefaultRadiusMeters = 50.0

// OverlapConfidence is the confidence reported when a point falls inside
// more than one parcel polygon. Overlaps are data errors in the parcel
// fabric; the assignment is still deterministic (smallest polygon wins)
// but never fully trusted.
const OverlapConfidence = 0.7

// ParcelGeometry is the matcher's view of one parcel: its centroid and
// zero or more boundary polygons. Parcels without digitized boundaries
// participate in the centroid fallback only.
type ParcelGeometry struct {
	ID       int64
	Centroid spatial.Point
	Polygons []spatial.Polygon
}

// Match is a point-to-parcel assignment.
type Match struct {
	ParcelID   int64
	Method     string // models.MatchMethodSpatial, Overlap, or Centroid
	Confidence float64
}

// Index answers point-to-parcel assignment queries over the whole parcel
// fabric. Build once, then read-only: safe for concurrent use.
type Index struct {
	parcels []indexedParcel
	radius  float64
}

type indexedParcel struct {
	id       int64
	centroid spatial.Point
	polys    []indexedPolygon
}

// indexedPolygon caches the bounding box so Locate can skip the ray cast
// for points nowhere near the polygon.
type indexedPolygon struct {
	poly   spatial.Polygon
	area   float64
	minLat float64
	minLng float64
	maxLat float64
	maxLng float64
}

// NewIndex builds an index over the given parcels. radiusMeters bounds the
// nearest-centroid fallback; values <= 0 use DefaultRadiusMeters.
func NewIndex(parcels []ParcelGeometry, radiusMeters float64) *Index {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}

	idx := &Index{radius: radiusMeters, parcels: make([]indexedParcel, 0, len(parcels))}
	for _, p := range parcels {
		ip := indexedParcel{id: p.ID, centroid: p.Centroid}
		for _, poly := range p.Polygons {
			minLat, minLng, maxLat, maxLng := poly.BBox()
			ip.polys = append(ip.polys, indexedPolygon{
				poly:   poly,
				area:   poly.Area(),
				minLat: minLat,
				minLng: minLng,
				maxLat: maxLat,
				maxLng: maxLng,
			})
		}
		idx.parcels = append(idx.parcels, ip)
	}
	return idx
}

// Radius returns the fallback radius in meters.
func (idx *Index) Radius() float64 {
	return idx.radius
}

// Locate assigns a coordinate to a parcel:
//   - inside exactly one polygon: that parcel, confidence 1.0;
//   - inside several (overlapping fabric): the smallest containing polygon,
//     confidence OverlapConfidence;
//   - inside none: the nearest parcel centroid within the radius, with
//     confidence decaying linearly from 1.0 at the centroid to 0.0 at the
//     radius edge.
//
// ok is false when no parcel qualifies.
func (idx *Index) Locate(lat, lng float64) (Match, bool) {
	pt := spatial.Point{Lat: lat, Lng: lng}

	type containment struct {
		parcelID int64
		area     float64
	}
	var hits []containment

	for i := range idx.parcels {
		par := &idx.parcels[i]
		for j := range par.polys {
			poly := &par.polys[j]
			if pt.Lat < poly.minLat || pt.Lat > poly.maxLat || pt.Lng < poly.minLng || pt.Lng > poly.maxLng {
				continue
			}
			if poly.poly.Contains(pt) {
				hits = append(hits, containment{parcelID: par.id, area: poly.area})
				break
			}
		}
	}

	switch len(hits) {
	case 1:
		return Match{ParcelID: hits[0].parcelID, Method: models.MatchMethodSpatial, Confidence: 1.0}, true
	case 0:
		return idx.nearestWithinRadius(pt)
	}

	best := hits[0]
	for _, h := range hits[1:] {
		if h.area < best.area || (h.area == best.area && h.parcelID < best.parcelID) {
			best = h
		}
	}
	return Match{ParcelID: best.parcelID, Method: models.MatchMethodOverlap, Confidence: OverlapConfidence}, true
}

func (idx *Index) nearestWithinRadius(pt spatial.Point) (Match, bool) {
	bestID := int64(0)
	bestDist := 0.0
	found := false

	for i := range idx.parcels {
		par := &idx.parcels[i]
		d := spatial.HaversineDistance(pt.Lat, pt.Lng, par.centroid.Lat, par.centroid.Lng)
		if d > idx.radius {
			continue
		}
		if !found || d < bestDist || (d == bestDist && par.id < bestID) {
			found = true
			bestDist = d
			bestID = par.id
		}
	}

	if !found {
		return Match{}, false
	}
	return Match{
		ParcelID:   bestID,
		Method:     models.MatchMethodCentroid,
		Confidence: 1.0 - bestDist/idx.radius,
	}, true
}
