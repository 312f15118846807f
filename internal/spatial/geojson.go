package spatial

import (
	"encoding/json"
	"fmt"
)

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseGeometry decodes a GeoJSON Polygon or MultiPolygon geometry object
// into polygons. GeoJSON positions are [lng, lat]; the closing coordinate
// of each ring is dropped when present.
func ParseGeometry(data []byte) ([]Polygon, error) {
	var g rawGeometry
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}

	switch g.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode Polygon coordinates: %w", err)
		}
		pg, err := polygonFromRings(coords)
		if err != nil {
			return nil, err
		}
		return []Polygon{pg}, nil

	case "MultiPolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode MultiPolygon coordinates: %w", err)
		}
		polys := make([]Polygon, 0, len(coords))
		for _, rings := range coords {
			pg, err := polygonFromRings(rings)
			if err != nil {
				return nil, err
			}
			polys = append(polys, pg)
		}
		return polys, nil

	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func polygonFromRings(rings [][][]float64) (Polygon, error) {
	if len(rings) == 0 {
		return Polygon{}, fmt.Errorf("polygon has no rings")
	}

	var pg Polygon
	for i, raw := range rings {
		ring, err := ringFromCoords(raw)
		if err != nil {
			return Polygon{}, err
		}
		if i == 0 {
			pg.Outer = ring
		} else {
			pg.Holes = append(pg.Holes, ring)
		}
	}
	return pg, nil
}

func ringFromCoords(coords [][]float64) (Ring, error) {
	ring := make(Ring, 0, len(coords))
	for _, pos := range coords {
		if len(pos) < 2 {
			return nil, fmt.Errorf("position has %d values, need at least 2", len(pos))
		}
		ring = append(ring, Point{Lat: pos[1], Lng: pos[0]})
	}
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("ring has %d distinct points, need at least 3", len(ring))
	}
	return ring, nil
}
