package spatial

import "testing"

func TestParseGeometryPolygon(t *testing.T) {
	data := []byte(`{
		"type": "Polygon",
		"coordinates": [[[-72.500, 44.500], [-72.499, 44.500], [-72.499, 44.501], [-72.500, 44.501], [-72.500, 44.500]]]
	}`)

	polys, err := ParseGeometry(data)
	if err != nil {
		t.Fatalf("ParseGeometry: %v", err)
	}
	if len(polys) != 1 {
		t.Fatalf("got %d polygons, want 1", len(polys))
	}
	if len(polys[0].Outer) != 4 {
		t.Errorf("outer ring has %d points, want 4 (closing point dropped)", len(polys[0].Outer))
	}
	if len(polys[0].Holes) != 0 {
		t.Errorf("got %d holes, want 0", len(polys[0].Holes))
	}

	// GeoJSON order is [lng, lat]
	if polys[0].Outer[0] != (Point{Lat: 44.500, Lng: -72.500}) {
		t.Errorf("first point = %+v, want lat 44.500 lng -72.500", polys[0].Outer[0])
	}
}

func TestParseGeometryPolygonWithHole(t *testing.T) {
	data := []byte(`{
		"type": "Polygon",
		"coordinates": [
			[[-72.500, 44.500], [-72.499, 44.500], [-72.499, 44.501], [-72.500, 44.501]],
			[[-72.4996, 44.5004], [-72.4994, 44.5004], [-72.4994, 44.5006]]
		]
	}`)

	polys, err := ParseGeometry(data)
	if err != nil {
		t.Fatalf("ParseGeometry: %v", err)
	}
	if len(polys[0].Holes) != 1 {
		t.Fatalf("got %d holes, want 1", len(polys[0].Holes))
	}
}

func TestParseGeometryMultiPolygon(t *testing.T) {
	data := []byte(`{
		"type": "MultiPolygon",
		"coordinates": [
			[[[-72.500, 44.500], [-72.499, 44.500], [-72.499, 44.501]]],
			[[[-72.490, 44.510], [-72.489, 44.510], [-72.489, 44.511]]]
		]
	}`)

	polys, err := ParseGeometry(data)
	if err != nil {
		t.Fatalf("ParseGeometry: %v", err)
	}
	if len(polys) != 2 {
		t.Errorf("got %d polygons, want 2", len(polys))
	}
}

func TestParseGeometryErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unsupported type", `{"type": "Point", "coordinates": [-72.5, 44.5]}`},
		{"not json", `{{{`},
		{"no rings", `{"type": "Polygon", "coordinates": []}`},
		{"short ring", `{"type": "Polygon", "coordinates": [[[-72.5, 44.5], [-72.4, 44.5]]]}`},
		{"bad position", `{"type": "Polygon", "coordinates": [[[-72.5], [-72.4, 44.5], [-72.4, 44.6]]]}`},
	}

	for _, tt := range tests {
		if _, err := ParseGeometry([]byte(tt.data)); err == nil {
			t.Errorf("%s: expected error, got none", tt.name)
		}
	}
}
