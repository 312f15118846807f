package models

import "encoding/json"

// GeoJSONGeometry is a raw GeoJSON geometry object. Coordinates are kept
// unparsed; the spatial package decodes polygon rings, and API responses
// pass them through untouched.
type GeoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// GeoJSONFeature pairs a geometry with display properties.
type GeoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   *GeoJSONGeometry       `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// GeoJSONFeatureCollection is the payload of the map endpoints and the
// format of imported parcel files.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// NewFeatureCollection returns an empty collection ready to append to.
func NewFeatureCollection() *GeoJSONFeatureCollection {
	return &GeoJSONFeatureCollection{Type: "FeatureCollection", Features: []GeoJSONFeature{}}
}
