// Package ingest normalizes scraper output into importable listings.
// Airbnb and VRBO scrapers disagree on field names and drift between runs,
// so every attribute is read through an ordered list of fallbacks.
package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/openvalley/strmatch-backend-go/internal/models"
)

// RawListing is one normalized scraper record, ready for upsert.
type RawListing struct {
	Platform   string
	ListingID  string
	ListingURL string
	Name       string

	Lat float64
	Lng float64

	Bedrooms         *int
	MaxGuests        *int
	PricePerNightUSD *int
	TotalReviews     int
	AverageRating    *float64
}

// ParseFile decodes a scraper output file. Accepts a bare JSON array or an
// object wrapping the listings under "results" or "items". Records that
// cannot be attributed to a platform, lack a stable id, or lack coordinates
// are dropped and counted in skipped.
func ParseFile(data []byte) (listings []RawListing, skipped int, err error) {
	items, err := decodeItems(data)
	if err != nil {
		return nil, 0, err
	}

	for _, item := range items {
		l, ok := ParseListing(item)
		if !ok {
			skipped++
			continue
		}
		listings = append(listings, l)
	}
	return listings, skipped, nil
}

func decodeItems(data []byte) ([]map[string]interface{}, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []map[string]interface{}
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode listing array: %w", err)
		}
		return items, nil
	}

	var wrapper map[string]interface{}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode listing file: %w", err)
	}
	for _, key := range []string{"results", "items"} {
		if raw, ok := wrapper[key].([]interface{}); ok {
			items := make([]map[string]interface{}, 0, len(raw))
			for _, r := range raw {
				if m, ok := r.(map[string]interface{}); ok {
					items = append(items, m)
				}
			}
			return items, nil
		}
	}
	// A single listing object.
	return []map[string]interface{}{wrapper}, nil
}

// ParseListing normalizes one scraper record. ok is false when the platform
// is unrecognized or the record is unusable.
func ParseListing(data map[string]interface{}) (RawListing, bool) {
	var l RawListing

	switch DetectPlatform(data) {
	case models.PlatformAirbnb:
		l = parseAirbnb(data)
	case models.PlatformVrbo:
		l = parseVrbo(data)
	default:
		return RawListing{}, false
	}

	if l.ListingID == "" || (l.Lat == 0 && l.Lng == 0) {
		return RawListing{}, false
	}
	return l, true
}

// DetectPlatform attributes a record to a scraper platform, first by URL,
// then by platform-specific field names.
func DetectPlatform(data map[string]interface{}) string {
	url := strings.ToLower(str(data, "url", "listing_url", "detailPageUrl"))
	if strings.Contains(url, "airbnb") {
		return models.PlatformAirbnb
	}
	if strings.Contains(url, "vrbo") || strings.Contains(url, "homeaway") {
		return models.PlatformVrbo
	}

	if _, ok := data["roomId"]; ok {
		return models.PlatformAirbnb
	}
	if _, ok := data["isSuperhost"]; ok {
		return models.PlatformAirbnb
	}
	if _, ok := data["propertyId"]; ok {
		return models.PlatformVrbo
	}
	if _, ok := data["sleeps"]; ok {
		return models.PlatformVrbo
	}
	return ""
}

func parseAirbnb(data map[string]interface{}) RawListing {
	loc, _ := data["location"].(map[string]interface{})
	pricing, _ := data["pricing"].(map[string]interface{})

	lat, latOK := num(data, "lat", "latitude")
	if !latOK && loc != nil {
		lat, _ = num(loc, "lat")
	}
	lng, lngOK := num(data, "lng", "longitude")
	if !lngOK && loc != nil {
		lng, _ = num(loc, "lng")
	}

	price := str(data, "price")
	if price == "" && pricing != nil {
		price = str(pricing, "rate")
	}

	return RawListing{
		Platform:         models.PlatformAirbnb,
		ListingID:        str(data, "id", "listing_id", "roomId"),
		ListingURL:       str(data, "url", "listing_url"),
		Name:             str(data, "name", "title"),
		Lat:              lat,
		Lng:              lng,
		Bedrooms:         intPtrOf(data, "bedrooms", "bedroomCount"),
		MaxGuests:        intPtrOf(data, "guests", "personCapacity", "maxGuests"),
		PricePerNightUSD: parsePrice(price),
		TotalReviews:     intOf(data, "reviews", "reviewsCount", "numberOfReviews"),
		AverageRating:    floatPtrOf(data, "rating", "starRating", "guestSatisfactionOverall"),
	}
}

func parseVrbo(data map[string]interface{}) RawListing {
	geo, _ := data["geoLocation"].(map[string]interface{})

	lat, latOK := num(data, "latitude")
	if !latOK && geo != nil {
		lat, _ = num(geo, "latitude")
	}
	lng, lngOK := num(data, "longitude")
	if !lngOK && geo != nil {
		lng, _ = num(geo, "longitude")
	}

	return RawListing{
		Platform:         models.PlatformVrbo,
		ListingID:        str(data, "propertyId", "id", "listingId"),
		ListingURL:       str(data, "url", "detailPageUrl"),
		Name:             str(data, "headline", "name", "title"),
		Lat:              lat,
		Lng:              lng,
		Bedrooms:         intPtrOf(data, "bedrooms"),
		MaxGuests:        intPtrOf(data, "sleeps", "maxOccupancy"),
		PricePerNightUSD: parsePrice(str(data, "pricePerNight", "averagePrice")),
		TotalReviews:     intOf(data, "reviewCount", "numberOfReviews"),
		AverageRating:    floatPtrOf(data, "averageRating", "rating"),
	}
}

// parsePrice cleans price strings like "$1,234" down to whole dollars.
func parsePrice(raw string) *int {
	if raw == "" {
		return nil
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return nil
	}
	dollars := int(math.Round(v))
	return &dollars
}

// str returns the first non-empty value among keys, stringifying numbers
// (scrapers flip-flop between numeric and string ids).
func str(data map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := data[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v == math.Trunc(v) {
				return strconv.FormatInt(int64(v), 10)
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func num(data map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := data[k].(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func intOf(data map[string]interface{}, keys ...string) int {
	if v, ok := num(data, keys...); ok {
		return int(v)
	}
	return 0
}

func intPtrOf(data map[string]interface{}, keys ...string) *int {
	if v, ok := num(data, keys...); ok {
		i := int(v)
		return &i
	}
	return nil
}

func floatPtrOf(data map[string]interface{}, keys ...string) *float64 {
	if v, ok := num(data, keys...); ok {
		return &v
	}
	return nil
}
