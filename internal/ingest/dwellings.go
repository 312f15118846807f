package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openvalley/strmatch-backend-go/internal/models"
)

// DwellingRecord is one row of the property-subsystem dwelling hand-off,
// keyed by parcel SPAN rather than database ID.
type DwellingRecord struct {
	Span              string  `json:"span"`
	UnitNumber        *string `json:"unit_number"`
	Bedrooms          *int    `json:"bedrooms"`
	UseType           string  `json:"use_type"`
	TaxClassification string  `json:"tax_classification"`
	HomesteadFiled    bool    `json:"homestead_filed"`
}

// ParseDwellings decodes a dwelling hand-off file: a JSON array, or an
// object wrapping it under "dwellings". Records without a SPAN are dropped
// and counted; an empty use type becomes unknown so scoring stays neutral.
func ParseDwellings(data []byte) ([]DwellingRecord, int, error) {
	raw := data
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		var wrapper struct {
			Dwellings json.RawMessage `json:"dwellings"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, 0, fmt.Errorf("decode dwelling file: %w", err)
		}
		if wrapper.Dwellings == nil {
			return nil, 0, fmt.Errorf("dwelling file has no dwellings array")
		}
		raw = wrapper.Dwellings
	}

	var records []DwellingRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, 0, fmt.Errorf("decode dwellings: %w", err)
	}

	var out []DwellingRecord
	skipped := 0
	for _, r := range records {
		if r.Span == "" {
			skipped++
			continue
		}
		if r.UseType == "" {
			r.UseType = models.UseUnknown
		}
		out = append(out, r)
	}
	return out, skipped, nil
}
