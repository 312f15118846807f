package match

import (
	"sort"

	"github.com/openvalley/strmatch-backend-go/internal/models"
)

// Candidates scores every dwelling against the listing and returns them
// ranked best-first. Equal scores fall back to dwelling creation order
// (lower ID first) so the ranking is stable across calls. strNames maps
// listing IDs to names for annotating contended dwellings; it may be nil.
//
// The dwellings are expected to be the ones on the listing's matched
// parcel; an unmatched listing has no candidates.
func Candidates(listing *models.STRListing, dwellings []models.Dwelling, strNames map[int64]string, w Weights) []models.CandidateDwelling {
	candidates := make([]models.CandidateDwelling, 0, len(dwellings))

	for i := range dwellings {
		d := &dwellings[i]
		c := models.CandidateDwelling{
			ID:                d.ID,
			UnitNumber:        d.UnitNumber,
			UseType:           d.UseType,
			Bedrooms:          d.Bedrooms,
			TaxClassification: d.TaxClassification,
			HomesteadFiled:    d.HomesteadFiled,
			MatchScore:        Score(listing, d, w),
		}
		if Contended(listing, d) {
			c.ExistingSTRID = d.STRListingID
			if strNames != nil {
				c.ExistingSTRName = strNames[*d.STRListingID]
			}
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].MatchScore != candidates[j].MatchScore {
			return candidates[i].MatchScore > candidates[j].MatchScore
		}
		return candidates[i].ID < candidates[j].ID
	})

	return candidates
}
