package match

import (
	"math"

	"github.com/openvalley/strmatch-backend-go/internal/models"
	"github.com/openvalley/strmatch-backend-go/internal/stats"
)

// useTypeScores ranks how consistent each dwelling use type is with
// operating a short-term rental. Values are component scores, not
// probabilities.
var useTypeScores = map[string]float64{
	models.UseShortTermRental:   1.0,
	models.UseSecondHome:        0.9,
	models.UseVacant:            0.75,
	models.UseSeasonal:          0.6,
	models.UseUnknown:           0.5,
	models.UseCommercial:        0.4,
	models.UseFullTimeResidence: 0.25,
}

// Score rates how well a dwelling fits a listing, in [0, 1]. The result is
// a weighted mean of the bedroom, use-type, and homestead components,
// halved (by default) when the dwelling is already claimed by another
// confirmed listing. Deterministic for identical inputs.
func Score(listing *models.STRListing, dwelling *models.Dwelling, w Weights) float64 {
	components := []float64{
		bedroomScore(listing.Bedrooms, dwelling.Bedrooms),
		useTypeScore(dwelling.UseType),
		homesteadScore(dwelling.HomesteadFiled),
	}
	weights := []float64{w.Bedrooms, w.UseType, w.Homestead}

	score := stats.WeightedMean(components, weights)
	if Contended(listing, dwelling) {
		score *= w.ContentionPenalty
	}
	return stats.Clamp01(score)
}

// bedroomScore compares advertised and recorded bedroom counts. Either
// side unknown scores a neutral 0.5; known counts decay by 0.25 per
// bedroom of difference.
func bedroomScore(listingBedrooms, dwellingBedrooms *int) float64 {
	if listingBedrooms == nil || dwellingBedrooms == nil {
		return 0.5
	}
	if *listingBedrooms == *dwellingBedrooms {
		return 1.0
	}

	diff := math.Abs(float64(*listingBedrooms - *dwellingBedrooms))
	return math.Max(0, 1.0-0.25*diff)
}

func useTypeScore(useType string) float64 {
	if s, ok := useTypeScores[useType]; ok {
		return s
	}
	return useTypeScores[models.UseUnknown]
}

// homesteadScore penalizes dwellings with a homestead declaration on file:
// a declared primary residence is rarely the unit behind a listing.
func homesteadScore(filed bool) float64 {
	if filed {
		return 0
	}
	return 1.0
}

// Contended reports whether the dwelling is already linked to a confirmed
// listing other than this one.
func Contended(listing *models.STRListing, dwelling *models.Dwelling) bool {
	return dwelling.STRListingID != nil && *dwelling.STRListingID != listing.ID
}
