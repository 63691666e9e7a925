package geocode

import (
	"math"
	"strings"

	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

// Confidence scoring weights and thresholds. Scores are persisted onto
// places and compared over time, so these are a fixed contract: changing
// them silently would make historical tiers incomparable.
const (
	SpecificityEstablishment = 40
	SpecificityStreet        = 25
	SpecificityLocality      = 10

	NameMatchMax = 30

	AddressComponentsFull    = 20
	AddressComponentsPartial = 10
	addressComponentsFullMin = 5
	addressComponentsPartMin = 3

	UniquenessSingle = 10
	UniquenessFew    = 5
	uniquenessFewMax = 3

	TierHighMin   = 75
	TierMediumMin = 50
)

// establishmentTypes are geocoder result types that pin the result to a
// concrete venue rather than an area.
var establishmentTypes = map[string]bool{
	"establishment":     true,
	"point_of_interest": true,
	"food":              true,
	"restaurant":        true,
	"store":             true,
	"lodging":           true,
	"tourist_attraction": true,
}

var streetTypes = map[string]bool{
	"street_address": true,
	"route":          true,
	"premise":        true,
	"intersection":   true,
}

var localityTypes = map[string]bool{
	"locality":            true,
	"sublocality":         true,
	"neighborhood":        true,
	"postal_code":         true,
	"administrative_area": true,
}

// Score computes the 0-100 confidence of a geocode candidate for the search
// string that produced it, given how many sibling candidates the geocoder
// returned for the same query. Additive across four independent capped
// factors; a heuristic, not a probability.
func Score(candidate types.GeocodeCandidate, searchString string, siblingCount int) types.GeocodeConfidence {
	score := specificityScore(candidate.ResultTypes) +
		nameMatchScore(searchString, candidate.FormattedAddress) +
		addressScore(candidate.AddressComponents) +
		uniquenessScore(siblingCount)

	return types.GeocodeConfidence{Score: score, Tier: tierFor(score)}
}

func tierFor(score int) types.ConfidenceTier {
	switch {
	case score >= TierHighMin:
		return types.TierHigh
	case score >= TierMediumMin:
		return types.TierMedium
	default:
		return types.TierLow
	}
}

func specificityScore(resultTypes []string) int {
	best := 0
	for _, rt := range resultTypes {
		switch {
		case establishmentTypes[rt]:
			return SpecificityEstablishment
		case streetTypes[rt] && best < SpecificityStreet:
			best = SpecificityStreet
		case localityTypes[rt] && best < SpecificityLocality:
			best = SpecificityLocality
		}
	}
	return best
}

// nameMatchScore tokenizes the first comma-delimited segment of the search
// string and counts tokens longer than two characters that appear as
// substrings of the formatted address.
func nameMatchScore(searchString, formattedAddress string) int {
	name := searchString
	if idx := strings.Index(name, ","); idx >= 0 {
		name = name[:idx]
	}
	address := strings.ToLower(formattedAddress)

	var total, matched int
	for _, token := range strings.Fields(strings.ToLower(name)) {
		if len(token) <= 2 {
			continue
		}
		total++
		if strings.Contains(address, token) {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(NameMatchMax * float64(matched) / float64(total)))
}

func addressScore(components int) int {
	switch {
	case components >= addressComponentsFullMin:
		return AddressComponentsFull
	case components >= addressComponentsPartMin:
		return AddressComponentsPartial
	default:
		return 0
	}
}

func uniquenessScore(siblingCount int) int {
	switch {
	case siblingCount == 1:
		return UniquenessSingle
	case siblingCount <= uniquenessFewMax:
		return UniquenessFew
	default:
		return 0
	}
}
