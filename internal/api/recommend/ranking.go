package recommend

import (
	"math"
	"sort"
	"strings"

	"github.com/FACorreiaa/go-trip-companion/internal/geo"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

// DefaultLimit is applied when the intent carries no explicit result limit.
const DefaultLimit = 5

// Rank filters and orders a candidate set against a structured intent.
// Each narrowing stage is skipped if it would eliminate every remaining
// candidate: a too-strict filter must never turn a non-empty input into an
// empty result. Deterministic for identical inputs; the "surprise" intent is
// the caller's job to pre-shuffle.
func Rank(candidates []types.SavedPlace, intent types.StructuredIntent, userLat, userLng *float64) []types.SavedPlace {
	remaining := make([]types.SavedPlace, len(candidates))
	copy(remaining, candidates)

	remaining = applyIfNonEmpty(remaining, func(p types.SavedPlace) bool {
		return intent.Category == "" || strings.EqualFold(string(p.Category), string(intent.Category))
	})

	cuisine := strings.ToLower(strings.TrimSpace(intent.CuisineOrDish))
	if cuisine != "" {
		remaining = applyIfNonEmpty(remaining, func(p types.SavedPlace) bool {
			return strings.Contains(searchBlob(p), cuisine)
		})
	}

	// Free keywords, minus the one already consumed by the cuisine filter.
	var keywords []string
	for _, kw := range intent.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && kw != cuisine {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) > 0 {
		remaining = applyIfNonEmpty(remaining, func(p types.SavedPlace) bool {
			blob := searchBlob(p)
			for _, kw := range keywords {
				if strings.Contains(blob, kw) {
					return true
				}
			}
			return false
		})
	}

	if userLat != nil && userLng != nil {
		for i := range remaining {
			if remaining[i].HasCoordinates() {
				d := geo.Distance(*userLat, *userLng, *remaining[i].Latitude, *remaining[i].Longitude)
				remaining[i].Distance = &d
			}
		}
	}

	sortPlaces(remaining, intent, userLat != nil && userLng != nil)

	limit := DefaultLimit
	if intent.Limit != nil && *intent.Limit > 0 {
		limit = *intent.Limit
	}
	if limit > len(remaining) {
		limit = len(remaining)
	}
	return remaining[:limit]
}

// applyIfNonEmpty keeps places passing the predicate, unless that would
// leave nothing, in which case the stage is skipped entirely.
func applyIfNonEmpty(places []types.SavedPlace, keep func(types.SavedPlace) bool) []types.SavedPlace {
	filtered := places[:0:0]
	for _, p := range places {
		if keep(p) {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return places
	}
	return filtered
}

// searchBlob is the synthetic text the keyword filters match against.
func searchBlob(p types.SavedPlace) string {
	parts := []string{p.Name, p.Description, p.CuisineType}
	parts = append(parts, p.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

func sortPlaces(places []types.SavedPlace, intent types.StructuredIntent, hasLocation bool) {
	key := intent.SortBy
	if key == "" {
		// No explicit sort: fall back to closest-first when the intent asks
		// for nearby things and we know where the user is.
		if intent.WantsNearby && hasLocation {
			key = types.SortByDistance
		} else {
			return
		}
	}

	asc := intent.SortOrder == types.SortAsc
	switch key {
	case types.SortByRating:
		sort.SliceStable(places, func(i, j int) bool {
			a, b := ratingOrZero(places[i]), ratingOrZero(places[j])
			if asc {
				return a < b
			}
			return a > b
		})
	case types.SortByDistance:
		sort.SliceStable(places, func(i, j int) bool {
			a, b := distanceOrInf(places[i]), distanceOrInf(places[j])
			if intent.SortOrder == types.SortDesc {
				return a > b
			}
			return a < b
		})
	case types.SortByRecent:
		sort.SliceStable(places, func(i, j int) bool {
			if asc {
				return places[i].CreatedAt.Before(places[j].CreatedAt)
			}
			return places[i].CreatedAt.After(places[j].CreatedAt)
		})
	case types.SortByReviewCount:
		sort.SliceStable(places, func(i, j int) bool {
			a, b := reviewsOrZero(places[i]), reviewsOrZero(places[j])
			if asc {
				return a < b
			}
			return a > b
		})
	}
}

func ratingOrZero(p types.SavedPlace) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// distanceOrInf sorts unlocated places last without dropping them.
func distanceOrInf(p types.SavedPlace) float64 {
	if p.Distance == nil {
		return math.Inf(1)
	}
	return *p.Distance
}

func reviewsOrZero(p types.SavedPlace) int {
	if p.RatingCount == nil {
		return 0
	}
	return *p.RatingCount
}
