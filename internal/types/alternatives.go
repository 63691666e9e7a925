package types

// PlaceSearchResult is one venue returned by the external place search.
type PlaceSearchResult struct {
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Rating      *float64 `json:"rating,omitempty"`
	RatingCount *int     `json:"rating_count,omitempty"`
	OpenNow     bool     `json:"open_now"`
	Distance    *float64 `json:"distance,omitempty"`
}

// AlternativesResponse distinguishes substitutes drawn from the user's own
// saved places from new discoveries found nearby. Found=false means the
// referenced place could not be resolved and the caller should ask for
// clarification; it is not an error.
type AlternativesResponse struct {
	Found           bool                `json:"found"`
	ReferencedPlace *SavedPlace         `json:"referenced_place,omitempty"`
	Reason          string              `json:"reason,omitempty"`
	FromSaved       []SavedPlace        `json:"from_saved"`
	NewDiscoveries  []PlaceSearchResult `json:"new_discoveries"`
	Message         string              `json:"message,omitempty"`
}

type FindAlternativesRequest struct {
	ReferencedName string   `json:"referenced_name"`
	Reason         string   `json:"reason,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}

type RankRequest struct {
	Intent    StructuredIntent `json:"intent"`
	Latitude  *float64         `json:"latitude,omitempty"`
	Longitude *float64         `json:"longitude,omitempty"`
}
