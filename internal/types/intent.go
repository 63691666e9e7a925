package types

// IntentType tags a StructuredIntent. The set is closed: the ranking
// pipeline switches exhaustively over it instead of probing optional fields.
type IntentType string

const (
	IntentLocationBased IntentType = "location_based"
	IntentCategory      IntentType = "category"
	IntentSpecific      IntentType = "specific"
	IntentAlternatives  IntentType = "alternatives"
	IntentSurprise      IntentType = "surprise"
	IntentGeneral       IntentType = "general"
)

type SortKey string

const (
	SortByRating      SortKey = "rating"
	SortByDistance    SortKey = "distance"
	SortByRecent      SortKey = "recent"
	SortByReviewCount SortKey = "review_count"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// StructuredIntent is the machine-produced classification of a user query.
// It is produced by an external classifier and is immutable input to the
// ranking pipeline. For IntentAlternatives, ReferencedPlace and Reason carry
// which place cannot be visited and why.
type StructuredIntent struct {
	Type            IntentType    `json:"type"`
	Category        PlaceCategory `json:"category,omitempty"`
	Keywords        []string      `json:"keywords,omitempty"`
	CuisineOrDish   string        `json:"cuisine_or_dish,omitempty"`
	Limit           *int          `json:"limit,omitempty"`
	SortBy          SortKey       `json:"sort_by,omitempty"`
	SortOrder       SortOrder     `json:"sort_order,omitempty"`
	WantsNearby     bool          `json:"wants_nearby,omitempty"`
	ReferencedPlace string        `json:"referenced_place,omitempty"`
	Reason          string        `json:"reason,omitempty"`
}
