package types

import (
	"time"

	"github.com/google/uuid"
)

// PlaceCategory classifies a saved place. The values mirror the extraction
// pipeline's output and are stored as-is.
type PlaceCategory string

const (
	CategoryFood          PlaceCategory = "food"
	CategoryPlace         PlaceCategory = "place"
	CategoryShopping      PlaceCategory = "shopping"
	CategoryActivity      PlaceCategory = "activity"
	CategoryAccommodation PlaceCategory = "accommodation"
	CategoryTip           PlaceCategory = "tip"
)

type PlaceStatus string

const (
	StatusSaved   PlaceStatus = "saved"
	StatusVisited PlaceStatus = "visited"
)

// SavedPlace is a point of interest a user stored against a trip.
// Coordinates are optional until the place has been geocoded; Rating and
// RatingCount come from enrichment and may be absent.
type SavedPlace struct {
	ID               uuid.UUID      `json:"id"`
	TripID           uuid.UUID      `json:"trip_id"`
	UserID           uuid.UUID      `json:"user_id"`
	Name             string         `json:"name"`
	Category         PlaceCategory  `json:"category"`
	Description      string         `json:"description,omitempty"`
	CuisineType      string         `json:"cuisine_type,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
	Latitude         *float64       `json:"latitude,omitempty"`
	Longitude        *float64       `json:"longitude,omitempty"`
	FormattedAddress string         `json:"formatted_address,omitempty"`
	ConfidenceScore  *int           `json:"confidence_score,omitempty"`
	ConfidenceTier   ConfidenceTier `json:"confidence_tier,omitempty"`
	Rating           *float64       `json:"rating,omitempty"`
	RatingCount      *int           `json:"rating_count,omitempty"`
	MustVisit        bool           `json:"must_visit"`
	Status           PlaceStatus    `json:"status"`
	SourceTitle      string         `json:"source_title,omitempty"`
	SourceURL        string         `json:"source_url,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`

	// Distance is filled in by the ranking pipeline when the caller's
	// coordinates are known. Nil means "unknown", not "zero meters".
	Distance *float64 `json:"distance,omitempty"`
}

// HasCoordinates reports whether the place was resolved to a point.
func (p *SavedPlace) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type CreatePlaceRequest struct {
	TripID      uuid.UUID     `json:"trip_id"`
	Name        string        `json:"name"`
	Category    PlaceCategory `json:"category"`
	Description string        `json:"description,omitempty"`
	CuisineType string        `json:"cuisine_type,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Address     string        `json:"address,omitempty"`
	SourceTitle string        `json:"source_title,omitempty"`
	SourceURL   string        `json:"source_url,omitempty"`
	MustVisit   bool          `json:"must_visit,omitempty"`
}

type UpdatePlaceRequest struct {
	Name        *string        `json:"name,omitempty"`
	Category    *PlaceCategory `json:"category,omitempty"`
	Description *string        `json:"description,omitempty"`
	CuisineType *string        `json:"cuisine_type,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	MustVisit   *bool          `json:"must_visit,omitempty"`
	Address     *string        `json:"address,omitempty"` // triggers a re-geocode
}
