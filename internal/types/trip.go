package types

import (
	"time"

	"github.com/google/uuid"
)

type Trip struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Destination string    `json:"destination"`
	Timezone    string    `json:"timezone"` // IANA name, e.g. "Asia/Tokyo"
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// TripSegment is a contiguous date range of a trip spent in one city.
type TripSegment struct {
	ID                    uuid.UUID `json:"id"`
	TripID                uuid.UUID `json:"trip_id"`
	City                  string    `json:"city"`
	StartDate             time.Time `json:"start_date"`
	EndDate               time.Time `json:"end_date"`
	AccommodationName     string    `json:"accommodation_name,omitempty"`
	AccommodationLatitude *float64  `json:"accommodation_latitude,omitempty"`
	AccommodationLongitude *float64 `json:"accommodation_longitude,omitempty"`
}

// TripSegmentSnapshot is a segment decorated with day arithmetic relative to
// "today" in the trip's timezone. Derived, never stored.
type TripSegmentSnapshot struct {
	Segment       TripSegment `json:"segment"`
	DayNumber     int         `json:"day_number"` // 1-based within the segment
	TotalDays     int         `json:"total_days"`
	DaysRemaining int         `json:"days_remaining"`
	DaysUntil     int         `json:"days_until,omitempty"` // for upcoming segments
	IsLastDay     bool        `json:"is_last_day"`
}

// UserContext is the volatile per-request view of who is asking and from
// where. Rebuilt on every request; never cached.
type UserContext struct {
	UserID      uuid.UUID `json:"user_id"`
	TripID      uuid.UUID `json:"trip_id"`
	DisplayName string    `json:"display_name,omitempty"`
	TripName    string    `json:"trip_name,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Now         time.Time `json:"now"`
}

func (c *UserContext) HasLocation() bool {
	return c.Latitude != nil && c.Longitude != nil
}

type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
	TimeNight     TimeOfDay = "night"
)

// ContextSnapshot is the read-only aggregate consumed by chat responses and
// scheduled briefings. Recomputed on every request; staleness window is
// effectively zero.
type ContextSnapshot struct {
	TimeOfDay      TimeOfDay            `json:"time_of_day"`
	CurrentSegment *TripSegmentSnapshot `json:"current_segment,omitempty"`
	NextSegment    *TripSegmentSnapshot `json:"next_segment,omitempty"`
	VisitedCount   int                  `json:"visited_count"`
	UnvisitedCount int                  `json:"unvisited_count"`
	TopRated       []SavedPlace         `json:"top_rated,omitempty"`
	MustVisit      []SavedPlace         `json:"must_visit,omitempty"`
	NearbyPlaces   []SavedPlace         `json:"nearby_places,omitempty"`
}
