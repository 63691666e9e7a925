package types

import (
	"time"

	"github.com/google/uuid"
)

type BriefingKind string

const (
	BriefingMorning           BriefingKind = "morning"
	BriefingEvening           BriefingKind = "evening"
	BriefingLastDay           BriefingKind = "last_day"
	BriefingSegmentTransition BriefingKind = "segment_transition"
)

// NotificationPreference holds a user's notification toggles and quiet-hours
// window. TripID is nil for the trip-agnostic default row; a trip-specific
// row overrides the default for that trip. Created lazily with defaults on
// first access.
type NotificationPreference struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	TripID            *uuid.UUID `json:"trip_id,omitempty"`
	ProximityEnabled  bool       `json:"proximity_enabled"`
	MorningEnabled    bool       `json:"morning_enabled"`
	EveningEnabled    bool       `json:"evening_enabled"`
	LastDayEnabled    bool       `json:"last_day_enabled"`
	TransitionEnabled bool       `json:"transition_enabled"`
	QuietStart        string     `json:"quiet_start"` // local "HH:MM"
	QuietEnd          string     `json:"quiet_end"`
	MaxDaily          int        `json:"max_daily"`
	Timezone          string     `json:"timezone"` // IANA name
	UpdatedAt         time.Time  `json:"updated_at"`
}

type UpdatePreferenceRequest struct {
	TripID            *uuid.UUID `json:"trip_id,omitempty"`
	ProximityEnabled  *bool      `json:"proximity_enabled,omitempty"`
	MorningEnabled    *bool      `json:"morning_enabled,omitempty"`
	EveningEnabled    *bool      `json:"evening_enabled,omitempty"`
	LastDayEnabled    *bool      `json:"last_day_enabled,omitempty"`
	TransitionEnabled *bool      `json:"transition_enabled,omitempty"`
	QuietStart        *string    `json:"quiet_start,omitempty"`
	QuietEnd          *string    `json:"quiet_end,omitempty"`
	MaxDaily          *int       `json:"max_daily,omitempty"`
	Timezone          *string    `json:"timezone,omitempty"`
}

// ProximityAlert is one row of the append-only alert log. It exists purely
// to enforce the cooldown invariant; rows are inserted and read within a
// rolling window, never updated.
type ProximityAlert struct {
	ID      uuid.UUID  `json:"id"`
	UserID  uuid.UUID  `json:"user_id"`
	TripID  *uuid.UUID `json:"trip_id,omitempty"`
	PlaceID uuid.UUID  `json:"place_id"`
	SentAt  time.Time  `json:"sent_at"`
}

// Notification is the payload handed to the external dispatcher.
// Fire-and-forget; the wire format beyond this JSON shape is not ours.
type Notification struct {
	UserID uuid.UUID         `json:"user_id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

type LocationUpdateRequest struct {
	TripID    *uuid.UUID `json:"trip_id,omitempty"` // nil switches to global mode
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
}

// LocationUpdateResult reports what a location update did. Suppression is a
// normal outcome, not an error; Reason says why nothing was sent.
type LocationUpdateResult struct {
	AlertSent bool       `json:"alert_sent"`
	PlaceID   *uuid.UUID `json:"place_id,omitempty"`
	PlaceName string     `json:"place_name,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}
