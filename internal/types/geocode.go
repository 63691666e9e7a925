package types

// ConfidenceTier is a coarse, user-visible reliability label for a geocoded
// address. Tiers are persisted, so the thresholds behind them are a fixed
// contract (see the geocode package constants).
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// GeocodeCandidate is one result returned by the external geocoder for a
// search string. Transient: only the derived coordinates, formatted address
// and confidence make it onto a SavedPlace.
type GeocodeCandidate struct {
	FormattedAddress string   `json:"formatted_address"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	ResultTypes      []string `json:"result_types"`
	AddressComponents int     `json:"address_components"`
}

// GeocodeConfidence is the scored quality of one candidate.
type GeocodeConfidence struct {
	Score int            `json:"score"`
	Tier  ConfidenceTier `json:"tier"`
}

// GeocodeResult is what the geocode service hands back to callers: the best
// candidate plus its confidence, or Found=false when the geocoder had
// nothing (or was unavailable and the caller should degrade).
type GeocodeResult struct {
	Found            bool              `json:"found"`
	Latitude         float64           `json:"latitude,omitempty"`
	Longitude        float64           `json:"longitude,omitempty"`
	FormattedAddress string            `json:"formatted_address,omitempty"`
	Confidence       GeocodeConfidence `json:"confidence"`
}
