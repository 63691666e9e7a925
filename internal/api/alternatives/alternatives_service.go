package alternatives

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/internal/api/place"
	"github.com/FACorreiaa/go-trip-companion/internal/api/placesearch"
	"github.com/FACorreiaa/go-trip-companion/internal/geo"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

const (
	// MaxAlternatives is the total number of substitutes offered.
	MaxAlternatives = 3
	// ExternalSearchRadiusMeters bounds the new-discovery top-up search.
	ExternalSearchRadiusMeters = 1500
)

var _ Service = (*ServiceImpl)(nil)

// Service finds substitute places when a preferred one is unavailable.
type Service interface {
	FindAlternatives(ctx context.Context, tripID uuid.UUID, req types.FindAlternativesRequest) (*types.AlternativesResponse, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	placeRepo   place.Repository
	placeSearch placesearch.Client
}

func NewServiceImpl(placeRepo place.Repository, placeSearch placesearch.Client, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		placeRepo:   placeRepo,
		placeSearch: placeSearch,
	}
}

// FindAlternatives suggests up to three substitutes for the referenced
// place: first from the user's own saved places (same category), topped up
// with new discoveries from the external search when fewer than three are
// saved and a search origin is known. External failures degrade to
// saved-only results; an unresolvable name returns Found=false so the
// caller can ask for clarification.
func (s *ServiceImpl) FindAlternatives(ctx context.Context, tripID uuid.UUID, req types.FindAlternativesRequest) (*types.AlternativesResponse, error) {
	ctx, span := otel.Tracer("AlternativesService").Start(ctx, "FindAlternatives", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("alternatives.referenced", req.ReferencedName),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "FindAlternatives"), slog.String("tripID", tripID.String()))

	// Visited places stay in the set: a visited place is still a valid
	// reference ("Ichiran was great but it's closed today").
	saved, err := s.placeRepo.GetByTrip(ctx, tripID, false)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load trip places", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "place load failed")
		return nil, fmt.Errorf("loading places for trip %s: %w", tripID, err)
	}

	referenced := resolveByName(saved, req.ReferencedName)
	if referenced == nil {
		l.DebugContext(ctx, "Referenced place not found", slog.String("name", req.ReferencedName))
		span.SetStatus(codes.Ok, "referenced place not found")
		return &types.AlternativesResponse{
			Found:          false,
			FromSaved:      []types.SavedPlace{},
			NewDiscoveries: []types.PlaceSearchResult{},
			Message:        fmt.Sprintf("I couldn't find %q among your saved places.", req.ReferencedName),
		}, nil
	}

	originLat, originLng, hasOrigin := searchOrigin(req, referenced)

	var candidates []types.SavedPlace
	for _, p := range saved {
		if p.ID == referenced.ID || p.Category != referenced.Category {
			continue
		}
		if hasOrigin && p.HasCoordinates() {
			d := geo.Distance(originLat, originLng, *p.Latitude, *p.Longitude)
			p.Distance = &d
		}
		candidates = append(candidates, p)
	}
	if hasOrigin {
		sort.SliceStable(candidates, func(i, j int) bool {
			return distanceOrMax(candidates[i]) < distanceOrMax(candidates[j])
		})
	}
	if len(candidates) > MaxAlternatives {
		candidates = candidates[:MaxAlternatives]
	}
	if candidates == nil {
		candidates = []types.SavedPlace{}
	}

	discoveries := []types.PlaceSearchResult{}
	if len(candidates) < MaxAlternatives && hasOrigin {
		discoveries = s.searchDiscoveries(ctx, referenced, saved, originLat, originLng, MaxAlternatives-len(candidates))
	}

	resp := &types.AlternativesResponse{
		Found:           true,
		ReferencedPlace: referenced,
		Reason:          req.Reason,
		FromSaved:       candidates,
		NewDiscoveries:  discoveries,
	}
	if len(candidates) == 0 && len(discoveries) == 0 {
		resp.Message = fmt.Sprintf("I couldn't find alternatives to %s nearby. Try a manual search for %s spots.",
			referenced.Name, referenced.Category)
	}

	span.SetAttributes(
		attribute.Int("alternatives.saved", len(candidates)),
		attribute.Int("alternatives.discovered", len(discoveries)),
	)
	span.SetStatus(codes.Ok, "Alternatives found")
	return resp, nil
}

// searchDiscoveries tops up with currently-open venues near the origin,
// skipping anything that name-matches an already-saved place. Failures are
// swallowed: the saved-only result still stands.
func (s *ServiceImpl) searchDiscoveries(ctx context.Context, referenced *types.SavedPlace, saved []types.SavedPlace, lat, lng float64, want int) []types.PlaceSearchResult {
	results, err := s.placeSearch.SearchNearby(ctx, placesearch.SearchParams{
		Latitude:     lat,
		Longitude:    lng,
		RadiusMeters: ExternalSearchRadiusMeters,
		Keyword:      referenced.CuisineType,
		Category:     referenced.Category,
		OpenNow:      true,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "External place search failed, returning saved-only alternatives",
			slog.Any("error", err))
		return []types.PlaceSearchResult{}
	}

	picked := []types.PlaceSearchResult{}
	for _, r := range results {
		if nameMatchesAny(r.Name, saved) {
			continue
		}
		d := geo.Distance(lat, lng, r.Latitude, r.Longitude)
		r.Distance = &d
		picked = append(picked, r)
		if len(picked) >= want {
			break
		}
	}
	return picked
}

// resolveByName does a case-insensitive substring match in either direction
// against saved place names.
func resolveByName(saved []types.SavedPlace, name string) *types.SavedPlace {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	for i := range saved {
		candidate := strings.ToLower(saved[i].Name)
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return &saved[i]
		}
	}
	return nil
}

// nameMatchesAny reports whether an external result duplicates a saved
// place, matching substrings in either direction.
func nameMatchesAny(name string, saved []types.SavedPlace) bool {
	needle := strings.ToLower(name)
	for _, p := range saved {
		existing := strings.ToLower(p.Name)
		if strings.Contains(existing, needle) || strings.Contains(needle, existing) {
			return true
		}
	}
	return false
}

// searchOrigin prefers the user's live location and falls back to the
// referenced place's own coordinates.
func searchOrigin(req types.FindAlternativesRequest, referenced *types.SavedPlace) (float64, float64, bool) {
	if req.Latitude != nil && req.Longitude != nil {
		return *req.Latitude, *req.Longitude, true
	}
	if referenced.HasCoordinates() {
		return *referenced.Latitude, *referenced.Longitude, true
	}
	return 0, 0, false
}

func distanceOrMax(p types.SavedPlace) float64 {
	if p.Distance == nil {
		return 1 << 30
	}
	return *p.Distance
}
