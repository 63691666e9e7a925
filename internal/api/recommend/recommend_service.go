package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/internal/api/place"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service turns structured intents into ranked place results.
type Service interface {
	RankPlaces(ctx context.Context, userID, tripID uuid.UUID, intent types.StructuredIntent, userLat, userLng *float64) ([]types.SavedPlace, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	placeRepo place.Repository
}

func NewServiceImpl(placeRepo place.Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		placeRepo: placeRepo,
	}
}

// RankPlaces loads the trip's saved places and runs the ranking pipeline.
// "What should I do" intents exclude already-visited places; the
// alternatives intent keeps them, since a visited place is still a valid
// exclusion key for the alternative finder.
func (s *ServiceImpl) RankPlaces(ctx context.Context, userID, tripID uuid.UUID, intent types.StructuredIntent, userLat, userLng *float64) ([]types.SavedPlace, error) {
	ctx, span := otel.Tracer("RecommendService").Start(ctx, "RankPlaces", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("intent.type", string(intent.Type)),
	))
	defer span.End()

	excludeVisited := intent.Type != types.IntentAlternatives
	candidates, err := s.placeRepo.GetByTrip(ctx, tripID, excludeVisited)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load trip places for ranking", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "place load failed")
		return nil, fmt.Errorf("loading places for trip %s: %w", tripID, err)
	}

	// The pipeline itself is deterministic; surprise intents get their
	// shuffle here, before it runs.
	if intent.Type == types.IntentSurprise {
		rand.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	}

	ranked := Rank(candidates, intent, userLat, userLng)

	span.SetAttributes(
		attribute.Int("rank.candidates", len(candidates)),
		attribute.Int("rank.results", len(ranked)),
	)
	span.SetStatus(codes.Ok, "Places ranked")
	return ranked, nil
}
