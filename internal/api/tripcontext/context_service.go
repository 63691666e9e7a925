package tripcontext

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/internal/api/place"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

const (
	// NearbyRadiusMeters bounds the "places near you / near your hotel"
	// list in the snapshot.
	NearbyRadiusMeters = 2000
	topRatedCount      = 3
)

var _ Service = (*ServiceImpl)(nil)

// Service assembles the read-only trip snapshot consumed by conversational
// responses and scheduled briefings.
type Service interface {
	BuildContext(ctx context.Context, userID, tripID uuid.UUID, lat, lng *float64) (*types.ContextSnapshot, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	tripRepo  TripRepository
	placeRepo place.Repository

	// now is swapped out in tests; the snapshot is entirely a function of
	// the clock and the stores.
	now func() time.Time
}

func NewServiceImpl(tripRepo TripRepository, placeRepo place.Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		tripRepo:  tripRepo,
		placeRepo: placeRepo,
		now:       time.Now,
	}
}

// BuildContext recomputes the snapshot from scratch on every call. Nothing
// here is cached: location and time are volatile and the cost is a handful
// of indexed reads.
func (s *ServiceImpl) BuildContext(ctx context.Context, userID, tripID uuid.UUID, lat, lng *float64) (*types.ContextSnapshot, error) {
	ctx, span := otel.Tracer("ContextService").Start(ctx, "BuildContext", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "BuildContext"), slog.String("tripID", tripID.String()))

	trip, err := s.tripRepo.GetTrip(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	localNow := s.now().In(tripLocation(trip.Timezone))
	snapshot := &types.ContextSnapshot{
		TimeOfDay: TimeOfDayBucket(localNow.Hour()),
	}

	segments, err := s.tripRepo.GetSegments(ctx, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load trip segments", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "segment load failed")
		return nil, fmt.Errorf("loading segments for trip %s: %w", tripID, err)
	}
	snapshot.CurrentSegment, snapshot.NextSegment = segmentSnapshots(segments, localNow)

	places, err := s.placeRepo.GetByTrip(ctx, tripID, false)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load trip places", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "place load failed")
		return nil, fmt.Errorf("loading places for trip %s: %w", tripID, err)
	}

	var unvisited []types.SavedPlace
	for _, p := range places {
		if p.Status == types.StatusVisited {
			snapshot.VisitedCount++
		} else {
			snapshot.UnvisitedCount++
			unvisited = append(unvisited, p)
		}
	}

	snapshot.TopRated = topRated(unvisited, topRatedCount)
	snapshot.MustVisit = mustVisit(unvisited)
	snapshot.NearbyPlaces = s.nearby(ctx, userID, tripID, snapshot.CurrentSegment, lat, lng)

	span.SetAttributes(
		attribute.Int("context.visited", snapshot.VisitedCount),
		attribute.Int("context.unvisited", snapshot.UnvisitedCount),
		attribute.String("context.time_of_day", string(snapshot.TimeOfDay)),
	)
	span.SetStatus(codes.Ok, "Context built")
	return snapshot, nil
}

// nearby prefers the user's live location, falling back to the current
// segment's accommodation. A store failure degrades to an empty list: the
// rest of the snapshot is still useful.
func (s *ServiceImpl) nearby(ctx context.Context, userID, tripID uuid.UUID, current *types.TripSegmentSnapshot, lat, lng *float64) []types.SavedPlace {
	var originLat, originLng float64
	switch {
	case lat != nil && lng != nil:
		originLat, originLng = *lat, *lng
	case current != nil && current.Segment.AccommodationLatitude != nil && current.Segment.AccommodationLongitude != nil:
		originLat = *current.Segment.AccommodationLatitude
		originLng = *current.Segment.AccommodationLongitude
	default:
		return nil
	}

	nearby, err := s.placeRepo.FindNear(ctx, userID, &tripID, originLat, originLng, NearbyRadiusMeters)
	if err != nil {
		s.logger.WarnContext(ctx, "Nearby lookup failed, omitting from snapshot", slog.Any("error", err))
		return nil
	}
	return nearby
}

// TimeOfDayBucket maps a local hour onto the coarse buckets briefing copy
// is written in.
func TimeOfDayBucket(hour int) types.TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return types.TimeMorning
	case hour >= 12 && hour < 17:
		return types.TimeAfternoon
	case hour >= 17 && hour < 21:
		return types.TimeEvening
	default:
		return types.TimeNight
	}
}

// segmentSnapshots finds the segment covering "today" and the first one
// after it, decorated with day arithmetic. Dates compare at day
// granularity in the trip's timezone.
func segmentSnapshots(segments []types.TripSegment, localNow time.Time) (current, next *types.TripSegmentSnapshot) {
	today := dateOnly(localNow)
	for i := range segments {
		seg := segments[i]
		start := dateOnly(seg.StartDate)
		end := dateOnly(seg.EndDate)

		if !today.Before(start) && !today.After(end) && current == nil {
			totalDays := daysBetween(start, end) + 1
			dayNumber := daysBetween(start, today) + 1
			current = &types.TripSegmentSnapshot{
				Segment:       seg,
				DayNumber:     dayNumber,
				TotalDays:     totalDays,
				DaysRemaining: daysBetween(today, end),
				IsLastDay:     today.Equal(end),
			}
		} else if today.Before(start) && next == nil {
			next = &types.TripSegmentSnapshot{
				Segment:   seg,
				TotalDays: daysBetween(start, end) + 1,
				DaysUntil: daysBetween(today, start),
			}
		}
	}
	return current, next
}

func topRated(places []types.SavedPlace, n int) []types.SavedPlace {
	rated := make([]types.SavedPlace, 0, len(places))
	for _, p := range places {
		if p.Rating != nil {
			rated = append(rated, p)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool { return *rated[i].Rating > *rated[j].Rating })
	if len(rated) > n {
		rated = rated[:n]
	}
	return rated
}

func mustVisit(places []types.SavedPlace) []types.SavedPlace {
	var result []types.SavedPlace
	for _, p := range places {
		if p.MustVisit {
			result = append(result, p)
		}
	}
	return result
}

func tripLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
