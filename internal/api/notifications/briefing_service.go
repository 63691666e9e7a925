package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-trip-companion/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-companion/internal/api/tripcontext"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

const (
	// Local hours at which the two daily briefings fire.
	MorningBriefingHour = 8
	EveningBriefingHour = 20

	// How many trips are processed concurrently per run.
	briefingConcurrency = 8
)

var _ BriefingService = (*BriefingServiceImpl)(nil)

// BriefingService sends the scheduled morning and evening briefings. It is
// driven by an hourly ticker; each run scans active trips and sends to the
// ones whose local clock matches the briefing hour.
type BriefingService interface {
	RunScheduledBriefings(ctx context.Context, targetHour int, kind types.BriefingKind) (sent, failed int)
}

type BriefingServiceImpl struct {
	logger     *slog.Logger
	tripRepo   tripcontext.TripRepository
	ctxService tripcontext.Service
	prefRepo   PreferenceRepository
	dispatcher Dispatcher
	metrics    *metrics.AppMetrics

	now func() time.Time
}

func NewBriefingServiceImpl(tripRepo tripcontext.TripRepository, ctxService tripcontext.Service,
	prefRepo PreferenceRepository, dispatcher Dispatcher, logger *slog.Logger) *BriefingServiceImpl {
	return &BriefingServiceImpl{
		logger:     logger,
		tripRepo:   tripRepo,
		ctxService: ctxService,
		prefRepo:   prefRepo,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

func (s *BriefingServiceImpl) WithMetrics(m *metrics.AppMetrics) *BriefingServiceImpl {
	s.metrics = m
	return s
}

// RunScheduledBriefings fans out over active trips and sends the given
// briefing to every user whose trip-local hour matches targetHour. One bad
// trip never blocks the rest: failures are logged, counted, and skipped.
func (s *BriefingServiceImpl) RunScheduledBriefings(ctx context.Context, targetHour int, kind types.BriefingKind) (int, int) {
	ctx, span := otel.Tracer("BriefingService").Start(ctx, "RunScheduledBriefings")
	defer span.End()
	span.SetAttributes(
		attribute.Int("briefing.target_hour", targetHour),
		attribute.String("briefing.kind", string(kind)),
	)

	l := s.logger.With(slog.String("method", "RunScheduledBriefings"), slog.String("kind", string(kind)))

	trips, err := s.tripRepo.ListActiveTrips(ctx, s.now())
	if err != nil {
		l.ErrorContext(ctx, "Failed to list active trips", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trip listing failed")
		return 0, 0
	}

	var sent, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(briefingConcurrency)

	for _, trip := range trips {
		trip := trip
		g.Go(func() error {
			ok, err := s.briefTrip(ctx, trip, targetHour, kind)
			if err != nil {
				failed.Add(1)
				l.ErrorContext(ctx, "Briefing failed for trip",
					slog.String("tripID", trip.ID.String()),
					slog.String("userID", trip.UserID.String()),
					slog.Any("error", err))
				if s.metrics != nil {
					s.metrics.BriefingsFailedTotal.Add(ctx, 1)
				}
				// swallow the error so the group keeps going
				return nil
			}
			if ok {
				sent.Add(1)
				if s.metrics != nil {
					s.metrics.BriefingsSentTotal.Add(ctx, 1)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	l.InfoContext(ctx, "Briefing run complete",
		slog.Int("trips", len(trips)),
		slog.Int64("sent", sent.Load()),
		slog.Int64("failed", failed.Load()))
	span.SetStatus(codes.Ok, "Briefing run complete")
	return int(sent.Load()), int(failed.Load())
}

// briefTrip decides whether one trip gets this briefing and sends it.
// Returns (false, nil) when the trip is simply not due: wrong local hour,
// toggle off, or inside quiet hours.
func (s *BriefingServiceImpl) briefTrip(ctx context.Context, trip types.Trip, targetHour int, kind types.BriefingKind) (bool, error) {
	loc, err := time.LoadLocation(trip.Timezone)
	if err != nil {
		loc = time.UTC
	}
	localNow := s.now().In(loc)
	if localNow.Hour() != targetHour {
		return false, nil
	}

	pref, err := s.prefRepo.GetOrCreate(ctx, trip.UserID, &trip.ID)
	if err != nil {
		return false, err
	}
	if !briefingEnabled(pref, kind) {
		return false, nil
	}
	if IsQuietTime(pref.QuietStart, pref.QuietEnd, localNow) {
		return false, nil
	}

	snapshot, err := s.ctxService.BuildContext(ctx, trip.UserID, trip.ID, nil, nil)
	if err != nil {
		return false, err
	}

	// The morning slot carries the last-day and segment-transition
	// variants when the trip state calls for one. The transition variant
	// needs the next segment to start tomorrow; a gap day before it still
	// gets the plain last-day briefing.
	effective := kind
	if kind == types.BriefingMorning && snapshot.CurrentSegment != nil && snapshot.CurrentSegment.IsLastDay {
		switch {
		case snapshot.NextSegment != nil && snapshot.NextSegment.DaysUntil == 1 && pref.TransitionEnabled:
			effective = types.BriefingSegmentTransition
		case pref.LastDayEnabled:
			effective = types.BriefingLastDay
		}
	}

	n := composeBriefing(trip, snapshot, effective)
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		return false, fmt.Errorf("dispatching %s briefing: %w", effective, err)
	}
	return true, nil
}

func briefingEnabled(pref *types.NotificationPreference, kind types.BriefingKind) bool {
	switch kind {
	case types.BriefingMorning:
		return pref.MorningEnabled
	case types.BriefingEvening:
		return pref.EveningEnabled
	case types.BriefingLastDay:
		return pref.LastDayEnabled
	case types.BriefingSegmentTransition:
		return pref.TransitionEnabled
	default:
		return false
	}
}

func composeBriefing(trip types.Trip, snap *types.ContextSnapshot, kind types.BriefingKind) types.Notification {
	n := types.Notification{
		UserID: trip.UserID,
		Data: map[string]string{
			"type":    "briefing",
			"kind":    string(kind),
			"trip_id": trip.ID.String(),
		},
	}

	where := trip.Destination
	if snap.CurrentSegment != nil && snap.CurrentSegment.Segment.City != "" {
		where = snap.CurrentSegment.Segment.City
	}

	switch kind {
	case types.BriefingLastDay:
		n.Title = fmt.Sprintf("Last day in %s", where)
		n.Body = lastDayBody(snap)
	case types.BriefingSegmentTransition:
		n.Title = fmt.Sprintf("Last day in %s", where)
		n.Body = transitionBody(snap)
	case types.BriefingEvening:
		n.Title = fmt.Sprintf("Evening in %s", where)
		n.Body = eveningBody(snap)
	default: // morning
		n.Title = fmt.Sprintf("Good morning in %s", where)
		n.Body = morningBody(snap)
	}
	return n
}

func morningBody(snap *types.ContextSnapshot) string {
	body := fmt.Sprintf("%d places left on your list.", snap.UnvisitedCount)
	if snap.CurrentSegment != nil {
		body = fmt.Sprintf("Day %d of %d. %s",
			snap.CurrentSegment.DayNumber, snap.CurrentSegment.TotalDays, body)
	}
	if len(snap.TopRated) > 0 {
		body += fmt.Sprintf(" Top pick: %s.", snap.TopRated[0].Name)
	}
	return body
}

func eveningBody(snap *types.ContextSnapshot) string {
	body := fmt.Sprintf("%d places visited so far, %d still to go.",
		snap.VisitedCount, snap.UnvisitedCount)
	if snap.CurrentSegment != nil {
		switch d := snap.CurrentSegment.DaysRemaining; d {
		case 0:
			body += " Last evening here."
		case 1:
			body += " 1 day remaining."
		default:
			body += fmt.Sprintf(" %d days remaining.", d)
		}
	}
	if len(snap.MustVisit) > 0 {
		body += fmt.Sprintf(" Don't forget: %s.", snap.MustVisit[0].Name)
	}
	return body
}

func transitionBody(snap *types.ContextSnapshot) string {
	next := snap.NextSegment.Segment
	body := fmt.Sprintf("Tomorrow you move on to %s.", next.City)
	if next.AccommodationName != "" {
		body += fmt.Sprintf(" You're staying at %s.", next.AccommodationName)
	}
	return body + " " + lastDayBody(snap)
}

func lastDayBody(snap *types.ContextSnapshot) string {
	if len(snap.MustVisit) > 0 {
		return fmt.Sprintf("%d must-visit places remain, starting with %s.",
			len(snap.MustVisit), snap.MustVisit[0].Name)
	}
	return fmt.Sprintf("%d places left on your list.", snap.UnvisitedCount)
}
