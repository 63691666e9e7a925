package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-companion/internal/api/place"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

const (
	// ProximityRadiusMeters is how close a saved place must be to trigger
	// an alert.
	ProximityRadiusMeters = 500
	// CooldownWindow is the rolling window within which at most one alert
	// is sent per user, across all trips.
	CooldownWindow = 30 * time.Minute
)

// Suppression reasons carried on LocationUpdateResult.
const (
	ReasonDisabled = "proximity_disabled"
	ReasonCooldown = "cooldown"
	ReasonDailyCap = "daily_cap"
	ReasonNoPlaces = "no_places_nearby"
)

var _ Service = (*ServiceImpl)(nil)

// Service evaluates location updates against the user's saved places and
// decides whether a proximity alert goes out. It also fronts preference
// reads and writes for the handler.
type Service interface {
	OnLocationUpdate(ctx context.Context, userID uuid.UUID, req types.LocationUpdateRequest) (*types.LocationUpdateResult, error)
	GetPreferences(ctx context.Context, userID uuid.UUID, tripID *uuid.UUID) (*types.NotificationPreference, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, req types.UpdatePreferenceRequest) (*types.NotificationPreference, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	placeRepo  place.Repository
	prefRepo   PreferenceRepository
	alertRepo  AlertLogRepository
	dispatcher Dispatcher
	metrics    *metrics.AppMetrics // nil when metrics are not wired (tests)

	// injectable clock for deterministic tests
	now func() time.Time
}

func NewServiceImpl(placeRepo place.Repository, prefRepo PreferenceRepository,
	alertRepo AlertLogRepository, dispatcher Dispatcher, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		placeRepo:  placeRepo,
		prefRepo:   prefRepo,
		alertRepo:  alertRepo,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// WithMetrics attaches metric instruments. Called once during wiring.
func (s *ServiceImpl) WithMetrics(m *metrics.AppMetrics) *ServiceImpl {
	s.metrics = m
	return s
}

// OnLocationUpdate runs the alert decision chain for one location ping:
// preference toggle, cooldown, daily cap, then a 500 m nearby lookup.
// Quiet hours apply to scheduled briefings only, never here: a user
// standing next to a saved place gets the ping regardless of the hour.
// The closest unvisited place wins; the alert is dispatched first and
// logged after, so a failed dispatch does not consume the cooldown.
//
// The cooldown check and the log append are not atomic. Two updates for
// the same user racing through here can both pass the count and both send.
// Pings arrive seconds apart from a single phone, so the worst case is one
// duplicate alert; we accept that rather than serialize on a per-user lock.
func (s *ServiceImpl) OnLocationUpdate(ctx context.Context, userID uuid.UUID, req types.LocationUpdateRequest) (*types.LocationUpdateResult, error) {
	ctx, span := otel.Tracer("ProximityService").Start(ctx, "OnLocationUpdate", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Float64("geo.lat", req.Latitude),
		attribute.Float64("geo.lng", req.Longitude),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "OnLocationUpdate"), slog.String("userID", userID.String()))

	pref, err := s.prefRepo.GetOrCreate(ctx, userID, req.TripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load preferences")
		return nil, err
	}

	if !pref.ProximityEnabled {
		return s.suppressed(ctx, span, l, ReasonDisabled), nil
	}

	recent, err := s.alertRepo.CountSince(ctx, userID, s.now().Add(-CooldownWindow))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to check cooldown")
		return nil, err
	}
	if recent > 0 {
		return s.suppressed(ctx, span, l, ReasonCooldown), nil
	}

	if pref.MaxDaily > 0 {
		localNow := s.localTime(ctx, pref.Timezone)
		midnight := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, localNow.Location())
		today, err := s.alertRepo.CountSince(ctx, userID, midnight)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to check daily cap")
			return nil, err
		}
		if today >= pref.MaxDaily {
			return s.suppressed(ctx, span, l, ReasonDailyCap), nil
		}
	}

	nearby, err := s.placeRepo.FindNear(ctx, userID, req.TripID, req.Latitude, req.Longitude, ProximityRadiusMeters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to find nearby places")
		return nil, err
	}
	if len(nearby) == 0 {
		return s.suppressed(ctx, span, l, ReasonNoPlaces), nil
	}

	closest := nearby[0]
	notification := types.Notification{
		UserID: userID,
		Title:  "You're near a saved place",
		Body:   proximityBody(closest),
		Data: map[string]string{
			"type":     "proximity",
			"place_id": closest.ID.String(),
		},
	}

	if err := s.dispatcher.Dispatch(ctx, notification); err != nil {
		l.ErrorContext(ctx, "Failed to dispatch proximity alert", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Dispatch failed")
		return nil, fmt.Errorf("dispatching proximity alert: %w", err)
	}

	alert := types.ProximityAlert{
		UserID:  userID,
		TripID:  req.TripID,
		PlaceID: closest.ID,
		SentAt:  s.now(),
	}
	if err := s.alertRepo.Append(ctx, alert); err != nil {
		// The alert already went out; losing the log row weakens the
		// cooldown for one window but is not worth failing the request.
		l.ErrorContext(ctx, "Alert sent but log append failed", slog.Any("error", err))
		span.RecordError(err)
	}

	if s.metrics != nil {
		s.metrics.ProximityAlertsSentTotal.Add(ctx, 1)
	}
	l.InfoContext(ctx, "Proximity alert sent",
		slog.String("placeID", closest.ID.String()),
		slog.String("placeName", closest.Name))
	span.SetStatus(codes.Ok, "Alert sent")

	placeID := closest.ID
	return &types.LocationUpdateResult{
		AlertSent: true,
		PlaceID:   &placeID,
		PlaceName: closest.Name,
	}, nil
}

func (s *ServiceImpl) GetPreferences(ctx context.Context, userID uuid.UUID, tripID *uuid.UUID) (*types.NotificationPreference, error) {
	ctx, span := otel.Tracer("ProximityService").Start(ctx, "GetPreferences")
	defer span.End()
	return s.prefRepo.GetOrCreate(ctx, userID, tripID)
}

func (s *ServiceImpl) UpdatePreferences(ctx context.Context, userID uuid.UUID, req types.UpdatePreferenceRequest) (*types.NotificationPreference, error) {
	ctx, span := otel.Tracer("ProximityService").Start(ctx, "UpdatePreferences")
	defer span.End()
	return s.prefRepo.Update(ctx, userID, req)
}

func (s *ServiceImpl) suppressed(ctx context.Context, span trace.Span, l *slog.Logger, reason string) *types.LocationUpdateResult {
	l.DebugContext(ctx, "Proximity alert suppressed", slog.String("reason", reason))
	span.SetAttributes(attribute.String("alert.suppression_reason", reason))
	span.SetStatus(codes.Ok, "Alert suppressed")
	if s.metrics != nil {
		s.metrics.ProximityAlertsSuppressedTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("reason", reason)))
	}
	return &types.LocationUpdateResult{AlertSent: false, Reason: reason}
}

// localTime resolves the user's preferred timezone, falling back to UTC
// when the IANA name does not load.
func (s *ServiceImpl) localTime(ctx context.Context, tz string) time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.logger.WarnContext(ctx, "Invalid timezone in preferences, using UTC", slog.String("timezone", tz))
		loc = time.UTC
	}
	return s.now().In(loc)
}

func proximityBody(p types.SavedPlace) string {
	if p.Distance != nil {
		return fmt.Sprintf("%s is %.0f m away", p.Name, *p.Distance)
	}
	return fmt.Sprintf("%s is nearby", p.Name)
}
