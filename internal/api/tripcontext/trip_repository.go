package tripcontext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-companion/internal/api"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

var ErrTripNotFound = errors.New("trip not found")

var _ TripRepository = (*PostgresTripRepo)(nil)

type TripRepository interface {
	GetTrip(ctx context.Context, tripID uuid.UUID) (*types.Trip, error)
	GetSegments(ctx context.Context, tripID uuid.UUID) ([]types.TripSegment, error)
	// ListActiveTrips returns trips whose date range covers the given day.
	// Used by the briefing dispatcher's eligibility scan.
	ListActiveTrips(ctx context.Context, onDate time.Time) ([]types.Trip, error)
}

type PostgresTripRepo struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresTripRepo(pgpool api.PGXPool, logger *slog.Logger) *PostgresTripRepo {
	return &PostgresTripRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresTripRepo) GetTrip(ctx context.Context, tripID uuid.UUID) (*types.Trip, error) {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "GetTrip", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.trip.id", tripID.String()),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "trip_get", time.Now())

	query := `
		SELECT id, user_id, name, destination, timezone, start_date, end_date, created_at
		FROM trips WHERE id = $1`

	var t types.Trip
	err := r.pgpool.QueryRow(ctx, query, tripID).Scan(
		&t.ID, &t.UserID, &t.Name, &t.Destination, &t.Timezone,
		&t.StartDate, &t.EndDate, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Trip not found")
			return nil, ErrTripNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query trip", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching trip: %w", err)
	}

	span.SetStatus(codes.Ok, "Trip fetched")
	return &t, nil
}

func (r *PostgresTripRepo) GetSegments(ctx context.Context, tripID uuid.UUID) ([]types.TripSegment, error) {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "GetSegments", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.trip.id", tripID.String()),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "trip_get_segments", time.Now())

	query := `
		SELECT id, trip_id, city, start_date, end_date,
		       accommodation_name, accommodation_latitude, accommodation_longitude
		FROM trip_segments WHERE trip_id = $1 ORDER BY start_date`

	rows, err := r.pgpool.Query(ctx, query, tripID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query trip segments", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching segments: %w", err)
	}
	defer rows.Close()

	var segments []types.TripSegment
	for rows.Next() {
		var s types.TripSegment
		err := rows.Scan(
			&s.ID, &s.TripID, &s.City, &s.StartDate, &s.EndDate,
			&s.AccommodationName, &s.AccommodationLatitude, &s.AccommodationLongitude,
		)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning segment: %w", err)
		}
		segments = append(segments, s)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading segments: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(segments)))
	span.SetStatus(codes.Ok, "Segments fetched")
	return segments, nil
}

func (r *PostgresTripRepo) ListActiveTrips(ctx context.Context, onDate time.Time) ([]types.Trip, error) {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "ListActiveTrips", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.on_date", onDate.Format("2006-01-02")),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "trip_list_active", time.Now())

	query := `
		SELECT id, user_id, name, destination, timezone, start_date, end_date, created_at
		FROM trips WHERE start_date <= $1 AND end_date >= $1`

	rows, err := r.pgpool.Query(ctx, query, onDate)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query active trips", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching active trips: %w", err)
	}
	defer rows.Close()

	var trips []types.Trip
	for rows.Next() {
		var t types.Trip
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Name, &t.Destination, &t.Timezone,
			&t.StartDate, &t.EndDate, &t.CreatedAt,
		)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading trips: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(trips)))
	span.SetStatus(codes.Ok, "Active trips fetched")
	return trips, nil
}
