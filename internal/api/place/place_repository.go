package place

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
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
	"github.com/FACorreiaa/go-trip-companion/internal/geo"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

// ErrNotFound is returned when a place lookup matches nothing.
var ErrNotFound = errors.New("place not found")

var _ Repository = (*PostgresPlaceRepo)(nil)

type Repository interface {
	Create(ctx context.Context, p *types.SavedPlace) (uuid.UUID, error)
	GetByID(ctx context.Context, placeID uuid.UUID) (*types.SavedPlace, error)
	GetByTrip(ctx context.Context, tripID uuid.UUID, excludeVisited bool) ([]types.SavedPlace, error)
	Update(ctx context.Context, p *types.SavedPlace) error
	MarkVisited(ctx context.Context, placeID, userID uuid.UUID) error
	// FindNear returns unvisited places within radiusMeters of the point,
	// distance-annotated and sorted closest first. tripID nil searches
	// across every trip of the user.
	FindNear(ctx context.Context, userID uuid.UUID, tripID *uuid.UUID, lat, lng, radiusMeters float64) ([]types.SavedPlace, error)
}

type PostgresPlaceRepo struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresPlaceRepo(pgpool api.PGXPool, logger *slog.Logger) *PostgresPlaceRepo {
	return &PostgresPlaceRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const placeColumns = `
	id, trip_id, user_id, name, category, description, cuisine_type, tags,
	latitude, longitude, formatted_address, confidence_score, confidence_tier,
	rating, rating_count, must_visit, status, source_title, source_url, created_at`

func scanPlace(row pgx.Row) (*types.SavedPlace, error) {
	var p types.SavedPlace
	var tier *string
	err := row.Scan(
		&p.ID, &p.TripID, &p.UserID, &p.Name, &p.Category, &p.Description,
		&p.CuisineType, &p.Tags, &p.Latitude, &p.Longitude, &p.FormattedAddress,
		&p.ConfidenceScore, &tier, &p.Rating, &p.RatingCount, &p.MustVisit,
		&p.Status, &p.SourceTitle, &p.SourceURL, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tier != nil {
		p.ConfidenceTier = types.ConfidenceTier(*tier)
	}
	return &p, nil
}

func (r *PostgresPlaceRepo) Create(ctx context.Context, p *types.SavedPlace) (uuid.UUID, error) {
	ctx, span := otel.Tracer("PlaceRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "saved_places"),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "place_create", time.Now())

	query := `
		INSERT INTO saved_places (
			trip_id, user_id, name, category, description, cuisine_type, tags,
			latitude, longitude, formatted_address, confidence_score, confidence_tier,
			must_visit, status, source_title, source_url
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id`

	var tier *string
	if p.ConfidenceTier != "" {
		s := string(p.ConfidenceTier)
		tier = &s
	}

	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, query,
		p.TripID, p.UserID, p.Name, p.Category, p.Description, p.CuisineType,
		p.Tags, p.Latitude, p.Longitude, p.FormattedAddress, p.ConfidenceScore,
		tier, p.MustVisit, p.Status, p.SourceTitle, p.SourceURL,
	).Scan(&id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert saved place", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return uuid.Nil, fmt.Errorf("database error creating place: %w", err)
	}

	span.SetStatus(codes.Ok, "Place created")
	return id, nil
}

func (r *PostgresPlaceRepo) GetByID(ctx context.Context, placeID uuid.UUID) (*types.SavedPlace, error) {
	ctx, span := otel.Tracer("PlaceRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.place.id", placeID.String()),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "place_get_by_id", time.Now())

	query := `SELECT` + placeColumns + ` FROM saved_places WHERE id = $1`
	p, err := scanPlace(r.pgpool.QueryRow(ctx, query, placeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Place not found")
			return nil, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching place: %w", err)
	}

	span.SetStatus(codes.Ok, "Place fetched")
	return p, nil
}

func (r *PostgresPlaceRepo) GetByTrip(ctx context.Context, tripID uuid.UUID, excludeVisited bool) ([]types.SavedPlace, error) {
	ctx, span := otel.Tracer("PlaceRepo").Start(ctx, "GetByTrip", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.trip.id", tripID.String()),
		attribute.Bool("db.exclude_visited", excludeVisited),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "place_get_by_trip", time.Now())

	l := r.logger.With(slog.String("method", "GetByTrip"), slog.String("tripID", tripID.String()))

	query := `SELECT` + placeColumns + ` FROM saved_places WHERE trip_id = $1`
	if excludeVisited {
		query += ` AND status <> 'visited'`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pgpool.Query(ctx, query, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query trip places", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching trip places: %w", err)
	}
	defer rows.Close()

	places, err := collectPlaces(rows)
	if err != nil {
		l.ErrorContext(ctx, "Failed to scan trip places", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("db.rows", len(places)))
	span.SetStatus(codes.Ok, "Trip places fetched")
	return places, nil
}

func (r *PostgresPlaceRepo) Update(ctx context.Context, p *types.SavedPlace) error {
	ctx, span := otel.Tracer("PlaceRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.place.id", p.ID.String()),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "place_update", time.Now())

	query := `
		UPDATE saved_places SET
			name = $2, category = $3, description = $4, cuisine_type = $5,
			tags = $6, latitude = $7, longitude = $8, formatted_address = $9,
			confidence_score = $10, confidence_tier = $11, must_visit = $12
		WHERE id = $1`

	var tier *string
	if p.ConfidenceTier != "" {
		s := string(p.ConfidenceTier)
		tier = &s
	}

	tag, err := r.pgpool.Exec(ctx, query,
		p.ID, p.Name, p.Category, p.Description, p.CuisineType, p.Tags,
		p.Latitude, p.Longitude, p.FormattedAddress, p.ConfidenceScore, tier,
		p.MustVisit,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update place", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("database error updating place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	span.SetStatus(codes.Ok, "Place updated")
	return nil
}

func (r *PostgresPlaceRepo) MarkVisited(ctx context.Context, placeID, userID uuid.UUID) error {
	ctx, span := otel.Tracer("PlaceRepo").Start(ctx, "MarkVisited", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.place.id", placeID.String()),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "place_mark_visited", time.Now())

	tag, err := r.pgpool.Exec(ctx,
		`UPDATE saved_places SET status = 'visited' WHERE id = $1 AND user_id = $2`,
		placeID, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark place visited", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("database error marking place visited: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	span.SetStatus(codes.Ok, "Place marked visited")
	return nil
}

// FindNear pre-filters with a bounding box in SQL, then computes exact
// haversine distances in Go and drops anything outside the radius. Linear
// scan over the box is fine at saved-place scale; no spatial index needed.
func (r *PostgresPlaceRepo) FindNear(ctx context.Context, userID uuid.UUID, tripID *uuid.UUID, lat, lng, radiusMeters float64) ([]types.SavedPlace, error) {
	ctx, span := otel.Tracer("PlaceRepo").Start(ctx, "FindNear", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.user.id", userID.String()),
		attribute.Float64("geo.radius_meters", radiusMeters),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "place_find_near", time.Now())

	minLat, maxLat, minLng, maxLng := geo.BoundingBox(lat, lng, radiusMeters)

	query := `SELECT` + placeColumns + `
		FROM saved_places
		WHERE user_id = $1
		  AND status <> 'visited'
		  AND latitude BETWEEN $2 AND $3
		  AND longitude BETWEEN $4 AND $5`
	args := []any{userID, minLat, maxLat, minLng, maxLng}
	if tripID != nil {
		query += ` AND trip_id = $6`
		args = append(args, *tripID)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query nearby places", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching nearby places: %w", err)
	}
	defer rows.Close()

	inBox, err := collectPlaces(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var nearby []types.SavedPlace
	for _, p := range inBox {
		if !p.HasCoordinates() {
			continue
		}
		d := geo.Distance(lat, lng, *p.Latitude, *p.Longitude)
		if d <= radiusMeters {
			p.Distance = &d
			nearby = append(nearby, p)
		}
	}
	sort.Slice(nearby, func(i, j int) bool { return *nearby[i].Distance < *nearby[j].Distance })

	span.SetAttributes(attribute.Int("db.rows", len(nearby)))
	span.SetStatus(codes.Ok, "Nearby places fetched")
	return nearby, nil
}

func collectPlaces(rows pgx.Rows) ([]types.SavedPlace, error) {
	var places []types.SavedPlace
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning place: %w", err)
		}
		places = append(places, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error reading places: %w", err)
	}
	return places, nil
}
