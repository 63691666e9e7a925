package notifications

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

// Defaults applied when a user touches preferences for the first time.
const (
	DefaultQuietStart = "22:00"
	DefaultQuietEnd   = "07:00"
	DefaultMaxDaily   = 10
	DefaultTimezone   = "UTC"
)

var _ PreferenceRepository = (*PostgresPreferenceRepo)(nil)

type PreferenceRepository interface {
	// GetOrCreate returns the effective preference for a user: the
	// trip-specific row when one exists, otherwise the trip-agnostic
	// default row, creating the default lazily on first access.
	GetOrCreate(ctx context.Context, userID uuid.UUID, tripID *uuid.UUID) (*types.NotificationPreference, error)
	Update(ctx context.Context, userID uuid.UUID, req types.UpdatePreferenceRequest) (*types.NotificationPreference, error)
}

type PostgresPreferenceRepo struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresPreferenceRepo(pgpool api.PGXPool, logger *slog.Logger) *PostgresPreferenceRepo {
	return &PostgresPreferenceRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const preferenceColumns = `
	id, user_id, trip_id, proximity_enabled, morning_enabled, evening_enabled,
	last_day_enabled, transition_enabled, quiet_start, quiet_end, max_daily,
	timezone, updated_at`

func scanPreference(row pgx.Row) (*types.NotificationPreference, error) {
	var p types.NotificationPreference
	err := row.Scan(
		&p.ID, &p.UserID, &p.TripID, &p.ProximityEnabled, &p.MorningEnabled,
		&p.EveningEnabled, &p.LastDayEnabled, &p.TransitionEnabled,
		&p.QuietStart, &p.QuietEnd, &p.MaxDaily, &p.Timezone, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPreferenceRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, tripID *uuid.UUID) (*types.NotificationPreference, error) {
	ctx, span := otel.Tracer("PreferenceRepo").Start(ctx, "GetOrCreate", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "preference_get_or_create", time.Now())

	l := r.logger.With(slog.String("method", "GetOrCreate"), slog.String("userID", userID.String()))

	// Trip-specific row wins over the default row when both exist.
	if tripID != nil {
		query := `SELECT` + preferenceColumns + ` FROM notification_preferences WHERE user_id = $1 AND trip_id = $2`
		p, err := scanPreference(r.pgpool.QueryRow(ctx, query, userID, *tripID))
		if err == nil {
			span.SetStatus(codes.Ok, "Trip preference fetched")
			return p, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			l.ErrorContext(ctx, "Failed to query trip preference", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB query failed")
			return nil, fmt.Errorf("database error fetching preference: %w", err)
		}
	}

	query := `SELECT` + preferenceColumns + ` FROM notification_preferences WHERE user_id = $1 AND trip_id IS NULL`
	p, err := scanPreference(r.pgpool.QueryRow(ctx, query, userID))
	if err == nil {
		span.SetStatus(codes.Ok, "Default preference fetched")
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		l.ErrorContext(ctx, "Failed to query default preference", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching preference: %w", err)
	}

	// First access: create the default row with everything switched on.
	insert := `
		INSERT INTO notification_preferences (
			user_id, trip_id, proximity_enabled, morning_enabled, evening_enabled,
			last_day_enabled, transition_enabled, quiet_start, quiet_end, max_daily, timezone
		) VALUES ($1, NULL, TRUE, TRUE, TRUE, TRUE, TRUE, $2, $3, $4, $5)
		RETURNING` + preferenceColumns

	p, err = scanPreference(r.pgpool.QueryRow(ctx, insert,
		userID, DefaultQuietStart, DefaultQuietEnd, DefaultMaxDaily, DefaultTimezone))
	if err != nil {
		l.ErrorContext(ctx, "Failed to create default preference", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating default preference: %w", err)
	}

	l.DebugContext(ctx, "Created default notification preference")
	span.SetStatus(codes.Ok, "Default preference created")
	return p, nil
}

func (r *PostgresPreferenceRepo) Update(ctx context.Context, userID uuid.UUID, req types.UpdatePreferenceRequest) (*types.NotificationPreference, error) {
	ctx, span := otel.Tracer("PreferenceRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "preference_update", time.Now())

	// Make sure the row exists before patching it.
	current, err := r.GetOrCreate(ctx, userID, req.TripID)
	if err != nil {
		return nil, err
	}

	// A trip-scoped update on a user who only has the default row creates
	// the trip override as a copy of the default.
	if req.TripID != nil && current.TripID == nil {
		insert := `
			INSERT INTO notification_preferences (
				user_id, trip_id, proximity_enabled, morning_enabled, evening_enabled,
				last_day_enabled, transition_enabled, quiet_start, quiet_end, max_daily, timezone
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			RETURNING` + preferenceColumns
		current, err = scanPreference(r.pgpool.QueryRow(ctx, insert,
			userID, *req.TripID, current.ProximityEnabled, current.MorningEnabled,
			current.EveningEnabled, current.LastDayEnabled, current.TransitionEnabled,
			current.QuietStart, current.QuietEnd, current.MaxDaily, current.Timezone))
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error creating trip preference: %w", err)
		}
	}

	applyPreferencePatch(current, req)

	update := `
		UPDATE notification_preferences SET
			proximity_enabled = $2, morning_enabled = $3, evening_enabled = $4,
			last_day_enabled = $5, transition_enabled = $6, quiet_start = $7,
			quiet_end = $8, max_daily = $9, timezone = $10, updated_at = now()
		WHERE id = $1
		RETURNING` + preferenceColumns

	updated, err := scanPreference(r.pgpool.QueryRow(ctx, update,
		current.ID, current.ProximityEnabled, current.MorningEnabled,
		current.EveningEnabled, current.LastDayEnabled, current.TransitionEnabled,
		current.QuietStart, current.QuietEnd, current.MaxDaily, current.Timezone))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update preference", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return nil, fmt.Errorf("database error updating preference: %w", err)
	}

	span.SetStatus(codes.Ok, "Preference updated")
	return updated, nil
}

func applyPreferencePatch(p *types.NotificationPreference, req types.UpdatePreferenceRequest) {
	if req.ProximityEnabled != nil {
		p.ProximityEnabled = *req.ProximityEnabled
	}
	if req.MorningEnabled != nil {
		p.MorningEnabled = *req.MorningEnabled
	}
	if req.EveningEnabled != nil {
		p.EveningEnabled = *req.EveningEnabled
	}
	if req.LastDayEnabled != nil {
		p.LastDayEnabled = *req.LastDayEnabled
	}
	if req.TransitionEnabled != nil {
		p.TransitionEnabled = *req.TransitionEnabled
	}
	if req.QuietStart != nil {
		p.QuietStart = *req.QuietStart
	}
	if req.QuietEnd != nil {
		p.QuietEnd = *req.QuietEnd
	}
	if req.MaxDaily != nil {
		p.MaxDaily = *req.MaxDaily
	}
	if req.Timezone != nil {
		p.Timezone = *req.Timezone
	}
}
