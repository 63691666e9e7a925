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
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-companion/internal/api"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

var _ AlertLogRepository = (*PostgresAlertLogRepo)(nil)

// AlertLogRepository is the append-only proximity-alert log backing the
// cooldown invariant. Rows are inserted and read within a rolling window,
// never updated or deleted by the engine.
type AlertLogRepository interface {
	Append(ctx context.Context, alert types.ProximityAlert) error
	// CountSince counts alerts for the user since the cutoff, across all
	// trips. The cooldown is global per user.
	CountSince(ctx context.Context, userID uuid.UUID, cutoff time.Time) (int, error)
}

type PostgresAlertLogRepo struct {
	logger *slog.Logger
	pgpool api.PGXPool
}

func NewPostgresAlertLogRepo(pgpool api.PGXPool, logger *slog.Logger) *PostgresAlertLogRepo {
	return &PostgresAlertLogRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAlertLogRepo) Append(ctx context.Context, alert types.ProximityAlert) error {
	ctx, span := otel.Tracer("AlertLogRepo").Start(ctx, "Append", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.user.id", alert.UserID.String()),
		attribute.String("db.place.id", alert.PlaceID.String()),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "alert_append", time.Now())

	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO proximity_alerts (user_id, trip_id, place_id, sent_at) VALUES ($1, $2, $3, $4)`,
		alert.UserID, alert.TripID, alert.PlaceID, alert.SentAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to append proximity alert", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return fmt.Errorf("database error appending alert: %w", err)
	}

	span.SetStatus(codes.Ok, "Alert appended")
	return nil
}

func (r *PostgresAlertLogRepo) CountSince(ctx context.Context, userID uuid.UUID, cutoff time.Time) (int, error) {
	ctx, span := otel.Tracer("AlertLogRepo").Start(ctx, "CountSince", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()
	defer metrics.RecordDBQuery(ctx, "alert_count_since", time.Now())

	var count int
	err := r.pgpool.QueryRow(ctx,
		`SELECT COUNT(*) FROM proximity_alerts WHERE user_id = $1 AND sent_at >= $2`,
		userID, cutoff).Scan(&count)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to count proximity alerts", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return 0, fmt.Errorf("database error counting alerts: %w", err)
	}

	span.SetAttributes(attribute.Int("db.count", count))
	span.SetStatus(codes.Ok, "Alerts counted")
	return count, nil
}
