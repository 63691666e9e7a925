package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	ProximityAlertsSentTotal       metric.Int64Counter
	ProximityAlertsSuppressedTotal metric.Int64Counter // labeled by suppression reason
	BriefingsSentTotal             metric.Int64Counter
	BriefingsFailedTotal           metric.Int64Counter
	GeocodeConfidenceScore         metric.Int64Histogram
	DbQueryDurationSeconds         metric.Float64Histogram
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TripCompanion")
		var err error
		m := &AppMetrics{}

		m.ProximityAlertsSentTotal, err = meter.Int64Counter(
			"proximity_alerts_sent_total",
			metric.WithDescription("Total number of proximity alerts dispatched"),
			metric.WithUnit("{alert}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create proximity_alerts_sent_total: %v", err)
		}

		// Suppression is a normal outcome, tracked separately from failures
		// so dashboards can tell policy from breakage.
		m.ProximityAlertsSuppressedTotal, err = meter.Int64Counter(
			"proximity_alerts_suppressed_total",
			metric.WithDescription("Total number of proximity alerts suppressed by policy"),
			metric.WithUnit("{alert}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create proximity_alerts_suppressed_total: %v", err)
		}

		m.BriefingsSentTotal, err = meter.Int64Counter(
			"briefings_sent_total",
			metric.WithDescription("Total number of scheduled briefings dispatched"),
			metric.WithUnit("{briefing}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create briefings_sent_total: %v", err)
		}

		m.BriefingsFailedTotal, err = meter.Int64Counter(
			"briefings_failed_total",
			metric.WithDescription("Total number of per-user briefing failures"),
			metric.WithUnit("{briefing}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create briefings_failed_total: %v", err)
		}

		m.GeocodeConfidenceScore, err = meter.Int64Histogram(
			"geocode_confidence_score",
			metric.WithDescription("Distribution of geocode confidence scores"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_confidence_score: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// RecordDBQuery records one query's wall time on db_query_duration_seconds,
// labeled by operation. A no-op before InitAppMetrics runs, so repositories
// can call it unconditionally and tests need no meter provider.
func RecordDBQuery(ctx context.Context, operation string, start time.Time) {
	if appMetrics == nil {
		return
	}
	appMetrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("operation", operation)))
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		// This indicates a programming error - InitAppMetrics must be called at startup.
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
