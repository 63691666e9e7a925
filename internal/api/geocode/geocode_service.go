package geocode

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service resolves free-form addresses to coordinates with a confidence
// score attached.
type Service interface {
	Resolve(ctx context.Context, address string) (types.GeocodeResult, error)
	ScoreCandidate(candidate types.GeocodeCandidate, searchString string, siblingCount int) types.GeocodeConfidence
}

type ServiceImpl struct {
	logger  *slog.Logger
	client  Client
	metrics *metrics.AppMetrics // nil when metrics are not wired (tests)
}

func NewServiceImpl(client Client, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		client: client,
	}
}

// WithMetrics attaches metric instruments. Called once during wiring.
func (s *ServiceImpl) WithMetrics(m *metrics.AppMetrics) *ServiceImpl {
	s.metrics = m
	return s
}

// Resolve geocodes the address and scores the best candidate. A geocoder
// outage degrades to Found=false rather than failing the caller's operation;
// the place is simply stored unresolved and can be re-geocoded later.
func (s *ServiceImpl) Resolve(ctx context.Context, address string) (types.GeocodeResult, error) {
	ctx, span := otel.Tracer("GeocodeService").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("geocode.address", address),
	))
	defer span.End()

	candidates, err := s.client.Geocode(ctx, address)
	if err != nil {
		s.logger.WarnContext(ctx, "Geocoder unavailable, storing place unresolved",
			slog.String("address", address), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocoder unavailable")
		return types.GeocodeResult{Found: false, Confidence: types.GeocodeConfidence{Tier: types.TierLow}}, nil
	}
	if len(candidates) == 0 {
		s.logger.DebugContext(ctx, "Geocoder returned no candidates", slog.String("address", address))
		span.SetStatus(codes.Ok, "no candidates")
		return types.GeocodeResult{Found: false, Confidence: types.GeocodeConfidence{Tier: types.TierLow}}, nil
	}

	best := candidates[0]
	confidence := Score(best, address, len(candidates))
	if s.metrics != nil {
		s.metrics.GeocodeConfidenceScore.Record(ctx, int64(confidence.Score),
			metric.WithAttributes(attribute.String("tier", string(confidence.Tier))))
	}
	span.SetAttributes(
		attribute.Int("geocode.candidates", len(candidates)),
		attribute.Int("geocode.confidence", confidence.Score),
		attribute.String("geocode.tier", string(confidence.Tier)),
	)
	span.SetStatus(codes.Ok, "Address resolved")

	return types.GeocodeResult{
		Found:            true,
		Latitude:         best.Latitude,
		Longitude:        best.Longitude,
		FormattedAddress: best.FormattedAddress,
		Confidence:       confidence,
	}, nil
}

func (s *ServiceImpl) ScoreCandidate(candidate types.GeocodeCandidate, searchString string, siblingCount int) types.GeocodeConfidence {
	return Score(candidate, searchString, siblingCount)
}
