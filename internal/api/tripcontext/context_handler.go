package tripcontext

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/internal/api"
)

type HandlerImpl struct {
	contextService Service
	logger         *slog.Logger
}

func NewHandlerImpl(contextService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		contextService: contextService,
		logger:         logger,
	}
}

// GetTripContext returns the freshly computed snapshot for a trip.
// Optional lat/lng query parameters anchor the nearby-places list to the
// user's live position.
func (h *HandlerImpl) GetTripContext(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ContextHandler").Start(r.Context(), "GetTripContext", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/trips/{tripID}/context"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetTripContext"))

	userID, ok := api.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return
	}

	lat, lng, err := parseOptionalCoords(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.contextService.BuildContext(ctx, userID, tripID, lat, lng)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Trip not found")
			return
		}
		l.ErrorContext(ctx, "Failed to build trip context", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to build trip context")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, snapshot)
}

func parseOptionalCoords(r *http.Request) (*float64, *float64, error) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")
	if latStr == "" && lngStr == "" {
		return nil, nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, nil, errors.New("lat and lng must be provided together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, nil, errors.New("invalid lat")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, nil, errors.New("invalid lng")
	}
	return &lat, &lng, nil
}
