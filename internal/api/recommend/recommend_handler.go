package recommend

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/internal/api"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

type HandlerImpl struct {
	recommendService Service
	logger           *slog.Logger
}

func NewHandlerImpl(recommendService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		recommendService: recommendService,
		logger:           logger,
	}
}

// RankPlaces runs the ranking pipeline for a structured intent against the
// trip's saved places.
func (h *HandlerImpl) RankPlaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendHandler").Start(r.Context(), "RankPlaces", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/trips/{tripID}/recommendations/rank"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "RankPlaces"))

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

	var req types.RankRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Intent.Type == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "intent.type is required")
		return
	}

	ranked, err := h.recommendService.RankPlaces(ctx, userID, tripID, req.Intent, req.Latitude, req.Longitude)
	if err != nil {
		l.ErrorContext(ctx, "Failed to rank places", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to rank places")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, ranked)
}
