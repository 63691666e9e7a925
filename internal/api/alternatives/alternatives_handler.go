package alternatives

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
	alternativesService Service
	logger              *slog.Logger
}

func NewHandlerImpl(alternativesService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		alternativesService: alternativesService,
		logger:              logger,
	}
}

// FindAlternatives suggests substitutes for a place the user cannot visit.
func (h *HandlerImpl) FindAlternatives(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AlternativesHandler").Start(r.Context(), "FindAlternatives", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/trips/{tripID}/recommendations/alternatives"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "FindAlternatives"))

	if _, ok := api.GetUserIDFromContext(ctx); !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return
	}

	var req types.FindAlternativesRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ReferencedName == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "referenced_name is required")
		return
	}

	resp, err := h.alternativesService.FindAlternatives(ctx, tripID, req)
	if err != nil {
		l.ErrorContext(ctx, "Failed to find alternatives", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to find alternatives")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
