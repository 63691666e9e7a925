package place

import (
	"errors"
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
	placeService Service
	logger       *slog.Logger
}

func NewHandlerImpl(placeService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		placeService: placeService,
		logger:       logger,
	}
}

// CreatePlace saves a new place against a trip, geocoding it when an
// address was supplied.
func (h *HandlerImpl) CreatePlace(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlaceHandler").Start(r.Context(), "CreatePlace", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/places"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "CreatePlace"))

	userID, ok := api.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.CreatePlaceRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.TripID == uuid.Nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "name and trip_id are required")
		return
	}

	created, err := h.placeService.CreatePlace(ctx, userID, req)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create place", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create place")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, created)
}

// GetTripPlaces lists every place saved against a trip.
func (h *HandlerImpl) GetTripPlaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlaceHandler").Start(r.Context(), "GetTripPlaces", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/trips/{tripID}/places"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetTripPlaces"))

	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return
	}

	places, err := h.placeService.GetTripPlaces(ctx, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get trip places", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch places")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, places)
}

// UpdatePlace applies partial edits to a saved place.
func (h *HandlerImpl) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlaceHandler").Start(r.Context(), "UpdatePlace", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/places/{placeID}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "UpdatePlace"))

	userID, ok := api.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	placeID, err := uuid.Parse(chi.URLParam(r, "placeID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid place ID format")
		return
	}

	var req types.UpdatePlaceRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.placeService.UpdatePlace(ctx, userID, placeID, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Place not found")
			return
		}
		l.ErrorContext(ctx, "Failed to update place", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update place")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, updated)
}

// MarkVisited flips a place to visited, removing it from recommendations.
func (h *HandlerImpl) MarkVisited(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlaceHandler").Start(r.Context(), "MarkVisited", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/places/{placeID}/visited"),
	))
	defer span.End()

	userID, ok := api.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	placeID, err := uuid.Parse(chi.URLParam(r, "placeID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid place ID format")
		return
	}

	if err := h.placeService.MarkVisited(ctx, userID, placeID); err != nil {
		if errors.Is(err, ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Place not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to mark place visited", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to mark place visited")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Place marked as visited"})
}
