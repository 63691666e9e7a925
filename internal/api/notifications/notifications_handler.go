package notifications

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/internal/api"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

type HandlerImpl struct {
	proximityService Service
	logger           *slog.Logger
}

func NewHandlerImpl(proximityService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		proximityService: proximityService,
		logger:           logger,
	}
}

// UpdateLocation ingests a location ping and runs the proximity alert
// check. Always 200 on a valid request; the body says whether an alert
// went out and, if not, why.
func (h *HandlerImpl) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("NotificationsHandler").Start(r.Context(), "UpdateLocation", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/location"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "UpdateLocation"))

	userID, ok := api.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.LocationUpdateRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Coordinates out of range")
		return
	}

	result, err := h.proximityService.OnLocationUpdate(ctx, userID, req)
	if err != nil {
		l.ErrorContext(ctx, "Location update failed", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to process location update")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// GetPreferences returns the effective notification preferences, layered
// trip-over-default. An optional trip_id query parameter selects the trip.
func (h *HandlerImpl) GetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("NotificationsHandler").Start(r.Context(), "GetPreferences", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/notifications/preferences"),
	))
	defer span.End()

	userID, ok := api.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var tripID *uuid.UUID
	if raw := r.URL.Query().Get("trip_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
			return
		}
		tripID = &id
	}

	pref, err := h.proximityService.GetPreferences(ctx, userID, tripID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to fetch preferences", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch preferences")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, pref)
}

// UpdatePreferences patches the notification preferences. A body carrying
// trip_id creates or updates the trip override; without it the default row
// is patched.
func (h *HandlerImpl) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("NotificationsHandler").Start(r.Context(), "UpdatePreferences", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/notifications/preferences"),
	))
	defer span.End()

	userID, ok := api.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.UpdatePreferenceRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Timezone != nil {
		if !validTimezone(*req.Timezone) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid timezone")
			return
		}
	}
	if req.QuietStart != nil {
		if _, err := parseClock(*req.QuietStart); err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid quiet_start, expected HH:MM")
			return
		}
	}
	if req.QuietEnd != nil {
		if _, err := parseClock(*req.QuietEnd); err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid quiet_end, expected HH:MM")
			return
		}
	}

	pref, err := h.proximityService.UpdatePreferences(ctx, userID, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to update preferences", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update preferences")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, pref)
}
