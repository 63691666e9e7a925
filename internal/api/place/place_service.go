package place

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-companion/internal/api/geocode"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for saved-place operations.
type Service interface {
	CreatePlace(ctx context.Context, userID uuid.UUID, req types.CreatePlaceRequest) (*types.SavedPlace, error)
	GetTripPlaces(ctx context.Context, tripID uuid.UUID) ([]types.SavedPlace, error)
	UpdatePlace(ctx context.Context, userID, placeID uuid.UUID, req types.UpdatePlaceRequest) (*types.SavedPlace, error)
	MarkVisited(ctx context.Context, userID, placeID uuid.UUID) error
}

type ServiceImpl struct {
	logger    *slog.Logger
	placeRepo Repository
	geocoder  geocode.Service
}

func NewServiceImpl(placeRepo Repository, geocoder geocode.Service, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		placeRepo: placeRepo,
		geocoder:  geocoder,
	}
}

// CreatePlace stores a place, geocoding its address when one is given. A
// geocoder outage leaves the place unresolved with a low-confidence tier; it
// is never a reason to reject the save.
func (s *ServiceImpl) CreatePlace(ctx context.Context, userID uuid.UUID, req types.CreatePlaceRequest) (*types.SavedPlace, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "CreatePlace", trace.WithAttributes(
		attribute.String("trip.id", req.TripID.String()),
		attribute.String("place.category", string(req.Category)),
	))
	defer span.End()

	p := &types.SavedPlace{
		TripID:      req.TripID,
		UserID:      userID,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		CuisineType: req.CuisineType,
		Tags:        req.Tags,
		MustVisit:   req.MustVisit,
		Status:      types.StatusSaved,
		SourceTitle: req.SourceTitle,
		SourceURL:   req.SourceURL,
		CreatedAt:   time.Now(),
	}

	if req.Address != "" {
		s.applyGeocode(ctx, p, req.Address)
	}

	id, err := s.placeRepo.Create(ctx, p)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create place", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, fmt.Errorf("creating place: %w", err)
	}
	p.ID = id

	span.SetStatus(codes.Ok, "Place created")
	return p, nil
}

func (s *ServiceImpl) GetTripPlaces(ctx context.Context, tripID uuid.UUID) ([]types.SavedPlace, error) {
	places, err := s.placeRepo.GetByTrip(ctx, tripID, false)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get trip places", slog.Any("error", err))
		return nil, err
	}
	return places, nil
}

// UpdatePlace applies partial edits; a changed address triggers a re-geocode
// (and a fresh confidence tier, since the old one scored a different string).
func (s *ServiceImpl) UpdatePlace(ctx context.Context, userID, placeID uuid.UUID, req types.UpdatePlaceRequest) (*types.SavedPlace, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "UpdatePlace", trace.WithAttributes(
		attribute.String("place.id", placeID.String()),
	))
	defer span.End()

	p, err := s.placeRepo.GetByID(ctx, placeID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotFound
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.CuisineType != nil {
		p.CuisineType = *req.CuisineType
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	if req.MustVisit != nil {
		p.MustVisit = *req.MustVisit
	}
	if req.Address != nil && *req.Address != "" {
		s.applyGeocode(ctx, p, *req.Address)
	}

	if err := s.placeRepo.Update(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update place", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Place updated")
	return p, nil
}

func (s *ServiceImpl) MarkVisited(ctx context.Context, userID, placeID uuid.UUID) error {
	if err := s.placeRepo.MarkVisited(ctx, placeID, userID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to mark place visited", slog.Any("error", err))
		return err
	}
	return nil
}

func (s *ServiceImpl) applyGeocode(ctx context.Context, p *types.SavedPlace, address string) {
	result, err := s.geocoder.Resolve(ctx, address)
	if err != nil || !result.Found {
		p.ConfidenceTier = types.TierLow
		return
	}
	p.Latitude = &result.Latitude
	p.Longitude = &result.Longitude
	p.FormattedAddress = result.FormattedAddress
	p.ConfidenceScore = &result.Confidence.Score
	p.ConfidenceTier = result.Confidence.Tier
}
