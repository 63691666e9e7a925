package place

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, p *types.SavedPlace) (uuid.UUID, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, placeID uuid.UUID) (*types.SavedPlace, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SavedPlace), args.Error(1)
}

func (m *MockRepository) GetByTrip(ctx context.Context, tripID uuid.UUID, excludeVisited bool) ([]types.SavedPlace, error) {
	args := m.Called(ctx, tripID, excludeVisited)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.SavedPlace), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, p *types.SavedPlace) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) MarkVisited(ctx context.Context, placeID, userID uuid.UUID) error {
	args := m.Called(ctx, placeID, userID)
	return args.Error(0)
}

func (m *MockRepository) FindNear(ctx context.Context, userID uuid.UUID, tripID *uuid.UUID, lat, lng, radiusMeters float64) ([]types.SavedPlace, error) {
	args := m.Called(ctx, userID, tripID, lat, lng, radiusMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.SavedPlace), args.Error(1)
}

// MockGeocoder is a mock implementation of geocode.Service
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Resolve(ctx context.Context, address string) (types.GeocodeResult, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(types.GeocodeResult), args.Error(1)
}

func (m *MockGeocoder) ScoreCandidate(candidate types.GeocodeCandidate, searchString string, siblingCount int) types.GeocodeConfidence {
	args := m.Called(candidate, searchString, siblingCount)
	return args.Get(0).(types.GeocodeConfidence)
}

func TestCreatePlace(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	userID := uuid.New()
	tripID := uuid.New()

	t.Run("geocodes the address and stores coordinates", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockGeo := new(MockGeocoder)
		svc := NewServiceImpl(mockRepo, mockGeo, logger)

		result := types.GeocodeResult{
			Found:            true,
			Latitude:         35.0116,
			Longitude:        135.7681,
			FormattedAddress: "Nishiki Market, Nakagyo Ward, Kyoto",
			Confidence:       types.GeocodeConfidence{Score: 90, Tier: types.TierHigh},
		}
		mockGeo.On("Resolve", mock.Anything, "Nishiki Market, Kyoto").Return(result, nil).Once()

		wantID := uuid.New()
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *types.SavedPlace) bool {
			return p.Latitude != nil && *p.Latitude == result.Latitude &&
				p.ConfidenceTier == types.TierHigh &&
				p.Status == types.StatusSaved
		})).Return(wantID, nil).Once()

		p, err := svc.CreatePlace(ctx, userID, types.CreatePlaceRequest{
			TripID:   tripID,
			Name:     "Nishiki Market",
			Category: types.CategoryFood,
			Address:  "Nishiki Market, Kyoto",
		})

		require.NoError(t, err)
		assert.Equal(t, wantID, p.ID)
		assert.Equal(t, "Nishiki Market, Nakagyo Ward, Kyoto", p.FormattedAddress)
		mockRepo.AssertExpectations(t)
		mockGeo.AssertExpectations(t)
	})

	t.Run("geocoder outage still saves, with a low tier", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockGeo := new(MockGeocoder)
		svc := NewServiceImpl(mockRepo, mockGeo, logger)

		mockGeo.On("Resolve", mock.Anything, "Somewhere in Osaka").
			Return(types.GeocodeResult{}, errors.New("geocoder timeout")).Once()
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *types.SavedPlace) bool {
			return p.Latitude == nil && p.ConfidenceTier == types.TierLow
		})).Return(uuid.New(), nil).Once()

		p, err := svc.CreatePlace(ctx, userID, types.CreatePlaceRequest{
			TripID:  tripID,
			Name:    "Mystery Spot",
			Address: "Somewhere in Osaka",
		})

		require.NoError(t, err)
		assert.Nil(t, p.Latitude)
		assert.Equal(t, types.TierLow, p.ConfidenceTier)
	})

	t.Run("no address means no geocoder call", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockGeo := new(MockGeocoder)
		svc := NewServiceImpl(mockRepo, mockGeo, logger)

		mockRepo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()

		_, err := svc.CreatePlace(ctx, userID, types.CreatePlaceRequest{
			TripID:   tripID,
			Name:     "Go to an onsen",
			Category: types.CategoryTip,
		})

		require.NoError(t, err)
		mockGeo.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})
}

func TestUpdatePlace(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	userID := uuid.New()
	placeID := uuid.New()

	existing := func() *types.SavedPlace {
		return &types.SavedPlace{
			ID:       placeID,
			UserID:   userID,
			Name:     "Ichiran Dotonbori",
			Category: types.CategoryFood,
			Status:   types.StatusSaved,
		}
	}

	t.Run("changed address triggers a re-geocode", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockGeo := new(MockGeocoder)
		svc := NewServiceImpl(mockRepo, mockGeo, logger)

		mockRepo.On("GetByID", mock.Anything, placeID).Return(existing(), nil).Once()
		mockGeo.On("Resolve", mock.Anything, "Ichiran, Namba").Return(types.GeocodeResult{
			Found:      true,
			Latitude:   34.6687,
			Longitude:  135.5013,
			Confidence: types.GeocodeConfidence{Score: 60, Tier: types.TierMedium},
		}, nil).Once()
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *types.SavedPlace) bool {
			return p.Latitude != nil && p.ConfidenceTier == types.TierMedium
		})).Return(nil).Once()

		addr := "Ichiran, Namba"
		p, err := svc.UpdatePlace(ctx, userID, placeID, types.UpdatePlaceRequest{Address: &addr})

		require.NoError(t, err)
		assert.Equal(t, types.TierMedium, p.ConfidenceTier)
		mockGeo.AssertExpectations(t)
	})

	t.Run("plain field edits skip the geocoder", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockGeo := new(MockGeocoder)
		svc := NewServiceImpl(mockRepo, mockGeo, logger)

		mockRepo.On("GetByID", mock.Anything, placeID).Return(existing(), nil).Once()
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

		name := "Ichiran Namba"
		mustVisit := true
		p, err := svc.UpdatePlace(ctx, userID, placeID, types.UpdatePlaceRequest{
			Name: &name, MustVisit: &mustVisit,
		})

		require.NoError(t, err)
		assert.Equal(t, "Ichiran Namba", p.Name)
		assert.True(t, p.MustVisit)
		mockGeo.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("another user's place looks like it does not exist", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockGeo := new(MockGeocoder)
		svc := NewServiceImpl(mockRepo, mockGeo, logger)

		other := existing()
		other.UserID = uuid.New()
		mockRepo.On("GetByID", mock.Anything, placeID).Return(other, nil).Once()

		p, err := svc.UpdatePlace(ctx, userID, placeID, types.UpdatePlaceRequest{})

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, p)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
