package alternatives

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

	"github.com/FACorreiaa/go-trip-companion/internal/api/placesearch"
	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

// MockPlaceRepository is a mock implementation of place.Repository
type MockPlaceRepository struct {
	mock.Mock
}

func (m *MockPlaceRepository) Create(ctx context.Context, p *types.SavedPlace) (uuid.UUID, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockPlaceRepository) GetByID(ctx context.Context, placeID uuid.UUID) (*types.SavedPlace, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SavedPlace), args.Error(1)
}

func (m *MockPlaceRepository) GetByTrip(ctx context.Context, tripID uuid.UUID, excludeVisited bool) ([]types.SavedPlace, error) {
	args := m.Called(ctx, tripID, excludeVisited)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.SavedPlace), args.Error(1)
}

func (m *MockPlaceRepository) Update(ctx context.Context, p *types.SavedPlace) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPlaceRepository) MarkVisited(ctx context.Context, placeID, userID uuid.UUID) error {
	args := m.Called(ctx, placeID, userID)
	return args.Error(0)
}

func (m *MockPlaceRepository) FindNear(ctx context.Context, userID uuid.UUID, tripID *uuid.UUID, lat, lng, radiusMeters float64) ([]types.SavedPlace, error) {
	args := m.Called(ctx, userID, tripID, lat, lng, radiusMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.SavedPlace), args.Error(1)
}

// MockPlaceSearch is a mock implementation of placesearch.Client
type MockPlaceSearch struct {
	mock.Mock
}

func (m *MockPlaceSearch) SearchNearby(ctx context.Context, params placesearch.SearchParams) ([]types.PlaceSearchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.PlaceSearchResult), args.Error(1)
}

func setupAlternativesServiceTest() (*ServiceImpl, *MockPlaceRepository, *MockPlaceSearch) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockRepo := new(MockPlaceRepository)
	mockSearch := new(MockPlaceSearch)
	service := NewServiceImpl(mockRepo, mockSearch, logger)
	return service, mockRepo, mockSearch
}

func floatPtr(f float64) *float64 { return &f }

func savedFood(name string, lat, lng float64) types.SavedPlace {
	return types.SavedPlace{
		ID:        uuid.New(),
		Name:      name,
		Category:  types.CategoryFood,
		Latitude:  &lat,
		Longitude: &lng,
	}
}

func TestFindAlternatives(t *testing.T) {
	ctx := context.Background()
	tripID := uuid.New()

	t.Run("referenced place not found returns graceful result", func(t *testing.T) {
		service, mockRepo, _ := setupAlternativesServiceTest()
		mockRepo.On("GetByTrip", mock.Anything, tripID, false).Return([]types.SavedPlace{savedFood("Tonki", 35.63, 139.71)}, nil).Once()

		resp, err := service.FindAlternatives(ctx, tripID, types.FindAlternativesRequest{ReferencedName: "Nonexistent Cafe"})
		require.NoError(t, err)
		assert.False(t, resp.Found)
		assert.Contains(t, resp.Message, "Nonexistent Cafe")
		mockRepo.AssertExpectations(t)
	})

	t.Run("fuzzy resolution matches substrings both directions", func(t *testing.T) {
		service, mockRepo, mockSearch := setupAlternativesServiceTest()
		places := []types.SavedPlace{
			savedFood("Ichiran Ramen Shibuya", 35.6595, 139.7005),
			savedFood("Afuri", 35.6590, 139.7100),
		}
		mockRepo.On("GetByTrip", mock.Anything, tripID, false).Return(places, nil).Once()
		mockSearch.On("SearchNearby", mock.Anything, mock.Anything).Return([]types.PlaceSearchResult{}, nil).Once()

		// "Ichiran Ramen" is a substring of the saved "Ichiran Ramen Shibuya".
		resp, err := service.FindAlternatives(ctx, tripID, types.FindAlternativesRequest{ReferencedName: "Ichiran Ramen"})
		require.NoError(t, err)
		assert.True(t, resp.Found)
		assert.Equal(t, "Ichiran Ramen Shibuya", resp.ReferencedPlace.Name)
	})

	t.Run("saved alternatives sorted by distance, external topped up", func(t *testing.T) {
		service, mockRepo, mockSearch := setupAlternativesServiceTest()
		referenced := savedFood("Ichiran Ramen", 35.6595, 139.7005)
		far := savedFood("Afuri Harajuku", 35.6685, 139.7100)
		near := savedFood("Nagi Golden Gai", 35.6600, 139.7040)
		shrine := types.SavedPlace{ID: uuid.New(), Name: "Meiji Shrine", Category: types.CategoryPlace}
		mockRepo.On("GetByTrip", mock.Anything, tripID, false).
			Return([]types.SavedPlace{referenced, far, near, shrine}, nil).Once()

		external := []types.PlaceSearchResult{
			{Name: "Afuri", Latitude: 35.659, Longitude: 139.709, OpenNow: true},  // dupes saved "Afuri Harajuku"
			{Name: "Mouko Tanmen", Latitude: 35.660, Longitude: 139.702, OpenNow: true},
		}
		mockSearch.On("SearchNearby", mock.Anything, mock.MatchedBy(func(p placesearch.SearchParams) bool {
			return p.RadiusMeters == ExternalSearchRadiusMeters && p.OpenNow
		})).Return(external, nil).Once()

		// User 10 km away: saved set still sorted by distance from the user.
		resp, err := service.FindAlternatives(ctx, tripID, types.FindAlternativesRequest{
			ReferencedName: "Ichiran Ramen",
			Reason:         "closed",
			Latitude:       floatPtr(35.7000),
			Longitude:      floatPtr(139.7700),
		})
		require.NoError(t, err)
		assert.True(t, resp.Found)
		require.Len(t, resp.FromSaved, 2)
		// Same-category only, referenced place excluded, distance sorted.
		assert.Equal(t, "Afuri Harajuku", resp.FromSaved[0].Name)
		assert.Equal(t, "Nagi Golden Gai", resp.FromSaved[1].Name)
		// 2 saved < 3: one external pick fills the gap, dedup dropped "Afuri".
		require.Len(t, resp.NewDiscoveries, 1)
		assert.Equal(t, "Mouko Tanmen", resp.NewDiscoveries[0].Name)
		mockRepo.AssertExpectations(t)
		mockSearch.AssertExpectations(t)
	})

	t.Run("three saved alternatives skip external search", func(t *testing.T) {
		service, mockRepo, mockSearch := setupAlternativesServiceTest()
		places := []types.SavedPlace{
			savedFood("Ref", 35.65, 139.70),
			savedFood("A", 35.651, 139.701),
			savedFood("B", 35.652, 139.702),
			savedFood("C", 35.653, 139.703),
		}
		mockRepo.On("GetByTrip", mock.Anything, tripID, false).Return(places, nil).Once()

		resp, err := service.FindAlternatives(ctx, tripID, types.FindAlternativesRequest{ReferencedName: "Ref"})
		require.NoError(t, err)
		assert.Len(t, resp.FromSaved, 3)
		assert.Empty(t, resp.NewDiscoveries)
		mockSearch.AssertNotCalled(t, "SearchNearby", mock.Anything, mock.Anything)
	})

	t.Run("no origin means no external search", func(t *testing.T) {
		service, mockRepo, mockSearch := setupAlternativesServiceTest()
		ref := types.SavedPlace{ID: uuid.New(), Name: "Unresolved Cafe", Category: types.CategoryFood}
		mockRepo.On("GetByTrip", mock.Anything, tripID, false).Return([]types.SavedPlace{ref}, nil).Once()

		resp, err := service.FindAlternatives(ctx, tripID, types.FindAlternativesRequest{ReferencedName: "Unresolved Cafe"})
		require.NoError(t, err)
		assert.True(t, resp.Found)
		assert.Empty(t, resp.FromSaved)
		assert.Empty(t, resp.NewDiscoveries)
		// Graceful fallback when both sets are empty.
		assert.NotEmpty(t, resp.Message)
		mockSearch.AssertNotCalled(t, "SearchNearby", mock.Anything, mock.Anything)
	})

	t.Run("external failure degrades to saved-only", func(t *testing.T) {
		service, mockRepo, mockSearch := setupAlternativesServiceTest()
		places := []types.SavedPlace{
			savedFood("Ref", 35.65, 139.70),
			savedFood("Only One", 35.651, 139.701),
		}
		mockRepo.On("GetByTrip", mock.Anything, tripID, false).Return(places, nil).Once()
		mockSearch.On("SearchNearby", mock.Anything, mock.Anything).Return(nil, errors.New("upstream timeout")).Once()

		resp, err := service.FindAlternatives(ctx, tripID, types.FindAlternativesRequest{ReferencedName: "Ref"})
		require.NoError(t, err)
		assert.True(t, resp.Found)
		assert.Len(t, resp.FromSaved, 1)
		assert.Empty(t, resp.NewDiscoveries)
	})

	t.Run("repository error propagates", func(t *testing.T) {
		service, mockRepo, _ := setupAlternativesServiceTest()
		mockRepo.On("GetByTrip", mock.Anything, tripID, false).Return(nil, errors.New("db down")).Once()

		_, err := service.FindAlternatives(ctx, tripID, types.FindAlternativesRequest{ReferencedName: "Ref"})
		require.Error(t, err)
	})
}
