package tripcontext

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

// MockTripRepository is a mock implementation of TripRepository
type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) GetTrip(ctx context.Context, tripID uuid.UUID) (*types.Trip, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

func (m *MockTripRepository) GetSegments(ctx context.Context, tripID uuid.UUID) ([]types.TripSegment, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TripSegment), args.Error(1)
}

func (m *MockTripRepository) ListActiveTrips(ctx context.Context, onDate time.Time) ([]types.Trip, error) {
	args := m.Called(ctx, onDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Trip), args.Error(1)
}

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

func setupContextServiceTest(now time.Time) (*ServiceImpl, *MockTripRepository, *MockPlaceRepository) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockTrips := new(MockTripRepository)
	mockPlaces := new(MockPlaceRepository)
	service := NewServiceImpl(mockTrips, mockPlaces, logger)
	service.now = func() time.Time { return now }
	return service, mockTrips, mockPlaces
}

func floatPtr(f float64) *float64 { return &f }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTimeOfDayBucket(t *testing.T) {
	assert.Equal(t, types.TimeMorning, TimeOfDayBucket(5))
	assert.Equal(t, types.TimeMorning, TimeOfDayBucket(11))
	assert.Equal(t, types.TimeAfternoon, TimeOfDayBucket(12))
	assert.Equal(t, types.TimeAfternoon, TimeOfDayBucket(16))
	assert.Equal(t, types.TimeEvening, TimeOfDayBucket(17))
	assert.Equal(t, types.TimeEvening, TimeOfDayBucket(20))
	assert.Equal(t, types.TimeNight, TimeOfDayBucket(21))
	assert.Equal(t, types.TimeNight, TimeOfDayBucket(4))
	assert.Equal(t, types.TimeNight, TimeOfDayBucket(0))
}

func TestSegmentSnapshots(t *testing.T) {
	tokyo := types.TripSegment{City: "Tokyo", StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 5)}
	kyoto := types.TripSegment{City: "Kyoto", StartDate: date(2026, 3, 6), EndDate: date(2026, 3, 9)}
	segments := []types.TripSegment{tokyo, kyoto}

	t.Run("mid-segment day math", func(t *testing.T) {
		current, next := segmentSnapshots(segments, date(2026, 3, 3))
		require.NotNil(t, current)
		assert.Equal(t, "Tokyo", current.Segment.City)
		assert.Equal(t, 3, current.DayNumber)
		assert.Equal(t, 5, current.TotalDays)
		assert.Equal(t, 2, current.DaysRemaining)
		assert.False(t, current.IsLastDay)
		require.NotNil(t, next)
		assert.Equal(t, "Kyoto", next.Segment.City)
		assert.Equal(t, 3, next.DaysUntil)
	})

	t.Run("last day flagged", func(t *testing.T) {
		current, _ := segmentSnapshots(segments, date(2026, 3, 5))
		require.NotNil(t, current)
		assert.True(t, current.IsLastDay)
		assert.Equal(t, 0, current.DaysRemaining)
	})

	t.Run("between segments only next is set", func(t *testing.T) {
		gapped := []types.TripSegment{
			{City: "Tokyo", StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 3)},
			{City: "Kyoto", StartDate: date(2026, 3, 6), EndDate: date(2026, 3, 9)},
		}
		current, next := segmentSnapshots(gapped, date(2026, 3, 4))
		assert.Nil(t, current)
		require.NotNil(t, next)
		assert.Equal(t, 2, next.DaysUntil)
	})

	t.Run("after the trip both are nil", func(t *testing.T) {
		current, next := segmentSnapshots(segments, date(2026, 3, 20))
		assert.Nil(t, current)
		assert.Nil(t, next)
	})
}

func TestBuildContext(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripID := uuid.New()

	trip := &types.Trip{
		ID: tripID, UserID: userID, Name: "Japan", Destination: "Japan",
		Timezone:  "Asia/Tokyo",
		StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 9),
	}
	segments := []types.TripSegment{
		{
			City: "Tokyo", StartDate: date(2026, 3, 1), EndDate: date(2026, 3, 5),
			AccommodationLatitude: floatPtr(35.6895), AccommodationLongitude: floatPtr(139.6917),
		},
	}

	rating := 4.7
	places := []types.SavedPlace{
		{ID: uuid.New(), Name: "Visited Temple", Status: types.StatusVisited},
		{ID: uuid.New(), Name: "Top Sushi", Status: types.StatusSaved, Rating: &rating},
		{ID: uuid.New(), Name: "Must See", Status: types.StatusSaved, MustVisit: true},
	}

	// 09:00 UTC on March 3rd is 18:00 in Tokyo.
	now := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)

	t.Run("full snapshot", func(t *testing.T) {
		service, mockTrips, mockPlaces := setupContextServiceTest(now)
		mockTrips.On("GetTrip", mock.Anything, tripID).Return(trip, nil).Once()
		mockTrips.On("GetSegments", mock.Anything, tripID).Return(segments, nil).Once()
		mockPlaces.On("GetByTrip", mock.Anything, tripID, false).Return(places, nil).Once()
		// No live location: nearby falls back to the accommodation.
		mockPlaces.On("FindNear", mock.Anything, userID, &tripID, 35.6895, 139.6917, float64(NearbyRadiusMeters)).
			Return([]types.SavedPlace{places[1]}, nil).Once()

		snapshot, err := service.BuildContext(ctx, userID, tripID, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, types.TimeEvening, snapshot.TimeOfDay)
		require.NotNil(t, snapshot.CurrentSegment)
		assert.Equal(t, 3, snapshot.CurrentSegment.DayNumber)
		assert.Equal(t, 1, snapshot.VisitedCount)
		assert.Equal(t, 2, snapshot.UnvisitedCount)
		require.Len(t, snapshot.TopRated, 1)
		assert.Equal(t, "Top Sushi", snapshot.TopRated[0].Name)
		require.Len(t, snapshot.MustVisit, 1)
		assert.Equal(t, "Must See", snapshot.MustVisit[0].Name)
		assert.Len(t, snapshot.NearbyPlaces, 1)
		mockTrips.AssertExpectations(t)
		mockPlaces.AssertExpectations(t)
	})

	t.Run("live location overrides accommodation", func(t *testing.T) {
		service, mockTrips, mockPlaces := setupContextServiceTest(now)
		mockTrips.On("GetTrip", mock.Anything, tripID).Return(trip, nil).Once()
		mockTrips.On("GetSegments", mock.Anything, tripID).Return(segments, nil).Once()
		mockPlaces.On("GetByTrip", mock.Anything, tripID, false).Return(places, nil).Once()
		mockPlaces.On("FindNear", mock.Anything, userID, &tripID, 35.6580, 139.7016, float64(NearbyRadiusMeters)).
			Return([]types.SavedPlace{}, nil).Once()

		_, err := service.BuildContext(ctx, userID, tripID, floatPtr(35.6580), floatPtr(139.7016))
		require.NoError(t, err)
		mockPlaces.AssertExpectations(t)
	})

	t.Run("nearby failure degrades to empty list", func(t *testing.T) {
		service, mockTrips, mockPlaces := setupContextServiceTest(now)
		mockTrips.On("GetTrip", mock.Anything, tripID).Return(trip, nil).Once()
		mockTrips.On("GetSegments", mock.Anything, tripID).Return(segments, nil).Once()
		mockPlaces.On("GetByTrip", mock.Anything, tripID, false).Return(places, nil).Once()
		mockPlaces.On("FindNear", mock.Anything, userID, &tripID, 35.6895, 139.6917, float64(NearbyRadiusMeters)).
			Return(nil, assert.AnError).Once()

		snapshot, err := service.BuildContext(ctx, userID, tripID, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, snapshot.NearbyPlaces)
	})

	t.Run("trip not found propagates", func(t *testing.T) {
		service, mockTrips, _ := setupContextServiceTest(now)
		mockTrips.On("GetTrip", mock.Anything, tripID).Return(nil, ErrTripNotFound).Once()

		_, err := service.BuildContext(ctx, userID, tripID, nil, nil)
		assert.ErrorIs(t, err, ErrTripNotFound)
	})
}
