package geocode

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

// MockClient is a mock implementation of Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Geocode(ctx context.Context, address string) ([]types.GeocodeCandidate, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.GeocodeCandidate), args.Error(1)
}

func TestResolve(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	t.Run("scores the best candidate", func(t *testing.T) {
		client := new(MockClient)
		svc := NewServiceImpl(client, logger)

		client.On("Geocode", mock.Anything, "Ichiran Ramen, Shibuya").Return([]types.GeocodeCandidate{{
			FormattedAddress:  "Ichiran Ramen, 1-22-7 Jinnan, Shibuya City, Tokyo",
			Latitude:          35.6617,
			Longitude:         139.7041,
			ResultTypes:       []string{"establishment", "restaurant"},
			AddressComponents: 6,
		}}, nil).Once()

		result, err := svc.Resolve(ctx, "Ichiran Ramen, Shibuya")

		require.NoError(t, err)
		assert.True(t, result.Found)
		assert.Equal(t, 35.6617, result.Latitude)
		assert.Equal(t, types.TierHigh, result.Confidence.Tier)
		assert.Equal(t, 100, result.Confidence.Score)
	})

	t.Run("outage degrades to unresolved instead of failing", func(t *testing.T) {
		client := new(MockClient)
		svc := NewServiceImpl(client, logger)

		client.On("Geocode", mock.Anything, "anywhere").Return(nil, errors.New("timeout")).Once()

		result, err := svc.Resolve(ctx, "anywhere")

		require.NoError(t, err)
		assert.False(t, result.Found)
		assert.Equal(t, types.TierLow, result.Confidence.Tier)
	})

	t.Run("no candidates means not found", func(t *testing.T) {
		client := new(MockClient)
		svc := NewServiceImpl(client, logger)

		client.On("Geocode", mock.Anything, "gibberish").Return([]types.GeocodeCandidate{}, nil).Once()

		result, err := svc.Resolve(ctx, "gibberish")

		require.NoError(t, err)
		assert.False(t, result.Found)
	})
}
