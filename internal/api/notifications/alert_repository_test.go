package notifications

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-companion/internal/types"
)

func TestPostgresAlertLogRepo(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	repo := NewPostgresAlertLogRepo(mockPool, logger)
	ctx := context.Background()

	userID := uuid.New()
	tripID := uuid.New()

	t.Run("Append inserts one row", func(t *testing.T) {
		alert := types.ProximityAlert{
			UserID:  userID,
			TripID:  &tripID,
			PlaceID: uuid.New(),
			SentAt:  time.Now().UTC(),
		}

		mockPool.ExpectExec(`INSERT INTO proximity_alerts`).
			WithArgs(alert.UserID, alert.TripID, alert.PlaceID, alert.SentAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Append(ctx, alert)

		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("CountSince counts across all trips", func(t *testing.T) {
		cutoff := time.Now().Add(-CooldownWindow)

		mockPool.ExpectQuery(`SELECT COUNT\(\*\) FROM proximity_alerts`).
			WithArgs(userID, cutoff).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

		count, err := repo.CountSince(ctx, userID, cutoff)

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("CountSince wraps database errors", func(t *testing.T) {
		cutoff := time.Now().Add(-CooldownWindow)

		mockPool.ExpectQuery(`SELECT COUNT\(\*\) FROM proximity_alerts`).
			WithArgs(userID, cutoff).
			WillReturnError(errors.New("connection reset"))

		count, err := repo.CountSince(ctx, userID, cutoff)

		require.Error(t, err)
		assert.Zero(t, count)
	})
}
