package booking_test

import (
	"context"
	"testing"

	"camrent/internal/booking"
	"camrent/internal/models"
	"camrent/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemIDs(items []models.Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestFinder_FindAvailable(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(
		models.Item{ID: 3, Name: "C"},
		models.Item{ID: 1, Name: "A"},
		models.Item{ID: 2, Name: "B", Status: models.ItemMaintenance},
	)
	_, err := store.InsertBooking(ctx, models.BookingFields{
		ItemID: models.Int64Ptr(1), CustomerName: "Ann", Start: jan(1, 10), End: jan(3, 10), Price: 320,
	}, models.StatusBooked)
	require.NoError(t, err)

	finder := booking.NewFinder(store, store)

	t.Run("TouchingBoundaryIsFree", func(t *testing.T) {
		items, err := finder.FindAvailable(ctx, jan(3, 10), jan(5, 10))
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3}, itemIDs(items))
	})

	t.Run("OverlapExcludes", func(t *testing.T) {
		items, err := finder.FindAvailable(ctx, jan(2, 0), jan(2, 23))
		require.NoError(t, err)
		assert.Equal(t, []int64{3}, itemIDs(items))
	})

	t.Run("MaintenanceAlwaysExcluded", func(t *testing.T) {
		items, err := finder.FindAvailable(ctx, jan(20, 0), jan(21, 0))
		require.NoError(t, err)
		assert.NotContains(t, itemIDs(items), int64(2))
	})

	t.Run("ReturnedBookingStillBlocks", func(t *testing.T) {
		id, err := store.InsertBooking(ctx, models.BookingFields{
			ItemID: models.Int64Ptr(3), CustomerName: "Bo", Start: jan(15, 0), End: jan(16, 0),
		}, models.StatusReturned)
		require.NoError(t, err)
		defer store.DeleteBooking(ctx, id)

		items, err := finder.FindAvailable(ctx, jan(15, 12), jan(17, 0))
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, itemIDs(items))
	})

	t.Run("InvertedRange", func(t *testing.T) {
		_, err := finder.FindAvailable(ctx, jan(5, 0), jan(4, 0))
		assert.ErrorIs(t, err, booking.ErrInvalidRange)

		_, err = finder.FindAvailable(ctx, jan(5, 0), jan(5, 0))
		assert.ErrorIs(t, err, booking.ErrInvalidRange)
	})
}
