package notify

import (
	"context"
	"io"
	"testing"
	"time"

	"camrent/internal/models"
	"camrent/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	msgs []string
}

func (c *captured) Enqueue(text string) bool {
	c.msgs = append(c.msgs, text)
	return true
}

func digestStore(t *testing.T, loc *time.Location) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore(models.Item{ID: 1, Name: "Fujifilm X-T30"}, models.Item{ID: 2, Name: "Sony A6400"})
	ctx := context.Background()
	add := func(item int64, customer string, start, end time.Time) int64 {
		id, err := store.InsertBooking(ctx, models.BookingFields{
			ItemID: models.Int64Ptr(item), CustomerName: customer, Start: start, End: end, Price: 160,
		}, models.StatusBooked)
		require.NoError(t, err)
		return id
	}
	add(1, "Alice", time.Date(2026, 1, 2, 10, 0, 0, 0, loc), time.Date(2026, 1, 4, 10, 0, 0, 0, loc))
	add(2, "Bob", time.Date(2025, 12, 30, 9, 0, 0, 0, loc), time.Date(2026, 1, 2, 18, 30, 0, 0, loc))
	done := add(2, "Carol", time.Date(2025, 12, 20, 9, 0, 0, 0, loc), time.Date(2026, 1, 2, 8, 0, 0, 0, loc))
	require.NoError(t, store.UpdateBookingStatus(ctx, done, models.StatusReturned))
	return store
}

func TestDigest_RunNow(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	logger := zerolog.New(io.Discard)
	out := &captured{}
	d := NewDigest(DigestConfig{Hour: 9, Location: loc}, digestStore(t, loc), out, &logger)

	require.NoError(t, d.RunNow(context.Background(), time.Date(2026, 1, 2, 12, 0, 0, 0, loc)))
	require.Len(t, out.msgs, 1)
	assert.Equal(t,
		"Handovers for Fri 2 Jan\n"+
			"Pickups:\n10:00 #1 Alice - Fujifilm X-T30\n"+
			"Returns:\n18:30 #2 Bob - Sony A6400",
		out.msgs[0])

	require.NoError(t, d.RunNow(context.Background(), time.Date(2026, 1, 10, 12, 0, 0, 0, loc)))
	assert.Len(t, out.msgs, 1)
}

func TestDigest_CheckAndRun(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	logger := zerolog.New(io.Discard)
	out := &captured{}
	d := NewDigest(DigestConfig{Hour: 9, Minute: 30, Location: loc}, digestStore(t, loc), out, &logger)

	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, loc)
	d.now = func() time.Time { return clock }
	assert.False(t, d.checkAndRun(context.Background()))

	clock = time.Date(2026, 1, 1, 9, 45, 0, 0, loc)
	assert.True(t, d.checkAndRun(context.Background()))
	assert.False(t, d.checkAndRun(context.Background()))
	require.Len(t, out.msgs, 1)
	assert.Contains(t, out.msgs[0], "Fri 2 Jan")

	clock = time.Date(2026, 1, 2, 10, 0, 0, 0, loc)
	assert.True(t, d.checkAndRun(context.Background()))
	// Jan 3 has no handovers.
	assert.Len(t, out.msgs, 1)
}
