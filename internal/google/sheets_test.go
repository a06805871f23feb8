package google

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"camrent/internal/events"
	"camrent/internal/models"
	"camrent/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockValues struct {
	mock.Mock
}

func (m *mockValues) Clear(ctx context.Context, id, rng string) error {
	return m.Called(ctx, id, rng).Error(0)
}

func (m *mockValues) Update(ctx context.Context, id, rng string, rows [][]interface{}) error {
	return m.Called(ctx, id, rng, rows).Error(0)
}

func TestBookingRowValues(t *testing.T) {
	name := "Test Item"
	b := &models.Booking{
		ID:           123,
		ItemID:       models.Int64Ptr(789),
		ItemName:     &name,
		CustomerName: "Test User",
		Start:        time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 12, 27, 10, 0, 0, 0, time.UTC),
		Price:        320,
		Status:       models.StatusBooked,
	}

	values := bookingRowValues(b, time.UTC)

	expected := []interface{}{
		int64(123),
		int64(789),
		"Test Item",
		"Test User",
		"2024-12-25 10:00",
		"2024-12-27 10:00",
		int64(320),
		"booked",
	}
	assert.Equal(t, expected, values)

	b.ItemID, b.ItemName = nil, nil
	values = bookingRowValues(b, time.UTC)
	assert.Equal(t, "", values[1])
	assert.Equal(t, "", values[2])
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	store := repository.NewMemoryStore(models.Item{ID: 1, Name: "A"})
	_, err := store.InsertBooking(ctx, models.BookingFields{
		ItemID: models.Int64Ptr(1), CustomerName: "Ann",
		Start: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}, models.StatusBooked)
	require.NoError(t, err)

	api := new(mockValues)
	svc := NewSheetsService(api, store, "sheet-id", "Bookings", time.UTC, &logger)

	api.On("Clear", ctx, "sheet-id", "Bookings!A:H").Return(nil).Once()
	api.On("Update", ctx, "sheet-id", "Bookings!A1", mock.MatchedBy(func(rows [][]interface{}) bool {
		return len(rows) == 2 && rows[0][0] == "ID" && rows[1][3] == "Ann"
	})).Return(nil).Once()

	require.NoError(t, svc.Sync(ctx))
	api.AssertExpectations(t)

	api.On("Clear", ctx, "sheet-id", "Bookings!A:H").Return(errors.New("quota")).Once()
	assert.Error(t, svc.Sync(ctx))
}

func TestTriggerCoalesces(t *testing.T) {
	logger := zerolog.New(io.Discard)
	svc := NewSheetsService(new(mockValues), repository.NewMemoryStore(), "id", "Bookings", time.UTC, &logger)
	bus := events.NewEventBus()
	svc.Subscribe(bus)

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.PublishJSON(events.BookingCreated, events.BookingPayload{BookingID: int64(i)}))
	}
	require.NoError(t, bus.PublishJSON(events.ItemStatusChanged, events.ItemPayload{ItemID: 1}))

	assert.Len(t, svc.trigger, 1)
}

func TestRun(t *testing.T) {
	logger := zerolog.New(io.Discard)
	api := new(mockValues)
	svc := NewSheetsService(api, repository.NewMemoryStore(), "id", "Bookings", time.UTC, &logger)

	synced := make(chan struct{}, 2)
	api.On("Clear", mock.Anything, "id", "Bookings!A:H").Return(nil)
	api.On("Update", mock.Anything, "id", "Bookings!A1", mock.Anything).
		Run(func(mock.Arguments) { synced <- struct{}{} }).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		t.Fatal("initial sync did not run")
	}
}
