package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"camrent/internal/models"
	"camrent/internal/pricing"
	"camrent/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var ict = time.FixedZone("ICT", 7*3600)

func local(m time.Month, d, hour int) time.Time {
	return time.Date(2026, m, d, hour, 0, 0, 0, ict)
}

func bk(id, item int64, customer string, start, end time.Time, price int64, status models.BookingStatus) models.Booking {
	name := "Item"
	return models.Booking{
		ID: id, ItemID: models.Int64Ptr(item), ItemName: &name, CustomerName: customer,
		Start: start, End: end, Price: price, Status: status,
	}
}

func fixtureItems() []models.Item {
	return []models.Item{
		{ID: 1, Name: "A", Status: models.ItemAvailable},
		{ID: 2, Name: "B", Status: models.ItemMaintenance},
		{ID: 3, Name: "C", Status: models.ItemAvailable},
		{ID: 4, Name: "D", Status: models.ItemAvailable},
		{ID: 5, Name: "E", Status: models.ItemAvailable},
	}
}

func fixtureBookings() []models.Booking {
	return []models.Booking{
		bk(1, 1, "Ann", local(time.January, 9, 10), local(time.January, 11, 10), 320, models.StatusBooked),
		bk(2, 3, "Bo Chan", local(time.January, 10, 14), local(time.January, 10, 18), 160, models.StatusReturned),
		bk(3, 4, "Cid", local(time.January, 10, 0), local(time.January, 11, 0), 160, models.StatusBooked),
		bk(4, 2, "Dee", local(time.January, 10, 0), local(time.January, 12, 0), 320, models.StatusBooked),
		bk(5, 5, "bob", local(time.January, 9, 8), local(time.January, 10, 0), 160, models.StatusBooked),
		bk(6, 1, "Eve", local(time.February, 3, 20), local(time.February, 5, 9), 320, models.StatusBooked),
		bk(7, 3, "Fay", local(time.February, 10, 8), local(time.February, 10, 18), 160, models.StatusReturned),
	}
}

func TestDailySchedule(t *testing.T) {
	rows := DailySchedule(fixtureItems(), fixtureBookings(), local(time.January, 10, 15), ict)
	require.Len(t, rows, 5)

	want := map[int64]DayStatus{1: DayFull, 2: DayMaintenance, 3: DayPartial, 4: DayFull, 5: DayFree}
	for _, row := range rows {
		assert.Equal(t, want[row.Item.ID], row.Status, "item %d", row.Item.ID)
	}
	assert.Empty(t, rows[1].Bookings)
	require.Len(t, rows[2].Bookings, 1)
	assert.Equal(t, int64(2), rows[2].Bookings[0].ID)
	assert.Empty(t, rows[4].Bookings, "touching booking ends at midnight")
}

func TestMonthlyGrid(t *testing.T) {
	grid := MonthlyGrid(fixtureItems(), fixtureBookings(), 2026, time.February, ict)
	require.Len(t, grid, 5)

	a := grid[0]
	require.Len(t, a.Days, 28)
	assert.Equal(t, DayFree, a.Days[1].Status)
	for _, d := range []int{3, 4, 5} {
		cell := a.Days[d-1]
		assert.Equal(t, DayBooked, cell.Status, "day %d", d)
		require.NotNil(t, cell.BookingID)
		assert.Equal(t, int64(6), *cell.BookingID)
		assert.Equal(t, "Eve", cell.Customer)
	}
	assert.Equal(t, DayFree, a.Days[5].Status)

	for _, cell := range grid[1].Days {
		assert.Equal(t, DayMaintenance, cell.Status)
	}
	assert.Equal(t, DayReturned, grid[2].Days[9].Status)
	assert.Equal(t, DayFree, grid[2].Days[10].Status)
}

func TestMonthlyGrid_WidensToWholeDays(t *testing.T) {
	items := []models.Item{{ID: 1, Status: models.ItemAvailable}}
	bookings := []models.Booking{
		bk(1, 1, "Late", local(time.March, 1, 20), local(time.March, 1, 23), 160, models.StatusBooked),
		bk(2, 1, "Early", local(time.March, 2, 1), local(time.March, 2, 3), 160, models.StatusBooked),
	}
	grid := MonthlyGrid(items, bookings, 2026, time.March, ict)
	assert.Equal(t, DayBooked, grid[0].Days[0].Status)
	assert.Equal(t, DayBooked, grid[0].Days[1].Status)
	assert.Equal(t, DayFree, grid[0].Days[2].Status)
}

func TestDayHandovers(t *testing.T) {
	h := DayHandovers(fixtureBookings(), local(time.January, 10, 9), ict)

	var pickups, returns []int64
	for _, b := range h.Pickups {
		pickups = append(pickups, b.ID)
	}
	for _, b := range h.Returns {
		returns = append(returns, b.ID)
	}
	assert.Equal(t, []int64{3, 4, 2}, pickups)
	assert.Equal(t, []int64{5, 2}, returns)
}

func TestSearchCustomers(t *testing.T) {
	got := SearchCustomers(fixtureBookings(), " BO ")
	require.Len(t, got, 2)
	assert.Equal(t, "Bo Chan", got[0].CustomerName)
	assert.Equal(t, "bob", got[1].CustomerName)

	assert.Empty(t, SearchCustomers(fixtureBookings(), ""))
	assert.Empty(t, SearchCustomers(fixtureBookings(), "zed"))
}

func TestComputeRevenue(t *testing.T) {
	rev := ComputeRevenue(fixtureBookings(), ict)
	assert.Equal(t, int64(1600), rev.Total)
	require.Len(t, rev.Months, 2)
	assert.Equal(t, MonthRevenue{Month: "2026-02", Total: 480, Count: 2}, rev.Months[0])
	assert.Equal(t, MonthRevenue{Month: "2026-01", Total: 1120, Count: 5}, rev.Months[1])

	empty := ComputeRevenue(nil, ict)
	assert.Zero(t, empty.Total)
	assert.NotNil(t, empty.Months)
}

func TestSummary(t *testing.T) {
	b := bk(9, 1, "Ann", local(time.January, 2, 10), local(time.January, 4, 10), 1288, models.StatusBooked)
	camera := "Fujifilm X-T30"
	b.ItemName = &camera

	promo := pricing.Promotion{ID: "ig_tag", Label: "Instagram post", Kind: pricing.KindPercent, Value: 10}
	got := Summary(b, promo, "Pay to: Bank 123", ict)
	assert.Equal(t, "Booking summary\n"+
		"Customer: Ann\n"+
		"Item: Fujifilm X-T30\n"+
		"Pickup: 2 Jan 10:00\n"+
		"Return: 4 Jan 10:00\n"+
		"Promotion: Instagram post\n"+
		"Total: 1,288\n"+
		"-------------------------\n"+
		"Pay to: Bank 123", got)

	b.ItemName = nil
	plain := Summary(b, pricing.None, "", ict)
	assert.NotContains(t, plain, "Promotion")
	assert.NotContains(t, plain, "----")
	assert.Contains(t, plain, "Item: Unspecified item")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "320", FormatAmount(320))
	assert.Equal(t, "1,234,567", FormatAmount(1234567))
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	w := NewExcelizeWriter()
	defer w.Close()
	require.NoError(t, WriteWorkbook(w, &buf, fixtureBookings(), ict))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, BookingColumns(), rows[0])
	assert.Equal(t, "Ann", rows[1][3])
	assert.Equal(t, "2026-01-09 10:00", rows[1][4])

	rev, err := f.GetRows("Revenue")
	require.NoError(t, err)
	require.Len(t, rev, 4)
	assert.Equal(t, []string{"2026-02", "2", "480"}, rev[1])
	assert.Equal(t, []string{"All", "7", "1600"}, rev[3])
}

func TestReceipt(t *testing.T) {
	b := bk(9, 1, "Ann", local(time.January, 2, 10), local(time.January, 4, 10), 320, models.StatusBooked)
	pdf, err := Receipt(b, ReceiptOptions{
		Promotion: pricing.None,
		Footer:    "Thank you",
		BaseURL:   "https://rent.example.com/",
		Location:  ict,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestService(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore(models.Item{ID: 1, Name: "A"})
	_, err := store.InsertBooking(ctx, models.BookingFields{
		ItemID: models.Int64Ptr(1), CustomerName: "Ann", Start: local(time.January, 9, 10), End: local(time.January, 11, 10), Price: 320,
	}, models.StatusBooked)
	require.NoError(t, err)

	svc := NewService(store, ict)

	daily, err := svc.Daily(ctx, local(time.January, 10, 0))
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, DayFull, daily[0].Status)

	rev, err := svc.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(320), rev.Total)

	found, err := svc.Search(ctx, "an")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf))
	assert.NotZero(t, buf.Len())
}
