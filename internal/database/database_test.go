package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"camrent/internal/booking"
	"camrent/internal/config"
	"camrent/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "camrent.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mar(d, hour int) time.Time {
	return time.Date(2026, time.March, d, hour, 0, 0, 0, time.UTC)
}

func TestItems(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.UpsertItem(ctx, 2, "Canon R50"))
	require.NoError(t, db.UpsertItem(ctx, 1, "Fujifilm X-T30"))
	require.NoError(t, db.SetItemStatus(ctx, 1, models.ItemMaintenance))
	require.NoError(t, db.UpsertItem(ctx, 1, "Fujifilm X-T30 II"))

	items, err := db.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "Fujifilm X-T30 II", items[0].Name)
	assert.Equal(t, models.ItemMaintenance, items[0].Status)
	assert.Equal(t, models.ItemAvailable, items[1].Status)

	missing, err := db.GetItem(ctx, 9)
	assert.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, db.SetItemStatus(ctx, 9, models.ItemAvailable), booking.ErrNotFound)
}

func TestBookings(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.UpsertItem(ctx, 1, "Fujifilm X-T30"))

	bangkok := time.FixedZone("ICT", 7*3600)
	late, err := db.InsertBooking(ctx, models.BookingFields{
		ItemID: models.Int64Ptr(1), CustomerName: "Late", Start: mar(5, 10), End: mar(6, 10), Price: 160,
	}, models.StatusBooked)
	require.NoError(t, err)
	early, err := db.InsertBooking(ctx, models.BookingFields{
		ItemID: models.Int64Ptr(1), CustomerName: "Early", Start: mar(1, 10).In(bangkok), End: mar(3, 10), Price: 320,
	}, models.StatusBooked)
	require.NoError(t, err)
	orphan, err := db.InsertBooking(ctx, models.BookingFields{
		ItemID: models.Int64Ptr(7), CustomerName: "Orphan", Start: mar(2, 0), End: mar(2, 5),
	}, models.StatusBooked)
	require.NoError(t, err)

	all, err := db.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{early, orphan, late}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.True(t, all[0].Start.Equal(mar(1, 10)))
	assert.Equal(t, 7*3600, models.ZoneOffset(all[0].Start))
	assert.Equal(t, "2026-03-01T17:00:00+07:00", all[0].Start.Format(time.RFC3339))
	assert.Equal(t, 0, models.ZoneOffset(all[0].End))
	require.NotNil(t, all[0].ItemName)
	assert.Equal(t, "Fujifilm X-T30", *all[0].ItemName)
	assert.Nil(t, all[1].ItemName)

	forItem, err := db.ListItemBookings(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, forItem, 2)

	require.NoError(t, db.UpdateBooking(ctx, late, models.BookingFields{
		CustomerName: "Later", Start: mar(7, 10), End: mar(8, 10), Price: 150,
	}))
	require.NoError(t, db.UpdateBookingStatus(ctx, late, models.StatusReturned))
	got, err := db.GetBooking(ctx, late)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.ItemID)
	assert.Equal(t, "Later", got.CustomerName)
	assert.Equal(t, int64(150), got.Price)
	assert.Equal(t, models.StatusReturned, got.Status)

	require.NoError(t, db.DeleteBooking(ctx, late))
	assert.ErrorIs(t, db.DeleteBooking(ctx, late), booking.ErrNotFound)
	assert.ErrorIs(t, db.UpdateBookingStatus(ctx, late, models.StatusBooked), booking.ErrNotFound)
	missing, err := db.GetBooking(ctx, late)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWithItemLock(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.UpsertItem(ctx, 1, "Fujifilm X-T30"))

	t.Run("RollbackOnError", func(t *testing.T) {
		err := db.WithItemLock(ctx, models.Int64Ptr(1), func(ctx context.Context, tx booking.Store) error {
			if _, err := tx.InsertBooking(ctx, models.BookingFields{
				ItemID: models.Int64Ptr(1), CustomerName: "Ghost", Start: mar(1, 0), End: mar(2, 0),
			}, models.StatusBooked); err != nil {
				return err
			}
			return booking.ErrConflict
		})
		assert.ErrorIs(t, err, booking.ErrConflict)

		all, err := db.ListBookings(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("ConcurrentCreatesAdmitOne", func(t *testing.T) {
		mgr := booking.NewManager(db, nil)
		var wg sync.WaitGroup
		results := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := mgr.Create(ctx, models.BookingFields{
					ItemID: models.Int64Ptr(1), CustomerName: "Racer", Start: mar(10, 0), End: mar(12, 0),
				})
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		ok := 0
		for err := range results {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, booking.ErrConflict)
		}
		assert.Equal(t, 1, ok)
	})
}

func TestBackupService(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.UpsertItem(ctx, 1, "Fujifilm X-T30"))

	dir := t.TempDir()
	cfg := &config.Config{Backup: config.BackupConfig{Enabled: true, Path: dir, RetentionDays: 7}}
	logger := zerolog.New(io.Discard)
	svc := NewBackupService(db, cfg, &logger)

	path, err := svc.PerformBackup(ctx)
	require.NoError(t, err)

	restored, err := NewDB(path, &logger)
	require.NoError(t, err)
	defer restored.Close()
	items, err := restored.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Fujifilm X-T30", items[0].Name)

	stale := filepath.Join(dir, backupPrefix+"20000101_000000.db")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(stale, old, old))
	foreign := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))
	require.NoError(t, os.Chtimes(foreign, old, old))

	assert.Equal(t, 1, svc.CleanupOldBackups())
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(foreign)
	assert.NoError(t, err)
}
