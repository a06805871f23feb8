package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"camrent/internal/models"
	"camrent/internal/report"
	"github.com/rs/zerolog"
)

// DigestConfig holds the daily run time of the handover digest.
type DigestConfig struct {
	Hour          int
	Minute        int
	CheckInterval time.Duration
	Location      *time.Location
}

// BookingLister lists every booking.
type BookingLister interface {
	ListBookings(ctx context.Context) ([]models.Booking, error)
}

// Enqueuer accepts outgoing messages.
type Enqueuer interface {
	Enqueue(text string) bool
}

// Digest sends staff a list of tomorrow's pickups and returns once a day.
type Digest struct {
	cfg      DigestConfig
	bookings BookingLister
	out      Enqueuer
	logger   *zerolog.Logger
	now      func() time.Time

	mu          sync.Mutex
	lastRunDate string // YYYY-MM-DD of last run
}

func NewDigest(cfg DigestConfig, bookings BookingLister, out Enqueuer, logger *zerolog.Logger) *Digest {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Digest{cfg: cfg, bookings: bookings, out: out, logger: logger, now: time.Now}
}

// Start checks the clock every CheckInterval until ctx is done.
func (d *Digest) Start(ctx context.Context) {
	d.logger.Info().
		Str("daily_time", fmt.Sprintf("%02d:%02d", d.cfg.Hour, d.cfg.Minute)).
		Str("timezone", d.cfg.Location.String()).
		Msg("Handover digest scheduled")

	ticker := time.NewTicker(d.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.checkAndRun(ctx)
		}
	}
}

// checkAndRun sends the digest once per local day, on the first check at or after the configured time.
func (d *Digest) checkAndRun(ctx context.Context) bool {
	now := d.now().In(d.cfg.Location)
	today := now.Format("2006-01-02")

	d.mu.Lock()
	if d.lastRunDate == today {
		d.mu.Unlock()
		return false
	}
	due := time.Date(now.Year(), now.Month(), now.Day(), d.cfg.Hour, d.cfg.Minute, 0, 0, d.cfg.Location)
	if now.Before(due) {
		d.mu.Unlock()
		return false
	}
	d.lastRunDate = today
	d.mu.Unlock()

	tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 12, 0, 0, 0, d.cfg.Location)
	if err := d.RunNow(ctx, tomorrow); err != nil {
		d.logger.Error().Err(err).Msg("Handover digest failed")
	}
	return true
}

// RunNow queues the digest for the local day containing day. Nothing is sent
// when there are no open handovers that day.
func (d *Digest) RunNow(ctx context.Context, day time.Time) error {
	bookings, err := d.bookings.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	h := report.DayHandovers(bookings, day, d.cfg.Location)
	h.Pickups = openOnly(h.Pickups)
	h.Returns = openOnly(h.Returns)
	if len(h.Pickups) == 0 && len(h.Returns) == 0 {
		d.logger.Debug().Str("day", day.In(d.cfg.Location).Format("2006-01-02")).Msg("No handovers, digest skipped")
		return nil
	}
	d.out.Enqueue(FormatDigest(day, h, d.cfg.Location))
	return nil
}

// FormatDigest renders the handover list for one day.
func FormatDigest(day time.Time, h report.Handovers, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("Handovers for " + day.In(loc).Format("Mon 2 Jan"))
	writeSection(&sb, "Pickups", h.Pickups, func(b models.Booking) time.Time { return b.Start }, loc)
	writeSection(&sb, "Returns", h.Returns, func(b models.Booking) time.Time { return b.End }, loc)
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, bookings []models.Booking, at func(models.Booking) time.Time, loc *time.Location) {
	if len(bookings) == 0 {
		return
	}
	sb.WriteString("\n" + title + ":")
	for _, b := range bookings {
		item := "Unspecified item"
		if b.ItemName != nil {
			item = *b.ItemName
		}
		fmt.Fprintf(sb, "\n%s #%d %s - %s", at(b).In(loc).Format("15:04"), b.ID, b.CustomerName, item)
	}
}

func openOnly(bookings []models.Booking) []models.Booking {
	out := bookings[:0]
	for _, b := range bookings {
		if b.Status == models.StatusBooked {
			out = append(out, b)
		}
	}
	return out
}
