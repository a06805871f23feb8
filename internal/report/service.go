package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"camrent/internal/models"
)

// Source is the read side of the store.
type Source interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
}

// Service loads current state and computes projections in a fixed timezone.
type Service struct {
	src Source
	loc *time.Location
}

func NewService(src Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{src: src, loc: loc}
}

// Location returns the timezone calendar days are computed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) Daily(ctx context.Context, day time.Time) ([]ItemDay, error) {
	items, bookings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return DailySchedule(items, bookings, day, s.loc), nil
}

func (s *Service) Monthly(ctx context.Context, year int, month time.Month) ([]ItemMonth, error) {
	items, bookings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return MonthlyGrid(items, bookings, year, month, s.loc), nil
}

func (s *Service) Handovers(ctx context.Context, day time.Time) (Handovers, error) {
	bookings, err := s.src.ListBookings(ctx)
	if err != nil {
		return Handovers{}, fmt.Errorf("list bookings: %w", err)
	}
	return DayHandovers(bookings, day, s.loc), nil
}

func (s *Service) Revenue(ctx context.Context) (Revenue, error) {
	bookings, err := s.src.ListBookings(ctx)
	if err != nil {
		return Revenue{}, fmt.Errorf("list bookings: %w", err)
	}
	return ComputeRevenue(bookings, s.loc), nil
}

func (s *Service) Search(ctx context.Context, query string) ([]models.Booking, error) {
	bookings, err := s.src.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return SearchCustomers(bookings, query), nil
}

// Export writes the bookings workbook to out.
func (s *Service) Export(ctx context.Context, out io.Writer) error {
	bookings, err := s.src.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	w := NewExcelizeWriter()
	defer w.Close()
	return WriteWorkbook(w, out, bookings, s.loc)
}

func (s *Service) load(ctx context.Context) ([]models.Item, []models.Booking, error) {
	items, err := s.src.ListItems(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list items: %w", err)
	}
	bookings, err := s.src.ListBookings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list bookings: %w", err)
	}
	return items, bookings, nil
}
