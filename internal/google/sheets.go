// Package google mirrors the booking list into a Google Sheets worksheet.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"camrent/internal/events"
	"camrent/internal/models"
	"camrent/internal/report"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ValuesWriter is the subset of the Sheets values API the mirror needs.
type ValuesWriter interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error
}

// BookingLister returns all bookings ordered by start.
type BookingLister interface {
	ListBookings(ctx context.Context) ([]models.Booking, error)
}

type sheetsValues struct {
	svc *sheets.Service
}

// NewValuesWriter authenticates with a service account key file.
func NewValuesWriter(ctx context.Context, credentialsFile string) (ValuesWriter, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &sheetsValues{svc: svc}, nil
}

func (s *sheetsValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s *sheetsValues) Update(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// SheetsService rewrites the worksheet whenever bookings change. Bursts of
// events collapse into a single rewrite.
type SheetsService struct {
	api           ValuesWriter
	bookings      BookingLister
	spreadsheetID string
	sheetName     string
	loc           *time.Location
	trigger       chan struct{}
	logger        *zerolog.Logger
}

func NewSheetsService(api ValuesWriter, bookings BookingLister, spreadsheetID, sheetName string, loc *time.Location, logger *zerolog.Logger) *SheetsService {
	if loc == nil {
		loc = time.Local
	}
	return &SheetsService{
		api:           api,
		bookings:      bookings,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		loc:           loc,
		trigger:       make(chan struct{}, 1),
		logger:        logger,
	}
}

// Subscribe schedules a sync on every booking event.
func (s *SheetsService) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.All, func(e events.Event) error {
		if strings.HasPrefix(e.Type, "booking.") {
			s.Trigger()
		}
		return nil
	})
}

// Trigger requests a sync without blocking.
func (s *SheetsService) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run performs an initial sync and then one sync per trigger until ctx is done.
func (s *SheetsService) Run(ctx context.Context) {
	s.Trigger()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			if err := s.Sync(ctx); err != nil {
				s.logger.Error().Err(err).Str("sheet", s.sheetName).Msg("Sheets sync failed")
				continue
			}
			s.logger.Debug().Str("sheet", s.sheetName).Msg("Sheets sync completed")
		}
	}
}

// Sync rewrites the worksheet with the current booking list.
func (s *SheetsService) Sync(ctx context.Context) error {
	bookings, err := s.bookings.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	rows := make([][]interface{}, 0, len(bookings)+1)
	header := make([]interface{}, 0, len(report.BookingColumns()))
	for _, col := range report.BookingColumns() {
		header = append(header, col)
	}
	rows = append(rows, header)
	for i := range bookings {
		rows = append(rows, bookingRowValues(&bookings[i], s.loc))
	}

	if err := s.api.Clear(ctx, s.spreadsheetID, s.sheetName+"!A:H"); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}
	if err := s.api.Update(ctx, s.spreadsheetID, s.sheetName+"!A1", rows); err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}
	return nil
}

func bookingRowValues(b *models.Booking, loc *time.Location) []interface{} {
	return report.BookingRow(*b, loc)
}
