package report

import (
	"fmt"
	"io"
	"time"

	"camrent/internal/models"
	"github.com/xuri/excelize/v2"
)

// SheetWriter writes tabular data sheet by sheet.
type SheetWriter interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []interface{}) error
	Save(w io.Writer) error
	Close() error
}

// ExcelizeWriter implements SheetWriter with excelize.
type ExcelizeWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func NewExcelizeWriter() *ExcelizeWriter {
	return &ExcelizeWriter{file: excelize.NewFile()}
}

func (w *ExcelizeWriter) AddSheet(name string) error {
	// Excel limits sheet names to 31 characters.
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	row := make([]interface{}, len(columns))
	for i, col := range columns {
		row[i] = col
	}
	if err := w.WriteRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		header := w.currentRow - 1
		startCell, _ := excelize.CoordinatesToCellName(1, header)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), header)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}
	return nil
}

func (w *ExcelizeWriter) WriteRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.currentSheet, cell, &row); err != nil {
		return err
	}

	w.currentRow++
	return nil
}

func (w *ExcelizeWriter) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

func (w *ExcelizeWriter) Close() error {
	return w.file.Close()
}

var bookingColumns = []string{"ID", "Item ID", "Item", "Customer", "Start", "End", "Total Price", "Status"}

// BookingRow flattens a booking for tabular exports. Times are rendered in loc.
func BookingRow(b models.Booking, loc *time.Location) []interface{} {
	var itemID interface{} = ""
	if b.ItemID != nil {
		itemID = *b.ItemID
	}
	itemName := ""
	if b.ItemName != nil {
		itemName = *b.ItemName
	}
	return []interface{}{
		b.ID,
		itemID,
		itemName,
		b.CustomerName,
		b.Start.In(loc).Format("2006-01-02 15:04"),
		b.End.In(loc).Format("2006-01-02 15:04"),
		b.Price,
		string(b.Status),
	}
}

// BookingColumns returns the header matching BookingRow.
func BookingColumns() []string {
	return append([]string(nil), bookingColumns...)
}

// WriteWorkbook exports bookings and their revenue breakdown as two sheets.
func WriteWorkbook(sw SheetWriter, out io.Writer, bookings []models.Booking, loc *time.Location) error {
	if err := sw.AddSheet("Bookings"); err != nil {
		return err
	}
	if err := sw.WriteHeader(bookingColumns); err != nil {
		return err
	}
	for _, b := range bookings {
		if err := sw.WriteRow(BookingRow(b, loc)); err != nil {
			return fmt.Errorf("write booking %d: %w", b.ID, err)
		}
	}

	rev := ComputeRevenue(bookings, loc)
	if err := sw.AddSheet("Revenue"); err != nil {
		return err
	}
	if err := sw.WriteHeader([]string{"Month", "Bookings", "Total"}); err != nil {
		return err
	}
	for _, m := range rev.Months {
		if err := sw.WriteRow([]interface{}{m.Month, m.Count, m.Total}); err != nil {
			return err
		}
	}
	if err := sw.WriteRow([]interface{}{"All", len(bookings), rev.Total}); err != nil {
		return err
	}

	return sw.Save(out)
}
