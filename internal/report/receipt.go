package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"camrent/internal/models"
	"camrent/internal/pricing"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// ReceiptOptions configures the PDF receipt.
type ReceiptOptions struct {
	Promotion pricing.Promotion
	Footer    string
	// BaseURL, when set, is encoded as a QR code pointing at the booking.
	BaseURL  string
	Location *time.Location
}

// Receipt renders a single-page PDF receipt for a booking.
func Receipt(b models.Booking, opts ReceiptOptions) ([]byte, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, "RENTAL RECEIPT")
	pdf.Ln(20)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 62, "F")

	item := "Unspecified item"
	if b.ItemName != nil && *b.ItemName != "" {
		item = *b.ItemName
	}

	pdf.SetXY(20, yStart+7)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "BOOKING SUMMARY")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking ID: %d", b.ID),
		"Customer: " + b.CustomerName,
		"Item: " + item,
		"Pickup: " + b.Start.In(loc).Format("2 Jan 2006 15:04"),
		"Return: " + b.End.In(loc).Format("2 Jan 2006 15:04"),
		fmt.Sprintf("Days: %d", pricing.Days(b.Start, b.End)),
	}
	if opts.Promotion.ID != "" && opts.Promotion.ID != pricing.NoneID {
		lines = append(lines, "Promotion: "+opts.Promotion.Label)
	}
	lines = append(lines, "Total: "+FormatAmount(b.Price))
	for _, line := range lines {
		pdf.SetX(20)
		pdf.Cell(0, 8, tr(line))
		pdf.Ln(6)
	}

	if opts.BaseURL != "" {
		url := fmt.Sprintf("%s/bookings/%d", strings.TrimRight(opts.BaseURL, "/"), b.ID)
		png, err := qrcode.Encode(url, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode qr: %w", err)
		}
		name := fmt.Sprintf("qr-%d", b.ID)
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(png))
		pdf.ImageOptions(name, 145, yStart+5, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")
	}

	pdf.SetY(yStart + 70)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", b.Status))

	if footer := strings.TrimSpace(opts.Footer); footer != "" {
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(15, 270, 195, 270)
		pdf.SetXY(15, 273)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(footer), "", "C", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
