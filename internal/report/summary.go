package report

import (
	"strings"
	"time"

	"camrent/internal/models"
	"camrent/internal/pricing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const chatLayout = "2 Jan 15:04"

var printer = message.NewPrinter(language.English)

// FormatAmount renders a price with thousands separators.
func FormatAmount(v int64) string {
	return printer.Sprintf("%d", v)
}

// Summary renders the plain-text booking summary sent to customers.
// The promotion line is omitted for the identity promotion and the footer
// block only appears when footer is set.
func Summary(b models.Booking, promo pricing.Promotion, footer string, loc *time.Location) string {
	item := "Unspecified item"
	if b.ItemName != nil && *b.ItemName != "" {
		item = *b.ItemName
	}

	var sb strings.Builder
	sb.WriteString("Booking summary\n")
	sb.WriteString("Customer: " + b.CustomerName + "\n")
	sb.WriteString("Item: " + item + "\n")
	sb.WriteString("Pickup: " + b.Start.In(loc).Format(chatLayout) + "\n")
	sb.WriteString("Return: " + b.End.In(loc).Format(chatLayout) + "\n")
	if promo.ID != "" && promo.ID != pricing.NoneID {
		sb.WriteString("Promotion: " + promo.Label + "\n")
	}
	sb.WriteString("Total: " + FormatAmount(b.Price))
	if footer = strings.TrimSpace(footer); footer != "" {
		sb.WriteString("\n-------------------------\n")
		sb.WriteString(footer)
	}
	return sb.String()
}
