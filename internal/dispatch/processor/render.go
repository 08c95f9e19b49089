package processor

import (
	"fmt"
	"math"
	"strings"
	"time"

	"autosales/internal/store"
)

// RenderTemplate fills a template body with one contact's data.
// Missing contact fields fall back to neutral text so a message never
// ships with a raw placeholder.
func RenderTemplate(content string, contact store.Contact, now time.Time) string {
	name := contact.Name
	if name == "" {
		name = "Cliente"
	}

	value := "N/A"
	if contact.Value != nil {
		value = formatCurrency(*contact.Value)
	}

	dueDate := "N/A"
	if contact.DueDate != nil {
		dueDate = contact.DueDate.Format("02/01/2006")
	}

	overdue := "0"
	if contact.DueDate != nil {
		overdue = fmt.Sprintf("%d", daysOverdue(*contact.DueDate, now))
	}

	rendered := content
	rendered = strings.ReplaceAll(rendered, "{nome}", name)
	rendered = strings.ReplaceAll(rendered, "{valor}", value)
	rendered = strings.ReplaceAll(rendered, "{dataVencimento}", dueDate)
	rendered = strings.ReplaceAll(rendered, "{diasAtraso}", overdue)
	return rendered
}

// formatCurrency renders a value in Brazilian currency notation,
// thousands separated by dots and decimals by a comma.
func formatCurrency(value float64) string {
	negative := value < 0
	cents := int64(math.Round(math.Abs(value) * 100))
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), frac)
}

// daysOverdue counts whole days past the due date, never negative
func daysOverdue(dueDate, now time.Time) int {
	due := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(today.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
