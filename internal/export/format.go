package export

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/opencanteen/opencanteen/internal/report"
)

var printer = message.NewPrinter(language.English)

// formatAmount renders a peso amount with thousands separators.
func formatAmount(value float64) string {
	return printer.Sprintf("%.2f", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("January 2, 2006")
}

// categoryLabel turns a category slug into a document heading.
func categoryLabel(c report.Category) string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "he" {
			words[i] = "HE"
			continue
		}
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func periodLabel(year int, month time.Month) string {
	return month.String() + " " + strconv.Itoa(year)
}
