// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/envelope/internal/alert"
)

// FormatMoney formats an amount with two decimals and comma separators.
// e.g., 1234.5 -> "1,234.50", -30 -> "-30.00"
func FormatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err == nil {
		whole = FormatNumber(n)
	}
	if d.IsNegative() && !d.Round(2).IsZero() {
		return "-" + whole + "." + frac
	}
	return whole + "." + frac
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 percentage.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDate formats a date as day/month/year.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatDueIn describes a countdown in days.
func FormatDueIn(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// FormatLevel returns a short label for an alert level.
func FormatLevel(l alert.Level) string {
	return strings.ToUpper(l.String())
}

// FormatForecast describes an exhaustion forecast relative to now.
func FormatForecast(at *time.Time, now time.Time) string {
	if at == nil {
		return "-"
	}
	days := int(at.Sub(now).Hours() / 24)
	return fmt.Sprintf("%s (%dd)", FormatDate(*at), days)
}
