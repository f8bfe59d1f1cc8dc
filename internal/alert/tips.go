package alert

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// tightDays is how close a forecast exhaustion must be before Tips asks
// for a concrete daily cut.
const tightDays = 5

// cutShare is the share of the daily burn rate to cut when exhaustion is
// close.
var cutShare = decimal.RequireFromString("0.3")

// Tips returns savings advice for an assessment, most specific first. An
// envelope at LevelOK gets none.
func Tips(a Assessment) []string {
	switch a.Level {
	case LevelOver:
		return []string{
			"Consider reviewing and raising this envelope's limit.",
			"Look for purchases that can be postponed or trimmed.",
			"Review recent expenses in this envelope for excess.",
		}
	case LevelAlert:
		var tips []string
		if a.Forecast != nil && a.BurnRate.IsPositive() && !a.AssessedAt.IsZero() {
			days := int(a.Forecast.Sub(a.AssessedAt) / (24 * time.Hour))
			if days <= tightDays {
				tips = append(tips, fmt.Sprintf("Try to spend about %s/day less to stay within the limit.",
					a.BurnRate.Mul(cutShare).StringFixed(2)))
			}
		}
		return append(tips,
			"Avoid non-essential purchases in this envelope.",
			"Look for cheaper alternatives.",
		)
	case LevelAttention:
		return []string{
			"Keep a closer eye on this envelope.",
			"There is still room, but the pace is fast.",
		}
	default:
		return nil
	}
}
