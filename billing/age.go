package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// CONSULTATION AGE - "time since last paid consultation" display
// =============================================================================

// ConsultationAge renders the prior paid consultation as
// "<amount> - depuis <n> jour(s)/mois". A zero-equivalent amount or an
// unknown consultation date renders as "-". Elapsed time is measured in
// whole calendar months, falling back to whole days under one month.
func ConsultationAge(amountText string, consultedAt, now time.Time, amounts AmountFormatter) string {
	if ParseAmount(amountText).IsZero() || consultedAt.IsZero() {
		return StatusNone
	}

	months := monthsBetween(consultedAt, now)
	days := daysBetween(consultedAt, now)
	amount := amounts.Format(amountText)

	switch {
	case months < 1 && days <= 1:
		return amount + " - depuis 1 jour"
	case months < 1:
		return fmt.Sprintf("%s - depuis %d jours", amount, days)
	case months == 1:
		return amount + " - depuis 1 mois"
	default:
		return fmt.Sprintf("%s - depuis %d mois", amount, months)
	}
}

// monthsBetween counts whole calendar months from from to to. Never negative.
func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// daysBetween counts whole days from from to to. Never negative.
func daysBetween(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
