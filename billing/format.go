package billing

import (
	"strings"
)

// =============================================================================
// DISPLAY FORMATTERS - External collaborators, defaulted here
// =============================================================================

// AmountFormatter renders comma-decimal amount text for display.
// The presentation layer may substitute a locale-aware implementation.
type AmountFormatter interface {
	Format(amountText string) string
}

// PatientCodeFormatter renders a patient display code.
type PatientCodeFormatter interface {
	Format(code string) string
}

// DefaultAmountFormatter renders amounts with two decimals and a comma
// separator ("200" -> "200,00"). Zero and unparsable amounts render as "-".
type DefaultAmountFormatter struct{}

func (DefaultAmountFormatter) Format(amountText string) string {
	amount := ParseAmount(amountText)
	if amount.IsZero() {
		return StatusNone
	}
	return strings.ReplaceAll(amount.StringFixed(2), ".", ",")
}

// DefaultPatientCodeFormatter prefixes the code with "N°". Empty codes render
// as "-".
type DefaultPatientCodeFormatter struct{}

func (DefaultPatientCodeFormatter) Format(code string) string {
	if code == "" {
		return StatusNone
	}
	return "N°" + code
}
