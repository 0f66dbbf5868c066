/*
status.go - Amount to billing-status derivation

PURPOSE:
  The single source of truth for a record's billing status. Whenever an
  appointment carries no explicit status, the label is derived from its
  amount against the reference full price. The two manual labels
  ("Gratuit", "Non payé") are the only stored statuses that survive
  derivation; every other stored label is recomputed from the amount so
  label and amount can never drift apart.

DERIVATION RULE:
  amount == 0          -> "-"
  0 < amount < 400     -> "Réduction (<rate>%)" with rate = round((400-a)/400*100)
  amount >= 400        -> "Payé"

  Amounts above the full price are not flagged as overpayment; they
  resolve to the same "Payé" label.

SEE ALSO:
  - session.go: re-runs this derivation on commit
  - pipeline.go: uses EffectiveStatus for displayed rows
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS LABELS AND CHOICE LISTS
// =============================================================================

const (
	StatusNone    = "-"
	StatusGratuit = "Gratuit"
	StatusNonPaye = "Non payé"
	StatusPaye    = "Payé"
)

const (
	PaymentNone     = "-"
	PaymentCarte    = "Carte Bancaire"
	PaymentEspeces  = "Espèces"
	PaymentVirement = "Virement"
	PaymentCheque   = "Chèque"
)

// FullPrice is the reference full consultation price the reduction rate is
// computed against.
var FullPrice = decimal.NewFromInt(400)

// ZeroAmountStatuses is the status choice list when the edited amount is zero.
func ZeroAmountStatuses() []string {
	return []string{StatusNone, StatusGratuit, StatusNonPaye}
}

// PaymentMethods is the payment-method choice list when the edited amount is
// positive.
func PaymentMethods() []string {
	return []string{PaymentNone, PaymentCarte, PaymentEspeces, PaymentVirement, PaymentCheque}
}

// MutuelleProviders is the closed provider list for an active mutuelle.
func MutuelleProviders() []string {
	return []string{"CNOPS", "CNSS", "RMA", "SAHAM"}
}

// =============================================================================
// DERIVATION
// =============================================================================

// ReductionRate returns the discount percentage for an amount relative to
// FullPrice, rounded to the nearest point. Zero amounts have a zero rate.
func ReductionRate(amount decimal.Decimal) int {
	if amount.IsZero() {
		return 0
	}
	rate := FullPrice.Sub(amount).Div(FullPrice).Mul(decimal.NewFromInt(100))
	return int(rate.Round(0).IntPart())
}

// ReductionLabel renders the "Réduction (<rate>%)" label for a rate.
func ReductionLabel(rate int) string {
	return fmt.Sprintf("Réduction (%d%%)", rate)
}

// DeriveStatus derives the billing status from comma-decimal amount text.
// The returned rate is the reduction rate for the parsed amount; it is only
// displayed for the reduction branch but always computed.
func DeriveStatus(amountText string) (label string, rate int) {
	amount := ParseAmount(amountText)
	rate = ReductionRate(amount)
	switch {
	case amount.IsZero():
		return StatusNone, rate
	case amount.LessThan(FullPrice):
		return ReductionLabel(rate), rate
	default:
		return StatusPaye, rate
	}
}

// EffectiveStatus resolves the status displayed for an appointment. The two
// manual labels are preserved verbatim; everything else, including an absent
// status, is derived from the amount.
func EffectiveStatus(appt Appointment) string {
	if appt.Status == StatusGratuit || appt.Status == StatusNonPaye {
		return appt.Status
	}
	label, _ := DeriveStatus(appt.Amount)
	return label
}
