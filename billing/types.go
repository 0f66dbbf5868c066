/*
Package billing computes, filters, and derives billing records for
medical appointments.

PURPOSE:
  This package contains the core record-matching and derivation logic:
  joining appointments to patients, text search over denormalized fields,
  inclusive date-range filtering, amount-to-status derivation, and the
  edit-session state machine that turns a displayed record into a
  persisted partial update.

KEY CONCEPTS IN THIS FILE (types.go):
  - Patient: read-only reference data (display code + name parts)
  - Appointment: a consultation with its monetary fields
  - Mutuelle: supplemental-insurance attestation (active flag + provider)
  - JoinedRecord: an appointment with its resolved patient
  - ParseAmount: the single comma-decimal parsing boundary

DESIGN PRINCIPLES:
  1. Purity: everything here is a function over immutable snapshots;
     the only mutable state in the package is the edit session buffer
  2. Precision: uses decimal.Decimal for money, never float64
  3. Degradation: bad input degrades to zero / "-", never to an error
     that would block rendering the rest of a row

SEE ALSO:
  - status.go: amount -> status label derivation
  - pipeline.go: the composed filter pipeline
  - session.go: the edit-session state machine
*/
package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PatientID string
type AppointmentID string

// =============================================================================
// PATIENT - Read-only reference data
// =============================================================================

// Patient is reference data resolved into rows. This system never writes it.
type Patient struct {
	ID            PatientID
	NumeroPatient string // display code
	Nom           string // surname
	Prenom        string // first name
}

// =============================================================================
// APPOINTMENT - The billable consultation record
// =============================================================================

// Mutuelle is a supplemental-insurance attestation attached to an appointment.
type Mutuelle struct {
	Active bool
	Nom    string
}

// Appointment is the stored billing record. Monetary fields are comma-decimal
// text at the storage boundary; ParseAmount converts them for arithmetic.
//
// Status is a free-text label. Empty means "derive from Amount"; the two
// manual labels StatusGratuit and StatusNonPaye are preserved verbatim.
type Appointment struct {
	ID            AppointmentID
	PatientID     PatientID
	Time          time.Time // consultation instant
	Amount        string    // comma-decimal text, possibly empty
	Status        string
	PaymentMethod string // one of PaymentMethods(), or "-"
	Mutuelle      *Mutuelle

	// Prior paid consultation, used only for display aging.
	LastConsultAmount string
	LastConsultAt     time.Time
}

// JoinedRecord is an appointment with its resolved patient. Appointments whose
// PatientID does not resolve never become JoinedRecords.
type JoinedRecord struct {
	Appointment Appointment
	Patient     Patient
}

// =============================================================================
// AMOUNT PARSING - The comma-decimal boundary
// =============================================================================

// ParseAmount parses comma-decimal text into a decimal. Empty, whitespace-only,
// and unparsable text all parse to zero; no error is ever returned because
// every degraded amount behaves as "no charge" downstream.
func ParseAmount(text string) decimal.Decimal {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}
