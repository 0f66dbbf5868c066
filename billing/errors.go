package billing

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================
// The core degrades bad data to "-" displays instead of erroring (see §format
// defaults); errors exist only for edit-session misuse and store lookups.

var (
	// ErrNoActiveEdit is returned by buffer operations when no record is
	// being edited.
	ErrNoActiveEdit = errors.New("no active edit session")

	// ErrUnknownStatus is returned when a status outside the zero-amount
	// choice list is selected.
	ErrUnknownStatus = errors.New("unknown status choice")

	// ErrUnknownPaymentMethod is returned when a payment method outside the
	// closed enumeration is selected.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")

	// ErrUnknownMutuelle is returned when a provider outside the closed
	// provider list is selected for an active mutuelle.
	ErrUnknownMutuelle = errors.New("unknown mutuelle provider")

	// ErrAppointmentNotFound is returned by stores for missing appointments.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrPatientNotFound is returned by stores for missing patients.
	ErrPatientNotFound = errors.New("patient not found")
)

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAppointmentNotFound) || errors.Is(err, ErrPatientNotFound)
}

// IsClientError reports whether the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoActiveEdit) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrUnknownPaymentMethod) ||
		errors.Is(err, ErrUnknownMutuelle)
}
