/*
session.go - The edit-session state machine

PURPOSE:
  Governs how a record moves from derived/displayed to user-edited and
  persisted. At most one record system-wide is in the Editing state: its
  transient working copy (the EditBuffer) is the only mutable state in the
  package. Beginning an edit on another record silently discards the
  current buffer without persisting.

LIFECYCLE:
  BeginEdit   seed buffer from stored values, falling back to derivation
  Set*        mutate the buffer only, no persistence
  CommitEdit  re-derive status from the buffered amount, persist the
              partial update, destroy the buffer

COMMIT DERIVATION:
  amount == 0       status "-", payment method "-", amount stored as ""
  0 < amount < 400  status recomputed to "Réduction (<rate>%)", any
                    manually chosen status ignored
  amount >= 400     status "Payé"
  Payment method and mutuelle are taken from the buffer as-is outside the
  zero branch.

PERSISTENCE:
  Fire-and-forget: the buffer is destroyed and the session returns to
  Viewing whether or not the update succeeds. The updater's error is
  returned so callers can log or surface it; there is no retry and no
  rollback of the transition.

SEE ALSO:
  - status.go: the derivation re-run on commit
  - store.go: the AppointmentUpdater contract
*/
package billing

import (
	"context"
	"sync"
)

// =============================================================================
// EDIT BUFFER - Transient single-owner working copy
// =============================================================================

// EditBuffer is the working copy of a record's editable fields. It exists
// only between BeginEdit and CommitEdit (or the next BeginEdit).
type EditBuffer struct {
	Amount        string
	Status        string
	PaymentMethod string
	Mutuelle      Mutuelle
}

// =============================================================================
// SESSION - At most one record in Editing state
// =============================================================================

// Session coordinates in-progress edits. All state transitions take the
// session lock, so no two BeginEdit calls can interleave without an
// intervening resolution.
type Session struct {
	updater AppointmentUpdater

	mu      sync.Mutex
	editing AppointmentID
	buffer  *EditBuffer
}

// NewSession creates a session persisting through the given updater.
func NewSession(updater AppointmentUpdater) *Session {
	return &Session{updater: updater}
}

// Editing returns the id of the record currently in the Editing state.
func (s *Session) Editing() (AppointmentID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing, s.buffer != nil
}

// Buffer returns a copy of the active edit buffer.
func (s *Session) Buffer() (EditBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return EditBuffer{}, false
	}
	return *s.buffer, true
}

// BeginEdit moves the given record into the Editing state, seeding the
// buffer from its stored values: status falls back to derivation, payment
// method to "-", mutuelle to inactive with no provider. Any buffer already
// active for another record is discarded, not persisted.
func (s *Session) BeginEdit(appt Appointment) EditBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := EditBuffer{
		Amount:        appt.Amount,
		Status:        EffectiveStatus(appt),
		PaymentMethod: appt.PaymentMethod,
	}
	if buf.PaymentMethod == "" {
		buf.PaymentMethod = PaymentNone
	}
	if appt.Mutuelle != nil {
		buf.Mutuelle = *appt.Mutuelle
	}

	s.editing = appt.ID
	s.buffer = &buf
	return buf
}

// =============================================================================
// FIELD EDITS - Buffer mutation only, no persistence
// =============================================================================

// SetAmount replaces the buffered comma-decimal amount text.
func (s *Session) SetAmount(amount string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return ErrNoActiveEdit
	}
	s.buffer.Amount = amount
	return nil
}

// SetStatus selects a manual status. The choice list is the zero-amount
// surface {"-", "Gratuit", "Non payé"}; commit re-derives for any positive
// amount regardless.
func (s *Session) SetStatus(status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return ErrNoActiveEdit
	}
	if !contains(ZeroAmountStatuses(), status) {
		return ErrUnknownStatus
	}
	s.buffer.Status = status
	return nil
}

// SetPaymentMethod selects a payment method from the closed enumeration.
func (s *Session) SetPaymentMethod(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return ErrNoActiveEdit
	}
	if !contains(PaymentMethods(), method) {
		return ErrUnknownPaymentMethod
	}
	s.buffer.PaymentMethod = method
	return nil
}

// SetMutuelleActive toggles the mutuelle attestation.
func (s *Session) SetMutuelleActive(active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return ErrNoActiveEdit
	}
	s.buffer.Mutuelle.Active = active
	return nil
}

// SetMutuelleNom selects the mutuelle provider. Non-empty names are
// constrained to the closed provider list.
func (s *Session) SetMutuelleNom(nom string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return ErrNoActiveEdit
	}
	if nom != "" && !contains(MutuelleProviders(), nom) {
		return ErrUnknownMutuelle
	}
	s.buffer.Mutuelle.Nom = nom
	return nil
}

// =============================================================================
// COMMIT - Re-derive, persist, destroy buffer
// =============================================================================

// CommitEdit validates and derives the buffered fields, persists the
// partial update, destroys the buffer, and returns to Viewing. The derived
// update is returned alongside any persistence error; the transition
// happens either way.
func (s *Session) CommitEdit(ctx context.Context) (AppointmentUpdate, error) {
	s.mu.Lock()
	if s.buffer == nil {
		s.mu.Unlock()
		return AppointmentUpdate{}, ErrNoActiveEdit
	}

	buf := *s.buffer
	id := s.editing
	s.buffer = nil
	s.editing = ""
	s.mu.Unlock()

	amount := ParseAmount(buf.Amount)
	update := AppointmentUpdate{
		Amount:        buf.Amount,
		PaymentMethod: buf.PaymentMethod,
		Mutuelle:      buf.Mutuelle,
	}
	switch {
	case amount.IsZero():
		// Payment metadata is meaningless with no charge.
		update.Amount = ""
		update.Status = StatusNone
		update.PaymentMethod = PaymentNone
	case amount.LessThan(FullPrice):
		update.Status = ReductionLabel(ReductionRate(amount))
	default:
		update.Status = StatusPaye
	}

	if err := s.updater.UpdateAppointment(ctx, id, update); err != nil {
		return update, err
	}
	return update, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
