/*
store.go - Persistence contracts consumed by the billing core

PURPOSE:
  The core reads appointments and patients wholesale and issues partial
  updates to single appointments; these interfaces are that exact surface.
  Implementations: store/sqlite (production), billing/store (in-memory,
  tests and dev).

UPDATE CONTRACT:
  UpdateAppointment is a partial update: only the four editable fields are
  written. The core treats the call as fire-and-forget for state purposes;
  the returned error is surfaced for logging, never retried.
*/
package billing

import "context"

// AppointmentUpdate is the partial field set persisted on commit.
// Amount is comma-decimal text, stored as the empty string when zero.
type AppointmentUpdate struct {
	Amount        string
	Status        string
	PaymentMethod string
	Mutuelle      Mutuelle
}

// AppointmentStore reads the appointment collection and applies partial
// updates to single records.
type AppointmentStore interface {
	ListAppointments(ctx context.Context) ([]Appointment, error)
	UpdateAppointment(ctx context.Context, id AppointmentID, update AppointmentUpdate) error
}

// PatientStore reads the patient reference collection.
type PatientStore interface {
	ListPatients(ctx context.Context) ([]Patient, error)
}

// AppointmentUpdater is the narrow write surface the edit session needs.
type AppointmentUpdater interface {
	UpdateAppointment(ctx context.Context, id AppointmentID, update AppointmentUpdate) error
}
