// Package store provides in-memory implementations of the billing
// persistence contracts, for tests and dev.
package store

import (
	"context"
	"sync"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	appointments []billing.Appointment
	patients     []billing.Patient
}

func NewMemory() *Memory {
	return &Memory{}
}

// SeedPatients replaces the patient collection.
func (m *Memory) SeedPatients(patients ...billing.Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients = append([]billing.Patient{}, patients...)
}

// SeedAppointments replaces the appointment collection.
func (m *Memory) SeedAppointments(appointments ...billing.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments = append([]billing.Appointment{}, appointments...)
}

func (m *Memory) ListAppointments(_ context.Context) ([]billing.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.Appointment, len(m.appointments))
	copy(out, m.appointments)
	return out, nil
}

func (m *Memory) ListPatients(_ context.Context) ([]billing.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.Patient, len(m.patients))
	copy(out, m.patients)
	return out, nil
}

// UpdateAppointment applies the partial update to the matching record.
func (m *Memory) UpdateAppointment(_ context.Context, id billing.AppointmentID, update billing.AppointmentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.appointments {
		if m.appointments[i].ID != id {
			continue
		}
		mutuelle := update.Mutuelle
		m.appointments[i].Amount = update.Amount
		m.appointments[i].Status = update.Status
		m.appointments[i].PaymentMethod = update.PaymentMethod
		m.appointments[i].Mutuelle = &mutuelle
		return nil
	}
	return billing.ErrAppointmentNotFound
}

// Appointment returns a copy of the record with the given id.
func (m *Memory) Appointment(id billing.AppointmentID) (billing.Appointment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, appt := range m.appointments {
		if appt.ID == id {
			return appt, true
		}
	}
	return billing.Appointment{}, false
}
