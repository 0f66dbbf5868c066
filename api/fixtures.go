/*
fixtures.go - YAML seed fixtures for dev instances

PURPOSE:
  Loads a clinic dataset (patients + appointments) from a YAML file and
  seeds it through the store, so a dev server starts with realistic rows
  instead of an empty table. Consumed by cmd/server's -seed flag.

FORMAT:
  patients:
    - numero_patient: "1001"
      nom: Doe
      prenom: John
  appointments:
    - patient: "1001"          # references numero_patient above
      time: 2024-03-15T09:30:00Z
      amount: "250,50"
      payment_method: Espèces
      mutuelle: { active: true, nom: CNOPS }
      last_consult_amount: "400"
      last_consult_at: 2024-01-10T00:00:00Z

SEE ALSO:
  - cmd/server/main.go: The -seed flag
*/
package api

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/store/sqlite"
)

// Fixture is a seedable clinic dataset.
type Fixture struct {
	Patients     []FixturePatient     `yaml:"patients"`
	Appointments []FixtureAppointment `yaml:"appointments"`
}

type FixturePatient struct {
	NumeroPatient string `yaml:"numero_patient"`
	Nom           string `yaml:"nom"`
	Prenom        string `yaml:"prenom"`
}

type FixtureAppointment struct {
	Patient           string           `yaml:"patient"` // numero_patient reference
	Time              time.Time        `yaml:"time"`
	Amount            string           `yaml:"amount"`
	Status            string           `yaml:"status"`
	PaymentMethod     string           `yaml:"payment_method"`
	Mutuelle          *FixtureMutuelle `yaml:"mutuelle"`
	LastConsultAmount string           `yaml:"last_consult_amount"`
	LastConsultAt     time.Time        `yaml:"last_consult_at"`
}

type FixtureMutuelle struct {
	Active bool   `yaml:"active"`
	Nom    string `yaml:"nom"`
}

// LoadFixtureFile parses a fixture YAML file.
func LoadFixtureFile(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("failed to read fixture file: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("failed to parse fixture file: %w", err)
	}
	return f, nil
}

// Seed inserts the fixture dataset through the store. Appointments reference
// patients by display code; an unknown code seeds an orphaned appointment,
// which the join will drop - useful for exercising that path in dev.
func (f Fixture) Seed(ctx context.Context, store *sqlite.Store) error {
	byCode := make(map[string]billing.PatientID, len(f.Patients))
	for _, fp := range f.Patients {
		saved, err := store.SavePatient(ctx, billing.Patient{
			NumeroPatient: fp.NumeroPatient,
			Nom:           fp.Nom,
			Prenom:        fp.Prenom,
		})
		if err != nil {
			return err
		}
		byCode[fp.NumeroPatient] = saved.ID
	}

	for _, fa := range f.Appointments {
		appt := billing.Appointment{
			PatientID:         byCode[fa.Patient],
			Time:              fa.Time,
			Amount:            fa.Amount,
			Status:            fa.Status,
			PaymentMethod:     fa.PaymentMethod,
			LastConsultAmount: fa.LastConsultAmount,
			LastConsultAt:     fa.LastConsultAt,
		}
		if appt.PatientID == "" {
			appt.PatientID = billing.PatientID(fa.Patient)
		}
		if appt.PaymentMethod == "" {
			appt.PaymentMethod = billing.PaymentNone
		}
		if fa.Mutuelle != nil {
			appt.Mutuelle = &billing.Mutuelle{Active: fa.Mutuelle.Active, Nom: fa.Mutuelle.Nom}
		}
		if _, err := store.SaveAppointment(ctx, appt); err != nil {
			return err
		}
	}
	return nil
}
