/*
Package sqlite provides a SQLite-backed implementation of the billing
storage interfaces.

PURPOSE:
  Implements billing.AppointmentStore and billing.PatientStore using
  SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  patients:      Read-only reference data (display code + name parts)
  appointments:  Billing records; the editable fields are the only
                 columns the engine ever updates

UPDATE CONTRACT:
  UpdateAppointment is the single write path of the engine: a partial
  UPDATE of exactly {amount, status, payment_method, mutuelle_*}. Inserts
  exist only for fixtures and the creation endpoints.

REFERENTIAL INTEGRITY:
  patient_id carries no foreign key on purpose: the engine's join drops
  orphaned appointments instead of rejecting them, so the store must be
  able to hold them.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/billing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/billing-engine/billing"
)

// Store implements the billing storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS patients (
		id TEXT PRIMARY KEY,
		numero_patient TEXT NOT NULL,
		nom TEXT NOT NULL,
		prenom TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- patient_id intentionally has no FOREIGN KEY: orphans are dropped by
	-- the join, not rejected by the store
	CREATE TABLE IF NOT EXISTS appointments (
		id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		consult_time TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT '-',
		mutuelle_active BOOLEAN NOT NULL DEFAULT FALSE,
		mutuelle_nom TEXT NOT NULL DEFAULT '',
		last_consult_amount TEXT NOT NULL DEFAULT '',
		last_consult_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_appointments_patient
		ON appointments(patient_id);
	CREATE INDEX IF NOT EXISTS idx_appointments_time
		ON appointments(consult_time DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PATIENTS
// =============================================================================

// ListPatients returns the full patient reference collection.
func (s *Store) ListPatients(ctx context.Context) ([]billing.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, numero_patient, nom, prenom
		FROM patients ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []billing.Patient
	for rows.Next() {
		var p billing.Patient
		if err := rows.Scan(&p.ID, &p.NumeroPatient, &p.Nom, &p.Prenom); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// SavePatient inserts a patient, generating an id if absent.
func (s *Store) SavePatient(ctx context.Context, p billing.Patient) (billing.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = billing.PatientID(uuid.NewString())
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patients (id, numero_patient, nom, prenom, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(p.ID), p.NumeroPatient, p.Nom, p.Prenom, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return billing.Patient{}, fmt.Errorf("failed to save patient: %w", err)
	}
	return p, nil
}

// =============================================================================
// APPOINTMENTS
// =============================================================================

// ListAppointments returns the full appointment collection.
func (s *Store) ListAppointments(ctx context.Context) ([]billing.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, consult_time, amount, status, payment_method,
		       mutuelle_active, mutuelle_nom, last_consult_amount, last_consult_at
		FROM appointments ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []billing.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	return appointments, rows.Err()
}

// GetAppointment returns a single appointment by id.
func (s *Store) GetAppointment(ctx context.Context, id billing.AppointmentID) (billing.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, patient_id, consult_time, amount, status, payment_method,
		       mutuelle_active, mutuelle_nom, last_consult_amount, last_consult_at
		FROM appointments WHERE id = ?`, string(id))
	appt, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return billing.Appointment{}, billing.ErrAppointmentNotFound
	}
	return appt, err
}

// SaveAppointment inserts an appointment, generating an id if absent.
func (s *Store) SaveAppointment(ctx context.Context, appt billing.Appointment) (billing.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if appt.ID == "" {
		appt.ID = billing.AppointmentID(uuid.NewString())
	}
	mutuelleActive, mutuelleNom := false, ""
	if appt.Mutuelle != nil {
		mutuelleActive, mutuelleNom = appt.Mutuelle.Active, appt.Mutuelle.Nom
	}
	lastConsultAt := ""
	if !appt.LastConsultAt.IsZero() {
		lastConsultAt = appt.LastConsultAt.UTC().Format(time.RFC3339)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO appointments (id, patient_id, consult_time, amount, status,
			payment_method, mutuelle_active, mutuelle_nom,
			last_consult_amount, last_consult_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(appt.ID), string(appt.PatientID), appt.Time.UTC().Format(time.RFC3339),
		appt.Amount, appt.Status, appt.PaymentMethod, mutuelleActive, mutuelleNom,
		appt.LastConsultAmount, lastConsultAt, now, now)
	if err != nil {
		return billing.Appointment{}, fmt.Errorf("failed to save appointment: %w", err)
	}
	return appt, nil
}

// UpdateAppointment applies the partial field set of a committed edit.
// Only the four editable fields (and updated_at) are written.
func (s *Store) UpdateAppointment(ctx context.Context, id billing.AppointmentID, update billing.AppointmentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE appointments
		SET amount = ?, status = ?, payment_method = ?,
		    mutuelle_active = ?, mutuelle_nom = ?, updated_at = ?
		WHERE id = ?`,
		update.Amount, update.Status, update.PaymentMethod,
		update.Mutuelle.Active, update.Mutuelle.Nom,
		time.Now().UTC().Format(time.RFC3339Nano), string(id))
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return billing.ErrAppointmentNotFound
	}
	return nil
}

// =============================================================================
// SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (billing.Appointment, error) {
	var (
		appt           billing.Appointment
		consultTime    string
		mutuelleActive bool
		mutuelleNom    string
		lastConsultAt  string
	)
	err := row.Scan(&appt.ID, &appt.PatientID, &consultTime, &appt.Amount,
		&appt.Status, &appt.PaymentMethod, &mutuelleActive, &mutuelleNom,
		&appt.LastConsultAmount, &lastConsultAt)
	if err != nil {
		return billing.Appointment{}, err
	}

	if appt.Time, err = time.Parse(time.RFC3339, consultTime); err != nil {
		return billing.Appointment{}, fmt.Errorf("failed to parse consult time: %w", err)
	}
	if lastConsultAt != "" {
		if appt.LastConsultAt, err = time.Parse(time.RFC3339, lastConsultAt); err != nil {
			return billing.Appointment{}, fmt.Errorf("failed to parse last consult time: %w", err)
		}
	}
	if mutuelleActive || mutuelleNom != "" {
		appt.Mutuelle = &billing.Mutuelle{Active: mutuelleActive, Nom: mutuelleNom}
	}
	return appt, nil
}
