/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and in the billing core (choice lists are
  enforced by the edit session). DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/pipeline.go: Row, the source of RecordDTO
*/
package api

import (
	"time"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// MutuelleDTO mirrors the persisted mutuelle shape.
type MutuelleDTO struct {
	Active bool   `json:"active"`
	Nom    string `json:"nom"`
}

// RecordDTO is one displayed row of the derived billing view.
type RecordDTO struct {
	ID            string       `json:"id"`
	PatientID     string       `json:"patient_id"`
	PatientCode   string       `json:"patient_code"`
	Nom           string       `json:"nom"`
	Prenom        string       `json:"prenom"`
	Time          string       `json:"time"`
	Amount        string       `json:"amount"`
	AmountDisplay string       `json:"amount_display"`
	Status        string       `json:"status"`
	ReductionRate int          `json:"reduction_rate"`
	PaymentMethod string       `json:"payment_method,omitempty"`
	Mutuelle      *MutuelleDTO `json:"mutuelle,omitempty"`
	ConsultAge    string       `json:"consult_age"`
}

// PatientDTO represents a patient in API responses.
type PatientDTO struct {
	ID            string `json:"id"`
	NumeroPatient string `json:"numero_patient"`
	Nom           string `json:"nom"`
	Prenom        string `json:"prenom"`
}

// CreatePatientRequest is the request to create a patient.
type CreatePatientRequest struct {
	NumeroPatient string `json:"numero_patient"`
	Nom           string `json:"nom"`
	Prenom        string `json:"prenom"`
}

// CreateAppointmentRequest is the request to create an appointment.
type CreateAppointmentRequest struct {
	PatientID         string       `json:"patient_id"`
	Time              string       `json:"time"` // RFC3339
	Amount            string       `json:"amount,omitempty"`
	Status            string       `json:"status,omitempty"`
	PaymentMethod     string       `json:"payment_method,omitempty"`
	Mutuelle          *MutuelleDTO `json:"mutuelle,omitempty"`
	LastConsultAmount string       `json:"last_consult_amount,omitempty"`
	LastConsultAt     string       `json:"last_consult_at,omitempty"` // RFC3339
}

// EditBufferDTO is the transient working copy exposed while editing.
type EditBufferDTO struct {
	Amount        string      `json:"amount"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"payment_method"`
	Mutuelle      MutuelleDTO `json:"mutuelle"`
}

// EditStateDTO is the current edit-session state. When no record is being
// edited, Editing is false and the other fields are absent.
type EditStateDTO struct {
	Editing  bool           `json:"editing"`
	RecordID string         `json:"record_id,omitempty"`
	Buffer   *EditBufferDTO `json:"buffer,omitempty"`

	// Choice lists for the editing surface, derived from the buffered amount.
	StatusChoices        []string `json:"status_choices,omitempty"`
	PaymentMethodChoices []string `json:"payment_method_choices,omitempty"`
	MutuelleProviders    []string `json:"mutuelle_providers,omitempty"`
}

// UpdateBufferRequest carries field-level edits. Only present fields are
// applied, in declaration order.
type UpdateBufferRequest struct {
	Amount         *string `json:"amount,omitempty"`
	Status         *string `json:"status,omitempty"`
	PaymentMethod  *string `json:"payment_method,omitempty"`
	MutuelleActive *bool   `json:"mutuelle_active,omitempty"`
	MutuelleNom    *string `json:"mutuelle_nom,omitempty"`
}

// CommitResponseDTO is the persisted field shape returned by commit.
type CommitResponseDTO struct {
	RecordID      string      `json:"record_id"`
	Amount        string      `json:"amount"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"payment_method"`
	Mutuelle      MutuelleDTO `json:"mutuelle"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRecordDTO(row billing.Row) RecordDTO {
	appt := row.Appointment
	dto := RecordDTO{
		ID:            string(appt.ID),
		PatientID:     string(row.Patient.ID),
		PatientCode:   row.PatientCode,
		Nom:           row.Patient.Nom,
		Prenom:        row.Patient.Prenom,
		Time:          appt.Time.Format(time.RFC3339),
		Amount:        appt.Amount,
		AmountDisplay: row.AmountDisplay,
		Status:        row.Status,
		ReductionRate: row.ReductionRate,
		PaymentMethod: appt.PaymentMethod,
		ConsultAge:    row.ConsultAge,
	}
	if appt.Mutuelle != nil {
		dto.Mutuelle = &MutuelleDTO{Active: appt.Mutuelle.Active, Nom: appt.Mutuelle.Nom}
	}
	return dto
}

func toRecordDTOs(rows []billing.Row) []RecordDTO {
	dtos := make([]RecordDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toRecordDTO(row)
	}
	return dtos
}

func toPatientDTO(p billing.Patient) PatientDTO {
	return PatientDTO{
		ID:            string(p.ID),
		NumeroPatient: p.NumeroPatient,
		Nom:           p.Nom,
		Prenom:        p.Prenom,
	}
}

func toEditBufferDTO(buf billing.EditBuffer) *EditBufferDTO {
	return &EditBufferDTO{
		Amount:        buf.Amount,
		Status:        buf.Status,
		PaymentMethod: buf.PaymentMethod,
		Mutuelle:      MutuelleDTO{Active: buf.Mutuelle.Active, Nom: buf.Mutuelle.Nom},
	}
}
