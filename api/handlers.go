/*
handlers.go - HTTP handlers for the billing record surface

PURPOSE:
  Exposes the billing engine via REST. Handles HTTP request/response and
  JSON serialization, and delegates to the billing core for every
  decision: filtering, derivation, edit-session rules.

ENDPOINTS:
  Records (the derived view):
    GET    /api/records?q=&from=&to=   Filtered, joined, derived rows

  Edit session:
    GET    /api/records/edit           Current session state
    POST   /api/records/{id}/edit      Begin editing a record
    PATCH  /api/records/edit           Field-level edits on the buffer
    POST   /api/records/edit/commit    Commit and persist

  Reference data:
    GET    /api/patients               Patient list
    POST   /api/patients               Create patient
    POST   /api/appointments           Create appointment

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, closed-list violations
  - 404: Record not found
  - 409: No active edit session
  - 500: Store failures (including commit persistence failures, which are
         logged and surfaced but never retried)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - billing/session.go: The state machine behind the edit endpoints
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Session  *billing.Session
	Pipeline *billing.Pipeline
	Log      *logrus.Logger
}

// NewHandler wires the handler onto a store.
func NewHandler(store *sqlite.Store, log *logrus.Logger) *Handler {
	return &Handler{
		Store:    store,
		Session:  billing.NewSession(store),
		Pipeline: billing.NewPipeline(),
		Log:      log,
	}
}

// =============================================================================
// RECORDS - The derived view
// =============================================================================

// ListRecords recomputes and returns the filtered billing view.
// Query parameters: q (search text), from/to (ISO dates, both required to
// bound the range, otherwise the date filter is a no-op).
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appointments, err := h.Store.ListAppointments(ctx)
	if err != nil {
		h.serverError(w, err)
		return
	}
	patients, err := h.Store.ListPatients(ctx)
	if err != nil {
		h.serverError(w, err)
		return
	}

	q := r.URL.Query()
	rows := h.Pipeline.Compute(billing.Inputs{
		Appointments: appointments,
		Patients:     patients,
		Query:        q.Get("q"),
		Range: billing.DateRange{
			Start: billing.ParseDate(q.Get("from")),
			End:   billing.ParseDate(q.Get("to")),
		},
	})
	writeJSON(w, http.StatusOK, toRecordDTOs(rows))
}

// =============================================================================
// EDIT SESSION
// =============================================================================

// GetEditState returns the current edit-session state.
func (h *Handler) GetEditState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.editState())
}

// BeginEdit moves a record into the Editing state. Any in-flight buffer for
// another record is silently discarded.
func (h *Handler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	id := billing.AppointmentID(chi.URLParam(r, "id"))

	appt, err := h.Store.GetAppointment(r.Context(), id)
	if err != nil {
		if billing.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "record not found", "not_found")
			return
		}
		h.serverError(w, err)
		return
	}

	h.Session.BeginEdit(appt)
	writeJSON(w, http.StatusOK, h.editState())
}

// UpdateBuffer applies field-level edits to the active buffer. Nothing is
// persisted here.
func (h *Handler) UpdateBuffer(w http.ResponseWriter, r *http.Request) {
	var req UpdateBufferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}

	apply := func(err error) bool {
		if err == nil {
			return true
		}
		h.sessionError(w, err)
		return false
	}
	if req.Amount != nil && !apply(h.Session.SetAmount(*req.Amount)) {
		return
	}
	if req.Status != nil && !apply(h.Session.SetStatus(*req.Status)) {
		return
	}
	if req.PaymentMethod != nil && !apply(h.Session.SetPaymentMethod(*req.PaymentMethod)) {
		return
	}
	if req.MutuelleActive != nil && !apply(h.Session.SetMutuelleActive(*req.MutuelleActive)) {
		return
	}
	if req.MutuelleNom != nil && !apply(h.Session.SetMutuelleNom(*req.MutuelleNom)) {
		return
	}

	writeJSON(w, http.StatusOK, h.editState())
}

// CommitEdit derives and persists the buffered fields, then returns to
// Viewing. A persistence failure is logged and surfaced, never retried;
// the session has already left the Editing state when it is reported.
func (h *Handler) CommitEdit(w http.ResponseWriter, r *http.Request) {
	id, editing := h.Session.Editing()
	if !editing {
		writeError(w, http.StatusConflict, "no active edit session", "no_active_edit")
		return
	}

	update, err := h.Session.CommitEdit(r.Context())
	if err != nil {
		if errors.Is(err, billing.ErrNoActiveEdit) {
			writeError(w, http.StatusConflict, "no active edit session", "no_active_edit")
			return
		}
		h.Log.WithError(err).WithField("record_id", id).Error("commit persistence failed")
		writeError(w, http.StatusInternalServerError, "persistence failed", "persistence_failed")
		return
	}

	writeJSON(w, http.StatusOK, CommitResponseDTO{
		RecordID:      string(id),
		Amount:        update.Amount,
		Status:        update.Status,
		PaymentMethod: update.PaymentMethod,
		Mutuelle:      MutuelleDTO{Active: update.Mutuelle.Active, Nom: update.Mutuelle.Nom},
	})
}

// editState assembles the session state plus the choice lists the editing
// surface offers for the current buffered amount.
func (h *Handler) editState() EditStateDTO {
	id, editing := h.Session.Editing()
	if !editing {
		return EditStateDTO{}
	}
	buf, _ := h.Session.Buffer()

	state := EditStateDTO{
		Editing:           true,
		RecordID:          string(id),
		Buffer:            toEditBufferDTO(buf),
		MutuelleProviders: billing.MutuelleProviders(),
	}
	if billing.ParseAmount(buf.Amount).IsZero() {
		state.StatusChoices = billing.ZeroAmountStatuses()
	} else {
		state.PaymentMethodChoices = billing.PaymentMethods()
	}
	return state
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// ListPatients returns the patient reference collection.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.Store.ListPatients(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	dtos := make([]PatientDTO, len(patients))
	for i, p := range patients {
		dtos[i] = toPatientDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePatient inserts a patient record.
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}
	if req.Nom == "" {
		writeError(w, http.StatusBadRequest, "nom is required", "bad_request")
		return
	}

	saved, err := h.Store.SavePatient(r.Context(), billing.Patient{
		NumeroPatient: req.NumeroPatient,
		Nom:           req.Nom,
		Prenom:        req.Prenom,
	})
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPatientDTO(saved))
}

// CreateAppointment inserts an appointment record. No business rules apply
// beyond the data model; status derivation happens on read and on commit.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}
	consultTime, err := time.Parse(time.RFC3339, req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "time must be RFC3339", "bad_request")
		return
	}

	appt := billing.Appointment{
		PatientID:         billing.PatientID(req.PatientID),
		Time:              consultTime,
		Amount:            req.Amount,
		Status:            req.Status,
		PaymentMethod:     req.PaymentMethod,
		LastConsultAmount: req.LastConsultAmount,
	}
	if req.PaymentMethod == "" {
		appt.PaymentMethod = billing.PaymentNone
	}
	if req.Mutuelle != nil {
		appt.Mutuelle = &billing.Mutuelle{Active: req.Mutuelle.Active, Nom: req.Mutuelle.Nom}
	}
	if req.LastConsultAt != "" {
		if appt.LastConsultAt, err = time.Parse(time.RFC3339, req.LastConsultAt); err != nil {
			writeError(w, http.StatusBadRequest, "last_consult_at must be RFC3339", "bad_request")
			return
		}
	}

	saved, err := h.Store.SaveAppointment(r.Context(), appt)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": string(saved.ID)})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.Log.WithError(err).Error("store failure")
	writeError(w, http.StatusInternalServerError, "internal error", "internal")
}

func (h *Handler) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrNoActiveEdit):
		writeError(w, http.StatusConflict, err.Error(), "no_active_edit")
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_choice")
	default:
		h.serverError(w, err)
	}
}
