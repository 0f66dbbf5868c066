/*
handlers_test.go - HTTP tests for the billing record surface

Tests for:
- The derived record view (filtering, derivation, ordering)
- The edit-session endpoints (begin, patch, commit)
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/billing-engine/api"
	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(store, log)))
	t.Cleanup(srv.Close)
	return srv, store
}

func seedClinic(t *testing.T, store *sqlite.Store) (billing.Patient, billing.Appointment) {
	t.Helper()
	ctx := context.Background()

	doe, err := store.SavePatient(ctx, billing.Patient{NumeroPatient: "1001", Nom: "Doe", Prenom: "John"})
	require.NoError(t, err)
	benali, err := store.SavePatient(ctx, billing.Patient{NumeroPatient: "1002", Nom: "Benali", Prenom: "Samira"})
	require.NoError(t, err)

	appt, err := store.SaveAppointment(ctx, billing.Appointment{
		PatientID:     doe.ID,
		Time:          time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
		Amount:        "200",
		PaymentMethod: "-",
	})
	require.NoError(t, err)
	_, err = store.SaveAppointment(ctx, billing.Appointment{
		PatientID:     benali.ID,
		Time:          time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC),
		Amount:        "400",
		PaymentMethod: "Espèces",
	})
	require.NoError(t, err)
	// Orphan: must never appear in the view.
	_, err = store.SaveAppointment(ctx, billing.Appointment{
		PatientID: "ghost",
		Time:      time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC),
		Amount:    "100",
	})
	require.NoError(t, err)

	return doe, appt
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func sendJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// =============================================================================
// RECORD VIEW TESTS
// =============================================================================

func TestListRecords_JoinsDerivesAndSorts(t *testing.T) {
	srv, store := newTestServer(t)
	seedClinic(t, store)

	var records []api.RecordDTO
	status := getJSON(t, srv.URL+"/api/records", &records)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, records, 2, "orphan must be dropped")

	// Most recent first.
	assert.Equal(t, "Benali", records[0].Nom)
	assert.Equal(t, "Payé", records[0].Status)
	assert.Equal(t, "Doe", records[1].Nom)
	assert.Equal(t, "Réduction (50%)", records[1].Status)
	assert.Equal(t, 50, records[1].ReductionRate)
	assert.Equal(t, "200,00", records[1].AmountDisplay)
	assert.Equal(t, "N°1001", records[1].PatientCode)
}

func TestListRecords_SearchAndRangeParameters(t *testing.T) {
	srv, store := newTestServer(t)
	seedClinic(t, store)

	var records []api.RecordDTO
	getJSON(t, srv.URL+"/api/records?q=*do*", &records)
	require.Len(t, records, 1)
	assert.Equal(t, "Doe", records[0].Nom)

	getJSON(t, srv.URL+"/api/records?from=2024-03-20&to=2024-03-31", &records)
	require.Len(t, records, 1)
	assert.Equal(t, "Benali", records[0].Nom)

	getJSON(t, srv.URL+"/api/records?q=doe&from=2024-03-20&to=2024-03-31", &records)
	assert.Empty(t, records, "search and range combine with AND")
}

// =============================================================================
// EDIT SESSION TESTS
// =============================================================================

func TestEditFlow_BeginPatchCommit(t *testing.T) {
	srv, store := newTestServer(t)
	_, appt := seedClinic(t, store)

	// Begin: buffer seeded from stored/derived values.
	var state api.EditStateDTO
	status := sendJSON(t, http.MethodPost, srv.URL+"/api/records/"+string(appt.ID)+"/edit", nil, &state)
	require.Equal(t, http.StatusOK, status)
	require.True(t, state.Editing)
	require.NotNil(t, state.Buffer)
	assert.Equal(t, "200", state.Buffer.Amount)
	assert.Equal(t, "Réduction (50%)", state.Buffer.Status)
	assert.Equal(t, []string{"-", "Carte Bancaire", "Espèces", "Virement", "Chèque"}, state.PaymentMethodChoices)

	// Patch: buffer only, nothing persisted yet.
	amount, method := "300", "Virement"
	status = sendJSON(t, http.MethodPatch, srv.URL+"/api/records/edit",
		api.UpdateBufferRequest{Amount: &amount, PaymentMethod: &method}, &state)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "300", state.Buffer.Amount)

	stored, err := store.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "200", stored.Amount, "field edits must not persist")

	// Commit: derived, persisted, session back to Viewing.
	var committed api.CommitResponseDTO
	status = sendJSON(t, http.MethodPost, srv.URL+"/api/records/edit/commit", nil, &committed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Réduction (25%)", committed.Status)
	assert.Equal(t, "Virement", committed.PaymentMethod)

	stored, err = store.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "300", stored.Amount)
	assert.Equal(t, "Réduction (25%)", stored.Status)

	getJSON(t, srv.URL+"/api/records/edit", &state)
	assert.False(t, state.Editing)
}

func TestCommit_ZeroAmountForcesDisplayDefaults(t *testing.T) {
	srv, store := newTestServer(t)
	_, appt := seedClinic(t, store)

	sendJSON(t, http.MethodPost, srv.URL+"/api/records/"+string(appt.ID)+"/edit", nil, nil)
	amount := "0"
	sendJSON(t, http.MethodPatch, srv.URL+"/api/records/edit", api.UpdateBufferRequest{Amount: &amount}, nil)

	var committed api.CommitResponseDTO
	status := sendJSON(t, http.MethodPost, srv.URL+"/api/records/edit/commit", nil, &committed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", committed.Amount, "zero amount is stored as empty string")
	assert.Equal(t, "-", committed.Status)
	assert.Equal(t, "-", committed.PaymentMethod)
}

func TestBeginEdit_UnknownRecord(t *testing.T) {
	srv, _ := newTestServer(t)
	status := sendJSON(t, http.MethodPost, srv.URL+"/api/records/ghost/edit", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEditEndpoints_RequireActiveSession(t *testing.T) {
	srv, _ := newTestServer(t)

	amount := "100"
	status := sendJSON(t, http.MethodPatch, srv.URL+"/api/records/edit",
		api.UpdateBufferRequest{Amount: &amount}, nil)
	assert.Equal(t, http.StatusConflict, status)

	status = sendJSON(t, http.MethodPost, srv.URL+"/api/records/edit/commit", nil, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestUpdateBuffer_RejectsChoicesOutsideClosedLists(t *testing.T) {
	srv, store := newTestServer(t)
	_, appt := seedClinic(t, store)
	sendJSON(t, http.MethodPost, srv.URL+"/api/records/"+string(appt.ID)+"/edit", nil, nil)

	method := "Bitcoin"
	status := sendJSON(t, http.MethodPatch, srv.URL+"/api/records/edit",
		api.UpdateBufferRequest{PaymentMethod: &method}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	nom := "AXA"
	status = sendJSON(t, http.MethodPatch, srv.URL+"/api/records/edit",
		api.UpdateBufferRequest{MutuelleNom: &nom}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	var patient api.PatientDTO
	status := sendJSON(t, http.MethodPost, srv.URL+"/api/patients",
		api.CreatePatientRequest{NumeroPatient: "2001", Nom: "Alaoui", Prenom: "Karim"}, &patient)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, patient.ID)

	var created map[string]string
	status = sendJSON(t, http.MethodPost, srv.URL+"/api/appointments",
		api.CreateAppointmentRequest{
			PatientID: patient.ID,
			Time:      "2024-05-01T10:00:00Z",
			Amount:    "400",
		}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, created["id"])

	var records []api.RecordDTO
	getJSON(t, srv.URL+"/api/records", &records)
	require.Len(t, records, 1)
	assert.Equal(t, "Payé", records[0].Status)
	assert.Equal(t, "N°2001", records[0].PatientCode)
}
