package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/billing/store"
)

// =============================================================================
// EDIT SESSION TESTS
// =============================================================================

func newTestSession(t *testing.T) (*billing.Session, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.SeedPatients(testPatients()...)
	mem.SeedAppointments(testAppointments()...)
	return billing.NewSession(mem), mem
}

func TestBeginEdit_SeedsBufferFromStoredAndDerivedValues(t *testing.T) {
	// GIVEN: A record with an amount but no stored status, payment method,
	//        or mutuelle
	// WHEN: Entering edit mode
	// THEN: Status falls back to derivation, payment method to "-",
	//       mutuelle to {inactive, ""}
	session, _ := newTestSession(t)

	buf := session.BeginEdit(billing.Appointment{ID: "a1", Amount: "200"})
	if buf.Amount != "200" {
		t.Errorf("amount seed: %q", buf.Amount)
	}
	if buf.Status != "Réduction (50%)" {
		t.Errorf("status seed: %q", buf.Status)
	}
	if buf.PaymentMethod != "-" {
		t.Errorf("payment method seed: %q", buf.PaymentMethod)
	}
	if buf.Mutuelle.Active || buf.Mutuelle.Nom != "" {
		t.Errorf("mutuelle seed: %+v", buf.Mutuelle)
	}
}

func TestBeginEdit_SecondEditDiscardsFirstBuffer(t *testing.T) {
	// GIVEN: Record A in the Editing state with uncommitted changes
	// WHEN: Beginning an edit on record B
	// THEN: Only B is Editing; A's buffer is gone and A's stored record
	//       is untouched
	session, mem := newTestSession(t)

	session.BeginEdit(billing.Appointment{ID: "a1", Amount: "200"})
	if err := session.SetAmount("350"); err != nil {
		t.Fatal(err)
	}

	session.BeginEdit(billing.Appointment{ID: "a2", Amount: "400"})

	id, editing := session.Editing()
	if !editing || id != "a2" {
		t.Fatalf("expected a2 editing, got %q (%v)", id, editing)
	}
	buf, _ := session.Buffer()
	if buf.Amount != "400" {
		t.Errorf("buffer should belong to a2, got amount %q", buf.Amount)
	}
	if appt, _ := mem.Appointment("a1"); appt.Amount != "200" {
		t.Errorf("a1 must not be persisted, got amount %q", appt.Amount)
	}
}

func TestCommitEdit_ZeroAmountForcesStatusAndPaymentMethod(t *testing.T) {
	// Payment metadata is meaningless with no charge, regardless of what
	// the buffer held before.
	session, mem := newTestSession(t)

	session.BeginEdit(billing.Appointment{ID: "a1", Amount: "200", PaymentMethod: "Espèces"})
	if err := session.SetAmount("0"); err != nil {
		t.Fatal(err)
	}

	update, err := session.CommitEdit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if update.Status != "-" || update.PaymentMethod != "-" {
		t.Errorf("zero amount must force \"-\", got %q / %q", update.Status, update.PaymentMethod)
	}
	if update.Amount != "" {
		t.Errorf("zero amount is stored as empty string, got %q", update.Amount)
	}
	if appt, _ := mem.Appointment("a1"); appt.Amount != "" || appt.Status != "-" {
		t.Errorf("persisted record wrong: %+v", appt)
	}
}

func TestCommitEdit_RederivesReductionIgnoringManualStatus(t *testing.T) {
	session, _ := newTestSession(t)

	session.BeginEdit(billing.Appointment{ID: "a1"})
	if err := session.SetStatus("Gratuit"); err != nil {
		t.Fatal(err)
	}
	if err := session.SetAmount("100"); err != nil {
		t.Fatal(err)
	}

	update, err := session.CommitEdit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if update.Status != "Réduction (75%)" {
		t.Errorf("positive amount recomputes status, got %q", update.Status)
	}
}

func TestCommitEdit_FullPriceIsPaye(t *testing.T) {
	session, _ := newTestSession(t)
	session.BeginEdit(billing.Appointment{ID: "a2"})
	if err := session.SetAmount("400"); err != nil {
		t.Fatal(err)
	}
	if err := session.SetPaymentMethod("Virement"); err != nil {
		t.Fatal(err)
	}

	update, err := session.CommitEdit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if update.Status != "Payé" {
		t.Errorf("status: %q", update.Status)
	}
	if update.PaymentMethod != "Virement" {
		t.Errorf("payment method taken from buffer as-is, got %q", update.PaymentMethod)
	}
}

func TestCommitEdit_MutuelleTakenFromBuffer(t *testing.T) {
	session, mem := newTestSession(t)
	session.BeginEdit(billing.Appointment{ID: "a1", Amount: "250"})
	if err := session.SetMutuelleActive(true); err != nil {
		t.Fatal(err)
	}
	if err := session.SetMutuelleNom("CNSS"); err != nil {
		t.Fatal(err)
	}

	if _, err := session.CommitEdit(context.Background()); err != nil {
		t.Fatal(err)
	}
	appt, _ := mem.Appointment("a1")
	if appt.Mutuelle == nil || !appt.Mutuelle.Active || appt.Mutuelle.Nom != "CNSS" {
		t.Errorf("persisted mutuelle wrong: %+v", appt.Mutuelle)
	}
}

func TestCommitEdit_TransitionsToViewingEvenOnPersistenceFailure(t *testing.T) {
	// Persistence is fire-and-forget for the state machine: the buffer is
	// destroyed and the error is only surfaced to the caller.
	failing := failingUpdater{err: errors.New("disk full")}
	session := billing.NewSession(failing)

	session.BeginEdit(billing.Appointment{ID: "a1", Amount: "200"})
	_, err := session.CommitEdit(context.Background())
	if err == nil {
		t.Fatal("expected the updater error to surface")
	}
	if _, editing := session.Editing(); editing {
		t.Error("session must return to Viewing regardless of persistence outcome")
	}
}

func TestSession_SettersRequireActiveEdit(t *testing.T) {
	session, _ := newTestSession(t)
	if err := session.SetAmount("100"); !errors.Is(err, billing.ErrNoActiveEdit) {
		t.Errorf("expected ErrNoActiveEdit, got %v", err)
	}
	if _, err := session.CommitEdit(context.Background()); !errors.Is(err, billing.ErrNoActiveEdit) {
		t.Errorf("expected ErrNoActiveEdit, got %v", err)
	}
}

func TestSession_ChoiceListsAreClosed(t *testing.T) {
	session, _ := newTestSession(t)
	session.BeginEdit(billing.Appointment{ID: "a1"})

	if err := session.SetStatus("Paid"); !errors.Is(err, billing.ErrUnknownStatus) {
		t.Errorf("expected ErrUnknownStatus, got %v", err)
	}
	if err := session.SetPaymentMethod("Bitcoin"); !errors.Is(err, billing.ErrUnknownPaymentMethod) {
		t.Errorf("expected ErrUnknownPaymentMethod, got %v", err)
	}
	if err := session.SetMutuelleNom("AXA"); !errors.Is(err, billing.ErrUnknownMutuelle) {
		t.Errorf("expected ErrUnknownMutuelle, got %v", err)
	}
	if err := session.SetMutuelleNom(""); err != nil {
		t.Errorf("clearing the provider is always allowed: %v", err)
	}
}

func TestBeginEdit_PreservesStoredMutuelleAndManualStatus(t *testing.T) {
	session, _ := newTestSession(t)
	appt := billing.Appointment{
		ID:            "a1",
		Amount:        "",
		Status:        "Non payé",
		PaymentMethod: "Chèque",
		Mutuelle:      &billing.Mutuelle{Active: true, Nom: "RMA"},
		Time:          time.Now(),
	}
	buf := session.BeginEdit(appt)
	if buf.Status != "Non payé" || buf.PaymentMethod != "Chèque" {
		t.Errorf("stored values must seed the buffer: %+v", buf)
	}
	if !buf.Mutuelle.Active || buf.Mutuelle.Nom != "RMA" {
		t.Errorf("stored mutuelle must seed the buffer: %+v", buf.Mutuelle)
	}
}

type failingUpdater struct{ err error }

func (f failingUpdater) UpdateAppointment(context.Context, billing.AppointmentID, billing.AppointmentUpdate) error {
	return f.err
}
