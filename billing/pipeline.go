/*
pipeline.go - The composed filter pipeline

PURPOSE:
  Composes the record joiner, search matcher, and date-range filter into
  one derived view: raw appointment + patient collections in, displayed
  rows out. The pipeline is a pure recomputation over an immutable input
  snapshot; callers re-run Compute whenever any input changes. It is
  idempotent, so memoization is an optimization the caller may add, never
  a correctness requirement.

FLOW:
  JoinRecords (drop orphans, sort time desc)
    -> MatchesQuery AND DateRange.Contains
    -> Row derivation (effective status, formatted amount/code,
       consultation age)

SEE ALSO:
  - join.go, search.go, daterange.go: the composed stages
  - status.go: EffectiveStatus used for displayed labels
*/
package billing

import "time"

// =============================================================================
// PIPELINE INPUTS AND OUTPUT ROWS
// =============================================================================

// Inputs is the immutable snapshot a recomputation runs over.
type Inputs struct {
	Appointments []Appointment
	Patients     []Patient
	Query        string
	Range        DateRange
}

// Row is a displayed record: the joined data plus every derived display
// value the presentation layer needs.
type Row struct {
	Appointment Appointment
	Patient     Patient

	Status        string // effective label, never empty
	ReductionRate int    // reduction rate for the record's amount
	AmountDisplay string
	PatientCode   string
	ConsultAge    string
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline derives displayed rows from raw collections. Construct once with
// the display formatters and reuse; Compute holds no state between calls.
type Pipeline struct {
	Amounts AmountFormatter
	Codes   PatientCodeFormatter

	// Now is the clock used for consultation aging. Nil means time.Now.
	Now func() time.Time
}

// NewPipeline builds a pipeline with the default display formatters.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Amounts: DefaultAmountFormatter{},
		Codes:   DefaultPatientCodeFormatter{},
	}
}

// Compute recomputes the derived view in full: join, filter, derive.
// Two calls on equal inputs yield identical output, set, order, and labels.
func (p *Pipeline) Compute(in Inputs) []Row {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}

	joined := JoinRecords(in.Appointments, in.Patients)
	rows := make([]Row, 0, len(joined))
	for _, rec := range joined {
		if !MatchesQuery(in.Query, rec) {
			continue
		}
		if !in.Range.Contains(rec.Appointment.Time) {
			continue
		}
		rows = append(rows, p.deriveRow(rec, now))
	}
	return rows
}

func (p *Pipeline) deriveRow(rec JoinedRecord, now time.Time) Row {
	appt := rec.Appointment
	return Row{
		Appointment:   appt,
		Patient:       rec.Patient,
		Status:        EffectiveStatus(appt),
		ReductionRate: ReductionRate(ParseAmount(appt.Amount)),
		AmountDisplay: p.Amounts.Format(appt.Amount),
		PatientCode:   p.Codes.Format(rec.Patient.NumeroPatient),
		ConsultAge:    ConsultationAge(appt.LastConsultAmount, appt.LastConsultAt, now, p.Amounts),
	}
}
