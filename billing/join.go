package billing

import "sort"

// =============================================================================
// RECORD JOINER - Appointment -> Patient resolution
// =============================================================================

// JoinRecords resolves each appointment's patient and returns the joined
// records sorted by consultation time, most recent first. Appointments whose
// PatientID does not resolve are silently dropped; an orphaned record is a
// data condition, not an error. Ties on time keep input order (stable sort).
func JoinRecords(appointments []Appointment, patients []Patient) []JoinedRecord {
	byID := make(map[PatientID]Patient, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
	}

	joined := make([]JoinedRecord, 0, len(appointments))
	for _, appt := range appointments {
		patient, ok := byID[appt.PatientID]
		if !ok {
			continue
		}
		joined = append(joined, JoinedRecord{Appointment: appt, Patient: patient})
	}

	sort.SliceStable(joined, func(i, j int) bool {
		return joined[i].Appointment.Time.After(joined[j].Appointment.Time)
	})
	return joined
}
