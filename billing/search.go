package billing

import "strings"

// =============================================================================
// SEARCH MATCHER - Tokenized AND search over denormalized fields
// =============================================================================

// MatchesQuery reports whether a joined record matches the search query.
// The query is lower-cased and split on whitespace; a record matches iff
// every token is contained in the record's searchable content. A token
// wrapped in leading and trailing '*' is a substring pattern with the
// markers stripped (an empty pattern matches unconditionally); since plain
// tokens already match by substring containment, the markers are cosmetic.
// An empty query matches everything.
func MatchesQuery(query string, rec JoinedRecord) bool {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return true
	}
	content := SearchContent(rec)
	for _, token := range tokens {
		if !matchToken(content, token) {
			return false
		}
	}
	return true
}

// SearchContent flattens the record's searchable fields into a single
// lower-cased, space-joined string: patient display code, surname, first
// name, raw amount text, displayed status, payment method, and mutuelle
// provider. Non-present fields are skipped.
func SearchContent(rec JoinedRecord) string {
	appt := rec.Appointment
	fields := []string{
		rec.Patient.NumeroPatient,
		rec.Patient.Nom,
		rec.Patient.Prenom,
		appt.Amount,
		EffectiveStatus(appt),
		appt.PaymentMethod,
	}
	if appt.Mutuelle != nil {
		fields = append(fields, appt.Mutuelle.Nom)
	}
	present := fields[:0]
	for _, f := range fields {
		if f != "" {
			present = append(present, strings.ToLower(f))
		}
	}
	return strings.Join(present, " ")
}

func matchToken(content, token string) bool {
	if len(token) >= 2 && strings.HasPrefix(token, "*") && strings.HasSuffix(token, "*") {
		token = token[1 : len(token)-1]
		if token == "" {
			return true
		}
	}
	return strings.Contains(content, token)
}
