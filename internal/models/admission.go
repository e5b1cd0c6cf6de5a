package models

// AdmittedApplicant is one admitted entry ordered by (score desc, id asc).
type AdmittedApplicant struct {
	ApplicantID int64 `json:"applicant_id"`
	Score       int   `json:"score"`
}

// AdmissionResult is the per-program outcome of one matching run.
//
// Cutoff is nil when the program is undersubscribed: no applicant was
// rejected purely on score, so no boundary exists. DisplayCutoff substitutes
// the lowest admitted score in that case; report consumers pick which of the
// two they need.
type AdmissionResult struct {
	Admitted      []AdmittedApplicant `json:"admitted"`
	Cutoff        *int                `json:"cutoff"`
	DisplayCutoff *int                `json:"display_cutoff"`
	ConsentCount  int                 `json:"consent_count"`
}

// Filled reports whether every seat of the given capacity is taken.
func (r AdmissionResult) Filled(capacity int) bool {
	return len(r.Admitted) == capacity
}

// CutoffRow is one line of the per-day cutoff table.
type CutoffRow struct {
	ProgramCode   string `json:"program_code"`
	ProgramName   string `json:"program_name"`
	Seats         int    `json:"seats"`
	ConsentCount  int    `json:"consent_count"`
	Cutoff        *int   `json:"cutoff"`
	DisplayCutoff *int   `json:"display_cutoff"`
	Filled        bool   `json:"filled"`
}
