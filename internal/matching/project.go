package matching

import (
	"github.com/noah-isme/uni-admission-api/internal/models"
)

// Compute runs the full pipeline over one snapshot's consenting records:
// build preferences, run deferred acceptance, project results. It is the
// single entry point callers use; no state persists between invocations.
func Compute(records []models.ApplicationRecord, capacities map[string]int) (map[string]models.AdmissionResult, error) {
	prefs, err := BuildPreferences(records, capacities)
	if err != nil {
		return nil, err
	}
	final, err := Run(prefs, capacities)
	if err != nil {
		return nil, err
	}
	return Project(final, prefs, capacities), nil
}

// Project converts the engine's final holds into per-program admission
// results ordered by (score desc, applicant id asc).
func Project(final map[string][]int64, prefs *Preferences, capacities map[string]int) map[string]models.AdmissionResult {
	results := make(map[string]models.AdmissionResult, len(capacities))

	for program, capacity := range capacities {
		ids := append([]int64(nil), final[program]...)
		sortByRank(ids, program, prefs.Scores)

		admitted := make([]models.AdmittedApplicant, 0, len(ids))
		for _, applicantID := range ids {
			admitted = append(admitted, models.AdmittedApplicant{
				ApplicantID: applicantID,
				Score:       prefs.Scores[ScoreKey{ApplicantID: applicantID, ProgramCode: program}],
			})
		}

		result := models.AdmissionResult{
			Admitted:     admitted,
			ConsentCount: prefs.ConsentCounts[program],
		}
		if len(admitted) > 0 {
			last := admitted[len(admitted)-1].Score
			result.DisplayCutoff = &last
			if len(admitted) == capacity {
				// The program is full: the last admitted score is the real
				// boundary. Undersubscribed programs keep Cutoff nil.
				result.Cutoff = &last
			}
		}
		results[program] = result
	}

	return results
}

// EmptyResults is the defined outcome for a day without any snapshot: every
// configured program gets an empty admitted list, no cutoff, and zero
// consents. It is not an error.
func EmptyResults(programCodes []string) map[string]models.AdmissionResult {
	results := make(map[string]models.AdmissionResult, len(programCodes))
	for _, code := range programCodes {
		results[code] = models.AdmissionResult{Admitted: []models.AdmittedApplicant{}}
	}
	return results
}
