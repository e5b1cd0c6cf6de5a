// Package matching implements the admission core: building ranked applicant
// preferences from one snapshot's consenting records, running
// capacity-constrained applicant-proposing deferred acceptance over them,
// and projecting the final holds into per-program admission results.
//
// Everything in this package is a pure function of its inputs. Concurrent
// runs over different snapshots share no state.
package matching

import (
	"fmt"
	"sort"

	"github.com/noah-isme/uni-admission-api/internal/models"
	appErrors "github.com/noah-isme/uni-admission-api/pkg/errors"
)

// ScoreKey addresses one applicant's score at one program.
type ScoreKey struct {
	ApplicantID int64
	ProgramCode string
}

// Preferences is the materialized engine input built from one snapshot.
type Preferences struct {
	// Order maps each applicant to program codes, most preferred first.
	Order map[int64][]string
	// Scores holds the ranking score per (applicant, program).
	Scores map[ScoreKey]int
	// ConsentCounts tallies consenting records per program, independent of
	// the match outcome.
	ConsentCounts map[string]int
}

// BuildPreferences validates the consenting records of one snapshot against
// the configured capacity table and builds the engine input.
//
// A record referencing an unknown program code, a duplicate
// (applicant, program) pair, or duplicate priority values within one
// applicant's consented programs rejects the whole snapshot.
func BuildPreferences(records []models.ApplicationRecord, capacities map[string]int) (*Preferences, error) {
	for code, seats := range capacities {
		if seats <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("program %s has non-positive capacity %d", code, seats))
		}
	}

	prefs := &Preferences{
		Order:         make(map[int64][]string),
		Scores:        make(map[ScoreKey]int),
		ConsentCounts: make(map[string]int, len(capacities)),
	}
	for code := range capacities {
		prefs.ConsentCounts[code] = 0
	}

	type rankedChoice struct {
		priority int
		program  string
	}
	choices := make(map[int64][]rankedChoice)

	for _, rec := range records {
		if _, known := capacities[rec.ProgramCode]; !known {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown program code %s for applicant %d", rec.ProgramCode, rec.ApplicantID))
		}
		key := ScoreKey{ApplicantID: rec.ApplicantID, ProgramCode: rec.ProgramCode}
		if _, dup := prefs.Scores[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate application of applicant %d to program %s", rec.ApplicantID, rec.ProgramCode))
		}
		prefs.Scores[key] = rec.Score
		prefs.ConsentCounts[rec.ProgramCode]++
		choices[rec.ApplicantID] = append(choices[rec.ApplicantID], rankedChoice{priority: rec.Priority, program: rec.ProgramCode})
	}

	for applicantID, ranked := range choices {
		sort.Slice(ranked, func(i, j int) bool { return ranked[i].priority < ranked[j].priority })
		order := make([]string, 0, len(ranked))
		for i, choice := range ranked {
			if i > 0 && ranked[i-1].priority == choice.priority {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("applicant %d has duplicate priority %d", applicantID, choice.priority))
			}
			order = append(order, choice.program)
		}
		prefs.Order[applicantID] = order
	}

	return prefs, nil
}
