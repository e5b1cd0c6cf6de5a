package matching

import (
	"fmt"
	"sort"

	appErrors "github.com/noah-isme/uni-admission-api/pkg/errors"
)

// engine carries the round state of one deferred-acceptance run. Each run
// owns its own state; nothing here outlives Run.
type engine struct {
	prefs      *Preferences
	capacities map[string]int

	tentative  map[string][]int64
	cursor     map[int64]int
	unassigned map[int64]struct{}
}

// RoundOutcome is the result of resolving proposals at one program: the new
// tentative holders and the applicants displaced or rejected this round.
type RoundOutcome struct {
	Accepted []int64
	Rejected []int64
}

// Run executes deferred acceptance and returns the final tentative holds per
// program. Termination is guaranteed: every proposal advances a cursor, and
// cursors are bounded by preference list lengths.
func Run(prefs *Preferences, capacities map[string]int) (map[string][]int64, error) {
	e, err := runEngine(prefs, capacities)
	if err != nil {
		return nil, err
	}
	return e.tentative, nil
}

func runEngine(prefs *Preferences, capacities map[string]int) (*engine, error) {
	e := &engine{
		prefs:      prefs,
		capacities: capacities,
		tentative:  make(map[string][]int64, len(capacities)),
		cursor:     make(map[int64]int, len(prefs.Order)),
		unassigned: make(map[int64]struct{}, len(prefs.Order)),
	}
	for applicantID := range prefs.Order {
		e.cursor[applicantID] = 0
		e.unassigned[applicantID] = struct{}{}
	}

	for {
		proposals, err := e.collectProposals()
		if err != nil {
			return nil, err
		}
		if len(proposals) == 0 {
			return e, nil
		}
		if err := e.applyProposals(proposals); err != nil {
			return nil, err
		}
	}
}

// collectProposals advances every unassigned applicant by one preference.
// Applicants whose cursor passed the end of their list are permanently
// dropped; the cursor stays exhausted as the final non-admission record.
func (e *engine) collectProposals() (map[string][]int64, error) {
	proposals := make(map[string][]int64)

	for _, applicantID := range e.sortedUnassigned() {
		order := e.prefs.Order[applicantID]
		idx := e.cursor[applicantID]
		if idx < 0 || idx > len(order) {
			return nil, appErrors.Clone(appErrors.ErrInvariant, fmt.Sprintf("applicant %d has out-of-range cursor %d", applicantID, idx))
		}
		if idx == len(order) {
			delete(e.unassigned, applicantID)
			continue
		}
		program := order[idx]
		// The cursor advances exactly once per proposal, accepted or not.
		// A later displacement never rewinds it, so no applicant is ever
		// re-proposed to a program that already turned them down.
		e.cursor[applicantID] = idx + 1
		proposals[program] = append(proposals[program], applicantID)
	}

	return proposals, nil
}

// applyProposals resolves each targeted program in isolation.
func (e *engine) applyProposals(proposals map[string][]int64) error {
	for _, program := range sortedKeys(proposals) {
		capacity, known := e.capacities[program]
		if !known {
			return appErrors.Clone(appErrors.ErrInvariant, fmt.Sprintf("program %s missing from capacity table", program))
		}

		outcome, err := e.resolveProgram(program, capacity, proposals[program])
		if err != nil {
			return err
		}

		e.tentative[program] = outcome.Accepted
		for _, applicantID := range outcome.Accepted {
			delete(e.unassigned, applicantID)
		}
		for _, applicantID := range outcome.Rejected {
			e.unassigned[applicantID] = struct{}{}
		}
	}
	return nil
}

// resolveProgram pools the current holders with the new proposers, ranks the
// pool by (score desc, applicant id asc), and keeps the top capacity. It is
// a pure function of its arguments, which keeps a single round testable.
func (e *engine) resolveProgram(program string, capacity int, proposers []int64) (RoundOutcome, error) {
	pool := make([]int64, 0, len(e.tentative[program])+len(proposers))
	pool = append(pool, e.tentative[program]...)
	pool = append(pool, proposers...)

	for _, applicantID := range pool {
		if _, ok := e.prefs.Scores[ScoreKey{ApplicantID: applicantID, ProgramCode: program}]; !ok {
			return RoundOutcome{}, appErrors.Clone(appErrors.ErrInvariant, fmt.Sprintf("no score for applicant %d at program %s", applicantID, program))
		}
	}

	sortByRank(pool, program, e.prefs.Scores)

	if len(pool) <= capacity {
		return RoundOutcome{Accepted: pool}, nil
	}
	accepted := make([]int64, capacity)
	copy(accepted, pool[:capacity])
	rejected := make([]int64, len(pool)-capacity)
	copy(rejected, pool[capacity:])
	return RoundOutcome{Accepted: accepted, Rejected: rejected}, nil
}

func (e *engine) sortedUnassigned() []int64 {
	ids := make([]int64, 0, len(e.unassigned))
	for applicantID := range e.unassigned {
		ids = append(ids, applicantID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sortByRank orders applicants at a program by score descending, ties broken
// by the lower applicant id.
func sortByRank(ids []int64, program string, scores map[ScoreKey]int) {
	sort.Slice(ids, func(i, j int) bool {
		si := scores[ScoreKey{ApplicantID: ids[i], ProgramCode: program}]
		sj := scores[ScoreKey{ApplicantID: ids[j], ProgramCode: program}]
		if si != sj {
			return si > sj
		}
		return ids[i] < ids[j]
	})
}

func sortedKeys(m map[string][]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
