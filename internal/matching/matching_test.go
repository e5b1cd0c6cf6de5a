package matching

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-admission-api/internal/models"
	appErrors "github.com/noah-isme/uni-admission-api/pkg/errors"
)

func record(applicantID int64, program string, priority, score int) models.ApplicationRecord {
	return models.ApplicationRecord{ApplicantID: applicantID, ProgramCode: program, Priority: priority, Score: score}
}

func TestComputeSingleWinner(t *testing.T) {
	capacities := map[string]int{"X": 1}
	records := []models.ApplicationRecord{
		record(1001, "X", 1, 90),
		record(1002, "X", 1, 95),
		record(1003, "X", 1, 80),
	}

	results, err := Compute(records, capacities)
	require.NoError(t, err)

	res := results["X"]
	require.Len(t, res.Admitted, 1)
	assert.Equal(t, int64(1002), res.Admitted[0].ApplicantID)
	assert.Equal(t, 95, res.Admitted[0].Score)
	require.NotNil(t, res.Cutoff)
	assert.Equal(t, 95, *res.Cutoff)
	assert.Equal(t, 3, res.ConsentCount)
}

func TestComputeCascadingRejection(t *testing.T) {
	capacities := map[string]int{"X": 1, "Y": 1}
	records := []models.ApplicationRecord{
		record(1, "X", 1, 10),
		record(1, "Y", 2, 10),
		record(2, "X", 1, 20),
	}

	results, err := Compute(records, capacities)
	require.NoError(t, err)

	x := results["X"]
	require.Len(t, x.Admitted, 1)
	assert.Equal(t, int64(2), x.Admitted[0].ApplicantID)
	require.NotNil(t, x.Cutoff)
	assert.Equal(t, 20, *x.Cutoff)

	y := results["Y"]
	require.Len(t, y.Admitted, 1)
	assert.Equal(t, int64(1), y.Admitted[0].ApplicantID)
	require.NotNil(t, y.Cutoff)
	assert.Equal(t, 10, *y.Cutoff)
}

func TestEmptyResultsForMissingDay(t *testing.T) {
	results := EmptyResults([]string{"PM", "IVT"})

	require.Len(t, results, 2)
	for _, res := range results {
		assert.Empty(t, res.Admitted)
		assert.Nil(t, res.Cutoff)
		assert.Nil(t, res.DisplayCutoff)
		assert.Equal(t, 0, res.ConsentCount)
	}
}

func TestComputeDeterministic(t *testing.T) {
	capacities := map[string]int{"PM": 3, "IVT": 2, "ITSS": 2}
	records := randomRecords(t, 40, capacities)

	first, err := Compute(records, capacities)
	require.NoError(t, err)
	second, err := Compute(records, capacities)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeCapacityBound(t *testing.T) {
	capacities := map[string]int{"PM": 2, "IVT": 3, "ITSS": 1}
	records := randomRecords(t, 60, capacities)

	results, err := Compute(records, capacities)
	require.NoError(t, err)

	for program, res := range results {
		assert.LessOrEqual(t, len(res.Admitted), capacities[program], "program %s over capacity", program)
	}
}

// No applicant may prefer a program over their outcome while that program
// still has room or holds someone scoring below them.
func TestComputeStability(t *testing.T) {
	capacities := map[string]int{"PM": 3, "IVT": 2, "ITSS": 2, "IB": 1}
	records := randomRecords(t, 80, capacities)

	prefs, err := BuildPreferences(records, capacities)
	require.NoError(t, err)
	results, err := Compute(records, capacities)
	require.NoError(t, err)

	assigned := make(map[int64]string)
	for program, res := range results {
		for _, adm := range res.Admitted {
			assigned[adm.ApplicantID] = program
		}
	}

	for applicantID, order := range prefs.Order {
		for _, program := range order {
			if assigned[applicantID] == program {
				break
			}
			res := results[program]
			score := prefs.Scores[ScoreKey{ApplicantID: applicantID, ProgramCode: program}]
			require.Len(t, res.Admitted, capacities[program],
				"applicant %d rejected by undersubscribed program %s", applicantID, program)
			lowest := res.Admitted[len(res.Admitted)-1].Score
			require.LessOrEqual(t, score, lowest,
				"applicant %d (score %d) should displace someone at %s", applicantID, score, program)
		}
	}
}

func TestTieBreakPrefersLowerApplicantID(t *testing.T) {
	capacities := map[string]int{"X": 2}
	records := []models.ApplicationRecord{
		record(30, "X", 1, 70),
		record(10, "X", 1, 70),
		record(20, "X", 1, 70),
	}

	results, err := Compute(records, capacities)
	require.NoError(t, err)

	res := results["X"]
	require.Len(t, res.Admitted, 2)
	assert.Equal(t, int64(10), res.Admitted[0].ApplicantID)
	assert.Equal(t, int64(20), res.Admitted[1].ApplicantID)
}

func TestCutoffRules(t *testing.T) {
	capacities := map[string]int{"FULL": 2, "OPEN": 5}
	records := []models.ApplicationRecord{
		record(1, "FULL", 1, 90),
		record(2, "FULL", 1, 85),
		record(3, "FULL", 1, 80),
		record(4, "OPEN", 1, 77),
		record(5, "OPEN", 1, 60),
	}

	results, err := Compute(records, capacities)
	require.NoError(t, err)

	full := results["FULL"]
	require.NotNil(t, full.Cutoff)
	assert.Equal(t, 85, *full.Cutoff)
	require.NotNil(t, full.DisplayCutoff)
	assert.Equal(t, 85, *full.DisplayCutoff)

	open := results["OPEN"]
	assert.Nil(t, open.Cutoff, "undersubscribed program must not report a cutoff")
	require.NotNil(t, open.DisplayCutoff)
	assert.Equal(t, 60, *open.DisplayCutoff)
	assert.Equal(t, 2, open.ConsentCount)
}

func TestUnadmittedApplicantsExhaustPreferences(t *testing.T) {
	capacities := map[string]int{"X": 1, "Y": 1}
	records := []models.ApplicationRecord{
		record(1, "X", 1, 50),
		record(1, "Y", 2, 50),
		record(2, "X", 1, 60),
		record(2, "Y", 2, 60),
		record(3, "X", 1, 70),
	}

	prefs, err := BuildPreferences(records, capacities)
	require.NoError(t, err)
	e, err := runEngine(prefs, capacities)
	require.NoError(t, err)

	admitted := make(map[int64]bool)
	for _, ids := range e.tentative {
		for _, id := range ids {
			admitted[id] = true
		}
	}
	for applicantID, order := range prefs.Order {
		if admitted[applicantID] {
			continue
		}
		assert.Equal(t, len(order), e.cursor[applicantID],
			"unadmitted applicant %d must have exhausted their preference list", applicantID)
	}
	// Applicant 1 loses X to 3 and Y to 2, so only 1 is left out.
	assert.False(t, admitted[1])
	assert.True(t, admitted[2])
	assert.True(t, admitted[3])
}

func TestResolveProgramSingleRound(t *testing.T) {
	prefs := &Preferences{
		Scores: map[ScoreKey]int{
			{ApplicantID: 1, ProgramCode: "X"}: 50,
			{ApplicantID: 2, ProgramCode: "X"}: 70,
			{ApplicantID: 3, ProgramCode: "X"}: 60,
		},
	}
	e := &engine{
		prefs:      prefs,
		capacities: map[string]int{"X": 2},
		tentative:  map[string][]int64{"X": {1}},
	}

	outcome, err := e.resolveProgram("X", 2, []int64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, outcome.Accepted)
	assert.Equal(t, []int64{1}, outcome.Rejected)
}

func TestBuildPreferencesValidation(t *testing.T) {
	capacities := map[string]int{"X": 1, "Y": 1}

	t.Run("unknown program", func(t *testing.T) {
		_, err := BuildPreferences([]models.ApplicationRecord{record(1, "ZZ", 1, 10)}, capacities)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})

	t.Run("duplicate priority", func(t *testing.T) {
		records := []models.ApplicationRecord{
			record(1, "X", 1, 10),
			record(1, "Y", 1, 10),
		}
		_, err := BuildPreferences(records, capacities)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})

	t.Run("duplicate application pair", func(t *testing.T) {
		records := []models.ApplicationRecord{
			record(1, "X", 1, 10),
			record(1, "X", 2, 10),
		}
		_, err := BuildPreferences(records, capacities)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})

	t.Run("non-positive capacity", func(t *testing.T) {
		_, err := BuildPreferences(nil, map[string]int{"X": 0})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	})
}

func TestRunInvariantViolations(t *testing.T) {
	t.Run("program missing from capacity table", func(t *testing.T) {
		prefs := &Preferences{
			Order:  map[int64][]string{1: {"GHOST"}},
			Scores: map[ScoreKey]int{{ApplicantID: 1, ProgramCode: "GHOST"}: 10},
		}
		_, err := Run(prefs, map[string]int{"X": 1})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrInvariant.Code, appErrors.FromError(err).Code)
	})

	t.Run("missing score entry", func(t *testing.T) {
		prefs := &Preferences{
			Order:  map[int64][]string{1: {"X"}},
			Scores: map[ScoreKey]int{},
		}
		_, err := Run(prefs, map[string]int{"X": 1})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrInvariant.Code, appErrors.FromError(err).Code)
	})

	t.Run("cursor past end of preference list", func(t *testing.T) {
		e := &engine{
			prefs:      &Preferences{Order: map[int64][]string{1: {"X"}}},
			capacities: map[string]int{"X": 1},
			cursor:     map[int64]int{1: 5},
			unassigned: map[int64]struct{}{1: {}},
		}
		_, err := e.collectProposals()
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrInvariant.Code, appErrors.FromError(err).Code)
	})

	t.Run("negative cursor", func(t *testing.T) {
		e := &engine{
			prefs:      &Preferences{Order: map[int64][]string{1: {"X"}}},
			capacities: map[string]int{"X": 1},
			cursor:     map[int64]int{1: -1},
			unassigned: map[int64]struct{}{1: {}},
		}
		_, err := e.collectProposals()
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrInvariant.Code, appErrors.FromError(err).Code)
	})
}

// randomRecords builds a deterministic pseudo-random snapshot where every
// applicant ranks a subset of programs without priority collisions.
func randomRecords(t *testing.T, applicants int, capacities map[string]int) []models.ApplicationRecord {
	t.Helper()

	programs := make([]string, 0, len(capacities))
	for code := range capacities {
		programs = append(programs, code)
	}

	rng := rand.New(rand.NewSource(20250801))
	var records []models.ApplicationRecord
	for i := 0; i < applicants; i++ {
		applicantID := int64(1000 + i)
		perm := rng.Perm(len(programs))
		count := 1 + rng.Intn(len(programs))
		for priority := 1; priority <= count; priority++ {
			records = append(records, record(applicantID, programs[perm[priority-1]], priority, 120+rng.Intn(180)))
		}
	}
	return records
}
