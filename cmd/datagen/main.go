// Command datagen writes deterministic synthetic admission CSV exports in the
// day folder layout the importer reads (day_01/<CODE>.csv ...). Useful for
// local runs and load checks without real campaign data.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

type programSpec struct {
	code  string
	seats int
}

type application struct {
	priority     int
	physicsIKT   int
	russian      int
	math         int
	achievements int
	consent      bool
}

func (a application) total() int {
	return a.physicsIKT + a.russian + a.math + a.achievements
}

// applicant carries one synthetic applicant's choices across the campaign.
type applicant struct {
	id      int64
	choices map[string]*application
}

func main() {
	out := flag.String("out", "./data", "output directory for day folders")
	seed := flag.Int64("seed", 20250801, "random seed")
	days := flag.Int("days", 4, "number of campaign days")
	programsRaw := flag.String("programs", "PM:40,IVT:50,ITSS:30,IB:20", "comma list of code:seats")
	baseApplicants := flag.Int("applicants", 600, "applicant pool size on day one")
	dailyGrowth := flag.Int("growth", 120, "new applicants added each subsequent day")
	consentRate := flag.Float64("consent", 0.65, "probability an application carries consent")
	flag.Parse()

	programs, err := parsePrograms(*programsRaw)
	if err != nil {
		log.Fatalf("invalid -programs: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	pool := make([]*applicant, 0, *baseApplicants)
	nextID := int64(1001)

	for day := 0; day < *days; day++ {
		newcomers := *baseApplicants
		if day > 0 {
			newcomers = *dailyGrowth
		}
		for i := 0; i < newcomers; i++ {
			pool = append(pool, newApplicant(rng, nextID, programs, *consentRate))
			nextID++
		}
		// A slice of returning applicants reconsiders consent each day.
		for _, a := range pool {
			for _, app := range a.choices {
				if rng.Float64() < 0.05 {
					app.consent = !app.consent
				}
			}
		}
		if err := writeDay(*out, day, programs, pool); err != nil {
			log.Fatalf("write day %d: %v", day+1, err)
		}
	}

	log.Printf("wrote %d days, %d applicants under %s", *days, len(pool), *out)
}

func parsePrograms(raw string) ([]programSpec, error) {
	parts := strings.Split(raw, ",")
	specs := make([]programSpec, 0, len(parts))
	for _, part := range parts {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 2 {
			return nil, fmt.Errorf("entry %q must be code:seats", part)
		}
		seats, err := strconv.Atoi(fields[1])
		if err != nil || seats <= 0 {
			return nil, fmt.Errorf("entry %q has invalid seats", part)
		}
		specs = append(specs, programSpec{code: fields[0], seats: seats})
	}
	return specs, nil
}

func newApplicant(rng *rand.Rand, id int64, programs []programSpec, consentRate float64) *applicant {
	count := 1 + rng.Intn(len(programs))
	order := rng.Perm(len(programs))[:count]

	// One exam sitting: the same component scores apply to every choice.
	physics := 40 + rng.Intn(61)
	russian := 40 + rng.Intn(61)
	math := 40 + rng.Intn(61)
	achievements := rng.Intn(11)

	choices := make(map[string]*application, count)
	for rank, idx := range order {
		choices[programs[idx].code] = &application{
			priority:     rank + 1,
			physicsIKT:   physics,
			russian:      russian,
			math:         math,
			achievements: achievements,
			consent:      rng.Float64() < consentRate,
		}
	}
	return &applicant{id: id, choices: choices}
}

func writeDay(out string, day int, programs []programSpec, pool []*applicant) error {
	folder := filepath.Join(out, fmt.Sprintf("day_%02d", day+1))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}

	sorted := append([]*applicant(nil), pool...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].id < sorted[j].id })

	for _, program := range programs {
		if err := writeProgramFile(folder, program.code, sorted); err != nil {
			return err
		}
	}
	return nil
}

func writeProgramFile(folder, code string, pool []*applicant) error {
	f, err := os.Create(filepath.Join(folder, code+".csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"applicant_id", "consent", "priority", "physics_ikt", "russian", "math", "achievements", "total"}); err != nil {
		return err
	}
	for _, a := range pool {
		app, ok := a.choices[code]
		if !ok {
			continue
		}
		consent := "0"
		if app.consent {
			consent = "1"
		}
		record := []string{
			strconv.FormatInt(a.id, 10),
			consent,
			strconv.Itoa(app.priority),
			strconv.Itoa(app.physicsIKT),
			strconv.Itoa(app.russian),
			strconv.Itoa(app.math),
			strconv.Itoa(app.achievements),
			strconv.Itoa(app.total()),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
