package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/noah-isme/uni-admission-api/internal/models"
)

// CSVExporter renders admission outcomes into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// RenderAdmitted produces one CSV with the admitted lists of every program
// for a day, in the given program display order.
func (e *CSVExporter) RenderAdmitted(day string, programOrder []string, results map[string]models.AdmissionResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writer.Write([]string{"day", "program_code", "rank", "applicant_id", "score"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, code := range programOrder {
		res, ok := results[code]
		if !ok {
			continue
		}
		for rank, adm := range res.Admitted {
			row := []string{
				day,
				code,
				strconv.Itoa(rank + 1),
				strconv.FormatInt(adm.ApplicantID, 10),
				strconv.Itoa(adm.Score),
			}
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
