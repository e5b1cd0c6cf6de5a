package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/uni-admission-api/internal/models"
)

// UndersubscribedLabel marks programs whose seats were not filled.
const UndersubscribedLabel = "UNDERSUBSCRIBED"

// ReportProgram aggregates everything the report prints about one program.
type ReportProgram struct {
	Code          string
	Name          string
	Seats         int
	ConsentCount  int
	DisplayCutoff *int
	Admitted      []models.AdmittedApplicant
	// Applications and AdmittedCount are keyed by priority rank.
	ApplicationsByPriority map[int]int
	AdmittedByPriority     map[int]int
	TotalApplications      int
}

// ReportData is the full input for one admission report.
type ReportData struct {
	Day         string
	GeneratedAt time.Time
	Programs    []ReportProgram
	// DayLabels and CutoffSeries feed the cutoff-dynamics chart: one series
	// per program across all campaign days, nil where undersubscribed.
	DayLabels    []string
	CutoffSeries map[string][]*int
	// MaxPriority bounds the statistics breakdown columns.
	MaxPriority int
}

// PDFExporter renders the per-day admission report: cutoff table, cutoff
// dynamics chart, admitted lists, and a priority statistics table.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

var chartColors = [][3]int{
	{31, 119, 180},
	{255, 127, 14},
	{44, 160, 44},
	{214, 39, 40},
	{148, 103, 189},
	{140, 86, 75},
}

// Render creates the PDF document.
func (e *PDFExporter) Render(data ReportData) ([]byte, error) {
	if len(data.Programs) == 0 {
		return nil, fmt.Errorf("pdf report requires at least one program")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("Admission report - %s", data.Day), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated: %s UTC", data.GeneratedAt.UTC().Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	e.renderCutoffTable(pdf, data)
	e.renderCutoffChart(pdf, data)
	e.renderAdmittedLists(pdf, data)
	e.renderStatistics(pdf, data)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) renderCutoffTable(pdf *gofpdf.Fpdf, data ReportData) {
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Cutoffs", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 9)
	widths := []float64{40, 30, 40, 40}
	headers := []string{"Program", "Seats", "Consents", "Cutoff"}
	for i, header := range headers {
		pdf.CellFormat(widths[i], 6, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, prog := range data.Programs {
		cutoff := UndersubscribedLabel
		if prog.DisplayCutoff != nil {
			cutoff = fmt.Sprintf("%d", *prog.DisplayCutoff)
		}
		pdf.CellFormat(widths[0], 6, prog.Code, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", prog.Seats), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%d", prog.ConsentCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, cutoff, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

// renderCutoffChart draws the cutoff dynamics as polylines on a plain axis
// grid. Undersubscribed days plot as zero, matching the original report.
func (e *PDFExporter) renderCutoffChart(pdf *gofpdf.Fpdf, data ReportData) {
	if len(data.DayLabels) == 0 || len(data.CutoffSeries) == 0 {
		return
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Cutoff dynamics (0 = undersubscribed)", "", 1, "L", false, 0, "")

	const (
		chartW = 170.0
		chartH = 60.0
	)
	originX, originY := pdf.GetX(), pdf.GetY()
	plotX := originX + 12
	plotY := originY + 2
	plotW := chartW - 18
	plotH := chartH - 12

	maxValue := 1
	for _, series := range data.CutoffSeries {
		for _, v := range series {
			if v != nil && *v > maxValue {
				maxValue = *v
			}
		}
	}

	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(plotX, plotY, plotX, plotY+plotH)
	pdf.Line(plotX, plotY+plotH, plotX+plotW, plotY+plotH)

	pdf.SetFont("Arial", "", 7)
	for i := 0; i <= 4; i++ {
		value := maxValue * i / 4
		y := plotY + plotH - plotH*float64(i)/4
		pdf.SetDrawColor(220, 220, 220)
		pdf.Line(plotX, y, plotX+plotW, y)
		pdf.Text(originX, y+1, fmt.Sprintf("%d", value))
	}

	stepX := plotW
	if len(data.DayLabels) > 1 {
		stepX = plotW / float64(len(data.DayLabels)-1)
	}
	for i, label := range data.DayLabels {
		x := plotX + stepX*float64(i)
		pdf.Text(x-3, plotY+plotH+4, label)
	}

	colorIdx := 0
	for _, prog := range data.Programs {
		series, ok := data.CutoffSeries[prog.Code]
		if !ok {
			continue
		}
		color := chartColors[colorIdx%len(chartColors)]
		colorIdx++
		pdf.SetDrawColor(color[0], color[1], color[2])
		pdf.SetFillColor(color[0], color[1], color[2])

		prevX, prevY := 0.0, 0.0
		for i, v := range series {
			value := 0
			if v != nil {
				value = *v
			}
			x := plotX + stepX*float64(i)
			y := plotY + plotH - plotH*float64(value)/float64(maxValue)
			pdf.Circle(x, y, 0.8, "F")
			if i > 0 {
				pdf.Line(prevX, prevY, x, y)
			}
			prevX, prevY = x, y
		}

		legendY := plotY + 3 + 4*float64(colorIdx-1)
		pdf.Line(plotX+plotW-22, legendY, plotX+plotW-17, legendY)
		pdf.SetTextColor(color[0], color[1], color[2])
		pdf.Text(plotX+plotW-15, legendY+1, prog.Code)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetY(originY + chartH + 4)
}

func (e *PDFExporter) renderAdmittedLists(pdf *gofpdf.Fpdf, data ReportData) {
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Admitted lists", "", 1, "L", false, 0, "")

	for _, prog := range data.Programs {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 6, fmt.Sprintf("Program %s (%d admitted)", prog.Code, len(prog.Admitted)), "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(40, 5, "Applicant ID", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 5, "Score", "1", 1, "C", false, 0, "")
		for _, adm := range prog.Admitted {
			if pdf.GetY() > 275 {
				pdf.AddPage()
				pdf.SetFont("Arial", "", 8)
			}
			pdf.CellFormat(40, 5, fmt.Sprintf("%d", adm.ApplicantID), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 5, fmt.Sprintf("%d", adm.Score), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}
}

func (e *PDFExporter) renderStatistics(pdf *gofpdf.Fpdf, data ReportData) {
	if pdf.GetY() > 220 {
		pdf.AddPage()
	}

	maxPriority := data.MaxPriority
	if maxPriority <= 0 {
		maxPriority = 4
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Statistics", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 7)
	pdf.CellFormat(24, 5, "Program", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 5, "Applications", "1", 0, "C", false, 0, "")
	pdf.CellFormat(14, 5, "Seats", "1", 0, "C", false, 0, "")
	for p := 1; p <= maxPriority; p++ {
		pdf.CellFormat(14, 5, fmt.Sprintf("P%d", p), "1", 0, "C", false, 0, "")
	}
	for p := 1; p <= maxPriority; p++ {
		pdf.CellFormat(16, 5, fmt.Sprintf("Adm P%d", p), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 7)
	for _, prog := range data.Programs {
		pdf.CellFormat(24, 5, prog.Code, "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 5, fmt.Sprintf("%d", prog.TotalApplications), "1", 0, "R", false, 0, "")
		pdf.CellFormat(14, 5, fmt.Sprintf("%d", prog.Seats), "1", 0, "R", false, 0, "")
		for p := 1; p <= maxPriority; p++ {
			pdf.CellFormat(14, 5, fmt.Sprintf("%d", prog.ApplicationsByPriority[p]), "1", 0, "R", false, 0, "")
		}
		for p := 1; p <= maxPriority; p++ {
			pdf.CellFormat(16, 5, fmt.Sprintf("%d", prog.AdmittedByPriority[p]), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
