package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/educonnect/core/pdf"
)

const (
	ReportTitle = "EduConnect Analytics Summary"

	maxDistributionRows = 6
	maxCadenceRows      = 8
)

// ReportFilename returns the download name of a report generated at `t`, eg. "educonnect-analytics-2024-01-03.pdf".
func ReportFilename(prefix string, t time.Time) string {
	return prefix + "-" + t.Format("2006-01-02") + ".pdf"
}

// EncodeSnapshot renders `s` as a single-page PDF report.
// Rows past the page bottom are not paginated.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return pdf.Encode(reportLines(s))
}

func reportLines(s Snapshot) []pdf.Line {
	lines := []pdf.Line{
		{Text: ReportTitle, Font: pdf.FontBold, Size: 20},
		{Text: "Generated on " + s.GeneratedAt.Format(generatedAtLayout), Gap: 26},
		{Text: "Time range: " + s.RangeLabel},
	}
	if len(s.Filters) > 0 {
		lines = append(lines, pdf.Line{Text: "Active filters: " + strings.Join(s.Filters, ", ")})
	} else {
		lines = append(lines, pdf.Line{Text: "Active filters: All methods and reasons"})
	}

	lines = append(lines,
		heading("Key metrics", 28),
		bullet(fmt.Sprintf("Total contacts: %d", s.KPIs.TotalContacts)),
		bullet(fmt.Sprintf("Students reached: %d", s.KPIs.StudentsReached)),
		bullet("Average contacts per week: "+strconv.FormatFloat(s.KPIs.AvgPerWeek, 'f', -1, 64)),
	)

	lines = append(lines, heading("Method breakdown", 28))
	lines = append(lines, rows(s.Methods, maxDistributionRows, "No communication logged in this range.")...)

	lines = append(lines, heading("Reason breakdown", 24))
	lines = append(lines, rows(s.Reasons, maxDistributionRows, "No reasons recorded in this range.")...)

	lines = append(lines, heading("Cadence overview", 24))
	lines = append(lines, rows(s.Trend, maxCadenceRows, "No activity to plot.")...)

	return lines
}

func heading(text string, gap float64) pdf.Line {
	return pdf.Line{Text: text, Font: pdf.FontBold, Size: 14, Gap: gap}
}

func bullet(text string) pdf.Line {
	return pdf.Line{Text: "• " + text}
}

func rows(points []Point, max int, empty string) []pdf.Line {
	if len(points) == 0 {
		return []pdf.Line{bullet(empty)}
	}
	if len(points) > max {
		points = points[:max]
	}
	lines := make([]pdf.Line, 0, len(points))
	for _, p := range points {
		lines = append(lines, bullet(fmt.Sprintf("%s: %d contact(s)", p.Label, p.Count)))
	}
	return lines
}
