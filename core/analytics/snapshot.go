package analytics

import (
	"time"

	"github.com/trezcool/educonnect/core/contact"
)

const (
	rangeDateLayout   = "Jan 2, 2006"
	generatedAtLayout = "Jan 2, 2006, 3:04:05 PM MST"
)

// Filters restricts the records an analytics snapshot is computed from.
// Empty slices mean no restriction.
type Filters struct {
	Methods    []contact.Method
	Categories []contact.Category
}

// Labels describes the active filters, eg. "Method: Email", "Reason: Academic".
func (f Filters) Labels() []string {
	labels := make([]string, 0, len(f.Methods)+len(f.Categories))
	for _, m := range f.Methods {
		labels = append(labels, "Method: "+contact.MethodLabel(m))
	}
	for _, c := range f.Categories {
		labels = append(labels, "Reason: "+contact.CategoryLabel(c))
	}
	return labels
}

// RangeLabel formats `r` as "Jan 2, 2006 – Jan 8, 2006", or a single date when both ends fall on the same day.
func RangeLabel(r Range) string {
	start := r.Start.Format(rangeDateLayout)
	end := r.End.Format(rangeDateLayout)
	if start == end {
		return start
	}
	return start + " – " + end
}

// Snapshot is an immutable analytics summary, as rendered by the API and the PDF report.
type Snapshot struct {
	Range       Range     `json:"range"`
	RangeLabel  string    `json:"range_label"`
	GeneratedAt time.Time `json:"generated_at"`
	Filters     []string  `json:"filters"`
	Result
}

func NewSnapshot(res Result, rng Range, filters Filters, generatedAt time.Time) Snapshot {
	return Snapshot{
		Range:       rng,
		RangeLabel:  RangeLabel(rng),
		GeneratedAt: generatedAt.In(rng.Start.Location()),
		Filters:     filters.Labels(),
		Result:      res,
	}
}
