package analytics

import (
	"math"
	"time"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/contact"
)

const keyLayout = core.DateLayout

type (
	KPIs struct {
		TotalContacts   int     `json:"total_contacts"`
		StudentsReached int     `json:"students_reached"`
		AvgPerWeek      float64 `json:"avg_per_week"`
	}

	// Point is one labelled count of a trend or a distribution.
	// Key is the bucket date (YYYY-MM-DD) for trends and the raw value for distributions.
	Point struct {
		Key   string `json:"key"`
		Label string `json:"label"`
		Count int    `json:"count"`
	}

	Result struct {
		KPIs    KPIs    `json:"kpis"`
		Trend   []Point `json:"trend"`
		Methods []Point `json:"methods"`
		Reasons []Point `json:"reasons"`
	}
)

// Aggregate derives the KPIs, the zero-filled trend and the method and reason distributions of `records` over `rng`.
// Records falling outside of the seeded trend buckets still count towards the KPIs and distributions.
func Aggregate(records []contact.Record, rng Range) Result {
	res := Result{
		Trend:   seedTrend(rng),
		Methods: []Point{},
		Reasons: []Point{},
	}

	trendIdx := make(map[string]int, len(res.Trend))
	for i, p := range res.Trend {
		trendIdx[p.Key] = i
	}
	methods := newCounter(&res.Methods)
	reasons := newCounter(&res.Reasons)
	students := make(map[string]struct{})

	loc := rng.Start.Location()
	for _, rec := range records {
		if rec.StudentID != "" {
			students[rec.StudentID] = struct{}{}
		}
		if i, ok := trendIdx[bucketKey(rec.OccurredAt.In(loc), rng.Bucket)]; ok {
			res.Trend[i].Count++
		}
		methods.add(string(rec.Method), contact.MethodLabel(rec.Method))
		reason := rec.ReasonKey()
		reasons.add(string(reason), contact.CategoryLabel(reason))
	}

	res.KPIs = KPIs{
		TotalContacts:   len(records),
		StudentsReached: len(students),
		AvgPerWeek:      avgPerWeek(len(records), rng),
	}
	return res
}

// avgPerWeek is total divided by the number of weeks in `rng` (at least 1), rounded to one decimal.
func avgPerWeek(total int, rng Range) float64 {
	weeks := math.Max(1, math.Round(float64(rng.End.Sub(rng.Start))/float64(week)))
	return math.Round(float64(total)/weeks*10) / 10
}

// seedTrend returns one zero Point per bucket of `rng`, in chronological order.
// Week buckets are the Mondays within the range. When the range starts mid-week, that leading partial
// week has no bucket and its records are left out of the trend; they still count in the KPIs.
func seedTrend(rng Range) []Point {
	points := make([]Point, 0)
	switch rng.Bucket {
	case BucketWeek:
		first := StartOfWeek(rng.Start)
		if first.Before(rng.Start) {
			first = addDays(first, 7)
		}
		for d := first; !d.After(rng.End); d = addDays(d, 7) {
			points = append(points, Point{Key: d.Format(keyLayout), Label: "Week of " + d.Format("Jan 2")})
		}
	default:
		for d := StartOfDay(rng.Start); !d.After(rng.End); d = addDays(d, 1) {
			points = append(points, Point{Key: d.Format(keyLayout), Label: d.Format("Jan 2")})
		}
	}
	return points
}

func bucketKey(t time.Time, b Bucket) string {
	if b == BucketWeek {
		return StartOfWeek(t).Format(keyLayout)
	}
	return t.Format(keyLayout)
}

// counter tallies values into a Point slice, keeping first-observed order.
type counter struct {
	points *[]Point
	index  map[string]int
}

func newCounter(points *[]Point) *counter {
	return &counter{points: points, index: make(map[string]int)}
}

func (c *counter) add(key, label string) {
	if i, ok := c.index[key]; ok {
		(*c.points)[i].Count++
		return
	}
	c.index[key] = len(*c.points)
	*c.points = append(*c.points, Point{Key: key, Label: label, Count: 1})
}
