package analytics

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educonnect/core/contact"
)

var recSeq int

func rec(at time.Time, method contact.Method, category contact.Category, studentID string) contact.Record {
	recSeq++
	return contact.Record{
		ID:         fmt.Sprintf("c%d", recSeq),
		OwnerID:    "owner",
		StudentID:  studentID,
		OccurredAt: at,
		CreatedAt:  at,
		Method:     method,
		Category:   category,
	}
}

func TestAggregate_weekOnWednesday(t *testing.T) {
	now := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC) // Wednesday
	rng := Resolve(PresetWeek, now, "", "")
	monday := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	records := []contact.Record{
		rec(monday, contact.MethodEmail, contact.CategoryAcademic, "s1"),
		rec(monday.Add(time.Hour), contact.MethodPhone, contact.CategoryBehavior, "s2"),
		rec(monday.Add(2*time.Hour), contact.MethodEmail, contact.CategoryAcademic, "s1"),
	}

	got := Aggregate(records, rng)

	assert.Equal(t, KPIs{TotalContacts: 3, StudentsReached: 2, AvgPerWeek: 3.0}, got.KPIs)
	assert.Equal(t, []Point{
		{Key: "2024-01-01", Label: "Jan 1", Count: 3},
		{Key: "2024-01-02", Label: "Jan 2", Count: 0},
		{Key: "2024-01-03", Label: "Jan 3", Count: 0},
	}, got.Trend)
	assert.ElementsMatch(t, []Point{
		{Key: "email", Label: "Email", Count: 2},
		{Key: "phone", Label: "Phone", Count: 1},
	}, got.Methods)
	assert.ElementsMatch(t, []Point{
		{Key: "academic", Label: "Academic", Count: 2},
		{Key: "behavior", Label: "Behavior", Count: 1},
	}, got.Reasons)
}

func TestAggregate_leadingPartialWeek(t *testing.T) {
	now := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC) // Wednesday
	rng := Resolve(PresetTerm, now, "", "")
	require.Equal(t, time.Date(2023, 10, 11, 0, 0, 0, 0, time.UTC), rng.Start) // a Wednesday too

	got := Aggregate([]contact.Record{
		rec(rng.Start.Add(time.Hour), contact.MethodEmail, "", "s1"),
		rec(time.Date(2023, 10, 16, 8, 0, 0, 0, time.UTC), contact.MethodEmail, "", "s2"),
	}, rng)

	assert.Equal(t, 2, got.KPIs.TotalContacts)
	require.NotEmpty(t, got.Trend)
	assert.Equal(t, Point{Key: "2023-10-16", Label: "Week of Oct 16", Count: 1}, got.Trend[0])
	total := 0
	for _, p := range got.Trend {
		total += p.Count
	}
	assert.Equal(t, 1, total)
}

func TestAggregate_empty(t *testing.T) {
	now := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)
	for _, preset := range Presets {
		t.Run(string(preset), func(t *testing.T) {
			rng := Resolve(preset, now, "", "")
			got := Aggregate(nil, rng)

			assert.Equal(t, KPIs{}, got.KPIs)
			assert.NotNil(t, got.Methods)
			assert.Empty(t, got.Methods)
			assert.NotNil(t, got.Reasons)
			assert.Empty(t, got.Reasons)
			assert.NotEmpty(t, got.Trend)
			for _, p := range got.Trend {
				assert.Zero(t, p.Count)
			}
		})
	}
}

func countMondays(rng Range) int {
	n := 0
	for d := StartOfDay(rng.Start); !d.After(rng.End); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Monday && !d.Before(rng.Start) {
			n++
		}
	}
	return n
}

func countDays(rng Range) int {
	n := 0
	for d := StartOfDay(rng.Start); !d.After(rng.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func TestAggregate_zeroFill(t *testing.T) {
	nows := []time.Time{
		time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC),  // Wednesday
		time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC),  // Sunday
		time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),  // Monday
		time.Date(2023, 8, 1, 12, 0, 0, 0, time.UTC),  // academic year start
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), // leap day
	}
	customs := [][2]string{{"", ""}, {"2024-01-01", "2024-01-01"}, {"2023-09-04", "2024-06-30"}, {"2024-02-10", "2024-01-10"}}

	for _, now := range nows {
		for _, preset := range Presets {
			for _, c := range customs {
				rng := Resolve(preset, now, c[0], c[1])
				name := fmt.Sprintf("%s %s %s..%s", now.Format("2006-01-02"), preset, c[0], c[1])
				t.Run(name, func(t *testing.T) {
					got := Aggregate(nil, rng)
					switch rng.Bucket {
					case BucketDay:
						assert.Len(t, got.Trend, countDays(rng))
					case BucketWeek:
						assert.Len(t, got.Trend, countMondays(rng))
					}
				})
				if preset != PresetCustom {
					break
				}
			}
		}
	}
}

func TestAggregate_counts(t *testing.T) {
	now := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)
	rng := Resolve(PresetTerm, now, "", "") // 2023-10-11 (Wed) .. 2024-01-03

	records := []contact.Record{
		rec(time.Date(2023, 10, 12, 9, 0, 0, 0, time.UTC), contact.MethodVideo, "", "s1"), // leading partial week
		rec(time.Date(2023, 10, 16, 9, 0, 0, 0, time.UTC), contact.MethodEmail, contact.CategoryPositive, "s1"),
		rec(time.Date(2023, 10, 22, 23, 0, 0, 0, time.UTC), contact.MethodEmail, contact.CategoryAdmin, ""), // sunday
		rec(time.Date(2023, 12, 25, 9, 0, 0, 0, time.UTC), contact.Method("carrier_pigeon"), contact.Category("gossip"), "s3"),
		rec(time.Date(2024, 1, 3, 23, 59, 0, 0, time.UTC), contact.MethodInPerson, "", "s4"),
		rec(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC), contact.MethodPhone, contact.CategoryAcademic, "s4"), // clock skew
	}

	got := Aggregate(records, rng)

	assert.Equal(t, 6, got.KPIs.TotalContacts)
	assert.Equal(t, 3, got.KPIs.StudentsReached)
	assert.Equal(t, 0.5, got.KPIs.AvgPerWeek) // 6 / 12 weeks

	sum := func(points []Point) int {
		n := 0
		for _, p := range points {
			n += p.Count
		}
		return n
	}
	assert.Equal(t, 4, sum(got.Trend), "leading partial week and skewed records are left out of the trend")
	assert.Equal(t, got.KPIs.TotalContacts, sum(got.Methods))
	assert.Equal(t, got.KPIs.TotalContacts, sum(got.Reasons))

	require.Len(t, got.Trend, 12)
	assert.Equal(t, Point{Key: "2023-10-16", Label: "Week of Oct 16", Count: 2}, got.Trend[0])
	assert.Equal(t, Point{Key: "2023-12-25", Label: "Week of Dec 25", Count: 1}, got.Trend[10])
	assert.Equal(t, Point{Key: "2024-01-01", Label: "Week of Jan 1", Count: 1}, got.Trend[11])

	// first-observed order
	assert.Equal(t, []Point{
		{Key: "video", Label: "Video", Count: 1},
		{Key: "email", Label: "Email", Count: 2},
		{Key: "carrier_pigeon", Label: "carrier_pigeon", Count: 1},
		{Key: "in_person", Label: "In person", Count: 1},
		{Key: "phone", Label: "Phone", Count: 1},
	}, got.Methods)
	assert.Equal(t, []Point{
		{Key: "uncategorized", Label: "Uncategorized", Count: 2},
		{Key: "positive", Label: "Positive", Count: 1},
		{Key: "admin", Label: "Admin", Count: 1},
		{Key: "gossip", Label: "gossip", Count: 1},
		{Key: "academic", Label: "Academic", Count: 1},
	}, got.Reasons)
}

func TestAggregate_dayKeysInRangeLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("time zone database unavailable: %v", err)
	}
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, loc)
	rng := Resolve(PresetWeek, now, "", "")

	// 2024-01-02 05:00 UTC is Jan 1 21:00 in Los Angeles
	got := Aggregate([]contact.Record{rec(time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC), contact.MethodEmail, "", "")}, rng)
	require.Len(t, got.Trend, 3)
	assert.Equal(t, 1, got.Trend[0].Count)
	assert.Equal(t, 0, got.Trend[1].Count)
}

func TestAggregate_avgPerWeek(t *testing.T) {
	now := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		rng   Range
		total int
		want  float64
	}{
		{name: "week rounds to 1", rng: Resolve(PresetWeek, now, "", ""), total: 3, want: 3},
		{name: "month is 4 weeks", rng: Resolve(PresetMonth, now, "", ""), total: 10, want: 2.5},
		{name: "term is 12 weeks", rng: Resolve(PresetTerm, now, "", ""), total: 25, want: 2.1},
		{name: "half rounds up", rng: Resolve(PresetCustom, now, "2024-01-01", "2024-01-28"), total: 1, want: 0.3}, // 0.25
		{name: "year is 52 weeks", rng: Resolve(PresetYear, now, "", ""), total: 104, want: 2},
		{name: "no contacts", rng: Resolve(PresetYear, now, "", ""), total: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := avgPerWeek(tt.total, tt.rng); got != tt.want {
				t.Errorf("avgPerWeek() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestAggregate_idempotent(t *testing.T) {
	now := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)
	rng := Resolve(PresetMonth, now, "", "")
	records := []contact.Record{
		rec(time.Date(2023, 12, 6, 9, 0, 0, 0, time.UTC), contact.MethodMessage, contact.CategoryAttendance, "s1"),
		rec(time.Date(2023, 12, 24, 9, 0, 0, 0, time.UTC), contact.MethodOther, "", "s2"),
		rec(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), contact.MethodMessage, contact.CategoryOther, "s1"),
	}

	first, err := json.Marshal(Aggregate(records, rng))
	require.NoError(t, err)
	second, err := json.Marshal(Aggregate(records, rng))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
