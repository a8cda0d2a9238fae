package analytics

import (
	"math"
	"strings"
	"time"

	"github.com/trezcool/educonnect/core"
)

// Preset names a predefined analytics window.
type Preset string

const (
	PresetWeek     Preset = "week"
	PresetMonth    Preset = "month"
	PresetTerm     Preset = "term"
	PresetSemester Preset = "semester"
	PresetYear     Preset = "year"
	PresetCustom   Preset = "custom"
)

// Presets lists the selectable windows, in display order.
var Presets = []Preset{PresetWeek, PresetMonth, PresetTerm, PresetSemester, PresetYear, PresetCustom}

// Bucket is the trend granularity.
type Bucket string

const (
	BucketDay  Bucket = "day"
	BucketWeek Bucket = "week"
)

const (
	day  = 24 * time.Hour
	week = 7 * day

	// custom windows longer than this many days are bucketed by week
	maxDailySpan = 35
	// days before today covered by the month preset and by the custom fallback
	trailingDays = 29
)

// Range is a closed time interval [Start, End] with its trend granularity.
type Range struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Bucket Bucket    `json:"bucket"`
}

// ParsePreset returns the Preset named by `s` (case-insensitive).
func ParsePreset(s string) (Preset, bool) {
	p := Preset(strings.ToLower(strings.TrimSpace(s)))
	for _, preset := range Presets {
		if p == preset {
			return p, true
		}
	}
	return "", false
}

// Resolve turns a preset (plus optional YYYY-MM-DD custom bounds) into a Range.
// Day boundaries are computed in the Location of `now`. Resolve never fails:
// unknown presets resolve as PresetWeek and unusable custom bounds fall back to the trailing 30 days.
func Resolve(preset Preset, now time.Time, customStart, customEnd string) Range {
	today := StartOfDay(now)

	switch preset {
	case PresetMonth:
		return Range{Start: addDays(today, -trailingDays), End: EndOfDay(now), Bucket: BucketDay}
	case PresetTerm:
		return Range{Start: addDays(today, -84), End: EndOfDay(now), Bucket: BucketWeek}
	case PresetSemester:
		return Range{Start: addDays(today, -140), End: EndOfDay(now), Bucket: BucketWeek}
	case PresetYear:
		year := now.Year()
		if now.Month() < time.August {
			year--
		}
		return Range{
			Start:  time.Date(year, time.August, 1, 0, 0, 0, 0, now.Location()),
			End:    EndOfDay(time.Date(year+1, time.July, 31, 0, 0, 0, 0, now.Location())),
			Bucket: BucketWeek,
		}
	case PresetCustom:
		return resolveCustom(now, customStart, customEnd)
	default:
		return Range{Start: StartOfWeek(now), End: EndOfDay(now), Bucket: BucketDay}
	}
}

func resolveCustom(now time.Time, customStart, customEnd string) Range {
	startDay, ok := parseDate(customStart, now.Location())
	if !ok {
		startDay = addDays(StartOfDay(now), -trailingDays)
	}
	endDay, ok := parseDate(customEnd, now.Location())
	if !ok {
		endDay = StartOfDay(now)
	}
	if startDay.After(endDay) {
		startDay, endDay = endDay, startDay
	}

	rng := Range{Start: StartOfDay(startDay), End: EndOfDay(endDay), Bucket: BucketDay}
	if spanDays(rng) > maxDailySpan {
		rng.Bucket = BucketWeek
	}
	return rng
}

// spanDays is the inclusive length of `r` in days, at least 1.
func spanDays(r Range) int {
	return int(math.Max(1, math.Round(float64(r.End.Sub(r.Start))/float64(day))))
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(core.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// StartOfDay returns 00:00:00.000 of t's calendar day, in t's Location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day, in t's Location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// StartOfWeek returns the start of the Monday of t's week. Sunday belongs to the preceding week.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // days since Monday
	return addDays(StartOfDay(t), -offset)
}

// addDays moves `t` by whole calendar days, keeping its wall clock across DST changes.
func addDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
