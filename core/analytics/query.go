package analytics

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/educonnect/core"
	"github.com/trezcool/educonnect/core/contact"
)

// Query holds the analytics request parameters.
// Malformed Start or End dates are not rejected: they fall back to the default custom window.
type Query struct {
	Range   string   `json:"range" query:"range" validate:"omitempty,time_range"`
	Start   string   `json:"start" query:"start"`
	End     string   `json:"end" query:"end"`
	Methods []string `json:"method" query:"method" validate:"omitempty,contact_method"`
	Reasons []string `json:"reason" query:"reason" validate:"omitempty,contact_category"`
	TZ      string   `json:"tz" query:"tz" validate:"omitempty,time_zone"`
}

func (q *Query) Clean() {
	q.Range = core.CleanString(q.Range, true /* lower */)
	q.Start = core.CleanString(q.Start)
	q.End = core.CleanString(q.End)
	q.Methods = core.CleanStrings(q.Methods, true /* lower */)
	q.Reasons = core.CleanStrings(q.Reasons, true /* lower */)
	q.TZ = core.CleanString(q.TZ)
}

func (q *Query) Validate(validate *validator.Validate) error {
	q.Clean()
	return validate.Struct(q)
}

// Preset returns the requested Preset, PresetWeek by default.
func (q Query) Preset() Preset {
	if p, ok := ParsePreset(q.Range); ok {
		return p
	}
	return PresetWeek
}

// Location returns the requested time zone, or `fallback`.
func (q Query) Location(fallback *time.Location) *time.Location {
	if q.TZ != "" {
		if loc, err := time.LoadLocation(q.TZ); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.Local
	}
	return fallback
}

func (q Query) Filters() Filters {
	f := Filters{}
	for _, m := range q.Methods {
		f.Methods = append(f.Methods, contact.Method(m))
	}
	for _, r := range q.Reasons {
		f.Categories = append(f.Categories, contact.Category(r))
	}
	return f
}
