package analytics

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/educonnect/core"
)

var (
	timeRangeTag  = "time_range"
	timeRangeText = "{0} must be one of week, month, term, semester, year, custom"

	timeZoneTag  = "time_zone"
	timeZoneText = "{0} must be an IANA time zone name"
)

// InitValidators registers the analytics validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(timeRangeTag, timeRangeValidation)
	core.RegisterCustomTranslation(validate, translator, timeRangeTag, timeRangeText)

	_ = validate.RegisterValidation(timeZoneTag, timeZoneValidation)
	core.RegisterCustomTranslation(validate, translator, timeZoneTag, timeZoneText)
}

// Custom Validators

func timeRangeValidation(fl validator.FieldLevel) bool {
	_, ok := ParsePreset(fl.Field().String())
	return ok
}

func timeZoneValidation(fl validator.FieldLevel) bool {
	_, err := time.LoadLocation(fl.Field().String())
	return err == nil
}
