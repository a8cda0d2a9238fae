package contact

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/educonnect/core"
)

var (
	methodTag  = "contact_method"
	methodText = "{0} must be one of email, phone, in_person, video, message, other"

	categoryTag  = "contact_category"
	categoryText = "{0} must be one of academic, behavior, attendance, positive, admin, other"
)

// InitValidators registers the contact validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(methodTag, methodValidation)
	core.RegisterCustomTranslation(validate, translator, methodTag, methodText)

	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

// Custom Validators

// methodValidation accepts a Method value or a slice of them.
func methodValidation(fl validator.FieldLevel) bool {
	return allMatch(fl, IsMethod)
}

// categoryValidation accepts a Category value or a slice of them.
func categoryValidation(fl validator.FieldLevel) bool {
	return allMatch(fl, IsCategory)
}

func allMatch(fl validator.FieldLevel, ok func(string) bool) bool {
	switch v := fl.Field().Interface().(type) {
	case string:
		return ok(v)
	case []string:
		for _, s := range v {
			if !ok(s) {
				return false
			}
		}
		return true
	}
	return false
}
