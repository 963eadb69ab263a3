package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"tasklist/internal/core/domain"
	"tasklist/internal/core/model/response"
)

var (
	Validator  *validator.Validate
	Translator ut.Translator

	usernamePattern = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}a-zA-Z0-9_-]+$`)
	mobilePattern   = regexp.MustCompile(`^1[3-9]\d{9}$`)
)

func init() {
	Validator = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)

	var found bool
	Translator, found = uni.GetTranslator("en")

	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Translator); err != nil {
		panic(err)
	}

	mustRegister("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	mustRegister("mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})

	addCustomTranslations()
}

func mustRegister(tag string, fn validator.Func) {
	if err := Validator.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func addCustomTranslations() {
	register := func(tag, text string, params func(fe validator.FieldError) []string) {
		err := Validator.RegisterTranslation(tag, Translator, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, params(fe)...)
			return t
		})

		if err != nil {
			panic(err)
		}
	}

	name := func(fe validator.FieldError) []string { return []string{getFieldName(fe.Field())} }
	withParam := func(fe validator.FieldError) []string { return []string{getFieldName(fe.Field()), fe.Param()} }

	register("required", "{0} is required", name)
	register("min", "{0} must be at least {1} characters", withParam)
	register("max", "{0} must be at most {1} characters", withParam)
	register("oneof", "{0} must be one of [{1}]", withParam)
	register("username", "{0} may only contain letters, digits, Chinese characters, underscores and hyphens", name)
	register("mobile", "{0} must be a valid mobile phone number", name)
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"PhoneNumber": domain.FieldPhoneNumber,
		"DueDate":     "due_date",
	}

	if name, exists := fieldNames[field]; exists {
		return name
	}

	return strings.ToLower(field)
}

// Validate checks s against its struct tags and wraps failures as a
// domain.ValidationError.
func Validate(s any) error {
	if err := Validator.Struct(s); err != nil {
		return domain.NewValidationError("", err)
	}

	return nil
}

func FormatValidationErrors(err error) []response.ValidationError {
	var errs []response.ValidationError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			errs = append(errs, response.ValidationError{
				Field:   getFieldName(fieldError.Field()),
				Message: fieldError.Translate(Translator),
			})
		}

		return errs
	}

	var domainErr *domain.ValidationError
	if errors.As(err, &domainErr) {
		errs = append(errs, response.ValidationError{
			Field:   domainErr.Field,
			Message: domainErr.Err.Error(),
		})
	}

	return errs
}
