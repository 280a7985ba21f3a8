package contactform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a single field-level validation result.
type ValidationError struct {
	Field   Field
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

const tagDottedDomain = "dotted_domain"

// rule binds a field to validator tags. Tags run left to right and stop
// at the first failure, so each field yields at most one error.
type rule struct {
	field Field
	tags  string
}

var contactRules = []rule{
	// min counts runes, not UTF-16 code units: "😀😀😀😀" is 4 characters.
	{field: FirstName, tags: "required,min=5"},
	{field: LastName, tags: "required"},
	{field: Email, tags: "required,email," + tagDottedDomain},
}

// Validator evaluates the contact form rules. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	rules    []rule
}

// NewValidator returns a Validator with the contact form rules.
func NewValidator() *Validator {
	v := validator.New()
	if err := v.RegisterValidation(tagDottedDomain, dottedDomain); err != nil {
		panic(fmt.Sprintf("contactform: register %s: %v", tagDottedDomain, err))
	}
	return &Validator{validate: v, rules: contactRules}
}

var defaultValidator = NewValidator()

// Validate runs every rule against s using the default Validator.
func Validate(s Store) []ValidationError {
	return defaultValidator.Validate(s)
}

// Validate runs every rule against s and returns the failures in field
// declaration order. A valid store yields nil.
func (v *Validator) Validate(s Store) []ValidationError {
	var errs []ValidationError
	for _, r := range v.rules {
		err := v.validate.Var(s.Get(r.field), r.tags)
		if err == nil {
			continue
		}
		errs = append(errs, ValidationError{Field: r.field, Message: messageFor(r.field, err)})
	}
	return errs
}

func messageFor(f Field, err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Sprintf("%s is invalid.", f)
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is a required field.", f)
	case "min":
		return fmt.Sprintf("%s must have at least %s characters.", f, fe.Param())
	case "email", tagDottedDomain:
		return fmt.Sprintf("%s must be a valid email address.", f)
	default:
		return fmt.Sprintf("%s is invalid.", f)
	}
}

// dottedDomain requires the part after the last '@' to have at least two
// non-empty dot separated labels.
func dottedDomain(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 {
		return false
	}
	labels := strings.Split(addr[at+1:], ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
	}
	return true
}
