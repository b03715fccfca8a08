package validator

import (
	"fmt"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const (
	MinPasswordLength = 6
	forbiddenPhrase   = "password"
)

var (
	once     sync.Once
	validate *playground.Validate
)

func engine() *playground.Validate {
	once.Do(func() {
		validate = playground.New()
		_ = validate.RegisterValidation("nopassword", func(fl playground.FieldLevel) bool {
			return !strings.Contains(strings.ToLower(fl.Field().String()), forbiddenPhrase)
		})
	})
	return validate
}

// ValidateUser checks a normalized user record. A nil password skips the
// password rules, which is how updates that leave it untouched are checked.
func ValidateUser(name, email string, age int, password *string) ValidationErrors {
	errs := make(ValidationErrors)

	check(errs, "name", name, "required")
	check(errs, "email", email, "required,email")
	check(errs, "age", age, "gte=0")
	if password != nil {
		check(errs, "password", *password, fmt.Sprintf("required,min=%d,nopassword", MinPasswordLength))
	}

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	check(errs, "email", email, "required")
	check(errs, "password", password, "required")

	return errs
}

func ValidateTask(description string) ValidationErrors {
	errs := make(ValidationErrors)
	check(errs, "description", description, "required")
	return errs
}

func check(errs ValidationErrors, field string, value any, rules string) {
	err := engine().Var(value, rules)
	if err == nil {
		return
	}
	fieldErrs, ok := err.(playground.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		errs.Add(field, "Invalid value")
		return
	}
	errs.Add(field, message(field, fieldErrs[0]))
}

func message(field string, fe playground.FieldError) string {
	label := strings.ToUpper(field[:1]) + field[1:]

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Email is invalid"
	case "gte":
		return label + " must be a positive number"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "nopassword":
		return "Password should not contain the phrase 'password'"
	default:
		return label + " is invalid"
	}
}
