// Package validation wraps go-playground/validator with the field naming and
// messages used in API error responses.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)

var validate = newValidator()

// FieldErrors maps a JSON field name to its validation messages.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Error is returned when input fails validation. Fields is keyed by JSON field name.
type Error struct {
	Message string
	Fields  FieldErrors
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], " ")))
	}
	if e.Message == "" {
		return strings.Join(parts, "; ")
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// ErrorsMap converts field errors into the shape used by problem responses.
func (e *Error) ErrorsMap() map[string]interface{} {
	if len(e.Fields) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(e.Fields))
	for name, messages := range e.Fields {
		out[name] = messages
	}
	return out
}

// NewFieldError builds a single-field validation error.
func NewFieldError(field, message string) *Error {
	fields := FieldErrors{}
	fields.Add(field, message)
	return &Error{Message: "invalid input", Fields: fields}
}

// IsValidationError reports whether err wraps a *Error.
func IsValidationError(err error) bool {
	var vErr *Error
	return errors.As(err, &vErr)
}

// Struct validates s using its `validate` tags. It returns nil or a *Error.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return err
	}

	fields := FieldErrors{}
	for _, fe := range invalid {
		fields.Add(fe.Field(), message(fe))
	}
	return &Error{Message: "invalid input", Fields: fields}
}

// MessageNUL is the field error for text containing a NUL character.
const MessageNUL = "Null characters are not allowed."

func ContainsNUL(s string) bool {
	return strings.ContainsRune(s, 0)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	// PostgreSQL text columns cannot hold U+0000.
	_ = v.RegisterValidation("nonul", func(fl validator.FieldLevel) bool {
		return !ContainsNUL(fl.Field().String())
	})
	return v
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "nonul":
		return MessageNUL
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return fmt.Sprintf("Failed %s validation.", fe.Tag())
	}
}
