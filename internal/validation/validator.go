// Package validation provides struct validation using go-playground/validator v10.
// It exposes a thread-safe singleton validator that reports field names by
// their JSON tag and registers the few custom rules the API needs.
//
// Example usage:
//
//	type TagSeed struct {
//	    Name  string `json:"name"  validate:"required,max=200"`
//	    Color string `json:"color" validate:"required,hexcolor,len=7"`
//	    Slug  string `json:"slug"  validate:"required,slug,max=200"`
//	}
//
//	if err := validation.ValidateStruct(&seed); err != nil {
//	    first := err.First()
//	    log.Printf("%s: %s", first.Field(), first.Error())
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	slugRE     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernameRE = regexp.MustCompile(`^[\w.@+-]+$`)
)

// FieldError is a single failed rule on one field.
type FieldError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field returns the JSON name of the field that failed.
func (e *FieldError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string { return e.tag }

// Param returns the tag parameter (e.g., "200" for "max=200").
func (e *FieldError) Param() string { return e.param }

func (e *FieldError) Error() string { return e.message }

// Errors collects every failed rule of one ValidateStruct call.
type Errors struct {
	errs []FieldError
}

// All returns every field error, in struct order.
func (ve *Errors) All() []FieldError { return ve.errs }

// First returns the first field error, or nil when there are none.
func (ve *Errors) First() *FieldError {
	if len(ve.errs) == 0 {
		return nil
	}
	return &ve.errs[0]
}

func (ve *Errors) Error() string {
	if len(ve.errs) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(ve.errs))
	for _, e := range ve.errs {
		msgs = append(msgs, e.message)
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names ("cooking_time") instead of Go names ("CookingTime").
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugRE.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRE.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateStruct validates s and returns nil or *Errors.
func ValidateStruct(s any) *Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Errors{errs: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		out[i] = FieldError{
			field:   fieldPath(fe),
			tag:     fe.Tag(),
			param:   fe.Param(),
			message: translate(fe),
		}
	}
	return &Errors{errs: out}
}

// fieldPath drops the root struct name from the namespace so nested fields
// read "ingredients[0].id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

var simpleMessages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"hexcolor": "%s must be a hex color like #RRGGBB",
	"slug":     "%s may contain only letters, digits, '-' and '_'",
	"username": "%s may contain only letters, digits and @/./+/-/_",
	"unique":   "%s must be unique",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"len":   "%s must be exactly %s characters long",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if t, ok := simpleMessages[tag]; ok {
		return fmt.Sprintf(t, field)
	}
	if t, ok := paramMessages[tag]; ok {
		return fmt.Sprintf(t, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must contain at least %s item(s)", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
