package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation error keys. They are stable and returned to API clients.
const (
	KeyIDExists = "idexists"
	KeyIDNull   = "idnull"
	KeyRequired = "required"
	KeyPattern  = "pattern"
	KeySize     = "size"
	KeyEnum     = "enum"
	KeyRange    = "range"
	KeySort     = "sort"
	KeyPage     = "page"
	KeyQuery    = "query"
)

// ValidationError rejects caller input before any store or index call.
type ValidationError struct {
	Entity  string
	Key     string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s): %s", e.Entity, e.Field, e.Key, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Entity, e.Key, e.Message)
}

// NewValidationError returns an error about the request rather than a field.
func NewValidationError(entity, key, message string) *ValidationError {
	return &ValidationError{Entity: entity, Key: key, Message: message}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("login", func(fl validator.FieldLevel) bool {
		return loginPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	v.RegisterStructValidation(jobSalaryRange, Job{})
	v.RegisterStructValidation(jobHistoryDates, JobHistory{})
	return v
}

func jobSalaryRange(sl validator.StructLevel) {
	e := sl.Current().Interface().(Job)
	if e.MinSalary != nil && e.MaxSalary != nil && *e.MinSalary > *e.MaxSalary {
		sl.ReportError(e.MinSalary, "minSalary", "MinSalary", "ltefield", "maxSalary")
	}
}

func jobHistoryDates(sl validator.StructLevel) {
	e := sl.Current().Interface().(JobHistory)
	if e.StartDate != nil && e.EndDate != nil && e.EndDate.Before(*e.StartDate) {
		sl.ReportError(e.EndDate, "endDate", "EndDate", "gtefield", "startDate")
	}
}

// check validates the validate tags of entity and reports the first
// violation as a *ValidationError.
func check(entity string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	fe := fields[0]
	key, msg := describe(fe)
	return &ValidationError{Entity: entity, Key: key, Field: fe.Field(), Message: msg}
}

func describe(fe validator.FieldError) (key, message string) {
	switch fe.Tag() {
	case "required":
		return KeyRequired, "must not be empty"
	case "min":
		return KeySize, "length must be at least " + fe.Param()
	case "max":
		return KeySize, "length must be at most " + fe.Param()
	case "login":
		return KeyPattern, "must match " + loginPattern.String()
	case "oneof":
		return KeyEnum, "must be one of " + fe.Param()
	case "ltefield":
		return KeyRange, "must not exceed " + fe.Param()
	case "gtefield":
		return KeyRange, "must not be before " + fe.Param()
	}
	return fe.Tag(), fmt.Sprintf("failed on %s", fe.Tag())
}
