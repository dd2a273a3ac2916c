package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"civicresolve-be/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the domain enum tags to gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return models.Category(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
			return models.Department(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("issue_status", func(fl validator.FieldLevel) bool {
			return models.IssueStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("feedback", func(fl validator.FieldLevel) bool {
			return models.CitizenFeedback(fl.Field().String()).Submittable()
		})
	})
}

// ParseErrors renders validator failures as readable messages.
func ParseErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	errs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, prettyError(e))
	}
	return errs
}

func prettyError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " field is required"
	case "email":
		return e.Field() + " must be a valid email"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be greater than or equal to %s", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be less than or equal to %s", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be %s", e.Field(), strings.Join(strings.Fields(e.Param()), " or "))
	case "category", "department", "issue_status", "feedback":
		return fmt.Sprintf("%s has an unknown value %q", e.Field(), e.Value())
	default:
		return e.Error()
	}
}

// bindError converts a binding failure into a validation AppError.
func bindError(err error) error {
	return models.NewValidationError("Invalid request", strings.Join(ParseErrors(err), "; "))
}
