package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Besides the built-in tags it understands role, case_status, case_priority
// and document_type.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("case_status", func(fl validator.FieldLevel) bool {
		return domain.CaseStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("case_priority", func(fl validator.FieldLevel) bool {
		return domain.CasePriority(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("document_type", func(fl validator.FieldLevel) bool {
		return domain.DocumentType(fl.Field().String()).Valid()
	})

	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Failures wrap
// domain.ErrValidation.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return domain.ValidationError("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	case "role":
		return fmt.Sprintf("%s must be one of: admin, case_manager, reviewer, viewer", field)
	case "case_status":
		return fmt.Sprintf("%s must be one of: open, in_progress, on_hold, closed, resolved", field)
	case "case_priority":
		return fmt.Sprintf("%s must be one of: low, medium, high, urgent", field)
	case "document_type":
		return fmt.Sprintf("%s is not a known document type", field)
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
