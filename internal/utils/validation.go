package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RegisterValidators registers the agent's custom binding tags on gin's validator.
// serviceid accepts only names known to the operation mode registry.
func RegisterValidators(isKnownService func(string) bool) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return RegisterOn(v, isKnownService)
}

// RegisterOn registers the custom tags on the given validator instance
func RegisterOn(v *validator.Validate, isKnownService func(string) bool) error {
	return v.RegisterValidation("serviceid", func(fl validator.FieldLevel) bool {
		return isKnownService(fl.Field().String())
	})
}

// DescribeBindError turns binding and validation failures into a short message
func DescribeBindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeFieldError(fe).Message)
		}
		return strings.Join(msgs, "; ")
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "malformed JSON"
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be %s", typeErr.Field, typeErr.Type.String())
	}

	return err.Error()
}

// ValidationErrors converts validator errors into field errors
func ValidationErrors(err error) []*ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]*ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, describeFieldError(fe))
	}
	return out
}

func describeFieldError(fe validator.FieldError) *ValidationError {
	field := fe.Field()
	param := fe.Param()

	var message string
	switch fe.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", field)
	case "min":
		message = fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		message = fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		message = fmt.Sprintf("%s must be one of [%s]", field, param)
	case "serviceid":
		message = fmt.Sprintf("%s: unknown service %q", field, fe.Value())
	default:
		message = fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}

	return &ValidationError{
		Field:   field,
		Code:    strings.ToUpper(fe.Tag()),
		Message: message,
	}
}
