package handlers

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"user-service/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names ("age") rather than Go names ("Age").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError is a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lists rejected fields in declaration order.
type ValidationErrors []FieldError

// Error renders "field - message" pairs joined by "; ".
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+" - "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// fieldMessages is keyed by "<json field>.<validator tag>".
var fieldMessages = map[string]string{
	"name.required":  "Name could not be empty",
	"name.min":       "Name should be between 2 and 30 chars",
	"name.max":       "Name should be between 2 and 30 chars",
	"email.required": "Email should not be empty",
	"email.email":    "Email should be valid",
	"age.min":        "Age should be more than 0",
	"age.max":        "Age should be less than 150",
}

// ValidateUser checks a user payload and returns nil when it is acceptable.
// One message is reported per field, in declaration order.
func ValidateUser(dto models.UserDTO) ValidationErrors {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	result := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		result = append(result, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return result
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too small"
	case "max":
		return "Value is too large"
	default:
		return "Invalid value"
	}
}
