package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gofiber/fiber/v2"
)

// StructValidator is a singleton instance of the validator.
// Besides the built-in tags it understands "notblank", which rejects whitespace-only strings.
var StructValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("validation: register notblank: %v", err))
	}
	return v
}

// ErrorResponse represents a validation error message.
type ErrorResponse struct {
	FailedField string `json:"failed_field"`
	Tag         string `json:"tag"`
	Value       string `json:"value"`
	Message     string `json:"message"` // Custom message
}

// ValidateStruct performs validation on a struct.
// It returns a slice of ErrorResponse if validation fails, or nil otherwise.
// A payload that is not a struct pointer is reported as a single "payload" failure.
func ValidateStruct(payload interface{}) []*ErrorResponse {
	err := StructValidator.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []*ErrorResponse{{FailedField: "payload", Tag: "struct", Message: "The request payload is not valid."}}
	}

	out := make([]*ErrorResponse, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		element := &ErrorResponse{
			FailedField: fe.StructNamespace(),
			Tag:         fe.Tag(),
			Value:       fmt.Sprintf("%v", fe.Value()),
			Message:     generateValidationMessage(fe),
		}
		if isSecretField(fe.StructField()) {
			element.Value = "***"
		}
		out = append(out, element)
	}
	return out
}

// isSecretField reports whether a field's value must never be echoed back or logged.
func isSecretField(name string) bool {
	return strings.Contains(strings.ToLower(name), "password")
}

// generateValidationMessage creates a user-friendly message for a validation error.
// This can be customized further based on specific tags or fields.
func generateValidationMessage(err validator.FieldError) string {
	field := err.Field()

	tag := err.Tag()
	param := err.Param()
	kind := err.Kind()

	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "notblank":
		return fmt.Sprintf("The %s field must not be blank.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "min":
		switch kind {
		case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("The %s field must have at least %s items/characters.", field, param)
		default: // For numbers
			return fmt.Sprintf("The %s field must be at least %s.", field, param)
		}
	case "max":
		switch kind {
		case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("The %s field must have at most %s items/characters.", field, param)
		default: // For numbers
			return fmt.Sprintf("The %s field must be at most %s.", field, param)
		}
	case "len":
		switch kind {
		case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("The %s field must have exactly %s items/characters.", field, param)
		default: // For numbers
			return fmt.Sprintf("The %s field must be exactly %s.", field, param)
		}
	case "alphanum":
		return fmt.Sprintf("The %s field may only contain alpha-numeric characters.", field)
	case "url":
		return fmt.Sprintf("The %s field must be a valid URL.", field)
	case "oneof":
		return fmt.Sprintf("The %s field must be one of: %s.", field, strings.ReplaceAll(param, " ", ", "))
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", field, param)
	default:
		return fmt.Sprintf("The %s field is not valid (tag: %s).", field, tag)
	}
}

// ParseAndValidate is a utility function for Fiber handlers to parse the body and validate it.
// It returns true if parsing and validation are successful, false otherwise.
// If false, it sends the appropriate error response.
func ParseAndValidate(c *fiber.Ctx, payload interface{}) bool {
	if err := c.BodyParser(payload); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
		return false
	}

	validationErrors := ValidateStruct(payload)
	if validationErrors != nil {
		errorMessages := make([]string, len(validationErrors))
		for i, ve := range validationErrors {
			errorMessages[i] = ve.Message
		}
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "Validation failed",
			"details":  validationErrors,
			"messages": errorMessages,
		})
		return false
	}
	return true
}
