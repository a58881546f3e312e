package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validatorInstance = validator.New(validator.WithRequiredStructEnabled())

// FieldErrors is a list of human readable per-field validation messages.
// It marshals as a plain JSON array in error responses.
type FieldErrors []string

func (fe FieldErrors) Error() string {
	return strings.Join(fe, "; ")
}

// StructFields validates a struct's `validate` tags. The returned error,
// when non-nil, is a [FieldErrors] suitable as a response errors payload.
func StructFields(s any) error {
	err := validatorInstance.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{err.Error()}
	}

	messages := make(FieldErrors, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(
			messages,
			fmt.Sprintf(
				"field '%s' failed on '%s' rule",
				strings.ToLower(fieldError.Field()[:1])+fieldError.Field()[1:],
				fieldError.Tag(),
			),
		)
	}

	return messages
}
