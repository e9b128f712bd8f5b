package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FieldError is one entry of the details list of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func formatFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")

	caser := cases.Title(language.English)
	return caser.String(s)
}

// MapValidationError turns a binding error into a 400 listing every failing
// request attribute.
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := make([]FieldError, 0, len(errs))
		for _, e := range errs {
			// e.Field() is the json name thanks to RegisterTagNameFunc in Init
			humanReadableField := formatFieldName(e.Field())

			msg := humanReadableField + " is invalid"
			switch e.Tag() {
			case "required":
				msg = humanReadableField + " is required"
			case "email":
				msg = humanReadableField + " must be a valid email address"
			case "min":
				msg = humanReadableField + " must be at least " + e.Param() + " characters"
			case "max":
				msg = humanReadableField + " must be at most " + e.Param() + " characters"
			case "uuid":
				msg = humanReadableField + " must be a valid id"
			}
			details = append(details, FieldError{Field: e.Field(), Rule: e.Tag(), Message: msg})
		}

		if len(details) == 1 {
			return Validation(details[0].Message, details)
		}
		return Validation("Invalid input", details)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return Wrap(err, CodeInvalidInput, "Malformed JSON body", http.StatusBadRequest)
	}

	return New(
		CodeInvalidInput,
		"Invalid input",
		http.StatusBadRequest,
	)
}
