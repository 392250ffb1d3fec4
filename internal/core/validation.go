package core

// validation.go provides the record-level validators.
//
// Validators return every problem they find so the diagnostics for a dropped
// record are complete. A record is valid when its validator returns no
// errors. Validation never fails a load; the loaders use it as a filter.

import (
	"fmt"
	"strings"
	"unicode"
)

// MinNameWords and MinNameLetters bound the Name Validity Rule.
const (
	MinNameWords   = 2
	MinNameLetters = 5
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field"`           // Column name
	Value   string `json:"value,omitempty"` // The invalid value
	Message string `json:"message"`         // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func joinValidationErrors(errs []ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

func requiredField(field, value string) []ValidationError {
	if isBlank(value) {
		return []ValidationError{{Field: field, Message: "required field is empty"}}
	}
	return nil
}

// NameProblem returns why name fails the Name Validity Rule, or "" if it
// passes. The rule: at least two whitespace-separated words, at least five
// letters across the whole string, and nothing but letters, spaces,
// apostrophes and hyphens.
func NameProblem(name string) string {
	if isBlank(name) {
		return "name is empty"
	}
	if len(strings.Fields(name)) < MinNameWords {
		return fmt.Sprintf("name must have at least %d words", MinNameWords)
	}

	letters := 0
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ', r == '\'', r == '-':
		default:
			return fmt.Sprintf("name contains invalid character %q", r)
		}
	}

	if letters < MinNameLetters {
		return fmt.Sprintf("name must have at least %d letters", MinNameLetters)
	}
	return ""
}

// IsValidName reports whether name passes the Name Validity Rule shared by
// providers and patients.
func IsValidName(name string) bool {
	return NameProblem(name) == ""
}
