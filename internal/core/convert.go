package core

// convert.go provides cell cleanup and timestamp conversion for record files.
//
// Discharge timestamps arrive in whatever format the exporting tool chose.
// ParseDischarge tries the layouts we have seen in practice and treats
// anything else as "not discharged" rather than an error.

import (
	"strings"
	"time"
)

// DischargeLayout is the layout SaveTreatments writes. Seconds and anything
// finer are dropped on save.
const DischargeLayout = "2006-01-02 15:04"

// dischargeLayouts are tried in order; the first that parses wins.
var dischargeLayouts = []string{
	DischargeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"01/02/2006 15:04",
	"01/02/2006",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
}

// CleanField trims surrounding whitespace and one layer of double quotes from
// a raw field, then trims whitespace inside the quotes.
func CleanField(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	} else {
		s = strings.TrimPrefix(s, `"`)
		s = strings.TrimSuffix(s, `"`)
	}
	return strings.TrimSpace(s)
}

// ParseDischarge converts discharge text to a timestamp.
// Returns nil for empty or unrecognized text.
func ParseDischarge(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range dischargeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// FormatDischarge renders a discharge timestamp for storage.
// Returns an empty string when t is nil.
func FormatDischarge(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DischargeLayout)
}

// IsDoctorFlag reports whether the providers file marks the row as a doctor.
// Only the literal "Yes" (any case) counts.
func IsDoctorFlag(s string) bool {
	return strings.EqualFold(s, "Yes")
}

// isBlank reports whether s is empty or only whitespace.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// foldKey normalizes a reference for case-insensitive lookups.
func foldKey(s string) string {
	return strings.ToLower(s)
}
