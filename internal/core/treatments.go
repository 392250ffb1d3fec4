package core

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

func init() {
	Register(Schema{
		Kind:     KindTreatment,
		Label:    "Treatments",
		FileName: "Treatments.csv",
		Columns:  []string{"Details", "Hospital", "Provider", "Patient", "Date/Time Discharged"},
		Order:    4,
	})
}

// References indexes the loaded reference collections for case-insensitive
// lookups by treatment validation.
type References struct {
	hospitals map[string]struct{} // by name
	providers map[string]struct{} // by name
	patients  map[string]struct{} // by medical reference number
}

// NewReferences builds the lookup sets from already-validated collections.
//
// Patients are keyed by medical reference number, not display name: the
// treatments file stores the MRN in its Patient column.
func NewReferences(hospitals []Hospital, providers []Provider, patients []Patient) *References {
	refs := &References{
		hospitals: make(map[string]struct{}, len(hospitals)),
		providers: make(map[string]struct{}, len(providers)),
		patients:  make(map[string]struct{}, len(patients)),
	}
	for _, h := range hospitals {
		refs.hospitals[foldKey(h.Name)] = struct{}{}
	}
	for _, p := range providers {
		refs.providers[foldKey(p.Name)] = struct{}{}
	}
	for _, p := range patients {
		refs.patients[foldKey(p.MedicalReferenceNumber)] = struct{}{}
	}
	return refs
}

// HasHospital reports whether a hospital with this name was loaded.
func (r *References) HasHospital(name string) bool {
	_, ok := r.hospitals[foldKey(name)]
	return ok
}

// HasProvider reports whether a provider with this name was loaded.
func (r *References) HasProvider(name string) bool {
	_, ok := r.providers[foldKey(name)]
	return ok
}

// HasPatient reports whether a patient with this medical reference number
// was loaded.
func (r *References) HasPatient(mrn string) bool {
	_, ok := r.patients[foldKey(mrn)]
	return ok
}

// ValidateTreatment returns every reason t would be dropped given the loaded
// reference collections.
func ValidateTreatment(t Treatment, refs *References) []ValidationError {
	var errs []ValidationError
	errs = append(errs, requiredField("Hospital", t.Hospital)...)
	errs = append(errs, requiredField("Patient", t.Patient)...)

	if !isBlank(t.Hospital) && !refs.HasHospital(t.Hospital) {
		errs = append(errs, ValidationError{Field: "Hospital", Value: t.Hospital, Message: "unknown hospital"})
	}
	if !isBlank(t.Patient) && !refs.HasPatient(t.Patient) {
		errs = append(errs, ValidationError{Field: "Patient", Value: t.Patient, Message: "unknown medical reference number"})
	}

	if t.Discharged() {
		if isBlank(t.Provider) {
			errs = append(errs, ValidationError{Field: "Provider", Message: "required when discharged"})
		}
		if isBlank(t.Details) {
			errs = append(errs, ValidationError{Field: "Details", Message: "required when discharged"})
		}
	}

	if !isBlank(t.Provider) && !refs.HasProvider(t.Provider) {
		errs = append(errs, ValidationError{Field: "Provider", Value: t.Provider, Message: "unknown provider"})
	}
	return errs
}

// IsValidTreatment reports whether t passes ValidateTreatment.
func IsValidTreatment(t Treatment, refs *References) bool {
	return len(ValidateTreatment(t, refs)) == 0
}

func mapTreatment(fields []string) Treatment {
	return Treatment{
		Details:      CleanField(fields[0]),
		Hospital:     CleanField(fields[1]),
		Provider:     CleanField(fields[2]),
		Patient:      CleanField(fields[3]),
		DischargedAt: ParseDischarge(CleanField(fields[4])),
	}
}

// LoadTreatments reads the treatments file and keeps the rows whose
// references resolve against the given collections.
func LoadTreatments(path string, hospitals []Hospital, providers []Provider, patients []Patient) (LoadResult[Treatment], error) {
	rows, err := LoadRecords(path, MustLookup(KindTreatment).Width(), mapTreatment)
	if err != nil {
		return LoadResult[Treatment]{}, err
	}

	refs := NewReferences(hospitals, providers, patients)
	return filterRows(KindTreatment, rows, func(t Treatment) []ValidationError {
		return ValidateTreatment(t, refs)
	}), nil
}

// ErrUnencodableField is matched by errors.Is for treatment values the
// treatments file cannot carry.
var ErrUnencodableField = errors.New("unencodable field")

// UnencodableFieldError names the treatment field holding a character the
// file format has no escape for.
type UnencodableFieldError struct {
	Field string
	Char  rune
}

func (e *UnencodableFieldError) Error() string {
	return fmt.Sprintf("unencodable field: %s contains %q", e.Field, e.Char)
}

// Is lets errors.Is(err, ErrUnencodableField) match.
func (e *UnencodableFieldError) Is(target error) bool {
	return target == ErrUnencodableField
}

// structuralChars split a record when written as is.
const structuralChars = "\r\n" + Delimiter

// CheckTreatmentFields rejects values that would not read back unchanged
// after a save: line breaks, the delimiter and double quotes.
func CheckTreatmentFields(t Treatment) error {
	return checkFields(t, structuralChars+`"`)
}

func checkFields(t Treatment, chars string) error {
	fields := []struct{ name, value string }{
		{"Details", t.Details},
		{"Hospital", t.Hospital},
		{"Provider", t.Provider},
		{"Patient", t.Patient},
	}
	for _, f := range fields {
		if i := strings.IndexAny(f.value, chars); i >= 0 {
			r, _ := utf8.DecodeRuneInString(f.value[i:])
			return &UnencodableFieldError{Field: f.name, Char: r}
		}
	}
	return nil
}

// FormatTreatment renders t as one line of the treatments file, without the
// trailing newline.
func FormatTreatment(t Treatment) string {
	return quoteFields([]string{
		t.Details,
		t.Hospital,
		t.Provider,
		t.Patient,
		FormatDischarge(t.DischargedAt),
	})
}

// SaveTreatments replaces the treatments file with the given collection.
//
// The header line is written first so a reload, which always skips line 1,
// sees every treatment. The new content goes to a temporary file in the same
// directory and is renamed over path, so readers never observe a partial file.
//
// A value containing a line break or the delimiter fails the save with
// ErrUnencodableField before anything is written.
func SaveTreatments(path string, treatments []Treatment) error {
	for i, t := range treatments {
		if err := checkFields(t, structuralChars); err != nil {
			return fmt.Errorf("save treatments: treatment %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(MustLookup(KindTreatment).HeaderLine())
	buf.WriteByte('\n')
	for _, t := range treatments {
		buf.WriteString(FormatTreatment(t))
		buf.WriteByte('\n')
	}

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save treatments: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into
// place. The existing file mode is kept when path already exists.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
