package core

func init() {
	Register(Schema{
		Kind:     KindPatient,
		Label:    "Patients",
		FileName: "Patients.csv",
		Columns:  []string{"Medical Reference Number", "Patient Name"},
		Order:    3,
	})
}

// ValidatePatient returns every reason p would be dropped.
func ValidatePatient(p Patient) []ValidationError {
	var errs []ValidationError
	errs = append(errs, requiredField("Medical Reference Number", p.MedicalReferenceNumber)...)
	errs = append(errs, requiredField("Patient Name", p.Name)...)

	if !isBlank(p.Name) {
		if problem := NameProblem(p.Name); problem != "" {
			errs = append(errs, ValidationError{Field: "Patient Name", Value: p.Name, Message: problem})
		}
	}
	return errs
}

// IsValidPatient reports whether p passes ValidatePatient.
func IsValidPatient(p Patient) bool {
	return len(ValidatePatient(p)) == 0
}

func mapPatient(fields []string) Patient {
	return Patient{
		MedicalReferenceNumber: CleanField(fields[0]),
		Name:                   CleanField(fields[1]),
	}
}

// LoadPatients reads the patients file and keeps the valid rows.
func LoadPatients(path string) (LoadResult[Patient], error) {
	rows, err := LoadRecords(path, MustLookup(KindPatient).Width(), mapPatient)
	if err != nil {
		return LoadResult[Patient]{}, err
	}
	return filterRows(KindPatient, rows, ValidatePatient), nil
}
