package core

func init() {
	Register(Schema{
		Kind:     KindHospital,
		Label:    "Hospitals",
		FileName: "Hospitals.csv",
		Columns:  []string{"Name", "Identity"},
		Order:    1,
	})
}

// ValidateHospital returns every reason h would be dropped.
// A hospital needs both a name and an identity.
func ValidateHospital(h Hospital) []ValidationError {
	var errs []ValidationError
	errs = append(errs, requiredField("Name", h.Name)...)
	errs = append(errs, requiredField("Identity", h.Identity)...)
	return errs
}

// IsValidHospital reports whether h passes ValidateHospital.
func IsValidHospital(h Hospital) bool {
	return len(ValidateHospital(h)) == 0
}

func mapHospital(fields []string) Hospital {
	return Hospital{
		Name:     CleanField(fields[0]),
		Identity: CleanField(fields[1]),
	}
}

// LoadHospitals reads the hospitals file and keeps the valid rows.
func LoadHospitals(path string) (LoadResult[Hospital], error) {
	rows, err := LoadRecords(path, MustLookup(KindHospital).Width(), mapHospital)
	if err != nil {
		return LoadResult[Hospital]{}, err
	}
	return filterRows(KindHospital, rows, ValidateHospital), nil
}

// filterRows keeps the rows validate accepts and records a Rejection for the
// rest.
func filterRows[T any](kind Kind, rows []Row[T], validate func(T) []ValidationError) LoadResult[T] {
	result := LoadResult[T]{Records: make([]T, 0, len(rows))}
	for _, row := range rows {
		if errs := validate(row.Value); len(errs) > 0 {
			result.Rejected = append(result.Rejected, Rejection{
				Kind:   kind,
				Line:   row.Line,
				Errors: errs,
			})
			continue
		}
		result.Records = append(result.Records, row.Value)
	}
	return result
}
