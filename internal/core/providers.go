package core

func init() {
	Register(Schema{
		Kind:     KindProvider,
		Label:    "Providers",
		FileName: "Providers.csv",
		Columns:  []string{"Name", "Number", "Hospital", "Doctor"},
		Order:    2,
	})
}

// ValidateProvider returns every reason p would be dropped. The name is only
// checked against the Name Validity Rule once it is present.
func ValidateProvider(p Provider) []ValidationError {
	var errs []ValidationError
	errs = append(errs, requiredField("Name", p.Name)...)
	errs = append(errs, requiredField("Number", p.Number)...)

	if !isBlank(p.Name) {
		if problem := NameProblem(p.Name); problem != "" {
			errs = append(errs, ValidationError{Field: "Name", Value: p.Name, Message: problem})
		}
	}
	return errs
}

// IsValidProvider reports whether p passes ValidateProvider.
func IsValidProvider(p Provider) bool {
	return len(ValidateProvider(p)) == 0
}

func mapProvider(fields []string) Provider {
	return Provider{
		Name:     CleanField(fields[0]),
		Number:   CleanField(fields[1]),
		Hospital: CleanField(fields[2]),
		Doctor:   IsDoctorFlag(CleanField(fields[3])),
	}
}

// LoadProviders reads the providers file and keeps the valid rows.
func LoadProviders(path string) (LoadResult[Provider], error) {
	rows, err := LoadRecords(path, MustLookup(KindProvider).Width(), mapProvider)
	if err != nil {
		return LoadResult[Provider]{}, err
	}
	return filterRows(KindProvider, rows, ValidateProvider), nil
}
