package core

import (
	"strings"
	"testing"
)

func TestIsValidName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"four letters", "Jo Li", false},
		{"five letters", "Jon Li", true},
		{"digit", "A1 Bc", false},
		{"apostrophe", "O'Brien Lee", true},
		{"hyphen", "Mary-Jane Watson", true},
		{"single word", "Madonna", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"trailing period", "Ann Smith.", false},
		{"comma", "Smith, Ann", false},
		{"tab separator", "Ann\tSmith", false},
		{"double space", "Anne  Marie", true},
		{"accented letters", "José Núñez", true},
		{"three words", "Ann Marie Smith", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidName(tt.in); got != tt.want {
				t.Errorf("IsValidName(%q) = %v, want %v (problem: %q)", tt.in, got, tt.want, NameProblem(tt.in))
			}
		})
	}
}

func TestNameProblem_Messages(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "name is empty"},
		{"Cher", "at least 2 words"},
		{"A1 Bc", "invalid character '1'"},
		{"Jo Li", "at least 5 letters"},
	}

	for _, tt := range tests {
		if got := NameProblem(tt.in); !strings.Contains(got, tt.want) {
			t.Errorf("NameProblem(%q) = %q, want it to contain %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateHospital(t *testing.T) {
	tests := []struct {
		name       string
		hospital   Hospital
		wantFields []string
	}{
		{"valid", Hospital{Name: "General", Identity: "H1"}, nil},
		{"missing name", Hospital{Identity: "H1"}, []string{"Name"}},
		{"blank identity", Hospital{Name: "General", Identity: "  "}, []string{"Identity"}},
		{"both missing", Hospital{}, []string{"Name", "Identity"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFields(t, ValidateHospital(tt.hospital), tt.wantFields)
			if got := IsValidHospital(tt.hospital); got != (len(tt.wantFields) == 0) {
				t.Errorf("IsValidHospital() = %v", got)
			}
		})
	}
}

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		name       string
		provider   Provider
		wantFields []string
	}{
		{"valid", Provider{Name: "Ann Smith", Number: "P1"}, nil},
		{"hospital not required", Provider{Name: "Ann Smith", Number: "P1", Hospital: ""}, nil},
		{"missing number", Provider{Name: "Ann Smith"}, []string{"Number"}},
		{"missing name skips name rule", Provider{Number: "P1"}, []string{"Name"}},
		{"invalid name", Provider{Name: "Dr. Who", Number: "P1"}, []string{"Name"}},
		{"missing both", Provider{}, []string{"Name", "Number"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFields(t, ValidateProvider(tt.provider), tt.wantFields)
		})
	}
}

func TestValidatePatient(t *testing.T) {
	tests := []struct {
		name       string
		patient    Patient
		wantFields []string
	}{
		{"valid", Patient{MedicalReferenceNumber: "MRN1", Name: "Tom Jones"}, nil},
		{"missing mrn", Patient{Name: "Tom Jones"}, []string{"Medical Reference Number"}},
		{"invalid name", Patient{MedicalReferenceNumber: "MRN1", Name: "Tom"}, []string{"Patient Name"}},
		{"missing name", Patient{MedicalReferenceNumber: "MRN1"}, []string{"Patient Name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFields(t, ValidatePatient(tt.patient), tt.wantFields)
			if got := IsValidPatient(tt.patient); got != (len(tt.wantFields) == 0) {
				t.Errorf("IsValidPatient() = %v", got)
			}
		})
	}
}

func TestRejectionReason(t *testing.T) {
	r := Rejection{
		Kind: KindProvider,
		Line: 3,
		Errors: []ValidationError{
			{Field: "Name", Message: "required field is empty"},
			{Field: "Number", Message: "required field is empty"},
		},
	}
	want := "Name: required field is empty; Number: required field is empty"
	if got := r.Reason(); got != want {
		t.Errorf("Reason() = %q, want %q", got, want)
	}
}

func assertFields(t *testing.T, errs []ValidationError, want []string) {
	t.Helper()
	if len(errs) != len(want) {
		t.Fatalf("got %d errors %v, want fields %v", len(errs), errs, want)
	}
	for i, f := range want {
		if errs[i].Field != f {
			t.Errorf("errs[%d].Field = %q, want %q", i, errs[i].Field, f)
		}
	}
}
