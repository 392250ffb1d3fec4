package core

import "time"

// Kind identifies one of the four record files.
type Kind string

const (
	KindHospital  Kind = "hospitals"
	KindProvider  Kind = "providers"
	KindPatient   Kind = "patients"
	KindTreatment Kind = "treatments"
)

// Hospital is one row of the hospitals file.
type Hospital struct {
	Name     string `json:"name"`
	Identity string `json:"identity"`
}

// Provider is one row of the providers file.
// Hospital is a soft reference and is never checked against the hospital set.
type Provider struct {
	Name     string `json:"name"`
	Number   string `json:"number"`
	Hospital string `json:"hospital"`
	Doctor   bool   `json:"doctor"`
}

// Patient is one row of the patients file.
type Patient struct {
	MedicalReferenceNumber string `json:"medicalReferenceNumber"`
	Name                   string `json:"name"`
}

// Treatment is one row of the treatments file. It has no identity of its own;
// callers address it by position in the collection.
type Treatment struct {
	Details      string     `json:"details"`
	Hospital     string     `json:"hospital"`
	Provider     string     `json:"provider"`
	Patient      string     `json:"patient"` // medical reference number
	DischargedAt *time.Time `json:"dischargedAt,omitempty"`
}

// Discharged reports whether the treatment carries a discharge timestamp.
func (t Treatment) Discharged() bool {
	return t.DischargedAt != nil
}

// Row is a parsed record together with its 1-based line number in the file.
type Row[T any] struct {
	Line  int
	Value T
}

// Rejection describes a record dropped by a loader.
type Rejection struct {
	Kind   Kind              `json:"kind"`
	Line   int               `json:"line"`
	Errors []ValidationError `json:"errors"`
}

// Reason joins the validation messages into a single diagnostic line.
func (r Rejection) Reason() string {
	return joinValidationErrors(r.Errors)
}

// LoadResult is the output of a loader: the records that passed validation
// and diagnostics for the ones that did not.
type LoadResult[T any] struct {
	Records  []T
	Rejected []Rejection
}

// Dataset is a consistent view of all four files, loaded in dependency order.
type Dataset struct {
	Hospitals  []Hospital  `json:"hospitals"`
	Providers  []Provider  `json:"providers"`
	Patients   []Patient   `json:"patients"`
	Treatments []Treatment `json:"treatments"`
	Rejected   []Rejection `json:"rejected"`
	LoadedAt   time.Time   `json:"loadedAt"`
}

// RejectedCount returns the number of dropped records of the given kind.
func (d *Dataset) RejectedCount(kind Kind) int {
	n := 0
	for _, r := range d.Rejected {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// EditAction names a transition over the treatment collection.
type EditAction string

const (
	ActionEdit   EditAction = "edit"
	ActionAppend EditAction = "append"
)

// ReasonIndexOutOfRange is reported when an edit targets a missing position.
const ReasonIndexOutOfRange = "index out of range"

// EditOutcome reports what an edit or append did to the collection.
// Applied is false when the edit was a no-op; the collection is still saved.
type EditOutcome struct {
	ID        string     `json:"id"`
	Action    EditAction `json:"action"`
	Index     int        `json:"index"`
	Applied   bool       `json:"applied"`
	Reason    string     `json:"reason,omitempty"`
	Count     int        `json:"count"` // collection length after the transition
	Treatment Treatment  `json:"treatment"`
	At        time.Time  `json:"at"`
	IPAddress string     `json:"-"`
	UserAgent string     `json:"-"`
}
