package core

// edit.go implements the two transitions over the treatment collection.
//
// Both are pure with respect to storage: they change the slice and describe
// what happened. Persisting and reloading is the caller's job (see
// Service.EditTreatment and Service.AppendTreatment).

// ApplyEdit overwrites the treatment at index with values.
//
// An index outside [0, len(treatments)) leaves the collection untouched and
// returns an outcome with Applied=false and Reason=ReasonIndexOutOfRange.
// That is a normal result, not an error.
func ApplyEdit(treatments []Treatment, index int, values Treatment) ([]Treatment, EditOutcome) {
	outcome := EditOutcome{
		Action:    ActionEdit,
		Index:     index,
		Treatment: values,
	}

	if index < 0 || index >= len(treatments) {
		outcome.Reason = ReasonIndexOutOfRange
		outcome.Count = len(treatments)
		return treatments, outcome
	}

	treatments[index] = values
	outcome.Applied = true
	outcome.Count = len(treatments)
	return treatments, outcome
}

// ApplyAppend adds values to the end of the collection.
func ApplyAppend(treatments []Treatment, values Treatment) ([]Treatment, EditOutcome) {
	treatments = append(treatments, values)
	return treatments, EditOutcome{
		Action:    ActionAppend,
		Index:     len(treatments) - 1,
		Applied:   true,
		Count:     len(treatments),
		Treatment: values,
	}
}
