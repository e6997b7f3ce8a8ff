package models

// FieldDiff pairs the value to be submitted with the value the backend held before the proposal.
// Previous is set at hydration and never changes afterwards.
type FieldDiff struct {
	Current  Value `json:"current"`
	Previous Value `json:"previous"`
}

// SetCurrent replaces the submitted value.
func (d *FieldDiff) SetCurrent(v Value) {
	d.Current = v
}

// Changed reports whether the field should be highlighted as modified for a record in the given status.
func (d FieldDiff) Changed(status RecordStatus) bool {
	return status == RecordStatusUpdated && !d.Previous.Equal(d.Current)
}
