package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
)

// RecordStatus is assigned by the backend and never changes client-side.
type RecordStatus string

const (
	RecordStatusNew       RecordStatus = "new"
	RecordStatusUpdated   RecordStatus = "updated"
	RecordStatusUnchanged RecordStatus = "unchanged"
)

// Disposition is the reviewer's per-record decision.
type Disposition string

const (
	DispositionNone    Disposition = ""
	DispositionApprove Disposition = "approve"
	DispositionReject  Disposition = "reject"
	DispositionDelete  Disposition = "delete"
)

// ParseDisposition accepts approve, reject, delete, and none (also "" or "null").
func ParseDisposition(raw string) (Disposition, error) {
	switch d := strings.ToLower(strings.TrimSpace(raw)); d {
	case "", "none", "null":
		return DispositionNone, nil
	case string(DispositionApprove), string(DispositionReject), string(DispositionDelete):
		return Disposition(d), nil
	default:
		return "", appErrors.Clone(appErrors.ErrInvalidDisposition, fmt.Sprintf("invalid disposition %q", raw))
	}
}

// Valid reports whether d is one of the four dispositions.
func (d Disposition) Valid() bool {
	switch d {
	case DispositionNone, DispositionApprove, DispositionReject, DispositionDelete:
		return true
	}
	return false
}

// String renders none as "none" for display.
func (d Disposition) String() string {
	if d == DispositionNone {
		return "none"
	}
	return string(d)
}

// MarshalJSON writes none as null, matching the backend's `_action` field.
func (d Disposition) MarshalJSON() ([]byte, error) {
	if d == DispositionNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

// UnmarshalJSON accepts null or any spelling ParseDisposition understands.
func (d *Disposition) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*d = DispositionNone
		return nil
	}
	parsed, err := ParseDisposition(*raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

const (
	wireKeyID                = "_id"
	wireKeyStatus            = "status"
	wireKeyAction            = "_action"
	wireKeyDeleted           = "_isDeleted"
	wireKeyMarkedForDeletion = "_markedForDeletion"
)

// RecordState is one reviewable entity: identity, backend status, field diffs and disposition.
// isDeleted always equals disposition == delete. present marks fields the backend sent or the
// reviewer edited; only those are written back.
type RecordState struct {
	schema *Schema

	Key      string
	EntityID *string
	Refs     map[string]json.RawMessage
	Status   RecordStatus

	fields      []FieldDiff
	present     []bool
	disposition Disposition
	isDeleted   bool
}

// NewRecordState builds an undecided record with empty fields.
func NewRecordState(schema *Schema, key string, status RecordStatus) *RecordState {
	return &RecordState{
		schema:  schema,
		Key:     key,
		Status:  status,
		Refs:    map[string]json.RawMessage{},
		fields:  make([]FieldDiff, len(schema.Fields)),
		present: make([]bool, len(schema.Fields)),
	}
}

// DecodeRecord parses one backend record of the schema's category. Any disposition it carries is dropped.
func DecodeRecord(schema *Schema, raw json.RawMessage) (*RecordState, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", schema.Category, err)
	}

	var key string
	if v, ok := obj[wireKeyID]; ok {
		if err := json.Unmarshal(v, &key); err != nil {
			return nil, fmt.Errorf("decode %s record _id: %w", schema.Category, err)
		}
	}
	var status RecordStatus
	if v, ok := obj[wireKeyStatus]; ok {
		if err := json.Unmarshal(v, &status); err != nil {
			return nil, fmt.Errorf("decode %s record status: %w", schema.Category, err)
		}
	}
	switch status {
	case RecordStatusNew, RecordStatusUpdated, RecordStatusUnchanged:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("record %q has unknown status %q", key, status))
	}

	if err := checkFieldKeys(schema, key, obj); err != nil {
		return nil, err
	}

	rec := NewRecordState(schema, key, status)
	if v, ok := obj[schema.IDKey]; ok {
		if err := json.Unmarshal(v, &rec.EntityID); err != nil {
			return nil, fmt.Errorf("decode %s record %s: %w", schema.Category, schema.IDKey, err)
		}
	}
	for _, ref := range schema.RefKeys {
		if v, ok := obj[ref]; ok {
			rec.Refs[ref] = append(json.RawMessage(nil), v...)
		}
	}
	for i, spec := range schema.Fields {
		v, ok := obj[spec.Key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, &rec.fields[i]); err != nil {
			return nil, fmt.Errorf("decode %s field %s: %w", schema.Category, spec.Key, err)
		}
		rec.present[i] = true
	}
	return rec, nil
}

// checkFieldKeys rejects keys carrying the category prefix that name no field of the schema.
func checkFieldKeys(schema *Schema, recordKey string, obj map[string]json.RawMessage) error {
	prefix := string(schema.Category) + "_"
	var unknown []string
	for k := range obj {
		if !strings.HasPrefix(k, prefix) || k == schema.IDKey || schema.isRefKey(k) {
			continue
		}
		if i, ok := schema.fieldByID[k]; ok && schema.Fields[i].Key == k {
			continue
		}
		unknown = append(unknown, k)
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return appErrors.Clone(appErrors.ErrValidation,
		fmt.Sprintf("record %q has unknown %s field %s", recordKey, schema.Category, strings.Join(unknown, ", ")))
}

// Schema returns the layout this record follows.
func (r *RecordState) Schema() *Schema { return r.schema }

// Disposition returns the reviewer's decision.
func (r *RecordState) Disposition() Disposition { return r.disposition }

// IsDeleted reports whether the record is marked for deletion.
func (r *RecordState) IsDeleted() bool { return r.isDeleted }

// MarkedForDeletion is the flag the backend acts on.
func (r *RecordState) MarkedForDeletion() bool {
	return r.disposition == DispositionDelete || r.isDeleted
}

// SetDisposition records the decision and keeps the deletion flag in step with it.
func (r *RecordState) SetDisposition(d Disposition) error {
	if !d.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidDisposition, fmt.Sprintf("invalid disposition %q", string(d)))
	}
	r.disposition = d
	r.isDeleted = d == DispositionDelete
	return nil
}

// EditField sets the current value of a field. Deleted records are read-only.
func (r *RecordState) EditField(name string, v Value) error {
	i, spec, err := r.resolve(name)
	if err != nil {
		return err
	}
	if r.isDeleted {
		return appErrors.Clone(appErrors.ErrRecordDeleted, fmt.Sprintf("record %q is marked for deletion", r.Key))
	}
	if !spec.Accepts(v) {
		return appErrors.Clone(appErrors.ErrInvalidFieldValue, fmt.Sprintf("field %s expects %s, got %s", spec.Key, spec.Kind, v.Kind()))
	}
	r.fields[i].SetCurrent(v)
	r.present[i] = true
	return nil
}

// Field returns the diff for a field by short name or wire key.
func (r *RecordState) Field(name string) (FieldDiff, bool) {
	i, _, err := r.resolve(name)
	if err != nil {
		return FieldDiff{}, false
	}
	return r.fields[i], true
}

// Fields returns a copy of the diffs in schema order.
func (r *RecordState) Fields() []FieldDiff {
	return append([]FieldDiff(nil), r.fields...)
}

// Title is the current value of the category's naming field.
func (r *RecordState) Title() string {
	if d, ok := r.Field(r.schema.TitleKey); ok {
		return d.Current.Text()
	}
	return ""
}

// Clone returns a deep copy.
func (r *RecordState) Clone() *RecordState {
	c := *r
	if r.EntityID != nil {
		id := *r.EntityID
		c.EntityID = &id
	}
	c.Refs = make(map[string]json.RawMessage, len(r.Refs))
	for k, v := range r.Refs {
		c.Refs[k] = append(json.RawMessage(nil), v...)
	}
	c.fields = r.Fields()
	c.present = append([]bool(nil), r.present...)
	return &c
}

func (r *RecordState) resolve(name string) (int, FieldSpec, error) {
	spec, ok := r.schema.Lookup(name)
	if !ok {
		return 0, FieldSpec{}, appErrors.Clone(appErrors.ErrInvalidField, fmt.Sprintf("unknown %s field %q", r.schema.Category, name))
	}
	return r.schema.fieldByID[spec.Key], spec, nil
}

func (r *RecordState) wire() map[string]interface{} {
	out := make(map[string]interface{}, len(r.fields)+len(r.Refs)+5)
	out[wireKeyID] = r.Key
	out[wireKeyStatus] = r.Status
	out[r.schema.IDKey] = r.EntityID
	for k, v := range r.Refs {
		out[k] = v
	}
	for i, spec := range r.schema.Fields {
		if r.present[i] {
			out[spec.Key] = r.fields[i]
		}
	}
	out[wireKeyAction] = r.disposition
	out[wireKeyDeleted] = r.isDeleted
	return out
}

// MarshalJSON renders the backend's flat record shape.
func (r *RecordState) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

// SubmittedRecord is a record as posted back to the backend.
type SubmittedRecord struct {
	*RecordState
}

// MarshalJSON adds the resolved deletion flag to the record.
func (s SubmittedRecord) MarshalJSON() ([]byte, error) {
	out := s.wire()
	out[wireKeyMarkedForDeletion] = s.MarkedForDeletion()
	return json.Marshal(out)
}
