package models

import (
	"strings"

	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
)

// Category is the entity kind of a review job.
type Category string

const (
	CategoryAsset      Category = "asset"
	CategoryIndication Category = "indication"
	CategoryCatalyst   Category = "catalyst"
)

// Categories lists every supported category in display order.
var Categories = []Category{CategoryAsset, CategoryIndication, CategoryCatalyst}

// ParseCategory normalises raw input into a known Category.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := schemas[c]; !ok {
		return "", appErrors.Clone(appErrors.ErrUnknownCategory, "unknown review category: "+raw)
	}
	return c, nil
}

// FieldKind describes how a field is edited and which Value kind it accepts.
type FieldKind string

const (
	FieldKindText FieldKind = "text"
	FieldKindEnum FieldKind = "enum"
	FieldKindBool FieldKind = "bool"
)

// FieldSpec describes one reviewable field.
type FieldSpec struct {
	Name    string    `json:"name"`
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Options []string  `json:"options,omitempty"`
}

// Accepts reports whether v may be stored in the field. Null is always accepted.
func (f FieldSpec) Accepts(v Value) bool {
	switch v.Kind() {
	case ValueNull:
		return true
	case ValueBool:
		return f.Kind == FieldKindBool
	default:
		return f.Kind != FieldKindBool
	}
}

// Recognized reports enum membership for display. Non-enum fields always report true.
func (f FieldSpec) Recognized(v Value) bool {
	if f.Kind != FieldKindEnum {
		return true
	}
	s, ok := v.Str()
	if !ok {
		return false
	}
	for _, opt := range f.Options {
		if opt == s {
			return true
		}
	}
	return false
}

// Schema is the static field layout of one category.
type Schema struct {
	Category  Category    `json:"category"`
	IDKey     string      `json:"idKey"`
	TitleKey  string      `json:"titleKey"`
	RefKeys   []string    `json:"refKeys"`
	Fields    []FieldSpec `json:"fields"`
	fieldByID map[string]int
}

// Lookup resolves a short field name ("primary_name") or its wire key ("asset_primary_name").
func (s *Schema) Lookup(name string) (FieldSpec, bool) {
	if i, ok := s.fieldByID[name]; ok {
		return s.Fields[i], true
	}
	return FieldSpec{}, false
}

func (s *Schema) isRefKey(key string) bool {
	for _, ref := range s.RefKeys {
		if ref == key {
			return true
		}
	}
	return false
}

// SchemaFor returns the schema registered for the category.
func SchemaFor(c Category) (*Schema, error) {
	s, ok := schemas[c]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownCategory, "unknown review category: "+string(c))
	}
	return s, nil
}

type fieldDef struct {
	name    string
	label   string
	kind    FieldKind
	options []string
}

func newSchema(c Category, idKey, titleField string, refKeys []string, defs []fieldDef) *Schema {
	s := &Schema{
		Category:  c,
		IDKey:     idKey,
		TitleKey:  string(c) + "_" + titleField,
		RefKeys:   refKeys,
		Fields:    make([]FieldSpec, 0, len(defs)),
		fieldByID: make(map[string]int, len(defs)*2),
	}
	for i, d := range defs {
		spec := FieldSpec{
			Name:    d.name,
			Key:     string(c) + "_" + d.name,
			Label:   d.label,
			Kind:    d.kind,
			Options: d.options,
		}
		s.Fields = append(s.Fields, spec)
		s.fieldByID[spec.Name] = i
		s.fieldByID[spec.Key] = i
	}
	return s
}

var schemas = map[Category]*Schema{
	CategoryAsset: newSchema(CategoryAsset, "asset_id", "primary_name", nil, []fieldDef{
		{"internal_code", "Internal Code", FieldKindText, nil},
		{"primary_name", "Primary Name", FieldKindText, nil},
		{"modality", "Modality", FieldKindEnum, ModalityValues},
		{"target", "Target", FieldKindText, nil},
		{"formulation", "Formulation", FieldKindEnum, FormulationValues},
		{"route_of_administration", "Route of Administration", FieldKindEnum, RouteOfAdministrationValues},
		{"mechanism_of_action", "Mechanism of Action", FieldKindText, nil},
		{"administration_frequency", "Administration Frequency", FieldKindText, nil},
		{"ownership_type", "Ownership Type", FieldKindText, nil},
		{"is_oncology", "Is Oncology", FieldKindBool, nil},
		{"is_active", "Is Active", FieldKindBool, nil},
	}),
	CategoryIndication: newSchema(CategoryIndication, "indication_id", "name", []string{"asset_id"}, []fieldDef{
		{"name", "Indication Name", FieldKindText, nil},
		{"icd_10_code", "ICD-10 Code", FieldKindText, nil},
		{"MeSH_code", "MeSH Code", FieldKindText, nil},
		{"therapeutic_area", "Therapeutic Area", FieldKindEnum, TherapeuticAreaValues},
		{"is_primary", "Is Primary", FieldKindBool, nil},
		{"development_stage", "Development Stage", FieldKindEnum, DevelopmentStageValues},
		{"development_stage_date", "Development Stage Date", FieldKindText, nil},
		{"clinical_trials_status", "Clinical Trials Status", FieldKindEnum, ClinicalTrialsStatusValues},
		{"notes", "Notes", FieldKindText, nil},
	}),
	CategoryCatalyst: newSchema(CategoryCatalyst, "catalyst_id", "name", []string{"asset_id", "indication_id"}, []fieldDef{
		{"name", "Catalyst Name", FieldKindText, nil},
		{"description", "Description", FieldKindText, nil},
		{"category", "Category", FieldKindEnum, CatalystCategoryValues},
		{"guided_timeframe", "Guided Timeframe", FieldKindText, nil},
		{"quarter_year", "Quarter/Year", FieldKindText, nil},
		{"status", "Status", FieldKindEnum, CatalystStatusValues},
		{"reasoning", "Reasoning", FieldKindText, nil},
	}),
}
