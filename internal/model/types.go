package model

import "strconv"

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

const (
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleStep      = "multipleOf"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule represents a single validation constraint applied to a field.
// Use the ValidationRule* constants to reference canonical OpenAPI-derived
// constraints (min/max, multipleOf, minLength/maxLength, pattern). Numeric
// bounds and length limits encode their threshold in Params["value"] while
// pattern rules preserve the original expression in Params["pattern"]. Boolean
// flags such as exclusivity are encoded as string values to keep JSON
// snapshots stable.
type ValidationRule struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Field models an individual input inside a generated form. Struct fields are
// annotated so renderers can serialise them directly when needed. Variants
// holds the alternatives of a schema composition (anyOf), which is how
// generation descriptors attach a structured size object to an otherwise
// enum-valued field.
type Field struct {
	Name        string            `json:"name"`
	Type        FieldType         `json:"type"`
	Format      string            `json:"format,omitempty"`
	Required    bool              `json:"required"`
	Label       string            `json:"label,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Description string            `json:"description,omitempty"`
	Default     any               `json:"default,omitempty"`
	Enum        []any             `json:"enum,omitempty"`
	Nested      []Field           `json:"nested,omitempty"`
	Items       *Field            `json:"items,omitempty"`
	Variants    []Field           `json:"variants,omitempty"`
	Validations []ValidationRule  `json:"validations,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Widget      *Widget           `json:"widget,omitempty"`
}

// FormModel is the top-level representation renderers consume: one endpoint
// operation flattened into an ordered field list plus string metadata.
type FormModel struct {
	OperationID string            `json:"operationId"`
	Endpoint    string            `json:"endpoint"`
	Method      string            `json:"method"`
	Summary     string            `json:"summary,omitempty"`
	Description string            `json:"description,omitempty"`
	Fields      []Field           `json:"fields"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Bound returns the numeric constraint of the given kind, when present.
func (f Field) Bound(kind string) (float64, bool) {
	for _, rule := range f.Validations {
		if rule.Kind != kind {
			continue
		}
		value, ok := rule.Params["value"]
		if !ok {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// RefName returns the trailing component of the field's schema reference, or
// an empty string when the field was not built from a reference.
func (f Field) RefName() string {
	ref, ok := f.Metadata["$ref"]
	if !ok || ref == "" {
		return ""
	}
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '/' {
			return ref[i+1:]
		}
	}
	return ref
}

// Find returns the nested field with the given name.
func (f Field) Find(name string) (Field, bool) {
	for _, nested := range f.Nested {
		if nested.Name == name {
			return nested, true
		}
	}
	return Field{}, false
}

// Find returns the top-level field with the given name.
func (m FormModel) Find(name string) (Field, bool) {
	for _, field := range m.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}
