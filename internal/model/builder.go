package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
)

const (
	vendorPrefix      = "x-fal-"
	metadataExtension = "x-fal-metadata"
	orderExtension    = "x-fal-order-properties"
)

var (
	errOperationIDMissing     = errors.New("model builder: operation id is required")
	errOperationPathMissing   = errors.New("model builder: operation path is required")
	errOperationMethodMissing = errors.New("model builder: operation method is required")
)

// Builder converts descriptor operations into form models.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	return &Builder{opts: opts}
}

// Build transforms a descriptor operation into a FormModel suitable for
// rendering. Only the request body contributes fields; the declared property
// order, when present, wins over the alphabetical fallback.
func (b *Builder) Build(op pkgopenapi.Operation) (FormModel, error) {
	if err := validateOperation(op); err != nil {
		return FormModel{}, err
	}

	form := FormModel{
		OperationID: op.ID,
		Endpoint:    op.Path,
		Method:      strings.ToUpper(op.Method),
		Summary:     op.Summary,
		Description: op.Description,
		Metadata:    make(map[string]string),
	}

	mergeMetadata(form.Metadata, metadataFromExtensions(op.Extensions))
	mergeMetadata(form.Metadata, metadataFromExtensions(op.RequestBody.Extensions))

	fields, err := b.fieldsFromSchema("", op.RequestBody, true)
	if err != nil {
		return FormModel{}, err
	}
	form.Fields = fields

	if len(form.Metadata) == 0 {
		form.Metadata = nil
	}

	return form, nil
}

func (b *Builder) fieldsFromSchema(name string, schema pkgopenapi.Schema, required bool) ([]Field, error) {
	if schema.Ref != "" && schema.Type == "" && len(schema.Properties) == 0 && len(schema.AnyOf) == 0 {
		// Unresolved reference; capture it for consumers to handle.
		field := Field{
			Name:        name,
			Type:        FieldTypeObject,
			Required:    required,
			Label:       b.opts.Labeler(name),
			Description: schema.Description,
		}
		attachSchemaMetadata(&field, schema)
		return []Field{field}, nil
	}

	switch {
	case schema.Type == "array":
		field, err := b.fieldFromArray(name, schema, required)
		if err != nil {
			return nil, err
		}
		return []Field{field}, nil
	case schema.Type == "object" || (schema.Type == "" && len(schema.Properties) > 0):
		return b.fieldsFromObject(name, schema, required)
	default:
		field, err := b.fieldFromPrimitive(name, schema, required)
		if err != nil {
			return nil, err
		}
		return []Field{field}, nil
	}
}

func (b *Builder) fieldsFromObject(name string, schema pkgopenapi.Schema, required bool) ([]Field, error) {
	requiredSet := make(map[string]struct{}, len(schema.Required))
	for _, item := range schema.Required {
		requiredSet[item] = struct{}{}
	}

	var fields []Field
	for _, propName := range propertyOrder(schema) {
		propSchema := schema.Properties[propName]
		_, isRequired := requiredSet[propName]
		converted, err := b.fieldsFromSchema(propName, propSchema, isRequired)
		if err != nil {
			return nil, err
		}
		fields = append(fields, converted...)
	}

	if name == "" {
		return fields, nil
	}

	parent := Field{
		Name:        name,
		Type:        FieldTypeObject,
		Label:       b.opts.Labeler(name),
		Description: schema.Description,
		Required:    required,
		Nested:      fields,
		Default:     schema.Default,
	}
	if len(schema.Enum) > 0 {
		parent.Enum = append([]any(nil), schema.Enum...)
	}
	applyValidations(&parent, schema)
	if err := b.applyVariants(&parent, schema); err != nil {
		return nil, err
	}
	attachSchemaMetadata(&parent, schema)
	return []Field{parent}, nil
}

func (b *Builder) fieldFromArray(name string, schema pkgopenapi.Schema, required bool) (Field, error) {
	if schema.Items == nil {
		return Field{}, fmt.Errorf("model builder: array field %q missing items", name)
	}
	nested, err := b.fieldsFromSchema(name+"Item", *schema.Items, false)
	if err != nil {
		return Field{}, err
	}
	var itemField *Field
	if len(nested) > 0 {
		item := nested[0]
		itemField = &item
	}

	field := Field{
		Name:        name,
		Type:        FieldTypeArray,
		Label:       b.opts.Labeler(name),
		Description: schema.Description,
		Required:    required,
		Items:       itemField,
		Default:     schema.Default,
	}
	if len(schema.Enum) > 0 {
		field.Enum = append([]any(nil), schema.Enum...)
	}
	applyValidations(&field, schema)
	attachSchemaMetadata(&field, schema)
	return field, nil
}

func (b *Builder) fieldFromPrimitive(name string, schema pkgopenapi.Schema, required bool) (Field, error) {
	field := Field{
		Name:        name,
		Type:        mapType(schema.Type),
		Format:      schema.Format,
		Label:       b.opts.Labeler(name),
		Description: schema.Description,
		Required:    required,
		Default:     schema.Default,
	}
	if len(schema.Enum) > 0 {
		field.Enum = append([]any(nil), schema.Enum...)
	}
	applyValidations(&field, schema)
	if err := b.applyVariants(&field, schema); err != nil {
		return Field{}, err
	}
	attachSchemaMetadata(&field, schema)
	return field, nil
}

// applyVariants converts anyOf members into variant fields. Each variant keeps
// its reference name so classification can recognise companion schemas such
// as the structured image size.
func (b *Builder) applyVariants(field *Field, schema pkgopenapi.Schema) error {
	if len(schema.AnyOf) == 0 {
		return nil
	}
	for _, variant := range schema.AnyOf {
		name := variant.RefName()
		if name == "" {
			name = variant.Title
		}
		converted, err := b.variantField(name, variant)
		if err != nil {
			return err
		}
		field.Variants = append(field.Variants, converted)
	}
	return nil
}

func (b *Builder) variantField(name string, schema pkgopenapi.Schema) (Field, error) {
	if schema.Type == "object" || len(schema.Properties) > 0 || (schema.Ref != "" && schema.Type == "") {
		wrap := name
		if wrap == "" {
			wrap = "variant"
		}
		converted, err := b.fieldsFromSchema(wrap, schema, false)
		if err != nil {
			return Field{}, err
		}
		if len(converted) == 0 {
			return Field{Name: name, Type: FieldTypeObject}, nil
		}
		field := converted[0]
		field.Name = name
		return field, nil
	}
	field, err := b.fieldFromPrimitive(name, schema, false)
	if err != nil {
		return Field{}, err
	}
	return field, nil
}

// propertyOrder returns property names in declared order when the schema
// carries an ordering extension, appending any unlisted properties sorted
// alphabetically.
func propertyOrder(schema pkgopenapi.Schema) []string {
	remaining := make(map[string]struct{}, len(schema.Properties))
	for propName := range schema.Properties {
		remaining[propName] = struct{}{}
	}

	var ordered []string
	if declared, ok := schema.Extensions[orderExtension]; ok {
		for _, entry := range toStringSlice(declared) {
			if _, exists := remaining[entry]; !exists {
				continue
			}
			ordered = append(ordered, entry)
			delete(remaining, entry)
		}
	}

	rest := make([]string, 0, len(remaining))
	for propName := range remaining {
		rest = append(rest, propName)
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

func mapType(schemaType string) FieldType {
	switch schemaType {
	case "integer":
		return FieldTypeInteger
	case "number":
		return FieldTypeNumber
	case "boolean":
		return FieldTypeBoolean
	case "array":
		return FieldTypeArray
	case "object":
		return FieldTypeObject
	default:
		return FieldTypeString
	}
}

func applyValidations(field *Field, schema pkgopenapi.Schema) {
	if field == nil {
		return
	}

	if schema.Minimum != nil {
		params := map[string]string{
			"value": formatFloat(*schema.Minimum),
		}
		if schema.ExclusiveMinimum {
			params["exclusive"] = "true"
		}
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMin,
			Params: params,
		})
	}

	if schema.Maximum != nil {
		params := map[string]string{
			"value": formatFloat(*schema.Maximum),
		}
		if schema.ExclusiveMaximum {
			params["exclusive"] = "true"
		}
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMax,
			Params: params,
		})
	}

	if schema.MultipleOf != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind: ValidationRuleStep,
			Params: map[string]string{
				"value": formatFloat(*schema.MultipleOf),
			},
		})
	}

	if schema.MinLength != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind: ValidationRuleMinLength,
			Params: map[string]string{
				"value": strconv.Itoa(*schema.MinLength),
			},
		})
	}

	if schema.MaxLength != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind: ValidationRuleMaxLength,
			Params: map[string]string{
				"value": strconv.Itoa(*schema.MaxLength),
			},
		})
	}

	if schema.Pattern != "" {
		field.Validations = append(field.Validations, ValidationRule{
			Kind: ValidationRulePattern,
			Params: map[string]string{
				"pattern": schema.Pattern,
			},
		})
	}

	if len(field.Validations) == 0 {
		field.Validations = nil
	}
}

func attachSchemaMetadata(field *Field, schema pkgopenapi.Schema) {
	meta := metadataFromExtensions(schema.Extensions)
	if schema.Ref != "" {
		if meta == nil {
			meta = make(map[string]string, 1)
		}
		meta["$ref"] = schema.Ref
	}
	if len(meta) == 0 {
		return
	}
	if field.Metadata == nil {
		field.Metadata = make(map[string]string, len(meta))
	}
	mergeMetadata(field.Metadata, meta)
}

// metadataFromExtensions flattens vendor extensions to string metadata. The
// registry metadata block contributes its members individually (endpointId,
// category, thumbnailUrl, ...); the ordering extension is consumed by
// propertyOrder and skipped here.
func metadataFromExtensions(ext map[string]any) map[string]string {
	if len(ext) == 0 {
		return nil
	}

	result := make(map[string]string)
	for key, value := range ext {
		switch key {
		case orderExtension:
			continue
		case metadataExtension:
			nested, ok := value.(map[string]any)
			if !ok {
				continue
			}
			for nestedKey, nestedValue := range nested {
				if str, ok := canonicalizeValue(nestedValue); ok {
					result[nestedKey] = str
				}
			}
		default:
			if !strings.HasPrefix(key, vendorPrefix) {
				continue
			}
			trimmed := strings.TrimPrefix(key, vendorPrefix)
			if str, ok := canonicalizeValue(value); ok {
				result[trimmed] = str
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// canonicalizeValue renders an extension value as a stable string. Scalars
// keep their native formatting; composites fall back to compact JSON.
func canonicalizeValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return formatFloat(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		payload, err := json.Marshal(v)
		if err != nil || len(payload) == 0 {
			return "", false
		}
		return string(payload), true
	}
}

func mergeMetadata(target map[string]string, updates map[string]string) {
	if len(updates) == 0 || target == nil {
		return
	}
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		target[key] = updates[key]
	}
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if str, ok := entry.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func validateOperation(op pkgopenapi.Operation) error {
	if op.ID == "" {
		return errOperationIDMissing
	}
	if op.Path == "" {
		return errOperationPathMissing
	}
	if op.Method == "" {
		return errOperationMethodMissing
	}
	if err := validateSchema(op.RequestBody); err != nil {
		return fmt.Errorf("model builder: invalid request body: %w", err)
	}
	return nil
}

func validateSchema(schema pkgopenapi.Schema) error {
	if schema.Type == "array" && schema.Items == nil {
		return errors.New("array schema requires items")
	}
	if schema.Type == "object" {
		for _, nested := range schema.Properties {
			if err := validateSchema(nested); err != nil {
				return err
			}
		}
	}
	if schema.Items != nil {
		return validateSchema(*schema.Items)
	}
	return nil
}
