package parser

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
)

// vendorPrefix guards which vendor extensions survive conversion. Generation
// descriptors carry their ordering hints and registry metadata under x-fal-*.
const vendorPrefix = "x-fal-"

func convertSchema(ref *openapi3.SchemaRef) pkgopenapi.Schema {
	if ref == nil {
		return pkgopenapi.Schema{}
	}
	if ref.Value == nil {
		return pkgopenapi.Schema{Ref: ref.Ref}
	}

	src := ref.Value
	schema := pkgopenapi.Schema{
		Ref:         ref.Ref,
		Type:        firstSchemaType(src.Type),
		Format:      src.Format,
		Title:       src.Title,
		Description: src.Description,
		Default:     src.Default,
		Pattern:     src.Pattern,
		Extensions:  extractExtensions(src.Extensions),
	}

	if len(src.Required) > 0 {
		schema.Required = append([]string(nil), src.Required...)
	}
	if len(src.Enum) > 0 {
		schema.Enum = append([]any(nil), src.Enum...)
	}

	if src.Min != nil {
		value := *src.Min
		schema.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		schema.Maximum = &value
	}
	schema.ExclusiveMinimum = src.ExclusiveMin
	schema.ExclusiveMaximum = src.ExclusiveMax
	if src.MultipleOf != nil {
		value := *src.MultipleOf
		schema.MultipleOf = &value
	}
	if src.MinLength > 0 {
		value := int(src.MinLength)
		schema.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		schema.MaxLength = &value
	}

	if len(src.Properties) > 0 {
		schema.Properties = make(map[string]pkgopenapi.Schema, len(src.Properties))
		for name, property := range src.Properties {
			schema.Properties[name] = convertSchema(property)
		}
	}

	if src.Items != nil {
		items := convertSchema(src.Items)
		schema.Items = &items
	}

	if len(src.AnyOf) > 0 {
		schema.AnyOf = make([]pkgopenapi.Schema, 0, len(src.AnyOf))
		for _, variant := range src.AnyOf {
			schema.AnyOf = append(schema.AnyOf, convertSchema(variant))
		}
	}

	// allOf composition is flattened: merged members contribute properties and
	// constraints the descriptor expects on the composed schema.
	if len(src.AllOf) > 0 {
		for _, member := range src.AllOf {
			merged := convertSchema(member)
			mergeSchema(&schema, merged)
		}
	}

	return schema
}

func mergeSchema(dst *pkgopenapi.Schema, src pkgopenapi.Schema) {
	if dst.Type == "" {
		dst.Type = src.Type
	}
	if dst.Format == "" {
		dst.Format = src.Format
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.Default == nil {
		dst.Default = src.Default
	}
	if len(src.Required) > 0 {
		dst.Required = append(dst.Required, src.Required...)
	}
	if len(src.Enum) > 0 && len(dst.Enum) == 0 {
		dst.Enum = append([]any(nil), src.Enum...)
	}
	if src.Minimum != nil && dst.Minimum == nil {
		dst.Minimum = src.Minimum
	}
	if src.Maximum != nil && dst.Maximum == nil {
		dst.Maximum = src.Maximum
	}
	if len(src.Properties) > 0 {
		if dst.Properties == nil {
			dst.Properties = make(map[string]pkgopenapi.Schema, len(src.Properties))
		}
		for name, property := range src.Properties {
			if _, exists := dst.Properties[name]; !exists {
				dst.Properties[name] = property
			}
		}
	}
	if src.Items != nil && dst.Items == nil {
		dst.Items = src.Items
	}
	if len(src.Extensions) > 0 {
		if dst.Extensions == nil {
			dst.Extensions = make(map[string]any, len(src.Extensions))
		}
		for key, value := range src.Extensions {
			if _, exists := dst.Extensions[key]; !exists {
				dst.Extensions[key] = value
			}
		}
	}
}

func extractExtensions(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	filtered := make(map[string]any)
	for key, value := range raw {
		if strings.HasPrefix(key, vendorPrefix) {
			filtered[key] = value
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	slice := types.Slice()
	for _, t := range slice {
		if t != "null" {
			return t
		}
	}
	if len(slice) > 0 {
		return slice[0]
	}
	return ""
}
