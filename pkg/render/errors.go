package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-easel/pkg/model"
)

// ErrorMapping splits submission feedback into field-scoped and form-level
// messages keyed by the dotted paths renderers and payload values share.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// ValidationDetail is one entry of the detail array the generation API
// returns for a rejected payload: a location path into the request body plus
// a human-readable message.
type ValidationDetail struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

// ParseErrorDetail extracts validation details from an API error body. The
// detail member is either an array of location/message entries or, for
// auth-style rejections, a bare string; both shapes are handled. The second
// return is false when the body carries no usable detail.
func ParseErrorDetail(body []byte) ([]ValidationDetail, bool) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, false
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return nil, false
	}

	var details []ValidationDetail
	if err := json.Unmarshal(envelope.Detail, &details); err == nil && len(details) > 0 {
		return details, true
	}

	var message string
	if err := json.Unmarshal(envelope.Detail, &message); err == nil && strings.TrimSpace(message) != "" {
		return []ValidationDetail{{Msg: message}}, true
	}
	return nil, false
}

// MapValidationDetails resolves validation details against the form's fields.
// Locations that cannot be matched become form-level messages so nothing is
// silently dropped.
func MapValidationDetails(form model.FormModel, details []ValidationDetail) ErrorMapping {
	if len(details) == 0 {
		return ErrorMapping{}
	}

	payload := make(map[string][]string, len(details))
	for _, detail := range details {
		message := strings.TrimSpace(detail.Msg)
		if message == "" {
			continue
		}
		path := locPath(detail.Loc)
		payload[path] = append(payload[path], message)
	}
	return MapErrorPayload(form, payload)
}

// MapErrorPayload normalises path-keyed error payloads (dotted, slash or
// bracket notation, with or without a body wrapper) into the dotted field
// identifiers renderers consume. Unknown paths are treated as form-level
// errors so messages are not lost.
func MapErrorPayload(form model.FormModel, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{
		Fields: make(map[string][]string),
	}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	fieldPaths := make(map[string]struct{})
	collectFieldPaths(form.Fields, "", fieldPaths)

	for rawPath, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}

		mapped, formLevel := mapErrorPath(rawPath, fieldPaths)
		if formLevel || mapped == "" {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}
		mapping.Fields[mapped] = append(mapping.Fields[mapped], normalized...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// MergeFormErrors concatenates form-level error slices, trimming whitespace
// and dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func locPath(loc []any) string {
	segments := make([]string, 0, len(loc))
	for _, entry := range loc {
		segment := strings.TrimSpace(locSegment(entry))
		if segment == "" {
			continue
		}
		segments = append(segments, segment)
	}
	return strings.Join(segments, ".")
}

// locSegment renders one location entry as a path segment. Array indices
// arrive as JSON numbers and must not pick up an exponent or fraction.
func locSegment(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, fieldPaths map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}

	segments := parsePathSegments(trimmed)
	if len(segments) == 0 {
		return "", true
	}

	best := ""
	for _, variant := range buildSegmentVariants(segments) {
		if path := longestMatchingPath(variant, fieldPaths); path != "" {
			if len(pathSegments(path)) > len(pathSegments(best)) {
				best = path
			}
		}
	}

	if best != "" {
		return best, false
	}
	return "", true
}

func parsePathSegments(path string) []string {
	if path == "" {
		return nil
	}

	clean := strings.TrimSpace(path)
	clean = strings.TrimPrefix(clean, "#/")
	clean = strings.TrimPrefix(clean, "$/")
	clean = strings.TrimPrefix(clean, "$.")
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimPrefix(clean, "#")
		clean = strings.TrimPrefix(clean, "/")
		clean = strings.TrimPrefix(clean, ".")
		clean = strings.TrimPrefix(clean, "$")
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = replacer.Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})

	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

// buildSegmentVariants widens a raw path into the candidate spellings a field
// lookup should try: as-is, without the request-body wrapper, and with array
// indices stripped.
func buildSegmentVariants(segments []string) [][]string {
	var variants [][]string
	seen := make(map[string]struct{}, 4)

	appendVariant := func(candidate []string) {
		if len(candidate) == 0 {
			return
		}
		key := strings.Join(candidate, ".")
		if _, exists := seen[key]; exists {
			return
		}
		seen[key] = struct{}{}
		var copied []string
		copied = append(copied, candidate...)
		variants = append(variants, copied)
	}

	appendVariant(segments)

	noWrappers := dropWrapperSegments(segments)
	appendVariant(noWrappers)
	appendVariant(stripNumericSegments(segments))
	appendVariant(stripNumericSegments(noWrappers))

	return variants
}

// dropWrapperSegments removes leading envelope segments. Validation locations
// address the HTTP request ("body", "input"), not the schema the form was
// built from.
func dropWrapperSegments(segments []string) []string {
	if len(segments) == 0 {
		return segments
	}

	wrappers := map[string]struct{}{
		"body":    {},
		"input":   {},
		"request": {},
		"payload": {},
		"data":    {},
	}

	out := segments
	for len(out) > 0 {
		if _, ok := wrappers[strings.ToLower(out[0])]; ok {
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	if len(segments) == 0 {
		return segments
	}

	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func longestMatchingPath(segments []string, fieldPaths map[string]struct{}) string {
	if len(segments) == 0 || len(fieldPaths) == 0 {
		return ""
	}

	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if _, ok := fieldPaths[candidate]; ok {
			return candidate
		}
	}
	return ""
}

func pathSegments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func collectFieldPaths(fields []model.Field, prefix string, dest map[string]struct{}) {
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		path := joinPath(prefix, name)
		dest[path] = struct{}{}

		if len(field.Nested) > 0 {
			collectFieldPaths(field.Nested, path, dest)
		}
		// Composition variants contribute their members under the parent
		// path: a size object selected for image_size answers errors at
		// image_size.width.
		for _, variant := range field.Variants {
			if len(variant.Nested) > 0 {
				collectFieldPaths(variant.Nested, path, dest)
			}
		}
		if field.Items != nil {
			collectItemPaths(field.Items, path, dest)
		}
	}
}

// collectItemPaths indexes a repeatable item's members under the array's own
// path, which is where locations land once index segments are stripped.
func collectItemPaths(item *model.Field, prefix string, dest map[string]struct{}) {
	if item == nil {
		return
	}
	if len(item.Nested) > 0 {
		collectFieldPaths(item.Nested, prefix, dest)
	}
	if item.Items != nil {
		collectItemPaths(item.Items, prefix, dest)
	}
}

func joinPath(parent, child string) string {
	parent = strings.TrimSpace(parent)
	child = strings.TrimSpace(child)
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
