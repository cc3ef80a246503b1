package payload

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EntryKind tells the expansion how to coerce an entry's raw value.
type EntryKind string

const (
	// KindText keeps the raw string. Empty values are omitted.
	KindText EntryKind = "text"
	// KindCheckbox coerces to a boolean. False is kept, not omitted.
	KindCheckbox EntryKind = "checkbox"
	// KindNumber parses a float. Empty values are omitted.
	KindNumber EntryKind = "number"
)

// Entry is one named input captured from a form.
type Entry struct {
	Name  string
	Value string
	Kind  EntryKind
}

// sentinel value an image-size selector reports when the custom pair applies.
const customSizeSentinel = "custom"

const (
	widthSuffix  = "_width"
	heightSuffix = "_height"
)

// Expand builds the nested request payload from flat form entries. Entries
// apply in order, later writes winning over earlier ones. After expansion the
// image-size post-pass runs over the result.
func Expand(entries []Entry) (map[string]any, error) {
	root := make(map[string]any)

	for _, entry := range entries {
		value, keep, err := coerce(entry)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}
		segments, err := parsePath(entry.Name)
		if err != nil {
			return nil, err
		}
		updated, err := setValue(root, segments, value)
		if err != nil {
			return nil, fmt.Errorf("payload: field %q: %w", entry.Name, err)
		}
		root = updated.(map[string]any)
	}

	reconcileImageSize(root)
	return root, nil
}

func coerce(entry Entry) (any, bool, error) {
	switch entry.Kind {
	case KindCheckbox:
		return parseCheckbox(entry.Value), true, nil
	case KindNumber:
		trimmed := strings.TrimSpace(entry.Value)
		if trimmed == "" {
			return nil, false, nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, false, fmt.Errorf("payload: field %q: invalid number %q", entry.Name, entry.Value)
		}
		return parsed, true, nil
	default:
		if entry.Value == "" {
			return nil, false, nil
		}
		return entry.Value, true, nil
	}
}

func parseCheckbox(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "on", "1", "checked", "yes":
		return true
	default:
		return false
	}
}

// setValue walks the container tree creating objects and arrays as the path
// demands, and returns the (possibly reallocated) container.
func setValue(container any, segments []segment, value any) (any, error) {
	seg := segments[0]
	last := len(segments) == 1

	if seg.isKey {
		object, ok := container.(map[string]any)
		if !ok || object == nil {
			object = make(map[string]any)
		}
		if last {
			object[seg.key] = value
			return object, nil
		}
		child := object[seg.key]
		if !containerMatches(child, segments[1]) {
			child = newContainer(segments[1])
		}
		updated, err := setValue(child, segments[1:], value)
		if err != nil {
			return nil, err
		}
		object[seg.key] = updated
		return object, nil
	}

	list, ok := container.([]any)
	if !ok || list == nil {
		list = []any{}
	}
	for len(list) <= seg.index {
		list = append(list, nil)
	}
	if last {
		list[seg.index] = value
		return list, nil
	}
	child := list[seg.index]
	if !containerMatches(child, segments[1]) {
		child = newContainer(segments[1])
	}
	updated, err := setValue(child, segments[1:], value)
	if err != nil {
		return nil, err
	}
	list[seg.index] = updated
	return list, nil
}

func newContainer(next segment) any {
	if next.isKey {
		return make(map[string]any)
	}
	return []any{}
}

func containerMatches(existing any, next segment) bool {
	if existing == nil {
		return false
	}
	if next.isKey {
		_, ok := existing.(map[string]any)
		return ok
	}
	_, ok := existing.([]any)
	return ok
}

// reconcileImageSize rewrites selector sentinels across the payload. Whenever
// a string member holds "custom" and numeric <name>_width/<name>_height
// siblings exist, the member becomes an integer width/height object and the
// consumed siblings are removed. Selectors holding a preset keep the string
// verbatim; renderers only submit the sibling pair when the sentinel applies.
func reconcileImageSize(node any) {
	switch typed := node.(type) {
	case map[string]any:
		for key, value := range typed {
			str, ok := value.(string)
			if !ok {
				reconcileImageSize(value)
				continue
			}
			if str != customSizeSentinel {
				continue
			}
			width, hasWidth := numericMember(typed, key+widthSuffix)
			height, hasHeight := numericMember(typed, key+heightSuffix)
			if !hasWidth || !hasHeight {
				continue
			}
			typed[key] = map[string]any{
				"width":  int(math.Round(width)),
				"height": int(math.Round(height)),
			}
			delete(typed, key+widthSuffix)
			delete(typed, key+heightSuffix)
		}
	case []any:
		for _, item := range typed {
			reconcileImageSize(item)
		}
	}
}

func numericMember(object map[string]any, key string) (float64, bool) {
	value, ok := object[key]
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	default:
		return 0, false
	}
}
