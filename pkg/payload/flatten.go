package payload

import (
	"fmt"
	"sort"
	"strconv"
)

// Flatten converts a nested payload back into flat form entries, the inverse
// of Expand for everything that survives expansion. Entry kinds are inferred
// from the value types so expanding the result reproduces the payload. Keys
// emit in sorted order to keep output deterministic.
func Flatten(body map[string]any) ([]Entry, error) {
	var entries []Entry
	if err := flattenValue(nil, body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func flattenValue(path []segment, value any, entries *[]Entry) error {
	switch typed := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			next := append(append([]segment(nil), path...), segment{key: key, isKey: true})
			if err := flattenValue(next, typed[key], entries); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, item := range typed {
			if item == nil {
				continue
			}
			next := append(append([]segment(nil), path...), segment{index: i})
			if err := flattenValue(next, item, entries); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return nil
	default:
		entry, err := scalarEntry(path, typed)
		if err != nil {
			return err
		}
		*entries = append(*entries, entry)
		return nil
	}
}

func scalarEntry(path []segment, value any) (Entry, error) {
	if len(path) == 0 {
		return Entry{}, fmt.Errorf("payload: scalar value without a path")
	}
	name := renderPath(path)
	switch typed := value.(type) {
	case bool:
		return Entry{Name: name, Value: strconv.FormatBool(typed), Kind: KindCheckbox}, nil
	case float64:
		return Entry{Name: name, Value: strconv.FormatFloat(typed, 'f', -1, 64), Kind: KindNumber}, nil
	case int:
		return Entry{Name: name, Value: strconv.Itoa(typed), Kind: KindNumber}, nil
	case int64:
		return Entry{Name: name, Value: strconv.FormatInt(typed, 10), Kind: KindNumber}, nil
	case string:
		return Entry{Name: name, Value: typed, Kind: KindText}, nil
	default:
		return Entry{}, fmt.Errorf("payload: unsupported value %T at %q", value, name)
	}
}
