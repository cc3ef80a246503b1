package payload

import (
	"fmt"
	"strconv"
	"strings"
)

// segment is one step of a field path: either an object key or an array index.
type segment struct {
	key   string
	index int
	isKey bool
}

// parsePath splits a field name such as "loras[0].path" into segments. Dots
// separate object keys; bracketed integers address array positions. A bare
// integer key ("items.0.name") also addresses an array position, matching how
// the expansion treats numeric path segments.
func parsePath(name string) ([]segment, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("payload: empty field name")
	}

	var segments []segment
	var current strings.Builder

	flush := func() error {
		if current.Len() == 0 {
			return nil
		}
		raw := current.String()
		current.Reset()
		if index, err := strconv.Atoi(raw); err == nil {
			if index < 0 {
				return fmt.Errorf("payload: negative index in %q", name)
			}
			segments = append(segments, segment{index: index})
			return nil
		}
		segments = append(segments, segment{key: raw, isKey: true})
		return nil
	}

	for i := 0; i < len(trimmed); i++ {
		switch trimmed[i] {
		case '.':
			if err := flush(); err != nil {
				return nil, err
			}
		case '[':
			if err := flush(); err != nil {
				return nil, err
			}
			end := strings.IndexByte(trimmed[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("payload: unterminated bracket in %q", name)
			}
			inner := trimmed[i+1 : i+end]
			index, err := strconv.Atoi(inner)
			if err != nil || index < 0 {
				return nil, fmt.Errorf("payload: invalid index %q in %q", inner, name)
			}
			segments = append(segments, segment{index: index})
			i += end
		case ']':
			return nil, fmt.Errorf("payload: unexpected close bracket in %q", name)
		default:
			current.WriteByte(trimmed[i])
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("payload: empty field name")
	}
	if !segments[0].isKey {
		return nil, fmt.Errorf("payload: field %q must start with a key", name)
	}
	return segments, nil
}

// renderPath is the inverse of parsePath: keys join with dots, indices render
// in brackets.
func renderPath(segments []segment) string {
	var out strings.Builder
	for i, seg := range segments {
		if seg.isKey {
			if i > 0 {
				out.WriteByte('.')
			}
			out.WriteString(seg.key)
			continue
		}
		out.WriteByte('[')
		out.WriteString(strconv.Itoa(seg.index))
		out.WriteByte(']')
	}
	return out.String()
}
