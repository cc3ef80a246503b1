package openapi

import (
	"sort"
	"strings"
)

// PrimaryOperation chooses the operation that drives form generation for a
// descriptor: the POST at the document root when present, otherwise the
// first POST, otherwise the first operation by ID. The boolean is false only
// when the map is empty.
func PrimaryOperation(operations map[string]Operation) (Operation, bool) {
	if len(operations) == 0 {
		return Operation{}, false
	}

	ids := make([]string, 0, len(operations))
	for id := range operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		op := operations[id]
		if strings.EqualFold(op.Method, "post") && op.Path == "/" {
			return op, true
		}
	}
	for _, id := range ids {
		if strings.EqualFold(operations[id].Method, "post") {
			return operations[id], true
		}
	}
	return operations[ids[0]], true
}
