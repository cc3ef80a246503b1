// Package payload converts flat form state into the nested JSON body a
// generation endpoint expects, and back. Entry names use bracket/dot paths
// (loras[0].path); integer segments expand into arrays, everything else into
// objects. Checkbox entries coerce to booleans, numeric entries to floats,
// and empty values drop out of the payload entirely. A post-pass reconciles
// image-size selectors: the literal value "custom" is replaced by an integer
// width/height object collected from the selector's sibling inputs.
package payload
