package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	easel "github.com/goliatone/go-easel"
	"github.com/goliatone/go-easel/pkg/model"
	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
	"github.com/goliatone/go-easel/pkg/uischema"
)

// The catalog consumes exactly these vendor extensions; anything else under
// the x-fal- prefix is a typo the pipeline would silently ignore.
const (
	vendorPrefix      = "x-fal-"
	metadataExtension = "x-fal-metadata"
	orderExtension    = "x-fal-order-properties"
)

type violation struct {
	file     string
	location string
	message  string
}

// lintState accumulates cross-file facts: which file owns each endpoint id
// and which field paths each generated form exposes for hint overlays.
type lintState struct {
	owners map[string]string
	forms  map[string]formPaths
}

type formPaths struct {
	file  string
	paths map[string]struct{}
}

func main() {
	hintsDir := flag.String("hints", "", "directory of presentation hint documents to resolve against the descriptors")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [paths...]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flag.CommandLine.Output(), "\nLint endpoint descriptors for problems the catalog would skip over silently.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"endpoints"}
	}

	files, err := expandPaths(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	parser := easel.NewParser(pkgopenapi.WithPartialDocuments(true))
	builder := model.NewBuilder()
	state := &lintState{
		owners: make(map[string]string),
		forms:  make(map[string]formPaths),
	}

	var violations []violation
	for _, path := range files {
		linted, err := lintFile(ctx, parser, builder, state, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, linted...)
	}

	if *hintsDir != "" {
		store, err := uischema.LoadDir(*hintsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load hints: %v\n", err)
			os.Exit(1)
		}
		violations = append(violations, lintHints(store, state)...)
	}

	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool {
			if violations[i].file == violations[j].file {
				if violations[i].location == violations[j].location {
					return violations[i].message < violations[j].message
				}
				return violations[i].location < violations[j].location
			}
			return violations[i].file < violations[j].file
		})
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
		}
		os.Exit(1)
	}
}

// expandPaths resolves each argument to descriptor files, descending into
// directories the way catalog discovery does.
func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(entry string, d os.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !isDescriptorFile(entry) {
				return nil
			}
			files = append(files, entry)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func isDescriptorFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func lintFile(ctx context.Context, parser pkgopenapi.Parser, builder model.Builder, state *lintState, path string) ([]violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	doc, err := pkgopenapi.NewDocument(pkgopenapi.SourceFromFile(path), raw)
	if err != nil {
		return []violation{{file: path, location: "document", message: err.Error()}}, nil
	}

	var result []violation

	info, err := parser.Describe(ctx, doc)
	if err != nil {
		result = append(result, violation{
			file:     path,
			location: "document",
			message:  fmt.Sprintf("describe: %v", err),
		})
		return result, nil
	}

	endpointID := ""
	if rawMeta, ok := info.Extensions[metadataExtension]; ok {
		meta, ok := rawMeta.(map[string]any)
		if !ok {
			result = append(result, violation{
				file:     path,
				location: metadataExtension,
				message:  fmt.Sprintf("must be an object, found %T", rawMeta),
			})
		} else {
			endpointID = strings.Trim(stringMember(meta, "endpointId"), "/")
			if endpointID == "" {
				result = append(result, violation{
					file:     path,
					location: metadataExtension,
					message:  "endpointId is required; the catalog skips descriptors without one",
				})
			}
		}
	} else {
		result = append(result, violation{
			file:     path,
			location: "document",
			message:  metadataExtension + " block is missing; the catalog skips descriptors without one",
		})
	}

	if endpointID != "" {
		if existing, dup := state.owners[endpointID]; dup {
			result = append(result, violation{
				file:     path,
				location: metadataExtension,
				message:  fmt.Sprintf("endpointId %q already declared in %s", endpointID, existing),
			})
		} else {
			state.owners[endpointID] = path
		}
	}

	operations, err := parser.Operations(ctx, doc)
	if err != nil {
		result = append(result, violation{
			file:     path,
			location: "document",
			message:  fmt.Sprintf("parse operations: %v", err),
		})
		return result, nil
	}
	if len(operations) == 0 {
		result = append(result, violation{
			file:     path,
			location: "document",
			message:  "descriptor declares no operations; the catalog skips it",
		})
		return result, nil
	}

	opIDs := make([]string, 0, len(operations))
	for opID := range operations {
		opIDs = append(opIDs, opID)
	}
	sort.Strings(opIDs)
	for _, opID := range opIDs {
		op := operations[opID]
		base := []string{"operation", opID}
		result = append(result, lintExtensions(path, base, op.Extensions)...)
		result = append(result, lintSchema(path, append(base, "requestBody"), op.RequestBody)...)

		codes := make([]string, 0, len(op.Responses))
		for code := range op.Responses {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			result = append(result, lintSchema(path, append(base, "responses", code), op.Responses[code])...)
		}
	}

	if op, ok := pkgopenapi.PrimaryOperation(operations); ok {
		form, err := builder.Build(op)
		if err != nil {
			result = append(result, violation{
				file:     path,
				location: formatLocation([]string{"operation", op.ID, "requestBody"}),
				message:  fmt.Sprintf("build form model: %v", err),
			})
		} else {
			paths := make(map[string]struct{})
			collectFieldPaths(form.Fields, "", paths)
			entry := formPaths{file: path, paths: paths}
			if endpointID != "" {
				state.forms[endpointID] = entry
			}
			if form.OperationID != "" {
				if _, exists := state.forms[form.OperationID]; !exists {
					state.forms[form.OperationID] = entry
				}
			}
		}
	}

	return result, nil
}

func lintSchema(file string, path []string, schema pkgopenapi.Schema) []violation {
	var result []violation
	result = append(result, lintExtensions(file, path, schema.Extensions)...)
	result = append(result, lintOrder(file, path, schema)...)

	if len(schema.Properties) > 0 {
		keys := make([]string, 0, len(schema.Properties))
		for key := range schema.Properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			next := appendPath(path, "properties."+key)
			result = append(result, lintSchema(file, next, schema.Properties[key])...)
		}
	}

	if schema.Items != nil {
		result = append(result, lintSchema(file, appendPath(path, "items"), *schema.Items)...)
	}

	for i, variant := range schema.AnyOf {
		result = append(result, lintSchema(file, appendPath(path, fmt.Sprintf("anyOf.%d", i)), variant)...)
	}

	return result
}

func lintExtensions(file string, path []string, extensions map[string]any) []violation {
	if len(extensions) == 0 {
		return nil
	}

	keys := make([]string, 0, len(extensions))
	for key := range extensions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result []violation
	for _, key := range keys {
		if !strings.HasPrefix(key, vendorPrefix) {
			continue
		}
		if key == metadataExtension || key == orderExtension {
			continue
		}
		result = append(result, violation{
			file:     file,
			location: formatLocation(path),
			message:  fmt.Sprintf("unknown extension %q (known: %s, %s)", key, metadataExtension, orderExtension),
		})
	}
	return result
}

// lintOrder checks the property-ordering extension against the properties the
// schema actually declares. The form builder drops unknown entries without a
// trace, so a typo here reorders nothing and nobody notices.
func lintOrder(file string, path []string, schema pkgopenapi.Schema) []violation {
	raw, ok := schema.Extensions[orderExtension]
	if !ok {
		return nil
	}

	entries, ok := toStringSlice(raw)
	if !ok {
		return []violation{{
			file:     file,
			location: formatLocation(appendPath(path, orderExtension)),
			message:  fmt.Sprintf("must be an array of property names, found %T", raw),
		}}
	}

	var result []violation
	for _, entry := range entries {
		if _, exists := schema.Properties[entry]; exists {
			continue
		}
		result = append(result, violation{
			file:     file,
			location: formatLocation(appendPath(path, orderExtension)),
			message:  fmt.Sprintf("orders unknown property %q", entry),
		})
	}
	return result
}

// lintHints resolves every overlay against the descriptors that were linted:
// the endpoint id must exist and each field path must land on a generated
// form field, or the decorator drops the hint silently.
func lintHints(store *uischema.Store, state *lintState) []violation {
	ids := store.Endpoints()
	sort.Strings(ids)

	var result []violation
	for _, id := range ids {
		overlay, ok := store.Overlay(id)
		if !ok {
			continue
		}
		entry, ok := state.forms[id]
		if !ok {
			result = append(result, violation{
				file:     overlay.Source,
				location: "endpoints." + id,
				message:  "no descriptor declares this endpoint",
			})
			continue
		}

		fieldPaths := make([]string, 0, len(overlay.Fields))
		for path := range overlay.Fields {
			fieldPaths = append(fieldPaths, path)
		}
		sort.Strings(fieldPaths)
		for _, fieldPath := range fieldPaths {
			if _, exists := entry.paths[fieldPath]; exists {
				continue
			}
			result = append(result, violation{
				file:     overlay.Source,
				location: "endpoints." + id + ".fields." + fieldPath,
				message:  fmt.Sprintf("no such field in the form generated from %s", entry.file),
			})
		}
	}
	return result
}

// collectFieldPaths records every hint-addressable path: each field, its
// nested members, array items, and the items' members.
func collectFieldPaths(fields []model.Field, prefix string, into map[string]struct{}) {
	for _, field := range fields {
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}
		into[path] = struct{}{}
		collectFieldPaths(field.Nested, path, into)
		if field.Items != nil {
			itemPath := path + ".items"
			into[itemPath] = struct{}{}
			collectFieldPaths(field.Items.Nested, itemPath, into)
		}
	}
}

func stringMember(meta map[string]any, key string) string {
	value, ok := meta[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func toStringSlice(raw any) ([]string, bool) {
	switch value := raw.(type) {
	case []string:
		return value, true
	case []any:
		entries := make([]string, 0, len(value))
		for _, member := range value {
			str, ok := member.(string)
			if !ok {
				return nil, false
			}
			entries = append(entries, str)
		}
		return entries, true
	default:
		return nil, false
	}
}

func appendPath(path []string, segment string) []string {
	next := make([]string, 0, len(path)+1)
	next = append(next, path...)
	return append(next, segment)
}

func formatLocation(path []string) string {
	return strings.Join(path, ".")
}
