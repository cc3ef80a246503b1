package main

import (
	"context"
	"fmt"
	"os"

	easel "github.com/goliatone/go-easel"
	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
)

func main() {
	ctx := context.Background()

	const (
		descriptorPath = "internal/openapi/testdata/flux_dev.json"
		rendererName   = "htmlform"
		outputPath     = "flux-dev-form.html"
	)

	source := pkgopenapi.SourceFromFile(descriptorPath)
	html, err := easel.GenerateHTML(ctx, source, "", rendererName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate form: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputPath, html, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Generated endpoint form HTML (%d bytes) → %s\n", len(html), outputPath)
}
