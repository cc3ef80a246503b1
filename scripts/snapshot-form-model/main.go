package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/goliatone/go-easel/pkg/model"
	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
	"github.com/goliatone/go-easel/pkg/orchestrator"
	"github.com/goliatone/go-easel/pkg/render"
	"github.com/goliatone/go-easel/pkg/uischema"
)

const snapshotRendererName = "form-model-snapshot"

type snapshotRenderer struct {
	path string
}

func (r *snapshotRenderer) Name() string {
	return snapshotRendererName
}

func (r *snapshotRenderer) ContentType() string {
	return "application/json"
}

func (r *snapshotRenderer) Render(_ context.Context, form model.FormModel, _ render.RenderOptions) ([]byte, error) {
	payload, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(r.path, payload, 0o644); err != nil {
		return nil, err
	}
	return payload, nil
}

func main() {
	var (
		descriptorPath = flag.String("descriptor", "internal/openapi/testdata/flux_dev.json", "endpoint descriptor path")
		hintsDir       = flag.String("hints", "", "optional directory of presentation hint documents")
		operationID    = flag.String("operation", "", "operation ID to snapshot (empty selects the descriptor's primary operation)")
		outputPath     = flag.String("output", "form_model.json", "output path for the serialized form model")
	)
	flag.Parse()

	ctx := context.Background()

	registry := render.NewRegistry()
	registry.MustRegister(&snapshotRenderer{path: *outputPath})

	options := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(snapshotRendererName),
	}
	if *hintsDir != "" {
		store, err := uischema.LoadDir(*hintsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load hints: %v\n", err)
			os.Exit(1)
		}
		options = append(options, orchestrator.WithHints(store))
	}

	orch := orchestrator.New(options...)

	_, err := orch.Generate(ctx, orchestrator.Request{
		Source:      pkgopenapi.SourceFromFile(*descriptorPath),
		OperationID: *operationID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to snapshot form model: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Wrote form model snapshot to %s\n", *outputPath)
}
