package openapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	easel "github.com/goliatone/go-easel"
	pkgopenapi "github.com/goliatone/go-easel/pkg/openapi"
)

func TestLoaderParserIntegration(t *testing.T) {
	ctx := context.Background()

	fixture := filepath.Join("testdata", "flux_dev.json")
	data, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	tmp := t.TempDir()
	filePath := filepath.Join(tmp, "flux_dev.json")
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		t.Fatalf("write temp fixture: %v", err)
	}

	loader := easel.NewLoader()

	// File source
	docFile, err := loader.Load(ctx, pkgopenapi.SourceFromFile(filePath))
	if err != nil {
		t.Fatalf("load file: %v", err)
	}

	parser := easel.NewParser()
	ops, err := parser.Operations(ctx, docFile)
	if err != nil {
		t.Fatalf("parse file document: %v", err)
	}
	if _, ok := ops["generate"]; !ok {
		t.Fatal("file document missing generate operation")
	}

	// FS source
	loaderFS := easel.NewLoader(pkgopenapi.WithFileSystem(os.DirFS(tmp)))
	docFS, err := loaderFS.Load(ctx, pkgopenapi.SourceFromFS("flux_dev.json"))
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if _, err := parser.Operations(ctx, docFS); err != nil {
		t.Fatalf("parse fs document: %v", err)
	}

	// HTTP source
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	loaderHTTP := easel.NewLoader(pkgopenapi.WithHTTPFallback(0))
	docHTTP, err := loaderHTTP.Load(ctx, pkgopenapi.SourceFromURL(server.URL))
	if err != nil {
		t.Fatalf("load http: %v", err)
	}
	if _, err := parser.Operations(ctx, docHTTP); err != nil {
		t.Fatalf("parse http document: %v", err)
	}
}

func TestLoader_HTTPDisabledByDefault(t *testing.T) {
	loader := easel.NewLoader()
	if _, err := loader.Load(context.Background(), pkgopenapi.SourceFromURL("http://127.0.0.1:1/openapi.json")); err == nil {
		t.Fatal("expected error when HTTP loading is not enabled")
	}
}
