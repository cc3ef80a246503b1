package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDescriptor = `{
  "openapi": "3.0.4",
  "info": {"title": "Sketch", "version": "1.0.0"},
  "x-fal-metadata": {
    "endpointId": "acme/sketch",
    "category": "text-to-image"
  },
  "paths": {
    "/": {
      "post": {
        "operationId": "generate",
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["prompt"],
                "properties": {
                  "prompt": {"type": "string"},
                  "guidance_scale": {"type": "number", "minimum": 1, "maximum": 20},
                  "enable_safety_checker": {"type": "boolean", "default": true},
                  "seed": {"type": "integer"}
                }
              }
            }
          }
        },
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

const testResultBody = `{
  "images": [
    {"url": "https://cdn.example/out-1.png", "width": 512, "height": 512,
     "content_type": "image/png", "file_name": "out-1.png"}
  ],
  "seed": 42
}`

type cliTestEnv struct {
	baseDir      string
	configPath   string
	dataDir      string
	downloadsDir string
	endpointsDir string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	// A real key in the environment would override the test config.
	t.Setenv("FAL_KEY", "")

	env := &cliTestEnv{
		baseDir:      base,
		configPath:   filepath.Join(base, "config.toml"),
		dataDir:      filepath.Join(base, "data"),
		downloadsDir: filepath.Join(base, "downloads"),
		endpointsDir: filepath.Join(base, "endpoints"),
	}
	if err := os.MkdirAll(env.endpointsDir, 0o755); err != nil {
		t.Fatalf("mkdir endpoints: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.endpointsDir, "sketch.json"), []byte(testDescriptor), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	env.writeConfig(t, "test-key", "https://queue.fal.run")
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T, apiKey, baseURL string) {
	t.Helper()
	content := fmt.Sprintf(`[api]
key = %q
base_url = %q
poll_interval_ms = 10

[paths]
data_dir = %q
downloads_dir = %q
endpoints_dir = %q

[logging]
level = "error"
`, apiKey, baseURL, e.dataDir, e.downloadsDir, e.endpointsDir)
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func respondJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func respondHandle(t *testing.T, w http.ResponseWriter, r *http.Request, id string) {
	t.Helper()
	base := "http://" + r.Host
	respondJSON(t, w, map[string]string{
		"request_id":   id,
		"status_url":   base + "/requests/" + id + "/status",
		"response_url": base + "/requests/" + id,
		"cancel_url":   base + "/requests/" + id + "/cancel",
	})
}
