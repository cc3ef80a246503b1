package main

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestEndpointsListsCatalog(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "endpoints")
	if err != nil {
		t.Fatalf("endpoints: %v", err)
	}
	requireContains(t, out, "acme/sketch")
	requireContains(t, out, "text-to-image")
	requireContains(t, out, "yes")
}

func TestEndpointsJSONListing(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "endpoints", "--json")
	if err != nil {
		t.Fatalf("endpoints --json: %v", err)
	}

	var listing []endpointSummary
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("decode listing: %v\noutput: %s", err, out)
	}
	if len(listing) != 1 {
		t.Fatalf("expected one endpoint, got %d", len(listing))
	}
	entry := listing[0]
	if entry.ID != "acme/sketch" || !entry.HasForm || entry.Manual {
		t.Fatalf("unexpected summary: %+v", entry)
	}
}

func TestEndpointsCategoryFilter(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "endpoints", "--category", "text-to-image")
	if err != nil {
		t.Fatalf("endpoints --category: %v", err)
	}
	requireContains(t, out, "acme/sketch")

	out, _, err = runCLI(t, env, "endpoints", "--category", "text-to-video")
	if err != nil {
		t.Fatalf("endpoints --category miss: %v", err)
	}
	requireContains(t, out, "No endpoints found")
}

func TestEndpointsFallBackWhenDescriptorsMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	env.endpointsDir = filepath.Join(env.baseDir, "does-not-exist")
	env.writeConfig(t, "test-key", "https://queue.fal.run")

	out, _, err := runCLI(t, env, "endpoints")
	if err != nil {
		t.Fatalf("endpoints with missing dir: %v", err)
	}
	requireContains(t, out, "fal-ai/flux/dev")
	requireContains(t, out, "fal-ai/recraft-v3")
}

func TestFallbackEndpointsHaveNoForms(t *testing.T) {
	for _, endpoint := range fallbackEndpoints() {
		if endpoint.ID == "" || endpoint.Title == "" {
			t.Fatalf("fallback entry missing identity: %+v", endpoint)
		}
		if !endpoint.Manual || endpoint.HasSchema() {
			t.Fatalf("fallback entry %s should be manual and schema-less", endpoint.ID)
		}
	}
}
