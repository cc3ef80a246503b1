package main

import (
	"strings"
	"testing"
)

func TestRenderTableIncludesHeadersAndRows(t *testing.T) {
	out := renderTable(
		[]string{"Endpoint", "Form"},
		[][]string{
			{"acme/sketch", "yes"},
			{"fal-ai/flux/dev"},
		},
		[]columnAlignment{alignLeft, alignLeft},
	)

	for _, want := range []string{"ENDPOINT", "FORM", "acme/sketch", "yes", "fal-ai/flux/dev"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, nil, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestYesNo(t *testing.T) {
	if yesNo(true) != "yes" || yesNo(false) != "no" {
		t.Fatal("yesNo mapping broken")
	}
}

func TestDefaultLabel(t *testing.T) {
	if got := defaultLabel(nil); got != "" {
		t.Fatalf("nil default should be empty, got %q", got)
	}
	if got := defaultLabel(true); got != "true" {
		t.Fatalf("bool default: %q", got)
	}
	long := strings.Repeat("x", 60)
	if got := defaultLabel(long); len(got) != 40 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long default not truncated: %q", got)
	}
	if got := defaultLabel("a\nb"); got != "a b" {
		t.Fatalf("newlines should flatten to spaces: %q", got)
	}
}
