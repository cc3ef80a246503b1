package main

import (
	"bytes"
	"testing"
)

func TestProgressWriterSkipsNonTerminals(t *testing.T) {
	var buf bytes.Buffer
	if got := progressWriter(&buf); got != nil {
		t.Fatalf("expected nil writer for a buffer, got %T", got)
	}
	if isTerminal(&buf) {
		t.Fatal("buffer must not look like a terminal")
	}
}
