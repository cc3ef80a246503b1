package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}

func TestConfigInitRefusesToOverwrite(t *testing.T) {
	env := setupCLITestEnv(t)

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	if err := os.WriteFile(target, []byte("# existing\n"), 0o644); err != nil {
		t.Fatalf("write existing config: %v", err)
	}

	_, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	requireContains(t, err.Error(), "--overwrite")

	out, _, err := runCLI(t, env, "config", "init", "--path", target, "--overwrite")
	if err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(data) == "# existing\n" {
		t.Fatal("config file was not replaced")
	}
}

func TestConfigInitSkipsConfigLoad(t *testing.T) {
	env := setupCLITestEnv(t)

	// A broken config must not stop init from writing a fresh one.
	if err := os.WriteFile(env.configPath, []byte("not toml ["), 0o644); err != nil {
		t.Fatalf("corrupt config: %v", err)
	}

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init with broken config: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
}
