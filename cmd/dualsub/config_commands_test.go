package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dualsub/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: [OK] "+env.configPath)
	requireContains(t, out, "English -> Turkish")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	testsupport.WriteFile(t, path, "[rate_limit]\ncapacity = 0\n")

	_, _, err := runCLI(t, []string{"config", "validate"}, path)
	if err == nil || !strings.Contains(err.Error(), "rate_limit.capacity") {
		t.Fatalf("expected capacity validation error, got %v", err)
	}
}

func TestConfigValidateWithoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	out, _, err := runCLI(t, []string{"config", "validate"}, path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "defaults were used")
}

func TestWriteSampleConfigRefusesExisting(t *testing.T) {
	target := filepath.Join(t.TempDir(), "deep", "dir", "config.toml")
	if err := writeSampleConfig(target, false); err != nil {
		t.Fatalf("writeSampleConfig: %v", err)
	}
	err := writeSampleConfig(target, false)
	if err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite hint, got %v", err)
	}
	if err := writeSampleConfig(target, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestResolveInitTargetExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := resolveInitTarget(" ~/dualsub.toml ")
	if err != nil {
		t.Fatalf("resolveInitTarget: %v", err)
	}
	if got != filepath.Join(home, "dualsub.toml") {
		t.Fatalf("unexpected target %q", got)
	}
}
