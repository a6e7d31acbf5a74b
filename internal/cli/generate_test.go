package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// executeWithCapturedConfig runs the CLI with the generate runner stubbed out
// and returns the resolved config.
func executeWithCapturedConfig(t *testing.T, args ...string) (*GenerateConfig, error) {
	t.Helper()
	var captured *GenerateConfig
	original := generateRunner
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = original })

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return captured, err
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swagger2ts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestGenerateFlagsOnly(t *testing.T) {
	cfg, err := executeWithCapturedConfig(t,
		"generate", "--input", "a.yaml", "--input", "b.yaml", "--out", "./src/api", "--force")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(cfg.Inputs) != 2 || cfg.Inputs[0] != "a.yaml" || cfg.Inputs[1] != "b.yaml" {
		t.Fatalf("inputs = %v", cfg.Inputs)
	}
	if cfg.Out != "./src/api" || !cfg.Force || cfg.DryRun {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.Lint {
		t.Fatalf("lint should default on")
	}
}

func TestGenerateConfigFileMerge(t *testing.T) {
	path := writeConfigFile(t, `
inputs:
  - spec.yaml
out: ./generated
service-name: ClinicService
group_rules:
  - invoice=Billing
lint: false
`)
	cfg, err := executeWithCapturedConfig(t, "--config", path, "generate", "--out", "./override")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(cfg.Inputs) != 1 || cfg.Inputs[0] != "spec.yaml" {
		t.Fatalf("inputs = %v", cfg.Inputs)
	}
	// Flag override beats the config file value.
	if cfg.Out != "./override" {
		t.Fatalf("out = %q", cfg.Out)
	}
	if cfg.ServiceName != "ClinicService" {
		t.Fatalf("serviceName = %q", cfg.ServiceName)
	}
	if len(cfg.GroupRules) != 1 || cfg.GroupRules[0] != "invoice=Billing" {
		t.Fatalf("groupRules = %v", cfg.GroupRules)
	}
	if cfg.Lint {
		t.Fatalf("config file lint: false ignored")
	}
}

func TestGenerateConfigFileUnknownField(t *testing.T) {
	path := writeConfigFile(t, "bogus: true\ninput: spec.yaml\nout: ./x\n")
	_, err := executeWithCapturedConfig(t, "--config", path, "generate")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestGenerateRequiresInput(t *testing.T) {
	_, err := executeWithCapturedConfig(t, "generate", "--out", "./x")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestGenerateOutOptionalWithDryRun(t *testing.T) {
	if _, err := executeWithCapturedConfig(t, "generate", "--input", "a.yaml"); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error without --out, got %v", err)
	}
	cfg, err := executeWithCapturedConfig(t, "generate", "--input", "a.yaml", "--dry-run")
	if err != nil {
		t.Fatalf("dry-run without out: %v", err)
	}
	if !cfg.DryRun {
		t.Fatalf("dry-run flag not applied")
	}
}

func TestGenerateInvalidGroupRule(t *testing.T) {
	_, err := executeWithCapturedConfig(t,
		"generate", "--input", "a.yaml", "--out", "./x", "--group-rule", "no-equals-sign")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestParseGroupRulesKeepsDefaultsFirst(t *testing.T) {
	t.Parallel()
	rules, err := parseGroupRules([]string{"invoice=Billing", "claim = Claims"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("rules = %v", rules)
	}
	if rules[0].Match != "therapist" || rules[0].Folder != "Therapist" {
		t.Fatalf("stock rule not first: %v", rules)
	}
	if rules[1].Match != "invoice" || rules[2].Folder != "Claims" {
		t.Fatalf("custom rules wrong: %v", rules)
	}
}

func TestSanitizeList(t *testing.T) {
	t.Parallel()
	got := sanitizeList([]string{"  a.yaml ", "", "b.yaml", "a.yaml"})
	if len(got) != 3 || got[0] != "a.yaml" || got[2] != "a.yaml" {
		t.Fatalf("sanitizeList = %v", got)
	}
	if sanitizeList([]string{" ", ""}) != nil {
		t.Fatalf("expected nil for all-blank list")
	}
}

func TestRunGenerateMultiSource(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte(`
swagger: "2.0"
info:
  title: Multi API
  version: "1.0"
paths:
  /api/v1/items:
    get:
      responses:
        "200":
          description: ok
`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	bad := filepath.Join(dir, "missing.yaml")

	cfg := &GenerateConfig{
		Inputs: []string{good, bad, good},
		DryRun: true,
		Lint:   false,
	}
	err := runGenerate(context.Background(), cfg)
	if !errors.Is(err, ErrGenerateFailed) {
		t.Fatalf("expected ErrGenerateFailed, got %v", err)
	}

	// All-good runs return nil; the duplicate is skipped, not failed.
	cfg = &GenerateConfig{Inputs: []string{good, good}, DryRun: true}
	if err := runGenerate(context.Background(), cfg); err != nil {
		t.Fatalf("expected success with duplicate skipped, got %v", err)
	}
}

func TestRunGenerateMultiSourceSharedOut(t *testing.T) {
	dir := t.TempDir()
	write := func(name, title string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		doc := `
swagger: "2.0"
info:
  title: ` + title + `
  version: "1.0"
paths:
  /api/v1/items:
    get:
      responses:
        "200":
          description: ok
`
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		return path
	}
	alpha := write("alpha.yaml", "Alpha API")
	beta := write("beta.yaml", "Beta API")
	out := filepath.Join(dir, "generated")

	cfg := &GenerateConfig{Inputs: []string{alpha, beta}, Out: out, Verbose: true}
	if err := runGenerate(context.Background(), cfg); err != nil {
		t.Fatalf("two documents under one out directory: %v", err)
	}
	for _, svc := range []string{"AlphaService", "BetaService"} {
		if _, err := os.Stat(filepath.Join(out, svc, "types.ts")); err != nil {
			t.Fatalf("missing %s output: %v", svc, err)
		}
	}

	// Re-running without --force trips the per-service guard.
	if err := runGenerate(context.Background(), cfg); !errors.Is(err, ErrGenerateFailed) {
		t.Fatalf("expected guard failure on rerun, got %v", err)
	}
	cfg.Force = true
	if err := runGenerate(context.Background(), cfg); err != nil {
		t.Fatalf("rerun with force: %v", err)
	}
}
