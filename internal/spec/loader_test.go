package spec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func specErrCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpecError, got %v (%T)", err, err)
	}
	return se.Code
}

func TestFetchEmptyInput(t *testing.T) {
	t.Parallel()
	_, _, err := Fetch(context.Background(), "   ")
	if specErrCode(t, err) != InputError {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestFetchBlockedSchemes(t *testing.T) {
	t.Parallel()
	for _, input := range []string{
		"file://etc/passwd",
		"ftp://example.com/spec.yaml",
	} {
		_, _, err := Fetch(context.Background(), input)
		if specErrCode(t, err) != InputError {
			t.Fatalf("expected InputError for %s, got %v", input, err)
		}
	}
}

func TestFetchMissingFile(t *testing.T) {
	t.Parallel()
	_, _, err := Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	if specErrCode(t, err) != InputError {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestFetchNetworkFailure(t *testing.T) {
	t.Parallel()
	_, _, err := Fetch(context.Background(), "http://127.0.0.1:1/spec.yaml",
		WithHTTPTimeout(200*time.Millisecond),
		WithMaxRetries(1),
		WithBackoffBase(time.Millisecond))
	if specErrCode(t, err) != NetworkError {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestLoadLocalFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte(v2Doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Version != VersionSwagger2 || doc.Title != "Care Therapy API" {
		t.Fatalf("unexpected document: version=%v title=%q", doc.Version, doc.Title)
	}
}

func TestLoadAttachesLocation(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(`{"info": {"title": "no marker"}}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := Load(context.Background(), path)
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpecError, got %v", err)
	}
	if se.Code != UnsupportedVersion || se.Location == "" {
		t.Fatalf("expected UnsupportedVersion with location, got %+v", se)
	}
}

func TestLintCleanDocument(t *testing.T) {
	t.Parallel()
	if warnings := Lint(context.Background(), []byte(v3Doc), VersionOpenAPI3); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}

func TestLintReportsBrokenRef(t *testing.T) {
	t.Parallel()
	raw := []byte(`
openapi: 3.0.3
info:
  title: Broken
  version: "1.0"
paths:
  /x:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Missing"
`)
	if warnings := Lint(context.Background(), raw, VersionOpenAPI3); len(warnings) == 0 {
		t.Fatalf("expected warnings for dangling $ref")
	}
}
