package main

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_EmbeddedLifecycle(t *testing.T) {
	t.Setenv("CERTIFY_STORE_ADDR", "")
	dir := t.TempDir()

	out, err := run(t, dir, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "3 training records") {
		t.Errorf("Expected the seed collection, got:\n%s", out)
	}

	out, err = run(t, dir, "add", "--json", `{"kind":"certification","employeeName":"Jane Doe","name":"CKA","issuingOrganization":"CNCF","status":"completed"}`)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(out, "Training Added") {
		t.Errorf("Unexpected add output: %s", out)
	}

	out, err = run(t, dir, "certs")
	if err != nil {
		t.Fatalf("certs failed: %v", err)
	}
	if !strings.Contains(out, "CKA") || !strings.Contains(out, "CNCF") {
		t.Errorf("Expected the new certification in:\n%s", out)
	}

	out, err = run(t, dir, "export", "--out", "-", "--employee", "Jane Doe")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header and one row, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], `"Jane Doe"`) {
		t.Errorf("Unexpected row %q", lines[1])
	}

	if _, err := run(t, dir, "delete", "missing-id"); err == nil {
		t.Error("Expected delete of a missing id to fail")
	}
	if _, err := run(t, dir, "add", "--json", "{nope"); err == nil {
		t.Error("Expected invalid json to fail")
	}
}

func TestCLI_Report(t *testing.T) {
	t.Setenv("CERTIFY_STORE_ADDR", "")

	out, err := run(t, t.TempDir(), "report")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	for _, want := range []string{"Training report", "Total trainings", "By department"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
}
