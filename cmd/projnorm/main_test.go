// Package main provides tests for the projnorm CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/projnorm/internal/cli"
	"github.com/leapstack-labs/projnorm/internal/cli/config"
	"github.com/leapstack-labs/projnorm/internal/cli/testutil"
	"github.com/leapstack-labs/projnorm/internal/engine"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	if errOut.Len() > 0 {
		t.Logf("stderr: %s", errOut.String())
	}
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "projnorm") {
		t.Errorf("version output should contain 'projnorm', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"run", "report", "relocate", "namespace", "sanitize", "graph", "doctor", "clean", "watch"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestRunCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	output, err := execute(t, "run", "--project-dir", dir, "--variant", "debug,release", "-o", "json")
	if err != nil {
		t.Fatalf("run command error = %v\n%s", err, output)
	}

	var report engine.Report
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("run output is not a report: %v\n%s", err, output)
	}
	if report.Status != engine.StatusSuccess {
		t.Errorf("status = %q, want %q", report.Status, engine.StatusSuccess)
	}
	if len(report.Tasks) != 6 {
		t.Errorf("got %d tasks, want 6 (3 subprojects x 2 variants)", len(report.Tasks))
	}

	manifest := testutil.ReadFile(t, dir, "packages/path-provider/src/main/AndroidManifest.xml")
	if strings.Contains(manifest, "package=") {
		t.Errorf("legacy package attribute not stripped:\n%s", manifest)
	}
	if _, err := os.Stat(filepath.Join(dir, "build", "app")); err == nil {
		t.Errorf("relocation should not create subproject output directories")
	}
}

func TestRunCommand_BuildDirFlag(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	out := filepath.Join(t.TempDir(), "out")

	output, err := execute(t, "relocate", "--config", filepath.Join(dir, "projnorm.yaml"), "--build-dir", out, "-o", "json")
	if err != nil {
		t.Fatalf("relocate command error = %v\n%s", err, output)
	}
	if !strings.Contains(output, filepath.Join(out, "path-provider")) {
		t.Errorf("output directory should be below %s, got: %s", out, output)
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	_, err := execute(t, "run", "--project-dir", dir, "--namespace-prefix", "com.sparkle")
	if err == nil {
		t.Fatal("expected an error for a prefix without a trailing dot")
	}
	if !strings.Contains(err.Error(), "namespace_prefix") {
		t.Errorf("error should name the key, got: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "build")); statErr == nil {
		t.Error("an invalid configuration must not touch the build directory")
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "unknown-command"); err == nil {
		t.Error("expected error for unknown command")
	}
}
