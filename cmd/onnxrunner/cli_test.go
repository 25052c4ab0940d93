package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := runCLI(t, "plan", "--cpus", "4")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !strings.Contains(out, "replicas: 1") || !strings.Contains(out, "concurrency per replica: 4") {
		t.Errorf("plan output = %q, want 1 replica with concurrency 4", out)
	}

	out, err = runCLI(t, "plan", "--gpus", "gpu0,gpu1")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !strings.Contains(out, "replicas: 2") || !strings.Contains(out, "concurrency per replica: 1") {
		t.Errorf("plan output = %q, want 2 replicas with concurrency 1", out)
	}
}

func TestPlanCommandRejectsBadQuota(t *testing.T) {
	if _, err := runCLI(t, "plan", "--cpus", "-2"); err == nil {
		t.Error("plan accepted a negative cpu share")
	}
}

func TestSaveAndModelsCommands(t *testing.T) {
	root := t.TempDir()
	model := filepath.Join(t.TempDir(), "model.onnx")
	if err := os.WriteFile(model, []byte("payload"), 0o644); err != nil {
		t.Fatalf("writing model file: %v", err)
	}

	out, err := runCLI(t, "save", "mnist", model, "--store-root", root, "--label", "task=classify")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "mnist:") {
		t.Errorf("save output = %q, want an assigned mnist tag", out)
	}

	out, err = runCLI(t, "models", "--store-root", root)
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if !strings.Contains(out, "mnist:") {
		t.Errorf("models output = %q, want the saved model listed", out)
	}
}

func TestSaveRejectsBadLabel(t *testing.T) {
	model := filepath.Join(t.TempDir(), "model.onnx")
	if err := os.WriteFile(model, []byte("payload"), 0o644); err != nil {
		t.Fatalf("writing model file: %v", err)
	}
	if _, err := runCLI(t, "save", "mnist", model, "--store-root", t.TempDir(), "--label", "nokeyvalue"); err == nil {
		t.Error("save accepted a label without key=value form")
	}
	if _, err := runCLI(t, "save", "mnist", model, "--store-root", t.TempDir(), "--input", ":float32"); err == nil {
		t.Error("save accepted an input node without a name")
	}
}

func TestDoctorReportsRuntimeOnce(t *testing.T) {
	out, err := runCLI(t, "doctor", "--runtime-ort-library-path", filepath.Join(t.TempDir(), "no-such-lib.so"))
	if err == nil {
		t.Fatal("doctor succeeded with a missing runtime library")
	}
	if got := strings.Count(out, "onnxruntime: "); got != 1 {
		t.Errorf("doctor printed %d runtime status lines, want exactly 1:\n%s", got, out)
	}
}

func TestRootRejectsBadLogLevel(t *testing.T) {
	if _, err := runCLI(t, "plan", "--cpus", "1", "--log-level", "noisy"); err == nil {
		t.Error("root accepted an invalid log level")
	}
}
