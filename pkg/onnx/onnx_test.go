package onnx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelyard/onnx-runner/pkg/logging"
	"github.com/modelyard/onnx-runner/pkg/registry"
)

func newTestFSStore(t *testing.T) *registry.FSStore {
	t.Helper()
	store, err := registry.NewFSStore(logging.Discard(), t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}
	return store
}

func writeModelFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.onnx")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing model file: %v", err)
	}
	return path
}

func TestSaveFromPathAndLoad(t *testing.T) {
	store := newTestFSStore(t)
	model := []byte("onnx-model-payload")

	tag, err := Save(store, "mnist", FilePath(writeModelFile(t, model)), map[string]any{"task": "classify"})
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if tag.Name != "mnist" || tag.Version == "" {
		t.Fatalf("Save() tag = %v, want mnist with assigned version", tag)
	}

	record, err := store.Get(tag.String())
	if err != nil {
		t.Fatalf("Get(%s) error: %v", tag, err)
	}
	if record.Module != ModuleName {
		t.Errorf("record module = %q, want %q", record.Module, ModuleName)
	}
	if record.FrameworkContext["format"] != "onnx" {
		t.Errorf("framework context = %v, want format=onnx", record.FrameworkContext)
	}
	stored, err := os.ReadFile(filepath.Join(record.Path, ArtifactFileName()))
	if err != nil {
		t.Fatalf("reading stored artifact: %v", err)
	}
	if string(stored) != string(model) {
		t.Error("stored artifact differs from the source model")
	}

	rt := newFakeRuntime()
	session, err := Load(context.Background(), store, rt, tag.String(), LoadConfig{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer session.Close()
	if rt.opens.Load() != 1 {
		t.Errorf("Load() opened %d sessions, want 1", rt.opens.Load())
	}
}

func TestSaveFromBytes(t *testing.T) {
	store := newTestFSStore(t)
	model := []byte{0x08, 0x07}

	tag, err := Save(store, "tiny", InMemoryModel(model), nil)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	record, err := store.Get(tag.String())
	if err != nil {
		t.Fatalf("Get(%s) error: %v", tag, err)
	}
	stored, err := os.ReadFile(filepath.Join(record.Path, ArtifactFileName()))
	if err != nil {
		t.Fatalf("reading stored artifact: %v", err)
	}
	if string(stored) != string(model) {
		t.Error("stored artifact differs from the in-memory model")
	}
}

func TestSaveRollsBackOnMissingSource(t *testing.T) {
	root := t.TempDir()
	store, err := registry.NewFSStore(logging.Discard(), root)
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}

	if _, err := Save(store, "broken", FilePath(filepath.Join(root, "no-such.onnx")), nil); err == nil {
		t.Fatal("Save() succeeded with a missing source file")
	}
	if _, err := store.Get("broken"); !errors.Is(err, registry.ErrModelNotFound) {
		t.Errorf("Get() after failed Save = %v, want ErrModelNotFound", err)
	}
	records, err := store.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("store holds %d records after failed Save, want 0", len(records))
	}
}

func TestLoadRejectsForeignModule(t *testing.T) {
	store := testStore()
	if _, err := Load(context.Background(), store, newFakeRuntime(), "foreign", LoadConfig{}); !errors.Is(err, ErrRegistryMismatch) {
		t.Errorf("Load() = %v, want ErrRegistryMismatch", err)
	}
}

func TestLoadRejectsUnsupportedBackend(t *testing.T) {
	store := testStore()
	_, err := Load(context.Background(), store, newFakeRuntime(), "mnist", LoadConfig{Backend: "tflite"})
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Errorf("Load() = %v, want ErrUnsupportedBackend", err)
	}
}

func TestLoadResolvesLatestForBareName(t *testing.T) {
	store := newTestFSStore(t)

	if _, err := Save(store, "mnist", InMemoryModel([]byte("old")), nil); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	newest, err := Save(store, "mnist", InMemoryModel([]byte("new")), nil)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	record, err := store.Get("mnist")
	if err != nil {
		t.Fatalf("Get(mnist) error: %v", err)
	}
	if record.Tag != newest {
		t.Errorf("bare name resolved to %v, want newest %v", record.Tag, newest)
	}
}
