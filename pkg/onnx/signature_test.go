package onnx

import (
	"context"
	"reflect"
	"testing"

	"github.com/modelyard/onnx-runner/pkg/logging"
	"github.com/modelyard/onnx-runner/pkg/registry"
)

func mnistSignature() Signature {
	return Signature{
		Inputs:  []NodeInfo{{Name: "image", DType: "float32"}},
		Outputs: []NodeInfo{{Name: "probabilities", DType: "float32"}},
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	store := newTestFSStore(t)
	saved := mnistSignature()

	tag, err := Save(store, "mnist", InMemoryModel([]byte("payload")), EmbedSignature(map[string]any{"task": "classify"}, saved))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// The runtime binding reports no signature of its own; the loaded
	// session must fall back to the one recorded at save time.
	session, err := Load(context.Background(), store, newFakeRuntime(), tag.String(), LoadConfig{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer session.Close()
	if got := session.Signature(); !reflect.DeepEqual(got, saved) {
		t.Errorf("Signature() = %+v, want saved signature %+v", got, saved)
	}

	// Other metadata must survive the embedding untouched.
	record, err := store.Get(tag.String())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if record.Metadata["task"] != "classify" {
		t.Errorf("metadata task = %v, want classify", record.Metadata["task"])
	}
}

func TestRunnerSurfacesRecordedSignature(t *testing.T) {
	store := newTestFSStore(t)
	saved := mnistSignature()

	tag, err := Save(store, "mnist", InMemoryModel([]byte("payload")), EmbedSignature(nil, saved))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	runner, err := NewRunner(logging.Discard(), store, newFakeRuntime(), tag.String(), RunnerConfig{})
	if err != nil {
		t.Fatalf("NewRunner() error: %v", err)
	}
	defer runner.Close()
	if err := runner.Setup(context.Background()); err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if got := runner.Session().Signature(); !reflect.DeepEqual(got, saved) {
		t.Errorf("Session().Signature() = %+v, want saved signature %+v", got, saved)
	}
}

func TestRecordSignatureAbsent(t *testing.T) {
	if _, ok := RecordSignature(&registry.Record{}); ok {
		t.Error("RecordSignature() reported a signature on an empty record")
	}
	if _, ok := RecordSignature(&registry.Record{Metadata: map[string]any{"task": "classify"}}); ok {
		t.Error("RecordSignature() reported a signature from unrelated metadata")
	}
}

// reportingSession is a session whose runtime reports its own signature.
type reportingSession struct {
	fakeSession
	signature Signature
}

func (s *reportingSession) Signature() Signature {
	return s.signature
}

func TestRuntimeReportedSignatureWins(t *testing.T) {
	reported := Signature{Inputs: []NodeInfo{{Name: "tokens", DType: "int64"}}}
	session := withRecordedSignature(
		&reportingSession{signature: reported},
		&registry.Record{Metadata: EmbedSignature(nil, mnistSignature())},
	)
	if got := session.Signature(); !reflect.DeepEqual(got, reported) {
		t.Errorf("Signature() = %+v, want runtime-reported %+v", got, reported)
	}
}
