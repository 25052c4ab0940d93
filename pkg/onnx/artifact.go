package onnx

import (
	"fmt"
	"path/filepath"

	"github.com/modelyard/onnx-runner/pkg/registry"
)

const (
	// SaveNamespace is the fixed stem of the artifact file written into each
	// registered model directory.
	SaveNamespace = "saved_model"
	// Extension is the fixed artifact file extension.
	Extension = ".onnx"
)

// ArtifactKind discriminates the variants of ArtifactLocation.
type ArtifactKind uint8

const (
	// ArtifactInMemory is a serialized model held in memory.
	ArtifactInMemory ArtifactKind = iota
	// ArtifactFile is a model file on disk.
	ArtifactFile
)

// ArtifactLocation is the canonical load target for a model artifact: either
// a serialized in-memory model or a path on disk. Exactly one variant is
// active.
type ArtifactLocation struct {
	kind  ArtifactKind
	bytes []byte
	path  string
}

// InMemoryModel builds an ArtifactLocation around an already-serialized model.
func InMemoryModel(serialized []byte) ArtifactLocation {
	return ArtifactLocation{kind: ArtifactInMemory, bytes: serialized}
}

// FilePath builds an ArtifactLocation referencing a model file on disk.
func FilePath(path string) ArtifactLocation {
	return ArtifactLocation{kind: ArtifactFile, path: path}
}

// Kind returns the active variant.
func (l ArtifactLocation) Kind() ArtifactKind {
	return l.kind
}

// Bytes returns the serialized model. Only valid for ArtifactInMemory.
func (l ArtifactLocation) Bytes() []byte {
	return l.bytes
}

// Path returns the on-disk path. Only valid for ArtifactFile.
func (l ArtifactLocation) Path() string {
	return l.path
}

// String implements fmt.Stringer.String.
func (l ArtifactLocation) String() string {
	if l.kind == ArtifactInMemory {
		return fmt.Sprintf("in-memory model (%d bytes)", len(l.bytes))
	}
	return l.path
}

// ArtifactFileName returns the canonical artifact filename inside a record's
// storage directory.
func ArtifactFileName() string {
	return SaveNamespace + Extension
}

// ResolveArtifact computes the canonical load target for a stored record. A
// record constructed directly from an API-supplied serialized model passes
// its bytes through unchanged; otherwise the target is the canonical artifact
// file inside the record's storage directory. This is pure path computation:
// a missing file surfaces as an I/O error at load time, not here.
func ResolveArtifact(record *registry.Record, inMemory []byte) ArtifactLocation {
	if inMemory != nil {
		return InMemoryModel(inMemory)
	}
	return FilePath(filepath.Join(record.Path, ArtifactFileName()))
}
