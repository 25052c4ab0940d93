// Package onnx is the ONNX framework adapter for the model store: it saves
// ONNX-format model artifacts, loads them back as inference sessions, and
// provisions Runners that an external scheduler can scale out per the planned
// topology.
package onnx

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/modelyard/onnx-runner/pkg/registry"
)

// ModuleName is this adapter's identity, recorded on every model it saves. A
// record whose module differs was saved by an incompatible adapter and is
// rejected at load time.
const ModuleName = "github.com/modelyard/onnx-runner/pkg/onnx"

// LoadConfig configures Load.
type LoadConfig struct {
	// Backend is the requested backend name. Empty defaults to
	// BackendONNXRuntime.
	Backend string
	// Providers is the requested provider list. Empty defaults to the
	// providers available on this host.
	Providers []ProviderSpec
	// SessionOptions is passed through, unchanged, to the runtime.
	SessionOptions *SessionOptions
}

// getRecord resolves a tag through the store and enforces the module-origin
// invariant.
func getRecord(store registry.Store, tag string) (*registry.Record, error) {
	record, err := store.Get(tag)
	if err != nil {
		return nil, err
	}
	if record.Module != ModuleName {
		return nil, fmt.Errorf("%w: model %s was saved with module %q", ErrRegistryMismatch, record.Tag, record.Module)
	}
	return record, nil
}

// Save registers a model artifact with the store under this adapter's
// identity and returns the assigned tag. The source is either a serialized
// in-memory model or a path to an existing .onnx file; either way the store
// ends up holding a single canonical artifact file. Persistence is
// transactional: on any failure the registration is rolled back and no
// partial state remains.
func Save(store registry.Store, name string, source ArtifactLocation, metadata map[string]any) (registry.Tag, error) {
	reg, err := store.Register(name, ModuleName, metadata, map[string]string{"format": "onnx"})
	if err != nil {
		return registry.Tag{}, err
	}

	target := filepath.Join(reg.Path(), ArtifactFileName())
	if err := writeArtifact(source, target); err != nil {
		if rbErr := reg.Rollback(); rbErr != nil {
			return registry.Tag{}, fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return registry.Tag{}, err
	}

	record, err := reg.Commit(ArtifactFileName())
	if err != nil {
		return registry.Tag{}, err
	}
	return record.Tag, nil
}

// writeArtifact materializes a model source as the canonical artifact file.
func writeArtifact(source ArtifactLocation, target string) error {
	switch source.Kind() {
	case ArtifactInMemory:
		if err := os.WriteFile(target, source.Bytes(), 0o644); err != nil {
			return fmt.Errorf("unable to write model artifact: %w", err)
		}
	case ArtifactFile:
		if err := copyFile(source.Path(), target); err != nil {
			return fmt.Errorf("unable to copy model artifact: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Load resolves a stored model tag into a ready-to-use inference session:
// module-origin check, backend validation, provider normalization, artifact
// resolution, and session construction in one call. The store and runtime
// are explicit collaborators; there is no ambient default.
func Load(ctx context.Context, store registry.Store, rt Runtime, tag string, cfg LoadConfig) (Session, error) {
	record, err := getRecord(store, tag)
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend
	if backend == "" {
		backend = BackendONNXRuntime
	}
	if err := ValidateBackend(backend); err != nil {
		return nil, err
	}

	providers, err := NormalizeProviders(cfg.Providers, rt.AvailableProviders(), rt.AllProviders())
	if err != nil {
		return nil, err
	}

	session, err := LoadSession(ctx, rt, ResolveArtifact(record, nil), cfg.SessionOptions, providers)
	if err != nil {
		return nil, err
	}
	return withRecordedSignature(session, record), nil
}
