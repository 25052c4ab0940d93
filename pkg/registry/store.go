package registry

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/modelyard/onnx-runner/pkg/logging"
)

const (
	// recordFileName is the name of the record sidecar inside each version
	// directory.
	recordFileName = "record.json"
	// stagingDirPrefix is the prefix used for in-progress registration
	// directories. Directories with this prefix are never visible to Get.
	stagingDirPrefix = ".staging-"
)

// Store is the model registry contract consumed by framework adapters.
type Store interface {
	// Get resolves a name or name:version reference to a stored record. A
	// bare name resolves to the most recently registered version. It returns
	// ErrModelNotFound if no matching record exists.
	Get(ref string) (*Record, error)
	// Register begins a scoped registration. The caller writes the model
	// artifact into the registration's directory and then either commits
	// (guaranteed persistence) or rolls back (guaranteed removal of any
	// partial state).
	Register(name, module string, metadata map[string]any, frameworkContext map[string]string) (*Registration, error)
}

// FSStore is a local filesystem Store. Each record lives in
// <root>/<name>/<version>/ next to its record.json sidecar.
type FSStore struct {
	// log is the associated logger.
	log logging.Logger
	// root is the store root directory.
	root string
}

// NewFSStore creates a filesystem store rooted at the given directory,
// creating it if necessary.
func NewFSStore(log logging.Logger, root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create store root: %w", err)
	}
	return &FSStore{log: log, root: root}, nil
}

// Root returns the store root directory.
func (s *FSStore) Root() string {
	return s.root
}

// Get implements Store.Get.
func (s *FSStore) Get(ref string) (*Record, error) {
	tag, err := ParseTag(ref)
	if err != nil {
		return nil, err
	}
	if tag.Version == "" {
		version, err := s.latestVersion(tag.Name)
		if err != nil {
			return nil, err
		}
		tag.Version = version
	}
	dir := filepath.Join(s.root, tag.Name, tag.Version)
	data, err := os.ReadFile(filepath.Join(dir, recordFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, tag)
		}
		return nil, fmt.Errorf("unable to read record for %s: %w", tag, err)
	}
	record := &Record{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("unable to decode record for %s: %w", tag, err)
	}
	record.Path = dir
	return record, nil
}

// List returns all records in the store, newest first.
func (s *FSStore) List() ([]*Record, error) {
	names, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("unable to list store: %w", err)
	}
	var records []*Record
	for _, name := range names {
		if !name.IsDir() {
			continue
		}
		versions, err := os.ReadDir(filepath.Join(s.root, name.Name()))
		if err != nil {
			return nil, fmt.Errorf("unable to list versions of %s: %w", name.Name(), err)
		}
		for _, version := range versions {
			if !version.IsDir() || isStagingDir(version.Name()) {
				continue
			}
			record, err := s.Get(name.Name() + ":" + version.Name())
			if err != nil {
				s.log.Warnf("Skipping unreadable record %s:%s: %v", name.Name(), version.Name(), err)
				continue
			}
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Register implements Store.Register.
func (s *FSStore) Register(name, module string, metadata map[string]any, frameworkContext map[string]string) (*Registration, error) {
	if name == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if module == "" {
		return nil, fmt.Errorf("module identity is required")
	}
	tag := Tag{Name: name, Version: newVersion()}
	staging := filepath.Join(s.root, tag.Name, stagingDirPrefix+tag.Version)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create staging directory: %w", err)
	}
	return &Registration{
		store:   s,
		staging: staging,
		record: Record{
			Tag:              tag,
			Module:           module,
			Metadata:         metadata,
			FrameworkContext: frameworkContext,
		},
	}, nil
}

// latestVersion returns the most recently registered version of a model name.
func (s *FSStore) latestVersion(name string) (string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
		return "", fmt.Errorf("unable to list versions of %s: %w", name, err)
	}
	// Version strings are UTC-timestamp prefixed, so the lexical maximum is
	// the newest registration.
	latest := ""
	for _, entry := range entries {
		if !entry.IsDir() || isStagingDir(entry.Name()) {
			continue
		}
		if entry.Name() > latest {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	return latest, nil
}

// Registration is a scoped, in-progress model registration. The artifact is
// only visible to the store once Commit succeeds.
type Registration struct {
	// store is the owning store.
	store *FSStore
	// staging is the staging directory the caller writes into.
	staging string
	// record is the record under construction.
	record Record
	// finalized indicates that Commit or Rollback has already run.
	finalized bool
}

// Path returns the directory the caller should write the model artifact into.
func (r *Registration) Path() string {
	return r.staging
}

// Tag returns the tag the registration will commit under.
func (r *Registration) Tag() Tag {
	return r.record.Tag
}

// Commit finalizes the registration: it digests the artifact, writes the
// record sidecar, and atomically publishes the version directory.
func (r *Registration) Commit(artifactName string) (*Record, error) {
	if r.finalized {
		return nil, ErrRegistrationClosed
	}
	r.finalized = true

	artifact := filepath.Join(r.staging, artifactName)
	dgst, size, err := digestFile(artifact)
	if err != nil {
		r.remove()
		return nil, fmt.Errorf("unable to digest artifact: %w", err)
	}
	r.record.Digest = dgst
	r.record.Size = size
	r.record.CreatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(&r.record, "", "  ")
	if err != nil {
		r.remove()
		return nil, fmt.Errorf("unable to encode record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.staging, recordFileName), data, 0o644); err != nil {
		r.remove()
		return nil, fmt.Errorf("unable to write record: %w", err)
	}

	final := filepath.Join(r.store.root, r.record.Tag.Name, r.record.Tag.Version)
	if err := os.Rename(r.staging, final); err != nil {
		r.remove()
		return nil, fmt.Errorf("unable to publish record: %w", err)
	}
	record := r.record
	record.Path = final
	r.store.log.Infof("Registered model %s (%s)", record.Tag, record.Digest)
	return &record, nil
}

// Rollback abandons the registration and removes all partial state.
func (r *Registration) Rollback() error {
	if r.finalized {
		return ErrRegistrationClosed
	}
	r.finalized = true
	r.remove()
	return nil
}

func (r *Registration) remove() {
	if err := os.RemoveAll(r.staging); err != nil {
		r.store.log.Warnf("Unable to remove staging directory %s: %v", r.staging, err)
	}
}

// digestFile computes the canonical digest and size of a file.
func digestFile(path string) (digest.Digest, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer file.Close()
	digester := digest.Canonical.Digester()
	size, err := io.Copy(digester.Hash(), file)
	if err != nil {
		return "", 0, err
	}
	return digester.Digest(), size, nil
}

// newVersion generates a store version string. The UTC timestamp prefix keeps
// versions of a name lexically ordered by registration time.
func newVersion() string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return time.Now().UTC().Format("20060102150405.000000000") + "-" + hex.EncodeToString(suffix)
}

func isStagingDir(name string) bool {
	return len(name) > len(stagingDirPrefix) && name[:len(stagingDirPrefix)] == stagingDirPrefix
}
