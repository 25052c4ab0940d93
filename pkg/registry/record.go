package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
)

// Tag uniquely addresses one stored model record as name:version.
type Tag struct {
	// Name is the user-chosen model name.
	Name string `json:"name"`
	// Version is the store-generated version string.
	Version string `json:"version"`
}

// String implements fmt.Stringer.String.
func (t Tag) String() string {
	return t.Name + ":" + t.Version
}

// ParseTag parses a name or name:version reference. A bare name is returned
// with an empty version, which stores interpret as "latest registered".
func ParseTag(ref string) (Tag, error) {
	if ref == "" {
		return Tag{}, fmt.Errorf("empty model reference")
	}
	name, version, _ := strings.Cut(ref, ":")
	if name == "" {
		return Tag{}, fmt.Errorf("invalid model reference %q", ref)
	}
	if strings.Contains(version, ":") || strings.ContainsAny(ref, "/\\") {
		return Tag{}, fmt.Errorf("invalid model reference %q", ref)
	}
	return Tag{Name: name, Version: version}, nil
}

// Record describes one stored model. It is persisted alongside the model
// artifact and returned by Store.Get.
type Record struct {
	// Tag is the record's unique identifier.
	Tag Tag `json:"tag"`
	// Path is the directory holding the record's artifact. It is derived from
	// the store root at load time and never persisted.
	Path string `json:"-"`
	// Module is the identity of the framework adapter that saved the record.
	// Adapters must refuse records saved by a different module.
	Module string `json:"module"`
	// Metadata is caller-supplied metadata.
	Metadata map[string]any `json:"metadata,omitempty"`
	// FrameworkContext records framework/runtime versions captured at save
	// time.
	FrameworkContext map[string]string `json:"framework_context,omitempty"`
	// Digest is the digest of the stored artifact.
	Digest digest.Digest `json:"digest,omitempty"`
	// Size is the artifact size in bytes.
	Size int64 `json:"size"`
	// CreatedAt is the registration time.
	CreatedAt time.Time `json:"created_at"`
}
