package scrap

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultSchemaVersion is written into manifests that don't declare one.
const DefaultSchemaVersion = "1.0.0"

// Manifest describes one application: its metadata and the ordered list of
// installable versions. Manifests are read-only; they are loaded fresh from
// a bucket (or a directly supplied file) for every operation.
type Manifest struct {
	Description   string       `json:"description"`
	SchemaVersion string       `json:"schema_version,omitempty"`
	License       string       `json:"license,omitempty"`
	Homepage      string       `json:"homepage,omitempty"`
	Versions      []AppVersion `json:"versions"`
}

// AppVersion is a single installable version of an application. Version
// strings are opaque to scrap and only ever compared for exact equality.
type AppVersion struct {
	Version  string    `json:"version"`
	Archives []Archive `json:"archives"`
	// ExtractDir names a subdirectory of the extracted tree whose contents
	// should become the install root's direct contents.
	ExtractDir string            `json:"extract_dir,omitempty"`
	Bin        []string          `json:"bin,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	License    string            `json:"license,omitempty"`
	// Yanked, when non-empty, is the human-readable reason the version was
	// withdrawn. Installation of a yanked version is refused.
	Yanked string `json:"yanked,omitempty"`
	// URL is the version-level download URL template, overridable per
	// archive.
	URL string `json:"url,omitempty"`
}

// Archive is one platform-specific download of a version. Bin, Env and
// ExtractDir, when set, fully replace the version-level values rather than
// merging with them.
type Archive struct {
	OS         string            `json:"os"`
	Arch       string            `json:"arch"`
	SHA256     string            `json:"sha256"`
	Ext        string            `json:"ext,omitempty"`
	URL        string            `json:"url,omitempty"`
	Bin        []string          `json:"bin,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	ExtractDir string            `json:"extract_dir,omitempty"`
}

// FindVersion returns the first version entry matching the given version
// string, or nil.
func (m *Manifest) FindVersion(version string) *AppVersion {
	for i := range m.Versions {
		if m.Versions[i].Version == version {
			return &m.Versions[i]
		}
	}
	return nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	var manifest Manifest
	if err := readJSONFile(path, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Save writes the manifest as indented JSON, omitting unset fields.
func (m *Manifest) Save(path string) error {
	return writeJSONFile(path, m)
}

func readJSONFile(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading '%s': %w", path, err)
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("error parsing json in '%s': %w", path, err)
	}
	return nil
}

func writeJSONFile(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling json: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("error writing '%s': %w", path, err)
	}
	return nil
}
