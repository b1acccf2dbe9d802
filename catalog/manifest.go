package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/apparentlymart/x86-meta/x86"
)

// ManifestName is the manifest's path within a catalog file system.
const ManifestName = "catalog.toml"

// Manifest describes a catalog: the data files that make it up and where
// its tables are written.
type Manifest struct {
	Generator string   `toml:"generator"`
	Revision  string   `toml:"revision"`
	Files     []string `toml:"files"`
	Output    Output   `toml:"output"`
}

// Output names the generated files.
type Output struct {
	Groups string `toml:"groups"`
	GAS    string `toml:"gas"`
	NASM   string `toml:"nasm"`
}

// Banner returns the header stamped on every generated file.
func (m *Manifest) Banner() x86.Banner {
	return x86.Banner{Generator: m.Generator, Revision: m.Revision}
}

// ParseManifest decodes and checks a manifest. Keys the manifest format
// does not define are errors.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("unknown manifest keys: %s", strings.Join(keys, ", "))
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Generator == "" {
		return errors.New("manifest has no generator")
	}
	if m.Revision == "" {
		return errors.New("manifest has no revision")
	}
	if len(m.Files) == 0 {
		return errors.New("manifest lists no data files")
	}

	seen := make(map[string]bool)
	for _, name := range m.Files {
		if !fs.ValidPath(name) {
			return fmt.Errorf("invalid data file path %q", name)
		}
		if seen[name] {
			return fmt.Errorf("data file %s listed twice", name)
		}
		seen[name] = true
	}

	outputs := []struct {
		Key  string
		Name string
	}{
		{"output.groups", m.Output.Groups},
		{"output.gas", m.Output.GAS},
		{"output.nasm", m.Output.NASM},
	}
	names := make(map[string]string)
	for _, out := range outputs {
		if out.Name == "" {
			return fmt.Errorf("manifest has no %s", out.Key)
		}
		if strings.ContainsAny(out.Name, `/\`) {
			return fmt.Errorf("%s %q must be a plain file name", out.Key, out.Name)
		}
		if other, ok := names[out.Name]; ok {
			return fmt.Errorf("%s and %s are both %s", other, out.Key, out.Name)
		}
		names[out.Name] = out.Key
	}

	return nil
}

// ReadManifest reads the manifest at the root of fsys.
func ReadManifest(fsys fs.FS) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, ManifestName)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}
