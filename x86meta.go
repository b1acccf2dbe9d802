// Package x86meta compiles an x86 instruction catalog into the encoder
// tables and keyword hash inputs an assembler is built from.
package x86meta

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/apparentlymart/x86-meta/catalog"
	"github.com/apparentlymart/x86-meta/x86"
)

// Config controls a generation run.
type Config struct {
	// OutDir receives the generated files. It is created if it does not
	// exist.
	OutDir string

	// Catalog is the catalog file system, with the manifest at its root.
	// Nil selects the embedded catalog.
	Catalog fs.FS
}

func (cfg Config) catalogFS() fs.FS {
	if cfg.Catalog == nil {
		return catalog.Files()
	}
	return cfg.Catalog
}

// Load reads the manifest from fsys and declares every data file it lists
// on a new builder.
func Load(fsys fs.FS) (*catalog.Manifest, *x86.Builder, error) {
	m, err := catalog.ReadManifest(fsys)
	if err != nil {
		return nil, nil, err
	}

	b := x86.NewBuilder()
	if err := catalog.Load(fsys, m, b); err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return m, b, nil
}

// Generate loads the configured catalog, finalizes it and writes the
// group tables and both keyword tables into cfg.OutDir under the names the
// manifest gives. It returns the finalized catalog.
func Generate(cfg Config) (*x86.Catalog, error) {
	m, b, err := Load(cfg.catalogFS())
	if err != nil {
		return nil, err
	}

	c, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize catalog: %w", err)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	banner := m.Banner()
	outputs := []struct {
		Name  string
		Write func(io.Writer) error
	}{
		{m.Output.Groups, func(w io.Writer) error { return c.WriteGroups(w, banner) }},
		{m.Output.GAS, func(w io.Writer) error { return c.WriteKeywords(w, x86.GAS, banner) }},
		{m.Output.NASM, func(w io.Writer) error { return c.WriteKeywords(w, x86.NASM, banner) }},
	}
	for _, out := range outputs {
		if err := writeFile(filepath.Join(cfg.OutDir, out.Name), out.Write); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func writeFile(filename string, write func(io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
