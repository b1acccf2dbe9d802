// Package catalog holds the x86 instruction catalog and loads it into an
// x86.Builder.
//
// The catalog is a TOML manifest naming a list of data files. Each data
// file is Starlark syntax restricted to three assignments:
//
//	groups = [group(name = "lea", forms = [form(...), ...]), ...]
//	insns = [insn(name = "lea", group = "lea"), ...]
//	prefixes = [prefix(name = "lock", group = "LOCKREP", value = 0xF0), ...]
//
// Form, binding and prefix arguments mirror x86.FormSpec, x86.InsnSpec and
// x86.PrefixSpec. Enumerations are spelled as in the generated C, without
// their prefixes (operand type "SIMDRM", modifier "Op1Add", misc flag
// "ONLY_64"). A VEX form gives its mandatory prefix as vexpp rather than
// prefix.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/apparentlymart/x86-meta/internal/starlark"
	"github.com/apparentlymart/x86-meta/x86"
)

//go:embed catalog.toml data/*.bzl
var embedded embed.FS

// Files returns the embedded catalog.
func Files() fs.FS {
	return embedded
}

// Load reads every data file m lists from fsys, in order, and declares its
// contents on b.
func Load(fsys fs.FS, m *Manifest, b *x86.Builder) error {
	for _, name := range m.Files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("failed to read data file: %w", err)
		}
		if err := LoadFile(name, data, b); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile decodes one data file and declares its groups, bindings and
// prefixes on b. The name is only used in error messages.
func LoadFile(name string, data []byte, b *x86.Builder) error {
	var file dataFile
	if err := starlark.Unmarshal(name, data, &file); err != nil {
		return err
	}

	for _, g := range file.Groups {
		if len(g.Forms) == 0 {
			return fmt.Errorf("%s: group %s has no forms", name, g.Name)
		}
		for i, f := range g.Forms {
			spec, err := f.spec()
			if err != nil {
				return fmt.Errorf("%s: group %s form %d: %w", name, g.Name, i, err)
			}
			if err := b.AddGroup(g.Name, spec); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}

	for _, in := range file.Insns {
		spec, err := in.spec()
		if err != nil {
			return fmt.Errorf("%s: instruction %s: %w", name, in.Name, err)
		}
		if err := b.AddInsn(in.Name, spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	for _, p := range file.Prefixes {
		spec, err := p.spec()
		if err != nil {
			return fmt.Errorf("%s: prefix %s: %w", name, p.Name, err)
		}
		if err := b.AddPrefix(p.Name, spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}
