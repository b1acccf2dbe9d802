package x86

import (
	"fmt"
	"sort"
	"strings"
)

// Builder collects groups, instruction bindings and prefixes. Finalize
// turns it into a Catalog exactly once; afterwards every method returns
// ErrFinalized.
type Builder struct {
	groups     map[string][]*Form
	groupOrder []string

	bindings      map[string][]*binding
	mnemonicOrder []string

	prefixes []namedPrefix

	finalized bool
}

func NewBuilder() *Builder {
	return &Builder{
		groups:   make(map[string][]*Form),
		bindings: make(map[string][]*binding),
	}
}

// AddGroup appends a form to the named group, creating the group on first
// use.
func (b *Builder) AddGroup(name string, spec FormSpec) error {
	if b.finalized {
		return ErrFinalized
	}
	if !isIdent(name) {
		return fmt.Errorf("invalid group name %q", name)
	}
	f, err := NewForm(spec)
	if err != nil {
		return fmt.Errorf("invalid form for group %s: %w\n%s", name, err, dumper.Sdump(spec))
	}
	if _, ok := b.groups[name]; !ok {
		b.groupOrder = append(b.groupOrder, name)
	}
	b.groups[name] = append(b.groups[name], f)
	return nil
}

// AddInsn binds a mnemonic to a group. A mnemonic may have several
// bindings. The group need not exist until Finalize.
func (b *Builder) AddInsn(mnemonic string, spec InsnSpec) error {
	if b.finalized {
		return ErrFinalized
	}
	if !isKeyword(mnemonic) {
		return fmt.Errorf("invalid mnemonic %q", mnemonic)
	}
	bind, err := newBinding(spec)
	if err != nil {
		return fmt.Errorf("invalid binding for %s: %w\n%s", mnemonic, err, dumper.Sdump(spec))
	}
	if _, ok := b.bindings[mnemonic]; !ok {
		b.mnemonicOrder = append(b.mnemonicOrder, mnemonic)
	}
	b.bindings[mnemonic] = append(b.bindings[mnemonic], bind)
	return nil
}

// AddPrefix declares a prefix mnemonic. Prefixes share the keyword tables
// with instructions and are registered after them.
func (b *Builder) AddPrefix(name string, spec PrefixSpec) error {
	if b.finalized {
		return ErrFinalized
	}
	if !isKeyword(name) {
		return fmt.Errorf("invalid prefix name %q", name)
	}
	if _, err := ParsePrefixGroup(string(spec.Group)); err != nil {
		return fmt.Errorf("invalid prefix %s: %w", name, err)
	}
	parsers := spec.Parser
	if parsers == 0 {
		parsers = AllParsers
	}
	if !AllParsers.Has(parsers) {
		return fmt.Errorf("invalid prefix %s: invalid parser set %d", name, spec.Parser)
	}
	b.prefixes = append(b.prefixes, namedPrefix{
		name:    name,
		parsers: parsers,
		prefix: &Prefix{
			group:  spec.Group,
			value:  spec.Value,
			only64: spec.Only64,
		},
	})
	return nil
}

// Finalize expands every binding into the GAS and NASM keyword tables and
// returns the resulting Catalog. Registering a keyword twice in one table
// fails with a *DuplicateError. The builder is unusable afterwards, even
// when Finalize fails.
func (b *Builder) Finalize() (*Catalog, error) {
	if b.finalized {
		return nil, ErrFinalized
	}
	b.finalized = true
	defer b.release()

	c := &Catalog{
		keywords: map[Parser]map[string]Entry{
			GAS:  make(map[string]Entry),
			NASM: make(map[string]Entry),
		},
	}

	unused := make(map[string]struct{}, len(b.groups))
	for _, name := range b.groupOrder {
		c.groups = append(c.groups, &Group{Name: name, Forms: b.groups[name]})
		unused[name] = struct{}{}
	}

	for _, mnemonic := range b.mnemonicOrder {
		for _, bind := range b.bindings[mnemonic] {
			forms, ok := b.groups[bind.group]
			if !ok {
				return nil, fmt.Errorf("instruction %s: unknown group %s", mnemonic, bind.group)
			}
			delete(unused, bind.group)

			var parsers Parser
			for _, f := range forms {
				parsers |= f.parsers
			}
			if bind.parsers != 0 {
				parsers &= bind.parsers
			}

			if parsers.Has(GAS) {
				if err := c.addGAS(mnemonic, bind, forms); err != nil {
					return nil, err
				}
			}
			if parsers.Has(NASM) {
				in, err := bind.resolve(forms, NASM, bind.suffix)
				if err != nil {
					return nil, fmt.Errorf("instruction %s: %w", mnemonic, err)
				}
				if err := c.insert(NASM, mnemonic, in); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, p := range b.prefixes {
		for _, parser := range []Parser{GAS, NASM} {
			if !p.parsers.Has(parser) {
				continue
			}
			if err := c.insert(parser, p.name, p.prefix); err != nil {
				return nil, err
			}
		}
	}

	delete(unused, "empty")
	delete(unused, "not64")
	for name := range unused {
		c.unused = append(c.unused, name)
	}
	sort.Strings(c.unused)

	return c, nil
}

// addGAS registers a binding under each GAS suffix it expands to. An
// unsuffixed binding takes every suffix its suffix-generating forms
// accept; anything else registers the bare mnemonic.
func (c *Catalog) addGAS(mnemonic string, bind *binding, forms []*Form) error {
	var suffixes Suffixes
	if bind.suffix == "" {
		for _, f := range forms {
			if f.genSuffix {
				suffixes |= f.suffixes
			}
		}
	}
	if suffixes == 0 {
		suffixes = SuffixNone
	}

	for _, letter := range suffixes.Letters() {
		keyword := mnemonic
		if letter != "Z" {
			keyword += letter
		}
		suffix := bind.suffix
		if suffix == "" {
			suffix = letter
		}
		in, err := bind.resolve(forms, GAS, suffix)
		if err != nil {
			return fmt.Errorf("instruction %s: %w", keyword, err)
		}
		if err := c.insert(GAS, keyword, in); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) insert(parser Parser, keyword string, e Entry) error {
	keyword = strings.ToLower(keyword)
	table := c.keywords[parser]
	if _, exists := table[keyword]; exists {
		return &DuplicateError{Parser: parser, Keyword: keyword}
	}
	table[keyword] = e
	return nil
}

func (b *Builder) release() {
	b.groups = nil
	b.groupOrder = nil
	b.bindings = nil
	b.mnemonicOrder = nil
	b.prefixes = nil
}
