package x86

import (
	"fmt"
	"strings"
)

// InsnSpec binds a mnemonic to a group.
type InsnSpec struct {
	Group string

	// Suffix is either one suffix letter, pinning the binding to the
	// forms that accept it, or a verbatim suffix flag expression. A
	// suffixed binding is GAS-only unless Parser says otherwise.
	Suffix string

	// Parser restricts the binding to one syntax. Zero means no
	// restriction beyond what the group's forms allow.
	Parser Parser

	// Modifiers are the bytes the group's form modifiers consume.
	Modifiers []byte

	// CPU overrides inference from the group when non-nil. A non-nil
	// empty slice means no requirement at all.
	CPU []Feature

	// MiscFlags overrides inference from the group when non-zero or
	// when MiscFlagsSet is true. MiscFlagsSet with no flags means the
	// binding has none, whatever its group's forms say.
	MiscFlags    MiscFlags
	MiscFlagsSet bool

	Only64 bool
	Not64  bool

	// AVX marks the binding AVX-only and, unless CPU is set, requires
	// the AVX feature.
	AVX bool
}

// binding is an InsnSpec after validation, waiting for finalization.
type binding struct {
	group     string
	suffix    string
	parsers   Parser
	modifiers []byte
	cpu       Features
	misc      MiscFlags
	miscSet   bool
}

func newBinding(spec InsnSpec) (*binding, error) {
	if spec.Group == "" {
		return nil, fmt.Errorf("missing group")
	}
	b := &binding{
		group:     spec.Group,
		suffix:    strings.ToUpper(spec.Suffix),
		modifiers: append([]byte(nil), spec.Modifiers...),
		misc:      spec.MiscFlags,
		miscSet:   spec.MiscFlagsSet || spec.MiscFlags != 0,
	}

	switch {
	case len(b.suffix) == 1:
		if suffixBit(b.suffix[0]) == 0 {
			return nil, fmt.Errorf("unknown suffix %q", spec.Suffix)
		}
	case len(b.suffix) > 1:
		if !isIdent(b.suffix) {
			return nil, fmt.Errorf("invalid suffix flags %q", spec.Suffix)
		}
	}

	if b.suffix != "" {
		b.parsers = GAS
	}
	if spec.Parser != 0 {
		if spec.Parser != GAS && spec.Parser != NASM {
			return nil, fmt.Errorf("binding parser must be gas or nasm, not %s", spec.Parser)
		}
		b.parsers = spec.Parser
	}

	if len(b.modifiers) > maxModifiers {
		return nil, fmt.Errorf("too many modifiers: %v", spec.Modifiers)
	}

	if spec.CPU != nil {
		b.cpu = make(Features)
		for _, c := range spec.CPU {
			if !isIdentFragment(string(c)) {
				return nil, fmt.Errorf("invalid CPU feature %q", c)
			}
			b.cpu.Add(c)
		}
		if len(b.cpu) > maxCPU {
			return nil, fmt.Errorf("too many CPUs: %s", b.cpu)
		}
	}

	if spec.Only64 {
		b.misc |= Only64
		b.miscSet = true
	}
	if spec.Not64 {
		b.misc |= Not64
		b.miscSet = true
	}
	if spec.AVX {
		b.misc |= OnlyAVX
		b.miscSet = true
		if b.cpu == nil {
			b.cpu = NewFeatures("AVX")
		}
	}

	return b, nil
}

// resolve produces the keyword table entry for one syntax. suffix is the
// suffix the entry is registered under, which for GAS expansion differs
// from the binding's own.
func (b *binding) resolve(forms []*Form, parser Parser, suffix string) (*Insn, error) {
	in := &Insn{
		group:     b.group,
		numForms:  len(forms),
		suffix:    suffix,
		modifiers: b.modifiers,
		cpu:       b.cpu.Clone(),
		misc:      b.misc,
	}

	if in.cpu == nil {
		in.cpu = inferCPU(forms, parser, suffix)
	}
	if !b.miscSet {
		in.misc = inferMiscFlags(forms, parser, suffix)
	}

	if len(in.cpu) > maxCPU {
		return nil, fmt.Errorf("too many CPUs: %s", in.cpu)
	}
	return in, nil
}

// inferCPU folds the CPU requirements of every form the binding can select
// into the lowest common set. It returns nil when no form matches.
func inferCPU(forms []*Form, parser Parser, suffix string) Features {
	var ret Features
	for _, f := range forms {
		if !f.applies(parser, suffix) {
			continue
		}
		if ret == nil {
			ret = f.cpu.Clone()
		} else {
			ret = LowestCommon(ret, f.cpu)
		}
	}
	return ret
}

// inferMiscFlags intersects the mode flags of every form the binding can
// select.
func inferMiscFlags(forms []*Form, parser Parser, suffix string) MiscFlags {
	var ret MiscFlags
	first := true
	for _, f := range forms {
		if !f.applies(parser, suffix) {
			continue
		}
		if first {
			ret, first = f.misc, false
		} else {
			ret &= f.misc
		}
	}
	return ret
}

// Entry is a value in a keyword table: an *Insn or a *Prefix.
type Entry interface {
	// Record formats the entry as the data part of a gperf line.
	Record() string
}

// Insn is a finalized instruction binding as registered under one keyword.
type Insn struct {
	group     string
	numForms  int
	suffix    string
	modifiers []byte
	cpu       Features
	misc      MiscFlags
}

func (in *Insn) Group() string        { return in.group }
func (in *Insn) Suffix() string       { return in.suffix }
func (in *Insn) Modifiers() []byte    { return append([]byte(nil), in.modifiers...) }
func (in *Insn) CPU() Features        { return in.cpu.Clone() }
func (in *Insn) MiscFlags() MiscFlags { return in.misc }

func (in *Insn) suffixFlag() string {
	switch len(in.suffix) {
	case 0:
		return "SUF_Z"
	case 1:
		return "SUF_" + in.suffix
	default:
		return in.suffix
	}
}

func (in *Insn) Record() string {
	var mods []string
	for _, m := range in.modifiers {
		mods = append(mods, hexByte(m).String())
	}
	mods = padded(mods, maxModifiers)

	var cpus []string
	for _, c := range in.cpu.Sorted() {
		cpus = append(cpus, "CPU_"+string(c))
	}
	cpus = padded(cpus, maxCPU)

	return strings.Join([]string{
		in.group + "_insn",
		fmt.Sprintf("%d", in.numForms),
		in.suffixFlag(),
		mods[0],
		mods[1],
		mods[2],
		in.misc.String(),
		cpus[0],
		cpus[1],
		cpus[2],
	}, ",\t")
}
