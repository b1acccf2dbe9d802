package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/apparentlymart/x86-meta/x86"
)

type dataFile struct {
	Groups   []*groupDecl  `bzl:"groups/group"`
	Insns    []*insnDecl   `bzl:"insns/insn"`
	Prefixes []*prefixDecl `bzl:"prefixes/prefix"`
}

type groupDecl struct {
	Name  string      `bzl:"name"`
	Forms []*formDecl `bzl:"forms/form"`
}

// formDecl is one form as written in a data file. Optional values are
// pointers so that an explicit zero can be told apart from an absent one.
type formDecl struct {
	Parsers   []string `bzl:"parsers"`
	CPU       []string `bzl:"cpu"`
	MiscFlags []string `bzl:"misc_flags"`

	Only64  bool `bzl:"only64"`
	Not64   bool `bzl:"not64"`
	OnlyAVX bool `bzl:"onlyavx"`
	NotAVX  bool `bzl:"notavx"`

	OperSize      int `bzl:"opersize"`
	DefOperSize64 int `bzl:"def_opersize_64"`

	GenSuffix *bool    `bzl:"gen_suffix"`
	Suffix    *string  `bzl:"suffix"`
	Suffixes  []string `bzl:"suffixes"`
	ReqSuffix bool     `bzl:"req_suffix"`

	Prefix *uint8 `bzl:"prefix"`
	VEX    *int   `bzl:"vex"`
	VEXW   *int   `bzl:"vexw"`
	VEXPP  *uint8 `bzl:"vexpp"`
	XOP    *int   `bzl:"xop"`
	XOPW   *int   `bzl:"xopw"`

	Spare int `bzl:"spare"`

	Opcode  []byte `bzl:"opcode"`
	Opcode1 []byte `bzl:"opcode1"`
	Opcode2 []byte `bzl:"opcode2"`

	Modifiers []string       `bzl:"modifiers"`
	Operands  []*operandDecl `bzl:"operands/operand"`

	GASNoRev bool `bzl:"gas_no_rev"`
}

type operandDecl struct {
	Type    string `bzl:"type"`
	Size    string `bzl:"size"`
	Relaxed bool   `bzl:"relaxed"`
	Dest    string `bzl:"dest"`
	TMod    string `bzl:"tmod"`
	Opt     string `bzl:"opt"`
}

type insnDecl struct {
	Name      string   `bzl:"name"`
	Group     string   `bzl:"group"`
	Suffix    string   `bzl:"suffix"`
	Parser    string   `bzl:"parser"`
	Modifiers []byte   `bzl:"modifiers"`
	CPU       []string `bzl:"cpu"`
	MiscFlags []string `bzl:"misc_flags"`
	Only64    bool     `bzl:"only64"`
	Not64     bool     `bzl:"not64"`
	AVX       bool     `bzl:"avx"`
}

type prefixDecl struct {
	Name   string `bzl:"name"`
	Group  string `bzl:"group"`
	Value  uint8  `bzl:"value"`
	Parser string `bzl:"parser"`
	Only64 bool   `bzl:"only64"`
}

func (d *formDecl) spec() (x86.FormSpec, error) {
	spec := x86.FormSpec{
		Only64:        d.Only64,
		Not64:         d.Not64,
		OnlyAVX:       d.OnlyAVX,
		NotAVX:        d.NotAVX,
		OperSize:      d.OperSize,
		DefOperSize64: d.DefOperSize64,
		NoGenSuffix:   d.GenSuffix != nil && !*d.GenSuffix,
		ReqSuffix:     d.ReqSuffix,
		Spare:         d.Spare,
		GASNoRev:      d.GASNoRev,
	}

	for _, name := range d.Parsers {
		p, err := x86.ParseParser(name)
		if err != nil {
			return spec, err
		}
		spec.Parsers |= p
	}

	var err error
	if spec.CPU, err = parseFeatures(d.CPU); err != nil {
		return spec, err
	}
	if spec.MiscFlags, err = parseMiscFlags(d.MiscFlags); err != nil {
		return spec, err
	}

	switch {
	case d.Suffix != nil && d.Suffixes != nil:
		return spec, errors.New("suffix and suffixes cannot both be set")
	case d.Suffix != nil:
		if len(*d.Suffix) != 1 {
			return spec, fmt.Errorf("suffix %q is not a single letter", *d.Suffix)
		}
		spec.Suffixes = *d.Suffix
	default:
		for _, s := range d.Suffixes {
			if len(s) != 1 {
				return spec, fmt.Errorf("suffix %q is not a single letter", s)
			}
		}
		spec.Suffixes = strings.Join(d.Suffixes, "")
	}

	if spec.Prefix, err = d.specialPrefix(); err != nil {
		return spec, err
	}

	switch {
	case d.Opcode != nil && (d.Opcode1 != nil || d.Opcode2 != nil):
		return spec, errors.New("opcode cannot be combined with opcode1 and opcode2")
	case d.Opcode1 != nil || d.Opcode2 != nil:
		spec.Opcode = x86.OpcodePair{Optimized: d.Opcode1, Relaxed: d.Opcode2}
	case d.Opcode != nil:
		spec.Opcode = x86.OpcodeBytes(d.Opcode)
	}

	for _, name := range d.Modifiers {
		m, err := x86.ParseModifier(name)
		if err != nil {
			return spec, err
		}
		spec.Modifiers = append(spec.Modifiers, m)
	}

	for i, op := range d.Operands {
		operand, err := op.operand()
		if err != nil {
			return spec, fmt.Errorf("operand %d: %w", i, err)
		}
		spec.Operands = append(spec.Operands, operand)
	}

	return spec, nil
}

// specialPrefix picks the form's special prefix from the prefix, vex and
// xop arguments, at most one of which may be given. A VEX form names its
// mandatory prefix with vexpp instead.
func (d *formDecl) specialPrefix() (x86.SpecialPrefix, error) {
	if d.VEXW != nil && d.VEX == nil {
		return nil, errors.New("vexw without vex")
	}
	if d.VEXPP != nil && d.VEX == nil {
		return nil, errors.New("vexpp without vex")
	}
	if d.XOPW != nil && d.XOP == nil {
		return nil, errors.New("xopw without xop")
	}

	switch {
	case d.VEX != nil && d.XOP != nil:
		return nil, errors.New("cannot combine VEX and XOP")
	case d.VEX != nil:
		if d.Prefix != nil {
			return nil, fmt.Errorf("cannot combine VEX and special prefix 0x%02X", *d.Prefix)
		}
		v := x86.VEX{L: *d.VEX}
		if d.VEXW != nil {
			v.W = *d.VEXW
		}
		if d.VEXPP != nil {
			v.PP = *d.VEXPP
		}
		return v, nil
	case d.XOP != nil:
		if d.Prefix != nil {
			return nil, fmt.Errorf("cannot combine XOP and special prefix 0x%02X", *d.Prefix)
		}
		x := x86.XOP{L: *d.XOP}
		if d.XOPW != nil {
			x.W = *d.XOPW
		}
		return x, nil
	case d.Prefix != nil:
		return x86.LegacyPrefix(*d.Prefix), nil
	}

	return nil, nil
}

func (d *operandDecl) operand() (x86.Operand, error) {
	op := x86.Operand{Relaxed: d.Relaxed}

	var err error
	if d.Type == "" {
		return op, errors.New("missing operand type")
	}
	if op.Type, err = x86.ParseOperandType(d.Type); err != nil {
		return op, err
	}
	if op.Size, err = x86.ParseOperandSize(d.Size); err != nil {
		return op, err
	}
	if op.Dest, err = x86.ParseAction(d.Dest); err != nil {
		return op, err
	}
	if op.TMod, err = x86.ParseTargetMod(d.TMod); err != nil {
		return op, err
	}
	if op.Opt, err = x86.ParsePostAction(d.Opt); err != nil {
		return op, err
	}

	return op, nil
}

func (d *insnDecl) spec() (x86.InsnSpec, error) {
	spec := x86.InsnSpec{
		Group:     d.Group,
		Suffix:    d.Suffix,
		Modifiers: d.Modifiers,
		Only64:    d.Only64,
		Not64:     d.Not64,
		AVX:       d.AVX,
	}

	if d.Parser != "" {
		p, err := x86.ParseParser(d.Parser)
		if err != nil {
			return spec, err
		}
		spec.Parser = p
	}

	var err error
	if spec.CPU, err = parseFeatures(d.CPU); err != nil {
		return spec, err
	}
	if spec.MiscFlags, err = parseMiscFlags(d.MiscFlags); err != nil {
		return spec, err
	}
	// misc_flags = [] is an explicit empty set, not an absent one.
	spec.MiscFlagsSet = d.MiscFlags != nil

	return spec, nil
}

func (d *prefixDecl) spec() (x86.PrefixSpec, error) {
	spec := x86.PrefixSpec{
		Value:  d.Value,
		Only64: d.Only64,
	}

	var err error
	if spec.Group, err = x86.ParsePrefixGroup(d.Group); err != nil {
		return spec, err
	}

	if d.Parser != "" {
		if spec.Parser, err = x86.ParseParser(d.Parser); err != nil {
			return spec, err
		}
	}

	return spec, nil
}

// parseFeatures keeps the distinction between an absent list (nil) and an
// empty one.
func parseFeatures(names []string) ([]x86.Feature, error) {
	if names == nil {
		return nil, nil
	}
	ret := make([]x86.Feature, 0, len(names))
	for _, name := range names {
		f, err := x86.ParseFeature(name)
		if err != nil {
			return nil, err
		}
		ret = append(ret, f)
	}
	return ret, nil
}

func parseMiscFlags(names []string) (x86.MiscFlags, error) {
	var ret x86.MiscFlags
	for _, name := range names {
		f, err := x86.ParseMiscFlag(name)
		if err != nil {
			return 0, err
		}
		ret |= f
	}
	return ret, nil
}
