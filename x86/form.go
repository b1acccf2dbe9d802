package x86

import (
	"errors"
	"fmt"
	"strings"
)

// FormSpec lists every option accepted when declaring an encoding form.
type FormSpec struct {
	// Parsers restricts the form to some syntaxes. Zero means both.
	Parsers Parser

	CPU       []Feature
	MiscFlags MiscFlags

	Only64  bool
	Not64   bool
	OnlyAVX bool
	NotAVX  bool

	// OperSize is the operand size the form forces: 0, 16, 32 or 64.
	// 8 is accepted and treated as 0.
	OperSize int

	// DefOperSize64 is the default operand size in 64-bit mode.
	DefOperSize64 int

	// NoGenSuffix keeps the form's suffixes out of the GAS mnemonic
	// expansion of unsuffixed bindings.
	NoGenSuffix bool

	// Suffixes are the GAS suffix letters the form accepts.
	Suffixes string

	// ReqSuffix drops the implicit bare-mnemonic suffix.
	ReqSuffix bool

	Prefix SpecialPrefix

	// Spare is the ModRM reg field value.
	Spare int

	Opcode    Opcode
	Modifiers []Modifier
	Operands  []Operand

	// GASNoRev disables GAS operand order reversal.
	GASNoRev bool
}

// Form is one concrete encoding of an instruction shape.
type Form struct {
	parsers       Parser
	cpu           Features
	misc          MiscFlags
	operSize      int
	defOperSize64 int
	genSuffix     bool
	suffixes      Suffixes
	hasPrefix     bool
	prefix        byte
	spare         int
	opcode        []byte
	opcodeLen     int
	modifiers     []Modifier
	operands      []Operand
	gasNoRev      bool
}

// NewForm validates spec and derives the form's CPU and mode requirements
// from its operand size, prefix and operands.
func NewForm(spec FormSpec) (*Form, error) {
	f := &Form{
		parsers:       spec.Parsers,
		cpu:           make(Features),
		misc:          spec.MiscFlags,
		operSize:      spec.OperSize,
		defOperSize64: spec.DefOperSize64,
		genSuffix:     !spec.NoGenSuffix,
		spare:         spec.Spare,
		gasNoRev:      spec.GASNoRev,
	}
	if f.parsers == 0 {
		f.parsers = AllParsers
	}
	if !AllParsers.Has(f.parsers) {
		return nil, fmt.Errorf("invalid parser set %d", spec.Parsers)
	}

	for _, c := range spec.CPU {
		if !isIdentFragment(string(c)) {
			return nil, fmt.Errorf("invalid CPU feature %q", c)
		}
		f.cpu.Add(c)
	}

	if spec.Only64 {
		f.misc |= Only64
	}
	if spec.Not64 {
		f.misc |= Not64
	}
	if spec.OnlyAVX {
		f.misc |= OnlyAVX
	}
	if spec.NotAVX {
		f.misc |= NotAVX
	}

	switch f.operSize {
	case 8:
		f.operSize = 0
	case 0, 16, 32, 64:
	default:
		return nil, fmt.Errorf("invalid operand size %d", spec.OperSize)
	}
	switch f.operSize {
	case 64:
		f.misc |= Only64
	case 32:
		f.require386()
	}

	suffixes, err := ParseSuffixes(spec.Suffixes)
	if err != nil {
		return nil, err
	}
	if suffixes.Has(SuffixNone) {
		return nil, errors.New("suffix Z is implied; use ReqSuffix to drop it")
	}
	if !spec.ReqSuffix {
		suffixes |= SuffixNone
	}
	f.suffixes = suffixes

	if spec.Prefix != nil {
		b, err := spec.Prefix.prefixByte()
		if err != nil {
			return nil, err
		}
		f.hasPrefix, f.prefix = true, b
		if spec.Prefix.avx() {
			f.misc |= OnlyAVX
		}
	}

	if spec.Spare < 0 || spec.Spare > 7 {
		return nil, fmt.Errorf("spare %d is not a ModRM reg value", spec.Spare)
	}

	if spec.Opcode == nil {
		return nil, errors.New("missing opcode")
	}
	f.opcode, f.opcodeLen, err = spec.Opcode.encode()
	if err != nil {
		return nil, err
	}

	f.operands = append([]Operand(nil), spec.Operands...)
	for _, op := range f.operands {
		if op.sizeGated() {
			switch op.Size {
			case Size64:
				f.misc |= Only64
			case Size32:
				f.require386()
			}
		}
		switch op.Type {
		case TypeFS, TypeGS:
			f.require386()
		case TypeCR4:
			if f.misc&Only64 == 0 {
				f.cpu.Add("586")
			}
		}
		if op.Dest == ActEA64 {
			f.misc |= Only64
		}
	}

	if len(spec.Modifiers) > maxModifiers {
		return nil, fmt.Errorf("too many modifiers: %v", spec.Modifiers)
	}
	f.modifiers = append([]Modifier(nil), spec.Modifiers...)

	f.cpu.pruneTiers()
	if len(f.cpu) > maxCPU {
		return nil, fmt.Errorf("too many CPUs: %s", f.cpu)
	}

	return f, nil
}

// require386 adds the 386 generation unless the form is 64-bit only, where
// it would be redundant.
func (f *Form) require386() {
	if f.misc&Only64 == 0 {
		f.cpu.Add("386")
	}
}

func (f *Form) Parsers() Parser      { return f.parsers }
func (f *Form) CPU() Features        { return f.cpu.Clone() }
func (f *Form) MiscFlags() MiscFlags { return f.misc }
func (f *Form) OperSize() int        { return f.operSize }
func (f *Form) Suffixes() Suffixes   { return f.suffixes }
func (f *Form) Spare() int           { return f.spare }

// SpecialPrefix returns the packed prefix byte, if the form has one.
func (f *Form) SpecialPrefix() (byte, bool) {
	return f.prefix, f.hasPrefix
}

// Opcode returns the opcode slot bytes and the opcode length.
func (f *Form) Opcode() ([]byte, int) {
	return append([]byte(nil), f.opcode...), f.opcodeLen
}

func (f *Form) Operands() []Operand {
	return append([]Operand(nil), f.operands...)
}

// applies reports whether a binding with the given suffix, under parser,
// can select this form. Only single-letter suffixes restrict the match.
func (f *Form) applies(parser Parser, suffix string) bool {
	if !f.parsers.Has(parser) {
		return false
	}
	if len(suffix) == 1 && !f.suffixes.Has(suffixBit(suffix[0])) {
		return false
	}
	return true
}

func (f *Form) gasFlags() string {
	var flags []string
	if !f.parsers.Has(NASM) {
		flags = append(flags, "GAS_ONLY")
	}
	if !f.parsers.Has(GAS) {
		flags = append(flags, "GAS_ILLEGAL")
	}
	if f.gasNoRev {
		flags = append(flags, "GAS_NO_REV")
	}
	for _, l := range f.suffixes.Letters() {
		flags = append(flags, "SUF_"+l)
	}
	if len(flags) == 0 {
		return "0"
	}
	return strings.Join(flags, "|")
}

// Record formats the form as an x86_insn_info initializer whose operands
// start at operandIndex in the master operand table.
func (f *Form) Record(operandIndex int) string {
	var cpus []string
	for _, c := range f.cpu.Sorted() {
		cpus = append(cpus, "CPU_"+string(c))
	}
	cpus = padded(cpus, maxCPU)

	var mods []string
	for _, m := range f.modifiers {
		mods = append(mods, "MOD_"+m.String())
	}

	var opcodes []string
	for _, b := range f.opcode {
		opcodes = append(opcodes, hexByte(b).String())
	}

	prefix := "0"
	if f.hasPrefix {
		prefix = hexByte(f.prefix).String()
	}

	return "{ " + strings.Join([]string{
		f.gasFlags(),
		f.misc.String(),
		cpus[0],
		cpus[1],
		cpus[2],
		"{" + strings.Join(padded(mods, maxModifiers), ", ") + "}",
		fmt.Sprintf("%d", f.operSize),
		fmt.Sprintf("%d", f.defOperSize64),
		prefix,
		fmt.Sprintf("%d", f.opcodeLen),
		"{" + strings.Join(padded(opcodes, maxOpcodeLen), ", ") + "}",
		fmt.Sprintf("%d", f.spare),
		fmt.Sprintf("%d", len(f.operands)),
		fmt.Sprintf("%d", operandIndex),
	}, ", ") + " }"
}
