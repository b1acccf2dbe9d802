package x86

import (
	"errors"
	"fmt"
)

// SpecialPrefix is the one prefix byte slot of an encoding form: a legacy
// mandatory prefix, a VEX descriptor, or an XOP descriptor.
type SpecialPrefix interface {
	// prefixByte packs the prefix into the byte stored in the form record.
	prefixByte() (byte, error)

	// avx reports whether the prefix makes the form AVX-only.
	avx() bool
}

// LegacyPrefix is a mandatory prefix byte such as 0x66 or 0xF3. A zero
// LegacyPrefix is distinct from no prefix at all: the byte slot is used
// by a PreAdd modifier.
type LegacyPrefix byte

func (p LegacyPrefix) prefixByte() (byte, error) { return byte(p), nil }
func (p LegacyPrefix) avx() bool                 { return false }

// VEX describes a VEX-encoded form. L is the vector length in bits (0 is
// accepted for 128) and PP is the mandatory prefix the VEX pp field
// replaces (0, 0x66, 0xF3 or 0xF2).
type VEX struct {
	W  int
	L  int
	PP byte
}

func (v VEX) prefixByte() (byte, error) {
	if v.W != 0 && v.W != 1 {
		return 0, errors.New("VEX.W must be 0 or 1")
	}
	l, ok := vectorLength(v.L)
	if !ok {
		return 0, errors.New("VEX.L must be 128 or 256")
	}
	var pp byte
	switch v.PP {
	case 0x00:
		pp = 0
	case 0x66:
		pp = 1
	case 0xF3:
		pp = 2
	case 0xF2:
		pp = 3
	default:
		return 0, fmt.Errorf("cannot combine VEX and special prefix %s", hexByte(v.PP))
	}
	return 0xC0 | byte(v.W)<<3 | l<<2 | pp, nil
}

func (v VEX) avx() bool { return true }

// XOP describes an AMD XOP-encoded form. Its pp field is reserved.
type XOP struct {
	W int
	L int
}

func (x XOP) prefixByte() (byte, error) {
	if x.W != 0 && x.W != 1 {
		return 0, errors.New("XOP.W must be 0 or 1")
	}
	l, ok := vectorLength(x.L)
	if !ok {
		return 0, errors.New("XOP.L must be 128 or 256")
	}
	return 0x80 | byte(x.W)<<3 | l<<2, nil
}

func (x XOP) avx() bool { return false }

func vectorLength(bits int) (byte, bool) {
	switch bits {
	case 0, 128:
		return 0, true
	case 256:
		return 1, true
	default:
		return 0, false
	}
}

// Opcode is the opcode of an encoding form: either a single byte sequence
// or a pair of alternatives.
type Opcode interface {
	// encode returns the bytes of the record's opcode slots and the
	// opcode length the encoder reads.
	encode() ([]byte, int, error)
}

// OpcodeBytes is a plain opcode of up to three bytes. An empty sequence is
// valid for placeholder groups.
type OpcodeBytes []byte

func (o OpcodeBytes) encode() ([]byte, int, error) {
	if len(o) > maxOpcodeLen {
		return nil, 0, fmt.Errorf("opcode %v is longer than %d bytes", []byte(o), maxOpcodeLen)
	}
	return append([]byte(nil), o...), len(o), nil
}

// OpcodePair is an opcode with a size-optimized alternative, chosen by an
// operand's PostAction. Both share the three opcode slots, optimized first,
// and the encoder reads len(Optimized) bytes.
type OpcodePair struct {
	Optimized []byte
	Relaxed   []byte
}

func (o OpcodePair) encode() ([]byte, int, error) {
	if len(o.Optimized) == 0 || len(o.Relaxed) == 0 {
		return nil, 0, errors.New("opcode pair needs both alternatives")
	}
	if len(o.Optimized)+len(o.Relaxed) > maxOpcodeLen {
		return nil, 0, fmt.Errorf("opcode pair %v/%v is longer than %d bytes", o.Optimized, o.Relaxed, maxOpcodeLen)
	}
	ret := make([]byte, 0, maxOpcodeLen)
	ret = append(ret, o.Optimized...)
	ret = append(ret, o.Relaxed...)
	return ret, len(o.Optimized), nil
}

const (
	maxOpcodeLen = 3
	maxModifiers = 3
	maxCPU       = 3
)

// Modifier says how an instruction binding's modifier byte in the same
// position rewrites the form when encoding.
type Modifier uint8

const (
	ModGap Modifier = iota
	ModPreAdd
	ModOp0Add
	ModOp1Add
	ModOp2Add
	ModSpAdd
	ModOpSizeR
	ModImm8
	ModAdSizeR
	ModDOpS64R
	ModOp1AddSp
	ModSetVEX
)

var modifierNames = []string{
	"Gap", "PreAdd", "Op0Add", "Op1Add", "Op2Add", "SpAdd", "OpSizeR",
	"Imm8", "AdSizeR", "DOpS64R", "Op1AddSp", "SetVEX",
}

func (m Modifier) String() string { return enumName(modifierNames, int(m)) }

func ParseModifier(s string) (Modifier, error) {
	if s == "" {
		return 0, errors.New("empty modifier name")
	}
	i, err := parseEnum("modifier", modifierNames, s)
	return Modifier(i), err
}
