package x86

import (
	"fmt"
	"strings"
)

// OperandType is the kind of value an operand slot accepts.
type OperandType uint8

const (
	TypeImm OperandType = iota
	TypeReg
	TypeMem
	TypeRM
	TypeSIMDReg
	TypeSIMDRM
	TypeSegReg
	TypeCRReg
	TypeDRReg
	TypeTRReg
	TypeST0
	TypeAreg
	TypeCreg
	TypeDreg
	TypeCS
	TypeDS
	TypeES
	TypeFS
	TypeGS
	TypeSS
	TypeCR4
	TypeMemOffs
	TypeImm1
	TypeImmNotSegOff
	TypeXMM0
	TypeMemrAX
	TypeMemEAX
	TypeMemXMMIndex
	TypeMemYMMIndex
)

var operandTypeNames = []string{
	"Imm", "Reg", "Mem", "RM", "SIMDReg", "SIMDRM", "SegReg", "CRReg",
	"DRReg", "TRReg", "ST0", "Areg", "Creg", "Dreg", "CS", "DS", "ES", "FS",
	"GS", "SS", "CR4", "MemOffs", "Imm1", "ImmNotSegOff", "XMM0", "MemrAX",
	"MemEAX", "MemXMMIndex", "MemYMMIndex",
}

// OperandSize is the width an operand slot accepts. SizeBits means the
// current mode's default width.
type OperandSize uint8

const (
	SizeAny OperandSize = iota
	Size8
	Size16
	Size32
	Size64
	Size80
	Size128
	Size256
	SizeBits
)

var operandSizeNames = []string{"Any", "8", "16", "32", "64", "80", "128", "256", "BITS"}

// Action says where the encoder puts the operand's value.
type Action uint8

const (
	ActNone Action = iota
	ActEA
	ActEA64
	ActImm
	ActSImm
	ActSpare
	ActOp0Add
	ActOp1Add
	ActSpareEA
	ActJmpRel
	ActAdSizeR
	ActJmpFar
	ActAdSizeEA
	ActVEX
	ActEAVEX
	ActSpareVEX
	ActVEXImmSrc
	ActVEXImm
)

var actionNames = []string{
	"None", "EA", "EA64", "Imm", "SImm", "Spare", "Op0Add", "Op1Add",
	"SpareEA", "JmpRel", "AdSizeR", "JmpFar", "AdSizeEA", "VEX", "EAVEX",
	"SpareVEX", "VEXImmSrc", "VEXImm",
}

// TargetMod is the jump/move target modifier an operand requires.
type TargetMod uint8

const (
	TModNone TargetMod = iota
	TModNear
	TModShort
	TModFar
	TModTo
)

var targetModNames = []string{"None", "Near", "Short", "Far", "To"}

// PostAction selects the alternate opcode of a form with an opcode pair.
type PostAction uint8

const (
	PostNone PostAction = iota
	PostSImm8
	PostShortMov
	PostA16
	PostSImm32Avail
)

var postActionNames = []string{"None", "SImm8", "ShortMov", "A16", "SImm32Avail"}

func (t OperandType) String() string { return enumName(operandTypeNames, int(t)) }
func (s OperandSize) String() string { return enumName(operandSizeNames, int(s)) }
func (a Action) String() string      { return enumName(actionNames, int(a)) }
func (m TargetMod) String() string   { return enumName(targetModNames, int(m)) }
func (p PostAction) String() string  { return enumName(postActionNames, int(p)) }

func ParseOperandType(s string) (OperandType, error) {
	i, err := parseEnum("operand type", operandTypeNames, s)
	return OperandType(i), err
}

func ParseOperandSize(s string) (OperandSize, error) {
	i, err := parseEnum("operand size", operandSizeNames, s)
	return OperandSize(i), err
}

func ParseAction(s string) (Action, error) {
	i, err := parseEnum("operand action", actionNames, s)
	return Action(i), err
}

func ParseTargetMod(s string) (TargetMod, error) {
	i, err := parseEnum("target modifier", targetModNames, s)
	return TargetMod(i), err
}

func ParsePostAction(s string) (PostAction, error) {
	i, err := parseEnum("post action", postActionNames, s)
	return PostAction(i), err
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%%!(%d)", i)
	}
	return names[i]
}

// parseEnum maps a catalog name to its index. The empty string selects
// the zero value.
func parseEnum(kind string, names []string, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	for i, name := range names {
		if s == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

// Operand describes one operand slot of an encoding form.
type Operand struct {
	Type    OperandType
	Size    OperandSize
	Relaxed bool
	Dest    Action
	TMod    TargetMod
	Opt     PostAction
}

// String formats the operand as an x86_info_operand initializer. ActEA64
// is written as ActEA with the 64-bit address flag set.
func (o Operand) String() string {
	dest, eas64 := o.Dest, 0
	if dest == ActEA64 {
		dest, eas64 = ActEA, 1
	}
	relaxed := 0
	if o.Relaxed {
		relaxed = 1
	}
	return "{" + strings.Join([]string{
		"OPT_" + o.Type.String(),
		"OPS_" + o.Size.String(),
		fmt.Sprintf("%d", relaxed),
		fmt.Sprintf("%d", eas64),
		"OPTM_" + o.TMod.String(),
		"OPA_" + dest.String(),
		"OPAP_" + o.Opt.String(),
	}, ", ") + "}"
}

// sizeGated reports whether the operand's width constrains the CPU mode of
// its form.
func (o Operand) sizeGated() bool {
	switch o.Type {
	case TypeReg, TypeRM, TypeAreg, TypeCreg, TypeDreg, TypeImm, TypeImmNotSegOff:
		return true
	}
	return false
}
