package x86

import (
	"fmt"
	"strings"
)

// PrefixGroup is the encoder's classification of a legacy prefix, named
// as in its X86_* prefix type constants.
type PrefixGroup string

const (
	PrefixLockRep  PrefixGroup = "LOCKREP"
	PrefixAddrSize PrefixGroup = "ADDRSIZE"
	PrefixOperSize PrefixGroup = "OPERSIZE"
	PrefixSegReg   PrefixGroup = "SEGREG"
	PrefixREX      PrefixGroup = "REX"
)

func ParsePrefixGroup(s string) (PrefixGroup, error) {
	switch g := PrefixGroup(s); g {
	case PrefixLockRep, PrefixAddrSize, PrefixOperSize, PrefixSegReg, PrefixREX:
		return g, nil
	}
	return "", fmt.Errorf("unknown prefix group %q", s)
}

// PrefixSpec declares a prefix mnemonic.
type PrefixSpec struct {
	Group PrefixGroup

	// Value is the prefix byte, or for size overrides the size in bits.
	Value byte

	Only64 bool

	// Parser restricts the prefix to one syntax. Zero means both.
	Parser Parser
}

// Prefix is a prefix mnemonic's keyword table entry.
type Prefix struct {
	group  PrefixGroup
	value  byte
	only64 bool
}

func (p *Prefix) Group() PrefixGroup { return p.group }
func (p *Prefix) Value() byte        { return p.value }
func (p *Prefix) Only64() bool       { return p.only64 }

func (p *Prefix) Record() string {
	only64 := "0"
	if p.only64 {
		only64 = "ONLY_64"
	}
	return strings.Join([]string{
		"NULL",
		"X86_" + string(p.group) + ">>8",
		hexByte(p.value).String(),
		"0",
		"0",
		"0",
		only64,
		"0",
		"0",
		"0",
	}, ",\t")
}

type namedPrefix struct {
	name    string
	parsers Parser
	prefix  *Prefix
}
