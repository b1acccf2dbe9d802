package x86

import (
	"fmt"
	"strings"
)

// Parser is a set of input syntaxes. The single-syntax values GAS and NASM
// name the two keyword tables.
type Parser uint8

const (
	GAS Parser = 1 << iota
	NASM

	AllParsers = GAS | NASM
)

// Has reports whether every syntax in q is also in p.
func (p Parser) Has(q Parser) bool {
	return p&q == q
}

func (p Parser) String() string {
	switch p {
	case GAS:
		return "gas"
	case NASM:
		return "nasm"
	case AllParsers:
		return "gas, nasm"
	case 0:
		return "none"
	default:
		return fmt.Sprintf("Parser(%d)", uint8(p))
	}
}

// ParseParser parses a single syntax name.
func ParseParser(s string) (Parser, error) {
	switch s {
	case "gas":
		return GAS, nil
	case "nasm":
		return NASM, nil
	default:
		return 0, fmt.Errorf("unknown parser %q", s)
	}
}

// MiscFlags are the mode restrictions attached to a form or binding.
type MiscFlags uint8

const (
	Only64 MiscFlags = 1 << iota
	Not64
	OnlyAVX
	NotAVX
)

var miscFlagNames = []string{"ONLY_64", "NOT_64", "ONLY_AVX", "NOT_AVX"}

// String formats the flags as a C bitwise-or expression, in bit order,
// or "0" when no flag is set.
func (f MiscFlags) String() string {
	var names []string
	for i, name := range miscFlagNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

func ParseMiscFlag(s string) (MiscFlags, error) {
	for i, name := range miscFlagNames {
		if s == name {
			return MiscFlags(1 << i), nil
		}
	}
	return 0, fmt.Errorf("unknown misc flag %q", s)
}

// Suffixes is a set of GAS operand-size suffixes. SuffixNone stands for the
// bare mnemonic.
type Suffixes uint8

const (
	SuffixNone Suffixes = 1 << iota
	SuffixB
	SuffixW
	SuffixL
	SuffixQ
	SuffixS
)

// suffixLetters is ordered by letter, which is also the emission order.
var suffixLetters = []struct {
	letter byte
	bit    Suffixes
}{
	{'B', SuffixB},
	{'L', SuffixL},
	{'Q', SuffixQ},
	{'S', SuffixS},
	{'W', SuffixW},
	{'Z', SuffixNone},
}

// ParseSuffixes parses a string of suffix letters, in either case.
func ParseSuffixes(s string) (Suffixes, error) {
	var ret Suffixes
	for i := 0; i < len(s); i++ {
		bit := suffixBit(s[i])
		if bit == 0 {
			return 0, fmt.Errorf("unknown suffix %q", s[i:i+1])
		}
		ret |= bit
	}
	return ret, nil
}

func suffixBit(c byte) Suffixes {
	if 'a' <= c && c <= 'z' {
		c -= 'a' - 'A'
	}
	for _, sl := range suffixLetters {
		if sl.letter == c {
			return sl.bit
		}
	}
	return 0
}

func (s Suffixes) Has(t Suffixes) bool {
	return t != 0 && s&t == t
}

// Letters returns the upper-case letters of the set ordered by letter.
func (s Suffixes) Letters() []string {
	var ret []string
	for _, sl := range suffixLetters {
		if s&sl.bit != 0 {
			ret = append(ret, string(sl.letter))
		}
	}
	return ret
}

func (s Suffixes) String() string {
	return strings.Join(s.Letters(), "")
}
