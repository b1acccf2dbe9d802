package x86

import (
	"unicode"
)

// isIdent reports whether s can be used as a C identifier on its own.
func isIdent(s string) bool {
	for i, r := range s {
		if unicode.IsDigit(r) && i == 0 {
			return false
		}
	}
	return isIdentFragment(s)
}

// isIdentFragment reports whether s can be appended to an identifier
// prefix such as CPU_ or SUF_ and still form a C identifier.
func isIdentFragment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
			return false
		case unicode.IsDigit(r), unicode.IsLetter(r), r == '_':
		default:
			return false
		}
	}
	return true
}

// isKeyword reports whether s is usable as a lookup keyword in a gperf
// table, where the first comma ends the key.
func isKeyword(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || unicode.IsSpace(r) || r == ',' || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
