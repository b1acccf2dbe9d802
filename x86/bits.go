package x86

import (
	"fmt"
)

type hexByte uint8

func (v hexByte) String() string {
	return fmt.Sprintf("0x%02X", uint8(v))
}

// padded returns the first n items of list, filling missing slots with "0".
func padded(list []string, n int) []string {
	ret := make([]string, n)
	for i := range ret {
		if i < len(list) {
			ret[i] = list[i]
		} else {
			ret[i] = "0"
		}
	}
	return ret
}
