package x86

import (
	"fmt"
	"sort"
	"strings"
)

// Feature is a CPU generation or feature tag, named as in the encoder's
// CPU_* constants without the prefix.
type Feature string

// Features is a set of CPU requirements.
type Features map[Feature]struct{}

// AnyTier is the lowest CPU generation. It never appears in a resolved set.
const AnyTier Feature = "086"

// Tiers are cumulative: each generation includes all of the earlier ones.
var orderedTiers = []Feature{
	"086", "186", "286", "386", "486", "586", "686", "K6", "Athlon", "P3",
	"P4", "IA64", "Hammer",
}

var orderedFeatures = []Feature{
	"FPU", "Cyrix", "AMD", "MMX", "3DNow", "SMM", "SSE", "SSE2",
	"SSE3", "SVM", "PadLock", "SSSE3", "SSE41", "SSE42", "SSE4a", "SSE5",
	"AVX", "FMA", "AES", "CLMUL", "MOVBE", "XOP", "FMA4", "F16C",
	"FSGSBASE", "RDRAND", "XSAVEOPT", "EPTVPID", "SMX", "AVX2", "BMI1",
	"BMI2", "INVPCID", "LZCNT",
}

var unorderedFeatures = []Feature{"Priv", "Prot", "Undoc", "Obs"}

var (
	tierIndex    = indexFeatures(orderedTiers)
	featureIndex = indexFeatures(orderedFeatures)
)

func indexFeatures(list []Feature) map[Feature]int {
	ret := make(map[Feature]int, len(list))
	for i, f := range list {
		ret[f] = i
	}
	return ret
}

// NewFeatures returns a set holding the given features.
func NewFeatures(fs ...Feature) Features {
	ret := make(Features, len(fs))
	for _, f := range fs {
		ret.Add(f)
	}
	return ret
}

func (fs Features) Has(f Feature) bool {
	_, ok := fs[f]
	return ok
}

func (fs Features) Add(f Feature) {
	fs[f] = struct{}{}
}

// Clone returns a copy of the set. The clone of a nil set is nil, which
// callers use to tell "unset" apart from "explicitly empty".
func (fs Features) Clone() Features {
	if fs == nil {
		return nil
	}
	ret := make(Features, len(fs))
	for f := range fs {
		ret.Add(f)
	}
	return ret
}

// Sorted returns the members of the set ordered by name.
func (fs Features) Sorted() []Feature {
	ret := make([]Feature, 0, len(fs))
	for f := range fs {
		ret = append(ret, f)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i] < ret[j]
	})
	return ret
}

func (fs Features) String() string {
	var buf strings.Builder
	for i, f := range fs.Sorted() {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(string(f))
	}
	return buf.String()
}

// minIndex returns the smallest index in idx of any member of fs, or -1
// if fs has no member in idx.
func (fs Features) minIndex(idx map[Feature]int) int {
	ret := -1
	for f := range fs {
		if i, ok := idx[f]; ok && (ret < 0 || i < ret) {
			ret = i
		}
	}
	return ret
}

// pruneTiers removes every generation below the highest one present.
func (fs Features) pruneTiers() {
	top := -1
	for f := range fs {
		if i, ok := tierIndex[f]; ok && i > top {
			top = i
		}
	}
	for i := 0; i < top; i++ {
		delete(fs, orderedTiers[i])
	}
}

// LowestCommon returns the smallest requirement set satisfied by any CPU
// that satisfies either a or b.
//
// The result holds the lower of the two minimum generations (omitted when
// that is AnyTier), the lower of the two minimum ordered features when both
// sides have one, and the unordered tags present on both sides. Any other
// tags are not carried.
func LowestCommon(a, b Features) Features {
	ret := make(Features)

	aTier := a.minIndex(tierIndex)
	if aTier < 0 {
		aTier = 0
	}
	bTier := b.minIndex(tierIndex)
	if bTier < 0 {
		bTier = 0
	}
	if tier := min(aTier, bTier); tier > 0 {
		ret.Add(orderedTiers[tier])
	}

	aFeat := a.minIndex(featureIndex)
	bFeat := b.minIndex(featureIndex)
	if aFeat >= 0 && bFeat >= 0 {
		ret.Add(orderedFeatures[min(aFeat, bFeat)])
	}

	for _, f := range unorderedFeatures {
		if a.Has(f) && b.Has(f) {
			ret.Add(f)
		}
	}

	return ret
}

// ParseFeature validates a feature tag read from a catalog.
func ParseFeature(s string) (Feature, error) {
	if !isIdentFragment(s) {
		return "", fmt.Errorf("invalid CPU feature %q", s)
	}
	return Feature(s), nil
}
