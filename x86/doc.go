// Package x86 compiles a catalog of x86 instruction encodings into the
// tables consumed by an assembler's encoder: the encoding-info arrays of
// x86insns.c and one gperf keyword table per input syntax.
//
// A catalog is populated through a Builder, which Finalize turns into an
// immutable Catalog. Only a Catalog can be written out.
package x86
