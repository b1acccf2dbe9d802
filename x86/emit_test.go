package x86

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"rsc.io/diff"
)

var testBanner = Banner{Generator: "x86-meta", Revision: "1"}

func leaCatalog(t *testing.T) *Catalog {
	t.Helper()
	b := NewBuilder()
	groups := []struct {
		Name string
		Spec FormSpec
	}{
		{"empty", FormSpec{Opcode: OpcodeBytes{}}},
		{"onebyte", FormSpec{
			Modifiers: []Modifier{ModOp0Add, ModOpSizeR, ModDOpS64R},
			Opcode:    OpcodeBytes{0x00},
		}},
		{"lea", FormSpec{
			Suffixes: "w",
			OperSize: 16,
			Opcode:   OpcodeBytes{0x8D},
			Operands: []Operand{
				{Type: TypeReg, Size: Size16, Dest: ActSpare},
				{Type: TypeMem, Relaxed: true, Dest: ActEA},
			},
		}},
		{"lea", FormSpec{
			Suffixes: "l",
			OperSize: 32,
			Opcode:   OpcodeBytes{0x8D},
			Operands: []Operand{
				{Type: TypeReg, Size: Size32, Dest: ActSpare},
				{Type: TypeMem, Relaxed: true, Dest: ActEA},
			},
		}},
	}
	for _, g := range groups {
		if err := b.AddGroup(g.Name, g.Spec); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.AddInsn("nop", InsnSpec{Group: "onebyte", Modifiers: []byte{0x90}}); err != nil {
		t.Fatal(err)
	}
	if err := b.AddInsn("lea", InsnSpec{Group: "lea"}); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPrefix("lock", PrefixSpec{Group: PrefixLockRep, Value: 0xF0}); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPrefix("data16", PrefixSpec{Group: PrefixOperSize, Value: 16, Parser: GAS}); err != nil {
		t.Fatal(err)
	}
	return finalize(t, b)
}

func TestOperandString(t *testing.T) {
	tests := []struct {
		Name string
		Op   Operand
		Want string
	}{
		{
			Name: "zero",
			Op:   Operand{},
			Want: "{OPT_Imm, OPS_Any, 0, 0, OPTM_None, OPA_None, OPAP_None}",
		},
		{
			Name: "64-bit address",
			Op:   Operand{Type: TypeMemOffs, Size: Size64, Relaxed: true, Dest: ActEA64},
			Want: "{OPT_MemOffs, OPS_64, 1, 1, OPTM_None, OPA_EA, OPAP_None}",
		},
		{
			Name: "far jump",
			Op:   Operand{Type: TypeImm, Size: SizeBits, Relaxed: true, Dest: ActJmpFar, TMod: TModFar},
			Want: "{OPT_Imm, OPS_BITS, 1, 0, OPTM_Far, OPA_JmpFar, OPAP_None}",
		},
		{
			Name: "short move",
			Op:   Operand{Type: TypeRM, Size: Size8, Relaxed: true, Dest: ActEA, Opt: PostShortMov},
			Want: "{OPT_RM, OPS_8, 1, 0, OPTM_None, OPA_EA, OPAP_ShortMov}",
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			if got := test.Op.String(); got != test.Want {
				t.Fatalf("String():\nGot:  %s\nWant: %s", got, test.Want)
			}
		})
	}
}

func TestOperandTable(t *testing.T) {
	a := Operand{Type: TypeSIMDReg, Size: Size128, Dest: ActSpare}
	v := Operand{Type: TypeSIMDReg, Size: Size128, Dest: ActVEX}
	m := Operand{Type: TypeSIMDRM, Size: Size128, Relaxed: true, Dest: ActEA}
	i := Operand{Type: TypeImm, Size: Size8, Relaxed: true, Dest: ActImm}

	b := NewBuilder()
	lists := [][]Operand{
		{a, m},
		{},
		{v, m, i},
		{a, v, m, i},
		{m},
		{a},
	}
	for _, ops := range lists {
		if err := b.AddGroup("g", FormSpec{Opcode: OpcodeBytes{0x0F}, Operands: ops}); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.AddInsn("g", InsnSpec{Group: "g"}); err != nil {
		t.Fatal(err)
	}
	c := finalize(t, b)
	table := c.OperandTable()

	// The four-operand list goes first and every other list is a run of it,
	// apart from {a, m}, which is appended.
	want := []Operand{a, v, m, i, a, m}
	if diff := cmp.Diff(want, table.Operands()); diff != "" {
		t.Fatalf("Operands(): (-want, +got)\n%s", diff)
	}

	forms := c.Groups()[0].Forms
	wantIndex := []int{4, 0, 1, 0, 2, 0}
	for n, f := range forms {
		if got := table.Index(f); got != wantIndex[n] {
			t.Errorf("Index(form %d): got %d, want %d", n, got, wantIndex[n])
		}
		if diff := cmp.Diff(f.Operands(), table.Slice(f)); diff != "" {
			t.Errorf("Slice(form %d): (-want, +got)\n%s", n, diff)
		}
	}

	other, err := NewForm(FormSpec{Opcode: OpcodeBytes{0x90}})
	if err != nil {
		t.Fatal(err)
	}
	if got := table.Index(other); got != -1 {
		t.Fatalf("Index(foreign form): got %d, want -1", got)
	}
}

func TestWriteGroups(t *testing.T) {
	c := leaCatalog(t)

	var buf strings.Builder
	if err := c.WriteGroups(&buf, testBanner); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"/* Generated by x86-meta r1, do not edit */",
		"static const x86_info_operand insn_operands[] = {",
		"   {OPT_Reg, OPS_16, 0, 0, OPTM_None, OPA_Spare, OPAP_None},",
		"    {OPT_Mem, OPS_Any, 1, 0, OPTM_None, OPA_EA, OPAP_None},",
		"    {OPT_Reg, OPS_32, 0, 0, OPTM_None, OPA_Spare, OPAP_None},",
		"    {OPT_Mem, OPS_Any, 1, 0, OPTM_None, OPA_EA, OPAP_None}",
		"};",
		"",
		"static const x86_insn_info empty_insn[] = {",
		"   { SUF_Z, 0, 0, 0, 0, {0, 0, 0}, 0, 0, 0, 0, {0, 0, 0}, 0, 0, 0 }",
		"};",
		"",
		"static const x86_insn_info onebyte_insn[] = {",
		"   { SUF_Z, 0, 0, 0, 0, {MOD_Op0Add, MOD_OpSizeR, MOD_DOpS64R}, 0, 0, 0, 1, {0x00, 0, 0}, 0, 0, 0 }",
		"};",
		"",
		"static const x86_insn_info lea_insn[] = {",
		"   { SUF_W|SUF_Z, 0, 0, 0, 0, {0, 0, 0}, 16, 0, 0, 1, {0x8D, 0, 0}, 0, 2, 0 },",
		"    { SUF_L|SUF_Z, 0, CPU_386, 0, 0, {0, 0, 0}, 32, 0, 0, 1, {0x8D, 0, 0}, 0, 2, 2 }",
		"};",
		"",
		"",
	}, "\n")

	if got := buf.String(); got != want {
		t.Fatalf("WriteGroups(): output mismatch:\n%s", diff.Format(got, want))
	}
}

func TestWriteKeywords(t *testing.T) {
	header := func(parser string) []string {
		return []string{
			"/* Generated by x86-meta r1, do not edit */",
			"%ignore-case",
			"%language=ANSI-C",
			"%compare-strncmp",
			"%readonly-tables",
			"%enum",
			"%struct-type",
			"%define hash-function-name insnprefix_" + parser + "_hash",
			"%define lookup-function-name insnprefix_" + parser + "_find",
			"struct insnprefix_parse_data;",
			"%%",
		}
	}

	tests := []struct {
		Name   string
		Parser Parser
		Lines  []string
	}{
		{
			Name:   "gas",
			Parser: GAS,
			Lines: []string{
				"data16,\tNULL,\tX86_OPERSIZE>>8,\t0x10,\t0,\t0,\t0,\t0,\t0,\t0,\t0",
				"lea,\tlea_insn,\t2,\tSUF_Z,\t0,\t0,\t0,\t0,\t0,\t0,\t0",
				"leal,\tlea_insn,\t2,\tSUF_L,\t0,\t0,\t0,\t0,\tCPU_386,\t0,\t0",
				"leaw,\tlea_insn,\t2,\tSUF_W,\t0,\t0,\t0,\t0,\t0,\t0,\t0",
				"lock,\tNULL,\tX86_LOCKREP>>8,\t0xF0,\t0,\t0,\t0,\t0,\t0,\t0,\t0",
				"nop,\tonebyte_insn,\t1,\tSUF_Z,\t0x90,\t0,\t0,\t0,\t0,\t0,\t0",
			},
		},
		{
			Name:   "nasm",
			Parser: NASM,
			Lines: []string{
				"lea,\tlea_insn,\t2,\tSUF_Z,\t0,\t0,\t0,\t0,\t0,\t0,\t0",
				"lock,\tNULL,\tX86_LOCKREP>>8,\t0xF0,\t0,\t0,\t0,\t0,\t0,\t0,\t0",
				"nop,\tonebyte_insn,\t1,\tSUF_Z,\t0x90,\t0,\t0,\t0,\t0,\t0,\t0",
			},
		},
	}

	c := leaCatalog(t)
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			var buf strings.Builder
			if err := c.WriteKeywords(&buf, test.Parser, testBanner); err != nil {
				t.Fatal(err)
			}

			want := strings.Join(append(header(test.Name), test.Lines...), "\n") + "\n"
			if got := buf.String(); got != want {
				t.Fatalf("WriteKeywords(%s): output mismatch:\n%s", test.Parser, diff.Format(got, want))
			}
		})
	}

	if err := c.WriteKeywords(new(strings.Builder), AllParsers, testBanner); err == nil {
		t.Fatalf("WriteKeywords(AllParsers): unexpected success")
	}
}
