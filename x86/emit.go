package x86

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
)

// Banner identifies the generator in the first line of every output file.
type Banner struct {
	Generator string
	Revision  string
}

func (b Banner) String() string {
	return fmt.Sprintf("/* Generated by %s r%s, do not edit */", b.Generator, b.Revision)
}

// OperandTable is the master operand array shared by all encoding forms.
// Each form's operand list is a contiguous run of it.
type OperandTable struct {
	operands []Operand
	index    map[*Form]int
}

// OperandTable lays out the operand lists of every form. Longer lists are
// placed first so that shorter ones can reuse their runs.
func (c *Catalog) OperandTable() *OperandTable {
	var forms []*Form
	for _, g := range c.groups {
		forms = append(forms, g.Forms...)
	}
	sort.SliceStable(forms, func(i, j int) bool {
		return len(forms[i].operands) > len(forms[j].operands)
	})

	t := &OperandTable{index: make(map[*Form]int, len(forms))}
	for _, f := range forms {
		t.index[f] = t.place(f.operands)
	}
	return t
}

// place returns the start of an existing run equal to ops, appending ops
// to the table when there is none.
func (t *OperandTable) place(ops []Operand) int {
	n := len(ops)
	for i := range t.operands {
		if i+n <= len(t.operands) && slices.Equal(t.operands[i:i+n], ops) {
			return i
		}
	}
	start := len(t.operands)
	t.operands = append(t.operands, ops...)
	return start
}

func (t *OperandTable) Operands() []Operand {
	return append([]Operand(nil), t.operands...)
}

// Index returns where f's operands start, or -1 if f is not in the table.
func (t *OperandTable) Index(f *Form) int {
	i, ok := t.index[f]
	if !ok {
		return -1
	}
	return i
}

// Slice returns f's operands as laid out in the table.
func (t *OperandTable) Slice(f *Form) []Operand {
	i := t.Index(f)
	if i < 0 {
		return nil
	}
	return append([]Operand(nil), t.operands[i:i+len(f.operands)]...)
}

// WriteGroups writes the C source holding the master operand array and one
// x86_insn_info array per group, in declaration order.
func (c *Catalog) WriteGroups(w io.Writer, banner Banner) error {
	t := c.OperandTable()

	var buf strings.Builder
	fmt.Fprintf(&buf, "%s\n", banner)

	items := make([]string, len(t.operands))
	for i, op := range t.operands {
		items[i] = op.String()
	}
	buf.WriteString("static const x86_info_operand insn_operands[] = {\n")
	writeInitializers(&buf, items)

	for _, g := range c.groups {
		items := make([]string, len(g.Forms))
		for i, f := range g.Forms {
			items[i] = f.Record(t.Index(f))
		}
		fmt.Fprintf(&buf, "static const x86_insn_info %s_insn[] = {\n", g.Name)
		writeInitializers(&buf, items)
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

func writeInitializers(buf *strings.Builder, items []string) {
	buf.WriteString("   ")
	buf.WriteString(strings.Join(items, ",\n    "))
	buf.WriteString("\n};\n\n")
}

// WriteKeywords writes parser's keyword table as gperf input.
func (c *Catalog) WriteKeywords(w io.Writer, parser Parser, banner Banner) error {
	if parser != GAS && parser != NASM {
		return fmt.Errorf("no keyword table for parser %s", parser)
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "%s\n", banner)
	buf.WriteString("%ignore-case\n")
	buf.WriteString("%language=ANSI-C\n")
	buf.WriteString("%compare-strncmp\n")
	buf.WriteString("%readonly-tables\n")
	buf.WriteString("%enum\n")
	buf.WriteString("%struct-type\n")
	fmt.Fprintf(&buf, "%%define hash-function-name insnprefix_%s_hash\n", parser)
	fmt.Fprintf(&buf, "%%define lookup-function-name insnprefix_%s_find\n", parser)
	buf.WriteString("struct insnprefix_parse_data;\n")
	buf.WriteString("%%\n")

	table := c.keywords[parser]
	for _, keyword := range c.Keywords(parser) {
		fmt.Fprintf(&buf, "%s,\t%s\n", keyword, table[keyword].Record())
	}

	_, err := io.WriteString(w, buf.String())
	return err
}
