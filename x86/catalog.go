package x86

import (
	"sort"
	"strings"
)

// Group is a named, ordered list of encoding forms shared by many
// mnemonics.
type Group struct {
	Name  string
	Forms []*Form
}

// Catalog is the finalized instruction catalog. It is read-only.
type Catalog struct {
	groups   []*Group
	keywords map[Parser]map[string]Entry
	unused   []string
}

// Groups returns the groups in declaration order.
func (c *Catalog) Groups() []*Group {
	return append([]*Group(nil), c.groups...)
}

// Lookup returns the entry registered for keyword in parser's table.
// Keywords are matched without regard to case.
func (c *Catalog) Lookup(parser Parser, keyword string) (Entry, bool) {
	e, ok := c.keywords[parser][strings.ToLower(keyword)]
	return e, ok
}

// Keywords returns parser's keywords in sorted order.
func (c *Catalog) Keywords(parser Parser) []string {
	table := c.keywords[parser]
	ret := make([]string, 0, len(table))
	for k := range table {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// UnusedGroups returns, sorted, the groups no instruction binds to, apart
// from the "empty" and "not64" placeholders.
func (c *Catalog) UnusedGroups() []string {
	return append([]string(nil), c.unused...)
}
