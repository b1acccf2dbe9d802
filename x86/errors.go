package x86

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// ErrFinalized is returned by every Builder method once Finalize has run.
var ErrFinalized = errors.New("catalog builder already finalized")

// DuplicateError reports a keyword registered twice for the same syntax.
type DuplicateError struct {
	Parser  Parser
	Keyword string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s instruction %s", e.Parser, e.Keyword)
}

// dumper formats rejected specs for error messages.
var dumper = spew.ConfigState{
	Indent:                  "\t",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}
