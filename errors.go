package sheetcalc

import (
	"errors"
	"fmt"
)

// ErrInvalidPosition indicates an operation received a position outside the
// sheet bounds, or position text that does not parse.
var ErrInvalidPosition = errors.New("invalid position")

// ErrCircularDependency indicates a formula would introduce a cycle into the
// dependency graph. The failing SetCell leaves the sheet unchanged.
var ErrCircularDependency = errors.New("circular dependency")

// FormulaParseError reports a syntactically invalid formula expression.
type FormulaParseError struct {
	Expression string // the expression text, without the leading '='
	Offset     int    // byte offset of the fault within Expression
	Msg        string
}

func (e *FormulaParseError) Error() string {
	return fmt.Sprintf("parse formula %q: %s at offset %d", e.Expression, e.Msg, e.Offset)
}
