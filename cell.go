package sheetcalc

import "fmt"

// Content prefix characters.
const (
	FormulaSign = '='  // a cell text of length ≥ 2 starting with this is a formula
	EscapeSign  = '\'' // a leading escape is stripped from displayed text
)

// formulaHandle is the narrow contract a formula cell consumes. *Formula
// implements it; tests may substitute scripted handles.
type formulaHandle interface {
	Expression() string
	Evaluate(sv SheetView) Value
	ReferencedCells() []Position
}

// cellContent is the variant payload of a cell: empty, text, or formula.
type cellContent interface {
	text() string
	referencedCells() []Position
}

type emptyContent struct{}

func (emptyContent) text() string { return "" }

func (emptyContent) referencedCells() []Position { return nil }

type textContent struct {
	raw string
}

func (c textContent) text() string { return c.raw }

func (c textContent) referencedCells() []Position { return nil }

// display is the raw text with a single leading escape sign stripped.
func (c textContent) display() string {
	if c.raw[0] == EscapeSign {
		return c.raw[1:]
	}
	return c.raw
}

type formulaContent struct {
	formula formulaHandle
}

func (c formulaContent) text() string { return string(FormulaSign) + c.formula.Expression() }

func (c formulaContent) referencedCells() []Position { return c.formula.ReferencedCells() }

// Cell holds a single cell's content, its cached value, and its dependency
// edges. Edges are non-owning: cells belong to the sheet's map, referents
// and dependents only point into it.
type Cell struct {
	sheet      *Sheet
	content    cellContent
	cache      Value
	referents  map[*Cell]struct{} // cells this cell's formula reads from
	dependents map[*Cell]struct{} // cells whose formula reads from this cell
}

func newCell(s *Sheet) *Cell {
	return &Cell{
		sheet:      s,
		content:    emptyContent{},
		referents:  make(map[*Cell]struct{}),
		dependents: make(map[*Cell]struct{}),
	}
}

// Set replaces the cell's content with the parsed form of text: empty for
// "", a formula for "=..." of length ≥ 2, plain text otherwise. A parse
// failure or a would-be circular dependency leaves the cell unchanged.
// On success the dependency edges are rewired (materializing absent
// referents as empty cells) and the transitive dependent closure is
// invalidated.
func (c *Cell) Set(text string) error {
	content, err := parseContent(text)
	if err != nil {
		return err
	}
	refs := content.referencedCells()
	if c.hasCircularDependency(refs) {
		return fmt.Errorf("set %q: %w", text, ErrCircularDependency)
	}
	c.content = content
	c.rewire(refs)
	c.invalidate(true)
	return nil
}

// Clear resets the cell to empty, detaches it from its referents, and
// invalidates its dependents.
func (c *Cell) Clear() {
	c.content = emptyContent{}
	c.rewire(nil)
	c.invalidate(true)
}

// GetValue returns the computed value of the cell. Formula results are
// memoized until a referent changes.
func (c *Cell) GetValue() Value {
	switch content := c.content.(type) {
	case textContent:
		return content.display()
	case formulaContent:
		if c.cache != nil {
			return c.cache
		}
		v := content.formula.Evaluate(sheetView{c.sheet})
		c.cache = v
		return v
	default:
		return ""
	}
}

// GetText returns the stored text: "" for empty cells, the raw input for
// text cells, and '=' plus the canonical expression for formula cells.
func (c *Cell) GetText() string {
	return c.content.text()
}

// GetReferencedCells returns the positions the cell's formula reads from;
// empty for non-formula cells.
func (c *Cell) GetReferencedCells() []Position {
	return c.content.referencedCells()
}

// IsReferenced reports whether any formula cell reads from this cell.
func (c *Cell) IsReferenced() bool {
	return len(c.dependents) > 0
}

// parseContent builds the candidate content for Set.
func parseContent(text string) (cellContent, error) {
	if text == "" {
		return emptyContent{}, nil
	}
	if len(text) > 1 && text[0] == FormulaSign {
		f, err := ParseFormula(text[1:])
		if err != nil {
			return nil, err
		}
		return formulaContent{formula: f}, nil
	}
	return textContent{raw: text}, nil
}

// hasCircularDependency reports whether wiring this cell to the candidate
// referent positions would close a cycle. It resolves the positions against
// the current sheet only (referents not yet materialized have no outgoing
// edges and cannot take part in a cycle) and searches the incoming edges
// from this cell: a path referent →* this plus the new edge this → referent
// is a loop.
func (c *Cell) hasCircularDependency(refs []Position) bool {
	if len(refs) == 0 {
		return false
	}
	referenced := make(map[*Cell]struct{}, len(refs))
	for _, pos := range refs {
		if rc := c.sheet.cell(pos); rc != nil {
			referenced[rc] = struct{}{}
		}
	}
	if len(referenced) == 0 {
		return false
	}

	visited := make(map[*Cell]struct{})
	stack := []*Cell{c}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited[cur] = struct{}{}

		if _, ok := referenced[cur]; ok {
			return true
		}
		for dep := range cur.dependents {
			if _, ok := visited[dep]; !ok {
				stack = append(stack, dep)
			}
		}
	}
	return false
}

// rewire replaces the cell's outgoing edges with edges to the given
// positions, materializing absent referents as empty cells.
func (c *Cell) rewire(refs []Position) {
	for ref := range c.referents {
		delete(ref.dependents, c)
	}
	clear(c.referents)

	for _, pos := range refs {
		ref := c.sheet.cell(pos)
		if ref == nil {
			ref = c.sheet.materialize(pos)
		}
		c.referents[ref] = struct{}{}
		ref.dependents[c] = struct{}{}
	}
}

// invalidate drops this cell's cached value and sweeps the transitive
// dependent closure with an explicit work stack. A dependent without a
// cache stops the sweep through it: its own dependents were already
// invalidated when its cache was dropped.
func (c *Cell) invalidate(force bool) {
	if !force && c.cache == nil {
		return
	}
	c.cache = nil

	stack := make([]*Cell, 0, len(c.dependents))
	for dep := range c.dependents {
		stack = append(stack, dep)
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.cache == nil {
			continue
		}
		cur.cache = nil
		for dep := range cur.dependents {
			stack = append(stack, dep)
		}
	}
}
