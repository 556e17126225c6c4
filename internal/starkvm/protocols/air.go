// Package protocols implements the STARK proof system: AIR interfaces,
// the Fiat-Shamir proof stream, constraint composition, the FRI
// low-degree test and the prover/verifier orchestrators.
package protocols

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// TransitionConstraint is a polynomial identity over one row pair. It
// must vanish on rows 0..N-2 of a valid trace. Degree is the total
// degree of Evaluate as a polynomial in the trace and public columns;
// the composition step budgets quotient degrees from it.
type TransitionConstraint struct {
	Name   string
	Degree int

	// Evaluate combines one row, its successor, and the public column
	// values at the same point. It must be a polynomial map so that it
	// can be evaluated on extended codewords as well as on raw rows.
	Evaluate func(current, next, public []goldilocks.Element) goldilocks.Element
}

// BoundaryConstraint pins one trace cell to a public value.
type BoundaryConstraint struct {
	Name   string
	Column int
	Row    int
	Value  goldilocks.Element
}

// Air describes an algebraic intermediate representation: the shape of
// a valid trace and the constraints it must satisfy. Implementations
// live with their trace generators (vm, rescue).
type Air interface {
	// Name identifies the AIR in logs and errors.
	Name() string

	// Width is the number of trace columns.
	Width() int

	// ColumnNames returns one name per trace column.
	ColumnNames() []string

	// TraceLength is the padded power-of-two trace height N.
	TraceLength() int

	// PublicColumns returns columns of length N known to both parties
	// (compiled program columns, round constant schedules). May be
	// empty. Both sides interpolate them over the trace domain.
	PublicColumns() [][]goldilocks.Element

	// TransitionConstraints returns the transition constraint list in
	// a fixed order.
	TransitionConstraints() []TransitionConstraint

	// BoundaryConstraints returns the boundary constraint list in a
	// fixed order.
	BoundaryConstraints() []BoundaryConstraint
}

// Table is a column-major execution trace.
type Table struct {
	ColumnNames []string
	Columns     [][]goldilocks.Element
}

// NewTable builds a table from columns of equal length.
func NewTable(columnNames []string, columns [][]goldilocks.Element) (*Table, error) {
	if len(columnNames) != len(columns) {
		return nil, fmt.Errorf("got %d column names for %d columns", len(columnNames), len(columns))
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table needs at least one column")
	}
	height := len(columns[0])
	for i, col := range columns {
		if len(col) != height {
			return nil, fmt.Errorf("column %q has height %d, want %d", columnNames[i], len(col), height)
		}
	}
	return &Table{ColumnNames: columnNames, Columns: columns}, nil
}

// Width returns the column count.
func (t *Table) Width() int {
	return len(t.Columns)
}

// Height returns the row count.
func (t *Table) Height() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0])
}

// Row copies row i into a fresh slice.
func (t *Table) Row(i int) []goldilocks.Element {
	row := make([]goldilocks.Element, len(t.Columns))
	for j := range t.Columns {
		row[j] = t.Columns[j][i]
	}
	return row
}

// ValidateTrace checks the table against the AIR: shape, every
// transition constraint on each adjacent row pair, every boundary
// constraint. A violation wraps ErrMalformedTrace.
func ValidateTrace(air Air, table *Table) error {
	if table.Width() != air.Width() {
		return fmt.Errorf("%w: trace width %d, air %q wants %d", ErrMalformedTrace, table.Width(), air.Name(), air.Width())
	}
	n := table.Height()
	if n != air.TraceLength() {
		return fmt.Errorf("%w: trace height %d, air %q wants %d", ErrDomainSizeMismatch, n, air.Name(), air.TraceLength())
	}
	if n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("%w: trace height %d is not a power of two", ErrDomainSizeMismatch, n)
	}
	public := air.PublicColumns()
	for i, col := range public {
		if len(col) != n {
			return fmt.Errorf("%w: public column %d has height %d, want %d", ErrMalformedTrace, i, len(col), n)
		}
	}

	publicRow := make([]goldilocks.Element, len(public))
	current := table.Row(0)
	for row := 0; row+1 < n; row++ {
		next := table.Row(row + 1)
		for j := range public {
			publicRow[j] = public[j][row]
		}
		for _, constraint := range air.TransitionConstraints() {
			if v := constraint.Evaluate(current, next, publicRow); !v.IsZero() {
				return fmt.Errorf("%w: transition %q violated at row %d", ErrMalformedTrace, constraint.Name, row)
			}
		}
		current = next
	}

	for _, constraint := range air.BoundaryConstraints() {
		if constraint.Column < 0 || constraint.Column >= table.Width() || constraint.Row < 0 || constraint.Row >= n {
			return fmt.Errorf("%w: boundary %q out of range", ErrMalformedTrace, constraint.Name)
		}
		cell := table.Columns[constraint.Column][constraint.Row]
		if !cell.Equal(&constraint.Value) {
			return fmt.Errorf("%w: boundary %q violated", ErrMalformedTrace, constraint.Name)
		}
	}
	return nil
}
