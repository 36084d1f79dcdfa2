// Package table provides the in-memory tabular frame shared by every stage of
// the merge pipeline.
//
// A Table is a named, ordered set of rows over a fixed column list. Cells are
// nullable: a column missing from Row.Values is null, which is distinct from
// the empty string. Every row carries a surrogate ID assigned at load time so
// later stages can track row identity without relying on position.
package table

import "slices"

// Row is a single record of a Table.
type Row struct {
	// ID is the surrogate key assigned at load time. It is never reused
	// within a table.
	ID int

	// Values holds the non-null cells keyed by column name.
	Values map[string]string
}

// NewRow creates an empty row with the given ID.
func NewRow(id int) *Row {
	return &Row{ID: id, Values: make(map[string]string)}
}

// Get returns the cell value and whether it is non-null.
// A nil row reads as null in every column.
func (r *Row) Get(column string) (string, bool) {
	if r == nil || r.Values == nil {
		return "", false
	}
	v, ok := r.Values[column]
	return v, ok
}

// Set stores a non-null value.
func (r *Row) Set(column, value string) {
	if r.Values == nil {
		r.Values = make(map[string]string)
	}
	r.Values[column] = value
}

// SetNull clears a cell.
func (r *Row) SetNull(column string) {
	delete(r.Values, column)
}

// IsNull reports whether the cell is null.
func (r *Row) IsNull(column string) bool {
	_, ok := r.Get(column)
	return !ok
}

// Clone returns a deep copy of the row.
func (r *Row) Clone() *Row {
	if r == nil {
		return nil
	}
	c := NewRow(r.ID)
	for k, v := range r.Values {
		c.Values[k] = v
	}
	return c
}

// Table is an ordered collection of rows.
type Table struct {
	Name    string
	Columns []string
	Rows    []*Row

	next int // next surrogate ID
}

// New creates an empty table.
func New(name string, columns ...string) *Table {
	return &Table{
		Name:    name,
		Columns: slices.Clone(columns),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row built from values and assigns it the next surrogate ID.
// Keys of values not present in Columns are added as new columns.
func (t *Table) Append(values map[string]string) *Row {
	row := NewRow(t.nextID())
	for k, v := range values {
		row.Set(k, v)
		t.AddColumn(k)
	}
	t.Rows = append(t.Rows, row)
	return row
}

// AddColumn appends a column to the schema if it is not already present.
func (t *Table) AddColumn(column string) {
	if !t.HasColumn(column) {
		t.Columns = append(t.Columns, column)
	}
}

// HasColumn reports whether the schema contains column.
func (t *Table) HasColumn(column string) bool {
	return slices.Contains(t.Columns, column)
}

// MissingColumns returns the required columns absent from the schema, in the
// order they were requested.
func (t *Table) MissingColumns(required ...string) []string {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// DropAllNull removes every row whose listed columns are all null and
// returns how many rows were removed. A row with at least one non-null
// listed value is kept. The empty string counts as non-null.
func (t *Table) DropAllNull(columns ...string) int {
	if len(columns) == 0 {
		return 0
	}
	kept := t.Rows[:0]
	dropped := 0
	for _, row := range t.Rows {
		if allNull(row, columns) {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	// clear the tail so dropped rows can be collected
	clear(t.Rows[len(kept):])
	t.Rows = kept
	return dropped
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := New(t.Name, t.Columns...)
	c.next = t.next
	c.Rows = make([]*Row, len(t.Rows))
	for i, r := range t.Rows {
		c.Rows[i] = r.Clone()
	}
	return c
}

// ByID returns the row with the given surrogate ID.
func (t *Table) ByID(id int) (*Row, bool) {
	for _, r := range t.Rows {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

func (t *Table) nextID() int {
	// tables built as literals carry IDs the counter has not seen
	if n := len(t.Rows); n > 0 && t.Rows[n-1].ID >= t.next {
		t.next = t.Rows[n-1].ID + 1
	}
	id := t.next
	t.next++
	return id
}

func allNull(row *Row, columns []string) bool {
	for _, c := range columns {
		if !row.IsNull(c) {
			return false
		}
	}
	return true
}
