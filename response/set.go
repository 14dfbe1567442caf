package response

import (
	"iter"
	"strings"

	"github.com/Konsultn-Engineering/sqlrepo/database"
)

// columns is computed once per set and shared by all of its rows.
type columns struct {
	labels   []string       // position i holds the label of column i+1
	byLabel  map[string]int // lower-cased label -> 1-based index
	nullable map[int]struct{}
}

func newColumns(cols []database.Column) *columns {
	c := &columns{
		labels:   make([]string, len(cols)),
		byLabel:  make(map[string]int, len(cols)),
		nullable: make(map[int]struct{}),
	}
	for i, col := range cols {
		index := i + 1
		c.labels[i] = col.Label
		key := strings.ToLower(col.Label)
		if _, dup := c.byLabel[key]; !dup {
			c.byLabel[key] = index
		}
		if col.Nullable {
			c.nullable[index] = struct{}{}
		}
	}
	return c
}

func (c *columns) index(label string) int {
	if i, ok := c.byLabel[strings.ToLower(label)]; ok {
		return i
	}
	return -1
}

// Set is a fully drained result. It does not change after Materialize.
type Set struct {
	affected int64
	cols     *columns
	rows     []*Row
}

// Materialize drains rows forward once and closes it. Rows are linked to
// their successors in cursor order.
func Materialize(affected int64, rows database.Rows) (*Set, error) {
	defer rows.Close()

	s := &Set{affected: affected, cols: newColumns(rows.Columns())}

	var prev *Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := &Row{cols: s.cols, values: values, number: len(s.rows) + 1}
		if prev != nil {
			prev.next = row
		}
		s.rows = append(s.rows, row)
		prev = row
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if n := len(s.rows); n > 0 {
		s.rows[n-1].last = true
	}
	return s, nil
}

// AffectedRows is the update count of a write, 0 for reads.
func (s *Set) AffectedRows() int64 { return s.affected }

func (s *Set) Len() int { return len(s.rows) }

func (s *Set) Empty() bool { return len(s.rows) == 0 }

// Columns returns the column labels in result order.
func (s *Set) Columns() []string {
	return append([]string(nil), s.cols.labels...)
}

// At returns the row at 0-based position i.
func (s *Set) At(i int) (*Row, bool) {
	if i < 0 || i >= len(s.rows) {
		return nil, false
	}
	return s.rows[i], true
}

func (s *Set) First() (*Row, bool) { return s.At(0) }

func (s *Set) Last() (*Row, bool) { return s.At(len(s.rows) - 1) }

// Rows returns the rows in cursor order.
func (s *Set) Rows() []*Row {
	return append([]*Row(nil), s.rows...)
}

// All iterates the rows with their 0-based positions.
func (s *Set) All() iter.Seq2[int, *Row] {
	return func(yield func(int, *Row) bool) {
		for i, r := range s.rows {
			if !yield(i, r) {
				return
			}
		}
	}
}
