package database

// StaticRows is an in-memory cursor.
type StaticRows struct {
	columns []Column
	data    [][]any
	pos     int
	closed  bool
}

var _ Rows = (*StaticRows)(nil)

func NewStaticRows(columns []Column, data [][]any) *StaticRows {
	return &StaticRows{columns: columns, data: data, pos: -1}
}

// Labels is a shorthand for columns that carry no nullability information.
func Labels(labels ...string) []Column {
	cols := make([]Column, len(labels))
	for i, l := range labels {
		cols[i] = Column{Label: l}
	}
	return cols
}

func (r *StaticRows) Columns() []Column { return r.columns }

func (r *StaticRows) Next() bool {
	if r.closed || r.pos+1 >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *StaticRows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.data) {
		return nil, nil
	}
	row := make([]any, len(r.data[r.pos]))
	copy(row, r.data[r.pos])
	return row, nil
}

func (r *StaticRows) Err() error { return nil }

func (r *StaticRows) Close() error {
	r.closed = true
	return nil
}
