package response

import "sort"

// Row is one materialized row. Column indexes are 1-based. A nil value is SQL
// NULL and reads as absent. Rows are not safe for concurrent use of the
// sequential Next accessors.
type Row struct {
	cols   *columns
	values []any
	number int
	next   *Row
	last   bool
	cursor int
}

// Number is the 1-based position of the row in its set.
func (r *Row) Number() int { return r.number }

func (r *Row) IsFirst() bool { return r.number == 1 }

func (r *Row) IsLast() bool { return r.last }

// NextRow returns the following row of the set, nil after the last.
func (r *Row) NextRow() *Row { return r.next }

// Len is the number of columns.
func (r *Row) Len() int { return len(r.values) }

// NextIndex advances the sequential cursor and returns the new index. Once
// past the last column it stays one beyond it, which reads as absent.
func (r *Row) NextIndex() int {
	if r.cursor <= len(r.values) {
		r.cursor++
	}
	return r.cursor
}

// ResetCursor rewinds the sequential cursor to before the first column.
func (r *Row) ResetCursor() { r.cursor = 0 }

// FindIndex returns the index of label, matched case-insensitively, or -1.
func (r *Row) FindIndex(label string) int { return r.cols.index(label) }

// FindLabel returns the label of the column at index.
func (r *Row) FindLabel(index int) (string, bool) {
	if !r.Contains(index) {
		return "", false
	}
	return r.cols.labels[index-1], true
}

func (r *Row) Indexes() []int {
	out := make([]int, len(r.values))
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func (r *Row) Labels() []string {
	return append([]string(nil), r.cols.labels...)
}

func (r *Row) Contains(index int) bool { return index >= 1 && index <= len(r.values) }

func (r *Row) ContainsLabel(label string) bool { return r.Contains(r.FindIndex(label)) }

func (r *Row) IsNullable(index int) bool {
	_, ok := r.cols.nullable[index]
	return ok
}

func (r *Row) IsNullableLabel(label string) bool { return r.IsNullable(r.FindIndex(label)) }

// NullableIndexes lists the columns the driver reported as nullable.
func (r *Row) NullableIndexes() []int {
	out := make([]int, 0, len(r.cols.nullable))
	for i := range r.cols.nullable {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Values returns a copy of the raw values in column order.
func (r *Row) Values() []any {
	return append([]any(nil), r.values...)
}

// Map returns the raw values keyed by column label.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, v := range r.values {
		if i < len(r.cols.labels) {
			m[r.cols.labels[i]] = v
		}
	}
	return m
}

func (r *Row) raw(index int) (any, bool) {
	if !r.Contains(index) {
		return nil, false
	}
	v := r.values[index-1]
	return v, v != nil
}

func get[T any](r *Row, index int, conv converter[T]) (T, error) {
	v, ok := r.raw(index)
	if !ok {
		var zero T
		return zero, ErrNoValuePresent
	}
	return conv(v)
}

func lookup[T any](r *Row, index int, conv converter[T]) (T, bool) {
	v, err := get(r, index, conv)
	return v, err == nil
}
