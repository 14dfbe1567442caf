package response

// Adapter converts one row into a value. A fresh zero-value adapter is used
// for every row, so implementations may keep per-row state in their fields.
type Adapter[T any] interface {
	Convert(row *Row) (T, error)
}

// AdapterPtr is satisfied by *A when *A implements Adapter[T]. It lets the
// conversion functions allocate adapters without reflection.
type AdapterPtr[T any, A any] interface {
	*A
	Adapter[T]
}

type listOptions[T any] struct {
	limit  int
	filter func(T) bool
}

type Option[T any] func(*listOptions[T])

// Limit caps the number of rows converted. It applies before Filter.
func Limit[T any](n int) Option[T] {
	return func(o *listOptions[T]) { o.limit = n }
}

// Filter keeps converted values for which keep returns true.
func Filter[T any](keep func(T) bool) Option[T] {
	return func(o *listOptions[T]) { o.filter = keep }
}

func convert[T any, A any, PA AdapterPtr[T, A]](row *Row) (T, error) {
	var a A
	return PA(&a).Convert(row)
}

// ToFirst converts the first row. ok is false for an empty set.
func ToFirst[T any, A any, PA AdapterPtr[T, A]](s *Set) (v T, ok bool, err error) {
	row, ok := s.First()
	if !ok {
		return v, false, nil
	}
	v, err = convert[T, A, PA](row)
	return v, err == nil, err
}

// ToLast converts the last row. ok is false for an empty set.
func ToLast[T any, A any, PA AdapterPtr[T, A]](s *Set) (v T, ok bool, err error) {
	row, ok := s.Last()
	if !ok {
		return v, false, nil
	}
	v, err = convert[T, A, PA](row)
	return v, err == nil, err
}

// ToList converts rows in order, stopping at the first conversion error.
func ToList[T any, A any, PA AdapterPtr[T, A]](s *Set, opts ...Option[T]) ([]T, error) {
	var o listOptions[T]
	for _, opt := range opts {
		opt(&o)
	}

	rows := s.rows
	if o.limit > 0 && o.limit < len(rows) {
		rows = rows[:o.limit]
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := convert[T, A, PA](row)
		if err != nil {
			return nil, err
		}
		if o.filter != nil && !o.filter(v) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
