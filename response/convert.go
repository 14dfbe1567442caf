package response

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoValuePresent is returned by the Nullable accessors when the column
	// does not exist or holds SQL NULL.
	ErrNoValuePresent = errors.New("no value present")
	// ErrTypeMismatch is returned when a present value cannot be read as the
	// requested type.
	ErrTypeMismatch = errors.New("type mismatch")
)

const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04:05"
	TimestampLayout = "2006-01-02 15:04:05.999999999"
)

type converter[T any] func(v any) (T, error)

func mismatch[T any](v any) error {
	var zero T
	return fmt.Errorf("%w: cannot read %T as %T", ErrTypeMismatch, v, zero)
}

func toValue(v any) (any, error) { return v, nil }

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	return "", mismatch[string](v)
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	}
	return nil, mismatch[[]byte](v)
}

// toBool never fails for a present value: booleans pass through, numbers are
// true when their low byte is non-zero, text is true only when it is exactly
// "true", anything else is false.
func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return x == "true", nil
	case []byte:
		return string(x) == "true", nil
	}
	if n, ok := numeric(v); ok {
		return int8(n.int()) != 0, nil
	}
	return false, nil
}

// number holds a numeric value in the widest form its kind allows.
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func (n number) int() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func numeric(v any) (number, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return number{f: float64(u), isFloat: true}, true
		}
		return number{i: int64(u)}, true
	case reflect.Float32, reflect.Float64:
		return number{f: rv.Float(), isFloat: true}, true
	}
	return number{}, false
}

func parseNumber(s string) (number, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return number{i: i}, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return number{f: f, isFloat: true}, true
	}
	return number{}, false
}

func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case string:
		return parseNumber(x)
	case []byte:
		return parseNumber(string(x))
	}
	return numeric(v)
}

func intConverter[T int64 | int | int16 | int8]() converter[T] {
	return func(v any) (T, error) {
		n, ok := toNumber(v)
		if !ok {
			return 0, mismatch[T](v)
		}
		return T(n.int()), nil
	}
}

func floatConverter[T float64 | float32]() converter[T] {
	return func(v any) (T, error) {
		n, ok := toNumber(v)
		if !ok {
			return 0, mismatch[T](v)
		}
		return T(n.float()), nil
	}
}

var (
	toInt64   = intConverter[int64]()
	toInt     = intConverter[int]()
	toInt16   = intConverter[int16]()
	toInt8    = intConverter[int8]()
	toFloat64 = floatConverter[float64]()
	toFloat32 = floatConverter[float32]()
)

// timeConverter reads time.Time values, epoch milliseconds, or text holding
// either epoch milliseconds or a time in one of layouts.
func timeConverter(normalize func(time.Time) time.Time, layouts ...string) converter[time.Time] {
	return func(v any) (time.Time, error) {
		switch x := v.(type) {
		case time.Time:
			return normalize(x), nil
		case string:
			return parseTime(x, normalize, layouts)
		case []byte:
			return parseTime(string(x), normalize, layouts)
		}
		if n, ok := numeric(v); ok && !n.isFloat {
			return normalize(time.UnixMilli(n.i)), nil
		}
		return time.Time{}, mismatch[time.Time](v)
	}
}

func parseTime(s string, normalize func(time.Time) time.Time, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return normalize(time.UnixMilli(ms)), nil
	}
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return normalize(t), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("%w: %v", ErrTypeMismatch, firstErr)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func clockOnly(t time.Time) time.Time {
	return time.Date(0, time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func asIs(t time.Time) time.Time { return t }

var (
	toDate      = timeConverter(dateOnly, DateLayout, TimestampLayout, time.RFC3339Nano)
	toClock     = timeConverter(clockOnly, ClockLayout, TimestampLayout, time.RFC3339Nano)
	toTimestamp = timeConverter(asIs, TimestampLayout, time.RFC3339Nano, DateLayout)
)
