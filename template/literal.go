package template

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// TimestampLayout is how time.Time arguments are written into SQL text.
const TimestampLayout = "2006-01-02 15:04:05.999999999"

// Literal renders v the way it is spliced into a template: numbers bare,
// everything else wrapped in single quotes. Embedded quotes are NOT escaped,
// so values coming from untrusted input belong in positional parameters.
func Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(val)
	case []byte:
		return quote(string(val))
	case time.Time:
		return quote(val.Format(TimestampLayout))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "NULL"
		}
		return Literal(rv.Elem().Interface())
	}
	return quote(fmt.Sprint(v))
}

func quote(s string) string {
	return "'" + s + "'"
}
