package descriptor

import (
	"reflect"
	"sort"
	"sync"

	"github.com/Konsultn-Engineering/sqlrepo/template"
)

var fieldRegistry sync.Map // map[reflect.Type][]template.Field

// RegisterFields makes the given accessors available to ${param}.$field
// placeholders for parameters of type T. Values may be passed as T or *T.
// Registering a type twice replaces its accessors.
func RegisterFields[T any](fields map[string]func(T) any) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]template.Field, 0, len(names))
	for _, name := range names {
		get := fields[name]
		out = append(out, template.Field{
			Name: name,
			Get: func(v any) any {
				switch x := v.(type) {
				case T:
					return get(x)
				case *T:
					if x == nil {
						return nil
					}
					return get(*x)
				}
				return nil
			},
		})
	}
	fieldRegistry.Store(reflect.TypeFor[T](), out)
}

// RegisterStruct registers every exported field of struct type T. A field is
// addressed by its `db` tag, or by its name with the first letter lowered.
// Fields tagged `db:"-"` are skipped.
func RegisterStruct[T any]() {
	RegisterStructWith[T](CamelCase)
}

// RegisterStructWith is RegisterStruct with untagged field names derived by
// naming.
func RegisterStructWith[T any](naming FieldNaming) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		panic("descriptor: RegisterStruct needs a struct type, got " + t.String())
	}

	fields := make(map[string]func(T) any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Tag.Get("db")
		if name == "-" {
			continue
		}
		if name == "" {
			name = naming.FieldName(sf.Name)
		}
		index := sf.Index
		fields[name] = func(v T) any {
			return reflect.ValueOf(v).FieldByIndex(index).Interface()
		}
	}
	RegisterFields(fields)
}

// FieldsOf returns the accessors registered for t, looking through pointers.
func FieldsOf(t reflect.Type) ([]template.Field, bool) {
	if t == nil {
		return nil, false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	v, ok := fieldRegistry.Load(t)
	if !ok {
		return nil, false
	}
	return v.([]template.Field), true
}
