package descriptor

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/gertd/go-pluralize"
)

var pluralizeClient = pluralize.NewClient()

// FieldNaming derives the placeholder name of an untagged struct field.
type FieldNaming interface {
	FieldName(goName string) string
}

// FieldNamingFunc adapts a function to FieldNaming.
type FieldNamingFunc func(string) string

func (f FieldNamingFunc) FieldName(goName string) string { return f(goName) }

var (
	// CamelCase: OwnerID -> ownerID, URLPath -> urlPath.
	CamelCase FieldNaming = FieldNamingFunc(lowerFirst)
	// SnakeCase: OwnerID -> owner_id, URLPath -> url_path.
	SnakeCase FieldNaming = FieldNamingFunc(snakeCase)
)

// TableOf derives a table name from T's type name: snake_case, pluralized.
// UserAccount -> user_accounts, Person -> people.
func TableOf[T any]() string {
	name := typeName[T]()
	if name == "" {
		return ""
	}
	snake := snakeCase(name)
	i := strings.LastIndexByte(snake, '_')
	return snake[:i+1] + pluralizeClient.Plural(snake[i+1:])
}

func typeName[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// lowerFirst lowers the leading capital, or the whole leading acronym:
// ID -> id, URLPath -> urlPath, Name -> name.
func lowerFirst(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func snakeCase(name string) string {
	if name == "" {
		return ""
	}
	// Already snake_case
	if strings.Contains(name, "_") && strings.ToLower(name) == name {
		return name
	}

	var b strings.Builder
	b.Grow(len(name) + 4)
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
