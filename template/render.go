package template

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
)

const (
	TablePlaceholder = "${table}"
	systemPrefix     = "${system."
	fieldSplitter    = ".$"
)

// Field reads one named field out of a parameter value.
type Field struct {
	Name string
	Get  func(v any) any
}

// Param binds a positional argument to a placeholder name.
type Param struct {
	Name string
	// Fields are the accessors available to ${name}.$field placeholders.
	Fields []Field
	// Positional parameters are not spliced into the text; their values are
	// handed to the driver as bind arguments of the statements that use them.
	Positional bool
}

// Lookup resolves ${system.<key>} placeholders.
type Lookup func(key string) (string, bool)

// Environ looks keys up in the process environment.
func Environ(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapLookup is a Lookup over a fixed set of values.
func MapLookup(values map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

// Rendered is a template after substitution.
type Rendered struct {
	SQL  string
	Args []any
}

// Placeholder returns the ${name} form of a parameter name.
func Placeholder(name string) string {
	return "${" + name + "}"
}

// Render substitutes parameters, field paths, the table name and system
// values into tpl. Each step works on the output of the previous one.
// Positional parameters bind with ? markers.
func Render(tpl, table string, params []Param, args []any, lookup Lookup) (Rendered, error) {
	return RenderBinds(tpl, table, params, args, lookup, QuestionBinds)
}

// RenderBinds is Render for a driver with the given bind marker syntax.
func RenderBinds(tpl, table string, params []Param, args []any, lookup Lookup, style BindStyle) (Rendered, error) {
	if len(args) != len(params) {
		return Rendered{}, sqlerr.New(sqlerr.KindRender, "",
			fmt.Errorf("%w: %d arguments for %d declared parameters", sqlerr.ErrMissingBinding, len(args), len(params)))
	}

	for i, p := range params {
		if p.Name == "" {
			return Rendered{}, sqlerr.New(sqlerr.KindRender, "",
				fmt.Errorf("%w: parameter %d", sqlerr.ErrMissingBinding, i))
		}
	}

	sql, binds := bindPositional(tpl, params, args, style)
	for i, p := range params {
		if p.Positional {
			continue
		}

		var err error
		sql, err = setParam(sql, p, args[i])
		if err != nil {
			return Rendered{}, err
		}
	}

	sql = SetTable(sql, table)
	sql = ExpandSystem(sql, lookup)

	return Rendered{SQL: sql, Args: binds}, nil
}

func setParam(sql string, p Param, value any) (string, error) {
	base := Placeholder(p.Name)
	prefix := base + fieldSplitter

	if strings.Contains(sql, prefix) {
		fields := make([]Field, len(p.Fields))
		copy(fields, p.Fields)
		// ${u}.$name must not eat the head of ${u}.$names
		sort.SliceStable(fields, func(i, j int) bool {
			return len(fields[i].Name) > len(fields[j].Name)
		})
		for _, f := range fields {
			placeholder := prefix + f.Name
			if !strings.Contains(sql, placeholder) {
				continue
			}
			sql = strings.ReplaceAll(sql, placeholder, Literal(fieldValue(f, value)))
		}
		if idx := strings.Index(sql, prefix); idx >= 0 {
			return "", sqlerr.WithSQL(sqlerr.KindRender, "", sql,
				fmt.Errorf("unresolved field %q of parameter %q", fieldAt(sql, idx+len(prefix)), p.Name))
		}
	}

	return strings.ReplaceAll(sql, base, Literal(value)), nil
}

func fieldValue(f Field, value any) any {
	if value == nil {
		return nil
	}
	return f.Get(value)
}

func fieldAt(sql string, start int) string {
	end := start
	for end < len(sql) && isIdentByte(sql[end]) {
		end++
	}
	return sql[start:end]
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// SetTable replaces ${table}. Without a declared table the placeholder stays
// in place and the database gets to reject it.
func SetTable(sql, table string) string {
	if table == "" {
		return sql
	}
	return strings.ReplaceAll(sql, TablePlaceholder, table)
}

// ExpandSystem replaces ${system.<key>} with values from lookup. Unknown keys
// are left as they are.
func ExpandSystem(s string, lookup Lookup) string {
	if lookup == nil || !strings.Contains(s, systemPrefix) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for {
		j := strings.Index(s[i:], systemPrefix)
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		start := i + j
		b.WriteString(s[i:start])

		keyStart := start + len(systemPrefix)
		end := strings.IndexByte(s[keyStart:], '}')
		if end < 0 {
			b.WriteString(s[start:])
			break
		}
		key := s[keyStart : keyStart+end]
		next := keyStart + end + 1

		if v, ok := lookup(key); ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[start:next])
		}
		i = next
	}
	return b.String()
}
