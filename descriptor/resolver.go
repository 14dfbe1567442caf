package descriptor

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
	"github.com/Konsultn-Engineering/sqlrepo/template"
)

// Resolver memoizes descriptors by operation identity for its whole lifetime.
type Resolver struct {
	cache sync.Map // map[string]*Descriptor
	group singleflight.Group
}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the descriptor for identity, decoding md on first use.
// Later calls return the cached descriptor and ignore md. Failed decodes are
// not cached.
func (r *Resolver) Resolve(identity string, md Metadata) (*Descriptor, error) {
	if d, ok := r.cache.Load(identity); ok {
		return d.(*Descriptor), nil
	}

	v, err, _ := r.group.Do(identity, func() (any, error) {
		if d, ok := r.cache.Load(identity); ok {
			return d, nil
		}
		d, err := Decode(identity, md)
		if err != nil {
			return nil, err
		}
		actual, _ := r.cache.LoadOrStore(identity, d)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Descriptor), nil
}

// Cached reports the descriptor already resolved for identity, if any.
func (r *Resolver) Cached(identity string) (*Descriptor, bool) {
	d, ok := r.cache.Load(identity)
	if !ok {
		return nil, false
	}
	return d.(*Descriptor), true
}

// Decode validates md and builds a descriptor without consulting any cache.
func Decode(identity string, md Metadata) (*Descriptor, error) {
	fail := func(err error) (*Descriptor, error) {
		return nil, sqlerr.New(sqlerr.KindConfiguration, identity, err)
	}

	d := &Descriptor{
		Identity:   identity,
		Scope:      md.Scope,
		Async:      md.Async,
		AsyncMode:  md.AsyncMode,
		NoResponse: md.NoResponse,
		Repository: md.Repository,
		Table:      md.Table,
		Connection: md.Connection,
	}

	switch {
	case md.Query != "" && len(md.Transaction) > 0:
		return fail(errors.New("operation declares both a query and a transaction"))
	case md.Query != "":
		d.Kind = KindQuery
		d.Templates = []string{md.Query}
	case len(md.Transaction) > 0:
		d.Kind = KindTransaction
		d.Templates = append([]string(nil), md.Transaction...)
	default:
		return fail(errors.New("operation declares neither a query nor a transaction"))
	}
	for i, tpl := range d.Templates {
		if strings.TrimSpace(tpl) == "" {
			return fail(fmt.Errorf("template %d is empty", i))
		}
	}

	seen := make(map[string]struct{}, len(md.Params))
	d.Params = make([]template.Param, 0, len(md.Params))
	for i, p := range md.Params {
		if p.Name == "" {
			return fail(fmt.Errorf("%w: parameter %d", sqlerr.ErrMissingBinding, i))
		}
		if _, dup := seen[p.Name]; dup {
			return fail(fmt.Errorf("parameter %q declared twice", p.Name))
		}
		seen[p.Name] = struct{}{}

		tp := template.Param{Name: p.Name, Positional: p.Positional}
		refs := fieldRefs(d.Templates, p.Name)
		if len(refs) > 0 {
			fields, ok := FieldsOf(p.Type)
			if !ok {
				return fail(fmt.Errorf("parameter %q is used with field paths but type %v has no registered fields", p.Name, p.Type))
			}
			for _, ref := range refs {
				if !hasField(fields, ref) {
					return fail(fmt.Errorf("parameter %q has no field %q", p.Name, ref))
				}
			}
			tp.Fields = fields
		}
		d.Params = append(d.Params, tp)
	}

	return d, nil
}

// fieldRefs lists the field names used as ${name}.$field across templates.
func fieldRefs(templates []string, name string) []string {
	prefix := template.Placeholder(name) + ".$"
	var refs []string
	for _, tpl := range templates {
		rest := tpl
		for {
			i := strings.Index(rest, prefix)
			if i < 0 {
				break
			}
			rest = rest[i+len(prefix):]
			end := 0
			for end < len(rest) && isIdent(rest[end]) {
				end++
			}
			if end > 0 {
				refs = append(refs, rest[:end])
			}
			rest = rest[end:]
		}
	}
	return refs
}

func hasField(fields []template.Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func isIdent(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
