package template

import (
	"strconv"
	"strings"
)

// BindStyle is the driver's bind marker syntax.
type BindStyle uint8

const (
	// QuestionBinds is the ? marker of database/sql drivers.
	QuestionBinds BindStyle = iota
	// DollarBinds is the numbered $1, $2 marker of PostgreSQL.
	DollarBinds
)

// Marker returns the marker for the n-th bind argument, counting from 1.
func (s BindStyle) Marker(n int) string {
	if s == DollarBinds {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// markers counts the bind markers tpl already carries outside quoted text.
// Numbered markers count up to the highest number used.
func (s BindStyle) markers(tpl string) int {
	n := 0
	quoted := false
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		switch {
		case c == '\'':
			quoted = !quoted
		case quoted:
		case s == QuestionBinds && c == '?':
			n++
		case s == DollarBinds && c == '$':
			j := i + 1
			for j < len(tpl) && tpl[j] >= '0' && tpl[j] <= '9' {
				j++
			}
			if j > i+1 {
				if k, err := strconv.Atoi(tpl[i+1 : j]); err == nil && k > n {
					n = k
				}
				i = j - 1
			}
		}
	}
	return n
}

// bindPositional collects the bind arguments of one template. When tpl names
// positional parameters as ${name}, each occurrence becomes a marker and binds
// its value, in order of appearance. Otherwise the markers already in tpl take
// the positional values in declaration order, as many as there are markers.
func bindPositional(tpl string, params []Param, args []any, style BindStyle) (string, []any) {
	var positional []int
	named := false
	for i, p := range params {
		if !p.Positional {
			continue
		}
		positional = append(positional, i)
		if strings.Contains(tpl, Placeholder(p.Name)) {
			named = true
		}
	}
	if len(positional) == 0 {
		return tpl, nil
	}

	if !named {
		n := min(style.markers(tpl), len(positional))
		if n == 0 {
			return tpl, nil
		}
		binds := make([]any, n)
		for k := range n {
			binds[k] = args[positional[k]]
		}
		return tpl, binds
	}

	var b strings.Builder
	b.Grow(len(tpl))
	var binds []any
	for i := 0; i < len(tpl); {
		if idx, ok := positionalAt(tpl[i:], params, positional); ok {
			binds = append(binds, args[idx])
			b.WriteString(style.Marker(len(binds)))
			i += len(Placeholder(params[idx].Name))
			continue
		}
		b.WriteByte(tpl[i])
		i++
	}
	return b.String(), binds
}

func positionalAt(s string, params []Param, positional []int) (int, bool) {
	if !strings.HasPrefix(s, "${") {
		return 0, false
	}
	for _, idx := range positional {
		if strings.HasPrefix(s, Placeholder(params[idx].Name)) {
			return idx, true
		}
	}
	return 0, false
}
