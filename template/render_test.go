package template

import (
	"errors"
	"testing"
	"time"

	"github.com/Konsultn-Engineering/sqlrepo/sqlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID    int64
	Name  string
	Names string
}

var userFields = []Field{
	{Name: "id", Get: func(v any) any { return v.(user).ID }},
	{Name: "name", Get: func(v any) any { return v.(user).Name }},
	{Name: "names", Get: func(v any) any { return v.(user).Names }},
}

func TestLiteral(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	n := 7
	var nilPtr *int

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"int", 42, "42"},
		{"negative int64", int64(-3), "-3"},
		{"uint8", uint8(255), "255"},
		{"float", 1.5, "1.5"},
		{"float32", float32(0.25), "0.25"},
		{"string", "abc", "'abc'"},
		{"quote is not escaped", "O'Brien", "'O'Brien'"},
		{"bool", true, "'true'"},
		{"bytes", []byte("xy"), "'xy'"},
		{"time", ts, "'2024-03-01 10:30:00'"},
		{"nil", nil, "NULL"},
		{"nil pointer", nilPtr, "NULL"},
		{"pointer", &n, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Literal(tt.in))
		})
	}
}

func TestRenderScalarParams(t *testing.T) {
	params := []Param{{Name: "id"}, {Name: "name"}}

	out, err := Render("select * from ${table} where id = ${id} and name = ${name}", "users", params, []any{42, "alice"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "select * from users where id = 42 and name = 'alice'", out.SQL)
	assert.Empty(t, out.Args)
}

func TestRenderFieldPaths(t *testing.T) {
	params := []Param{{Name: "u", Fields: userFields}}
	u := user{ID: 1, Name: "bob", Names: "bobs"}

	out, err := Render("insert into t (id, name, names) values (${u}.$id, ${u}.$name, ${u}.$names)", "", params, []any{u}, nil)

	require.NoError(t, err)
	assert.Equal(t, "insert into t (id, name, names) values (1, 'bob', 'bobs')", out.SQL)
}

func TestRenderFieldPathOnNilValue(t *testing.T) {
	params := []Param{{Name: "u", Fields: userFields}}

	out, err := Render("select ${u}.$id", "", params, []any{nil}, nil)

	require.NoError(t, err)
	assert.Equal(t, "select NULL", out.SQL)
}

func TestRenderUnknownFieldFails(t *testing.T) {
	params := []Param{{Name: "u", Fields: userFields}}

	_, err := Render("select ${u}.$email", "", params, []any{user{}}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, sqlerr.ErrRender)
	assert.Contains(t, err.Error(), `"email"`)
}

func TestRenderMissingBinding(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		_, err := Render("select ${id}", "", []Param{{}}, []any{1}, nil)
		assert.ErrorIs(t, err, sqlerr.ErrMissingBinding)
		assert.ErrorIs(t, err, sqlerr.ErrRender)
	})
	t.Run("argument count", func(t *testing.T) {
		_, err := Render("select ${id}", "", []Param{{Name: "id"}}, nil, nil)
		assert.ErrorIs(t, err, sqlerr.ErrMissingBinding)
	})
}

func TestRenderTableAbsentLeavesPlaceholder(t *testing.T) {
	out, err := Render("select * from ${table}", "", nil, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "select * from ${table}", out.SQL)
}

func TestRenderSystemValues(t *testing.T) {
	lookup := MapLookup(map[string]string{"schema": "app"})

	out, err := Render("select * from ${system.schema}.users where x = '${system.missing}'", "", nil, nil, lookup)

	require.NoError(t, err)
	assert.Equal(t, "select * from app.users where x = '${system.missing}'", out.SQL)
}

func TestRenderSystemFromEnvironment(t *testing.T) {
	t.Setenv("SQLREPO_TEST_SCHEMA", "reporting")

	out, err := Render("select 1 from ${system.SQLREPO_TEST_SCHEMA}.t", "", nil, nil, Environ)

	require.NoError(t, err)
	assert.Equal(t, "select 1 from reporting.t", out.SQL)
}

func TestRenderPositionalParams(t *testing.T) {
	params := []Param{{Name: "tenant"}, {Name: "name", Positional: true}, {Name: "age", Positional: true}}

	out, err := Render("insert into users (tenant, name, age) values (${tenant}, ?, ?)", "", params, []any{"acme", "O'Brien", 40}, nil)

	require.NoError(t, err)
	assert.Equal(t, "insert into users (tenant, name, age) values ('acme', ?, ?)", out.SQL)
	assert.Equal(t, []any{"O'Brien", 40}, out.Args)
}

func TestRenderBindsOnlyMarkersPresent(t *testing.T) {
	params := []Param{{Name: "v", Positional: true}}

	insert, err := Render("insert into items (v) values (?)", "", params, []any{"x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, insert.Args)

	count, err := Render("select count(*) as n from items", "", params, []any{"x"}, nil)
	require.NoError(t, err)
	assert.Empty(t, count.Args)

	quoted, err := Render("select 'why?' from items where v = ?", "", params, []any{"x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, quoted.Args)
}

func TestRenderNamedPositionalParams(t *testing.T) {
	params := []Param{{Name: "a", Positional: true}, {Name: "id"}, {Name: "b", Positional: true}}
	args := []any{1, 7, "two"}

	out, err := Render("update t set x = ${b}, y = ${a} where id = ${id} and z = ${b}", "", params, args, nil)
	require.NoError(t, err)
	assert.Equal(t, "update t set x = ?, y = ? where id = 7 and z = ?", out.SQL)
	assert.Equal(t, []any{"two", 1, "two"}, out.Args)

	out, err = Render("delete from t where id = ${id}", "", params, args, nil)
	require.NoError(t, err)
	assert.Equal(t, "delete from t where id = 7", out.SQL)
	assert.Empty(t, out.Args)
}

func TestRenderDollarBinds(t *testing.T) {
	params := []Param{{Name: "a", Positional: true}, {Name: "b", Positional: true}}

	out, err := RenderBinds("select ${b} + ${a}", "", params, []any{1, 2}, nil, DollarBinds)
	require.NoError(t, err)
	assert.Equal(t, "select $1 + $2", out.SQL)
	assert.Equal(t, []any{2, 1}, out.Args)

	out, err = RenderBinds("select $1::int", "", params, []any{1, 2}, nil, DollarBinds)
	require.NoError(t, err)
	assert.Equal(t, "select $1::int", out.SQL)
	assert.Equal(t, []any{1}, out.Args)
}

func TestRenderIsDeterministic(t *testing.T) {
	params := []Param{{Name: "u", Fields: userFields}, {Name: "limit"}}
	args := []any{user{ID: 9, Name: "z"}, 10}
	tpl := "select ${u}.$name from ${table} where id = ${u}.$id limit ${limit}"

	first, err := Render(tpl, "users", params, args, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Render(tpl, "users", params, args, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRenderErrorsCarrySQL(t *testing.T) {
	_, err := Render("select ${u}.$nope", "", []Param{{Name: "u", Fields: userFields}}, []any{user{}}, nil)

	var se *sqlerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, sqlerr.KindRender, se.Kind)
	assert.Equal(t, "select ${u}.$nope", se.SQL)
}
