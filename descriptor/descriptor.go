package descriptor

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/sqlrepo/connector"
	"github.com/Konsultn-Engineering/sqlrepo/template"
)

// Kind is the shape of an operation: one statement or an ordered group run in
// a single transaction.
type Kind uint8

const (
	KindQuery Kind = iota + 1
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// Scope controls how prepared statements are reused across invocations.
type Scope uint8

const (
	// ScopeNone prepares a fresh statement per invocation and closes it after.
	ScopeNone Scope = iota
	// ScopeSingleton shares one statement per template within a binding.
	ScopeSingleton
	// ScopePrototype clones the shared statement so each invocation binds its
	// own arguments.
	ScopePrototype
)

var scopeNames = map[Scope]string{
	ScopeNone:      "none",
	ScopeSingleton: "singleton",
	ScopePrototype: "prototype",
}

func (s Scope) String() string {
	if n, ok := scopeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("scope(%d)", uint8(s))
}

func (s *Scope) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	if name == "" {
		*s = ScopeNone
		return nil
	}
	for k, v := range scopeNames {
		if v == name {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown scope %q", text)
}

// AsyncMode selects how the caller relates to an asynchronous invocation.
type AsyncMode uint8

const (
	// SubmitOnly schedules the work and returns at once. Failures are logged.
	SubmitOnly AsyncMode = iota
	// JoinBlocking schedules the work and waits for it.
	JoinBlocking
	// JoinFuture schedules the work and waits on a future, giving up early if
	// the caller's context ends.
	JoinFuture
)

var asyncModeNames = map[AsyncMode]string{
	SubmitOnly:   "submit",
	JoinBlocking: "blocking",
	JoinFuture:   "future",
}

func (m AsyncMode) String() string {
	if n, ok := asyncModeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("async(%d)", uint8(m))
}

func (m *AsyncMode) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for k, v := range asyncModeNames {
		if v == name {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown async mode %q", text)
}

// Param declares one argument of an operation.
type Param struct {
	Name string `json:"name" yaml:"name"`
	// Type is needed only when templates use ${name}.$field paths; accessors
	// for it must be registered with RegisterFields or RegisterStruct.
	Type       reflect.Type `json:"-" yaml:"-"`
	Positional bool         `json:"positional" yaml:"positional"`
}

// ParamOf declares a parameter whose field paths are read from T.
func ParamOf[T any](name string) Param {
	return Param{Name: name, Type: reflect.TypeFor[T]()}
}

// Positional declares a parameter handed to the driver as a bind argument.
func Positional(name string) Param {
	return Param{Name: name, Positional: true}
}

// Metadata is the declarative form of an operation. Exactly one of Query and
// Transaction must be set.
type Metadata struct {
	Query       string    `json:"query,omitempty" yaml:"query,omitempty"`
	Transaction []string  `json:"transaction,omitempty" yaml:"transaction,omitempty"`
	Params      []Param   `json:"params,omitempty" yaml:"params,omitempty"`
	Scope       Scope     `json:"scope" yaml:"scope"`
	Async       bool      `json:"async" yaml:"async"`
	AsyncMode   AsyncMode `json:"async_mode" yaml:"async_mode"`
	NoResponse  bool      `json:"no_response" yaml:"no_response"`

	// Repository names the binding the operation runs on. Operations of the
	// same repository share one connection and one statement cache.
	Repository string           `json:"repository" yaml:"repository"`
	Table      string           `json:"table,omitempty" yaml:"table,omitempty"`
	Connection connector.Config `json:"connection" yaml:"connection"`
}

// Descriptor is resolved, validated Metadata. It never changes after
// resolution.
type Descriptor struct {
	Identity   string
	Kind       Kind
	Templates  []string
	Params     []template.Param
	Scope      Scope
	Async      bool
	AsyncMode  AsyncMode
	NoResponse bool
	Repository string
	Table      string
	Connection connector.Config
}

// Template returns the single template of a query operation.
func (d *Descriptor) Template() string {
	if len(d.Templates) == 0 {
		return ""
	}
	return d.Templates[0]
}
