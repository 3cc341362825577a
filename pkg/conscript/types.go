package conscript

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the shape category of a parameter type.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindArray
	KindTuple
)

var kindNames = map[Kind]string{
	KindAny:    "var",
	KindString: "string",
	KindInt:    "int",
	KindFloat:  "float",
	KindBool:   "bool",
	KindArray:  "array",
	KindTuple:  "tuple",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Type describes the accepted shape of a parameter. Primitive types are
// literals; arrays hold any number of Elem values; tuples hold an ordered
// list of fields, each with an optional default.
type Type struct {
	Kind   Kind
	Name   string // registered name, empty for anonymous arrays and tuples
	Elem   *Type
	Fields []*ParamSpec
}

// String renders the type as it appears in a signature.
func (t *Type) String() string {
	if t.Name != "" {
		return t.Name
	}
	switch t.Kind {
	case KindArray:
		return t.Elem.String() + "[]"
	case KindTuple:
		return "(" + formatSpecs(t.Fields) + ")"
	}
	return t.Kind.String()
}

// ParamSpec is one typed slot of a signature.
type ParamSpec struct {
	Name     string
	Type     *Type
	Default  *Param // nil when the slot is required
	Variadic bool   // collects every remaining positional argument
}

// Optional reports whether the slot may be omitted.
func (s *ParamSpec) Optional() bool {
	return s.Default != nil || s.Variadic
}

func (s *ParamSpec) String() string {
	var sb strings.Builder
	sb.WriteString(s.Type.String())
	if s.Variadic {
		sb.WriteString("...")
	}
	sb.WriteString(" ")
	sb.WriteString(s.Name)
	if s.Default != nil {
		sb.WriteString(" = ")
		sb.WriteString(s.Default.String())
	}
	return sb.String()
}

func formatSpecs(specs []*ParamSpec) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// Definitions is a registry of named parameter types. Every Runner owns its
// own Definitions, pre-populated with the primitive kinds and the common
// composites Point, Vector, Size, Rectangle and Color.
type Definitions struct {
	types map[string]*Type
}

// NewDefinitions creates a registry holding the built-in types.
func NewDefinitions() *Definitions {
	d := &Definitions{types: make(map[string]*Type)}
	for _, k := range []Kind{KindString, KindInt, KindFloat, KindBool} {
		d.types[k.String()] = &Type{Kind: k}
	}
	d.types["var"] = &Type{Kind: KindAny}
	d.types["any"] = d.types["var"]

	builtins := []struct{ name, grammar string }{
		{"Point", "(int x, int y)"},
		{"Vector", "(float x, float y)"},
		{"Size", "(int width, int height)"},
		{"Rectangle", "(int x, int y, int width, int height)"},
		{"Color", "(int r, int g, int b, int a = 255)"},
	}
	for _, b := range builtins {
		if err := d.Define(b.name, b.grammar); err != nil {
			panic(fmt.Sprintf("builtin type %s: %v", b.name, err))
		}
	}
	return d
}

// Define compiles grammar, a parenthesized field list such as
// "(int r, int g, int b)", and registers it under name.
func (d *Definitions) Define(name, grammar string) error {
	if !isIdentifier(name) {
		return fmt.Errorf("invalid type name %q", name)
	}
	key := strings.ToLower(name)
	if _, exists := d.types[key]; exists {
		return fmt.Errorf("type %s is already defined", name)
	}
	p := newSigParser(d, grammar)
	t, err := p.parseType()
	if err == nil {
		err = p.expectEnd()
	}
	if err != nil {
		return fmt.Errorf("type %s: %w", name, err)
	}
	if t.Kind != KindTuple {
		return fmt.Errorf("type %s: expected a parenthesized field list", name)
	}
	named := *t
	named.Name = name
	d.types[key] = &named
	return nil
}

// Lookup finds a type by name (case-insensitive).
func (d *Definitions) Lookup(name string) (*Type, bool) {
	t, ok := d.types[strings.ToLower(name)]
	return t, ok
}

// Names returns the names of every composite type, sorted.
func (d *Definitions) Names() []string {
	var names []string
	for _, t := range d.types {
		if t.Kind == KindTuple {
			names = append(names, t.Name)
		}
	}
	sort.Strings(names)
	return names
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case '0' <= r && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
