// Package conscript implements the conscript asset-description language:
// a character-level tokenizer producing parameter trees, a command registry
// resolving typed overloads filtered by reader mode, and a runner that
// executes scripts (including nested LOAD directives) against resource stores.
package conscript

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Param is a node of a parsed statement. It is either an array holding
// ordered children, or a literal holding the raw text of a word or quoted
// string. Line and Column are 0-based positions of the node's first
// character and are used to blame a specific argument in diagnostics.
type Param struct {
	Name   string
	Parent *Param

	Line   int
	Column int

	// Children lists every child in source order. Named is the subset of
	// Children that carry a Name, also in source order.
	Children []*Param
	Named    []*Param

	// Text is the raw literal text. Quoted reports whether it came from a
	// quoted string.
	Text   string
	Quoted bool

	array bool
	typ   *Type
}

// NewArray creates an empty array parameter at the given position.
func NewArray(line, column int) *Param {
	return &Param{Line: line, Column: column, array: true}
}

// NewLiteral creates a literal parameter at the given position.
func NewLiteral(text string, quoted bool, line, column int) *Param {
	return &Param{Text: text, Quoted: quoted, Line: line, Column: column}
}

// IsArray reports whether p is an array node.
func (p *Param) IsArray() bool {
	return p != nil && p.array
}

// Type returns the type p was bound to by overload matching, or nil for
// unbound parameters.
func (p *Param) Type() *Type {
	return p.typ
}

// Len returns the number of children of an array, or 0 for a literal.
func (p *Param) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Children)
}

// Child returns the i-th child, or nil when out of range.
func (p *Param) Child(i int) *Param {
	if p == nil || i < 0 || i >= len(p.Children) {
		return nil
	}
	return p.Children[i]
}

// Get returns the named child with the given name (case-insensitive).
func (p *Param) Get(name string) *Param {
	if p == nil {
		return nil
	}
	for _, c := range p.Named {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Has reports whether p has a named child with the given name.
func (p *Param) Has(name string) bool {
	return p.Get(name) != nil
}

// PositionalCount returns the number of unnamed children. Because named
// children always trail, these are Children[:PositionalCount()].
func (p *Param) PositionalCount() int {
	return len(p.Children) - len(p.Named)
}

// append links child under p, registering it as named when it has a name.
func (p *Param) append(child *Param) {
	child.Parent = p
	p.Children = append(p.Children, child)
	if child.Name != "" {
		p.Named = append(p.Named, child)
	}
}

// last returns the most recently appended child.
func (p *Param) last() *Param {
	if len(p.Children) == 0 {
		return nil
	}
	return p.Children[len(p.Children)-1]
}

// Clone returns a deep copy of p with no parent.
func (p *Param) Clone() *Param {
	if p == nil {
		return nil
	}
	c := &Param{
		Name:   p.Name,
		Line:   p.Line,
		Column: p.Column,
		Text:   p.Text,
		Quoted: p.Quoted,
		array:  p.array,
		typ:    p.typ,
	}
	for _, child := range p.Children {
		c.append(child.Clone())
	}
	return c
}

// ParseInt parses the literal as a decimal or 0x-prefixed hexadecimal integer.
func (p *Param) ParseInt() (int, error) {
	if p.IsArray() {
		return 0, fmt.Errorf("expected integer, got array")
	}
	text := p.Text
	base := 10
	neg := false
	if text != "" && (text[0] == '+' || text[0] == '-') {
		neg = text[0] == '-'
		text = text[1:]
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		text = text[2:]
	}
	// one sign only; strconv would accept a second one
	if text == "" || text[0] == '+' || text[0] == '-' {
		return 0, fmt.Errorf("invalid integer %q", p.Text)
	}
	v, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", p.Text)
	}
	if neg {
		v = -v
	}
	return int(v), nil
}

// ParseFloat parses the literal as a floating point number.
func (p *Param) ParseFloat() (float64, error) {
	if p.IsArray() {
		return 0, fmt.Errorf("expected number, got array")
	}
	v, err := strconv.ParseFloat(p.Text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.Text)
	}
	return v, nil
}

// ParseBool parses the literal "true" or "false" (case-insensitive).
func (p *Param) ParseBool() (bool, error) {
	if p.IsArray() {
		return false, fmt.Errorf("expected boolean, got array")
	}
	switch strings.ToLower(p.Text) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", p.Text)
}

// Str returns the literal text. Arrays render as script text.
func (p *Param) Str() string {
	if p == nil {
		return ""
	}
	if p.array {
		return p.String()
	}
	return p.Text
}

// Int returns the integer value, or 0 when the literal is not an integer.
func (p *Param) Int() int {
	if p == nil {
		return 0
	}
	v, _ := p.ParseInt()
	return v
}

// Float returns the numeric value, or 0 when the literal is not a number.
func (p *Param) Float() float64 {
	if p == nil {
		return 0
	}
	v, _ := p.ParseFloat()
	return v
}

// Bool returns the boolean value, or false when the literal is not a boolean.
func (p *Param) Bool() bool {
	if p == nil {
		return false
	}
	v, _ := p.ParseBool()
	return v
}

// Point converts an (x, y) array.
func (p *Param) Point() image.Point {
	return image.Pt(p.Child(0).Int(), p.Child(1).Int())
}

// Rectangle converts an (x, y, width, height) array.
func (p *Param) Rectangle() image.Rectangle {
	x, y := p.Child(0).Int(), p.Child(1).Int()
	return image.Rect(x, y, x+p.Child(2).Int(), y+p.Child(3).Int())
}

// Color converts an (r, g, b[, a]) array. A missing alpha is opaque.
func (p *Param) Color() color.RGBA {
	a := 255
	if p.Len() > 3 {
		a = p.Child(3).Int()
	}
	return color.RGBA{
		R: clampByte(p.Child(0).Int()),
		G: clampByte(p.Child(1).Int()),
		B: clampByte(p.Child(2).Int()),
		A: clampByte(a),
	}
}

// Strings returns the literal text of every child.
func (p *Param) Strings() []string {
	out := make([]string, 0, p.Len())
	for _, c := range p.Children {
		out = append(out, c.Str())
	}
	return out
}

// Ints returns the integer value of every child.
func (p *Param) Ints() []int {
	out := make([]int, 0, p.Len())
	for _, c := range p.Children {
		out = append(out, c.Int())
	}
	return out
}

// Floats returns the numeric value of every child.
func (p *Param) Floats() []float64 {
	out := make([]float64, 0, p.Len())
	for _, c := range p.Children {
		out = append(out, c.Float())
	}
	return out
}

// String renders p back as script text.
func (p *Param) String() string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	p.render(&sb)
	return sb.String()
}

func (p *Param) render(sb *strings.Builder) {
	if p.Name != "" {
		sb.WriteString(p.Name)
		sb.WriteString(":")
	}
	if !p.array {
		if p.Quoted {
			sb.WriteString(`"` + p.Text + `"`)
		} else {
			sb.WriteString(p.Text)
		}
		return
	}
	sb.WriteString("(")
	for i, c := range p.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		c.render(sb)
	}
	sb.WriteString(")")
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
