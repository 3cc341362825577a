package conscript

import (
	"fmt"
	"strings"
	"unicode"
)

// Signature is one accepted overload of a command: an ordered list of typed
// slots. Trailing slots may carry defaults; the last slot may be variadic.
type Signature struct {
	Params []*ParamSpec
}

// String renders the canonical form of the signature, e.g.
// "string name, float volume = 1".
func (s *Signature) String() string {
	return formatSpecs(s.Params)
}

// Compile parses a signature grammar such as
//
//	string name, string path, float volume = 1, (int x, int y) offset = (0, 0)
//
// Types are primitive names, registered composite names, parenthesized
// inline tuples, and any of those followed by "[]". A "..." after the type
// marks the final slot as variadic.
func (d *Definitions) Compile(grammar string) (*Signature, error) {
	p := newSigParser(d, grammar)
	specs, err := p.parseList(0)
	if err != nil {
		return nil, fmt.Errorf("signature %q: %w", grammar, err)
	}
	if err := p.expectEnd(); err != nil {
		return nil, fmt.Errorf("signature %q: %w", grammar, err)
	}
	return &Signature{Params: specs}, nil
}

type sigParser struct {
	defs *Definitions
	src  []rune
	pos  int
}

func newSigParser(defs *Definitions, src string) *sigParser {
	return &sigParser{defs: defs, src: []rune(src)}
}

func (p *sigParser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *sigParser) hasPrefix(s string) bool {
	return strings.HasPrefix(string(p.src[p.pos:]), s)
}

func (p *sigParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *sigParser) expectEnd() error {
	p.skipSpace()
	if p.pos < len(p.src) {
		return fmt.Errorf("unexpected %q at offset %d", p.src[p.pos], p.pos)
	}
	return nil
}

func (p *sigParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if r == '_' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos++
			continue
		}
		break
	}
	return string(p.src[start:p.pos])
}

// parseList parses comma-separated slots up to closing, which is left
// unconsumed. A closing of 0 means end of input.
func (p *sigParser) parseList(closing rune) ([]*ParamSpec, error) {
	var specs []*ParamSpec
	p.skipSpace()
	if p.peek() == closing {
		return specs, nil
	}
	for {
		spec, err := p.parseSpec()
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
		p.skipSpace()
		c := p.peek()
		if c == ',' {
			p.pos++
			continue
		}
		if c == closing {
			break
		}
		if c == 0 {
			return nil, fmt.Errorf("missing %q", closing)
		}
		return nil, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
	}
	return specs, validateSpecs(specs)
}

func validateSpecs(specs []*ParamSpec) error {
	seen := make(map[string]bool)
	optional := false
	for i, s := range specs {
		key := strings.ToLower(s.Name)
		if seen[key] {
			return fmt.Errorf("duplicate parameter %q", s.Name)
		}
		seen[key] = true
		if s.Variadic && i != len(specs)-1 {
			return fmt.Errorf("variadic parameter %q must be last", s.Name)
		}
		if s.Optional() {
			optional = true
		} else if optional {
			return fmt.Errorf("required parameter %q follows an optional one", s.Name)
		}
	}
	return nil
}

func (p *sigParser) parseType() (*Type, error) {
	p.skipSpace()
	var t *Type
	if p.peek() == '(' {
		p.pos++
		fields, err := p.parseList(')')
		if err != nil {
			return nil, err
		}
		p.pos++ // ')'
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty tuple type")
		}
		t = &Type{Kind: KindTuple, Fields: fields}
	} else {
		name := p.ident()
		if name == "" {
			return nil, fmt.Errorf("expected type at offset %d", p.pos)
		}
		found, ok := p.defs.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown type %q", name)
		}
		t = found
	}
	for {
		p.skipSpace()
		if !p.hasPrefix("[]") {
			break
		}
		p.pos += 2
		t = &Type{Kind: KindArray, Elem: t}
	}
	return t, nil
}

func (p *sigParser) parseSpec() (*ParamSpec, error) {
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	spec := &ParamSpec{Type: t}
	p.skipSpace()
	if p.hasPrefix("...") {
		p.pos += 3
		spec.Variadic = true
		p.skipSpace()
	}
	spec.Name = p.ident()
	if spec.Name == "" {
		return nil, fmt.Errorf("expected parameter name after %s", t)
	}
	p.skipSpace()
	if p.peek() != '=' {
		return spec, nil
	}
	p.pos++
	if spec.Variadic {
		return nil, fmt.Errorf("variadic parameter %q cannot have a default", spec.Name)
	}
	text := p.defaultText()
	if text == "" {
		return nil, fmt.Errorf("missing default value for %q", spec.Name)
	}
	value, err := ParseValue(text)
	if err != nil {
		return nil, fmt.Errorf("default value for %q: %w", spec.Name, err)
	}
	bound, ok := matchValue(t, value)
	if !ok {
		return nil, fmt.Errorf("default value %s does not match type %s", text, t)
	}
	spec.Default = bound
	return spec, nil
}

// defaultText consumes raw default-value text up to the next top-level ','
// or ')'.
func (p *sigParser) defaultText() string {
	start := p.pos
	depth := 0
	quoted := false
	for ; p.pos < len(p.src); p.pos++ {
		r := p.src[p.pos]
		if r == '"' {
			quoted = !quoted
			continue
		}
		if quoted {
			continue
		}
		if r == '(' {
			depth++
		} else if r == ')' {
			if depth == 0 {
				break
			}
			depth--
		} else if r == ',' && depth == 0 {
			break
		}
	}
	return strings.TrimSpace(string(p.src[start:p.pos]))
}
