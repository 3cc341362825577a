package conscript

import "strings"

// Bind matches args, an array of statement arguments, against the
// signature. On success it returns a new array whose children follow the
// signature order, each named after its slot, with omitted optional slots
// filled from their defaults and variadic slots gathered into an array.
func (s *Signature) Bind(args *Param) (*Param, bool) {
	return bindList(s.Params, args)
}

// bindList performs positional then named binding of list against specs.
func bindList(specs []*ParamSpec, list *Param) (*Param, bool) {
	if !list.IsArray() {
		return nil, false
	}
	slots := make([]*Param, len(specs))

	positional := list.Children[:list.PositionalCount()]
	for i, arg := range positional {
		if i >= len(specs) {
			return nil, false
		}
		spec := specs[i]
		if spec.Variadic {
			rest, ok := bindVariadic(spec, positional[i:], arg)
			if !ok {
				return nil, false
			}
			slots[i] = rest
			break
		}
		v, ok := matchValue(spec.Type, arg)
		if !ok {
			return nil, false
		}
		slots[i] = v
	}

	for _, arg := range list.Named {
		idx := specIndex(specs, arg.Name)
		if idx < 0 || slots[idx] != nil {
			return nil, false
		}
		t := specs[idx].Type
		if specs[idx].Variadic {
			t = &Type{Kind: KindArray, Elem: t}
		}
		v, ok := matchValue(t, arg)
		if !ok {
			return nil, false
		}
		slots[idx] = v
	}

	out := NewArray(list.Line, list.Column)
	for i, spec := range specs {
		v := slots[i]
		if v == nil {
			switch {
			case spec.Default != nil:
				v = spec.Default.Clone()
				relocate(v, list.Line, list.Column)
			case spec.Variadic:
				v = NewArray(list.Line, list.Column)
				v.typ = &Type{Kind: KindArray, Elem: spec.Type}
			default:
				return nil, false
			}
		}
		v.Name = spec.Name
		out.append(v)
	}
	return out, true
}

func bindVariadic(spec *ParamSpec, rest []*Param, first *Param) (*Param, bool) {
	arr := NewArray(first.Line, first.Column)
	arr.typ = &Type{Kind: KindArray, Elem: spec.Type}
	for _, arg := range rest {
		v, ok := matchValue(spec.Type, arg)
		if !ok {
			return nil, false
		}
		arr.append(v)
	}
	return arr, true
}

func specIndex(specs []*ParamSpec, name string) int {
	for i, s := range specs {
		if strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}

// matchValue checks p against t and returns a typed copy of it.
func matchValue(t *Type, p *Param) (*Param, bool) {
	switch t.Kind {
	case KindAny:
		v := p.Clone()
		v.typ = t
		return v, true

	case KindString:
		if p.IsArray() {
			return nil, false
		}

	case KindInt:
		if p.IsArray() || p.Quoted {
			return nil, false
		}
		if _, err := p.ParseInt(); err != nil {
			return nil, false
		}

	case KindFloat:
		if p.IsArray() || p.Quoted {
			return nil, false
		}
		if _, err := p.ParseFloat(); err != nil {
			return nil, false
		}

	case KindBool:
		if p.IsArray() || p.Quoted {
			return nil, false
		}
		if _, err := p.ParseBool(); err != nil {
			return nil, false
		}

	case KindArray:
		if !p.IsArray() || len(p.Named) > 0 {
			return nil, false
		}
		arr := NewArray(p.Line, p.Column)
		arr.Name = p.Name
		arr.typ = t
		for _, c := range p.Children {
			v, ok := matchValue(t.Elem, c)
			if !ok {
				return nil, false
			}
			arr.append(v)
		}
		return arr, true

	case KindTuple:
		v, ok := bindList(t.Fields, p)
		if !ok {
			return nil, false
		}
		v.Name = p.Name
		v.typ = t
		return v, true

	default:
		return nil, false
	}

	v := NewLiteral(p.Text, p.Quoted, p.Line, p.Column)
	v.Name = p.Name
	v.typ = t
	return v, true
}

// relocate moves a default value tree to the position it is blamed at.
func relocate(p *Param, line, column int) {
	p.Line, p.Column = line, column
	for _, c := range p.Children {
		relocate(c, line, column)
	}
}
