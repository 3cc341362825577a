package conscript

import (
	"image"
	"image/color"
	"testing"
)

func TestParam_ParseInt(t *testing.T) {
	tests := []struct {
		text    string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{"-7", -7, false},
		{"+3", 3, false},
		{"0x1F", 31, false},
		{"-0x10", -16, false},
		{"1.5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"-", 0, true},
		{"--5", 0, true},
		{"+-5", 0, true},
		{"-+5", 0, true},
		{"++5", 0, true},
		{"0x-5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := NewLiteral(tt.text, false, 0, 0).ParseInt()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInt(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseInt(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParam_ParseFloatAndBool(t *testing.T) {
	if v, err := NewLiteral("0.8", false, 0, 0).ParseFloat(); err != nil || v != 0.8 {
		t.Errorf("ParseFloat(0.8) = %v, %v", v, err)
	}
	if _, err := NewLiteral("loud", false, 0, 0).ParseFloat(); err == nil {
		t.Error("ParseFloat(loud) should fail")
	}
	for text, want := range map[string]bool{"true": true, "FALSE": false, "True": true} {
		v, err := NewLiteral(text, false, 0, 0).ParseBool()
		if err != nil || v != want {
			t.Errorf("ParseBool(%q) = %v, %v; want %v", text, v, err, want)
		}
	}
	if _, err := NewLiteral("1", false, 0, 0).ParseBool(); err == nil {
		t.Error("ParseBool(1) should fail")
	}
	if _, err := NewArray(0, 0).ParseInt(); err == nil {
		t.Error("ParseInt on an array should fail")
	}
}

func TestParam_NamedChildren(t *testing.T) {
	arr := NewArray(0, 0)
	arr.append(NewLiteral("a", false, 0, 1))
	b := NewLiteral("2", false, 0, 3)
	b.Name = "Width"
	arr.append(b)

	if arr.Len() != 2 || arr.PositionalCount() != 1 {
		t.Fatalf("Len = %d, PositionalCount = %d", arr.Len(), arr.PositionalCount())
	}
	if got := arr.Get("width"); got != b {
		t.Errorf("Get(width) = %v, want the named child", got)
	}
	if !arr.Has("WIDTH") || arr.Has("height") {
		t.Error("Has should match names case-insensitively")
	}
	if b.Parent != arr {
		t.Error("append should set Parent")
	}
	if arr.Child(5) != nil || arr.Child(-1) != nil {
		t.Error("Child out of range should be nil")
	}
}

func TestParam_Clone(t *testing.T) {
	p, err := ParseValue(`(1, (2, "x"), k:3)`)
	if err != nil {
		t.Fatalf("ParseValue: %v", err)
	}
	c := p.Clone()
	if c.String() != p.String() {
		t.Errorf("Clone().String() = %q, want %q", c.String(), p.String())
	}
	if c.Child(1) == p.Child(1) {
		t.Error("Clone should copy children deeply")
	}
	if c.Child(1).Parent != c {
		t.Error("cloned children should point at the cloned parent")
	}
	if c.Get("k") == nil {
		t.Error("Clone should keep named children")
	}
}

func TestParam_Accessors(t *testing.T) {
	pt, _ := ParseValue("(3, -4)")
	if got := pt.Point(); got != image.Pt(3, -4) {
		t.Errorf("Point() = %v", got)
	}

	rect, _ := ParseValue("(10, 20, 30, 40)")
	if got := rect.Rectangle(); got != image.Rect(10, 20, 40, 60) {
		t.Errorf("Rectangle() = %v", got)
	}

	rgb, _ := ParseValue("(255, 128, 0)")
	if got := rgb.Color(); got != (color.RGBA{R: 255, G: 128, B: 0, A: 255}) {
		t.Errorf("Color() = %v, want opaque orange", got)
	}
	clamped, _ := ParseValue("(300, -5, 0, 64)")
	if got := clamped.Color(); got != (color.RGBA{R: 255, G: 0, B: 0, A: 64}) {
		t.Errorf("Color() = %v, want clamped components", got)
	}

	list, _ := ParseValue(`(a, "b c", 3)`)
	if got := list.Strings(); len(got) != 3 || got[1] != "b c" {
		t.Errorf("Strings() = %q", got)
	}
	nums, _ := ParseValue("(1, 2, 0x10)")
	if got := nums.Ints(); len(got) != 3 || got[2] != 16 {
		t.Errorf("Ints() = %v", got)
	}
	fl, _ := ParseValue("(0.5, 2)")
	if got := fl.Floats(); len(got) != 2 || got[0] != 0.5 || got[1] != 2 {
		t.Errorf("Floats() = %v", got)
	}

	var nilParam *Param
	if nilParam.Str() != "" || nilParam.Int() != 0 || nilParam.Bool() || nilParam.Len() != 0 {
		t.Error("accessors on a nil Param should return zero values")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		text    string
		want    string
		wantErr bool
	}{
		{"42", "42", false},
		{`"hello world"`, `"hello world"`, false},
		{`""`, `""`, false},
		{"(1,2 , 3)", "(1, 2, 3)", false},
		{"((a), b)", "((a), b)", false},
		{"(x:1, y:2)", "(x:1, y:2)", false},
		{"(1, 2", "", true},
		{"1 2", "", true},
		{"", "", true},
		{"a;", "", true},
		{"@", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p, err := ParseValue(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseValue(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
			if err == nil && p.String() != tt.want {
				t.Errorf("ParseValue(%q) = %q, want %q", tt.text, p.String(), tt.want)
			}
			if err == nil && p.Parent != nil {
				t.Error("ParseValue result should have no parent")
			}
		})
	}
}
