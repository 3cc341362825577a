package conscript

import (
	"strings"
	"testing"
)

func TestDefinitions_Builtins(t *testing.T) {
	d := NewDefinitions()
	for _, name := range []string{"string", "int", "float", "bool", "var", "any", "point", "Color", "RECTANGLE", "Size", "Vector"} {
		if _, ok := d.Lookup(name); !ok {
			t.Errorf("Lookup(%q) not found", name)
		}
	}
	want := []string{"Color", "Point", "Rectangle", "Size", "Vector"}
	if got := d.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	c, _ := d.Lookup("Color")
	if c.Kind != KindTuple || len(c.Fields) != 4 || c.Fields[3].Default == nil {
		t.Errorf("Color should be a 4-field tuple with a default alpha, got %+v", c)
	}
}

func TestDefinitions_Define(t *testing.T) {
	d := NewDefinitions()
	if err := d.Define("Range", "(int min, int max)"); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if _, err := d.Compile("Range r, Range[] more"); err != nil {
		t.Errorf("Compile with custom type: %v", err)
	}

	bad := []struct{ name, grammar string }{
		{"Range", "(int a)"},        // duplicate
		{"9lives", "(int a)"},       // invalid identifier
		{"Scalar", "int"},           // not a tuple
		{"Empty", "()"},             // empty tuple
		{"Broken", "(int a, int"},   // unterminated
		{"Unknown", "(widget w)"},   // unknown field type
		{"Trailing", "(int a) int"}, // garbage after
	}
	for _, b := range bad {
		if err := d.Define(b.name, b.grammar); err == nil {
			t.Errorf("Define(%q, %q) should fail", b.name, b.grammar)
		}
	}
}

func TestCompile(t *testing.T) {
	d := NewDefinitions()
	tests := []struct {
		grammar string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"string path", "string path", false},
		{"string path, bool keepTempResources = false", "string path, bool keepTempResources = false", false},
		{"float volume = 1, int instances = 0x2", "float volume = 1, int instances = 0x2", false},
		{`string label = "hello, world"`, `string label = "hello, world"`, false},
		{"Point p", "Point p", false},
		{"(int x, int y) offset", "(int x, int y) offset", false},
		{"int[] values", "int[] values", false},
		{"string name, int... frames", "string name, int... frames", false},
		{"var anything", "var anything", false},

		{"int", "", true},              // missing name
		{"widget w", "", true},         // unknown type
		{"int a, int a", "", true},     // duplicate
		{"int a = 1, int b", "", true}, // required after optional
		{"int... a, int b", "", true},  // variadic not last
		{"int... a = 1", "", true},     // variadic default
		{"int a = x", "", true},        // default type mismatch
		{"int a =", "", true},          // missing default
		{"int a b", "", true},          // junk
		{"Color c = (1, 2)", "", true}, // default too short
	}

	for _, tt := range tests {
		t.Run(tt.grammar, func(t *testing.T) {
			sig, err := d.Compile(tt.grammar)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Compile(%q) error = %v, wantErr %v", tt.grammar, err, tt.wantErr)
			}
			if err == nil && sig.String() != tt.want {
				t.Errorf("Compile(%q).String() = %q, want %q", tt.grammar, sig.String(), tt.want)
			}
		})
	}
}

// bindStatement parses "args" as the argument list of a statement.
func bindStatement(t *testing.T, grammar, args string) (*Param, bool) {
	t.Helper()
	sig, err := NewDefinitions().Compile(grammar)
	if err != nil {
		t.Fatalf("Compile(%q): %v", grammar, err)
	}
	list, err := ParseValue("(" + args + ")")
	if err != nil {
		t.Fatalf("ParseValue(%q): %v", args, err)
	}
	return sig.Bind(list)
}

func TestSignature_Bind(t *testing.T) {
	sound := "string name, string path, float volume = 1, float pitch = 0, float pan = 0, bool muted = false, int instances = 1"

	tests := []struct {
		name    string
		grammar string
		args    string
		want    string // bound tree rendered, "" for no match
	}{
		{"defaults filled", sound, `"click", "ui/click.wav", 0.8`,
			`(name:"click", path:"ui/click.wav", volume:0.8, pitch:0, pan:0, muted:false, instances:1)`},
		{"named reorder", sound, `"a", "b", instances:4, pan:-0.5`,
			`(name:"a", path:"b", volume:1, pitch:0, pan:-0.5, muted:false, instances:4)`},
		{"all named", "int a, int b", "b:2, a:1", "(a:1, b:2)"},
		{"named case-insensitive", "int width", "WIDTH:3", "(width:3)"},
		{"bare word is a string", "string s", "hello", "(s:hello)"},
		{"number is a string", "string s", "12", "(s:12)"},
		{"var takes arrays", "var v", "(1, 2)", "(v:(1, 2))"},
		{"tuple binding", "Color c", "(1, 2, 3)", "(c:(r:1, g:2, b:3, a:255))"},
		{"tuple named fields", "Point p", "(y:2, x:1)", "(p:(x:1, y:2))"},
		{"array of ints", "int[] v", "(1, 2, 3)", "(v:(1, 2, 3))"},
		{"empty array", "int[] v", "()", "(v:())"},
		{"nested arrays", "Point[] path", "((0, 0), (1, 1))", "(path:((x:0, y:0), (x:1, y:1)))"},
		{"variadic", "string n, int... f", "a, 1, 2, 3", "(n:a, f:(1, 2, 3))"},
		{"variadic empty", "string n, int... f", "a", "(n:a, f:())"},
		{"variadic named", "string n, int... f", "a, f:(4, 5)", "(n:a, f:(4, 5))"},
		{"no params", "", "", "()"},

		{"too many", "int a", "1, 2", ""},
		{"missing required", "int a, int b", "1", ""},
		{"quoted is not int", "int a", `"1"`, ""},
		{"float is not int", "int a", "1.5", ""},
		{"array is not string", "string s", "(a)", ""},
		{"literal is not tuple", "Point p", "3", ""},
		{"unknown name", "int a", "b:1", ""},
		{"name given twice", "int a", "1, a:2", ""},
		{"bad variadic element", "int... f", "1, x", ""},
		{"named array elements", "int[] v", "(a:1)", ""},
		{"no params given one", "", "1", ""},
		{"not a bool", "bool b", "yes", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bound, ok := bindStatement(t, tt.grammar, tt.args)
			if tt.want == "" {
				if ok {
					t.Fatalf("Bind(%q) = %s, want no match", tt.args, bound)
				}
				return
			}
			if !ok {
				t.Fatalf("Bind(%q) did not match %q", tt.args, tt.grammar)
			}
			if got := bound.String(); got != tt.want {
				t.Errorf("Bind(%q) = %s, want %s", tt.args, got, tt.want)
			}
		})
	}
}

func TestSignature_BindTypesAndPositions(t *testing.T) {
	bound, ok := bindStatement(t, "string name, Color c = (0, 0, 0)", `"x"`)
	if !ok {
		t.Fatal("expected match")
	}
	c := bound.Get("c")
	if c.Type() == nil || c.Type().Name != "Color" {
		t.Errorf("default should be typed Color, got %v", c.Type())
	}
	if c.Get("a").Int() != 255 {
		t.Errorf("nested default alpha = %d, want 255", c.Get("a").Int())
	}
	// defaults are blamed at the statement
	if c.Line != bound.Line || c.Column != bound.Column || c.Child(0).Column != bound.Column {
		t.Errorf("default position = %d:%d, want %d:%d", c.Line, c.Column, bound.Line, bound.Column)
	}

	// a second bind must not share the default tree
	again, _ := bindStatement(t, "string name, Color c = (0, 0, 0)", `"y"`)
	if again.Get("c") == c {
		t.Error("defaults should be cloned per bind")
	}

	name := bound.Get("name")
	if name.Type().Kind != KindString || !name.Quoted {
		t.Errorf("name = %+v, want a quoted string", name)
	}
	// "(" is at column 0, so "x" starts at column 1
	if name.Column != 1 {
		t.Errorf("name column = %d, want 1", name.Column)
	}
}
