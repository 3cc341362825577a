package assets

import (
	"fmt"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/zurustar/conscript/pkg/conscript"
)

// BuiltinFont is the path that selects the built-in bitmap face.
const BuiltinFont = "builtin"

// Font is a font asset. Face is nil unless fonts are decoded; the built-in
// face is always set.
type Font struct {
	Name   string
	Path   string
	Family string
	Glyphs int
	Size   float64
	Face   font.Face
}

// Fonts registers FONT.
//
//	FONT "body", "fonts/body.ttf", 14;
//	FONT "debug";                     # built-in 7x13 face
type Fonts struct {
	opts Options
}

// NewFonts creates the font module.
func NewFonts(opts Options) *Fonts {
	return &Fonts{opts: opts}
}

// Register implements conscript.Module.
func (m *Fonts) Register(r *conscript.Runner) error {
	return r.AddModeCommand("FONT", []int{ModeRoot}, m.font,
		`string name, string path = "builtin", float size = 12`,
	)
}

func (m *Fonts) font(call *conscript.Call) error {
	nameArg, pathArg, sizeArg := call.Arg("name"), call.Arg("path"), call.Arg("size")
	f := &Font{Name: nameArg.Str(), Size: sizeArg.Float()}
	if f.Size <= 0 {
		return call.ParamErrorf(sizeArg, "font size must be positive, got %g", f.Size)
	}

	if strings.EqualFold(pathArg.Str(), BuiltinFont) {
		face := basicfont.Face7x13
		f.Path = BuiltinFont
		f.Family = "basicfont 7x13"
		f.Size = float64(face.Height)
		f.Face = face
		return add(call, nameArg, f)
	}

	data, p, err := readContent(call, pathArg.Str())
	if err != nil {
		return err
	}
	f.Path = p
	parsed, err := parseFont(data)
	if err != nil {
		return &conscript.ContentError{Path: p, Err: err}
	}
	f.Glyphs = parsed.NumGlyphs()
	var buf sfnt.Buffer
	if family, err := parsed.Name(&buf, sfnt.NameIDFamily); err == nil {
		f.Family = family
	}

	if m.opts.Decode {
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    f.Size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return &conscript.ContentError{Path: p, Err: fmt.Errorf("failed to create face: %w", err)}
		}
		f.Face = face
	}

	call.Runner().Logger().Debug("Font loaded", "name", f.Name, "family", f.Family, "glyphs", f.Glyphs, "size", f.Size)
	return add(call, nameArg, f)
}

// parseFont parses a TrueType/OpenType font, taking the first face of a
// collection.
func parseFont(data []byte) (*sfnt.Font, error) {
	f, err := opentype.Parse(data)
	if err == nil {
		return f, nil
	}
	collection, collErr := opentype.ParseCollection(data)
	if collErr != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	if collection.NumFonts() == 0 {
		return nil, fmt.Errorf("font collection is empty")
	}
	return collection.Font(0)
}
