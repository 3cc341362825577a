package assets

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/zurustar/conscript/pkg/conscript"
)

// NamedColor is one palette entry.
type NamedColor struct {
	Name  string
	Color color.RGBA
}

// Palette is an ordered list of named colors.
type Palette struct {
	Name   string
	Colors []NamedColor
}

// Lookup finds a color by name, ignoring case.
func (p *Palette) Lookup(name string) (color.RGBA, bool) {
	for _, c := range p.Colors {
		if strings.EqualFold(c.Name, name) {
			return c.Color, true
		}
	}
	return color.RGBA{}, false
}

// ColorPalette returns the colors as an image/color palette.
func (p *Palette) ColorPalette() color.Palette {
	out := make(color.Palette, len(p.Colors))
	for i, c := range p.Colors {
		out[i] = c.Color
	}
	return out
}

// paletteBlock is a PALETTE statement waiting for its END.
type paletteBlock struct {
	palette *Palette
	name    *conscript.Param
}

// Palettes registers PALETTE, COLOR and END.
//
//	PALETTE "ui";
//	    COLOR "text", (255, 255, 255);
//	    COLOR "shadow", 0, 0, 0, 128;
//	END;
//	PALETTE "title", "title.bmp";   # colors from an indexed BMP
type Palettes struct {
	// open holds the block being built in each file of the LOAD chain;
	// nil when the file is outside a block.
	open []*paletteBlock
}

// NewPalettes creates the palette module.
func NewPalettes() *Palettes {
	return &Palettes{}
}

// Register implements conscript.Module.
func (m *Palettes) Register(r *conscript.Runner) error {
	if err := r.AddModeCommand("PALETTE", []int{ModeRoot}, m.palette,
		"string name",
		"string name, string path",
	); err != nil {
		return err
	}
	if err := r.AddModeCommand("COLOR", []int{ModePalette}, m.color,
		"string name, Color color",
		"string name, int r, int g, int b, int a = 255",
	); err != nil {
		return err
	}
	return r.AddModeCommand("END", []int{ModePalette}, m.end)
}

// BeginReading implements conscript.ReadHooks.
func (m *Palettes) BeginReading(*conscript.Reader) {
	m.open = append(m.open, nil)
}

// EndReading implements conscript.ReadHooks.
func (m *Palettes) EndReading(r *conscript.Reader) error {
	n := len(m.open)
	if n == 0 {
		return nil
	}
	block := m.open[n-1]
	m.open = m.open[:n-1]
	if block != nil {
		return r.ParamErrorf(block.name, "PALETTE %q is missing END", block.palette.Name)
	}
	return nil
}

func (m *Palettes) palette(call *conscript.Call) error {
	nameArg := call.Arg("name")
	if pathArg := call.Arg("path"); pathArg != nil {
		return m.importPalette(call, nameArg, pathArg)
	}
	if len(m.open) == 0 {
		return call.Errorf("PALETTE used outside a script")
	}
	m.open[len(m.open)-1] = &paletteBlock{
		palette: &Palette{Name: nameArg.Str()},
		name:    nameArg,
	}
	call.SetMode(ModePalette)
	return nil
}

func (m *Palettes) importPalette(call *conscript.Call, nameArg, pathArg *conscript.Param) error {
	data, p, err := readContent(call, pathArg.Str())
	if err != nil {
		return err
	}
	info, err := readBMPInfo(bytes.NewReader(data))
	if err != nil {
		return &conscript.ContentError{Path: p, Err: err}
	}
	if len(info.Palette) == 0 {
		return call.ParamErrorf(pathArg, "%s has no color table (%d-bit image)", pathArg.Str(), info.BitCount)
	}
	pal := &Palette{Name: nameArg.Str()}
	for i, c := range info.Palette {
		pal.Colors = append(pal.Colors, NamedColor{
			Name:  fmt.Sprintf("%d", i),
			Color: color.RGBAModel.Convert(c).(color.RGBA),
		})
	}
	return add(call, nameArg, pal)
}

func (m *Palettes) color(call *conscript.Call) error {
	block := m.current()
	if block == nil {
		return call.Errorf("COLOR outside a PALETTE block")
	}

	var channels []*conscript.Param
	if c := call.Arg("color"); c != nil {
		channels = c.Children
	} else {
		channels = []*conscript.Param{call.Arg("r"), call.Arg("g"), call.Arg("b"), call.Arg("a")}
	}
	for _, ch := range channels {
		if v := ch.Int(); v < 0 || v > 255 {
			return call.ParamErrorf(ch, "color component %d out of range 0-255", v)
		}
	}

	nameArg := call.Arg("name")
	name := nameArg.Str()
	if _, ok := block.palette.Lookup(name); ok {
		return call.ParamErrorf(nameArg, "color %q already defined in palette %q", name, block.palette.Name)
	}
	block.palette.Colors = append(block.palette.Colors, NamedColor{
		Name: name,
		Color: color.RGBA{
			R: uint8(channels[0].Int()),
			G: uint8(channels[1].Int()),
			B: uint8(channels[2].Int()),
			A: uint8(channels[3].Int()),
		},
	})
	return nil
}

func (m *Palettes) end(call *conscript.Call) error {
	block := m.current()
	if block == nil {
		return call.Errorf("END without PALETTE")
	}
	m.open[len(m.open)-1] = nil
	call.SetMode(ModeRoot)
	if err := add(call, block.name, block.palette); err != nil {
		return err
	}
	call.Runner().Logger().Info("Palette defined", "name", block.palette.Name, "colors", len(block.palette.Colors))
	return nil
}

func (m *Palettes) current() *paletteBlock {
	if len(m.open) == 0 {
		return nil
	}
	return m.open[len(m.open)-1]
}
