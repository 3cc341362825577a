package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/zurustar/conscript/pkg/conscript"
)

// Image is an image asset. Data is nil unless images are decoded.
type Image struct {
	Name   string
	Path   string // empty for blank images
	Format string // "bmp", "png", ... or "blank"
	Size   image.Point
	Data   image.Image
}

// Images registers IMAGE.
//
//	IMAGE "tiles", "tiles.bmp";
//	IMAGE "canvas", (320, 240), (0, 0, 0);
type Images struct {
	opts Options
}

// NewImages creates the image module.
func NewImages(opts Options) *Images {
	return &Images{opts: opts}
}

// Register implements conscript.Module.
func (m *Images) Register(r *conscript.Runner) error {
	return r.AddModeCommand("IMAGE", []int{ModeRoot}, m.image,
		"string name, string path",
		"string name, Size size, Color fill = (0, 0, 0, 0)",
	)
}

func (m *Images) image(call *conscript.Call) error {
	nameArg := call.Arg("name")
	img := &Image{Name: nameArg.Str()}

	if sizeArg := call.Arg("size"); sizeArg != nil {
		img.Format = "blank"
		img.Size = sizeArg.Point()
		if img.Size.X <= 0 || img.Size.Y <= 0 {
			return call.ParamErrorf(sizeArg, "image size must be positive, got %dx%d", img.Size.X, img.Size.Y)
		}
		if m.opts.Decode {
			rgba := image.NewRGBA(image.Rectangle{Max: img.Size})
			draw.Draw(rgba, rgba.Bounds(), &image.Uniform{C: call.Arg("fill").Color()}, image.Point{}, draw.Src)
			img.Data = rgba
		}
		return add(call, nameArg, img)
	}

	data, p, err := readContent(call, call.Arg("path").Str())
	if err != nil {
		return err
	}
	img.Path = p
	if err := m.probe(img, data); err != nil {
		return &conscript.ContentError{Path: p, Err: err}
	}

	if m.opts.Decode && img.Data == nil {
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return &conscript.ContentError{Path: p, Err: err}
		}
		img.Data = decoded
	}

	call.Runner().Logger().Debug("Image loaded", "name", img.Name, "format", img.Format, "width", img.Size.X, "height", img.Size.Y)
	return add(call, nameArg, img)
}

// probe fills in the format and size. RLE compressed BMPs, which the
// registered decoders reject, are read from their own headers and decoded
// here.
func (m *Images) probe(img *Image, data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		img.Format = format
		img.Size = image.Pt(cfg.Width, cfg.Height)
		return nil
	}
	if !bytes.HasPrefix(data, []byte("BM")) {
		return fmt.Errorf("unsupported image format: %w", err)
	}
	info, bmpErr := readBMPInfo(bytes.NewReader(data))
	if bmpErr != nil {
		return bmpErr
	}
	img.Format = "bmp"
	img.Size = image.Pt(info.Width, info.Height)
	if m.opts.Decode {
		decoded, err := decodeBMPRLE(data)
		if err != nil {
			return err
		}
		img.Data = decoded
	}
	return nil
}
