// Package assets provides the asset command sets that conscript files use
// to declare game assets: palettes, images, fonts, sounds and soundfonts.
//
// Each command set is a conscript.Module. Decoded assets are stored in the
// runner's resource store under the name given in the script; names with
// the temp_ prefix go to the temporary store of the active LOAD scope.
package assets

import (
	"errors"
	"fmt"

	"github.com/zurustar/conscript/pkg/conscript"
	"github.com/zurustar/conscript/pkg/resource"
)

// Parser modes used by the asset commands.
const (
	ModeRoot    = 0 // between blocks
	ModePalette = 1 // inside PALETTE ... END
)

// Options controls how much work the asset commands do.
type Options struct {
	// Decode fully decodes images and builds font faces. When false only
	// headers are read, which is enough to validate a script.
	Decode bool
}

// All returns every asset module in registration order.
func All(opts Options) []conscript.Module {
	return []conscript.Module{
		NewPalettes(),
		NewImages(opts),
		NewFonts(opts),
		NewSounds(),
		NewAliases(),
	}
}

// readContent reads a file referenced by the current script. Failures are
// content errors, reported without script location.
func readContent(call *conscript.Call, rel string) ([]byte, string, error) {
	p := call.ResolvePath(rel)
	data, err := call.Runner().FileSystem().ReadFile(p)
	if err != nil {
		return nil, p, &conscript.ContentError{Path: p, Err: err}
	}
	return data, p, nil
}

// add stores value under the name held by nameArg, failing when the name
// is taken.
func add[T any](call *conscript.Call, nameArg *conscript.Param, value T) error {
	name := nameArg.Str()
	if err := resource.Add(call.Store(name), name, value); err != nil {
		if errors.Is(err, resource.ErrExists) {
			return call.ParamErrorf(nameArg, "%s %q already exists", kindOf[T](), name)
		}
		return err
	}
	call.Runner().Logger().Debug("Asset added", "kind", kindOf[T](), "name", name, "file", call.File())
	return nil
}

// lookup finds a resource of type T by the name a script used for it.
func lookup[T any](call *conscript.Call, name string) (T, error) {
	v, err := resource.Get[T](call.Store(name), name)
	if err != nil {
		return v, fmt.Errorf("%s %q is not defined", kindOf[T](), name)
	}
	return v, nil
}

func kindOf[T any]() string {
	var zero T
	switch any(zero).(type) {
	case *Palette:
		return "palette"
	case *Image:
		return "image"
	case *Font:
		return "font"
	case *Sound:
		return "sound"
	case *SoundFont:
		return "soundfont"
	case *Music:
		return "music"
	}
	return fmt.Sprintf("%T", zero)
}
