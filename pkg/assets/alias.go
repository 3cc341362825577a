package assets

import (
	"errors"

	"github.com/zurustar/conscript/pkg/conscript"
	"github.com/zurustar/conscript/pkg/resource"
)

// Aliases registers ALIAS, which makes an existing asset available under a
// second name. Aliasing into a temp_ name keeps a shared asset visible to
// one LOAD scope only.
//
//	ALIAS "temp_font", "body";
type Aliases struct{}

// NewAliases creates the alias module.
func NewAliases() *Aliases {
	return &Aliases{}
}

// Register implements conscript.Module.
func (m *Aliases) Register(r *conscript.Runner) error {
	return r.AddModeCommand("ALIAS", []int{ModeRoot}, m.alias, "string name, string target")
}

func (m *Aliases) alias(call *conscript.Call) error {
	nameArg, targetArg := call.Arg("name"), call.Arg("target")
	name, target := nameArg.Str(), targetArg.Str()
	from, to := call.Store(target), call.Store(name)

	copiers := []func() (bool, error){
		func() (bool, error) { return copyAs[*Palette](from, to, target, name) },
		func() (bool, error) { return copyAs[*Image](from, to, target, name) },
		func() (bool, error) { return copyAs[*Font](from, to, target, name) },
		func() (bool, error) { return copyAs[*Sound](from, to, target, name) },
		func() (bool, error) { return copyAs[*SoundFont](from, to, target, name) },
		func() (bool, error) { return copyAs[*Music](from, to, target, name) },
	}
	found := false
	for _, c := range copiers {
		ok, err := c()
		if err != nil {
			if errors.Is(err, resource.ErrExists) {
				return call.ParamErrorf(nameArg, "%q already exists", name)
			}
			return err
		}
		found = found || ok
	}
	if !found {
		return call.ParamErrorf(targetArg, "no asset named %q", target)
	}
	return nil
}

func copyAs[T any](from, to *resource.Store, src, dst string) (bool, error) {
	v, err := resource.Get[T](from, src)
	if err != nil {
		return false, nil
	}
	return true, resource.Add(to, dst, v)
}
