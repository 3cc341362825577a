package conscript

import (
	"errors"
	"io/fs"

	"github.com/zurustar/conscript/pkg/source"
)

// loadCommand implements LOAD path [keepTempResources].
//
// The calling file joins the LOAD chain before the target is resolved, so a
// file that has issued a LOAD can not be loaded again until it finishes.
func (r *Runner) loadCommand(call *Call) error {
	reader := call.Reader()
	pathArg := call.Arg("path")
	keep := call.Arg("keepTempResources").Bool()

	lc := call.Load()
	lc.enter(reader.key)

	target := call.ResolvePath(pathArg.Str())
	key := r.fsys.Key(target)
	if lc.Active(key) {
		return reader.paramError(KindCycle, pathArg,
			"circular LOAD detected: %s is already being loaded", target)
	}

	f, err := source.Read(r.fsys, target, r.encoding)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e := reader.paramError(KindHost, pathArg, "script not found: %s", target)
			e.Err = err
			return e
		}
		e := reader.paramError(KindHost, pathArg, "%v", err)
		e.Err = err
		return e
	}

	if !keep {
		lc.pushTemp()
		defer lc.popTemp()
	}

	r.log.Info("Loading script", "file", target, "from", reader.file, "keepTempResources", keep, "depth", len(r.readers)+1)

	status, err := r.run(call.Context(), target, key, f.Lines)
	if err != nil {
		var se *ScriptError
		if errors.As(err, &se) {
			se.addFrame(Frame{File: reader.file, Line: call.Args.Line + 1, Column: call.Args.Column + 1})
		}
		return err
	}
	if status == StatusCancelled {
		return ErrCancelled
	}
	return nil
}
