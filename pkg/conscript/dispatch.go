package conscript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/zurustar/conscript/pkg/resource"
)

// outcome is the non-error result of dispatching a statement.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeCancelled
)

// perform resolves name against the registry in the reader's mode and runs
// the matching action.
func (r *Reader) perform(name string, args *Param) (outcome, error) {
	if r.ctx != nil && r.ctx.Err() != nil {
		r.runner.log.Info("Loading cancelled", "file", r.file, "line", args.Line+1, "reason", r.ctx.Err())
		return outcomeCancelled, nil
	}

	cmd, bound, candidates := r.runner.registry.Resolve(name, args, r.mode)
	if cmd == nil {
		if len(candidates) > 0 {
			sigs := make([]string, 0, len(candidates))
			for _, c := range candidates {
				sigs = append(sigs, c.Signatures()...)
			}
			return outcomeOK, r.paramError(KindDispatch, args,
				"no overload of %s matches the given parameters (missing ';' or a typo?); expected one of:\n    %s",
				strings.ToUpper(name), strings.Join(sigs, "\n    "))
		}
		msg := fmt.Sprintf("%q is not a valid command in this context (missing block terminator?)", name)
		if hint := r.runner.suggest(name); hint != "" {
			msg += fmt.Sprintf("; did you mean %s?", hint)
		}
		return outcomeOK, r.paramError(KindDispatch, args, "%s", msg)
	}

	r.runner.log.Debug("Dispatching command", "command", cmd.Name, "file", r.file, "line", args.Line+1, "mode", r.mode)

	call := &Call{Command: cmd, Args: bound, reader: r}
	resume := r.runner.watch.pause()
	err := cmd.Action(call)
	if resume {
		r.runner.watch.resume()
	}
	return r.classify(err, args)
}

// classify turns an action's error into an outcome. Located script errors
// and content errors pass through; cancellation ends the load cleanly;
// anything else is wrapped with the statement's location.
func (r *Reader) classify(err error, stmt *Param) (outcome, error) {
	if err == nil {
		return outcomeOK, nil
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.runner.log.Info("Loading cancelled", "file", r.file, "line", stmt.Line+1, "reason", err)
		return outcomeCancelled, nil
	}
	var se *ScriptError
	if errors.As(err, &se) {
		return outcomeOK, err
	}
	var ce *ContentError
	if errors.As(err, &ce) {
		return outcomeOK, err
	}
	wrapped := r.paramError(KindHost, stmt, "%v", err)
	wrapped.Err = err
	return outcomeOK, wrapped
}

// Call is the invocation of a command action. It carries the bound
// arguments and gives the action access to the reader, the runner and the
// LoadContext.
type Call struct {
	Command *Command
	Args    *Param

	reader *Reader
}

// Context returns the context the load was started with.
func (c *Call) Context() context.Context {
	if c.reader.ctx == nil {
		return context.Background()
	}
	return c.reader.ctx
}

// Runner returns the runner executing the script.
func (c *Call) Runner() *Runner {
	return c.reader.runner
}

// Reader returns the reader of the file containing the statement.
func (c *Call) Reader() *Reader {
	return c.reader
}

// Load returns the LoadContext shared by the active LOAD chain.
func (c *Call) Load() *LoadContext {
	return c.reader.runner.load
}

// Store returns the store a resource called name belongs in: the
// temporary store for names with the temp_ prefix, else the main store.
func (c *Call) Store(name string) *resource.Store {
	return c.Load().StoreFor(name)
}

// Arg returns the bound argument called name.
func (c *Call) Arg(name string) *Param {
	return c.Args.Get(name)
}

// File returns the path of the script containing the statement.
func (c *Call) File() string {
	return c.reader.file
}

// Mode returns the reader's current mode.
func (c *Call) Mode() int {
	return c.reader.mode
}

// SetMode changes the reader's mode for the following statements.
func (c *Call) SetMode(mode int) {
	c.reader.mode = mode
}

// ReadLine consumes the next raw line of the script. Parsing of the line
// holding the current statement stops after the action returns.
func (c *Call) ReadLine() (string, bool) {
	return c.reader.readLine()
}

// ResolvePath resolves a script-relative path against the directory of the
// current script.
func (c *Call) ResolvePath(rel string) string {
	return c.reader.runner.fsys.Join(c.reader.file, rel)
}

// ReadFile reads a file referenced relative to the current script.
func (c *Call) ReadFile(rel string) ([]byte, error) {
	return c.reader.runner.fsys.ReadFile(c.ResolvePath(rel))
}

// Errorf returns a semantic error located at the statement.
func (c *Call) Errorf(format string, args ...any) error {
	return c.reader.paramError(KindSemantic, c.Args, format, args...)
}

// ParamErrorf returns a semantic error located at the given argument.
func (c *Call) ParamErrorf(p *Param, format string, args ...any) error {
	if p == nil {
		p = c.Args
	}
	return c.reader.paramError(KindSemantic, p, format, args...)
}

// suggest returns the registered command closest to name: the tightest
// fuzzy match if name is a subsequence of some command, else the command
// within two edits.
func (r *Runner) suggest(name string) string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range r.registry.commands {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}
	if ranks := fuzzy.RankFindFold(name, names); len(ranks) > 0 {
		best := ranks[0]
		for _, rk := range ranks[1:] {
			if rk.Distance < best.Distance {
				best = rk
			}
		}
		return best.Target
	}
	best, bestDist := "", 3
	for _, n := range names {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(n)); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}
