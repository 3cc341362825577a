package conscript

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zurustar/conscript/pkg/fileutil"
	"github.com/zurustar/conscript/pkg/logger"
	"github.com/zurustar/conscript/pkg/resource"
	"github.com/zurustar/conscript/pkg/source"
)

// Status is the non-error result of a load.
type Status int

const (
	// StatusCompleted means every statement was dispatched.
	StatusCompleted Status = iota
	// StatusCancelled means the load stopped early on a cancellation signal.
	StatusCancelled
)

func (s Status) String() string {
	if s == StatusCancelled {
		return "cancelled"
	}
	return "completed"
}

// Module is a domain command set. Register is called once when the module
// is added to a runner and adds the module's commands and types.
type Module interface {
	Register(r *Runner) error
}

// ReadHooks is implemented by modules that keep per-file state. The runner
// calls BeginReading before the first line of every file, including files
// reached through LOAD, and EndReading after its last statement or on error.
// An error from EndReading (an unterminated block, say) is reported only
// when the file itself completed cleanly.
type ReadHooks interface {
	BeginReading(r *Reader)
	EndReading(r *Reader) error
}

// Runner executes conscript files. It owns the command registry, the type
// definitions, the stack of open readers and the LoadContext.
type Runner struct {
	registry *Registry
	defs     *Definitions
	modules  []Module
	readers  []*Reader
	load     *LoadContext

	fsys     fileutil.FileSystem
	encoding source.Encoding
	log      *slog.Logger
	watch    stopwatch
}

// Option is a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// WithFileSystem sets the file system scripts and content are read from.
func WithFileSystem(fsys fileutil.FileSystem) Option {
	return func(r *Runner) {
		r.fsys = fsys
	}
}

// WithEncoding sets how script bytes are decoded.
func WithEncoding(enc source.Encoding) Option {
	return func(r *Runner) {
		r.encoding = enc
	}
}

// WithResources shares an existing resource store with the runner.
func WithResources(store *resource.Store) Option {
	return func(r *Runner) {
		r.load.Resources = store
	}
}

// New creates a runner with the built-in LOAD command registered.
func New(opts ...Option) *Runner {
	r := &Runner{
		registry: &Registry{},
		defs:     NewDefinitions(),
		load:     newLoadContext(nil),
		fsys:     fileutil.NewRealFS(""),
		encoding: source.EncodingAuto,
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.AddCommand("LOAD", r.loadCommand, "string path, bool keepTempResources = false"); err != nil {
		panic(err)
	}
	return r
}

// Use registers modules in order.
func (r *Runner) Use(modules ...Module) error {
	for _, m := range modules {
		if err := m.Register(r); err != nil {
			return fmt.Errorf("failed to register module %T: %w", m, err)
		}
		r.modules = append(r.modules, m)
	}
	return nil
}

// AddCommand registers a command valid in every mode. Each overload is a
// signature grammar compiled against the runner's type definitions; an
// empty string accepts no arguments.
func (r *Runner) AddCommand(name string, action Action, overloads ...string) error {
	return r.AddModeCommand(name, nil, action, overloads...)
}

// AddModeCommand registers a command valid only in the given modes.
func (r *Runner) AddModeCommand(name string, modes []int, action Action, overloads ...string) error {
	if name == "" {
		return fmt.Errorf("command name must not be empty")
	}
	if action == nil {
		return fmt.Errorf("command %s has no action", name)
	}
	if len(overloads) == 0 {
		overloads = []string{""}
	}
	cmd := &Command{
		Name:   name,
		Modes:  append([]int(nil), modes...),
		Action: action,
	}
	for _, grammar := range overloads {
		sig, err := r.defs.Compile(grammar)
		if err != nil {
			return fmt.Errorf("command %s: %w", name, err)
		}
		cmd.Overloads = append(cmd.Overloads, sig)
	}
	r.registry.Add(cmd)
	return nil
}

// Define registers a composite parameter type, e.g.
// Define("Range", "(int min, int max)").
func (r *Runner) Define(name, grammar string) error {
	return r.defs.Define(name, grammar)
}

// Definitions returns the runner's type definitions.
func (r *Runner) Definitions() *Definitions {
	return r.defs
}

// Commands returns the registered commands in registration order.
func (r *Runner) Commands() []*Command {
	return r.registry.Commands()
}

// Resources returns the main resource store.
func (r *Runner) Resources() *resource.Store {
	return r.load.Resources
}

// Temp returns the temporary-resource store of the active scope.
func (r *Runner) Temp() *resource.Store {
	return r.load.Temp
}

// FileSystem returns the file system scripts are read from.
func (r *Runner) FileSystem() fileutil.FileSystem {
	return r.fsys
}

// Logger returns the runner's logger.
func (r *Runner) Logger() *slog.Logger {
	return r.log
}

// Reader returns the active reader, or nil when nothing is loading.
func (r *Runner) Reader() *Reader {
	if len(r.readers) == 0 {
		return nil
	}
	return r.readers[len(r.readers)-1]
}

// ParseTime returns the cumulative time spent tokenizing and dispatching,
// excluding time spent inside command actions.
func (r *Runner) ParseTime() time.Duration {
	return r.watch.elapsed()
}

// Load reads and executes the script at path. The first error aborts the
// whole load and is returned as a *ScriptError (or a *ContentError from a
// content loader). Cancellation through ctx or an action returning
// ErrCancelled stops the load with StatusCancelled and no error.
func (r *Runner) Load(ctx context.Context, path string) (Status, error) {
	f, err := source.Read(r.fsys, path, r.encoding)
	if err != nil {
		return StatusCompleted, err
	}
	return r.run(ctx, path, r.fsys.Key(path), f.Lines)
}

// LoadString executes script text as if it were the file name. LOAD
// statements inside it resolve relative to name's directory.
func (r *Runner) LoadString(ctx context.Context, name, text string) (Status, error) {
	return r.run(ctx, name, r.fsys.Key(name), source.Lines(text))
}

// run pushes a reader for one file, runs it and pops it again.
func (r *Runner) run(ctx context.Context, file, key string, lines []string) (Status, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reader := newReader(r, file, key, lines)
	r.readers = append(r.readers, reader)

	wasRunning := r.watch.running
	r.watch.resume()
	started := time.Now()
	r.log.Debug("Begin reading", "file", file, "lines", len(lines), "depth", len(r.readers))

	for _, m := range r.modules {
		if h, ok := m.(ReadHooks); ok {
			h.BeginReading(reader)
		}
	}

	out, err := reader.run(ctx)

	for i := len(r.modules) - 1; i >= 0; i-- {
		if h, ok := r.modules[i].(ReadHooks); ok {
			if hookErr := h.EndReading(reader); hookErr != nil && err == nil && out == outcomeOK {
				err = hookErr
			}
		}
	}

	r.readers = r.readers[:len(r.readers)-1]
	r.load.leave(key)
	if !wasRunning {
		r.watch.pause()
	}
	r.log.Debug("End reading", "file", file, "elapsed", time.Since(started), "error", err != nil)

	if err != nil {
		return StatusCompleted, err
	}
	if out == outcomeCancelled {
		return StatusCancelled, nil
	}
	return StatusCompleted, nil
}

// stopwatch accumulates running time across pause/resume.
type stopwatch struct {
	total   time.Duration
	started time.Time
	running bool
}

func (s *stopwatch) resume() {
	if !s.running {
		s.running = true
		s.started = time.Now()
	}
}

// pause stops the watch and reports whether it was running.
func (s *stopwatch) pause() bool {
	if !s.running {
		return false
	}
	s.total += time.Since(s.started)
	s.running = false
	return true
}

func (s *stopwatch) elapsed() time.Duration {
	if s.running {
		return s.total + time.Since(s.started)
	}
	return s.total
}
