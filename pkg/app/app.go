package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zurustar/conscript/pkg/assets"
	"github.com/zurustar/conscript/pkg/cli"
	"github.com/zurustar/conscript/pkg/conscript"
	"github.com/zurustar/conscript/pkg/fileutil"
	"github.com/zurustar/conscript/pkg/logger"
	"github.com/zurustar/conscript/pkg/resource"
	"github.com/zurustar/conscript/pkg/source"
)

// SamplesDir is the directory of the embedded file system holding the
// sample scripts loaded when no path is given.
const SamplesDir = "samples"

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config    *cli.Config
	log       *slog.Logger
	embedFS   fs.FS
	soundFont *assets.SoundFont

	stdout io.Writer
	stderr io.Writer
}

// script は読み込み対象のスクリプト
type script struct {
	fsys fileutil.FileSystem
	path string
}

// Result は1ファイルの読み込み結果
type Result struct {
	Path      string
	Status    conscript.Status
	Err       error
	Resources map[string]int
	ParseTime time.Duration
}

// New Applicationを作成
func New(embedFS fs.FS) *Application {
	return &Application{
		embedFS: embedFS,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if app.config.ListCommands {
		return app.listCommands()
	}

	app.log.Info("Application started")

	// 3. スクリプトファイルの検索
	scripts, err := app.findScripts()
	if err != nil {
		return fmt.Errorf("failed to find scripts: %w", err)
	}
	app.log.Info("Scripts found", "count", len(scripts))

	// 4. デフォルトSoundFontの読み込み
	app.loadDefaultSoundFont(scripts)

	// 5. スクリプトの読み込み
	ctx := context.Background()
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	failed := 0
	for _, s := range scripts {
		res := app.loadScript(ctx, s)
		app.report(res)

		if res.Status == conscript.StatusCancelled {
			app.log.Warn("Loading cancelled, skipping remaining scripts", "path", res.Path)
			return cancelError(ctx)
		}
		if res.Err == nil {
			continue
		}
		failed++
		var se *conscript.ScriptError
		if errors.As(res.Err, &se) && se.IsFatal() {
			return fmt.Errorf("fatal error in %s", res.Path)
		}
		if !app.config.KeepGoing {
			return fmt.Errorf("failed to load %s", res.Path)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(scripts))
	}
	app.log.Info("Application terminated normally")
	return nil
}

// cancelError は中断の原因を包んだエラーを返す。
// コンテキストが生きていればコマンドが読み込みを止めたことになる。
func cancelError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("loading cancelled: %w", err)
	}
	return conscript.ErrCancelled
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLoggerWithWriter(app.config.LogLevel, app.stderr); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// newRunner 資産コマンドを登録したRunnerを作成
func (app *Application) newRunner(fsys fileutil.FileSystem, store *resource.Store) (*conscript.Runner, error) {
	runner := conscript.New(
		conscript.WithLogger(app.log),
		conscript.WithFileSystem(fsys),
		conscript.WithEncoding(app.config.Encoding),
		conscript.WithResources(store),
	)
	if err := runner.Use(assets.All(assets.Options{Decode: app.config.Decode})...); err != nil {
		return nil, err
	}
	return runner, nil
}

// listCommands 登録済みコマンドとシグネチャを表示
func (app *Application) listCommands() error {
	runner, err := app.newRunner(fileutil.NewRealFS(""), resource.NewStore())
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, "Commands:")
	for _, cmd := range runner.Commands() {
		modes := "any"
		if len(cmd.Modes) > 0 {
			parts := make([]string, len(cmd.Modes))
			for i, m := range cmd.Modes {
				parts[i] = fmt.Sprint(m)
			}
			modes = strings.Join(parts, ",")
		}
		for _, sig := range cmd.Signatures() {
			fmt.Fprintf(app.stdout, "  %-60s mode: %s\n", sig, modes)
		}
	}
	fmt.Fprintln(app.stdout, "Types:")
	defs := runner.Definitions()
	for _, name := range defs.Names() {
		t, _ := defs.Lookup(name)
		fmt.Fprintf(app.stdout, "  %-12s (%s)\n", name, formatFields(t))
	}
	return nil
}

func formatFields(t *conscript.Type) string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

// findScripts 読み込むスクリプトを列挙
func (app *Application) findScripts() ([]script, error) {
	if len(app.config.Paths) == 0 {
		if app.embedFS == nil {
			return nil, fmt.Errorf("no script path given and no embedded samples")
		}
		fsys := fileutil.NewEmbedFS(app.embedFS, SamplesDir)
		files, err := source.Find(fsys, ".")
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no embedded sample scripts")
		}
		app.log.Info("No path given, loading embedded samples", "count", len(files))
		scripts := make([]script, len(files))
		for i, f := range files {
			scripts[i] = script{fsys: fsys, path: f}
		}
		return scripts, nil
	}

	fsys := fileutil.NewRealFS("")
	var scripts []script
	for _, p := range app.config.Paths {
		files, err := source.Find(fsys, p)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no %s files found in %s", source.Extension, p)
		}
		for _, f := range files {
			scripts = append(scripts, script{fsys: fsys, path: f})
		}
	}
	return scripts, nil
}

// loadDefaultSoundFont 見つかった場合、SoundFontを "default" として全スクリプトに公開
func (app *Application) loadDefaultSoundFont(scripts []script) {
	var dirs []string
	seen := make(map[string]bool)
	for _, s := range scripts {
		if s.fsys.IsEmbedded() {
			continue
		}
		dir := filepath.Dir(s.path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	loc := findSoundFont(app.embedFS, dirs)
	if loc == nil {
		app.log.Debug("No default SoundFont found", "name", DefaultSoundFontName)
		return
	}
	sf, err := loadSoundFont(loc)
	if err != nil {
		app.log.Warn("Failed to load default SoundFont", "path", loc.Path, "error", err)
		return
	}
	app.soundFont = sf
	app.log.Info("Default SoundFont loaded", "path", loc.Path, "embedded", loc.IsEmbedded, "presets", sf.Presets)
}

// loadScript 1ファイルを新しいRunnerで読み込む
func (app *Application) loadScript(ctx context.Context, s script) Result {
	res := Result{Path: s.path}

	store := resource.NewStore()
	if app.soundFont != nil {
		resource.Set(store, DefaultSoundFontResource, app.soundFont)
	}
	runner, err := app.newRunner(s.fsys, store)
	if err != nil {
		res.Err = err
		return res
	}

	started := time.Now()
	res.Status, res.Err = runner.Load(ctx, s.path)
	res.ParseTime = runner.ParseTime()
	res.Resources = store.Summary()

	app.log.Debug("Script loaded",
		"path", s.path,
		"status", res.Status,
		"elapsed", time.Since(started),
		"parseTime", res.ParseTime,
		"resources", store.Len())
	return res
}

// report 読み込み結果を表示
func (app *Application) report(res Result) {
	switch {
	case res.Err != nil:
		fmt.Fprintf(app.stdout, "FAIL %s\n", res.Path)
		fmt.Fprintf(app.stderr, "%v\n", res.Err)
	case res.Status == conscript.StatusCancelled:
		fmt.Fprintf(app.stdout, "STOP %s\n", res.Path)
	default:
		line := fmt.Sprintf("OK   %s %s", res.Path, formatSummary(res.Resources))
		if app.config.Timing {
			line += fmt.Sprintf(" parse=%s", res.ParseTime.Round(time.Microsecond))
		}
		fmt.Fprintln(app.stdout, line)
	}
}

// formatSummary はリソース数を "font=1 palette=2" の形式に整形する
func formatSummary(summary map[string]int) string {
	parts := make([]string, 0, len(summary))
	for typ, n := range summary {
		name := typ[strings.LastIndex(typ, ".")+1:]
		parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(name), n))
	}
	sort.Strings(parts)
	return "(" + strings.Join(parts, " ") + ")"
}
