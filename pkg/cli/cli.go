package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/conscript/pkg/logger"
	"github.com/zurustar/conscript/pkg/source"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Paths        []string        // スクリプトファイルまたはディレクトリ（空の場合は埋め込みサンプル）
	Timeout      time.Duration   // タイムアウト時間（0は無制限）
	LogLevel     string          // ログレベル（debug, info, warn, error）
	Encoding     source.Encoding // スクリプトの文字コード
	KeepGoing    bool            // エラーが発生しても残りのファイルを読み込む
	Timing       bool            // 解析時間を表示
	Decode       bool            // 画像とフォントを完全にデコード
	ListCommands bool            // 登録済みコマンドを表示
	ShowHelp     bool            // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"h":             true,
	"help":          true,
	"keep-going":    true,
	"timing":        true,
	"decode":        true,
	"list-commands": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("conscript", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var timeoutSec int
	var encoding string
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&encoding, "encoding", "", "文字コード（auto, utf-8, shift-jis）")
	fs.StringVar(&encoding, "e", "", "文字コード（短縮形）")
	fs.BoolVar(&config.KeepGoing, "keep-going", false, "エラー後も残りのファイルを読み込む")
	fs.BoolVar(&config.Timing, "timing", false, "解析時間を表示")
	fs.BoolVar(&config.Decode, "decode", false, "画像とフォントを完全にデコード")
	fs.BoolVar(&config.ListCommands, "list-commands", false, "登録済みコマンドを表示")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からタイムアウトを取得（コマンドラインフラグが優先）
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	// 環境変数から文字コードを取得（コマンドラインフラグが優先）
	if encoding == "" {
		encoding = os.Getenv("CONSCRIPT_ENCODING")
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	enc, err := source.ParseEncoding(encoding)
	if err != nil {
		return nil, err
	}
	config.Encoding = enc

	// 位置引数（スクリプトのパス）
	config.Paths = fs.Args()

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string
	sawDashDash := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			sawDashDash = true
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t=5 のように値が含まれている場合、またはブール型フラグの場合は次の引数を消費しない
			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") || boolFlags[name] {
				continue
			}
			// 次の引数が値である可能性をチェック（-t 5 のような場合）
			if i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	// "--" 以降を flag.Parse にフラグとして解釈させない
	if sawDashDash {
		flags = append(flags, "--")
	}
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `conscript - asset script loader

Usage:
  conscript [options] [path...]

Arguments:
  path          .conscript ファイル、またはディレクトリ（省略可）
                ディレクトリを指定した場合、配下の .conscript ファイルをすべて読み込む
                省略した場合、埋め込みサンプルを読み込む

Options:
  -t, --timeout <seconds>     指定秒数で読み込みを中断（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  -e, --encoding <name>       文字コード: auto, utf-8, shift-jis（デフォルト: auto）
  --keep-going                エラーが発生しても残りのファイルを読み込む
  --timing                    ファイルごとの解析時間を表示
  --decode                    画像とフォントを完全にデコード（デフォルト: ヘッダーのみ）
  --list-commands             登録済みコマンドとシグネチャを表示
  -h, --help                  このヘルプを表示

Environment Variables:
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル
  CONSCRIPT_ENCODING=<name>   文字コード

Examples:
  conscript assets/main.conscript      1ファイルを読み込む
  conscript --keep-going assets        ディレクトリ内のすべてのスクリプトを検証
  conscript -e shift-jis old/title     Shift-JIS のスクリプトを読み込む
  conscript --list-commands            コマンド一覧を表示
`)
}
