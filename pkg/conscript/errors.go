package conscript

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a ScriptError.
type ErrorKind string

const (
	// KindLexical is an invalid character or an unterminated string.
	KindLexical ErrorKind = "lexical"
	// KindGrammar is a malformed statement: naming order, unbalanced
	// parentheses, a name without a value.
	KindGrammar ErrorKind = "grammar"
	// KindDispatch is an unknown command or a command with no matching overload.
	KindDispatch ErrorKind = "dispatch"
	// KindSemantic is raised deliberately by a command action.
	KindSemantic ErrorKind = "semantic"
	// KindHost wraps any other error escaping a command action.
	KindHost ErrorKind = "host"
	// KindCycle is a LOAD of a script already in the active LOAD chain.
	KindCycle ErrorKind = "cycle"
)

// ErrCancelled is returned by an action to cooperatively stop loading. It is
// not reported as an error: the load finishes with StatusCancelled.
var ErrCancelled = errors.New("loading cancelled")

// Frame is one LOAD boundary an error travelled through.
type Frame struct {
	File   string
	Line   int
	Column int
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d:%d", f.File, f.Line, f.Column)
}

// ScriptError is an error located in a script file. Line and Column are
// 1-based. Source holds the offending line; when Caret is set the rendered
// message points at Column beneath it.
type ScriptError struct {
	Kind    ErrorKind
	Message string
	File    string
	Line    int
	Column  int
	Source  string
	Caret   bool

	// Trace lists the LOAD statements the error propagated through,
	// innermost first.
	Trace []Frame

	// Err is the underlying cause for host errors.
	Err error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s error at %s:%d:%d: %s", e.Kind, e.File, e.Line, e.Column, e.Message)
	if ctx := e.Context(); ctx != "" {
		sb.WriteString("\n")
		sb.WriteString(ctx)
	}
	if len(e.Trace) > 0 {
		sb.WriteString("\n")
		sb.WriteString(e.TraceString())
	}
	return sb.String()
}

// Unwrap returns the wrapped cause.
func (e *ScriptError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error must never be retried. Every script
// error aborts the load; cycles are additionally fatal for the whole batch.
func (e *ScriptError) IsFatal() bool {
	return e.Kind == KindCycle
}

// Context renders the source line with a caret under the error column.
// Tabs before the column are reproduced so the caret lines up.
//
// Example output:
//
//	> 3 | COLOR a:1, 2;
//	    |            ^
func (e *ScriptError) Context() string {
	if e.Source == "" {
		return ""
	}
	prefix := fmt.Sprintf("> %d | ", e.Line)
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(e.Source)
	if !e.Caret {
		return sb.String()
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", len(prefix)-2))
	sb.WriteString("| ")
	src := []rune(e.Source)
	for i := 0; i < e.Column-1; i++ {
		if i < len(src) && src[i] == '\t' {
			sb.WriteRune('\t')
		} else {
			sb.WriteRune(' ')
		}
	}
	sb.WriteString("^")
	return sb.String()
}

// TraceString renders the LOAD chain, innermost first.
func (e *ScriptError) TraceString() string {
	lines := make([]string, len(e.Trace))
	for i, f := range e.Trace {
		lines[i] = "  loaded from " + f.String()
	}
	return strings.Join(lines, "\n")
}

func (e *ScriptError) addFrame(f Frame) {
	e.Trace = append(e.Trace, f)
}

// ContentError reports a failure decoding external content (an image, a
// sound, a font) referenced by a script. Dispatch passes it through without
// adding script location.
type ContentError struct {
	Path string
	Err  error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("failed to load content %s: %v", e.Path, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}
