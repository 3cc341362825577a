package conscript

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Reader tokenizes one script file line by line, building a parameter tree
// per statement and dispatching it when its terminating ';' is reached.
// Parse state survives line ends, so statements and arrays may span lines.
type Reader struct {
	runner *Runner
	ctx    context.Context

	file  string
	key   string
	lines []string

	line int // index of the line being parsed
	col  int // rune index within the line
	mode int

	root   *Param // statement being built, nil between statements
	parent *Param // array receiving completed parameters

	word     strings.Builder
	hasWord  bool
	quoted   bool // inside a quoted string
	wordQ    bool // current word came from a quoted string
	wordLine int
	wordCol  int

	name     string
	hasName  bool
	nameLine int
	nameCol  int
}

func newReader(runner *Runner, file, key string, lines []string) *Reader {
	return &Reader{
		runner: runner,
		file:   file,
		key:    key,
		lines:  lines,
	}
}

// File returns the script path the reader was opened with.
func (r *Reader) File() string {
	return r.file
}

// Mode returns the current parser mode.
func (r *Reader) Mode() int {
	return r.mode
}

// SetMode selects which commands are valid for the following statements.
func (r *Reader) SetMode(mode int) {
	r.mode = mode
}

// Line returns the 1-based number of the line being parsed.
func (r *Reader) Line() int {
	return r.line + 1
}

// readLine advances past the current line and returns the next one.
func (r *Reader) readLine() (string, bool) {
	if r.line+1 >= len(r.lines) {
		return "", false
	}
	r.line++
	return r.lines[r.line], true
}

// run parses every line, stopping at the first error or on cancellation.
func (r *Reader) run(ctx context.Context) (outcome, error) {
	r.ctx = ctx
	for r.line = 0; r.line < len(r.lines); r.line++ {
		out, err := r.parseLine(r.lines[r.line])
		if err != nil || out == outcomeCancelled {
			return out, err
		}
	}
	return outcomeOK, r.finish()
}

// finish reports a statement left open at end of input.
func (r *Reader) finish() error {
	last := len(r.lines) - 1
	end := 0
	if last >= 0 {
		end = len([]rune(r.lines[last]))
	} else {
		last = 0
	}
	switch {
	case r.root != nil && r.parent != r.root:
		return r.errorAt(KindGrammar, last, end, "unexpected end of file: unclosed '('")
	case r.hasName:
		return r.errorAt(KindGrammar, r.nameLine, r.nameCol, "unexpected end of file: missing value for parameter %q", r.name)
	case r.root != nil:
		return r.errorAt(KindGrammar, last, end, "unexpected end of file: statement is missing ';'")
	}
	return nil
}

// parseLine feeds one physical line through the tokenizer, dispatching each
// statement as it completes. When an action consumes further lines the rest
// of this line is abandoned.
func (r *Reader) parseLine(text string) (outcome, error) {
	start := r.line
	runes := []rune(text)
	for r.col = 0; r.col < len(runes); r.col++ {
		c := runes[r.col]

		if r.quoted {
			if c == '"' {
				r.quoted = false
				if err := r.completeWord(); err != nil {
					return outcomeOK, err
				}
			} else {
				r.word.WriteRune(c)
			}
			continue
		}

		switch {
		case c == '"':
			if err := r.completeWord(); err != nil {
				return outcomeOK, err
			}
			r.beginWord()
			r.quoted = true
			r.wordQ = true

		case c == ':':
			if !r.hasWord {
				return outcomeOK, r.errorf(KindGrammar, "expected a parameter name before ':'")
			}
			if r.hasName {
				return outcomeOK, r.errorf(KindGrammar, "parameter %q already has a name", r.name)
			}
			r.name, r.nameLine, r.nameCol = r.word.String(), r.wordLine, r.wordCol
			r.hasName = true
			r.resetWord()

		case c == ',' || unicode.IsSpace(c):
			if err := r.completeWord(); err != nil {
				return outcomeOK, err
			}

		case c == ';':
			if err := r.completeWord(); err != nil {
				return outcomeOK, err
			}
			out, err := r.completeStatement()
			if err != nil || out == outcomeCancelled {
				return out, err
			}
			if r.line != start {
				return outcomeOK, nil
			}

		case c == '#':
			r.col = len(runes)

		case c == '(':
			if err := r.completeWord(); err != nil {
				return outcomeOK, err
			}
			arr := NewArray(r.line, r.col)
			if err := r.addParam(arr); err != nil {
				return outcomeOK, err
			}
			r.parent = arr

		case c == ')':
			if err := r.completeWord(); err != nil {
				return outcomeOK, err
			}
			if r.root == nil || r.parent == r.root {
				return outcomeOK, r.errorf(KindGrammar, "unexpected ')' without matching '('")
			}
			if r.hasName {
				return outcomeOK, r.errorAt(KindGrammar, r.nameLine, r.nameCol, "missing value for parameter %q", r.name)
			}
			r.parent = r.parent.Parent

		case isKeywordChar(c):
			if !r.hasWord {
				r.beginWord()
			}
			r.word.WriteRune(c)

		default:
			return outcomeOK, r.errorf(KindLexical, "unexpected character %q", c)
		}
	}

	if r.quoted {
		return outcomeOK, r.errorAt(KindLexical, r.wordLine, r.wordCol, "unterminated string")
	}
	return outcomeOK, r.completeWord()
}

func isKeywordChar(c rune) bool {
	switch c {
	case '$', '_', '.', '-', '+':
		return true
	}
	return unicode.IsLetter(c) || unicode.IsDigit(c)
}

func (r *Reader) beginWord() {
	r.hasWord = true
	r.wordLine, r.wordCol = r.line, r.col
}

func (r *Reader) resetWord() {
	r.word.Reset()
	r.hasWord = false
	r.wordQ = false
}

// completeWord turns the pending word into a literal parameter.
func (r *Reader) completeWord() error {
	if !r.hasWord {
		return nil
	}
	p := NewLiteral(r.word.String(), r.wordQ, r.wordLine, r.wordCol)
	r.resetWord()
	return r.addParam(p)
}

// addParam appends p to the current array, applying a pending name and
// enforcing that nothing unnamed follows a named sibling.
func (r *Reader) addParam(p *Param) error {
	if r.root == nil {
		r.root = NewArray(p.Line, p.Column)
		r.parent = r.root
	}
	if r.hasName {
		p.Name = r.name
		r.hasName = false
		r.name = ""
	} else if prev := r.parent.last(); prev != nil && prev.Name != "" {
		return r.errorAt(KindGrammar, p.Line, p.Column,
			"unnamed parameter cannot follow named parameter %q", prev.Name)
	}
	r.parent.append(p)
	return nil
}

// completeStatement finalizes the statement tree at ';' and dispatches it.
func (r *Reader) completeStatement() (outcome, error) {
	if r.hasName {
		return outcomeOK, r.errorAt(KindGrammar, r.nameLine, r.nameCol, "missing value for parameter %q", r.name)
	}
	root := r.root
	if root == nil {
		return outcomeOK, nil
	}
	if r.parent != root {
		return outcomeOK, r.errorf(KindGrammar, "unclosed '(' before ';'")
	}
	r.root, r.parent = nil, nil

	if r.runner == nil {
		return outcomeOK, r.errorf(KindGrammar, "unexpected ';'")
	}

	head := root.Children[0]
	if head.IsArray() || head.Quoted || head.Name != "" {
		return outcomeOK, r.errorAt(KindGrammar, head.Line, head.Column, "expected a command name")
	}
	args := NewArray(root.Line, root.Column)
	for _, c := range root.Children[1:] {
		args.append(c)
	}
	return r.perform(head.Text, args)
}

func (r *Reader) sourceLine(line int) string {
	if line >= 0 && line < len(r.lines) {
		return r.lines[line]
	}
	return ""
}

// errorAt builds a located error. line and col are 0-based.
func (r *Reader) errorAt(kind ErrorKind, line, col int, format string, args ...any) *ScriptError {
	return &ScriptError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		File:    r.file,
		Line:    line + 1,
		Column:  col + 1,
		Source:  r.sourceLine(line),
		Caret:   true,
	}
}

// errorf reports an error at the cursor.
func (r *Reader) errorf(kind ErrorKind, format string, args ...any) *ScriptError {
	return r.errorAt(kind, r.line, r.col, format, args...)
}

// paramError reports an error at a parsed parameter's position.
func (r *Reader) paramError(kind ErrorKind, p *Param, format string, args ...any) *ScriptError {
	return r.errorAt(kind, p.Line, p.Column, format, args...)
}

// ParamErrorf returns a semantic error located at p, a parameter parsed
// from this reader's file.
func (r *Reader) ParamErrorf(p *Param, format string, args ...any) error {
	return r.paramError(KindSemantic, p, format, args...)
}

// ParseValue parses text as a single parameter: a literal, a quoted string,
// or a parenthesized array.
func ParseValue(text string) (*Param, error) {
	r := newReader(nil, "<value>", "", []string{text})
	if _, err := r.parseLine(text); err != nil {
		return nil, err
	}
	if err := r.finishValue(); err != nil {
		return nil, err
	}
	if r.root == nil || len(r.root.Children) != 1 {
		return nil, fmt.Errorf("expected exactly one value in %q", text)
	}
	v := r.root.Children[0]
	v.Parent = nil
	return v, nil
}

func (r *Reader) finishValue() error {
	if r.root != nil && r.parent != r.root {
		return r.errorAt(KindGrammar, 0, len([]rune(r.lines[0])), "unclosed '('")
	}
	if r.hasName {
		return r.errorAt(KindGrammar, r.nameLine, r.nameCol, "missing value for parameter %q", r.name)
	}
	return nil
}
