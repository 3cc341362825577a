// Package source reads conscript files: it decodes their text encoding,
// splits them into lines, and discovers script files in a directory tree.
package source

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/conscript/pkg/fileutil"
)

// Extension is the file extension of conscript files.
const Extension = ".conscript"

// Encoding selects how script bytes are decoded.
type Encoding string

const (
	// EncodingAuto uses UTF-8 when the bytes are valid UTF-8 and Shift-JIS
	// otherwise.
	EncodingAuto     Encoding = "auto"
	EncodingUTF8     Encoding = "utf-8"
	EncodingShiftJIS Encoding = "shift-jis"
)

// ParseEncoding validates an encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "shift-jis", "shift_jis", "sjis":
		return EncodingShiftJIS, nil
	}
	return "", fmt.Errorf("invalid encoding: %s (must be auto, utf-8, or shift-jis)", s)
}

// File is a decoded script.
type File struct {
	Name  string   // path as given to Read
	Lines []string // lines without terminators
	Size  int      // size in bytes before decoding
}

// Read loads and decodes a script through fsys.
func Read(fsys fileutil.FileSystem, name string, enc Encoding) (*File, error) {
	data, err := fsys.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	text, err := Decode(data, enc)
	if err != nil {
		return nil, fmt.Errorf("encoding error in %s: %w", name, err)
	}
	return &File{Name: name, Lines: Lines(text), Size: len(data)}, nil
}

// Decode converts script bytes to UTF-8 text, dropping a UTF-8 byte order
// mark.
func Decode(data []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingAuto, "":
		if utf8.Valid(data) {
			return decodeWith(data, unicode.UTF8BOM.NewDecoder())
		}
		return decodeWith(data, japanese.ShiftJIS.NewDecoder())
	case EncodingUTF8:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid UTF-8 text")
		}
		return decodeWith(data, unicode.UTF8BOM.NewDecoder())
	case EncodingShiftJIS:
		return decodeWith(data, japanese.ShiftJIS.NewDecoder())
	}
	return "", fmt.Errorf("unsupported encoding %q", enc)
}

func decodeWith(data []byte, t transform.Transformer) (string, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), t))
	if err != nil {
		return "", fmt.Errorf("failed to decode: %w", err)
	}
	return string(out), nil
}

// Lines splits text on "\n", "\r\n" and "\r". A trailing newline does not
// produce an extra empty line.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Find lists conscript files below root (case-insensitive extension match),
// in lexical order. A root naming a single file is returned as is.
func Find(fsys fileutil.FileSystem, root string) ([]string, error) {
	if strings.EqualFold(path.Ext(root), Extension) {
		return []string{root}, nil
	}
	var files []string
	err := fileutil.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(path.Ext(p), Extension) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find script files in %s: %w", root, err)
	}
	return files, nil
}
