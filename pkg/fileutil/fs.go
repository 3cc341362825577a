// Package fileutil provides unified file system access for both real and embedded file systems.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem は実ファイルシステムと埋め込みファイルシステムを統一的に扱うインターフェース
//
// Script paths are always slash-separated; RealFS converts them to the host
// separator.
type FileSystem interface {
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// Resolve は大文字小文字を無視してファイルを検索し、実際のパスを返す
	Resolve(name string) (string, error)
	// Join は from と同じディレクトリを基準に rel を解決する
	Join(from, rel string) string
	// Key は循環検出に使う正規化済みのパスを返す
	Key(name string) string
	// BasePath はベースパスを返す
	BasePath() string
	// IsEmbedded は埋め込みファイルシステムかどうかを返す
	IsEmbedded() bool
}

// joinScriptPath resolves rel against the directory of from. Absolute rel
// paths are returned unchanged.
func joinScriptPath(from, rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if path.IsAbs(rel) || filepath.IsAbs(rel) {
		return rel
	}
	dir := path.Dir(strings.ReplaceAll(from, "\\", "/"))
	return path.Join(dir, rel)
}

// RealFS は実ファイルシステムへのアクセスを提供する
type RealFS struct {
	basePath string
}

// NewRealFS は実ファイルシステム用のFileSystemを作成する
func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	actualPath, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(actualPath)
}

func (r *RealFS) Resolve(name string) (string, error) {
	return r.findFileCaseInsensitive(r.resolvePath(name))
}

func (r *RealFS) Join(from, rel string) string {
	return joinScriptPath(from, rel)
}

func (r *RealFS) Key(name string) string {
	p, err := r.Resolve(name)
	if err != nil {
		p = r.resolvePath(name)
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return strings.ToLower(filepath.Clean(p))
}

func (r *RealFS) BasePath() string {
	return r.basePath
}

func (r *RealFS) IsEmbedded() bool {
	return false
}

func (r *RealFS) resolvePath(name string) string {
	p := filepath.FromSlash(name)
	if filepath.IsAbs(p) || r.basePath == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(r.basePath, p)
}

func (r *RealFS) findFileCaseInsensitive(p string) (string, error) {
	// まず直接アクセスを試みる
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		return p, nil
	}

	// 大文字小文字を無視して検索
	return FindFileCaseInsensitive(filepath.Dir(p), filepath.Base(p))
}

// EmbedFS は埋め込みファイルシステムへのアクセスを提供する
type EmbedFS struct {
	fsys     fs.FS
	basePath string
}

// NewEmbedFS は埋め込みファイルシステム用のFileSystemを作成する
func NewEmbedFS(fsys fs.FS, basePath string) *EmbedFS {
	return &EmbedFS{fsys: fsys, basePath: basePath}
}

func (e *EmbedFS) ReadFile(name string) ([]byte, error) {
	actualPath, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(e.fsys, actualPath)
}

func (e *EmbedFS) Resolve(name string) (string, error) {
	return e.findFileCaseInsensitive(e.resolvePath(name))
}

func (e *EmbedFS) Join(from, rel string) string {
	return joinScriptPath(from, rel)
}

func (e *EmbedFS) Key(name string) string {
	p, err := e.Resolve(name)
	if err != nil {
		p = e.resolvePath(name)
	}
	return strings.ToLower(p)
}

func (e *EmbedFS) BasePath() string {
	return e.basePath
}

func (e *EmbedFS) IsEmbedded() bool {
	return true
}

// Sub returns the underlying fs.FS rooted at the base path.
func (e *EmbedFS) Sub() (fs.FS, error) {
	if e.basePath == "" || e.basePath == "." {
		return e.fsys, nil
	}
	return fs.Sub(e.fsys, e.basePath)
}

func (e *EmbedFS) resolvePath(name string) string {
	// 先頭の "/" や "\" を除去
	cleanName := strings.TrimLeft(strings.ReplaceAll(name, "\\", "/"), "/")
	cleanName = path.Clean(cleanName)
	// "." は現在のディレクトリを意味するので、basePathそのものを返す
	if cleanName == "." || cleanName == "" {
		if e.basePath != "" {
			return e.basePath
		}
		return "."
	}
	if e.basePath != "" {
		return path.Join(e.basePath, cleanName)
	}
	return cleanName
}

func (e *EmbedFS) findFileCaseInsensitive(p string) (string, error) {
	// まず直接アクセスを試みる
	if info, err := fs.Stat(e.fsys, p); err == nil && !info.IsDir() {
		return p, nil
	}

	// 大文字小文字を無視して検索
	return FindFileCaseInsensitiveFS(e.fsys, path.Dir(p), path.Base(p))
}

// WalkDir はディレクトリを再帰的に走査する
// 返されるパスはベースパスからの相対パス（スラッシュ区切り）
func WalkDir(fsys FileSystem, root string, fn fs.WalkDirFunc) error {
	if embedFS, ok := fsys.(*EmbedFS); ok {
		sub, err := embedFS.Sub()
		if err != nil {
			return err
		}
		return fs.WalkDir(sub, path.Clean(root), fn)
	}

	if realFS, ok := fsys.(*RealFS); ok {
		start := realFS.resolvePath(root)
		basePath := realFS.basePath
		return filepath.WalkDir(start, func(walkPath string, d fs.DirEntry, err error) error {
			// ベースパスからの相対パスに変換
			relPath := walkPath
			if basePath != "" {
				if rel, relErr := filepath.Rel(basePath, walkPath); relErr == nil {
					relPath = rel
				}
			}
			return fn(filepath.ToSlash(relPath), d, err)
		})
	}

	return fmt.Errorf("unsupported file system type %T", fsys)
}
