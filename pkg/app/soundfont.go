package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zurustar/conscript/pkg/assets"
	"github.com/zurustar/conscript/pkg/fileutil"
)

// SoundFontLocation represents the location of a SoundFont file.
type SoundFontLocation struct {
	// Path is the path to the SoundFont file within FileSystem
	Path string
	// FileSystem is the FileSystem to use for loading
	FileSystem fileutil.FileSystem
	// IsEmbedded indicates whether the SoundFont is embedded
	IsEmbedded bool
}

const (
	// DefaultSoundFontName is the default SoundFont filename to search for.
	DefaultSoundFontName = "GeneralUser-GS.sf2"
	// DefaultSoundFontResource is the name scripts use for the default
	// SoundFont, e.g. MUSIC "title", "title.mid", soundFont:"default";
	DefaultSoundFontResource = "default"
)

// findSoundFont searches for a SoundFont file in the following order:
// 1. Embedded soundfonts directory
// 2. Script directories (external)
// 3. Current directory (external)
func findSoundFont(embedded fs.FS, scriptDirs []string) *SoundFontLocation {
	// 1. 埋め込みの soundfonts ディレクトリ
	if embedded != nil {
		if info, err := fs.Stat(embedded, "soundfonts/"+DefaultSoundFontName); err == nil && info.Size() > 0 {
			return &SoundFontLocation{
				Path:       DefaultSoundFontName, // FileSystemのベースパスが"soundfonts"なので、ファイル名だけ
				FileSystem: fileutil.NewEmbedFS(embedded, "soundfonts"),
				IsEmbedded: true,
			}
		}
	}

	// 2. スクリプトのディレクトリ
	for _, dir := range scriptDirs {
		p := filepath.Join(dir, DefaultSoundFontName)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return &SoundFontLocation{Path: p, FileSystem: fileutil.NewRealFS("")}
		}
	}

	// 3. カレントディレクトリ
	if info, err := os.Stat(DefaultSoundFontName); err == nil && !info.IsDir() {
		return &SoundFontLocation{Path: DefaultSoundFontName, FileSystem: fileutil.NewRealFS("")}
	}

	return nil
}

// loadSoundFont reads and parses the SoundFont at loc.
func loadSoundFont(loc *SoundFontLocation) (*assets.SoundFont, error) {
	data, err := loc.FileSystem.ReadFile(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SoundFont %s: %w", loc.Path, err)
	}
	return assets.ParseSoundFont(DefaultSoundFontResource, loc.Path, data)
}
