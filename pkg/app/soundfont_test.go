package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/zurustar/conscript/pkg/conscript"
	"github.com/zurustar/conscript/pkg/fileutil"
)

func writeSoundFont(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, DefaultSoundFontName)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return p
}

func TestFindSoundFont_Embedded(t *testing.T) {
	t.Chdir(t.TempDir())

	embedded := fstest.MapFS{
		"soundfonts/" + DefaultSoundFontName: {Data: []byte("RIFF....sfbk")},
	}
	result := findSoundFont(embedded, nil)
	if result == nil {
		t.Fatal("Expected to find the embedded SoundFont")
	}
	if !result.IsEmbedded || result.Path != DefaultSoundFontName {
		t.Errorf("got %+v, want embedded %s", result, DefaultSoundFontName)
	}
	if !result.FileSystem.IsEmbedded() {
		t.Error("Expected an embedded FileSystem")
	}
}

func TestFindSoundFont_EmptyEmbeddedFileIsSkipped(t *testing.T) {
	t.Chdir(t.TempDir())

	embedded := fstest.MapFS{
		"soundfonts/" + DefaultSoundFontName: {Data: nil},
	}
	if result := findSoundFont(embedded, nil); result != nil {
		t.Errorf("Expected nil for an empty embedded placeholder, got %+v", result)
	}
}

func TestFindSoundFont_ScriptDirectory(t *testing.T) {
	t.Chdir(t.TempDir())

	titleDir := filepath.Join(t.TempDir(), "title")
	if err := os.MkdirAll(titleDir, 0755); err != nil {
		t.Fatal(err)
	}
	sfPath := writeSoundFont(t, titleDir, "RIFF-title")

	result := findSoundFont(nil, []string{"/nonexistent/path", titleDir})
	if result == nil {
		t.Fatal("Expected to find SoundFont in title directory")
	}
	if result.IsEmbedded || result.Path != sfPath {
		t.Errorf("got %+v, want external %s", result, sfPath)
	}
}

func TestFindSoundFont_CurrentDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	writeSoundFont(t, tmpDir, "RIFF-current")
	t.Chdir(tmpDir)

	result := findSoundFont(fstest.MapFS{}, nil)
	if result == nil {
		t.Fatal("Expected to find SoundFont in current directory")
	}
	if result.IsEmbedded || result.Path != DefaultSoundFontName {
		t.Errorf("got %+v, want %s in the current directory", result, DefaultSoundFontName)
	}
}

func TestFindSoundFont_Priority(t *testing.T) {
	tmpDir := t.TempDir()
	titleDir := filepath.Join(tmpDir, "title")
	if err := os.MkdirAll(titleDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeSoundFont(t, tmpDir, "RIFF-current")
	titleSF := writeSoundFont(t, titleDir, "RIFF-title")
	t.Chdir(tmpDir)

	t.Run("スクリプトのディレクトリがカレントより優先", func(t *testing.T) {
		result := findSoundFont(nil, []string{titleDir})
		if result == nil || result.Path != titleSF {
			t.Errorf("Expected title directory SoundFont, got %+v", result)
		}
	})

	t.Run("埋め込みが最優先", func(t *testing.T) {
		embedded := fstest.MapFS{
			"soundfonts/" + DefaultSoundFontName: {Data: []byte("RIFF-embedded")},
		}
		result := findSoundFont(embedded, []string{titleDir})
		if result == nil || !result.IsEmbedded {
			t.Errorf("Expected embedded SoundFont, got %+v", result)
		}
	})
}

func TestFindSoundFont_NotFound(t *testing.T) {
	t.Chdir(t.TempDir())

	if result := findSoundFont(nil, []string{"/nonexistent/path"}); result != nil {
		t.Errorf("Expected nil when no SoundFont found, got %+v", result)
	}
}

func TestLoadSoundFont_Errors(t *testing.T) {
	dir := t.TempDir()
	writeSoundFont(t, dir, "RIFF....sfbk")

	_, err := loadSoundFont(&SoundFontLocation{
		Path:       filepath.Join(dir, DefaultSoundFontName),
		FileSystem: fileutil.NewRealFS(""),
	})
	var ce *conscript.ContentError
	if !errors.As(err, &ce) {
		t.Errorf("invalid SoundFont: got %v, want a content error", err)
	}

	_, err = loadSoundFont(&SoundFontLocation{
		Path:       filepath.Join(dir, "missing.sf2"),
		FileSystem: fileutil.NewRealFS(""),
	})
	if err == nil || errors.As(err, &ce) {
		t.Errorf("missing SoundFont: got %v, want a read error", err)
	}
}
