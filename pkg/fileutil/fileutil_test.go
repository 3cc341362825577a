package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	// Create a temporary directory for testing
	tmpDir := t.TempDir()

	// Create test files with various cases
	testFiles := []string{
		"TestFile.txt",
		"UPPERCASE.WAV",
		"lowercase.mid",
		"MixedCase.BMP",
	}

	for _, filename := range testFiles {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{
			name:          "exact match",
			searchName:    "TestFile.txt",
			shouldFind:    true,
			expectedMatch: "TestFile.txt",
		},
		{
			name:          "lowercase search for mixed case file",
			searchName:    "testfile.txt",
			shouldFind:    true,
			expectedMatch: "TestFile.txt",
		},
		{
			name:          "uppercase search for mixed case file",
			searchName:    "TESTFILE.TXT",
			shouldFind:    true,
			expectedMatch: "TestFile.txt",
		},
		{
			name:          "mixed case search for uppercase file",
			searchName:    "Uppercase.wav",
			shouldFind:    true,
			expectedMatch: "UPPERCASE.WAV",
		},
		{
			name:          "uppercase search for lowercase file",
			searchName:    "LOWERCASE.MID",
			shouldFind:    true,
			expectedMatch: "lowercase.mid",
		},
		{
			name:       "file not found",
			searchName: "nonexistent.txt",
			shouldFind: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := FindFileCaseInsensitive(tmpDir, tt.searchName)

			if tt.shouldFind {
				if err != nil {
					t.Errorf("Expected to find file, but got error: %v", err)
					return
				}

				actualFilename := filepath.Base(path)
				if actualFilename != tt.expectedMatch {
					t.Errorf("Expected filename %s, got %s", tt.expectedMatch, actualFilename)
				}

				// Verify the file actually exists
				if _, err := os.Stat(path); err != nil {
					t.Errorf("Returned path does not exist: %s", path)
				}
			} else {
				if err == nil {
					t.Errorf("Expected error for non-existent file, but got path: %s", path)
				}
			}
		})
	}
}



func TestFindFileCaseInsensitiveFS(t *testing.T) {
	fsys := fstest.MapFS{
		"assets/Title.PNG": {Data: []byte("png")},
		"assets/sub":       {Mode: fs.ModeDir},
	}

	got, err := FindFileCaseInsensitiveFS(fsys, "assets", "title.png")
	if err != nil || got != "assets/Title.PNG" {
		t.Errorf("FindFileCaseInsensitiveFS = %q, %v", got, err)
	}
	if _, err := FindFileCaseInsensitiveFS(fsys, "assets", "SUB"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("directories should not match, got %v", err)
	}
	if _, err := FindFileCaseInsensitiveFS(fsys, "missing", "a.png"); err == nil {
		t.Error("missing directory should fail")
	}
}

func TestEmbedFS(t *testing.T) {
	fsys := NewEmbedFS(fstest.MapFS{
		"samples/main.conscript":       {Data: []byte("main")},
		"samples/ui/Palette.conscript": {Data: []byte("palette")},
	}, "samples")

	tests := []struct {
		name string
		want string
	}{
		{"main.conscript", "main"},
		{"/main.conscript", "main"},
		{"ui/palette.conscript", "palette"},
		{`ui\PALETTE.conscript`, "palette"},
		{"ui/../main.conscript", "main"},
	}
	for _, tt := range tests {
		data, err := fsys.ReadFile(tt.name)
		if err != nil || string(data) != tt.want {
			t.Errorf("ReadFile(%q) = %q, %v; want %q", tt.name, data, err, tt.want)
		}
	}

	if _, err := fsys.ReadFile("nope.conscript"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(missing) = %v, want fs.ErrNotExist", err)
	}
	if !fsys.IsEmbedded() || fsys.BasePath() != "samples" {
		t.Error("EmbedFS should report embedded with its base path")
	}
	if a, b := fsys.Key("ui/palette.conscript"), fsys.Key("UI/../ui/PALETTE.CONSCRIPT"); a != b {
		t.Errorf("Key mismatch: %q != %q", a, b)
	}
	if fsys.Key("main.conscript") == fsys.Key("ui/palette.conscript") {
		t.Error("different files should have different keys")
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		from, rel, want string
	}{
		{"main.conscript", "ui/palette.conscript", "ui/palette.conscript"},
		{"ui/palette.conscript", "fonts.conscript", "ui/fonts.conscript"},
		{"ui/palette.conscript", "../main.conscript", "main.conscript"},
		{`ui\palette.conscript`, `img\a.png`, "ui/img/a.png"},
		{"ui/palette.conscript", "/abs/a.png", "/abs/a.png"},
	}
	for _, fsys := range []FileSystem{NewRealFS(""), NewEmbedFS(fstest.MapFS{}, "")} {
		for _, tt := range tests {
			if got := fsys.Join(tt.from, tt.rel); got != tt.want {
				t.Errorf("%T.Join(%q, %q) = %q, want %q", fsys, tt.from, tt.rel, got, tt.want)
			}
		}
	}
}

func TestRealFS(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "ui"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "ui", "Fonts.conscript"), []byte("fonts"), 0644); err != nil {
		t.Fatal(err)
	}

	fsys := NewRealFS(tmpDir)
	data, err := fsys.ReadFile("ui/fonts.conscript")
	if err != nil || string(data) != "fonts" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
	if fsys.Key("ui/fonts.conscript") != fsys.Key("ui/FONTS.conscript") {
		t.Error("keys should ignore case")
	}
	if fsys.IsEmbedded() {
		t.Error("RealFS is not embedded")
	}

	var walked []string
	err = WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			walked = append(walked, p)
		}
		return nil
	})
	if err != nil || len(walked) != 1 || walked[0] != "ui/Fonts.conscript" {
		t.Errorf("WalkDir = %v, %v", walked, err)
	}
}

func TestWalkDir_EmbedFS(t *testing.T) {
	fsys := NewEmbedFS(fstest.MapFS{
		"samples/a.conscript":   {Data: []byte("")},
		"samples/x/b.conscript": {Data: []byte("")},
		"other/c.conscript":     {Data: []byte("")},
	}, "samples")

	var walked []string
	err := WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			walked = append(walked, p)
		}
		return nil
	})
	if err != nil || len(walked) != 2 || walked[0] != "a.conscript" || walked[1] != "x/b.conscript" {
		t.Errorf("WalkDir = %v, %v", walked, err)
	}
}
