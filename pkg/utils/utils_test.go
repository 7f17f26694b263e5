package utils

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestCoalesceString(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"empty slice", []string{}, ""},
		{"all empty", []string{"", "", ""}, ""},
		{"first non-empty", []string{"a", "", "c"}, "a"},
		{"second non-empty", []string{"", "b", "c"}, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoalesceString(tt.in...)
			if got != tt.want {
				t.Errorf("CoalesceString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultInt(t *testing.T) {
	tests := []struct {
		v, defaultVal, want int
	}{
		{0, 10, 10},
		{1, 10, 1},
		{-1, 10, 10},
	}
	for _, tt := range tests {
		if got := DefaultInt(tt.v, tt.defaultVal); got != tt.want {
			t.Errorf("DefaultInt(%d, %d) = %d, want %d", tt.v, tt.defaultVal, got, tt.want)
		}
	}
}

func TestFormatClassification(t *testing.T) {
	tests := []struct {
		path       string
		supported  bool
		conversion bool
	}{
		{"/data/a.pdf", true, true},
		{"/data/a.DOCX", true, true},
		{"/data/a.doc", true, true},
		{"/data/a.md", true, false},
		{"/data/a.markdown", true, false},
		{"/data/a.txt", true, false},
		{"/data/a.xlsx", true, false},
		{"/data/a.csv", true, false},
		{"/data/a.exe", false, false},
		{"/data/noext", false, false},
	}
	for _, tt := range tests {
		if got := IsSupportedFormat(tt.path); got != tt.supported {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", tt.path, got, tt.supported)
		}
		if got := RequiresConversion(tt.path); got != tt.conversion {
			t.Errorf("RequiresConversion(%q) = %v, want %v", tt.path, got, tt.conversion)
		}
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	if !sort.StringsAreSorted(exts) {
		t.Errorf("extensions should be sorted: %v", exts)
	}
	if len(exts) != 9 {
		t.Fatalf("got %d extensions, want 9: %v", len(exts), exts)
	}
	for _, ext := range exts {
		if !IsSupportedFormat("/data/a" + ext) {
			t.Errorf("listed extension %s should be supported", ext)
		}
	}
}

func TestFileMD5(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := FileMD5(path)
	if err != nil {
		t.Fatalf("FileMD5: %v", err)
	}
	// md5("hello")
	want := "5d41402abc4b2a76b9719d911017c592"
	if got != want {
		t.Errorf("FileMD5 = %q, want %q", got, want)
	}
	if ContentMD5([]byte("hello")) != want {
		t.Errorf("ContentMD5 mismatch")
	}

	if _, err := FileMD5(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("FileMD5 on missing file should error")
	}
}
