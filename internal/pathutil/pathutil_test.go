package pathutil

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestCommonParent(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"siblings", []string{"/a/b/c", "/a/b/d"}, "/a/b"},
		{"partial segment", []string{"/a/b", "/a/bc"}, "/a"},
		{"single path", []string{"/a/b"}, "/a"},
		{"nested", []string{"/data/study/subj01/scan.nii", "/data/study/subj02/scan.nii"}, "/data/study"},
		{"identical", []string{"/a/b/c", "/a/b/c"}, "/a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CommonParent(tt.paths)
			if err != nil {
				t.Fatalf("CommonParent(%v): %v", tt.paths, err)
			}
			if got != tt.want {
				t.Fatalf("CommonParent(%v) = %q, want %q", tt.paths, got, tt.want)
			}
		})
	}
}

func TestCommonParentEmpty(t *testing.T) {
	if _, err := CommonParent(nil); !errors.Is(err, ErrNoPaths) {
		t.Fatalf("expected ErrNoPaths, got %v", err)
	}
}

// Existing directories take the same truncation path: the prefix of two
// sibling entries ends with the separator, which is never a boundary for the
// entries themselves, so the parent directory comes back without it.
func TestCommonParentExistingDir(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "x"), filepath.Join(dir, "y")}
	got, err := CommonParent(paths)
	if err != nil {
		t.Fatalf("CommonParent: %v", err)
	}
	if got != dir {
		t.Fatalf("CommonParent(%v) = %q, want %q", paths, got, dir)
	}
}
