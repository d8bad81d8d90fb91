package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	spec, err := Load(writePipeline(t, `name: preprocess
resources:
  time_seconds: 3600
tasks:
  - name: convert
    command: convert-scans
    args: ["--fast"]
  - name: align
    command: align-scans
    resources:
      use_mpi: true
      min_cores: 4
      max_cores: 8
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if spec.Name != "preprocess" || len(spec.Tasks) != 2 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if spec.Tasks[1].Resources == nil || !spec.Tasks[1].Resources.UseMPI {
		t.Fatalf("task resources not parsed: %+v", spec.Tasks[1])
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no name", "tasks:\n  - name: a\n    command: x\n", "name required"},
		{"no tasks", "name: p\n", "no tasks"},
		{"duplicate task", "name: p\ntasks:\n  - name: a\n    command: x\n  - name: a\n    command: y\n", "duplicate task"},
		{"missing command", "name: p\ntasks:\n  - name: a\n", "no command"},
		{"bad cores", "name: p\ntasks:\n  - name: a\n    command: x\n    resources:\n      min_cores: 4\n      max_cores: 2\n", "max_cores"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writePipeline(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
