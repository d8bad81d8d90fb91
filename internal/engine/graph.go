package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/plumb-dev/plumb/pkg/api"
)

// writeDOT renders the pipeline's task chain as a Graphviz file in dir.
func writeDOT(spec *api.PipelineSpec, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create working dir: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", spec.Name)
	for _, t := range spec.Tasks {
		fmt.Fprintf(&b, "  %q;\n", t.Name)
	}
	for i := 1; i < len(spec.Tasks); i++ {
		fmt.Fprintf(&b, "  %q -> %q;\n", spec.Tasks[i-1].Name, spec.Tasks[i].Name)
	}
	b.WriteString("}\n")
	return os.WriteFile(filepath.Join(dir, "graph.dot"), []byte(b.String()), 0o644)
}

// taskIndex builds the session-assignable task handles, preserving pipeline
// order.
func taskIndex(spec *api.PipelineSpec) (map[string]*Task, []string) {
	tasks := make(map[string]*Task, len(spec.Tasks))
	order := make([]string, 0, len(spec.Tasks))
	for _, t := range spec.Tasks {
		tasks[t.Name] = &Task{Name: t.Name}
		order = append(order, t.Name)
	}
	return tasks, order
}
