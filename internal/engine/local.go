package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/plumb-dev/plumb/pkg/api"
)

// Local runs pipeline tasks sequentially on this host. Scheduler argument
// strings have no meaning locally and are only logged; the MPI flag still
// matters and switches a task to an mpiexec launch.
type Local struct {
	spec        *api.PipelineSpec
	workDir     string
	tasks       map[string]*Task
	order       []string
	waitTimeout time.Duration
}

func NewLocal(spec *api.PipelineSpec) *Local {
	tasks, order := taskIndex(spec)
	return &Local{spec: spec, tasks: tasks, order: order}
}

func (e *Local) SetWorkDir(dir string) { e.workDir = dir }

func (e *Local) SetJobWaitTimeout(d time.Duration) { e.waitTimeout = d }

func (e *Local) Task(name string) (*Task, error) {
	t, ok := e.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return t, nil
}

func (e *Local) WriteGraph() error {
	return writeDOT(e.spec, e.workDir)
}

func (e *Local) Run(ctx context.Context, schedulerID, submitArgs string) error {
	logDir := filepath.Join(e.workDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	if submitArgs != "" {
		log.Debug().Str("args", submitArgs).Msg("ignoring scheduler args for local run")
	}
	for _, name := range e.order {
		spec := e.taskSpec(name)
		if err := e.runTask(ctx, spec, logDir); err != nil {
			return fmt.Errorf("task %s: %w", name, err)
		}
	}
	return nil
}

func (e *Local) runTask(ctx context.Context, spec *api.TaskSpec, logDir string) error {
	command := spec.Command
	args := spec.Args
	if e.tasks[spec.Name].UseMPI {
		prefix := []string{command}
		if spec.Resources != nil && spec.Resources.MinCores > 0 {
			prefix = append([]string{"-n", strconv.Itoa(spec.Resources.MinCores)}, prefix...)
		}
		args = append(prefix, args...)
		command = "mpiexec"
	}

	out, err := os.Create(filepath.Join(logDir, spec.Name+".log"))
	if err != nil {
		return fmt.Errorf("create task log: %w", err)
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = e.workDir
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	log.Debug().Str("task", spec.Name).Str("command", command).Msg("running task")
	return cmd.Run()
}

func (e *Local) taskSpec(name string) *api.TaskSpec {
	for i := range e.spec.Tasks {
		if e.spec.Tasks[i].Name == name {
			return &e.spec.Tasks[i]
		}
	}
	return nil
}
