package engine

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	plumbssh "github.com/plumb-dev/plumb/internal/ssh"
	"github.com/plumb-dev/plumb/pkg/api"
)

const (
	defaultJobWaitTimeout = 30 * time.Second
	donePollInterval      = 2 * time.Second
	doneMarker            = ".plumb-done"
	runLogName            = "run.log"
)

// RemoteOptions configures a Remote engine.
type RemoteOptions struct {
	Client *plumbssh.Client
	// RemoteRoot is the directory on the head node under which the run's
	// working directory is placed.
	RemoteRoot string
	// SubmitCommand is the scheduler submission binary on the head node,
	// e.g. "qsub -sync y". It must block until the submitted job finishes
	// and the job must touch the done marker in the working directory.
	SubmitCommand string
}

// Remote submits a pipeline run to a cluster head node over SSH. The run
// manifest is pushed via SFTP with checksum verification, the scheduler's
// submit command is invoked with the translated argument string, and the
// engine then waits for the done marker, tolerating networked file system
// lag up to the job wait timeout.
type Remote struct {
	spec        *api.PipelineSpec
	opts        RemoteOptions
	workDir     string
	tasks       map[string]*Task
	waitTimeout time.Duration
}

func NewRemote(spec *api.PipelineSpec, opts RemoteOptions) *Remote {
	tasks, _ := taskIndex(spec)
	return &Remote{spec: spec, opts: opts, tasks: tasks, waitTimeout: defaultJobWaitTimeout}
}

func (e *Remote) SetWorkDir(dir string) { e.workDir = dir }

func (e *Remote) SetJobWaitTimeout(d time.Duration) { e.waitTimeout = d }

func (e *Remote) Task(name string) (*Task, error) {
	t, ok := e.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return t, nil
}

// WriteGraph writes the DOT rendering locally; the manifest carries the
// structure to the head node.
func (e *Remote) WriteGraph() error {
	return writeDOT(e.spec, e.workDir)
}

// manifest is what the head node runner consumes: the pipeline itself plus
// the per-task submission attributes assigned by the session.
type manifest struct {
	Pipeline *api.PipelineSpec       `yaml:"pipeline"`
	Tasks    map[string]taskOverride `yaml:"tasks,omitempty"`
}

type taskOverride struct {
	UseMPI     bool   `yaml:"use_mpi,omitempty"`
	SubmitArgs string `yaml:"submit_args,omitempty"`
}

func (e *Remote) Run(ctx context.Context, schedulerID, submitArgs string) error {
	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return fmt.Errorf("create working dir: %w", err)
	}
	manifestPath, err := e.writeManifest()
	if err != nil {
		return err
	}

	cli, err := plumbssh.Dial(ctx, e.opts.Client)
	if err != nil {
		return fmt.Errorf("dial head node: %w", err)
	}
	defer cli.Close()

	remoteWD := path.Join(e.opts.RemoteRoot, filepath.Base(e.workDir))
	remoteManifest := path.Join(remoteWD, "manifest.yaml")
	if err := plumbssh.PushFile(cli, manifestPath, remoteManifest); err != nil {
		return fmt.Errorf("push manifest: %w", err)
	}

	submit := strings.TrimSpace(fmt.Sprintf("cd %s && %s %s %s", remoteWD, e.opts.SubmitCommand, submitArgs, "manifest.yaml"))
	log.Info().Str("scheduler", schedulerID).Str("command", submit).Msg("submitting pipeline")
	out, err := e.opts.Client.RunCommand(ctx, submit)
	if err != nil {
		return fmt.Errorf("submit: %w (output: %s)", err, strings.TrimSpace(out))
	}

	if err := e.waitForDone(ctx, remoteWD); err != nil {
		return err
	}

	// Best effort; not every submit command leaves a run log behind.
	logSrc := path.Join(remoteWD, runLogName)
	if err := plumbssh.PullFile(cli, logSrc, filepath.Join(e.workDir, runLogName)); err != nil {
		log.Debug().Err(err).Str("path", logSrc).Msg("no run log fetched")
	}
	return nil
}

// waitForDone polls for the done marker. The submit command has already
// returned, so the marker should exist; on a networked file system its
// visibility can lag, which is why absence is only an error once the wait
// timeout has passed.
func (e *Remote) waitForDone(ctx context.Context, remoteWD string) error {
	marker := path.Join(remoteWD, doneMarker)
	deadline := time.Now().Add(e.waitTimeout)
	for {
		if _, err := e.opts.Client.RunCommand(ctx, "test -e "+marker); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("job did not report completion within %s: missing %s", e.waitTimeout, marker)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(donePollInterval):
		}
	}
}

func (e *Remote) writeManifest() (string, error) {
	m := manifest{Pipeline: e.spec, Tasks: map[string]taskOverride{}}
	for name, t := range e.tasks {
		if t.UseMPI || t.SubmitArgs != "" {
			m.Tasks[name] = taskOverride{UseMPI: t.UseMPI, SubmitArgs: t.SubmitArgs}
		}
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	p := filepath.Join(e.workDir, "manifest.yaml")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return p, nil
}
