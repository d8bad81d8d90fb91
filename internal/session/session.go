// Package session is the generic layer between parsed command line
// arguments and a pipeline execution call. It names the working directory
// from a fingerprint of the meaningful inputs, infers the destination
// directory, translates resource requests into scheduler arguments, and
// drives the run/cleanup lifecycle.
package session

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/plumb-dev/plumb/internal/engine"
	"github.com/plumb-dev/plumb/internal/fingerprint"
	"github.com/plumb-dev/plumb/internal/history"
	"github.com/plumb-dev/plumb/internal/pathutil"
	"github.com/plumb-dev/plumb/internal/resources"
	"github.com/plumb-dev/plumb/internal/sitepolicy"
	"github.com/plumb-dev/plumb/pkg/api"
)

// distributedJobWait is the raised job wait timeout for plugins that may run
// across a networked file system. On such storage a finished job can look
// unfinished while metadata caches catch up; treating that as failure would
// corrupt pipeline results, so the raise is a correctness requirement.
const distributedJobWait = 60 * time.Second

// Options declares how a command's flags feed the session.
type Options struct {
	// BaseInputOpts are the flag names whose values would require a full
	// rerun if changed. Their stringified values, in this declared order,
	// form the fingerprint.
	BaseInputOpts []string
	// DefDestOpts are path-valued flag names that imply the default
	// destination directory: the closest common parent of all their values.
	// Empty means the current working directory is the default.
	DefDestOpts []string
	// User overrides the user name segment of the working directory name.
	// Defaults to the current user.
	User string
}

// Session wires the generic pipeline options onto a command and owns the
// run lifecycle. Create it with New before parsing, call Resolve after, and
// Run to execute.
type Session struct {
	opts   Options
	cmd    *cobra.Command
	policy sitepolicy.Policy
	hist   *history.Store

	progName string
	digest   string
	destDir  string
	workDir  string
	keepWd   bool
	plugin   string

	removeAll func(path string) error
}

// New registers the generic option group on cmd.
func New(cmd *cobra.Command, opts Options) *Session {
	f := cmd.Flags()
	f.String("dest-dir", "", "directory to store results under (default: inferred from input paths, else the current directory)")
	f.String("wd-root", "", "directory to place the working directory under (default: the destination directory)")
	f.String("wd-suffix", "", "suffix appended to the working directory name; keeps simultaneous runs with the same base inputs apart")
	f.Bool("keep-wd", false, "keep the working directory even after a clean run")
	f.String("exec-plugin", "local", "execution plugin to run the pipeline with")
	return &Session{opts: opts, cmd: cmd, removeAll: os.RemoveAll}
}

// SetPolicy injects the site's scheduler argument policy. A nil policy is
// the degraded mode in which all argument strings are empty.
func (s *Session) SetPolicy(p sitepolicy.Policy) { s.policy = p }

// SetHistory enables run recording.
func (s *Session) SetHistory(h *history.Store) { s.hist = h }

// ApplyDefaults merges site-supplied default values into the parsed flags.
// A flag the user set explicitly keeps its command line value; unknown flag
// names are skipped so one site file can serve several pipelines.
func (s *Session) ApplyDefaults(defaults map[string]string) error {
	for name, val := range defaults {
		fl := s.cmd.Flags().Lookup(name)
		if fl == nil || fl.Changed {
			continue
		}
		if err := fl.Value.Set(val); err != nil {
			return fmt.Errorf("site default for --%s: %w", name, err)
		}
		fl.DefValue = val
	}
	return nil
}

// Resolve computes the fingerprint, the destination directory, and the
// working directory path from the parsed flags. The working directory is
// not created here; the execution engine creates it when the run starts.
func (s *Session) Resolve() error {
	flags := s.cmd.Flags()
	s.progName = s.cmd.Root().Name()

	var base []string
	for _, name := range s.opts.BaseInputOpts {
		if fl := flags.Lookup(name); fl != nil {
			base = append(base, fl.Value.String())
		}
	}
	s.digest = fingerprint.Digest(base)

	destFlag, _ := flags.GetString("dest-dir")
	switch {
	case destFlag != "":
		abs, err := filepath.Abs(destFlag)
		if err != nil {
			return fmt.Errorf("resolve --dest-dir: %w", err)
		}
		s.destDir = abs
	case len(s.opts.DefDestOpts) == 0:
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		s.destDir = wd
	default:
		var srcs []string
		for _, name := range s.opts.DefDestOpts {
			fl := flags.Lookup(name)
			if fl == nil {
				continue
			}
			for _, v := range flagStrings(fl) {
				// An unset scalar flag stringifies to ""; that is no path.
				if v == "" {
					continue
				}
				abs, err := filepath.Abs(v)
				if err != nil {
					return fmt.Errorf("resolve --%s value %q: %w", name, v, err)
				}
				srcs = append(srcs, abs)
			}
		}
		if len(srcs) == 0 {
			// Destination options were declared but none were given a
			// value; fall back to the current directory.
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}
			s.destDir = wd
			break
		}
		dest, err := pathutil.CommonParent(srcs)
		if err != nil {
			return err
		}
		s.destDir = dest
	}

	wdRoot, _ := flags.GetString("wd-root")
	if wdRoot == "" {
		wdRoot = s.destDir
	}
	suffix, _ := flags.GetString("wd-suffix")
	u := s.opts.User
	if u == "" {
		u = currentUser()
	}
	s.workDir = filepath.Join(wdRoot, fingerprint.WorkDirName(s.progName, u, s.digest, suffix))

	s.keepWd, _ = flags.GetBool("keep-wd")
	s.plugin, _ = flags.GetString("exec-plugin")
	return nil
}

func (s *Session) Fingerprint() string { return s.digest }
func (s *Session) DestDir() string     { return s.destDir }
func (s *Session) WorkDir() string     { return s.workDir }
func (s *Session) Plugin() string      { return s.plugin }

// Run drives one pipeline run through eng and applies the working directory
// retention rules: a failed run always keeps its working directory for
// inspection and the original error is surfaced unchanged; a clean run
// removes it unless retention was requested.
func (s *Session) Run(ctx context.Context, eng engine.Engine, pipelineReq resources.Request, taskReqs map[string]resources.Request) error {
	if err := pipelineReq.Validate(); err != nil {
		return err
	}

	eng.SetWorkDir(s.workDir)

	// Best effort; a missing graph never blocks the run.
	if err := eng.WriteGraph(); err != nil {
		log.Warn().Err(err).Msg("could not write pipeline graph")
	}

	if !engine.NonDistributed[s.plugin] {
		eng.SetJobWaitTimeout(distributedJobWait)
	}

	submitArgs, err := sitepolicy.Translate(s.policy, s.plugin, pipelineReq)
	if err != nil {
		return err
	}

	for name, req := range taskReqs {
		if err := req.Validate(); err != nil {
			return fmt.Errorf("task %s: %w", name, err)
		}
		t, err := eng.Task(name)
		if err != nil {
			return err
		}
		if req.UseMPI {
			t.UseMPI = true
		}
		args, err := sitepolicy.Translate(s.policy, s.plugin, req)
		if err != nil {
			return err
		}
		t.SubmitArgs = args
	}

	var rec *history.Run
	if s.hist != nil {
		rec = &history.Run{
			Program:     s.progName,
			Fingerprint: s.digest,
			WorkDir:     s.workDir,
			DestDir:     s.destDir,
			Plugin:      s.plugin,
		}
		if err := s.hist.RecordStart(ctx, rec); err != nil {
			log.Warn().Err(err).Msg("could not record run start")
			rec = nil
		}
	}

	runErr := eng.Run(ctx, s.plugin, submitArgs)

	if rec != nil {
		status := api.RunSucceeded
		if runErr != nil {
			status = api.RunFailed
		}
		if err := s.hist.Finish(ctx, rec.ID, status); err != nil {
			log.Warn().Err(err).Msg("could not record run finish")
		}
	}

	if runErr != nil {
		log.Error().Str("work_dir", s.workDir).Msg("pipeline failed, keeping working directory for inspection")
		return runErr
	}

	if s.keepWd {
		log.Info().Str("work_dir", s.workDir).Msg("pipeline finished, keeping working directory as requested")
		return nil
	}
	log.Info().Str("work_dir", s.workDir).Msg("pipeline finished, removing working directory")
	if err := s.removeAll(s.workDir); err != nil {
		return fmt.Errorf("remove working directory: %w", err)
	}
	return nil
}

// flagStrings flattens a flag value: slice-valued flags contribute one entry
// per element, everything else its single string form.
func flagStrings(fl *pflag.Flag) []string {
	if sv, ok := fl.Value.(pflag.SliceValue); ok {
		return sv.GetSlice()
	}
	return []string{fl.Value.String()}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
