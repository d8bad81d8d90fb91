package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/plumb-dev/plumb/internal/engine"
	"github.com/plumb-dev/plumb/internal/history"
	"github.com/plumb-dev/plumb/internal/pipeline"
	"github.com/plumb-dev/plumb/internal/resources"
	"github.com/plumb-dev/plumb/internal/session"
	"github.com/plumb-dev/plumb/internal/sitepolicy"
	plumbssh "github.com/plumb-dev/plumb/internal/ssh"
	"github.com/plumb-dev/plumb/pkg/api"
)

// Run a pipeline
func newRunCmd() *cobra.Command {
	var sess *session.Session
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline definition through an execution plugin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sitepolicy.FromEnv()
			if err != nil {
				return err
			}
			policy, err := sitepolicy.PolicyFromConfig(cfg)
			if err != nil {
				return err
			}
			if cfg != nil {
				if err := sess.ApplyDefaults(cfg.CLIDefaults); err != nil {
					return err
				}
			}
			if err := sess.Resolve(); err != nil {
				return err
			}
			sess.SetPolicy(policy)

			pipelinePath, _ := cmd.Flags().GetString("pipeline")
			spec, err := pipeline.Load(pipelinePath)
			if err != nil {
				return err
			}

			reg := engine.NewRegistry()
			local := engine.NewLocal(spec)
			for name := range engine.NonDistributed {
				reg.Register(name, local)
			}
			if cfg != nil && cfg.Remote.Host != "" {
				remote, err := newRemoteEngine(cfg, spec)
				if err != nil {
					return err
				}
				ids := cfg.Remote.Schedulers
				if len(ids) == 0 {
					ids = []string{"gridengine"}
				}
				for _, id := range ids {
					reg.Register(id, remote)
				}
			}
			eng, err := reg.Get(sess.Plugin())
			if err != nil {
				return err
			}

			historyDB, _ := cmd.Flags().GetString("history-db")
			if historyDB == "" && cfg != nil {
				historyDB = cfg.HistoryDB
			}
			if historyDB != "" {
				store, err := history.Open(historyDB)
				if err != nil {
					return err
				}
				defer store.Close()
				sess.SetHistory(store)
			}

			pipelineReq := resources.Request{MinCores: 1}
			if spec.Resources != nil {
				if pipelineReq, err = resources.FromSpec(*spec.Resources); err != nil {
					return err
				}
			}
			taskReqs := map[string]resources.Request{}
			for _, t := range spec.Tasks {
				if t.Resources == nil {
					continue
				}
				req, err := resources.FromSpec(*t.Resources)
				if err != nil {
					return err
				}
				taskReqs[t.Name] = req
			}

			return sess.Run(cmd.Context(), eng, pipelineReq, taskReqs)
		},
	}
	cmd.Flags().String("pipeline", "", "pipeline definition file (YAML)")
	cmd.Flags().StringSlice("input", nil, "input paths; their closest common parent becomes the default destination")
	cmd.Flags().String("history-db", "", "run history database path (default: history_db from the site configuration)")
	_ = cmd.MarkFlagRequired("pipeline")
	sess = session.New(cmd, session.Options{
		BaseInputOpts: []string{"pipeline", "input"},
		DefDestOpts:   []string{"input"},
	})
	return cmd
}

// Build the remote engine from the site configuration
func newRemoteEngine(cfg *sitepolicy.Config, spec *api.PipelineSpec) (*engine.Remote, error) {
	signer, err := plumbssh.LoadPrivateKeySigner(cfg.Remote.KeyPath)
	if err != nil {
		return nil, err
	}
	kh, err := plumbssh.LoadKnownHostsCallback(cfg.Remote.KnownHosts)
	if err != nil {
		return nil, err
	}
	port := cfg.Remote.Port
	if port == 0 {
		port = 22
	}
	client := &plumbssh.Client{
		Addr:       fmt.Sprintf("%s:%d", cfg.Remote.Host, port),
		User:       cfg.Remote.User,
		Signer:     signer,
		KnownHosts: kh,
		Timeout:    15 * time.Second,
		Retries:    2,
		Backoff:    500 * time.Millisecond,
	}
	return engine.NewRemote(spec, engine.RemoteOptions{
		Client:        client,
		RemoteRoot:    cfg.Remote.Root,
		SubmitCommand: cfg.Remote.SubmitCommand,
	}), nil
}

// Prepare the SSH material for remote submission
func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Generate the submission key and register the head node's host key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sitepolicy.FromEnv()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			keyPath, _ := flags.GetString("key")
			knownHosts, _ := flags.GetString("known-hosts")
			host, _ := flags.GetString("host")
			if cfg != nil {
				if keyPath == "" {
					keyPath = cfg.Remote.KeyPath
				}
				if knownHosts == "" {
					knownHosts = cfg.Remote.KnownHosts
				}
				if host == "" {
					host = cfg.Remote.Host
				}
			}
			if keyPath == "" {
				return fmt.Errorf("no key path; pass --key or set remote.key_path in the site configuration")
			}
			if _, err := os.Stat(keyPath); err == nil {
				return fmt.Errorf("refusing to overwrite existing key %s", keyPath)
			}
			pub, err := plumbssh.GenerateEd25519Keypair(keyPath)
			if err != nil {
				return err
			}
			// The operator appends this to authorized_keys on the head node.
			fmt.Fprint(cmd.OutOrStdout(), pub)

			hostKey, _ := flags.GetString("host-key")
			if hostKey == "" {
				return nil
			}
			if host == "" {
				return fmt.Errorf("--host-key needs a host; pass --host or set remote.host in the site configuration")
			}
			if knownHosts == "" {
				return fmt.Errorf("--host-key needs a known_hosts path; pass --known-hosts or set remote.known_hosts")
			}
			return plumbssh.AppendKnownHost(knownHosts, host, hostKey)
		},
	}
	cmd.Flags().String("key", "", "path to write the new private key to (default: remote.key_path from the site configuration)")
	cmd.Flags().String("known-hosts", "", "known_hosts file to register the head node in (default: remote.known_hosts)")
	cmd.Flags().String("host", "", "head node host name (default: remote.host)")
	cmd.Flags().String("host-key", "", "head node public key in authorized_keys form; appended to known_hosts when given")
	return cmd
}

// List past runs
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("history-db")
			if path == "" {
				cfg, err := sitepolicy.FromEnv()
				if err != nil {
					return err
				}
				if cfg != nil {
					path = cfg.HistoryDB
				}
			}
			if path == "" {
				return fmt.Errorf("no history database configured; pass --history-db or set history_db in the site configuration")
			}
			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				finished := "-"
				if r.FinishedAt != nil {
					finished = r.FinishedAt.Format(time.RFC3339)
				}
				fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID[:8], r.Status, r.Plugin, r.StartedAt.Format(time.RFC3339), finished, r.WorkDir)
			}
			return nil
		},
	}
	cmd.Flags().String("history-db", "", "run history database path")
	cmd.Flags().Int("limit", 20, "number of runs to show")
	return cmd
}

// Show the translated scheduler arguments for a resource request
func newArgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "args",
		Short: "Print the scheduler argument string the site policy produces for a resource request",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sitepolicy.FromEnv()
			if err != nil {
				return err
			}
			policy, err := sitepolicy.PolicyFromConfig(cfg)
			if err != nil {
				return err
			}

			req := resources.Request{MinCores: 1}
			flags := cmd.Flags()
			if flags.Changed("time") {
				v, _ := flags.GetInt64("time")
				req.Time = &v
			}
			if flags.Changed("mem") {
				v, _ := flags.GetInt64("mem")
				req.Mem = &v
			}
			if flags.Changed("vmem") {
				v, _ := flags.GetInt64("vmem")
				req.VMem = &v
			}
			req.UseMPI, _ = flags.GetBool("mpi")
			req.MinCores, _ = flags.GetInt("min-cores")
			if flags.Changed("max-cores") {
				v, _ := flags.GetInt("max-cores")
				req.MaxCores = &v
			}
			if err := req.Validate(); err != nil {
				return err
			}

			scheduler, _ := flags.GetString("scheduler")
			out, err := sitepolicy.Translate(policy, scheduler, req)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	cmd.Flags().String("scheduler", "gridengine", "scheduler identifier to translate for")
	cmd.Flags().Int64("time", 0, "wall time limit in seconds")
	cmd.Flags().Int64("mem", 0, "memory in bytes")
	cmd.Flags().Int64("vmem", 0, "virtual memory ceiling in bytes")
	cmd.Flags().Bool("mpi", false, "request an MPI parallel environment")
	cmd.Flags().Int("min-cores", 1, "minimum cores")
	cmd.Flags().Int("max-cores", 0, "maximum cores")
	return cmd
}
