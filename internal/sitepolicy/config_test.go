package sitepolicy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/plumb-dev/plumb/internal/resources"
)

const sampleConfig = `cli_defaults:
  wd-root: /scratch
  exec-plugin: gridengine
scheduler_defaults:
  gridengine: "-b n"
policy: gridengine
gridengine:
  mpi_environment: orte
history_db: /var/lib/plumb/history.db
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CLIDefaults["wd-root"] != "/scratch" {
		t.Fatalf("cli_defaults not parsed: %v", cfg.CLIDefaults)
	}
	if cfg.SchedulerDefaults["gridengine"] != "-b n" {
		t.Fatalf("scheduler_defaults not parsed: %v", cfg.SchedulerDefaults)
	}
	if cfg.HistoryDB != "/var/lib/plumb/history.db" {
		t.Fatalf("history_db not parsed: %q", cfg.HistoryDB)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := FromEnv()
	if err != nil || cfg != nil {
		t.Fatalf("empty env var should disable site policy, got cfg=%v err=%v", cfg, err)
	}

	path := writeConfig(t, sampleConfig)
	t.Setenv(EnvVar, path)
	cfg, err = FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg == nil || cfg.Policy != "gridengine" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestPolicyFromConfig(t *testing.T) {
	p, err := PolicyFromConfig(nil)
	if err != nil || p != nil {
		t.Fatalf("nil config should give nil policy, got %v, %v", p, err)
	}

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err = PolicyFromConfig(cfg)
	if err != nil {
		t.Fatalf("PolicyFromConfig: %v", err)
	}
	args, err := Translate(p, "gridengine", resources.Request{UseMPI: true, MinCores: 2})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if args != "-b n -pe orte 2" {
		t.Fatalf("unexpected args: %q", args)
	}

	cfg.Policy = "no-such-policy"
	if _, err := PolicyFromConfig(cfg); err == nil {
		t.Fatalf("unknown policy name should error")
	}
}
