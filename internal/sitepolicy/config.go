package sitepolicy

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the site configuration file
// path. Unset or empty disables site policy entirely.
const EnvVar = "PLUMB_SITE_CONF"

// GridEngineConfig tunes the grid engine policy for the local site.
type GridEngineConfig struct {
	MPIEnvironment string   `yaml:"mpi_environment"`
	SMPEnvironment string   `yaml:"smp_environment"`
	Schedulers     []string `yaml:"schedulers"`
}

// RemoteConfig describes the cluster head node runs are submitted to.
type RemoteConfig struct {
	Host          string   `yaml:"host"`
	Port          int      `yaml:"port"`
	User          string   `yaml:"user"`
	KeyPath       string   `yaml:"key_path"`
	KnownHosts    string   `yaml:"known_hosts"`
	Root          string   `yaml:"root"`
	SubmitCommand string   `yaml:"submit_command"`
	Schedulers    []string `yaml:"schedulers"`
}

// Config is the local site configuration. It is read once at process start
// and passed down explicitly; absence (a nil *Config) is a valid, degraded
// mode in which all scheduler argument strings are empty.
type Config struct {
	// CLIDefaults overrides flag defaults; explicit command line values
	// always win.
	CLIDefaults map[string]string `yaml:"cli_defaults"`
	// SchedulerDefaults maps scheduler identifiers to their site-wide
	// default argument strings.
	SchedulerDefaults map[string]string `yaml:"scheduler_defaults"`
	// Policy names the argument policy to instantiate, e.g. "gridengine".
	Policy     string           `yaml:"policy"`
	GridEngine GridEngineConfig `yaml:"gridengine"`
	Remote     RemoteConfig     `yaml:"remote"`
	// HistoryDB is the default path of the run history database.
	HistoryDB string `yaml:"history_db"`
}

// Load reads a site configuration file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open site config: %w", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read site config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse site config: %w", err)
	}
	return &cfg, nil
}

// FromEnv loads the site configuration named by EnvVar. A missing or empty
// variable yields a nil config and no error.
func FromEnv() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, nil
	}
	return Load(path)
}

// PolicyFromConfig instantiates the configured policy through the default
// registry. A nil config or empty policy name yields a nil policy.
func PolicyFromConfig(cfg *Config) (Policy, error) {
	if cfg == nil || cfg.Policy == "" {
		return nil, nil
	}
	return DefaultRegistry().Build(cfg.Policy, cfg)
}
