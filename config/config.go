package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one invocation, loadable from a YAML file. Cluster
// connection settings (kubeconfig, master) stay on the command line.
type Config struct {
	// Namespace is the target pod's namespace.
	Namespace string `yaml:"namespace"`
	// Pod is the target pod's name.
	Pod string `yaml:"pod"`
	// Containers restricts the targets to the named containers.
	Containers []string `yaml:"containers"`
	// LabelSelector targets all containers of the pod iff the pod's labels
	// match. Mutually exclusive with Containers.
	LabelSelector string `yaml:"labelSelector"`
	// Action is the disruption to apply, kill or stop.
	Action string `yaml:"action"`
	// Signal is delivered by the kill action.
	Signal string `yaml:"signal"`
	// GracePeriod is how long the stop action waits before killing.
	GracePeriod time.Duration `yaml:"gracePeriod"`
	// Mode is serial or parallel.
	Mode string `yaml:"mode"`
	// MaxInFlight bounds concurrent actions in parallel mode, 0 for auto.
	MaxInFlight int `yaml:"maxInFlight"`
	// PerTargetTimeout bounds each individual action.
	PerTargetTimeout time.Duration `yaml:"perTargetTimeout"`
	// OverallTimeout bounds the whole invocation's executing phase.
	OverallTimeout time.Duration `yaml:"overallTimeout"`
	// DryRun resolves and reports without touching any container.
	DryRun bool `yaml:"dryRun"`
	// SlackWebhook, if set, receives a summary of the finished invocation.
	SlackWebhook string `yaml:"slackWebhook"`
}

// Default returns the built-in defaults. DryRun defaults to true so that an
// incomplete config cannot kill anything by accident.
func Default() Config {
	return Config{
		Action:           "kill",
		Signal:           "SIGKILL",
		GracePeriod:      10 * time.Second,
		Mode:             "parallel",
		PerTargetTimeout: 30 * time.Second,
		OverallTimeout:   2 * time.Minute,
		DryRun:           true,
	}
}

// Load reads a config file, layered over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}
