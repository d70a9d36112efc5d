package config

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/labels"
)

// Validate checks the config for errors.
func (c Config) Validate() error {
	var errs []string

	if c.Namespace == "" {
		errs = append(errs, "namespace is required")
	}
	if c.Pod == "" {
		errs = append(errs, "pod is required")
	}

	if c.Action != "kill" && c.Action != "stop" {
		errs = append(errs, fmt.Sprintf("action must be kill or stop (got %q)", c.Action))
	}

	if c.Mode != "serial" && c.Mode != "parallel" {
		errs = append(errs, fmt.Sprintf("mode must be serial or parallel (got %q)", c.Mode))
	}

	if len(c.Containers) > 0 && c.LabelSelector != "" {
		errs = append(errs, "containers and labelSelector are mutually exclusive")
	}

	if c.LabelSelector != "" {
		if _, err := labels.Parse(c.LabelSelector); err != nil {
			errs = append(errs, fmt.Sprintf("labelSelector does not parse: %v", err))
		}
	}

	if c.MaxInFlight < 0 {
		errs = append(errs, "maxInFlight must not be negative")
	}
	if c.PerTargetTimeout < 0 {
		errs = append(errs, "perTargetTimeout must not be negative")
	}
	if c.OverallTimeout < 0 {
		errs = append(errs, "overallTimeout must not be negative")
	}
	if c.GracePeriod < 0 {
		errs = append(errs, "gracePeriod must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}

	return nil
}
