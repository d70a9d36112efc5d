package resolver

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/chaitanyaenr/container-plugin/runtime"
)

// PodRef identifies a pod by namespace and name.
type PodRef struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

func (p PodRef) String() string {
	return p.Namespace + "/" + p.Name
}

// Target is a single resolved container selected for disruption.
type Target struct {
	Pod       PodRef `json:"pod"`
	Container string `json:"container"`
}

func (t Target) String() string {
	return t.Pod.String() + "/" + t.Container
}

// Resolver turns a pod reference and a container selector into the concrete
// list of targets to act on. It never mutates runtime state.
type Resolver struct {
	runtime runtime.Runtime
	logger  log.FieldLogger
}

// New creates and returns a Resolver backed by the given runtime.
func New(rt runtime.Runtime, logger log.FieldLogger) *Resolver {
	return &Resolver{
		runtime: rt,
		logger:  logger.WithField("component", "resolver"),
	}
}

// Resolve enumerates the pod's containers and returns those matching the
// selector, deduplicated by container name, in the runtime's enumeration
// order. A selector matching nothing yields an empty list, not an error.
// A missing pod yields runtime.ErrPodNotFound.
func (r *Resolver) Resolve(ctx context.Context, pod PodRef, selector ContainerSelector) ([]Target, error) {
	containers, err := r.runtime.ListContainers(ctx, pod.Namespace, pod.Name)
	if err != nil {
		return nil, fmt.Errorf("resolving targets for pod %s: %w", pod, err)
	}

	seen := map[string]struct{}{}
	targets := []Target{}
	for _, c := range containers {
		if !selector.Matches(c) {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}

		targets = append(targets, Target{Pod: pod, Container: c.Name})
	}

	r.logger.WithFields(log.Fields{
		"namespace": pod.Namespace,
		"pod":       pod.Name,
		"selector":  selector.String(),
		"targets":   len(targets),
	}).Debug("resolved targets")

	return targets, nil
}
