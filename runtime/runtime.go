package runtime

import (
	"context"
	"errors"
	"time"
)

// Container describes a single container inside a pod.
type Container struct {
	// Name is the container's name within the pod spec.
	Name string
	// ID is the runtime-assigned container identifier, empty if the
	// container has not been started yet.
	ID string
	// Labels are the labels of the parent pod.
	Labels map[string]string
	// Running reports whether the container is currently running.
	Running bool
}

var (
	// ErrPodNotFound is returned when the target pod does not exist.
	ErrPodNotFound = errors.New("pod not found")
	// ErrContainerNotFound is returned when the target container is gone.
	ErrContainerNotFound = errors.New("container not found")
	// ErrPermissionDenied is returned when the runtime refuses the operation.
	ErrPermissionDenied = errors.New("permission denied")
)

// Runtime is the interface to the underlying container runtime.
type Runtime interface {
	// ListContainers returns the containers of the given pod.
	ListContainers(ctx context.Context, namespace, pod string) ([]Container, error)
	// StopContainer stops the given container, allowing it gracePeriod to
	// shut down before it is killed.
	StopContainer(ctx context.Context, namespace, pod, container string, gracePeriod time.Duration) error
	// KillContainer delivers the given signal to the container's init process.
	KillContainer(ctx context.Context, namespace, pod, container, signal string) error
}
