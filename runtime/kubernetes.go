package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	v1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	restclient "k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// stopPollInterval is how often StopContainer re-checks the container state
// while waiting for it to shut down.
const stopPollInterval = 500 * time.Millisecond

// Kubernetes implements Runtime against a Kubernetes cluster. Signals are
// delivered to the container's init process through the pod exec subresource,
// since Kubernetes exposes no per-container stop or kill API.
type Kubernetes struct {
	client kubernetes.Interface
	rest   restclient.Interface
	config *restclient.Config
	logger log.FieldLogger
}

// NewKubernetes creates and returns a Kubernetes runtime. The rest client and
// config must belong to the same cluster as the typed client.
func NewKubernetes(client kubernetes.Interface, rest restclient.Interface, config *restclient.Config, logger log.FieldLogger) *Kubernetes {
	return &Kubernetes{
		client: client,
		rest:   rest,
		config: config,
		logger: logger.WithField("runtime", "Kubernetes"),
	}
}

// ListContainers returns the containers declared in the pod spec, annotated
// with their current state.
func (r *Kubernetes) ListContainers(ctx context.Context, namespace, pod string) ([]Container, error) {
	p, err := r.client.CoreV1().Pods(namespace).Get(ctx, pod, metav1.GetOptions{})
	if err != nil {
		return nil, classifyPod(err, namespace, pod)
	}

	running := map[string]bool{}
	ids := map[string]string{}
	for _, status := range p.Status.ContainerStatuses {
		running[status.Name] = status.State.Running != nil
		ids[status.Name] = status.ContainerID
	}

	containers := make([]Container, 0, len(p.Spec.Containers))
	for _, c := range p.Spec.Containers {
		containers = append(containers, Container{
			Name:    c.Name,
			ID:      ids[c.Name],
			Labels:  p.Labels,
			Running: running[c.Name],
		})
	}

	return containers, nil
}

// KillContainer delivers the given signal to PID 1 of the container.
func (r *Kubernetes) KillContainer(ctx context.Context, namespace, pod, container, signal string) error {
	r.logger.WithFields(log.Fields{
		"namespace": namespace,
		"pod":       pod,
		"container": container,
		"signal":    signal,
	}).Debug("sending signal")

	return r.signal(ctx, namespace, pod, container, signal)
}

// StopContainer sends SIGTERM to the container and waits up to gracePeriod
// for it to shut down. If it is still running afterwards it is killed.
func (r *Kubernetes) StopContainer(ctx context.Context, namespace, pod, container string, gracePeriod time.Duration) error {
	logger := r.logger.WithFields(log.Fields{
		"namespace": namespace,
		"pod":       pod,
		"container": container,
	})
	logger.Debug("stopping container")

	if err := r.signal(ctx, namespace, pod, container, "TERM"); err != nil {
		return err
	}

	if gracePeriod <= 0 {
		return nil
	}

	deadline := time.NewTimer(gracePeriod)
	defer deadline.Stop()
	ticker := time.NewTicker(stopPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			logger.WithField("gracePeriod", gracePeriod).Debug("grace period expired, killing container")
			return r.signal(ctx, namespace, pod, container, "KILL")
		case <-ticker.C:
			stopped, err := r.stopped(ctx, namespace, pod, container)
			if err != nil {
				return err
			}
			if stopped {
				return nil
			}
		}
	}
}

func (r *Kubernetes) stopped(ctx context.Context, namespace, pod, container string) (bool, error) {
	containers, err := r.ListContainers(ctx, namespace, pod)
	if err != nil {
		// the whole pod going away counts as stopped
		if errors.Is(err, ErrPodNotFound) {
			return true, nil
		}
		return false, err
	}
	for _, c := range containers {
		if c.Name == container {
			return !c.Running, nil
		}
	}
	return true, nil
}

// signal execs `kill -<signal> 1` inside the container.
func (r *Kubernetes) signal(ctx context.Context, namespace, pod, container, signal string) error {
	req := r.rest.Post().
		Resource("pods").
		Name(pod).
		Namespace(namespace).
		SubResource("exec").
		Param("container", container)
	req.VersionedParams(&v1.PodExecOptions{
		Container: container,
		Command:   signalCommand(signal),
		Stdin:     false,
		Stdout:    true,
		Stderr:    true,
		TTY:       false,
	}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(r.config, "POST", req.URL())
	if err != nil {
		return err
	}

	var stdout, stderr bytes.Buffer
	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdin:  nil,
		Stdout: &stdout,
		Stderr: &stderr,
		Tty:    false,
	})
	if err != nil {
		return classifyExec(err, namespace, pod, container, stderr.String())
	}

	return nil
}

// signalCommand builds the command delivering the given signal to PID 1.
// Accepts bare names ("KILL"), prefixed names ("SIGKILL") and numbers ("9").
func signalCommand(signal string) []string {
	signal = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(signal)), "SIG")
	if signal == "" {
		signal = "KILL"
	}
	return []string{"kill", "-" + signal, "1"}
}

func classifyPod(err error, namespace, pod string) error {
	switch {
	case apierrors.IsNotFound(err):
		return fmt.Errorf("pod %s/%s: %w", namespace, pod, ErrPodNotFound)
	case apierrors.IsForbidden(err) || apierrors.IsUnauthorized(err):
		return fmt.Errorf("pod %s/%s: %w: %v", namespace, pod, ErrPermissionDenied, err)
	default:
		return err
	}
}

func classifyExec(err error, namespace, pod, container, stderr string) error {
	detail := strings.TrimSpace(stderr)
	if detail != "" {
		detail = ": " + detail
	}

	switch {
	case apierrors.IsNotFound(err):
		return fmt.Errorf("container %s in pod %s/%s: %w", container, namespace, pod, ErrContainerNotFound)
	case apierrors.IsForbidden(err) || apierrors.IsUnauthorized(err):
		return fmt.Errorf("container %s in pod %s/%s: %w: %v", container, namespace, pod, ErrPermissionDenied, err)
	default:
		return fmt.Errorf("signalling container %s in pod %s/%s: %w%s", container, namespace, pod, err, detail)
	}
}
