package util

import (
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PodBuilder helps to create pod instances for testing purposes.
type PodBuilder struct {
	Namespace  string
	Name       string
	Labels     map[string]string
	Containers []string
	Stopped    map[string]bool
}

// NewPodBuilder returns a new pod builder with a single container named after
// the pod, which most tests want.
func NewPodBuilder(namespace, name string) PodBuilder {
	return PodBuilder{
		Namespace:  namespace,
		Name:       name,
		Labels:     map[string]string{"app": name},
		Containers: []string{name},
		Stopped:    map[string]bool{},
	}
}

func (b PodBuilder) WithLabels(labels map[string]string) PodBuilder {
	b.Labels = labels
	return b
}

func (b PodBuilder) WithContainers(names ...string) PodBuilder {
	b.Containers = names
	return b
}

func (b PodBuilder) WithStoppedContainer(name string) PodBuilder {
	stopped := map[string]bool{}
	for k, v := range b.Stopped {
		stopped[k] = v
	}
	stopped[name] = true
	b.Stopped = stopped
	return b
}

// Build assembles the pod with a spec container and a matching running (or
// terminated) container status per declared container.
func (b PodBuilder) Build() v1.Pod {
	pod := v1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: b.Namespace,
			Name:      b.Name,
			Labels:    b.Labels,
		},
	}

	for _, name := range b.Containers {
		pod.Spec.Containers = append(pod.Spec.Containers, v1.Container{Name: name})

		status := v1.ContainerStatus{
			Name:        name,
			ContainerID: "containerd://" + b.Name + "-" + name,
		}
		if b.Stopped[name] {
			status.State = v1.ContainerState{Terminated: &v1.ContainerStateTerminated{}}
		} else {
			status.State = v1.ContainerState{Running: &v1.ContainerStateRunning{}}
		}
		pod.Status.ContainerStatuses = append(pod.Status.ContainerStatuses, status)
	}

	return pod
}
