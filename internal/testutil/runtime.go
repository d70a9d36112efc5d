package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/chaitanyaenr/container-plugin/runtime"
)

// FakeRuntime is a scriptable in-memory runtime for tests. Errors and delays
// are keyed by container name; calls are recorded in order.
type FakeRuntime struct {
	mu sync.Mutex

	pods    map[string][]runtime.Container
	listErr error
	errs    map[string]error
	delays  map[string]time.Duration

	// Kills and Stops record one entry per runtime call, formatted as
	// namespace/pod/container.
	Kills []string
	Stops []string
}

func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{
		pods:   map[string][]runtime.Container{},
		errs:   map[string]error{},
		delays: map[string]time.Duration{},
	}
}

// AddPod registers a pod with the given containers.
func (f *FakeRuntime) AddPod(namespace, pod string, containers ...runtime.Container) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pods[namespace+"/"+pod] = containers
}

// FailList makes ListContainers return the given error.
func (f *FakeRuntime) FailList(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// FailContainer makes kill/stop calls against the named container fail.
func (f *FakeRuntime) FailContainer(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

// DelayContainer makes kill/stop calls against the named container block for
// the given duration or until the context expires.
func (f *FakeRuntime) DelayContainer(name string, delay time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[name] = delay
}

func (f *FakeRuntime) ListContainers(ctx context.Context, namespace, pod string) ([]runtime.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	containers, ok := f.pods[namespace+"/"+pod]
	if !ok {
		return nil, runtime.ErrPodNotFound
	}
	return containers, nil
}

func (f *FakeRuntime) KillContainer(ctx context.Context, namespace, pod, container, signal string) error {
	return f.act(ctx, &f.Kills, namespace, pod, container)
}

func (f *FakeRuntime) StopContainer(ctx context.Context, namespace, pod, container string, gracePeriod time.Duration) error {
	return f.act(ctx, &f.Stops, namespace, pod, container)
}

func (f *FakeRuntime) act(ctx context.Context, record *[]string, namespace, pod, container string) error {
	f.mu.Lock()
	delay := f.delays[container]
	err := f.errs[container]
	*record = append(*record, namespace+"/"+pod+"/"+container)
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return err
	}
	return ctx.Err()
}

// Calls returns the total number of kill and stop calls issued.
func (f *FakeRuntime) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Kills) + len(f.Stops)
}
