package containerkill

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chaitanyaenr/container-plugin/executor"
	"github.com/chaitanyaenr/container-plugin/notifier"
	"github.com/chaitanyaenr/container-plugin/resolver"
)

type Option func(*Runner)

func WithPod(pod resolver.PodRef) Option {
	return func(r *Runner) {
		r.Pod = pod
	}
}

func WithSelector(selector resolver.ContainerSelector) Option {
	return func(r *Runner) {
		r.Selector = selector
	}
}

func WithActionSpec(spec executor.ActionSpec) Option {
	return func(r *Runner) {
		r.Spec = spec
	}
}

func WithOverallTimeout(timeout time.Duration) Option {
	return func(r *Runner) {
		r.OverallTimeout = timeout
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

func WithNotifier(notifier notifier.Notifier) Option {
	return func(r *Runner) {
		r.Notifier = notifier
	}
}

func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		r.Now = now
	}
}
