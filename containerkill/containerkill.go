package containerkill

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/chaitanyaenr/container-plugin/executor"
	"github.com/chaitanyaenr/container-plugin/metrics"
	"github.com/chaitanyaenr/container-plugin/notifier"
	"github.com/chaitanyaenr/container-plugin/report"
	"github.com/chaitanyaenr/container-plugin/resolver"
	"github.com/chaitanyaenr/container-plugin/runtime"
)

// Phase is a stage of an invocation.
type Phase string

const (
	PhaseIdle        Phase = "Idle"
	PhaseResolving   Phase = "Resolving"
	PhaseExecuting   Phase = "Executing"
	PhaseAggregating Phase = "Aggregating"
	PhaseDone        Phase = "Done"
	PhaseFailed      Phase = "Failed"
)

// ErrPodNotFound is returned when the invocation's target pod does not exist.
var ErrPodNotFound = runtime.ErrPodNotFound

// Runner drives one invocation through resolving, executing and aggregating.
// Only target resolution can fail the invocation as a whole; from Executing
// on, the caller always receives a full report.
type Runner struct {
	// the resolver producing the target set
	Resolver *resolver.Resolver
	// the executor applying the action to each target
	Executor *executor.Executor
	// the pod whose containers are targeted
	Pod resolver.PodRef
	// the selector picking containers within the pod
	Selector resolver.ContainerSelector
	// the action applied to each target
	Spec executor.ActionSpec
	// overall wall-clock bound across the executing phase
	OverallTimeout time.Duration
	// an instance of logrus.FieldLogger to write log messages to
	Logger log.FieldLogger
	// notifiers to announce the finished invocation to
	Notifier notifier.Notifier
	// a function to retrieve the current time
	Now func() time.Time

	phase Phase
}

// New returns a new Runner for one invocation. It expects the resolver and
// executor to act on and accepts options for the target pod, the container
// selector, the action and the overall timeout.
func New(res *resolver.Resolver, exec *executor.Executor, opts ...Option) *Runner {
	r := &Runner{
		Resolver: res,
		Executor: exec,
		Selector: resolver.AllContainers(),
		Spec:     executor.ActionSpec{Kind: executor.Kill},
		Logger:   log.StandardLogger(),
		Notifier: notifier.New(),
		Now:      time.Now,
		phase:    PhaseIdle,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Phase returns the runner's current phase.
func (r *Runner) Phase() Phase {
	return r.phase
}

// Validate rejects malformed input before resolution begins.
func (r *Runner) Validate() error {
	if r.Pod.Namespace == "" || r.Pod.Name == "" {
		return fmt.Errorf("target pod must have a namespace and a name, got %q", r.Pod)
	}
	if r.Spec.Kind != executor.Kill && r.Spec.Kind != executor.Stop {
		return fmt.Errorf("unknown action kind %q", r.Spec.Kind)
	}
	if r.Spec.PerTargetTimeout < 0 || r.OverallTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// Run performs one invocation and returns its report. The only error paths
// are invalid input and a missing target pod; every per-target failure is
// carried inside the report instead.
func (r *Runner) Run(ctx context.Context) (report.InvocationReport, error) {
	if err := r.Validate(); err != nil {
		return report.InvocationReport{}, err
	}

	started := r.Now()
	metrics.InvocationsTotal.Inc()

	r.phase = PhaseResolving
	targets, err := r.Resolver.Resolve(ctx, r.Pod, r.Selector)
	if err != nil {
		r.phase = PhaseFailed
		metrics.ErrorsTotal.Inc()
		return report.InvocationReport{}, err
	}
	metrics.TargetsResolvedTotal.WithLabelValues(r.Pod.Namespace).Add(float64(len(targets)))

	if len(targets) == 0 {
		r.Logger.WithFields(log.Fields{
			"namespace": r.Pod.Namespace,
			"pod":       r.Pod.Name,
			"selector":  r.Selector.String(),
		}).Info("no targets matched. If that's surprising double-check your selector.")
	}

	r.phase = PhaseExecuting
	execCtx := ctx
	if r.OverallTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, r.OverallTimeout)
		defer cancel()
	}
	outcomes := r.Executor.Execute(execCtx, targets, r.Spec)

	r.phase = PhaseAggregating
	rep := report.Aggregate(outcomes)
	rep.StartedAt = started
	rep.FinishedAt = r.Now()

	for _, outcome := range rep.Outcomes {
		metrics.ActionsTotal.WithLabelValues(r.Pod.Namespace, string(outcome.Status)).Inc()
	}

	r.Logger.WithFields(log.Fields{
		"namespace": r.Pod.Namespace,
		"pod":       r.Pod.Name,
		"targets":   len(rep.Outcomes),
		"status":    rep.OverallStatus,
	}).Info("invocation finished")

	if err := r.Notifier.NotifyInvocation(rep); err != nil {
		r.Logger.WithField("err", err).Error("failed to notify invocation")
	}

	r.phase = PhaseDone

	return rep, nil
}
