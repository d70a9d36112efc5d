package executor

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/chaitanyaenr/container-plugin/metrics"
	"github.com/chaitanyaenr/container-plugin/report"
	"github.com/chaitanyaenr/container-plugin/resolver"
	"github.com/chaitanyaenr/container-plugin/runtime"
)

// ActionKind names the disruption to apply.
type ActionKind string

const (
	// Kill delivers a signal to the container's init process.
	Kill ActionKind = "kill"
	// Stop asks the container to shut down, killing it after a grace period.
	Stop ActionKind = "stop"
)

// Mode selects how targets are dispatched.
type Mode string

const (
	ModeSerial   Mode = "serial"
	ModeParallel Mode = "parallel"
)

// DefaultMaxInFlight caps parallel dispatch when no explicit bound is set.
const DefaultMaxInFlight = 16

// ActionSpec describes the disruption to apply to each target.
type ActionSpec struct {
	Kind ActionKind
	// Signal is the signal delivered by Kill, e.g. SIGKILL or SIGTERM.
	Signal string
	// GracePeriod is how long Stop waits before killing the container.
	GracePeriod time.Duration
	// PerTargetTimeout bounds each individual action.
	PerTargetTimeout time.Duration
}

// Executor applies an action to each resolved target. Per-target failures are
// captured in the outcome, never propagated, so one failing target cannot
// abort the batch. Each target receives at most one runtime call per
// invocation; retries are the caller's business.
type Executor struct {
	runtime     runtime.Runtime
	logger      log.FieldLogger
	mode        Mode
	maxInFlight int
	dryRun      bool
}

// New creates and returns an Executor. A maxInFlight of zero means the number
// of targets, capped at DefaultMaxInFlight.
func New(rt runtime.Runtime, logger log.FieldLogger, mode Mode, maxInFlight int, dryRun bool) *Executor {
	return &Executor{
		runtime:     rt,
		logger:      logger.WithField("component", "executor"),
		mode:        mode,
		maxInFlight: maxInFlight,
		dryRun:      dryRun,
	}
}

// Execute applies the action to every target and returns one outcome per
// target, in the targets' order regardless of completion order.
func (e *Executor) Execute(ctx context.Context, targets []resolver.Target, spec ActionSpec) []report.ActionOutcome {
	outcomes := make([]report.ActionOutcome, len(targets))

	if e.mode == ModeSerial {
		for i, target := range targets {
			outcomes[i] = e.executeOne(ctx, target, spec)
		}
		return outcomes
	}

	group := new(errgroup.Group)
	group.SetLimit(e.limit(len(targets)))

	for i, target := range targets {
		i, target := i, target
		group.Go(func() error {
			outcomes[i] = e.executeOne(ctx, target, spec)
			return nil
		})
	}

	// executeOne never returns an error, Wait only joins the goroutines
	_ = group.Wait()

	return outcomes
}

func (e *Executor) limit(targets int) int {
	if e.maxInFlight > 0 {
		return e.maxInFlight
	}
	if targets > DefaultMaxInFlight {
		return DefaultMaxInFlight
	}
	if targets < 1 {
		return 1
	}
	return targets
}

func (e *Executor) executeOne(ctx context.Context, target resolver.Target, spec ActionSpec) report.ActionOutcome {
	logger := e.logger.WithFields(log.Fields{
		"namespace": target.Pod.Namespace,
		"pod":       target.Pod.Name,
		"container": target.Container,
		"action":    spec.Kind,
	})

	if e.dryRun {
		logger.Info("dry run, not touching container")
		return report.ActionOutcome{
			Target: target,
			Status: report.StatusSucceeded,
			Detail: "dry run",
		}
	}

	actionCtx := ctx
	if spec.PerTargetTimeout > 0 {
		var cancel context.CancelFunc
		actionCtx, cancel = context.WithTimeout(ctx, spec.PerTargetTimeout)
		defer cancel()
	}

	started := time.Now()

	var err error
	switch spec.Kind {
	case Stop:
		err = e.runtime.StopContainer(actionCtx, target.Pod.Namespace, target.Pod.Name, target.Container, spec.GracePeriod)
	default:
		err = e.runtime.KillContainer(actionCtx, target.Pod.Namespace, target.Pod.Name, target.Container, spec.Signal)
	}

	duration := time.Since(started)
	metrics.ActionDurationSeconds.Observe(duration.Seconds())

	outcome := report.ActionOutcome{
		Target:   target,
		Status:   classify(err),
		Duration: duration,
	}
	if err != nil {
		outcome.Detail = err.Error()
		logger.WithFields(log.Fields{"status": outcome.Status, "err": err}).Warn("action failed")
	} else {
		logger.WithField("duration", duration).Debug("action succeeded")
	}

	return outcome
}

// classify maps an action error onto an outcome status.
func classify(err error) report.Status {
	switch {
	case err == nil:
		return report.StatusSucceeded
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return report.StatusTimedOut
	case errors.Is(err, runtime.ErrContainerNotFound) || errors.Is(err, runtime.ErrPodNotFound):
		return report.StatusAlreadyAbsent
	case errors.Is(err, runtime.ErrPermissionDenied):
		return report.StatusPermissionDenied
	default:
		return report.StatusRuntimeError
	}
}
