package report

import (
	"time"

	"github.com/chaitanyaenr/container-plugin/resolver"
)

// Status classifies the outcome of a single container action.
type Status string

const (
	StatusSucceeded        Status = "Succeeded"
	StatusAlreadyAbsent    Status = "AlreadyAbsent"
	StatusTimedOut         Status = "TimedOut"
	StatusPermissionDenied Status = "PermissionDenied"
	StatusRuntimeError     Status = "RuntimeError"
)

// Success reports whether the status counts towards a successful invocation.
// A container that was already gone needs no killing.
func (s Status) Success() bool {
	return s == StatusSucceeded || s == StatusAlreadyAbsent
}

// OverallStatus classifies a whole invocation.
type OverallStatus string

const (
	AllSucceeded   OverallStatus = "AllSucceeded"
	PartialFailure OverallStatus = "PartialFailure"
	TotalFailure   OverallStatus = "TotalFailure"
	NoTargets      OverallStatus = "NoTargets"
)

// ActionOutcome is the result of one action against one target.
type ActionOutcome struct {
	Target   resolver.Target `json:"target"`
	Status   Status          `json:"status"`
	Detail   string          `json:"detail,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// InvocationReport is the structured result of one invocation. Outcomes
// appear in the resolver's target enumeration order.
type InvocationReport struct {
	Outcomes      []ActionOutcome `json:"outcomes"`
	OverallStatus OverallStatus   `json:"overallStatus"`
	StartedAt     time.Time       `json:"startedAt"`
	FinishedAt    time.Time       `json:"finishedAt"`
}

// Aggregate folds per-target outcomes into an invocation report. It is a pure
// function of its input; timestamps are left for the caller to fill in.
func Aggregate(outcomes []ActionOutcome) InvocationReport {
	return InvocationReport{
		Outcomes:      outcomes,
		OverallStatus: Overall(outcomes),
	}
}

// Overall computes the invocation status from the outcome set: AllSucceeded
// iff every outcome succeeded, TotalFailure iff none did and at least one
// target was resolved, NoTargets for the empty set, PartialFailure otherwise.
func Overall(outcomes []ActionOutcome) OverallStatus {
	if len(outcomes) == 0 {
		return NoTargets
	}

	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Status.Success() {
			succeeded++
		}
	}

	switch succeeded {
	case len(outcomes):
		return AllSucceeded
	case 0:
		return TotalFailure
	default:
		return PartialFailure
	}
}
