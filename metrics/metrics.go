package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InvocationsTotal is the total number of invocations, i.e. calls to Run().
	InvocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "containerkill",
		Name:      "invocations_total",
		Help:      "The total number of container kill invocations",
	})
	// TargetsResolvedTotal is the total number of containers resolved for disruption.
	TargetsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "containerkill",
		Name:      "targets_resolved_total",
		Help:      "The total number of containers resolved for disruption",
	}, []string{"namespace"})
	// ActionsTotal is the total number of container actions by outcome status.
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "containerkill",
		Name:      "actions_total",
		Help:      "The total number of container actions by outcome status",
	}, []string{"namespace", "status"})
	// ErrorsTotal is the total number of invocations that failed before executing.
	ErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "containerkill",
		Name:      "errors_total",
		Help:      "The total number of invocations failing during target resolution",
	})
	// ActionDurationSeconds is a histogram over the time it took a single action to finish.
	ActionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "containerkill",
		Name:      "action_duration_seconds",
		Help:      "The time it took a single container action to finish",
	})
)
