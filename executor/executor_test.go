package executor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"

	"github.com/chaitanyaenr/container-plugin/internal/testutil"
	"github.com/chaitanyaenr/container-plugin/report"
	"github.com/chaitanyaenr/container-plugin/resolver"
	"github.com/chaitanyaenr/container-plugin/runtime"
)

type ExecutorSuite struct {
	testutil.TestSuite

	runtime *testutil.FakeRuntime
}

var (
	logger, _ = test.NewNullLogger()
)

func (suite *ExecutorSuite) SetupTest() {
	logger.SetLevel(log.DebugLevel)
	suite.runtime = testutil.NewFakeRuntime()
}

func (suite *ExecutorSuite) targets(containers ...string) []resolver.Target {
	targets := make([]resolver.Target, 0, len(containers))
	for _, container := range containers {
		targets = append(targets, resolver.Target{
			Pod:       resolver.PodRef{Namespace: "default", Name: "demo"},
			Container: container,
		})
	}
	return targets
}

func (suite *ExecutorSuite) TestSerialPreservesOrder() {
	executor := New(suite.runtime, logger, ModeSerial, 0, false)

	outcomes := executor.Execute(context.Background(), suite.targets("a", "b", "c"), ActionSpec{Kind: Kill})

	suite.AssertOutcomes(outcomes, []map[string]string{
		{"namespace": "default", "pod": "demo", "container": "a", "status": "Succeeded"},
		{"namespace": "default", "pod": "demo", "container": "b", "status": "Succeeded"},
		{"namespace": "default", "pod": "demo", "container": "c", "status": "Succeeded"},
	})
	suite.Equal([]string{"default/demo/a", "default/demo/b", "default/demo/c"}, suite.runtime.Kills)
}

func (suite *ExecutorSuite) TestParallelPreservesOrder() {
	containers := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	for run := 0; run < 100; run++ {
		rt := testutil.NewFakeRuntime()
		for _, container := range containers {
			rt.DelayContainer(container, time.Duration(rand.Intn(3))*time.Millisecond)
		}
		executor := New(rt, logger, ModeParallel, 0, false)

		outcomes := executor.Execute(context.Background(), suite.targets(containers...), ActionSpec{Kind: Kill})

		suite.Require().Len(outcomes, len(containers))
		for i, container := range containers {
			suite.Equal(container, outcomes[i].Target.Container)
			suite.Equal(report.StatusSucceeded, outcomes[i].Status)
		}
	}
}

func (suite *ExecutorSuite) TestOneCallPerTarget() {
	executor := New(suite.runtime, logger, ModeParallel, 2, false)

	executor.Execute(context.Background(), suite.targets("a", "b", "c", "d"), ActionSpec{Kind: Kill})

	suite.Equal(4, suite.runtime.Calls())
}

func (suite *ExecutorSuite) TestStopUsesStopCall() {
	executor := New(suite.runtime, logger, ModeSerial, 0, false)

	outcomes := executor.Execute(context.Background(), suite.targets("a"), ActionSpec{Kind: Stop, GracePeriod: time.Second})

	suite.Equal(report.StatusSucceeded, outcomes[0].Status)
	suite.Empty(suite.runtime.Kills)
	suite.Equal([]string{"default/demo/a"}, suite.runtime.Stops)
}

func (suite *ExecutorSuite) TestPerTargetTimeout() {
	suite.runtime.DelayContainer("slow", time.Minute)
	executor := New(suite.runtime, logger, ModeParallel, 0, false)

	outcomes := executor.Execute(context.Background(), suite.targets("slow", "fast"), ActionSpec{
		Kind:             Kill,
		PerTargetTimeout: 10 * time.Millisecond,
	})

	suite.AssertOutcomes(outcomes, []map[string]string{
		{"namespace": "default", "pod": "demo", "container": "slow", "status": "TimedOut"},
		{"namespace": "default", "pod": "demo", "container": "fast", "status": "Succeeded"},
	})
}

func (suite *ExecutorSuite) TestCancelledContextTimesOutRemainingTargets() {
	suite.runtime.DelayContainer("a", time.Minute)
	suite.runtime.DelayContainer("b", time.Minute)
	executor := New(suite.runtime, logger, ModeParallel, 0, false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	outcomes := executor.Execute(ctx, suite.targets("a", "b"), ActionSpec{Kind: Kill})

	suite.Require().Len(outcomes, 2)
	for _, outcome := range outcomes {
		suite.Equal(report.StatusTimedOut, outcome.Status)
	}
}

func (suite *ExecutorSuite) TestFailureClassification() {
	for _, tt := range []struct {
		err      error
		expected report.Status
	}{
		{nil, report.StatusSucceeded},
		{context.DeadlineExceeded, report.StatusTimedOut},
		{context.Canceled, report.StatusTimedOut},
		{fmt.Errorf("wrapped: %w", runtime.ErrContainerNotFound), report.StatusAlreadyAbsent},
		{fmt.Errorf("wrapped: %w", runtime.ErrPodNotFound), report.StatusAlreadyAbsent},
		{fmt.Errorf("wrapped: %w", runtime.ErrPermissionDenied), report.StatusPermissionDenied},
		{errors.New("exploded"), report.StatusRuntimeError},
	} {
		suite.Equal(tt.expected, classify(tt.err))
	}
}

func (suite *ExecutorSuite) TestFailingTargetDoesNotAbortBatch() {
	suite.runtime.FailContainer("b", errors.New("exploded"))
	executor := New(suite.runtime, logger, ModeSerial, 0, false)

	outcomes := executor.Execute(context.Background(), suite.targets("a", "b", "c"), ActionSpec{Kind: Kill})

	suite.AssertOutcomes(outcomes, []map[string]string{
		{"namespace": "default", "pod": "demo", "container": "a", "status": "Succeeded"},
		{"namespace": "default", "pod": "demo", "container": "b", "status": "RuntimeError"},
		{"namespace": "default", "pod": "demo", "container": "c", "status": "Succeeded"},
	})
	suite.Contains(outcomes[1].Detail, "exploded")
}

func (suite *ExecutorSuite) TestDryRunIssuesNoCalls() {
	executor := New(suite.runtime, logger, ModeParallel, 0, true)

	outcomes := executor.Execute(context.Background(), suite.targets("a", "b"), ActionSpec{Kind: Kill})

	suite.Require().Len(outcomes, 2)
	for _, outcome := range outcomes {
		suite.Equal(report.StatusSucceeded, outcome.Status)
		suite.Equal("dry run", outcome.Detail)
	}
	suite.Zero(suite.runtime.Calls())
}

func (suite *ExecutorSuite) TestLimit() {
	for _, tt := range []struct {
		maxInFlight int
		targets     int
		expected    int
	}{
		{0, 4, 4},
		{0, 40, DefaultMaxInFlight},
		{0, 0, 1},
		{2, 40, 2},
	} {
		executor := New(suite.runtime, logger, ModeParallel, tt.maxInFlight, false)
		suite.Equal(tt.expected, executor.limit(tt.targets))
	}
}

func TestExecutorSuite(t *testing.T) {
	suite.Run(t, new(ExecutorSuite))
}
