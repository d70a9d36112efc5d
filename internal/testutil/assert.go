package testutil

import (
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/stretchr/testify/suite"

	"github.com/chaitanyaenr/container-plugin/report"
)

type TestSuite struct {
	suite.Suite
}

// AssertOutcomes checks target and status of each outcome, in order.
func (suite *TestSuite) AssertOutcomes(outcomes []report.ActionOutcome, expected []map[string]string) {
	suite.Require().Len(outcomes, len(expected))

	for i, outcome := range outcomes {
		suite.AssertOutcome(outcome, expected[i])
	}
}

func (suite *TestSuite) AssertOutcome(outcome report.ActionOutcome, expected map[string]string) {
	suite.Equal(expected["namespace"], outcome.Target.Pod.Namespace)
	suite.Equal(expected["pod"], outcome.Target.Pod.Name)
	suite.Equal(expected["container"], outcome.Target.Container)
	suite.Equal(report.Status(expected["status"]), outcome.Status)
}

func (suite *TestSuite) AssertLog(output *test.Hook, level log.Level, msg string, fields log.Fields) {
	suite.Require().NotEmpty(output.Entries)

	lastEntry := output.LastEntry()
	suite.Equal(level, lastEntry.Level)
	suite.Equal(msg, lastEntry.Message)
	for k := range fields {
		suite.Equal(fields[k], lastEntry.Data[k])
	}
}
