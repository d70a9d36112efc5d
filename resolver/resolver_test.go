package resolver_test

import (
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"

	"k8s.io/apimachinery/pkg/labels"

	"github.com/chaitanyaenr/container-plugin/resolver"

	"github.com/chaitanyaenr/container-plugin/internal/testutil"
	"github.com/chaitanyaenr/container-plugin/runtime"
)

type ResolverSuite struct {
	testutil.TestSuite

	runtime  *testutil.FakeRuntime
	resolver *resolver.Resolver
}

var (
	logger, logOutput = test.NewNullLogger()
)

func (suite *ResolverSuite) SetupTest() {
	logger.SetLevel(log.DebugLevel)
	logOutput.Reset()

	suite.runtime = testutil.NewFakeRuntime()
	suite.runtime.AddPod("default", "demo",
		runtime.Container{Name: "a", Labels: map[string]string{"app": "demo"}, Running: true},
		runtime.Container{Name: "b", Labels: map[string]string{"app": "demo"}, Running: true},
		runtime.Container{Name: "c", Labels: map[string]string{"app": "demo"}, Running: false},
	)
	suite.resolver = resolver.New(suite.runtime, logger)
}

func (suite *ResolverSuite) TestResolveAllContainers() {
	targets, err := suite.resolver.Resolve(context.Background(), resolver.PodRef{"default", "demo"}, resolver.AllContainers())
	suite.Require().NoError(err)

	suite.assertTargets(targets, "a", "b", "c")
}

func (suite *ResolverSuite) TestResolveByName() {
	targets, err := suite.resolver.Resolve(context.Background(), resolver.PodRef{"default", "demo"}, resolver.ByName("a", "c"))
	suite.Require().NoError(err)

	suite.assertTargets(targets, "a", "c")
}

func (suite *ResolverSuite) TestResolveByNameMissing() {
	targets, err := suite.resolver.Resolve(context.Background(), resolver.PodRef{"default", "demo"}, resolver.ByName("nope"))
	suite.Require().NoError(err)

	suite.Empty(targets)
}

func (suite *ResolverSuite) TestResolveByLabelMatching() {
	selector, err := labels.Parse("app=demo")
	suite.Require().NoError(err)

	targets, err := suite.resolver.Resolve(context.Background(), resolver.PodRef{"default", "demo"}, resolver.ByLabel(selector))
	suite.Require().NoError(err)

	suite.assertTargets(targets, "a", "b", "c")
}

func (suite *ResolverSuite) TestResolveByLabelNotMatching() {
	selector, err := labels.Parse("app=other")
	suite.Require().NoError(err)

	targets, err := suite.resolver.Resolve(context.Background(), resolver.PodRef{"default", "demo"}, resolver.ByLabel(selector))
	suite.Require().NoError(err)

	suite.Empty(targets)
}

func (suite *ResolverSuite) TestResolveDeduplicates() {
	suite.runtime.AddPod("default", "twins",
		runtime.Container{Name: "a", Running: true},
		runtime.Container{Name: "a", Running: true},
	)

	targets, err := suite.resolver.Resolve(context.Background(), resolver.PodRef{"default", "twins"}, resolver.AllContainers())
	suite.Require().NoError(err)

	suite.assertTargets(targets, "a")
}

func (suite *ResolverSuite) TestResolvePodNotFound() {
	_, err := suite.resolver.Resolve(context.Background(), resolver.PodRef{"default", "missing"}, resolver.AllContainers())

	suite.Require().Error(err)
	suite.True(errors.Is(err, runtime.ErrPodNotFound))
}

func (suite *ResolverSuite) TestResolveDoesNotTouchContainers() {
	_, err := suite.resolver.Resolve(context.Background(), resolver.PodRef{"default", "demo"}, resolver.AllContainers())
	suite.Require().NoError(err)

	suite.Zero(suite.runtime.Calls())
}

func (suite *ResolverSuite) assertTargets(targets []resolver.Target, containers ...string) {
	suite.Require().Len(targets, len(containers))
	for i, container := range containers {
		suite.Equal("default", targets[i].Pod.Namespace)
		suite.Equal(container, targets[i].Container)
	}
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}
