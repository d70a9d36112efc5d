package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"k8s.io/apimachinery/pkg/labels"

	"github.com/chaitanyaenr/container-plugin/resolver"

	"github.com/chaitanyaenr/container-plugin/runtime"
)

func TestSelectorMatches(t *testing.T) {
	labelled := runtime.Container{Name: "app", Labels: map[string]string{"tier": "web"}}

	selector, err := labels.Parse("tier=web")
	assert.NoError(t, err)

	for _, tt := range []struct {
		name     string
		selector resolver.ContainerSelector
		expected bool
	}{
		{"all matches anything", resolver.AllContainers(), true},
		{"name hit", resolver.ByName("app", "sidecar"), true},
		{"name miss", resolver.ByName("sidecar"), false},
		{"label hit", resolver.ByLabel(selector), true},
		{"label miss", resolver.ByLabel(labels.Nothing()), false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.selector.Matches(labelled))
		})
	}
}

func TestSelectorString(t *testing.T) {
	assert.Equal(t, "all containers", resolver.AllContainers().String())
	assert.Equal(t, "name in (a,b)", resolver.ByName("b", "a").String())

	selector, err := labels.Parse("app=demo")
	assert.NoError(t, err)
	assert.Equal(t, "labels app=demo", resolver.ByLabel(selector).String())
}
