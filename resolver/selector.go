package resolver

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/labels"

	"github.com/chaitanyaenr/container-plugin/runtime"
)

type selectorKind int

const (
	selectAll selectorKind = iota
	selectByName
	selectByLabel
)

// ContainerSelector decides which of a pod's containers are targeted. It is a
// closed set of variants: all containers, an explicit name set, or a label
// selector matched against the parent pod's labels (containers carry no
// labels of their own in Kubernetes).
type ContainerSelector struct {
	kind  selectorKind
	names map[string]struct{}
	label labels.Selector
}

// AllContainers selects every container of the pod.
func AllContainers() ContainerSelector {
	return ContainerSelector{kind: selectAll}
}

// ByName selects the containers with the given names. Names absent from the
// pod are silently unmatched.
func ByName(names ...string) ContainerSelector {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return ContainerSelector{kind: selectByName, names: set}
}

// ByLabel selects all containers of the pod iff the pod's labels match the
// given selector.
func ByLabel(selector labels.Selector) ContainerSelector {
	return ContainerSelector{kind: selectByLabel, label: selector}
}

// Matches reports whether the given container is selected.
func (s ContainerSelector) Matches(c runtime.Container) bool {
	switch s.kind {
	case selectByName:
		_, ok := s.names[c.Name]
		return ok
	case selectByLabel:
		return s.label.Matches(labels.Set(c.Labels))
	default:
		return true
	}
}

func (s ContainerSelector) String() string {
	switch s.kind {
	case selectByName:
		names := make([]string, 0, len(s.names))
		for name := range s.names {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Sprintf("name in (%s)", strings.Join(names, ","))
	case selectByLabel:
		return fmt.Sprintf("labels %s", s.label.String())
	default:
		return "all containers"
	}
}
