package notifier

import (
	"github.com/chaitanyaenr/container-plugin/report"
)

// Notifier announces a finished invocation to an external channel.
type Notifier interface {
	NotifyInvocation(rep report.InvocationReport) error
}

// Notifiers fans an invocation report out to every registered notifier.
type Notifiers struct {
	notifiers []Notifier
}

func New() *Notifiers {
	return &Notifiers{notifiers: make([]Notifier, 0)}
}

func (m *Notifiers) NotifyInvocation(rep report.InvocationReport) error {
	for _, n := range m.notifiers {
		if err := n.NotifyInvocation(rep); err != nil {
			return err
		}
	}
	return nil
}

func (m *Notifiers) Add(notifier Notifier) {
	m.notifiers = append(m.notifiers, notifier)
}
