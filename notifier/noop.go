package notifier

import "github.com/chaitanyaenr/container-plugin/report"

const NotifierNoop = "noop"

type Noop struct {
	Calls int
}

func (n *Noop) NotifyInvocation(rep report.InvocationReport) error {
	n.Calls++
	return nil
}
