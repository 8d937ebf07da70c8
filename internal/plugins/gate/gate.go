// Package gate decides on friend and group-join requests.
package gate

import (
	"context"
)

// Policy renders a verdict for one request; nil abstains.
type Policy func(target, sender int64, comment string) *bool

// ApproveAll accepts every request.
func ApproveAll(int64, int64, string) *bool {
	approve := true
	return &approve
}

type Plugin struct {
	policy Policy
}

func New(policy Policy) *Plugin {
	return &Plugin{policy: policy}
}

func (p *Plugin) Name() string { return "门卫" }

func (p *Plugin) OnAdmission(_ context.Context, target, sender int64, comment string) *bool {
	return p.policy(target, sender, comment)
}
