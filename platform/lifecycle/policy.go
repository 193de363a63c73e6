package lifecycle

import "github.com/robbyt/go-graphscript/platform/constants"

// ReplacementPolicy decides when the interpreter handle must be rebuilt.
// ShouldReplace is called under the manager lock once per execution, after
// the counter was incremented, with the number of executions counted since
// the current handle was built.
type ReplacementPolicy interface {
	ShouldReplace(executions int64, script string) bool
}

// CountingPolicy replaces the handle once the counter exceeds Threshold. A
// handle therefore serves Threshold+1 consecutive executions: the one that
// caused it to be built, then Threshold more.
type CountingPolicy struct {
	Threshold int64
}

// NewCountingPolicy returns a CountingPolicy; a threshold below 1 means
// constants.DefaultReplacementThreshold.
func NewCountingPolicy(threshold int64) CountingPolicy {
	if threshold < 1 {
		threshold = constants.DefaultReplacementThreshold
	}
	return CountingPolicy{Threshold: threshold}
}

func (p CountingPolicy) ShouldReplace(executions int64, _ string) bool {
	return executions > p.Threshold
}
