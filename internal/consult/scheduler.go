package consult

import "fmt"

// Policy selects the next speaker. Round-robin is the only implemented
// strategy today, but speaker selection is the natural extension point so
// it stays behind an interface.
type Policy interface {
	Name() string
	// Next returns the speaker for scheduled turn i (0-based, counting only
	// scheduled turns, not the opening message).
	Next(i int, speakers []RoleSpec) RoleSpec
}

const PolicyRoundRobin = "round_robin"

type roundRobin struct{}

func (roundRobin) Name() string { return PolicyRoundRobin }

func (roundRobin) Next(i int, speakers []RoleSpec) RoleSpec {
	return speakers[i%len(speakers)]
}

// ParsePolicy resolves a configured policy name. Dispatch is deterministic
// and content-independent for every known policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", PolicyRoundRobin:
		return roundRobin{}, nil
	default:
		return nil, fmt.Errorf("unknown scheduling policy: %q", name)
	}
}
