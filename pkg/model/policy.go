package model

import (
	"fmt"
	"strings"
)

// Policy selects the scheduling discipline used to pick the process that
// occupies the CPU each tick.
type Policy string

const (
	// PolicyFCFS dispatches the eligible process with the smallest arrival time.
	PolicyFCFS Policy = "FCFS"

	// PolicySJF dispatches the eligible process with the smallest remaining
	// time. Because remaining time is re-evaluated every tick, this is the
	// preemptive (shortest-remaining-time-first) variant.
	PolicySJF Policy = "SJF"

	// PolicyPriority dispatches the eligible process with the smallest
	// priority number (lower number = higher priority).
	PolicyPriority Policy = "PRIORITY"

	// PolicyRoundRobin rotates eligible processes through a FIFO ready queue,
	// granting each a fixed quantum of ticks before moving it to the tail.
	PolicyRoundRobin Policy = "ROUND_ROBIN"
)

// Policies returns all supported scheduling policies.
func Policies() []Policy {
	return []Policy{PolicyFCFS, PolicySJF, PolicyPriority, PolicyRoundRobin}
}

// String returns the string representation of the policy.
func (p Policy) String() string {
	return string(p)
}

// Valid returns true if p is one of the supported policies.
func (p Policy) Valid() bool {
	switch p {
	case PolicyFCFS, PolicySJF, PolicyPriority, PolicyRoundRobin:
		return true
	}
	return false
}

// ParsePolicy converts a string into a Policy, accepting any casing and the
// common aliases "RR" and "PRIO".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FCFS":
		return PolicyFCFS, nil
	case "SJF":
		return PolicySJF, nil
	case "PRIORITY", "PRIO":
		return PolicyPriority, nil
	case "ROUND_ROBIN", "ROUNDROBIN", "RR":
		return PolicyRoundRobin, nil
	}
	return "", fmt.Errorf("unknown policy %q (want one of FCFS, SJF, PRIORITY, ROUND_ROBIN)", s)
}
