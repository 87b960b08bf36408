package entity

import "time"

// DecisionKind is the outcome of a policy evaluation.
type DecisionKind int16

const (
	DecisionUnknown DecisionKind = 0
	// DecisionReject means the channel is disabled for the user.
	DecisionReject DecisionKind = 1
	// DecisionDeliverNow routes straight to the delivery engine.
	DecisionDeliverNow DecisionKind = 2
	// DecisionDefer waits until quiet hours end.
	DecisionDefer DecisionKind = 3
	// DecisionThrottle waits until the next rate-limit window opens.
	DecisionThrottle DecisionKind = 4
	// DecisionAggregate routes a low-priority notification to the digest
	// buckets.
	DecisionAggregate DecisionKind = 5
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionReject:
		return "reject"
	case DecisionDeliverNow:
		return "deliver_now"
	case DecisionDefer:
		return "defer"
	case DecisionThrottle:
		return "throttle"
	case DecisionAggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// Decision is a policy verdict. At carries the wakeup time for the defer
// and throttle kinds, Reason the rejection cause for reject.
type Decision struct {
	Kind   DecisionKind
	At     time.Time
	Reason string
}
