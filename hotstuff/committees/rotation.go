package committees

// RoundRobin assigns view v to the committee member at index v mod n. It is
// the default rotation; any deterministic rotation known to all replicas
// preserves safety.
type RoundRobin struct{}

func (RoundRobin) LeaderIndexForView(view uint64, committeeSize int) int {
	return int(view % uint64(committeeSize))
}

// RotationFunc adapts a plain function to the LeaderRotation interface, for
// hosts that plug in their own schedule.
type RotationFunc func(view uint64, committeeSize int) int

func (f RotationFunc) LeaderIndexForView(view uint64, committeeSize int) int {
	return f(view, committeeSize)
}
