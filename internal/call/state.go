// Package call holds the in-memory call-signaling core: the room
// registry, the authorization gate and the session coordinator. It is the
// only part of the server with shared mutable state.
package call

// CallState is a tagged variant: a room is either Inactive or
// Active{startedBy}. Modelling it this way makes "startedBy is set iff
// the call is active" impossible to violate by construction.
type CallState interface {
	isCallState()
}

type Inactive struct{}

type Active struct {
	StartedBy     string
	StartedByName string
}

func (Inactive) isCallState() {}
func (Active) isCallState()   {}

// stateInfo flattens the variant for wire payloads.
func stateInfo(s CallState) (isActive bool, startedBy string) {
	if a, ok := s.(Active); ok {
		return true, a.StartedBy
	}
	return false, ""
}
