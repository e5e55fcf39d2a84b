package settings

import "fmt"

// GateState is the confirmation state of a gated toggle
type GateState int

const (
	// GateOff means the toggle is off
	GateOff GateState = iota
	// GatePending means the user turned the toggle on and has not yet
	// affirmed the warning
	GatePending
	// GateConfirmed means the toggle is on and accepted
	GateConfirmed
)

// String returns a human-readable name for the state
func (s GateState) String() string {
	switch s {
	case GateOff:
		return "off"
	case GatePending:
		return "pending"
	case GateConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("GateState(%d)", int(s))
	}
}

// Gate is the risk-confirmation handshake for one toggle.
// The zero Gate is Off.
type Gate struct {
	state GateState
}

// NewGate returns a gate hydrated from a stored value
func NewGate(stored bool) *Gate {
	g := &Gate{}
	g.ApplyExternalReset(stored)
	return g
}

// State returns the current state
func (g *Gate) State() GateState {
	return g.state
}

// ApplyUserEdit records the user flipping the toggle. It returns true when
// the warning should be shown, which only happens on the first ON edit.
func (g *Gate) ApplyUserEdit(on bool) bool {
	if !on {
		g.state = GateOff
		return false
	}
	if g.state != GateOff {
		return false
	}
	g.state = GatePending
	return true
}

// Affirm accepts a pending ON edit. It reports whether the state changed.
func (g *Gate) Affirm() bool {
	if g.state != GatePending {
		return false
	}
	g.state = GateConfirmed
	return true
}

// Decline rejects a pending ON edit and resets the toggle to off.
// It reports whether the state changed.
func (g *Gate) Decline() bool {
	if g.state != GatePending {
		return false
	}
	g.ApplyExternalReset(false)
	return true
}

// ApplyExternalReset sets the toggle without gating. Used when hydrating
// from the store and when reverting after a decline.
func (g *Gate) ApplyExternalReset(on bool) {
	if on {
		g.state = GateConfirmed
	} else {
		g.state = GateOff
	}
}

// Displayed is the provisional state shown to the user
func (g *Gate) Displayed() bool {
	return g.state != GateOff
}

// Value is the state that may be saved
func (g *Gate) Value() bool {
	return g.state == GateConfirmed
}
