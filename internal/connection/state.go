package connection

import (
	"context"
	"sync/atomic"
)

// State is the connectivity of the backing store.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateConnecting
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateConnecting:
		return "connecting"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Status exposes the current connection state.
type Status interface {
	State() State
}

// Pinger checks that the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Tracker holds the connection state. Reads never block.
type Tracker struct {
	state atomic.Int32
}

// NewTracker creates a tracker in the given state.
func NewTracker(initial State) *Tracker {
	t := &Tracker{}
	t.Set(initial)

	return t
}

// State returns the last recorded state.
func (t *Tracker) State() State {
	return State(t.state.Load())
}

// Set records a new state and returns the previous one.
func (t *Tracker) Set(s State) State {
	return State(t.state.Swap(int32(s)))
}

var _ Status = (*Tracker)(nil)
