package snapshot

import "time"

// #region edge

// EdgeKind names the platform event class that triggered a re-sample.
type EdgeKind string

const (
	EdgeConnectivity EdgeKind = "connectivity"
	EdgePeripheral   EdgeKind = "peripheral"
	EdgePower        EdgeKind = "power"
	EdgeOrientation  EdgeKind = "orientation"
	EdgeRefresh      EdgeKind = "refresh"
)

// Edge is a zero-payload change trigger. Consumers re-sample fresh state
// rather than trusting anything carried by the event itself.
type Edge struct {
	Kind EdgeKind
	At   time.Time
}

// #endregion edge

// #region bus

// Bus is an in-process fan-in of typed change edges. Platform bindings
// publish into it; the ranking pipeline subscribes. Publishing never blocks:
// when the buffer is full the edge is dropped, which is safe because edges
// carry no payload and a pending edge already guarantees a re-sample.
type Bus struct {
	ch chan Edge
}

// NewBus creates a Bus with the given buffer capacity.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 16
	}
	return &Bus{ch: make(chan Edge, capacity)}
}

// Publish enqueues an edge, dropping it if the buffer is full.
func (b *Bus) Publish(kind EdgeKind) {
	select {
	case b.ch <- Edge{Kind: kind, At: time.Now()}:
	default:
	}
}

// Edges returns the receive side of the bus.
func (b *Bus) Edges() <-chan Edge {
	return b.ch
}

// #endregion bus
