// Package observability aggregates lightweight runtime counters for the
// presence coordinator. Counters are atomic so transitions never block on
// telemetry.
package observability

import "sync/atomic"

type Snapshot struct {
	Connects            uint64
	Disconnects         uint64
	RoomsCreated        uint64
	RoomsDestroyed      uint64
	MessagesBroadcast   uint64
	RejectedTransitions uint64
}

type Stats struct {
	connects            atomic.Uint64
	disconnects         atomic.Uint64
	roomsCreated        atomic.Uint64
	roomsDestroyed      atomic.Uint64
	messagesBroadcast   atomic.Uint64
	rejectedTransitions atomic.Uint64
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) IncrConnects()            { s.connects.Add(1) }
func (s *Stats) IncrDisconnects()         { s.disconnects.Add(1) }
func (s *Stats) IncrRoomsCreated()        { s.roomsCreated.Add(1) }
func (s *Stats) IncrRoomsDestroyed()      { s.roomsDestroyed.Add(1) }
func (s *Stats) IncrMessagesBroadcast()   { s.messagesBroadcast.Add(1) }
func (s *Stats) IncrRejectedTransitions() { s.rejectedTransitions.Add(1) }

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Connects:            s.connects.Load(),
		Disconnects:         s.disconnects.Load(),
		RoomsCreated:        s.roomsCreated.Load(),
		RoomsDestroyed:      s.roomsDestroyed.Load(),
		MessagesBroadcast:   s.messagesBroadcast.Load(),
		RejectedTransitions: s.rejectedTransitions.Load(),
	}
}
