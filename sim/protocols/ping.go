package protocols

import (
	"fmt"

	"github.com/overlay-sim/overlay-sim/sim"
)

// PingMessage asks the receiver to answer with a PongMessage.
type PingMessage struct {
	From   sim.NodeID
	Seq    uint64
	SentAt int64
}

// PongMessage answers a PingMessage, echoing its sequence number and send time.
type PongMessage struct {
	From   sim.NodeID
	Seq    uint64
	SentAt int64
}

// Ping probes a random neighbor every cycle through a Transport and
// measures round-trip times from the answers.
type Ping struct {
	Linkable  int
	Transport int

	seq      uint64
	sent     int
	received int
	answered int
	rttSum   int64
}

// NewPing uses the Linkable at pid linkable and the Transport at pid transport.
func NewPing(linkable, transport int) *Ping {
	return &Ping{Linkable: linkable, Transport: transport}
}

func (p *Ping) Clone() sim.Protocol {
	return &Ping{Linkable: p.Linkable, Transport: p.Transport}
}

// OnCycle sends one ping to a random live neighbor.
func (p *Ping) OnCycle(s *sim.Simulator, node *sim.Node, pid int) error {
	peers, err := LiveNeighbors(s.Network(), node, p.Linkable)
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		return nil
	}
	peer := peers[s.RNG().ForSubsystem(sim.SubsystemProtocol).Intn(len(peers))]
	tr, err := transportAt(node, p.Transport)
	if err != nil {
		return err
	}
	p.seq++
	p.sent++
	return tr.Send(s, node, peer, PingMessage{From: node.ID(), Seq: p.seq, SentAt: s.Clock()}, pid)
}

// OnEvent answers pings and records pongs.
func (p *Ping) OnEvent(s *sim.Simulator, node *sim.Node, pid int, event any) error {
	switch msg := event.(type) {
	case PingMessage:
		p.received++
		sender, ok := s.Network().Lookup(msg.From)
		if !ok {
			return nil
		}
		tr, err := transportAt(node, p.Transport)
		if err != nil {
			return err
		}
		return tr.Send(s, node, sender, PongMessage{From: node.ID(), Seq: msg.Seq, SentAt: msg.SentAt}, pid)
	case PongMessage:
		p.answered++
		p.rttSum += s.Clock() - msg.SentAt
		return nil
	}
	return fmt.Errorf("ping: unexpected event %T", event)
}

// Sent returns the number of pings sent.
func (p *Ping) Sent() int { return p.sent }

// Received returns the number of pings received from other nodes.
func (p *Ping) Received() int { return p.received }

// Answered returns the number of pongs received.
func (p *Ping) Answered() int { return p.answered }

// MeanRTT returns the mean round-trip time of answered pings, or 0.
func (p *Ping) MeanRTT() float64 {
	if p.answered == 0 {
		return 0
	}
	return float64(p.rttSum) / float64(p.answered)
}

// Value reports the mean round-trip time so observers can aggregate it.
func (p *Ping) Value() float64 { return p.MeanRTT() }

func (p *Ping) String() string {
	return fmt.Sprintf("ping sent=%d answered=%d", p.sent, p.answered)
}
