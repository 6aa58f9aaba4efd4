// Package rxnode implements the receiver node: it consumes the
// telemetry stream, tracks communication liveness, renders status and
// arbitrates the self-protecting reboot on remote fault reports.
package rxnode

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/irguard/irguard.go/pkg/framework"
	"github.com/irguard/irguard.go/pkg/hw"
	"github.com/irguard/irguard.go/pkg/telemetry"
)

// BytesMsg carries a chunk of raw link bytes into the loop.
type BytesMsg struct {
	Data []byte
}

// Status is the receiver's view of the remote node, handed to the
// display and the mirror.
type Status struct {
	// Live reports telemetry arriving within the communication
	// timeout. EverReceived distinguishes a gone-quiet link from one
	// that never spoke.
	Live         bool
	EverReceived bool

	// SyncRemaining is non-zero while the post-boot grace period is
	// still running after the receiver's own watchdog reset.
	SyncRemaining time.Duration

	Packet  telemetry.Packet
	Packets uint32
}

// Display renders the receiver's status pane. Rendering runs on its
// own cadence elsewhere; this is only the update call handing over a
// copy of the state.
type Display interface {
	Show(Status)
}

// Publisher mirrors validated snapshots to an external consumer.
type Publisher interface {
	Publish(Status) error
}

// Supervisor consumes the byte stream and enforces the safety policy.
// All fields are owned by the loop goroutine.
type Supervisor struct {
	Watchdog  hw.Watchdog
	Display   Display
	Publisher Publisher // optional

	// Grace suppresses fault-triggered self-reboots for a window after
	// the receiver's own boot, breaking reboot loops when both nodes
	// reset together.
	Grace        time.Duration
	CommTimeout  time.Duration
	RefreshEvery time.Duration

	dec      telemetry.Decoder
	bootAt   time.Time
	wdtAlert bool

	last         telemetry.Packet
	live         bool
	everReceived bool
	lastPacketAt time.Time
	packets      uint32

	nextRefresh time.Time
}

// Boot starts supervision: records the boot instant for grace-period
// arithmetic and arms the watchdog.
func (s *Supervisor) Boot(now time.Time, wdtTimeout time.Duration) {
	s.bootAt = now
	s.wdtAlert = s.Watchdog.CausedReboot()
	if s.wdtAlert {
		glog.Warningf("receiver was reset by watchdog; holding reboots for %v", s.Grace)
	}
	s.Watchdog.Enable(wdtTimeout)
	s.nextRefresh = now
}

// Control implements framework.Controller: decode posted bytes, run
// the timeout-driven liveness transition, refresh the display, feed
// the watchdog unconditionally.
func (s *Supervisor) Control(cc fx.ControlContext) error {
	now := cc.Time()

	for _, msg := range cc.Messages() {
		m, ok := msg.(BytesMsg)
		if !ok {
			continue
		}
		for _, pkt := range s.dec.FeedAll(m.Data) {
			s.handlePacket(pkt, now)
		}
	}

	// Pure timeout transition: no byte invalidates the data, its age
	// does. Checked every iteration.
	if s.live && now.Sub(s.lastPacketAt) > s.CommTimeout {
		s.live = false
		glog.Warningf("telemetry lost: nothing valid for %v", s.CommTimeout)
	}

	if !now.Before(s.nextRefresh) {
		s.Display.Show(s.status(now))
		s.nextRefresh = now.Add(s.RefreshEvery)
	}

	// Guards against local lockups, independent of the remote node.
	s.Watchdog.Feed()
	return nil
}

func (s *Supervisor) handlePacket(pkt *telemetry.Packet, now time.Time) {
	s.last = *pkt
	s.live = true
	s.everReceived = true
	s.lastPacketAt = now
	s.packets++
	glog.V(2).Infof("packet %d: state=%v fault=%v", s.packets, pkt.State, pkt.LastFault)

	if s.Publisher != nil {
		if err := s.Publisher.Publish(s.status(now)); err != nil {
			glog.V(1).Infof("mirror publish failed: %v", err)
		}
	}

	s.Watchdog.Feed()

	if pkt.LastFault.IsFault() && now.Sub(s.bootAt) > s.Grace {
		glog.Errorf("remote fault %v reported after grace period; rebooting", pkt.LastFault)
		s.Watchdog.Reboot()
	}
}

func (s *Supervisor) status(now time.Time) Status {
	st := Status{
		Live:         s.live,
		EverReceived: s.everReceived,
		Packet:       s.last,
		Packets:      s.packets,
	}
	if s.wdtAlert {
		if remaining := s.Grace - now.Sub(s.bootAt); remaining > 0 {
			st.SyncRemaining = remaining
		}
	}
	return st
}
