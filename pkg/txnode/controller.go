// Package txnode implements the transmitter node: it owns the
// appliance state, executes operator commands, guards itself with the
// watchdog, persists the diagnostic record and streams telemetry over
// the serial link.
package txnode

import (
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/irguard/irguard.go/pkg/appliance"
	"github.com/irguard/irguard.go/pkg/diag"
	"github.com/irguard/irguard.go/pkg/fault"
	fx "github.com/irguard/irguard.go/pkg/framework"
	"github.com/irguard/irguard.go/pkg/hw"
	"github.com/irguard/irguard.go/pkg/telemetry"
)

// Loop timing. The telemetry interval doubles as the liveness signal
// the receiver supervises.
const (
	TelemetryEvery = 500 * time.Millisecond
	HeartbeatEvery = 500 * time.Millisecond
	DisplayEvery   = time.Second

	// SettleDelay lets the IR waveform finish before the command is
	// reported complete.
	SettleDelay = 100 * time.Millisecond
	// FlushDelay lets the transport drain the final fault packet
	// before the terminal state is entered.
	FlushDelay = 50 * time.Millisecond
)

// CommandMsg asks the controller to execute an appliance command.
type CommandMsg struct {
	Command appliance.Command
}

// TriggerFaultMsg asks the controller to enter a cataloged fault.
type TriggerFaultMsg struct {
	Code fault.Code
}

// StatusMsg asks the controller to write its status to Out.
type StatusMsg struct {
	Out io.Writer
}

// RecordStore persists the diagnostic record.
type RecordStore interface {
	Load() diag.Record
	Save(diag.Record) error
}

// Controller owns all transmitter state. It is driven by a single
// cooperative loop; nothing else writes its fields, so no locking is
// needed.
type Controller struct {
	Store    RecordStore
	Scratch  hw.Scratch
	Watchdog hw.Watchdog
	IR       IRDriver
	Display  Display
	Link     io.Writer

	HeartbeatLED hw.Blinker
	FaultLED     hw.Blinker

	WatchdogTimeout time.Duration

	// Sleep is a test hook; defaults to time.Sleep.
	Sleep func(time.Duration)

	rec         diag.Record
	state       appliance.State
	lastCommand appliance.Command
	pending     bool
	operations  uint32
	bootAt      time.Time

	faulted   fault.Descriptor
	isFaulted bool
	blinkOn   bool
	nextBlink time.Time

	nextTelemetry time.Time
	nextHeartbeat time.Time
	heartbeatOn   bool
	nextDisplay   time.Time
	shownState    appliance.State
	shownValid    bool
}

// Boot performs the power-up sequence: boot-cause accounting against
// the persisted record, scratch mirroring, the single normal-operation
// save, watchdog arming and the first telemetry packet.
func (c *Controller) Boot(now time.Time) {
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	if c.HeartbeatLED == nil {
		c.HeartbeatLED = hw.NopBlinker{}
	}
	if c.FaultLED == nil {
		c.FaultLED = hw.NopBlinker{}
	}
	c.bootAt = now

	c.rec = c.Store.Load()
	wdtCaused := c.Watchdog.CausedReboot()
	c.rec.ApplyBoot(wdtCaused)
	if wdtCaused {
		glog.Warningf("reset by watchdog, previous fault: %v", c.rec.LastFault)
	} else {
		glog.Info("normal reset (power / manual)")
	}

	// Scratch mirrors the record for reads that must not touch storage.
	c.Scratch.SetWdtCount(c.rec.WdtCount)
	c.Scratch.SetLastFault(uint32(c.rec.LastFault))

	if err := c.Store.Save(c.rec); err != nil {
		glog.Errorf("diag save at boot failed: %v", err)
	}

	c.Display.ShowBoot(c.rec, wdtCaused, c.WatchdogTimeout)
	c.Watchdog.Enable(c.WatchdogTimeout)
	c.sendTelemetry(now)

	c.nextTelemetry = now.Add(TelemetryEvery)
	c.nextHeartbeat = now.Add(HeartbeatEvery)
	c.nextDisplay = now.Add(DisplayEvery)
}

// Faulted reports whether the controller is latched in a terminal
// fault state.
func (c *Controller) Faulted() bool {
	return c.isFaulted
}

// Control implements framework.Controller. It runs one cooperative
// iteration: command messages, the periodic activities, and the
// unconditional watchdog feed. Once faulted it only performs the
// terminal behavior and never feeds again.
func (c *Controller) Control(cc fx.ControlContext) error {
	now := cc.Time()
	if c.isFaulted {
		c.runTerminal(now)
		return nil
	}

	for _, msg := range cc.Messages() {
		switch m := msg.(type) {
		case CommandMsg:
			c.Execute(m.Command, now)
		case TriggerFaultMsg:
			if desc, ok := fault.Lookup(m.Code); ok {
				c.enterFault(desc, now)
			} else {
				glog.Warningf("unknown fault code %d ignored", m.Code)
			}
		case StatusMsg:
			c.writeStatus(m.Out, now)
		}
		if c.isFaulted {
			c.runTerminal(now)
			return nil
		}
	}

	if !now.Before(c.nextTelemetry) {
		c.sendTelemetry(now)
		c.nextTelemetry = now.Add(TelemetryEvery)
	}

	if !now.Before(c.nextHeartbeat) {
		c.heartbeatOn = !c.heartbeatOn
		c.HeartbeatLED.Set(c.heartbeatOn)
		c.nextHeartbeat = now.Add(HeartbeatEvery)
	}

	if !now.Before(c.nextDisplay) || !c.shownValid || c.shownState != c.state {
		c.Display.ShowRunning(c.state, c.operations, c.Scratch.WdtCount())
		c.shownState, c.shownValid = c.state, true
		c.nextDisplay = now.Add(DisplayEvery)
	}

	// The feed never depends on any of the activities above.
	c.Watchdog.Feed()
	return nil
}

// Execute runs one appliance command. An ordinary command either
// succeeds atomically or is rejected with no state change and no
// telemetry; Temp22 is accepted and then diverts into the fault path.
func (c *Controller) Execute(cmd appliance.Command, now time.Time) bool {
	if !cmd.IsValid() {
		glog.Warningf("rejected unknown command code %d", cmd)
		return false
	}
	glog.Infof("executing command %v", cmd)
	c.pending = true
	c.lastCommand = cmd
	c.Watchdog.Feed()

	if cmd == appliance.Temp22 {
		// Accepted, starts executing, locks up instead of completing.
		desc, _ := fault.Lookup(fault.Temp22)
		c.enterFault(desc, now)
		return false
	}

	c.fireIR(cmd)
	c.Watchdog.Feed()
	c.Sleep(SettleDelay)

	c.pending = false
	c.state = appliance.State(cmd)
	c.operations++
	glog.Infof("command %v done (%d operations)", cmd, c.operations)

	c.sendTelemetry(now)
	return true
}

func (c *Controller) fireIR(cmd appliance.Command) {
	switch cmd {
	case appliance.On:
		c.IR.TurnOn()
	case appliance.Off:
		c.IR.TurnOff()
	case appliance.Temp20:
		c.IR.SetTemp20()
	case appliance.Fan1:
		c.IR.SetFanLevel1()
	case appliance.Fan2:
		c.IR.SetFanLevel2()
	}
}

// enterFault is the entry protocol shared by every cataloged fault.
// The order is the safety contract: the record must be persisted and
// mirrored, and the last packet flushed, before the terminal state
// stops feeding the watchdog.
func (c *Controller) enterFault(desc fault.Descriptor, now time.Time) {
	glog.Errorf("entering fault %d (%s); awaiting watchdog reset", desc.Code, desc.Name)

	// Margin for the blocking save and flush below.
	c.Watchdog.Feed()

	c.rec.LastFault = desc.Code
	if err := c.Store.Save(c.rec); err != nil {
		glog.Errorf("diag save before lockup failed: %v", err)
	}
	c.Scratch.SetLastFault(uint32(desc.Code))

	c.Display.ShowFault(desc, c.WatchdogTimeout)
	c.sendTelemetry(now)
	c.Sleep(FlushDelay)

	c.faulted = desc
	c.isFaulted = true
	c.nextBlink = now
}

// runTerminal performs the fault's terminal behavior. No transitions
// remain and the watchdog is never fed; the hardware reset is the only
// exit.
func (c *Controller) runTerminal(now time.Time) {
	if !now.Before(c.nextBlink) {
		c.blinkOn = !c.blinkOn
		c.FaultLED.Set(c.blinkOn)
		c.nextBlink = now.Add(c.faulted.BlinkEvery)
	}
	if c.faulted.Terminal == fault.TerminalTransmitGarbage {
		if _, err := c.Link.Write(fault.Garbage()); err != nil {
			glog.V(2).Infof("garbage write failed: %v", err)
		}
	}
}

func (c *Controller) sendTelemetry(now time.Time) {
	pkt := telemetry.Packet{
		State:       c.state,
		LastCommand: c.lastCommand,
		Pending:     c.pending,
		UptimeMS:    uint32(now.Sub(c.bootAt) / time.Millisecond),
		WdtResets:   c.rec.WdtCount,
		LastFault:   c.rec.LastFault,
		Operations:  c.operations,
	}
	if _, err := c.Link.Write(pkt.Encode()); err != nil {
		glog.Errorf("telemetry write failed: %v", err)
	}
}

func (c *Controller) writeStatus(w io.Writer, now time.Time) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "state:       %v\n", c.state)
	fmt.Fprintf(w, "operations:  %d\n", c.operations)
	fmt.Fprintf(w, "uptime:      %ds\n", int(now.Sub(c.bootAt)/time.Second))
	fmt.Fprintf(w, "wdt resets:  %d\n", c.Scratch.WdtCount())
	fmt.Fprintf(w, "last fault:  %v\n", fault.Code(c.Scratch.LastFault()))
	fmt.Fprintf(w, "watchdog:    active (%v)\n", c.WatchdogTimeout)
}
