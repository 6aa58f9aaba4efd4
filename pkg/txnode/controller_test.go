package txnode

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/irguard/irguard.go/pkg/appliance"
	"github.com/irguard/irguard.go/pkg/diag"
	"github.com/irguard/irguard.go/pkg/fault"
	fx "github.com/irguard/irguard.go/pkg/framework"
	"github.com/irguard/irguard.go/pkg/hw"
	"github.com/irguard/irguard.go/pkg/telemetry"
)

// The fakes below share one event journal so tests can assert the
// ordering of the fault entry protocol.

type journal struct {
	events []string
}

func (j *journal) add(ev string) { j.events = append(j.events, ev) }

type fakeWatchdog struct {
	j            *journal
	causedReboot bool
	enabled      time.Duration
	feeds        int
	reboots      int
}

func (w *fakeWatchdog) Enable(timeout time.Duration) { w.enabled = timeout }
func (w *fakeWatchdog) Feed()                        { w.feeds++; w.j.add("feed") }
func (w *fakeWatchdog) CausedReboot() bool           { return w.causedReboot }
func (w *fakeWatchdog) Reboot()                      { w.reboots++; w.j.add("reboot") }

type fakeStore struct {
	j     *journal
	rec   diag.Record
	saves int
}

func (s *fakeStore) Load() diag.Record { return s.rec }
func (s *fakeStore) Save(rec diag.Record) error {
	s.rec = rec
	s.saves++
	s.j.add("save")
	return nil
}

type fakeScratch struct {
	j *journal
	hw.MemScratch
}

func (s *fakeScratch) SetLastFault(v uint32) {
	s.j.add("scratch")
	s.MemScratch.SetLastFault(v)
}

type fakeLink struct {
	j   *journal
	buf bytes.Buffer
}

func (l *fakeLink) Write(p []byte) (int, error) {
	l.j.add("packet")
	return l.buf.Write(p)
}

type fakeIR struct {
	fired []string
}

func (d *fakeIR) TurnOn()       { d.fired = append(d.fired, "on") }
func (d *fakeIR) TurnOff()      { d.fired = append(d.fired, "off") }
func (d *fakeIR) SetTemp20()    { d.fired = append(d.fired, "temp20") }
func (d *fakeIR) SetFanLevel1() { d.fired = append(d.fired, "fan1") }
func (d *fakeIR) SetFanLevel2() { d.fired = append(d.fired, "fan2") }

type testContext struct {
	now  time.Time
	msgs []fx.Message
}

func (t *testContext) Context() context.Context { return context.Background() }
func (t *testContext) Time() time.Time          { return t.now }
func (t *testContext) Messages() []fx.Message   { return t.msgs }
func (t *testContext) PostMessage(fx.Message)   {}
func (t *testContext) TriggerNext()             {}

type harness struct {
	j     *journal
	wdt   *fakeWatchdog
	store *fakeStore
	reg   *fakeScratch
	link  *fakeLink
	ir    *fakeIR
	ctrl  *Controller
	t0    time.Time
}

func newHarness(wdtCaused bool) *harness {
	j := &journal{}
	h := &harness{
		j:     j,
		wdt:   &fakeWatchdog{j: j, causedReboot: wdtCaused},
		store: &fakeStore{j: j, rec: diag.NewRecord()},
		reg:   &fakeScratch{j: j},
		link:  &fakeLink{j: j},
		ir:    &fakeIR{},
		t0:    time.Unix(1000, 0),
	}
	h.ctrl = &Controller{
		Store:           h.store,
		Scratch:         h.reg,
		Watchdog:        h.wdt,
		IR:              h.ir,
		Display:         NopDisplay{},
		Link:            h.link,
		WatchdogTimeout: 5 * time.Second,
		Sleep:           func(time.Duration) {},
	}
	return h
}

func (h *harness) packets(t *testing.T) []*telemetry.Packet {
	t.Helper()
	var dec telemetry.Decoder
	return dec.FeedAll(h.link.buf.Bytes())
}

func (h *harness) step(at time.Duration, msgs ...fx.Message) {
	h.ctrl.Control(&testContext{now: h.t0.Add(at), msgs: msgs})
}

func TestBootSequence(t *testing.T) {
	h := newHarness(false)
	h.ctrl.Boot(h.t0)

	require.Equal(t, uint32(1), h.store.rec.BootCount)
	require.Equal(t, diag.ResetNormal, h.store.rec.LastReset)
	require.Equal(t, 1, h.store.saves, "exactly one save per normal boot")
	require.Equal(t, 5*time.Second, h.wdt.enabled)

	pkts := h.packets(t)
	require.Len(t, pkts, 1, "initial telemetry at boot")
	require.Equal(t, appliance.Off, pkts[0].State)
	require.Equal(t, fault.None, pkts[0].LastFault)
}

func TestBootAfterWatchdogReset(t *testing.T) {
	h := newHarness(true)
	h.store.rec.LastFault = fault.InfiniteLoop // persisted by the previous life
	h.ctrl.Boot(h.t0)

	require.Equal(t, uint32(1), h.store.rec.WdtCount)
	require.Equal(t, diag.ResetWatchdog, h.store.rec.LastReset)
	require.Equal(t, fault.InfiniteLoop, h.store.rec.LastFault)
	require.Equal(t, uint32(1), h.reg.WdtCount())
	require.Equal(t, uint32(fault.InfiniteLoop), h.reg.LastFault())

	pkts := h.packets(t)
	require.Len(t, pkts, 1)
	require.Equal(t, fault.InfiniteLoop, pkts[0].LastFault)
	require.Equal(t, uint32(1), pkts[0].WdtResets)
}

func TestExecuteCommand(t *testing.T) {
	h := newHarness(false)
	h.ctrl.Boot(h.t0)
	h.link.buf.Reset()

	h.step(20*time.Millisecond, CommandMsg{Command: appliance.On})

	require.Equal(t, []string{"on"}, h.ir.fired)
	pkts := h.packets(t)
	require.Len(t, pkts, 1)
	require.Equal(t, appliance.On, pkts[0].State)
	require.Equal(t, appliance.Command(appliance.On), pkts[0].LastCommand)
	require.False(t, pkts[0].Pending)
	require.Equal(t, uint32(1), pkts[0].Operations)
}

func TestRejectUnknownCommand(t *testing.T) {
	h := newHarness(false)
	h.ctrl.Boot(h.t0)
	h.link.buf.Reset()

	ok := h.ctrl.Execute(appliance.Command(9), h.t0.Add(time.Millisecond))
	require.False(t, ok)
	require.Empty(t, h.ir.fired)
	require.Empty(t, h.link.buf.Bytes(), "no telemetry for a rejected command")
	require.Equal(t, appliance.Off, h.ctrl.state)
	require.Zero(t, h.ctrl.operations)
}

func TestPeriodicTelemetry(t *testing.T) {
	h := newHarness(false)
	h.ctrl.Boot(h.t0)
	h.link.buf.Reset()

	h.step(100 * time.Millisecond)
	require.Empty(t, h.packets(t), "not due yet")

	h.step(TelemetryEvery)
	pkts := h.packets(t)
	require.Len(t, pkts, 1)
	require.Equal(t, uint32(TelemetryEvery/time.Millisecond), pkts[0].UptimeMS)
}

func TestWatchdogFedEveryIteration(t *testing.T) {
	h := newHarness(false)
	h.ctrl.Boot(h.t0)

	before := h.wdt.feeds
	for i := 0; i < 10; i++ {
		h.step(time.Duration(i) * 10 * time.Millisecond)
	}
	require.Equal(t, before+10, h.wdt.feeds)
}

func TestTemp22FaultEntryProtocol(t *testing.T) {
	h := newHarness(false)
	h.ctrl.Boot(h.t0)
	h.link.buf.Reset()
	h.j.events = nil

	h.step(30*time.Millisecond, CommandMsg{Command: appliance.Temp22})

	require.True(t, h.ctrl.Faulted())
	require.Empty(t, h.ir.fired, "the faulting command never reaches the IR driver")

	// Entry order: feed (accept) -> feed (margin) -> save -> scratch
	// mirror -> final packet. No feed after the packet.
	require.Equal(t, []string{"feed", "feed", "save", "scratch", "packet"}, h.j.events)

	require.Equal(t, fault.Temp22, h.store.rec.LastFault)
	require.Equal(t, uint32(fault.Temp22), h.reg.LastFault())

	pkts := h.packets(t)
	require.Len(t, pkts, 1)
	require.Equal(t, fault.Temp22, pkts[0].LastFault)
	require.True(t, pkts[0].Pending, "the diverted command never completed")
}

func TestTerminalStateStopsFeeding(t *testing.T) {
	h := newHarness(false)
	h.ctrl.Boot(h.t0)
	h.step(10*time.Millisecond, TriggerFaultMsg{Code: fault.InfiniteLoop})
	require.True(t, h.ctrl.Faulted())

	feeds := h.wdt.feeds
	h.link.buf.Reset()
	for i := 0; i < 50; i++ {
		h.step(time.Duration(i)*10*time.Millisecond,
			CommandMsg{Command: appliance.On}) // further commands are dead
	}
	require.Equal(t, feeds, h.wdt.feeds, "a faulted node never feeds again")
	require.Empty(t, h.link.buf.Bytes())
	require.Empty(t, h.ir.fired)
}

func TestStuckTransportTransmitsGarbage(t *testing.T) {
	h := newHarness(false)
	h.ctrl.Boot(h.t0)
	h.step(10*time.Millisecond, TriggerFaultMsg{Code: fault.UARTStuck})
	require.True(t, h.ctrl.Faulted())

	h.link.buf.Reset()
	h.step(20 * time.Millisecond)
	h.step(30 * time.Millisecond)
	require.Equal(t, append(fault.Garbage(), fault.Garbage()...), h.link.buf.Bytes())

	var dec telemetry.Decoder
	require.Empty(t, dec.FeedAll(h.link.buf.Bytes()), "garbage never decodes")
}

func TestStatusMessage(t *testing.T) {
	h := newHarness(false)
	h.ctrl.Boot(h.t0)

	var out bytes.Buffer
	h.step(7*time.Second, StatusMsg{Out: &out})
	require.Contains(t, out.String(), "state:")
	require.Contains(t, out.String(), "uptime:      7s")
	require.Contains(t, out.String(), "last fault:  NONE")
}
