package rxnode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/irguard/irguard.go/pkg/appliance"
	"github.com/irguard/irguard.go/pkg/fault"
	fx "github.com/irguard/irguard.go/pkg/framework"
	"github.com/irguard/irguard.go/pkg/telemetry"
)

type fakeWatchdog struct {
	causedReboot bool
	enabled      time.Duration
	feeds        int
	reboots      int
}

func (w *fakeWatchdog) Enable(timeout time.Duration) { w.enabled = timeout }
func (w *fakeWatchdog) Feed()                        { w.feeds++ }
func (w *fakeWatchdog) CausedReboot() bool           { return w.causedReboot }
func (w *fakeWatchdog) Reboot()                      { w.reboots++ }

type recordingDisplay struct {
	shown []Status
}

func (d *recordingDisplay) Show(st Status) { d.shown = append(d.shown, st) }

type recordingPublisher struct {
	published []Status
}

func (p *recordingPublisher) Publish(st Status) error {
	p.published = append(p.published, st)
	return nil
}

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
	wdt *fakeWatchdog
	dsp *recordingDisplay
	sup *Supervisor
	t0  time.Time
}

func newHarness(wdtCaused bool) *harness {
	h := &harness{
		wdt: &fakeWatchdog{causedReboot: wdtCaused},
		dsp: &recordingDisplay{},
		t0:  time.Unix(2000, 0),
	}
	h.sup = &Supervisor{
		Watchdog:     h.wdt,
		Display:      h.dsp,
		Grace:        5 * time.Second,
		CommTimeout:  2 * time.Second,
		RefreshEvery: 200 * time.Millisecond,
	}
	h.sup.Boot(h.t0, 8*time.Second)
	return h
}

func (h *harness) step(at time.Duration, msgs ...fx.Message) {
	h.sup.Control(&testContext{now: h.t0.Add(at), msgs: msgs})
}

func frame(flt fault.Code, uptimeMS uint32) []byte {
	pkt := telemetry.Packet{
		State:       appliance.On,
		LastCommand: appliance.On,
		UptimeMS:    uptimeMS,
		LastFault:   flt,
		Operations:  1,
	}
	return pkt.Encode()
}

func TestGraceSuppressesEarlyFaultReboot(t *testing.T) {
	h := newHarness(true)

	h.step(2*time.Second, BytesMsg{Data: frame(fault.Temp22, 9000)})
	require.Zero(t, h.wdt.reboots, "fault inside the grace period must not reboot")
	require.True(t, h.sup.live)
}

func TestFaultAfterGraceReboots(t *testing.T) {
	h := newHarness(true)

	h.step(6*time.Second, BytesMsg{Data: frame(fault.Temp22, 9000)})
	require.Equal(t, 1, h.wdt.reboots)
}

func TestHealthyPacketsNeverReboot(t *testing.T) {
	h := newHarness(false)

	for i := 0; i < 30; i++ {
		h.step(time.Duration(i)*500*time.Millisecond,
			BytesMsg{Data: frame(fault.None, uint32(i*500))})
	}
	require.Zero(t, h.wdt.reboots)
	require.Equal(t, uint32(30), h.sup.packets)
}

func TestLivenessFlipsOnceAtTimeout(t *testing.T) {
	h := newHarness(false)

	h.step(time.Second, BytesMsg{Data: frame(fault.None, 1000)})
	require.True(t, h.sup.live)

	// Still inside the window.
	h.step(time.Second + h.sup.CommTimeout)
	require.True(t, h.sup.live)

	// Just past the window: flips exactly once.
	h.step(time.Second + h.sup.CommTimeout + time.Millisecond)
	require.False(t, h.sup.live)
	require.True(t, h.sup.everReceived, "lost is distinct from never received")

	h.step(10 * time.Second)
	require.False(t, h.sup.live)

	// Recovers on the next valid packet.
	h.step(11*time.Second, BytesMsg{Data: frame(fault.None, 11000)})
	require.True(t, h.sup.live)
}

func TestNeverReceivedStaysNotLive(t *testing.T) {
	h := newHarness(false)

	h.step(10 * time.Second)
	require.False(t, h.sup.live)
	require.False(t, h.sup.everReceived)
}

func TestCorruptedBytesDoNotDisturbState(t *testing.T) {
	h := newHarness(false)

	h.step(time.Second, BytesMsg{Data: frame(fault.None, 1000)})
	packets := h.sup.packets

	corrupted := frame(fault.None, 2000)
	corrupted[20] ^= 0xFF
	h.step(1500*time.Millisecond, BytesMsg{Data: corrupted})
	require.Equal(t, packets, h.sup.packets, "rejected frame is not counted")
	require.True(t, h.sup.live)
}

func TestFrameSplitAcrossChunks(t *testing.T) {
	h := newHarness(false)

	f := frame(fault.None, 1000)
	h.step(time.Second, BytesMsg{Data: f[:7]})
	require.Zero(t, h.sup.packets)
	h.step(time.Second+50*time.Millisecond, BytesMsg{Data: f[7:]})
	require.Equal(t, uint32(1), h.sup.packets)
}

func TestWatchdogFedEveryIteration(t *testing.T) {
	h := newHarness(false)

	before := h.wdt.feeds
	for i := 0; i < 20; i++ {
		h.step(time.Duration(i) * 10 * time.Millisecond)
	}
	require.Equal(t, before+20, h.wdt.feeds, "fed with or without telemetry")
}

func TestDisplayShowsSyncCountdownAfterOwnWdtReset(t *testing.T) {
	h := newHarness(true)

	h.step(time.Second)
	require.NotEmpty(t, h.dsp.shown)
	require.True(t, h.dsp.shown[len(h.dsp.shown)-1].SyncRemaining > 0)

	h.step(6 * time.Second)
	require.Zero(t, h.dsp.shown[len(h.dsp.shown)-1].SyncRemaining,
		"countdown ends when the grace period elapses")
}

func TestDisplayRefreshCadence(t *testing.T) {
	h := newHarness(false)

	h.step(0)
	h.step(50 * time.Millisecond)
	h.step(100 * time.Millisecond)
	require.Len(t, h.dsp.shown, 1, "refresh honors its own interval")

	h.step(250 * time.Millisecond)
	require.Len(t, h.dsp.shown, 2)
}

func TestPublisherReceivesSnapshots(t *testing.T) {
	h := newHarness(false)
	pub := &recordingPublisher{}
	h.sup.Publisher = pub

	h.step(time.Second, BytesMsg{Data: frame(fault.None, 1000)})
	require.Len(t, pub.published, 1)
	require.True(t, pub.published[0].Live)
	require.Equal(t, uint32(1), pub.published[0].Packets)
}
