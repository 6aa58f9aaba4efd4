// Package hw abstracts the hardware the two nodes run on: watchdog
// timer, warm-reset scratch registers, status LEDs and the serial
// port. Host implementations are provided so the nodes run and are
// testable without the target hardware.
package hw

import (
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Watchdog abstracts the hardware watchdog timer. It forcibly resets
// the node unless Feed is called within the configured timeout. The
// watchdog is the system's only cancellation mechanism: a fault path
// renounces it simply by never feeding again.
type Watchdog interface {
	// Enable arms the watchdog with the given timeout.
	Enable(timeout time.Duration)
	// Feed resets the countdown.
	Feed()
	// CausedReboot reports whether the previous reset was forced by
	// the watchdog (or a requested reboot), as opposed to a power-on.
	CausedReboot() bool
	// Reboot forces a reset immediately, without waiting for the
	// timeout. A subsequent CausedReboot reports true.
	Reboot()
}

// SoftWatchdog emulates the hardware watchdog on a host. Expiry writes
// a marker file (the host stand-in for the reset-cause register) and
// invokes OnExpire, which is expected to terminate the process so a
// supervisor restarts it.
type SoftWatchdog struct {
	// OnExpire runs exactly once when the countdown elapses or Reboot
	// is called. Leave nil to log and exit the process.
	OnExpire func()

	markerPath   string
	causedReboot bool

	lock     sync.Mutex
	timeout  time.Duration
	deadline time.Time
	enabled  bool
	fired    bool
}

// NewSoftWatchdog creates a soft watchdog using markerPath to carry
// the reset cause across restarts. An existing marker means the
// previous life ended by watchdog; it is consumed on open.
func NewSoftWatchdog(markerPath string) *SoftWatchdog {
	w := &SoftWatchdog{markerPath: markerPath}
	if markerPath != "" {
		if _, err := os.Stat(markerPath); err == nil {
			w.causedReboot = true
			os.Remove(markerPath)
		}
	}
	return w
}

// Enable implements Watchdog.
func (w *SoftWatchdog) Enable(timeout time.Duration) {
	w.lock.Lock()
	w.timeout = timeout
	w.deadline = time.Now().Add(timeout)
	armed := w.enabled
	w.enabled = true
	w.lock.Unlock()
	if armed {
		return
	}
	go w.watch(timeout)
}

func (w *SoftWatchdog) watch(timeout time.Duration) {
	tick := timeout / 20
	if tick < time.Millisecond {
		tick = time.Millisecond
	}
	for {
		time.Sleep(tick)
		w.lock.Lock()
		expired := w.enabled && !w.fired && time.Now().After(w.deadline)
		if expired {
			w.fired = true
		}
		w.lock.Unlock()
		if expired {
			w.expire("timeout")
			return
		}
	}
}

// Feed implements Watchdog.
func (w *SoftWatchdog) Feed() {
	w.lock.Lock()
	if w.enabled && !w.fired {
		w.deadline = time.Now().Add(w.timeout)
	}
	w.lock.Unlock()
}

// CausedReboot implements Watchdog.
func (w *SoftWatchdog) CausedReboot() bool {
	return w.causedReboot
}

// Reboot implements Watchdog.
func (w *SoftWatchdog) Reboot() {
	w.lock.Lock()
	already := w.fired
	w.fired = true
	w.lock.Unlock()
	if !already {
		w.expire("reboot requested")
	}
}

func (w *SoftWatchdog) expire(cause string) {
	glog.Errorf("watchdog: %s, resetting node", cause)
	if w.markerPath != "" {
		if f, err := os.Create(w.markerPath); err == nil {
			f.Close()
		} else {
			glog.Errorf("watchdog: marker write failed: %v", err)
		}
	}
	if w.OnExpire != nil {
		w.OnExpire()
		return
	}
	glog.Flush()
	os.Exit(3)
}
