package hw

import "github.com/golang/glog"

// Blinker drives one status LED.
type Blinker interface {
	Set(on bool)
}

// LogBlinker reports LED changes through the log, the host stand-in
// for a GPIO-driven LED.
type LogBlinker struct {
	Name string

	on bool
}

// Set implements Blinker.
func (b *LogBlinker) Set(on bool) {
	if on == b.on {
		return
	}
	b.on = on
	state := "off"
	if on {
		state = "on"
	}
	glog.V(1).Infof("LED[%s] %s", b.Name, state)
}

// NopBlinker discards LED updates.
type NopBlinker struct{}

// Set implements Blinker.
func (NopBlinker) Set(bool) {}
