package txnode

import (
	"time"

	"github.com/golang/glog"

	"github.com/irguard/irguard.go/pkg/appliance"
	"github.com/irguard/irguard.go/pkg/diag"
	"github.com/irguard/irguard.go/pkg/fault"
)

// Display renders the transmitter's local status panel. The character
// and pixel drawing pipeline stays behind this interface; the
// controller only supplies the values to show.
type Display interface {
	ShowBoot(rec diag.Record, wdtCaused bool, wdtTimeout time.Duration)
	ShowRunning(state appliance.State, operations, wdtResets uint32)
	ShowFault(desc fault.Descriptor, wdtTimeout time.Duration)
}

// LogDisplay is the host stand-in for the status panel.
type LogDisplay struct{}

// ShowBoot implements Display.
func (LogDisplay) ShowBoot(rec diag.Record, wdtCaused bool, wdtTimeout time.Duration) {
	glog.Infof("panel: RST %v | CNT %d | WDT %d | FLT %v | timeout %v",
		rec.LastReset, rec.BootCount, rec.WdtCount, rec.LastFault, wdtTimeout)
}

// ShowRunning implements Display.
func (LogDisplay) ShowRunning(state appliance.State, operations, wdtResets uint32) {
	glog.V(1).Infof("panel: AC %v | OPS %d | RST %d | TX active", state, operations, wdtResets)
}

// ShowFault implements Display.
func (LogDisplay) ShowFault(desc fault.Descriptor, wdtTimeout time.Duration) {
	glog.Errorf("panel: INDUCED FAULT %s (%s), awaiting reset in ~%v", desc.Name, desc.Detail, wdtTimeout)
}

// NopDisplay discards panel updates.
type NopDisplay struct{}

// ShowBoot implements Display.
func (NopDisplay) ShowBoot(diag.Record, bool, time.Duration) {}

// ShowRunning implements Display.
func (NopDisplay) ShowRunning(appliance.State, uint32, uint32) {}

// ShowFault implements Display.
func (NopDisplay) ShowFault(fault.Descriptor, time.Duration) {}
