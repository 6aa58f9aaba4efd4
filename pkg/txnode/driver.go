package txnode

import "github.com/golang/glog"

// IRDriver fires the infrared command waveforms. Waveform generation
// and the signal hardware live behind this interface; the controller
// only decides which command to fire. There is no Temp22 entry: that
// command diverts into the fault path before reaching the driver.
type IRDriver interface {
	TurnOn()
	TurnOff()
	SetTemp20()
	SetFanLevel1()
	SetFanLevel2()
}

// LogDriver is the host stand-in for the IR hardware: it logs the
// command instead of emitting a waveform.
type LogDriver struct{}

// TurnOn implements IRDriver.
func (LogDriver) TurnOn() { glog.Info("IR: power on") }

// TurnOff implements IRDriver.
func (LogDriver) TurnOff() { glog.Info("IR: power off") }

// SetTemp20 implements IRDriver.
func (LogDriver) SetTemp20() { glog.Info("IR: temperature 20C") }

// SetFanLevel1 implements IRDriver.
func (LogDriver) SetFanLevel1() { glog.Info("IR: fan level 1") }

// SetFanLevel2 implements IRDriver.
func (LogDriver) SetFanLevel2() { glog.Info("IR: fan level 2") }
