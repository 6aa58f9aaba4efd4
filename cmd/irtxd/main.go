package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/irguard/irguard.go/pkg/config"
	"github.com/irguard/irguard.go/pkg/diag"
	"github.com/irguard/irguard.go/pkg/framework"
	"github.com/irguard/irguard.go/pkg/hw"
	"github.com/irguard/irguard.go/pkg/txnode"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "irtxd.yml", "Node configuration file.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load(configFile, config.Transmitter)
	if err != nil {
		glog.Exitf("config: %v", err)
	}

	port, err := hw.OpenPort(cfg.Serial.Device, cfg.Serial.Baud,
		time.Duration(cfg.Serial.ReadTimeoutMs)*time.Millisecond)
	if err != nil {
		glog.Exitf("serial: %v", err)
	}
	defer port.Close()

	dev, err := diag.OpenFileDevice(cfg.Store.Path, cfg.Store.Blocks)
	if err != nil {
		glog.Exitf("diag store: %v", err)
	}

	ctl := &txnode.Controller{
		Store:           diag.NewStore(dev),
		Scratch:         hw.OpenFileScratch(cfg.Store.ScratchFile),
		Watchdog:        hw.NewSoftWatchdog(cfg.Watchdog.MarkerFile),
		IR:              txnode.LogDriver{},
		Display:         txnode.LogDisplay{},
		Link:            port,
		HeartbeatLED:    &hw.LogBlinker{Name: "heartbeat"},
		FaultLED:        &hw.LogBlinker{Name: "fault"},
		WatchdogTimeout: time.Duration(cfg.Watchdog.TimeoutMs) * time.Millisecond,
	}
	ctl.Boot(time.Now())

	loop := framework.NewLoop().AddController(ctl)
	loop.AddRunnable(txnode.NewConsole(loop))

	if err := framework.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Exitf("%v", err)
	}
}
