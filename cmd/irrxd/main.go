package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/irguard/irguard.go/pkg/config"
	"github.com/irguard/irguard.go/pkg/framework"
	"github.com/irguard/irguard.go/pkg/hw"
	"github.com/irguard/irguard.go/pkg/mirror"
	"github.com/irguard/irguard.go/pkg/rxnode"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "irrxd.yml", "Node configuration file.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load(configFile, config.Receiver)
	if err != nil {
		glog.Exitf("config: %v", err)
	}

	port, err := hw.OpenPort(cfg.Serial.Device, cfg.Serial.Baud,
		time.Duration(cfg.Serial.ReadTimeoutMs)*time.Millisecond)
	if err != nil {
		glog.Exitf("serial: %v", err)
	}
	defer port.Close()

	sup := &rxnode.Supervisor{
		Watchdog:     hw.NewSoftWatchdog(cfg.Watchdog.MarkerFile),
		Display:      &rxnode.ConsolePane{Out: os.Stdout},
		Grace:        time.Duration(cfg.Receiver.GraceMs) * time.Millisecond,
		CommTimeout:  time.Duration(cfg.Receiver.CommTimeoutMs) * time.Millisecond,
		RefreshEvery: time.Duration(cfg.Receiver.RefreshMs) * time.Millisecond,
	}

	if cfg.Mirror.URL != "" {
		pub, err := mirror.NewPublisher(cfg.Mirror.URL)
		if err != nil {
			glog.Exitf("mirror: %v", err)
		}
		defer pub.Close()
		sup.Publisher = pub
	}

	sup.Boot(time.Now(), time.Duration(cfg.Watchdog.TimeoutMs)*time.Millisecond)

	loop := framework.NewLoop().AddController(sup)
	loop.AddRunnable(&rxnode.Reader{Port: port, Loop: loop})

	if err := framework.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Exitf("%v", err)
	}
}
