package main

//go-build: CGO_ENABLED=0

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/irguard/irguard.go/pkg/mirror"
)

var (
	mqttURL = "mqtt://localhost:1883/irguard/"
)

func init() {
	if val := os.Getenv("IRGUARD_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mirror.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		log.Fatalln(err)
	}

	q.Sub(mirror.TelemetryTopic+"#", func(topic string, payload []byte) {
		var snap mirror.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			log.Printf("%s: bad snapshot: %v", topic, err)
			return
		}
		if !snap.Live {
			link := "waiting"
			if snap.EverReceived {
				link = "LOST"
			}
			log.Printf("%s: link %s (%d packets)", topic, link, snap.Packets)
			return
		}
		log.Printf("%s: state=%s cmd=%s fault=%s up=%dms ops=%d resets=%d packets=%d",
			topic, snap.State, snap.LastCommand, snap.LastFault,
			snap.UptimeMS, snap.Operations, snap.WdtResets, snap.Packets)
	})
	<-(chan struct{})(nil)
}
