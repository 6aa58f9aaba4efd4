package mirror

import (
	"encoding/json"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/irguard/irguard.go/pkg/rxnode"
)

// TelemetryTopic is the topic (under the broker URL's prefix) snapshots
// are published to, suffixed with the node ID.
const TelemetryTopic = "telemetry/"

// Snapshot is the JSON payload mirrored per validated packet.
type Snapshot struct {
	NodeID       string    `json:"node_id"`
	Time         time.Time `json:"time"`
	Live         bool      `json:"live"`
	EverReceived bool      `json:"ever_received"`

	State       string `json:"state"`
	LastCommand string `json:"last_command"`
	Pending     bool   `json:"pending"`
	UptimeMS    uint32 `json:"uptime_ms"`
	WdtResets   uint32 `json:"wdt_resets"`
	LastFault   string `json:"last_fault"`
	Operations  uint32 `json:"operations"`
	Packets     uint32 `json:"packets"`
}

// Publisher mirrors receiver snapshots to an MQTT broker. It
// implements rxnode.Publisher.
type Publisher struct {
	Queue  *Queue
	NodeID string

	// Now is a clock hook for tests; nil means time.Now.
	Now func() time.Time
}

// NewPublisher connects to the broker named by brokerURL. The machine
// ID names this receiver in the topic and, unless the URL sets one, as
// the MQTT client ID.
func NewPublisher(brokerURL string) (*Publisher, error) {
	id, err := machineid.ID()
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID("irguard-" + id)
	}
	p := &Publisher{
		Queue:  NewQueue(opts, topicPrefix),
		NodeID: id,
	}
	token := p.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return p, nil
}

// Publish implements rxnode.Publisher. Publishing is best-effort at
// QoS 0: a slow or absent broker must never stall the control loop.
func (p *Publisher) Publish(st rxnode.Status) error {
	payload, err := json.Marshal(p.snapshot(st))
	if err != nil {
		return err
	}
	p.Queue.Pub(TelemetryTopic+p.NodeID, payload)
	glog.V(2).Infof("PUB %s%s", TelemetryTopic, p.NodeID)
	return nil
}

// Close implements io.Closer.
func (p *Publisher) Close() error {
	return p.Queue.Close()
}

func (p *Publisher) snapshot(st rxnode.Status) Snapshot {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return Snapshot{
		NodeID:       p.NodeID,
		Time:         now().UTC(),
		Live:         st.Live,
		EverReceived: st.EverReceived,
		State:        st.Packet.State.String(),
		LastCommand:  st.Packet.LastCommand.String(),
		Pending:      st.Packet.Pending,
		UptimeMS:     st.Packet.UptimeMS,
		WdtResets:    st.Packet.WdtResets,
		LastFault:    st.Packet.LastFault.String(),
		Operations:   st.Packet.Operations,
		Packets:      st.Packets,
	}
}
