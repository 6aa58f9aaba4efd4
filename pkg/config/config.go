// Package config loads the YAML node configuration shared by the
// transmitter and receiver daemons.
package config

// Role selects which defaults and validation rules apply.
type Role int

const (
	// Transmitter is the appliance controller node.
	Transmitter Role = iota
	// Receiver is the telemetry supervisor node.
	Receiver
)

// Config is the top-level node configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Store    StoreConfig    `yaml:"store"`
	Receiver ReceiverConfig `yaml:"receiver"`
	Mirror   MirrorConfig   `yaml:"mirror"`
}

// SerialConfig describes the point-to-point telemetry link.
type SerialConfig struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

// WatchdogConfig configures the node's own watchdog.
type WatchdogConfig struct {
	TimeoutMs  int    `yaml:"timeout_ms"`
	MarkerFile string `yaml:"marker_file"`
}

// StoreConfig configures the non-volatile diagnostic storage
// (transmitter only).
type StoreConfig struct {
	Path        string `yaml:"path"`
	Blocks      int    `yaml:"blocks"`
	ScratchFile string `yaml:"scratch_file"`
}

// ReceiverConfig holds the supervision timing (receiver only).
type ReceiverConfig struct {
	GraceMs       int `yaml:"grace_ms"`
	CommTimeoutMs int `yaml:"comm_timeout_ms"`
	RefreshMs     int `yaml:"refresh_ms"`
}

// MirrorConfig configures the optional MQTT status mirror (receiver
// only). An empty URL disables it.
type MirrorConfig struct {
	URL string `yaml:"url"`
}
