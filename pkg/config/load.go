package config

import (
	"io/ioutil"

	yaml "gopkg.in/yaml.v3"
)

// Load reads, defaults and validates a node configuration.
func Load(path string, role Role) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg, role)
	if err := Validate(&cfg, role); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with the role's defaults. It is
// allowed to mutate the configuration.
func ApplyDefaults(cfg *Config, role Role) {
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 115200
	}
	if cfg.Serial.ReadTimeoutMs == 0 {
		cfg.Serial.ReadTimeoutMs = 50
	}
	if cfg.Watchdog.TimeoutMs == 0 {
		if role == Transmitter {
			cfg.Watchdog.TimeoutMs = 5000
		} else {
			cfg.Watchdog.TimeoutMs = 8000
		}
	}
	if cfg.Watchdog.MarkerFile == "" {
		cfg.Watchdog.MarkerFile = "irguard-wdt.marker"
	}
	if role == Transmitter {
		if cfg.Store.Path == "" {
			cfg.Store.Path = "irguard-flash.bin"
		}
		if cfg.Store.Blocks == 0 {
			cfg.Store.Blocks = 16
		}
		if cfg.Store.ScratchFile == "" {
			cfg.Store.ScratchFile = "irguard-scratch.bin"
		}
	}
	if role == Receiver {
		if cfg.Receiver.GraceMs == 0 {
			cfg.Receiver.GraceMs = 5000
		}
		if cfg.Receiver.CommTimeoutMs == 0 {
			cfg.Receiver.CommTimeoutMs = 2000
		}
		if cfg.Receiver.RefreshMs == 0 {
			cfg.Receiver.RefreshMs = 200
		}
	}
}
