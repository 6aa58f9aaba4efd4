package config

import "fmt"

// Validate checks configuration correctness for the given role. It
// performs declarative validation only and MUST NOT mutate the
// configuration.
func Validate(cfg *Config, role Role) error {
	if cfg.Serial.Device == "" {
		return fmt.Errorf("serial.device is required")
	}
	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be > 0")
	}
	if cfg.Serial.ReadTimeoutMs <= 0 {
		return fmt.Errorf("serial.read_timeout_ms must be > 0")
	}
	if cfg.Watchdog.TimeoutMs <= 0 {
		return fmt.Errorf("watchdog.timeout_ms must be > 0")
	}

	switch role {
	case Transmitter:
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required for the transmitter")
		}
		if cfg.Store.Blocks < 1 {
			return fmt.Errorf("store.blocks must be >= 1")
		}
	case Receiver:
		if cfg.Receiver.GraceMs < 0 {
			return fmt.Errorf("receiver.grace_ms must be >= 0")
		}
		if cfg.Receiver.CommTimeoutMs <= 0 {
			return fmt.Errorf("receiver.comm_timeout_ms must be > 0")
		}
		if cfg.Receiver.RefreshMs <= 0 {
			return fmt.Errorf("receiver.refresh_ms must be > 0")
		}
	}
	return nil
}
