package hw

import (
	"os"
	"time"

	"github.com/goburrow/serial"
)

// OpenPort opens the telemetry UART: 8 data bits, no parity, 1 stop
// bit. The read timeout keeps the cooperative loops from blocking on a
// silent link.
func OpenPort(device string, baud int, readTimeout time.Duration) (serial.Port, error) {
	return serial.Open(&serial.Config{
		Address:  device,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  readTimeout,
	})
}

// IsTimeout reports whether a read error is a timeout rather than a
// link failure.
func IsTimeout(err error) bool {
	return err == serial.ErrTimeout || os.IsTimeout(err)
}
