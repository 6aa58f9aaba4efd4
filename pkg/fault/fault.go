// Package fault catalogs the deliberately induced, unrecoverable
// failure scenarios and how each behaves after entry.
//
// Every fault is a terminal transition: once entered the node performs
// only the descriptor's terminal behavior and never feeds its watchdog
// again, guaranteeing a hardware-forced reset. The fault code is
// persisted before entry so the next boot can report what happened.
package fault

import "time"

// Code identifies an induced fault. Zero means no fault. The values
// are persisted and carried on the wire and must not change.
type Code uint32

const (
	// None indicates no fault recorded.
	None Code = 0x00
	// InfiniteLoop is the operator-triggered busy lockup (command 'F').
	InfiniteLoop Code = 0x01
	// Temp22 is the induced failure of the 22C temperature command.
	Temp22 Code = 0x02
	// UARTStuck is the operator-triggered stuck transmitter (command 'U'):
	// the link carries garbage bytes until the watchdog fires.
	UARTStuck Code = 0x03
)

// IsFault reports whether the code names a known induced fault.
func (c Code) IsFault() bool {
	return c >= InfiniteLoop && c <= UARTStuck
}

// String returns the short display name used on status panels.
func (c Code) String() string {
	switch c {
	case None:
		return "NONE"
	case InfiniteLoop:
		return "LOOP INF"
	case Temp22:
		return "CMD 22C"
	case UARTStuck:
		return "UART STUCK"
	}
	return "CRITICAL"
}

// Terminal selects the behavior executed while awaiting the forced reset.
type Terminal int

const (
	// TerminalBlink toggles the fault indicator and does nothing else.
	TerminalBlink Terminal = iota
	// TerminalTransmitGarbage blinks and additionally writes invalid
	// bytes to the telemetry link every cycle.
	TerminalTransmitGarbage
)

// Descriptor describes one cataloged fault.
type Descriptor struct {
	Code   Code
	Name   string
	Detail string // second line on the fault panel

	Terminal   Terminal
	BlinkEvery time.Duration
}

var catalog = []Descriptor{
	{
		Code:       InfiniteLoop,
		Name:       "INFINITE LOOP",
		Detail:     "cmd 'F'",
		Terminal:   TerminalBlink,
		BlinkEvery: 200 * time.Millisecond,
	},
	{
		Code:       Temp22,
		Name:       "CMD 22C",
		Detail:     "IR lockup",
		Terminal:   TerminalBlink,
		BlinkEvery: 150 * time.Millisecond,
	},
	{
		Code:       UARTStuck,
		Name:       "UART STUCK",
		Detail:     "cmd 'U'",
		Terminal:   TerminalTransmitGarbage,
		BlinkEvery: 100 * time.Millisecond,
	},
}

// Catalog returns the descriptors of all cataloged faults.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds the descriptor for a code.
func Lookup(code Code) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Code == code {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Garbage returns the byte sequence a stuck transmitter repeats.
// It deliberately contains no packet header byte.
func Garbage() []byte {
	return []byte("XXXXXXXXXXXXXXXXXX")
}
