// Package telemetry implements the fixed 22-byte status frame sent
// from the transmitter node to the receiver node, and a streaming
// decoder that resynchronizes after corruption.
package telemetry

import (
	"encoding/binary"

	"github.com/irguard/irguard.go/pkg/appliance"
	"github.com/irguard/irguard.go/pkg/fault"
)

// Frame layout constants. The frame is little-endian:
//
//	offset 0  header (0xAA)
//	offset 1  appliance state code
//	offset 2  last command code
//	offset 3  operation-in-flight flag
//	offset 4  uptime, milliseconds
//	offset 8  cumulative watchdog-caused resets
//	offset 12 last fault code
//	offset 16 cumulative successful operations
//	offset 20 checksum: 8-bit sum of bytes 0-19
//	offset 21 footer (0x55)
const (
	Header byte = 0xAA
	Footer byte = 0x55

	// PacketSize is the full frame length in bytes.
	PacketSize = 22
)

// Packet is one status snapshot. A fresh Packet is built for every
// transmission; once encoded it is never mutated.
type Packet struct {
	State       appliance.State
	LastCommand appliance.Command
	Pending     bool
	UptimeMS    uint32
	WdtResets   uint32
	LastFault   fault.Code
	Operations  uint32
}

// Encode serializes the packet into a fresh buffer. It always succeeds.
func (p *Packet) Encode() []byte {
	buf := make([]byte, PacketSize)
	buf[0] = Header
	buf[1] = byte(p.State)
	buf[2] = byte(p.LastCommand)
	if p.Pending {
		buf[3] = 1
	}
	binary.LittleEndian.PutUint32(buf[4:], p.UptimeMS)
	binary.LittleEndian.PutUint32(buf[8:], p.WdtResets)
	binary.LittleEndian.PutUint32(buf[12:], uint32(p.LastFault))
	binary.LittleEndian.PutUint32(buf[16:], p.Operations)
	buf[20] = Checksum(buf)
	buf[21] = Footer
	return buf
}

// Checksum computes the 8-bit unsigned sum of the first 20 bytes of a
// frame, the bytes preceding the checksum field.
func Checksum(frame []byte) byte {
	var sum byte
	for _, b := range frame[:PacketSize-2] {
		sum += b
	}
	return sum
}

// decode unpacks a frame whose footer and checksum were already
// validated.
func decode(frame []byte) *Packet {
	return &Packet{
		State:       appliance.State(frame[1]),
		LastCommand: appliance.Command(frame[2]),
		Pending:     frame[3] != 0,
		UptimeMS:    binary.LittleEndian.Uint32(frame[4:]),
		WdtResets:   binary.LittleEndian.Uint32(frame[8:]),
		LastFault:   fault.Code(binary.LittleEndian.Uint32(frame[12:])),
		Operations:  binary.LittleEndian.Uint32(frame[16:]),
	}
}
