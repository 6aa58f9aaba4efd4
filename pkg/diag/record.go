// Package diag persists the boot/fault history of a node across
// resets and power cycles.
package diag

import (
	"encoding/binary"

	"github.com/irguard/irguard.go/pkg/fault"
)

// Magic tags an initialized record. A stored record with any other tag
// is treated as uninitialized.
const Magic uint32 = 0xDEADBEEF

// RecordSize is the stored record length in bytes.
const RecordSize = 20

// ResetKind says what caused the most recent reset.
type ResetKind uint32

const (
	// ResetNormal is a power-on or manual reset.
	ResetNormal ResetKind = 0
	// ResetWatchdog is a reset forced by the watchdog timer.
	ResetWatchdog ResetKind = 1
)

// String returns the display name of the reset kind.
func (k ResetKind) String() string {
	if k == ResetWatchdog {
		return "WATCHDOG"
	}
	return "NORMAL"
}

// Record is the persisted diagnostic record.
type Record struct {
	Magic     uint32
	BootCount uint32
	WdtCount  uint32
	LastReset ResetKind
	LastFault fault.Code
}

// NewRecord returns a zeroed record carrying the correct magic tag.
func NewRecord() Record {
	return Record{Magic: Magic}
}

// ApplyBoot accounts for one boot. BootCount always increments. A
// watchdog-caused boot increments WdtCount and keeps LastFault, which
// was persisted just before the lockup; a normal boot clears it.
func (r *Record) ApplyBoot(wdtCaused bool) {
	r.BootCount++
	if wdtCaused {
		r.WdtCount++
		r.LastReset = ResetWatchdog
	} else {
		r.LastReset = ResetNormal
		r.LastFault = fault.None
	}
}

// Encode serializes the record, little-endian.
func (r Record) Encode() []byte {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(buf[0:], r.Magic)
	binary.LittleEndian.PutUint32(buf[4:], r.BootCount)
	binary.LittleEndian.PutUint32(buf[8:], r.WdtCount)
	binary.LittleEndian.PutUint32(buf[12:], uint32(r.LastReset))
	binary.LittleEndian.PutUint32(buf[16:], uint32(r.LastFault))
	return buf
}

// decodeRecord unpacks a stored record. ok is false when the magic tag
// does not match, including short or erased storage.
func decodeRecord(buf []byte) (Record, bool) {
	if len(buf) < RecordSize {
		return Record{}, false
	}
	r := Record{
		Magic:     binary.LittleEndian.Uint32(buf[0:]),
		BootCount: binary.LittleEndian.Uint32(buf[4:]),
		WdtCount:  binary.LittleEndian.Uint32(buf[8:]),
		LastReset: ResetKind(binary.LittleEndian.Uint32(buf[12:])),
		LastFault: fault.Code(binary.LittleEndian.Uint32(buf[16:])),
	}
	if r.Magic != Magic {
		return Record{}, false
	}
	return r, true
}
