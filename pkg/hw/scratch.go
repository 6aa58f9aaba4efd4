package hw

import (
	"encoding/binary"
	"io/ioutil"
	"os"

	"github.com/golang/glog"
)

// Scratch models the two warm-reset scratch registers: hardware words
// that survive a watchdog-triggered reset but not a power cycle. They
// mirror the watchdog reset count and the last fault code so both are
// readable without a storage access.
type Scratch interface {
	WdtCount() uint32
	SetWdtCount(uint32)
	LastFault() uint32
	SetLastFault(uint32)
}

// MemScratch is a plain in-memory Scratch, used in tests.
type MemScratch struct {
	wdt   uint32
	fault uint32
}

// WdtCount implements Scratch.
func (s *MemScratch) WdtCount() uint32 { return s.wdt }

// SetWdtCount implements Scratch.
func (s *MemScratch) SetWdtCount(v uint32) { s.wdt = v }

// LastFault implements Scratch.
func (s *MemScratch) LastFault() uint32 { return s.fault }

// SetLastFault implements Scratch.
func (s *MemScratch) SetLastFault(v uint32) { s.fault = v }

// FileScratch keeps the registers in a small file, the host stand-in
// for warm-reset-retained hardware state: it survives a process
// restart; deleting the file is the power cycle.
type FileScratch struct {
	path  string
	wdt   uint32
	fault uint32
}

// OpenFileScratch opens (creating if needed) file-backed registers.
func OpenFileScratch(path string) *FileScratch {
	s := &FileScratch{path: path}
	buf, err := ioutil.ReadFile(path)
	if err == nil && len(buf) >= 8 {
		s.wdt = binary.LittleEndian.Uint32(buf[0:])
		s.fault = binary.LittleEndian.Uint32(buf[4:])
	} else if err != nil && !os.IsNotExist(err) {
		glog.Warningf("scratch: read failed, registers cleared: %v", err)
	}
	return s
}

// WdtCount implements Scratch.
func (s *FileScratch) WdtCount() uint32 { return s.wdt }

// SetWdtCount implements Scratch.
func (s *FileScratch) SetWdtCount(v uint32) {
	s.wdt = v
	s.flush()
}

// LastFault implements Scratch.
func (s *FileScratch) LastFault() uint32 { return s.fault }

// SetLastFault implements Scratch.
func (s *FileScratch) SetLastFault(v uint32) {
	s.fault = v
	s.flush()
}

func (s *FileScratch) flush() {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:], s.wdt)
	binary.LittleEndian.PutUint32(buf[4:], s.fault)
	if err := ioutil.WriteFile(s.path, buf, 0644); err != nil {
		glog.Warningf("scratch: write failed: %v", err)
	}
}
