package diag

import (
	"errors"

	"github.com/golang/glog"
)

// BlockDevice models non-volatile storage with erase-block
// granularity. A write smaller than a block still costs erasing and
// reprogramming the whole block.
type BlockDevice interface {
	// BlockSize returns the erase granularity in bytes.
	BlockSize() int
	// Size returns the total capacity in bytes.
	Size() int
	// ReadAt reads into p starting at off.
	ReadAt(p []byte, off int64) (int, error)
	// Erase resets length bytes starting at off to the erased pattern.
	// off and length must be block-aligned.
	Erase(off int64, length int) error
	// Program writes p starting at off into previously erased storage.
	Program(off int64, p []byte) error
}

// Store keeps the diagnostic record in the final erase block of a
// block device.
type Store struct {
	dev BlockDevice

	// Critical enters the critical section guarding the erase/program
	// sequence and returns the func leaving it. On hardware this masks
	// interrupts so nothing touches the medium mid-cycle; host
	// implementations may leave it nil.
	Critical func() (restore func())
}

// NewStore creates a store over dev.
func NewStore(dev BlockDevice) *Store {
	return &Store{dev: dev}
}

func (s *Store) offset() int64 {
	return int64(s.dev.Size() - s.dev.BlockSize())
}

// Load reads the persisted record. It never fails the caller: a
// missing, short or corrupted record degrades to a zeroed record with
// the correct magic tag, the first-boot case.
func (s *Store) Load() Record {
	buf := make([]byte, RecordSize)
	if _, err := s.dev.ReadAt(buf, s.offset()); err != nil {
		glog.Warningf("diag: read failed, using defaults: %v", err)
		return NewRecord()
	}
	rec, ok := decodeRecord(buf)
	if !ok {
		glog.Info("diag: no record found, using defaults")
		return NewRecord()
	}
	return rec
}

// Save persists the record with an erase-then-program cycle over the
// record's block. The whole sequence runs inside the critical section.
// Save is synchronous and blocking; callers invoke it only where
// blocking is acceptable, in particular just before entering a
// terminal fault state, never inside one.
func (s *Store) Save(rec Record) error {
	if rec.Magic != Magic {
		return errors.New("diag: refusing to save record without magic tag")
	}
	if s.Critical != nil {
		restore := s.Critical()
		defer restore()
	}
	off := s.offset()
	if err := s.dev.Erase(off, s.dev.BlockSize()); err != nil {
		return err
	}
	return s.dev.Program(off, rec.Encode())
}
