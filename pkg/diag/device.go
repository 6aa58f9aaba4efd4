package diag

import (
	"errors"
	"os"
)

// EraseBlockSize matches the erase granularity of the original flash
// medium.
const EraseBlockSize = 4096

const erasedByte = 0xFF

var (
	errOutOfRange  = errors.New("diag: access out of range")
	errMisaligned  = errors.New("diag: erase not block-aligned")
	errNotErased   = errors.New("diag: programming non-erased storage")
	errBadGeometry = errors.New("diag: device must hold at least one block")
)

// MemDevice is an in-memory BlockDevice, used in tests.
type MemDevice struct {
	data []byte
}

// NewMemDevice creates a MemDevice holding blocks erase blocks.
func NewMemDevice(blocks int) *MemDevice {
	d := &MemDevice{data: make([]byte, blocks*EraseBlockSize)}
	for i := range d.data {
		d.data[i] = erasedByte
	}
	return d
}

// BlockSize implements BlockDevice.
func (d *MemDevice) BlockSize() int { return EraseBlockSize }

// Size implements BlockDevice.
func (d *MemDevice) Size() int { return len(d.data) }

// ReadAt implements BlockDevice.
func (d *MemDevice) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || int(off)+len(p) > len(d.data) {
		return 0, errOutOfRange
	}
	return copy(p, d.data[off:]), nil
}

// Erase implements BlockDevice.
func (d *MemDevice) Erase(off int64, length int) error {
	if off%EraseBlockSize != 0 || length%EraseBlockSize != 0 {
		return errMisaligned
	}
	if off < 0 || int(off)+length > len(d.data) {
		return errOutOfRange
	}
	for i := 0; i < length; i++ {
		d.data[off+int64(i)] = erasedByte
	}
	return nil
}

// Program implements BlockDevice. Programming storage that was not
// erased first is rejected, mirroring the physical medium.
func (d *MemDevice) Program(off int64, p []byte) error {
	if off < 0 || int(off)+len(p) > len(d.data) {
		return errOutOfRange
	}
	for i := range p {
		if d.data[off+int64(i)] != erasedByte {
			return errNotErased
		}
	}
	copy(d.data[off:], p)
	return nil
}

// FileDevice is a file-backed BlockDevice for host deployments. The
// backing file survives both process restarts and machine reboots, so
// it plays the part of the flash medium.
type FileDevice struct {
	path string
	size int
}

// OpenFileDevice opens (creating if needed) a file-backed device of
// blocks erase blocks.
func OpenFileDevice(path string, blocks int) (*FileDevice, error) {
	size := blocks * EraseBlockSize
	if size <= 0 {
		return nil, errBadGeometry
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() < int64(size) {
		// Fill fresh storage with the erased pattern.
		blank := make([]byte, size)
		for i := range blank {
			blank[i] = erasedByte
		}
		if _, err := f.WriteAt(blank[st.Size():], st.Size()); err != nil {
			return nil, err
		}
	}
	return &FileDevice{path: path, size: size}, nil
}

// BlockSize implements BlockDevice.
func (d *FileDevice) BlockSize() int { return EraseBlockSize }

// Size implements BlockDevice.
func (d *FileDevice) Size() int { return d.size }

// ReadAt implements BlockDevice.
func (d *FileDevice) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || int(off)+len(p) > d.size {
		return 0, errOutOfRange
	}
	f, err := os.Open(d.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.ReadAt(p, off)
}

// Erase implements BlockDevice.
func (d *FileDevice) Erase(off int64, length int) error {
	if off%EraseBlockSize != 0 || length%EraseBlockSize != 0 {
		return errMisaligned
	}
	if off < 0 || int(off)+length > d.size {
		return errOutOfRange
	}
	blank := make([]byte, length)
	for i := range blank {
		blank[i] = erasedByte
	}
	return d.writeAt(blank, off)
}

// Program implements BlockDevice.
func (d *FileDevice) Program(off int64, p []byte) error {
	if off < 0 || int(off)+len(p) > d.size {
		return errOutOfRange
	}
	return d.writeAt(p, off)
}

func (d *FileDevice) writeAt(p []byte, off int64) error {
	f, err := os.OpenFile(d.path, os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteAt(p, off); err != nil {
		return err
	}
	return f.Sync()
}
