package telemetry

import "github.com/golang/glog"

// Decoder reassembles packets from a byte stream, one byte at a time.
//
// The decoder is either unsynchronized (discarding bytes until it sees
// the header) or accumulating a frame. A completed frame is validated
// by footer and checksum; on mismatch the whole buffer is dropped and
// the decoder goes back to unsynchronized without rescanning the
// dropped bytes for an embedded header. This can lose one valid packet
// immediately following a corrupted one; resync simplicity is traded
// for that, and the next periodic packet recovers the stream.
//
// The decoder never reports an error: "no packet yet" and "rejected
// frame" are both a nil result.
type Decoder struct {
	buf [PacketSize]byte
	n   int
}

// Synced reports whether the decoder is accumulating a frame.
func (d *Decoder) Synced() bool {
	return d.n > 0
}

// Reset drops any partially accumulated frame.
func (d *Decoder) Reset() {
	d.n = 0
}

// Feed consumes one byte and returns a validated packet, or nil.
func (d *Decoder) Feed(b byte) *Packet {
	if d.n == 0 {
		if b != Header {
			return nil
		}
		d.buf[0] = b
		d.n = 1
		return nil
	}

	d.buf[d.n] = b
	d.n++
	if d.n < PacketSize {
		return nil
	}
	d.n = 0

	if d.buf[PacketSize-1] != Footer {
		glog.V(2).Info("frame rejected: bad footer")
		return nil
	}
	if d.buf[PacketSize-2] != Checksum(d.buf[:]) {
		glog.V(2).Info("frame rejected: bad checksum")
		return nil
	}
	return decode(d.buf[:])
}

// FeedAll consumes a chunk of bytes and returns the packets validated
// along the way, in arrival order.
func (d *Decoder) FeedAll(data []byte) []*Packet {
	var pkts []*Packet
	for _, b := range data {
		if pkt := d.Feed(b); pkt != nil {
			pkts = append(pkts, pkt)
		}
	}
	return pkts
}
