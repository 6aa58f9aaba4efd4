package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/irguard/irguard.go/pkg/appliance"
	"github.com/irguard/irguard.go/pkg/fault"
)

var testPacket = Packet{
	State:       appliance.On,
	LastCommand: appliance.On,
	UptimeMS:    2500,
	WdtResets:   1,
	LastFault:   fault.None,
	Operations:  3,
}

// noise returns filler bytes guaranteed to contain no header byte.
func noise(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i%7) + 1
	}
	return out
}

func TestResyncThroughNoise(t *testing.T) {
	frame := testPacket.Encode()

	stream := append(noise(33), frame...)
	stream = append(stream, noise(17)...)

	var dec Decoder
	pkts := dec.FeedAll(stream)
	require.Len(t, pkts, 1)
	require.Equal(t, testPacket, *pkts[0])
	require.False(t, dec.Synced())
}

func TestRejectChecksumBitFlips(t *testing.T) {
	frame := testPacket.Encode()
	for bit := uint(0); bit < 8; bit++ {
		corrupted := append([]byte(nil), frame...)
		corrupted[20] ^= 1 << bit

		var dec Decoder
		require.Empty(t, dec.FeedAll(corrupted), "flipped checksum bit %d", bit)
	}
}

func TestRejectBadFooter(t *testing.T) {
	frame := testPacket.Encode()
	for v := 0; v < 256; v++ {
		if byte(v) == Footer {
			continue
		}
		corrupted := append([]byte(nil), frame...)
		corrupted[21] = byte(v)

		var dec Decoder
		require.Empty(t, dec.FeedAll(corrupted), "footer byte 0x%02X", v)
	}
}

func TestRejectPayloadCorruption(t *testing.T) {
	frame := testPacket.Encode()
	corrupted := append([]byte(nil), frame...)
	corrupted[9] ^= 0x40

	var dec Decoder
	require.Empty(t, dec.FeedAll(corrupted))
}

// A header byte arriving inside a corrupted frame is consumed with the
// dropped buffer: the packet it started is lost and the decoder only
// recovers on the following frame. This is the accepted resync
// trade-off, asserted here so a change to it is a deliberate one.
func TestCorruptionConsumesEmbeddedPacket(t *testing.T) {
	frame := testPacket.Encode()

	bad := append([]byte(nil), frame...)
	bad[20] ^= 0xFF // corrupt the checksum of the first frame

	stream := append(bad[:10], frame...) // second frame starts mid-accumulation
	stream = append(stream, frame...)    // third frame arrives cleanly

	var dec Decoder
	pkts := dec.FeedAll(stream)
	require.Len(t, pkts, 1)
	require.Equal(t, testPacket, *pkts[0])
}

func TestGarbageStreamProducesNothing(t *testing.T) {
	var dec Decoder
	require.Empty(t, dec.FeedAll(fault.Garbage()))
	require.False(t, dec.Synced())
}

func TestBackToBackFrames(t *testing.T) {
	first := testPacket
	second := testPacket
	second.UptimeMS += 500
	second.Operations++

	var dec Decoder
	pkts := dec.FeedAll(append(first.Encode(), second.Encode()...))
	require.Len(t, pkts, 2)
	require.Equal(t, first, *pkts[0])
	require.Equal(t, second, *pkts[1])
}

func TestResetDropsPartialFrame(t *testing.T) {
	frame := testPacket.Encode()

	var dec Decoder
	require.Empty(t, dec.FeedAll(frame[:15]))
	require.True(t, dec.Synced())
	dec.Reset()
	require.False(t, dec.Synced())

	pkts := dec.FeedAll(frame)
	require.Len(t, pkts, 1)
}
