package hdlc

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"
)

// Property tests for the invariants in SPEC_FULL.md §8, grounded on the
// pack's rapid-based bit-stuffing property test (doismellburning/samoyed's
// Test_bitStuff) adapted to this protocol's FLAG/ESCAPE pair.

// realAddress draws an Address byte excluding FLAG, which WAIT_ADDR treats
// as an idle byte rather than an address (deframer.go's StateWaitAddr case),
// so it can never round-trip as a frame's address.
func realAddress(t *rapid.T) Address {
	return Address(rapid.Byte().Filter(func(b byte) bool { return b != FLAG }).Draw(t, "addr"))
}

func TestPropertyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, MaxPacketLen).Draw(t, "payload")
		addr := realAddress(t)
		control := rapid.Byte().Draw(t, "control")

		wire := Frame(payload, addr, control)

		var got []Frame
		d := NewDeframer(func(f Frame) { got = append(got, f) })
		d.Rx(wire)

		if len(got) != 1 {
			t.Fatalf("expected exactly one delivered frame, got %d", len(got))
		}
		if got[0].Address != addr {
			t.Fatalf("address mismatch: got %v want %v", got[0].Address, addr)
		}
		if got[0].Control != control {
			t.Fatalf("control mismatch: got %v want %v", got[0].Control, control)
		}
		if !bytes.Equal(got[0].Payload, payload) {
			t.Fatalf("payload mismatch: got % X want % X", got[0].Payload, payload)
		}
	})
}

func TestPropertyFlagsOnlyAtEnds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "payload")
		addr := Address(rapid.Byte().Draw(t, "addr"))
		control := rapid.Byte().Draw(t, "control")

		wire := Frame(payload, addr, control)

		if len(wire) < 2 {
			t.Fatalf("frame too short: % X", wire)
		}
		if wire[0] != FLAG || wire[len(wire)-1] != FLAG {
			t.Fatalf("frame must start and end with FLAG: % X", wire)
		}
		count := 0
		escaped := false
		for _, b := range wire {
			if !escaped && b == FLAG {
				count++
			}
			escaped = !escaped && b == ESCAPE
		}
		if count != 2 {
			t.Fatalf("expected exactly 2 unescaped FLAG bytes, found %d in % X", count, wire)
		}
	})
}

func TestPropertyByteAtATimeMatchesBuffered(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "payload")
		addr := Address(rapid.Byte().Draw(t, "addr"))
		control := rapid.Byte().Draw(t, "control")

		wire := Frame(payload, addr, control)

		var bufFrames, byteFrames []Frame
		dBuf := NewDeframer(func(f Frame) { bufFrames = append(bufFrames, f) })
		dBuf.Rx(wire)

		dByte := NewDeframer(func(f Frame) { byteFrames = append(byteFrames, f) })
		for _, b := range wire {
			dByte.RxByte(b)
		}

		if len(bufFrames) != len(byteFrames) {
			t.Fatalf("buffered delivered %d frames, byte-at-a-time delivered %d", len(bufFrames), len(byteFrames))
		}
		for i := range bufFrames {
			if !bytes.Equal(bufFrames[i].Payload, byteFrames[i].Payload) {
				t.Fatalf("frame %d payload mismatch: buffered % X vs byte-at-a-time % X", i, bufFrames[i].Payload, byteFrames[i].Payload)
			}
		}
	})
}

func TestPropertyIdleFlagsBetweenFramesAreHarmless(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "payload")
		n := rapid.IntRange(0, 8).Draw(t, "n")

		wire := Frame(payload, AddressDevice, 0)

		var buf []byte
		for i := 0; i < n; i++ {
			buf = append(buf, FLAG)
		}
		buf = append(buf, wire...)
		for i := 0; i < n; i++ {
			buf = append(buf, FLAG)
		}

		var got []Frame
		d := NewDeframer(func(f Frame) { got = append(got, f) })
		d.Rx(buf)

		if len(got) != 1 {
			t.Fatalf("expected exactly one delivered frame with %d idle flags padded on each side, got %d", n, len(got))
		}
	})
}
