package hdlc

import (
	"bytes"
	"testing"
)

func TestFrameEmptyPayload(t *testing.T) {
	got := Frame(nil, AddressDevice, 0)
	want := []byte{0x7E, 0x64, 0x00, 0x00, 0x00, 0xE8, 0x29, 0x7E}
	if !bytes.Equal(got, want) {
		t.Fatalf("Frame(nil) = % X, want % X", got, want)
	}
}

func TestFrameEscapedPayload(t *testing.T) {
	payload := []byte("~asdf~foo}{}")
	got := Frame(payload, AddressDevice, 0)
	want := []byte{
		0x7E, 0x64, 0x00, 0x00, 0x10,
		0x7D, 0x7E, 0x61, 0x73, 0x64, 0x66,
		0x7D, 0x7E, 0x66, 0x6F, 0x6F,
		0x7D, 0x7D, 0x7B, 0x7D, 0x7D,
		0x54, 0xC6, 0x7E,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Frame(%q) = % X, want % X", payload, got, want)
	}
	if len(got) != 24 {
		t.Fatalf("len(Frame(%q)) = %d, want 24", payload, len(got))
	}
}

func TestFrameDelimitersAtEnds(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte("~asdf~foo}{}"),
		[]byte("hi mom"),
		bytes.Repeat([]byte{0x7E, 0x7D}, 32),
	}
	for _, p := range payloads {
		f := Frame(p, AddressDevice, 0)
		if f[0] != FLAG || f[len(f)-1] != FLAG {
			t.Fatalf("Frame(%q) does not start/end with FLAG: % X", p, f)
		}
		interior := f[1 : len(f)-1]
		if hasUnescapedFlag(interior) {
			t.Fatalf("Frame(%q) has an unescaped FLAG in its interior: % X", p, f)
		}
	}
}

// hasUnescapedFlag reports whether buf contains a FLAG byte not immediately
// preceded by an ESCAPE byte.
func hasUnescapedFlag(buf []byte) bool {
	escaped := false
	for _, b := range buf {
		if !escaped && b == FLAG {
			return true
		}
		escaped = !escaped && b == ESCAPE
	}
	return false
}
