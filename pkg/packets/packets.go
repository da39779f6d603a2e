// Package packets implements the typed command packets carried inside
// hdlc.Frame payloads: a two-byte (family, type) discriminator followed by
// a fixed schema of fields, per packet type. Each type is a hand-written Go
// struct with its own Encode/Decode pair rather than a runtime-reflected
// schema, per the distilled spec's design note against dynamic field
// assignment.
package packets

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrPartialPacket is returned when a payload ends before a packet's schema
// is satisfied.
var ErrPartialPacket = fmt.Errorf("partial packet: payload too short for schema")

// ErrWrongDiscriminator is returned when Decode is called on a payload whose
// (family, type) bytes don't match the expected packet type.
type ErrWrongDiscriminator struct {
	WantFamily, WantType byte
	GotFamily, GotType   byte
}

func (e *ErrWrongDiscriminator) Error() string {
	return fmt.Sprintf("packet discriminator mismatch: want %q%q, got %q%q",
		e.WantFamily, e.WantType, e.GotFamily, e.GotType)
}

func need(buf []byte, n int) error {
	if len(buf) < n {
		return ErrPartialPacket
	}
	return nil
}

func checkDiscriminator(buf []byte, family, typ byte) error {
	if err := need(buf, 2); err != nil {
		return err
	}
	if buf[0] != family || buf[1] != typ {
		return &ErrWrongDiscriminator{WantFamily: family, WantType: typ, GotFamily: buf[0], GotType: buf[1]}
	}
	return nil
}

// readVarBytesU16 reads a uint16-prefixed variable-length byte field.
func readVarBytesU16(buf []byte) (value []byte, consumed int, err error) {
	if err := need(buf, 2); err != nil {
		return nil, 0, err
	}
	n := int(binary.BigEndian.Uint16(buf[:2]))
	if err := need(buf[2:], n); err != nil {
		return nil, 0, err
	}
	value = make([]byte, n)
	copy(value, buf[2:2+n])
	return value, 2 + n, nil
}

// appendVarBytesU16 appends a uint16-prefixed variable-length byte field.
func appendVarBytesU16(dst []byte, value []byte) []byte {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(value)))
	dst = append(dst, lenBuf[:]...)
	return append(dst, value...)
}

// readVarBytesU8 reads a uint8-prefixed variable-length byte field, used for
// the ADC channel list.
func readVarBytesU8(buf []byte) (value []byte, consumed int, err error) {
	if err := need(buf, 1); err != nil {
		return nil, 0, err
	}
	n := int(buf[0])
	if err := need(buf[1:], n); err != nil {
		return nil, 0, err
	}
	value = make([]byte, n)
	copy(value, buf[1:1+n])
	return value, 1 + n, nil
}

// appendVarBytesU8 appends a uint8-prefixed variable-length byte field.
func appendVarBytesU8(dst []byte, value []byte) []byte {
	dst = append(dst, byte(len(value)))
	return append(dst, value...)
}

func float32bits(f float32) uint32    { return math.Float32bits(f) }
func float32frombits(b uint32) float32 { return math.Float32frombits(b) }
