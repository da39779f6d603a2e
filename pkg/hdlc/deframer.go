package hdlc

import "errors"

// ErrLengthExceeded is the framing error reported (via LengthErrorCallback)
// when a frame declares a body longer than MaxPacketLen.
var ErrLengthExceeded = errors.New("hdlc: frame length exceeds MaxPacketLen")

// ErrChecksumMismatch is the framing error reported (via
// ChecksumErrorCallback) when a frame's trailing FCS does not match the
// CRC-16 computed over its escaped header and body.
var ErrChecksumMismatch = errors.New("hdlc: frame checksum mismatch")

// State is one step of the Deframer's byte-driven parsing state machine.
type State int

const (
	StateIdle State = iota
	StateWaitAddr
	StateWaitControl
	StateWaitLenHi
	StateWaitLenLo
	StateInBody
	StateWaitCksumHi
	StateWaitCksumLo
)

// Frame is the unit delivered by the Deframer once a frame has been fully
// parsed and its checksum verified.
type Frame struct {
	Address Address
	Control byte
	Payload []byte
}

// FrameCallback is invoked once per successfully-parsed, checksum-verified
// frame.
type FrameCallback func(Frame)

// InterruptedCallback is invoked when an unescaped FLAG arrives mid-frame,
// with the partial, de-escaped payload accumulated so far.
type InterruptedCallback func(partial []byte)

// LengthErrorCallback is invoked when a frame's declared length exceeds
// MaxPacketLen.
type LengthErrorCallback func(length int)

// ChecksumErrorCallback is invoked when a frame's trailing FCS does not
// match the CRC-16 computed over its escaped header and body.
type ChecksumErrorCallback func(address Address, control byte, payload []byte)

// Deframer is a byte-at-a-time state machine that recovers Frames from a
// byte-stuffed HDLC-style stream. It is not safe for concurrent use; feed it
// from a single goroutine.
type Deframer struct {
	state     State
	sawEscape bool

	accumulator []byte // de-escaped payload bytes collected so far
	crcAccum    []byte // raw (still escaped) header+body bytes, for FCS verification

	curAddr    byte
	curControl byte
	curLen     int
	bodyRem    int
	curCksum   uint16

	frameCb       FrameCallback
	interruptedCb InterruptedCallback
	lengthErrorCb LengthErrorCallback
	checksumErrCb ChecksumErrorCallback
}

// NewDeframer creates a Deframer in its initial IDLE state. cb is invoked
// once per verified frame; it must not be nil.
func NewDeframer(cb FrameCallback) *Deframer {
	return &Deframer{
		state:       StateIdle,
		accumulator: make([]byte, 0, 64),
		crcAccum:    make([]byte, 0, 64),
		frameCb:     cb,
	}
}

// RegisterInterruptedFrameCallback sets (or, with nil, clears) the callback
// invoked when a mid-frame FLAG forces a resync.
func (d *Deframer) RegisterInterruptedFrameCallback(cb InterruptedCallback) {
	d.interruptedCb = cb
}

// RegisterLengthErrorCallback sets (or clears) the callback invoked when an
// oversized frame length is seen.
func (d *Deframer) RegisterLengthErrorCallback(cb LengthErrorCallback) {
	d.lengthErrorCb = cb
}

// RegisterChecksumErrorCallback sets (or clears) the callback invoked when a
// frame's FCS fails to verify.
func (d *Deframer) RegisterChecksumErrorCallback(cb ChecksumErrorCallback) {
	d.checksumErrCb = cb
}

// State returns the deframer's current parsing state, mostly useful for
// tests and diagnostics.
func (d *Deframer) State() State {
	return d.state
}

func (d *Deframer) resetState() {
	d.accumulator = d.accumulator[:0]
	d.crcAccum = d.crcAccum[:0]
	d.curAddr = 0
	d.curControl = 0
	d.curLen = 0
	d.curCksum = 0
	d.bodyRem = 0
	d.sawEscape = false
}

// inCRCRange reports whether the deframer is currently inside the byte
// range (addr through end of body) that contributes to the FCS.
func (d *Deframer) inCRCRange() bool {
	return d.state != StateIdle && d.state != StateWaitCksumHi && d.state != StateWaitCksumLo
}

// Rx feeds an entire buffer through the state machine, byte by byte.
func (d *Deframer) Rx(buf []byte) {
	for _, b := range buf {
		d.RxByte(b)
	}
}

// RxByte feeds a single byte through the state machine. It may invoke any
// of the registered callbacks synchronously before returning.
func (d *Deframer) RxByte(b byte) {
	isEscape := b == ESCAPE
	isFlag := b == FLAG

	if !d.sawEscape && isEscape {
		d.sawEscape = true
		if d.state == StateInBody && d.bodyRem == 0 {
			// The last body byte has already arrived; this ESCAPE belongs to
			// the FCS high byte, not the body, so advance before accounting.
			d.state = StateWaitCksumHi
		}
		if d.state == StateInBody {
			d.bodyRem--
		}
		if d.inCRCRange() {
			d.crcAccum = append(d.crcAccum, b)
		}
		return
	}

	if !d.sawEscape && isFlag && d.state != StateIdle && d.state != StateWaitAddr {
		if d.interruptedCb != nil {
			partial := make([]byte, len(d.accumulator))
			copy(partial, d.accumulator)
			d.interruptedCb(partial)
		}
		d.resetState()
		d.state = StateWaitAddr
		return
	}

	d.sawEscape = false

	switch d.state {
	case StateIdle:
		if !isFlag {
			return
		}
		d.resetState()
		d.state = StateWaitAddr
		return

	case StateWaitAddr:
		if isFlag {
			return
		}
		d.curAddr = b
		d.crcAccum = append(d.crcAccum, b)
		d.state = StateWaitControl
		return

	case StateWaitControl:
		d.curControl = b
		d.crcAccum = append(d.crcAccum, b)
		d.state = StateWaitLenHi
		return

	case StateWaitLenHi:
		d.curLen = int(b) << 8
		d.crcAccum = append(d.crcAccum, b)
		d.state = StateWaitLenLo
		return

	case StateWaitLenLo:
		d.curLen |= int(b)
		d.crcAccum = append(d.crcAccum, b)
		d.bodyRem = d.curLen
		if d.curLen > MaxPacketLen {
			length := d.curLen
			d.resetState()
			d.state = StateIdle
			if d.lengthErrorCb != nil {
				d.lengthErrorCb(length)
			}
			return
		}
		d.state = StateInBody
		return

	case StateInBody:
		if d.bodyRem > 0 {
			d.bodyRem--
			d.accumulator = append(d.accumulator, b)
			d.crcAccum = append(d.crcAccum, b)
			return
		}
		d.state = StateWaitCksumHi
		fallthrough

	case StateWaitCksumHi:
		d.curCksum = uint16(b) << 8
		d.state = StateWaitCksumLo
		return

	case StateWaitCksumLo:
		d.curCksum |= uint16(b)
		d.deliverOrReject()
		d.resetState()
		d.state = StateIdle
		return
	}
}

func (d *Deframer) deliverOrReject() {
	expected := CRC16(d.crcAccum)
	if expected != d.curCksum {
		if d.checksumErrCb != nil {
			payload := make([]byte, len(d.accumulator))
			copy(payload, d.accumulator)
			d.checksumErrCb(Address(d.curAddr), d.curControl, payload)
		}
		return
	}

	payload := make([]byte, len(d.accumulator))
	copy(payload, d.accumulator)
	d.frameCb(Frame{
		Address: Address(d.curAddr),
		Control: d.curControl,
		Payload: payload,
	})
}
