// Package target implements the session/dispatch layer driving a single
// argali-tether serial link: a transmit queue, a deframer, pending-request
// bookkeeping, and callback-based routing to the application.
//
// A Target is not safe for concurrent use. It must be driven from a single
// goroutine (Poll plus the request-builder methods); wrap it with a
// single-consumer channel if multiple goroutines need to issue requests.
package target

import (
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jbm9/argali-tether/pkg/hdlc"
	"github.com/jbm9/argali-tether/pkg/packets"
	"github.com/jbm9/argali-tether/pkg/targetlog"
)

// ErrPartialWrite is logged (not returned) when a serial write completes
// fewer bytes than requested without a lower-level I/O error. The device
// tolerates the line going idle, so a future Poll's idle padding is enough
// to let it resync; this is not treated as fatal.
var ErrPartialWrite = errors.New("target: partial write to serial adapter")

// pollReadSize is the number of bytes Poll attempts to read from the serial
// adapter on each call, matching the reference implementation.
const pollReadSize = 10

// idlePaddingBlock is the trailing idle-byte count used when a transmitted
// frame's length isn't a multiple of 8.
const idlePaddingBlock = 8

// Encodable is any packet type with a wire encoding, satisfied by every type
// in pkg/packets.
type Encodable interface {
	Encode() []byte
}

// Target owns the serial handle, deframer, TX queue, and pending-request
// counters for one argali-tether link.
type Target struct {
	conn io.ReadWriter
	log  *logrus.Entry

	deframer *hdlc.Deframer
	txQueue  [][]byte

	PendingEcho     bool
	PendingDAC      bool
	PendingADCBytes int

	adcAccum []byte

	LastEchoSent time.Time

	loglineCb       func(hdlc.Frame)
	adcCb           func([]byte)
	interruptedCb   func([]byte)
	errorCb         func([]byte)
	unknownFamilyCb func(hdlc.Frame)

	readBuf [pollReadSize]byte
}

// New constructs a Target driving conn. conn is typically a *serialport.Port
// but any io.ReadWriter works, which keeps pkg/target free of any
// pkg/serialport import.
func New(conn io.ReadWriter) *Target {
	t := &Target{
		conn: conn,
		log:  targetlog.New("target"),
	}
	t.deframer = hdlc.NewDeframer(t.onFrame)
	t.deframer.RegisterInterruptedFrameCallback(t.onInterrupted)
	t.deframer.RegisterLengthErrorCallback(t.onLengthError)
	t.deframer.RegisterChecksumErrorCallback(t.onChecksumError)
	return t
}

// RegisterLoglineCallback sets the handler invoked for frames addressed to
// the logging channel. If unset, log-line payloads are logged at info level
// via pkg/targetlog instead.
func (t *Target) RegisterLoglineCallback(cb func(hdlc.Frame)) { t.loglineCb = cb }

// SetADCCallback sets the handler invoked once a full ADC capture has
// arrived.
func (t *Target) SetADCCallback(cb func([]byte)) { t.adcCb = cb }

// RegisterInterruptedFrameCallback sets the handler invoked when the
// deframer resyncs after an unescaped FLAG mid-frame.
func (t *Target) RegisterInterruptedFrameCallback(cb func([]byte)) { t.interruptedCb = cb }

// RegisterErrorCallback sets the handler invoked when the device reports an
// application-level error (family '!').
func (t *Target) RegisterErrorCallback(cb func([]byte)) { t.errorCb = cb }

// RegisterUnknownFamilyCallback sets the handler invoked for frames whose
// family byte isn't recognized.
func (t *Target) RegisterUnknownFamilyCallback(cb func(hdlc.Frame)) { t.unknownFamilyCb = cb }

// QueuePacket encodes p, frames it, and appends it to the transmit queue.
// The frame is not written to the wire until the next Poll call.
func (t *Target) QueuePacket(p Encodable) {
	frame := hdlc.Frame(p.Encode(), hdlc.AddressDevice, 0)
	t.txQueue = append(t.txQueue, frame)
}

// PendingInput reports whether any request is still awaiting a response.
func (t *Target) PendingInput() bool {
	return t.PendingEcho || t.PendingDAC || t.PendingADCBytes > 0
}

// Poll performs one non-blocking iteration of the session loop: it reads
// up to pollReadSize bytes from the serial adapter, feeds them to the
// deframer (which synchronously invokes any matching callbacks), then
// drains at most one queued frame to the wire, padding the line with idle
// bytes so the firmware parser always has a resync point.
func (t *Target) Poll() error {
	n, err := t.conn.Read(t.readBuf[:])
	if err != nil && err != io.EOF {
		return err
	}
	if n > 0 {
		t.deframer.Rx(t.readBuf[:n])
	}

	if len(t.txQueue) > 0 {
		frame := t.txQueue[0]
		t.txQueue = t.txQueue[1:]

		if err := t.writeAll([]byte{'~', '~', '~'}); err != nil {
			return err
		}
		if err := t.writeAll(frame); err != nil {
			return err
		}
		if len(frame)%idlePaddingBlock != 0 {
			idle := make([]byte, idlePaddingBlock)
			for i := range idle {
				idle[i] = '~'
			}
			if err := t.writeAll(idle); err != nil {
				return err
			}
		}
	} else {
		if err := t.writeAll([]byte{'~'}); err != nil {
			return err
		}
	}

	return nil
}

// writeAll writes buf in full, logging (rather than failing) a short write
// that completed without a lower-level I/O error.
func (t *Target) writeAll(buf []byte) error {
	n, err := t.conn.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		t.log.WithError(ErrPartialWrite).WithField("bytes", n).Warn("short write to serial adapter")
	}
	return nil
}

// Echo requests the device echo content back.
func (t *Target) Echo(content []byte) {
	t.QueuePacket(packets.EchoRequest{Content: content})
	t.PendingEcho = true
	t.LastEchoSent = time.Now()
}

// ResetRequest asks the device to reset.
func (t *Target) ResetRequest() {
	t.QueuePacket(packets.SysReset{})
}

// DACConfigRequest configures the DAC waveform generator without starting
// playback.
func (t *Target) DACConfigRequest(prescaler uint16, period uint32, scale uint8, pointsPerWave uint16, numWaves uint8, theta0 uint8) {
	t.QueuePacket(packets.DACConfig{
		Prescaler:     prescaler,
		Period:        period,
		Scale:         scale,
		PointsPerWave: pointsPerWave,
		NumWaves:      numWaves,
		Theta0:        theta0,
	})
	t.PendingDAC = true
}

// DACStartRequest starts DAC playback.
func (t *Target) DACStartRequest() {
	t.QueuePacket(packets.DACStart{})
	t.PendingDAC = true
}

// DACStopRequest stops DAC playback.
func (t *Target) DACStopRequest() {
	t.QueuePacket(packets.DACStop{})
	t.PendingDAC = true
}

// ADCCaptureRequest requests a capture of the given channels. numPoints,
// sampleWidth and the number of channels determine the expected reply size,
// tracked via PendingADCBytes.
func (t *Target) ADCCaptureRequest(prescaler uint16, period uint32, numPoints uint16, sampleWidth uint8, sampleTime uint16, channels []byte) {
	t.QueuePacket(packets.ADCConfig{
		Prescaler:   prescaler,
		Period:      period,
		NumPoints:   numPoints,
		SampleWidth: sampleWidth,
		SampleTime:  sampleTime,
		Channels:    channels,
	})
	t.PendingADCBytes = int(numPoints) * int(sampleWidth) * len(channels)
	t.adcAccum = t.adcAccum[:0]
}

func (t *Target) onFrame(f hdlc.Frame) {
	if f.Address == hdlc.AddressLogging {
		if t.loglineCb != nil {
			t.loglineCb(f)
		} else {
			t.log.WithField("bytes", len(f.Payload)).Info(string(f.Payload))
		}
		return
	}

	if len(f.Payload) == 0 {
		t.log.WithField("frame_address", f.Address).Warn("received frame with empty payload")
		return
	}

	switch f.Payload[0] {
	case '!':
		t.onError(f.Payload)
	case packets.FamilyEcho:
		t.onEcho(f.Payload)
	case packets.FamilyDAC:
		t.PendingDAC = false
	case packets.FamilyADC:
		t.onADC(f.Payload)
	default:
		t.onUnknownFamily(f)
	}
}

func (t *Target) onEcho(payload []byte) {
	if len(payload) < 2 {
		t.log.Warn("echo frame too short for a subtype byte")
		return
	}
	switch payload[1] {
	case packets.TypeEchoReply:
		t.PendingEcho = false
		t.LastEchoSent = time.Time{}
	case packets.TypeEchoTable:
		t.PendingEcho = false
		t.LastEchoSent = time.Time{}
	case packets.TypeEchoRequest:
		t.QueuePacket(packets.EchoReply{Content: append([]byte(nil), payload[2:]...)})
	default:
		t.log.WithField("family", "echo").Warn("unrecognized echo subtype")
	}
}

func (t *Target) onADC(payload []byte) {
	if len(payload) < 2 || payload[1] != packets.TypeADCConfig {
		t.log.WithField("family", "adc").Warn("unrecognized ADC subtype")
		return
	}
	chunk := payload[2:]
	t.adcAccum = append(t.adcAccum, chunk...)
	t.PendingADCBytes -= len(chunk)
	if t.PendingADCBytes <= 0 {
		t.PendingADCBytes = 0
		if t.adcCb != nil {
			t.adcCb(t.adcAccum)
		}
		t.adcAccum = nil
	}
}

func (t *Target) onError(payload []byte) {
	t.log.WithField("bytes", len(payload)).Error("device reported an error packet")
	if t.errorCb != nil {
		t.errorCb(payload)
	}
}

func (t *Target) onUnknownFamily(f hdlc.Frame) {
	t.log.WithField("family", string(f.Payload[0])).Warn("unrecognized packet family")
	if t.unknownFamilyCb != nil {
		t.unknownFamilyCb(f)
	}
}

func (t *Target) onInterrupted(partial []byte) {
	t.log.WithField("bytes", len(partial)).Warn("frame interrupted, resyncing")
	if t.interruptedCb != nil {
		t.interruptedCb(partial)
	}
}

func (t *Target) onLengthError(length int) {
	t.log.WithError(hdlc.ErrLengthExceeded).WithField("length", length).Error("discarding frame")
}

func (t *Target) onChecksumError(addr hdlc.Address, control byte, payload []byte) {
	t.log.WithError(hdlc.ErrChecksumMismatch).WithField("frame_address", addr).Error("discarding frame")
}
